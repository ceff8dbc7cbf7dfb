package transport

import (
	"fmt"
	"path"
	"strings"
)

// Attachment kinds.
const (
	KindImage    = "image"
	KindDocument = "document"
	KindVideo    = "video"
)

// Per-card attachment caps. A single item card never sends more than this
// many of each kind; extras are dropped in stored order.
const (
	MaxImagesPerCard    = 10
	MaxDocumentsPerCard = 5
	MaxVideosPerCard    = 2
)

// Attachment is one media send. Source is either a data URI or an http(s)
// URL; Mime is inferred from it.
type Attachment struct {
	Kind     string
	Source   string
	FileName string
	Mime     string
}

// NewAttachment builds an Attachment from a stored media source, inferring
// the mime type. It returns an error for malformed sources so callers can
// skip the attachment without aborting the rest of the card.
func NewAttachment(kind, source, fileName string) (Attachment, error) {
	mime, err := InferMime(source)
	if err != nil {
		return Attachment{}, err
	}
	return Attachment{Kind: kind, Source: source, FileName: fileName, Mime: mime}, nil
}

// CapAttachments enforces the per-card caps, keeping attachments in their
// stored order.
func CapAttachments(atts []Attachment) []Attachment {
	var images, docs, videos int
	out := atts[:0:0]
	for _, a := range atts {
		switch a.Kind {
		case KindImage:
			if images >= MaxImagesPerCard {
				continue
			}
			images++
		case KindDocument:
			if docs >= MaxDocumentsPerCard {
				continue
			}
			docs++
		case KindVideo:
			if videos >= MaxVideosPerCard {
				continue
			}
			videos++
		default:
			continue
		}
		out = append(out, a)
	}
	return out
}

// extMimes maps URL file extensions to mime types for the formats the
// catalog stores.
var extMimes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".txt":  "text/plain",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".3gp":  "video/3gpp",
}

// InferMime derives the mime type from a media source: the declared type of
// a data URI, or the file extension of an http(s) URL.
func InferMime(source string) (string, error) {
	if strings.HasPrefix(source, "data:") {
		rest := source[len("data:"):]
		end := strings.IndexAny(rest, ";,")
		if end <= 0 {
			return "", fmt.Errorf("transport: malformed data URI")
		}
		return rest[:end], nil
	}

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		u := source
		if q := strings.IndexAny(u, "?#"); q >= 0 {
			u = u[:q]
		}
		ext := strings.ToLower(path.Ext(u))
		if mime, ok := extMimes[ext]; ok {
			return mime, nil
		}
		return "", fmt.Errorf("transport: unknown media extension %q", ext)
	}

	return "", fmt.Errorf("transport: media source is neither data URI nor http(s) URL")
}

// Package session tracks per-channel conversation state: navigation context,
// an in-progress form wizard, and the bounded history handed to the language
// model. State is in-memory only; a restart loses active sessions, which is
// a documented limitation of the single-process deployment.
package session

import "time"

// DefaultHistoryLimit caps the rolling conversation history per channel.
const DefaultHistoryLimit = 20

// Context is the transient navigation position of a channel. The invariant
// is that ActiveSubcategoryID is only set while ActiveCategoryID is set.
type Context struct {
	ActiveCategoryID       *uint
	ActiveSubcategoryID    *uint
	ActiveSubcategoryIndex *int
	LastWelcomeAt          time.Time
}

// FormState is an in-progress wizard. One per channel; destroyed on
// completion, cancellation or navigation interrupt.
type FormState struct {
	Type   string
	Step   int
	Fields map[string]string
}

// HistoryEntry is one turn of the rolling conversation history.
type HistoryEntry struct {
	Role    string // "user" or "assistant"
	Content string
}

// State is everything the engine remembers about a channel between messages.
type State struct {
	Channel      string
	Context      Context
	Form         *FormState
	History      []HistoryEntry
	LastActivity time.Time
}

// ClearContext resets the navigation position. LastWelcomeAt survives so a
// "MENU" reset does not retrigger the welcome message.
func (s *State) ClearContext() {
	s.Context.ActiveCategoryID = nil
	s.Context.ActiveSubcategoryID = nil
	s.Context.ActiveSubcategoryIndex = nil
}

// EnterCategory positions the session inside a category.
func (s *State) EnterCategory(categoryID uint) {
	id := categoryID
	s.Context.ActiveCategoryID = &id
	s.Context.ActiveSubcategoryID = nil
	s.Context.ActiveSubcategoryIndex = nil
}

// EnterSubcategory positions the session inside a subcategory of the
// current category. index is the 1-based menu position the user selected.
func (s *State) EnterSubcategory(categoryID, subcategoryID uint, index int) {
	cid, sid, idx := categoryID, subcategoryID, index
	s.Context.ActiveCategoryID = &cid
	s.Context.ActiveSubcategoryID = &sid
	s.Context.ActiveSubcategoryIndex = &idx
}

// AppendHistory records a turn, evicting the oldest entry past limit.
func (s *State) AppendHistory(limit int, role, content string) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	s.History = append(s.History, HistoryEntry{Role: role, Content: content})
	if len(s.History) > limit {
		s.History = s.History[len(s.History)-limit:]
	}
}

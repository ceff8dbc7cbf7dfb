package discord

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/zapfield/zapfield/internal/transport"
)

// --- Mock Discord session ---

type mockSession struct {
	mu           sync.Mutex
	opened       bool
	closeCalled  bool
	openErr      error
	sentMessages []sentMessage
	sendErr      error
	handlers     []interface{}
	removeCount  int
}

type sentMessage struct {
	channelID string
	data      *discordgo.MessageSend
}

func (m *mockSession) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openErr != nil {
		return m.openErr
	}
	m.opened = true
	return nil
}

func (m *mockSession) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCalled = true
	return nil
}

func (m *mockSession) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return m.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{Content: content})
}

func (m *mockSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	m.sentMessages = append(m.sentMessages, sentMessage{channelID: channelID, data: data})
	return &discordgo.Message{ID: "sent-1"}, nil
}

func (m *mockSession) AddHandler(handler interface{}) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.removeCount++
	}
}

func (m *mockSession) lastSent() (sentMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sentMessages) == 0 {
		return sentMessage{}, false
	}
	return m.sentMessages[len(m.sentMessages)-1], true
}

func newConnectedAdapter(t *testing.T) (*Adapter, *mockSession) {
	t.Helper()
	sess := &mockSession{}
	a, err := New(AdapterOpts{Session: sess, ChannelID: "default-chan"})
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	if err := a.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	return a, sess
}

// --- Tests ---

func TestNew_RequiresTokenOrSession(t *testing.T) {
	if _, err := New(AdapterOpts{}); err == nil {
		t.Fatal("expected error without token or session")
	}
	if _, err := New(AdapterOpts{BotToken: "tok"}); err != nil {
		t.Fatalf("token-only adapter: %v", err)
	}
}

func TestConnect_OpensSession(t *testing.T) {
	a, sess := newConnectedAdapter(t)
	if !sess.opened {
		t.Fatal("session was not opened")
	}
	// Second connect is a no-op.
	if err := a.Connect(context.Background()); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
}

func TestHandleMessage_FlagsSelf(t *testing.T) {
	a, _ := newConnectedAdapter(t)
	a.mu.Lock()
	a.botUserID = "bot-1"
	a.mu.Unlock()

	if _, err := a.Listen(context.Background()); err != nil {
		t.Fatalf("listen: %v", err)
	}

	a.handleMessage(&discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "m1",
		ChannelID: "chan-9",
		Content:   "oi",
		Author:    &discordgo.User{ID: "user-1", Username: "Ana"},
		Timestamp: time.Now(),
	}})
	a.handleMessage(&discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "m2",
		ChannelID: "chan-9",
		Content:   "!pausar",
		Author:    &discordgo.User{ID: "bot-1", Username: "Bot"},
	}})

	first := <-a.inbound
	if first.IsFromSelf || first.SenderID != "chan-9" || first.SenderName != "Ana" {
		t.Errorf("first message = %+v", first)
	}
	second := <-a.inbound
	if !second.IsFromSelf {
		t.Error("bot-authored message should be flagged IsFromSelf")
	}
}

func TestHandleMessage_NilAuthorIgnored(t *testing.T) {
	a, _ := newConnectedAdapter(t)
	a.handleMessage(&discordgo.MessageCreate{Message: &discordgo.Message{ID: "m1"}})
	select {
	case msg := <-a.inbound:
		t.Fatalf("authorless message should be dropped, got %+v", msg)
	default:
	}
}

func TestSend_TextToChannel(t *testing.T) {
	a, sess := newConnectedAdapter(t)

	if err := a.Send(context.Background(), transport.OutboundMessage{Channel: "chan-1", Text: "olá"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	sent, ok := sess.lastSent()
	if !ok || sent.channelID != "chan-1" || sent.data.Content != "olá" {
		t.Errorf("sent = %+v", sent)
	}
}

func TestSend_DefaultChannel(t *testing.T) {
	a, sess := newConnectedAdapter(t)

	if err := a.Send(context.Background(), transport.OutboundMessage{Text: "aviso"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	sent, _ := sess.lastSent()
	if sent.channelID != "default-chan" {
		t.Errorf("channel = %q, want default-chan", sent.channelID)
	}
}

func TestSend_DataURIUploadedAsFile(t *testing.T) {
	a, sess := newConnectedAdapter(t)

	payload := base64.StdEncoding.EncodeToString([]byte("fake-jpeg-bytes"))
	err := a.Send(context.Background(), transport.OutboundMessage{
		Channel: "chan-1",
		Attachments: []transport.Attachment{
			{Kind: transport.KindImage, Source: "data:image/jpeg;base64," + payload, FileName: "casa.jpg", Mime: "image/jpeg"},
		},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	sent, _ := sess.lastSent()
	if len(sent.data.Files) != 1 {
		t.Fatalf("files = %d, want 1", len(sent.data.Files))
	}
	if sent.data.Files[0].Name != "casa.jpg" || sent.data.Files[0].ContentType != "image/jpeg" {
		t.Errorf("file = %+v", sent.data.Files[0])
	}
}

func TestSend_URLAttachmentAsLink(t *testing.T) {
	a, sess := newConnectedAdapter(t)

	err := a.Send(context.Background(), transport.OutboundMessage{
		Channel: "chan-1",
		Text:    "confira:",
		Attachments: []transport.Attachment{
			{Kind: transport.KindImage, Source: "https://cdn.example/a.jpg", Mime: "image/jpeg"},
		},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	sent, _ := sess.lastSent()
	if !strings.Contains(sent.data.Content, "https://cdn.example/a.jpg") {
		t.Errorf("content = %q, want link line", sent.data.Content)
	}
}

func TestSend_MalformedAttachmentSkipped(t *testing.T) {
	a, sess := newConnectedAdapter(t)

	err := a.Send(context.Background(), transport.OutboundMessage{
		Channel: "chan-1",
		Text:    "texto",
		Attachments: []transport.Attachment{
			{Kind: transport.KindImage, Source: "data:image/jpeg;base64,%%%not-base64%%%"},
		},
	})
	if err != nil {
		t.Fatalf("send should not fail on one bad attachment: %v", err)
	}
	sent, _ := sess.lastSent()
	if len(sent.data.Files) != 0 || sent.data.Content != "texto" {
		t.Errorf("sent = %+v", sent.data)
	}
}

func TestDecodeDataURI(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("hello"))
	file, err := decodeDataURI(transport.Attachment{
		Source: "data:text/plain;base64," + payload,
		Mime:   "text/plain",
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if file.Name != "attachment" {
		t.Errorf("default name = %q", file.Name)
	}

	if _, err := decodeDataURI(transport.Attachment{Source: "https://cdn.example/a.jpg"}); err == nil {
		t.Fatal("URL source should not decode")
	}
}

func TestClose_RemovesHandler(t *testing.T) {
	a, sess := newConnectedAdapter(t)
	if _, err := a.Listen(context.Background()); err != nil {
		t.Fatalf("listen: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !sess.closeCalled {
		t.Error("session should be closed")
	}
	if sess.removeCount != 1 {
		t.Errorf("removeCount = %d, want 1", sess.removeCount)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("double close: %v", err)
	}
}

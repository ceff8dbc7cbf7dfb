// Package webhook implements the transport Adapter over HTTP for gateway
// deployments: a chat gateway POSTs inbound events to this process and
// receives outbound sends on a callback URL.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/zapfield/zapfield/internal/transport"
)

// inboundPayload is the JSON body the gateway POSTs to /inbound.
type inboundPayload struct {
	MessageID  string `json:"message_id"`
	SenderID   string `json:"sender_id" binding:"required"`
	SenderName string `json:"sender_name"`
	Text       string `json:"text"`
	IsFromSelf bool   `json:"is_from_self"`
}

// outboundPayload is the JSON body posted to the gateway's outbound URL.
type outboundPayload struct {
	Channel     string                 `json:"channel"`
	Text        string                 `json:"text,omitempty"`
	Attachments []transport.Attachment `json:"attachments,omitempty"`
}

// Adapter implements transport.Adapter over HTTP.
type Adapter struct {
	port        int
	outboundURL string
	sharedToken string

	httpClient *http.Client
	srv        *http.Server

	mu        sync.Mutex
	connected bool
	closed    bool
	inbound   chan transport.InboundMessage
}

// AdapterOpts holds parameters for creating a webhook Adapter.
type AdapterOpts struct {
	Port        int    // listen port for inbound events
	OutboundURL string // gateway endpoint that delivers sends to users
	SharedToken string // optional bearer token checked inbound and sent outbound
	// For testing: inject an HTTP client for outbound posts.
	HTTPClient *http.Client
}

// New creates a webhook Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.Port <= 0 {
		return nil, fmt.Errorf("webhook: port is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Adapter{
		port:        opts.Port,
		outboundURL: opts.OutboundURL,
		sharedToken: opts.SharedToken,
		httpClient:  client,
		inbound:     make(chan transport.InboundMessage, 100),
	}, nil
}

// Connect starts the inbound HTTP listener.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("webhook: adapter closed")
	}
	if a.connected {
		return nil
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.POST("/inbound", a.handleInbound)

	a.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: router,
	}

	go func() {
		// http.ErrServerClosed is the normal shutdown path.
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("webhook: listener stopped: %v\n", err)
		}
	}()

	a.connected = true
	return nil
}

// handleInbound parses a gateway event and queues it for the engine.
func (a *Adapter) handleInbound(c *gin.Context) {
	if a.sharedToken != "" && c.GetHeader("Authorization") != "Bearer "+a.sharedToken {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "bad token"})
		return
	}

	var payload inboundPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Gateways that omit message ids still get exactly-once handling; a
	// synthetic id makes the event unique for the dedup window.
	if payload.MessageID == "" {
		payload.MessageID = "wh-" + uuid.NewString()
	}

	msg := transport.InboundMessage{
		MessageID:  payload.MessageID,
		SenderID:   payload.SenderID,
		SenderName: payload.SenderName,
		Text:       payload.Text,
		IsFromSelf: payload.IsFromSelf,
		Timestamp:  time.Now(),
	}

	select {
	case a.inbound <- msg:
		c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "inbound queue full"})
	}
}

// Listen returns the inbound message channel. Must be called after Connect.
func (a *Adapter) Listen(ctx context.Context) (<-chan transport.InboundMessage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.connected {
		return nil, fmt.Errorf("webhook: not connected")
	}
	return a.inbound, nil
}

// Send posts the outbound message to the gateway's callback URL.
func (a *Adapter) Send(ctx context.Context, msg transport.OutboundMessage) error {
	if a.outboundURL == "" {
		return fmt.Errorf("webhook: no outbound_url configured")
	}

	body, err := json.Marshal(outboundPayload{
		Channel:     msg.Channel,
		Text:        msg.Text,
		Attachments: msg.Attachments,
	})
	if err != nil {
		return fmt.Errorf("webhook: marshal outbound: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.outboundURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: build outbound request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.sharedToken != "" {
		req.Header.Set("Authorization", "Bearer "+a.sharedToken)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: post outbound: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: outbound returned %d", resp.StatusCode)
	}
	return nil
}

// Close shuts down the listener and closes the inbound channel.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.connected = false

	if a.srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.srv.Shutdown(shutdownCtx)
	}
	close(a.inbound)
	return nil
}

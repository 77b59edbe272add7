package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rmitchellscott/qdither/internal/logging"
)

// Event represents a server-sent event
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Client represents a connected SSE client
type Client struct {
	ID      string
	Writer  http.ResponseWriter
	Flusher http.Flusher
	Done    chan struct{}

	// writes from broadcasts and keep-alives are serialized per client
	mu sync.Mutex
}

// Service manages SSE connections and broadcasts
type Service struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewService creates a new SSE service
func NewService() *Service {
	return &Service{
		clients: make(map[string]*Client),
	}
}

// AddClient adds a new SSE client connection.
// It returns nil when the writer cannot stream.
func (s *Service) AddClient(w http.ResponseWriter) *Client {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := &Client{
		ID:      uuid.NewString(),
		Writer:  w,
		Flusher: flusher,
		Done:    make(chan struct{}),
	}

	s.mu.Lock()
	s.clients[client.ID] = client
	s.mu.Unlock()

	logging.DebugWithComponent(logging.ComponentSSE, "Client connected", "client_id", client.ID)

	s.Send(client, Event{
		Type: "connected",
		Data: map[string]any{
			"client_id": client.ID,
			"timestamp": time.Now().UTC(),
		},
	})

	return client
}

// RemoveClient removes a client connection
func (s *Service) RemoveClient(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if client, exists := s.clients[clientID]; exists {
		close(client.Done)
		delete(s.clients, clientID)
		logging.DebugWithComponent(logging.ComponentSSE, "Client disconnected", "client_id", clientID)
	}
}

// Broadcast sends an event to every connected client
func (s *Service) Broadcast(event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, client := range s.clients {
		s.Send(client, event)
	}
}

// Send writes an event to a specific client
func (s *Service) Send(client *Client, event Event) {
	eventData, err := json.Marshal(event)
	if err != nil {
		logging.WarnWithComponent(logging.ComponentSSE, "Failed to marshal event", "type", event.Type, "error", err)
		return
	}

	client.mu.Lock()
	defer client.mu.Unlock()

	// Send event in SSE format
	fmt.Fprintf(client.Writer, "data: %s\n\n", eventData)
	client.Flusher.Flush()
}

// KeepAlive sends periodic keep-alive events to maintain connections
func (s *Service) KeepAlive(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Broadcast(Event{
				Type: "ping",
				Data: map[string]any{
					"timestamp": time.Now().UTC(),
				},
			})
		}
	}
}

// CloseAll disconnects every client
func (s *Service) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, client := range s.clients {
		close(client.Done)
		delete(s.clients, id)
	}
}

// GetClientCount returns the number of connected clients
func (s *Service) GetClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

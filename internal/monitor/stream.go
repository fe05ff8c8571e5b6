// Package monitor watches live market lines for registered simulation
// contexts and demotes cached results when the market moves away from the
// context they were priced against.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// StreamClient handles the WebSocket connection to the odds provider stream.
// On a read failure it redials after the configured delay and replays the
// last subscription; Close stops reconnection for good.
type StreamClient struct {
	conn            *websocket.Conn
	apiKey          string
	streamURL       string
	reconnectDelay  time.Duration
	mu              sync.RWMutex
	isConnected     bool
	closed          bool
	handlers        []UpdateHandler
	lastMessageTime time.Time
	subGameIDs      []string
	subMarkets      []string
	log             *logrus.Logger
}

// LineUpdate is one market line change from the stream
type LineUpdate struct {
	GameID     string  `json:"gameId"`
	MarketType string  `json:"marketType"`
	Line       float64 `json:"line"`
	HomeOdds   int     `json:"homeOdds"`
	AwayOdds   int     `json:"awayOdds"`
	Timestamp  string  `json:"timestamp"`
}

// streamMessage is the provider's envelope
type streamMessage struct {
	Op      string       `json:"op"`
	Updates []LineUpdate `json:"updates,omitempty"`
}

// UpdateHandler is called for each line update received from the stream
type UpdateHandler func(update LineUpdate) error

// NewStreamClient creates a new stream client. A non-positive reconnectDelay
// disables reconnection.
func NewStreamClient(streamURL, apiKey string, reconnectDelay time.Duration, log *logrus.Logger) *StreamClient {
	return &StreamClient{
		streamURL:      streamURL,
		apiKey:         apiKey,
		reconnectDelay: reconnectDelay,
		handlers:       make([]UpdateHandler, 0),
		log:            log,
	}
}

// Connect establishes the WebSocket connection and starts the read loop
func (s *StreamClient) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isConnected {
		return fmt.Errorf("already connected")
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.streamURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to stream: %w", err)
	}

	s.conn = conn
	s.isConnected = true
	s.closed = false
	s.lastMessageTime = time.Now()

	s.log.WithField("url", s.streamURL).Info("Connected to odds stream")

	go s.readMessages(conn)

	return nil
}

// Subscribe requests line updates for the given games. The subscription is
// remembered and replayed after a reconnect.
func (s *StreamClient) Subscribe(gameIDs []string, markets []string) error {
	s.mu.Lock()
	if !s.isConnected || s.conn == nil {
		s.mu.Unlock()
		return fmt.Errorf("not connected to stream")
	}
	conn := s.conn
	s.subGameIDs = gameIDs
	s.subMarkets = markets
	s.mu.Unlock()

	subMsg := map[string]interface{}{
		"op":      "subscribe",
		"apiKey":  s.apiKey,
		"gameIds": gameIDs,
		"markets": markets,
	}

	s.log.WithField("games", len(gameIDs)).Info("Subscribing to market streams")
	return conn.WriteJSON(subMsg)
}

// AddHandler registers an update handler
func (s *StreamClient) AddHandler(handler UpdateHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// readMessages reads messages from one WebSocket connection until it fails,
// then hands off to the reconnect loop unless the client was closed.
func (s *StreamClient) readMessages(conn *websocket.Conn) {
	for {
		var raw json.RawMessage
		if err := conn.ReadJSON(&raw); err != nil {
			s.mu.Lock()
			s.isConnected = false
			closed := s.closed
			s.mu.Unlock()

			if closed {
				return
			}
			s.log.WithError(err).Warn("Stream read error")
			if s.reconnectDelay > 0 {
				go s.reconnect()
			}
			return
		}

		s.mu.Lock()
		s.lastMessageTime = time.Now()
		handlers := s.handlers
		s.mu.Unlock()

		var msg streamMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.log.WithError(err).Warn("Malformed stream message")
			continue
		}
		if msg.Op != "update" {
			continue
		}

		for _, update := range msg.Updates {
			for _, handler := range handlers {
				if err := handler(update); err != nil {
					s.log.WithError(err).Warn("Update handler error")
				}
			}
		}
	}
}

// reconnect redials until it succeeds or the client is closed, then replays
// the remembered subscription.
func (s *StreamClient) reconnect() {
	for {
		time.Sleep(s.reconnectDelay)

		s.mu.RLock()
		closed := s.closed
		gameIDs := s.subGameIDs
		markets := s.subMarkets
		s.mu.RUnlock()
		if closed {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := s.Connect(ctx)
		cancel()
		if err != nil {
			s.log.WithError(err).Warn("Stream reconnect failed")
			continue
		}

		if len(gameIDs) > 0 {
			if err := s.Subscribe(gameIDs, markets); err != nil {
				s.log.WithError(err).Warn("Stream resubscribe failed")
			}
		}
		return
	}
}

// IsConnected returns whether the stream is connected
func (s *StreamClient) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isConnected
}

// LastMessageTime returns the time of the last received message
func (s *StreamClient) LastMessageTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastMessageTime
}

// Close closes the WebSocket connection and stops any reconnection.
func (s *StreamClient) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		s.isConnected = false
		return err
	}
	return nil
}

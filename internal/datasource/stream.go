package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/metrics"
	"github.com/yourusername/sharpline/internal/models"
)

// streamBufferSize bounds the quotes held between fetches; the oldest quote
// is dropped when a producer outruns the batch cadence.
const streamBufferSize = 4096

// StreamSource implements QuoteSource over a websocket feed. A background
// reader accumulates pushed quotes; Fetch drains whatever arrived since the
// last call, so the batch runner treats push and poll sources identically.
type StreamSource struct {
	name    string
	url     string
	apiKey  string
	logger  *logrus.Logger
	dialer  websocket.Dialer

	mu          sync.Mutex
	conn        *websocket.Conn
	isConnected bool
	lastMessage time.Time
	pending     []*models.OddsQuote
}

// streamQuote is the wire shape of one pushed quote
type streamQuote struct {
	EventID    string   `json:"eventId"`
	MarketType string   `json:"marketType"`
	Outcome    string   `json:"outcome"`
	Line       *float64 `json:"line,omitempty"`
	Price      float64  `json:"price"`
	Format     string   `json:"priceFormat"`
	ObservedAt string   `json:"observedAt"`
}

// NewStreamSource creates a websocket quote source
func NewStreamSource(name, url, apiKey string, logger *logrus.Logger) *StreamSource {
	return &StreamSource{
		name:   name,
		url:    url,
		apiKey: apiKey,
		logger: logger,
		dialer: websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// Connect establishes the websocket connection and starts the reader
func (s *StreamSource) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isConnected {
		return fmt.Errorf("already connected")
	}

	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return NewSourceError(s.name, ErrCodeNetworkError, "failed to connect to stream", err)
	}

	auth := map[string]interface{}{
		"op":     "auth",
		"apiKey": s.apiKey,
	}
	if err := conn.WriteJSON(auth); err != nil {
		conn.Close()
		return NewSourceError(s.name, ErrCodeAuthenticationFailed, "failed to authenticate", err)
	}

	s.conn = conn
	s.isConnected = true
	s.lastMessage = time.Now()

	go s.readMessages(conn)

	s.logger.WithField("source", s.name).Info("Stream connected")
	return nil
}

// readMessages accumulates pushed quotes until the connection drops
func (s *StreamSource) readMessages(conn *websocket.Conn) {
	for {
		var raw json.RawMessage
		if err := conn.ReadJSON(&raw); err != nil {
			s.mu.Lock()
			if s.conn == conn {
				s.isConnected = false
			}
			s.mu.Unlock()
			s.logger.WithField("source", s.name).WithError(err).Warn("Stream read failed")
			return
		}

		var msg streamQuote
		if err := json.Unmarshal(raw, &msg); err != nil || msg.EventID == "" {
			// Heartbeats and control frames fall through here
			s.mu.Lock()
			s.lastMessage = time.Now()
			s.mu.Unlock()
			continue
		}

		quote := s.convert(&msg)

		s.mu.Lock()
		s.lastMessage = time.Now()
		if quote != nil {
			if len(s.pending) >= streamBufferSize {
				s.pending = s.pending[1:]
			}
			s.pending = append(s.pending, quote)
		}
		s.mu.Unlock()
	}
}

func (s *StreamSource) convert(msg *streamQuote) *models.OddsQuote {
	format := models.PriceFormat(msg.Format)
	if format != models.PriceFormatAmerican && format != models.PriceFormatDecimal {
		s.logger.WithFields(logrus.Fields{
			"source": s.name,
			"format": msg.Format,
		}).Warn("Unknown price format on stream")
		return nil
	}

	observedAt, err := time.Parse(time.RFC3339, msg.ObservedAt)
	if err != nil {
		observedAt = time.Now().UTC()
	}

	return &models.OddsQuote{
		SourceID:   s.name,
		EventID:    msg.EventID,
		MarketType: models.MarketType(msg.MarketType),
		Outcome:    msg.Outcome,
		LineValue:  msg.Line,
		Price:      msg.Price,
		Format:     format,
		ObservedAt: observedAt,
	}
}

// Fetch drains the quotes accumulated since the previous call
func (s *StreamSource) Fetch(ctx context.Context) ([]*models.OddsQuote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isConnected {
		return nil, NewSourceError(s.name, ErrCodeNetworkError, "stream disconnected", nil)
	}

	quotes := s.pending
	s.pending = nil
	metrics.QuotesFetchedTotal.WithLabelValues(s.name).Add(float64(len(quotes)))
	return quotes, nil
}

// HealthCheck reports the stream healthy while connected and recently active
func (s *StreamSource) HealthCheck(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isConnected {
		return NewSourceError(s.name, ErrCodeNetworkError, "stream disconnected", nil)
	}
	if time.Since(s.lastMessage) > 2*time.Minute {
		return NewSourceError(s.name, ErrCodeServerError, "no stream activity for 2m", nil)
	}
	return nil
}

// Name returns the source identifier
func (s *StreamSource) Name() string {
	return s.name
}

// Close closes the stream connection
func (s *StreamSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	s.isConnected = false
	return s.conn.Close()
}

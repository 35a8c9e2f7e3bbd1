package upbit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dokyun/folio/pkg/logger"
)

// Stream timing
const (
	pingInterval          = 30 * time.Second
	reconnectInitialDelay = 1 * time.Second
	reconnectMaxDelay     = 30 * time.Second
)

// TickerEvent is one real-time ticker frame.
type TickerEvent struct {
	Code             string    `json:"code"`
	TradePrice       float64   `json:"trade_price"`
	SignedChangeRate float64   `json:"signed_change_rate"`
	AccTradePrice24h float64   `json:"acc_trade_price_24h"`
	ReceivedAt       time.Time `json:"-"`
}

// Stream keeps a websocket subscription to Upbit ticker frames and
// reconnects with backoff until Close is called.
type Stream struct {
	wsURL  string
	codes  []string
	logger *logger.Logger

	conn   *websocket.Conn
	connMu sync.Mutex

	onTick func(*TickerEvent)
	onErr  func(error)

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewStream creates a ticker stream for the given pair codes.
func NewStream(wsURL string, codes []string, log *logger.Logger) *Stream {
	if wsURL == "" {
		wsURL = "wss://api.upbit.com/websocket/v1"
	}
	return &Stream{
		wsURL:  wsURL,
		codes:  codes,
		logger: log,
		stopCh: make(chan struct{}),
	}
}

// OnTick sets the per-frame callback.
func (s *Stream) OnTick(fn func(*TickerEvent)) { s.onTick = fn }

// OnError sets the error callback.
func (s *Stream) OnError(fn func(error)) { s.onErr = fn }

// Start connects and launches the read loop.
func (s *Stream) Start(ctx context.Context) error {
	if err := s.connect(ctx); err != nil {
		return fmt.Errorf("upbit stream connect: %w", err)
	}

	s.wg.Add(1)
	go s.readLoop(ctx)
	return nil
}

// Close stops the stream and waits for the read loop to exit.
func (s *Stream) Close() {
	close(s.stopCh)

	s.connMu.Lock()
	if s.conn != nil {
		_ = s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
}

func (s *Stream) connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.wsURL, nil)
	if err != nil {
		return err
	}

	// 구독 요청: ticket + ticker 타입 + 코드 목록
	subscribe := []interface{}{
		map[string]string{"ticket": "folio"},
		map[string]interface{}{"type": "ticker", "codes": s.codes},
	}
	if err := conn.WriteJSON(subscribe); err != nil {
		_ = conn.Close()
		return fmt.Errorf("subscribe: %w", err)
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	s.logger.WithFields(map[string]interface{}{
		"codes": len(s.codes),
	}).Info("Upbit ticker stream connected")

	return nil
}

func (s *Stream) readLoop(ctx context.Context) {
	defer s.wg.Done()

	delay := reconnectInitialDelay
	lastPing := time.Now()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if time.Since(lastPing) > pingInterval {
			_ = conn.WriteMessage(websocket.PingMessage, nil)
			lastPing = time.Now()
		}

		_ = conn.SetReadDeadline(time.Now().Add(pingInterval * 2))
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
			}

			if s.onErr != nil {
				s.onErr(err)
			}
			s.logger.WithError(err).Warn("Upbit stream read failed, reconnecting")

			time.Sleep(delay)
			delay *= 2
			if delay > reconnectMaxDelay {
				delay = reconnectMaxDelay
			}
			if err := s.connect(ctx); err != nil {
				continue
			}
			delay = reconnectInitialDelay
			continue
		}

		var event TickerEvent
		if err := json.Unmarshal(message, &event); err != nil || event.Code == "" {
			continue // 비 ticker 프레임은 무시
		}
		event.ReceivedAt = time.Now()

		if s.onTick != nil {
			s.onTick(&event)
		}
	}
}

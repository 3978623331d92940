package execution

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Jss-on/latentspeed/internal/metrics"
)

// wsEnvelope frames one gateway stream message: the event topic plus its
// JSON payload.
type wsEnvelope struct {
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
}

// WSGateway speaks the order-gateway websocket protocol: order messages go
// out on the connection, topic-framed report and fill events come back.
// Run maintains the connection; Place fails fast while the link is down.
type WSGateway struct {
	log         zerolog.Logger
	url         string
	venue       string
	productType string
	events      chan Event

	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// NewWSGateway prepares a gateway client for the given websocket URL.
func NewWSGateway(log zerolog.Logger, url, venue, productType string) *WSGateway {
	return &WSGateway{
		log:         log,
		url:         url,
		venue:       venue,
		productType: productType,
		events:      make(chan Event, 256),
	}
}

// Run dials the gateway and pumps events until the context is canceled,
// redialing with capped backoff after every disconnect. The events channel
// closes when Run returns.
func (g *WSGateway) Run(ctx context.Context) error {
	defer close(g.events)

	backoff := time.Second
	const maxBackoff = 30 * time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := g.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		g.log.Warn().Err(err).Msg("order gateway disconnected, retrying")
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
	}
}

func (g *WSGateway) session(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, g.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	g.setConn(conn)
	defer g.setConn(nil)
	g.log.Info().Str("url", g.url).Str("venue", g.venue).Msg("connected order gateway")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := g.writeControl(websocket.PingMessage, nil); err != nil {
					g.log.Warn().Err(err).Msg("order gateway ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var env wsEnvelope
		if err := json.Unmarshal(message, &env); err != nil {
			g.deliver(ctx, faultEvent(fmt.Errorf("decode envelope: %w", err)))
			continue
		}
		g.deliver(ctx, DecodeEvent(env.Topic, env.Data))
	}
}

func (g *WSGateway) deliver(ctx context.Context, ev Event) {
	select {
	case g.events <- ev:
	case <-ctx.Done():
	}
}

// Place serializes the intent and writes it to the gateway connection.
func (g *WSGateway) Place(_ context.Context, in Intent) error {
	payload, err := EncodeIntent(in, g.venue, g.productType)
	if err != nil {
		return err
	}
	conn := g.currentConn()
	if conn == nil {
		return ErrNotConnected
	}

	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("write order: %w", err)
	}
	metrics.OrdersTotal.WithLabelValues(in.Symbol, string(in.Side)).Inc()
	return nil
}

func (g *WSGateway) writeControl(messageType int, data []byte) error {
	conn := g.currentConn()
	if conn == nil {
		return ErrNotConnected
	}
	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(messageType, data)
}

func (g *WSGateway) setConn(conn *websocket.Conn) {
	g.mu.Lock()
	g.conn = conn
	g.mu.Unlock()
}

func (g *WSGateway) currentConn() *websocket.Conn {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.conn
}

// Events exposes the decoded gateway event stream.
func (g *WSGateway) Events() <-chan Event { return g.events }

// Close tears down the current connection, if any.
func (g *WSGateway) Close() error {
	conn := g.currentConn()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

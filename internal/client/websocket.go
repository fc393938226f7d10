// Package client talks to a rippled-compatible server over its WebSocket
// API: request/response commands, the validated transaction stream, account
// sequence tracking and offer submission.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/LeJamon/goXRPLtrade/internal/meta"
)

// Requester issues one API command and returns the raw result object.
// Implemented by WSClient; tests substitute fakes.
type Requester interface {
	Request(ctx context.Context, command string, params map[string]any) (json.RawMessage, error)
}

// ErrClosed is returned for requests made after the connection shut down.
var ErrClosed = errors.New("client: connection closed")

const (
	writeTimeout  = 10 * time.Second
	pongTimeout   = 60 * time.Second
	pingInterval  = 54 * time.Second
	maxMessage    = 512 * 1024
	eventBacklog  = 256
	sendBacklog   = 64
)

// RequestError is a command-level failure reported by the server.
type RequestError struct {
	Command string
	Name    string
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("client: %s failed: %s (%s)", e.Command, e.Name, e.Message)
}

type response struct {
	ID           uint64          `json:"id"`
	Type         string          `json:"type"`
	Status       string          `json:"status"`
	Result       json.RawMessage `json:"result"`
	Error        string          `json:"error"`
	ErrorMessage string          `json:"error_message"`
}

// WSClient is a WebSocket connection to one server. It multiplexes
// request/response commands by id and fans incoming transaction
// notifications out on Events. Safe for concurrent use.
type WSClient struct {
	conn *websocket.Conn
	log  *zap.Logger

	sendCh chan []byte
	events chan *meta.TransactionEvent

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]chan *response
	closed  bool

	done chan struct{}
}

// Dial connects to url and starts the read and write pumps.
func Dial(ctx context.Context, url string, log *zap.Logger) (*WSClient, error) {
	if log == nil {
		log = zap.NewNop()
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", url, err)
	}
	c := &WSClient{
		conn:    conn,
		log:     log,
		sendCh:  make(chan []byte, sendBacklog),
		events:  make(chan *meta.TransactionEvent, eventBacklog),
		nextID:  1,
		pending: make(map[uint64]chan *response),
		done:    make(chan struct{}),
	}
	go c.readPump()
	go c.writePump()
	return c, nil
}

// Events is the stream of validated transaction notifications. The channel
// is closed when the connection goes down; slow consumers drop events rather
// than stall the read pump.
func (c *WSClient) Events() <-chan *meta.TransactionEvent {
	return c.events
}

// Request sends one command and waits for its response or ctx cancellation.
func (c *WSClient) Request(ctx context.Context, command string, params map[string]any) (json.RawMessage, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	id := c.nextID
	c.nextID++
	ch := make(chan *response, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	msg := make(map[string]any, len(params)+2)
	for k, v := range params {
		msg[k] = v
	}
	msg["id"] = id
	msg["command"] = command

	data, err := json.Marshal(msg)
	if err != nil {
		c.dropPending(id)
		return nil, fmt.Errorf("client: encode %s: %w", command, err)
	}

	select {
	case c.sendCh <- data:
	case <-c.done:
		c.dropPending(id)
		return nil, ErrClosed
	case <-ctx.Done():
		c.dropPending(id)
		return nil, ctx.Err()
	}

	select {
	case resp := <-ch:
		if resp.Status != "success" {
			return nil, &RequestError{Command: command, Name: resp.Error, Message: resp.ErrorMessage}
		}
		return resp.Result, nil
	case <-c.done:
		return nil, ErrClosed
	case <-ctx.Done():
		c.dropPending(id)
		return nil, ctx.Err()
	}
}

// Subscribe asks for transaction notifications concerning the given
// accounts.
func (c *WSClient) Subscribe(ctx context.Context, accounts []string) error {
	_, err := c.Request(ctx, "subscribe", map[string]any{"accounts": accounts})
	return err
}

// Close tears the connection down. Pending requests fail with ErrClosed.
func (c *WSClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.done)
	return c.conn.Close()
}

func (c *WSClient) dropPending(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *WSClient) readPump() {
	defer func() {
		c.Close()
		close(c.events)
	}()

	c.conn.SetReadLimit(maxMessage)
	c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("websocket read failed", zap.Error(err))
			}
			return
		}
		c.dispatch(message)
	}
}

func (c *WSClient) dispatch(message []byte) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(message, &probe); err != nil {
		c.log.Warn("unparseable server message", zap.Error(err))
		return
	}

	switch probe.Type {
	case "response":
		var resp response
		if err := json.Unmarshal(message, &resp); err != nil {
			c.log.Warn("unparseable response", zap.Error(err))
			return
		}
		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		delete(c.pending, resp.ID)
		c.mu.Unlock()
		if ok {
			ch <- &resp
		} else {
			c.log.Debug("response with no waiter", zap.Uint64("id", resp.ID))
		}

	case "transaction":
		var ev meta.TransactionEvent
		if err := json.Unmarshal(message, &ev); err != nil {
			c.log.Warn("unparseable transaction event", zap.Error(err))
			return
		}
		select {
		case c.events <- &ev:
		default:
			c.log.Warn("event backlog full, dropping notification")
		}

	default:
		c.log.Debug("ignoring server message", zap.String("type", probe.Type))
	}
}

func (c *WSClient) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.Warn("websocket ping failed", zap.Error(err))
				c.Close()
				return
			}
		case data := <-c.sendCh:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Warn("websocket send failed", zap.Error(err))
				c.Close()
				return
			}
		}
	}
}

package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// wsTestServer upgrades connections and answers commands via handle.
func wsTestServer(t *testing.T, handle func(conn *websocket.Conn, msg map[string]any)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var msg map[string]any
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			handle(conn, msg)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialTest(t *testing.T, srv *httptest.Server) *WSClient {
	t.Helper()
	c, err := Dial(context.Background(), wsURL(srv), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestWSClientRequestRoundTrip(t *testing.T) {
	srv := wsTestServer(t, func(conn *websocket.Conn, msg map[string]any) {
		require.Equal(t, "server_info", msg["command"])
		conn.WriteJSON(map[string]any{
			"id":     msg["id"],
			"type":   "response",
			"status": "success",
			"result": map[string]any{"build_version": "2.0.0"},
		})
	})

	c := dialTest(t, srv)
	raw, err := c.Request(context.Background(), "server_info", nil)
	require.NoError(t, err)

	var result struct {
		BuildVersion string `json:"build_version"`
	}
	require.NoError(t, json.Unmarshal(raw, &result))
	require.Equal(t, "2.0.0", result.BuildVersion)
}

func TestWSClientRequestError(t *testing.T) {
	srv := wsTestServer(t, func(conn *websocket.Conn, msg map[string]any) {
		conn.WriteJSON(map[string]any{
			"id":            msg["id"],
			"type":          "response",
			"status":        "error",
			"error":         "actNotFound",
			"error_message": "Account not found.",
		})
	})

	c := dialTest(t, srv)
	_, err := c.Request(context.Background(), "account_info", map[string]any{"account": "rNobody"})
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, "actNotFound", reqErr.Name)
}

func TestWSClientConcurrentRequestsMatchByID(t *testing.T) {
	srv := wsTestServer(t, func(conn *websocket.Conn, msg map[string]any) {
		params, _ := msg["echo"].(string)
		conn.WriteJSON(map[string]any{
			"id":     msg["id"],
			"type":   "response",
			"status": "success",
			"result": map[string]any{"echo": params},
		})
	})

	c := dialTest(t, srv)
	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		val := string(rune('a' + i))
		go func() {
			raw, err := c.Request(context.Background(), "echo", map[string]any{"echo": val})
			if err != nil {
				done <- err
				return
			}
			var result struct {
				Echo string `json:"echo"`
			}
			if err := json.Unmarshal(raw, &result); err != nil {
				done <- err
				return
			}
			if result.Echo != val {
				done <- &RequestError{Command: "echo", Name: "mismatch", Message: result.Echo}
				return
			}
			done <- nil
		}()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}
}

func TestWSClientDeliversTransactionEvents(t *testing.T) {
	srv := wsTestServer(t, func(conn *websocket.Conn, msg map[string]any) {
		conn.WriteJSON(map[string]any{
			"id":     msg["id"],
			"type":   "response",
			"status": "success",
			"result": map[string]any{},
		})
		if msg["command"] == "subscribe" {
			conn.WriteJSON(map[string]any{
				"type":      "transaction",
				"validated": true,
				"transaction": map[string]any{
					"TransactionType": "OfferCreate",
					"Account":         testAddr,
					"Sequence":        7,
				},
				"meta": map[string]any{"AffectedNodes": []any{}, "TransactionResult": "tesSUCCESS"},
			})
		}
	})

	c := dialTest(t, srv)
	require.NoError(t, c.Subscribe(context.Background(), []string{testAddr}))

	select {
	case ev := <-c.Events():
		require.NotNil(t, ev)
		require.True(t, ev.Validated)
		require.Equal(t, testAddr, ev.Transaction.Account)
		require.Equal(t, uint32(7), ev.Transaction.Sequence)
	case <-time.After(5 * time.Second):
		t.Fatal("no transaction event delivered")
	}
}

func TestWSClientCloseFailsPending(t *testing.T) {
	block := make(chan struct{})
	srv := wsTestServer(t, func(conn *websocket.Conn, msg map[string]any) {
		<-block
	})
	defer close(block)

	c := dialTest(t, srv)
	errCh := make(chan error, 1)
	go func() {
		_, err := c.Request(context.Background(), "server_info", nil)
		errCh <- err
	}()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, c.Close())

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, ErrClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("pending request did not fail on close")
	}

	_, err := c.Request(context.Background(), "server_info", nil)
	require.ErrorIs(t, err, ErrClosed)
}

package handlers

import (
	"log"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	ws "github.com/desk-reserve/backend/internal/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 65536
)

// newUpgrader accepts connections from the configured origins. A "*" entry,
// an empty list or a request without an Origin header is always accepted.
func newUpgrader(allowedOrigins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowedOrigins) == 0 {
				return true
			}
			return slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		},
	}
}

// WebSocketUpgrade returns a handler that upgrades HTTP connections to WebSocket.
func WebSocketUpgrade(hub *ws.Hub, allowedOrigins []string) http.HandlerFunc {
	upgrader := newUpgrader(allowedOrigins)

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error: %v", err)
			return
		}

		client := ws.NewClient(hub)
		hub.Register(client)

		replies := make(chan []byte, 16)
		done := make(chan struct{})

		go writePump(conn, client, replies, done)
		go readPump(conn, client, hub, replies, done)
	}
}

// writePump pumps hub messages and command replies to the connection.
func writePump(conn *websocket.Conn, client *ws.Client, replies <-chan []byte, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case reply := <-replies:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, reply); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}

// readPump reads client commands until the connection closes.
func readPump(conn *websocket.Conn, client *ws.Client, hub *ws.Hub, replies chan<- []byte, done chan<- struct{}) {
	defer func() {
		close(done)
		hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		reply := handleClientMessage(message, client)
		data, err := reply.JSON()
		if err != nil {
			log.Printf("Failed to encode WebSocket reply: %v", err)
			continue
		}

		select {
		case replies <- data:
		default:
			log.Println("WebSocket reply buffer full, dropping reply")
		}
	}
}

// handleClientMessage applies a client command and returns the reply.
func handleClientMessage(message []byte, client *ws.Client) ws.Message {
	var cmd ws.Command
	if err := json.Unmarshal(message, &cmd); err != nil {
		return ws.NewMessage(ws.TypeError, ws.ErrorPayload{
			Code:    "invalid_message",
			Message: "Message is not valid JSON",
		})
	}

	switch cmd.Type {
	case ws.TypeSubscribe, ws.TypeUnsubscribe:
		if cmd.Topic == "" {
			return ws.NewMessage(ws.TypeError, ws.ErrorPayload{
				Code:         "missing_topic",
				Message:      "topic is required",
				OriginalType: string(cmd.Type),
			})
		}

		ackType := ws.TypeSubscribeAck
		if cmd.Type == ws.TypeSubscribe {
			client.Subscribe(cmd.Topic)
		} else {
			client.Unsubscribe(cmd.Topic)
			ackType = ws.TypeUnsubscribeAck
		}
		ack := ws.NewMessage(ackType, nil)
		ack.Topic = cmd.Topic
		return ack

	case ws.TypePing:
		return ws.NewMessage(ws.TypePong, nil)

	default:
		return ws.NewMessage(ws.TypeError, ws.ErrorPayload{
			Code:         "unknown_command",
			Message:      "Unknown command type",
			OriginalType: string(cmd.Type),
		})
	}
}

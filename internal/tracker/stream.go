package tracker

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
)

// origins are checked by the cors middleware already
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleStream pushes the user's jogs over a websocket: the current ones right
// after connecting, and the fresh ones after every successful sync.
func (handler *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	s, ok := handler.session(w, r)
	if !ok {
		return
	}
	userID := s.UserID()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already replied to the client
		log.Warnf("stream upgrade for user [%s]: %s", userID, err)
		return
	}
	defer conn.Close()

	client := handler.hub.Register(userID)
	defer handler.hub.Unregister(client)

	initial, err := json.Marshal(StreamMessage{
		Type:   "jogs",
		UserID: userID,
		Jogs:   s.Coordinator.Jogs(),
		SentAt: time.Now().Unix(),
	})
	if err != nil {
		log.Errorf("stream, marshal initial message: %s", err)
		return
	}
	if err := writeStreamMessage(conn, websocket.TextMessage, initial); err != nil {
		log.Debugf("stream, write initial message: %s", err)
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		readStream(conn)
	}()
	defer func() {
		// unblocks the reader
		_ = conn.Close()
		<-done
	}()

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				_ = writeStreamMessage(conn, websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye"))
				return
			}
			if err := writeStreamMessage(conn, websocket.TextMessage, msg); err != nil {
				log.Debugf("stream, write message for user [%s]: %s", userID, err)
				return
			}
		case <-ticker.C:
			if err := writeStreamMessage(conn, websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// readStream drains client frames until the connection fails or closes.
func readStream(conn *websocket.Conn) {
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeStreamMessage(conn *websocket.Conn, messageType int, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
		return err
	}
	return conn.WriteMessage(messageType, data)
}

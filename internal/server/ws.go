package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"exoclass/internal/schema"
)

const (
	wsReadLimit    = 64 * 1024
	wsPongWait     = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteWait    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSReply is written for every observation received on /ws/predict.
type WSReply struct {
	Seq           int                `json:"seq"`
	Prediction    string             `json:"prediction,omitempty"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
	Error         *APIError          `json:"error,omitempty"`
}

// wsConn serialises writes; gorilla allows one concurrent writer.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.conn.WriteJSON(v)
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(wsWriteWait))
}

// handleWebsocket streams predictions: each text message is one
// mission-schema observation and gets exactly one reply, in order.
func (s *Server) handleWebsocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("request_id", requestID(c)).Msg("websocket upgrade failed")
		return
	}
	s.mw.WSConnectionsAdd(1)
	defer func() {
		conn.Close()
		s.mw.WSConnectionsAdd(-1)
		log.Debug().Str("request_id", requestID(c)).Msg("prediction websocket closed")
	}()

	ws := &wsConn{conn: conn}
	conn.SetReadLimit(wsReadLimit)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := ws.ping(); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	for seq := 0; ; seq++ {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("request_id", requestID(c)).Msg("prediction websocket closed unexpectedly")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsPongWait))

		reply := WSReply{Seq: seq}
		if msgType != websocket.TextMessage {
			reply.Error = &APIError{Code: ErrorCodeValidation, Message: "expected a text message with a JSON observation"}
		} else {
			reply = s.predictMessage(ctx, seq, msg)
		}

		if err := ws.writeJSON(reply); err != nil {
			log.Debug().Err(err).Msg("websocket write failed")
			return
		}
	}
}

func (s *Server) predictMessage(ctx context.Context, seq int, msg []byte) WSReply {
	reqCtx, cancel := context.WithTimeout(ctx, s.settings.RequestTimeout)
	defer cancel()

	res, err := s.service.PredictJSON(reqCtx, schema.MissionSchema, msg)
	if err != nil {
		status, body := errorBody(err)
		if status >= 500 {
			log.Error().Err(err).Int("seq", seq).Msg("websocket prediction failed")
		}
		return WSReply{Seq: seq, Error: &body}
	}
	return WSReply{Seq: seq, Prediction: res.Label, Probabilities: res.Probabilities}
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/aretw0/folio/pkg/domain"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HostChannel handles GET /host. Each text frame from the client is a host
// message; each outbound message is sent back as one frame. Failures are
// reported as {"kind": ..., "error": ...} frames and keep the channel open.
func (s *Server) HostChannel(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("HostChannel: upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	outbound, cancel := s.Editor.Subscribe(64)
	defer cancel()

	var writeMu sync.Mutex
	write := func(v any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(v)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range outbound {
			if err := write(msg); err != nil {
				s.logger.Debug("HostChannel: write failed", "err", err)
			}
		}
	}()

	s.logger.Info("host connected", "remote", r.RemoteAddr)
	for {
		var msg domain.Message
		err := conn.ReadJSON(&msg)
		if err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				_ = write(map[string]string{"error": "invalid message: " + err.Error()})
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("host disconnected", "err", err)
			}
			break
		}
		if msg.Kind == "" {
			_ = write(map[string]string{"error": "missing kind"})
			continue
		}

		_, herr := s.commit(func() error { return s.Editor.HandleMessage(r.Context(), msg) })
		if herr != nil {
			_ = write(map[string]string{"kind": string(msg.Kind), "error": herr.Error()})
		}
	}

	cancel()
	<-done
	s.logger.Info("host disconnected", "remote", r.RemoteAddr)
}

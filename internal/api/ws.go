package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tamaghna-docket/tickertape/internal/progress"
	"github.com/tamaghna-docket/tickertape/internal/ws"
)

// keepaliveInterval bounds how long a silent connection sits before the
// server pushes a ping event.
const keepaliveInterval = 30 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// progressSocket streams progress events for one job over a WebSocket.
// The client receives an immediate status snapshot, then live events as
// the job runs, with a ping event every keepalive interval. Client
// messages are read and discarded.
func (s *Server) progressSocket(w http.ResponseWriter, r *http.Request) {
	if s.manager == nil || s.jobs == nil {
		writeError(w, http.StatusServiceUnavailable, serviceUnavailableMsg)
		return
	}
	jobID := chi.URLParam(r, "job_id")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.String("job_id", jobID), zap.Error(err))
		return
	}
	sock := ws.NewSocket(conn)
	s.manager.Attach(jobID, sock)
	defer func() {
		s.manager.Detach(jobID, sock)
		sock.Close()
	}()

	// Snapshot first so a late subscriber still learns where the job is.
	if job, jerr := s.jobs.Get(jobID); jerr == nil {
		_ = sock.WriteJSON(progress.Event{
			Type:      progress.TypeStatus,
			JobID:     jobID,
			Status:    string(job.Status),
			Message:   job.CurrentStep,
			Progress:  job.Progress,
			Timestamp: time.Now().UTC(),
		})
	}

	done := make(chan struct{})
	go keepalive(sock, jobID, keepaliveInterval, done)
	defer close(done)

	// Drain and discard client frames; the socket is server-push only.
	for {
		if _, _, rerr := conn.ReadMessage(); rerr != nil {
			return
		}
	}
}

// keepalive pushes a ping event into the stream at each interval so
// clients see liveness as a normal JSON message. A failed write closes
// the connection; the read loop then unwinds the handler.
func keepalive(conn ws.Conn, jobID string, interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			err := conn.WriteJSON(progress.Event{
				Type:      progress.TypePing,
				JobID:     jobID,
				Timestamp: time.Now().UTC(),
			})
			if err != nil {
				conn.Close()
				return
			}
		case <-done:
			return
		}
	}
}

package authcore

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"
)

// Flash message severities.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashWarning = "warning"
)

// Flash is a one-shot user visible message. Rendering it is the host
// application's job.
type Flash struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// FlashSink receives the (message, severity) pairs the auth flows emit.
type FlashSink interface {
	Push(r *http.Request, f Flash)
}

const sessionKeyFlashes = "flashMessages"

// SessionFlashSink queues flashes in the scs session until the next
// render drains them.
type SessionFlashSink struct {
	Manager *scs.SessionManager
}

func (s *SessionFlashSink) Push(r *http.Request, f Flash) {
	ctx := r.Context()
	var flashes []Flash
	if data := s.Manager.GetBytes(ctx, sessionKeyFlashes); len(data) > 0 {
		// a corrupt queue just starts over
		_ = json.Unmarshal(data, &flashes)
	}
	flashes = append(flashes, f)
	data, err := json.Marshal(flashes)
	if err != nil {
		slog.Warn("error queueing flash message", "err", err)
		return
	}
	s.Manager.Put(ctx, sessionKeyFlashes, data)
}

// PopAll drains the queued flashes for rendering.
func (s *SessionFlashSink) PopAll(r *http.Request) []Flash {
	data := s.Manager.PopBytes(r.Context(), sessionKeyFlashes)
	if len(data) == 0 {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal(data, &flashes); err != nil {
		return nil
	}
	return flashes
}

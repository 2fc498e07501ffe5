package voice

import (
	"log/slog"
	"os"
	"sync"

	"github.com/johncui/vega/pkg/model"
)

// StatusLog records visual state changes and logs each transition.
type StatusLog struct {
	mu     sync.Mutex
	text   string
	status model.Status
	logger *slog.Logger
}

func NewStatusLog(logger *slog.Logger) *StatusLog {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	return &StatusLog{text: "Idle", status: model.StatusIdle, logger: logger}
}

func (s *StatusLog) SetStatus(text string, status model.Status) {
	s.mu.Lock()
	changed := s.status != status || s.text != text
	s.text, s.status = text, status
	s.mu.Unlock()
	if changed {
		s.logger.Debug("status", "state", string(status), "text", text)
	}
}

// Last returns the most recent status.
func (s *StatusLog) Last() (string, model.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text, s.status
}

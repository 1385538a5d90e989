package state

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Store persists the state document as a single flat file. One reader at
// run start, one writer at run end; the file is rewritten wholesale.
type Store struct {
	path   string
	logger *zap.Logger
}

// NewStore creates a Store rooted at path.
func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Load reads the persisted state. A missing or corrupt file yields an
// empty state rather than an error.
func (s *Store) Load() State {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("state file missing, starting empty", zap.String("path", s.path))
		} else {
			s.logger.Warn("state load failed, starting empty", zap.String("path", s.path), zap.Error(err))
		}
		return Empty()
	}
	st := Decode(data)
	s.logger.Info("state loaded",
		zap.String("path", s.path),
		zap.Int("snapshot_size", len(st.Snapshot)),
		zap.Int("events_total", len(st.Events)),
	)
	return st
}

// Save writes the state document, replacing the previous file.
func (s *Store) Save(st State) error {
	data, err := Encode(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write state %s: %w", s.path, err)
	}
	s.logger.Info("state saved",
		zap.String("path", s.path),
		zap.Int("snapshot_size", len(st.Snapshot)),
		zap.Int("events_total", len(st.Events)),
	)
	return nil
}

package audio

import (
	"fmt"
	"os"
	"path/filepath"
)

// Spool mirrors a session's segments to numbered files in a per-session
// directory. It exists for operator inspection of the raw audio a session
// produced; the transcription path reads only from the in-memory buffer.
type Spool struct {
	dir  string
	next int
}

// NewSpool creates the per-session spool directory under baseDir
func NewSpool(baseDir, sessionID string) (*Spool, error) {
	dir := filepath.Join(baseDir, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create spool directory %s: %w", dir, err)
	}

	return &Spool{dir: dir}, nil
}

// Dir returns the spool directory path
func (s *Spool) Dir() string {
	return s.dir
}

// Add writes one segment to the next numbered chunk file
func (s *Spool) Add(data []byte) error {
	name := filepath.Join(s.dir, fmt.Sprintf("chunk_%d.webm", s.next))
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return fmt.Errorf("failed to write spool file %s: %w", name, err)
	}

	s.next++
	return nil
}

// Remove deletes all spooled files and the session directory. Each failure
// is collected and removal continues, so one undeletable file does not leave
// the rest of the spool behind.
func (s *Spool) Remove() []error {
	var errs []error

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to read spool directory %s: %w", s.dir, err))
	} else {
		for _, entry := range entries {
			name := filepath.Join(s.dir, entry.Name())
			if err := os.Remove(name); err != nil {
				errs = append(errs, fmt.Errorf("failed to remove spool file %s: %w", name, err))
			}
		}
	}

	if err := os.Remove(s.dir); err != nil {
		errs = append(errs, fmt.Errorf("failed to remove spool directory %s: %w", s.dir, err))
	}

	return errs
}

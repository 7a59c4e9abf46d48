package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/erg0nix/synapse/internal/core"
)

// ErrIDCollision reports that a different session already claimed this
// session's files. IDs are second-granular start times, so a collision means
// two sessions started within the same second.
var ErrIDCollision = errors.New("session id already exists")

const (
	filePrefix    = "session_"
	structuredExt = ".json"
	transcriptExt = ".md"
)

// JSONPath returns the structured-data path for a session ID under dir.
func JSONPath(dir string, id core.SessionID) string {
	return filepath.Join(dir, filePrefix+string(id)+structuredExt)
}

// TranscriptPath returns the transcript path for a session ID under dir.
func TranscriptPath(dir string, id core.SessionID) string {
	return filepath.Join(dir, filePrefix+string(id)+transcriptExt)
}

// Save persists the session as a structured JSON document plus a Markdown
// transcript under dir. The first save claims the session's path; finding it
// already taken is an ID collision, not an overwrite. Later saves rewrite in
// place, so repeated saves of unchanged state are byte-identical.
func (r *Recorder) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create sessions directory: %w", err)
	}

	jsonPath := JSONPath(dir, r.session.ID)

	if !r.claimed {
		file, err := os.OpenFile(jsonPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err != nil {
			if os.IsExist(err) {
				return "", fmt.Errorf("%w: %s", ErrIDCollision, jsonPath)
			}
			return "", fmt.Errorf("claim session file: %w", err)
		}
		file.Close()
		r.claimed = true
	}

	data, err := json.MarshalIndent(r.session, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}
	data = append(data, '\n')

	if err := writeFileAtomic(jsonPath, data); err != nil {
		return "", fmt.Errorf("write session: %w", err)
	}

	transcript := RenderTranscript(r.session, r.store)
	if err := writeFileAtomic(TranscriptPath(dir, r.session.ID), []byte(transcript)); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}

	return jsonPath, nil
}

// writeFileAtomic writes data to a temporary file in the target directory
// and renames it into place, so an interrupted write never leaves a
// truncated file behind the final path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".synapse-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}

	return nil
}

// Load reads a persisted session from its structured file.
func Load(path string) (Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return Session{}, fmt.Errorf("parse session %s: %w", path, err)
	}

	return session, nil
}

// Summary describes one persisted session without its exchange bodies.
type Summary struct {
	ID        core.SessionID
	Model     string
	Exchanges int
	StartedAt time.Time
	Path      string
}

// List enumerates the saved sessions under dir, sorted by start time
// ascending. Files that fail to parse are skipped with a warning.
func List(dir string) ([]Summary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	var result []Summary
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, structuredExt) {
			continue
		}

		path := filepath.Join(dir, name)
		session, err := Load(path)
		if err != nil {
			slog.Warn("skipping unreadable session", "path", path, "error", err)
			continue
		}

		result = append(result, Summary{
			ID:        session.ID,
			Model:     session.Model,
			Exchanges: len(session.Exchanges),
			StartedAt: session.StartedAt,
			Path:      path,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.Before(result[j].StartedAt)
	})

	return result, nil
}

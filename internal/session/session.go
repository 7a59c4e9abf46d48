package session

import (
	"fmt"
	"time"

	"github.com/erg0nix/synapse/internal/core"
)

// Exchange is one human-input/model-output turn with its metadata. Immutable
// once appended to a session.
type Exchange struct {
	Timestamp   time.Time `json:"timestamp"`
	Mode        string    `json:"mode"`
	ArchetypeID string    `json:"archetype_id"`
	Element     string    `json:"element"`
	KoanID      string    `json:"koan_id"`
	Input       string    `json:"input"`
	Output      string    `json:"output"`
}

// Session is one run's ordered record of exchanges, persisted as a unit.
// EndedAt tracks the timestamp of the last exchange so that saving an
// unchanged session writes byte-identical output.
type Session struct {
	ID        core.SessionID `json:"id"`
	Model     string         `json:"model"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   time.Time      `json:"ended_at,omitzero"`
	Exchanges []Exchange     `json:"exchanges"`
}

// MasteryCounts tallies exchanges per archetype ID.
func (s Session) MasteryCounts() map[string]int {
	counts := make(map[string]int, len(s.Exchanges))
	for _, exchange := range s.Exchanges {
		counts[exchange.ArchetypeID]++
	}
	return counts
}

// ElementCounts tallies exchanges per element.
func (s Session) ElementCounts() map[string]int {
	counts := make(map[string]int)
	for _, exchange := range s.Exchanges {
		counts[exchange.Element]++
	}
	return counts
}

// ReferenceError reports an exchange referencing an identifier that does not
// resolve in the content store at recording time.
type ReferenceError struct {
	Kind string
	ID   string
	Err  error
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("exchange references unknown %s %q", e.Kind, e.ID)
}

func (e *ReferenceError) Unwrap() error {
	return e.Err
}

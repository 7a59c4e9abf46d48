package session

import (
	"errors"
	"time"

	"github.com/erg0nix/synapse/internal/content"
	"github.com/erg0nix/synapse/internal/core"
)

// Recorder accumulates the ordered exchanges of the active session. It is
// owned by the interactive loop; one recorder per running instance.
type Recorder struct {
	store   *content.Store
	now     func() time.Time
	session Session
	claimed bool
}

// NewRecorder starts a session for the given model. The session ID is
// derived from the start time. A nil now defaults to time.Now.
func NewRecorder(store *content.Store, model string, now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}

	start := now()
	return &Recorder{
		store: store,
		now:   now,
		session: Session{
			ID:        core.NewSessionID(start),
			Model:     model,
			StartedAt: start,
		},
	}
}

// Append validates the archetype and koan references against the content
// store and records the exchange. On any failure the session's exchange
// sequence is left unchanged.
func (r *Recorder) Append(mode, archetypeID, koanID, input, output string) error {
	archetype, err := r.store.Archetype(archetypeID)
	if err != nil {
		return &ReferenceError{Kind: "archetype", ID: archetypeID, Err: err}
	}

	if _, err := r.store.Koan(koanID); err != nil {
		return &ReferenceError{Kind: "koan", ID: koanID, Err: err}
	}

	timestamp := r.now()
	r.session.Exchanges = append(r.session.Exchanges, Exchange{
		Timestamp:   timestamp,
		Mode:        mode,
		ArchetypeID: archetypeID,
		Element:     string(archetype.Element),
		KoanID:      koanID,
		Input:       input,
		Output:      output,
	})
	r.session.EndedAt = timestamp

	return nil
}

// Session returns a copy of the current session state.
func (r *Recorder) Session() Session {
	session := r.session
	session.Exchanges = append([]Exchange(nil), r.session.Exchanges...)
	return session
}

// Count returns the number of recorded exchanges.
func (r *Recorder) Count() int {
	return len(r.session.Exchanges)
}

// ID returns the session identifier.
func (r *Recorder) ID() core.SessionID {
	return r.session.ID
}

// History returns up to the last n exchanges in chronological order.
func (r *Recorder) History(n int) []Exchange {
	if n <= 0 || len(r.session.Exchanges) == 0 {
		return nil
	}
	if n > len(r.session.Exchanges) {
		n = len(r.session.Exchanges)
	}
	tail := r.session.Exchanges[len(r.session.Exchanges)-n:]
	return append([]Exchange(nil), tail...)
}

// Resume replaces the recorder's state with a previously persisted session,
// marking its files as already claimed.
func (r *Recorder) Resume(session Session) error {
	if session.ID == "" {
		return errors.New("resume: session has no id")
	}

	session.Exchanges = append([]Exchange(nil), session.Exchanges...)
	r.session = session
	r.claimed = true
	return nil
}

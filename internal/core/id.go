package core

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

type SessionID string

type RequestID string

// SessionIDLayout is the time layout a session ID is derived from. Two
// sessions started within the same second collide, which the recorder
// reports instead of overwriting.
const SessionIDLayout = "20060102_150405"

func NewSessionID(start time.Time) SessionID {
	return SessionID(start.Format(SessionIDLayout))
}

// StartTime recovers the session start time encoded in the ID, or the zero
// time when the ID does not follow the layout.
func (id SessionID) StartTime() time.Time {
	t, err := time.Parse(SessionIDLayout, string(id))
	if err != nil {
		return time.Time{}
	}
	return t
}

func NewRequestID() RequestID {
	return RequestID("req_" + time.Now().UTC().Format("20060102T150405") + "_" + randomSeed())
}

func randomSeed() string {
	buffer := make([]byte, 6)
	_, _ = rand.Read(buffer)
	return hex.EncodeToString(buffer)
}

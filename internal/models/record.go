package models

import "time"

// MeetingRecord is one persisted generation event. Records are append-only:
// the store assigns ID and Timestamp on insert and nothing ever updates or
// deletes a row afterwards.
type MeetingRecord struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	Transcript string    `json:"transcript"`
	Summary    string    `json:"summary"`
	Emails     []string  `json:"emails"`
	Timestamp  time.Time `json:"timestamp"`
}

// GenerationResult is the transient output of one generation call. Emails is
// ordered: formal, action-oriented, casual.
type GenerationResult struct {
	Summary string   `json:"summary"`
	Emails  []string `json:"emails"`
}

package models

import "time"

type Vote struct {
	ID         string    `json:"id" db:"id"`
	BracketID  string    `json:"bracket_id,omitempty" db:"bracket_id"`
	MatchID    string    `json:"match_id" db:"match_id"`
	ClassID    string    `json:"class_id" db:"class_id"`
	VotedForID string    `json:"voted_for_id" db:"voted_for_id"`
	Timestamp  time.Time `json:"timestamp" db:"created_at"`
}

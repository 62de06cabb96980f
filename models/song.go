package models

import "time"

type Song struct {
	ID         string       `json:"id"`
	BracketID  string       `json:"bracket_id,omitempty"`
	Title      string       `json:"title"`
	Artist     string       `json:"artist"`
	YouTubeURL *string      `json:"youtube_url,omitempty"`
	Seed       int          `json:"seed"`
	Order      int          `json:"order"`
	Status     EntityStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
}

func (s *Song) IsActive() bool {
	return s.Status != EntityStatusRetired
}

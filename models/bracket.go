package models

import "time"

type Bracket struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (b *Bracket) Scope() BracketScope {
	return ScopeFor(b.ID)
}

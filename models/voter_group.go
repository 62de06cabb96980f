package models

import "time"

// VoterGroup - класс, голосующий как единое целое.
type VoterGroup struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Order     int          `json:"order"`
	Status    EntityStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

func (g *VoterGroup) IsActive() bool {
	return g.Status != EntityStatusRetired
}

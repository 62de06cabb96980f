package models

// BracketScope указывает, к какой сетке относится операция.
// Пустой BracketID означает legacy-сетку (bracketId = null в хранилище).
type BracketScope struct {
	BracketID string `json:"bracket_id"`
}

const legacyScopeName = "legacy"

func LegacyScope() BracketScope {
	return BracketScope{}
}

func ScopeFor(bracketID string) BracketScope {
	return BracketScope{BracketID: bracketID}
}

func (s BracketScope) IsLegacy() bool {
	return s.BracketID == ""
}

func (s BracketScope) String() string {
	if s.IsLegacy() {
		return legacyScopeName
	}
	return s.BracketID
}

package models

// EntityStatus заменяет флаг deleted для песен и классов.
type EntityStatus string

const (
	EntityStatusActive  EntityStatus = "active"
	EntityStatusRetired EntityStatus = "retired"
)

func EntityStatusFromDeleted(deleted bool) EntityStatus {
	if deleted {
		return EntityStatusRetired
	}
	return EntityStatusActive
}

func (s EntityStatus) Deleted() bool {
	return s == EntityStatusRetired
}

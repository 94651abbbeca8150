package types

// Status is a type for the row-level status of a resource in the database.
// This is independent of the business status of a document (see DocumentStatus).
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
	StatusDeleted  Status = "deleted"
)

func (s Status) String() string {
	return string(s)
}

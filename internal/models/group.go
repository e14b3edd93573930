package models

import "time"

// Group clusters subjects that a subdivision's students choose between, such
// as an elective block. Subjects sharing a Group with AllowSimultaneous set
// may be scheduled into the same slot without tripping the subdivision clash
// constraint, since no single student attends more than one of them at once.
type Group struct {
	ID                string    `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	AllowSimultaneous bool      `db:"allow_simultaneous" json:"allow_simultaneous"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// GroupFilter captures filtering options for listing groups.
type GroupFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

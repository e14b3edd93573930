package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ClassroomUnavailableWindow blocks a classroom out for a day/time range,
// e.g. a lab reserved for maintenance or a hall booked for an assembly.
type ClassroomUnavailableWindow struct {
	DayOfWeek   string `json:"day_of_week"`
	TimeRange   string `json:"time_range"`
	IsPreferred bool   `json:"is_preferred"`
}

// Classroom represents a physical teaching space that lectures are bound to.
type Classroom struct {
	ID          string         `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Capacity    int            `db:"capacity" json:"capacity"`
	Unavailable types.JSONText `db:"unavailable" json:"unavailable"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// ClassroomFilter captures filtering options for listing classrooms.
type ClassroomFilter struct {
	Search    string
	MinCap    int
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Lecture is a durable teaching-demand record: "this subject, taught by this
// teacher, to these subdivisions, this many times a week, for this many
// consecutive periods each time". It is the unit the scheduling engine
// expands into lecture-unit genes.
type Lecture struct {
	ID             string         `db:"id" json:"id"`
	TermID         string         `db:"term_id" json:"term_id"`
	ClassID        string         `db:"class_id" json:"class_id"` // primary subdivision, kept for backward-compat listing
	SubjectID      string         `db:"subject_id" json:"subject_id"`
	TeacherID      string         `db:"teacher_id" json:"teacher_id"`
	Count          int            `db:"count" json:"count"`
	Duration       int            `db:"duration" json:"duration"`
	SubdivisionIDs types.JSONText `db:"subdivision_ids" json:"subdivision_ids"`
	ClassroomIDs   types.JSONText `db:"classroom_ids" json:"classroom_ids"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// LectureFilter captures filtering options for listing lecture demand.
type LectureFilter struct {
	TermID    string
	ClassID   string
	TeacherID string
	SubjectID string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

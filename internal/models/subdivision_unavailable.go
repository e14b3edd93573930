package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// SubdivisionUnavailableWindow blocks a class cohort out for a day/time
// range, e.g. a recurring assembly or an off-campus activity.
type SubdivisionUnavailableWindow struct {
	DayOfWeek   string `json:"day_of_week"`
	TimeRange   string `json:"time_range"`
	IsPreferred bool   `json:"is_preferred"`
}

// SubdivisionUnavailable stores availability rules for a class acting as a
// student cohort (spec's "subdivision"). The teacher's existing Class model
// carries identity and rostering; this table only adds the windows the
// scheduling engine needs and is empty for classes with no restrictions.
type SubdivisionUnavailable struct {
	ID          string         `db:"id" json:"id"`
	ClassID     string         `db:"class_id" json:"class_id"`
	Unavailable types.JSONText `db:"unavailable" json:"unavailable"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

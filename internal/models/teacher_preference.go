package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TeacherUnavailableSlot describes a blocked teaching window. Windows with
// IsPreferred false must never be assigned to in a generated schedule;
// IsPreferred true windows are merely disfavoured (SP12 in the scheduling
// engine) and can still be used when no feasible alternative exists.
type TeacherUnavailableSlot struct {
	DayOfWeek   string `json:"day_of_week"`
	TimeRange   string `json:"time_range"`
	IsPreferred bool   `json:"is_preferred"`
}

// TeacherPreference stores capacity and availability rules for a teacher.
type TeacherPreference struct {
	ID             string         `db:"id" json:"id"`
	TeacherID      string         `db:"teacher_id" json:"teacher_id"`
	MaxLoadPerDay  int            `db:"max_load_per_day" json:"max_load_per_day"`
	MaxLoadPerWeek int            `db:"max_load_per_week" json:"max_load_per_week"`
	DailyMaxHours  int            `db:"daily_max_hours" json:"daily_max_hours"`
	WeeklyMaxHours int            `db:"weekly_max_hours" json:"weekly_max_hours"`
	Unavailable    types.JSONText `db:"unavailable" json:"unavailable"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

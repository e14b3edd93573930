// Package ga implements the institutional timetable generator: a
// constraint-aware, adaptive genetic algorithm that assigns lecture-units
// to time slots subject to hard constraints and weighted soft preferences.
//
// The package performs no I/O and depends on no wall clock beyond the
// execution budget it is handed in Config. Callers assemble a Snapshot
// once from their own data store and drive runs through Runtime.
package ga

// SlotID identifies a (day, period) cell in the institute's week grid.
type SlotID int

// Slot is a single (day, period) cell. Day and Period are both 1-indexed.
type Slot struct {
	ID     SlotID
	Day    int
	Period int
}

// UnavailableWindow marks a slot as blocked (Hard=true) or merely
// dispreferred (Hard=false, i.e. IsPreferred in spec terms) for some
// resource (teacher, classroom, or subdivision).
type UnavailableWindow struct {
	Slot SlotID
	Hard bool
}

// Teacher is an instructor, with daily/weekly load ceilings used by SP3/SP4.
type Teacher struct {
	ID             string
	Name           string
	DailyMaxHours  int
	WeeklyMaxHours int
	Unavailable    []UnavailableWindow
}

// Classroom is a physical room a lecture-unit may occupy.
type Classroom struct {
	ID          string
	Name        string
	Unavailable []UnavailableWindow
}

// Subdivision is a student cohort.
type Subdivision struct {
	ID          string
	Unavailable []UnavailableWindow
}

// Group flags whether member subjects' lectures may legitimately
// co-occur in the same slot across different subdivisions (electives).
type Group struct {
	ID                string
	AllowSimultaneous bool
}

// Subject belongs to exactly one Group.
type Subject struct {
	ID      string
	Name    string
	GroupID string
}

// Lecture is a demand unit: Count occurrences, each Duration slots long.
type Lecture struct {
	ID             string
	SubjectID      string
	TeacherID      string
	Count          int
	Duration       int
	Subdivisions   []string // subdivision IDs
	Classrooms     []string // classroom IDs; each unit occupies every listed classroom
}

// LectureUnitRef identifies one atomic occurrence of a Lecture.
type LectureUnitRef struct {
	LectureID string
	Index     int // 0-based occurrence index within the Lecture
}

// Assignment is one entry of the decoded result artefact: a lecture-unit
// and the slot it starts in.
type Assignment struct {
	LectureUnitIndex int
	SlotID           SlotID
}


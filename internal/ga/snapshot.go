package ga

import "sort"

// Snapshot is the immutable, shareable view of a problem instance consumed
// by the engine. It is built once per run and never mutated (spec.md §4.1).
type Snapshot struct {
	DayLength int // periods per day, shared by every day in the grid

	slots       []Slot
	slotsByDay  map[int][]Slot // ordered by period within each day
	slotByID    map[SlotID]Slot

	teachers     map[string]Teacher
	classrooms   map[string]Classroom
	subdivisions map[string]Subdivision
	groups       map[string]Group
	subjects     map[string]Subject
	lectures     []Lecture

	// units is the flattened lecture-unit index: units[i] tells you which
	// lecture and occurrence i refers to. Chromosome positions line up
	// 1:1 with this slice.
	units []LectureUnitRef

	// lectureUnitRange maps a lecture ID to the contiguous [start, end)
	// range of indices into units it owns.
	lectureUnitRange map[string][2]int

	teacherHardUnavail     map[string]map[SlotID]bool // true entries are hard-blocked
	teacherSoftPreferred   map[string]map[SlotID]bool
	classroomHardUnavail   map[string]map[SlotID]bool
	classroomSoftPreferred map[string]map[SlotID]bool
	subdivisionHardUnavail map[string]map[SlotID]bool
	subdivisionSoftPreferred map[string]map[SlotID]bool

	feasibleByDuration map[int][]Slot
}

// NewSnapshot validates and indexes the given entities, returning a
// Snapshot ready for use by Chromosome constructors and the Evaluator.
// It fails with *SnapshotError if any lecture references an unknown
// teacher/subject/subdivision/classroom, or if demand (in slots) exceeds
// slots x parallelisableCapacity and parallelisableCapacity > 0.
func NewSnapshot(
	dayLength int,
	slots []Slot,
	teachers []Teacher,
	classrooms []Classroom,
	subdivisions []Subdivision,
	groups []Group,
	subjects []Subject,
	lectures []Lecture,
	parallelisableCapacity int,
) (*Snapshot, error) {
	if dayLength < 1 {
		return nil, newSnapshotError("dayLength must be >= 1, got %d", dayLength)
	}

	s := &Snapshot{
		DayLength:    dayLength,
		slots:        append([]Slot(nil), slots...),
		slotsByDay:   map[int][]Slot{},
		slotByID:     map[SlotID]Slot{},
		teachers:     map[string]Teacher{},
		classrooms:   map[string]Classroom{},
		subdivisions: map[string]Subdivision{},
		groups:       map[string]Group{},
		subjects:     map[string]Subject{},
		lectures:     append([]Lecture(nil), lectures...),

		lectureUnitRange: map[string][2]int{},

		teacherHardUnavail:       map[string]map[SlotID]bool{},
		teacherSoftPreferred:     map[string]map[SlotID]bool{},
		classroomHardUnavail:     map[string]map[SlotID]bool{},
		classroomSoftPreferred:   map[string]map[SlotID]bool{},
		subdivisionHardUnavail:   map[string]map[SlotID]bool{},
		subdivisionSoftPreferred: map[string]map[SlotID]bool{},
	}

	for _, slot := range slots {
		s.slotByID[slot.ID] = slot
		s.slotsByDay[slot.Day] = append(s.slotsByDay[slot.Day], slot)
	}
	for day := range s.slotsByDay {
		day := day
		sort.Slice(s.slotsByDay[day], func(i, j int) bool {
			return s.slotsByDay[day][i].Period < s.slotsByDay[day][j].Period
		})
	}

	for _, t := range teachers {
		s.teachers[t.ID] = t
		hard, soft := splitUnavailability(t.Unavailable)
		s.teacherHardUnavail[t.ID] = hard
		s.teacherSoftPreferred[t.ID] = soft
	}
	for _, c := range classrooms {
		s.classrooms[c.ID] = c
		hard, soft := splitUnavailability(c.Unavailable)
		s.classroomHardUnavail[c.ID] = hard
		s.classroomSoftPreferred[c.ID] = soft
	}
	for _, sd := range subdivisions {
		s.subdivisions[sd.ID] = sd
		hard, soft := splitUnavailability(sd.Unavailable)
		s.subdivisionHardUnavail[sd.ID] = hard
		s.subdivisionSoftPreferred[sd.ID] = soft
	}
	for _, g := range groups {
		s.groups[g.ID] = g
	}
	for _, sub := range subjects {
		s.subjects[sub.ID] = sub
	}

	totalUnits := 0
	for li, lec := range lectures {
		if lec.Count < 1 {
			return nil, newSnapshotError("lecture %s: count must be >= 1, got %d", lec.ID, lec.Count)
		}
		if lec.Duration < 1 {
			return nil, newSnapshotError("lecture %s: duration must be >= 1, got %d", lec.ID, lec.Duration)
		}
		if _, ok := s.teachers[lec.TeacherID]; !ok {
			return nil, newSnapshotError("lecture %s references unknown teacher %q", lec.ID, lec.TeacherID)
		}
		if _, ok := s.subjects[lec.SubjectID]; !ok {
			return nil, newSnapshotError("lecture %s references unknown subject %q", lec.ID, lec.SubjectID)
		}
		if len(lec.Subdivisions) == 0 {
			return nil, newSnapshotError("lecture %s must reference at least one subdivision", lec.ID)
		}
		for _, sdID := range lec.Subdivisions {
			if _, ok := s.subdivisions[sdID]; !ok {
				return nil, newSnapshotError("lecture %s references unknown subdivision %q", lec.ID, sdID)
			}
		}
		for _, crID := range lec.Classrooms {
			if _, ok := s.classrooms[crID]; !ok {
				return nil, newSnapshotError("lecture %s references unknown classroom %q", lec.ID, crID)
			}
		}

		start := len(s.units)
		for occ := 0; occ < lec.Count; occ++ {
			s.units = append(s.units, LectureUnitRef{LectureID: lec.ID, Index: occ})
		}
		s.lectureUnitRange[lec.ID] = [2]int{start, len(s.units)}
		totalUnits += lec.Count * lec.Duration
		lectures[li] = lec
	}

	s.feasibleByDuration = map[int][]Slot{}
	for _, lec := range lectures {
		if _, ok := s.feasibleByDuration[lec.Duration]; !ok {
			s.feasibleByDuration[lec.Duration] = s.FeasibleStarts(lec.Duration)
		}
	}

	if parallelisableCapacity > 0 {
		capacity := len(slots) * parallelisableCapacity
		if len(slots) == 0 {
			return nil, newSnapshotError("snapshot has no slots but demand requires %d slot-occupancies", totalUnits)
		}
		if totalUnits > capacity {
			return nil, newSnapshotError("total demand (%d slot-occupancies) exceeds capacity (%d slots x %d parallel)", totalUnits, len(slots), parallelisableCapacity)
		}
	} else if len(slots) == 0 && totalUnits > 0 {
		return nil, newSnapshotError("snapshot has no slots but demand requires %d slot-occupancies", totalUnits)
	}

	return s, nil
}

func splitUnavailability(windows []UnavailableWindow) (hard, soft map[SlotID]bool) {
	hard = map[SlotID]bool{}
	soft = map[SlotID]bool{}
	for _, w := range windows {
		if w.Hard {
			hard[w.Slot] = true
		} else {
			soft[w.Slot] = true
		}
	}
	return hard, soft
}

// TotalUnits is the chromosome length: one gene per lecture-unit.
func (s *Snapshot) TotalUnits() int { return len(s.units) }

// UnitRef returns which lecture/occurrence chromosome position i refers to.
func (s *Snapshot) UnitRef(i int) LectureUnitRef { return s.units[i] }

// Lecture looks up a lecture by ID. ok is false if unknown.
func (s *Snapshot) Lecture(id string) (Lecture, bool) {
	for _, lec := range s.lectures {
		if lec.ID == id {
			return lec, true
		}
	}
	return Lecture{}, false
}

// Lectures returns every lecture in the snapshot, in load order.
func (s *Snapshot) Lectures() []Lecture { return s.lectures }

// UnitLecture is a convenience combining UnitRef + Lecture lookup.
func (s *Snapshot) UnitLecture(i int) Lecture {
	ref := s.units[i]
	lec, _ := s.Lecture(ref.LectureID)
	return lec
}

// SlotsForDay returns the period-ordered slots of a given day.
func (s *Snapshot) SlotsForDay(day int) []Slot { return s.slotsByDay[day] }

// Slot resolves a SlotID back to its (day, period) coordinates.
func (s *Snapshot) Slot(id SlotID) (Slot, bool) {
	sl, ok := s.slotByID[id]
	return sl, ok
}

// Days returns the sorted set of days present in the slot grid.
func (s *Snapshot) Days() []int {
	days := make([]int, 0, len(s.slotsByDay))
	for d := range s.slotsByDay {
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}

// Teacher looks up a teacher by ID.
func (s *Snapshot) Teacher(id string) (Teacher, bool) { t, ok := s.teachers[id]; return t, ok }

// Classroom looks up a classroom by ID.
func (s *Snapshot) Classroom(id string) (Classroom, bool) { c, ok := s.classrooms[id]; return c, ok }

// Subdivision looks up a subdivision by ID.
func (s *Snapshot) Subdivision(id string) (Subdivision, bool) {
	sd, ok := s.subdivisions[id]
	return sd, ok
}

// Group looks up a group by ID.
func (s *Snapshot) Group(id string) (Group, bool) { g, ok := s.groups[id]; return g, ok }

// Subject looks up a subject by ID.
func (s *Snapshot) Subject(id string) (Subject, bool) { sub, ok := s.subjects[id]; return sub, ok }

// TeacherHardBlocked reports whether slot is hard-unavailable for teacher.
func (s *Snapshot) TeacherHardBlocked(teacherID string, slot SlotID) bool {
	return s.teacherHardUnavail[teacherID][slot]
}

// TeacherSoftPreferred reports whether slot is flagged isPreferred for teacher.
func (s *Snapshot) TeacherSoftPreferred(teacherID string, slot SlotID) bool {
	return s.teacherSoftPreferred[teacherID][slot]
}

// ClassroomHardBlocked reports whether slot is hard-unavailable for classroom.
func (s *Snapshot) ClassroomHardBlocked(classroomID string, slot SlotID) bool {
	return s.classroomHardUnavail[classroomID][slot]
}

// ClassroomSoftPreferred reports whether slot is flagged isPreferred for classroom.
func (s *Snapshot) ClassroomSoftPreferred(classroomID string, slot SlotID) bool {
	return s.classroomSoftPreferred[classroomID][slot]
}

// SubdivisionHardBlocked reports whether slot is hard-unavailable for subdivision.
func (s *Snapshot) SubdivisionHardBlocked(subdivisionID string, slot SlotID) bool {
	return s.subdivisionHardUnavail[subdivisionID][slot]
}

// SubdivisionSoftPreferred reports whether slot is flagged isPreferred for subdivision.
func (s *Snapshot) SubdivisionSoftPreferred(subdivisionID string, slot SlotID) bool {
	return s.subdivisionSoftPreferred[subdivisionID][slot]
}

// FeasibleStartsCached returns the memoized result of FeasibleStarts for a
// duration observed in the snapshot's lectures, computed once at
// construction time. Chromosome constructors use this in their hot loop.
func (s *Snapshot) FeasibleStartsCached(duration int) []Slot {
	if cached, ok := s.feasibleByDuration[duration]; ok {
		return cached
	}
	return s.FeasibleStarts(duration)
}

// FeasibleStarts returns every slot in the snapshot where a unit of the
// given duration fits within its day (HV1 cannot occur).
func (s *Snapshot) FeasibleStarts(duration int) []Slot {
	var out []Slot
	for _, day := range s.Days() {
		daySlots := s.slotsByDay[day]
		for i, sl := range daySlots {
			if i+duration <= len(daySlots) && daySlots[i+duration-1].Period-sl.Period+1 == duration {
				out = append(out, sl)
			}
		}
	}
	return out
}

// OccupiedSlots returns the SlotIDs a unit starting at `start` occupies,
// given its duration, assuming start was chosen via FeasibleStarts (or is
// otherwise known to fit within one day).
func (s *Snapshot) OccupiedSlots(start SlotID, duration int) []SlotID {
	begin, ok := s.slotByID[start]
	if !ok {
		return nil
	}
	daySlots := s.slotsByDay[begin.Day]
	out := make([]SlotID, 0, duration)
	for _, sl := range daySlots {
		if sl.Period >= begin.Period && sl.Period < begin.Period+duration {
			out = append(out, sl.ID)
		}
	}
	return out
}

// Decode translates a chromosome's gene vector into the result artefact
// callers actually render: one Assignment per lecture-unit that was given a
// feasible start. Units left at -1 (no feasible start existed at all) are
// omitted rather than reported with a nonsensical slot.
func (s *Snapshot) Decode(c *Chromosome) []Assignment {
	out := make([]Assignment, 0, len(c.Genes))
	for i, start := range c.Genes {
		if start < 0 {
			continue
		}
		out = append(out, Assignment{LectureUnitIndex: i, SlotID: start})
	}
	return out
}

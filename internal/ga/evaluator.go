package ga

import "sort"

// Evaluator computes hard-violation count and weighted soft-penalty score
// for a chromosome (spec.md §4.3). It holds no mutable state and is safe
// for concurrent use across goroutines evaluating different chromosomes.
type Evaluator struct {
	snap    *Snapshot
	weights ConstraintWeights
}

// NewEvaluator binds a Snapshot and the penalty weights to evaluate with.
func NewEvaluator(snap *Snapshot, weights ConstraintWeights) *Evaluator {
	return &Evaluator{snap: snap, weights: weights}
}

// occupancy groups, for a single chromosome, every unit index present at
// each occupied slot — the basis for co-occurrence checks (HV2-4, SP12).
type occupancy map[SlotID][]int

func (e *Evaluator) buildOccupancy(c *Chromosome) occupancy {
	occ := occupancy{}
	for i, start := range c.Genes {
		if start < 0 {
			continue
		}
		lec := e.snap.UnitLecture(i)
		for _, slotID := range e.snap.OccupiedSlots(start, lec.Duration) {
			occ[slotID] = append(occ[slotID], i)
		}
	}
	return occ
}

// Evaluate computes and stores hardViolations, softPenalty, and fitness on
// the chromosome, returning the same FitnessRecord for convenience.
func (e *Evaluator) Evaluate(c *Chromosome) FitnessRecord {
	hard := e.hardViolations(c)
	soft := e.softPenalty(c)
	fitness := 1.0 / (1.0 + e.weights.HardConstraintWeight*float64(hard) + soft)
	if fitness < 0 {
		fitness = 0
	}
	if fitness > 1 {
		fitness = 1
	}
	rec := FitnessRecord{HardViolations: hard, SoftPenalty: soft, Fitness: fitness, Evaluated: true}
	c.Fitness = rec
	return rec
}

// hardViolations counts HV1-HV5 occurrences (spec.md §4.3).
func (e *Evaluator) hardViolations(c *Chromosome) int {
	snap := e.snap
	count := 0

	// HV1: overflow.
	for i, start := range c.Genes {
		lec := snap.UnitLecture(i)
		if start < 0 {
			count++
			continue
		}
		sl, ok := snap.Slot(start)
		if !ok {
			count++
			continue
		}
		daySlots := snap.SlotsForDay(sl.Day)
		lastPeriod := sl.Period
		if len(daySlots) > 0 {
			lastPeriod = daySlots[len(daySlots)-1].Period
		}
		if sl.Period+lec.Duration-1 > lastPeriod {
			count++
		}
		// HV5: hard unavailability of teacher/classroom/subdivision over
		// every occupied slot of this unit.
		for _, slotID := range snap.OccupiedSlots(start, lec.Duration) {
			if snap.TeacherHardBlocked(lec.TeacherID, slotID) {
				count++
			}
			for _, sdID := range lec.Subdivisions {
				if snap.SubdivisionHardBlocked(sdID, slotID) {
					count++
				}
			}
			for _, crID := range lec.Classrooms {
				if snap.ClassroomHardBlocked(crID, slotID) {
					count++
				}
			}
		}
	}

	// HV2-4: co-occurrence violations. Each rule is independent, so a pair
	// breaking two rules at once (e.g. same teacher AND shared classroom)
	// contributes once per broken rule, not once per pair.
	occ := e.buildOccupancy(c)
	for _, units := range occ {
		for a := 0; a < len(units); a++ {
			for b := a + 1; b < len(units); b++ {
				lecA := snap.UnitLecture(units[a])
				lecB := snap.UnitLecture(units[b])
				count += coOccurrenceViolations(snap, lecA, lecB)
			}
		}
	}

	return count
}

// coOccurrenceViolations implements spec.md §3 invariant 3: HV2 (same
// teacher), HV3 (shared classroom), and HV4 (subdivision clash unless both
// subjects share an allowSimultaneous group) are independent rules, each
// counted separately when a co-occurring pair breaks it.
func coOccurrenceViolations(snap *Snapshot, a, b Lecture) int {
	if a.ID == b.ID {
		return 0 // two occurrences of the same lecture never co-occur in this model
	}
	count := 0
	if a.TeacherID == b.TeacherID {
		count++ // HV2
	}
	if setsIntersect(a.Classrooms, b.Classrooms) {
		count++ // HV3
	}
	if setsIntersect(a.Subdivisions, b.Subdivisions) {
		// electives exception: allowed only if both subjects share a
		// group with AllowSimultaneous = true.
		subA, okA := snap.Subject(a.SubjectID)
		subB, okB := snap.Subject(b.SubjectID)
		violates := true
		if okA && okB && subA.GroupID == subB.GroupID {
			if group, ok := snap.Group(subA.GroupID); ok && group.AllowSimultaneous {
				violates = false
			}
		}
		if violates {
			count++ // HV4
		}
	}
	return count
}

// coOccurrenceViolates reports whether a co-occurring pair breaks at least
// one of HV2-HV4.
func coOccurrenceViolates(snap *Snapshot, a, b Lecture) bool {
	return coOccurrenceViolations(snap, a, b) > 0
}

func setsIntersect(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, x := range a {
		set[x] = struct{}{}
	}
	for _, y := range b {
		if _, ok := set[y]; ok {
			return true
		}
	}
	return false
}

// softPenalty sums SP1-SP12 (spec.md §4.3), weighted.
func (e *Evaluator) softPenalty(c *Chromosome) float64 {
	w := e.weights
	var total float64

	total += w.IdleTime * e.idleTimePenalty(c)
	total += w.ConsecutivePreference * e.consecutivePenalty(c)
	dailyPenalty, weeklyPenalty := e.teacherLoadPenalties(c)
	total += w.TeacherDailyLimit * dailyPenalty
	total += w.TeacherWeeklyLimit * weeklyPenalty
	total += w.ExcessiveDailyLectures * e.excessiveDailyLecturesPenalty(c)
	emptyPenalty, filledPenalty := e.dayFillPenalties(c)
	total += w.ExcessivelyEmptyDay * emptyPenalty
	total += w.ExcessivelyFilledDay * filledPenalty
	total += w.MultiDurationLate * e.multiDurationLatePenalty(c)
	dayP, slotP, daySlotP := e.deprioritizationPenalties(c)
	total += w.DeprioritizedDay * dayP
	total += w.DeprioritizedSlot * slotP
	total += w.DeprioritizedDaySlot * daySlotP
	total += e.softUnavailabilityPenalty(c) // SP12 weight folded per-occurrence (count of 1 each)

	return total
}

// resourceDay keys teacherAndSubdivisionOccupancy's result: a teacher id (or
// "sd:"-prefixed subdivision id) paired with a day.
type resourceDay struct {
	resource string
	day      int
}

func (e *Evaluator) teacherAndSubdivisionOccupancy(c *Chromosome) map[resourceDay][]int {
	snap := e.snap
	out := map[resourceDay][]int{}
	for i, start := range c.Genes {
		if start < 0 {
			continue
		}
		lec := snap.UnitLecture(i)
		for _, slotID := range snap.OccupiedSlots(start, lec.Duration) {
			sl, ok := snap.Slot(slotID)
			if !ok {
				continue
			}
			out[resourceDay{lec.TeacherID, sl.Day}] = append(out[resourceDay{lec.TeacherID, sl.Day}], sl.Period)
			for _, sdID := range lec.Subdivisions {
				out[resourceDay{"sd:" + sdID, sl.Day}] = append(out[resourceDay{"sd:" + sdID, sl.Day}], sl.Period)
			}
		}
	}
	for k := range out {
		sort.Ints(out[k])
	}
	return out
}

// idleTimePenalty implements SP1: for each (teacher, day) and (subdivision,
// day), gaps between earliest and latest occupied period contribute one
// penalty unit per empty slot between them.
func (e *Evaluator) idleTimePenalty(c *Chromosome) float64 {
	occ := e.teacherAndSubdivisionOccupancy(c)
	var total float64
	for _, periods := range occ {
		if len(periods) < 2 {
			continue
		}
		span := periods[len(periods)-1] - periods[0] + 1
		total += float64(span - len(periods))
	}
	return total
}

// consecutivePenalty implements SP2: a lecture's multi-hour units (a
// single lecture-unit occupies contiguous slots by construction, but a
// lecture with count > 1 on the same day should ideally run back to back)
// incurs a penalty proportional to gaps between the lecture's units on a
// shared day.
func (e *Evaluator) consecutivePenalty(c *Chromosome) float64 {
	snap := e.snap
	type lecDay struct {
		lecture string
		day     int
	}
	periodsByLecDay := map[lecDay][]int{}
	for i, start := range c.Genes {
		if start < 0 {
			continue
		}
		lec := snap.UnitLecture(i)
		if lec.Duration < 2 && lec.Count < 2 {
			continue
		}
		sl, ok := snap.Slot(start)
		if !ok {
			continue
		}
		key := lecDay{lec.ID, sl.Day}
		periodsByLecDay[key] = append(periodsByLecDay[key], sl.Period)
	}
	var total float64
	for _, periods := range periodsByLecDay {
		if len(periods) < 2 {
			continue
		}
		sort.Ints(periods)
		span := periods[len(periods)-1] - periods[0] + 1
		gap := span - len(periods)
		if gap > 0 {
			total += float64(gap)
		}
	}
	return total
}

// teacherLoadPenalties implements SP3/SP4: hours beyond daily/weekly caps.
func (e *Evaluator) teacherLoadPenalties(c *Chromosome) (daily, weekly float64) {
	snap := e.snap
	perDay := map[resourceDay]int{}
	perWeek := map[string]int{}
	for i, start := range c.Genes {
		if start < 0 {
			continue
		}
		lec := snap.UnitLecture(i)
		for _, slotID := range snap.OccupiedSlots(start, lec.Duration) {
			sl, ok := snap.Slot(slotID)
			if !ok {
				continue
			}
			perDay[resourceDay{lec.TeacherID, sl.Day}]++
			perWeek[lec.TeacherID]++
		}
	}
	for rd, hours := range perDay {
		t, ok := snap.Teacher(rd.resource)
		if !ok || t.DailyMaxHours <= 0 {
			continue
		}
		if hours > t.DailyMaxHours {
			daily += float64(hours - t.DailyMaxHours)
		}
	}
	for teacherID, hours := range perWeek {
		t, ok := snap.Teacher(teacherID)
		if !ok || t.WeeklyMaxHours <= 0 {
			continue
		}
		if hours > t.WeeklyMaxHours {
			weekly += float64(hours - t.WeeklyMaxHours)
		}
	}
	return daily, weekly
}

// excessiveDailyLecturesPenalty implements SP5: for each (subject, day), if
// hours-on-day exceed the lecture's own duration, penalty equals the excess.
func (e *Evaluator) excessiveDailyLecturesPenalty(c *Chromosome) float64 {
	snap := e.snap
	type subjDay struct {
		subject string
		day     int
	}
	hours := map[subjDay]int{}
	durationBySubject := map[string]int{}
	for i, start := range c.Genes {
		if start < 0 {
			continue
		}
		lec := snap.UnitLecture(i)
		durationBySubject[lec.SubjectID] = lec.Duration
		for _, slotID := range snap.OccupiedSlots(start, lec.Duration) {
			sl, ok := snap.Slot(slotID)
			if !ok {
				continue
			}
			hours[subjDay{lec.SubjectID, sl.Day}]++
		}
	}
	var total float64
	for key, h := range hours {
		dur := durationBySubject[key.subject]
		if dur <= 0 {
			continue
		}
		if h > dur {
			total += float64(h - dur)
		}
	}
	return total
}

// dayFillPenalties implements SP6/SP7: penalty proportional to deficit
// below MinLecturesPerDay (when the day is non-zero) and symmetric excess
// above MaxLecturesPerDay when set.
func (e *Evaluator) dayFillPenalties(c *Chromosome) (empty, filled float64) {
	snap := e.snap
	counts := map[resourceDay]int{}
	for i, start := range c.Genes {
		if start < 0 {
			continue
		}
		lec := snap.UnitLecture(i)
		for _, slotID := range snap.OccupiedSlots(start, lec.Duration) {
			sl, ok := snap.Slot(slotID)
			if !ok {
				continue
			}
			for _, sdID := range lec.Subdivisions {
				counts[resourceDay{sdID, sl.Day}]++
			}
		}
	}
	minPerDay := e.weights.MinLecturesPerDay
	maxPerDay := e.weights.MaxLecturesPerDay
	for _, count := range counts {
		if count == 0 {
			continue
		}
		if minPerDay > 0 && count < minPerDay {
			empty += float64(minPerDay - count)
		}
		if maxPerDay != nil && count > *maxPerDay {
			filled += float64(count - *maxPerDay)
		}
	}
	return empty, filled
}

// multiDurationLatePenalty implements SP8: a unit with duration >= 2 whose
// start-period fraction of the day exceeds MultiDurationPreferredFraction
// incurs penalty proportional to the overshoot.
func (e *Evaluator) multiDurationLatePenalty(c *Chromosome) float64 {
	snap := e.snap
	var total float64
	for i, start := range c.Genes {
		if start < 0 {
			continue
		}
		lec := snap.UnitLecture(i)
		if lec.Duration < 2 {
			continue
		}
		sl, ok := snap.Slot(start)
		if !ok {
			continue
		}
		fraction := float64(sl.Period-1) / float64(snap.DayLength)
		if fraction > e.weights.MultiDurationPreferredFraction {
			total += fraction - e.weights.MultiDurationPreferredFraction
		}
	}
	return total
}

// deprioritizationPenalties implements SP9/SP10/SP11: one penalty unit per
// unit landing on a deprioritized day, slot-number, or exact (day, period).
func (e *Evaluator) deprioritizationPenalties(c *Chromosome) (day, slotNumber, daySlot float64) {
	snap := e.snap
	w := e.weights
	for _, start := range c.Genes {
		if start < 0 {
			continue
		}
		sl, ok := snap.Slot(start)
		if !ok {
			continue
		}
		if _, bad := w.DeprioritizedDays[sl.Day]; bad {
			day++
		}
		if _, bad := w.DeprioritizedSlotNumbers[sl.Period]; bad {
			slotNumber++
		}
		if _, bad := w.DeprioritizedDaySlots[[2]int{sl.Day, sl.Period}]; bad {
			daySlot++
		}
	}
	return day, slotNumber, daySlot
}

// softUnavailabilityPenalty implements SP12: a unit on a slot flagged
// isPreferred=true in any applicable unavailability contributes one
// penalty.
func (e *Evaluator) softUnavailabilityPenalty(c *Chromosome) float64 {
	snap := e.snap
	var total float64
	for i, start := range c.Genes {
		if start < 0 {
			continue
		}
		lec := snap.UnitLecture(i)
		for _, slotID := range snap.OccupiedSlots(start, lec.Duration) {
			if snap.TeacherSoftPreferred(lec.TeacherID, slotID) {
				total++
			}
			for _, sdID := range lec.Subdivisions {
				if snap.SubdivisionSoftPreferred(sdID, slotID) {
					total++
				}
			}
			for _, crID := range lec.Classrooms {
				if snap.ClassroomSoftPreferred(crID, slotID) {
					total++
				}
			}
		}
	}
	return total
}

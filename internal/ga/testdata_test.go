package ga

// buildGrid returns `days` days of `periods` periods each, numbered
// sequentially the way a real timetable grid would be loaded from storage.
func buildGrid(days, periods int) []Slot {
	var slots []Slot
	id := 0
	for d := 1; d <= days; d++ {
		for p := 1; p <= periods; p++ {
			slots = append(slots, Slot{ID: SlotID(id), Day: d, Period: p})
			id++
		}
	}
	return slots
}

// trivialFixture builds the smallest non-empty, always-feasible instance:
// one teacher, one classroom, one subdivision, one subject in a group that
// does not allow simultaneity, one lecture of count 1 and duration 1, over
// a 5-day x 4-period grid with no unavailability at all.
func trivialFixture() (*Snapshot, error) {
	slots := buildGrid(5, 4)
	teachers := []Teacher{{ID: "t1", Name: "Teacher One", DailyMaxHours: 8, WeeklyMaxHours: 30}}
	classrooms := []Classroom{{ID: "c1", Name: "Room One"}}
	subdivisions := []Subdivision{{ID: "sd1"}}
	groups := []Group{{ID: "g1", AllowSimultaneous: false}}
	subjects := []Subject{{ID: "sub1", Name: "Math", GroupID: "g1"}}
	lectures := []Lecture{{
		ID: "lec1", SubjectID: "sub1", TeacherID: "t1",
		Count: 1, Duration: 1,
		Subdivisions: []string{"sd1"}, Classrooms: []string{"c1"},
	}}
	return NewSnapshot(4, slots, teachers, classrooms, subdivisions, groups, subjects, lectures, 0)
}

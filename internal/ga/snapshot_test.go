package ga

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSnapshotTrivialFixture(t *testing.T) {
	snap, err := trivialFixture()
	require.NoError(t, err)
	assert.Equal(t, 1, snap.TotalUnits())
	assert.Equal(t, []int{1, 2, 3, 4, 5}, snap.Days())
}

func TestNewSnapshotRejectsUnknownTeacher(t *testing.T) {
	slots := buildGrid(2, 2)
	lectures := []Lecture{{ID: "lec1", SubjectID: "sub1", TeacherID: "ghost", Count: 1, Duration: 1, Subdivisions: []string{"sd1"}}}
	_, err := NewSnapshot(2, slots, nil, nil, []Subdivision{{ID: "sd1"}}, nil, []Subject{{ID: "sub1"}}, lectures, 0)
	require.Error(t, err)
	var serr *SnapshotError
	require.ErrorAs(t, err, &serr)
}

func TestNewSnapshotRejectsLectureWithNoSubdivisions(t *testing.T) {
	slots := buildGrid(2, 2)
	teachers := []Teacher{{ID: "t1"}}
	subjects := []Subject{{ID: "sub1"}}
	lectures := []Lecture{{ID: "lec1", SubjectID: "sub1", TeacherID: "t1", Count: 1, Duration: 1}}
	_, err := NewSnapshot(2, slots, teachers, nil, nil, nil, subjects, lectures, 0)
	require.Error(t, err)
}

func TestNewSnapshotRejectsZeroSlotsWithDemand(t *testing.T) {
	teachers := []Teacher{{ID: "t1"}}
	subjects := []Subject{{ID: "sub1"}}
	subdivisions := []Subdivision{{ID: "sd1"}}
	lectures := []Lecture{{ID: "lec1", SubjectID: "sub1", TeacherID: "t1", Count: 1, Duration: 1, Subdivisions: []string{"sd1"}}}
	_, err := NewSnapshot(4, nil, teachers, nil, subdivisions, nil, subjects, lectures, 0)
	require.Error(t, err)
}

func TestNewSnapshotRejectsCapacityOverflow(t *testing.T) {
	slots := buildGrid(1, 1) // 1 slot-occupancy of capacity, x1 parallel
	teachers := []Teacher{{ID: "t1"}}
	subjects := []Subject{{ID: "sub1"}}
	subdivisions := []Subdivision{{ID: "sd1"}}
	lectures := []Lecture{{ID: "lec1", SubjectID: "sub1", TeacherID: "t1", Count: 2, Duration: 1, Subdivisions: []string{"sd1"}}}
	_, err := NewSnapshot(1, slots, teachers, nil, subdivisions, nil, subjects, lectures, 1)
	require.Error(t, err)
}

func TestFeasibleStartsRespectsDayBoundary(t *testing.T) {
	snap, err := trivialFixture()
	require.NoError(t, err)
	starts := snap.FeasibleStartsCached(4)
	// a duration-4 unit only fits starting at period 1 of a 4-period day.
	for _, s := range starts {
		assert.Equal(t, 1, s.Period)
	}
	assert.Len(t, starts, 5) // one per day
}

func TestOccupiedSlotsSpansDuration(t *testing.T) {
	snap, err := trivialFixture()
	require.NoError(t, err)
	start := snap.SlotsForDay(1)[0]
	occupied := snap.OccupiedSlots(start.ID, 3)
	assert.Len(t, occupied, 3)
}

func TestHardSoftUnavailabilitySplit(t *testing.T) {
	slots := buildGrid(1, 3)
	teachers := []Teacher{{ID: "t1", Unavailable: []UnavailableWindow{
		{Slot: slots[0].ID, Hard: true},
		{Slot: slots[1].ID, Hard: false},
	}}}
	subjects := []Subject{{ID: "sub1"}}
	subdivisions := []Subdivision{{ID: "sd1"}}
	lectures := []Lecture{{ID: "lec1", SubjectID: "sub1", TeacherID: "t1", Count: 1, Duration: 1, Subdivisions: []string{"sd1"}}}
	snap, err := NewSnapshot(3, slots, teachers, nil, subdivisions, nil, subjects, lectures, 0)
	require.NoError(t, err)
	assert.True(t, snap.TeacherHardBlocked("t1", slots[0].ID))
	assert.False(t, snap.TeacherSoftPreferred("t1", slots[0].ID))
	assert.True(t, snap.TeacherSoftPreferred("t1", slots[1].ID))
	assert.False(t, snap.TeacherHardBlocked("t1", slots[1].ID))
}

func TestDecodeSkipsUnplacedUnits(t *testing.T) {
	snap, err := trivialFixture()
	require.NoError(t, err)
	c := &Chromosome{Genes: []SlotID{-1}}
	assignments := snap.Decode(c)
	assert.Empty(t, assignments, "a unit with no feasible start must not appear in the decoded artefact")
}

func TestDecodeProducesOnePerPlacedUnit(t *testing.T) {
	snap, err := trivialFixture()
	require.NoError(t, err)
	start := snap.SlotsForDay(1)[0].ID
	c := &Chromosome{Genes: []SlotID{start}}
	assignments := snap.Decode(c)
	require.Len(t, assignments, 1)
	assert.Equal(t, 0, assignments[0].LectureUnitIndex)
	assert.Equal(t, start, assignments[0].SlotID)
}

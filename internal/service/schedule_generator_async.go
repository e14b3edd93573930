package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/sma-adp-api/internal/dto"
	"github.com/noah-isme/sma-adp-api/internal/ga"
	"github.com/noah-isme/sma-adp-api/internal/models"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
)

// lectureFetcher reads lecture demand records for a term.
type lectureFetcher interface {
	ListByTerm(ctx context.Context, termID string) ([]models.Lecture, error)
}

// classroomFetcher resolves classroom detail by id.
type classroomFetcher interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.Classroom, error)
}

// groupFetcher resolves a subject group by id.
type groupFetcher interface {
	FindByID(ctx context.Context, id string) (*models.Group, error)
}

// subdivisionUnavailableFetcher resolves per-class unavailability windows.
type subdivisionUnavailableFetcher interface {
	ListByClassIDs(ctx context.Context, classIDs []string) ([]models.SubdivisionUnavailable, error)
}

// ScheduleGeneratorOption configures optional capabilities of
// ScheduleGeneratorService beyond its required constructor arguments.
type ScheduleGeneratorOption func(*ScheduleGeneratorService)

// WithGAEngine attaches the constraint-aware generation engine: the
// Submit/Status/Cancel/Result surface that runs a full genetic-algorithm
// search over a term's lecture demand, as opposed to the single-class
// greedy Generate path. defaults seeds every submitted job's ga.Config
// before request-level overrides are applied.
func WithGAEngine(
	lectures lectureFetcher,
	classrooms classroomFetcher,
	groups groupFetcher,
	subdivisionUnavailable subdivisionUnavailableFetcher,
	defaults ga.Config,
) ScheduleGeneratorOption {
	return func(s *ScheduleGeneratorService) {
		s.lectureRepo = lectures
		s.classroomRepo = classrooms
		s.groupRepo = groups
		s.subdivisionUnavail = subdivisionUnavailable
		s.gaDefaults = defaults
		s.gaRuntime = ga.NewRuntime()
		s.gaSnapshots = make(map[string]*ga.Snapshot)
	}
}

// gaEnabled reports whether WithGAEngine was supplied at construction.
func (s *ScheduleGeneratorService) gaEnabled() bool {
	return s.gaRuntime != nil && s.lectureRepo != nil
}

// SubmitGeneration builds a Snapshot from the term's lecture demand and
// submits a generation job to the engine, returning immediately with a job
// id the caller polls via GenerationStatus.
func (s *ScheduleGeneratorService) SubmitGeneration(ctx context.Context, req dto.SubmitGenerationRequest) (*dto.SubmitGenerationResponse, error) {
	if !s.gaEnabled() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "constraint-aware generation engine is not configured")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation request")
	}

	snap, err := s.buildSnapshot(ctx, req.TermID, req.Days, req.TimeSlotsPerDay)
	if err != nil {
		return nil, err
	}

	cfg := s.gaDefaults
	if req.Config != nil {
		cfg = applyConfigOverride(cfg, *req.Config)
	}
	if err := cfg.Validate(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation config")
	}

	jobID, err := s.gaRuntime.Submit(snap, cfg)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to submit generation job")
	}
	s.gaSnapshotsMu.Lock()
	s.gaSnapshots[jobID] = snap
	s.gaSnapshotsMu.Unlock()

	s.logger.Sugar().Infow("generation job submitted", "jobId", jobID, "termId", req.TermID)
	return &dto.SubmitGenerationResponse{JobID: jobID}, nil
}

// GenerationStatus reports progress and, once completed, the decoded slot
// assignments for a submitted job.
func (s *ScheduleGeneratorService) GenerationStatus(ctx context.Context, jobID string) (*dto.JobStatusResponse, error) {
	if !s.gaEnabled() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "constraint-aware generation engine is not configured")
	}
	status, err := s.gaRuntime.Status(jobID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "generation job not found")
	}

	resp := &dto.JobStatusResponse{
		JobID:       jobID,
		State:       string(status.State),
		ProgressPct: status.ProgressPct,
	}
	if status.Best != nil {
		resp.Generation = status.Best.Generation
		resp.BestFitness = status.Best.BestFitness
		resp.HardViolations = status.Best.HardViolations
	}
	if status.Err != nil {
		resp.Error = status.Err.Error()
	}
	if status.State == ga.JobCompleted && status.Result != nil {
		s.gaSnapshotsMu.Lock()
		snap := s.gaSnapshots[jobID]
		s.gaSnapshotsMu.Unlock()
		if snap != nil {
			resp.Slots = decodeAssignments(snap, status.Result)
		}
	}
	return resp, nil
}

// CancelGeneration requests cooperative cancellation of a running job.
func (s *ScheduleGeneratorService) CancelGeneration(ctx context.Context, jobID string) (*dto.CancelResponse, error) {
	if !s.gaEnabled() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "constraint-aware generation engine is not configured")
	}
	if err := s.gaRuntime.Cancel(jobID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "generation job not found")
	}
	return &dto.CancelResponse{JobID: jobID, Cancelled: true}, nil
}

func applyConfigOverride(base ga.Config, override dto.GenerationConfigOverride) ga.Config {
	if override.PopulationSize > 0 {
		base.PopulationSize = override.PopulationSize
	}
	if override.MaxGenerations > 0 {
		base.MaxGenerations = override.MaxGenerations
	}
	if override.MaxExecutionTime > 0 {
		base.MaxExecutionTime = time.Duration(override.MaxExecutionTime) * time.Second
	}
	if override.TargetFitness > 0 {
		base.TargetFitness = override.TargetFitness
	}
	if override.RandomSeed != nil {
		base.RandomSeed = *override.RandomSeed
		base.HasSeed = true
	}
	return base
}

// buildSnapshot loads a term's lecture demand and the entities it
// references, then assembles a ga.Snapshot over a uniform day/period grid.
func (s *ScheduleGeneratorService) buildSnapshot(ctx context.Context, termID string, days []int, timeSlotsPerDay int) (*ga.Snapshot, error) {
	normalized := normalizeDays(days)
	if len(normalized) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "days must contain at least one entry between 1-7")
	}

	lectures, err := s.lectureRepo.ListByTerm(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecture demand")
	}
	if len(lectures) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no lecture demand defined for this term")
	}

	slotID := ga.SlotID(0)
	var slots []ga.Slot
	slotByDayPeriod := map[[2]int]ga.SlotID{}
	for _, day := range normalized {
		for period := 1; period <= timeSlotsPerDay; period++ {
			slots = append(slots, ga.Slot{ID: slotID, Day: day, Period: period})
			slotByDayPeriod[[2]int{day, period}] = slotID
			slotID++
		}
	}

	teacherIDs := map[string]struct{}{}
	classroomIDs := map[string]struct{}{}
	subdivisionIDs := map[string]struct{}{}
	subjectIDs := map[string]struct{}{}

	gaLectures := make([]ga.Lecture, 0, len(lectures))
	for _, lec := range lectures {
		var subdivisions []string
		if len(lec.SubdivisionIDs) > 0 {
			_ = json.Unmarshal(lec.SubdivisionIDs, &subdivisions)
		}
		if len(subdivisions) == 0 && lec.ClassID != "" {
			subdivisions = []string{lec.ClassID}
		}
		var classrooms []string
		if len(lec.ClassroomIDs) > 0 {
			_ = json.Unmarshal(lec.ClassroomIDs, &classrooms)
		}

		teacherIDs[lec.TeacherID] = struct{}{}
		subjectIDs[lec.SubjectID] = struct{}{}
		for _, id := range subdivisions {
			subdivisionIDs[id] = struct{}{}
		}
		for _, id := range classrooms {
			classroomIDs[id] = struct{}{}
		}

		gaLectures = append(gaLectures, ga.Lecture{
			ID:           lec.ID,
			SubjectID:    lec.SubjectID,
			TeacherID:    lec.TeacherID,
			Count:        lec.Count,
			Duration:     lec.Duration,
			Subdivisions: subdivisions,
			Classrooms:   classrooms,
		})
	}

	gaTeachers, err := s.buildTeachers(ctx, sortedKeys(teacherIDs), slotByDayPeriod)
	if err != nil {
		return nil, err
	}
	gaClassrooms, err := s.buildClassrooms(ctx, sortedKeys(classroomIDs), slotByDayPeriod)
	if err != nil {
		return nil, err
	}
	gaSubdivisions, err := s.buildSubdivisions(ctx, sortedKeys(subdivisionIDs), slotByDayPeriod)
	if err != nil {
		return nil, err
	}
	gaSubjects, gaGroups, err := s.buildSubjectsAndGroups(ctx, sortedKeys(subjectIDs))
	if err != nil {
		return nil, err
	}

	snap, err := ga.NewSnapshot(timeSlotsPerDay, slots, gaTeachers, gaClassrooms, gaSubdivisions, gaGroups, gaSubjects, gaLectures, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to build scheduling snapshot")
	}
	return snap, nil
}

func (s *ScheduleGeneratorService) buildTeachers(ctx context.Context, ids []string, slotByDayPeriod map[[2]int]ga.SlotID) ([]ga.Teacher, error) {
	out := make([]ga.Teacher, 0, len(ids))
	for _, id := range ids {
		teacher := ga.Teacher{ID: id}
		if s.prefs != nil {
			pref, err := s.prefs.GetByTeacher(ctx, id)
			if err == nil && pref != nil {
				teacher.DailyMaxHours = pref.DailyMaxHours
				teacher.WeeklyMaxHours = pref.WeeklyMaxHours
				teacher.Unavailable = decodeTeacherWindows(pref.Unavailable, slotByDayPeriod)
			}
		}
		out = append(out, teacher)
	}
	return out, nil
}

func (s *ScheduleGeneratorService) buildClassrooms(ctx context.Context, ids []string, slotByDayPeriod map[[2]int]ga.SlotID) ([]ga.Classroom, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if s.classroomRepo == nil {
		out := make([]ga.Classroom, len(ids))
		for i, id := range ids {
			out[i] = ga.Classroom{ID: id}
		}
		return out, nil
	}
	records, err := s.classroomRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classrooms")
	}
	out := make([]ga.Classroom, 0, len(records))
	for _, rec := range records {
		out = append(out, ga.Classroom{
			ID:          rec.ID,
			Name:        rec.Name,
			Unavailable: decodeClassroomWindows(rec.Unavailable, slotByDayPeriod),
		})
	}
	return out, nil
}

func (s *ScheduleGeneratorService) buildSubdivisions(ctx context.Context, ids []string, slotByDayPeriod map[[2]int]ga.SlotID) ([]ga.Subdivision, error) {
	windowsByClass := map[string][]models.SubdivisionUnavailable{}
	if s.subdivisionUnavail != nil && len(ids) > 0 {
		rows, err := s.subdivisionUnavail.ListByClassIDs(ctx, ids)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subdivision unavailability")
		}
		for _, row := range rows {
			windowsByClass[row.ClassID] = append(windowsByClass[row.ClassID], row)
		}
	}
	out := make([]ga.Subdivision, 0, len(ids))
	for _, id := range ids {
		sd := ga.Subdivision{ID: id}
		for _, row := range windowsByClass[id] {
			sd.Unavailable = append(sd.Unavailable, decodeSubdivisionWindows(row.Unavailable, slotByDayPeriod)...)
		}
		out = append(out, sd)
	}
	return out, nil
}

func (s *ScheduleGeneratorService) buildSubjectsAndGroups(ctx context.Context, ids []string) ([]ga.Subject, []ga.Group, error) {
	gaSubjects := make([]ga.Subject, 0, len(ids))
	groupIDs := map[string]struct{}{}
	for _, id := range ids {
		subject, err := s.subjects.FindByID(ctx, id)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to load subject %s", id))
		}
		gaSubjects = append(gaSubjects, ga.Subject{ID: subject.ID, Name: subject.Name, GroupID: subject.SubjectGroup})
		if subject.SubjectGroup != "" {
			groupIDs[subject.SubjectGroup] = struct{}{}
		}
	}

	gaGroups := make([]ga.Group, 0, len(groupIDs))
	if s.groupRepo != nil {
		for _, id := range sortedKeys(groupIDs) {
			group, err := s.groupRepo.FindByID(ctx, id)
			if err != nil {
				continue // unknown group code: subjects sharing it simply get no AllowSimultaneous exemption
			}
			gaGroups = append(gaGroups, ga.Group{ID: group.ID, AllowSimultaneous: group.AllowSimultaneous})
		}
	}
	return gaSubjects, gaGroups, nil
}

// decodeTeacherWindows, decodeClassroomWindows and decodeSubdivisionWindows
// share a JSON shape ({day_of_week, time_range, is_preferred}) but distinct Go
// types per entity kind, so each gets a thin decode wrapper.
func decodeTeacherWindows(raw []byte, slotByDayPeriod map[[2]int]ga.SlotID) []ga.UnavailableWindow {
	var windows []models.TeacherUnavailableSlot
	if len(raw) == 0 {
		return nil
	}
	_ = json.Unmarshal(raw, &windows)
	out := make([]ga.UnavailableWindow, 0, len(windows))
	for _, w := range windows {
		out = append(out, expandWindow(w.DayOfWeek, w.TimeRange, !w.IsPreferred, slotByDayPeriod)...)
	}
	return out
}

func decodeClassroomWindows(raw []byte, slotByDayPeriod map[[2]int]ga.SlotID) []ga.UnavailableWindow {
	var windows []models.ClassroomUnavailableWindow
	if len(raw) == 0 {
		return nil
	}
	_ = json.Unmarshal(raw, &windows)
	out := make([]ga.UnavailableWindow, 0, len(windows))
	for _, w := range windows {
		out = append(out, expandWindow(w.DayOfWeek, w.TimeRange, !w.IsPreferred, slotByDayPeriod)...)
	}
	return out
}

func decodeSubdivisionWindows(raw []byte, slotByDayPeriod map[[2]int]ga.SlotID) []ga.UnavailableWindow {
	var windows []models.SubdivisionUnavailableWindow
	if len(raw) == 0 {
		return nil
	}
	_ = json.Unmarshal(raw, &windows)
	out := make([]ga.UnavailableWindow, 0, len(windows))
	for _, w := range windows {
		out = append(out, expandWindow(w.DayOfWeek, w.TimeRange, !w.IsPreferred, slotByDayPeriod)...)
	}
	return out
}

func expandWindow(dayOfWeek, timeRange string, hard bool, slotByDayPeriod map[[2]int]ga.SlotID) []ga.UnavailableWindow {
	day := dayStringToIndex(dayOfWeek)
	if day == 0 {
		return nil
	}
	var out []ga.UnavailableWindow
	for _, period := range expandTimeRange(timeRange) {
		if id, ok := slotByDayPeriod[[2]int{day, period}]; ok {
			out = append(out, ga.UnavailableWindow{Slot: id, Hard: hard})
		}
	}
	return out
}

// decodeAssignments translates a solved Chromosome back into the wire slot
// shape the legacy Generate/Save path already uses, so /schedules clients
// render both kinds of proposals the same way.
func decodeAssignments(snap *ga.Snapshot, c *ga.Chromosome) []dto.ScheduleSlotProposal {
	assignments := snap.Decode(c)
	out := make([]dto.ScheduleSlotProposal, 0, len(assignments))
	for _, a := range assignments {
		slot, ok := snap.Slot(a.SlotID)
		if !ok {
			continue
		}
		lec := snap.UnitLecture(a.LectureUnitIndex)
		proposal := dto.ScheduleSlotProposal{
			DayOfWeek: slot.Day,
			TimeSlot:  slot.Period,
			SubjectID: lec.SubjectID,
			TeacherID: lec.TeacherID,
		}
		if len(lec.Classrooms) > 0 {
			room := lec.Classrooms[0]
			proposal.Room = &room
		}
		out = append(out, proposal)
	}
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

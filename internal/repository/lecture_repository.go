package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-adp-api/internal/models"
)

// LectureRepository persists lecture demand records.
type LectureRepository struct {
	db *sqlx.DB
}

// NewLectureRepository constructs a LectureRepository.
func NewLectureRepository(db *sqlx.DB) *LectureRepository {
	return &LectureRepository{db: db}
}

// ListByTerm returns every lecture demand record for a term, the shape the
// snapshot builder consumes wholesale.
func (r *LectureRepository) ListByTerm(ctx context.Context, termID string) ([]models.Lecture, error) {
	const query = `SELECT id, term_id, class_id, subject_id, teacher_id, count, duration,
       subdivision_ids, classroom_ids, created_at, updated_at
FROM lectures WHERE term_id = $1 ORDER BY created_at ASC`
	var lectures []models.Lecture
	if err := r.db.SelectContext(ctx, &lectures, query, termID); err != nil {
		return nil, fmt.Errorf("list lectures by term: %w", err)
	}
	return lectures, nil
}

// ListByFilter returns lectures matching the supplied filter, used by
// administrative listing endpoints.
func (r *LectureRepository) ListByFilter(ctx context.Context, filter models.LectureFilter) ([]models.Lecture, error) {
	base := "FROM lectures WHERE 1=1"
	var conditions []string
	var args []interface{}
	if filter.TermID != "" {
		conditions = append(conditions, fmt.Sprintf("term_id = $%d", len(args)+1))
		args = append(args, filter.TermID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	for _, c := range conditions {
		base += " AND " + c
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size
	query := fmt.Sprintf(`SELECT id, term_id, class_id, subject_id, teacher_id, count, duration,
       subdivision_ids, classroom_ids, created_at, updated_at %s ORDER BY created_at ASC LIMIT %d OFFSET %d`, base, size, offset)
	var lectures []models.Lecture
	if err := r.db.SelectContext(ctx, &lectures, query, args...); err != nil {
		return nil, fmt.Errorf("list lectures: %w", err)
	}
	return lectures, nil
}

// Create inserts a new lecture demand record.
func (r *LectureRepository) Create(ctx context.Context, lecture *models.Lecture) error {
	if lecture.ID == "" {
		lecture.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if lecture.CreatedAt.IsZero() {
		lecture.CreatedAt = now
	}
	lecture.UpdatedAt = now
	if len(lecture.SubdivisionIDs) == 0 {
		lecture.SubdivisionIDs = []byte("[]")
	}
	if len(lecture.ClassroomIDs) == 0 {
		lecture.ClassroomIDs = []byte("[]")
	}
	const query = `INSERT INTO lectures (id, term_id, class_id, subject_id, teacher_id, count, duration, subdivision_ids, classroom_ids, created_at, updated_at)
		VALUES (:id, :term_id, :class_id, :subject_id, :teacher_id, :count, :duration, :subdivision_ids, :classroom_ids, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lecture); err != nil {
		return fmt.Errorf("create lecture: %w", err)
	}
	return nil
}

// Update modifies an existing lecture demand record.
func (r *LectureRepository) Update(ctx context.Context, lecture *models.Lecture) error {
	lecture.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lectures SET count = :count, duration = :duration,
		subdivision_ids = :subdivision_ids, classroom_ids = :classroom_ids, updated_at = :updated_at
		WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, lecture)
	if err != nil {
		return fmt.Errorf("update lecture: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated lecture rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a lecture demand record.
func (r *LectureRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM lectures WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete lecture: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted lecture rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

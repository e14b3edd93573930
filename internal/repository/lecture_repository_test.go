package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-api/internal/models"
)

func newLectureRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestLectureRepositoryListByTerm(t *testing.T) {
	db, mock, cleanup := newLectureRepoMock(t)
	defer cleanup()
	repo := NewLectureRepository(db)

	rows := sqlmock.NewRows([]string{"id", "term_id", "class_id", "subject_id", "teacher_id", "count", "duration", "subdivision_ids", "classroom_ids", "created_at", "updated_at"}).
		AddRow("lec-1", "term-1", "class-1", "subj-1", "t1", 3, 1, `["class-1"]`, `["room-1"]`, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM lectures WHERE term_id = $1")).
		WithArgs("term-1").
		WillReturnRows(rows)

	list, err := repo.ListByTerm(context.Background(), "term-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 3, list[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLectureRepositoryCreateUpdateDelete(t *testing.T) {
	db, mock, cleanup := newLectureRepoMock(t)
	defer cleanup()
	repo := NewLectureRepository(db)

	mock.ExpectExec("INSERT INTO lectures").
		WithArgs(sqlmock.AnyArg(), "term-1", "class-1", "subj-1", "t1", 3, 1, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	lecture := &models.Lecture{TermID: "term-1", ClassID: "class-1", SubjectID: "subj-1", TeacherID: "t1", Count: 3, Duration: 1}
	require.NoError(t, repo.Create(context.Background(), lecture))

	mock.ExpectExec("UPDATE lectures SET").
		WithArgs(4, 1, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), lecture.ID).
		WillReturnResult(sqlmock.NewResult(1, 1))
	lecture.Count = 4
	require.NoError(t, repo.Update(context.Background(), lecture))

	mock.ExpectExec("DELETE FROM lectures").
		WithArgs(lecture.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), lecture.ID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

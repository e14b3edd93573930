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

func newClassroomRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestClassroomRepositoryList(t *testing.T) {
	db, mock, cleanup := newClassroomRepoMock(t)
	defer cleanup()
	repo := NewClassroomRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "capacity", "unavailable", "created_at", "updated_at"}).
		AddRow("room-1", "Lab A", 30, `[]`, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, capacity, unavailable, created_at, updated_at FROM classrooms WHERE 1=1 ORDER BY name ASC LIMIT 20 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM classrooms WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.ClassroomFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassroomRepositoryListByIDs(t *testing.T) {
	db, mock, cleanup := newClassroomRepoMock(t)
	defer cleanup()
	repo := NewClassroomRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "capacity", "unavailable", "created_at", "updated_at"}).
		AddRow("room-1", "Lab A", 30, `[]`, time.Now(), time.Now()).
		AddRow("room-2", "Lab B", 25, `[]`, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, capacity, unavailable, created_at, updated_at")).
		WithArgs("room-1", "room-2").
		WillReturnRows(rows)

	list, err := repo.ListByIDs(context.Background(), []string{"room-1", "room-2"})
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassroomRepositoryListByIDsEmpty(t *testing.T) {
	db, _, cleanup := newClassroomRepoMock(t)
	defer cleanup()
	repo := NewClassroomRepository(db)

	list, err := repo.ListByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, list)
}

func TestClassroomRepositoryCreateAndDelete(t *testing.T) {
	db, mock, cleanup := newClassroomRepoMock(t)
	defer cleanup()
	repo := NewClassroomRepository(db)

	mock.ExpectExec("INSERT INTO classrooms").
		WithArgs(sqlmock.AnyArg(), "Lab A", 30, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.Create(context.Background(), &models.Classroom{Name: "Lab A", Capacity: 30}))

	mock.ExpectExec("DELETE FROM classrooms").
		WithArgs("room-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "room-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

package projects

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgresWithMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresStore(sqlx.NewDb(db, "postgres")), mock
}

var projectColumns = []string{"payload", "file_ref", "watch_url", "channel_post_id", "created_at"}

const (
	selectByPayloadQuery = `(?s)^SELECT\s+payload,\s*file_ref,\s*watch_url,\s*channel_post_id,\s*created_at\s+FROM\s+projects\s+WHERE\s+payload\s*=\s*\$1$`
	selectAllQuery       = `(?s)^SELECT\s+payload,.*FROM\s+projects\s+ORDER\s+BY\s+created_at\s+DESC,\s*payload\s+ASC$`
	insertQuery          = `(?s)^INSERT\s+INTO\s+projects\s*\(payload,\s*file_ref,\s*watch_url,\s*channel_post_id,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*ON\s+CONFLICT\s*\(payload\)\s*DO\s+NOTHING$`
)

func TestPostgresGet(t *testing.T) {
	s, mock := newPostgresWithMock(t)
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(selectByPayloadQuery).
		WithArgs("demo").
		WillReturnRows(sqlmock.NewRows(projectColumns).AddRow("demo", "F1", "https://w", 77, created))

	got, err := s.Get(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, "F1", got.FileRef)
	assert.Equal(t, 77, got.ChannelPostID)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestPostgresGetNotFound(t *testing.T) {
	s, mock := newPostgresWithMock(t)
	mock.ExpectQuery(selectByPayloadQuery).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := s.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresGetDBError(t *testing.T) {
	s, mock := newPostgresWithMock(t)
	mock.ExpectQuery(selectByPayloadQuery).WithArgs("demo").WillReturnError(errors.New("db down"))

	_, err := s.Get(context.Background(), "demo")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "db down")
}

func TestPostgresList(t *testing.T) {
	s, mock := newPostgresWithMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery(selectAllQuery).
		WillReturnRows(sqlmock.NewRows(projectColumns).
			AddRow("b", "F2", "https://w", 2, now).
			AddRow("a", "F1", "https://w", 1, now.Add(-time.Hour)))

	list, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].Payload)
}

func TestPostgresInsert(t *testing.T) {
	s, mock := newPostgresWithMock(t)
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectExec(insertQuery).
		WithArgs("demo", "F1", "https://w", 77, created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Insert(context.Background(), Record{Payload: "demo", FileRef: "F1", WatchURL: "https://w", ChannelPostID: 77, CreatedAt: created})
	assert.NoError(t, err)
}

func TestPostgresInsertConflict(t *testing.T) {
	s, mock := newPostgresWithMock(t)
	mock.ExpectExec(insertQuery).
		WithArgs("demo", "F1", "https://w", 77, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Insert(context.Background(), Record{Payload: "demo", FileRef: "F1", WatchURL: "https://w", ChannelPostID: 77})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestPostgresInsertDBError(t *testing.T) {
	s, mock := newPostgresWithMock(t)
	mock.ExpectExec(insertQuery).WillReturnError(errors.New("connection reset"))

	err := s.Insert(context.Background(), Record{Payload: "demo"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAlreadyExists)
}

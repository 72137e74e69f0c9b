package store

import (
	"context"
	stdsql "database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	agentauth "github.com/agentauth/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestPostgresStore wraps a sqlmock-backed *sql.DB directly, bypassing
// NewPostgresStore's connection/migration setup so Set/Get/Delete can be
// exercised against scripted SQL expectations instead of a live database.
func newTestPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &PostgresStore{db: db}, mock
}

func TestPostgresStore_SetUpsertsRecord(t *testing.T) {
	s, mock := newTestPostgresStore(t)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO agentauth_challenges").
		WithArgs("ch_1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &agentauth.ChallengeRecord{ID: "ch_1", ChallengeType: "crypto-nl"}
	require.NoError(t, s.Set(ctx, "ch_1", record, 30))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetReturnsRecord(t *testing.T) {
	s, mock := newTestPostgresStore(t)
	ctx := context.Background()

	record := &agentauth.ChallengeRecord{ID: "ch_1", ChallengeType: "crypto-nl"}
	data, err := marshalRecord(record)
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"record", "expires_at"}).
		AddRow(data, time.Now().Add(time.Minute))
	mock.ExpectQuery("SELECT record, expires_at FROM agentauth_challenges").
		WithArgs("ch_1").
		WillReturnRows(rows)

	got, err := s.Get(ctx, "ch_1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "crypto-nl", got.ChallengeType)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetExpiredReturnsNil(t *testing.T) {
	s, mock := newTestPostgresStore(t)
	ctx := context.Background()

	data, err := marshalRecord(&agentauth.ChallengeRecord{ID: "ch_1"})
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"record", "expires_at"}).
		AddRow(data, time.Now().Add(-time.Minute))
	mock.ExpectQuery("SELECT record, expires_at FROM agentauth_challenges").
		WithArgs("ch_1").
		WillReturnRows(rows)

	got, err := s.Get(ctx, "ch_1")
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetMissingReturnsNil(t *testing.T) {
	s, mock := newTestPostgresStore(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT record, expires_at FROM agentauth_challenges").
		WithArgs("nope").
		WillReturnError(stdsql.ErrNoRows)

	got, err := s.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Delete(t *testing.T) {
	s, mock := newTestPostgresStore(t)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM agentauth_challenges").
		WithArgs("ch_1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Delete(ctx, "ch_1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func marshalRecord(record *agentauth.ChallengeRecord) ([]byte, error) {
	return json.Marshal(record)
}

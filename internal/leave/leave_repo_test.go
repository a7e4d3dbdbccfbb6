package leave_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"leavedesk/internal/leave"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newRepoTest(t *testing.T) (leave.Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	assert.NoError(t, err)

	return leave.NewRepository(gdb), mock
}

func leaveRows(ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"leave_id", "user_id", "status"})
	for _, id := range ids {
		rows.AddRow(id, "EMP_001", leave.StatusPending)
	}
	return rows
}

func TestLeaveRepository_Ordering(t *testing.T) {
	ctx := context.Background()

	t.Run("pending queue is oldest first", func(t *testing.T) {
		repo, mock := newRepoTest(t)

		mock.ExpectQuery(regexp.QuoteMeta(
			`SELECT * FROM "leave_requests" WHERE status = $1 ORDER BY created_at ASC`,
		)).
			WithArgs(leave.StatusPending).
			WillReturnRows(leaveRows("LV_001", "LV_002"))

		leaves, err := repo.FindPending(ctx, nil)

		assert.NoError(t, err)
		assert.Len(t, leaves, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("scoped pending queue filters users and stays oldest first", func(t *testing.T) {
		repo, mock := newRepoTest(t)

		mock.ExpectQuery(regexp.QuoteMeta(
			`SELECT * FROM "leave_requests" WHERE status = $1 AND user_id IN ($2,$3) ORDER BY created_at ASC`,
		)).
			WithArgs(leave.StatusPending, "EMP_001", "EMP_002").
			WillReturnRows(leaveRows("LV_003"))

		leaves, err := repo.FindPending(ctx, []string{"EMP_001", "EMP_002"})

		assert.NoError(t, err)
		assert.Len(t, leaves, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("own history is newest first", func(t *testing.T) {
		repo, mock := newRepoTest(t)

		mock.ExpectQuery(regexp.QuoteMeta(
			`SELECT * FROM "leave_requests" WHERE user_id = $1 ORDER BY created_at DESC`,
		)).
			WithArgs("EMP_001").
			WillReturnRows(leaveRows("LV_009", "LV_001"))

		leaves, err := repo.FindByUser(ctx, "EMP_001")

		assert.NoError(t, err)
		assert.Len(t, leaves, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("team history is newest first", func(t *testing.T) {
		repo, mock := newRepoTest(t)

		mock.ExpectQuery(regexp.QuoteMeta(
			`SELECT * FROM "leave_requests" WHERE user_id IN ($1,$2) ORDER BY created_at DESC`,
		)).
			WithArgs("EMP_001", "EMP_002").
			WillReturnRows(leaveRows("LV_008"))

		leaves, err := repo.FindByUsers(ctx, []string{"EMP_001", "EMP_002"})

		assert.NoError(t, err)
		assert.Len(t, leaves, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("filtered all view is newest first", func(t *testing.T) {
		repo, mock := newRepoTest(t)

		mock.ExpectQuery(regexp.QuoteMeta(
			`SELECT * FROM "leave_requests" WHERE status = $1 AND leave_type = $2 ORDER BY created_at DESC`,
		)).
			WithArgs(leave.StatusApproved, "SICK").
			WillReturnRows(leaveRows("LV_004"))

		leaves, err := repo.FindAll(ctx, leave.ListAllFilter{Status: leave.StatusApproved, LeaveType: "SICK"})

		assert.NoError(t, err)
		assert.Len(t, leaves, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLeaveRepository_WithTx(t *testing.T) {
	ctx := context.Background()

	t.Run("decide runs on the bound transaction, not the pool", func(t *testing.T) {
		repo, poolMock := newRepoTest(t)

		txDB, txMock, err := sqlmock.New()
		assert.NoError(t, err)
		defer txDB.Close()

		txMock.ExpectBegin()
		txMock.ExpectExec(`UPDATE "leave_requests" SET .+ WHERE leave_id = \$\d+ AND status = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		tx, err := txDB.Begin()
		assert.NoError(t, err)

		rows, err := repo.WithTx(tx).Decide(ctx, "LV_007", leave.DecisionUpdate{
			Status:    leave.StatusApproved,
			Comment:   "ok",
			ActorID:   "EMP_010",
			DecidedAt: time.Now().UTC(),
		})

		assert.NoError(t, err)
		assert.Equal(t, int64(1), rows)
		// Every statement joined the caller's tx; the pool saw nothing.
		assert.NoError(t, txMock.ExpectationsWereMet())
		assert.NoError(t, poolMock.ExpectationsWereMet())
	})

	t.Run("decision that matches no pending row reports zero", func(t *testing.T) {
		repo, _ := newRepoTest(t)

		txDB, txMock, err := sqlmock.New()
		assert.NoError(t, err)
		defer txDB.Close()

		txMock.ExpectBegin()
		txMock.ExpectExec(`UPDATE "leave_requests" SET .+ WHERE leave_id = \$\d+ AND status = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		tx, err := txDB.Begin()
		assert.NoError(t, err)

		rows, err := repo.WithTx(tx).Decide(ctx, "LV_007", leave.DecisionUpdate{
			Status:    leave.StatusRejected,
			ActorID:   "HR_001",
			DecidedAt: time.Now().UTC(),
		})

		assert.NoError(t, err)
		assert.Zero(t, rows)
		assert.NoError(t, txMock.ExpectationsWereMet())
	})
}

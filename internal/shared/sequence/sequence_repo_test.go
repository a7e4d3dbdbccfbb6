package sequence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const upsertPattern = `INSERT INTO sequence_counters .+ ON CONFLICT \(name\) DO UPDATE SET last_value = sequence_counters\.last_value \+ 1.+ RETURNING last_value`

func newSequenceTest(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	assert.NoError(t, err)

	return NewRepository(gdb), mock
}

func TestSequenceRepository_Next(t *testing.T) {
	ctx := context.Background()

	t.Run("upserts and returns the incremented counter", func(t *testing.T) {
		repo, mock := newSequenceTest(t)

		mock.ExpectQuery(upsertPattern).
			WithArgs("leave_request").
			WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(7))

		next, err := repo.Next(ctx, "leave_request")

		assert.NoError(t, err)
		assert.Equal(t, int64(7), next)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("allocation joins the bound transaction, not the pool", func(t *testing.T) {
		repo, poolMock := newSequenceTest(t)

		txDB, txMock, err := sqlmock.New()
		assert.NoError(t, err)
		defer txDB.Close()

		txMock.ExpectBegin()
		txMock.ExpectQuery(upsertPattern).
			WithArgs("leave_request").
			WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(8))

		tx, err := txDB.Begin()
		assert.NoError(t, err)

		next, err := repo.WithTx(tx).Next(ctx, "leave_request")

		assert.NoError(t, err)
		assert.Equal(t, int64(8), next)
		assert.NoError(t, txMock.ExpectationsWereMet())
		assert.NoError(t, poolMock.ExpectationsWereMet())
	})
}

func TestFormatID(t *testing.T) {
	assert.Equal(t, "LV_001", FormatID("LV", 1))
	assert.Equal(t, "LV_042", FormatID("LV", 42))
	assert.Equal(t, "LV_999", FormatID("LV", 999))
	// Past three digits the suffix just grows.
	assert.Equal(t, "LV_1000", FormatID("LV", 1000))
}

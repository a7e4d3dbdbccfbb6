package sequence

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"
)

//go:generate mockgen -source=sequence_repo.go -destination=mock/sequence_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Next(ctx context.Context, name string) (int64, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx binds the counter to the caller's transaction, so an aborted
// creation rolls the increment back with everything else.
func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	if r.tx != nil {
		session := r.db.Session(&gorm.Session{Context: ctx, NewDB: true})
		session.Statement.ConnPool = r.tx
		return session
	}
	return r.db.WithContext(ctx)
}

// Next increments and returns the named counter. The UPSERT makes the
// read-increment-write atomic, so concurrent allocations never hand out the
// same value. Inside a transaction the counter row stays locked until commit,
// which briefly serializes concurrent creations.
func (r *repository) Next(ctx context.Context, name string) (int64, error) {
	var nextValue int64

	err := r.conn(ctx).Raw(`
		INSERT INTO sequence_counters (name, last_value, updated_at)
		VALUES (?, 1, now())
		ON CONFLICT (name) DO UPDATE
		SET last_value = sequence_counters.last_value + 1, updated_at = now()
		RETURNING last_value
	`, name).Scan(&nextValue).Error

	if err != nil {
		return 0, err
	}

	return nextValue, nil
}

// FormatID renders the human-readable PREFIX_NNN identifier shape. The suffix
// is zero-padded to three digits and simply grows wider past 999.
func FormatID(prefix string, n int64) string {
	return fmt.Sprintf("%s_%03d", prefix, n)
}

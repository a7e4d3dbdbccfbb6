package leave

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
)

// DecisionUpdate carries the fields a decision writes. Exactly one of the
// approve/reject column sets is populated depending on Status.
type DecisionUpdate struct {
	Status    string
	Comment   string
	ActorID   string
	DecidedAt time.Time
}

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, l *LeaveRequest) error
	FindByID(ctx context.Context, id string) (*LeaveRequest, error)
	FindByUser(ctx context.Context, userID string) ([]LeaveRequest, error)
	FindByUsers(ctx context.Context, userIDs []string) ([]LeaveRequest, error)
	FindPending(ctx context.Context, userIDs []string) ([]LeaveRequest, error)
	FindAll(ctx context.Context, filter ListAllFilter) ([]LeaveRequest, error)
	Decide(ctx context.Context, id string, upd DecisionUpdate) (int64, error)
	SumApprovedDays(ctx context.Context, userID string, year int) (int, error)
	SumApprovedDaysByUsers(ctx context.Context, userIDs []string, year int) (map[string]int, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx binds the repository to the caller's transaction; every statement on
// the returned handle runs inside it.
func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

// conn returns the gorm session to execute on. With a bound transaction the
// session's connection is swapped for it, so the statement joins the caller's
// tx instead of the pool.
func (r *repository) conn(ctx context.Context) *gorm.DB {
	if r.tx != nil {
		session := r.db.Session(&gorm.Session{Context: ctx, NewDB: true})
		session.Statement.ConnPool = r.tx
		return session
	}
	return r.db.WithContext(ctx)
}

func (r *repository) Create(ctx context.Context, l *LeaveRequest) error {
	return r.conn(ctx).Create(l).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.conn(ctx).
		First(&l, "leave_id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) FindByUser(ctx context.Context, userID string) ([]LeaveRequest, error) {
	var leaves []LeaveRequest
	err := r.conn(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&leaves).Error
	return leaves, err
}

func (r *repository) FindByUsers(ctx context.Context, userIDs []string) ([]LeaveRequest, error) {
	if len(userIDs) == 0 {
		return []LeaveRequest{}, nil
	}
	var leaves []LeaveRequest
	err := r.conn(ctx).
		Where("user_id IN ?", userIDs).
		Order("created_at DESC").
		Find(&leaves).Error
	return leaves, err
}

// FindPending returns the queue oldest first so approvers work requests in
// arrival order. A nil userIDs slice means the unscoped org-wide queue.
func (r *repository) FindPending(ctx context.Context, userIDs []string) ([]LeaveRequest, error) {
	db := r.conn(ctx).
		Where("status = ?", StatusPending)

	if userIDs != nil {
		if len(userIDs) == 0 {
			return []LeaveRequest{}, nil
		}
		db = db.Where("user_id IN ?", userIDs)
	}

	var leaves []LeaveRequest
	err := db.Order("created_at ASC").Find(&leaves).Error
	return leaves, err
}

func (r *repository) FindAll(ctx context.Context, filter ListAllFilter) ([]LeaveRequest, error) {
	db := r.conn(ctx).Model(&LeaveRequest{})

	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.LeaveType != "" {
		db = db.Where("leave_type = ?", filter.LeaveType)
	}

	var leaves []LeaveRequest
	err := db.Order("created_at DESC").Find(&leaves).Error
	return leaves, err
}

// Decide applies an approve/reject transition with an explicit only-from-
// PENDING guard in the filter, so a racing second decision matches zero rows
// instead of overwriting the first. Returns the affected-row count; the
// caller distinguishes "already decided" from "not found".
func (r *repository) Decide(ctx context.Context, id string, upd DecisionUpdate) (int64, error) {
	fields := map[string]any{
		"status":          upd.Status,
		"manager_comment": upd.Comment,
		"updated_at":      upd.DecidedAt,
	}
	switch upd.Status {
	case StatusApproved:
		fields["approved_by"] = upd.ActorID
		fields["approved_at"] = upd.DecidedAt
	case StatusRejected:
		fields["rejected_by"] = upd.ActorID
		fields["rejected_at"] = upd.DecidedAt
	}

	res := r.conn(ctx).
		Model(&LeaveRequest{}).
		Where("leave_id = ?", id).
		Where("status = ?", StatusPending).
		Updates(fields)

	return res.RowsAffected, res.Error
}

func (r *repository) SumApprovedDays(ctx context.Context, userID string, year int) (int, error) {
	var total int
	err := r.conn(ctx).
		Model(&LeaveRequest{}).
		Select("COALESCE(SUM(days), 0)").
		Where("user_id = ?", userID).
		Where("status = ?", StatusApproved).
		Where("start_date BETWEEN ? AND ?", yearStart(year), yearEnd(year)).
		Scan(&total).Error
	return total, err
}

func (r *repository) SumApprovedDaysByUsers(ctx context.Context, userIDs []string, year int) (map[string]int, error) {
	totals := make(map[string]int, len(userIDs))
	if len(userIDs) == 0 {
		return totals, nil
	}

	var rows []struct {
		UserID string
		Total  int
	}
	err := r.conn(ctx).
		Model(&LeaveRequest{}).
		Select("user_id, COALESCE(SUM(days), 0) AS total").
		Where("user_id IN ?", userIDs).
		Where("status = ?", StatusApproved).
		Where("start_date BETWEEN ? AND ?", yearStart(year), yearEnd(year)).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		totals[row.UserID] = row.Total
	}
	return totals, nil
}

func yearStart(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

func yearEnd(year int) time.Time {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}

package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"leavedesk/internal/bootstrap"
	"leavedesk/internal/directory"
	"leavedesk/internal/events"
	leaveerrors "leavedesk/internal/leave/errors"
	"leavedesk/internal/messaging/kafka"
	"leavedesk/internal/shared/contextutil"
	"leavedesk/internal/shared/sequence"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// AnnualAllowanceDays is the fixed paid-leave budget per calendar year. The
// configurable allowance in the settings subsystem is not read here; the API
// contract pins the limit at 20.
const AnnualAllowanceDays = 20

const (
	leaveIDPrefix     = "LV"
	leaveSequenceName = "leave_request"
	aggregateType     = "leave_request"
)

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, actorID string, req CreateLeaveRequest) (LeaveResponse, error)
	ListOwn(ctx context.Context, userID string) ([]LeaveResponse, error)
	ListForManager(ctx context.Context, managerID string) ([]LeaveResponse, error)
	// ListPending returns the queue for one manager's direct reports, or the
	// org-wide queue when managerID is empty (privileged view).
	ListPending(ctx context.Context, managerID string) ([]PendingLeaveResponse, error)
	ListAll(ctx context.Context, filter ListAllFilter) ([]LeaveResponse, error)
	Approve(ctx context.Context, id, actorID string, privileged bool, comment string) (LeaveResponse, error)
	Reject(ctx context.Context, id, actorID string, privileged bool, comment string) (LeaveResponse, error)
	Stats(ctx context.Context, userID string, year int) (LeaveStatsResponse, error)
}

type service struct {
	db      *sql.DB
	repo    Repository
	seq     sequence.Repository
	dir     directory.Repository
	outbox  kafka.OutboxRepository
	auditor bootstrap.AuditLogger
	logger  *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	seq sequence.Repository,
	dir directory.Repository,
	outbox kafka.OutboxRepository,
	auditor bootstrap.AuditLogger,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{
		db:      db,
		repo:    repo,
		seq:     seq,
		dir:     dir,
		outbox:  outbox,
		auditor: auditor,
		logger:  l,
	}
}

func (s *service) Create(ctx context.Context, actorID string, req CreateLeaveRequest) (LeaveResponse, error) {
	s.logger.Debug("create leave requested",
		zap.String("actor_id", actorID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
		zap.String("leave_type", req.LeaveType),
	)

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	if startDate.After(endDate) {
		s.logger.Warn("create leave invalid range",
			zap.String("actor_id", actorID),
			zap.String("start_date", req.StartDate),
			zap.String("end_date", req.EndDate),
		)
		return LeaveResponse{}, leaveerrors.ErrInvalidDateRange
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	next, err := s.seq.WithTx(tx).Next(ctx, leaveSequenceName)
	if err != nil {
		s.logger.Error("create leave id allocation failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	leaveID := sequence.FormatID(leaveIDPrefix, next)

	// Snapshot of the manager-of-record at creation time. Absence is not an
	// error; the request is simply created without one.
	managerID, err := s.dir.ManagerOf(ctx, actorID)
	if err != nil {
		s.logger.Error("create leave manager lookup failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	// Both endpoints count: a single-day leave is one day.
	days := int(endDate.Sub(startDate).Hours()/24) + 1

	l := &LeaveRequest{
		LeaveID:   leaveID,
		UserID:    actorID,
		LeaveType: req.LeaveType,
		StartDate: startDate,
		EndDate:   endDate,
		Days:      days,
		Reason:    req.Reason,
		Status:    StatusPending,
		ManagerID: managerID,
	}

	if err := qtx.Create(ctx, l); err != nil {
		s.logger.Error("create leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := s.stageRequestedEvent(ctx, tx, l); err != nil {
		s.logger.Error("create leave stage event failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	s.auditor.Log(ctx, bootstrap.AuditLog{
		Action:  "LEAVE_REQUESTED",
		ActorID: actorID,
		Message: "Leave request created",
		Meta: map[string]any{
			"leave_id":   l.LeaveID,
			"leave_type": l.LeaveType,
			"days":       l.Days,
		},
	})
	s.logger.Info("create leave success",
		zap.String("leave_id", l.LeaveID),
		zap.String("user_id", actorID),
		zap.Int("days", days),
	)

	return mapToResponse(*l), nil
}

func (s *service) ListOwn(ctx context.Context, userID string) ([]LeaveResponse, error) {
	leaves, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

func (s *service) ListForManager(ctx context.Context, managerID string) ([]LeaveResponse, error) {
	reportIDs, err := s.dir.DirectReportIDs(ctx, managerID)
	if err != nil {
		return nil, err
	}
	if len(reportIDs) == 0 {
		return []LeaveResponse{}, nil
	}

	leaves, err := s.repo.FindByUsers(ctx, reportIDs)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

func (s *service) ListPending(ctx context.Context, managerID string) ([]PendingLeaveResponse, error) {
	var (
		leaves []LeaveRequest
		err    error
	)

	if managerID == "" {
		leaves, err = s.repo.FindPending(ctx, nil)
	} else {
		var reportIDs []string
		reportIDs, err = s.dir.DirectReportIDs(ctx, managerID)
		if err != nil {
			return nil, err
		}
		if len(reportIDs) == 0 {
			return []PendingLeaveResponse{}, nil
		}
		leaves, err = s.repo.FindPending(ctx, reportIDs)
	}
	if err != nil {
		return nil, err
	}

	return s.decoratePending(ctx, leaves)
}

// decoratePending attaches each requester's remaining allowance for the
// current year so approvers see the budget next to the queue item.
func (s *service) decoratePending(ctx context.Context, leaves []LeaveRequest) ([]PendingLeaveResponse, error) {
	userIDs := make([]string, 0, len(leaves))
	seen := make(map[string]bool, len(leaves))
	for _, l := range leaves {
		if !seen[l.UserID] {
			seen[l.UserID] = true
			userIDs = append(userIDs, l.UserID)
		}
	}

	year := time.Now().UTC().Year()
	used, err := s.repo.SumApprovedDaysByUsers(ctx, userIDs, year)
	if err != nil {
		return nil, err
	}

	resp := make([]PendingLeaveResponse, len(leaves))
	for i, l := range leaves {
		resp[i] = PendingLeaveResponse{
			LeaveResponse: mapToResponse(l),
			RemainingDays: AnnualAllowanceDays - used[l.UserID],
		}
	}
	return resp, nil
}

func (s *service) ListAll(ctx context.Context, filter ListAllFilter) ([]LeaveResponse, error) {
	leaves, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

func (s *service) Approve(ctx context.Context, id, actorID string, privileged bool, comment string) (LeaveResponse, error) {
	return s.decide(ctx, id, actorID, privileged, comment, StatusApproved)
}

func (s *service) Reject(ctx context.Context, id, actorID string, privileged bool, comment string) (LeaveResponse, error) {
	return s.decide(ctx, id, actorID, privileged, comment, StatusRejected)
}

func (s *service) decide(ctx context.Context, id, actorID string, privileged bool, comment, targetStatus string) (LeaveResponse, error) {
	s.logger.Debug("decide leave requested",
		zap.String("leave_id", id),
		zap.String("actor_id", actorID),
		zap.Bool("privileged", privileged),
		zap.String("target_status", targetStatus),
	)

	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}

	// Authorization reads the live relation, not the snapshot on the request:
	// a manager assigned after the request was filed can still decide it.
	if !privileged {
		managerID, err := s.dir.ManagerOf(ctx, l.UserID)
		if err != nil {
			s.logger.Error("decide leave manager lookup failed", zap.Error(err))
			return LeaveResponse{}, err
		}
		if managerID == nil || *managerID != actorID {
			s.logger.Warn("decide leave not manager of record",
				zap.String("leave_id", id),
				zap.String("actor_id", actorID),
				zap.String("user_id", l.UserID),
			)
			return LeaveResponse{}, leaveerrors.ErrNotManagerOfRecord
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("decide leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	decidedAt := time.Now().UTC()

	rows, err := qtx.Decide(ctx, id, DecisionUpdate{
		Status:    targetStatus,
		Comment:   comment,
		ActorID:   actorID,
		DecidedAt: decidedAt,
	})
	if err != nil {
		s.logger.Error("decide leave persist failed",
			zap.String("leave_id", id),
			zap.Error(err),
		)
		return LeaveResponse{}, err
	}
	if rows == 0 {
		// The row exists (we just read it) but was no longer PENDING, so a
		// concurrent or earlier decision won.
		s.logger.Warn("decide leave already decided",
			zap.String("leave_id", id),
			zap.String("status", l.Status),
		)
		return LeaveResponse{}, leaveerrors.ErrAlreadyDecided
	}

	applyDecision(l, targetStatus, comment, actorID, decidedAt)

	if err := s.stageDecidedEvent(ctx, tx, l, actorID); err != nil {
		s.logger.Error("decide leave stage event failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("decide leave commit failed",
			zap.String("leave_id", id),
			zap.Error(err),
		)
		return LeaveResponse{}, err
	}

	s.auditor.Log(ctx, bootstrap.AuditLog{
		Action:  "LEAVE_" + targetStatus,
		ActorID: actorID,
		Message: "Leave request decided",
		Meta: map[string]any{
			"leave_id": l.LeaveID,
			"user_id":  l.UserID,
			"status":   targetStatus,
		},
	})
	s.logger.Info("decide leave success",
		zap.String("leave_id", id),
		zap.String("status", targetStatus),
	)

	return mapToResponse(*l), nil
}

func (s *service) Stats(ctx context.Context, userID string, year int) (LeaveStatsResponse, error) {
	used, err := s.repo.SumApprovedDays(ctx, userID, year)
	if err != nil {
		return LeaveStatsResponse{}, err
	}

	return LeaveStatsResponse{
		Year:             year,
		AnnualLeaveLimit: AnnualAllowanceDays,
		UsedDays:         used,
		RemainingDays:    AnnualAllowanceDays - used,
	}, nil
}

func (s *service) stageRequestedEvent(ctx context.Context, tx *sql.Tx, l *LeaveRequest) error {
	event := events.LeaveRequestedEvent{
		EventType:  events.LeaveRequestedEventType,
		LeaveID:    l.LeaveID,
		UserID:     l.UserID,
		ManagerID:  l.ManagerID,
		LeaveType:  l.LeaveType,
		StartDate:  l.StartDate.Format("2006-01-02"),
		EndDate:    l.EndDate.Format("2006-01-02"),
		Days:       l.Days,
		OccurredAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		AggregateType: aggregateType,
		AggregateID:   l.LeaveID,
		EventType:     events.LeaveRequestedEventType,
		Topic:         events.LeaveLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
		RequestID:     contextutil.GetRequestID(ctx),
	})
}

func (s *service) stageDecidedEvent(ctx context.Context, tx *sql.Tx, l *LeaveRequest, actorID string) error {
	comment := ""
	if l.ManagerComment != nil {
		comment = *l.ManagerComment
	}
	event := events.LeaveDecidedEvent{
		EventType:  events.LeaveDecidedEventType,
		LeaveID:    l.LeaveID,
		UserID:     l.UserID,
		DecidedBy:  actorID,
		Status:     l.Status,
		Comment:    comment,
		OccurredAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		AggregateType: aggregateType,
		AggregateID:   l.LeaveID,
		EventType:     events.LeaveDecidedEventType,
		Topic:         events.LeaveLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
		RequestID:     contextutil.GetRequestID(ctx),
	})
}

func applyDecision(l *LeaveRequest, targetStatus, comment, actorID string, decidedAt time.Time) {
	l.Status = targetStatus
	l.ManagerComment = &comment
	l.UpdatedAt = decidedAt
	switch targetStatus {
	case StatusApproved:
		l.ApprovedBy = &actorID
		l.ApprovedAt = &decidedAt
	case StatusRejected:
		l.RejectedBy = &actorID
		l.RejectedAt = &decidedAt
	}
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}

func mapToResponse(l LeaveRequest) LeaveResponse {
	resp := LeaveResponse{
		LeaveID:        l.LeaveID,
		UserID:         l.UserID,
		LeaveType:      l.LeaveType,
		StartDate:      l.StartDate.Format("2006-01-02"),
		EndDate:        l.EndDate.Format("2006-01-02"),
		Days:           l.Days,
		Reason:         l.Reason,
		Status:         l.Status,
		ManagerID:      l.ManagerID,
		ManagerComment: l.ManagerComment,
		ApprovedBy:     l.ApprovedBy,
		RejectedBy:     l.RejectedBy,
		CreatedAt:      l.CreatedAt.UTC().Format(time.RFC3339),
	}
	if l.ApprovedAt != nil {
		v := l.ApprovedAt.UTC().Format(time.RFC3339)
		resp.ApprovedAt = &v
	}
	if l.RejectedAt != nil {
		v := l.RejectedAt.UTC().Format(time.RFC3339)
		resp.RejectedAt = &v
	}
	return resp
}

func mapToListResponse(leaves []LeaveRequest) []LeaveResponse {
	resp := make([]LeaveResponse, len(leaves))
	for i, l := range leaves {
		resp[i] = mapToResponse(l)
	}
	return resp
}

package audit

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// lifecyclePayload is the subset of both lifecycle events the trail records.
type lifecyclePayload struct {
	EventType string `json:"event_type"`
	LeaveID   string `json:"leave_id"`
	UserID    string `json:"user_id"`
	DecidedBy string `json:"decided_by"`
}

// ConsumeLeaveLifecycle turns every leave lifecycle event into a durable
// audit entry. Offsets are committed only after the entry is stored (or
// recognized as a replay), so nothing is lost on restart.
func ConsumeLeaveLifecycle(
	ctx context.Context,
	reader *kafkago.Reader,
	repo Repository,
	logger *zap.Logger,
) {
	log := logger.Named("audit.consumer")
	log.Info("leave lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("leave lifecycle consumer stopped")
				return
			}
			log.Error("fetch leave lifecycle message failed", zap.Error(err))
			continue
		}

		var payload lifecyclePayload
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			log.Error("decode leave lifecycle event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		entry := &AuditEntry{
			ID:      outboxID(msg),
			Action:  payload.EventType,
			LeaveID: payload.LeaveID,
			UserID:  payload.UserID,
			Detail:  string(msg.Value),
		}
		if payload.DecidedBy != "" {
			actor := payload.DecidedBy
			entry.ActorID = &actor
		}

		if err := repo.Create(ctx, entry); err != nil {
			if errors.Is(err, ErrDuplicateEntry) {
				log.Warn("audit entry already recorded, skipping",
					zap.String("entry_id", entry.ID),
					zap.String("leave_id", entry.LeaveID),
				)
				_ = reader.CommitMessages(ctx, msg)
				continue
			}

			log.Error("store audit entry failed",
				zap.String("leave_id", entry.LeaveID),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit leave lifecycle message failed", zap.Error(err))
			continue
		}

		log.Info("audit entry recorded",
			zap.String("entry_id", entry.ID),
			zap.String("action", entry.Action),
			zap.String("leave_id", entry.LeaveID),
		)
	}
}

// outboxID reads the producer's outbox id header; a replay without one still
// gets a fresh unique id.
func outboxID(msg kafkago.Message) string {
	for _, h := range msg.Headers {
		if h.Key == "outbox_id" && len(h.Value) > 0 {
			return string(h.Value)
		}
	}
	return uuid.New().String()
}

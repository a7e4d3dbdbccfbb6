package audit

import "time"

// AuditEntry is one row of the durable audit trail. The primary key is the
// outbox event id, so replayed Kafka messages collapse into a unique-key
// violation instead of duplicate rows.
type AuditEntry struct {
	ID      string  `gorm:"type:uuid;primaryKey"`
	Action  string  `gorm:"type:varchar(40);not null"`
	LeaveID string  `gorm:"type:varchar(20);not null;index:idx_audit_entries_leave"`
	UserID  string  `gorm:"type:varchar(20);not null"`
	ActorID *string `gorm:"type:varchar(20)"`
	Detail  string  `gorm:"type:jsonb"`

	CreatedAt time.Time
}

func (AuditEntry) TableName() string {
	return "audit_entries"
}

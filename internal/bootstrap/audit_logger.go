package bootstrap

import "context"

// AuditLog is one entry handed to the audit collaborator. Meta carries
// action-specific fields (leave id, actor, decision).
type AuditLog struct {
	Action  string
	ActorID string
	Message string
	Meta    map[string]any
}

// AuditLogger is the boundary to the external audit subsystem. The default
// implementation writes structured log lines; the Kafka lifecycle topic feeds
// the durable trail separately.
type AuditLogger interface {
	Log(ctx context.Context, entry AuditLog)
}

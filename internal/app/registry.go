package app

import (
	"database/sql"

	"leavedesk/internal/authz"
	"leavedesk/internal/bootstrap"
	"leavedesk/internal/directory"
	"leavedesk/internal/leave"
	"leavedesk/internal/messaging/kafka"
	"leavedesk/internal/middleware"
	"leavedesk/internal/shared/sequence"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	directoryRepo := directory.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)
	sequenceRepo := sequence.NewRepository(gormDB)

	// --- Authorization Core ---
	enforcer, err := authz.NewEnforcer()
	if err != nil {
		return err
	}
	authzService := authz.NewService(enforcer)

	// --- Services ---
	auditLogger := bootstrap.NewStdoutAuditLogger()
	leaveService := leave.NewService(db, leaveRepo, sequenceRepo, directoryRepo, outboxRepo, auditLogger)

	// --- Handlers ---
	leaveHandler := leave.NewHandler(leaveService)

	// --- Routes Registration ---
	router.Use(middleware.RequestID())
	router.Use(middleware.RateLimitByIP(rate.Limit(20), 40))

	api := router.Group("/api/v1")
	{
		leave.RegisterRoutes(api, leaveHandler, authzService, rdb)
	}

	return nil
}

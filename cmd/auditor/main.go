package main

import (
	"leavedesk/internal/app"
	"leavedesk/internal/shared/apperror"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	apperror.Init()

	logger.Info("leavedesk audit trail consumer starting")
	if err := app.RunAuditor(); err != nil {
		logger.Fatal("run auditor failed", zap.Error(err))
	}
}

package worker

import (
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"settlement-portal/internal/config"
)

func RegisterHandlers(mux *asynq.ServeMux, db *sqlx.DB, redisClient *redis.Client, cfg *config.Config) error {
	validationHandler, err := NewValidationTaskHandler(db, redisClient, cfg)
	if err != nil {
		return err
	}
	mux.HandleFunc(TaskReportValidate, validationHandler.Handle)
	return nil
}

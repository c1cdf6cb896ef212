package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"settlement-portal/internal/config"
	"settlement-portal/internal/handler"
	"settlement-portal/internal/middleware"
	"settlement-portal/internal/repository"
	"settlement-portal/internal/service"
	"settlement-portal/internal/utils"
)

func SetupAPIRoutes(
	router fiber.Router,
	db *sqlx.DB,
	redisClient *redis.Client,
	cfg *config.Config,
) error {
	// Initialize repositories
	validationRepo := repository.NewValidationRepository(db)

	// Initialize services
	validationService, err := service.NewValidationService(cfg, utils.GetLogger())
	if err != nil {
		return err
	}
	excelService := service.NewExcelService()

	// Initialize Asynq client (optional - only if Redis is available)
	var asynqClient *asynq.Client
	if redisClient != nil {
		asynqClient = asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.AsynqRedisAddr,
			Password: cfg.AsynqRedisPassword,
			DB:       cfg.AsynqRedisDB,
		})
	}

	// Initialize handlers
	validationHandler := handler.NewValidationHandler(validationRepo, validationService, excelService, asynqClient, cfg)

	// Protected routes
	protected := router.Group("", middleware.AuthMiddleware(cfg))

	validations := protected.Group("/validations", middleware.OperatorOnly())
	validations.Post("/", validationHandler.CreateRun)
	validations.Post("/sync", validationHandler.ValidateSync)
	validations.Get("/", validationHandler.GetRuns)
	// The literal code prefix must be registered ahead of the :id match.
	validations.Get("/code/:code", validationHandler.GetRunDetailByCode)
	validations.Get("/:id", validationHandler.GetRunDetail)
	validations.Get("/:id/export", validationHandler.ExportRun)

	return nil
}

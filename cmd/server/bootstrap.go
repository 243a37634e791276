package main

import (
	"context"

	"github.com/carewise/carehub/internal/config"
	"github.com/carewise/carehub/internal/handlers"
	"github.com/carewise/carehub/internal/models"
	"github.com/carewise/carehub/internal/services"
	"github.com/carewise/carehub/internal/utils"
	"github.com/carewise/carehub/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg        *config.Config
	classifier *services.ClassifierService
	escalation *services.EscalationService
	jobQueue   services.JobQueue
	worker     *services.Worker

	authHandler      *handlers.AuthHandler
	taskHandler      *handlers.TaskHandler
	spamHandler      *handlers.SpamHandler
	spamRuleHandler  *handlers.SpamRuleHandler
	userHandler      *handlers.UserHandler
	dashboardHandler *handlers.DashboardHandler
	systemLogHandler *handlers.SystemLogHandler
	healthHandler    *handlers.HealthHandler
	ingestHandler    *handlers.IngestHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	if err := models.SeedDefaultData(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	services.InitSystemLogger(models.GetDB())
	services.StartLogCleanupScheduler(models.GetDB())

	classifier := services.NewClassifierService(models.GetDB(), &cfg.Classifier)

	// Classification jobs run async when Redis is available, inline
	// otherwise.
	jobQueue := services.InitJobQueue(cfg)
	processor := func(ctx context.Context, job *services.ClassifyJob) error {
		var task models.Task
		if err := models.GetDB().WithContext(ctx).First(&task, job.TaskID).Error; err != nil {
			return err
		}
		if task.Status != models.TaskPending {
			return nil
		}
		_, err := classifier.ClassifyTask(ctx, &task)
		return err
	}
	if syncQueue, ok := jobQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(processor)
	}

	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(processor)
			worker.Start()
		}
	}

	escalation := services.NewEscalationService(models.GetDB(), cfg.Escalation)
	escalation.StartScheduler()

	if err := services.NewUserService(models.GetDB()).EnsureDefaultAdmin(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		cfg:        cfg,
		classifier: classifier,
		escalation: escalation,
		jobQueue:   jobQueue,
		worker:     worker,

		authHandler:      handlers.NewAuthHandler(models.GetDB(), cfg),
		taskHandler:      handlers.NewTaskHandler(models.GetDB()),
		spamHandler:      handlers.NewSpamHandler(models.GetDB(), cfg),
		spamRuleHandler:  handlers.NewSpamRuleHandler(models.GetDB()),
		userHandler:      handlers.NewUserHandler(models.GetDB()),
		dashboardHandler: handlers.NewDashboardHandler(models.GetDB()),
		systemLogHandler: handlers.NewSystemLogHandler(models.GetDB()),
		healthHandler:    handlers.NewHealthHandler(),
		ingestHandler:    handlers.NewIngestHandler(models.GetDB(), cfg, jobQueue),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.escalation.StopScheduler()
	services.StopLogCleanupScheduler()
	logger.Info().Msg("All schedulers stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.jobQueue != nil {
		s.jobQueue.Close()
	}
}

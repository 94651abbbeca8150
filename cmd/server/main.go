package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/billflow/billflow/internal/api"
	cronapi "github.com/billflow/billflow/internal/api/cron"
	v1 "github.com/billflow/billflow/internal/api/v1"
	"github.com/billflow/billflow/internal/config"
	"github.com/billflow/billflow/internal/delivery"
	"github.com/billflow/billflow/internal/logger"
	"github.com/billflow/billflow/internal/postgres"
	"github.com/billflow/billflow/internal/pubsub/memory"
	"github.com/billflow/billflow/internal/repository"
	"github.com/billflow/billflow/internal/service"
	"github.com/billflow/billflow/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		panic(err)
	}

	if cfg.Deployment.Mode == types.ModeProd {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewClient(cfg, log)
	if err != nil {
		log.Fatalw("failed to connect to postgres", "error", err)
	}

	pubSub := memory.NewPubSub(log)
	publisher := delivery.NewPublisher(pubSub, cfg, log)

	params := service.ServiceParams{
		Logger:            log,
		Config:            cfg,
		DB:                db,
		InvoiceRepo:       repository.NewInvoiceRepository(db, log),
		EstimateRepo:      repository.NewEstimateRepository(db, log),
		TemplateRepo:      repository.NewTemplateRepository(db, log),
		AccountRepo:       repository.NewAccountRepository(db, log),
		PlanRepo:          repository.NewPlanRepository(db, log),
		DeliveryPublisher: publisher,
	}

	invoiceService := service.NewInvoiceService(params)
	estimateService := service.NewEstimateService(params)
	recurringService := service.NewRecurringInvoiceService(params)
	reminderService := service.NewReminderService(params)
	reconciliationService := service.NewSubscriptionReconciliationService(params)

	router := api.NewRouter(api.Handlers{
		Health:       v1.NewHealthHandler(log),
		Invoice:      v1.NewInvoiceHandler(invoiceService, reminderService, log),
		Estimate:     v1.NewEstimateHandler(estimateService, log),
		Template:     v1.NewTemplateHandler(recurringService, log),
		Webhook:      v1.NewWebhookHandler(reconciliationService, log),
		CronInvoice:  cronapi.NewInvoiceHandler(recurringService, reminderService, log),
		CronEstimate: cronapi.NewEstimateHandler(estimateService, log),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := delivery.NewConsumer(pubSub, cfg, &delivery.LogSender{Logger: log}, log)
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorw("delivery consumer stopped", "error", err)
		}
	}()

	scheduler := startSweeps(cfg, log, recurringService, reminderService, estimateService)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	go func() {
		log.Infow("starting server", "address", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server")

	if scheduler != nil {
		scheduler.Stop()
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("forced shutdown", "error", err)
	}
	if err := publisher.Close(); err != nil {
		log.Errorw("failed to close delivery publisher", "error", err)
	}

	log.Infow("server stopped")
}

// startSweeps registers the in-process sweep schedules. Empty specs disable
// the scheduler; an external cron can hit the HTTP endpoints instead.
func startSweeps(
	cfg *config.Configuration,
	log *logger.Logger,
	recurringService service.RecurringInvoiceService,
	reminderService service.ReminderService,
	estimateService service.EstimateService,
) *cron.Cron {
	if cfg.Sweep.RecurringSpec == "" && cfg.Sweep.ReminderSpec == "" {
		return nil
	}

	scheduler := cron.New()
	sweepCtx := types.SetTenantID(context.Background(), types.DefaultTenantID)
	sweepCtx = types.SetUserID(sweepCtx, types.DefaultUserID)

	if cfg.Sweep.RecurringSpec != "" {
		_, err := scheduler.AddFunc(cfg.Sweep.RecurringSpec, func() {
			resp, err := recurringService.GenerateAllDue(sweepCtx)
			if err != nil {
				log.Errorw("recurring invoice sweep failed", "error", err)
				return
			}
			log.Infow("recurring invoice sweep completed",
				"total", resp.Total, "success", resp.Success, "failed", resp.Failed)
		})
		if err != nil {
			log.Fatalw("invalid recurring sweep spec", "spec", cfg.Sweep.RecurringSpec, "error", err)
		}
	}

	if cfg.Sweep.ReminderSpec != "" {
		_, err := scheduler.AddFunc(cfg.Sweep.ReminderSpec, func() {
			if resp, err := reminderService.DueSoonSweep(sweepCtx); err != nil {
				log.Errorw("due-soon reminder sweep failed", "error", err)
			} else {
				log.Infow("due-soon reminder sweep completed",
					"considered", resp.Considered, "dispatched", resp.Dispatched, "failed", resp.Failed)
			}

			if resp, err := reminderService.OverdueSweep(sweepCtx); err != nil {
				log.Errorw("overdue reminder sweep failed", "error", err)
			} else {
				log.Infow("overdue reminder sweep completed",
					"considered", resp.Considered, "dispatched", resp.Dispatched, "failed", resp.Failed)
			}

			if expired, err := estimateService.ExpireStale(sweepCtx); err != nil {
				log.Errorw("estimate expiry sweep failed", "error", err)
			} else {
				log.Infow("estimate expiry sweep completed", "expired", expired)
			}
		})
		if err != nil {
			log.Fatalw("invalid reminder sweep spec", "spec", cfg.Sweep.ReminderSpec, "error", err)
		}
	}

	scheduler.Start()
	return scheduler
}

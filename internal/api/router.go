package api

import (
	"github.com/billflow/billflow/internal/api/cron"
	v1 "github.com/billflow/billflow/internal/api/v1"
	"github.com/billflow/billflow/internal/rest/middleware"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Health   *v1.HealthHandler
	Invoice  *v1.InvoiceHandler
	Estimate *v1.EstimateHandler
	Template *v1.TemplateHandler
	Webhook  *v1.WebhookHandler

	CronInvoice  *cron.InvoiceHandler
	CronEstimate *cron.EstimateHandler
}

func NewRouter(handlers Handlers) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware)
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.TenantMiddleware)
	router.Use(middleware.ErrorHandler())

	router.GET("/health", handlers.Health.Health)

	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	cronGroup := router.Group("/cron")
	registerCronRoutes(cronGroup, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	invoices := router.Group("/invoices")
	{
		invoices.POST("", handlers.Invoice.CreateInvoice)
		invoices.GET("", handlers.Invoice.ListInvoices)
		invoices.GET("/:id", handlers.Invoice.GetInvoice)
		invoices.POST("/:id/send", handlers.Invoice.SendInvoice)
		invoices.POST("/:id/view", handlers.Invoice.ViewInvoice)
		invoices.POST("/:id/pay", handlers.Invoice.PayInvoice)
		invoices.POST("/:id/cancel", handlers.Invoice.CancelInvoice)
		invoices.POST("/:id/remind", handlers.Invoice.RemindInvoice)
	}

	estimates := router.Group("/estimates")
	{
		estimates.POST("", handlers.Estimate.CreateEstimate)
		estimates.GET("/:id", handlers.Estimate.GetEstimate)
		estimates.POST("/:id/send", handlers.Estimate.SendEstimate)
		estimates.POST("/:id/view", handlers.Estimate.ViewEstimate)
		estimates.POST("/:id/accept", handlers.Estimate.AcceptEstimate)
		estimates.POST("/:id/decline", handlers.Estimate.DeclineEstimate)
		estimates.POST("/:id/convert", handlers.Estimate.ConvertEstimate)
	}

	templates := router.Group("/templates")
	{
		templates.POST("", handlers.Template.CreateTemplate)
		templates.GET("/:id", handlers.Template.GetTemplate)
		templates.POST("/:id/generate", handlers.Template.GenerateInvoice)
	}

	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/processor", handlers.Webhook.HandleProcessorEvent)
	}
}

func registerCronRoutes(router *gin.RouterGroup, handlers Handlers) {
	invoices := router.Group("/invoices")
	{
		invoices.POST("/generate-recurring", handlers.CronInvoice.GenerateRecurringInvoices)
		invoices.POST("/remind-due-soon", handlers.CronInvoice.SendDueSoonReminders)
		invoices.POST("/remind-overdue", handlers.CronInvoice.SendOverdueReminders)
	}

	estimates := router.Group("/estimates")
	{
		estimates.POST("/expire", handlers.CronEstimate.ExpireStaleEstimates)
	}
}

package service

import (
	"github.com/billflow/billflow/internal/config"
	"github.com/billflow/billflow/internal/delivery"
	"github.com/billflow/billflow/internal/domain/account"
	"github.com/billflow/billflow/internal/domain/estimate"
	"github.com/billflow/billflow/internal/domain/invoice"
	"github.com/billflow/billflow/internal/domain/plan"
	"github.com/billflow/billflow/internal/domain/template"
	"github.com/billflow/billflow/internal/logger"
	"github.com/billflow/billflow/internal/postgres"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient

	// Repositories
	InvoiceRepo  invoice.Repository
	EstimateRepo estimate.Repository
	TemplateRepo template.Repository
	AccountRepo  account.Repository
	PlanRepo     plan.Repository

	// Outbound delivery queue
	DeliveryPublisher delivery.Publisher
}

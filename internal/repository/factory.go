package repository

import (
	"github.com/billflow/billflow/internal/domain/account"
	"github.com/billflow/billflow/internal/domain/estimate"
	"github.com/billflow/billflow/internal/domain/invoice"
	"github.com/billflow/billflow/internal/domain/plan"
	"github.com/billflow/billflow/internal/domain/template"
	"github.com/billflow/billflow/internal/logger"
	"github.com/billflow/billflow/internal/postgres"
	postgresRepo "github.com/billflow/billflow/internal/repository/postgres"
)

func NewInvoiceRepository(client postgres.IClient, logger *logger.Logger) invoice.Repository {
	return postgresRepo.NewInvoiceRepository(client, logger)
}

func NewEstimateRepository(client postgres.IClient, logger *logger.Logger) estimate.Repository {
	return postgresRepo.NewEstimateRepository(client, logger)
}

func NewTemplateRepository(client postgres.IClient, logger *logger.Logger) template.Repository {
	return postgresRepo.NewTemplateRepository(client, logger)
}

func NewAccountRepository(client postgres.IClient, logger *logger.Logger) account.Repository {
	return postgresRepo.NewAccountRepository(client, logger)
}

func NewPlanRepository(client postgres.IClient, logger *logger.Logger) plan.Repository {
	return postgresRepo.NewPlanRepository(client, logger)
}

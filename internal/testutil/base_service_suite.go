package testutil

import (
	"context"
	"time"

	"github.com/billflow/billflow/internal/config"
	"github.com/billflow/billflow/internal/domain/account"
	"github.com/billflow/billflow/internal/domain/estimate"
	"github.com/billflow/billflow/internal/domain/invoice"
	"github.com/billflow/billflow/internal/domain/plan"
	"github.com/billflow/billflow/internal/domain/template"
	"github.com/billflow/billflow/internal/logger"
	"github.com/billflow/billflow/internal/postgres"
	"github.com/billflow/billflow/internal/types"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	InvoiceRepo  invoice.Repository
	EstimateRepo estimate.Repository
	TemplateRepo template.Repository
	AccountRepo  account.Repository
	PlanRepo     plan.Repository
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	stores   Stores
	db       postgres.IClient
	logger   *logger.Logger
	config   *config.Configuration
	delivery *InMemoryDeliveryPublisher
	now      time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	cfg := config.GetDefaultConfig()

	var err error
	s.config = cfg
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = context.Background()
	s.ctx = context.WithValue(s.ctx, types.CtxTenantID, types.DefaultTenantID)
	s.ctx = context.WithValue(s.ctx, types.CtxUserID, types.DefaultUserID)
	s.ctx = context.WithValue(s.ctx, types.CtxRequestID, types.GenerateUUID())
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		InvoiceRepo:  NewInMemoryInvoiceStore(),
		EstimateRepo: NewInMemoryEstimateStore(),
		TemplateRepo: NewInMemoryTemplateStore(),
		AccountRepo:  NewInMemoryAccountStore(),
		PlanRepo:     NewInMemoryPlanStore(),
	}

	s.db = NewMockPostgresClient(s.logger)
	s.delivery = NewInMemoryDeliveryPublisher()
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.InvoiceRepo.(*InMemoryInvoiceStore).Clear()
	s.stores.EstimateRepo.(*InMemoryEstimateStore).Clear()
	s.stores.TemplateRepo.(*InMemoryTemplateStore).Clear()
	s.stores.AccountRepo.(*InMemoryAccountStore).Clear()
	s.stores.PlanRepo.(*InMemoryPlanStore).Clear()
	s.delivery.Clear()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// SetContext overrides the test context
func (s *BaseServiceTestSuite) SetContext(ctx context.Context) {
	s.ctx = ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetDB returns the test database client
func (s *BaseServiceTestSuite) GetDB() postgres.IClient {
	return s.db
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetDeliveryPublisher returns the recording delivery publisher
func (s *BaseServiceTestSuite) GetDeliveryPublisher() *InMemoryDeliveryPublisher {
	return s.delivery
}

// GetNow returns the timestamp taken at test setup
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}

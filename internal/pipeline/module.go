// Package pipeline provides the pipeline bounded context module: stage
// transitions, opportunity boards, forecasts and the dashboard funnel.
package pipeline

import (
	"leadflow_backend/internal/events"
	apphttp "leadflow_backend/internal/http"
	"leadflow_backend/internal/pipeline/handler"
	"leadflow_backend/internal/pipeline/repository"
	"leadflow_backend/internal/pipeline/service"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the pipeline bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the pipeline module. The activity
// recorder and stage counter come from the leads context; main.go wires
// the leads repository into both.
func NewModule(
	pool *pgxpool.Pool,
	eventBus events.Bus,
	val *validator.Validator,
	cfg config.FunnelConfig,
	activity service.ActivityRecorder,
	stages service.StageCounter,
	log *logger.Logger,
) (*Module, error) {
	labels, err := service.LoadFunnelOrder(cfg.GetFunnelConfigPath())
	if err != nil {
		return nil, err
	}

	repo := repository.New(pool)
	svc := service.New(repo, activity, eventBus, log)
	agg := service.NewAggregator(repo, stages, labels, log)

	return &Module{
		handler: handler.New(svc, agg, val),
		service: svc,
		repo:    repo,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "pipeline"
}

// Service returns the transition engine for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the pipeline repository for worker wiring.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts pipeline routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// All pipeline routes require authentication
	m.handler.RegisterRoutes(ctx.Protected.Group("/pipelines"))
	m.handler.RegisterDashboardRoutes(ctx.Protected.Group("/dashboard"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

// Package leads provides the lead distribution bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"leadflow_backend/internal/events"
	apphttp "leadflow_backend/internal/http"
	"leadflow_backend/internal/leads/distribution"
	"leadflow_backend/internal/leads/handler"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler      *handler.Handler
	distribution *distribution.Service
	repo         *repository.Repository
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := distribution.New(repo, eventBus, log)

	return &Module{
		handler:      handler.New(svc, val),
		distribution: svc,
		repo:         repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// DistributionService returns the distribution service for external use.
func (m *Module) DistributionService() *distribution.Service {
	return m.distribution
}

// Repository returns the leads repository for cross-module wiring.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// All leads routes require authentication
	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"))
	m.handler.RegisterWorkloadRoutes(ctx.Protected.Group("/users"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

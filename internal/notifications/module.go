// Package notifications provides the in-app notification module. It owns no
// domain events of its own; it subscribes to the leads and pipeline events
// and turns them into per-user notifications.
package notifications

import (
	"context"
	"fmt"

	"leadflow_backend/internal/events"
	apphttp "leadflow_backend/internal/http"
	"leadflow_backend/internal/notifications/handler"
	"leadflow_backend/internal/notifications/repository"
	"leadflow_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	categoryLeads    = "leads"
	categoryPipeline = "pipeline"
)

// Store defines the write interface the event handlers need.
type Store interface {
	Create(ctx context.Context, p repository.CreateParams) (repository.Notification, error)
}

// Module is the notifications module implementing http.Module and
// events.Handler.
type Module struct {
	store   Store
	handler *handler.Handler
	log     *logger.Logger
}

// NewModule creates and initializes the notifications module.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := repository.New(pool)
	return &Module{
		store:   repo,
		handler: handler.New(repo),
		log:     log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notifications"
}

// RegisterRoutes mounts notification routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/notifications"))
}

// RegisterHandlers subscribes to the domain events that produce
// notifications. Called once per process at composition time.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadAssigned{}.EventName(), m)
	bus.Subscribe(events.OpportunityStageMoved{}.EventName(), m)
	bus.Subscribe(events.OpportunityRotting{}.EventName(), m)

	m.log.Info("notifications module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadAssigned:
		return m.handleLeadAssigned(ctx, e)
	case events.OpportunityStageMoved:
		return m.handleStageMoved(ctx, e)
	case events.OpportunityRotting:
		return m.handleRotting(ctx, e)
	default:
		return nil
	}
}

// handleLeadAssigned notifies the representative who received the lead.
// Assigning a lead to yourself produces no notification.
func (m *Module) handleLeadAssigned(ctx context.Context, e events.LeadAssigned) error {
	if e.NewRep == e.AssignedBy {
		return nil
	}

	_, err := m.store.Create(ctx, repository.CreateParams{
		UserID:   e.NewRep,
		Title:    "Lead Assigned",
		Body:     "A lead was assigned to you via " + e.Method + " distribution.",
		Category: categoryLeads,
	})
	return err
}

// handleStageMoved notifies the opportunity owner when someone else moves
// their opportunity. Unowned opportunities and self-moves are silent.
func (m *Module) handleStageMoved(ctx context.Context, e events.OpportunityStageMoved) error {
	if e.OwnerID == nil || *e.OwnerID == e.MovedByID {
		return nil
	}

	_, err := m.store.Create(ctx, repository.CreateParams{
		UserID:   *e.OwnerID,
		Title:    "Opportunity Moved",
		Body:     "One of your opportunities was moved to another stage.",
		Category: categoryPipeline,
	})
	return err
}

// handleRotting notifies the opportunity owner that the deal has gone stale.
func (m *Module) handleRotting(ctx context.Context, e events.OpportunityRotting) error {
	if e.OwnerID == nil {
		return nil
	}

	_, err := m.store.Create(ctx, repository.CreateParams{
		UserID:   *e.OwnerID,
		Title:    "Opportunity Needs Attention",
		Body:     fmt.Sprintf("One of your opportunities has been sitting in its stage for %d days.", e.DaysInStage),
		Category: categoryPipeline,
	})
	return err
}

// Compile-time checks
var (
	_ apphttp.Module = (*Module)(nil)
	_ events.Handler = (*Module)(nil)
)

package notifications

import (
	"context"
	"strings"
	"testing"
	"time"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/notifications/repository"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	created []repository.CreateParams
}

func (f *fakeStore) Create(_ context.Context, p repository.CreateParams) (repository.Notification, error) {
	f.created = append(f.created, p)
	return repository.Notification{ID: uuid.New(), UserID: p.UserID, Title: p.Title, Body: p.Body, Category: p.Category}, nil
}

func newTestModule(store Store) *Module {
	return &Module{store: store, log: logger.New("test")}
}

func TestHandle_LeadAssignedNotifiesNewRep(t *testing.T) {
	store := &fakeStore{}
	m := newTestModule(store)
	rep := uuid.New()

	err := m.Handle(context.Background(), events.LeadAssigned{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     uuid.New(),
		NewRep:     rep,
		AssignedBy: uuid.New(),
		Method:     "round-robin",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.created) != 1 {
		t.Fatalf("expected one notification, got %d", len(store.created))
	}
	if store.created[0].UserID != rep {
		t.Fatalf("expected notification for the new assignee")
	}
	if !strings.Contains(store.created[0].Body, "round-robin") {
		t.Fatalf("expected distribution method in body, got %q", store.created[0].Body)
	}
}

func TestHandle_SelfAssignmentIsSilent(t *testing.T) {
	store := &fakeStore{}
	m := newTestModule(store)
	rep := uuid.New()

	err := m.Handle(context.Background(), events.LeadAssigned{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     uuid.New(),
		NewRep:     rep,
		AssignedBy: rep,
		Method:     "manual",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.created) != 0 {
		t.Fatalf("expected no notification for a self-assignment")
	}
}

func TestHandle_StageMovedNotifiesOwnerOnly(t *testing.T) {
	store := &fakeStore{}
	m := newTestModule(store)
	owner := uuid.New()

	// No owner: nothing to notify.
	err := m.Handle(context.Background(), events.OpportunityStageMoved{
		BaseEvent:     events.NewBaseEvent(),
		OpportunityID: uuid.New(),
		MovedByID:     uuid.New(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.created) != 0 {
		t.Fatalf("expected no notification for an unowned opportunity")
	}

	// Owner moving their own deal: silent.
	err = m.Handle(context.Background(), events.OpportunityStageMoved{
		BaseEvent:     events.NewBaseEvent(),
		OpportunityID: uuid.New(),
		MovedByID:     owner,
		OwnerID:       &owner,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.created) != 0 {
		t.Fatalf("expected no notification for a self-move")
	}

	// Someone else moving the owner's deal: one notification.
	err = m.Handle(context.Background(), events.OpportunityStageMoved{
		BaseEvent:     events.NewBaseEvent(),
		OpportunityID: uuid.New(),
		MovedByID:     uuid.New(),
		OwnerID:       &owner,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.created) != 1 || store.created[0].UserID != owner {
		t.Fatalf("expected one notification for the owner, got %d", len(store.created))
	}
}

func TestHandle_RottingNotifiesOwner(t *testing.T) {
	store := &fakeStore{}
	m := newTestModule(store)
	owner := uuid.New()

	err := m.Handle(context.Background(), events.OpportunityRotting{
		BaseEvent:     events.NewBaseEvent(),
		OpportunityID: uuid.New(),
		OwnerID:       &owner,
		DaysInStage:   12,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.created) != 1 {
		t.Fatalf("expected one notification, got %d", len(store.created))
	}
	if !strings.Contains(store.created[0].Body, "12") {
		t.Fatalf("expected days in stage in body, got %q", store.created[0].Body)
	}
}

type signalStore struct {
	created chan repository.CreateParams
}

func (f *signalStore) Create(_ context.Context, p repository.CreateParams) (repository.Notification, error) {
	f.created <- p
	return repository.Notification{ID: uuid.New(), UserID: p.UserID}, nil
}

func TestRegisterHandlers_DeliversPublishedEvents(t *testing.T) {
	store := &signalStore{created: make(chan repository.CreateParams, 1)}
	m := newTestModule(store)

	bus := events.NewInMemoryBus(logger.New("test"))
	m.RegisterHandlers(bus)

	rep := uuid.New()
	bus.Publish(context.Background(), events.LeadAssigned{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     uuid.New(),
		NewRep:     rep,
		AssignedBy: uuid.New(),
		Method:     "manual",
	})

	select {
	case p := <-store.created:
		if p.UserID != rep {
			t.Fatalf("expected notification for the new assignee")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected the subscribed handler to receive the published event")
	}
}

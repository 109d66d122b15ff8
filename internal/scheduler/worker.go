package scheduler

import (
	"context"
	"fmt"
	"time"

	"leadflow_backend/internal/events"
	leadsrepo "leadflow_backend/internal/leads/repository"
	pipelinedomain "leadflow_backend/internal/pipeline/domain"
	pipelinerepo "leadflow_backend/internal/pipeline/repository"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// rottingScanConcurrency caps the per-pipeline fan-out of a single scan.
const rottingScanConcurrency = 4

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	pipelines *pipelinerepo.Repository
	leads     *leadsrepo.Repository
	bus       events.Bus
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		pipelines: pipelinerepo.New(pool),
		leads:     leadsrepo.New(pool),
		bus:       bus,
		log:       log,
	}

	mux.HandleFunc(TaskRottingScan, w.handleRottingScan)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleRottingScan sweeps every pipeline for open opportunities that have
// outstayed their stage's rotting threshold, recording one audit entry per
// offender per scan.
func (w *Worker) handleRottingScan(ctx context.Context, task *asynq.Task) error {
	if _, err := ParseRottingScanPayload(task); err != nil {
		return err
	}

	now := time.Now().UTC()

	pipelineIDs, err := w.pipelines.ListPipelineIDs(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rottingScanConcurrency)
	for _, pipelineID := range pipelineIDs {
		pipelineID := pipelineID
		g.Go(func() error {
			return w.scanPipeline(gctx, pipelineID, now)
		})
	}
	return g.Wait()
}

func (w *Worker) scanPipeline(ctx context.Context, pipelineID uuid.UUID, now time.Time) error {
	rotting, err := w.pipelines.ListRottingOpportunities(ctx, pipelineID, now)
	if err != nil {
		return err
	}

	for _, opp := range rotting {
		daysInStage := pipelinedomain.DurationDays(opp.EnteredStageAt, now)

		leadID := opp.LeadID
		oppID := opp.OpportunityID
		err := w.leads.RecordActivity(ctx, leadsrepo.CreateActivityParams{
			LeadID:        &leadID,
			OpportunityID: &oppID,
			ActorID:       uuid.Nil,
			Action:        "opportunity.rotting",
			Title:         "Opportunity Rotting",
			Metadata: map[string]any{
				"stageId":     opp.StageID,
				"stageName":   opp.StageName,
				"daysInStage": daysInStage,
			},
		})
		if err != nil {
			w.log.Error("failed to record rotting activity", "error", err, "opportunityId", opp.OpportunityID)
			continue
		}

		w.bus.Publish(ctx, events.OpportunityRotting{
			BaseEvent:     events.NewBaseEvent(),
			OpportunityID: opp.OpportunityID,
			PipelineID:    opp.PipelineID,
			StageID:       opp.StageID,
			OwnerID:       opp.OwnerID,
			DaysInStage:   daysInStage,
		})
	}

	if len(rotting) > 0 {
		w.log.Info("rotting scan flagged opportunities", "pipelineId", pipelineID, "count", len(rotting))
	}
	return nil
}

package service

import (
	"context"

	"leadflow_backend/internal/pipeline/repository"
	"leadflow_backend/internal/pipeline/transport"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateStore defines the read interface needed by the aggregator.
type AggregateStore interface {
	AggregateByStage(ctx context.Context, pipelineID uuid.UUID, stageID *uuid.UUID) ([]repository.StageAggregate, error)
}

// StageCounter counts open leads per lifecycle stage; implemented by the
// leads repository.
type StageCounter interface {
	ActiveStageCounts(ctx context.Context) (map[string]int, error)
}

// Aggregator produces read-only forecast and funnel reports from plain
// snapshot reads. It never locks and never writes.
type Aggregator struct {
	store  AggregateStore
	stages StageCounter
	labels []string
	log    *logger.Logger
}

// NewAggregator builds a forecast aggregator. labels fixes the funnel
// report's row order.
func NewAggregator(store AggregateStore, stages StageCounter, labels []string, log *logger.Logger) *Aggregator {
	return &Aggregator{store: store, stages: stages, labels: labels, log: log}
}

// Forecast rolls up a pipeline's open opportunities per stage. Every stage
// of the pipeline appears in the result, zeros included, and per-stage
// weightedValue is totalValue scaled by the stage's close probability.
func (a *Aggregator) Forecast(ctx context.Context, pipelineID uuid.UUID, stageID *uuid.UUID) (transport.ForecastResponse, error) {
	aggregates, err := a.store.AggregateByStage(ctx, pipelineID, stageID)
	if err != nil {
		a.log.DatabaseError("forecast read", err)
		return transport.ForecastResponse{}, apperr.Unavailable("pipeline store unavailable", err)
	}

	resp := transport.ForecastResponse{
		PipelineID:    pipelineID,
		Stages:        make([]transport.StageForecast, 0, len(aggregates)),
		TotalValue:    decimal.Zero,
		WeightedValue: decimal.Zero,
		AvgValue:      decimal.Zero,
	}

	for _, agg := range aggregates {
		stageTotal := centsToDecimal(agg.TotalCents)
		stageWeighted := weightedValue(agg.TotalCents, agg.Probability)

		resp.Stages = append(resp.Stages, transport.StageForecast{
			StageID:       agg.StageID,
			Name:          agg.Name,
			Probability:   agg.Probability,
			Count:         agg.Count,
			TotalValue:    stageTotal,
			WeightedValue: stageWeighted,
		})

		resp.TotalOpportunities += agg.Count
		resp.TotalValue = resp.TotalValue.Add(stageTotal)
		resp.WeightedValue = resp.WeightedValue.Add(stageWeighted)
	}

	resp.AvgValue = average(resp.TotalValue, resp.TotalOpportunities)
	return resp, nil
}

// Funnel reports open-lead counts per lifecycle stage in the configured
// label order. Labels absent from the snapshot report zero; stages outside
// the label set are not reported.
func (a *Aggregator) Funnel(ctx context.Context) (transport.FunnelResponse, error) {
	counts, err := a.stages.ActiveStageCounts(ctx)
	if err != nil {
		a.log.DatabaseError("funnel read", err)
		return transport.FunnelResponse{}, apperr.Unavailable("lead store unavailable", err)
	}

	rows := make([]transport.FunnelRow, 0, len(a.labels))
	for _, label := range a.labels {
		rows = append(rows, transport.FunnelRow{Stage: label, Count: counts[label]})
	}
	return transport.FunnelResponse{Funnel: rows}, nil
}

func centsToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// weightedValue scales a monetary amount by a 0..100 close probability.
func weightedValue(cents int64, probability int) decimal.Decimal {
	return centsToDecimal(cents).
		Mul(decimal.NewFromInt(int64(probability))).
		Div(decimal.NewFromInt(100))
}

func average(total decimal.Decimal, count int) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(count))).Round(2)
}

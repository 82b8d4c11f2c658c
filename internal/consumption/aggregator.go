package consumption

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/consumption/entity"
	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/consumption/repo"
	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-engine-oil/pkg/utilities"
)

// AssumedRemainingOil is the oil volume the remaining-hours estimate divides
// by. It is a fixed placeholder, not a measured level.
// TODO: replace with the engine's last recorded oil quantity once records carry one.
const AssumedRemainingOil = 5.0

// ComputeRate averages oilAdded/flightHours over records[1:], skipping
// records without flight hours. records must be ordered oldest first.
// samples is 0 when fewer than two records exist or none qualified.
func ComputeRate(records []entity.OilConsumption) (avg float64, samples int) {
	if len(records) < 2 {
		return 0, 0
	}
	var sum float64
	for _, r := range records[1:] {
		if r.FlightHours > 0 {
			sum += r.OilAdded / r.FlightHours
			samples++
		}
	}
	if samples == 0 {
		return 0, 0
	}
	return sum / float64(samples), samples
}

// EstimateHoursRemaining returns AssumedRemainingOil/avg when the engine has
// a low-oil threshold configured and avg is positive, nil otherwise.
func EstimateHoursRemaining(lowOilThreshold *float64, avg float64) *float64 {
	if lowOilThreshold == nil || avg <= 0 {
		return nil
	}
	h := AssumedRemainingOil / avg
	return &h
}

// Outcome describes one recalculation pass.
type Outcome struct {
	RunID                   string   `json:"run_id"`
	EngineID                string   `json:"engine_id"`
	Records                 int      `json:"records"`
	Samples                 int      `json:"samples"`
	Updated                 bool     `json:"updated"`
	AverageRatePerHour      *float64 `json:"average_consumption_rate_per_hour,omitempty"`
	EstimatedHoursRemaining *float64 `json:"estimated_hours_remaining,omitempty"`
}

// Aggregator recomputes an engine's derived consumption fields from its
// live records.
type Aggregator struct {
	store  repo.RateStore
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewAggregator(logger *zap.SugaredLogger, store repo.RateStore) *Aggregator {
	return &Aggregator{store: store, logger: logger, now: time.Now}
}

// Recalculate refreshes the derived fields of engineID. A missing engine is
// skipped without error. Any other failure is an apperr.ErrAggregation.
func (a *Aggregator) Recalculate(ctx context.Context, engineID string) (*Outcome, error) {
	out := &Outcome{RunID: utilities.NewSnowflakeID(), EngineID: engineID}

	err := a.store.WithEngine(ctx, engineID, func(ctx context.Context, engine entity.EngineState, tx repo.RateTx) error {
		records, err := tx.ActiveRecords(ctx, engineID)
		if err != nil {
			return err
		}
		out.Records = len(records)

		avg, samples := ComputeRate(records)
		out.Samples = samples
		if samples == 0 {
			return nil
		}

		m := entity.DerivedMetrics{
			EngineID:                engineID,
			AverageRatePerHour:      avg,
			EstimatedHoursRemaining: EstimateHoursRemaining(engine.LowOilThresholdHours, avg),
			CalculatedAt:            a.now(),
		}
		if err := tx.SaveDerived(ctx, m); err != nil {
			return err
		}
		out.Updated = true
		out.AverageRatePerHour = &m.AverageRatePerHour
		out.EstimatedHoursRemaining = m.EstimatedHoursRemaining
		return nil
	})

	switch {
	case errors.Is(err, repo.ErrEngineNotFound):
		metrics.AggregationRunsTotal.WithLabelValues("skipped").Inc()
		a.logger.Debugw("consumption rate skipped, engine not found", "run_id", out.RunID, "engine_id", engineID)
		return out, nil
	case err != nil:
		metrics.AggregationRunsTotal.WithLabelValues("failed").Inc()
		a.logger.Errorw("consumption rate recalculation failed", "run_id", out.RunID, "engine_id", engineID, "err", err)
		return nil, apperr.Aggregation(err, "failed to recalculate oil consumption rate for engine %s", engineID)
	case !out.Updated:
		metrics.AggregationRunsTotal.WithLabelValues("skipped").Inc()
		a.logger.Debugw("consumption rate unchanged, not enough data",
			"run_id", out.RunID, "engine_id", engineID, "records", out.Records)
		return out, nil
	}

	metrics.AggregationRunsTotal.WithLabelValues("updated").Inc()
	a.logger.Infow("consumption rate recalculated",
		"run_id", out.RunID,
		"engine_id", engineID,
		"records", out.Records,
		"samples", out.Samples,
		"average_rate", *out.AverageRatePerHour,
	)
	return out, nil
}

package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/consumption/entity"
	"github.com/ovaphlow/pitchfork/service-engine-oil/pkg/database"
)

// ErrEngineNotFound is returned by WithEngine when the engine is missing or
// soft-deleted.
var ErrEngineNotFound = errors.New("engine not found")

// RateTx is the transactional view a recalculation works through.
type RateTx interface {
	ActiveRecords(ctx context.Context, engineID string) ([]entity.OilConsumption, error)
	SaveDerived(ctx context.Context, m entity.DerivedMetrics) error
}

// RateStore runs fn with the engine row locked until fn returns.
type RateStore interface {
	WithEngine(ctx context.Context, engineID string, fn func(ctx context.Context, engine entity.EngineState, tx RateTx) error) error
}

// PostgresRateStore serializes recalculations per engine with SELECT ... FOR
// UPDATE, so the last pass to commit has seen every committed record.
type PostgresRateStore struct {
	db *sqlx.DB
}

func NewPostgresRateStore(db *sqlx.DB) *PostgresRateStore { return &PostgresRateStore{db: db} }

func (s *PostgresRateStore) WithEngine(ctx context.Context, engineID string, fn func(ctx context.Context, engine entity.EngineState, tx RateTx) error) error {
	return database.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sqlx.Tx) error {
		var st entity.EngineState
		const q = `SELECT id, low_oil_threshold_hours FROM engines WHERE id=$1 AND deleted_at IS NULL FOR UPDATE`
		if err := tx.GetContext(ctx, &st, q, engineID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrEngineNotFound
			}
			return fmt.Errorf("lock engine: %w", err)
		}
		return fn(ctx, st, rateTx{tx: tx})
	})
}

type rateTx struct {
	tx *sqlx.Tx
}

// ActiveRecords returns the engine's live records oldest first; records on
// the same day keep insertion order.
func (t rateTx) ActiveRecords(ctx context.Context, engineID string) ([]entity.OilConsumption, error) {
	out := []entity.OilConsumption{}
	q := selectColumns + ` WHERE engine_id=$1 AND deleted_at IS NULL ORDER BY date ASC, created_at ASC`
	if err := t.tx.SelectContext(ctx, &out, q, engineID); err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	return out, nil
}

func (t rateTx) SaveDerived(ctx context.Context, m entity.DerivedMetrics) error {
	const q = `UPDATE engines SET average_consumption_rate_per_hour=$2, last_calculation_date=$3,
		estimated_hours_remaining=COALESCE($4, estimated_hours_remaining), updated_at=NOW()
		WHERE id=$1`
	if _, err := t.tx.ExecContext(ctx, q, m.EngineID, m.AverageRatePerHour, m.CalculatedAt, m.EstimatedHoursRemaining); err != nil {
		return fmt.Errorf("save derived metrics: %w", err)
	}
	return nil
}

package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/engine/entity"
)

// ErrNotFound is returned when no live engine row matches.
var ErrNotFound = errors.New("engine not found")

const columns = `id, serial_number, position, model, active,
	average_consumption_rate_per_hour, estimated_hours_remaining, low_oil_threshold_hours, last_calculation_date,
	aircraft_id, created_at, updated_at, deleted_at`

const selectColumns = `SELECT ` + columns + ` FROM engines`

// EngineRepo reads and writes engines. Soft-deleted rows are invisible to
// every method.
type EngineRepo struct {
	db *sqlx.DB
}

func NewEngineRepo(db *sqlx.DB) *EngineRepo { return &EngineRepo{db: db} }

func (r *EngineRepo) List(ctx context.Context) ([]entity.Engine, error) {
	out := []entity.Engine{}
	q := selectColumns + ` WHERE deleted_at IS NULL ORDER BY aircraft_id, position`
	if err := r.db.SelectContext(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByAircraft returns the live engines of one aircraft by position.
func (r *EngineRepo) ListByAircraft(ctx context.Context, aircraftID string) ([]entity.Engine, error) {
	out := []entity.Engine{}
	q := selectColumns + ` WHERE aircraft_id=$1 AND deleted_at IS NULL ORDER BY position`
	if err := r.db.SelectContext(ctx, &out, q, aircraftID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *EngineRepo) Get(ctx context.Context, id string) (*entity.Engine, error) {
	var e entity.Engine
	if err := r.db.GetContext(ctx, &e, selectColumns+` WHERE id=$1 AND deleted_at IS NULL`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// PositionTaken reports whether a live engine other than excludeID occupies
// position on the aircraft.
func (r *EngineRepo) PositionTaken(ctx context.Context, aircraftID string, position int, excludeID string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM engines
		WHERE aircraft_id=$1 AND position=$2 AND deleted_at IS NULL AND ($3 = '' OR id::text <> $3))`
	var taken bool
	if err := r.db.GetContext(ctx, &taken, q, aircraftID, position, excludeID); err != nil {
		return false, err
	}
	return taken, nil
}

func (r *EngineRepo) Create(ctx context.Context, e *entity.Engine) error {
	const q = `INSERT INTO engines (id, serial_number, position, model, active, low_oil_threshold_hours, aircraft_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING created_at, updated_at`
	return r.db.QueryRowxContext(ctx, q, e.ID, e.SerialNumber, e.Position, e.Model, e.Active, e.LowOilThresholdHours, e.AircraftID).
		Scan(&e.CreatedAt, &e.UpdatedAt)
}

// Update writes only the columns set in p and returns the stored row.
// Derived columns the client did not send keep whatever the last
// recalculation wrote.
func (r *EngineRepo) Update(ctx context.Context, id string, p entity.PatchEngine) (*entity.Engine, error) {
	q, args := updateQuery(id, p)
	var e entity.Engine
	if err := r.db.QueryRowxContext(ctx, q, args...).StructScan(&e); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func updateQuery(id string, p entity.PatchEngine) (string, []any) {
	args := []any{id}
	var sets []string
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	if p.SerialNumber != nil {
		set("serial_number", *p.SerialNumber)
	}
	if p.Position != nil {
		set("position", *p.Position)
	}
	if p.Model != nil {
		set("model", *p.Model)
	}
	if p.Active != nil {
		set("active", *p.Active)
	}
	if p.LowOilThresholdHours != nil {
		set("low_oil_threshold_hours", *p.LowOilThresholdHours)
	}
	if p.AverageConsumptionRatePerHour != nil {
		set("average_consumption_rate_per_hour", *p.AverageConsumptionRatePerHour)
	}
	if p.EstimatedHoursRemaining != nil {
		set("estimated_hours_remaining", *p.EstimatedHoursRemaining)
	}
	if p.AircraftID != nil {
		set("aircraft_id", *p.AircraftID)
	}
	sets = append(sets, "updated_at=NOW()")
	q := `UPDATE engines SET ` + strings.Join(sets, ", ") +
		` WHERE id=$1 AND deleted_at IS NULL RETURNING ` + columns
	return q, args
}

// SoftDelete stamps deleted_at on a live engine.
func (r *EngineRepo) SoftDelete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE engines SET deleted_at=NOW(), updated_at=NOW() WHERE id=$1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

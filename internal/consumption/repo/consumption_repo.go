package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/consumption/entity"
)

// ErrNotFound is returned when no live consumption record matches.
var ErrNotFound = errors.New("oil consumption not found")

const selectColumns = `SELECT id, date, flight_hours, oil_added, remarks, engine_id, created_at, updated_at, deleted_at
	FROM oil_consumptions`

// ConsumptionRepo reads and writes oil consumption records. Soft-deleted
// rows are never returned.
type ConsumptionRepo struct {
	db *sqlx.DB
}

func NewConsumptionRepo(db *sqlx.DB) *ConsumptionRepo { return &ConsumptionRepo{db: db} }

func (r *ConsumptionRepo) List(ctx context.Context) ([]entity.OilConsumption, error) {
	out := []entity.OilConsumption{}
	q := selectColumns + ` WHERE deleted_at IS NULL ORDER BY date DESC, created_at DESC`
	if err := r.db.SelectContext(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByEngine returns an engine's live records, newest first.
func (r *ConsumptionRepo) ListByEngine(ctx context.Context, engineID string) ([]entity.OilConsumption, error) {
	out := []entity.OilConsumption{}
	q := selectColumns + ` WHERE engine_id=$1 AND deleted_at IS NULL ORDER BY date DESC, created_at DESC`
	if err := r.db.SelectContext(ctx, &out, q, engineID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ConsumptionRepo) Get(ctx context.Context, id string) (*entity.OilConsumption, error) {
	var c entity.OilConsumption
	if err := r.db.GetContext(ctx, &c, selectColumns+` WHERE id=$1 AND deleted_at IS NULL`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *ConsumptionRepo) Create(ctx context.Context, c *entity.OilConsumption) error {
	const q = `INSERT INTO oil_consumptions (id, date, flight_hours, oil_added, remarks, engine_id)
		VALUES ($1,$2,$3,$4,$5,$6) RETURNING created_at, updated_at`
	return r.db.QueryRowxContext(ctx, q, c.ID, c.Date, c.FlightHours, c.OilAdded, c.Remarks, c.EngineID).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *ConsumptionRepo) Update(ctx context.Context, c *entity.OilConsumption) error {
	const q = `UPDATE oil_consumptions SET date=$2, flight_hours=$3, oil_added=$4, remarks=$5, engine_id=$6, updated_at=NOW()
		WHERE id=$1 AND deleted_at IS NULL RETURNING updated_at`
	err := r.db.QueryRowxContext(ctx, q, c.ID, c.Date, c.FlightHours, c.OilAdded, c.Remarks, c.EngineID).
		Scan(&c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *ConsumptionRepo) SoftDelete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE oil_consumptions SET deleted_at=NOW(), updated_at=NOW() WHERE id=$1 AND deleted_at IS NULL`, id)
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

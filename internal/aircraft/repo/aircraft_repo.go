package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/aircraft/entity"
)

// ErrNotFound is returned when no aircraft row matches.
var ErrNotFound = errors.New("aircraft not found")

const selectColumns = `SELECT id, registration, aircraft_type, engine_type, engine_qty, active, created_at, updated_at FROM aircrafts`

// AircraftRepo provides data access for the aircrafts table using sqlx.
type AircraftRepo struct {
	db *sqlx.DB
}

func NewAircraftRepo(db *sqlx.DB) *AircraftRepo { return &AircraftRepo{db: db} }

// List returns all aircraft ordered by registration.
func (r *AircraftRepo) List(ctx context.Context) ([]entity.Aircraft, error) {
	out := []entity.Aircraft{}
	if err := r.db.SelectContext(ctx, &out, selectColumns+` ORDER BY registration`); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one aircraft or ErrNotFound.
func (r *AircraftRepo) Get(ctx context.Context, id string) (*entity.Aircraft, error) {
	var a entity.Aircraft
	if err := r.db.GetContext(ctx, &a, selectColumns+` WHERE id=$1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// RegistrationTaken reports whether another aircraft already uses
// registration. excludeID may be empty.
func (r *AircraftRepo) RegistrationTaken(ctx context.Context, registration, excludeID string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM aircrafts WHERE registration=$1 AND ($2 = '' OR id::text <> $2))`
	var taken bool
	if err := r.db.GetContext(ctx, &taken, q, registration, excludeID); err != nil {
		return false, err
	}
	return taken, nil
}

// Create inserts a and fills its timestamps.
func (r *AircraftRepo) Create(ctx context.Context, a *entity.Aircraft) error {
	const q = `INSERT INTO aircrafts (id, registration, aircraft_type, engine_type, engine_qty, active)
		VALUES ($1,$2,$3,$4,$5,$6) RETURNING created_at, updated_at`
	return r.db.QueryRowxContext(ctx, q, a.ID, a.Registration, a.AircraftType, a.EngineType, a.EngineQty, a.Active).
		Scan(&a.CreatedAt, &a.UpdatedAt)
}

// Update writes every mutable column of a.
func (r *AircraftRepo) Update(ctx context.Context, a *entity.Aircraft) error {
	const q = `UPDATE aircrafts SET registration=$2, aircraft_type=$3, engine_type=$4, engine_qty=$5, active=$6, updated_at=NOW()
		WHERE id=$1 RETURNING updated_at`
	err := r.db.QueryRowxContext(ctx, q, a.ID, a.Registration, a.AircraftType, a.EngineType, a.EngineQty, a.Active).
		Scan(&a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Delete removes the aircraft; engines and records go with it by cascade.
func (r *AircraftRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM aircrafts WHERE id=$1`, id)
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

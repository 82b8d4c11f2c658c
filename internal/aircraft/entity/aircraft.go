package entity

import "time"

// Aircraft is a registered airframe. Deleting one removes its engines and
// their consumption records.
type Aircraft struct {
	ID           string    `db:"id" json:"id"`
	Registration string    `db:"registration" json:"registration"`
	AircraftType string    `db:"aircraft_type" json:"aircraft_type"`
	EngineType   string    `db:"engine_type" json:"engine_type"`
	EngineQty    int       `db:"engine_qty" json:"engine_qty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CreateAircraft is the body of POST /api/aircraft. Active defaults to true.
type CreateAircraft struct {
	Registration string `json:"registration"`
	AircraftType string `json:"aircraft_type"`
	EngineType   string `json:"engine_type"`
	EngineQty    int    `json:"engine_qty"`
	Active       *bool  `json:"active"`
}

// PatchAircraft is the body of PATCH /api/aircraft/{id}; nil fields are left
// unchanged.
type PatchAircraft struct {
	Registration *string `json:"registration"`
	AircraftType *string `json:"aircraft_type"`
	EngineType   *string `json:"engine_type"`
	EngineQty    *int    `json:"engine_qty"`
	Active       *bool   `json:"active"`
}

// Apply copies the set fields of p onto a.
func (p PatchAircraft) Apply(a *Aircraft) {
	if p.Registration != nil {
		a.Registration = *p.Registration
	}
	if p.AircraftType != nil {
		a.AircraftType = *p.AircraftType
	}
	if p.EngineType != nil {
		a.EngineType = *p.EngineType
	}
	if p.EngineQty != nil {
		a.EngineQty = *p.EngineQty
	}
	if p.Active != nil {
		a.Active = *p.Active
	}
}

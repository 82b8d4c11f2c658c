package entity

import "time"

// Engine is one engine installed on an aircraft. The consumption fields are
// derived from its oil records and refreshed after every record change.
type Engine struct {
	ID                            string     `db:"id" json:"id"`
	SerialNumber                  string     `db:"serial_number" json:"serial_number"`
	Position                      int        `db:"position" json:"position"`
	Model                         string     `db:"model" json:"model"`
	Active                        bool       `db:"active" json:"active"`
	AverageConsumptionRatePerHour *float64   `db:"average_consumption_rate_per_hour" json:"average_consumption_rate_per_hour"`
	EstimatedHoursRemaining       *float64   `db:"estimated_hours_remaining" json:"estimated_hours_remaining"`
	LowOilThresholdHours          *float64   `db:"low_oil_threshold_hours" json:"low_oil_threshold_hours"`
	LastCalculationDate           *time.Time `db:"last_calculation_date" json:"last_calculation_date"`
	AircraftID                    string     `db:"aircraft_id" json:"aircraft_id"`
	CreatedAt                     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt                     time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt                     *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

type CreateEngine struct {
	SerialNumber         string   `json:"serial_number"`
	Position             int      `json:"position"`
	Model                string   `json:"model"`
	Active               *bool    `json:"active"`
	LowOilThresholdHours *float64 `json:"low_oil_threshold_hours"`
	AircraftID           string   `json:"aircraft_id"`
}

// PatchEngine is the body of PATCH /api/engine/{id}. Writes to the derived
// fields are accepted and overwritten by the next recalculation.
type PatchEngine struct {
	SerialNumber                  *string  `json:"serial_number"`
	Position                      *int     `json:"position"`
	Model                         *string  `json:"model"`
	Active                        *bool    `json:"active"`
	LowOilThresholdHours          *float64 `json:"low_oil_threshold_hours"`
	AverageConsumptionRatePerHour *float64 `json:"average_consumption_rate_per_hour"`
	EstimatedHoursRemaining       *float64 `json:"estimated_hours_remaining"`
	AircraftID                    *string  `json:"aircraft_id"`
}

func (p PatchEngine) Apply(e *Engine) {
	if p.SerialNumber != nil {
		e.SerialNumber = *p.SerialNumber
	}
	if p.Position != nil {
		e.Position = *p.Position
	}
	if p.Model != nil {
		e.Model = *p.Model
	}
	if p.Active != nil {
		e.Active = *p.Active
	}
	if p.LowOilThresholdHours != nil {
		e.LowOilThresholdHours = p.LowOilThresholdHours
	}
	if p.AverageConsumptionRatePerHour != nil {
		e.AverageConsumptionRatePerHour = p.AverageConsumptionRatePerHour
	}
	if p.EstimatedHoursRemaining != nil {
		e.EstimatedHoursRemaining = p.EstimatedHoursRemaining
	}
	if p.AircraftID != nil {
		e.AircraftID = *p.AircraftID
	}
}

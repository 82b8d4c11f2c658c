package entity

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day stored in a DATE column and encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

// ParseDate parses YYYY-MM-DD, also accepting an RFC 3339 timestamp whose
// date part is kept.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}, nil
}

func (d Date) String() string { return d.Format(dateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		d.Time = time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)
		return nil
	case string:
		parsed, err := ParseDate(v)
		*d = parsed
		return err
	case []byte:
		parsed, err := ParseDate(string(v))
		*d = parsed
		return err
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// OilConsumption records oil added to an engine after a number of flight
// hours.
type OilConsumption struct {
	ID          string     `db:"id" json:"id"`
	Date        Date       `db:"date" json:"date"`
	FlightHours float64    `db:"flight_hours" json:"flight_hours"`
	OilAdded    float64    `db:"oil_added" json:"oil_added"`
	Remarks     *string    `db:"remarks" json:"remarks"`
	EngineID    string     `db:"engine_id" json:"engine_id"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// CreateConsumption is the body of POST /api/oil-consumptions. Pointer
// fields distinguish an explicit zero from an omitted value.
type CreateConsumption struct {
	Date        *Date    `json:"date"`
	FlightHours *float64 `json:"flight_hours"`
	OilAdded    *float64 `json:"oil_added"`
	Remarks     *string  `json:"remarks"`
	EngineID    string   `json:"engine_id"`
}

type PatchConsumption struct {
	Date        *Date    `json:"date"`
	FlightHours *float64 `json:"flight_hours"`
	OilAdded    *float64 `json:"oil_added"`
	Remarks     *string  `json:"remarks"`
	EngineID    *string  `json:"engine_id"`
}

func (p PatchConsumption) Apply(c *OilConsumption) {
	if p.Date != nil {
		c.Date = *p.Date
	}
	if p.FlightHours != nil {
		c.FlightHours = *p.FlightHours
	}
	if p.OilAdded != nil {
		c.OilAdded = *p.OilAdded
	}
	if p.Remarks != nil {
		c.Remarks = p.Remarks
	}
	if p.EngineID != nil {
		c.EngineID = *p.EngineID
	}
}

// EngineState is the slice of an engine row the rate calculation reads.
type EngineState struct {
	ID                   string   `db:"id"`
	LowOilThresholdHours *float64 `db:"low_oil_threshold_hours"`
}

// DerivedMetrics is what one recalculation writes back to an engine. A nil
// EstimatedHoursRemaining leaves the stored value untouched.
type DerivedMetrics struct {
	EngineID                string
	AverageRatePerHour      float64
	EstimatedHoursRemaining *float64
	CalculatedAt            time.Time
}

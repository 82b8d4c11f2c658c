package consumption

import (
	"context"
	"errors"

	"go.uber.org/zap"

	aircraftentity "github.com/ovaphlow/pitchfork/service-engine-oil/internal/aircraft/entity"
	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/consumption/entity"
	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/consumption/repo"
	engineentity "github.com/ovaphlow/pitchfork/service-engine-oil/internal/engine/entity"
	enginerepo "github.com/ovaphlow/pitchfork/service-engine-oil/internal/engine/repo"
	"github.com/ovaphlow/pitchfork/service-engine-oil/pkg/utilities"
)

// RecordStore persists consumption records.
type RecordStore interface {
	List(ctx context.Context) ([]entity.OilConsumption, error)
	ListByEngine(ctx context.Context, engineID string) ([]entity.OilConsumption, error)
	Get(ctx context.Context, id string) (*entity.OilConsumption, error)
	Create(ctx context.Context, c *entity.OilConsumption) error
	Update(ctx context.Context, c *entity.OilConsumption) error
	SoftDelete(ctx context.Context, id string) error
}

// EngineReader loads live engines, returning enginerepo.ErrNotFound for a
// missing one.
type EngineReader interface {
	Get(ctx context.Context, id string) (*engineentity.Engine, error)
}

type AircraftReader interface {
	Get(ctx context.Context, id string) (*aircraftentity.Aircraft, error)
}

// Recalculator refreshes an engine's derived consumption fields.
type Recalculator interface {
	Recalculate(ctx context.Context, engineID string) (*Outcome, error)
}

// EngineView is an engine with its aircraft embedded.
type EngineView struct {
	engineentity.Engine
	Aircraft *aircraftentity.Aircraft `json:"aircraft,omitempty"`
}

// View is a consumption record with its engine and aircraft embedded.
type View struct {
	entity.OilConsumption
	Engine *EngineView `json:"engine,omitempty"`
}

// Service implements the oil consumption use cases. Every mutation is
// followed by a synchronous recalculation of the owning engine.
type Service struct {
	records    RecordStore
	engines    EngineReader
	aircraft   AircraftReader
	aggregator Recalculator
	logger     *zap.SugaredLogger
}

func NewService(logger *zap.SugaredLogger, records RecordStore, engines EngineReader, aircraft AircraftReader, aggregator Recalculator) *Service {
	return &Service{
		records:    records,
		engines:    engines,
		aircraft:   aircraft,
		aggregator: aggregator,
		logger:     logger,
	}
}

func (s *Service) List(ctx context.Context) ([]View, error) {
	records, err := s.records.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, records)
}

func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	c, err := s.records.Get(ctx, id)
	if err != nil {
		return nil, s.mapRecordErr(err, id)
	}
	return s.view(ctx, c, map[string]*EngineView{})
}

// ListByEngine returns the engine's live records newest first.
func (s *Service) ListByEngine(ctx context.Context, engineID string) ([]View, error) {
	if _, err := s.engines.Get(ctx, engineID); err != nil {
		return nil, s.mapEngineErr(err, engineID)
	}
	records, err := s.records.ListByEngine(ctx, engineID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, records)
}

// Create validates in, stores the record and recalculates its engine. When
// only the recalculation fails the saved record is returned together with
// an apperr.ErrAggregation error.
func (s *Service) Create(ctx context.Context, in entity.CreateConsumption) (*entity.OilConsumption, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}
	if _, err := s.engines.Get(ctx, in.EngineID); err != nil {
		return nil, s.mapEngineErr(err, in.EngineID)
	}

	c := &entity.OilConsumption{
		ID:          utilities.NewUUID(),
		Date:        *in.Date,
		FlightHours: *in.FlightHours,
		OilAdded:    *in.OilAdded,
		Remarks:     in.Remarks,
		EngineID:    in.EngineID,
	}
	if err := s.records.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Infow("oil consumption created", "id", c.ID, "engine_id", c.EngineID)

	if err := s.recalculate(ctx, c.ID, c.EngineID); err != nil {
		return c, err
	}
	return c, nil
}

// Update applies in and recalculates the affected engines: the previous
// and the new one when the record moved.
func (s *Service) Update(ctx context.Context, id string, in entity.PatchConsumption) (*View, error) {
	if err := validatePatch(in); err != nil {
		return nil, err
	}
	c, err := s.records.Get(ctx, id)
	if err != nil {
		return nil, s.mapRecordErr(err, id)
	}
	previousEngine := c.EngineID
	if in.EngineID != nil && *in.EngineID != previousEngine {
		if _, err := s.engines.Get(ctx, *in.EngineID); err != nil {
			return nil, s.mapEngineErr(err, *in.EngineID)
		}
	}

	in.Apply(c)
	if err := s.records.Update(ctx, c); err != nil {
		return nil, s.mapRecordErr(err, id)
	}
	s.logger.Infow("oil consumption updated", "id", id, "engine_id", c.EngineID)

	var aggErr error
	if previousEngine != c.EngineID {
		aggErr = s.recalculate(ctx, id, previousEngine)
	}
	if err := s.recalculate(ctx, id, c.EngineID); err != nil && aggErr == nil {
		aggErr = err
	}

	v, err := s.view(ctx, c, map[string]*EngineView{})
	if err != nil {
		return nil, err
	}
	return v, aggErr
}

// Delete soft-deletes the record and recalculates its engine without it.
func (s *Service) Delete(ctx context.Context, id string) error {
	c, err := s.records.Get(ctx, id)
	if err != nil {
		return s.mapRecordErr(err, id)
	}
	if err := s.records.SoftDelete(ctx, id); err != nil {
		return s.mapRecordErr(err, id)
	}
	s.logger.Infow("oil consumption deleted", "id", id, "engine_id", c.EngineID)
	return s.recalculate(ctx, id, c.EngineID)
}

func (s *Service) recalculate(ctx context.Context, recordID, engineID string) error {
	if _, err := s.aggregator.Recalculate(ctx, engineID); err != nil {
		return apperr.Aggregation(err, "oil consumption %s was saved but the engine consumption rate could not be recalculated", recordID)
	}
	return nil
}

func (s *Service) views(ctx context.Context, records []entity.OilConsumption) ([]View, error) {
	cache := map[string]*EngineView{}
	out := make([]View, 0, len(records))
	for i := range records {
		v, err := s.view(ctx, &records[i], cache)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func (s *Service) view(ctx context.Context, c *entity.OilConsumption, cache map[string]*EngineView) (*View, error) {
	v := &View{OilConsumption: *c}
	if ev, ok := cache[c.EngineID]; ok {
		v.Engine = ev
		return v, nil
	}
	e, err := s.engines.Get(ctx, c.EngineID)
	switch {
	case errors.Is(err, enginerepo.ErrNotFound):
		cache[c.EngineID] = nil
		return v, nil
	case err != nil:
		return nil, err
	}
	ev := &EngineView{Engine: *e}
	if a, err := s.aircraft.Get(ctx, e.AircraftID); err == nil {
		ev.Aircraft = a
	}
	cache[c.EngineID] = ev
	v.Engine = ev
	return v, nil
}

func (s *Service) mapRecordErr(err error, id string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.NotFound("oil consumption %s not found", id)
	}
	return err
}

func (s *Service) mapEngineErr(err error, id string) error {
	if errors.Is(err, enginerepo.ErrNotFound) {
		return apperr.NotFound("engine %s not found", id)
	}
	return err
}

func validateCreate(in entity.CreateConsumption) error {
	switch {
	case in.Date == nil || in.Date.IsZero():
		return apperr.Invalid("date is required")
	case in.FlightHours == nil:
		return apperr.Invalid("flight_hours is required")
	case in.OilAdded == nil:
		return apperr.Invalid("oil_added is required")
	case in.EngineID == "":
		return apperr.Invalid("engine_id is required")
	case !utilities.IsUUID(in.EngineID):
		return apperr.Invalid("engine_id must be a UUID")
	case *in.FlightHours < 0:
		return apperr.Invalid("flight_hours must be >= 0")
	case *in.OilAdded < 0:
		return apperr.Invalid("oil_added must be >= 0")
	}
	return nil
}

func validatePatch(in entity.PatchConsumption) error {
	switch {
	case in.FlightHours != nil && *in.FlightHours < 0:
		return apperr.Invalid("flight_hours must be >= 0")
	case in.OilAdded != nil && *in.OilAdded < 0:
		return apperr.Invalid("oil_added must be >= 0")
	case in.EngineID != nil && !utilities.IsUUID(*in.EngineID):
		return apperr.Invalid("engine_id must be a UUID")
	case in.Date != nil && in.Date.IsZero():
		return apperr.Invalid("date must not be empty")
	}
	return nil
}

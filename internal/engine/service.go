package engine

import (
	"context"
	"errors"

	"go.uber.org/zap"

	aircraftentity "github.com/ovaphlow/pitchfork/service-engine-oil/internal/aircraft/entity"
	aircraftrepo "github.com/ovaphlow/pitchfork/service-engine-oil/internal/aircraft/repo"
	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/apperr"
	consumptionentity "github.com/ovaphlow/pitchfork/service-engine-oil/internal/consumption/entity"
	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/engine/entity"
	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/engine/repo"
	"github.com/ovaphlow/pitchfork/service-engine-oil/pkg/database"
	"github.com/ovaphlow/pitchfork/service-engine-oil/pkg/utilities"
)

// EngineStore persists engines.
type EngineStore interface {
	List(ctx context.Context) ([]entity.Engine, error)
	ListByAircraft(ctx context.Context, aircraftID string) ([]entity.Engine, error)
	Get(ctx context.Context, id string) (*entity.Engine, error)
	PositionTaken(ctx context.Context, aircraftID string, position int, excludeID string) (bool, error)
	Create(ctx context.Context, e *entity.Engine) error
	Update(ctx context.Context, id string, p entity.PatchEngine) (*entity.Engine, error)
	SoftDelete(ctx context.Context, id string) error
}

// AircraftLookup returns aircraftrepo.ErrNotFound for a missing aircraft.
type AircraftLookup interface {
	Get(ctx context.Context, id string) (*aircraftentity.Aircraft, error)
}

// ConsumptionLister lists an engine's live records newest first.
type ConsumptionLister interface {
	ListByEngine(ctx context.Context, engineID string) ([]consumptionentity.OilConsumption, error)
}

// View is an engine with its aircraft and live consumption records.
type View struct {
	entity.Engine
	Aircraft        *aircraftentity.Aircraft           `json:"aircraft,omitempty"`
	OilConsumptions []consumptionentity.OilConsumption `json:"oil_consumptions"`
}

type Service struct {
	engines     EngineStore
	aircraft    AircraftLookup
	consumption ConsumptionLister
	logger      *zap.SugaredLogger
}

func NewService(logger *zap.SugaredLogger, engines EngineStore, aircraft AircraftLookup, consumption ConsumptionLister) *Service {
	return &Service{engines: engines, aircraft: aircraft, consumption: consumption, logger: logger}
}

func (s *Service) List(ctx context.Context) ([]View, error) {
	engines, err := s.engines.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, engines)
}

func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	e, err := s.engines.Get(ctx, id)
	if err != nil {
		return nil, mapEngineErr(err, id)
	}
	return s.view(ctx, e, map[string]*aircraftentity.Aircraft{})
}

// ListByAircraft returns the live engines of an existing aircraft.
func (s *Service) ListByAircraft(ctx context.Context, aircraftID string) ([]View, error) {
	if _, err := s.aircraft.Get(ctx, aircraftID); err != nil {
		return nil, mapAircraftErr(err, aircraftID)
	}
	engines, err := s.engines.ListByAircraft(ctx, aircraftID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, engines)
}

func (s *Service) Create(ctx context.Context, in entity.CreateEngine) (*entity.Engine, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}
	if _, err := s.aircraft.Get(ctx, in.AircraftID); err != nil {
		return nil, mapAircraftErr(err, in.AircraftID)
	}
	if err := s.checkPosition(ctx, in.AircraftID, in.Position, ""); err != nil {
		return nil, err
	}

	e := &entity.Engine{
		ID:                   utilities.NewUUID(),
		SerialNumber:         in.SerialNumber,
		Position:             in.Position,
		Model:                in.Model,
		Active:               true,
		LowOilThresholdHours: in.LowOilThresholdHours,
		AircraftID:           in.AircraftID,
	}
	if in.Active != nil {
		e.Active = *in.Active
	}
	if err := s.engines.Create(ctx, e); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, positionTaken(e.AircraftID, e.Position)
		}
		return nil, err
	}
	s.logger.Infow("engine created", "id", e.ID, "aircraft_id", e.AircraftID, "position", e.Position)
	return e, nil
}

func (s *Service) Update(ctx context.Context, id string, in entity.PatchEngine) (*View, error) {
	if err := validatePatch(in); err != nil {
		return nil, err
	}
	e, err := s.engines.Get(ctx, id)
	if err != nil {
		return nil, mapEngineErr(err, id)
	}

	// target placement after the patch, for the uniqueness checks
	target := *e
	in.Apply(&target)
	movesAircraft := target.AircraftID != e.AircraftID
	movesPosition := target.Position != e.Position

	if movesAircraft {
		if _, err := s.aircraft.Get(ctx, target.AircraftID); err != nil {
			return nil, mapAircraftErr(err, target.AircraftID)
		}
	}
	if movesAircraft || movesPosition {
		if err := s.checkPosition(ctx, target.AircraftID, target.Position, id); err != nil {
			return nil, err
		}
	}

	updated, err := s.engines.Update(ctx, id, in)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, positionTaken(target.AircraftID, target.Position)
		}
		return nil, mapEngineErr(err, id)
	}
	s.logger.Infow("engine updated", "id", id)
	return s.view(ctx, updated, map[string]*aircraftentity.Aircraft{})
}

// Delete soft-deletes the engine. Its consumption records are kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.engines.SoftDelete(ctx, id); err != nil {
		return mapEngineErr(err, id)
	}
	s.logger.Infow("engine deleted", "id", id)
	return nil
}

func (s *Service) checkPosition(ctx context.Context, aircraftID string, position int, excludeID string) error {
	taken, err := s.engines.PositionTaken(ctx, aircraftID, position, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return positionTaken(aircraftID, position)
	}
	return nil
}

func (s *Service) views(ctx context.Context, engines []entity.Engine) ([]View, error) {
	cache := map[string]*aircraftentity.Aircraft{}
	out := make([]View, 0, len(engines))
	for i := range engines {
		v, err := s.view(ctx, &engines[i], cache)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func (s *Service) view(ctx context.Context, e *entity.Engine, cache map[string]*aircraftentity.Aircraft) (*View, error) {
	v := &View{Engine: *e}
	a, ok := cache[e.AircraftID]
	if !ok {
		var err error
		a, err = s.aircraft.Get(ctx, e.AircraftID)
		if err != nil && !errors.Is(err, aircraftrepo.ErrNotFound) {
			return nil, err
		}
		cache[e.AircraftID] = a
	}
	v.Aircraft = a

	records, err := s.consumption.ListByEngine(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []consumptionentity.OilConsumption{}
	}
	v.OilConsumptions = records
	return v, nil
}

func positionTaken(aircraftID string, position int) error {
	return apperr.Duplicate("position %d is already occupied on aircraft %s", position, aircraftID)
}

func mapEngineErr(err error, id string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.NotFound("engine %s not found", id)
	}
	return err
}

func mapAircraftErr(err error, id string) error {
	if errors.Is(err, aircraftrepo.ErrNotFound) {
		return apperr.NotFound("aircraft %s not found", id)
	}
	return err
}

func validateCreate(in entity.CreateEngine) error {
	switch {
	case in.SerialNumber == "":
		return apperr.Invalid("serial_number is required")
	case in.Model == "":
		return apperr.Invalid("model is required")
	case in.AircraftID == "":
		return apperr.Invalid("aircraft_id is required")
	case !utilities.IsUUID(in.AircraftID):
		return apperr.Invalid("aircraft_id must be a UUID")
	case in.Position < 1:
		return apperr.Invalid("position must be a positive integer")
	case in.LowOilThresholdHours != nil && *in.LowOilThresholdHours < 0:
		return apperr.Invalid("low_oil_threshold_hours must be >= 0")
	}
	return nil
}

func validatePatch(in entity.PatchEngine) error {
	switch {
	case in.Position != nil && *in.Position < 1:
		return apperr.Invalid("position must be a positive integer")
	case in.SerialNumber != nil && *in.SerialNumber == "":
		return apperr.Invalid("serial_number must not be empty")
	case in.Model != nil && *in.Model == "":
		return apperr.Invalid("model must not be empty")
	case in.AircraftID != nil && !utilities.IsUUID(*in.AircraftID):
		return apperr.Invalid("aircraft_id must be a UUID")
	case in.LowOilThresholdHours != nil && *in.LowOilThresholdHours < 0:
		return apperr.Invalid("low_oil_threshold_hours must be >= 0")
	}
	return nil
}

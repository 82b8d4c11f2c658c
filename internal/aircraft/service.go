package aircraft

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/aircraft/entity"
	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/aircraft/repo"
	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/apperr"
	engineentity "github.com/ovaphlow/pitchfork/service-engine-oil/internal/engine/entity"
	"github.com/ovaphlow/pitchfork/service-engine-oil/pkg/database"
	"github.com/ovaphlow/pitchfork/service-engine-oil/pkg/utilities"
)

// AircraftStore persists aircraft.
type AircraftStore interface {
	List(ctx context.Context) ([]entity.Aircraft, error)
	Get(ctx context.Context, id string) (*entity.Aircraft, error)
	RegistrationTaken(ctx context.Context, registration, excludeID string) (bool, error)
	Create(ctx context.Context, a *entity.Aircraft) error
	Update(ctx context.Context, a *entity.Aircraft) error
	Delete(ctx context.Context, id string) error
}

// EngineLister lists the live engines of an aircraft.
type EngineLister interface {
	ListByAircraft(ctx context.Context, aircraftID string) ([]engineentity.Engine, error)
}

// View is an aircraft with its engines.
type View struct {
	entity.Aircraft
	Engines []engineentity.Engine `json:"engines"`
}

type Service struct {
	aircraft AircraftStore
	engines  EngineLister
	logger   *zap.SugaredLogger
}

func NewService(logger *zap.SugaredLogger, aircraft AircraftStore, engines EngineLister) *Service {
	return &Service{aircraft: aircraft, engines: engines, logger: logger}
}

func (s *Service) List(ctx context.Context) ([]View, error) {
	list, err := s.aircraft.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]View, 0, len(list))
	for _, a := range list {
		v, err := s.view(ctx, a)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	a, err := s.aircraft.Get(ctx, id)
	if err != nil {
		return nil, mapErr(err, id)
	}
	return s.view(ctx, *a)
}

// Create registers an aircraft. The registration must be unused; the check
// runs before the insert so a duplicate never writes a row.
func (s *Service) Create(ctx context.Context, in entity.CreateAircraft) (*entity.Aircraft, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}
	taken, err := s.aircraft.RegistrationTaken(ctx, in.Registration, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, registrationTaken(in.Registration)
	}

	a := &entity.Aircraft{
		ID:           utilities.NewUUID(),
		Registration: in.Registration,
		AircraftType: in.AircraftType,
		EngineType:   in.EngineType,
		EngineQty:    in.EngineQty,
		Active:       true,
	}
	if in.Active != nil {
		a.Active = *in.Active
	}
	if err := s.aircraft.Create(ctx, a); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, registrationTaken(in.Registration)
		}
		return nil, err
	}
	s.logger.Infow("aircraft created", "id", a.ID, "registration", a.Registration)
	return a, nil
}

func (s *Service) Update(ctx context.Context, id string, in entity.PatchAircraft) (*View, error) {
	if err := validatePatch(in); err != nil {
		return nil, err
	}
	a, err := s.aircraft.Get(ctx, id)
	if err != nil {
		return nil, mapErr(err, id)
	}
	if in.Registration != nil && *in.Registration != a.Registration {
		taken, err := s.aircraft.RegistrationTaken(ctx, *in.Registration, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, registrationTaken(*in.Registration)
		}
	}

	in.Apply(a)
	if err := s.aircraft.Update(ctx, a); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, registrationTaken(a.Registration)
		}
		return nil, mapErr(err, id)
	}
	s.logger.Infow("aircraft updated", "id", id)
	return s.view(ctx, *a)
}

// Delete removes the aircraft together with its engines and records.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.aircraft.Delete(ctx, id); err != nil {
		return mapErr(err, id)
	}
	s.logger.Infow("aircraft deleted", "id", id)
	return nil
}

func (s *Service) view(ctx context.Context, a entity.Aircraft) (*View, error) {
	engines, err := s.engines.ListByAircraft(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	if engines == nil {
		engines = []engineentity.Engine{}
	}
	return &View{Aircraft: a, Engines: engines}, nil
}

func registrationTaken(registration string) error {
	return apperr.Duplicate("aircraft registration %s already exists", registration)
}

func mapErr(err error, id string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.NotFound("aircraft %s not found", id)
	}
	return err
}

func validateCreate(in entity.CreateAircraft) error {
	switch {
	case in.Registration == "":
		return apperr.Invalid("registration is required")
	case in.AircraftType == "":
		return apperr.Invalid("aircraft_type is required")
	case in.EngineType == "":
		return apperr.Invalid("engine_type is required")
	case in.EngineQty <= 0:
		return apperr.Invalid("engine_qty must be a positive integer")
	}
	return nil
}

func validatePatch(in entity.PatchAircraft) error {
	switch {
	case in.Registration != nil && *in.Registration == "":
		return apperr.Invalid("registration must not be empty")
	case in.AircraftType != nil && *in.AircraftType == "":
		return apperr.Invalid("aircraft_type must not be empty")
	case in.EngineType != nil && *in.EngineType == "":
		return apperr.Invalid("engine_type must not be empty")
	case in.EngineQty != nil && *in.EngineQty <= 0:
		return apperr.Invalid("engine_qty must be a positive integer")
	}
	return nil
}

package aircraft

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/aircraft/entity"
	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/aircraft/repo"
	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/apperr"
	enginerepo "github.com/ovaphlow/pitchfork/service-engine-oil/internal/engine/repo"
)

const aircraftID = "3f2504e0-4f89-41d3-9a0c-0305e82c3301"

var (
	aircraftColumns = []string{"id", "registration", "aircraft_type", "engine_type", "engine_qty", "active", "created_at", "updated_at"}
	engineColumns   = []string{"id", "serial_number", "position", "model", "active",
		"average_consumption_rate_per_hour", "estimated_hours_remaining", "low_oil_threshold_hours", "last_calculation_date",
		"aircraft_id", "created_at", "updated_at", "deleted_at"}
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	x := sqlx.NewDb(db, "postgres")
	return NewService(zap.NewNop().Sugar(), repo.NewAircraftRepo(x), enginerepo.NewEngineRepo(x)), mock
}

func validCreate() entity.CreateAircraft {
	return entity.CreateAircraft{Registration: "HS-TGA", AircraftType: "B777", EngineType: "GE90", EngineQty: 2}
}

func TestCreate_DuplicateRegistrationInsertsNothing(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM aircrafts`).
		WithArgs("HS-TGA", "").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := svc.Create(context.Background(), validCreate())
	assert.ErrorIs(t, err, apperr.ErrDuplicateKey)
	assert.Contains(t, apperr.Message(err, ""), "HS-TGA")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UniqueViolationRace(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM aircrafts`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`INSERT INTO aircrafts`).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := svc.Create(context.Background(), validCreate())
	assert.ErrorIs(t, err, apperr.ErrDuplicateKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DefaultsActive(t *testing.T) {
	svc, mock := newTestService(t)
	now := time.Now()
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM aircrafts`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`INSERT INTO aircrafts`).
		WithArgs(sqlmock.AnyArg(), "HS-TGA", "B777", "GE90", 2, true).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	a, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)
	assert.True(t, a.Active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Validation(t *testing.T) {
	svc, mock := newTestService(t)

	cases := []struct {
		name   string
		mutate func(*entity.CreateAircraft)
	}{
		{"missing registration", func(c *entity.CreateAircraft) { c.Registration = "" }},
		{"missing type", func(c *entity.CreateAircraft) { c.AircraftType = "" }},
		{"zero engines", func(c *entity.CreateAircraft) { c.EngineQty = 0 }},
	}
	for _, tc := range cases {
		in := validCreate()
		tc.mutate(&in)
		_, err := svc.Create(context.Background(), in)
		assert.ErrorIs(t, err, apperr.ErrValidation, tc.name)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_RegistrationTakenByOther(t *testing.T) {
	svc, mock := newTestService(t)
	now := time.Now()
	mock.ExpectQuery(`FROM aircrafts WHERE id=\$1`).
		WithArgs(aircraftID).
		WillReturnRows(sqlmock.NewRows(aircraftColumns).AddRow(aircraftID, "HS-TGA", "B777", "GE90", 2, true, now, now))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM aircrafts`).
		WithArgs("HS-TGB", aircraftID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	reg := "HS-TGB"
	_, err := svc.Update(context.Background(), aircraftID, entity.PatchAircraft{Registration: &reg})
	assert.ErrorIs(t, err, apperr.ErrDuplicateKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_IncludesEngines(t *testing.T) {
	svc, mock := newTestService(t)
	now := time.Now()
	mock.ExpectQuery(`FROM aircrafts WHERE id=\$1`).
		WithArgs(aircraftID).
		WillReturnRows(sqlmock.NewRows(aircraftColumns).AddRow(aircraftID, "HS-TGA", "B777", "GE90", 2, true, now, now))
	mock.ExpectQuery(`FROM engines WHERE aircraft_id=\$1 AND deleted_at IS NULL`).
		WithArgs(aircraftID).
		WillReturnRows(sqlmock.NewRows(engineColumns).
			AddRow("e1", "GE-100", 1, "GE90", true, nil, nil, nil, nil, aircraftID, now, now, nil))

	v, err := svc.Get(context.Background(), aircraftID)
	require.NoError(t, err)
	require.Len(t, v.Engines, 1)
	assert.Equal(t, 1, v.Engines[0].Position)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_NotFound(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectExec(`DELETE FROM aircrafts WHERE id=\$1`).
		WithArgs(aircraftID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, svc.Delete(context.Background(), aircraftID), apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_CreateDuplicateRegistration(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM aircrafts`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	h := NewHandler(zap.NewNop().Sugar(), svc)

	body := `{"registration":"HS-TGA","aircraft_type":"B777","engine_type":"GE90","engine_qty":2}`
	w := httptest.NewRecorder()
	h.Create(w, httptest.NewRequest(http.MethodPost, "/api/aircraft", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "HS-TGA")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_GetRejectsMalformedID(t *testing.T) {
	svc, mock := newTestService(t)
	h := NewHandler(zap.NewNop().Sugar(), svc)

	req := httptest.NewRequest(http.MethodGet, "/api/aircraft/nope", nil)
	req.SetPathValue("id", "nope")
	w := httptest.NewRecorder()
	h.Get(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

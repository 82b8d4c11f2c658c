package engine

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/engine/entity"
	"github.com/ovaphlow/pitchfork/service-engine-oil/pkg/utilities"
)

// Handler exposes engine endpoints.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(logger *zap.SugaredLogger, svc *Service) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.List(r.Context())
	if err != nil {
		apperr.Write(w, h.logger, err, "failed to list engines")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := apperr.PathUUID(r, "id")
	if err != nil {
		apperr.Write(w, h.logger, err, "invalid id")
		return
	}
	out, err := h.svc.Get(r.Context(), id)
	if err != nil {
		apperr.Write(w, h.logger, err, "failed to get engine")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) ListByAircraft(w http.ResponseWriter, r *http.Request) {
	aircraftID, err := apperr.PathUUID(r, "aircraft_id")
	if err != nil {
		apperr.Write(w, h.logger, err, "invalid aircraft_id")
		return
	}
	out, err := h.svc.ListByAircraft(r.Context(), aircraftID)
	if err != nil {
		apperr.Write(w, h.logger, err, "failed to list engines")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req entity.CreateEngine
	if err := utilities.DecodeJSON(w, r, &req); err != nil {
		apperr.Write(w, h.logger, apperr.Payload(err), "invalid payload")
		return
	}
	out, err := h.svc.Create(r.Context(), req)
	if err != nil {
		apperr.Write(w, h.logger, err, "failed to create engine")
		return
	}
	utilities.WriteJSON(w, http.StatusCreated, out)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := apperr.PathUUID(r, "id")
	if err != nil {
		apperr.Write(w, h.logger, err, "invalid id")
		return
	}
	var req entity.PatchEngine
	if err := utilities.DecodeJSON(w, r, &req); err != nil {
		apperr.Write(w, h.logger, apperr.Payload(err), "invalid payload")
		return
	}
	out, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		apperr.Write(w, h.logger, err, "failed to update engine")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := apperr.PathUUID(r, "id")
	if err != nil {
		apperr.Write(w, h.logger, err, "invalid id")
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		apperr.Write(w, h.logger, err, "failed to delete engine")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, map[string]string{"message": "engine deleted"})
}

package aircraft

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/aircraft/entity"
	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-engine-oil/pkg/utilities"
)

// Handler exposes aircraft endpoints.
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
		apperr.Write(w, h.logger, err, "failed to list aircraft")
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
		apperr.Write(w, h.logger, err, "failed to get aircraft")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req entity.CreateAircraft
	if err := utilities.DecodeJSON(w, r, &req); err != nil {
		apperr.Write(w, h.logger, apperr.Payload(err), "invalid payload")
		return
	}
	out, err := h.svc.Create(r.Context(), req)
	if err != nil {
		apperr.Write(w, h.logger, err, "failed to create aircraft")
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
	var req entity.PatchAircraft
	if err := utilities.DecodeJSON(w, r, &req); err != nil {
		apperr.Write(w, h.logger, apperr.Payload(err), "invalid payload")
		return
	}
	out, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		apperr.Write(w, h.logger, err, "failed to update aircraft")
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
		apperr.Write(w, h.logger, err, "failed to delete aircraft")
		return
	}
	utilities.WriteJSON(w, http.StatusOK, map[string]string{"message": "aircraft deleted"})
}

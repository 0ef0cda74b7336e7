package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/albertaspsc/mruhacks2025-api/functions/gateway/helpers"
	"github.com/albertaspsc/mruhacks2025-api/functions/gateway/services"
	"github.com/albertaspsc/mruhacks2025-api/functions/gateway/transport"
	internal_types "github.com/albertaspsc/mruhacks2025-api/functions/gateway/types"
)

type WorkshopHandler struct {
	WorkshopService internal_types.WorkshopServiceInterface
	AdminService    internal_types.AdminServiceInterface
}

func NewWorkshopHandler(workshopService internal_types.WorkshopServiceInterface, adminService internal_types.AdminServiceInterface) *WorkshopHandler {
	return &WorkshopHandler{WorkshopService: workshopService, AdminService: adminService}
}

func (h *WorkshopHandler) GetWorkshops(w http.ResponseWriter, r *http.Request) {
	userInfo, ok := requireUser(w, r)
	if !ok {
		return
	}

	db := transport.GetDB()
	workshops, err := h.WorkshopService.GetWorkshopsForUser(r.Context(), db, userInfo.Sub)
	if err != nil {
		sendServiceError(w, "Failed to get workshops", err)
		return
	}

	transport.SendServerRes(w, workshops, http.StatusOK)
}

func (h *WorkshopHandler) RegisterForWorkshop(w http.ResponseWriter, r *http.Request) {
	userInfo, ok := requireUser(w, r)
	if !ok {
		return
	}

	workshopID := mux.Vars(r)[helpers.WORKSHOP_ID_KEY]
	if workshopID == "" {
		transport.SendErrorRes(w, "Missing workshop ID", http.StatusBadRequest, nil)
		return
	}

	db := transport.GetDB()
	reg, err := h.WorkshopService.RegisterForWorkshop(r.Context(), db, userInfo.Sub, workshopID)
	if err != nil {
		switch err {
		case services.ErrAlreadyRegistered:
			transport.SendErrorRes(w, "You are already registered for this workshop", http.StatusConflict, err)
		case services.ErrWorkshopFull:
			transport.SendErrorRes(w, "This workshop is full", http.StatusConflict, err)
		case services.ErrNotFound:
			transport.SendErrorRes(w, "Workshop not found", http.StatusNotFound, err)
		case services.ErrUserNotFound:
			transport.SendErrorRes(w, "No registration found for this account", http.StatusNotFound, err)
		default:
			sendServiceError(w, "Failed to register for workshop", err)
		}
		return
	}

	transport.SendServerRes(w, reg, http.StatusCreated)
}

func (h *WorkshopHandler) UnregisterFromWorkshop(w http.ResponseWriter, r *http.Request) {
	userInfo, ok := requireUser(w, r)
	if !ok {
		return
	}

	workshopID := mux.Vars(r)[helpers.WORKSHOP_ID_KEY]
	if workshopID == "" {
		transport.SendErrorRes(w, "Missing workshop ID", http.StatusBadRequest, nil)
		return
	}

	db := transport.GetDB()
	err := h.WorkshopService.UnregisterFromWorkshop(r.Context(), db, userInfo.Sub, workshopID)
	if err != nil {
		switch err {
		case services.ErrNotRegistered:
			transport.SendErrorRes(w, "You are not registered for this workshop", http.StatusConflict, err)
		case services.ErrUserNotFound:
			transport.SendErrorRes(w, "No registration found for this account", http.StatusNotFound, err)
		default:
			sendServiceError(w, "Failed to unregister from workshop", err)
		}
		return
	}

	transport.SendServerRes(w, map[string]string{"workshopId": workshopID}, http.StatusOK)
}

// Handlers below are dashboard-only and gated on an active admin row.

// GetAdminWorkshops lists every workshop, inactive ones included, so the
// dashboard can manage sessions hidden from participants.
func (h *WorkshopHandler) GetAdminWorkshops(w http.ResponseWriter, r *http.Request) {
	userInfo, ok := requireUser(w, r)
	if !ok {
		return
	}

	db := transport.GetDB()
	if err := h.AdminService.CheckAccess(r.Context(), db, userInfo.Sub, false); err != nil {
		sendServiceError(w, "Access denied", err)
		return
	}

	workshops, err := h.WorkshopService.GetAllWorkshops(r.Context(), db)
	if err != nil {
		sendServiceError(w, "Failed to get workshops", err)
		return
	}

	transport.SendServerRes(w, workshops, http.StatusOK)
}

func (h *WorkshopHandler) CreateWorkshop(w http.ResponseWriter, r *http.Request) {
	userInfo, ok := requireUser(w, r)
	if !ok {
		return
	}

	db := transport.GetDB()
	if err := h.AdminService.CheckAccess(r.Context(), db, userInfo.Sub, true); err != nil {
		sendServiceError(w, "Access denied", err)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		transport.SendErrorRes(w, "Failed to read request body", http.StatusBadRequest, err)
		return
	}

	var insert internal_types.WorkshopInsert
	if err := json.Unmarshal(body, &insert); err != nil {
		transport.SendErrorRes(w, "Invalid JSON payload: "+err.Error(), http.StatusUnprocessableEntity, err)
		return
	}

	if err := validate.Struct(&insert); err != nil {
		sendValidationError(w, err)
		return
	}

	workshop, err := h.WorkshopService.InsertWorkshop(r.Context(), db, insert)
	if err != nil {
		sendServiceError(w, "Failed to create workshop", err)
		return
	}

	transport.SendServerRes(w, workshop, http.StatusCreated)
}

func (h *WorkshopHandler) UpdateWorkshop(w http.ResponseWriter, r *http.Request) {
	userInfo, ok := requireUser(w, r)
	if !ok {
		return
	}

	workshopID := mux.Vars(r)[helpers.WORKSHOP_ID_KEY]
	if workshopID == "" {
		transport.SendErrorRes(w, "Missing workshop ID", http.StatusBadRequest, nil)
		return
	}

	db := transport.GetDB()
	if err := h.AdminService.CheckAccess(r.Context(), db, userInfo.Sub, true); err != nil {
		sendServiceError(w, "Access denied", err)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		transport.SendErrorRes(w, "Failed to read request body", http.StatusBadRequest, err)
		return
	}

	var update internal_types.WorkshopUpdate
	if err := json.Unmarshal(body, &update); err != nil {
		transport.SendErrorRes(w, "Invalid JSON payload: "+err.Error(), http.StatusUnprocessableEntity, err)
		return
	}

	if err := validate.Struct(&update); err != nil {
		sendValidationError(w, err)
		return
	}

	workshop, err := h.WorkshopService.UpdateWorkshop(r.Context(), db, workshopID, update)
	if err != nil {
		sendServiceError(w, "Failed to update workshop", err)
		return
	}

	transport.SendServerRes(w, workshop, http.StatusOK)
}

func (h *WorkshopHandler) DeleteWorkshop(w http.ResponseWriter, r *http.Request) {
	userInfo, ok := requireUser(w, r)
	if !ok {
		return
	}

	workshopID := mux.Vars(r)[helpers.WORKSHOP_ID_KEY]
	if workshopID == "" {
		transport.SendErrorRes(w, "Missing workshop ID", http.StatusBadRequest, nil)
		return
	}

	db := transport.GetDB()
	if err := h.AdminService.CheckAccess(r.Context(), db, userInfo.Sub, true); err != nil {
		sendServiceError(w, "Access denied", err)
		return
	}

	if err := h.WorkshopService.DeleteWorkshop(r.Context(), db, workshopID); err != nil {
		sendServiceError(w, "Failed to delete workshop", err)
		return
	}

	transport.SendServerRes(w, map[string]string{"workshopId": workshopID}, http.StatusOK)
}

func (h *WorkshopHandler) GetWorkshopRegistrations(w http.ResponseWriter, r *http.Request) {
	userInfo, ok := requireUser(w, r)
	if !ok {
		return
	}

	workshopID := mux.Vars(r)[helpers.WORKSHOP_ID_KEY]
	if workshopID == "" {
		transport.SendErrorRes(w, "Missing workshop ID", http.StatusBadRequest, nil)
		return
	}

	db := transport.GetDB()
	if err := h.AdminService.CheckAccess(r.Context(), db, userInfo.Sub, false); err != nil {
		sendServiceError(w, "Access denied", err)
		return
	}

	registrations, err := h.WorkshopService.GetWorkshopRegistrations(r.Context(), db, workshopID)
	if err != nil {
		sendServiceError(w, "Failed to get workshop registrations", err)
		return
	}

	transport.SendServerRes(w, registrations, http.StatusOK)
}

func GetWorkshopsHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := NewWorkshopHandler(services.NewWorkshopService(), services.NewAdminService())
	return func(w http.ResponseWriter, r *http.Request) {
		handler.GetWorkshops(w, r)
	}
}

func GetAdminWorkshopsHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := NewWorkshopHandler(services.NewWorkshopService(), services.NewAdminService())
	return func(w http.ResponseWriter, r *http.Request) {
		handler.GetAdminWorkshops(w, r)
	}
}

func RegisterForWorkshopHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := NewWorkshopHandler(services.NewWorkshopService(), services.NewAdminService())
	return func(w http.ResponseWriter, r *http.Request) {
		handler.RegisterForWorkshop(w, r)
	}
}

func UnregisterFromWorkshopHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := NewWorkshopHandler(services.NewWorkshopService(), services.NewAdminService())
	return func(w http.ResponseWriter, r *http.Request) {
		handler.UnregisterFromWorkshop(w, r)
	}
}

func CreateWorkshopHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := NewWorkshopHandler(services.NewWorkshopService(), services.NewAdminService())
	return func(w http.ResponseWriter, r *http.Request) {
		handler.CreateWorkshop(w, r)
	}
}

func UpdateWorkshopHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := NewWorkshopHandler(services.NewWorkshopService(), services.NewAdminService())
	return func(w http.ResponseWriter, r *http.Request) {
		handler.UpdateWorkshop(w, r)
	}
}

func DeleteWorkshopHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := NewWorkshopHandler(services.NewWorkshopService(), services.NewAdminService())
	return func(w http.ResponseWriter, r *http.Request) {
		handler.DeleteWorkshop(w, r)
	}
}

func GetWorkshopRegistrationsHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := NewWorkshopHandler(services.NewWorkshopService(), services.NewAdminService())
	return func(w http.ResponseWriter, r *http.Request) {
		handler.GetWorkshopRegistrations(w, r)
	}
}

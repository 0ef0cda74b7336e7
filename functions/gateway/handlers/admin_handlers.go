package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/albertaspsc/mruhacks2025-api/functions/gateway/helpers"
	"github.com/albertaspsc/mruhacks2025-api/functions/gateway/services"
	"github.com/albertaspsc/mruhacks2025-api/functions/gateway/transport"
	internal_types "github.com/albertaspsc/mruhacks2025-api/functions/gateway/types"
)

type AdminHandler struct {
	AdminService     internal_types.AdminServiceInterface
	AnalyticsService internal_types.AnalyticsServiceInterface
	ExportService    internal_types.ExportServiceInterface
}

func NewAdminHandler(adminService internal_types.AdminServiceInterface, analyticsService internal_types.AnalyticsServiceInterface, exportService internal_types.ExportServiceInterface) *AdminHandler {
	return &AdminHandler{AdminService: adminService, AnalyticsService: analyticsService, ExportService: exportService}
}

// checkAccess gates the dashboard; volunteers pass read checks only.
func (h *AdminHandler) checkAccess(w http.ResponseWriter, r *http.Request, write bool) (string, bool) {
	userInfo, ok := requireUser(w, r)
	if !ok {
		return "", false
	}

	db := transport.GetDB()
	if err := h.AdminService.CheckAccess(r.Context(), db, userInfo.Sub, write); err != nil {
		sendServiceError(w, "Access denied", err)
		return "", false
	}
	return userInfo.Sub, true
}

func (h *AdminHandler) GetParticipants(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.checkAccess(w, r, false); !ok {
		return
	}

	db := transport.GetDB()
	participants, err := h.AdminService.GetParticipants(r.Context(), db)
	if err != nil {
		sendServiceError(w, "Failed to get participants", err)
		return
	}

	transport.SendServerRes(w, participants, http.StatusOK)
}

func (h *AdminHandler) BulkUpdateStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.checkAccess(w, r, true); !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		transport.SendErrorRes(w, "Failed to read request body", http.StatusBadRequest, err)
		return
	}

	var update internal_types.BulkStatusUpdate
	if err := json.Unmarshal(body, &update); err != nil {
		transport.SendErrorRes(w, "Invalid JSON payload: "+err.Error(), http.StatusUnprocessableEntity, err)
		return
	}

	if err := validate.Struct(&update); err != nil {
		sendValidationError(w, err)
		return
	}

	db := transport.GetDB()
	result, err := h.AdminService.BulkUpdateStatus(r.Context(), db, update)
	if err != nil {
		sendServiceError(w, "Failed to update statuses", err)
		return
	}

	transport.SendServerRes(w, result, http.StatusOK)
}

func (h *AdminHandler) SetCheckedIn(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.checkAccess(w, r, true); !ok {
		return
	}

	userID := mux.Vars(r)[helpers.USER_ID_KEY]
	if userID == "" {
		transport.SendErrorRes(w, "Missing user ID", http.StatusBadRequest, nil)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		transport.SendErrorRes(w, "Failed to read request body", http.StatusBadRequest, err)
		return
	}

	var payload struct {
		CheckedIn *bool `json:"checked_in" validate:"required"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		transport.SendErrorRes(w, "Invalid JSON payload: "+err.Error(), http.StatusUnprocessableEntity, err)
		return
	}
	if err := validate.Struct(&payload); err != nil {
		sendValidationError(w, err)
		return
	}

	db := transport.GetDB()
	if err := h.AdminService.SetCheckedIn(r.Context(), db, userID, *payload.CheckedIn); err != nil {
		if err == services.ErrNotFound {
			transport.SendErrorRes(w, "Participant not found", http.StatusNotFound, err)
			return
		}
		sendServiceError(w, "Failed to update check-in", err)
		return
	}

	transport.SendServerRes(w, map[string]interface{}{"userId": userID, "checked_in": *payload.CheckedIn}, http.StatusOK)
}

func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.checkAccess(w, r, false); !ok {
		return
	}

	db := transport.GetDB()
	stats, err := h.AnalyticsService.GetStats(r.Context(), db)
	if err != nil {
		sendServiceError(w, "Failed to get stats", err)
		return
	}

	transport.SendServerRes(w, stats, http.StatusOK)
}

func (h *AdminHandler) GetTrends(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.checkAccess(w, r, false); !ok {
		return
	}

	q := r.URL.Query()
	filter := internal_types.TrendsFilter{
		Marketing:  q.Get("marketing"),
		Experience: q.Get("experience"),
		Major:      q.Get("major"),
		Gender:     q.Get("gender"),
		University: q.Get("university"),
	}
	if days := q.Get("days"); days != "" {
		parsed, err := strconv.Atoi(days)
		if err != nil || parsed <= 0 {
			transport.SendErrorRes(w, "Invalid days parameter", http.StatusBadRequest, err)
			return
		}
		filter.Days = parsed
	}

	db := transport.GetDB()
	points, err := h.AnalyticsService.GetTrends(r.Context(), db, filter)
	if err != nil {
		sendServiceError(w, "Failed to get trends", err)
		return
	}

	transport.SendServerRes(w, points, http.StatusOK)
}

// ExportWorkshopRegistrations is the one read volunteers share with admins;
// no workshop id means export everything.
func (h *AdminHandler) ExportWorkshopRegistrations(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.checkAccess(w, r, false); !ok {
		return
	}

	workshopID := r.URL.Query().Get("workshop_id")

	db := transport.GetDB()
	csv, err := h.ExportService.ExportWorkshopRegistrationsCSV(r.Context(), db, workshopID)
	if err != nil {
		sendServiceError(w, "Failed to export registrations", err)
		return
	}

	filename := "workshop-registrations-" + time.Now().Format("2006-01-02") + ".csv"
	transport.SendCsvRes(w, csv, filename)
}

func GetParticipantsHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := NewAdminHandler(services.NewAdminService(), services.NewAnalyticsService(), services.NewExportService())
	return func(w http.ResponseWriter, r *http.Request) {
		handler.GetParticipants(w, r)
	}
}

func BulkUpdateStatusHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := NewAdminHandler(services.NewAdminService(), services.NewAnalyticsService(), services.NewExportService())
	return func(w http.ResponseWriter, r *http.Request) {
		handler.BulkUpdateStatus(w, r)
	}
}

func SetCheckedInHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := NewAdminHandler(services.NewAdminService(), services.NewAnalyticsService(), services.NewExportService())
	return func(w http.ResponseWriter, r *http.Request) {
		handler.SetCheckedIn(w, r)
	}
}

func GetStatsHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := NewAdminHandler(services.NewAdminService(), services.NewAnalyticsService(), services.NewExportService())
	return func(w http.ResponseWriter, r *http.Request) {
		handler.GetStats(w, r)
	}
}

func GetTrendsHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := NewAdminHandler(services.NewAdminService(), services.NewAnalyticsService(), services.NewExportService())
	return func(w http.ResponseWriter, r *http.Request) {
		handler.GetTrends(w, r)
	}
}

func ExportWorkshopRegistrationsHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := NewAdminHandler(services.NewAdminService(), services.NewAnalyticsService(), services.NewExportService())
	return func(w http.ResponseWriter, r *http.Request) {
		handler.ExportWorkshopRegistrations(w, r)
	}
}

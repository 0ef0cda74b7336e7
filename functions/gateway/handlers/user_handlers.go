package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator"

	"github.com/albertaspsc/mruhacks2025-api/functions/gateway/helpers"
	"github.com/albertaspsc/mruhacks2025-api/functions/gateway/services"
	"github.com/albertaspsc/mruhacks2025-api/functions/gateway/transport"
	internal_types "github.com/albertaspsc/mruhacks2025-api/functions/gateway/types"
)

var validate *validator.Validate = validator.New()

// requireUser pulls the authenticated identity off the request context and
// writes the 401 itself when there is none.
func requireUser(w http.ResponseWriter, r *http.Request) (helpers.UserInfo, bool) {
	userInfo, ok := helpers.GetUserInfoFromContext(r.Context())
	if !ok {
		transport.SendErrorRes(w, "Please sign in to continue", http.StatusUnauthorized, nil)
		return helpers.UserInfo{}, false
	}
	return userInfo, true
}

// sendValidationError flattens validator failures into a per-field map.
func sendValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = "failed on " + fe.Tag()
		}
		transport.SendValidationRes(w, fields)
		return
	}
	transport.SendErrorRes(w, "Invalid body: "+err.Error(), http.StatusBadRequest, err)
}

// sendServiceError maps service sentinels onto HTTP statuses; anything
// unrecognized is a 500 with the internals kept out of the response.
func sendServiceError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrUserNotFound):
		transport.SendErrorRes(w, msg, http.StatusNotFound, err)
	case errors.Is(err, services.ErrAccessDenied):
		transport.SendErrorRes(w, msg, http.StatusForbidden, err)
	case errors.Is(err, services.ErrAlreadyRegistered),
		errors.Is(err, services.ErrNotRegistered),
		errors.Is(err, services.ErrWorkshopFull),
		errors.Is(err, services.ErrEventFull),
		errors.Is(err, services.ErrRsvpClosed):
		transport.SendErrorRes(w, msg, http.StatusConflict, err)
	default:
		transport.SendErrorRes(w, msg, http.StatusInternalServerError, err)
	}
}

type UserHandler struct {
	UserService   internal_types.UserServiceInterface
	LookupService internal_types.LookupServiceInterface
}

func NewUserHandler(userService internal_types.UserServiceInterface, lookupService internal_types.LookupServiceInterface) *UserHandler {
	return &UserHandler{UserService: userService, LookupService: lookupService}
}

func (h *UserHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	userInfo, ok := requireUser(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		transport.SendErrorRes(w, "Failed to read request body", http.StatusBadRequest, err)
		return
	}

	var reg internal_types.RegistrationInsert
	if err := json.Unmarshal(body, &reg); err != nil {
		transport.SendErrorRes(w, "Invalid JSON payload: "+err.Error(), http.StatusUnprocessableEntity, err)
		return
	}

	if err := validate.Struct(&reg); err != nil {
		sendValidationError(w, err)
		return
	}

	db := transport.GetDB()
	profile, err := h.UserService.RegisterUser(r.Context(), db, userInfo.Sub, userInfo.Email, reg)
	if err != nil {
		sendServiceError(w, "Failed to register", err)
		return
	}

	transport.SendServerRes(w, profile, http.StatusCreated)
}

func (h *UserHandler) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	userInfo, ok := requireUser(w, r)
	if !ok {
		return
	}

	db := transport.GetDB()
	profile, err := h.UserService.GetUserProfile(r.Context(), db, userInfo.Sub)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			transport.SendErrorRes(w, "No registration found for this account", http.StatusNotFound, err)
			return
		}
		sendServiceError(w, "Failed to get profile", err)
		return
	}

	transport.SendServerRes(w, profile, http.StatusOK)
}

func (h *UserHandler) UpdateUserProfile(w http.ResponseWriter, r *http.Request) {
	userInfo, ok := requireUser(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		transport.SendErrorRes(w, "Failed to read request body", http.StatusBadRequest, err)
		return
	}

	var update internal_types.UserProfileUpdate
	if err := json.Unmarshal(body, &update); err != nil {
		transport.SendErrorRes(w, "Invalid JSON payload: "+err.Error(), http.StatusUnprocessableEntity, err)
		return
	}

	if err := validate.Struct(&update); err != nil {
		sendValidationError(w, err)
		return
	}

	db := transport.GetDB()
	profile, err := h.UserService.UpdateUserProfile(r.Context(), db, userInfo.Sub, update)
	if err != nil {
		sendServiceError(w, "Failed to update profile", err)
		return
	}

	transport.SendServerRes(w, profile, http.StatusOK)
}

func (h *UserHandler) GetFormOptions(w http.ResponseWriter, r *http.Request) {
	db := transport.GetDB()
	options, err := h.LookupService.GetFormOptions(r.Context(), db)
	if err != nil {
		sendServiceError(w, "Failed to load form options", err)
		return
	}

	transport.SendServerRes(w, options, http.StatusOK)
}

func RegisterUserHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := NewUserHandler(services.NewUserService(), services.NewLookupService())
	return func(w http.ResponseWriter, r *http.Request) {
		handler.RegisterUser(w, r)
	}
}

func GetUserProfileHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := NewUserHandler(services.NewUserService(), services.NewLookupService())
	return func(w http.ResponseWriter, r *http.Request) {
		handler.GetUserProfile(w, r)
	}
}

func UpdateUserProfileHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := NewUserHandler(services.NewUserService(), services.NewLookupService())
	return func(w http.ResponseWriter, r *http.Request) {
		handler.UpdateUserProfile(w, r)
	}
}

func GetFormOptionsHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := NewUserHandler(services.NewUserService(), services.NewLookupService())
	return func(w http.ResponseWriter, r *http.Request) {
		handler.GetFormOptions(w, r)
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Bhuvanani14/goodcity/internal/services"
	"github.com/Bhuvanani14/goodcity/internal/store"
	"github.com/go-chi/chi/v5"
)

// AdminHandler provides administrator-only endpoints.
type AdminHandler struct {
	issueService *services.IssueService
	authService  *services.AuthService
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(issueService *services.IssueService, authService *services.AuthService) *AdminHandler {
	return &AdminHandler{issueService: issueService, authService: authService}
}

// Stats returns aggregate issue and user statistics, optionally narrowed
// to one issue category.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))

	stats, err := h.issueService.Stats(r.Context(), category)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// SetUserActive activates or deactivates an account and returns the
// updated user.
func (h *AdminHandler) SetUserActive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req UserActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.authService.SetActive(r.Context(), id, req.Active)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UserActiveRequest is the JSON body for toggling account activation.
type UserActiveRequest struct {
	Active bool `json:"active"`
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/Bhuvanani14/goodcity/internal/services"
)

// GovernmentBodyHandler serves the department reference table.
type GovernmentBodyHandler struct {
	bodyService *services.GovernmentBodyService
}

// NewGovernmentBodyHandler constructs a GovernmentBodyHandler.
func NewGovernmentBodyHandler(bodyService *services.GovernmentBodyService) *GovernmentBodyHandler {
	return &GovernmentBodyHandler{bodyService: bodyService}
}

// List returns active government bodies, optionally narrowed by category
// and jurisdiction.
func (h *GovernmentBodyHandler) List(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	jurisdiction := strings.TrimSpace(r.URL.Query().Get("jurisdiction"))

	bodies, err := h.bodyService.List(r.Context(), category, jurisdiction)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list government bodies")
		return
	}

	writeJSON(w, http.StatusOK, bodies)
}

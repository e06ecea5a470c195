package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/Bhuvanani14/goodcity/internal/services"
	"github.com/Bhuvanani14/goodcity/internal/storage"
	"github.com/Bhuvanani14/goodcity/internal/store"
	"github.com/Bhuvanani14/goodcity/types"
	"github.com/go-chi/chi/v5"
)

const (
	maxMultipartMemory = 32 << 20
	maxImageBytes      = 16 << 20
	formFieldImage     = "image"
)

// IssueHandler provides HTTP handlers for issues.
type IssueHandler struct {
	issueService *services.IssueService
	images       *storage.ImageStore
}

// NewIssueHandler constructs a handler with the provided dependencies.
// images may be nil when no object-storage backend is configured.
func NewIssueHandler(issueService *services.IssueService, images *storage.ImageStore) *IssueHandler {
	return &IssueHandler{
		issueService: issueService,
		images:       images,
	}
}

// IssueRouter registers issue routes on the given router.
func IssueRouter(
	r chi.Router,
	issueService *services.IssueService,
	images *storage.ImageStore,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewIssueHandler(issueService, images)

	r.Get("/", handler.ListIssues)
	r.With(authMiddleware).Post("/", handler.CreateIssue)
	r.Route("/{issueID}", func(r chi.Router) {
		r.Get("/", handler.GetIssue)
		r.With(authMiddleware, RequireAdmin).Put("/", handler.UpdateIssue)
		r.With(authMiddleware).Post("/vote", handler.VoteIssue)
		if images != nil {
			r.With(authMiddleware).Post("/images", handler.AttachImage)
		}
	})
}

// ListIssues returns a filtered, paginated issue listing.
func (h *IssueHandler) ListIssues(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := types.IssueFilter{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Priority: strings.TrimSpace(r.URL.Query().Get("priority")),
		Status:   strings.TrimSpace(r.URL.Query().Get("status")),
	}

	issues, total, err := h.issueService.List(r.Context(), filter, offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list issues")
		return
	}

	writeJSON(w, http.StatusOK, IssueListResponse{
		Issues:     issues,
		Pagination: newPagination(page, limit, total),
	})
}

// MyIssues returns the caller's issues, newest first.
func (h *IssueHandler) MyIssues(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	issues, total, err := h.issueService.ListByReporter(r.Context(), userID, offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list issues")
		return
	}

	writeJSON(w, http.StatusOK, IssueListResponse{
		Issues:     issues,
		Pagination: newPagination(page, limit, total),
	})
}

// GetIssue returns one issue.
func (h *IssueHandler) GetIssue(w http.ResponseWriter, r *http.Request) {
	id, err := parseIssueID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	issue, err := h.issueService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "issue not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch issue")
		return
	}

	writeJSON(w, http.StatusOK, issue)
}

// CreateIssue files a new issue for the authenticated caller.
func (h *IssueHandler) CreateIssue(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req IssueCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	created, err := h.issueService.Create(r.Context(), userID, types.Issue{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Location:    req.Location,
		Images:      req.Images,
	})
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create issue")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// UpdateIssue applies admin triage fields to an issue.
func (h *IssueHandler) UpdateIssue(w http.ResponseWriter, r *http.Request) {
	id, err := parseIssueID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req IssueUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.issueService.Update(r.Context(), id, types.IssueUpdate{
		Status:     req.Status,
		AssignedTo: req.AssignedTo,
		Priority:   req.Priority,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "issue not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update issue")
		}
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// VoteIssue increments the issue's vote count by one.
func (h *IssueHandler) VoteIssue(w http.ResponseWriter, r *http.Request) {
	id, err := parseIssueID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	votes, err := h.issueService.Vote(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "issue not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to vote")
		return
	}

	writeJSON(w, http.StatusOK, VoteResponse{Votes: votes})
}

// AttachImage uploads one image to object storage and appends its key to
// the issue. Only the reporter or an admin may attach.
func (h *IssueHandler) AttachImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIssueID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	userID, err := claims.UserID()
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	issue, err := h.issueService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "issue not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch issue")
		return
	}
	if issue.Reporter.ID != userID && claims.Role != types.RoleAdmin {
		writeError(w, http.StatusForbidden, "only the reporter or an admin may attach images")
		return
	}

	upload, err := parseImageUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key, err := h.images.PutImage(r.Context(), id, upload.Filename,
		bytes.NewReader(upload.Data), int64(len(upload.Data)), upload.ContentType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	updated, err := h.issueService.AttachImage(r.Context(), id, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "issue not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to attach image")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// ServeImage streams a stored image back to the client.
func (h *IssueHandler) ServeImage(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if key == "" {
		writeError(w, http.StatusBadRequest, "image key is required")
		return
	}

	reader, err := h.images.Get(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}
	defer reader.Close()

	if _, err := io.Copy(w, reader); err != nil {
		return
	}
}

// IssueCreateRequest is the JSON body for filing an issue.
type IssueCreateRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Priority    string   `json:"priority"`
	Location    string   `json:"location"`
	Images      []string `json:"images"`
}

// IssueUpdateRequest is the JSON body for admin triage. Absent fields
// leave the issue untouched.
type IssueUpdateRequest struct {
	Status     *string `json:"status"`
	AssignedTo *int    `json:"assignedTo"`
	Priority   *string `json:"priority"`
}

// IssueListResponse is the paginated list response payload.
type IssueListResponse struct {
	Issues     []types.Issue `json:"issues"`
	Pagination Pagination    `json:"pagination"`
}

// VoteResponse carries the vote count after an increment.
type VoteResponse struct {
	Votes int `json:"votes"`
}

type imageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

func callerID(r *http.Request) (int, error) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		return 0, err
	}
	return claims.UserID()
}

func parseIssueID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "issueID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid issue id")
	}
	return id, nil
}

func parseImageUpload(r *http.Request) (imageUpload, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return imageUpload{}, errors.New("invalid multipart form")
	}
	return imageFromForm(r.MultipartForm)
}

func imageFromForm(form *multipart.Form) (imageUpload, error) {
	if form == nil {
		return imageUpload{}, errors.New("missing form data")
	}

	files := form.File[formFieldImage]
	if len(files) == 0 {
		return imageUpload{}, errors.New("image file is required")
	}
	if len(files) > 1 {
		return imageUpload{}, errors.New("only one image is allowed per upload")
	}

	fileHeader := files[0]
	file, err := fileHeader.Open()
	if err != nil {
		return imageUpload{}, fmt.Errorf("failed to read image: %w", err)
	}

	data, err := readFileLimited(file, maxImageBytes)
	_ = file.Close()
	if err != nil {
		return imageUpload{}, err
	}

	return imageUpload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}

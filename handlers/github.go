package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"rolebridge/core"
	"rolebridge/models"
	githubusecase "rolebridge/usecases/github"
)

// GithubSyncHandler exposes the sync engines over HTTP. Request validation
// and status mapping live here; all decisions live in the use case.
type GithubSyncHandler struct {
	githubUseCase *githubusecase.GithubUseCase
}

func NewGithubSyncHandler(githubUseCase *githubusecase.GithubUseCase) *GithubSyncHandler {
	return &GithubSyncHandler{githubUseCase: githubUseCase}
}

// RegisterRoutes mounts the handler's routes on the router. The sync and
// preview routes expect an authenticated user on the context; the team
// mappings route is for the internal webhook processor.
func (h *GithubSyncHandler) RegisterRoutes(router *mux.Router, withAuth func(http.HandlerFunc) http.HandlerFunc) {
	router.HandleFunc("/v1/workspaces/{workspaceKey}/github/sync",
		withAuth(h.HandleSyncPermissions)).Methods(http.MethodPost)
	router.HandleFunc("/v1/workspaces/{workspaceKey}/github/preview",
		withAuth(h.HandleGetPermissionPreview)).Methods(http.MethodGet)
	router.HandleFunc("/v1/internal/github/team-mappings/apply",
		h.HandleApplyTeamMappings).Methods(http.MethodPost)
}

type syncRequest struct {
	DryRun bool     `json:"dry_run"`
	Repos  []string `json:"repos,omitempty"`
	// Mode overrides the workspace's configured sync mode for this run
	Mode             string `json:"mode,omitempty"`
	ProjectKeyPrefix string `json:"project_key_prefix,omitempty"`
}

func (h *GithubSyncHandler) HandleSyncPermissions(w http.ResponseWriter, r *http.Request) {
	workspaceKey := mux.Vars(r)["workspaceKey"]
	log.Printf("📋 GitHub sync request received for workspace %s from %s", workspaceKey, r.RemoteAddr)

	var req syncRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("❌ Invalid sync request body: %v", err)
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	opts := models.GithubSyncOptions{
		DryRun:           req.DryRun,
		Repos:            req.Repos,
		ProjectKeyPrefix: req.ProjectKeyPrefix,
	}
	if req.Mode != "" {
		mode, err := models.ParseSyncMode(req.Mode)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		opts.ModeOverride = &mode
	}

	report, err := h.githubUseCase.SyncGithubPermissions(r.Context(), workspaceKey, opts)
	if err != nil {
		h.writeErrorResponse(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, report)
}

func (h *GithubSyncHandler) HandleGetPermissionPreview(w http.ResponseWriter, r *http.Request) {
	workspaceKey := mux.Vars(r)["workspaceKey"]
	repoFullName := r.URL.Query().Get("repo")
	log.Printf("📋 GitHub preview request received for workspace %s, repo %s", workspaceKey, repoFullName)

	if repoFullName == "" {
		http.Error(w, "repo query parameter is required", http.StatusBadRequest)
		return
	}

	preview, err := h.githubUseCase.GetGithubPermissionPreview(r.Context(), workspaceKey, repoFullName)
	if err != nil {
		h.writeErrorResponse(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, preview)
}

type applyTeamMappingsRequest struct {
	WorkspaceID    string `json:"workspace_id"`
	InstallationID string `json:"installation_id"`
	EventType      string `json:"event_type"`
	CorrelationID  string `json:"correlation_id,omitempty"`
}

func (h *GithubSyncHandler) HandleApplyTeamMappings(w http.ResponseWriter, r *http.Request) {
	var req applyTeamMappingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Invalid team mappings request body: %v", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	log.Printf("📋 Team mappings apply request received for workspace %s (event: %s)", req.WorkspaceID, req.EventType)

	if req.WorkspaceID == "" || req.InstallationID == "" {
		http.Error(w, "workspace_id and installation_id are required", http.StatusBadRequest)
		return
	}

	report, err := h.githubUseCase.ApplyGithubTeamMappings(
		r.Context(), req.WorkspaceID, req.InstallationID, req.EventType, req.CorrelationID)
	if err != nil {
		h.writeErrorResponse(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, report)
}

func (h *GithubSyncHandler) writeErrorResponse(w http.ResponseWriter, err error) {
	switch {
	case core.IsUnauthorizedError(err):
		log.Printf("❌ Unauthorized: %v", err)
		http.Error(w, "forbidden", http.StatusForbidden)
	case core.IsNotFoundError(err):
		log.Printf("❌ Not found: %v", err)
		http.Error(w, "not found", http.StatusNotFound)
	case core.IsValidationError(err):
		log.Printf("❌ Validation failed: %v", err)
		http.Error(w, "validation failed", http.StatusBadRequest)
	default:
		log.Printf("❌ Request failed: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (h *GithubSyncHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("❌ Failed to encode JSON response: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

package api

import (
	"net/http"

	"github.com/newthinker/strategylab/internal/api/response"
	"github.com/newthinker/strategylab/internal/session"
	"github.com/newthinker/strategylab/internal/workspace"
)

// RunView is the JSON form of a workspace.
type RunView struct {
	workspace.Snapshot
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

// RunHandler exposes the signed-in session's workspace as JSON.
type RunHandler struct {
	workspaces *workspace.Store
}

// NewRunHandler creates a new run handler.
func NewRunHandler(workspaces *workspace.Store) *RunHandler {
	return &RunHandler{workspaces: workspaces}
}

// Get returns the current phase, request, result and error of the workspace.
func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap := h.workspaces.Get(session.IDFromContext(r.Context()))

	view := RunView{Snapshot: snap}
	if len(snap.Form.Errors) > 0 {
		view.FieldErrors = make(map[string]string, len(snap.Form.Errors))
		for f, msg := range snap.Form.Errors {
			view.FieldErrors[string(f)] = msg
		}
	}
	response.JSON(w, http.StatusOK, view)
}

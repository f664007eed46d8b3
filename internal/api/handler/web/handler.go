package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/newthinker/strategylab/internal/apiclient"
	"github.com/newthinker/strategylab/internal/session"
	"github.com/newthinker/strategylab/internal/workspace"
	"go.uber.org/zap"
)

//go:embed templates/*
var templateFS embed.FS

// pages lists the page templates, each parsed together with layout.html.
var pages = []string{"home.html", "login.html", "signup.html", "backtest.html"}

// Authenticator signs users up and in against the backend.
type Authenticator interface {
	Signup(ctx context.Context, username, email, password string) (*apiclient.AuthResponse, error)
	Login(ctx context.Context, email, password string) (*apiclient.AuthResponse, error)
}

// Recorder receives page-level metrics. *metrics.Registry satisfies it.
type Recorder interface {
	RecordAuth(kind string, ok bool)
	RecordExport(format string)
}

type nopRecorder struct{}

func (nopRecorder) RecordAuth(string, bool) {}
func (nopRecorder) RecordExport(string)     {}

// Dependencies are the collaborators of the page handlers.
type Dependencies struct {
	Sessions   *session.Manager
	Auth       Authenticator
	Workspaces *workspace.Store
	Metrics    Recorder
	Logger     *zap.Logger
}

// Handler provides web UI handlers with template rendering
type Handler struct {
	// pageTemplates holds one template set per page: layout.html plus the page
	pageTemplates map[string]*template.Template

	sessions   *session.Manager
	auth       Authenticator
	workspaces *workspace.Store
	metrics    Recorder
	logger     *zap.Logger
}

// NewHandler creates a web handler with templates loaded from templatesDir.
// If templatesDir is empty, it falls back to embedded templates.
func NewHandler(templatesDir string, deps Dependencies) (*Handler, error) {
	fsys := TemplateFS()
	if templatesDir != "" {
		fsys = os.DirFS(filepath.Clean(templatesDir))
	}
	return NewHandlerWithFS(fsys, deps)
}

// NewHandlerWithFS creates a web handler using a custom filesystem.
func NewHandlerWithFS(fsys fs.FS, deps Dependencies) (*Handler, error) {
	pageTemplates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		tmpl, err := template.New(page).Funcs(funcs).ParseFS(fsys, "layout.html", page)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}
		pageTemplates[page] = tmpl
	}

	if deps.Metrics == nil {
		deps.Metrics = nopRecorder{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &Handler{
		pageTemplates: pageTemplates,
		sessions:      deps.Sessions,
		auth:          deps.Auth,
		workspaces:    deps.Workspaces,
		metrics:       deps.Metrics,
		logger:        deps.Logger.Named("web"),
	}, nil
}

var funcs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
}

// render executes the layout of page with the given data and status.
func (h *Handler) render(w http.ResponseWriter, status int, page string, data any) {
	h.execute(w, status, page, "layout.html", data)
}

// renderFragment executes a named block of page without the layout.
func (h *Handler) renderFragment(w http.ResponseWriter, page, name string, data any) {
	h.execute(w, http.StatusOK, page, name, data)
}

func (h *Handler) execute(w http.ResponseWriter, status int, page, name string, data any) {
	tmpl, ok := h.pageTemplates[page]
	if !ok {
		http.Error(w, "template not found: "+page, http.StatusInternalServerError)
		return
	}

	// Buffer so a failing template does not leave a half-written page.
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("template execution failed",
			zap.String("page", page),
			zap.String("template", name),
			zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// TemplateFS returns the embedded template filesystem for external use.
func TemplateFS() fs.FS {
	subFS, err := fs.Sub(templateFS, "templates")
	if err != nil {
		// This should never happen with valid embed directive
		return templateFS
	}
	return subFS
}

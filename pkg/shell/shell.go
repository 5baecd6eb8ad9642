// Package shell renders the application's root HTML document. Before the
// document is rendered, BeforeLoad hooks may populate the RouteContext (for
// example with the caller's identity) and loaders may fetch data for it.
package shell

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"appshell/pkg/apiclient"
	"appshell/pkg/toast"

	"github.com/gorilla/mux"
)

//go:embed templates/document.html
var templates embed.FS

var document = template.Must(template.ParseFS(templates, "templates/document.html"))

// RouteContext is built per request and shared by hooks, loaders and the
// template.
type RouteContext struct {
	Path     string
	Template string
	Client   *apiclient.Client

	UserID   string
	Token    string
	Username string
}

// BeforeLoad runs before any loader. An error aborts the render.
type BeforeLoad func(r *http.Request, rc *RouteContext) error

// Loader fetches render data. Errors are logged and rendering continues.
type Loader func(ctx context.Context, rc *RouteContext) error

type Options struct {
	Title  string
	Dev    bool
	Client *apiclient.Client
	Toasts *toast.Store
	Logger *slog.Logger
}

type Shell struct {
	opts    Options
	hooks   []BeforeLoad
	loaders []Loader
}

func New(opts Options) *Shell {
	if opts.Title == "" {
		opts.Title = "My App"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Shell{opts: opts}
}

func (s *Shell) Use(h BeforeLoad) {
	s.hooks = append(s.hooks, h)
}

func (s *Shell) Load(l Loader) {
	s.loaders = append(s.loaders, l)
}

// routerState is what the client bundle hydrates from. The session token
// stays server-side.
type routerState struct {
	UserID string `json:"userId,omitempty"`
}

type page struct {
	Title  string
	Dev    bool
	Hooks  int
	Route  *RouteContext
	Toasts []toast.Toast
	State  routerState
}

func (s *Shell) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := &RouteContext{Path: r.URL.Path, Client: s.opts.Client}
	if route := mux.CurrentRoute(r); route != nil {
		rc.Template, _ = route.GetPathTemplate()
	}

	for _, hook := range s.hooks {
		if err := hook(r, rc); err != nil {
			s.opts.Logger.ErrorContext(r.Context(), "before load", "path", rc.Path, "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}

	for _, load := range s.loaders {
		if err := load(r.Context(), rc); err != nil {
			s.opts.Logger.WarnContext(r.Context(), "loader failed", "path", rc.Path, "error", err)
		}
	}

	p := page{
		Title: s.opts.Title,
		Dev:   s.opts.Dev,
		Hooks: len(s.hooks),
		Route: rc,
		State: routerState{UserID: rc.UserID},
	}

	if s.opts.Toasts != nil {
		toasts, err := s.opts.Toasts.Drain(w, r)
		if err != nil {
			s.opts.Logger.WarnContext(r.Context(), "toast drain", "error", err)
		}
		p.Toasts = toasts
	}

	var buf bytes.Buffer
	if err := document.Execute(&buf, p); err != nil {
		s.opts.Logger.ErrorContext(r.Context(), "render document", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := buf.WriteTo(w); err != nil {
		s.opts.Logger.ErrorContext(r.Context(), "failed to write document", "error", err)
	}
}

package routing

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"appshell/pkg/auth"
	"appshell/pkg/handlers"
	"appshell/pkg/middleware"
	"appshell/pkg/shell"
	"appshell/pkg/toast"
	"appshell/pkg/user"
)

const staticPath = "./static"

type Deps struct {
	Users     user.ServiceInterface
	Auth      *auth.Backend
	Toasts    *toast.Store
	Shell     *shell.Shell
	Logger    *slog.Logger
	StaticDir string
}

func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Panic(d.Logger))

	api := r.PathPrefix("/api").Subrouter()
	InitRoutes(api, d)

	authHandler := handlers.NewAuthHandler(d.Auth, d.Logger)
	r.HandleFunc("/_serverFn/fetchAuth", authHandler.FetchAuth).Methods(http.MethodGet).Name("fetchAuth")

	staticDir := d.StaticDir
	if staticDir == "" {
		staticDir = staticPath
	}
	ServeStaticFiles(r, staticDir)
	ServeFallback(r, d.Shell, d.Logger)
	return r
}

func InitRoutes(api *mux.Router, d Deps) {
	userHandler := handlers.NewUserHandler(d.Users, d.Auth, d.Toasts, d.Logger)

	/* auth routers */
	api.HandleFunc("/register", userHandler.Register).Methods(http.MethodPost).Name("register")
	api.HandleFunc("/login", userHandler.Login).Methods(http.MethodPost).Name("login")

	/* session routers */
	sessionRouter := api.PathPrefix("").Subrouter()
	sessionRouter.Use(middleware.RequireSession(d.Auth, d.Logger))
	sessionRouter.HandleFunc("/logout", userHandler.Logout).Methods(http.MethodPost).Name("logout")
	sessionRouter.HandleFunc("/logout/all", userHandler.LogoutAll).Methods(http.MethodPost).Name("logoutAll")
	sessionRouter.HandleFunc("/me", userHandler.Me).Methods(http.MethodGet).Name("me")
}

func ServeStaticFiles(r *mux.Router, dir string) {
	fs := http.FileServer(http.Dir(dir))
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", fs))
}

// ServeFallback renders the shell for every other GET. Unknown API and
// server-function paths get a JSON 404 instead of a document.
func ServeFallback(r *mux.Router, sh *shell.Shell, logger *slog.Logger) {
	r.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") || strings.HasPrefix(r.URL.Path, "/_serverFn/") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			if _, err := w.Write([]byte(`{"message":"not found"}`)); err != nil {
				logger.Error("failed to write fallback JSON", slog.String("path", r.URL.Path), slog.Any("error", err))
			}
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		sh.ServeHTTP(w, r)
	})
}

// StartServer serves h on addr until ctx is cancelled, then drains in-flight
// requests for up to ten seconds.
func StartServer(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("server shutting down")
	return srv.Shutdown(shutdownCtx)
}

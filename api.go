package techtrends

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"github.com/thisdougb/techtrends/internal/config"
	"github.com/thisdougb/techtrends/internal/handlers"
	"github.com/thisdougb/techtrends/internal/metrics"
	"github.com/thisdougb/techtrends/internal/render"
	"github.com/thisdougb/techtrends/internal/storage"
)

// Options configures the blog server
type Options struct {
	Addr            string
	SecretKey       string
	SessionName     string
	RateLimit       int // requests per second per client, 0 disables
	RateBurst       int
	ShutdownTimeout time.Duration
	Store           *storage.Config
}

// DefaultSecretKey is the TECHTRENDS_SECRET_KEY fallback. Anyone can sign
// cookies with it, so it is only fit for local use.
const DefaultSecretKey = "your secret key"

// LoadOptions reads server options from the environment and bound flags
func LoadOptions() (*Options, error) {
	store, err := storage.LoadConfig()
	if err != nil {
		return nil, err
	}

	opts := &Options{
		Addr:            config.StringValue("TECHTRENDS_ADDR"),
		SecretKey:       config.StringValue("TECHTRENDS_SECRET_KEY"),
		SessionName:     config.StringValue("TECHTRENDS_SESSION_NAME"),
		RateLimit:       config.IntValue("TECHTRENDS_RATE_LIMIT"),
		RateBurst:       config.IntValue("TECHTRENDS_RATE_BURST"),
		ShutdownTimeout: config.DurationValue("TECHTRENDS_SHUTDOWN_TIMEOUT"),
		Store:           store,
	}

	if opts.SecretKey == "" {
		return nil, errors.New("session secret key is empty")
	}
	if opts.SessionName == "" {
		return nil, errors.New("session cookie name is empty")
	}
	if opts.SecretKey == DefaultSecretKey {
		config.LogWarn(context.Background(), "TECHTRENDS_SECRET_KEY is the default value, set it before exposing the server")
	}

	return opts, nil
}

// App is the blog web application
type App struct {
	opts     *Options
	repo     *storage.Repository
	pages    *render.Renderer
	sessions *sessions.CookieStore
	limiter  *handlers.RateLimiter // nil when rate limiting is off
}

// New builds the application. The store file is not touched until the
// first request needs it.
func New(opts *Options) (*App, error) {
	pages, err := render.New()
	if err != nil {
		return nil, err
	}

	cookies := sessions.NewCookieStore([]byte(opts.SecretKey))
	cookies.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	app := &App{
		opts:     opts,
		repo:     storage.NewRepository(storage.NewAccessor(opts.Store)),
		pages:    pages,
		sessions: cookies,
	}
	if opts.RateLimit > 0 {
		app.limiter = handlers.NewRateLimiter(opts.RateLimit, opts.RateBurst)
	}

	return app, nil
}

// Handler returns the full middleware chain around the blog routes.
func (a *App) Handler() http.Handler {
	router := handlers.NewRouter(a.repo, a.pages)
	router.Handle("/metrics/prometheus", metrics.Handler()).Methods(http.MethodGet)

	var h http.Handler = handlers.Sessions(a.sessions, a.opts.SessionName)(router)
	if a.limiter != nil {
		h = a.limiter.Handler(h)
	}
	return handlers.Logging(h)
}

// ListenAndServe serves until ctx is cancelled, then waits up to the
// shutdown timeout for in-flight requests.
func (a *App) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.opts.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if a.limiter != nil {
		a.limiter.StartCleanup(ctx, time.Minute)
	}

	errc := make(chan error, 1)
	go func() {
		config.LogInfo(ctx, fmt.Sprintf("listening on %s", a.opts.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	config.LogInfo(context.Background(), "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.opts.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

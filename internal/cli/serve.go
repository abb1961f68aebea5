package cli

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/matzehuels/dronemesh/pkg/buildinfo"
	"github.com/matzehuels/dronemesh/pkg/config"
	"github.com/matzehuels/dronemesh/pkg/errors"
	"github.com/matzehuels/dronemesh/pkg/observability"
	"github.com/matzehuels/dronemesh/pkg/pipeline"
)

const (
	// maxRequestBody bounds the size of a POST /v1/meshes body.
	maxRequestBody = 1 << 20

	shutdownTimeout = 10 * time.Second
)

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the mesh API over HTTP",
		Long: `Serve the mesh API:

  GET  /healthz             liveness probe
  POST /v1/meshes           thin a mesh and store the run
  GET  /v1/meshes/{runID}   fetch a stored run

Requests above [server] max_nodes are rejected with INVALID_SIZE, and a
request that outlives [server] request_timeout fails with TIMEOUT.

Runs are kept in the configured cache. Use the redis backend to share runs
between replicas.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = c.Config.Server.Addr
			}
			ctx := cmd.Context()
			if noCache {
				printWarning("Caching disabled: GET /v1/meshes/{runID} will return 404")
			}

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := &http.Server{
				Addr:              addr,
				Handler:           newServer(runner, c.Config.PipelineOptions(), c.Config.Server, c.Logger).Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return serve(ctx, srv, c.Logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "keep nothing between requests; stored runs cannot be fetched")

	return cmd
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, logger *log.Logger) error {
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// =============================================================================
// Server - HTTP handlers
// =============================================================================

// server holds the dependencies of the HTTP handlers.
type server struct {
	runner   *pipeline.Runner
	defaults pipeline.Options
	limits   config.Server
	logger   *log.Logger
}

func newServer(r *pipeline.Runner, defaults pipeline.Options, limits config.Server, logger *log.Logger) *server {
	if limits.MaxNodes <= 0 {
		limits.MaxNodes = config.DefaultMaxNodes
	}
	if limits.RequestTimeout.Duration <= 0 {
		limits.RequestTimeout.Duration = config.DefaultRequestTimeout
	}
	return &server{runner: r, defaults: defaults, limits: limits, logger: logger}
}

// Routes builds the chi router.
func (s *server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1/meshes", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Get("/{runID}", s.handleGet)
	})
	return r
}

// instrument reports requests to the server hooks and sets common headers.
func (s *server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		w.Header().Set("Server", buildinfo.UserAgent())

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ctx := withLogger(r.Context(), s.logger.With("request_id", middleware.GetReqID(r.Context())))
		r = r.WithContext(ctx)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		observability.Server().OnRequest(ctx, r.Method, route)
		observability.Server().OnResponse(ctx, r.Method, route, ww.Status(), time.Since(start))
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// createRequest is the body of POST /v1/meshes. Omitted fields take the
// server's configured defaults.
type createRequest struct {
	Nodes      *int     `json:"nodes"`
	Percentage *int     `json:"percentage"`
	Weight     float64  `json:"weight,omitempty"`
	Layout     string   `json:"layout,omitempty"`
	FloorMode  string   `json:"floor_mode,omitempty"`
	Formats    []string `json:"formats,omitempty"`
	Detailed   bool     `json:"detailed,omitempty"`
}

func (req createRequest) options(defaults pipeline.Options) pipeline.Options {
	opts := defaults
	opts.Formats = append([]string(nil), defaults.Formats...)
	if req.Nodes != nil {
		opts.Nodes = *req.Nodes
	}
	if req.Percentage != nil {
		opts.Percentage = *req.Percentage
	}
	if req.Weight != 0 {
		opts.Weight = req.Weight
	}
	if req.Layout != "" {
		opts.Layout = req.Layout
	}
	if req.FloorMode != "" {
		opts.FloorMode = req.FloorMode
	}
	if len(req.Formats) > 0 {
		opts.Formats = req.Formats
	}
	opts.Detailed = req.Detailed
	return opts
}

func (s *server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body"))
		return
	}

	opts := req.options(s.defaults)
	if opts.Nodes > s.limits.MaxNodes {
		writeError(w, r, errors.New(errors.ErrCodeInvalidSize, "node count too large: %d (server max %d)", opts.Nodes, s.limits.MaxNodes))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.limits.RequestTimeout.Duration)
	defer cancel()
	opts.Logger = loggerFromContext(ctx)

	res, err := s.runner.Execute(ctx, opts)
	if stderrors.Is(err, context.DeadlineExceeded) {
		err = errors.Wrap(errors.ErrCodeTimeout, err, "request exceeded %s", s.limits.RequestTimeout)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	run := pipeline.NewRun(opts, res)
	if err := s.runner.SaveRun(ctx, run); err != nil {
		loggerFromContext(ctx).Warn("run not stored", "run_id", run.ID, "error", err)
	}

	w.Header().Set("Location", "/v1/meshes/"+run.ID)
	writeJSON(w, http.StatusCreated, run)
}

func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	run, err := s.runner.LoadRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		loggerFromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: errors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

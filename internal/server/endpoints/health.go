package endpoints

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/fichemax/fichemax/internal/api"
	"github.com/fichemax/fichemax/internal/svcctx"
	"github.com/fichemax/fichemax/version"
)

// HealthEndpoint handles GET /health - liveness probe.
type HealthEndpoint struct{}

// NewHealthEndpoint creates the health endpoint.
func NewHealthEndpoint() *HealthEndpoint {
	return &HealthEndpoint{}
}

// HealthResponse is the response for the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

// Route returns the HTTP route for this endpoint.
func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return http.MethodGet, "/health", e.handle
}

// RequiresInit returns false - health works before initialization completes.
func (e *HealthEndpoint) RequiresInit() bool { return false }

func (e *HealthEndpoint) handle(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: version.GitRelease,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// Command returns the CLI command for this endpoint.
func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/health", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ReadyEndpoint handles GET /ready - readiness probe including the database.
type ReadyEndpoint struct{}

// NewReadyEndpoint creates the ready endpoint.
func NewReadyEndpoint() *ReadyEndpoint {
	return &ReadyEndpoint{}
}

// ReadyResponse is the response for the ready endpoint.
type ReadyResponse struct {
	Ready    bool   `json:"ready"`
	Database string `json:"database"`
}

// Route returns the HTTP route for this endpoint.
func (e *ReadyEndpoint) Route() (string, string, http.HandlerFunc) {
	return http.MethodGet, "/ready", e.handle
}

// RequiresInit returns false - ready reports its own initialization state.
func (e *ReadyEndpoint) RequiresInit() bool { return false }

func (e *ReadyEndpoint) handle(w http.ResponseWriter, r *http.Request) {
	pool := svcctx.DBFrom(r.Context())
	if pool == nil {
		writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{Ready: false, Database: "not connected"})
		return
	}
	if err := pool.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{Ready: false, Database: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ReadyResponse{Ready: true, Database: "ok"})
}

// Command returns the CLI command for this endpoint.
func (e *ReadyEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "ready",
		Short: "Check server readiness (database connectivity)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ReadyResponse
			if err := client.Get(cmd.Context(), "/ready", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// StatusEndpoint handles GET /status - pipeline overview.
type StatusEndpoint struct{}

// NewStatusEndpoint creates the status endpoint.
func NewStatusEndpoint() *StatusEndpoint {
	return &StatusEndpoint{}
}

// StatusResponse is the response for the status endpoint.
type StatusResponse struct {
	Version  string `json:"version"`
	Model    string `json:"model"`
	Renderer string `json:"renderer"`
	Chunks   int    `json:"chunks"`
	Sheets   int    `json:"sheets"`
}

// Route returns the HTTP route for this endpoint.
func (e *StatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return http.MethodGet, "/status", e.handle
}

// RequiresInit returns true - status reads from the database.
func (e *StatusEndpoint) RequiresInit() bool { return true }

func (e *StatusEndpoint) handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp := StatusResponse{Version: version.GitRelease}
	if cfg := svcctx.ConfigFrom(ctx); cfg != nil {
		resp.Model = cfg.LLM.Model
	}
	if renderer := svcctx.RendererFrom(ctx); renderer != nil {
		resp.Renderer = renderer.Name()
	}
	if store := svcctx.RetrieverFrom(ctx); store != nil {
		if n, err := store.Count(ctx); err == nil {
			resp.Chunks = n
		}
	}
	if sheets := svcctx.SheetsFrom(ctx); sheets != nil {
		if n, err := sheets.Count(ctx); err == nil {
			resp.Sheets = n
		}
	}

	writeData(w, http.StatusOK, resp)
}

// Command returns the CLI command for this endpoint.
func (e *StatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pipeline status (model, renderer, stored data)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp struct {
				Success bool           `json:"success"`
				Data    StatusResponse `json:"data"`
			}
			if err := client.Get(cmd.Context(), "/status", &resp); err != nil {
				return err
			}
			return api.Output(resp.Data)
		},
	}
}

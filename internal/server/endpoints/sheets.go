package endpoints

import (
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fichemax/fichemax/internal/api"
	"github.com/fichemax/fichemax/internal/sheetstore"
	"github.com/fichemax/fichemax/internal/svcctx"
)

// SheetsEndpoint handles GET /sheets - list previously generated sheets,
// newest first.
type SheetsEndpoint struct{}

// NewSheetsEndpoint creates the sheets endpoint.
func NewSheetsEndpoint() *SheetsEndpoint {
	return &SheetsEndpoint{}
}

// Route returns the HTTP route for this endpoint.
func (e *SheetsEndpoint) Route() (string, string, http.HandlerFunc) {
	return http.MethodGet, "/sheets", e.handle
}

// RequiresInit returns true - listing reads from the database.
func (e *SheetsEndpoint) RequiresInit() bool { return true }

func (e *SheetsEndpoint) handle(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Paramètre limit invalide.", "")
			return
		}
		limit = n
	}

	store := svcctx.SheetsFrom(r.Context())
	logger := svcctx.LoggerFrom(r.Context())

	records, err := store.List(r.Context(), limit)
	if err != nil {
		logger.Error("failed to list sheets", "error", err)
		writeError(w, http.StatusInternalServerError, "La récupération des fiches a échoué.", err.Error())
		return
	}
	if records == nil {
		records = []*sheetstore.Record{}
	}

	writeData(w, http.StatusOK, records)
}

// Command returns the CLI command for this endpoint.
func (e *SheetsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "List previously generated study sheets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/sheets"
			if limit > 0 {
				path += "?limit=" + strconv.Itoa(limit)
			}

			client := api.NewClient(getServerURL())
			var resp struct {
				Success bool                `json:"success"`
				Data    []sheetstore.Record `json:"data"`
			}
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp.Data)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of sheets to list")
	return cmd
}

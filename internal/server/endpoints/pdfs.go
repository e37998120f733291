package endpoints

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fichemax/fichemax/internal/svcctx"
)

// PDFsEndpoint handles GET /pdfs/{file} - serve an archived PDF from the
// home directory.
type PDFsEndpoint struct{}

// NewPDFsEndpoint creates the pdfs endpoint.
func NewPDFsEndpoint() *PDFsEndpoint {
	return &PDFsEndpoint{}
}

// Route returns the HTTP route for this endpoint.
func (e *PDFsEndpoint) Route() (string, string, http.HandlerFunc) {
	return http.MethodGet, "/pdfs/{file}", e.handle
}

// RequiresInit returns true - the archive lives under the home directory.
func (e *PDFsEndpoint) RequiresInit() bool { return true }

func (e *PDFsEndpoint) handle(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("file")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		writeError(w, http.StatusBadRequest, "Nom de fichier invalide.", "")
		return
	}
	if !strings.HasSuffix(name, ".pdf") {
		writeError(w, http.StatusBadRequest, "Seuls les fichiers PDF sont servis.", "")
		return
	}

	h := svcctx.HomeFrom(r.Context())
	path := h.PDFPath(name)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "Fichier introuvable.", "")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

// Command returns the CLI command for this endpoint.
func (e *PDFsEndpoint) Command(getServerURL func() string) *cobra.Command {
	// Archived PDFs are fetched through the pdf command or directly over
	// HTTP; no dedicated CLI command.
	return nil
}

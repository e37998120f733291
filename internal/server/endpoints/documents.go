package endpoints

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fichemax/fichemax/internal/api"
	"github.com/fichemax/fichemax/internal/retriever"
	"github.com/fichemax/fichemax/internal/svcctx"
)

// DocumentsEndpoint handles POST /documents - index course material chunks
// into the vector store. Re-posting a document_id replaces its chunks.
type DocumentsEndpoint struct{}

// NewDocumentsEndpoint creates the documents endpoint.
func NewDocumentsEndpoint() *DocumentsEndpoint {
	return &DocumentsEndpoint{}
}

// DocumentChunk is one piece of course material to index.
type DocumentChunk struct {
	Content string `json:"content"`
	Page    int    `json:"page"`
}

// DocumentsRequest is the request body for document indexing.
type DocumentsRequest struct {
	DocumentID string          `json:"document_id"`
	Chunks     []DocumentChunk `json:"chunks"`
}

// DocumentsResponse is the data payload after indexing.
type DocumentsResponse struct {
	DocumentID string `json:"document_id"`
	Indexed    int    `json:"indexed"`
}

// Route returns the HTTP route for this endpoint.
func (e *DocumentsEndpoint) Route() (string, string, http.HandlerFunc) {
	return http.MethodPost, "/documents", e.handle
}

// RequiresInit returns true - indexing needs the database and embedder.
func (e *DocumentsEndpoint) RequiresInit() bool { return true }

func (e *DocumentsEndpoint) handle(w http.ResponseWriter, r *http.Request) {
	var req DocumentsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Corps de requête invalide.", err.Error())
		return
	}
	if strings.TrimSpace(req.DocumentID) == "" {
		writeError(w, http.StatusBadRequest, "L'identifiant du document est requis.", "")
		return
	}
	if len(req.Chunks) == 0 {
		writeError(w, http.StatusBadRequest, "Au moins un extrait est requis.", "")
		return
	}

	chunks := make([]retriever.Chunk, len(req.Chunks))
	for i, c := range req.Chunks {
		chunks[i] = retriever.Chunk{Content: c.Content, Page: c.Page}
	}

	store := svcctx.RetrieverFrom(r.Context())
	logger := svcctx.LoggerFrom(r.Context())

	n, err := store.Index(r.Context(), req.DocumentID, chunks)
	if err != nil {
		logger.Error("document indexing failed", "document_id", req.DocumentID, "error", err)
		writeError(w, http.StatusInternalServerError, "L'indexation du document a échoué.", err.Error())
		return
	}

	writeData(w, http.StatusCreated, DocumentsResponse{DocumentID: req.DocumentID, Indexed: n})
}

// Command returns the CLI command for this endpoint.
func (e *DocumentsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		documentID string
		page       int
	)

	cmd := &cobra.Command{
		Use:   "index [file...]",
		Short: "Index text files as course material",
		Long: `Index reads each file as one chunk of course material and posts the
batch to the server, which embeds the chunks and stores them for retrieval.
Re-indexing the same --document-id replaces its previous chunks.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := DocumentsRequest{DocumentID: documentID}
			for i, path := range args {
				content, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				req.Chunks = append(req.Chunks, DocumentChunk{
					Content: string(content),
					Page:    page + i,
				})
			}

			client := api.NewClient(getServerURL())
			var resp struct {
				Success bool              `json:"success"`
				Data    DocumentsResponse `json:"data"`
			}
			if err := client.Post(cmd.Context(), "/documents", req, &resp); err != nil {
				return err
			}
			return api.Output(resp.Data)
		},
	}
	cmd.Flags().StringVarP(&documentID, "document-id", "d", "course", "logical document the chunks belong to")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number of the first file")
	return cmd
}

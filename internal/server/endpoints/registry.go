package endpoints

import "github.com/fichemax/fichemax/internal/api"

// All returns every endpoint in registration order.
func All() []api.Endpoint {
	return []api.Endpoint{
		NewHealthEndpoint(),
		NewReadyEndpoint(),
		NewStatusEndpoint(),
		NewGenerateEndpoint(),
		NewGeneratePDFEndpoint(),
		NewAskEndpoint(),
		NewDocumentsEndpoint(),
		NewSheetsEndpoint(),
		NewPDFsEndpoint(),
	}
}

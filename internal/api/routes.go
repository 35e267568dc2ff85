package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/RMahshie/runningls/internal/api/handlers"
	"github.com/RMahshie/runningls/internal/processing"
	"github.com/RMahshie/runningls/internal/repository"
	"github.com/RMahshie/runningls/internal/storage"
	"github.com/RMahshie/runningls/pkg/periodogram"
)

// Settings are the server-side defaults shared by the periodogram endpoints
type Settings struct {
	Defaults        periodogram.Options
	MaxInlinePoints int
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(api huma.API, s3Service storage.S3Service, repo repository.PeriodogramRepository, processingSvc processing.ProcessingService, settings Settings) {
	h := handlers.NewPeriodogramHandler(repo, s3Service, processingSvc, settings.Defaults, settings.MaxInlinePoints)

	huma.Register(api, huma.Operation{
		OperationID: "createPeriodogram",
		Method:      http.MethodPost,
		Path:        "/api/periodograms",
		Summary:     "Create a new periodogram job",
		Description: "Creates a periodogram job and returns an upload URL for its light curve",
		Tags:        []string{"Periodogram"},
	}, h.CreatePeriodogram)

	huma.Register(api, huma.Operation{
		OperationID: "computePeriodogram",
		Method:      http.MethodPost,
		Path:        "/api/periodograms/compute",
		Summary:     "Compute a periodogram inline",
		Description: "Computes a running periodogram of a light curve sent in the request body",
		Tags:        []string{"Periodogram"},
	}, h.ComputePeriodogram)

	huma.Register(api, huma.Operation{
		OperationID: "startProcessing",
		Method:      http.MethodPost,
		Path:        "/api/periodograms/{id}/process",
		Summary:     "Start processing a periodogram job",
		Description: "Starts processing an uploaded light curve",
		Tags:        []string{"Periodogram"},
	}, h.StartProcessing)

	huma.Register(api, huma.Operation{
		OperationID: "getPeriodogramStatus",
		Method:      http.MethodGet,
		Path:        "/api/periodograms/{id}/status",
		Summary:     "Get periodogram status",
		Description: "Returns the current status and progress of a periodogram job",
		Tags:        []string{"Periodogram"},
	}, h.GetPeriodogramStatus)

	huma.Register(api, huma.Operation{
		OperationID: "getPeriodogramResults",
		Method:      http.MethodGet,
		Path:        "/api/periodograms/{id}/results",
		Summary:     "Get periodogram results",
		Description: "Returns the periodogram matrix, its axes and a link to the rendered image",
		Tags:        []string{"Periodogram"},
	}, h.GetPeriodogramResults)
}

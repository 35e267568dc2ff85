package models

import (
	"time"

	"github.com/RMahshie/runningls/pkg/periodogram"
)

// PeriodogramOptions are the user-tunable parameters of a run. Unset fields
// fall back to the server defaults.
type PeriodogramOptions struct {
	SegmentLength *float64 `json:"segment_length,omitempty" exclusiveMinimum:"0" doc:"Window length in days"`
	StepSize      *float64 `json:"step_size,omitempty" exclusiveMinimum:"0" doc:"Window step in days"`
	FrequencyUnit string   `json:"frequency_unit,omitempty" doc:"Frequency unit: 1/d, Hz, mHz, uHz or nHz"`
	MinFrequency  *float64 `json:"min_frequency,omitempty" minimum:"0" doc:"Lowest grid frequency, in frequency_unit"`
	MaxFrequency  *float64 `json:"max_frequency,omitempty" minimum:"0" doc:"Grid upper bound (exclusive), in frequency_unit"`
	Oversample    *float64 `json:"oversample,omitempty" exclusiveMinimum:"0" doc:"Frequency grid oversampling factor"`
	Normalization string   `json:"normalization,omitempty" enum:"amplitude,psd,power" doc:"Cell normalization"`
	Colormap      string   `json:"colormap,omitempty" doc:"Colormap for the rendered image"`
}

// Apply overlays the set fields on base.
func (o PeriodogramOptions) Apply(base periodogram.Options) (periodogram.Options, error) {
	opts := base
	if o.SegmentLength != nil {
		opts.SegmentLength = *o.SegmentLength
	}
	if o.StepSize != nil {
		opts.StepSize = *o.StepSize
	}
	if o.FrequencyUnit != "" {
		unit, err := periodogram.ParseFrequencyUnit(o.FrequencyUnit)
		if err != nil {
			return opts, err
		}
		opts.Unit = unit
	}
	if o.MinFrequency != nil {
		opts.MinFrequency = o.MinFrequency
	}
	if o.MaxFrequency != nil {
		opts.MaxFrequency = o.MaxFrequency
	}
	if o.Oversample != nil {
		opts.Oversample = *o.Oversample
	}
	if o.Normalization != "" {
		norm, err := periodogram.ParseNormalization(o.Normalization)
		if err != nil {
			return opts, err
		}
		opts.Normalization = norm
	}
	return opts, opts.Validate()
}

// CreatePeriodogramRequest represents a request to create a new periodogram job
type CreatePeriodogramRequest struct {
	Body struct {
		SessionID string              `json:"session_id" minLength:"10" maxLength:"50" required:"true" doc:"Client session identifier"`
		FileSize  int64               `json:"file_size" minimum:"1" maximum:"104857600" required:"true" doc:"Light curve file size in bytes"`
		MimeType  string              `json:"mime_type" enum:"text/csv,text/plain,application/octet-stream" required:"true" doc:"Light curve MIME type"`
		Options   *PeriodogramOptions `json:"options,omitempty" doc:"Periodogram parameters"`
	}
}

// CreatePeriodogramResponseBody is the body of the create response
type CreatePeriodogramResponseBody struct {
	ID        string `json:"id" doc:"Periodogram job identifier"`
	UploadURL string `json:"upload_url" doc:"Pre-signed S3 URL for the light curve upload"`
	ExpiresIn int    `json:"expires_in" doc:"URL expiration time in seconds"`
}

// CreatePeriodogramResponse represents the response from creating a job
type CreatePeriodogramResponse struct {
	Body CreatePeriodogramResponseBody
}

// PeriodogramIDRequest addresses a single job
type PeriodogramIDRequest struct {
	ID string `path:"id" doc:"Periodogram job ID"`
}

// GetPeriodogramStatusResponseBody is the body of the status response
type GetPeriodogramStatusResponseBody struct {
	ID        string  `json:"id" doc:"Periodogram job ID"`
	Status    string  `json:"status" enum:"pending,processing,completed,failed" doc:"Job status"`
	Progress  int     `json:"progress" minimum:"0" maximum:"100" doc:"Progress percentage"`
	Message   string  `json:"message,omitempty" doc:"Human-readable status message"`
	ResultsID *string `json:"results_id,omitempty" doc:"Results ID when the job completes"`
}

// GetPeriodogramStatusResponse represents the current status of a job
type GetPeriodogramStatusResponse struct {
	Body GetPeriodogramStatusResponseBody
}

// PeriodogramData is a computed running periodogram on the wire
type PeriodogramData struct {
	Frequencies   []float64                   `json:"frequencies" doc:"Frequency grid, in unit"`
	WindowStarts  []float64                   `json:"window_starts" doc:"Window start times in days"`
	WindowStops   []float64                   `json:"window_stops" doc:"Window stop times in days (exclusive)"`
	WindowCenters []float64                   `json:"window_centers" doc:"Window center times in days"`
	Matrix        [][]float64                 `json:"matrix" doc:"One row per window, one column per frequency"`
	Failures      []periodogram.WindowFailure `json:"failures" doc:"Windows left empty because their data was degenerate"`
	Unit          string                      `json:"unit" doc:"Frequency unit"`
	Normalization string                      `json:"normalization" doc:"Cell normalization"`
}

// NewPeriodogramData flattens a result for transport and storage
func NewPeriodogramData(res *periodogram.Result) PeriodogramData {
	d := PeriodogramData{
		Frequencies:   res.Frequencies,
		WindowStarts:  make([]float64, len(res.Windows)),
		WindowStops:   make([]float64, len(res.Windows)),
		WindowCenters: res.WindowCenters,
		Matrix:        res.Matrix.ToRows(),
		Failures:      res.Failures,
		Unit:          res.Unit.String(),
		Normalization: string(res.Normalization),
	}
	for i, w := range res.Windows {
		d.WindowStarts[i] = w.Start
		d.WindowStops[i] = w.Stop
	}
	if d.Failures == nil {
		d.Failures = []periodogram.WindowFailure{}
	}
	return d
}

// Result rebuilds the periodogram result
func (d PeriodogramData) Result() (*periodogram.Result, error) {
	unit, err := periodogram.ParseFrequencyUnit(d.Unit)
	if err != nil {
		return nil, err
	}
	m, ok := periodogram.MatrixFromRows(d.Matrix)
	if !ok {
		return nil, periodogram.ErrInvalidInput
	}
	if m.Rows == 0 {
		m = periodogram.NewMatrix(0, len(d.Frequencies))
	}
	res := &periodogram.Result{
		Frequencies:   d.Frequencies,
		Windows:       make([]periodogram.Window, len(d.WindowStarts)),
		WindowCenters: d.WindowCenters,
		Matrix:        m,
		Failures:      d.Failures,
		Unit:          unit,
		Normalization: periodogram.Normalization(d.Normalization),
	}
	for i := range res.Windows {
		res.Windows[i] = periodogram.Window{Start: d.WindowStarts[i], Stop: d.WindowStops[i]}
	}
	return res, nil
}

// GetPeriodogramResultsResponseBody is the body of the results response
type GetPeriodogramResultsResponseBody struct {
	ID            string `json:"id" doc:"Results ID"`
	PeriodogramID string `json:"periodogram_id" doc:"Periodogram job ID"`
	PeriodogramData
	ImageURL  string    `json:"image_url,omitempty" doc:"Pre-signed URL of the rendered image"`
	CreatedAt time.Time `json:"created_at" doc:"When the results were stored"`
}

// GetPeriodogramResultsResponse represents the complete results of a job
type GetPeriodogramResultsResponse struct {
	Body GetPeriodogramResultsResponseBody
}

// StartProcessingRequest represents a request to start processing an uploaded light curve
type StartProcessingRequest struct {
	ID string `path:"id" doc:"Periodogram job ID"`
}

// StartProcessingResponse represents the response from starting processing
type StartProcessingResponse struct {
	Body struct {
		Message string `json:"message" doc:"Confirmation message"`
	}
}

// ComputePeriodogramRequest carries a light curve inline
type ComputePeriodogramRequest struct {
	Body struct {
		Time    []float64           `json:"time" minItems:"1" required:"true" doc:"Sample times in days"`
		Flux    []float64           `json:"flux" minItems:"1" required:"true" doc:"Flux values"`
		Options *PeriodogramOptions `json:"options,omitempty" doc:"Periodogram parameters"`
	}
}

// ComputePeriodogramResponse returns the computed periodogram
type ComputePeriodogramResponse struct {
	Body PeriodogramData
}

// Periodogram represents a periodogram job (for internal use)
type Periodogram struct {
	ID          string             `json:"id"`
	SessionID   string             `json:"session_id"`
	Status      string             `json:"status"`
	Progress    int                `json:"progress"`
	InputS3Key  *string            `json:"input_s3_key,omitempty"`
	ImageS3Key  *string            `json:"image_s3_key,omitempty"`
	Options     PeriodogramOptions `json:"options"`
	ErrorMsg    *string            `json:"error_message,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
}

// PeriodogramResults represents stored periodogram output
type PeriodogramResults struct {
	ID            string `json:"id"`
	PeriodogramID string `json:"periodogram_id"`
	PeriodogramData
	CreatedAt time.Time `json:"created_at"`
}

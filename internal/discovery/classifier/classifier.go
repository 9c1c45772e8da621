// Package classifier turns a free-text project description into a
// ProjectAnalysis, asking the remote AI service first and falling back to a
// deterministic keyword classifier when that service cannot answer.
package classifier

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	commonerrors "provider-discovery/internal/common/errors"
	commonhttp "provider-discovery/internal/common/http"
	"provider-discovery/internal/common/logger"
	"provider-discovery/internal/common/metrics"
	"provider-discovery/internal/common/validation"
	"provider-discovery/internal/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	ClassifyPath = "/api/ai/classify-project"

	DefaultTimeout = 10 * time.Second
	MinTimeout     = 8 * time.Second
	MaxTimeout     = 15 * time.Second

	DefaultFallbackConfidence = 0.55
)

// ErrClassificationUnavailable marks every reason the remote result was discarded.
var ErrClassificationUnavailable = errors.New("CLASSIFICATION_UNAVAILABLE")

// Fallback reasons, used as metric labels.
const (
	ReasonDisabled  = "disabled"
	ReasonTransport = "transport"
	ReasonTimeout   = "timeout"
	ReasonStatus    = "status"
	ReasonMalformed = "malformed"
	ReasonSchema    = "schema"
	ReasonUrgency   = "urgency"
	ReasonCostRange = "cost_range"
)

const responseSchema = `{
  "type": "object",
  "required": ["detectedServices", "urgency", "estimatedCost", "complexityScore", "confidence", "timeframe"],
  "properties": {
    "detectedServices": {"type": "array", "items": {"type": "string"}},
    "urgency":          {"type": "string"},
    "estimatedCost": {
      "type": "object",
      "required": ["min", "max"],
      "properties": {
        "min":      {"type": "number", "minimum": 0},
        "max":      {"type": "number", "minimum": 0},
        "currency": {"type": "string"}
      }
    },
    "complexityScore": {"type": "integer", "minimum": 1, "maximum": 10},
    "confidence":      {"type": "number", "minimum": 0, "maximum": 1},
    "timeframe":       {"type": "string"}
  }
}`

var schema = validation.MustCompile(responseSchema)

// Request is the input to Classify. Images are raw bytes and are sent base64
// encoded. Context carries free-form hints such as the client's municipality.
type Request struct {
	Description string                 `json:"description"`
	Images      [][]byte               `json:"-"`
	Context     map[string]interface{} `json:"context,omitempty"`
}

// Transport posts a JSON body and returns the raw response.
type Transport interface {
	PostJSON(ctx context.Context, url string, payload interface{}) (*commonhttp.Response, error)
}

type Options struct {
	// BaseURL of the AI service. Empty disables the remote call.
	BaseURL            string
	Timeout            time.Duration
	FallbackConfidence float64
	Catalog            Catalog
}

type Classifier struct {
	opts      Options
	transport Transport
	tracer    trace.Tracer
	logger    logger.Logger
}

// New builds a classifier. A nil tracer disables spans.
func New(opts Options, transport Transport, tracer trace.Tracer, log logger.Logger) *Classifier {
	opts.Timeout = ClampTimeout(opts.Timeout)
	if opts.FallbackConfidence <= 0 || opts.FallbackConfidence >= 0.7 {
		opts.FallbackConfidence = DefaultFallbackConfidence
	}
	if opts.Catalog.Generic.Name == "" {
		opts.Catalog = DefaultCatalog()
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("classifier")
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Classifier{
		opts:      opts,
		transport: transport,
		tracer:    tracer,
		logger:    log,
	}
}

// ClampTimeout keeps the remote call budget within 8-15s; zero means the default.
func ClampTimeout(d time.Duration) time.Duration {
	switch {
	case d == 0:
		return DefaultTimeout
	case d < MinTimeout:
		return MinTimeout
	case d > MaxTimeout:
		return MaxTimeout
	default:
		return d
	}
}

// Classify never fails: any problem with the remote service yields the
// offline analysis with SourceIsFallback set.
func (c *Classifier) Classify(ctx context.Context, req Request) models.ProjectAnalysis {
	requestID := uuid.NewString()
	ctx, span := c.tracer.Start(ctx, "classifier.Classify", trace.WithAttributes(
		attribute.String("request.id", requestID),
		attribute.Int("request.images", len(req.Images)),
	))
	defer span.End()

	analysis, err := c.classifyRemote(ctx, req)
	if err != nil {
		reason := fallbackReason(err)
		metrics.ClassifierFallbacks.WithLabelValues(reason).Inc()
		span.SetAttributes(attribute.String("fallback.reason", reason))
		if reason != ReasonDisabled {
			span.SetStatus(codes.Error, err.Error())
		}

		stdErr := commonerrors.NewClassificationUnavailableError(reason, err)
		c.logger.Warn("remote classification unavailable, using fallback", map[string]interface{}{
			"requestId": requestID,
			"errorCode": string(stdErr.Code),
			"reason":    reason,
			"error":     stdErr.Details,
		})

		analysis = c.Fallback(req)
	}

	analysis.RequestID = requestID
	source := "remote"
	if analysis.SourceIsFallback {
		source = "fallback"
	}
	metrics.Classifications.WithLabelValues(source).Inc()
	span.SetAttributes(
		attribute.String("result.source", source),
		attribute.StringSlice("result.services", analysis.DetectedServices),
		attribute.String("result.urgency", string(analysis.Urgency)),
	)

	c.logger.Info("project classified", map[string]interface{}{
		"requestId":        requestID,
		"source":           source,
		"detectedServices": analysis.DetectedServices,
		"urgency":          analysis.Urgency,
		"confidence":       analysis.Confidence,
	})
	return analysis
}

// Fallback is the deterministic offline classification.
func (c *Classifier) Fallback(req Request) models.ProjectAnalysis {
	text := req.Description + " " + contextText(req.Context)
	cats := c.opts.Catalog.Detect(text)

	services := make([]string, len(cats))
	for i, cat := range cats {
		services[i] = cat.Name
	}
	urgency := DetectUrgency(text)

	return models.ProjectAnalysis{
		DetectedServices: services,
		Urgency:          urgency,
		EstimatedCost:    c.opts.Catalog.EstimateCost(cats),
		ComplexityScore:  Complexity(len(cats)),
		Confidence:       c.opts.FallbackConfidence,
		Timeframe:        Timeframe(urgency),
		SourceIsFallback: true,
	}
}

type remoteRequest struct {
	Description string                 `json:"description"`
	Images      []string               `json:"images,omitempty"`
	Context     map[string]interface{} `json:"context,omitempty"`
}

type remoteResponse struct {
	DetectedServices []string `json:"detectedServices"`
	Urgency          string   `json:"urgency"`
	EstimatedCost    struct {
		Min      float64 `json:"min"`
		Max      float64 `json:"max"`
		Currency string  `json:"currency"`
	} `json:"estimatedCost"`
	ComplexityScore int     `json:"complexityScore"`
	Confidence      float64 `json:"confidence"`
	Timeframe       string  `json:"timeframe"`
}

type unavailableError struct {
	reason string
	err    error
}

func (e *unavailableError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("%s: %s", ErrClassificationUnavailable, e.reason)
	}
	return fmt.Sprintf("%s: %s: %v", ErrClassificationUnavailable, e.reason, e.err)
}

func (e *unavailableError) Is(target error) bool { return target == ErrClassificationUnavailable }
func (e *unavailableError) Unwrap() error { return e.err }

func unavailable(reason string, err error) error {
	return &unavailableError{reason: reason, err: err}
}

func fallbackReason(err error) string {
	var ue *unavailableError
	if errors.As(err, &ue) {
		return ue.reason
	}
	return ReasonTransport
}

// classifyRemote makes exactly one attempt.
func (c *Classifier) classifyRemote(ctx context.Context, req Request) (models.ProjectAnalysis, error) {
	if c.opts.BaseURL == "" || c.transport == nil {
		return models.ProjectAnalysis{}, unavailable(ReasonDisabled, nil)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	payload := remoteRequest{Description: req.Description, Context: req.Context}
	for _, img := range req.Images {
		payload.Images = append(payload.Images, base64.StdEncoding.EncodeToString(img))
	}

	url := strings.TrimRight(c.opts.BaseURL, "/") + ClassifyPath
	resp, err := c.transport.PostJSON(ctx, url, payload)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			return models.ProjectAnalysis{}, unavailable(ReasonTimeout, err)
		}
		return models.ProjectAnalysis{}, unavailable(ReasonTransport, err)
	}
	if !resp.OK() {
		return models.ProjectAnalysis{}, unavailable(ReasonStatus, fmt.Errorf("status %d", resp.StatusCode))
	}

	if !json.Valid(resp.Body) {
		return models.ProjectAnalysis{}, unavailable(ReasonMalformed, errors.New("response is not JSON"))
	}
	if result := schema.ValidateBytes(resp.Body); !result.Valid {
		return models.ProjectAnalysis{}, unavailable(ReasonSchema, result)
	}

	var body remoteResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return models.ProjectAnalysis{}, unavailable(ReasonMalformed, err)
	}
	return c.fromRemote(body)
}

func (c *Classifier) fromRemote(body remoteResponse) (models.ProjectAnalysis, error) {
	urgency, ok := models.ParseUrgency(body.Urgency)
	if !ok {
		return models.ProjectAnalysis{}, unavailable(ReasonUrgency, fmt.Errorf("unknown urgency %q", body.Urgency))
	}
	if body.EstimatedCost.Max < body.EstimatedCost.Min {
		return models.ProjectAnalysis{}, unavailable(ReasonCostRange,
			fmt.Errorf("max %v below min %v", body.EstimatedCost.Max, body.EstimatedCost.Min))
	}

	services := dedupe(body.DetectedServices)
	if len(services) == 0 {
		services = []string{c.opts.Catalog.Generic.Name}
	}
	currency := body.EstimatedCost.Currency
	if currency == "" {
		currency = c.opts.Catalog.Currency
	}

	return models.ProjectAnalysis{
		DetectedServices: services,
		Urgency:          urgency,
		EstimatedCost: models.CostRange{
			Min:      body.EstimatedCost.Min,
			Max:      body.EstimatedCost.Max,
			Currency: currency,
		},
		ComplexityScore:  body.ComplexityScore,
		Confidence:       body.Confidence,
		Timeframe:        body.Timeframe,
		SourceIsFallback: false,
	}, nil
}

// dedupe drops blank and repeated (case-insensitive) names, keeping first occurrence.
func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}

// contextText flattens string values of the request context in key order.
func contextText(ctx map[string]interface{}) string {
	if len(ctx) == 0 {
		return ""
	}
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		switch v := ctx[k].(type) {
		case string:
			parts = append(parts, v)
		case []interface{}:
			for _, item := range v {
				if s, ok := item.(string); ok {
					parts = append(parts, s)
				}
			}
		}
	}
	return strings.Join(parts, " ")
}

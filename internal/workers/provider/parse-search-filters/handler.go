// internal/workers/provider/parse-search-filters/handler.go
package parsesearchfilters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	commonerrors "provider-discovery/internal/common/errors"
	"provider-discovery/internal/common/logger"
	"provider-discovery/internal/common/metrics"
	"provider-discovery/internal/discovery/filter"
	"provider-discovery/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/mitchellh/mapstructure"
)

const TaskType = "parse-search-filters"

var ErrInvalidFilterFormat = errors.New("INVALID_FILTER_FORMAT")

const allSentinel = "all"

var validSortOptions = map[models.SortBy]bool{
	models.SortNewest:   true,
	models.SortRating:   true,
	models.SortName:     true,
	models.SortDistance: true,
}

type Handler struct {
	config       *Config
	engine       *filter.Engine
	errorHandler *commonerrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, engine *filter.Engine, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		engine:       engine,
		errorHandler: commonerrors.NewErrorHandler(l),
		logger:       l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, commonerrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	var raw rawFilters
	if err := decode(input.RawFilters, &raw); err != nil {
		return nil, commonerrors.NewInvalidFilterFormatError(fmt.Errorf("%w: %v", ErrInvalidFilterFormat, err))
	}

	criteria, err := h.normalize(raw)
	if err != nil {
		return nil, commonerrors.NewInvalidFilterFormatError(err)
	}
	if err := h.engine.Validate(criteria); err != nil {
		return nil, commonerrors.NewInvalidCriteriaError(err)
	}

	h.logger.Info("filters parsed successfully", map[string]interface{}{
		"search":       criteria.Search,
		"category":     deref(criteria.Category),
		"municipality": deref(criteria.Municipality),
		"verifiedOnly": criteria.VerifiedOnly,
		"sortBy":       criteria.SortBy,
		"page":         criteria.Page,
		"pageSize":     criteria.PageSize,
	})

	return &Output{Criteria: criteria}, nil
}

func (h *Handler) normalize(raw rawFilters) (models.FilterCriteria, error) {
	criteria := models.DefaultCriteria()
	criteria.PageSize = h.config.DefaultPageSize
	criteria.Search = strings.TrimSpace(raw.Search)
	criteria.Category = optional(raw.Category)
	criteria.Municipality = optional(raw.Municipality)
	criteria.VerifiedOnly = raw.VerifiedOnly
	criteria.MinRating = raw.MinRating
	criteria.Origin = raw.Origin

	if s := models.SortBy(strings.ToLower(strings.TrimSpace(raw.SortBy))); s != "" {
		if !validSortOptions[s] {
			return criteria, fmt.Errorf("%w: invalid sortBy '%s'", ErrInvalidFilterFormat, raw.SortBy)
		}
		criteria.SortBy = s
	}

	if raw.Page >= 1 {
		criteria.Page = raw.Page
	}
	if raw.PageSize >= 1 {
		criteria.PageSize = raw.PageSize
	}
	if h.config.MaxPageSize > 0 && criteria.PageSize > h.config.MaxPageSize {
		criteria.PageSize = h.config.MaxPageSize
	}
	return criteria, nil
}

// decode accepts strings for numbers and booleans.
func decode(in map[string]interface{}, out *rawFilters) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(in)
}

// optional maps blank and "all" to no restriction.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, allSentinel) {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return allSentinel
	}
	return *s
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	stdErr := h.errorHandler.HandleJobError(context.Background(), client, job, err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

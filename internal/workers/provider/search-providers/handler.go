// internal/workers/provider/search-providers/handler.go
package searchproviders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	commonerrors "provider-discovery/internal/common/errors"
	"provider-discovery/internal/common/logger"
	"provider-discovery/internal/common/metrics"
	"provider-discovery/internal/discovery/filter"
	"provider-discovery/internal/discovery/pagination"
	"provider-discovery/internal/discovery/session"
	"provider-discovery/internal/discovery/source"
	"provider-discovery/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "search-providers"

type Handler struct {
	config       *Config
	source       source.ProviderSource
	engine       *filter.Engine
	sequencer    session.Sequencer
	errorHandler *commonerrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, src source.ProviderSource, engine *filter.Engine, seq session.Sequencer, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		source:       src,
		engine:       engine,
		sequencer:    seq,
		errorHandler: commonerrors.NewErrorHandler(l),
		logger:       l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	input := Input{Criteria: models.DefaultCriteria()}
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()

	latest, err := h.sequencer.Register(ctx, input.SessionID, input.RequestSeq)
	if err != nil {
		return nil, commonerrors.NewSequenceCheckFailedError(input.SessionID, err)
	}
	if !latest {
		return h.stale(input), nil
	}

	if err := h.engine.Validate(input.Criteria); err != nil {
		return nil, commonerrors.NewInvalidCriteriaError(err)
	}

	records, err := source.Fetch(ctx, h.source, input.Criteria)
	if err != nil {
		return nil, source.JobError(h.config.SourceName, err)
	}

	filtered, err := h.engine.Filter(records, input.Criteria)
	if err != nil {
		if errors.Is(err, filter.ErrInvalidCriteria) {
			return nil, commonerrors.NewInvalidCriteriaError(err)
		}
		return nil, commonerrors.NewInternalError(err)
	}
	metrics.FilterResultSize.Observe(float64(len(filtered)))

	page := pagination.Slice(filtered, input.Criteria.Page, input.Criteria.PageSize)

	latest, err = h.sequencer.IsLatest(ctx, input.SessionID, input.RequestSeq)
	if err != nil {
		return nil, commonerrors.NewSequenceCheckFailedError(input.SessionID, err)
	}
	if !latest {
		return h.stale(input), nil
	}

	h.logger.Info("search completed", map[string]interface{}{
		"fetched":    len(records),
		"totalCount": page.TotalCount,
		"page":       page.Page,
		"returned":   len(page.Providers),
		"hasMore":    page.HasMore,
		"durationMs": time.Since(start).Milliseconds(),
	})

	return &Output{Page: page, RequestSeq: input.RequestSeq}, nil
}

func (h *Handler) stale(input *Input) *Output {
	metrics.StaleResponses.WithLabelValues(TaskType).Inc()
	h.logger.Info("dropping superseded search", map[string]interface{}{
		"sessionId":  input.SessionID,
		"requestSeq": input.RequestSeq,
	})
	return &Output{
		Page: pagination.Page{
			Providers: []models.ProviderRecord{},
			Page:      input.Criteria.Page,
			PageSize:  input.Criteria.PageSize,
		},
		Stale:      true,
		RequestSeq: input.RequestSeq,
	}
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

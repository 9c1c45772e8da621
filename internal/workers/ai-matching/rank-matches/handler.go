// internal/workers/ai-matching/rank-matches/handler.go
package rankmatches

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	commonerrors "provider-discovery/internal/common/errors"
	"provider-discovery/internal/common/logger"
	"provider-discovery/internal/common/metrics"
	"provider-discovery/internal/discovery/filter"
	"provider-discovery/internal/discovery/ranking"
	"provider-discovery/internal/discovery/session"
	"provider-discovery/internal/discovery/source"
	"provider-discovery/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "rank-matches"

type Handler struct {
	config       *Config
	source       source.ProviderSource
	engine       *filter.Engine
	ranker       *ranking.Ranker
	sequencer    session.Sequencer
	errorHandler *commonerrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(
	config *Config,
	src source.ProviderSource,
	engine *filter.Engine,
	ranker *ranking.Ranker,
	seq session.Sequencer,
	log logger.Logger,
) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		source:       src,
		engine:       engine,
		ranker:       ranker,
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()

	latest, err := h.sequencer.Register(ctx, input.SessionID, input.RequestSeq)
	if err != nil {
		return nil, commonerrors.NewSequenceCheckFailedError(input.SessionID, err)
	}
	if !latest {
		return h.stale(input), nil
	}

	candidates, err := h.candidates(ctx, input)
	if err != nil {
		return nil, err
	}

	matches := h.ranker.Rank(input.Analysis, candidates)
	if h.config.MaxResults > 0 && len(matches) > h.config.MaxResults {
		matches = matches[:h.config.MaxResults]
	}

	latest, err = h.sequencer.IsLatest(ctx, input.SessionID, input.RequestSeq)
	if err != nil {
		return nil, commonerrors.NewSequenceCheckFailedError(input.SessionID, err)
	}
	if !latest {
		return h.stale(input), nil
	}

	fields := map[string]interface{}{
		"requestId":       input.Analysis.RequestID,
		"totalCandidates": len(candidates),
		"returned":        len(matches),
		"durationMs":      time.Since(start).Milliseconds(),
	}
	if len(matches) > 0 {
		fields["topProviderId"] = matches[0].Provider.ID
		fields["topScore"] = matches[0].CompatibilityScore
	}
	h.logger.Info("matches ranked", fields)

	return &Output{Matches: matches, TotalCandidates: len(candidates), RequestSeq: input.RequestSeq}, nil
}

func (h *Handler) candidates(ctx context.Context, input *Input) ([]models.ProviderRecord, error) {
	switch {
	case len(input.Candidates) > 0:
		return input.Candidates, nil

	case len(input.CandidateIDs) > 0:
		lookup, ok := h.source.(source.Lookup)
		if !ok {
			all, err := h.source.ListProviders(ctx)
			if err != nil {
				return nil, source.JobError(h.config.SourceName, err)
			}
			lookup = source.StaticSource(all)
		}
		records, err := lookup.GetProviders(ctx, input.CandidateIDs)
		if err != nil {
			return nil, source.JobError(h.config.SourceName, err)
		}
		return records, nil

	default:
		criteria := models.DefaultCriteria()
		if input.Criteria != nil {
			criteria = *input.Criteria
		}
		if err := h.engine.Validate(criteria); err != nil {
			return nil, commonerrors.NewInvalidCriteriaError(err)
		}
		records, err := source.Fetch(ctx, h.source, criteria)
		if err != nil {
			return nil, source.JobError(h.config.SourceName, err)
		}
		filtered, err := h.engine.Filter(records, criteria)
		if err != nil {
			return nil, commonerrors.NewInvalidCriteriaError(err)
		}
		metrics.FilterResultSize.Observe(float64(len(filtered)))
		return filtered, nil
	}
}

func (h *Handler) stale(input *Input) *Output {
	metrics.StaleResponses.WithLabelValues(TaskType).Inc()
	h.logger.Info("dropping superseded ranking", map[string]interface{}{
		"sessionId":  input.SessionID,
		"requestSeq": input.RequestSeq,
	})
	return &Output{Matches: []models.MatchResult{}, Stale: true, RequestSeq: input.RequestSeq}
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

// internal/workers/ai-matching/classify-project/handler.go
package classifyproject

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	commonerrors "provider-discovery/internal/common/errors"
	"provider-discovery/internal/common/logger"
	"provider-discovery/internal/common/metrics"
	"provider-discovery/internal/discovery/classifier"
	"provider-discovery/internal/discovery/session"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "classify-project"

type Handler struct {
	config       *Config
	classifier   *classifier.Classifier
	sequencer    session.Sequencer
	errorHandler *commonerrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, c *classifier.Classifier, seq session.Sequencer, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		classifier:   c,
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
	req, err := h.buildRequest(input)
	if err != nil {
		return nil, err
	}

	latest, err := h.sequencer.Register(ctx, input.SessionID, input.RequestSeq)
	if err != nil {
		return nil, commonerrors.NewSequenceCheckFailedError(input.SessionID, err)
	}
	if !latest {
		return h.stale(input), nil
	}

	analysis := h.classifier.Classify(ctx, req)

	latest, err = h.sequencer.IsLatest(ctx, input.SessionID, input.RequestSeq)
	if err != nil {
		return nil, commonerrors.NewSequenceCheckFailedError(input.SessionID, err)
	}
	if !latest {
		return h.stale(input), nil
	}

	h.logger.Info("project classified", map[string]interface{}{
		"requestId":        analysis.RequestID,
		"detectedServices": analysis.DetectedServices,
		"urgency":          analysis.Urgency,
		"sourceIsFallback": analysis.SourceIsFallback,
	})

	return &Output{Analysis: &analysis, RequestSeq: input.RequestSeq}, nil
}

func (h *Handler) buildRequest(input *Input) (classifier.Request, error) {
	desc := strings.TrimSpace(input.Description)
	if desc == "" && len(input.Images) == 0 {
		return classifier.Request{}, commonerrors.NewInvalidInputError("description or images are required")
	}
	if len(input.Images) > h.config.MaxImages {
		return classifier.Request{}, commonerrors.NewInvalidInputError(
			fmt.Sprintf("at most %d images are accepted, got %d", h.config.MaxImages, len(input.Images)))
	}

	images := make([][]byte, 0, len(input.Images))
	for i, enc := range input.Images {
		data, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			return classifier.Request{}, commonerrors.NewInvalidInputError(fmt.Sprintf("images[%d]: %v", i, err))
		}
		images = append(images, data)
	}

	return classifier.Request{Description: desc, Images: images, Context: input.Context}, nil
}

func (h *Handler) stale(input *Input) *Output {
	metrics.StaleResponses.WithLabelValues(TaskType).Inc()
	h.logger.Info("dropping superseded classification", map[string]interface{}{
		"sessionId":  input.SessionID,
		"requestSeq": input.RequestSeq,
	})
	return &Output{Stale: true, RequestSeq: input.RequestSeq}
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

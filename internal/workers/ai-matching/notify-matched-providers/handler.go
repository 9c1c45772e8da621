// internal/workers/ai-matching/notify-matched-providers/handler.go
package notifymatchedproviders

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	awsclients "provider-discovery/internal/common/aws"
	commonerrors "provider-discovery/internal/common/errors"
	"provider-discovery/internal/common/logger"
	"provider-discovery/internal/common/metrics"
	"provider-discovery/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const TaskType = "notify-matched-providers"

const (
	SkipLowUrgency   = "urgency below HIGH"
	SkipNoMatches    = "no matched providers"
	SkipNoRecipients = "no reachable recipients"
)

type Handler struct {
	config       *Config
	ses          awsclients.SESService
	sns          awsclients.SNSService
	errorHandler *commonerrors.ErrorHandler
	logger       logger.Logger
}

// NewHandler accepts nil clients; the matching channel is then skipped.
func NewHandler(config *Config, sesClient awsclients.SESService, snsClient awsclients.SNSService, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		ses:          sesClient,
		sns:          snsClient,
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

type delivery struct {
	providerID string
	channel    string
	recipient  string
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if !input.Analysis.Urgency.AtLeast(models.UrgencyHigh) {
		return skipped(SkipLowUrgency), nil
	}
	if len(input.Matches) == 0 {
		return skipped(SkipNoMatches), nil
	}

	deliveries := h.plan(input)
	if len(deliveries) == 0 {
		return skipped(SkipNoRecipients), nil
	}

	results := make([]Notification, len(deliveries))
	g, gCtx := errgroup.WithContext(ctx)
	if h.config.Concurrency > 0 {
		g.SetLimit(h.config.Concurrency)
	}
	for i, d := range deliveries {
		g.Go(func() error {
			results[i] = h.send(gCtx, d, input)
			return nil
		})
	}
	_ = g.Wait()

	sent := 0
	var firstErr string
	for _, r := range results {
		metrics.NotificationsSent.WithLabelValues(r.Channel, r.Status).Inc()
		if r.Status == StatusSent {
			sent++
		} else if firstErr == "" {
			firstErr = r.Error
		}
	}

	h.logger.Info("providers notified", map[string]interface{}{
		"requestId": input.Analysis.RequestID,
		"projectId": input.ProjectID,
		"urgency":   input.Analysis.Urgency,
		"attempted": len(results),
		"sent":      sent,
	})

	if sent == 0 {
		return nil, commonerrors.NewNotificationSendFailedError("all", fmt.Errorf("%d deliveries failed, first: %s", len(results), firstErr))
	}
	return &Output{Notified: true, Notifications: results}, nil
}

// plan picks the top recipients. SMS goes out only for emergencies.
func (h *Handler) plan(input *Input) []delivery {
	top := input.Matches
	if h.config.MaxRecipients > 0 && len(top) > h.config.MaxRecipients {
		top = top[:h.config.MaxRecipients]
	}
	sms := h.config.SMSEnabled && h.sns != nil && input.Analysis.Urgency == models.UrgencyEmergency
	email := h.config.EmailEnabled && h.ses != nil

	var out []delivery
	for _, m := range top {
		c := m.Provider.Contact
		if email && strings.TrimSpace(c.Email) != "" {
			out = append(out, delivery{providerID: m.Provider.ID, channel: ChannelEmail, recipient: strings.TrimSpace(c.Email)})
		}
		if sms && strings.TrimSpace(c.Phone) != "" {
			out = append(out, delivery{providerID: m.Provider.ID, channel: ChannelSMS, recipient: strings.TrimSpace(c.Phone)})
		}
	}
	return out
}

func (h *Handler) send(ctx context.Context, d delivery, input *Input) Notification {
	n := Notification{
		NotificationID: uuid.NewString(),
		ProviderID:     d.providerID,
		Channel:        d.channel,
		Recipient:      d.recipient,
	}

	var messageID *string
	var err error
	switch d.channel {
	case ChannelEmail:
		var out *ses.SendEmailOutput
		out, err = h.ses.SendEmail(ctx, h.emailInput(d, input))
		if out != nil {
			messageID = out.MessageId
		}
	case ChannelSMS:
		var out *sns.PublishOutput
		out, err = h.sns.Publish(ctx, &sns.PublishInput{
			PhoneNumber: aws.String(d.recipient),
			Message:     aws.String(smsText(input)),
		})
		if out != nil {
			messageID = out.MessageId
		}
	}

	if err != nil {
		stdErr := commonerrors.NewNotificationSendFailedError(d.channel, err)
		h.logger.Warn("notification failed", map[string]interface{}{
			"notificationId": n.NotificationID,
			"providerId":     d.providerID,
			"channel":        d.channel,
			"errorCode":      string(stdErr.Code),
			"error":          err,
		})
		n.Status = StatusFailed
		n.Error = err.Error()
		return n
	}
	n.Status = StatusSent
	n.MessageID = aws.ToString(messageID)
	return n
}

func (h *Handler) emailInput(d delivery, input *Input) *ses.SendEmailInput {
	return &ses.SendEmailInput{
		Source:      aws.String(h.config.FromEmail),
		Destination: &sestypes.Destination{ToAddresses: []string{d.recipient}},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject(input)), Charset: aws.String("UTF-8")},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(emailBody(input, d.providerID)), Charset: aws.String("UTF-8")},
			},
		},
	}
}

func subject(input *Input) string {
	return fmt.Sprintf("[%s] New %s request", input.Analysis.Urgency, servicesLabel(input.Analysis))
}

func emailBody(input *Input, providerID string) string {
	a := input.Analysis
	var b strings.Builder
	fmt.Fprintf(&b, "A client needs %s.\n\n", servicesLabel(a))
	if input.Description != "" {
		fmt.Fprintf(&b, "Project: %s\n", input.Description)
	}
	fmt.Fprintf(&b, "Urgency: %s (%s)\n", a.Urgency, a.Timeframe)
	fmt.Fprintf(&b, "Estimated budget: %s %.0f - %.0f\n", a.EstimatedCost.Currency, a.EstimatedCost.Min, a.EstimatedCost.Max)
	for _, m := range input.Matches {
		if m.Provider.ID == providerID {
			fmt.Fprintf(&b, "Your match score: %d/100\n", m.CompatibilityScore)
			break
		}
	}
	if input.ProjectID != "" {
		fmt.Fprintf(&b, "\nReference: %s\n", input.ProjectID)
	}
	return b.String()
}

func smsText(input *Input) string {
	a := input.Analysis
	msg := fmt.Sprintf("%s: %s needed %s.", a.Urgency, servicesLabel(a), strings.ToLower(a.Timeframe))
	if input.ProjectID != "" {
		msg += " Ref " + input.ProjectID
	}
	return msg
}

func servicesLabel(a models.ProjectAnalysis) string {
	if len(a.DetectedServices) == 0 {
		return "service"
	}
	return strings.Join(a.DetectedServices, ", ")
}

func skipped(reason string) *Output {
	return &Output{SkippedReason: reason, Notifications: []Notification{}}
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

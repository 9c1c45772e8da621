// internal/workers/ai-matching/classify-project/handler_test.go
package classifyproject

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"provider-discovery/internal/common/config"
	commonerrors "provider-discovery/internal/common/errors"
	commonhttp "provider-discovery/internal/common/http"
	"provider-discovery/internal/common/logger"
	"provider-discovery/internal/discovery/classifier"
	"provider-discovery/internal/discovery/session"
	"provider-discovery/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{Timeout: 20 * time.Second, MaxImages: 2}
}

func offlineClassifier(t *testing.T) *classifier.Classifier {
	return classifier.New(classifier.Options{}, commonhttp.NewClient(time.Second), nil, logger.NewTestLogger(t))
}

func createTestHandler(t *testing.T, c *classifier.Classifier, seq session.Sequencer) *Handler {
	return NewHandler(createTestConfig(), c, seq, logger.NewTestLogger(t))
}

func requireCode(t *testing.T, err error, code commonerrors.ErrorCode) {
	t.Helper()
	stdErr, ok := commonerrors.AsStandardError(err)
	require.True(t, ok, "expected StandardError, got %v", err)
	assert.Equal(t, code, stdErr.Code)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_RemoteClassification(t *testing.T) {
	var received struct {
		Description string   `json:"description"`
		Images      []string `json:"images"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, classifier.ClassifyPath, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte(`{
			"detectedServices": ["Plumbing"],
			"urgency": "HIGH",
			"estimatedCost": {"min": 2000, "max": 4500, "currency": "PHP"},
			"complexityScore": 4,
			"confidence": 0.88,
			"timeframe": "Within 1-3 days"
		}`))
	}))
	defer server.Close()

	c := classifier.New(classifier.Options{BaseURL: server.URL}, commonhttp.NewClient(classifier.MaxTimeout), nil, logger.NewTestLogger(t))
	photo := base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))

	output, err := createTestHandler(t, c, session.NewLocalSequencer()).Execute(context.Background(), &Input{
		Description: "  kitchen sink is leaking  ",
		Images:      []string{photo},
	})
	require.NoError(t, err)
	require.NotNil(t, output.Analysis)

	assert.False(t, output.Analysis.SourceIsFallback)
	assert.Equal(t, []string{"Plumbing"}, output.Analysis.DetectedServices)
	assert.Equal(t, models.UrgencyHigh, output.Analysis.Urgency)
	assert.NotEmpty(t, output.Analysis.RequestID)
	assert.Equal(t, "kitchen sink is leaking", received.Description)
	assert.Equal(t, []string{photo}, received.Images)
}

func TestHandler_Execute_FallbackStillCompletes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := classifier.New(classifier.Options{BaseURL: server.URL}, commonhttp.NewClient(classifier.MaxTimeout), nil, logger.NewTestLogger(t))
	output, err := createTestHandler(t, c, session.NewLocalSequencer()).Execute(context.Background(), &Input{
		Description: "Leaking faucet in kitchen",
	})
	require.NoError(t, err)

	assert.True(t, output.Analysis.SourceIsFallback)
	assert.Equal(t, []string{"Plumbing"}, output.Analysis.DetectedServices)
	assert.Equal(t, models.UrgencyHigh, output.Analysis.Urgency)
	assert.Less(t, output.Analysis.Confidence, 0.7)
}

func TestHandler_Execute_ContextHints(t *testing.T) {
	output, err := createTestHandler(t, offlineClassifier(t), session.NewLocalSequencer()).Execute(context.Background(), &Input{
		Description: "need help this weekend",
		Context:     map[string]interface{}{"note": "outlet is sparking"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Electrical"}, output.Analysis.DetectedServices)
	assert.Equal(t, models.UrgencyEmergency, output.Analysis.Urgency)
}

func TestHandler_Execute_ImagesOnly(t *testing.T) {
	output, err := createTestHandler(t, offlineClassifier(t), session.NewLocalSequencer()).Execute(context.Background(), &Input{
		Images: []string{base64.StdEncoding.EncodeToString([]byte("png"))},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"General Services"}, output.Analysis.DetectedServices)
}

// ==========================
// Sequencing Tests
// ==========================

func TestHandler_Execute_Stale(t *testing.T) {
	seq := session.NewLocalSequencer()
	_, err := seq.Register(context.Background(), "s1", 9)
	require.NoError(t, err)

	output, err := createTestHandler(t, offlineClassifier(t), seq).Execute(context.Background(), &Input{
		Description: "broken pipe",
		SessionID:   "s1",
		RequestSeq:  8,
	})
	require.NoError(t, err)
	assert.True(t, output.Stale)
	assert.Nil(t, output.Analysis)
	assert.Equal(t, int64(8), output.RequestSeq)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input *Input
	}{
		{name: "nothing to classify", input: &Input{Description: "   "}},
		{name: "bad base64", input: &Input{Description: "roof", Images: []string{"%%%"}}},
		{name: "too many images", input: &Input{Description: "roof", Images: []string{"YQ==", "Yg==", "Yw=="}}},
	}

	handler := createTestHandler(t, offlineClassifier(t), session.NewLocalSequencer())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := handler.Execute(context.Background(), tt.input)
			assert.Nil(t, output)
			requireCode(t, err, commonerrors.ErrCodeInvalidInput)
		})
	}
}

// ==========================
// Configuration Tests
// ==========================

func TestNewConfig_LeavesRoomForFallback(t *testing.T) {
	appCfg := &config.Config{Workers: map[string]config.WorkerConfig{TaskType: {Enabled: true, Timeout: 5000}}}
	appCfg.APIs.Classifier.Timeout = 15000

	cfg := NewConfig(appCfg)
	assert.Equal(t, 17*time.Second, cfg.Timeout)
	assert.Equal(t, 5, cfg.MaxImages)
}

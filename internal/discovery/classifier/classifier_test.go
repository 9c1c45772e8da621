package classifier

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	commonhttp "provider-discovery/internal/common/http"
	"provider-discovery/internal/common/logger"
	"provider-discovery/internal/common/metrics"
	"provider-discovery/internal/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validResponse = `{
  "detectedServices": ["Electrical", "Painting"],
  "urgency": "high",
  "estimatedCost": {"min": 7000, "max": 25000, "currency": "PHP"},
  "complexityScore": 6,
  "confidence": 0.91,
  "timeframe": "This week"
}`

func newTestClassifier(t *testing.T, baseURL string) *Classifier {
	return New(Options{BaseURL: baseURL}, commonhttp.NewClient(MaxTimeout), nil, logger.NewTestLogger(t))
}

func serve(t *testing.T, status int, body string) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ClassifyPath, r.URL.Path)
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

// stubTransport returns a canned response or error without a network.
type stubTransport struct {
	resp  *commonhttp.Response
	err   error
	calls int
}

func (s *stubTransport) PostJSON(ctx context.Context, url string, payload interface{}) (*commonhttp.Response, error) {
	s.calls++
	return s.resp, s.err
}

// ==========================
// Remote path
// ==========================

func TestClassify_RemoteSuccess(t *testing.T) {
	var received remoteRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte(validResponse))
	}))
	defer server.Close()

	c := newTestClassifier(t, server.URL+"/")
	got := c.Classify(context.Background(), Request{
		Description: "rewire the kitchen and repaint",
		Images:      [][]byte{[]byte("jpeg-bytes")},
		Context:     map[string]interface{}{"municipality": "Balanga"},
	})

	assert.False(t, got.SourceIsFallback)
	assert.Equal(t, []string{"Electrical", "Painting"}, got.DetectedServices)
	assert.Equal(t, models.UrgencyHigh, got.Urgency)
	assert.Equal(t, models.CostRange{Min: 7000, Max: 25000, Currency: "PHP"}, got.EstimatedCost)
	assert.Equal(t, 6, got.ComplexityScore)
	assert.Equal(t, 0.91, got.Confidence)
	assert.NotEmpty(t, got.RequestID)

	assert.Equal(t, "rewire the kitchen and repaint", received.Description)
	require.Len(t, received.Images, 1)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("jpeg-bytes")), received.Images[0])
	assert.Equal(t, "Balanga", received.Context["municipality"])
}

func TestClassify_EmptyServicesStayLive(t *testing.T) {
	server := serve(t, http.StatusOK, `{
		"detectedServices": [],
		"urgency": "LOW",
		"estimatedCost": {"min": 0, "max": 0},
		"complexityScore": 1,
		"confidence": 0.2,
		"timeframe": "Flexible"
	}`)

	got := newTestClassifier(t, server.URL).Classify(context.Background(), Request{Description: "something vague"})

	assert.False(t, got.SourceIsFallback)
	assert.Equal(t, []string{"General Services"}, got.DetectedServices)
	assert.Equal(t, "PHP", got.EstimatedCost.Currency)
	assert.Equal(t, 0.2, got.Confidence)
}

func TestClassify_SingleAttempt(t *testing.T) {
	stub := &stubTransport{resp: &commonhttp.Response{StatusCode: http.StatusServiceUnavailable}}
	c := New(Options{BaseURL: "http://ai.local"}, stub, nil, nil)

	got := c.Classify(context.Background(), Request{Description: "fix the sink"})

	assert.True(t, got.SourceIsFallback)
	assert.Equal(t, 1, stub.calls)
}

// ==========================
// Fallback triggers
// ==========================

func TestClassify_FallbackTriggers(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		reason string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"boom"}`, reason: ReasonStatus},
		{name: "not json", status: http.StatusOK, body: `<html>bad gateway</html>`, reason: ReasonMalformed},
		{name: "missing fields", status: http.StatusOK, body: `{"detectedServices":["Plumbing"]}`, reason: ReasonSchema},
		{name: "confidence out of range", status: http.StatusOK, body: `{"detectedServices":["Plumbing"],"urgency":"HIGH","estimatedCost":{"min":1,"max":2},"complexityScore":3,"confidence":1.4,"timeframe":"x"}`, reason: ReasonSchema},
		{name: "unknown urgency", status: http.StatusOK, body: `{"detectedServices":["Plumbing"],"urgency":"CRITICAL","estimatedCost":{"min":1,"max":2},"complexityScore":3,"confidence":0.9,"timeframe":"x"}`, reason: ReasonUrgency},
		{name: "max below min", status: http.StatusOK, body: `{"detectedServices":["Plumbing"],"urgency":"HIGH","estimatedCost":{"min":5000,"max":100},"complexityScore":3,"confidence":0.9,"timeframe":"x"}`, reason: ReasonCostRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := metrics.ClassifierFallbacks.WithLabelValues(tt.reason)
			before := testutil.ToFloat64(counter)

			server := serve(t, tt.status, tt.body)
			got := newTestClassifier(t, server.URL).Classify(context.Background(), Request{Description: "broken faucet leaking water"})

			assert.True(t, got.SourceIsFallback)
			assert.Equal(t, []string{"Plumbing"}, got.DetectedServices)
			assert.Equal(t, before+1, testutil.ToFloat64(counter))
		})
	}
}

func TestClassify_TransportErrorAndTimeout(t *testing.T) {
	stub := &stubTransport{err: errors.New("dial tcp: connection refused")}
	got := New(Options{BaseURL: "http://ai.local"}, stub, nil, nil).Classify(context.Background(), Request{Description: "wire an outlet"})
	assert.True(t, got.SourceIsFallback)
	assert.Equal(t, []string{"Electrical"}, got.DetectedServices)

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	before := testutil.ToFloat64(metrics.ClassifierFallbacks.WithLabelValues(ReasonTimeout))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	got = newTestClassifier(t, slow.URL).Classify(ctx, Request{Description: "roof repair"})
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, got.SourceIsFallback)
	assert.Equal(t, []string{"Roofing"}, got.DetectedServices)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ClassifierFallbacks.WithLabelValues(ReasonTimeout)))
}

func TestClassify_NoBaseURLUsesFallback(t *testing.T) {
	got := New(Options{}, nil, nil, nil).Classify(context.Background(), Request{Description: "deep clean the condo"})
	assert.True(t, got.SourceIsFallback)
	assert.Equal(t, []string{"Cleaning"}, got.DetectedServices)
	assert.NotEmpty(t, got.RequestID)
}

// ==========================
// Fallback analysis
// ==========================

func TestFallback_LeakingFaucet(t *testing.T) {
	server := serve(t, http.StatusBadGateway, "")
	got := newTestClassifier(t, server.URL).Classify(context.Background(), Request{Description: "broken faucet leaking water"})

	assert.Contains(t, got.DetectedServices, "Plumbing")
	assert.True(t, got.Urgency.AtLeast(models.UrgencyMedium))
	assert.True(t, got.SourceIsFallback)
	assert.Less(t, got.Confidence, 0.7)
}

func TestFallback_Analysis(t *testing.T) {
	tests := []struct {
		name       string
		req        Request
		services   []string
		urgency    models.Urgency
		cost       models.CostRange
		complexity int
		timeframe  string
	}{
		{
			name:       "no keywords",
			req:        Request{Description: "I need help with my house"},
			services:   []string{"General Services"},
			urgency:    models.UrgencyMedium,
			cost:       models.CostRange{Min: 1000, Max: 5000, Currency: "PHP"},
			complexity: 5,
			timeframe:  "Within 1 week",
		},
		{
			name:       "two categories, emergency",
			req:        Request{Description: "Outlet is SPARKING near the sink, emergency!"},
			services:   []string{"Plumbing", "Electrical"},
			urgency:    models.UrgencyEmergency,
			cost:       models.CostRange{Min: 3500, Max: 13000, Currency: "PHP"},
			complexity: 6,
			timeframe:  "Within 24 hours",
		},
		{
			name:       "low urgency",
			req:        Request{Description: "repaint the bedroom, no rush"},
			services:   []string{"Painting"},
			urgency:    models.UrgencyLow,
			cost:       models.CostRange{Min: 5000, Max: 20000, Currency: "PHP"},
			complexity: 5,
			timeframe:  "Within 2-4 weeks",
		},
		{
			name: "context contributes keywords",
			req: Request{
				Description: "please fix it asap",
				Context:     map[string]interface{}{"room": "kitchen cabinet", "tags": []interface{}{"fridge"}},
			},
			services:   []string{"Carpentry", "Appliance Repair"},
			urgency:    models.UrgencyHigh,
			cost:       models.CostRange{Min: 4000, Max: 19000, Currency: "PHP"},
			complexity: 6,
			timeframe:  "Within 1-3 days",
		},
	}

	c := New(Options{}, nil, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Fallback(tt.req)
			assert.Equal(t, tt.services, got.DetectedServices)
			assert.Equal(t, tt.urgency, got.Urgency)
			assert.Equal(t, tt.cost, got.EstimatedCost)
			assert.Equal(t, tt.complexity, got.ComplexityScore)
			assert.Equal(t, tt.timeframe, got.Timeframe)
			assert.Equal(t, DefaultFallbackConfidence, got.Confidence)
			assert.True(t, got.SourceIsFallback)
		})
	}
}

func TestFallback_Deterministic(t *testing.T) {
	c := New(Options{}, nil, nil, nil)
	req := Request{
		Description: "burst pipe flooding the garage, also need the roof and gutter checked",
		Context:     map[string]interface{}{"b": "aircon", "a": "wiring"},
	}

	first := c.Fallback(req)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, c.Fallback(req))
	}
}

func TestComplexity_Capped(t *testing.T) {
	assert.Equal(t, 5, Complexity(0))
	assert.Equal(t, 5, Complexity(1))
	assert.Equal(t, 7, Complexity(3))
	assert.Equal(t, 10, Complexity(7))
}

func TestNew_ClampsOptions(t *testing.T) {
	tests := []struct {
		in, want time.Duration
	}{
		{0, DefaultTimeout},
		{time.Second, MinTimeout},
		{12 * time.Second, 12 * time.Second},
		{time.Minute, MaxTimeout},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampTimeout(tt.in))
	}

	c := New(Options{FallbackConfidence: 0.9}, nil, nil, nil)
	assert.Equal(t, DefaultFallbackConfidence, c.Fallback(Request{}).Confidence)
}

func BenchmarkFallback(b *testing.B) {
	c := New(Options{}, nil, nil, nil)
	req := Request{Description: "leaking pipe under the sink and a broken outlet in the kitchen"}
	for i := 0; i < b.N; i++ {
		c.Fallback(req)
	}
}

package camunda

import (
	"errors"
	"testing"

	"provider-discovery/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInstrument_TracksActiveJobs(t *testing.T) {
	const taskType = "instrument-test"
	gauge := metrics.WorkerJobsActive.WithLabelValues(taskType)

	var during float64
	handler := Instrument(taskType, func(client worker.JobClient, job entities.Job) {
		during = testutil.ToFloat64(gauge)
	}, nil)

	handler(nil, entities.Job{})

	assert.Equal(t, float64(1), during)
	assert.Equal(t, float64(0), testutil.ToFloat64(gauge))
}

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{errors.New("rpc error: code = Unavailable desc = connection refused"), true},
		{errors.New("context deadline exceeded"), true},
		{errors.New("permission denied"), false},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableZeebeError(tt.err))
		})
	}
}

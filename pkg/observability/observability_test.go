package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
}

func (f *fakeCloudWatch) PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, in)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestRecordCommandExecution(t *testing.T) {
	cw := &fakeCloudWatch{}
	m := NewMetrics("PrepCoach", cw, zap.NewNop())

	m.RecordCommandExecution(context.Background(), "CompleteNodeCommand", 15*time.Millisecond, errors.New("boom"))

	require.Len(t, cw.inputs, 1)
	assert.Equal(t, "PrepCoach", *cw.inputs[0].Namespace)
	require.Len(t, cw.inputs[0].MetricData, 2)
	assert.Equal(t, "failure", *cw.inputs[0].MetricData[0].Dimensions[1].Value)

	NewMetrics("PrepCoach", nil, zap.NewNop()).RecordCommandExecution(context.Background(), "x", 0, nil)
}

func TestCollectorMiddlewareLabelsByRoute(t *testing.T) {
	c := NewCollector("prepcoach")
	r := chi.NewRouter()
	r.Use(c.Middleware)
	r.Get("/journeys/{journeyID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", c.Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/journeys/abc", nil))
	c.ObserveQuery("GetJourneyQuery", time.Millisecond, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `prepcoach_http_requests_total{method="GET",route="/journeys/{journeyID}",status="418"} 1`), body)
	assert.Contains(t, body, `prepcoach_query_duration_seconds_count{query="GetJourneyQuery",status="success"} 1`)
}

func TestDisabledTracerRunsFunction(t *testing.T) {
	tr := NewTracer("prepcoach", false)
	called := false
	err := tr.TraceFunction(context.Background(), "work", func(context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

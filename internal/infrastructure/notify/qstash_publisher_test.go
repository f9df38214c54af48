package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/castaway-league/internal/domain/event"
	"github.com/riskibarqy/castaway-league/internal/platform/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent() event.Event {
	return event.Event{
		ID:         "evt-1",
		Name:       event.WaiverSettled,
		LeagueID:   "l1",
		EpisodeID:  "e3",
		OccurredAt: time.Date(2026, 3, 4, 20, 0, 0, 0, time.UTC),
		Payload:    map[string]any{"member_id": "m1"},
	}
}

func TestQStashPublisher_SendsEventWithUpstashHeaders(t *testing.T) {
	var (
		gotPath   string
		gotHeader http.Header
		gotBody   event.Event
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHeader = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		_ = sonic.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	publisher, err := NewQStashPublisher(QStashConfig{
		BaseURL:       server.URL,
		Token:         "secret",
		TargetBaseURL: "https://league.example.com",
		TargetPath:    "/hooks/events/",
		Retries:       3,
		ForwardToken:  "internal",
	}, nil)
	require.NoError(t, err)

	require.NoError(t, publisher.Publish(context.Background(), sampleEvent()))

	assert.Equal(t, "/v2/publish/https://league.example.com/hooks/events/waiver_settled", gotPath)
	assert.Equal(t, "Bearer secret", gotHeader.Get("Authorization"))
	assert.Equal(t, "evt-1", gotHeader.Get("Upstash-Deduplication-Id"))
	assert.Equal(t, "3", gotHeader.Get("Upstash-Retries"))
	assert.Equal(t, "internal", gotHeader.Get("Upstash-Forward-X-Internal-Job-Token"))
	assert.Equal(t, event.WaiverSettled, gotBody.Name)
	assert.Equal(t, "l1", gotBody.LeagueID)
}

func TestQStashPublisher_TransientFailuresOpenBreaker(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	publisher, err := NewQStashPublisher(QStashConfig{
		BaseURL:        server.URL,
		TargetBaseURL:  "https://league.example.com",
		CircuitBreaker: resilience.Config{Enabled: true, FailureThreshold: 2, OpenTimeout: time.Hour},
	}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	assert.ErrorIs(t, publisher.Publish(ctx, sampleEvent()), errQStashTransient)
	assert.ErrorIs(t, publisher.Publish(ctx, sampleEvent()), errQStashTransient)
	assert.ErrorIs(t, publisher.Publish(ctx, sampleEvent()), resilience.ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestQStashPublisher_ClientErrorsDoNotTripBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad destination"))
	}))
	defer server.Close()

	publisher, err := NewQStashPublisher(QStashConfig{
		BaseURL:        server.URL,
		TargetBaseURL:  "https://league.example.com",
		CircuitBreaker: resilience.Config{Enabled: true, FailureThreshold: 1, OpenTimeout: time.Hour},
	}, nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		err := publisher.Publish(context.Background(), sampleEvent())
		require.Error(t, err)
		assert.NotErrorIs(t, err, resilience.ErrCircuitOpen)
		assert.Contains(t, err.Error(), "bad destination")
	}
}

func TestNewQStashPublisher_RejectsBadURLs(t *testing.T) {
	_, err := NewQStashPublisher(QStashConfig{BaseURL: "ftp://qstash", TargetBaseURL: "https://x"}, nil)
	assert.ErrorContains(t, err, "QSTASH_BASE_URL")

	_, err = NewQStashPublisher(QStashConfig{BaseURL: "https://qstash.upstash.io", TargetBaseURL: ""}, nil)
	assert.ErrorContains(t, err, "QSTASH_TARGET_BASE_URL")
}

func TestBuildCurlPreview_MasksSecrets(t *testing.T) {
	preview := buildCurlPreview("https://q/v2/publish/https://t/x", 2, "evt-1", `{"name":"it's"}`, true)

	assert.Contains(t, preview, "Authorization: Bearer ***")
	assert.Contains(t, preview, "Upstash-Forward-X-Internal-Job-Token: ***")
	assert.Contains(t, preview, `'{"name":"it'"'"'s"}'`)
}

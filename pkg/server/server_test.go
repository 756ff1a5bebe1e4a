package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/benford-monitor/pkg/metrics"
	"github.com/de-tools/benford-monitor/pkg/models/api"
	"github.com/de-tools/benford-monitor/pkg/models/domain"
)

type staticStatus domain.SchedulerStatus

func (s staticStatus) Status() domain.SchedulerStatus {
	return domain.SchedulerStatus(s)
}

func newTestFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/site/index.html", []byte("<html>verdict</html>"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/site/combined_benfords_chart.png", []byte("png"), 0o644))
	return fs
}

func TestWebAPI_Endpoints(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	m := metrics.New()
	m.ObserveVerdict(true, 12)

	webAPI := NewWebAPI(logger, Config{
		Addr: ":8080",
		Dependencies: Dependencies{
			Status:    staticStatus{State: domain.SchedulerStateIdle, Interval: "1m0s"},
			Metrics:   m.Handler(),
			Fs:        newTestFs(t),
			OutputDir: "/site",
		},
	})
	testServer := httptest.NewServer(webAPI.Handler())
	defer testServer.Close()

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expected       interface{}
		parseResponse  func([]byte) (interface{}, error)
	}{
		{
			name:           "Page",
			path:           "/",
			expectedStatus: http.StatusOK,
			expected:       "<html>verdict</html>",
			parseResponse:  rawResponse,
		},
		{
			name:           "Chart",
			path:           "/combined_benfords_chart.png",
			expectedStatus: http.StatusOK,
			expected:       "png",
			parseResponse:  rawResponse,
		},
		{
			name:           "MissingFile",
			path:           "/nope.png",
			expectedStatus: http.StatusNotFound,
			expected:       "404 page not found\n",
			parseResponse:  rawResponse,
		},
		{
			name:           "Health",
			path:           "/healthz",
			expectedStatus: http.StatusOK,
			expected:       api.Status{State: "idle", Interval: "1m0s"},
			parseResponse:  unmarshalResponse[api.Status](),
		},
		{
			name:           "Status",
			path:           "/api/v1/status",
			expectedStatus: http.StatusOK,
			expected:       api.Status{State: "idle", Interval: "1m0s"},
			parseResponse:  unmarshalResponse[api.Status](),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Get(testServer.URL + tc.path)
			require.NoError(t, err, "Failed to send request")
			defer resp.Body.Close()

			assert.Equal(t, tc.expectedStatus, resp.StatusCode, "Status code mismatch")

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err, "Failed to read response body")

			actual, err := tc.parseResponse(body)
			require.NoError(t, err, "Failed to parse response")

			assert.Equal(t, tc.expected, actual)
		})
	}

	t.Run("PageIsNotCached", func(t *testing.T) {
		resp, err := http.Get(testServer.URL + "/")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Contains(t, resp.Header.Get("Cache-Control"), "no-cache")
	})

	t.Run("Metrics", func(t *testing.T) {
		resp, err := http.Get(testServer.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "benford_sample_size 12")
	})
}

func TestWebAPI_NoMetricsHandler(t *testing.T) {
	webAPI := NewWebAPI(zerolog.Nop(), Config{
		Dependencies: Dependencies{
			Status:    staticStatus{State: domain.SchedulerStateIdle},
			Fs:        afero.NewMemMapFs(),
			OutputDir: "/site",
		},
	})

	rec := httptest.NewRecorder()
	webAPI.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebAPI_StartStopsOnCancel(t *testing.T) {
	webAPI := NewWebAPI(zerolog.Nop(), Config{
		Addr:            "127.0.0.1:0",
		ShutdownTimeout: time.Second,
		Dependencies: Dependencies{
			Status: staticStatus{State: domain.SchedulerStateIdle},
			Fs:     afero.NewMemMapFs(),
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- webAPI.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func rawResponse(data []byte) (interface{}, error) {
	return string(data), nil
}

func unmarshalResponse[T any]() func([]byte) (interface{}, error) {
	return func(data []byte) (interface{}, error) {
		var response T
		err := json.Unmarshal(data, &response)
		return response, err
	}
}

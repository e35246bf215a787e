package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/seantiz/spotipi/internal/model"
)

func TestHealthz(t *testing.T) {
	const player = "/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF/player0"

	tests := []struct {
		name       string
		nowPlaying model.NowPlaying
		stopped    bool
		wantStatus int
		want       healthResponse
	}{
		{
			name:       "waiting for player",
			wantStatus: http.StatusOK,
			want:       healthResponse{Status: healthOK},
		},
		{
			name:       "attached",
			nowPlaying: model.NowPlaying{Player: player},
			wantStatus: http.StatusOK,
			want:       healthResponse{Status: healthOK, Player: player},
		},
		{
			name:       "bridge stopped",
			nowPlaying: model.NowPlaying{Player: player},
			stopped:    true,
			wantStatus: http.StatusServiceUnavailable,
			want:       healthResponse{Status: healthStopped},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, c := newTestServer(t)
			c.nowPlaying = tt.nowPlaying
			c.stopped = tt.stopped

			ts := httptest.NewServer(srv.Router())
			defer ts.Close()

			resp, err := http.Get(ts.URL + "/healthz")
			if err != nil {
				t.Fatalf("GET /healthz: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}

			var body healthResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if body != tt.want {
				t.Errorf("body = %+v, want %+v", body, tt.want)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	cmd, err := http.Post(ts.URL+"/v1/player/next", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /v1/player/next: %v", err)
	}
	cmd.Body.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	bodyBytes, _ := io.ReadAll(resp.Body)
	body := string(bodyBytes)

	for _, want := range []string{
		`spotipi_http_requests_total{method="POST",path="/v1/player/{command}",status="204"}`,
		`spotipi_http_request_duration_seconds_count{method="POST",path="/v1/player/{command}"}`,
		`spotipi_http_event_streams{transport="sse"}`,
		`spotipi_http_event_streams{transport="websocket"}`,
		"spotipi_commands_total",
		"spotipi_display_updates_total",
		"spotipi_player_attached",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

func TestTrackStream(t *testing.T) {
	// A label of its own keeps handlers from other tests out of the count.
	const transport = "track-stream-test"
	g := eventStreamsActive.WithLabelValues(transport)
	before := testutil.ToFloat64(g)

	done := trackStream(transport)
	if got := testutil.ToFloat64(g); got != before+1 {
		t.Errorf("open streams = %v, want %v", got, before+1)
	}
	done()
	if got := testutil.ToFloat64(g); got != before {
		t.Errorf("open streams after close = %v, want %v", got, before)
	}
}

func TestStreamingRoutesSkipDurationHistogram(t *testing.T) {
	for _, path := range []string{"/v1/events", "/v1/events/ws"} {
		if !streamingRoutes[path] {
			t.Errorf("%s not treated as a streaming route", path)
		}
	}
	if streamingRoutes["/v1/nowplaying"] {
		t.Error("/v1/nowplaying treated as a streaming route")
	}
}

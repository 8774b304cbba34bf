package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/talkheal/gesturemode/internal/app"
	"github.com/talkheal/gesturemode/internal/capture"
	"github.com/talkheal/gesturemode/internal/config"
	"github.com/talkheal/gesturemode/internal/detector"
	"github.com/talkheal/gesturemode/internal/fixtures"
	"github.com/talkheal/gesturemode/internal/server"
)

func getStatus(t *testing.T, client *http.Client, url string) app.Status {
	t.Helper()
	resp, err := client.Get(url + "/api/gesture/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var st app.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	return st
}

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	files, err := fixtures.Materialize(tmpDir)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Models.Keypoint = files.Keypoint
	cfg.Models.KeypointLabels = files.KeypointLabels
	cfg.Models.PointHistory = files.PointHistory
	cfg.Models.PointHistoryLabels = files.PointHistoryLabels
	cfg.Store.Path = filepath.Join(tmpDir, "data.db")
	cfg.Hooks.Dir = filepath.Join(tmpDir, "hooks")
	cfg.Camera.Width = 64
	cfg.Camera.Height = 48

	mats := fixtures.BlankFrames(4, cfg.Camera.Width, cfg.Camera.Height)
	defer func() {
		for _, m := range mats {
			m.Close()
		}
	}()

	mockDetector := detector.NewMockDetector()
	mockDetector.SetHands([]detector.Hand{detector.PointingLandmarks(detector.Point{X: 30, Y: 10})})

	log := logs.NewTestingLog(t)
	application, err := app.New(log, cfg,
		app.WithCamera(capture.NewMockCamera(mats, true)),
		app.WithDetector(mockDetector),
	)
	require.NoError(t, err)
	defer application.Close()

	srv := server.New(server.Config{
		Log:        log,
		Controller: application,
		Store:      application.Store(),
		Hooks:      application.Hooks(),
		Preview:    application.Preview(),
	})
	application.AddReporter(srv.Hub())
	ts := httptest.NewServer(srv)
	defer ts.Close()
	defer srv.Shutdown(t.Context())

	client := ts.Client()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return srv.Hub().Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	t.Run("InitiallyIdle", func(t *testing.T) {
		st := getStatus(t, client, ts.URL)
		require.False(t, st.Active)
		require.Equal(t, "idle", st.State)
	})

	t.Run("Start", func(t *testing.T) {
		resp, err := client.Post(ts.URL+"/api/gesture/start", "application/json", nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var st app.Status
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
		require.True(t, st.Active)
		require.NotEmpty(t, st.SessionID)
	})

	t.Run("WebsocketFeed", func(t *testing.T) {
		conn.SetReadDeadline(time.Now().Add(10 * time.Second))
		var sawActive, sawGesture bool
		for !sawGesture {
			var msg server.Message
			require.NoError(t, conn.ReadJSON(&msg))
			switch msg.Type {
			case "state":
				sawActive = sawActive || msg.Status.Active
			case "gesture":
				if msg.Event.Gesture == "Pointer + Clockwise" {
					sawGesture = true
				}
			}
		}
		require.True(t, sawActive)
	})

	t.Run("Status", func(t *testing.T) {
		require.Eventually(t, func() bool {
			return getStatus(t, client, ts.URL).Gesture == "Pointer + Clockwise"
		}, 5*time.Second, 20*time.Millisecond)
	})

	t.Run("Stop", func(t *testing.T) {
		resp, err := client.Post(ts.URL+"/api/gesture/stop", "application/json", nil)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.False(t, getStatus(t, client, ts.URL).Active)
	})

	t.Run("History", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/events/recent")
		require.NoError(t, err)
		defer resp.Body.Close()

		var events struct {
			Events []struct {
				Gesture string `json:"gesture"`
			} `json:"events"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
		require.NotEmpty(t, events.Events)
		require.Equal(t, "Pointer + Clockwise", events.Events[0].Gesture)

		resp2, err := client.Get(ts.URL + "/api/sessions")
		require.NoError(t, err)
		defer resp2.Body.Close()

		var sessions struct {
			Sessions []struct {
				StoppedAt *time.Time `json:"stopped_at"`
			} `json:"sessions"`
		}
		require.NoError(t, json.NewDecoder(resp2.Body).Decode(&sessions))
		require.Len(t, sessions.Sessions, 1)
		require.NotNil(t, sessions.Sessions[0].StoppedAt)
	})
}

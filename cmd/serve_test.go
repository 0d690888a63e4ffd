package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const isolatedRunBody = `{"config": {"N": 10, "I": 1, "m": 0, "seed": 1, "verbose": true}}`

func postRun(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/run_simulation", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newServer().routes().ServeHTTP(rec, req)
	return rec
}

func TestHandleRun_Success(t *testing.T) {
	// WHEN a valid configuration is posted
	rec := postRun(t, isolatedRunBody)

	// THEN the run's curve, trace and summary are returned
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var resp runResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 0}, resp.InfectionCurve)
	assert.Equal(t, "Day 1: 1 of 10 agents infected.", resp.VerboseLogs[0])
	assert.Equal(t, int64(1), resp.Summary.Seed)
	assert.Empty(t, resp.Issues)
}

func TestHandleRun_ReportsReplacedValues(t *testing.T) {
	rec := postRun(t, `{"config": {"N": 10, "m": "many", "colour": "red", "seed": 3}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp runResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	keys := make([]string, 0, len(resp.Issues))
	for _, issue := range resp.Issues {
		keys = append(keys, issue.Key)
	}
	assert.ElementsMatch(t, []string{"m", "colour"}, keys)
}

func TestHandleRun_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"missing config", `{"settings": {}}`, "Configuration data not provided"},
		{"invalid json", `{"config":`, "invalid JSON body"},
		{"inconsistent config", `{"config": {"N": 5, "I": 6}}`, "exceeds population size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postRun(t, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Contains(t, resp.Error, tt.wantMsg)
		})
	}
}

func TestRoutes_PreflightAndHealth(t *testing.T) {
	handler := newServer().routes()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/run_simulation", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/run_simulation", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func dialStream(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(newServer().routes())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/run" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHandleStream_JSONFrames(t *testing.T) {
	// GIVEN a stream connection
	conn := dialStream(t, "")

	// WHEN the isolated run is requested
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(isolatedRunBody)))

	// THEN one day frame per simulated day arrives, then the summary
	var days []int
	var summary streamFrame
	for {
		var frame streamFrame
		require.NoError(t, conn.ReadJSON(&frame))
		if frame.Type == frameSummary {
			summary = frame
			break
		}
		require.Equal(t, frameDay, frame.Type, "unexpected frame %+v", frame)
		require.NotNil(t, frame.Day)
		days = append(days, frame.Day.Day)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, days)
	assert.Equal(t, []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 0}, summary.Curve)
	require.NotNil(t, summary.Summary)
	assert.Equal(t, 9, summary.Summary.Days)
	assert.NotEmpty(t, summary.RunID)
}

func TestHandleStream_BareConfigAndErrors(t *testing.T) {
	conn := dialStream(t, "")
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"N": 3, "I": 4}`)))

	var frame streamFrame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, frameError, frame.Type)
	assert.Contains(t, frame.Error, "exceeds population size")
}

func TestHandleStream_ProtoFrames(t *testing.T) {
	conn := dialStream(t, "?format=proto")
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(isolatedRunBody)))

	dayFrames := 0
	for {
		kind, data, err := conn.ReadMessage()
		require.NoError(t, err)
		require.Equal(t, websocket.BinaryMessage, kind)

		var st structpb.Struct
		require.NoError(t, proto.Unmarshal(data, &st))
		fields := st.GetFields()
		if fields["type"].GetStringValue() == frameSummary {
			curve := fields["infection_curve"].GetListValue().GetValues()
			assert.Len(t, curve, 10)
			assert.Equal(t, float64(0), curve[9].GetNumberValue())
			break
		}
		assert.Equal(t, frameDay, fields["type"].GetStringValue())
		dayFrames++
	}
	assert.Equal(t, 9, dayFrames)
}

func TestDecodeStreamConfig(t *testing.T) {
	cfg, err := decodeStreamConfig([]byte(`{"config": {"N": 5}}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"N": float64(5)}, cfg)

	cfg, err = decodeStreamConfig([]byte(`{"N": 5}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"N": float64(5)}, cfg)

	_, err = decodeStreamConfig([]byte(`{"config": [1, 2]}`))
	assert.ErrorContains(t, err, "config must be an object")

	_, err = decodeStreamConfig([]byte(`not json`))
	assert.Error(t, err)
}

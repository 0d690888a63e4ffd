package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/epidemic-sim/epidemic-sim/sim"
	"github.com/epidemic-sim/epidemic-sim/sim/trace"
)

// Frame types sent on /ws/run.
const (
	frameDay     = "day"
	frameSummary = "summary"
	frameError   = "error"
)

// streamFrame is one message on /ws/run.
type streamFrame struct {
	Type    string            `json:"type"`
	RunID   string            `json:"run_id"`
	Day     *trace.DayRecord  `json:"day,omitempty"`
	Curve   []int             `json:"infection_curve,omitempty"`
	Summary *sim.Summary      `json:"summary,omitempty"`
	Issues  []sim.ConfigIssue `json:"issues,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// frameWriter sends frames as JSON text, or as binary protobuf Struct
// messages when the client asked for format=proto.
type frameWriter struct {
	conn  *websocket.Conn
	proto bool
}

func (fw frameWriter) write(frame streamFrame) error {
	if !fw.proto {
		return fw.conn.WriteJSON(frame)
	}
	payload, err := encodeProtoFrame(frame)
	if err != nil {
		return err
	}
	return fw.conn.WriteMessage(websocket.BinaryMessage, payload)
}

// encodeProtoFrame converts a frame to a google.protobuf.Struct by way of its
// JSON form, so both encodings carry identical field names.
func encodeProtoFrame(frame streamFrame) ([]byte, error) {
	data, err := json.Marshal(frame)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("building proto frame: %w", err)
	}
	return proto.Marshal(st)
}

// handleStream upgrades to a websocket, reads one configuration message
// ({"config": {...}} or the bare mapping) and streams a frame per simulated
// day, then a summary frame. The run stops early if the client goes away.
func (s *server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Warnf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	fw := frameWriter{conn: conn, proto: r.URL.Query().Get("format") == "proto"}
	runID := uuid.NewString()
	log := logrus.WithField("run_id", runID)

	_, data, err := conn.ReadMessage()
	if err != nil {
		log.Warnf("run stream read error: %v", err)
		return
	}
	raw, err := decodeStreamConfig(data)
	if err != nil {
		_ = fw.write(streamFrame{Type: frameError, RunID: runID, Error: err.Error()})
		return
	}

	cfg, issues := sim.Resolve(raw)
	simulator, err := sim.NewSimulator(cfg)
	if err != nil {
		_ = fw.write(streamFrame{Type: frameError, RunID: runID, Error: err.Error(), Issues: issues})
		return
	}

	var writeErr error
	simulator.OnDay(func(rec trace.DayRecord) {
		if writeErr == nil {
			writeErr = fw.write(streamFrame{Type: frameDay, RunID: runID, Day: &rec})
		}
	})
	for writeErr == nil && simulator.Step() {
	}
	if writeErr != nil {
		log.Warnf("run stream aborted at day %d: %v", simulator.Day, writeErr)
		return
	}

	result := simulator.Run()
	if err := fw.write(streamFrame{
		Type:    frameSummary,
		RunID:   runID,
		Curve:   result.Curve,
		Summary: &result.Summary,
		Issues:  issues,
	}); err != nil {
		log.Warnf("run stream summary write failed: %v", err)
		return
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
}

// decodeStreamConfig accepts {"config": {...}} or a bare configuration object.
func decodeStreamConfig(data []byte) (map[string]any, error) {
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("invalid configuration message: %w", err)
	}
	if inner, ok := msg["config"]; ok {
		cfg, isMap := inner.(map[string]any)
		if !isMap {
			return nil, fmt.Errorf("config must be an object")
		}
		return cfg, nil
	}
	return msg, nil
}

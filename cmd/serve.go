package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/epidemic-sim/epidemic-sim/sim"
)

var (
	serveAddr     string
	serveLogLevel string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve simulations over HTTP and WebSocket",
	Long:  "POST /run_simulation runs one simulation per request; /ws/run streams one frame per simulated day.",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel(serveLogLevel)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		srv := &http.Server{
			Addr:              serveAddr,
			Handler:           newServer().routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		logrus.Infof("serving simulations on %s", serveAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	},
}

// server exposes the engine over HTTP. Every request runs its own simulator;
// nothing is shared between requests.
type server struct {
	upgrader websocket.Upgrader
}

func newServer() *server {
	return &server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /run_simulation", s.handleRun)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /ws/run", s.handleStream)
	return withRequestLogging(withCORS(mux))
}

// runRequest is the body of POST /run_simulation.
type runRequest struct {
	Config map[string]any `json:"config"`
}

// runResponse is the reply to POST /run_simulation.
type runResponse struct {
	RunID          string            `json:"run_id"`
	InfectionCurve []int             `json:"infection_curve"`
	VerboseLogs    []string          `json:"verbose_logs"`
	Summary        sim.Summary       `json:"summary"`
	Issues         []sim.ConfigIssue `json:"issues"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Issues []sim.ConfigIssue `json:"issues,omitempty"`
}

func (s *server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}
	if req.Config == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Configuration data not provided"})
		return
	}

	runID := uuid.NewString()
	cfg, issues := sim.Resolve(req.Config)
	logrus.WithField("run_id", runID).Infof("received configuration: %v", req.Config)

	result, err := sim.RunSimulation(cfg)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Issues: issues})
		return
	}
	logrus.WithField("run_id", runID).Infof("simulation results: %v", result.Curve)

	if issues == nil {
		issues = []sim.ConfigIssue{}
	}
	writeJSON(w, http.StatusOK, runResponse{
		RunID:          runID,
		InfectionCurve: result.Curve,
		VerboseLogs:    result.Trace,
		Summary:        result.Summary,
		Issues:         issues,
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Warnf("failed to write response: %v", err)
	}
}

// withCORS allows any origin and answers preflight requests.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets websocket upgrades through the logging wrapper.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logrus.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Info("request")
	})
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":5000", "Server listen address")
	serveCmd.Flags().StringVar(&serveLogLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	rootCmd.AddCommand(serveCmd)
}

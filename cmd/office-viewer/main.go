package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"officesim/config"
	"officesim/dashboard"
	"officesim/officerpc"
	"officesim/shared"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// stateSource provides the current office state
type stateSource interface {
	GetOfficeState(ctx context.Context, opts ...grpc.CallOption) (shared.OfficeState, error)
}

// dashboardDTO is the JSON view of the polled dashboard sent to the browser
type dashboardDTO struct {
	GeneratedAt *time.Time       `json:"generatedAt"`
	Tasks       []dashboard.Task `json:"tasks"`
}

// viewer serves office state and dashboard data to browsers
type viewer struct {
	source       stateSource
	pollInterval time.Duration
	poller       *dashboard.Poller
	proxy        http.Handler
}

func (v *viewer) routes(staticDir string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", v.events)
	mux.HandleFunc("/state", v.state)
	mux.HandleFunc("/dashboard", v.dashboard)
	mux.Handle("/dashboard/state", v.proxy)
	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	return mux
}

// events streams the office state as server-sent events
func (v *viewer) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(v.pollInterval)
	defer ticker.Stop()

	// send one immediately
	if err := sendOfficeState(r.Context(), v.source, w); err != nil {
		log.Printf("/events initial send error: %v", err)
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := sendOfficeState(r.Context(), v.source, w); err != nil {
				log.Printf("/events send error: %v", err)
				return
			}
			flusher.Flush()
		}
	}
}

// state returns a single office state as JSON
func (v *viewer) state(w http.ResponseWriter, r *http.Request) {
	state, err := v.source.GetOfficeState(r.Context())
	if err != nil {
		log.Printf("/state fetch error: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// dashboard returns the root tasks of the last polled dashboard state
func (v *viewer) dashboard(w http.ResponseWriter, r *http.Request) {
	dto := dashboardDTO{Tasks: []dashboard.Task{}}
	if latest := v.poller.Latest(); latest != nil {
		generatedAt := latest.GeneratedAt
		dto.GeneratedAt = &generatedAt
		if roots := latest.RootTasks(); roots != nil {
			dto.Tasks = roots
		}
	}
	writeJSON(w, http.StatusOK, dto)
}

func sendOfficeState(ctx context.Context, source stateSource, w http.ResponseWriter) error {
	state, err := source.GetOfficeState(ctx)
	if err != nil {
		return err
	}

	// SSE: write as data: <json>\n\n
	b, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return err
	}
	if _, err := w.Write([]byte("\n\n")); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func main() {
	addr := flag.String("http", ":8081", "HTTP listen address for the office viewer")
	simGRPC := flag.String("grpc", "localhost:9090", "Simulation server gRPC address")
	staticDir := flag.String("static", "", "Directory with static web assets (disabled when empty)")
	pollMs := flag.Int("poll_ms", 250, "Polling interval in milliseconds for office updates")
	configPath := flag.String("config", config.DefaultPath(), "Path to config.json")
	flag.Parse()

	if *pollMs <= 0 {
		log.Fatalf("poll_ms must be positive, got %d", *pollMs)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to simulation gRPC server
	log.Printf("Connecting to simulation gRPC at %s", *simGRPC)
	conn, err := grpc.NewClient(*simGRPC, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("Failed to connect to simulation server: %v", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Printf("Error closing gRPC connection: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poller := dashboard.NewPoller(cfg.StateEndpoint, dashboard.DefaultInterval, nil)
	go poller.Run(ctx)

	v := &viewer{
		source:       officerpc.NewClient(conn),
		pollInterval: time.Duration(*pollMs) * time.Millisecond,
		poller:       poller,
		proxy:        dashboard.NewProxy(cfg.StateBackend, nil),
	}

	var static string
	if *staticDir != "" {
		static, _ = filepath.Abs(*staticDir)
		log.Printf("Serving static files from %s", static)
	}

	// Support automatic free port selection with -http :0
	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatalf("Failed to bind %s: %v", *addr, err)
	}
	log.Printf("Office viewer listening on %s", ln.Addr().String())

	srv := &http.Server{
		Handler:     v.routes(static),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("HTTP server stopped: %v", err)
	}
}

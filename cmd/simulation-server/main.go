package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"officesim"
	"officesim/journal"
	"officesim/officerpc"
	"officesim/shared"

	"google.golang.org/grpc"
)

const journalBuffer = 256

// statusResponse is the body of the /status endpoint
type statusResponse struct {
	Tick           int64              `json:"tick"`
	Viewers        int                `json:"viewers"`
	AvgTickLatency string             `json:"avg_tick_latency"`
	MaxTickLatency string             `json:"max_tick_latency"`
	State          shared.OfficeState `json:"state"`
}

// loadRoster returns the roster at path, or the default roster when path is empty
func loadRoster(path string) ([]officesim.RosterEntry, error) {
	if path == "" {
		return officesim.DefaultRoster(), nil
	}
	return officesim.LoadRoster(path)
}

// newHTTPHandler wires the HTTP endpoints of the simulation server
func newHTTPHandler(core *SimulationCore, hub *ViewerHub, jr *journal.Journal) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		stats := core.Stats()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(statusResponse{
			Tick:           stats.Ticks,
			Viewers:        hub.Count(),
			AvgTickLatency: stats.AvgTickLatency.String(),
			MaxTickLatency: stats.MaxTickLatency.String(),
			State:          core.GetOfficeState(),
		})
	})
	mux.HandleFunc("/transitions", func(w http.ResponseWriter, r *http.Request) {
		if jr == nil {
			http.Error(w, "journal disabled", http.StatusNotFound)
			return
		}

		var (
			events []shared.TransitionEvent
			err    error
		)
		if agent := r.URL.Query().Get("agent"); agent != "" {
			events, err = jr.ForAgent(r.Context(), agent)
		} else {
			limit := 50
			if v := r.URL.Query().Get("limit"); v != "" {
				n, convErr := strconv.Atoi(v)
				if convErr != nil || n <= 0 {
					http.Error(w, "invalid limit", http.StatusBadRequest)
					return
				}
				limit = n
			}
			events, err = jr.Recent(r.Context(), limit)
		}
		if err != nil {
			log.Printf("Failed to read journal: %v", err)
			http.Error(w, "journal read failed", http.StatusInternalServerError)
			return
		}
		if events == nil {
			events = []shared.TransitionEvent{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(events)
	})
	return mux
}

// startJournal returns a sink that queues transitions for an asynchronous writer.
// The returned function drains the queue and must be called after the core stops.
func startJournal(jr *journal.Journal) (TransitionSink, func()) {
	queue := make(chan shared.TransitionEvent, journalBuffer)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for ev := range queue {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := jr.Record(ctx, ev); err != nil {
				log.Printf("Failed to journal transition of %s: %v", ev.AgentID, err)
			}
			cancel()
		}
	}()

	sink := func(ev shared.TransitionEvent) {
		select {
		case queue <- ev:
		default:
			log.Printf("Journal queue full, dropping transition of %s", ev.AgentID)
		}
	}
	stop := func() {
		close(queue)
		<-done
	}
	return sink, stop
}

func run() error {
	portPtr := flag.String("port", "8080", "Port to run the HTTP and websocket server on")
	grpcPortPtr := flag.String("grpc-port", "9090", "Port to run the gRPC server on")
	fpsPtr := flag.Int("fps", 60, "Simulation ticks per second")
	rosterPtr := flag.String("roster", "", "Roster JSON file (default: built-in office)")
	schemaPtr := flag.Bool("roster-schema", false, "Print the roster JSON schema and exit")
	journalPtr := flag.String("journal", "", "SQLite file recording agent transitions (disabled when empty)")
	outputPtr := flag.String("output", "office_output.txt", "Text dump of the office state (disabled when empty)")
	printEveryPtr := flag.Int64("print-every", 30, "Rewrite the text dump every N ticks")
	flag.Parse()

	if *schemaPtr {
		schema, err := officesim.RosterSchema()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(schema)
		return err
	}

	if *fpsPtr <= 0 {
		return fmt.Errorf("fps must be positive, got %d", *fpsPtr)
	}

	roster, err := loadRoster(*rosterPtr)
	if err != nil {
		return err
	}

	core, err := NewSimulationCore(roster, time.Second/time.Duration(*fpsPtr), *outputPtr, nil)
	if err != nil {
		return err
	}
	defer core.Stop()
	core.PrintEvery = *printEveryPtr

	core.AddTransitionSink(func(ev shared.TransitionEvent) {
		log.Printf("Agent %s: %s -> %s (energy %.1f)", ev.AgentID, ev.From, ev.To, ev.Energy)
	})

	var jr *journal.Journal
	if *journalPtr != "" {
		jr, err = journal.Open(*journalPtr)
		if err != nil {
			return err
		}
		defer jr.Close()
		sink, stop := startJournal(jr)
		defer stop()
		core.AddTransitionSink(sink)
		log.Printf("Journaling transitions to %s", *journalPtr)
	}

	hub := NewViewerHub(core)
	defer hub.Close()
	core.AddStateSink(hub.Broadcast)
	core.AddTransitionSink(hub.BroadcastTransition)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	grpcServer := grpc.NewServer()
	officerpc.RegisterOfficeServiceServer(grpcServer, NewGRPCOfficeServer(core))

	lis, err := net.Listen("tcp", ":"+*grpcPortPtr)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", *grpcPortPtr, err)
	}

	httpServer := &http.Server{
		Addr:    ":" + *portPtr,
		Handler: newHTTPHandler(core, hub, jr),
	}

	errCh := make(chan error, 2)
	go func() {
		log.Printf("gRPC server listening on port %s", *grpcPortPtr)
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	go func() {
		log.Printf("HTTP server listening on port %s", *portPtr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		core.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		log.Println("Shutdown signal received")
	case err = <-errCh:
		log.Printf("Server failed: %v", err)
		stop()
	}
	<-loopDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Printf("HTTP shutdown error: %v", shutdownErr)
	}
	// watch streams only end with their clients, so graceful stop would hang
	grpcServer.Stop()

	return err
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("simulation server: %v", err)
	}
}

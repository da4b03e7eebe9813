package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"officesim/config"
	"officesim/narrator"
	"officesim/officerpc"
	"officesim/shared"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// stateStream delivers office states one at a time
type stateStream interface {
	Recv() (shared.OfficeState, error)
}

// NarratorClient watches the simulation over gRPC and narrates what it sees
type NarratorClient struct {
	ServerURL      string
	Every          time.Duration
	Narrator       narrator.Narrator
	Output         func(string)
	reconnectDelay time.Duration
}

// NewNarratorClient creates a client for serverURL narrating every interval
func NewNarratorClient(serverURL string, every time.Duration, n narrator.Narrator) *NarratorClient {
	return &NarratorClient{
		ServerURL: serverURL,
		Every:     every,
		Narrator:  n,
		Output: func(line string) {
			log.Printf("Narration: %s", line)
		},
		reconnectDelay: 5 * time.Second,
	}
}

// Run connects and narrates until ctx is cancelled, reconnecting after failures
func (c *NarratorClient) Run(ctx context.Context) {
	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			log.Println("Narrator stopping")
			return
		}
		log.Printf("Connection error: %v. Retrying in %v", err, c.reconnectDelay)

		select {
		case <-ctx.Done():
			log.Println("Narrator stopping")
			return
		case <-time.After(c.reconnectDelay):
		}
	}
}

// session runs one connection lifetime
func (c *NarratorClient) session(ctx context.Context) error {
	log.Printf("Connecting to simulation server at %s", c.ServerURL)

	conn, err := grpc.NewClient(c.ServerURL, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer conn.Close()

	client := officerpc.NewClient(conn)

	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	status, err := client.HealthCheck(healthCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Printf("Simulation server is %s", status)

	watcher, err := client.WatchOfficeState(ctx, c.Every)
	if err != nil {
		return fmt.Errorf("failed to watch office state: %w", err)
	}
	return c.narrateStream(ctx, watcher)
}

// narrateStream narrates every state received until the stream fails.
// A failed narration is logged and the stream keeps going.
func (c *NarratorClient) narrateStream(ctx context.Context, stream stateStream) error {
	for {
		state, err := stream.Recv()
		if err != nil {
			return fmt.Errorf("failed to receive office state: %w", err)
		}

		line, err := c.Narrator.Narrate(ctx, state)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("Narration failed for tick %d: %v", state.Tick, err)
			continue
		}
		c.Output(line)
	}
}

// newNarrator picks the development narrator or Gemini
func newNarrator(ctx context.Context, devMode bool, cfg *config.Config) (narrator.Narrator, error) {
	if devMode {
		return narrator.DevNarrator{}, nil
	}
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("running in production mode but no Gemini API key found, set GEMINI_API_KEY or add it to config.json")
	}
	return narrator.NewGeminiNarrator(ctx, cfg.GeminiAPIKey)
}

func main() {
	devModePtr := flag.Bool("dev", true, "Run in development mode")
	serverURLPtr := flag.String("server", "localhost:9090", "Simulation server URL (gRPC)")
	everyPtr := flag.Duration("every", 10*time.Second, "Narration interval")
	configPathPtr := flag.String("config", config.DefaultPath(), "Path to config.json")
	flag.Parse()

	if *devModePtr {
		log.Println("Running in development mode")
	}
	if *everyPtr <= 0 {
		log.Fatalf("every must be positive, got %v", *everyPtr)
	}

	if err := config.SaveDefault(*configPathPtr); err != nil {
		log.Printf("Warning: Failed to create default config file: %v", err)
	}
	cfg, err := config.Load(*configPathPtr)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	n, err := newNarrator(ctx, *devModePtr, cfg)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	log.Println("Narrator running. Press Ctrl+C to stop.")
	NewNarratorClient(*serverURLPtr, *everyPtr, n).Run(ctx)
}

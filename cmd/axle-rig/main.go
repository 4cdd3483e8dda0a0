package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shubhamavl/axleweigh"
)

//go:embed assets/banner.txt
var banner string

func main() {
	if os.Getenv("AXLE_RIG_NO_BANNER") == "" {
		fmt.Println(banner)
	}
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "run":
		err = runCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "stats":
		err = statsCommand(os.Args[2:])
	case "simulate":
		err = simulateCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("axle-rig %s: %v", cmd, err)
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to rig configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	flow, err := axleweigh.Conf(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return flow.Run(ctx)
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := axleweigh.LoadConfig(*cfgPath)
	if err != nil {
		return err
	}
	fmt.Printf("config %s looks good (source=%s, tick=%s, window=%d)\n",
		*cfgPath, cfg.Source.Kind, cfg.Policy.TickInterval, cfg.Policy.MaxSamples)
	return nil
}

func statsCommand(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	url := fs.String("url", "http://localhost:9100/api/snapshot", "Rig snapshot endpoint")
	interval := fs.Duration("interval", time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	client := &http.Client{Timeout: *interval}
	fmt.Printf("Streaming snapshots from %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printSnapshot(ctx, client, *url); err != nil {
				fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
			}
		}
	}
}

func printSnapshot(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	var snap axleweigh.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	fmt.Printf("[%s] %-9s left=%.2f right=%.2f total=%.2f balance=%.1f%% %s rate=%.0f/s samples=%d\n",
		snap.Timestamp.Format(time.RFC3339),
		snap.State,
		snap.Left,
		snap.Right,
		snap.Total,
		snap.BalancePercent,
		snap.BalanceStatus,
		snap.RatePerSecond,
		snap.SampleCount,
	)
	return nil
}

// simulateCommand runs one headless session against the simulator and prints
// the saved record.
func simulateCommand(args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Optional configuration file; defaults are used when empty")
	pattern := fs.String("pattern", "static", "Waveform for both channels: static, step, ramp, damped_sine")
	left := fs.Float64("left", 1200, "Left channel base weight in kg")
	right := fs.Float64("right", 1150, "Right channel base weight in kg")
	duration := fs.Duration("duration", 3*time.Second, "How long the session reads")
	axle := fs.Uint("axle", 1, "Axle number recorded with the session")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := axleweigh.DefaultConfig()
	if *cfgPath != "" {
		loaded, err := axleweigh.LoadConfig(*cfgPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	p, err := axleweigh.ParsePattern(*pattern)
	if err != nil {
		return err
	}
	if *axle == 0 || *axle > 255 {
		return fmt.Errorf("axle must be between 1 and 255")
	}
	cfg.Source.Kind = axleweigh.SourceSimulator
	cfg.Simulator.Left.Pattern, cfg.Simulator.Right.Pattern = p, p
	cfg.Simulator.Left.Weight, cfg.Simulator.Right.Weight = *left, *right
	cfg.Session.AxleNumber = uint8(*axle)

	rt, err := axleweigh.NewRuntime(cfg, axleweigh.WithoutHTTP())
	if err != nil {
		return err
	}
	if err := rt.Start(); err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rt.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if ok, err := rt.StartTest(ctx); err != nil || !ok {
		return errors.Join(errors.New("start test rejected"), err)
	}
	select {
	case <-ctx.Done():
	case <-time.After(*duration):
	}
	if _, err := rt.StopTest(context.Background()); err != nil {
		return err
	}

	rec, fut, err := rt.SaveTest(context.Background())
	if err != nil {
		return err
	}
	if err := <-fut; err != nil {
		return fmt.Errorf("persist record: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

func printUsage() {
	fmt.Printf(`Axle rig CLI

Usage:
  axle-rig <command> [flags]

Commands:
  run        Start the rig runtime using the provided config
  validate   Load and validate a config file without starting the runtime
  stats      Poll the snapshot endpoint and print live readings
  simulate   Run one headless session on the simulator and print the record

Examples:
  axle-rig run -config ./data/config.yaml
  axle-rig validate -config ./data/config.yaml
  axle-rig stats -url http://localhost:9100/api/snapshot -interval 500ms
  axle-rig simulate -pattern damped_sine -duration 5s -axle 2
`)
}

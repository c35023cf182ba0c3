package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	defaultBaseURL = "http://localhost:8080"
	defaultCaller  = "0x0000000000000000000000000000000000000001"
)

type Config struct {
	BaseURL     string
	APIKey      string
	Caller      string // Caller address for authenticated writes
	Duration    time.Duration
	Concurrency int // Number of concurrent workers
	Mix         string
	Timeout     time.Duration // Timeout for each request
	OutputFile  string        // Output markdown file path (optional)
}

type OperationStats struct {
	Operation string
	Count     int
	Succeeded int
	Failed    int
	Latencies []time.Duration
}

type result struct {
	operation string
	latency   time.Duration
	ok        bool
}

func main() {
	cfg := parseFlags()

	if cfg.APIKey == "" {
		fmt.Println("Error: api-key is required")
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	client := &http.Client{Timeout: cfg.Timeout}

	if err := checkHealth(client, cfg.BaseURL); err != nil {
		fmt.Printf("Error reaching API at %s: %v\n", cfg.BaseURL, err)
		os.Exit(1)
	}

	fmt.Printf("Connected to token engine at %s\n", cfg.BaseURL)
	fmt.Printf("Workers:  %d\n", cfg.Concurrency)
	fmt.Printf("Duration: %s\n", cfg.Duration)
	fmt.Printf("Mix:      %s\n", cfg.Mix)
	fmt.Printf("\nRunning benchmark...\n")

	operations := strings.Split(cfg.Mix, ",")
	results := make(chan result, 4096)

	runCtx, runCancel := context.WithTimeout(ctx, cfg.Duration)
	defer runCancel()

	var wg sync.WaitGroup
	started := time.Now()
	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			runWorker(runCtx, client, cfg, operations, worker, results)
		}(i)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	stats := collectResults(results)
	elapsed := time.Since(started)

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("BENCHMARK RESULTS")
	fmt.Println(strings.Repeat("=", 80))
	printStats(stats, elapsed)

	if cfg.OutputFile != "" {
		if err := writeReport(cfg.OutputFile, stats, elapsed); err != nil {
			fmt.Printf("Error writing report: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Report written to %s\n", cfg.OutputFile)
	}
}

func parseFlags() *Config {
	cfg := &Config{}

	// Seed defaults from the config file when present
	fileCfg, err := LoadConfig(GetDefaultConfigPath())
	if err != nil {
		fileCfg = &BenchmarkConfig{BaseURL: defaultBaseURL, Caller: defaultCaller}
	}
	if fileCfg.BaseURL == "" {
		fileCfg.BaseURL = defaultBaseURL
	}
	if fileCfg.Caller == "" {
		fileCfg.Caller = defaultCaller
	}

	flag.StringVar(&cfg.BaseURL, "base-url", fileCfg.BaseURL, "Token engine base URL")
	flag.StringVar(&cfg.APIKey, "api-key", fileCfg.APIKey, "API key for authenticated writes")
	flag.StringVar(&cfg.Caller, "caller", fileCfg.Caller, "Caller address; must hold the minter role for the mint mix")
	flag.DurationVar(&cfg.Duration, "duration", 30*time.Second, "How long to run")
	flag.IntVar(&cfg.Concurrency, "concurrency", 8, "Number of concurrent workers")
	flag.StringVar(&cfg.Mix, "mix", "mint,transfer,balance", "Comma-separated operation mix: mint, transfer, balance, votes")
	flag.DurationVar(&cfg.Timeout, "timeout", 10*time.Second, "Per-request timeout")
	flag.StringVar(&cfg.OutputFile, "output", "", "Output markdown file path (optional)")
	flag.Parse()

	return cfg
}

func checkHealth(client *http.Client, baseURL string) error {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return nil
}

// runWorker fires operations from the mix round-robin until the context ends.
// Each worker transfers between its own pair of throwaway addresses so
// workers never contend on the same balance.
func runWorker(ctx context.Context, client *http.Client, cfg *Config, operations []string, worker int, results chan<- result) {
	holder := randomAddress()
	counterparty := randomAddress()

	// Fund the holder so transfers in the mix have a balance to move
	_ = post(ctx, client, cfg, "/api/v1/token/mint",
		map[string]string{"to": holder.Hex(), "quantity": "1000000"})

	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		op := strings.TrimSpace(operations[i%len(operations)])
		start := time.Now()
		err := runOperation(ctx, client, cfg, op, holder, counterparty)
		if ctx.Err() != nil {
			return
		}
		results <- result{operation: op, latency: time.Since(start), ok: err == nil}
	}
}

func runOperation(ctx context.Context, client *http.Client, cfg *Config, op string, holder, counterparty common.Address) error {
	switch op {
	case "mint":
		return post(ctx, client, cfg, "/api/v1/token/mint",
			map[string]string{"to": holder.Hex(), "quantity": "1"})
	case "transfer":
		return postAs(ctx, client, cfg, holder.Hex(), "/api/v1/token/transfer",
			map[string]string{"to": counterparty.Hex(), "quantity": "1"})
	case "balance":
		return get(ctx, client, cfg, "/api/v1/accounts/"+holder.Hex()+"/balance")
	case "votes":
		return get(ctx, client, cfg, "/api/v1/accounts/"+holder.Hex()+"/votes")
	default:
		return fmt.Errorf("unknown operation %q", op)
	}
}

func post(ctx context.Context, client *http.Client, cfg *Config, path string, body map[string]string) error {
	return postAs(ctx, client, cfg, cfg.Caller, path, body)
}

func postAs(ctx context.Context, client *http.Client, cfg *Config, caller, path string, body map[string]string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "APIKey "+cfg.APIKey)
	req.Header.Set("X-Caller-Address", caller)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %d", path, resp.StatusCode)
	}
	return nil
}

func get(ctx context.Context, client *http.Client, cfg *Config, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.BaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %d", path, resp.StatusCode)
	}
	return nil
}

func randomAddress() common.Address {
	var addr common.Address
	_, _ = rand.Read(addr[:])
	return addr
}

func collectResults(results <-chan result) map[string]*OperationStats {
	stats := make(map[string]*OperationStats)
	for r := range results {
		s := stats[r.operation]
		if s == nil {
			s = &OperationStats{Operation: r.operation}
			stats[r.operation] = s
		}
		s.Count++
		if r.ok {
			s.Succeeded++
		} else {
			s.Failed++
		}
		s.Latencies = append(s.Latencies, r.latency)
	}
	return stats
}

func printStats(stats map[string]*OperationStats, elapsed time.Duration) {
	sorted := sortedStats(stats)

	total := 0
	for _, s := range sorted {
		total += s.Count
	}

	fmt.Printf("Elapsed:     %s\n", formatDuration(elapsed))
	fmt.Printf("Requests:    %d\n", total)
	fmt.Printf("Throughput:  %s\n", formatRate(total, elapsed))
	fmt.Println()

	for _, s := range sorted {
		emoji := statusEmoji(s.Succeeded, s.Failed)
		fmt.Printf("  %s %s\n", emoji, s.Operation)
		fmt.Printf("    Count:     %d\n", s.Count)
		fmt.Printf("    Succeeded: %d (%s)\n", s.Succeeded, percentageString(s.Succeeded, s.Count))
		if s.Failed > 0 {
			fmt.Printf("    Failed:    %d (%s)\n", s.Failed, percentageString(s.Failed, s.Count))
		}
		p50, p95, p99 := percentiles(s.Latencies)
		fmt.Printf("    p50:       %s\n", formatDuration(p50))
		fmt.Printf("    p95:       %s\n", formatDuration(p95))
		fmt.Printf("    p99:       %s\n", formatDuration(p99))
		fmt.Printf("    Rate:      %s\n", formatRate(s.Count, elapsed))
		fmt.Println()
	}

	fmt.Println(strings.Repeat("-", 80))
}

func writeReport(path string, stats map[string]*OperationStats, elapsed time.Duration) error {
	var b strings.Builder
	b.WriteString("# Token Engine Benchmark\n\n")
	b.WriteString(fmt.Sprintf("Elapsed: %s\n\n", formatDuration(elapsed)))
	b.WriteString("| Operation | Count | Succeeded | Failed | p50 | p95 | p99 |\n")
	b.WriteString("|-----------|-------|-----------|--------|-----|-----|-----|\n")

	for _, s := range sortedStats(stats) {
		p50, p95, p99 := percentiles(s.Latencies)
		b.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %s | %s | %s |\n",
			s.Operation, s.Count, s.Succeeded, s.Failed,
			formatDuration(p50), formatDuration(p95), formatDuration(p99)))
	}

	return os.WriteFile(path, []byte(b.String()), 0644)
}

func sortedStats(stats map[string]*OperationStats) []*OperationStats {
	sorted := make([]*OperationStats, 0, len(stats))
	for _, s := range stats {
		sorted = append(sorted, s)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Operation < sorted[j].Operation
	})
	return sorted
}

func percentiles(latencies []time.Duration) (p50, p95, p99 time.Duration) {
	if len(latencies) == 0 {
		return 0, 0, 0
	}
	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	at := func(q float64) time.Duration {
		idx := int(q * float64(len(sorted)-1))
		return sorted[idx]
	}
	return at(0.50), at(0.95), at(0.99)
}

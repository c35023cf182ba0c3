package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "N/A", formatRate(10, 0))
	assert.Equal(t, "5.00/s", formatRate(10, 2*time.Second))
}

func TestPercentageString(t *testing.T) {
	assert.Equal(t, "0.00%", percentageString(1, 0))
	assert.Equal(t, "50.00%", percentageString(1, 2))
	assert.Equal(t, "100.00%", percentageString(3, 3))
}

func TestStatusEmoji(t *testing.T) {
	assert.Equal(t, "❌", statusEmoji(10, 1))
	assert.Equal(t, "✅", statusEmoji(10, 0))
	assert.Equal(t, "⚪", statusEmoji(0, 0))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", formatDuration(250*time.Millisecond))
	assert.Equal(t, "2.50s", formatDuration(2500*time.Millisecond))
	assert.Equal(t, "1m30s", formatDuration(90*time.Second))
}

func TestPercentiles(t *testing.T) {
	p50, p95, p99 := percentiles(nil)
	assert.Zero(t, p50)
	assert.Zero(t, p95)
	assert.Zero(t, p99)

	latencies := make([]time.Duration, 100)
	for i := range latencies {
		latencies[i] = time.Duration(i+1) * time.Millisecond
	}
	p50, p95, p99 = percentiles(latencies)
	assert.Equal(t, 50*time.Millisecond, p50)
	assert.Equal(t, 95*time.Millisecond, p95)
	assert.Equal(t, 99*time.Millisecond, p99)
}

func TestCollectResults(t *testing.T) {
	results := make(chan result, 3)
	results <- result{operation: "mint", latency: time.Millisecond, ok: true}
	results <- result{operation: "mint", latency: 2 * time.Millisecond, ok: false}
	results <- result{operation: "balance", latency: time.Millisecond, ok: true}
	close(results)

	stats := collectResults(results)

	require.Len(t, stats, 2)
	assert.Equal(t, 2, stats["mint"].Count)
	assert.Equal(t, 1, stats["mint"].Succeeded)
	assert.Equal(t, 1, stats["mint"].Failed)
	assert.Equal(t, 1, stats["balance"].Succeeded)
}

func TestConfigRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	saved := &BenchmarkConfig{
		BaseURL: "http://localhost:9090",
		APIKey:  "secret",
		Caller:  "0x0000000000000000000000000000000000000001",
	}

	require.NoError(t, SaveConfig(path, saved))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

// Package main provides a performance benchmarking tool for the warnbase CLI.
// It generates synthetic Kotlin projects of increasing size, then measures write and
// check invocations against them, running each test multiple times, treating the first
// successful run as cold and averaging the rest as warm, generating CSV output for
// performance analysis and documentation.
//
// Prerequisites:
// - warnbase binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory the synthetic projects are generated in
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Project     string
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// ProjectSize describes one synthetic project.
type ProjectSize struct {
	Name            string
	Units           int
	WarningsPerUnit int
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir     string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	Projects    []ProjectSize
}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:     os.Args[1],
		Timeout:     5 * time.Minute,
		Workers:     8,
		NoCacheRuns: 3,
		CacheRuns:   4,
		Projects: []ProjectSize{
			{Name: "small", Units: 2, WarningsPerUnit: 50},
			{Name: "medium", Units: 8, WarningsPerUnit: 1_000},
			{Name: "large", Units: 32, WarningsPerUnit: 10_000},
		},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	// Clear the cache using warnbase cache clear
	fmt.Printf("Clearing cache...\n")
	clearCmd := exec.Command("warnbase", "cache", "clear")
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	} else {
		fmt.Printf("Cache cleared successfully\n")
	}

	results, err := runBenchmarks(config)
	if err != nil {
		fmt.Printf("Benchmark failed: %v\n", err)
		os.Exit(1)
	}

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the warnbase binary and the work directory exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("warnbase"); err != nil {
		return fmt.Errorf("warnbase binary not found in PATH")
	}
	if err := os.MkdirAll(config.WorkDir, 0o755); err != nil {
		return fmt.Errorf("cannot create work dir %s: %w", config.WorkDir, err)
	}
	return nil
}

// generateProject writes a manifest and one compiler log per unit for size.
func generateProject(workDir string, size ProjectSize) (string, error) {
	dir, err := filepath.Abs(filepath.Join(workDir, size.Name))
	if err != nil {
		return "", err
	}
	logs := filepath.Join(dir, "build", "logs")
	if err := os.MkdirAll(logs, 0o755); err != nil {
		return "", err
	}

	var manifest strings.Builder
	fmt.Fprintf(&manifest, "[project]\nname = %q\nvariant = \"release\"\n", size.Name)
	for u := range size.Units {
		unit := fmt.Sprintf("compileModule%dReleaseKotlin", u)
		logPath := filepath.Join(logs, unit+".log")
		fmt.Fprintf(&manifest, "\n[[unit]]\nname = %q\nlog = %q\n", unit, filepath.Join("build", "logs", unit+".log"))

		var sb strings.Builder
		fmt.Fprintf(&sb, "> Task :module%d:compileReleaseKotlin\n", u)
		for w := range size.WarningsPerUnit {
			// Alternate the two diagnostic grammars
			if w%2 == 0 {
				fmt.Fprintf(&sb, "w: file://%s/module%d/src/main/kotlin/File%d.kt:%d:%d Variable 'v%d' is never used\n",
					filepath.ToSlash(dir), u, w%97, w+1, (w%40)+1, w)
			} else {
				fmt.Fprintf(&sb, "w: %s/module%d/src/main/kotlin/File%d.kt: (%d, %d): Unchecked cast: Any to T%d\n",
					filepath.ToSlash(dir), u, w%97, w+1, (w%40)+1, w)
			}
			if w%10 == 0 {
				sb.WriteString("i: note lines are ignored\n")
			}
		}
		if err := os.WriteFile(logPath, []byte(sb.String()), 0o644); err != nil {
			return "", err
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "warnbase.toml"), []byte(manifest.String()), 0o644); err != nil {
		return "", err
	}
	return dir, nil
}

// runBenchmarks executes all benchmark tests across the configured project sizes
func runBenchmarks(config BenchmarkConfig) ([]BenchmarkResult, error) {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d projects, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.Projects), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	for _, size := range config.Projects {
		fmt.Printf("Benchmarking %s (%d units x %d warnings)\n", size.Name, size.Units, size.WarningsPerUnit)

		projectDir, err := generateProject(config.WorkDir, size)
		if err != nil {
			return nil, fmt.Errorf("generate %s: %w", size.Name, err)
		}

		// Write must run first so check has a baseline to compare with
		results = append(results, runBenchmarkSuite(config, size.Name, projectDir, "write", "baseline write"))
		results = append(results, runBenchmarkSuite(config, size.Name, projectDir, "check", "baseline check"))
	}

	return results, nil
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, project, projectDir, command, description string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", description, project)

	// Helper to run a benchmark phase
	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, projectDir, command, cacheBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avg := sum / float64(len(times))
			avgTime = fmt.Sprintf("%.3fs", avg)
		}
		return cold, avgTime
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs, storing a snapshot per unit
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Project:     project,
		Command:     command,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a warnbase command multiple times with specified cache backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, projectDir, command, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{command, projectDir, "--cache-backend", cacheBackend, "--workers", fmt.Sprint(config.Workers)}

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("warnbase", args...)

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			// Timeout - don't add to times
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "Checked 1 project(s) in") && strings.Contains(outputStr, "passed")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("warnbase_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	if err := writer.Write([]string{"project", "cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, result := range results {
		if err := writer.Write([]string{result.Project, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	printCommandSummary(results, "write", "Baseline Write:")
	printCommandSummary(results, "check", "Baseline Check:")

	fmt.Printf("Benchmark script completed successfully\n")
}

// printCommandSummary displays results for a specific command type
func printCommandSummary(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  %-8s: No-cache: %s, Cold: %s, Warm: %s\n", result.Project, result.NoCacheTime, result.ColdTime, result.WarmTime)
		}
	}
}

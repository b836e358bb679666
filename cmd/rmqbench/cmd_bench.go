// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/AleutianAI/rmq"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// BenchScenario describes one benchmark run. Loaded from YAML via --config;
// flags override individual fields.
type BenchScenario struct {
	Sizes     []int    `yaml:"sizes"`      // Array sizes to benchmark
	Engines   []string `yaml:"engines"`    // Engine labels; empty means all
	Queries   int      `yaml:"queries"`    // Random queries per (engine, size) cell
	Seed      int64    `yaml:"seed"`       // RNG seed for arrays and ranges
	Output    string   `yaml:"output"`     // CSV output path; empty means stdout
	Caching   bool     `yaml:"caching"`    // Enable the per-engine result cache
	Parallel  bool     `yaml:"parallel"`   // Enable parallel builds
	BlockSize int      `yaml:"block_size"` // Block engine override; 0 = auto
}

// benchRow is one CSV row of results.
type benchRow struct {
	engine       string
	size         int
	preprocessUS int64
	totalQueryUS int64
	avgQueryNS   int64
	memoryBytes  int
}

// memoryUser is implemented by every engine that can estimate its footprint.
type memoryUser interface {
	MemoryUsage() int
}

var (
	benchConfigPath string
	benchScenario   = BenchScenario{
		Sizes:   []int{1_000, 10_000, 100_000},
		Queries: 10_000,
		Seed:    1,
	}
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run the benchmark grid and emit CSV results",
	RunE:  runBench,
}

func init() {
	benchCmd.Flags().StringVar(&benchConfigPath, "config", "", "YAML scenario file (flags override its fields)")
	benchCmd.Flags().IntSliceVar(&benchScenario.Sizes, "sizes", benchScenario.Sizes, "array sizes to benchmark")
	benchCmd.Flags().StringSliceVar(&benchScenario.Engines, "engines", nil, "engine labels to run (default all)")
	benchCmd.Flags().IntVar(&benchScenario.Queries, "queries", benchScenario.Queries, "random queries per engine and size")
	benchCmd.Flags().Int64Var(&benchScenario.Seed, "seed", benchScenario.Seed, "RNG seed")
	benchCmd.Flags().StringVar(&benchScenario.Output, "output", "", "CSV output path (default stdout)")
	benchCmd.Flags().BoolVar(&benchScenario.Caching, "caching", false, "enable the query result cache")
	benchCmd.Flags().BoolVar(&benchScenario.Parallel, "parallel", false, "enable parallel builds")
	benchCmd.Flags().IntVar(&benchScenario.BlockSize, "block-size", 0, "block engine block size override")
	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, _ []string) error {
	if benchConfigPath != "" {
		raw, err := os.ReadFile(benchConfigPath)
		if err != nil {
			return fmt.Errorf("read scenario file: %w", err)
		}
		// Flags set on the command line still win over the file.
		fileScenario := benchScenario
		if err := yaml.Unmarshal(raw, &fileScenario); err != nil {
			return fmt.Errorf("parse scenario file: %w", err)
		}
		applyFlagOverrides(cmd, &fileScenario)
		benchScenario = fileScenario
	}

	kinds, err := resolveKinds(benchScenario.Engines)
	if err != nil {
		return err
	}

	cfg := rmq.Config{}.
		WithCaching(benchScenario.Caching).
		WithParallel(benchScenario.Parallel).
		WithBlockSize(benchScenario.BlockSize)

	slog.Info("starting benchmark grid",
		"sizes", benchScenario.Sizes,
		"engines", len(kinds),
		"queries", benchScenario.Queries,
		"seed", benchScenario.Seed)

	var rows []benchRow
	for _, size := range benchScenario.Sizes {
		data := randomValues(benchScenario.Seed, size)

		for _, kind := range kinds {
			row, err := benchOne(cmd.Context(), kind, cfg, data)
			if err != nil {
				// The DP table ceiling rejects large sizes; report and
				// keep going rather than aborting the grid.
				slog.Warn("skipping cell",
					"engine", kind.String(),
					"size", size,
					"error", err)
				continue
			}
			rows = append(rows, row)
			slog.Info("cell complete",
				"engine", row.engine,
				"size", row.size,
				"preprocess_us", row.preprocessUS,
				"avg_query_ns", row.avgQueryNS)
		}
	}

	return writeCSV(benchScenario.Output, rows)
}

// applyFlagOverrides copies explicitly set flag values over the file scenario.
func applyFlagOverrides(cmd *cobra.Command, s *BenchScenario) {
	if cmd.Flags().Changed("sizes") {
		s.Sizes = benchScenario.Sizes
	}
	if cmd.Flags().Changed("engines") {
		s.Engines = benchScenario.Engines
	}
	if cmd.Flags().Changed("queries") {
		s.Queries = benchScenario.Queries
	}
	if cmd.Flags().Changed("seed") {
		s.Seed = benchScenario.Seed
	}
	if cmd.Flags().Changed("output") {
		s.Output = benchScenario.Output
	}
	if cmd.Flags().Changed("caching") {
		s.Caching = benchScenario.Caching
	}
	if cmd.Flags().Changed("parallel") {
		s.Parallel = benchScenario.Parallel
	}
	if cmd.Flags().Changed("block-size") {
		s.BlockSize = benchScenario.BlockSize
	}
}

// resolveKinds maps engine labels to kinds, defaulting to all of them.
func resolveKinds(labels []string) ([]rmq.EngineKind, error) {
	if len(labels) == 0 {
		return rmq.Kinds(), nil
	}

	kinds := make([]rmq.EngineKind, 0, len(labels))
	for _, label := range labels {
		kind, ok := rmq.ParseEngineKind(label)
		if !ok {
			return nil, fmt.Errorf("unknown engine %q", label)
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

// benchOne times one engine against one array.
func benchOne(ctx context.Context, kind rmq.EngineKind, cfg rmq.Config, data []rmq.Value) (benchRow, error) {
	engine, err := rmq.New(kind, cfg)
	if err != nil {
		return benchRow{}, err
	}
	defer engine.Clear()

	buildStart := time.Now()
	if err := engine.Preprocess(ctx, data); err != nil {
		return benchRow{}, err
	}
	buildElapsed := time.Since(buildStart)

	n := len(data)
	rng := rand.New(rand.NewSource(benchScenario.Seed + int64(kind)))

	queryStart := time.Now()
	for i := 0; i < benchScenario.Queries; i++ {
		left := rng.Intn(n)
		right := left + rng.Intn(n-left)
		if _, err := engine.Query(ctx, left, right); err != nil {
			return benchRow{}, err
		}
	}
	queryElapsed := time.Since(queryStart)

	row := benchRow{
		engine:       kind.String(),
		size:         n,
		preprocessUS: buildElapsed.Microseconds(),
		totalQueryUS: queryElapsed.Microseconds(),
	}
	if benchScenario.Queries > 0 {
		row.avgQueryNS = queryElapsed.Nanoseconds() / int64(benchScenario.Queries)
	}
	if m, ok := engine.(memoryUser); ok {
		row.memoryBytes = m.MemoryUsage()
	}
	return row, nil
}

// randomValues produces a deterministic array for the given seed and size.
func randomValues(seed int64, n int) []rmq.Value {
	rng := rand.New(rand.NewSource(seed))
	data := make([]rmq.Value, n)
	for i := range data {
		data[i] = rmq.Value(rng.Intn(2_000_001) - 1_000_000)
	}
	return data
}

// writeCSV writes the result rows, to stdout when path is empty.
func writeCSV(path string, rows []benchRow) error {
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	w := csv.NewWriter(out)
	defer w.Flush()

	header := []string{"engine", "size", "preprocess_us", "total_query_us", "avg_query_ns", "memory_bytes"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.engine,
			strconv.Itoa(r.size),
			strconv.FormatInt(r.preprocessUS, 10),
			strconv.FormatInt(r.totalQueryUS, 10),
			strconv.FormatInt(r.avgQueryNS, 10),
			strconv.Itoa(r.memoryBytes),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	if path != "" {
		slog.Info("results written", "path", path, "rows", len(rows))
	}
	return w.Error()
}

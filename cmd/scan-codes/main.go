// Command scan-codes scans every photo in a directory and prints one line per file.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/Zikrig/garantee-datamatrix/internal/scanning"
)

type result struct {
	name    string
	codes   []string
	outcome scanning.Outcome
	err     error
}

func main() {
	fs := ff.NewFlagSet("scan-codes")
	var (
		ourCodes = fs.StringLong("our-codes", os.Getenv("OUR_CODES"), "Comma or semicolon separated tokens marking our codes")
		workers  = fs.IntLong("workers", runtime.NumCPU(), "Files scanned in parallel")
		vision   = fs.BoolLong("vision", "Enable the threshold variant family")
		budget   = fs.DurationLong("budget", scanning.DefaultBudget, "Time limit for the sweep over one photo (0 disables it)")
		verbose  = fs.BoolLong("verbose", "Log every decode attempt")
	)

	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("GARANTEE")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if len(fs.GetArgs()) != 1 {
		fmt.Fprintf(os.Stderr, "usage: scan-codes [flags] <dir>\n%s\n", ffhelp.Flags(fs))
		os.Exit(2)
	}
	if *verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	dir := fs.GetArgs()[0]
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Error("Failed to read directory", "dir", dir, "error", err)
		os.Exit(1)
	}

	var toolkit scanning.Toolkit = scanning.NoToolkit{}
	if *vision {
		toolkit = scanning.Thresholds{}
	}
	engine := scanning.NewEngine(scanning.WithToolkit(toolkit), scanning.WithBudget(*budget))
	tokens := scanning.ParseTokens(*ourCodes)

	pool, err := ants.NewPool(*workers)
	if err != nil {
		slog.Error("Failed to create worker pool", "error", err)
		os.Exit(1)
	}
	defer pool.Release()

	results := make([]result, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			results = append(results, result{name: e.Name()})
		}
	}

	var wg sync.WaitGroup
	for i := range results {
		r := &results[i]
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			data, err := os.ReadFile(filepath.Join(dir, r.name))
			if err != nil {
				r.err = err
				return
			}
			r.codes = engine.ExtractCodes(data)
			r.outcome = scanning.Classify(r.codes, tokens)
		}); err != nil {
			wg.Done()
			r.err = fmt.Errorf("submitting scan: %w", err)
		}
	}
	wg.Wait()

	counts := map[scanning.Outcome]int{}
	for _, r := range results {
		if r.err != nil {
			fmt.Printf("%s\terror\t%v\n", r.name, r.err)
			continue
		}
		counts[r.outcome]++
		fmt.Printf("%s\t%s\t%s\n", r.name, r.outcome, strings.Join(r.codes, " "))
	}
	slog.Info("Scan finished", "files", len(results),
		"ours", counts[scanning.Ours], "foreign", counts[scanning.Foreign], "not_found", counts[scanning.NotFound])
}

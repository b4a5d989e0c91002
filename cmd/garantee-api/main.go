package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/Zikrig/garantee-datamatrix/internal/assist"
	"github.com/Zikrig/garantee-datamatrix/internal/dispatch"
	"github.com/Zikrig/garantee-datamatrix/internal/scanning"
	"github.com/Zikrig/garantee-datamatrix/internal/warranty"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Could not load .env", "error", err)
	}

	fs := ff.NewFlagSet("garantee-api")
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbPath      = fs.StringLong("db", "garantee.db", "Database file path")
		storagePath = fs.StringLong("storage", "./uploads", "Storage directory for accepted photos and receipts")
		ourCodes    = fs.StringLong("our-codes", os.Getenv("OUR_CODES"), "Comma or semicolon separated tokens marking our codes (or set OUR_CODES)")
		workers     = fs.IntLong("workers", 4, "Maximum concurrent scans")
		scanTimeout = fs.DurationLong("scan-timeout", 60*time.Second, "How long a request waits for a scan")
		scanBudget  = fs.DurationLong("scan-budget", scanning.DefaultBudget, "Time limit for the sweep over one photo (0 disables it)")
		vision      = fs.BoolLong("vision", "Enable the threshold variant family")
		assistName  = fs.StringLong("assist", "none", "Receipt date assistant: 'none', 'gemini' or 'ollama'")
		assistModel = fs.StringLong("assist-model", "", "Assistant model name")
		assistKey   = fs.StringLong("assist-key", "", "Gemini API key (or set GEMINI_API_KEY env var)")
		assistURL   = fs.StringLong("assist-url", "http://localhost:11434", "Ollama API base URL")
		authUser    = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass    = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("GARANTEE"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	tokens := scanning.ParseTokens(*ourCodes)
	if len(tokens) == 0 {
		slog.Warn("No ownership tokens configured, every code will be treated as foreign")
	}

	slog.Info("Initializing database...")
	db, err := warranty.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	slog.Info("Initializing storage...")
	store, err := warranty.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	pool, err := dispatch.NewPool(*workers)
	if err != nil {
		slog.Error("Failed to initialize worker pool", "error", err)
		os.Exit(1)
	}
	defer pool.Release()

	var toolkit scanning.Toolkit = scanning.NoToolkit{}
	if *vision {
		toolkit = scanning.Thresholds{}
	}
	engine := scanning.NewEngine(scanning.WithToolkit(toolkit), scanning.WithBudget(*scanBudget))
	slog.Info("Scanner ready", "vision", *vision, "tokens", len(tokens), "budget", *scanBudget)
	if *scanTimeout > 0 && (*scanBudget == 0 || *scanBudget >= *scanTimeout) {
		slog.Warn("Scan budget does not fit in the scan timeout; slow photos keep a worker busy after the request gives up",
			"budget", *scanBudget, "timeout", *scanTimeout)
	}

	key := *assistKey
	if key == "" {
		key = os.Getenv("GEMINI_API_KEY")
	}
	reader, err := assist.New(*assistName, *assistModel, key, *assistURL)
	if err != nil {
		slog.Error("Failed to initialize assistant", "assist", *assistName, "error", err)
		os.Exit(1)
	}
	if reader != nil {
		defer reader.Close()
		slog.Info("Receipt assistant enabled", "assist", *assistName)
	}

	service := warranty.NewService(db, store, pool, engine, warranty.Config{
		Tokens:      tokens,
		ScanTimeout: *scanTimeout,
		Assist:      reader,
	})

	basicAuth := warranty.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := warranty.NewServer(service, basicAuth)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", *port)
	if err := server.Start(ctx, addr); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
	slog.Info("Shutting down...")
}

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/ironsheep/pcb-toolpath/internal/detection"
	"github.com/ironsheep/pcb-toolpath/internal/pipeline"
	"github.com/ironsheep/pcb-toolpath/internal/profile"
	"github.com/ironsheep/pcb-toolpath/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// logLevelEnv selects the stderr log level: debug, info, warn or error.
const logLevelEnv = "PCB_TOOLPATH_LOG_LEVEL"

func main() {
	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "--version", "-v", "version":
		fmt.Printf("pcb-toolpath %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	case "--help", "-h", "help":
		printUsage(os.Stdout)
		return
	}

	// Log to stderr; stdout carries the MCP protocol or G-code.
	logger := newLogger(os.Stderr, os.Getenv(logLevelEnv))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch cmd {
	case "serve":
		err = serve(ctx, logger)
	case "generate":
		err = generate(ctx, logger, args, os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		printUsage(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("pcb-toolpath failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "pcb-toolpath - PCB artwork to CNC G-code")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  pcb-toolpath [serve]                 Run the MCP server on stdin/stdout")
	fmt.Fprintln(w, "  pcb-toolpath generate [flags] FILE...")
	fmt.Fprintln(w, "                                       Write G-code for each artwork file")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate flags:")
	fmt.Fprintln(w, "  -op cutting|milling|drilling         Operation (default milling)")
	fmt.Fprintln(w, "  -config FILE                         YAML configuration (default $"+profile.ConfigPathEnv+")")
	fmt.Fprintln(w, "  -o PATH                              Output file, or directory for several inputs")
	fmt.Fprintln(w, "  -text-locator tesseract|heuristic    Text finder for exclude_text (default tesseract)")
	fmt.Fprintln(w, "  -workers N                           Concurrent jobs (default one per CPU)")
	fmt.Fprintln(w, "  -timeout DURATION                    Per-job limit (default 2m)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  --version, -v    Print version information")
	fmt.Fprintln(w, "  --help, -h       Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintln(w, "  "+logLevelEnv+"=debug    Enable debug logging")
	fmt.Fprintln(w, "  "+profile.ConfigPathEnv+"=FILE     Configuration file")
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

// loadConfig reads path, falling back to the environment and then to the
// built-in defaults.
func loadConfig(path string) (*profile.Config, string, error) {
	if path == "" {
		path = os.Getenv(profile.ConfigPathEnv)
	}
	if path == "" {
		return profile.Default(), "", nil
	}
	cfg, err := profile.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func serve(ctx context.Context, logger *slog.Logger) error {
	cfg, path, err := loadConfig("")
	if err != nil {
		return err
	}
	logger.Debug("starting MCP server", "version", Version, "built", BuildTime, "commit", GitCommit, "config", path)

	srv := server.New(server.Options{
		Logger:     logger,
		Config:     cfg,
		ConfigPath: path,
		Version:    Version,
	})
	return srv.Run(ctx, os.Stdin, os.Stdout)
}

func generate(ctx context.Context, logger *slog.Logger, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	opName := fs.String("op", string(profile.Milling), "operation: cutting, milling or drilling")
	configPath := fs.String("config", "", "YAML configuration file")
	output := fs.String("o", "", "output file, or directory for several inputs")
	locatorName := fs.String("text-locator", "tesseract", "text finder: tesseract or heuristic")
	workers := fs.Int("workers", 0, "concurrent jobs (0 = one per CPU)")
	timeout := fs.Duration("timeout", 2*time.Minute, "per-job time limit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	op, err := profile.ParseOperation(*opName)
	if err != nil {
		return err
	}
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	p, err := cfg.For(op)
	if err != nil {
		return err
	}

	pcfg := pipeline.Config{Logger: logger}
	switch *locatorName {
	case "tesseract":
	case "heuristic":
		pcfg.TextLocator = detection.EdgeDensityLocator{MinConfidence: p.Shapes.TextConfidence}
	default:
		return fmt.Errorf("unknown text locator: %q", *locatorName)
	}
	pl := pipeline.New(pcfg)

	inputs := fs.Args()
	if len(inputs) == 0 && op != profile.Cutting {
		return fmt.Errorf("%s needs at least one input file", op)
	}

	jobs, err := buildJobs(inputs, op, p, *timeout)
	if err != nil {
		return err
	}

	results := pl.RunBatch(ctx, jobs, *workers)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			logger.Error("generation failed", "input", r.Name, "operation", op, "error", r.Err)
			continue
		}
		dest := outputPath(*output, r.Name, op, len(results))
		if err := writeToolpath(dest, stdout, r); err != nil {
			return err
		}
		logger.Info("toolpath written", "input", r.Name, "operation", op, "commands", r.Toolpath.Len(), "output", displayPath(dest))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", failed, len(results))
	}
	return nil
}

func buildJobs(inputs []string, op profile.Operation, p *profile.Profile, timeout time.Duration) ([]pipeline.Job, error) {
	if len(inputs) == 0 {
		return []pipeline.Job{{Name: "outline", Operation: op, Profile: p, Timeout: timeout}}, nil
	}
	jobs := make([]pipeline.Job, 0, len(inputs))
	for _, path := range inputs {
		var data []byte
		if op != profile.Cutting {
			var err error
			data, err = os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read input: %w", err)
			}
		}
		jobs = append(jobs, pipeline.Job{Name: path, Input: data, Operation: op, Profile: p, Timeout: timeout})
	}
	return jobs, nil
}

// outputPath picks where a job's program goes. An empty result means stdout.
func outputPath(output, input string, op profile.Operation, jobs int) string {
	if jobs == 1 {
		return output
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name := fmt.Sprintf("%s.%s.gcode", base, op)
	if output == "" {
		return filepath.Join(filepath.Dir(input), name)
	}
	return filepath.Join(output, name)
}

func writeToolpath(dest string, stdout io.Writer, r pipeline.Result) error {
	if dest == "" {
		_, err := r.Toolpath.WriteTo(stdout)
		return err
	}
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if _, err := r.Toolpath.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return f.Close()
}

func displayPath(dest string) string {
	if dest == "" {
		return "stdout"
	}
	return dest
}

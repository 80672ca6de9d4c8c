package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/hurttlocker/prontex/internal/compare"
	"github.com/hurttlocker/prontex/internal/config"
	"github.com/hurttlocker/prontex/internal/corpus"
	"github.com/hurttlocker/prontex/internal/digest"
	"github.com/hurttlocker/prontex/internal/engine"
	"github.com/hurttlocker/prontex/internal/mcp"
	"github.com/hurttlocker/prontex/internal/oracle"
	"github.com/hurttlocker/prontex/internal/truth"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	var err error
	switch os.Args[1] {
	case "ingest":
		err = runIngest(os.Args[2:])
	case "extract":
		err = runExtract(os.Args[2:])
	case "eval":
		err = runEval(os.Args[2:])
	case "columns":
		err = runColumns(os.Args[2:])
	case "diagnose":
		err = runDiagnose(os.Args[2:])
	case "mcp":
		err = runMCP(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("prontex %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cliFlags is the hand-parsed flag set shared by all subcommands.
type cliFlags struct {
	positional []string
	opts       config.ResolveOptions
	noOracle   bool
	asJSON     bool
}

func parseFlags(args []string) (cliFlags, error) {
	var f cliFlags
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--config", "--db", "--truth", "--data", "--oracle":
			if i+1 >= len(args) {
				return f, fmt.Errorf("%s requires a value", arg)
			}
			i++
			value := args[i]
			switch arg {
			case "--config":
				f.opts.ConfigPath = value
			case "--db":
				f.opts.CLIDBPath = value
			case "--truth":
				f.opts.CLITruth = value
			case "--data":
				f.opts.CLIData = value
			case "--oracle":
				f.opts.CLIOracle = value
			}
		case "--no-oracle":
			f.noOracle = true
		case "--json":
			f.asJSON = true
		default:
			if strings.HasPrefix(arg, "-") {
				return f, fmt.Errorf("unknown flag: %s", arg)
			}
			f.positional = append(f.positional, arg)
		}
	}
	return f, nil
}

func resolve(f cliFlags) (config.ResolvedConfig, error) {
	return config.ResolveConfig(f.opts)
}

func newEngine(cfg config.ResolvedConfig, noOracle bool) *engine.Engine {
	opts := []engine.Option{
		engine.WithLogf(func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}),
	}
	if !noOracle && cfg.OracleConfigured() {
		opts = append(opts, engine.WithOracle(oracle.NewClient(cfg.OracleConfig())))
	}
	return engine.New(opts...)
}

func openStore(cfg config.ResolvedConfig) (*corpus.Store, error) {
	return corpus.NewStore(cfg.DBPath.Value)
}

func loadTruth(cfg config.ResolvedConfig) (*truth.Table, error) {
	if cfg.TruthPath.Value == "" {
		return nil, fmt.Errorf("no ground-truth spreadsheet configured (--truth, PRONTEX_TRUTH, or truth_path in config)")
	}
	return truth.Load(cfg.TruthPath.Value)
}

func runIngest(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := resolve(f)
	if err != nil {
		return err
	}
	dataDir := cfg.DataDir.Value
	if len(f.positional) > 0 {
		dataDir = f.positional[0]
	}
	if dataDir == "" {
		return fmt.Errorf("usage: prontex ingest <data-dir> [--db <path>]")
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	patients, fragments, err := store.IngestDir(context.Background(), dataDir)
	if err != nil {
		return err
	}
	fmt.Printf("Ingested %d fragments across %d patients into %s\n", fragments, patients, cfg.DBPath.Value)
	return nil
}

func runExtract(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	if len(f.positional) == 0 {
		return fmt.Errorf("usage: prontex extract <patient> [--no-oracle] [--json]")
	}
	cfg, err := resolve(f)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	fragments, err := store.Load(ctx, f.positional[0])
	if err != nil {
		return err
	}
	doc := engine.NewDocument(fragments)
	result := newEngine(cfg, f.noOracle).Extract(ctx, doc)

	if f.asJSON {
		out := make(map[string]string, len(result))
		for field, v := range result {
			out[field] = v.String()
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	for _, desc := range engine.Fields() {
		v := result[desc.Name]
		if v.IsAbsent() {
			fmt.Printf("%-24s -\n", desc.Name)
			continue
		}
		fmt.Printf("%-24s %s\n", desc.Name, v.String())
	}
	return nil
}

func runEval(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := resolve(f)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	table, err := loadTruth(cfg)
	if err != nil {
		return err
	}
	eng := newEngine(cfg, f.noOracle)
	ctx := context.Background()

	patients := f.positional
	if len(patients) == 0 {
		patients, err = store.Patients(ctx)
		if err != nil {
			return err
		}
	}

	fields := fieldNames()
	totalCorrect, totalCompared := 0, 0
	for _, patient := range patients {
		row, err := table.Row(patient)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", patient, err)
			continue
		}
		fragments, err := store.Load(ctx, patient)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", patient, err)
			continue
		}
		result := eng.Extract(ctx, engine.NewDocument(fragments))
		report := compare.CompareRow(fields, renderResult(result), row.FieldValue)

		fmt.Printf("%s: %d/%d (%.1f%%)\n", patient, report.Correct, report.Total, report.Accuracy()*100)
		if len(patients) == 1 {
			for _, fr := range report.Fields {
				mark := "ok"
				if !fr.Match {
					mark = "MISS"
				}
				fmt.Printf("  %-4s %-24s predicted=%q expected=%q\n", mark, fr.Field, fr.Predicted, fr.Expected)
			}
		}
		totalCorrect += report.Correct
		totalCompared += report.Total
	}
	if totalCompared > 0 && len(patients) > 1 {
		fmt.Printf("\nOverall: %d/%d (%.1f%%)\n", totalCorrect, totalCompared, float64(totalCorrect)/float64(totalCompared)*100)
	}
	return nil
}

func runColumns(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := resolve(f)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	table, err := loadTruth(cfg)
	if err != nil {
		return err
	}
	eng := newEngine(cfg, f.noOracle)
	ctx := context.Background()

	patients, err := store.Patients(ctx)
	if err != nil {
		return err
	}

	fields := fieldNames()
	report := compare.NewColumnReport()
	for _, patient := range patients {
		row, err := table.Row(patient)
		if err != nil {
			continue
		}
		fragments, err := store.Load(ctx, patient)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", patient, err)
			continue
		}
		predicted := renderResult(eng.Extract(ctx, engine.NewDocument(fragments)))
		for _, field := range fields {
			expected, ok := row.FieldValue(field)
			if !ok {
				continue
			}
			report.Add(patient, field, predicted[field], expected)
		}
	}

	fmt.Println("Per-column accuracy, worst first:")
	for _, col := range report.Columns() {
		fmt.Printf("%-24s %3d/%3d (%.1f%%)\n", col.Field, col.Correct, col.Total, col.Accuracy()*100)
		for _, sample := range col.Samples {
			fmt.Printf("    %s: predicted=%q expected=%q\n", sample.Patient, sample.Predicted, sample.Expected)
		}
	}
	return nil
}

func runDiagnose(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	if len(f.positional) == 0 {
		return fmt.Errorf("usage: prontex diagnose <patient>")
	}
	cfg, err := resolve(f)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	fragments, err := store.Load(context.Background(), f.positional[0])
	if err != nil {
		return err
	}
	doc := engine.NewDocument(fragments)

	fmt.Printf("record size:        %d chars (%d fragments)\n", len(doc.Norm), len(fragments))
	if doc.Anchor == "" {
		fmt.Println("anchor date:        not found")
	} else {
		fmt.Printf("anchor date:        %s\n", doc.Anchor)
		occurrences := 0
		for _, variant := range []string{doc.Anchor, strings.ReplaceAll(doc.Anchor, "/", "-"), strings.ReplaceAll(doc.Anchor, "/", ".")} {
			occurrences += strings.Count(doc.Norm, variant)
		}
		fmt.Printf("anchor occurrences: %d\n", occurrences)
	}

	markers := 0
	for _, marker := range []string{"produto de exentera", "anatomia patologica", "laudo anatomopatologico"} {
		markers += strings.Count(doc.Norm, marker)
	}
	fmt.Printf("pathology markers:  %d\n", markers)

	dg := doc.Digest(digest.DefaultConfig())
	fmt.Printf("digest size:        %d chars\n", len(dg))
	if len(dg) > 0 {
		fmt.Printf("reduction:          %.1fx\n", float64(len(doc.Norm))/float64(len(dg)))
	}

	fmt.Printf("\nconfig (%s):\n", cfg.ConfigPath)
	for _, entry := range []struct {
		name string
		v    config.ResolvedValue
	}{
		{"db", cfg.DBPath},
		{"truth", cfg.TruthPath},
		{"data", cfg.DataDir},
		{"oracle endpoint", cfg.OracleEndpoint},
		{"oracle deployment", cfg.OracleDeployment},
	} {
		if entry.v.Value == "" {
			continue
		}
		fmt.Printf("  %-18s %s (%s: %s)\n", entry.name, entry.v.Value, entry.v.Source, entry.v.From)
	}
	return nil
}

func runMCP(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := resolve(f)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var table *truth.Table
	if cfg.TruthPath.Value != "" {
		table, err = truth.Load(cfg.TruthPath.Value)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ground truth unavailable: %v\n", err)
		}
	}

	s := mcp.NewServer(mcp.ServerConfig{
		Store:   store,
		Truth:   table,
		Engine:  newEngine(cfg, f.noOracle),
		Version: version,
	})
	return mcpserver.ServeStdio(s)
}

func fieldNames() []string {
	descs := engine.Fields()
	names := make([]string, len(descs))
	for i, desc := range descs {
		names[i] = desc.Name
	}
	return names
}

func renderResult(r engine.Result) map[string]string {
	out := make(map[string]string, len(r))
	for field, v := range r {
		out[field] = v.String()
	}
	return out
}

func printUsage() {
	fmt.Printf(`prontex %s — clinical field extraction from OCR'd medical records

Usage:
  prontex <command> [arguments]

Commands:
  ingest <data-dir>     Load per-patient .jsonl record exports into the corpus db
  extract <patient>     Extract all declared fields for one patient
  eval [patient...]     Score extractions against the ground-truth spreadsheet
  columns               Per-column accuracy report, worst columns first
  diagnose <patient>    Anchor/digest diagnostics and effective configuration
  mcp                   Serve the extraction tools over MCP (stdio)
  version               Print version

Flags:
  --config <path>       Config file (default ~/.prontex/config.yaml)
  --db <path>           Corpus database path
  --truth <path>        Ground-truth spreadsheet (.xlsx)
  --data <dir>          Record export directory (ingest)
  --oracle <endpoint>   External oracle endpoint
  --no-oracle           Disable the external disambiguation oracle
  --json                JSON output (extract)
  -h, --help            Show this help message
  -v, --version         Print version
`, version)
}

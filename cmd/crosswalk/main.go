package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/crosswalk/pkg/api"
	"github.com/hazyhaar/crosswalk/pkg/dataset"
	"github.com/hazyhaar/crosswalk/pkg/importer"
	"github.com/hazyhaar/crosswalk/pkg/lookup"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = cmdServe(os.Args[2:])
	case "mcp":
		err = cmdMCP(os.Args[2:])
	case "check":
		err = cmdCheck(os.Args[2:])
	case "compile":
		err = cmdCompile(os.Args[2:])
	case "resolve":
		err = cmdResolve(os.Args[2:])
	case "import":
		err = cmdImport(os.Args[2:])
	case "version":
		fmt.Println(version)
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "crosswalk %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: crosswalk <command> [flags]

Commands:
  serve     Start the HTTP server
  mcp       Serve MCP tools over stdio
  check     Load every dataset and report conflicts
  compile   Validate one dataset and write data.gob or data.db
  resolve   Resolve one JSON record against a dataset
  import    Build a dataset from a mapping CSV
  version   Print the version
`)
}

// setup loads the config and installs the default logger. Logs go to stderr
// so stdout stays free for command output and the MCP stdio transport.
func setup(cfgPath string) (config, *slog.Logger, error) {
	cfg, found, err := loadConfig(cfgPath)
	if err != nil {
		return cfg, nil, err
	}
	level, err := cfg.level()
	if err != nil {
		return cfg, nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	if !found {
		logger.Debug("no config file, using defaults", "path", cfgPath)
	}
	return cfg, logger, nil
}

func loadRegistry(cfg config, logger *slog.Logger) (*dataset.Registry, error) {
	reg := dataset.NewRegistry(cfg.DatasetsDir)
	if err := reg.Load(); err != nil {
		return nil, err
	}
	logger.Info("datasets loaded", "count", reg.DatasetCount(), "entries", reg.TotalEntries())
	return reg, nil
}

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file (.yaml or .toml)")
	addr := fs.String("addr", "", "listen address (overrides config)")
	fs.Parse(args)

	cfg, logger, err := setup(*cfgPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	reg, err := loadRegistry(cfg, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewRouter(reg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// SIGHUP: hot reload datasets.
	// SIGINT/SIGTERM: graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	defer signal.Stop(sighup)
	go func() {
		for range sighup {
			logger.Info("SIGHUP received, reloading datasets")
			if err := reg.Reload(); err != nil {
				logger.Error("reload failed, keeping previous datasets", "error", err)
				continue
			}
			logger.Info("datasets reloaded", "count", reg.DatasetCount(), "entries", reg.TotalEntries())
		}
	}()

	errc := make(chan error, 1)
	go func() {
		logger.Info("crosswalk listening", "addr", cfg.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func cmdMCP(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file (.yaml or .toml)")
	fs.Parse(args)

	cfg, logger, err := setup(*cfgPath)
	if err != nil {
		return err
	}
	reg, err := loadRegistry(cfg, logger)
	if err != nil {
		return err
	}
	return server.ServeStdio(api.NewMCPServer(reg, logger, version))
}

// cmdCheck loads every dataset independently so that all failures are
// reported, not only the first.
func cmdCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file (.yaml or .toml)")
	fs.Parse(args)

	cfg, _, err := setup(*cfgPath)
	if err != nil {
		return err
	}

	dirs, err := os.ReadDir(cfg.DatasetsDir)
	if err != nil {
		return err
	}

	failed := 0
	for _, de := range dirs {
		if !de.IsDir() {
			continue
		}
		dir := filepath.Join(cfg.DatasetsDir, de.Name())
		if _, err := os.Stat(filepath.Join(dir, "manifest.yaml")); err != nil {
			continue
		}

		d, err := dataset.LoadDataset(dir)
		if err != nil {
			failed++
			fmt.Printf("FAIL  %-24s %v\n", de.Name(), err)
			var mt *lookup.MultipleTransformationsError
			if errors.As(err, &mt) {
				fmt.Printf("      combination %s values %v\n", mt.Combination, mt.Values)
			}
			continue
		}
		fmt.Printf("ok    %-24s %d entries, %d combinations\n", d.Manifest.ID, d.Len(), len(d.Combinations()))
	}

	if failed > 0 {
		return fmt.Errorf("%d dataset(s) failed", failed)
	}
	return nil
}

func cmdCompile(args []string) error {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	dir := fs.String("dataset", "", "dataset directory (holding manifest.yaml)")
	format := fs.String("format", dataset.FormatGob, "output format: gob or sqlite")
	fs.Parse(args)

	if *dir == "" {
		return fmt.Errorf("-dataset is required")
	}
	if _, _, err := setup(""); err != nil {
		return err
	}

	d, err := dataset.LoadDataset(*dir)
	if err != nil {
		return err
	}

	switch *format {
	case dataset.FormatGob:
		out := filepath.Join(*dir, "data.gob")
		if err := dataset.SaveGob(d.Entries, out); err != nil {
			return err
		}
		fmt.Printf("%s: %d entries -> %s\n", d.Manifest.ID, len(d.Entries), out)
	case dataset.FormatSQLite:
		out := filepath.Join(*dir, "data.db")
		if err := dataset.SaveSQLite(d.Entries, out); err != nil {
			return err
		}
		m := *d.Manifest
		m.DataFile, m.Format = "data.db", dataset.FormatSQLite
		if err := dataset.WriteManifest(*dir, &m); err != nil {
			return err
		}
		if _, err := os.Stat(filepath.Join(*dir, "data.gob")); err == nil {
			slog.Warn("data.gob still takes priority over data.db", "dataset", m.ID)
		}
		fmt.Printf("%s: %d entries -> %s\n", d.Manifest.ID, len(d.Entries), out)
	default:
		return fmt.Errorf("unknown format %q (want gob or sqlite)", *format)
	}
	return nil
}

func cmdResolve(args []string) error {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file (.yaml or .toml)")
	id := fs.String("dataset", "", "dataset ID")
	fs.Parse(args)

	if *id == "" || fs.NArg() != 1 {
		return fmt.Errorf(`usage: crosswalk resolve -dataset <id> '{"field": "value"}'`)
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(fs.Arg(0)), &record); err != nil || record == nil {
		return fmt.Errorf("record must be a JSON object")
	}

	cfg, logger, err := setup(*cfgPath)
	if err != nil {
		return err
	}
	reg, err := loadRegistry(cfg, logger)
	if err != nil {
		return err
	}

	res, err := reg.Resolve(*id, record)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func cmdImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	src := fs.String("source", "", "mapping CSV path or URL (.csv or .zip)")
	id := fs.String("id", "", "dataset ID")
	ver := fs.String("version", time.Now().Format("2006-01"), "dataset version")
	desc := fs.String("description", "", "dataset description")
	license := fs.String("license", "", "source license")
	comma := fs.String("comma", ",", "CSV field delimiter")
	encoding := fs.String("encoding", "", "CSV charset, e.g. windows-1252 or latin1 (default UTF-8)")
	caseSensitive := fs.Bool("case-sensitive", false, "match string values case-sensitively")
	outputDir := fs.String("output-dir", "datasets", "output directory for datasets")
	fs.Parse(args)

	if *src == "" || *id == "" {
		return fmt.Errorf("-source and -id are required")
	}
	if len([]rune(*comma)) != 1 {
		return fmt.Errorf("-comma must be a single character")
	}
	if _, _, err := setup(""); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m, err := importer.ImportCSV(ctx, *src, *outputDir, importer.Options{
		ID:          *id,
		Version:     *ver,
		Description: *desc,
		License:     *license,
		Comma:       []rune(*comma)[0],
		Encoding:    *encoding,
		Match:       lookup.Options{CaseSensitive: *caseSensitive},
	})
	if err != nil {
		return err
	}
	fmt.Printf("[%s] OK -> %s/%s/\n", m.ID, *outputDir, m.ID)
	return nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vsinha/repairkpi/pkg/interfaces/cli/commands"
)

func main() {
	// Command line flags
	var (
		recordsFile = flag.String("records", "", "Path to repair records (CSV or .xlsx)")
		assetsFile  = flag.String("assets", "", "Path to asset inventory (CSV or .xlsx)")
		pricesFile  = flag.String("prices", "", "Path to part price table (CSV or .xlsx)")
		configFile  = flag.String("config", "", "Path to YAML settings file")
		encoding    = flag.String("encoding", "", "CSV encoding: auto, utf-8, big5")
		start       = flag.String("start", "", "Report range start date")
		end         = flag.String("end", "", "Report range end date")
		format      = flag.String("format", "text", "Output format: text, json, csv")
		outputDir   = flag.String("output", "", "Output directory for results (optional)")
		dbPath      = flag.String("db", "", "SQLite snapshot database")
		replay      = flag.String("replay", "", "Rebuild the report from a saved run id, or \"latest\"")
		history     = flag.String("history", "", "Show device history for a serial, work order or model")
		watchFiles  = flag.Bool("watch", false, "Rebuild the report when the records file changes")
		progress    = flag.Bool("progress", false, "Show pipeline progress on stderr")
		verbose     = flag.Bool("verbose", false, "Enable verbose output")
		help        = flag.Bool("help", false, "Show help message")
	)

	flag.Parse()

	config := commands.Config{
		RecordsFile: *recordsFile,
		AssetsFile:  *assetsFile,
		PricesFile:  *pricesFile,
		ConfigFile:  *configFile,
		Encoding:    *encoding,
		Start:       *start,
		End:         *end,
		Format:      *format,
		OutputDir:   *outputDir,
		DBPath:      *dbPath,
		Replay:      *replay,
		History:     *history,
		Watch:       *watchFiles,
		Progress:    *progress,
		Verbose:     *verbose,
		Help:        *help,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := commands.NewReportCommand(config)
	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

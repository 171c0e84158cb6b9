package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/vsinha/repairkpi/pkg/application/dto"
	"github.com/vsinha/repairkpi/pkg/application/services"
	"github.com/vsinha/repairkpi/pkg/domain/entities"
	"github.com/vsinha/repairkpi/pkg/domain/repositories"
	domain "github.com/vsinha/repairkpi/pkg/domain/services"
	"github.com/vsinha/repairkpi/pkg/infrastructure/config"
	"github.com/vsinha/repairkpi/pkg/infrastructure/logging"
	"github.com/vsinha/repairkpi/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/repairkpi/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/repairkpi/pkg/infrastructure/repositories/sqlite"
	"github.com/vsinha/repairkpi/pkg/infrastructure/repositories/xlsx"
	"github.com/vsinha/repairkpi/pkg/infrastructure/watch"
	"github.com/vsinha/repairkpi/pkg/interfaces/cli/output"
)

const moduleName = "commands"

// Config holds configuration for the report command
type Config struct {
	RecordsFile string
	AssetsFile  string
	PricesFile  string
	ConfigFile  string
	Encoding    string
	Start       string
	End         string
	Format      string
	OutputDir   string
	DBPath      string
	// Replay is a saved run id, or "latest"
	Replay   string
	History  string
	Watch    bool
	Progress bool
	Verbose  bool
	Help     bool

	Stdout io.Writer
	Stderr io.Writer
}

// ReportCommand loads repair records and prints the KPI report
type ReportCommand struct {
	config Config
	stdout io.Writer
	stderr io.Writer
}

// NewReportCommand creates a new report command with the given configuration
func NewReportCommand(config Config) *ReportCommand {
	cmd := &ReportCommand{config: config, stdout: config.Stdout, stderr: config.Stderr}
	if cmd.stdout == nil {
		cmd.stdout = os.Stdout
	}
	if cmd.stderr == nil {
		cmd.stderr = os.Stderr
	}
	return cmd
}

// Execute runs the report command
func (c *ReportCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	settings, err := config.Load(c.config.ConfigFile)
	if err != nil {
		return err
	}
	level := settings.LogLevel
	if c.config.Verbose {
		level = logrus.DebugLevel.String()
	}
	logger, err := logging.New(level, settings.LogFormat, c.stderr)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	enc, err := csv.ParseEncoding(firstNonEmpty(c.config.Encoding, settings.Encoding))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	rng, err := parseRange(c.config.Start, c.config.End)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	pipelineCfg, err := c.pipelineConfig(settings, enc)
	if err != nil {
		logging.LogError(logger, moduleName, "Execute", "failed to prepare pipeline", c.config.PricesFile, err)
		return err
	}
	logger.WithFields(logrus.Fields{
		"module":      moduleName,
		"pricedParts": pipelineCfg.Costs.Len(),
	}).Debug("price table ready")
	assets, err := c.loadAssets(enc)
	if err != nil {
		logging.LogError(logger, moduleName, "Execute", "failed to load assets", c.config.AssetsFile, err)
		return err
	}

	dbPath := firstNonEmpty(c.config.DBPath, settings.DBPath)
	if c.config.Replay != "" && dbPath == "" {
		return fmt.Errorf("validation error: -replay needs a snapshot database (-db)")
	}
	repo, closeRepo, err := openRepository(dbPath)
	if err != nil {
		logging.LogError(logger, moduleName, "Execute", "failed to open snapshot store", dbPath, err)
		return err
	}
	defer closeRepo()

	pipeline, err := services.NewPipeline(pipelineCfg, repo, logger)
	if err != nil {
		return err
	}

	if c.config.Replay != "" {
		runID := c.config.Replay
		if runID == "latest" {
			runID = ""
		}
		started := time.Now()
		report, err := pipeline.Replay(ctx, runID, rng, assets)
		if err != nil {
			logging.LogError(logger, moduleName, "Execute", "replay failed", c.config.Replay, err)
			return err
		}
		return c.render(report, time.Since(started))
	}

	run := func(ctx context.Context) error {
		return c.runOnce(ctx, pipeline, enc, rng, assets)
	}
	if err := run(ctx); err != nil {
		logging.LogError(logger, moduleName, "Execute", "report failed", c.config.RecordsFile, err)
		if !c.config.Watch {
			return err
		}
	}
	if !c.config.Watch {
		return nil
	}

	watcher, err := watch.New([]string{c.config.RecordsFile}, watch.DefaultDebounce,
		func(ctx context.Context, path string) error {
			logger.WithField("file", path).Info("input changed, rebuilding report")
			return run(ctx)
		}, logger)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	logger.WithField("file", c.config.RecordsFile).Info("watching for changes")
	return watcher.Run(ctx)
}

func (c *ReportCommand) runOnce(ctx context.Context, pipeline *services.Pipeline, enc csv.Encoding, rng *entities.DateRange, assets []entities.AssetRecord) error {
	records, err := readTable(c.config.RecordsFile, enc)
	if err != nil {
		return fmt.Errorf("error loading repair records: %w", err)
	}

	bar := c.progressBar()
	pipeline.OnStage(func(stage string) {
		if bar != nil {
			bar.Describe(stage)
			_ = bar.Add(1)
		}
	})

	started := time.Now()
	report, err := pipeline.Run(ctx, services.Input{
		Source:  c.config.RecordsFile,
		Records: records,
		Assets:  assets,
		Range:   rng,
	})
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return err
	}
	return c.render(report, time.Since(started))
}

func (c *ReportCommand) render(report *dto.Report, elapsed time.Duration) error {
	outCfg := output.Config{
		Format:     c.config.Format,
		OutputDir:  c.config.OutputDir,
		Verbose:    c.config.Verbose,
		Elapsed:    elapsed,
		InputFiles: c.inputFiles(),
		Writer:     c.stdout,
	}
	if c.config.History != "" {
		return output.GenerateHistory(services.SearchDeviceHistory(report.Cases, c.config.History), outCfg)
	}
	if err := output.Generate(report, outCfg); err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}
	return nil
}

func (c *ReportCommand) progressBar() *progressbar.ProgressBar {
	if !c.config.Progress {
		return nil
	}
	return progressbar.NewOptions(len(services.PipelineStages),
		progressbar.OptionSetWriter(c.stderr),
		progressbar.OptionSetDescription("loading"),
		progressbar.OptionClearOnFinish(),
	)
}

func (c *ReportCommand) pipelineConfig(settings config.Config, enc csv.Encoding) (services.PipelineConfig, error) {
	weights, err := settings.WeightTable()
	if err != nil {
		return services.PipelineConfig{}, err
	}
	classifier, err := settings.Classifier()
	if err != nil {
		return services.PipelineConfig{}, err
	}

	costs := domain.EmptyPartCostLookup()
	if prices := firstNonEmpty(c.config.PricesFile, settings.PriceTable); prices != "" {
		records, err := readTable(prices, enc)
		if err != nil {
			return services.PipelineConfig{}, fmt.Errorf("error loading price table: %w", err)
		}
		if costs, err = csv.ParsePartCosts(records); err != nil {
			return services.PipelineConfig{}, fmt.Errorf("error parsing price table %s: %w", prices, err)
		}
	}

	return services.PipelineConfig{
		Classifier:        classifier,
		Weights:           weights,
		Costs:             costs,
		LaborRatePerPoint: settings.LaborRatePerPoint,
		TargetPoints:      settings.TargetPoints,
		CoopScore:         settings.CoopScore,
		RecallWindowDays:  settings.RecallWindowDays,
	}, nil
}

func (c *ReportCommand) loadAssets(enc csv.Encoding) ([]entities.AssetRecord, error) {
	if c.config.AssetsFile == "" {
		return nil, nil
	}
	records, err := readTable(c.config.AssetsFile, enc)
	if err != nil {
		return nil, fmt.Errorf("error loading assets: %w", err)
	}
	assets, err := csv.ParseAssetRecords(records)
	if err != nil {
		return nil, fmt.Errorf("error parsing assets %s: %w", c.config.AssetsFile, err)
	}
	return assets, nil
}

func (c *ReportCommand) validateInputs() error {
	if c.config.RecordsFile == "" && c.config.Replay == "" {
		return fmt.Errorf("-records is required unless -replay is set")
	}
	if c.config.Watch && c.config.RecordsFile == "" {
		return fmt.Errorf("-watch needs -records")
	}
	for _, f := range []string{c.config.RecordsFile, c.config.AssetsFile, c.config.PricesFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("input file not found: %s", f)
		}
	}
	return nil
}

func (c *ReportCommand) inputFiles() map[string]string {
	files := make(map[string]string)
	for name, path := range map[string]string{
		"Records": c.config.RecordsFile,
		"Assets":  c.config.AssetsFile,
		"Prices":  c.config.PricesFile,
	} {
		if path != "" {
			files[name] = path
		}
	}
	return files
}

func (c *ReportCommand) showHelp() {
	fmt.Fprint(c.stdout, `repairkpi: biomedical repair department KPI report

Usage:
  repairkpi -records <file> [options]
  repairkpi -replay latest -db <file> [options]

Input:
  -records   Repair records (CSV or .xlsx)
  -assets    Asset inventory (CSV or .xlsx)
  -prices    Part price table (CSV or .xlsx)
  -config    YAML settings file (default $REPAIRKPI_CONFIG)
  -encoding  CSV encoding: auto, utf-8, big5

Report:
  -start, -end  Inclusive date range (default: month of the latest case)
  -format       Output format: text, json, csv
  -output       Output directory (required for csv)
  -history      Print the visit history of devices matching a serial, id or model

Runs:
  -db        SQLite snapshot database
  -replay    Rebuild the report from a saved run id, or "latest"
  -watch     Rebuild the report whenever the records file changes
  -progress  Show a progress bar on stderr
  -verbose   Debug logging and run details
`)
}

// parseRange builds the report window from -start and -end. Both empty
// means nil; a single bound is a one-day window.
func parseRange(start, end string) (*entities.DateRange, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	start, end = firstNonEmpty(start, end), firstNonEmpty(end, start)
	s, ok := domain.ParseDate(start)
	if !ok {
		return nil, fmt.Errorf("invalid start date %q", start)
	}
	e, ok := domain.ParseDate(end)
	if !ok {
		return nil, fmt.Errorf("invalid end date %q", end)
	}
	r, err := entities.NewDateRange(s, e)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func openRepository(dbPath string) (repositories.CaseRepository, func(), error) {
	if dbPath == "" {
		return memory.NewCaseRepository(1), func() {}, nil
	}
	store, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", dbPath, err)
	}
	return store, func() { _ = store.Close() }, nil
}

// readTable reads a workbook or a delimited text file as rows
func readTable(filename string, enc csv.Encoding) ([][]string, error) {
	if xlsx.IsWorkbook(filename) {
		return xlsx.ReadRows(filename, "")
	}
	return csv.ReadFile(filename, enc)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

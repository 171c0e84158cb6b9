package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/vsinha/repairkpi/pkg/application/dto"
	"github.com/vsinha/repairkpi/pkg/domain/entities"
	"github.com/vsinha/repairkpi/pkg/domain/repositories"
	domain "github.com/vsinha/repairkpi/pkg/domain/services"
	"github.com/vsinha/repairkpi/pkg/infrastructure/logging"
	"github.com/vsinha/repairkpi/pkg/infrastructure/repositories/csv"
)

// Pipeline stages, in the order they complete
const (
	StageParse     = "parse"
	StageRecall    = "recall"
	StageAggregate = "aggregate"
	StageCompare   = "compare"
	StagePersist   = "persist"
)

// PipelineStages lists every stage a parsing run reports
var PipelineStages = []string{StageParse, StageRecall, StageAggregate, StageCompare, StagePersist}

// PipelineConfig holds the tunables of a pipeline. Zero values use defaults.
type PipelineConfig struct {
	Classifier        *domain.TypeClassifier
	Weights           entities.WeightTable
	Costs             *domain.PartCostLookup
	LaborRatePerPoint float64
	TargetPoints      float64
	CoopScore         func(engineer string) float64
	RecallWindowDays  int
	TrendMonths       int
}

// Input is one batch of raw tables handed to the pipeline
type Input struct {
	Source  string
	Records [][]string
	Assets  []entities.AssetRecord
	// Range filters the KPI bundle; nil uses the month of the latest case
	Range *entities.DateRange
}

// Pipeline runs parse, recall detection and aggregation over one input
// and optionally persists the reconciled cases.
type Pipeline struct {
	cfg        PipelineConfig
	loader     *csv.CaseLoader
	detector   *domain.RecallDetector
	stats      *StatsAggregator
	comparator *PeriodComparator
	repo       repositories.CaseRepository
	logger     *logrus.Logger
	onStage    func(stage string)
	now        func() time.Time
}

// NewPipeline creates a pipeline. repo may be nil to skip persistence.
func NewPipeline(cfg PipelineConfig, repo repositories.CaseRepository, logger *logrus.Logger) (*Pipeline, error) {
	if cfg.Classifier == nil {
		cfg.Classifier = domain.NewTypeClassifier()
	}
	if cfg.Weights == nil {
		cfg.Weights = entities.DefaultWeightTable()
	}
	if err := cfg.Weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid weight table: %w", err)
	}
	if cfg.Costs == nil {
		cfg.Costs = domain.EmptyPartCostLookup()
	}
	if cfg.TargetPoints <= 0 {
		cfg.TargetPoints = DefaultTargetPoints
	}
	if cfg.TrendMonths <= 0 {
		cfg.TrendMonths = DefaultTrendMonths
	}

	return &Pipeline{
		cfg:        cfg,
		loader:     csv.NewCaseLoader(cfg.Classifier, cfg.Weights),
		detector:   domain.NewRecallDetector(cfg.RecallWindowDays),
		stats:      NewStatsAggregator(cfg.Classifier, cfg.Costs, cfg.LaborRatePerPoint),
		comparator: NewPeriodComparator(cfg.Classifier, cfg.Costs),
		repo:       repo,
		logger:     logging.OrDiscard(logger),
		onStage:    func(string) {},
		now:        time.Now,
	}, nil
}

// OnStage registers a callback invoked after each completed stage
func (p *Pipeline) OnStage(fn func(stage string)) {
	if fn == nil {
		fn = func(string) {}
	}
	p.onStage = fn
}

// Run parses in.Records, flags recalls, computes the report and saves the
// cases under a new run id. Parsing errors abort the run.
func (p *Pipeline) Run(ctx context.Context, in Input) (*dto.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	started := p.now()

	parsed, err := p.loader.ParseRecords(in.Records)
	if err != nil {
		return nil, fmt.Errorf("failed to parse repair records: %w", err)
	}
	p.finish(StageParse, started, logrus.Fields{
		"rows":    parsed.Stats.DataRows,
		"cases":   len(parsed.Cases),
		"skipped": parsed.Stats.SkippedRows,
		"merged":  parsed.Stats.MergedRows,
	})

	stageStart := p.now()
	cases := p.detector.Detect(parsed.Cases)
	p.finish(StageRecall, stageStart, logrus.Fields{
		"cases":   len(cases),
		"recalls": countRecalls(cases),
		"window":  p.detector.WindowDays(),
	})

	warnings := AssessDataQuality(cases, ParseCounts{
		SkippedRows:      parsed.Stats.SkippedRows,
		DuplicateIDs:     parsed.Stats.DuplicateIDs,
		PendingClamped:   parsed.Stats.PendingClamped,
		UnparseableDates: parsed.Stats.UnparseableDates,
	})

	report, err := p.buildReport(ctx, uuid.NewString(), in.Source, cases, warnings, in.Range, in.Assets)
	if err != nil {
		return nil, err
	}

	if p.repo != nil {
		stageStart = p.now()
		run := repositories.Run{
			ID:        report.RunID,
			Source:    in.Source,
			CreatedAt: report.GeneratedAt,
			CaseCount: len(cases),
		}
		if err := p.repo.SaveCases(ctx, run, cases); err != nil {
			return nil, fmt.Errorf("failed to save run %s: %w", run.ID, err)
		}
		p.finish(StagePersist, stageStart, logrus.Fields{"run": run.ID})
	} else {
		p.onStage(StagePersist)
	}

	p.logger.WithFields(logrus.Fields{
		"run":      report.RunID,
		"cases":    report.AllCases,
		"warnings": len(warnings),
		"duration": p.now().Sub(started).String(),
	}).Info("pipeline finished")
	return report, nil
}

// Replay rebuilds a report from a saved run without reparsing. An empty
// runID replays the latest run.
func (p *Pipeline) Replay(ctx context.Context, runID string, rng *entities.DateRange, assets []entities.AssetRecord) (*dto.Report, error) {
	if p.repo == nil {
		return nil, fmt.Errorf("replay needs a case repository")
	}
	source := ""
	if runID == "" {
		latest, err := p.repo.LatestRun(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to find latest run: %w", err)
		}
		runID, source = latest.ID, latest.Source
	}
	cases, err := p.repo.GetCases(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}
	return p.buildReport(ctx, runID, source, cases, AssessDataQuality(cases, ParseCounts{}), rng, assets)
}

func (p *Pipeline) buildReport(
	ctx context.Context,
	runID, source string,
	cases []*entities.Case,
	warnings []entities.DataWarning,
	rng *entities.DateRange,
	assets []entities.AssetRecord,
) (*dto.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &dto.Report{
		RunID:       runID,
		Source:      source,
		GeneratedAt: p.now().UTC(),
		AllCases:    len(cases),
		Cases:       cases,
		Warnings:    warnings,
		Readiness:   EquipmentReadiness(assets),
	}

	var window entities.DateRange
	ok := rng != nil
	if ok {
		window = *rng
	} else {
		window, ok = DefaultRange(cases)
	}

	stageStart := p.now()
	if ok {
		report.Range = window
		inRange := FilterByRange(cases, window)
		report.Customers = TopCustomers(inRange)
		stats, err := p.stats.Compute(inRange, p.cfg.Weights)
		if err != nil {
			return nil, fmt.Errorf("failed to compute stats: %w", err)
		}
		report.Stats = stats
		if stats != nil {
			report.Scorecard = ScoreEngineers(stats.Engineers, p.cfg.TargetPoints, p.cfg.CoopScore)
		}
	}
	p.finish(StageAggregate, stageStart, logrus.Fields{"range": window.String(), "empty": report.Stats == nil})

	stageStart = p.now()
	if ok {
		report.Comparison = p.comparator.Compare(cases, window)
	}
	report.Trends = MonthlyTrends(cases, p.cfg.Costs, p.cfg.TrendMonths)
	report.Anomalies = DetectAnomalies(report.Trends)
	p.finish(StageCompare, stageStart, logrus.Fields{"months": len(report.Trends), "anomalies": len(report.Anomalies)})

	return report, nil
}

func (p *Pipeline) finish(stage string, started time.Time, fields logrus.Fields) {
	fields["stage"] = stage
	fields["duration"] = p.now().Sub(started).String()
	p.logger.WithFields(fields).Debug("stage complete")
	p.onStage(stage)
}

func countRecalls(cases []*entities.Case) int {
	return lo.CountBy(cases, func(c *entities.Case) bool { return c.IsRecall })
}

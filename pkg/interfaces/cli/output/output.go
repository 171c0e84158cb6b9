package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/vsinha/repairkpi/pkg/application/dto"
)

// Config holds configuration for output generation
type Config struct {
	Format     string
	OutputDir  string
	Verbose    bool
	Elapsed    time.Duration
	InputFiles map[string]string
	// Writer receives text and JSON output; nil means stdout
	Writer io.Writer
}

func (c Config) writer() io.Writer {
	if c.Writer == nil {
		return os.Stdout
	}
	return c.Writer
}

// Generate creates output in the specified format
func Generate(report *dto.Report, config Config) error {
	if report == nil {
		return fmt.Errorf("no report to render")
	}
	switch config.Format {
	case "", "text":
		return generateTextOutput(report, config)
	case "json":
		return generateJSONOutput(report, config)
	case "csv":
		return generateCSVOutput(report, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// GenerateHistory renders a device history search
func GenerateHistory(history *dto.DeviceHistory, config Config) error {
	w := config.writer()
	if config.Format == "json" {
		return writeJSON(w, history)
	}
	if history == nil {
		fmt.Fprintln(w, "查無設備紀錄")
		return nil
	}
	fmt.Fprintf(w, "🔎 Device history for %q: %d cases\n\n", history.Query, history.TotalCases)
	for _, g := range history.Groups {
		fmt.Fprintf(w, "%s (%s): %d visits\n", g.Key, g.Model, len(g.CaseIDs))
		for _, c := range g.Cases {
			fmt.Fprintf(w, "  %-12s %-10s %-10s TAT %-3d %s\n",
				c.ID, formatDate(c.CompletionDate), c.Engineer, c.TAT, c.FaultDescription)
		}
		for _, a := range g.Advisories {
			fmt.Fprintf(w, "  [%s] %s\n", a.Level, a.Message)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func generateTextOutput(report *dto.Report, config Config) error {
	renderText(config.writer(), report, config)
	if config.OutputDir == "" {
		return nil
	}

	var buf bytes.Buffer
	renderText(&buf, report, config)
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, "repair_kpi.txt")
	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write text file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.writer(), "💾 Results saved to: %s\n", filename)
	}
	return nil
}

func renderText(w io.Writer, report *dto.Report, config Config) {
	fmt.Fprintf(w, "📊 Repair KPI Report\n")
	fmt.Fprintf(w, "====================\n\n")
	fmt.Fprintf(w, "Run: %s\n", report.RunID)
	if report.Source != "" {
		fmt.Fprintf(w, "Source: %s\n", report.Source)
	}
	fmt.Fprintf(w, "Cases Loaded: %d\n", report.AllCases)
	if !report.Range.Start.IsZero() {
		fmt.Fprintf(w, "Range: %s (%d days)\n", report.Range, report.Range.Days())
	}
	if config.Verbose {
		fmt.Fprintf(w, "Elapsed: %v\n", config.Elapsed)
		names := lo.Keys(config.InputFiles)
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s: %s\n", name, config.InputFiles[name])
		}
	}
	fmt.Fprintln(w)

	if len(report.Warnings) > 0 {
		fmt.Fprintf(w, "⚠️  Data Quality:\n")
		for _, warn := range report.Warnings {
			fmt.Fprintf(w, "  [%s] %s\n", warn.Level, warn.Message)
		}
		fmt.Fprintln(w)
	}

	if report.Stats == nil {
		fmt.Fprintf(w, "No cases in the selected range.\n\n")
	} else {
		writeStats(w, report.Stats)
	}

	if len(report.Scorecard) > 0 {
		fmt.Fprintf(w, "🏅 Engineer Scorecard:\n")
		fmt.Fprintf(w, "%-12s %-6s %-8s %-8s %-10s %-8s %-8s\n",
			"Engineer", "Cases", "Points", "Avg TAT", "Achieve %", "Recall %", "Score")
		for _, s := range report.Scorecard {
			fmt.Fprintf(w, "%-12s %-6d %-8.1f %-8.1f %-10.1f %-8.1f %-8.1f\n",
				s.Engineer, s.Cases, s.Points, s.AvgTAT, s.Achievement, s.RecallRate, s.FinalScore)
		}
		fmt.Fprintln(w)
	}

	if len(report.Customers) > 0 {
		fmt.Fprintf(w, "🏥 Top Customers:\n")
		for _, c := range report.Customers {
			model := "無特定"
			if c.TopModel != nil {
				model = fmt.Sprintf("%s (%d台)", c.TopModel.Name, c.TopModel.Count)
			}
			fmt.Fprintf(w, "  %d. %s: %d 件, %s, %s\n", c.Rank, c.Name, c.Cases, model, c.TopFault)
			if len(c.TopParts) > 0 {
				parts := lo.Map(c.TopParts, func(p dto.NameCount, _ int) string { return fmt.Sprintf("%s (%d)", p.Name, p.Count) })
				fmt.Fprintf(w, "     📦 %s\n", strings.Join(parts, ", "))
			}
			fmt.Fprintf(w, "     💡 %s\n", c.Suggestion)
		}
		fmt.Fprintln(w)
	}

	if report.Comparison != nil {
		cmp := report.Comparison
		fmt.Fprintf(w, "📈 Period Comparison (%d days):\n", cmp.PeriodDays)
		fmt.Fprintf(w, "%-6s %-10s %-12s %-10s %-10s\n", "", "Cases %", "Margin %", "TAT %", "SLA pts")
		for _, row := range []struct {
			label string
			cmp   dto.Comparison
		}{
			{"MoM", cmp.MonthOverMonth},
			{"QoQ", cmp.QuarterOverQuarter},
			{"YoY", cmp.YearOverYear},
		} {
			fmt.Fprintf(w, "%-6s %-+10.1f %-+12.1f %-+10.1f %-+10.1f\n",
				row.label, row.cmp.Delta.Cases, row.cmp.Delta.GrossMargin, row.cmp.Delta.AvgTAT, row.cmp.Delta.SLAOverRate)
		}
		fmt.Fprintln(w)
	}

	if len(report.Trends) > 0 {
		fmt.Fprintf(w, "🗓️  Monthly Trends:\n")
		fmt.Fprintf(w, "%-8s %-6s %-8s %-9s %-12s\n", "Month", "Cases", "Avg TAT", "Recall %", "Margin")
		for _, t := range report.Trends {
			fmt.Fprintf(w, "%-8s %-6d %-8.1f %-9.1f %-12s\n",
				t.Month, t.Cases, t.AvgTAT, t.RecallRate, money(t.GrossMargin))
		}
		for _, a := range report.Anomalies {
			fmt.Fprintf(w, "  🚨 %s\n", a.Message)
		}
		fmt.Fprintln(w)
	}

	if report.Readiness != nil {
		r := report.Readiness
		fmt.Fprintf(w, "🩺 Equipment Readiness: %d/%d (%.1f%%)\n", r.OK, r.Total, r.ReadinessRate)
		for _, c := range r.Categories {
			if c.Total == 0 {
				continue
			}
			fmt.Fprintf(w, "  %s: total %d, ok %d, repair %d, testing %d, abnormal %d\n",
				c.Name, c.Total, c.OK, c.Repair, c.Testing, c.Abnormal)
		}
		fmt.Fprintln(w)
	}
}

func writeStats(w io.Writer, s *dto.Stats) {
	fmt.Fprintf(w, "Total Cases: %d (%.1f points)\n", s.TotalCases, s.TotalPoints)
	fmt.Fprintf(w, "Avg TAT: %.1f days (pending %.1f, backlog %.1f, construction %.1f)\n",
		s.AvgTAT, s.AvgPending, s.AvgBacklog, s.AvgConstruction)
	fmt.Fprintf(w, "Recall Rate: %.1f%% (%d/%d), First-Time Fix: %.1f%%\n",
		s.RecallRate, s.RecallCount, s.RecallBase, s.FirstTimeFixRate)
	fmt.Fprintf(w, "SLA Over: %d (%.1f%%), TAT > 5: %d (%.1f%%)\n",
		s.SLA.Over, s.SLA.OverRate, s.SLA.FlatOutliers, s.SLA.FlatRate)
	fmt.Fprintf(w, "Revenue: %s  External: %s  Parts: %s  Labor: %s\n",
		money(s.Financials.Revenue), money(s.Financials.ExternalCost),
		money(s.Financials.PartsCost), money(s.Financials.LaborCost))
	fmt.Fprintf(w, "Gross Margin: %s  Cost/Repair: %s\n", money(s.Financials.GrossMargin), money(s.CostPerRepair))
	fmt.Fprintf(w, "Warranty: %d cases (%.1f%%), %d repairs\n",
		s.Financials.WarrantyCases, s.Financials.WarrantyRate, s.Financials.WarrantyRepairs)
	fmt.Fprintf(w, "Workload Gini: %.3f\n", s.Gini)
	if s.TopEngineer != nil {
		fmt.Fprintf(w, "Top Engineer: %s (%.1f points)\n", s.TopEngineer.Name, s.TopEngineer.Points)
	}
	fmt.Fprintln(w)

	if len(s.SLA.Tiers) > 0 {
		fmt.Fprintf(w, "⏱️  SLA by Type:\n")
		fmt.Fprintf(w, "%-14s %-8s %-6s %-6s %-8s\n", "Type", "Target", "Cases", "Over", "Over %")
		for _, t := range s.SLA.Tiers {
			fmt.Fprintf(w, "%-14s %-8d %-6d %-6d %-8.1f\n", t.Label, t.TargetDays, t.Cases, t.Over, t.OverRate)
		}
		fmt.Fprintln(w)
	}

	if len(s.TopModels) > 0 {
		fmt.Fprintf(w, "🔧 Top Models:\n")
		for _, m := range s.TopModels {
			fmt.Fprintf(w, "  %-24s %d\n", m.Name, m.Count)
		}
		fmt.Fprintln(w)
	}

	if len(s.Inventory) > 0 {
		fmt.Fprintf(w, "📦 Parts Forecast (%.1f months):\n", s.MonthSpan)
		fmt.Fprintf(w, "%-15s %-20s %-6s %-10s %-8s %-6s\n", "Part Number", "Name", "Used", "Total", "Monthly", "Stock")
		for _, p := range s.Inventory {
			fmt.Fprintf(w, "%-15s %-20s %-6d %-10s %-8.1f %-6d\n",
				p.PartNumber, p.Name, p.Count, money(p.TotalCost), p.MonthlyRate, p.SafetyStock)
		}
		fmt.Fprintln(w)
	}

	if len(s.Reliability) > 0 {
		fmt.Fprintf(w, "🛠️  Model Reliability:\n")
		fmt.Fprintf(w, "%-24s %-8s %-6s %-8s %-6s\n", "Model", "Devices", "Cases", "MTBF", "Rate")
		for _, r := range s.Reliability {
			mtbf := "-"
			if r.MTBFDays != nil {
				mtbf = strconv.Itoa(*r.MTBFDays)
			}
			fmt.Fprintf(w, "%-24s %-8d %-6d %-8s %-6.1f\n", r.Model, r.UniqueSerials, r.TotalCases, mtbf, r.FailureRate)
		}
		fmt.Fprintln(w)
	}
}

func generateJSONOutput(report *dto.Report, config Config) error {
	if config.OutputDir == "" {
		return writeJSON(config.writer(), report)
	}
	return saveJSON(report, config, "repair_kpi.json")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}

func saveJSON(report *dto.Report, config Config, name string) error {
	jsonData, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, name)
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.writer(), "💾 JSON results saved to: %s\n", filename)
	}
	return nil
}

// generateCSVOutput writes the engineer scorecard and part forecast tables
func generateCSVOutput(report *dto.Report, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	scoreFile := filepath.Join(config.OutputDir, "engineer_scorecard.csv")
	if err := writeCSV(scoreFile, scorecardRows(report.Scorecard)); err != nil {
		return fmt.Errorf("failed to write scorecard CSV: %w", err)
	}
	var inventory []dto.PartForecast
	if report.Stats != nil {
		inventory = report.Stats.Inventory
	}
	partsFile := filepath.Join(config.OutputDir, "parts_forecast.csv")
	if err := writeCSV(partsFile, inventoryRows(inventory)); err != nil {
		return fmt.Errorf("failed to write parts forecast CSV: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(config.writer(), "💾 CSV results saved to:\n")
		fmt.Fprintf(config.writer(), "  Scorecard: %s\n", scoreFile)
		fmt.Fprintf(config.writer(), "  Parts Forecast: %s\n", partsFile)
	}
	return nil
}

func scorecardRows(scores []dto.EngineerScore) [][]string {
	rows := [][]string{{"engineer", "cases", "points", "avg_tat", "achievement", "recall_rate", "tat_score", "recall_score", "coop_score", "final_score"}}
	for _, s := range scores {
		rows = append(rows, []string{
			s.Engineer,
			strconv.Itoa(s.Cases),
			formatFloat(s.Points),
			formatFloat(s.AvgTAT),
			formatFloat(s.Achievement),
			formatFloat(s.RecallRate),
			formatFloat(s.TATScore),
			formatFloat(s.RecallScore),
			formatFloat(s.CoopScore),
			formatFloat(s.FinalScore),
		})
	}
	return rows
}

func inventoryRows(parts []dto.PartForecast) [][]string {
	rows := [][]string{{"part_number", "name", "count", "unit_cost", "total_cost", "monthly_rate", "safety_stock"}}
	for _, p := range parts {
		rows = append(rows, []string{
			string(p.PartNumber),
			p.Name,
			strconv.Itoa(p.Count),
			p.UnitCost.String(),
			p.TotalCost.String(),
			formatFloat(p.MonthlyRate),
			strconv.Itoa(p.SafetyStock),
		})
	}
	return rows
}

func writeCSV(filename string, rows [][]string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(0)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/vsinha/repairkpi/pkg/application/dto"
	"github.com/vsinha/repairkpi/pkg/domain/entities"
	testhelpers "github.com/vsinha/repairkpi/pkg/infrastructure/testing"
)

func sampleReport() *dto.Report {
	mtbf := 15
	return &dto.Report{
		RunID:    "run-1",
		Source:   "records.csv",
		Range:    testhelpers.Range(testhelpers.Date(2024, 3, 1), testhelpers.Date(2024, 3, 31)),
		AllCases: 3,
		Warnings: []entities.DataWarning{{Level: entities.WarningInfo, Code: entities.WarningSkippedRows, Count: 1, Message: "1 列資料不足已略過"}},
		Stats: &dto.Stats{
			TotalCases: 3,
			AvgTAT:     4.5,
			RecallRate: 33.3,
			Financials: dto.Financials{GrossMargin: decimal.NewFromInt(1900)},
			Inventory: []dto.PartForecast{
				{PartNumber: "P100", Name: "Filter", Count: 2, UnitCost: decimal.NewFromInt(100), TotalCost: decimal.NewFromInt(200), MonthlyRate: 2, SafetyStock: 3},
			},
			Reliability: []dto.ModelReliability{{Model: "AirSense", UniqueSerials: 2, TotalCases: 4, MTBFDays: &mtbf, FailureRate: 2}},
		},
		Scorecard: []dto.EngineerScore{{Engineer: "Alice", Cases: 3, Points: 6, FinalScore: 98}},
		Customers: []dto.CustomerProfile{{
			Rank: 1, Name: "仁愛醫院", Cases: 2, TopModel: &dto.NameCount{Name: "AirSense", Count: 2},
			TopFault: "漏氣", TopParts: []dto.NameCount{{Name: "Mask", Count: 2}}, Suggestion: "持續觀察。",
		}},
		Trends:    []dto.MonthlyTrend{{Month: "2024-03", Cases: 3, GrossMargin: decimal.NewFromInt(1900)}},
		Anomalies: []dto.Anomaly{{Kind: dto.AnomalyCaseSurge, Month: "2024-03", Message: "案量突增 50%（2024-03）"}},
	}
}

func TestGenerate_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := Generate(sampleReport(), Config{Format: "text", Writer: &buf}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Repair KPI Report",
		"Range: 2024-03-01..2024-03-31 (31 days)",
		"1 列資料不足已略過",
		"Gross Margin: $1900",
		"Alice",
		"P100",
		"AirSense",
		"案量突增 50%（2024-03）",
		"1. 仁愛醫院: 2 件, AirSense (2台), 漏氣",
		"📦 Mask (2)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q", want)
		}
	}
}

func TestGenerate_VerboseInputFilesSorted(t *testing.T) {
	config := Config{
		Format:     "text",
		Verbose:    true,
		InputFiles: map[string]string{"Records": "r.csv", "Prices": "p.csv", "Assets": "a.xlsx"},
	}

	var first string
	for i := 0; i < 5; i++ {
		var buf bytes.Buffer
		config.Writer = &buf
		if err := Generate(sampleReport(), config); err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if i == 0 {
			first = buf.String()
			continue
		}
		if buf.String() != first {
			t.Fatalf("Expected identical output on run %d", i+1)
		}
	}

	want := "  Assets: a.xlsx\n  Prices: p.csv\n  Records: r.csv\n"
	if !strings.Contains(first, want) {
		t.Errorf("Expected input files in name order, got:\n%s", first)
	}
}

func TestGenerate_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Generate(sampleReport(), Config{Format: "json", Writer: &buf}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Output is not JSON: %v", err)
	}
	if decoded["runId"] != "run-1" {
		t.Errorf("Expected runId run-1, got %v", decoded["runId"])
	}
	if _, ok := decoded["stats"].(map[string]any); !ok {
		t.Errorf("Expected a stats object, got %T", decoded["stats"])
	}
}

func TestGenerate_CSV(t *testing.T) {
	if err := Generate(sampleReport(), Config{Format: "csv"}); err == nil {
		t.Error("Expected CSV output without a directory to fail")
	}

	dir := t.TempDir()
	if err := Generate(sampleReport(), Config{Format: "csv", OutputDir: dir}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "parts_forecast.csv"))
	if err != nil {
		t.Fatalf("Expected parts forecast file: %v", err)
	}
	if !strings.Contains(string(data), "P100,Filter,2,100,200,2,3") {
		t.Errorf("Unexpected parts forecast CSV:\n%s", data)
	}
	if _, err := os.Stat(filepath.Join(dir, "engineer_scorecard.csv")); err != nil {
		t.Errorf("Expected scorecard file: %v", err)
	}
}

func TestGenerate_Errors(t *testing.T) {
	if err := Generate(nil, Config{}); err == nil {
		t.Error("Expected an error for a nil report")
	}
	if err := Generate(sampleReport(), Config{Format: "xml", Writer: &bytes.Buffer{}}); err == nil {
		t.Error("Expected an error for an unsupported format")
	}
}

func TestGenerateHistory(t *testing.T) {
	var buf bytes.Buffer
	if err := GenerateHistory(nil, Config{Writer: &buf}); err != nil {
		t.Fatalf("GenerateHistory failed: %v", err)
	}
	if !strings.Contains(buf.String(), "查無設備紀錄") {
		t.Errorf("Expected a no-result message, got %q", buf.String())
	}

	buf.Reset()
	history := &dto.DeviceHistory{
		Query:      "SN",
		TotalCases: 1,
		Groups: []dto.DeviceGroup{{
			Key:        "SN-1",
			Model:      "DreamStation",
			Cases:      []*entities.Case{testhelpers.NewCase("W1").Serial("SN-1").Build()},
			CaseIDs:    []string{"W1"},
			Advisories: []dto.Advisory{{Level: "success", Message: "ok"}},
		}},
	}
	if err := GenerateHistory(history, Config{Writer: &buf}); err != nil {
		t.Fatalf("GenerateHistory failed: %v", err)
	}
	if !strings.Contains(buf.String(), "SN-1 (DreamStation): 1 visits") || !strings.Contains(buf.String(), "[success] ok") {
		t.Errorf("Unexpected history output:\n%s", buf.String())
	}
}

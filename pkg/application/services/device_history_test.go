package services

import (
	"reflect"
	"testing"

	"github.com/vsinha/repairkpi/pkg/application/dto"
	"github.com/vsinha/repairkpi/pkg/domain/entities"
	testhelpers "github.com/vsinha/repairkpi/pkg/infrastructure/testing"
)

func deviceFixture() []*entities.Case {
	d := testhelpers.Date
	return []*entities.Case{
		testhelpers.NewCase("X1").Serial("SN-100").Model("DreamStation").Completed(d(2024, 3, 10)).TAT(4).Fault("漏氣").
			Part("P1", "Filter").Build(),
		testhelpers.NewCase("Y1").Serial("SN-200").Model("AirSense").Completed(d(2024, 2, 2)).TAT(2).Build(),
		testhelpers.NewCase("X2").Serial("SN-100").Completed(d(2024, 1, 5)).TAT(8).Fault("不開機").Recall("X0").
			Part("", "TRUE").Build(),
		testhelpers.NewCase("X3").Serial("SN-100").Completed(d(2024, 2, 1)).TAT(6).Fault("漏氣").
			Part("P1", "Filter").Part("P2", "Blower").Build(),
		testhelpers.NewCase("Z1").Serial("QQ-1").Build(),
	}
}

func TestSearchDeviceHistory(t *testing.T) {
	history := SearchDeviceHistory(deviceFixture(), "sn-")
	if history == nil {
		t.Fatal("Expected matches")
	}
	if history.TotalCases != 4 || len(history.Groups) != 2 {
		t.Fatalf("Expected 4 cases in 2 groups, got %d in %d", history.TotalCases, len(history.Groups))
	}

	first := history.Groups[0]
	if first.Key != "SN-100" || first.Model != "DreamStation" {
		t.Errorf("Unexpected first group: %s / %s", first.Key, first.Model)
	}
	if !reflect.DeepEqual(first.CaseIDs, []string{"X2", "X3", "X1"}) {
		t.Errorf("Expected visits in date order, got %v", first.CaseIDs)
	}
	expected := []dto.Advisory{
		{Level: "warning", Message: "此設備已維修 3 次，頻率偏高，建議評估是否需要更換或深度翻新"},
		{Level: "danger", Message: "偵測到 1 次返修，建議檢查根因分析"},
		{Level: "info", Message: "常見故障：不開機、漏氣"},
		{Level: "warning", Message: "平均 TAT：6.0 天"},
		{Level: "info", Message: "常用零件：Filter(×2)、Blower(×1)"},
		{Level: "info", Message: "平均維修間隔 33 天，預估下次保養：2024/4/12"},
	}
	if !reflect.DeepEqual(first.Advisories, expected) {
		t.Errorf("Expected advisories %v, got %v", expected, first.Advisories)
	}

	second := history.Groups[1]
	if second.Key != "SN-200" || len(second.Advisories) != 2 {
		t.Fatalf("Unexpected second group: %+v", second)
	}
	if second.Advisories[0].Level != "success" || second.Advisories[1].Level != "info" {
		t.Errorf("Expected success and info advisories, got %v", second.Advisories)
	}
}

func TestNextServiceEstimate(t *testing.T) {
	d := testhelpers.Date
	testCases := []struct {
		name     string
		cases    []*entities.Case
		expected string
	}{
		{
			name: "two_visits",
			cases: []*entities.Case{
				testhelpers.NewCase("A").Completed(d(2024, 1, 1)).Build(),
				testhelpers.NewCase("B").Completed(d(2024, 1, 31)).Build(),
			},
			expected: "平均維修間隔 30 天，預估下次保養：2024/3/1",
		},
		{
			name: "undated_visit_ignored",
			cases: []*entities.Case{
				testhelpers.NewCase("A").Completed(d(2024, 5, 10)).Build(),
				testhelpers.NewCase("B").Build(),
				testhelpers.NewCase("C").Completed(d(2024, 5, 1)).Build(),
			},
			expected: "平均維修間隔 9 天，預估下次保養：2024/5/19",
		},
		{
			name: "single_dated_visit",
			cases: []*entities.Case{
				testhelpers.NewCase("A").Completed(d(2024, 5, 10)).Build(),
				testhelpers.NewCase("B").Build(),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			advisory, ok := nextServiceEstimate(tc.cases)
			if ok != (tc.expected != "") {
				t.Fatalf("Expected estimate %v, got %v", tc.expected != "", ok)
			}
			if ok && advisory.Message != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, advisory.Message)
			}
		})
	}
}

func TestSearchDeviceHistory_NoResult(t *testing.T) {
	testCases := []struct {
		name  string
		query string
	}{
		{"too_short", "s"},
		{"blank", "   "},
		{"no_match", "nothing"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SearchDeviceHistory(deviceFixture(), tc.query); got != nil {
				t.Errorf("Expected nil, got %+v", got)
			}
		})
	}
}

func TestSearchDeviceHistory_ModelMatch(t *testing.T) {
	history := SearchDeviceHistory(deviceFixture(), " AIRSENSE ")
	if history == nil || history.TotalCases != 1 || history.Groups[0].CaseIDs[0] != "Y1" {
		t.Errorf("Expected a single case-insensitive model match, got %+v", history)
	}
}

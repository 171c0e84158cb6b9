package services

import (
	"reflect"
	"testing"

	"github.com/vsinha/repairkpi/pkg/application/dto"
	"github.com/vsinha/repairkpi/pkg/domain/entities"
	testhelpers "github.com/vsinha/repairkpi/pkg/infrastructure/testing"
)

func customerFixture() []*entities.Case {
	return []*entities.Case{
		testhelpers.NewCase("C1").Client("仁愛醫院").Model("AirSense").Fault("機器摔落外殼破裂需要更換上蓋板").
			Part("P1", "Mask, size M").Build(),
		testhelpers.NewCase("C2").Client("仁愛醫院").Model("AirSense").Fault("機器摔落外殼破裂需要更換上蓋板子").
			Part("P1", "Mask, size L").Part("P2", "Filter").Build(),
		testhelpers.NewCase("C3").Client("仁愛醫院").Model("DreamStation").Fault("異音").
			Part("", "TRUE").Build(),
		testhelpers.NewCase("D1").Client("王小明").Model("EverFlo").Fault("運轉時異音很吵").Build(),
		testhelpers.NewCase("D2").Client("王小明").Type(entities.HomeMaintenance).Build(),
		testhelpers.NewCase("E1").Client("李大華").Build(),
		testhelpers.NewCase("E2").Client("Unknown").Fault("無法開機").Build(),
		testhelpers.NewCase("E3").Fault("無法開機").Build(),
		testhelpers.NewCase("E4").Client("陳醫師").RawType("整新").Build(),
	}
}

func TestTopCustomers(t *testing.T) {
	got := TopCustomers(customerFixture())

	expected := []dto.CustomerProfile{
		{
			Rank:       1,
			Name:       "仁愛醫院",
			Cases:      3,
			TopModel:   &dto.NameCount{Name: "AirSense", Count: 2},
			TopFault:   "機器摔落外殼破裂需要更換上蓋板",
			TopParts:   []dto.NameCount{{Name: "Mask", Count: 2}, {Name: "Filter", Count: 1}},
			Suggestion: "建議安排操作衛教，減少人為損壞。",
		},
		{
			Rank:       2,
			Name:       "王小明",
			Cases:      1,
			TopModel:   &dto.NameCount{Name: "EverFlo", Count: 1},
			TopFault:   "運轉時異音很吵",
			TopParts:   []dto.NameCount{},
			Suggestion: "可能是風扇或濾網問題，建議檢查環境落塵。",
		},
		{
			Rank:       3,
			Name:       "李大華",
			Cases:      1,
			TopFault:   "未詳述",
			TopParts:   []dto.NameCount{},
			Suggestion: "持續觀察。",
		},
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %+v, got %+v", expected, got)
	}
}

func TestTopCustomers_LimitAndEmpty(t *testing.T) {
	var cases []*entities.Case
	for _, client := range []string{"A", "B", "B", "C", "D", "E", "F", "F", "F"} {
		cases = append(cases, testhelpers.NewCase(client+"-case").Client(client).Build())
	}

	got := TopCustomers(cases)
	names := make([]string, len(got))
	for i, p := range got {
		names[i] = p.Name
	}
	if !reflect.DeepEqual(names, []string{"F", "B", "A", "C", "D"}) {
		t.Errorf("Expected top five by count with ties in first-seen order, got %v", names)
	}

	if got := TopCustomers(nil); len(got) != 0 {
		t.Errorf("Expected no profiles for no cases, got %v", got)
	}
}

func TestSuggestFor(t *testing.T) {
	testCases := []struct {
		fault    string
		expected string
	}{
		{"外殼破損", "建議安排操作衛教，減少人為損壞。"},
		{"風扇很吵", "可能是風扇或濾網問題，建議檢查環境落塵。"},
		{"按鍵後無法開機", "建議檢查電源線或插座環境。"},
		{"漏氣", "持續觀察。"},
		{"未詳述", "持續觀察。"},
	}

	for _, tc := range testCases {
		if got := suggestFor(tc.fault); got != tc.expected {
			t.Errorf("suggestFor(%q) = %q, want %q", tc.fault, got, tc.expected)
		}
	}
}

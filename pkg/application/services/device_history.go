package services

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samber/lo"
	"github.com/vsinha/repairkpi/pkg/application/dto"
	"github.com/vsinha/repairkpi/pkg/domain/entities"
	domain "github.com/vsinha/repairkpi/pkg/domain/services"
)

const (
	minHistoryQueryLength = 2
	maxListedFaults       = 3
	maxListedParts        = 3
)

// SearchDeviceHistory matches query case-insensitively against serial, id
// and model, grouping matches per device. It returns nil for queries
// shorter than two characters or without matches.
func SearchDeviceHistory(cases []*entities.Case, query string) *dto.DeviceHistory {
	q := strings.ToLower(strings.TrimSpace(query))
	if utf8.RuneCountInString(q) < minHistoryQueryLength {
		return nil
	}

	matched := lo.Filter(cases, func(c *entities.Case, _ int) bool {
		return strings.Contains(strings.ToLower(c.SerialNumber), q) ||
			strings.Contains(strings.ToLower(c.ID), q) ||
			strings.Contains(strings.ToLower(c.Model), q)
	})
	if len(matched) == 0 {
		return nil
	}

	var groups []*dto.DeviceGroup
	byKey := make(map[string]*dto.DeviceGroup)
	for _, c := range matched {
		key, _ := lo.Coalesce(c.SerialNumber, c.ID, "unknown")
		g, ok := byKey[key]
		if !ok {
			g = &dto.DeviceGroup{Key: key, Model: "-"}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.Cases = append(g.Cases, c)
		if hasModel(c.Model) {
			g.Model = c.Model
		}
	}

	out := &dto.DeviceHistory{Query: query, TotalCases: len(matched)}
	for _, g := range groups {
		sort.SliceStable(g.Cases, func(i, j int) bool {
			return g.Cases[i].CompletionDate.Before(g.Cases[j].CompletionDate)
		})
		g.CaseIDs = lo.Map(g.Cases, func(c *entities.Case, _ int) string { return c.ID })
		g.Advisories = deviceAdvisories(g.Cases)
		out.Groups = append(out.Groups, *g)
	}
	return out
}

func deviceAdvisories(cases []*entities.Case) []dto.Advisory {
	var out []dto.Advisory
	switch n := len(cases); {
	case n >= 3:
		out = append(out, dto.Advisory{Level: "warning", Message: fmt.Sprintf("此設備已維修 %d 次，頻率偏高，建議評估是否需要更換或深度翻新", n)})
	case n == 2:
		out = append(out, dto.Advisory{Level: "info", Message: fmt.Sprintf("此設備有 %d 次維修紀錄，持續追蹤中", n)})
	default:
		out = append(out, dto.Advisory{Level: "success", Message: "此設備僅有 1 次維修紀錄，狀態良好"})
	}

	if recalls := lo.CountBy(cases, func(c *entities.Case) bool { return c.IsRecall }); recalls > 0 {
		out = append(out, dto.Advisory{Level: "danger", Message: fmt.Sprintf("偵測到 %d 次返修，建議檢查根因分析", recalls)})
	}

	faults := lo.Uniq(lo.FilterMap(cases, func(c *entities.Case, _ int) (string, bool) {
		return c.FaultDescription, c.FaultDescription != ""
	}))
	if len(faults) > 0 {
		out = append(out, dto.Advisory{Level: "info", Message: "常見故障：" + strings.Join(lo.Subset(faults, 0, maxListedFaults), "、")})
	}

	tats := lo.FilterMap(cases, func(c *entities.Case, _ int) (int, bool) { return c.TAT, c.TAT > 0 })
	if len(tats) > 0 {
		avg := average(float64(lo.Sum(tats)), len(tats))
		level := "info"
		if avg > 5 {
			level = "warning"
		}
		out = append(out, dto.Advisory{Level: level, Message: fmt.Sprintf("平均 TAT：%.1f 天", avg)})
	}

	parts := newOrderedCounter[string]()
	for _, c := range cases {
		for _, p := range c.CountableParts() {
			if p.Name != "" {
				parts.add(p.Name, 1)
			}
		}
	}
	if top := topCounts(parts, maxListedParts); len(top) > 0 {
		listed := lo.Map(top, func(p dto.NameCount, _ int) string { return fmt.Sprintf("%s(×%d)", p.Name, p.Count) })
		out = append(out, dto.Advisory{Level: "info", Message: "常用零件：" + strings.Join(listed, "、")})
	}

	if advisory, ok := nextServiceEstimate(cases); ok {
		out = append(out, advisory)
	}
	return out
}

// nextServiceEstimate projects the next visit from the mean gap between
// dated visits. It needs at least two dated visits.
func nextServiceEstimate(cases []*entities.Case) (dto.Advisory, bool) {
	dates := lo.FilterMap(cases, func(c *entities.Case, _ int) (time.Time, bool) {
		return c.CompletionDate, c.IsDated()
	})
	if len(dates) < 2 {
		return dto.Advisory{}, false
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	first, last := dates[0], dates[len(dates)-1]
	gap := int(math.Round(float64(domain.CalendarDaysBetween(first, last)) / float64(len(dates)-1)))
	next := last.AddDate(0, 0, gap)
	return dto.Advisory{
		Level:   "info",
		Message: fmt.Sprintf("平均維修間隔 %d 天，預估下次保養：%s", gap, next.Format("2006/1/2")),
	}, true
}

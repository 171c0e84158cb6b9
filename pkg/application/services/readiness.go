package services

import (
	"strings"

	"github.com/vsinha/repairkpi/pkg/application/dto"
	"github.com/vsinha/repairkpi/pkg/domain/entities"
)

type equipmentFamily struct {
	name     string
	keywords []string
}

// equipmentFamilies are matched in order; assets matching none fall into
// otherEquipment and always count as ready.
var equipmentFamilies = []equipmentFamily{
	{"CPAP/BiPAP 呼吸器", []string{"trilogy", "cpap", "bipap", "呼吸"}},
	{"氧氣製造機", []string{"氧氣", "everflo", "airsep", "製氧"}},
	{"加熱潮濕器", []string{"潮濕", "加熱", "vadi", "溫大師", "vh-1500", "eh-01"}},
}

const otherEquipment = "其他設備"

type assetState int

const (
	assetOK assetState = iota
	assetRepair
	assetTesting
	assetAbnormal
)

func classifyAssetStatus(status string) assetState {
	switch strings.TrimSpace(status) {
	case "待維修", "維修中":
		return assetRepair
	case "待測", "測試中":
		return assetTesting
	case "找不到", "報廢", "故障":
		return assetAbnormal
	default:
		return assetOK
	}
}

// EquipmentReadiness groups assets by equipment family and status and
// reports the share that is ready. Empty input returns nil.
func EquipmentReadiness(assets []entities.AssetRecord) *dto.EquipmentReadiness {
	if len(assets) == 0 {
		return nil
	}

	categories := make([]dto.EquipmentCategory, len(equipmentFamilies)+1)
	for i, f := range equipmentFamilies {
		categories[i].Name = f.name
	}
	other := len(equipmentFamilies)
	categories[other].Name = otherEquipment

	for _, a := range assets {
		name := strings.ToLower(a.ProductName + " " + a.Model)
		idx := other
		for i, f := range equipmentFamilies {
			if containsAny(name, f.keywords) {
				idx = i
				break
			}
		}

		cat := &categories[idx]
		cat.Total++
		if idx == other {
			cat.OK++
			continue
		}
		switch classifyAssetStatus(a.Status) {
		case assetRepair:
			cat.Repair++
			cat.Attention = append(cat.Attention, a)
		case assetTesting:
			cat.Testing++
			cat.Attention = append(cat.Attention, a)
		case assetAbnormal:
			cat.Abnormal++
			cat.Attention = append(cat.Attention, a)
		default:
			cat.OK++
		}
	}

	out := &dto.EquipmentReadiness{Categories: categories}
	for _, c := range categories {
		out.Total += c.Total
		out.OK += c.OK
	}
	out.ReadinessRate = percent(out.OK, out.Total)
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

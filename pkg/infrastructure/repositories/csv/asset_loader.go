package csv

import (
	"errors"

	"github.com/vsinha/repairkpi/pkg/domain/entities"
)

// ErrAssetHeaderNotFound is returned when no row within the banner area has a 公司 cell
var ErrAssetHeaderNotFound = errors.New("asset inventory header row (公司) not found")

const assetHeaderSearchRows = 10

type assetColumns struct {
	company, productName, serialNo, assetID, partNo, brand, model, status int
	startDate, shipmentNo, location, inventoryCheck, notes, contract, photo int
}

// LoadAssets reads an asset inventory file
func LoadAssets(filename string, enc Encoding) ([]entities.AssetRecord, error) {
	records, err := ReadFile(filename, enc)
	if err != nil {
		return nil, err
	}
	return ParseAssetRecords(records)
}

// ParseAssetRecords parses the asset inventory sheet. The header is the first
// of the leading rows with a cell exactly equal to 公司; banner rows above it
// are ignored.
func ParseAssetRecords(records [][]string) ([]entities.AssetRecord, error) {
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	headerIdx := -1
	for i := 0; i < len(records) && i < assetHeaderSearchRows; i++ {
		for _, c := range records[i] {
			if cleanHeader(c) == "公司" {
				headerIdx = i
				break
			}
		}
		if headerIdx >= 0 {
			break
		}
	}
	if headerIdx < 0 {
		return nil, ErrAssetHeaderNotFound
	}

	headers := make([]string, len(records[headerIdx]))
	for i, h := range records[headerIdx] {
		headers[i] = cleanHeader(h)
	}
	cols := assetColumns{
		company:        findColumn(headers, exactly("公司")),
		productName:    findColumn(headers, anyOf("產品名稱")),
		serialNo:       findColumn(headers, exactly("序號")),
		assetID:        findColumn(headers, anyOf("資產編號")),
		partNo:         findColumn(headers, anyOf("產品料號")),
		brand:          findColumn(headers, anyOf("廠牌")),
		model:          findColumn(headers, anyOf("型號")),
		status:         findColumn(headers, exactly("狀態")),
		startDate:      findColumn(headers, anyOf("Start date", "日期")),
		shipmentNo:     findColumn(headers, anyOf("出貨單號")),
		location:       findColumn(headers, anyOf("現況位置")),
		inventoryCheck: findColumn(headers, anyOf("盤點")),
		notes:          findColumn(headers, exactly("備註")),
		contract:       findColumn(headers, exactly("合約")),
		photo:          findColumn(headers, exactly("照片")),
	}

	var assets []entities.AssetRecord
	for _, row := range records[headerIdx+1:] {
		if len(row) < 3 {
			continue
		}
		a := entities.AssetRecord{
			Company:        cell(row, cols.company),
			ProductName:    cell(row, cols.productName),
			SerialNo:       cell(row, cols.serialNo),
			AssetID:        cell(row, cols.assetID),
			PartNo:         cell(row, cols.partNo),
			Brand:          cell(row, cols.brand),
			Model:          cell(row, cols.model),
			Status:         cell(row, cols.status),
			StartDate:      cell(row, cols.startDate),
			ShipmentNo:     cell(row, cols.shipmentNo),
			Location:       cell(row, cols.location),
			InventoryCheck: cell(row, cols.inventoryCheck),
			Notes:          cell(row, cols.notes),
			Contract:       cell(row, cols.contract),
			Photo:          cell(row, cols.photo),
		}
		if a.Company == "" && a.ProductName == "" {
			continue
		}
		assets = append(assets, a)
	}
	return assets, nil
}

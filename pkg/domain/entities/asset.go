package entities

// AssetRecord is one row of the equipment inventory sheet
type AssetRecord struct {
	Company        string
	ProductName    string
	SerialNo       string
	AssetID        string
	PartNo         string
	Brand          string
	Model          string
	Status         string
	StartDate      string
	ShipmentNo     string
	Location       string
	InventoryCheck string
	Notes          string
	Contract       string
	Photo          string
}

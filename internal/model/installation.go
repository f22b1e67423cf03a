package model

// Base is a physical installation that holds inventory.
type Base struct {
	BaseModel
	Name     string `gorm:"type:varchar(120);uniqueIndex;not null" json:"name"`
	Location string `gorm:"type:varchar(255)" json:"location"`
}

// EquipmentType is immutable reference data, e.g. "M4 Carbine".
type EquipmentType struct {
	BaseModel
	Name     string `gorm:"type:varchar(120);uniqueIndex;not null" json:"name"`
	Category string `gorm:"type:varchar(60)" json:"category"`
	Unit     string `gorm:"type:varchar(20);default:'unit'" json:"unit"`
}

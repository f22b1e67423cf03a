package model

// Role represents user roles in the system
type Role struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Code        string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name        string      `gorm:"type:varchar(100)" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Privileges  []Privilege `gorm:"many2many:role_privileges;" json:"privileges,omitempty"`
}

// Role codes as constants
const (
	RoleAdmin            = "ADMIN"
	RoleBaseCommander    = "BASE_COMMANDER"
	RoleLogisticsOfficer = "LOGISTICS_OFFICER"
)

// DefaultRoles defines the default roles in the system
var DefaultRoles = []Role{
	{
		Code:        RoleAdmin,
		Name:        "Administrator",
		Description: "Full access across every base",
	},
	{
		Code:        RoleBaseCommander,
		Name:        "Base Commander",
		Description: "Approves and completes movements for the assigned base",
	},
	{
		Code:        RoleLogisticsOfficer,
		Name:        "Logistics Officer",
		Description: "Records purchases and requests transfers for the assigned base",
	},
}

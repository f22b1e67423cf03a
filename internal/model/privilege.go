package model

// Privilege represents a permission that can be assigned to roles
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "transfer:approve"
	Name string `gorm:"type:varchar(100)" json:"name"`
}

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	// Reference data
	{Code: "reference:view", Name: "View Bases and Equipment Types"},
	{Code: "reference:manage", Name: "Manage Bases and Equipment Types"},
	{Code: "balance:view", Name: "View Balances"},
	// Purchases
	{Code: "purchase:view", Name: "View Purchases"},
	{Code: "purchase:create", Name: "Record Purchase"},
	// Transfers
	{Code: "transfer:view", Name: "View Transfers"},
	{Code: "transfer:create", Name: "Request Transfer"},
	{Code: "transfer:approve", Name: "Approve or Reject Transfer"},
	{Code: "transfer:complete", Name: "Complete Transfer"},
	{Code: "transfer:cancel", Name: "Cancel Transfer"},
	// Assignments
	{Code: "assignment:view", Name: "View Assignments"},
	{Code: "assignment:create", Name: "Assign Equipment"},
	{Code: "assignment:return", Name: "Return Equipment"},
	// Expenditures
	{Code: "expenditure:view", Name: "View Expenditures"},
	{Code: "expenditure:create", Name: "Record Expenditure"},
	// Dashboard and reporting
	{Code: "dashboard:view", Name: "View Dashboard"},
	{Code: "report:export", Name: "Export Reports"},
	{Code: "audit:view", Name: "View Audit Log"},
	// Users
	{Code: "user:view", Name: "View Users and Roles"},
	{Code: "user:manage", Name: "Manage Users"},
}

// DefaultRolePrivileges lists the privilege codes seeded for each role. The
// admin role receives every privilege.
var DefaultRolePrivileges = map[string][]string{
	RoleBaseCommander: {
		"reference:view", "balance:view",
		"purchase:view", "purchase:create",
		"transfer:view", "transfer:create", "transfer:approve", "transfer:complete", "transfer:cancel",
		"assignment:view", "assignment:create", "assignment:return",
		"expenditure:view", "expenditure:create",
		"dashboard:view", "report:export",
	},
	RoleLogisticsOfficer: {
		"reference:view", "balance:view",
		"purchase:view", "purchase:create",
		"transfer:view", "transfer:create", "transfer:cancel",
		"dashboard:view",
	},
}

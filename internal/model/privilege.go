package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "production:schedule"
	Name string `gorm:"type:varchar(100)" json:"name"`                     // e.g., "Schedule Production"
}

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	// User management
	{Code: "user:view", Name: "View User"},
	{Code: "user:create", Name: "Create User"},
	{Code: "user:update", Name: "Update User"},
	{Code: "user:delete", Name: "Delete User"},
	{Code: "user:update_privilege", Name: "Update User Privileges"},
	// Catalog management
	{Code: "product:view", Name: "View Product"},
	{Code: "product:create", Name: "Create Product"},
	{Code: "product:update", Name: "Update Product"},
	{Code: "recipe:view", Name: "View Recipe"},
	{Code: "recipe:create", Name: "Create Recipe"},
	{Code: "recipe:update", Name: "Update Recipe"},
	// Stock management
	{Code: "stock:view", Name: "View Stock"},
	{Code: "stock:adjust", Name: "Adjust Stock Level"},
	// Production planning
	{Code: "production:view", Name: "View Production Plans"},
	{Code: "production:schedule", Name: "Schedule Production"},
	{Code: "production:confirm_shortage", Name: "Confirm Scheduling Despite Shortage"},
	{Code: "production:execute", Name: "Execute Production"},
	{Code: "production:cancel", Name: "Cancel Production"},
	// Divergences
	{Code: "divergence:view", Name: "View Divergences"},
	{Code: "divergence:resolve", Name: "Resolve Divergence"},
	// Dashboard
	{Code: "dashboard:view", Name: "View Dashboard"},
}

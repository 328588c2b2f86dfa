package models

// EntityType distinguishes clients from vendors.
type EntityType string

const (
	EntityClient EntityType = "client"
	EntityVendor EntityType = "vendor"
)

// EmployeeRole is a staff member's function.
type EmployeeRole string

const (
	RoleComplianceOfficer   EmployeeRole = "compliance_officer"
	RoleRelationshipManager EmployeeRole = "relationship_manager"
	RoleRiskAnalyst         EmployeeRole = "risk_analyst"
	RoleExecutive           EmployeeRole = "executive"
)

// Employee is a member of the staff roster.
type Employee struct {
	ID    string       `yaml:"id" json:"id"`
	Name  string       `yaml:"name" json:"name"`
	Email string       `yaml:"email" json:"email"`
	Phone string       `yaml:"phone" json:"phone"`
	Role  EmployeeRole `yaml:"role" json:"role"`
}

// Assignment links exactly one client or vendor to its responsible staff.
type Assignment struct {
	ClientID              string `yaml:"client_id,omitempty" json:"clientId,omitempty"`
	VendorID              string `yaml:"vendor_id,omitempty" json:"vendorId,omitempty"`
	ComplianceOfficerID   string `yaml:"compliance_officer_id" json:"complianceOfficerId"`
	RelationshipManagerID string `yaml:"relationship_manager_id,omitempty" json:"relationshipManagerId,omitempty"`
	AssignedAt            string `yaml:"assigned_at" json:"assignedAt"`
}

// EntityType returns the kind of entity the assignment covers.
func (a Assignment) EntityType() EntityType {
	if a.VendorID != "" {
		return EntityVendor
	}
	return EntityClient
}

// EntityID returns the id of the covered client or vendor.
func (a Assignment) EntityID() string {
	if a.VendorID != "" {
		return a.VendorID
	}
	return a.ClientID
}

// Matches reports whether the assignment covers the given entity.
func (a Assignment) Matches(entityID string, entityType EntityType) bool {
	return a.EntityType() == entityType && a.EntityID() == entityID
}

package assignment

import "github.com/stampedhq/onboard/pkg/models"

// Roster returns the staff roster.
func Roster() []models.Employee {
	return []models.Employee{
		{ID: "emp-001", Name: "Sarah Mitchell", Email: "sarah.mitchell@stamped.com", Phone: "+1 (555) 0123", Role: models.RoleComplianceOfficer},
		{ID: "emp-002", Name: "Michael Chen", Email: "michael.chen@stamped.com", Phone: "+1 (555) 0124", Role: models.RoleComplianceOfficer},
		{ID: "emp-003", Name: "Rachel Chen", Email: "rachel.chen@stamped.com", Phone: "+1 (555) 0145", Role: models.RoleComplianceOfficer},
		{ID: "emp-004", Name: "David Rodriguez", Email: "david.rodriguez@stamped.com", Phone: "+1 (555) 0125", Role: models.RoleRelationshipManager},
		{ID: "emp-005", Name: "Emily Thompson", Email: "emily.thompson@stamped.com", Phone: "+1 (555) 0126", Role: models.RoleRiskAnalyst},
		{ID: "emp-006", Name: "James Anderson", Email: "james.anderson@stamped.com", Phone: "+1 (555) 0127", Role: models.RoleExecutive},
	}
}

// SeedAssignments returns the assignments a fresh directory starts with.
func SeedAssignments() []models.Assignment {
	return []models.Assignment{
		{ClientID: "client-1", ComplianceOfficerID: "emp-001", RelationshipManagerID: "emp-004", AssignedAt: "2024-01-10"},
		{ClientID: "client-2", ComplianceOfficerID: "emp-002", RelationshipManagerID: "emp-004", AssignedAt: "2024-01-12"},
		{VendorID: "vendor-1", ComplianceOfficerID: "emp-003", AssignedAt: "2024-01-15"},
		{VendorID: "vendor-2", ComplianceOfficerID: "emp-001", AssignedAt: "2024-01-16"},
	}
}

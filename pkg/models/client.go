package models

import (
	"fmt"
	"time"
)

// LifecycleStage is the onboarding/active/offboarded state of a client relationship.
type LifecycleStage string

const (
	LifecycleOnboarding  LifecycleStage = "onboarding"
	LifecycleActive      LifecycleStage = "active"
	LifecycleUnderReview LifecycleStage = "under_review"
	LifecycleSuspended   LifecycleStage = "suspended"
	LifecycleOffboarded  LifecycleStage = "offboarded"
)

// ClientStatus is the coarse active/inactive flag of a client.
type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusInactive ClientStatus = "inactive"
)

// RiskLevel buckets a client's risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// LifecycleEntry records one stage transition of a client.
type LifecycleEntry struct {
	Stage     LifecycleStage `yaml:"stage" json:"stage"`
	StartDate time.Time      `yaml:"start_date" json:"startDate"`
	EndDate   *time.Time     `yaml:"end_date,omitempty" json:"endDate,omitempty"`
	Notes     string         `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// RiskFactor is a single contributor to a risk assessment.
type RiskFactor struct {
	Category    string `yaml:"category" json:"category"`
	Description string `yaml:"description" json:"description"`
	Impact      string `yaml:"impact" json:"impact"`
	Score       int    `yaml:"score" json:"score"`
}

// RiskAssessment is a scored, periodically reviewed evaluation of a client.
type RiskAssessment struct {
	OverallScore       int          `yaml:"overall_score" json:"overallScore"`
	LastAssessmentDate time.Time    `yaml:"last_assessment_date" json:"lastAssessmentDate"`
	NextReviewDate     time.Time    `yaml:"next_review_date" json:"nextReviewDate"`
	Factors            []RiskFactor `yaml:"factors" json:"factors"`
	AssessedBy         string       `yaml:"assessed_by" json:"assessedBy"`
	Notes              string       `yaml:"notes" json:"notes"`
}

// Client is an onboarded (or onboarding) customer organisation.
type Client struct {
	ID          string `yaml:"id" json:"id"`
	CompanyName string `yaml:"company_name" json:"companyName"`
	Industry    string `yaml:"industry" json:"industry"`
	Country     string `yaml:"country" json:"country"`
	City        string `yaml:"city,omitempty" json:"city,omitempty"`
	Address     string `yaml:"address,omitempty" json:"address,omitempty"`
	Phone       string `yaml:"phone,omitempty" json:"phone,omitempty"`
	Email       string `yaml:"email" json:"email"`
	Website     string `yaml:"website,omitempty" json:"website,omitempty"`

	LifecycleStage   LifecycleStage   `yaml:"lifecycle_stage" json:"lifecycleStage"`
	Status           ClientStatus     `yaml:"status" json:"status"`
	LifecycleHistory []LifecycleEntry `yaml:"lifecycle_history" json:"lifecycleHistory"`

	AssignedRM          string `yaml:"assigned_rm" json:"assignedRM"`
	AssignedRMName      string `yaml:"assigned_rm_name" json:"assignedRMName"`
	AssignedOfficer     string `yaml:"assigned_officer" json:"assignedOfficer"`
	AssignedOfficerName string `yaml:"assigned_officer_name" json:"assignedOfficerName"`

	RiskLevel         RiskLevel      `yaml:"risk_level" json:"riskLevel"`
	RiskAssessment    RiskAssessment `yaml:"risk_assessment" json:"riskAssessment"`
	Documents         []string       `yaml:"documents" json:"documents"`
	RequiredDocuments []DocumentType `yaml:"required_documents" json:"requiredDocuments"`

	CreatedAt           time.Time `yaml:"created_at" json:"createdAt"`
	UpdatedAt           time.Time `yaml:"updated_at" json:"updatedAt"`
	LastContactDate     time.Time `yaml:"last_contact_date" json:"lastContactDate"`
	OnboardingStartDate time.Time `yaml:"onboarding_start_date" json:"onboardingStartDate"`

	AnnualRevenue     *float64 `yaml:"annual_revenue,omitempty" json:"annualRevenue,omitempty"`
	NumberOfEmployees *int     `yaml:"number_of_employees,omitempty" json:"numberOfEmployees,omitempty"`
	PrimaryContact    string   `yaml:"primary_contact,omitempty" json:"primaryContact,omitempty"`
	Notes             string   `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// Validate checks that the most recent lifecycle history entry matches the
// current lifecycle stage.
func (c Client) Validate() error {
	if len(c.LifecycleHistory) == 0 {
		return fmt.Errorf("client %s: lifecycle history is empty", c.ID)
	}
	last := c.LifecycleHistory[len(c.LifecycleHistory)-1]
	if last.Stage != c.LifecycleStage {
		return fmt.Errorf("client %s: latest history stage %q does not match lifecycle stage %q", c.ID, last.Stage, c.LifecycleStage)
	}
	return nil
}

// ClientInput carries the caller-supplied fields of a new client.
type ClientInput struct {
	CompanyName         string   `json:"companyName,omitempty"`
	Industry            string   `json:"industry,omitempty"`
	Country             string   `json:"country,omitempty"`
	City                string   `json:"city,omitempty"`
	Address             string   `json:"address,omitempty"`
	Phone               string   `json:"phone,omitempty"`
	Email               string   `json:"email,omitempty"`
	Website             string   `json:"website,omitempty"`
	AssignedRM          string   `json:"assignedRM,omitempty"`
	AssignedRMName      string   `json:"assignedRMName,omitempty"`
	AssignedOfficer     string   `json:"assignedOfficer,omitempty"`
	AssignedOfficerName string   `json:"assignedOfficerName,omitempty"`
	AnnualRevenue       *float64 `json:"annualRevenue,omitempty"`
	NumberOfEmployees   *int     `json:"numberOfEmployees,omitempty"`
	PrimaryContact      string   `json:"primaryContact,omitempty"`
	Notes               string   `json:"notes,omitempty"`
}

package models

import "time"

// Industry classifies a lead's business sector.
type Industry string

const (
	IndustryTechnology    Industry = "Technology"
	IndustryFinance       Industry = "Finance"
	IndustryHealthcare    Industry = "Healthcare"
	IndustryManufacturing Industry = "Manufacturing"
	IndustryRetail        Industry = "Retail"
	IndustryEnergy        Industry = "Energy"
	IndustryRealEstate    Industry = "Real Estate"
	IndustryOther         Industry = "Other"
)

// LeadStatus is the lifecycle status of a lead.
type LeadStatus string

const (
	LeadStatusActive    LeadStatus = "active"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusLost      LeadStatus = "lost"
	LeadStatusConverted LeadStatus = "converted"
)

// PipelineStage is the sales-funnel position of a lead.
type PipelineStage string

const (
	StageProspecting   PipelineStage = "prospecting"
	StageQualification PipelineStage = "qualification"
	StageProposal      PipelineStage = "proposal"
	StageNegotiation   PipelineStage = "negotiation"
	StageConverted     PipelineStage = "converted"
	StageLost          PipelineStage = "lost"
)

// PipelineStages lists every stage in funnel order.
var PipelineStages = []PipelineStage{
	StageProspecting, StageQualification, StageProposal, StageNegotiation, StageConverted, StageLost,
}

// Rank returns the stage's position in the funnel, or -1 for unknown stages.
func (s PipelineStage) Rank() int {
	for i, st := range PipelineStages {
		if st == s {
			return i
		}
	}
	return -1
}

// AIScoreBreakdown holds the sub-scores behind a lead's AI score.
type AIScoreBreakdown struct {
	CompanySize    int `yaml:"company_size" json:"companySize"`
	Industry       int `yaml:"industry" json:"industry"`
	Geography      int `yaml:"geography" json:"geography"`
	ContactQuality int `yaml:"contact_quality" json:"contactQuality"`
	Overall        int `yaml:"overall" json:"overall"`
}

// LeadActivity is a single entry in a lead's append-only activity trail.
type LeadActivity struct {
	ID          string    `yaml:"id" json:"id"`
	Type        string    `yaml:"type" json:"type"`
	Description string    `yaml:"description" json:"description"`
	Timestamp   time.Time `yaml:"timestamp" json:"timestamp"`
	PerformedBy string    `yaml:"performed_by" json:"performedBy"`
}

// Lead is a prospective client tracked through the sales pipeline.
type Lead struct {
	ID               string           `yaml:"id" json:"id"`
	CompanyName      string           `yaml:"company_name" json:"companyName"`
	Industry         Industry         `yaml:"industry" json:"industry"`
	Country          string           `yaml:"country" json:"country"`
	ContactName      string           `yaml:"contact_name" json:"contactName"`
	ContactEmail     string           `yaml:"contact_email" json:"contactEmail"`
	ContactPhone     string           `yaml:"contact_phone" json:"contactPhone"`
	Status           LeadStatus       `yaml:"status" json:"status"`
	PipelineStage    PipelineStage    `yaml:"pipeline_stage" json:"pipelineStage"`
	AIScore          int              `yaml:"ai_score" json:"aiScore"`
	AIScoreBreakdown AIScoreBreakdown `yaml:"ai_score_breakdown" json:"aiScoreBreakdown"`
	CreatedAt        time.Time        `yaml:"created_at" json:"createdAt"`
	UpdatedAt        time.Time        `yaml:"updated_at" json:"updatedAt"`
	AssignedTo       string           `yaml:"assigned_to" json:"assignedTo"`
	AssignedToName   string           `yaml:"assigned_to_name" json:"assignedToName"`
	Notes            string           `yaml:"notes" json:"notes"`
	Activities       []LeadActivity   `yaml:"activities" json:"activities"`

	EstimatedRevenue  *float64   `yaml:"estimated_revenue,omitempty" json:"estimatedRevenue,omitempty"`
	ExpectedCloseDate *time.Time `yaml:"expected_close_date,omitempty" json:"expectedCloseDate,omitempty"`
	CompanySize       string     `yaml:"company_size,omitempty" json:"companySize,omitempty"`
	Website           string     `yaml:"website,omitempty" json:"website,omitempty"`
	LinkedIn          string     `yaml:"linkedin,omitempty" json:"linkedin,omitempty"`
}

// Clone returns a deep copy of the lead so callers can mutate it freely.
func (l Lead) Clone() Lead {
	c := l
	if l.Activities != nil {
		c.Activities = append([]LeadActivity(nil), l.Activities...)
	}
	if l.EstimatedRevenue != nil {
		v := *l.EstimatedRevenue
		c.EstimatedRevenue = &v
	}
	if l.ExpectedCloseDate != nil {
		v := *l.ExpectedCloseDate
		c.ExpectedCloseDate = &v
	}
	return c
}

// LeadInput carries the caller-supplied fields of a new lead. Nil or empty
// fields are filled with defaults on creation.
type LeadInput struct {
	CompanyName       string            `json:"companyName,omitempty"`
	Industry          Industry          `json:"industry,omitempty"`
	Country           string            `json:"country,omitempty"`
	ContactName       string            `json:"contactName,omitempty"`
	ContactEmail      string            `json:"contactEmail,omitempty"`
	ContactPhone      string            `json:"contactPhone,omitempty"`
	PipelineStage     PipelineStage     `json:"pipelineStage,omitempty"`
	AIScore           *int              `json:"aiScore,omitempty"`
	AIScoreBreakdown  *AIScoreBreakdown `json:"aiScoreBreakdown,omitempty"`
	AssignedTo        string            `json:"assignedTo,omitempty"`
	AssignedToName    string            `json:"assignedToName,omitempty"`
	Notes             string            `json:"notes,omitempty"`
	EstimatedRevenue  *float64          `json:"estimatedRevenue,omitempty"`
	ExpectedCloseDate *time.Time        `json:"expectedCloseDate,omitempty"`
	CompanySize       string            `json:"companySize,omitempty"`
	Website           string            `json:"website,omitempty"`
	LinkedIn          string            `json:"linkedin,omitempty"`
}

// LeadPatch is a partial update; only non-nil fields are applied.
type LeadPatch struct {
	CompanyName       *string           `json:"companyName,omitempty"`
	Industry          *Industry         `json:"industry,omitempty"`
	Country           *string           `json:"country,omitempty"`
	ContactName       *string           `json:"contactName,omitempty"`
	ContactEmail      *string           `json:"contactEmail,omitempty"`
	ContactPhone      *string           `json:"contactPhone,omitempty"`
	Status            *LeadStatus       `json:"status,omitempty"`
	PipelineStage     *PipelineStage    `json:"pipelineStage,omitempty"`
	AIScore           *int              `json:"aiScore,omitempty"`
	AIScoreBreakdown  *AIScoreBreakdown `json:"aiScoreBreakdown,omitempty"`
	AssignedTo        *string           `json:"assignedTo,omitempty"`
	AssignedToName    *string           `json:"assignedToName,omitempty"`
	Notes             *string           `json:"notes,omitempty"`
	EstimatedRevenue  *float64          `json:"estimatedRevenue,omitempty"`
	ExpectedCloseDate *time.Time        `json:"expectedCloseDate,omitempty"`
	CompanySize       *string           `json:"companySize,omitempty"`
	Website           *string           `json:"website,omitempty"`
	LinkedIn          *string           `json:"linkedin,omitempty"`
}

// LeadFilter narrows a lead listing. All set criteria are ANDed; unset
// criteria impose no constraint.
type LeadFilter struct {
	Stage    PipelineStage
	Industry Industry
	Country  string
	MinScore *int
	MaxScore *int
}

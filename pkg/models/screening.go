package models

import "time"

// FindingSeverity grades an adverse media finding.
type FindingSeverity string

const (
	SeverityCritical FindingSeverity = "Critical"
	SeverityHigh     FindingSeverity = "High"
	SeverityMedium   FindingSeverity = "Medium"
	SeverityLow      FindingSeverity = "Low"
)

// FindingSeverities lists the accepted severities.
var FindingSeverities = []FindingSeverity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// FindingCategory classifies an adverse media finding.
type FindingCategory string

const (
	CategoryLegal           FindingCategory = "Legal"
	CategoryRegulatory      FindingCategory = "Regulatory"
	CategoryFraud           FindingCategory = "Fraud"
	CategoryCorruption      FindingCategory = "Corruption"
	CategoryMoneyLaundering FindingCategory = "Money Laundering"
	CategorySanctions       FindingCategory = "Sanctions"
	CategoryReputational    FindingCategory = "Reputational"
	CategoryOther           FindingCategory = "Other"
)

// FindingCategories lists the accepted categories.
var FindingCategories = []FindingCategory{
	CategoryLegal, CategoryRegulatory, CategoryFraud, CategoryCorruption,
	CategoryMoneyLaundering, CategorySanctions, CategoryReputational, CategoryOther,
}

// Finding is one normalized adverse media item.
type Finding struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	Source      string          `json:"source"`
	Severity    FindingSeverity `json:"severity"`
	Category    FindingCategory `json:"category"`
}

// ScreeningResult is the outcome of an adverse media search. A result with
// ParseFailed set carries the raw model output instead of findings and must
// not be read as a clean zero-findings result.
type ScreeningResult struct {
	EntityName    string    `json:"entityName"`
	DateRange     int       `json:"dateRange"`
	SearchDate    time.Time `json:"searchDate"`
	FindingsCount int       `json:"findingsCount"`
	Findings      []Finding `json:"findings"`
	ParseFailed   bool      `json:"parseFailed,omitempty"`
	Error         string    `json:"error,omitempty"`
	RawResponse   string    `json:"rawResponse,omitempty"`
}

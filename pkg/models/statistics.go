package models

// LeadStatistics aggregates the lead pipeline. Rates are percentages.
type LeadStatistics struct {
	TotalLeads        int                   `json:"totalLeads"`
	ActiveLeads       int                   `json:"activeLeads"`
	ConvertedLeads    int                   `json:"convertedLeads"`
	LostLeads         int                   `json:"lostLeads"`
	ConversionRate    float64               `json:"conversionRate"`
	StageDistribution map[PipelineStage]int `json:"stageDistribution"`
	AverageScore      int                   `json:"averageScore"`
}

// DocumentStatistics aggregates documents by review status.
type DocumentStatistics struct {
	TotalDocuments int     `json:"totalDocuments"`
	Pending        int     `json:"pending"`
	Uploaded       int     `json:"uploaded"`
	UnderReview    int     `json:"underReview"`
	Approved       int     `json:"approved"`
	Rejected       int     `json:"rejected"`
	Expired        int     `json:"expired"`
	ApprovalRate   float64 `json:"approvalRate"`
}

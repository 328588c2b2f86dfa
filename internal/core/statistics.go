package core

import (
	"context"
	"math"

	"github.com/stampedhq/onboard/internal/latency"
	"github.com/stampedhq/onboard/pkg/models"
)

func (r *repository) GetLeadStatistics(ctx context.Context) (*models.LeadStatistics, error) {
	if err := r.latency.Wait(ctx, latency.Default); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return ComputeLeadStatistics(r.leads), nil
}

func (r *repository) GetDocumentStatistics(ctx context.Context) (*models.DocumentStatistics, error) {
	if err := r.latency.Wait(ctx, latency.Default); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return ComputeDocumentStatistics(r.documents), nil
}

// ComputeLeadStatistics aggregates leads. A lead counts as converted when it
// reached the converted pipeline stage and as lost when its status is lost.
// Rates are percentages; an empty set yields zeros.
func ComputeLeadStatistics(leads []models.Lead) *models.LeadStatistics {
	stats := &models.LeadStatistics{
		TotalLeads:        len(leads),
		StageDistribution: make(map[models.PipelineStage]int),
	}
	sum := 0
	for _, l := range leads {
		if l.Status == models.LeadStatusActive {
			stats.ActiveLeads++
		}
		if l.Status == models.LeadStatusLost {
			stats.LostLeads++
		}
		if l.PipelineStage == models.StageConverted {
			stats.ConvertedLeads++
		}
		stats.StageDistribution[l.PipelineStage]++
		sum += l.AIScore
	}
	if stats.TotalLeads > 0 {
		stats.ConversionRate = float64(stats.ConvertedLeads) / float64(stats.TotalLeads) * 100
		stats.AverageScore = int(math.Round(float64(sum) / float64(stats.TotalLeads)))
	}
	return stats
}

// ComputeDocumentStatistics counts documents per review status.
func ComputeDocumentStatistics(docs []models.Document) *models.DocumentStatistics {
	stats := &models.DocumentStatistics{TotalDocuments: len(docs)}
	for _, d := range docs {
		switch d.Status {
		case models.DocStatusPendingUpload:
			stats.Pending++
		case models.DocStatusUploaded:
			stats.Uploaded++
		case models.DocStatusUnderReview:
			stats.UnderReview++
		case models.DocStatusApproved:
			stats.Approved++
		case models.DocStatusRejected:
			stats.Rejected++
		case models.DocStatusExpired:
			stats.Expired++
		}
	}
	if stats.TotalDocuments > 0 {
		stats.ApprovalRate = float64(stats.Approved) / float64(stats.TotalDocuments) * 100
	}
	return stats
}

package core

import (
	"time"

	"github.com/stampedhq/onboard/pkg/models"
)

// Fixtures is the seed data a repository falls back to when its store holds
// nothing for a collection.
type Fixtures struct {
	Leads         []models.Lead
	Clients       []models.Client
	Documents     []models.Document
	Conversations []models.Conversation
	Messages      []models.Message
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func seedLead(id, company string, industry models.Industry, country, contact, email string,
	status models.LeadStatus, stage models.PipelineStage, score int, created time.Time) models.Lead {
	return models.Lead{
		ID:            id,
		CompanyName:   company,
		Industry:      industry,
		Country:       country,
		ContactName:   contact,
		ContactEmail:  email,
		ContactPhone:  "+1 (555) 01" + id[len(id)-2:],
		Status:        status,
		PipelineStage: stage,
		AIScore:       score,
		AIScoreBreakdown: models.AIScoreBreakdown{
			CompanySize:    score,
			Industry:       score,
			Geography:      score,
			ContactQuality: score,
			Overall:        score,
		},
		CreatedAt:      created,
		UpdatedAt:      created,
		AssignedTo:     "emp-004",
		AssignedToName: "David Rodriguez",
		Activities: []models.LeadActivity{{
			ID:          id + "-act-1",
			Type:        "note",
			Description: "Lead added to system",
			Timestamp:   created,
			PerformedBy: "David Rodriguez",
		}},
	}
}

// DefaultFixtures returns a fresh copy of the stock seed data on every call.
func DefaultFixtures() *Fixtures {
	leads := []models.Lead{
		seedLead("lead-01", "Northwind Analytics", models.IndustryTechnology, "United States", "Alicia Grant", "alicia.grant@northwind.io",
			models.LeadStatusActive, models.StageProposal, 88, day(2024, 1, 3)),
		seedLead("lead-02", "Helios Capital Partners", models.IndustryFinance, "United Kingdom", "Oliver Bennett", "o.bennett@helioscap.co.uk",
			models.LeadStatusQualified, models.StageNegotiation, 92, day(2024, 1, 5)),
		seedLead("lead-03", "Meridian Health Group", models.IndustryHealthcare, "Canada", "Priya Nair", "priya.nair@meridianhealth.ca",
			models.LeadStatusActive, models.StageQualification, 71, day(2024, 1, 8)),
		seedLead("lead-04", "Brightline Manufacturing", models.IndustryManufacturing, "Germany", "Lukas Weber", "l.weber@brightline.de",
			models.LeadStatusActive, models.StageProspecting, 54, day(2024, 1, 11)),
		seedLead("lead-05", "Cobalt Cloud Systems", models.IndustryTechnology, "Singapore", "Wei Ling Tan", "weiling@cobaltcloud.sg",
			models.LeadStatusConverted, models.StageConverted, 95, day(2023, 11, 20)),
		seedLead("lead-06", "Harbor Retail Co", models.IndustryRetail, "Australia", "Mia Thompson", "mia@harborretail.com.au",
			models.LeadStatusLost, models.StageLost, 38, day(2023, 12, 2)),
		seedLead("lead-07", "Verdant Energy", models.IndustryEnergy, "United States", "Marcus Hill", "marcus.hill@verdant.energy",
			models.LeadStatusActive, models.StageProposal, 79, day(2024, 1, 15)),
		seedLead("lead-08", "Keystone Realty Trust", models.IndustryRealEstate, "United States", "Hannah Brooks", "hbrooks@keystonerealty.com",
			models.LeadStatusActive, models.StageQualification, 63, day(2024, 1, 18)),
	}
	leads[0].EstimatedRevenue = ptr(420000.0)
	leads[0].Website = "https://northwind.io"
	leads[1].EstimatedRevenue = ptr(1250000.0)
	leads[1].ExpectedCloseDate = ptr(day(2024, 3, 31))

	clients := []models.Client{
		{
			ID:             "client-1",
			CompanyName:    "Acme Global Trading",
			Industry:       "Finance",
			Country:        "United States",
			City:           "New York",
			Email:          "compliance@acmeglobal.com",
			LifecycleStage: models.LifecycleActive,
			Status:         models.ClientStatusActive,
			LifecycleHistory: []models.LifecycleEntry{
				{Stage: models.LifecycleOnboarding, StartDate: day(2023, 12, 1), EndDate: ptr(day(2024, 1, 10)), Notes: "Client onboarding initiated"},
				{Stage: models.LifecycleActive, StartDate: day(2024, 1, 10), Notes: "KYC complete"},
			},
			AssignedRM:          "emp-004",
			AssignedRMName:      "David Rodriguez",
			AssignedOfficer:     "emp-001",
			AssignedOfficerName: "Sarah Mitchell",
			RiskLevel:           models.RiskLow,
			RiskAssessment: models.RiskAssessment{
				OverallScore:       28,
				LastAssessmentDate: day(2024, 1, 10),
				NextReviewDate:     day(2024, 4, 9),
				Factors: []models.RiskFactor{
					{Category: "Geography", Description: "Low-risk jurisdiction", Impact: "low", Score: 20},
				},
				AssessedBy: "Emily Thompson",
				Notes:      "Standard due diligence",
			},
			Documents:           []string{"doc-01", "doc-02", "doc-03"},
			RequiredDocuments:   append([]models.DocumentType(nil), DefaultRequiredDocuments...),
			CreatedAt:           day(2023, 12, 1),
			UpdatedAt:           day(2024, 1, 10),
			LastContactDate:     day(2024, 1, 16),
			OnboardingStartDate: day(2023, 12, 1),
		},
		{
			ID:             "client-2",
			CompanyName:    "Blue Harbor Logistics",
			Industry:       "Manufacturing",
			Country:        "Netherlands",
			City:           "Rotterdam",
			Email:          "finance@blueharbor.nl",
			LifecycleStage: models.LifecycleOnboarding,
			Status:         models.ClientStatusActive,
			LifecycleHistory: []models.LifecycleEntry{
				{Stage: models.LifecycleOnboarding, StartDate: day(2024, 1, 12), Notes: "Client onboarding initiated"},
			},
			AssignedRM:          "emp-004",
			AssignedRMName:      "David Rodriguez",
			AssignedOfficer:     "emp-002",
			AssignedOfficerName: "Michael Chen",
			RiskLevel:           models.RiskMedium,
			RiskAssessment: models.RiskAssessment{
				OverallScore:       50,
				LastAssessmentDate: day(2024, 1, 12),
				NextReviewDate:     day(2024, 4, 11),
				Factors:            []models.RiskFactor{},
				AssessedBy:         "System",
				Notes:              "Initial risk assessment pending",
			},
			Documents:           []string{"doc-04", "doc-05"},
			RequiredDocuments:   append([]models.DocumentType(nil), DefaultRequiredDocuments...),
			CreatedAt:           day(2024, 1, 12),
			UpdatedAt:           day(2024, 1, 12),
			LastContactDate:     day(2024, 1, 12),
			OnboardingStartDate: day(2024, 1, 12),
		},
	}

	doc := func(id, clientID string, typ models.DocumentType, name string, status models.DocumentStatus, uploaded time.Time) models.Document {
		return models.Document{
			ID:             id,
			ClientID:       clientID,
			Type:           typ,
			Name:           name,
			FileName:       name,
			FileSize:       245760,
			MimeType:       "application/pdf",
			Status:         status,
			UploadedBy:     clientID + "-user",
			UploadedByName: "Client Portal",
			UploadedAt:     uploaded,
			URL:            "/files/" + id + ".pdf",
			Annotations:    []models.Annotation{},
			Comments:       []models.DocumentComment{},
			IsRequired:     typ != models.DocOther,
			Version:        1,
		}
	}
	documents := []models.Document{
		doc("doc-01", "client-1", models.DocIncorporationCertificate, "Certificate of Incorporation.pdf", models.DocStatusApproved, day(2023, 12, 4)),
		doc("doc-02", "client-1", models.DocProofOfAddress, "Utility Bill December.pdf", models.DocStatusApproved, day(2023, 12, 6)),
		doc("doc-03", "client-1", models.DocIdentification, "Director Passport.pdf", models.DocStatusApproved, day(2023, 12, 6)),
		doc("doc-04", "client-2", models.DocIncorporationCertificate, "KvK Extract.pdf", models.DocStatusUnderReview, day(2024, 1, 14)),
		doc("doc-05", "client-2", models.DocFinancialStatement, "Annual Accounts 2023.pdf", models.DocStatusUploaded, day(2024, 1, 15)),
		doc("doc-06", "client-2", models.DocProofOfAddress, "Proof of Address.pdf", models.DocStatusPendingUpload, time.Time{}),
	}
	for _, i := range []int{0, 1, 2} {
		documents[i].ReviewedBy = "emp-001"
		documents[i].ReviewedByName = "Sarah Mitchell"
		documents[i].ReviewedAt = ptr(day(2024, 1, 9))
	}

	conversations := []models.Conversation{
		{
			ID:      "conv-1",
			Subject: "Onboarding documents",
			Participants: []models.Participant{
				{ID: "emp-001", Name: "Sarah Mitchell", Type: models.SenderEmployee},
				{ID: "client-1-user", Name: "John Carter", Type: models.SenderClient},
			},
			EntityID:   "client-1",
			EntityType: models.EntityClient,
		},
		{
			ID:      "conv-2",
			Subject: "Vendor due diligence questionnaire",
			Participants: []models.Participant{
				{ID: "emp-003", Name: "Rachel Chen", Type: models.SenderEmployee},
				{ID: "vendor-1-user", Name: "Sofia Alvarez", Type: models.SenderVendor},
			},
			EntityID:   "vendor-1",
			EntityType: models.EntityVendor,
		},
		{
			ID:      "conv-3",
			Subject: "Financial statements",
			Participants: []models.Participant{
				{ID: "emp-002", Name: "Michael Chen", Type: models.SenderEmployee},
				{ID: "client-2-user", Name: "Daan de Vries", Type: models.SenderClient},
			},
			EntityID:   "client-2",
			EntityType: models.EntityClient,
		},
	}

	msg := func(id, conv, senderID, senderName string, senderType models.SenderType, content string, at time.Time, read bool) models.Message {
		m := models.Message{
			ID:             id,
			ConversationID: conv,
			SenderID:       senderID,
			SenderName:     senderName,
			SenderType:     senderType,
			Content:        content,
			Type:           models.MessageTypeText,
			Timestamp:      at,
			Attachments:    []models.Attachment{},
			Read:           read,
		}
		if read {
			m.ReadAt = ptr(at.Add(time.Hour))
		}
		return m
	}
	messages := []models.Message{
		msg("msg-01", "conv-1", "emp-001", "Sarah Mitchell", models.SenderEmployee,
			"Welcome aboard! Please upload your incorporation certificate and proof of address.", day(2023, 12, 2), true),
		msg("msg-02", "conv-1", "client-1-user", "John Carter", models.SenderClient,
			"Thanks Sarah, both documents are now in the portal.", day(2023, 12, 6), true),
		msg("msg-03", "conv-2", "vendor-1-user", "Sofia Alvarez", models.SenderVendor,
			"We have completed the questionnaire. Could you confirm whether the ISO certificate is also required?", day(2024, 1, 16), false),
		msg("msg-04", "conv-3", "emp-002", "Michael Chen", models.SenderEmployee,
			"Could you share your audited 2023 accounts?", day(2024, 1, 13), true),
		msg("msg-05", "conv-3", "client-2-user", "Daan de Vries", models.SenderClient,
			"Uploaded just now.", day(2024, 1, 15), false),
		msg("msg-06", "conv-3", "client-2-user", "Daan de Vries", models.SenderClient,
			"Proof of address will follow next week.", day(2024, 1, 15).Add(5*time.Minute), false),
	}
	for i := range conversations {
		for _, m := range messages {
			if m.ConversationID == conversations[i].ID && m.Timestamp.After(conversations[i].LastMessageAt) {
				conversations[i].LastMessageAt = m.Timestamp
			}
		}
	}

	return &Fixtures{
		Leads:         leads,
		Clients:       clients,
		Documents:     documents,
		Conversations: conversations,
		Messages:      messages,
	}
}

package core

import (
	"context"
	"fmt"
	"time"

	"github.com/stampedhq/onboard/internal/latency"
	"github.com/stampedhq/onboard/internal/storage"
	"github.com/stampedhq/onboard/pkg/models"
)

// riskReviewInterval is how far out a new client's first risk review is set.
const riskReviewInterval = 90 * 24 * time.Hour

// DefaultRequiredDocuments lists the documents every new client must supply.
var DefaultRequiredDocuments = []models.DocumentType{
	models.DocIncorporationCertificate,
	models.DocProofOfAddress,
	models.DocIdentification,
}

var lifecycleStages = map[models.LifecycleStage]bool{
	models.LifecycleOnboarding:  true,
	models.LifecycleActive:      true,
	models.LifecycleUnderReview: true,
	models.LifecycleSuspended:   true,
	models.LifecycleOffboarded:  true,
}

func cloneClient(c models.Client) models.Client {
	out := c
	out.LifecycleHistory = append([]models.LifecycleEntry(nil), c.LifecycleHistory...)
	out.RiskAssessment.Factors = append([]models.RiskFactor(nil), c.RiskAssessment.Factors...)
	out.Documents = append([]string(nil), c.Documents...)
	out.RequiredDocuments = append([]models.DocumentType(nil), c.RequiredDocuments...)
	return out
}

func (r *repository) listClients(ctx context.Context, keep func(models.Client) bool) ([]models.Client, error) {
	if err := r.latency.Wait(ctx, latency.Read); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Client{}
	for _, c := range r.clients {
		if keep == nil || keep(c) {
			out = append(out, cloneClient(c))
		}
	}
	return out, nil
}

func (r *repository) GetClients(ctx context.Context) ([]models.Client, error) {
	return r.listClients(ctx, nil)
}

func (r *repository) GetClientByID(ctx context.Context, id string) (*models.Client, error) {
	if err := r.latency.Wait(ctx, latency.Read); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.clientIndexLocked(id); i >= 0 {
		c := cloneClient(r.clients[i])
		return &c, nil
	}
	return nil, fmt.Errorf("client %s: %w", id, ErrNotFound)
}

func (r *repository) GetClientsByLifecycleStage(ctx context.Context, stage models.LifecycleStage) ([]models.Client, error) {
	return r.listClients(ctx, func(c models.Client) bool { return c.LifecycleStage == stage })
}

func (r *repository) GetClientsByStatus(ctx context.Context, status models.ClientStatus) ([]models.Client, error) {
	return r.listClients(ctx, func(c models.Client) bool { return c.Status == status })
}

// CreateClient starts a client in onboarding with a pending risk assessment
// due for review in 90 days.
func (r *repository) CreateClient(ctx context.Context, in models.ClientInput) (*models.Client, error) {
	if err := r.latency.Wait(ctx, latency.Default); err != nil {
		return nil, err
	}
	now := r.now().UTC()
	c := models.Client{
		ID:             r.newID("client"),
		CompanyName:    in.CompanyName,
		Industry:       in.Industry,
		Country:        in.Country,
		City:           in.City,
		Address:        in.Address,
		Phone:          in.Phone,
		Email:          in.Email,
		Website:        in.Website,
		LifecycleStage: models.LifecycleOnboarding,
		Status:         models.ClientStatusActive,
		LifecycleHistory: []models.LifecycleEntry{{
			Stage:     models.LifecycleOnboarding,
			StartDate: now,
			Notes:     "Client onboarding initiated",
		}},
		AssignedRM:          orDefault(in.AssignedRM, defaultAssigneeID),
		AssignedRMName:      orDefault(in.AssignedRMName, defaultPerformedBy),
		AssignedOfficer:     orDefault(in.AssignedOfficer, "emp-002"),
		AssignedOfficerName: orDefault(in.AssignedOfficerName, "Compliance Officer"),
		RiskLevel:           models.RiskMedium,
		RiskAssessment: models.RiskAssessment{
			OverallScore:       50,
			LastAssessmentDate: now,
			NextReviewDate:     now.Add(riskReviewInterval),
			Factors:            []models.RiskFactor{},
			AssessedBy:         "System",
			Notes:              "Initial risk assessment pending",
		},
		Documents:           []string{},
		RequiredDocuments:   append([]models.DocumentType(nil), DefaultRequiredDocuments...),
		CreatedAt:           now,
		UpdatedAt:           now,
		LastContactDate:     now,
		OnboardingStartDate: now,
		AnnualRevenue:       in.AnnualRevenue,
		NumberOfEmployees:   in.NumberOfEmployees,
		PrimaryContact:      in.PrimaryContact,
		Notes:               in.Notes,
	}

	r.mu.Lock()
	r.clients = append([]models.Client{c}, r.clients...)
	persist(r, storage.KeyClients, r.clients)
	r.mu.Unlock()

	r.emitDataUpdated(storage.KeyClients, c.ID, "created")
	r.logger.Info().Str("client_id", c.ID).Str("company", c.CompanyName).Msg("client created")
	out := cloneClient(c)
	return &out, nil
}

// TransitionClientLifecycle moves a client to stage, closing the current
// history entry and opening a new one. Offboarded clients cannot move.
func (r *repository) TransitionClientLifecycle(ctx context.Context, id string, stage models.LifecycleStage, notes string) (*models.Client, error) {
	if !lifecycleStages[stage] {
		return nil, fmt.Errorf("moving client %s: unknown lifecycle stage %q: %w", id, stage, ErrValidation)
	}
	if err := r.latency.Wait(ctx, latency.Default); err != nil {
		return nil, err
	}

	r.mu.Lock()
	i := r.clientIndexLocked(id)
	if i < 0 {
		r.mu.Unlock()
		return nil, fmt.Errorf("moving client %s: %w", id, ErrNotFound)
	}
	c := cloneClient(r.clients[i])
	if c.LifecycleStage == stage || c.LifecycleStage == models.LifecycleOffboarded {
		r.mu.Unlock()
		return nil, fmt.Errorf("moving client %s from %s to %s: %w", id, c.LifecycleStage, stage, ErrInvalidTransition)
	}

	now := r.now().UTC()
	if n := len(c.LifecycleHistory); n > 0 && c.LifecycleHistory[n-1].EndDate == nil {
		end := now
		c.LifecycleHistory[n-1].EndDate = &end
	}
	c.LifecycleHistory = append(c.LifecycleHistory, models.LifecycleEntry{Stage: stage, StartDate: now, Notes: notes})
	c.LifecycleStage = stage
	c.Status = models.ClientStatusActive
	if stage == models.LifecycleOffboarded {
		c.Status = models.ClientStatusInactive
	}
	c.UpdatedAt = now
	if err := c.Validate(); err != nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("moving client %s: %v: %w", id, err, ErrValidation)
	}
	r.clients[i] = c
	persist(r, storage.KeyClients, r.clients)
	r.mu.Unlock()

	r.emitDataUpdated(storage.KeyClients, id, "updated")
	r.logger.Info().Str("client_id", id).Str("stage", string(stage)).Msg("client lifecycle changed")
	out := cloneClient(c)
	return &out, nil
}

func (r *repository) clientIndexLocked(id string) int {
	for i := range r.clients {
		if r.clients[i].ID == id {
			return i
		}
	}
	return -1
}

package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/stampedhq/onboard/internal/latency"
	"github.com/stampedhq/onboard/internal/storage"
	"github.com/stampedhq/onboard/pkg/models"
)

const (
	defaultAIScore     = 50
	defaultAssigneeID  = "emp-001"
	defaultPerformedBy = "Current User"
)

func cloneLeads(in []models.Lead, keep func(models.Lead) bool) []models.Lead {
	out := []models.Lead{}
	for _, l := range in {
		if keep == nil || keep(l) {
			out = append(out, l.Clone())
		}
	}
	return out
}

func (r *repository) listLeads(ctx context.Context, keep func(models.Lead) bool) ([]models.Lead, error) {
	if err := r.latency.Wait(ctx, latency.Read); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneLeads(r.leads, keep), nil
}

func (r *repository) GetLeads(ctx context.Context) ([]models.Lead, error) {
	return r.listLeads(ctx, nil)
}

func (r *repository) GetLeadByID(ctx context.Context, id string) (*models.Lead, error) {
	if err := r.latency.Wait(ctx, latency.Read); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.leadIndexLocked(id); i >= 0 {
		l := r.leads[i].Clone()
		return &l, nil
	}
	return nil, fmt.Errorf("lead %s: %w", id, ErrNotFound)
}

func (r *repository) GetLeadsByStage(ctx context.Context, stage models.PipelineStage) ([]models.Lead, error) {
	return r.listLeads(ctx, func(l models.Lead) bool { return l.PipelineStage == stage })
}

func (r *repository) GetLeadsByAssignee(ctx context.Context, assigneeID string) ([]models.Lead, error) {
	return r.listLeads(ctx, func(l models.Lead) bool { return l.AssignedTo == assigneeID })
}

// SearchLeads matches query case-insensitively against company name,
// contact name and contact email. An empty query matches every lead.
func (r *repository) SearchLeads(ctx context.Context, query string) ([]models.Lead, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	return r.listLeads(ctx, func(l models.Lead) bool {
		return strings.Contains(strings.ToLower(l.CompanyName), q) ||
			strings.Contains(strings.ToLower(l.ContactName), q) ||
			strings.Contains(strings.ToLower(l.ContactEmail), q)
	})
}

func (r *repository) FilterLeads(ctx context.Context, filter models.LeadFilter) ([]models.Lead, error) {
	return r.listLeads(ctx, func(l models.Lead) bool { return MatchesLeadFilter(l, filter) })
}

// MatchesLeadFilter reports whether l satisfies every set criterion of f.
func MatchesLeadFilter(l models.Lead, f models.LeadFilter) bool {
	if f.Stage != "" && l.PipelineStage != f.Stage {
		return false
	}
	if f.Industry != "" && l.Industry != f.Industry {
		return false
	}
	if f.Country != "" && l.Country != f.Country {
		return false
	}
	if f.MinScore != nil && l.AIScore < *f.MinScore {
		return false
	}
	if f.MaxScore != nil && l.AIScore > *f.MaxScore {
		return false
	}
	return true
}

func (r *repository) CreateLead(ctx context.Context, in models.LeadInput) (*models.Lead, error) {
	score, breakdown, err := resolveAIScore(defaultAIScore, defaultBreakdown(), in.AIScore, in.AIScoreBreakdown)
	if err != nil {
		return nil, fmt.Errorf("creating lead: %w", err)
	}
	stage := in.PipelineStage
	if stage == "" {
		stage = models.StageProspecting
	}
	if stage.Rank() < 0 {
		return nil, fmt.Errorf("creating lead: unknown pipeline stage %q: %w", stage, ErrValidation)
	}
	if err := r.latency.Wait(ctx, latency.Default); err != nil {
		return nil, err
	}

	now := r.now().UTC()
	lead := models.Lead{
		ID:               r.newID("lead"),
		CompanyName:      in.CompanyName,
		Industry:         orDefault(in.Industry, models.IndustryOther),
		Country:          in.Country,
		ContactName:      in.ContactName,
		ContactEmail:     in.ContactEmail,
		ContactPhone:     in.ContactPhone,
		Status:           models.LeadStatusActive,
		PipelineStage:    stage,
		AIScore:          score,
		AIScoreBreakdown: breakdown,
		CreatedAt:        now,
		UpdatedAt:        now,
		AssignedTo:       orDefault(in.AssignedTo, defaultAssigneeID),
		AssignedToName:   orDefault(in.AssignedToName, defaultPerformedBy),
		Notes:            in.Notes,
		Activities: []models.LeadActivity{{
			ID:          r.newID("act"),
			Type:        "note",
			Description: "Lead added to system",
			Timestamp:   now,
			PerformedBy: defaultPerformedBy,
		}},
		EstimatedRevenue:  in.EstimatedRevenue,
		ExpectedCloseDate: in.ExpectedCloseDate,
		CompanySize:       in.CompanySize,
		Website:           in.Website,
		LinkedIn:          in.LinkedIn,
	}

	r.mu.Lock()
	r.leads = append([]models.Lead{lead}, r.leads...)
	persist(r, storage.KeyLeads, r.leads)
	r.mu.Unlock()

	r.emitDataUpdated(storage.KeyLeads, lead.ID, "created")
	r.logger.Info().Str("lead_id", lead.ID).Str("company", lead.CompanyName).Msg("lead created")
	out := lead.Clone()
	return &out, nil
}

// UpdateLead merges the non-nil fields of patch over the stored lead. An
// unknown id leaves the collection untouched and returns ErrNotFound.
func (r *repository) UpdateLead(ctx context.Context, id string, patch models.LeadPatch) (*models.Lead, error) {
	if patch.PipelineStage != nil && patch.PipelineStage.Rank() < 0 {
		return nil, fmt.Errorf("updating lead %s: unknown pipeline stage %q: %w", id, *patch.PipelineStage, ErrValidation)
	}
	if err := r.latency.Wait(ctx, latency.Default); err != nil {
		return nil, err
	}

	r.mu.Lock()
	i := r.leadIndexLocked(id)
	if i < 0 {
		r.mu.Unlock()
		return nil, fmt.Errorf("updating lead %s: %w", id, ErrNotFound)
	}
	lead := r.leads[i].Clone()
	score, breakdown, err := resolveAIScore(lead.AIScore, lead.AIScoreBreakdown, patch.AIScore, patch.AIScoreBreakdown)
	if err != nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("updating lead %s: %w", id, err)
	}
	applyLeadPatch(&lead, patch)
	lead.AIScore, lead.AIScoreBreakdown = score, breakdown
	lead.UpdatedAt = r.now().UTC()
	r.leads[i] = lead
	persist(r, storage.KeyLeads, r.leads)
	r.mu.Unlock()

	r.emitDataUpdated(storage.KeyLeads, id, "updated")
	out := lead.Clone()
	return &out, nil
}

// AddLeadActivity appends an entry to the lead's activity trail.
func (r *repository) AddLeadActivity(ctx context.Context, id string, activity models.LeadActivity) (*models.Lead, error) {
	if strings.TrimSpace(activity.Description) == "" {
		return nil, fmt.Errorf("adding activity to lead %s: description is required: %w", id, ErrValidation)
	}
	if err := r.latency.Wait(ctx, latency.Default); err != nil {
		return nil, err
	}
	now := r.now().UTC()
	if activity.ID == "" {
		activity.ID = r.newID("act")
	}
	if activity.Type == "" {
		activity.Type = "note"
	}
	if activity.Timestamp.IsZero() {
		activity.Timestamp = now
	}
	if activity.PerformedBy == "" {
		activity.PerformedBy = defaultPerformedBy
	}

	r.mu.Lock()
	i := r.leadIndexLocked(id)
	if i < 0 {
		r.mu.Unlock()
		return nil, fmt.Errorf("adding activity to lead %s: %w", id, ErrNotFound)
	}
	lead := r.leads[i].Clone()
	lead.Activities = append(lead.Activities, activity)
	lead.UpdatedAt = now
	r.leads[i] = lead
	persist(r, storage.KeyLeads, r.leads)
	r.mu.Unlock()

	r.emitDataUpdated(storage.KeyLeads, id, "updated")
	out := lead.Clone()
	return &out, nil
}

func (r *repository) leadIndexLocked(id string) int {
	for i := range r.leads {
		if r.leads[i].ID == id {
			return i
		}
	}
	return -1
}

func applyLeadPatch(l *models.Lead, p models.LeadPatch) {
	if p.CompanyName != nil {
		l.CompanyName = *p.CompanyName
	}
	if p.Industry != nil {
		l.Industry = *p.Industry
	}
	if p.Country != nil {
		l.Country = *p.Country
	}
	if p.ContactName != nil {
		l.ContactName = *p.ContactName
	}
	if p.ContactEmail != nil {
		l.ContactEmail = *p.ContactEmail
	}
	if p.ContactPhone != nil {
		l.ContactPhone = *p.ContactPhone
	}
	if p.Status != nil {
		l.Status = *p.Status
	}
	if p.PipelineStage != nil {
		l.PipelineStage = *p.PipelineStage
	}
	if p.AssignedTo != nil {
		l.AssignedTo = *p.AssignedTo
	}
	if p.AssignedToName != nil {
		l.AssignedToName = *p.AssignedToName
	}
	if p.Notes != nil {
		l.Notes = *p.Notes
	}
	if p.EstimatedRevenue != nil {
		v := *p.EstimatedRevenue
		l.EstimatedRevenue = &v
	}
	if p.ExpectedCloseDate != nil {
		v := *p.ExpectedCloseDate
		l.ExpectedCloseDate = &v
	}
	if p.CompanySize != nil {
		l.CompanySize = *p.CompanySize
	}
	if p.Website != nil {
		l.Website = *p.Website
	}
	if p.LinkedIn != nil {
		l.LinkedIn = *p.LinkedIn
	}
}

func defaultBreakdown() models.AIScoreBreakdown {
	return models.AIScoreBreakdown{
		CompanySize:    defaultAIScore,
		Industry:       defaultAIScore,
		Geography:      defaultAIScore,
		ContactQuality: defaultAIScore,
		Overall:        defaultAIScore,
	}
}

// resolveAIScore keeps the top-level score and the breakdown's overall in
// step. Supplying one side moves the other; supplying both with different
// values is rejected.
func resolveAIScore(curScore int, cur models.AIScoreBreakdown, score *int, breakdown *models.AIScoreBreakdown) (int, models.AIScoreBreakdown, error) {
	switch {
	case score != nil && breakdown != nil:
		if *score != breakdown.Overall {
			return 0, models.AIScoreBreakdown{}, fmt.Errorf("ai score %d does not match breakdown overall %d: %w", *score, breakdown.Overall, ErrValidation)
		}
		curScore, cur = *score, *breakdown
	case score != nil:
		curScore = *score
		cur.Overall = *score
	case breakdown != nil:
		cur = *breakdown
		curScore = breakdown.Overall
	}
	if curScore < 0 || curScore > 100 {
		return 0, models.AIScoreBreakdown{}, fmt.Errorf("ai score %d out of range 0-100: %w", curScore, ErrValidation)
	}
	return curScore, cur, nil
}

func orDefault[T ~string](v, def T) T {
	if v == "" {
		return def
	}
	return v
}

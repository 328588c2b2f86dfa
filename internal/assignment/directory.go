// Package assignment answers "who is responsible for this client or vendor"
// from a static staff roster and a table of officer assignments.
package assignment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stampedhq/onboard/internal/latency"
	"github.com/stampedhq/onboard/internal/storage"
	"github.com/stampedhq/onboard/pkg/models"
)

// ErrNotAssigned is returned when an entity has no assignment or its officer
// is not on the roster.
var ErrNotAssigned = errors.New("no officer assigned")

// ErrUnknownEmployee is returned by GetEmployeeByID for ids not on the roster.
var ErrUnknownEmployee = errors.New("unknown employee")

// Directory is the single source of truth for entity-to-staff assignments.
// Every entity has at most one assignment; assigning again replaces it.
type Directory interface {
	GetAssignedOfficer(ctx context.Context, entityID string, entityType models.EntityType) (*models.Employee, error)
	GetAssignedComplianceOfficer(ctx context.Context, clientID string) (*models.Employee, error)
	GetAssignedComplianceOfficerForVendor(ctx context.Context, vendorID string) (*models.Employee, error)
	GetOfficersByRole(ctx context.Context, role models.EmployeeRole) ([]models.Employee, error)
	GetAllComplianceOfficers(ctx context.Context) ([]models.Employee, error)
	GetEmployeeByID(ctx context.Context, employeeID string) (*models.Employee, error)
	AssignOfficerToClient(ctx context.Context, clientID, officerID string) error
	AssignOfficerToVendor(ctx context.Context, vendorID, officerID string) error
	GetAssignmentsForEmployee(ctx context.Context, employeeID string) ([]models.Assignment, error)
	Assignments() []models.Assignment
}

// Config holds the collaborators of a Directory. Zero values are replaced
// with no-persistence, no-delay defaults.
type Config struct {
	Store   *storage.CollectionStore
	Latency latency.Simulator
	Clock   func() time.Time
	Logger  zerolog.Logger
}

type directory struct {
	mu          sync.Mutex
	roster      []models.Employee
	assignments []models.Assignment
	store       *storage.CollectionStore
	latency     latency.Simulator
	now         func() time.Time
	logger      zerolog.Logger
}

// NewDirectory creates a Directory seeded with the stock roster. Assignments
// are loaded from the collection store when one holds them, otherwise the
// seed assignments are used.
func NewDirectory(cfg Config) Directory {
	d := &directory{
		roster:  Roster(),
		store:   cfg.Store,
		latency: cfg.Latency,
		now:     cfg.Clock,
		logger:  cfg.Logger,
	}
	if d.latency == nil {
		d.latency = latency.None()
	}
	if d.now == nil {
		d.now = time.Now
	}
	d.assignments = storage.Load(d.store, storage.KeyAssignments, SeedAssignments())
	return d
}

func (d *directory) findEmployee(id string) (*models.Employee, bool) {
	for _, e := range d.roster {
		if e.ID == id {
			emp := e
			return &emp, true
		}
	}
	return nil, false
}

func (d *directory) GetAssignedOfficer(ctx context.Context, entityID string, entityType models.EntityType) (*models.Employee, error) {
	if err := d.latency.Wait(ctx, latency.Quick); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, a := range d.assignments {
		if !a.Matches(entityID, entityType) {
			continue
		}
		if emp, ok := d.findEmployee(a.ComplianceOfficerID); ok {
			return emp, nil
		}
		return nil, fmt.Errorf("%s %s: officer %s: %w", entityType, entityID, a.ComplianceOfficerID, ErrNotAssigned)
	}
	return nil, fmt.Errorf("%s %s: %w", entityType, entityID, ErrNotAssigned)
}

func (d *directory) GetAssignedComplianceOfficer(ctx context.Context, clientID string) (*models.Employee, error) {
	return d.GetAssignedOfficer(ctx, clientID, models.EntityClient)
}

func (d *directory) GetAssignedComplianceOfficerForVendor(ctx context.Context, vendorID string) (*models.Employee, error) {
	return d.GetAssignedOfficer(ctx, vendorID, models.EntityVendor)
}

func (d *directory) GetOfficersByRole(ctx context.Context, role models.EmployeeRole) ([]models.Employee, error) {
	if err := d.latency.Wait(ctx, latency.Quick); err != nil {
		return nil, err
	}
	out := []models.Employee{}
	for _, e := range d.roster {
		if e.Role == role {
			out = append(out, e)
		}
	}
	return out, nil
}

func (d *directory) GetAllComplianceOfficers(ctx context.Context) ([]models.Employee, error) {
	return d.GetOfficersByRole(ctx, models.RoleComplianceOfficer)
}

func (d *directory) GetEmployeeByID(ctx context.Context, employeeID string) (*models.Employee, error) {
	if err := d.latency.Wait(ctx, latency.Quick); err != nil {
		return nil, err
	}
	if emp, ok := d.findEmployee(employeeID); ok {
		return emp, nil
	}
	return nil, fmt.Errorf("employee %s: %w", employeeID, ErrUnknownEmployee)
}

func (d *directory) AssignOfficerToClient(ctx context.Context, clientID, officerID string) error {
	return d.assign(ctx, models.Assignment{ClientID: clientID, ComplianceOfficerID: officerID})
}

func (d *directory) AssignOfficerToVendor(ctx context.Context, vendorID, officerID string) error {
	return d.assign(ctx, models.Assignment{VendorID: vendorID, ComplianceOfficerID: officerID})
}

// assign upserts next in place. A client's relationship manager survives an
// officer change.
func (d *directory) assign(ctx context.Context, next models.Assignment) error {
	if next.EntityID() == "" {
		return fmt.Errorf("assigning officer: %s id must not be empty", next.EntityType())
	}
	if next.ComplianceOfficerID == "" {
		return fmt.Errorf("assigning officer to %s: officer id must not be empty", next.EntityID())
	}
	if err := d.latency.Wait(ctx, latency.Quick); err != nil {
		return err
	}
	next.AssignedAt = d.now().UTC().Format("2006-01-02")

	d.mu.Lock()
	replaced := false
	for i, a := range d.assignments {
		if a.Matches(next.EntityID(), next.EntityType()) {
			next.RelationshipManagerID = a.RelationshipManagerID
			d.assignments[i] = next
			replaced = true
			break
		}
	}
	if !replaced {
		d.assignments = append(d.assignments, next)
	}
	snapshot := append([]models.Assignment(nil), d.assignments...)
	d.mu.Unlock()

	if err := storage.Save(d.store, storage.KeyAssignments, snapshot); err != nil {
		d.logger.Warn().Err(err).Msg("persisting assignments failed")
	}
	d.logger.Debug().
		Str("entity_id", next.EntityID()).
		Str("entity_type", string(next.EntityType())).
		Str("officer_id", next.ComplianceOfficerID).
		Bool("replaced", replaced).
		Msg("officer assigned")
	return nil
}

func (d *directory) GetAssignmentsForEmployee(ctx context.Context, employeeID string) ([]models.Assignment, error) {
	if err := d.latency.Wait(ctx, latency.Quick); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	out := []models.Assignment{}
	for _, a := range d.assignments {
		if a.ComplianceOfficerID == employeeID || (employeeID != "" && a.RelationshipManagerID == employeeID) {
			out = append(out, a)
		}
	}
	return out, nil
}

// Assignments returns a copy of every assignment in table order.
func (d *directory) Assignments() []models.Assignment {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.Assignment(nil), d.assignments...)
}

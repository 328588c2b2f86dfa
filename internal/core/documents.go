package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/stampedhq/onboard/internal/latency"
	"github.com/stampedhq/onboard/internal/realtime"
	"github.com/stampedhq/onboard/internal/storage"
	"github.com/stampedhq/onboard/pkg/models"
)

func cloneDocument(d models.Document) models.Document {
	out := d
	out.Annotations = append([]models.Annotation(nil), d.Annotations...)
	out.Comments = append([]models.DocumentComment(nil), d.Comments...)
	if d.ReviewedAt != nil {
		v := *d.ReviewedAt
		out.ReviewedAt = &v
	}
	if d.ExpiresAt != nil {
		v := *d.ExpiresAt
		out.ExpiresAt = &v
	}
	return out
}

func (r *repository) documentsLocked(keep func(models.Document) bool) []models.Document {
	out := []models.Document{}
	for _, d := range r.documents {
		if keep == nil || keep(d) {
			out = append(out, cloneDocument(d))
		}
	}
	return out
}

func (r *repository) listDocuments(ctx context.Context, keep func(models.Document) bool) ([]models.Document, error) {
	if err := r.latency.Wait(ctx, latency.Read); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.documentsLocked(keep), nil
}

func (r *repository) GetDocuments(ctx context.Context) ([]models.Document, error) {
	return r.listDocuments(ctx, nil)
}

func (r *repository) GetDocumentByID(ctx context.Context, id string) (*models.Document, error) {
	if err := r.latency.Wait(ctx, latency.Read); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.documentIndexLocked(id); i >= 0 {
		d := cloneDocument(r.documents[i])
		return &d, nil
	}
	return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
}

func (r *repository) GetDocumentsByClientID(ctx context.Context, clientID string) ([]models.Document, error) {
	return r.listDocuments(ctx, func(d models.Document) bool { return d.ClientID == clientID })
}

func (r *repository) GetDocumentsByStatus(ctx context.Context, status models.DocumentStatus) ([]models.Document, error) {
	return r.listDocuments(ctx, func(d models.Document) bool { return d.Status == status })
}

// UploadDocument stores a new document in the uploaded state, announces it
// on the bus and notifies the owning client's compliance officer. A failed
// notification does not fail the upload.
func (r *repository) UploadDocument(ctx context.Context, in models.DocumentInput) (*models.Document, error) {
	if err := r.latency.Wait(ctx, latency.Upload); err != nil {
		return nil, err
	}
	now := r.now().UTC()
	doc := models.Document{
		ID:             r.newID("doc"),
		ClientID:       in.ClientID,
		Type:           orDefault(in.Type, models.DocOther),
		Name:           in.Name,
		FileName:       in.FileName,
		FileSize:       in.FileSize,
		MimeType:       orDefault(in.MimeType, "application/pdf"),
		Status:         models.DocStatusUploaded,
		UploadedBy:     in.UploadedBy,
		UploadedByName: in.UploadedByName,
		UploadedAt:     now,
		URL:            in.URL,
		ThumbnailURL:   in.ThumbnailURL,
		Annotations:    []models.Annotation{},
		Comments:       []models.DocumentComment{},
		IsRequired:     in.IsRequired,
		Version:        1,
		ExpiresAt:      in.ExpiresAt,
	}
	if doc.FileName == "" {
		doc.FileName = doc.Name
	}

	r.mu.Lock()
	r.documents = append(r.documents, doc)
	persist(r, storage.KeyDocuments, r.documents)
	if ci := r.clientIndexLocked(doc.ClientID); ci >= 0 {
		c := cloneClient(r.clients[ci])
		c.Documents = append(c.Documents, doc.ID)
		c.UpdatedAt = now
		r.clients[ci] = c
		persist(r, storage.KeyClients, r.clients)
	}
	siblings := r.documentsLocked(func(d models.Document) bool { return d.ClientID == doc.ClientID })
	r.mu.Unlock()

	r.bus.Publish(realtime.DocumentUploadedPayload{
		DocumentID: doc.ID,
		Document:   cloneDocument(doc),
		EntityID:   doc.ClientID,
		EntityType: models.EntityClient,
		Documents:  siblings,
	})

	uploader := in.UploadedByName
	if uploader == "" {
		uploader = "Client"
	}
	r.notifyOfficer(ctx, doc.ClientID, models.EntityClient, models.NotificationRequest{
		Title:     "New Document Uploaded",
		Message:   fmt.Sprintf("%s uploaded %s - %s", uploader, strings.Replace(string(doc.Type), "_", " ", 1), doc.Name),
		Type:      models.NotificationInfo,
		ActionURL: "/compliance/documents",
		Metadata: models.NotificationMetadata{
			DocumentID:   doc.ID,
			ClientID:     doc.ClientID,
			DocumentType: doc.Type,
		},
	})

	r.logger.Info().Str("document_id", doc.ID).Str("client_id", doc.ClientID).Msg("document uploaded")
	out := cloneDocument(doc)
	return &out, nil
}

// UpdateDocumentStatus moves a document through the review state machine
// and records the reviewer. Reviewer comments are appended to the document.
func (r *repository) UpdateDocumentStatus(ctx context.Context, id string, status models.DocumentStatus, review models.ReviewInput) (*models.Document, error) {
	if err := r.latency.Wait(ctx, latency.Default); err != nil {
		return nil, err
	}

	r.mu.Lock()
	i := r.documentIndexLocked(id)
	if i < 0 {
		r.mu.Unlock()
		return nil, fmt.Errorf("updating document %s: %w", id, ErrNotFound)
	}
	doc := cloneDocument(r.documents[i])
	previous := doc.Status
	if !previous.CanTransitionTo(status) {
		r.mu.Unlock()
		return nil, fmt.Errorf("updating document %s from %s to %s: %w", id, previous, status, ErrInvalidTransition)
	}

	now := r.now().UTC()
	doc.Status = status
	if review.ReviewerID != "" || review.ReviewerName != "" {
		doc.ReviewedBy = review.ReviewerID
		doc.ReviewedByName = review.ReviewerName
		reviewedAt := now
		doc.ReviewedAt = &reviewedAt
	}
	for _, text := range review.Comments {
		if strings.TrimSpace(text) == "" {
			continue
		}
		doc.Comments = append(doc.Comments, models.DocumentComment{
			ID:         r.newID("cmt"),
			AuthorID:   review.ReviewerID,
			AuthorName: review.ReviewerName,
			Text:       text,
			CreatedAt:  now,
		})
	}
	r.documents[i] = doc
	persist(r, storage.KeyDocuments, r.documents)
	siblings := r.documentsLocked(func(d models.Document) bool { return d.ClientID == doc.ClientID })
	r.mu.Unlock()

	r.bus.Publish(realtime.DocumentStatusChangedPayload{
		DocumentID:     doc.ID,
		Document:       cloneDocument(doc),
		PreviousStatus: previous,
		EntityID:       doc.ClientID,
		EntityType:     models.EntityClient,
		Documents:      siblings,
	})
	r.logger.Info().
		Str("document_id", id).
		Str("from", string(previous)).
		Str("to", string(status)).
		Msg("document status changed")
	out := cloneDocument(doc)
	return &out, nil
}

func (r *repository) documentIndexLocked(id string) int {
	for i := range r.documents {
		if r.documents[i].ID == id {
			return i
		}
	}
	return -1
}

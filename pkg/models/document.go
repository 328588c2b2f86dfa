package models

import "time"

// DocumentType identifies what kind of compliance document a file is.
type DocumentType string

const (
	DocIncorporationCertificate DocumentType = "incorporation_certificate"
	DocProofOfAddress           DocumentType = "proof_of_address"
	DocIdentification           DocumentType = "identification"
	DocFinancialStatement       DocumentType = "financial_statement"
	DocTaxForm                  DocumentType = "tax_form"
	DocBankStatement            DocumentType = "bank_statement"
	DocOther                    DocumentType = "other"
)

// DocumentStatus is a state in the document review state machine.
type DocumentStatus string

const (
	DocStatusPendingUpload DocumentStatus = "pending_upload"
	DocStatusUploaded      DocumentStatus = "uploaded"
	DocStatusUnderReview   DocumentStatus = "under_review"
	DocStatusApproved      DocumentStatus = "approved"
	DocStatusRejected      DocumentStatus = "rejected"
	DocStatusExpired       DocumentStatus = "expired"
)

var documentTransitions = map[DocumentStatus][]DocumentStatus{
	DocStatusPendingUpload: {DocStatusUploaded},
	DocStatusUploaded:      {DocStatusUnderReview},
	DocStatusUnderReview:   {DocStatusApproved, DocStatusRejected},
	DocStatusApproved:      {DocStatusExpired},
}

// CanTransitionTo reports whether a document may move from s to next.
func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	for _, allowed := range documentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses s may move to.
func (s DocumentStatus) NextStatuses() []DocumentStatus {
	return documentTransitions[s]
}

// Annotation marks a region of a document page.
type Annotation struct {
	ID        string    `yaml:"id" json:"id"`
	Page      int       `yaml:"page" json:"page"`
	Text      string    `yaml:"text" json:"text"`
	AuthorID  string    `yaml:"author_id" json:"authorId"`
	CreatedAt time.Time `yaml:"created_at" json:"createdAt"`
}

// DocumentComment is a reviewer remark on a document.
type DocumentComment struct {
	ID         string    `yaml:"id" json:"id"`
	AuthorID   string    `yaml:"author_id" json:"authorId"`
	AuthorName string    `yaml:"author_name" json:"authorName"`
	Text       string    `yaml:"text" json:"text"`
	CreatedAt  time.Time `yaml:"created_at" json:"createdAt"`
}

// Document is an uploaded (or requested) compliance document.
type Document struct {
	ID             string            `yaml:"id" json:"id"`
	ClientID       string            `yaml:"client_id" json:"clientId"`
	Type           DocumentType      `yaml:"type" json:"type"`
	Name           string            `yaml:"name" json:"name"`
	FileName       string            `yaml:"file_name" json:"fileName"`
	FileSize       int64             `yaml:"file_size" json:"fileSize"`
	MimeType       string            `yaml:"mime_type" json:"mimeType"`
	Status         DocumentStatus    `yaml:"status" json:"status"`
	UploadedBy     string            `yaml:"uploaded_by" json:"uploadedBy"`
	UploadedByName string            `yaml:"uploaded_by_name" json:"uploadedByName"`
	UploadedAt     time.Time         `yaml:"uploaded_at" json:"uploadedAt"`
	URL            string            `yaml:"url" json:"url"`
	ThumbnailURL   string            `yaml:"thumbnail_url,omitempty" json:"thumbnailUrl,omitempty"`
	Annotations    []Annotation      `yaml:"annotations" json:"annotations"`
	Comments       []DocumentComment `yaml:"comments" json:"comments"`
	IsRequired     bool              `yaml:"is_required" json:"isRequired"`
	Version        int               `yaml:"version" json:"version"`
	ReviewedBy     string            `yaml:"reviewed_by,omitempty" json:"reviewedBy,omitempty"`
	ReviewedByName string            `yaml:"reviewed_by_name,omitempty" json:"reviewedByName,omitempty"`
	ReviewedAt     *time.Time        `yaml:"reviewed_at,omitempty" json:"reviewedAt,omitempty"`
	ExpiresAt      *time.Time        `yaml:"expires_at,omitempty" json:"expiresAt,omitempty"`
}

// DocumentInput carries the caller-supplied fields of an upload.
type DocumentInput struct {
	ClientID       string       `json:"clientId,omitempty"`
	Type           DocumentType `json:"type,omitempty"`
	Name           string       `json:"name,omitempty"`
	FileName       string       `json:"fileName,omitempty"`
	FileSize       int64        `json:"fileSize,omitempty"`
	MimeType       string       `json:"mimeType,omitempty"`
	UploadedBy     string       `json:"uploadedBy,omitempty"`
	UploadedByName string       `json:"uploadedByName,omitempty"`
	URL            string       `json:"url,omitempty"`
	ThumbnailURL   string       `json:"thumbnailUrl,omitempty"`
	IsRequired     bool         `json:"isRequired,omitempty"`
	ExpiresAt      *time.Time   `json:"expiresAt,omitempty"`
}

// ReviewInput carries reviewer details for a document status change.
type ReviewInput struct {
	ReviewerID   string   `json:"reviewerId,omitempty"`
	ReviewerName string   `json:"reviewerName,omitempty"`
	Comments     []string `json:"comments,omitempty"`
}

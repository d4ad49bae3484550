package models

import "time"

// Idea status values. Statuses only ever move forward:
// draft -> submitted -> under_review -> approved_for_final -> accepted|rejected.
const (
	StatusDraft            = "draft"
	StatusSubmitted        = "submitted"
	StatusUnderReview      = "under_review"
	StatusApprovedForFinal = "approved_for_final"
	StatusAccepted         = "accepted"
	StatusRejected         = "rejected"
)

// Categories is the fixed set of idea categories.
var Categories = []string{"HR", "Process", "Technology", "Quality", "Culture", "Other"}

// ValidCategory reports whether the given category is one of the fixed set.
func ValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// ValidStatus reports whether the given value is a known idea status.
func ValidStatus(status string) bool {
	switch status {
	case StatusDraft, StatusSubmitted, StatusUnderReview, StatusApprovedForFinal, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

type Idea struct {
	IdeaID      string  `gorm:"primaryKey;column:idea_id;size:36" json:"idea_id"`
	Title       string  `gorm:"column:title" json:"title"`
	Description string  `gorm:"column:description;type:text" json:"description"`
	Category    string  `gorm:"column:category" json:"category"`
	Status      string  `gorm:"column:status" json:"status"`
	Comment     *string `gorm:"column:comment" json:"comment"`
	CreatedBy   int     `gorm:"column:created_by" json:"created_by"`

	// At most one attachment per idea; all four columns are set together.
	AttachmentFilename  *string `gorm:"column:attachment_filename" json:"attachment_filename,omitempty"`
	AttachmentMimeType  *string `gorm:"column:attachment_mime_type" json:"attachment_mime_type,omitempty"`
	AttachmentSizeBytes *int64  `gorm:"column:attachment_size_bytes" json:"attachment_size_bytes,omitempty"`
	AttachmentPath      *string `gorm:"column:attachment_path" json:"-"`

	// Rubric scores are set together by an admin; TotalScore is the mean
	// rounded to two decimals and is present iff all three are present.
	ImpactScore      *int       `gorm:"column:impact_score" json:"impact_score"`
	FeasibilityScore *int       `gorm:"column:feasibility_score" json:"feasibility_score"`
	InnovationScore  *int       `gorm:"column:innovation_score" json:"innovation_score"`
	TotalScore       *float64   `gorm:"column:total_score" json:"total_score"`
	ScoredBy         *int       `gorm:"column:scored_by" json:"scored_by"`
	ScoredAt         *time.Time `gorm:"column:scored_at" json:"scored_at"`

	CreateAt time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt time.Time `gorm:"column:update_at" json:"update_at"`

	// Relations
	History []EvaluationEntry `gorm:"foreignKey:IdeaID;references:IdeaID" json:"history,omitempty"`
}

func (Idea) TableName() string {
	return "ideas"
}

// HasAttachment reports whether the idea carries attachment metadata.
func (i *Idea) HasAttachment() bool {
	return i.AttachmentFilename != nil
}

// IsScored reports whether the idea has been scored by an admin.
func (i *Idea) IsScored() bool {
	return i.TotalScore != nil
}

// IsTerminal reports whether the idea reached a terminal status.
func (i *Idea) IsTerminal() bool {
	return i.Status == StatusAccepted || i.Status == StatusRejected
}

// EvaluationEntry is one row of an idea's append-only evaluation history.
// Rows are created when an admin performs a status transition and are never
// updated or deleted afterwards.
type EvaluationEntry struct {
	EntryID    int       `gorm:"primaryKey;column:entry_id" json:"entry_id"`
	IdeaID     string    `gorm:"column:idea_id;size:36" json:"idea_id"`
	Status     string    `gorm:"column:status" json:"status"`
	Comment    *string   `gorm:"column:comment" json:"comment"`
	ReviewerID int       `gorm:"column:reviewer_id" json:"reviewer_id"`
	CreateAt   time.Time `gorm:"column:create_at" json:"create_at"`
}

func (EvaluationEntry) TableName() string {
	return "evaluation_history"
}

package services

import (
	"errors"
	"fmt"
	"time"

	"idea-portal-api/models"

	"gorm.io/gorm"
)

// AttachmentMeta is the stored metadata of an idea's single attachment.
type AttachmentMeta struct {
	Filename  string
	MimeType  string
	SizeBytes int64
	Path      string
}

// DraftFields is the replacement payload for an owner editing a draft.
// A nil Attachment keeps the existing attachment metadata untouched.
type DraftFields struct {
	Title       string
	Description string
	Category    string
	Attachment  *AttachmentMeta
}

// TransitionResult carries the idea and the history entry written by one
// committed admin transition.
type TransitionResult struct {
	Idea  models.Idea
	Entry models.EvaluationEntry
}

// IdeaRepository is the durable storage contract consumed by the lifecycle
// engine. Lookups return (nil, nil) when no row matches; conditional writes
// return (nil, nil) when the precondition no longer holds at commit time, so
// a read-validate-write race never produces a second transition from the
// same stale state.
type IdeaRepository interface {
	Create(idea *models.Idea) error
	GetByID(id string) (*models.Idea, error)
	GetByIDWithHistory(id string) (*models.Idea, error)
	ListAll() ([]models.Idea, error)
	ListAllWithHistory() ([]models.Idea, error)
	UpdateDraftFields(id string, ownerID int, fields DraftFields) (*models.Idea, error)
	SubmitDraft(id string, ownerID int) (*models.Idea, error)
	TransitionStatus(id, fromStatus, toStatus string, comment *string, reviewerID int) (*TransitionResult, error)
	SetScore(id string, impact, feasibility, innovation, adminID int) (*models.Idea, error)
}

// UserLookup resolves user records for reviewer-email enrichment.
type UserLookup interface {
	FindByID(id int) (*models.User, error)
}

// errPreconditionFailed rolls back a transition whose conditional update
// matched no row; nothing has been written at that point.
var errPreconditionFailed = errors.New("transition precondition failed")

type gormIdeaRepository struct {
	db *gorm.DB
}

// NewIdeaRepository returns the GORM-backed repository implementation.
func NewIdeaRepository(db *gorm.DB) IdeaRepository {
	return &gormIdeaRepository{db: db}
}

func (r *gormIdeaRepository) Create(idea *models.Idea) error {
	if err := r.db.Create(idea).Error; err != nil {
		return fmt.Errorf("failed to create idea: %w", err)
	}
	return nil
}

func (r *gormIdeaRepository) GetByID(id string) (*models.Idea, error) {
	var idea models.Idea
	if err := r.db.First(&idea, "idea_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch idea: %w", err)
	}
	return &idea, nil
}

func (r *gormIdeaRepository) GetByIDWithHistory(id string) (*models.Idea, error) {
	var idea models.Idea
	err := r.db.Preload("History", historyOrder).First(&idea, "idea_id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch idea: %w", err)
	}
	return &idea, nil
}

func (r *gormIdeaRepository) ListAll() ([]models.Idea, error) {
	var ideas []models.Idea
	if err := r.db.Order("create_at ASC, idea_id ASC").Find(&ideas).Error; err != nil {
		return nil, fmt.Errorf("failed to list ideas: %w", err)
	}
	return ideas, nil
}

func (r *gormIdeaRepository) ListAllWithHistory() ([]models.Idea, error) {
	var ideas []models.Idea
	err := r.db.Preload("History", historyOrder).
		Order("create_at ASC, idea_id ASC").
		Find(&ideas).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ideas: %w", err)
	}
	return ideas, nil
}

func (r *gormIdeaRepository) UpdateDraftFields(id string, ownerID int, fields DraftFields) (*models.Idea, error) {
	updates := map[string]interface{}{
		"title":       fields.Title,
		"description": fields.Description,
		"category":    fields.Category,
		"update_at":   time.Now(),
	}
	if fields.Attachment != nil {
		updates["attachment_filename"] = fields.Attachment.Filename
		updates["attachment_mime_type"] = fields.Attachment.MimeType
		updates["attachment_size_bytes"] = fields.Attachment.SizeBytes
		updates["attachment_path"] = fields.Attachment.Path
	}

	res := r.db.Model(&models.Idea{}).
		Where("idea_id = ? AND created_by = ? AND status = ?", id, ownerID, models.StatusDraft).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update draft: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return r.GetByIDWithHistory(id)
}

func (r *gormIdeaRepository) SubmitDraft(id string, ownerID int) (*models.Idea, error) {
	res := r.db.Model(&models.Idea{}).
		Where("idea_id = ? AND created_by = ? AND status = ?", id, ownerID, models.StatusDraft).
		Updates(map[string]interface{}{
			"status":    models.StatusSubmitted,
			"update_at": time.Now(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to submit draft: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return r.GetByIDWithHistory(id)
}

func (r *gormIdeaRepository) TransitionStatus(id, fromStatus, toStatus string, comment *string, reviewerID int) (*TransitionResult, error) {
	var result *TransitionResult

	err := r.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		// Conditional on the from-status still holding at commit time:
		// two admins racing from the same stale state cannot both win.
		res := tx.Model(&models.Idea{}).
			Where("idea_id = ? AND status = ?", id, fromStatus).
			Updates(map[string]interface{}{
				"status":    toStatus,
				"comment":   comment,
				"update_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errPreconditionFailed
		}

		entry := models.EvaluationEntry{
			IdeaID:     id,
			Status:     toStatus,
			Comment:    comment,
			ReviewerID: reviewerID,
			CreateAt:   now,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		var idea models.Idea
		if err := tx.Preload("History", historyOrder).First(&idea, "idea_id = ?", id).Error; err != nil {
			return err
		}

		result = &TransitionResult{Idea: idea, Entry: entry}
		return nil
	})
	if errors.Is(err, errPreconditionFailed) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to transition idea: %w", err)
	}
	return result, nil
}

func (r *gormIdeaRepository) SetScore(id string, impact, feasibility, innovation, adminID int) (*models.Idea, error) {
	now := time.Now()
	res := r.db.Model(&models.Idea{}).
		Where("idea_id = ?", id).
		Updates(map[string]interface{}{
			"impact_score":      impact,
			"feasibility_score": feasibility,
			"innovation_score":  innovation,
			"total_score":       TotalScore(impact, feasibility, innovation),
			"scored_by":         adminID,
			"scored_at":         now,
			"update_at":         now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to score idea: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return r.GetByIDWithHistory(id)
}

func historyOrder(db *gorm.DB) *gorm.DB {
	return db.Order("create_at ASC, entry_id ASC")
}

type gormUserLookup struct {
	db *gorm.DB
}

// NewUserLookup returns the GORM-backed user lookup used for history
// enrichment.
func NewUserLookup(db *gorm.DB) UserLookup {
	return &gormUserLookup{db: db}
}

func (l *gormUserLookup) FindByID(id int) (*models.User, error) {
	var user models.User
	if err := l.db.First(&user, "user_id = ? AND delete_at IS NULL", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &user, nil
}

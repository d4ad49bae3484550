package services

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"idea-portal-api/models"

	"github.com/google/uuid"
)

// Identity is the authenticated actor performing an operation, as carried by
// the bearer token.
type Identity struct {
	UserID int
	Role   string
}

// IdeaInput is the caller-supplied idea payload for create and draft edit.
type IdeaInput struct {
	Title       string
	Description string
	Category    string
	Status      string
}

// AttachmentUpload is an incoming attachment before validation and storage.
type AttachmentUpload struct {
	Filename string
	MimeType string
	Size     int64
	Reader   io.Reader
}

// AttachmentDTO is the attachment metadata exposed on idea responses.
type AttachmentDTO struct {
	Filename  string `json:"filename"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

// HistoryEntryDTO is one evaluation history row, enriched with the reviewer's
// email. The reviewer identity is never masked; only the submitter's is.
type HistoryEntryDTO struct {
	Status        string    `json:"status"`
	Comment       *string   `json:"comment"`
	ReviewerID    int       `json:"reviewer_id"`
	ReviewerEmail string    `json:"reviewer_email,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// IdeaDTO is the response shape for a single idea. CreatedByUserID is only
// populated when the requester owns the idea; admins and other submitters
// evaluate blind to authorship. Rank is only populated by the ranked view.
type IdeaDTO struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Category         string            `json:"category"`
	Status           string            `json:"status"`
	Comment          *string           `json:"comment"`
	ImpactScore      *int              `json:"impact_score"`
	FeasibilityScore *int              `json:"feasibility_score"`
	InnovationScore  *int              `json:"innovation_score"`
	TotalScore       *float64          `json:"total_score"`
	ScoredByAdminID  *int              `json:"scored_by_admin_id"`
	ScoredAt         *time.Time        `json:"scored_at"`
	Rank             *int              `json:"rank"`
	CreatedByUserID  *int              `json:"created_by_user_id,omitempty"`
	Attachment       *AttachmentDTO    `json:"attachment"`
	History          []HistoryEntryDTO `json:"evaluation_history,omitempty"`
	CreateAt         time.Time         `json:"create_at"`
}

// adminTransitions is the admin-performed part of the state machine. The
// draft -> submitted edge is owner self-service and deliberately absent.
var adminTransitions = map[string][]string{
	models.StatusSubmitted:        {models.StatusUnderReview},
	models.StatusUnderReview:      {models.StatusApprovedForFinal},
	models.StatusApprovedForFinal: {models.StatusAccepted, models.StatusRejected},
}

// IdeaService is the idea lifecycle engine: state machine, visibility,
// identity masking and score-to-rank computation. It is stateless per
// request; all durable state lives behind IdeaRepository.
type IdeaService struct {
	repo     IdeaRepository
	users    UserLookup
	store    AttachmentStore
	maxBytes int64
}

// NewIdeaService wires the engine to its collaborators. maxAttachmentBytes
// of zero falls back to the default limit.
func NewIdeaService(repo IdeaRepository, users UserLookup, store AttachmentStore, maxAttachmentBytes int64) *IdeaService {
	if maxAttachmentBytes <= 0 {
		maxAttachmentBytes = DefaultMaxAttachmentBytes
	}
	return &IdeaService{repo: repo, users: users, store: store, maxBytes: maxAttachmentBytes}
}

// Create stores a new idea owned by the actor, either as a draft or directly
// submitted. Field and attachment violations are reported together.
func (s *IdeaService) Create(actor Identity, input IdeaInput, upload *AttachmentUpload) (*IdeaDTO, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Category = strings.TrimSpace(input.Category)

	ve := validateIdeaFields(input.Title, input.Description, input.Category)
	status := input.Status
	if status == "" {
		status = models.StatusSubmitted
	}
	if status != models.StatusDraft && status != models.StatusSubmitted {
		ve.add("status", "status must be draft or submitted")
	}
	if upload != nil {
		s.validateAttachment(upload, ve)
	}
	if err := ve.orNil(); err != nil {
		return nil, err
	}

	now := time.Now()
	idea := models.Idea{
		IdeaID:      uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Status:      status,
		CreatedBy:   actor.UserID,
		CreateAt:    now,
		UpdateAt:    now,
	}

	if upload != nil {
		meta, err := s.store.Save(upload.Filename, upload.MimeType, upload.Size, upload.Reader)
		if err != nil {
			return nil, err
		}
		idea.AttachmentFilename = &meta.Filename
		idea.AttachmentMimeType = &meta.MimeType
		idea.AttachmentSizeBytes = &meta.SizeBytes
		idea.AttachmentPath = &meta.Path
	}

	if err := s.repo.Create(&idea); err != nil {
		return nil, err
	}

	dto := maskIdea(&idea, actor, nil)
	return &dto, nil
}

// List returns all ideas the actor may see. Drafts are only visible to their
// owner; admins do not bypass draft hiding.
func (s *IdeaService) List(actor Identity) ([]IdeaDTO, error) {
	ideas, err := s.repo.ListAll()
	if err != nil {
		return nil, err
	}

	dtos := make([]IdeaDTO, 0, len(ideas))
	for i := range ideas {
		if !visibleTo(&ideas[i], actor) {
			continue
		}
		dtos = append(dtos, maskIdea(&ideas[i], actor, nil))
	}
	return dtos, nil
}

// Get returns one idea with its evaluation history. A draft owned by someone
// else reads as not found so its existence is concealed.
func (s *IdeaService) Get(actor Identity, id string) (*IdeaDTO, error) {
	idea, err := s.repo.GetByIDWithHistory(id)
	if err != nil {
		return nil, err
	}
	if idea == nil || !visibleTo(idea, actor) {
		return nil, ErrNotFound
	}

	history, err := s.enrichHistory(idea.History)
	if err != nil {
		return nil, err
	}

	dto := maskIdea(idea, actor, nil)
	dto.History = history
	return &dto, nil
}

// ListRanked returns the leaderboard: one snapshot of all visible ideas,
// scored ideas first by descending total score, ties broken by creation
// order and then idea id. Rank is assigned per position and never stored;
// unscored ideas carry no rank.
func (s *IdeaService) ListRanked(actor Identity) ([]IdeaDTO, error) {
	ideas, err := s.repo.ListAll()
	if err != nil {
		return nil, err
	}

	visible := make([]models.Idea, 0, len(ideas))
	for i := range ideas {
		if visibleTo(&ideas[i], actor) {
			visible = append(visible, ideas[i])
		}
	}
	sortForRanking(visible)

	dtos := make([]IdeaDTO, 0, len(visible))
	for i := range visible {
		var rank *int
		if visible[i].IsScored() {
			position := i + 1
			rank = &position
		}
		dtos = append(dtos, maskIdea(&visible[i], actor, rank))
	}
	return dtos, nil
}

// UpdateDraft replaces a draft's fields, and optionally its attachment, on
// behalf of its owner. Non-owner, non-draft and missing ideas all read as
// not found.
func (s *IdeaService) UpdateDraft(actor Identity, id string, input IdeaInput, upload *AttachmentUpload) (*IdeaDTO, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Category = strings.TrimSpace(input.Category)

	ve := validateIdeaFields(input.Title, input.Description, input.Category)
	if upload != nil {
		s.validateAttachment(upload, ve)
	}
	if err := ve.orNil(); err != nil {
		return nil, err
	}

	fields := DraftFields{
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
	}
	if upload != nil {
		meta, err := s.store.Save(upload.Filename, upload.MimeType, upload.Size, upload.Reader)
		if err != nil {
			return nil, err
		}
		fields.Attachment = meta
	}

	idea, err := s.repo.UpdateDraftFields(id, actor.UserID, fields)
	if err != nil {
		return nil, err
	}
	if idea == nil {
		return nil, ErrNotFound
	}

	dto := maskIdea(idea, actor, nil)
	return &dto, nil
}

// SubmitDraft moves an owned draft to submitted. This owner self-service
// transition records no evaluation history entry.
func (s *IdeaService) SubmitDraft(actor Identity, id string) (*IdeaDTO, error) {
	idea, err := s.repo.SubmitDraft(id, actor.UserID)
	if err != nil {
		return nil, err
	}
	if idea == nil {
		return nil, ErrNotFound
	}

	dto := maskIdea(idea, actor, nil)
	return &dto, nil
}

// Transition advances an idea along one admin edge of the state machine and
// appends the matching evaluation history entry atomically. The write is
// conditional on the from-status still holding, so concurrent admins racing
// from the same state produce exactly one transition.
func (s *IdeaService) Transition(actor Identity, id, target string, comment *string) (*IdeaDTO, error) {
	if actor.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	if !models.ValidStatus(target) {
		ve := newValidationError()
		ve.add("status", "unknown status value")
		return nil, ve
	}

	idea, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if idea == nil || !visibleTo(idea, actor) {
		return nil, ErrNotFound
	}

	if !transitionAllowed(idea.Status, target) {
		return nil, ErrInvalidTransition
	}

	result, err := s.repo.TransitionStatus(id, idea.Status, target, comment, actor.UserID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		// Lost the race: the status moved between read and commit.
		return nil, ErrInvalidTransition
	}

	history, err := s.enrichHistory(result.Idea.History)
	if err != nil {
		return nil, err
	}

	dto := maskIdea(&result.Idea, actor, nil)
	dto.History = history
	return &dto, nil
}

// Score sets the three rubric components together and recomputes the total.
// Rescoring overwrites all fields; last write wins.
func (s *IdeaService) Score(actor Identity, id string, impact, feasibility, innovation int) (*IdeaDTO, error) {
	if actor.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}

	ve := newValidationError()
	validateScore(ve, "impact", impact)
	validateScore(ve, "feasibility", feasibility)
	validateScore(ve, "innovation", innovation)
	if err := ve.orNil(); err != nil {
		return nil, err
	}

	idea, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if idea == nil || !visibleTo(idea, actor) {
		return nil, ErrNotFound
	}

	updated, err := s.repo.SetScore(id, impact, feasibility, innovation, actor.UserID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrNotFound
	}

	dto := maskIdea(updated, actor, nil)
	return &dto, nil
}

// Attachment opens an idea's attachment for download. Visibility rules are
// the same as for the idea detail.
func (s *IdeaService) Attachment(actor Identity, id string) (io.ReadCloser, *AttachmentDTO, error) {
	idea, err := s.repo.GetByID(id)
	if err != nil {
		return nil, nil, err
	}
	if idea == nil || !visibleTo(idea, actor) {
		return nil, nil, ErrNotFound
	}
	if !idea.HasAttachment() {
		return nil, nil, ErrNotFound
	}

	rc, err := s.store.Open(*idea.AttachmentPath)
	if err != nil {
		return nil, nil, err
	}
	return rc, attachmentDTO(idea), nil
}

// TotalScore is the arithmetic mean of the three components rounded to two
// decimal places.
func TotalScore(impact, feasibility, innovation int) float64 {
	mean := float64(impact+feasibility+innovation) / 3
	return math.Round(mean*100) / 100
}

func validateIdeaFields(title, description, category string) *ValidationError {
	ve := newValidationError()
	if n := len([]rune(title)); n < 3 || n > 120 {
		ve.add("title", "title must be between 3 and 120 characters")
	}
	if n := len([]rune(description)); n < 20 || n > 2000 {
		ve.add("description", "description must be between 20 and 2000 characters")
	}
	if !models.ValidCategory(category) {
		ve.add("category", "category must be one of: "+strings.Join(models.Categories, ", "))
	}
	return ve
}

func validateScore(ve *ValidationError, field string, value int) {
	if value < 1 || value > 5 {
		ve.add(field, field+" score must be an integer between 1 and 5")
	}
}

func (s *IdeaService) validateAttachment(upload *AttachmentUpload, ve *ValidationError) {
	if !allowedAttachmentTypes[upload.MimeType] {
		ve.add("attachment", "attachment must be a PDF, PNG or JPEG file")
		return
	}
	if upload.Size > s.maxBytes {
		ve.add("attachment", fmt.Sprintf("attachment exceeds the %d byte limit", s.maxBytes))
	}
}

// visibleTo implements draft hiding: drafts exist only for their owner.
func visibleTo(idea *models.Idea, actor Identity) bool {
	return idea.Status != models.StatusDraft || idea.CreatedBy == actor.UserID
}

func transitionAllowed(from, to string) bool {
	for _, next := range adminTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// sortForRanking orders ideas in place: scored before unscored, scored by
// descending total score, remaining ties by creation time then idea id.
func sortForRanking(ideas []models.Idea) {
	sort.SliceStable(ideas, func(a, b int) bool {
		left, right := &ideas[a], &ideas[b]
		if left.IsScored() != right.IsScored() {
			return left.IsScored()
		}
		if left.IsScored() && right.IsScored() && *left.TotalScore != *right.TotalScore {
			return *left.TotalScore > *right.TotalScore
		}
		if !left.CreateAt.Equal(right.CreateAt) {
			return left.CreateAt.Before(right.CreateAt)
		}
		return left.IdeaID < right.IdeaID
	})
}

// maskIdea projects an idea into its response shape for one viewer. It is a
// pure function of (idea, actor) so the same idea can be serialized for
// different viewers in one process without shared mutable state.
func maskIdea(idea *models.Idea, actor Identity, rank *int) IdeaDTO {
	dto := IdeaDTO{
		ID:               idea.IdeaID,
		Title:            idea.Title,
		Description:      idea.Description,
		Category:         idea.Category,
		Status:           idea.Status,
		Comment:          idea.Comment,
		ImpactScore:      idea.ImpactScore,
		FeasibilityScore: idea.FeasibilityScore,
		InnovationScore:  idea.InnovationScore,
		TotalScore:       idea.TotalScore,
		ScoredByAdminID:  idea.ScoredBy,
		ScoredAt:         idea.ScoredAt,
		Rank:             rank,
		Attachment:       attachmentDTO(idea),
		CreateAt:         idea.CreateAt,
	}
	if idea.CreatedBy == actor.UserID {
		owner := idea.CreatedBy
		dto.CreatedByUserID = &owner
	}
	return dto
}

func attachmentDTO(idea *models.Idea) *AttachmentDTO {
	if !idea.HasAttachment() {
		return nil
	}
	return &AttachmentDTO{
		Filename:  *idea.AttachmentFilename,
		MimeType:  *idea.AttachmentMimeType,
		SizeBytes: *idea.AttachmentSizeBytes,
	}
}

func (s *IdeaService) enrichHistory(entries []models.EvaluationEntry) ([]HistoryEntryDTO, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	emails := make(map[int]string)
	history := make([]HistoryEntryDTO, 0, len(entries))
	for _, entry := range entries {
		email, cached := emails[entry.ReviewerID]
		if !cached {
			user, err := s.users.FindByID(entry.ReviewerID)
			if err != nil {
				return nil, err
			}
			if user != nil {
				email = user.Email
			}
			emails[entry.ReviewerID] = email
		}
		history = append(history, HistoryEntryDTO{
			Status:        entry.Status,
			Comment:       entry.Comment,
			ReviewerID:    entry.ReviewerID,
			ReviewerEmail: email,
			Timestamp:     entry.CreateAt,
		})
	}
	return history, nil
}

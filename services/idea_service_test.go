package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"idea-portal-api/models"
)

// memoryIdeaRepository implements IdeaRepository with the same conditional
// write semantics as the database-backed one: lookups return (nil, nil) when
// no row matches and conditional writes return (nil, nil) when the
// precondition no longer holds.
type memoryIdeaRepository struct {
	mu          sync.Mutex
	ideas       map[string]*models.Idea
	history     map[string][]models.EvaluationEntry
	nextEntryID int
}

func newMemoryIdeaRepository() *memoryIdeaRepository {
	return &memoryIdeaRepository{
		ideas:   make(map[string]*models.Idea),
		history: make(map[string][]models.EvaluationEntry),
	}
}

func (r *memoryIdeaRepository) clone(idea *models.Idea, withHistory bool) *models.Idea {
	copied := *idea
	copied.History = nil
	if withHistory {
		copied.History = append([]models.EvaluationEntry(nil), r.history[idea.IdeaID]...)
	}
	return &copied
}

func (r *memoryIdeaRepository) Create(idea *models.Idea) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ideas[idea.IdeaID] = r.clone(idea, false)
	return nil
}

func (r *memoryIdeaRepository) GetByID(id string) (*models.Idea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idea, ok := r.ideas[id]
	if !ok {
		return nil, nil
	}
	return r.clone(idea, false), nil
}

func (r *memoryIdeaRepository) GetByIDWithHistory(id string) (*models.Idea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idea, ok := r.ideas[id]
	if !ok {
		return nil, nil
	}
	return r.clone(idea, true), nil
}

func (r *memoryIdeaRepository) listLocked(withHistory bool) []models.Idea {
	ideas := make([]models.Idea, 0, len(r.ideas))
	for _, idea := range r.ideas {
		ideas = append(ideas, *r.clone(idea, withHistory))
	}
	sort.Slice(ideas, func(a, b int) bool {
		if !ideas[a].CreateAt.Equal(ideas[b].CreateAt) {
			return ideas[a].CreateAt.Before(ideas[b].CreateAt)
		}
		return ideas[a].IdeaID < ideas[b].IdeaID
	})
	return ideas
}

func (r *memoryIdeaRepository) ListAll() ([]models.Idea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listLocked(false), nil
}

func (r *memoryIdeaRepository) ListAllWithHistory() ([]models.Idea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listLocked(true), nil
}

func (r *memoryIdeaRepository) UpdateDraftFields(id string, ownerID int, fields DraftFields) (*models.Idea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idea, ok := r.ideas[id]
	if !ok || idea.CreatedBy != ownerID || idea.Status != models.StatusDraft {
		return nil, nil
	}
	idea.Title = fields.Title
	idea.Description = fields.Description
	idea.Category = fields.Category
	if fields.Attachment != nil {
		idea.AttachmentFilename = &fields.Attachment.Filename
		idea.AttachmentMimeType = &fields.Attachment.MimeType
		idea.AttachmentSizeBytes = &fields.Attachment.SizeBytes
		idea.AttachmentPath = &fields.Attachment.Path
	}
	idea.UpdateAt = time.Now()
	return r.clone(idea, true), nil
}

func (r *memoryIdeaRepository) SubmitDraft(id string, ownerID int) (*models.Idea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idea, ok := r.ideas[id]
	if !ok || idea.CreatedBy != ownerID || idea.Status != models.StatusDraft {
		return nil, nil
	}
	idea.Status = models.StatusSubmitted
	idea.UpdateAt = time.Now()
	return r.clone(idea, true), nil
}

func (r *memoryIdeaRepository) TransitionStatus(id, fromStatus, toStatus string, comment *string, reviewerID int) (*TransitionResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idea, ok := r.ideas[id]
	if !ok || idea.Status != fromStatus {
		return nil, nil
	}
	now := time.Now()
	idea.Status = toStatus
	idea.Comment = comment
	idea.UpdateAt = now

	r.nextEntryID++
	entry := models.EvaluationEntry{
		EntryID:    r.nextEntryID,
		IdeaID:     id,
		Status:     toStatus,
		Comment:    comment,
		ReviewerID: reviewerID,
		CreateAt:   now,
	}
	r.history[id] = append(r.history[id], entry)

	return &TransitionResult{Idea: *r.clone(idea, true), Entry: entry}, nil
}

func (r *memoryIdeaRepository) SetScore(id string, impact, feasibility, innovation, adminID int) (*models.Idea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idea, ok := r.ideas[id]
	if !ok {
		return nil, nil
	}
	now := time.Now()
	total := TotalScore(impact, feasibility, innovation)
	idea.ImpactScore = &impact
	idea.FeasibilityScore = &feasibility
	idea.InnovationScore = &innovation
	idea.TotalScore = &total
	idea.ScoredBy = &adminID
	idea.ScoredAt = &now
	idea.UpdateAt = now
	return r.clone(idea, true), nil
}

type memoryUserLookup struct {
	users map[int]*models.User
}

func (l *memoryUserLookup) FindByID(id int) (*models.User, error) {
	return l.users[id], nil
}

type memoryAttachmentStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	next  int
}

func (s *memoryAttachmentStore) Save(filename, mimeType string, size int64, r io.Reader) (*AttachmentMeta, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	path := fmt.Sprintf("mem/%d/%s", s.next, filename)
	s.blobs[path] = data
	return &AttachmentMeta{
		Filename:  filename,
		MimeType:  mimeType,
		SizeBytes: int64(len(data)),
		Path:      path,
	}, nil
}

func (s *memoryAttachmentStore) Open(path string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[path]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

const (
	ownerID      = 10
	otherUserID  = 11
	adminUserID  = 99
	secondAdmin  = 98
	maxTestBytes = 1024
)

var (
	owner      = Identity{UserID: ownerID, Role: models.RoleSubmitter}
	otherUser  = Identity{UserID: otherUserID, Role: models.RoleSubmitter}
	admin      = Identity{UserID: adminUserID, Role: models.RoleAdmin}
	otherAdmin = Identity{UserID: secondAdmin, Role: models.RoleAdmin}
)

func newTestService() (*IdeaService, *memoryIdeaRepository) {
	repo := newMemoryIdeaRepository()
	users := &memoryUserLookup{users: map[int]*models.User{
		adminUserID: {UserID: adminUserID, Email: "admin@example.com", Role: models.RoleAdmin},
		secondAdmin: {UserID: secondAdmin, Email: "admin2@example.com", Role: models.RoleAdmin},
	}}
	store := &memoryAttachmentStore{blobs: make(map[string][]byte)}
	return NewIdeaService(repo, users, store, maxTestBytes), repo
}

func seedIdea(repo *memoryIdeaRepository, id string, createdBy int, status string, createAt time.Time) {
	repo.Create(&models.Idea{
		IdeaID:      id,
		Title:       "Seeded idea " + id,
		Description: strings.Repeat("detail ", 5),
		Category:    "Process",
		Status:      status,
		CreatedBy:   createdBy,
		CreateAt:    createAt,
		UpdateAt:    createAt,
	})
}

func validInput() IdeaInput {
	return IdeaInput{
		Title:       "Shorter standup meetings",
		Description: "Cap the daily standup at ten minutes and move detail discussions to follow-ups.",
		Category:    "Process",
	}
}

func TestCreateDefaultsToSubmitted(t *testing.T) {
	svc, _ := newTestService()

	dto, err := svc.Create(owner, validInput(), nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if dto.Status != models.StatusSubmitted {
		t.Errorf("expected status %q, got %q", models.StatusSubmitted, dto.Status)
	}
	if dto.CreatedByUserID == nil || *dto.CreatedByUserID != ownerID {
		t.Errorf("owner should see their own id on the created idea")
	}
	if dto.Rank != nil {
		t.Errorf("rank must not be set outside the ranked view")
	}
}

func TestCreateReportsAllFieldErrorsTogether(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(owner, IdeaInput{
		Title:       "ab",
		Description: "too short",
		Category:    "Sports",
		Status:      "accepted",
	}, nil)

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"title", "description", "category", "status"} {
		if _, ok := ve.Fields[field]; !ok {
			t.Errorf("expected field error for %q, got %v", field, ve.Fields)
		}
	}
}

func TestCreateRejectsBadAttachment(t *testing.T) {
	svc, _ := newTestService()

	upload := &AttachmentUpload{
		Filename: "notes.exe",
		MimeType: "application/octet-stream",
		Size:     10,
		Reader:   strings.NewReader("0123456789"),
	}
	_, err := svc.Create(owner, validInput(), upload)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := ve.Fields["attachment"]; !ok {
		t.Errorf("expected attachment field error, got %v", ve.Fields)
	}

	upload = &AttachmentUpload{
		Filename: "big.pdf",
		MimeType: "application/pdf",
		Size:     maxTestBytes + 1,
		Reader:   strings.NewReader("x"),
	}
	_, err = svc.Create(owner, validInput(), upload)
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for oversized attachment, got %v", err)
	}
	if _, ok := ve.Fields["attachment"]; !ok {
		t.Errorf("expected attachment field error for oversized file, got %v", ve.Fields)
	}
}

func TestDraftHiddenFromEveryoneButOwner(t *testing.T) {
	svc, repo := newTestService()
	seedIdea(repo, "draft-1", ownerID, models.StatusDraft, time.Now())

	for _, viewer := range []Identity{otherUser, admin} {
		if _, err := svc.Get(viewer, "draft-1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("viewer %d: expected ErrNotFound for foreign draft, got %v", viewer.UserID, err)
		}
		list, err := svc.List(viewer)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(list) != 0 {
			t.Errorf("viewer %d: draft leaked into list", viewer.UserID)
		}
	}

	dto, err := svc.Get(owner, "draft-1")
	if err != nil {
		t.Fatalf("owner Get failed: %v", err)
	}
	if dto.Status != models.StatusDraft {
		t.Errorf("expected draft status, got %q", dto.Status)
	}
}

func TestIdentityMaskedForNonOwners(t *testing.T) {
	svc, repo := newTestService()
	seedIdea(repo, "idea-1", ownerID, models.StatusSubmitted, time.Now())

	for _, viewer := range []Identity{otherUser, admin} {
		dto, err := svc.Get(viewer, "idea-1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if dto.CreatedByUserID != nil {
			t.Errorf("viewer %d: submitter identity must be masked", viewer.UserID)
		}
	}

	dto, err := svc.Get(owner, "idea-1")
	if err != nil {
		t.Fatalf("owner Get failed: %v", err)
	}
	if dto.CreatedByUserID == nil || *dto.CreatedByUserID != ownerID {
		t.Errorf("owner must see their own id")
	}
}

func TestAdminTransitionChain(t *testing.T) {
	svc, repo := newTestService()
	seedIdea(repo, "idea-1", ownerID, models.StatusSubmitted, time.Now())

	comment := "looks promising"
	steps := []string{models.StatusUnderReview, models.StatusApprovedForFinal, models.StatusAccepted}
	for i, target := range steps {
		dto, err := svc.Transition(admin, "idea-1", target, &comment)
		if err != nil {
			t.Fatalf("transition to %q failed: %v", target, err)
		}
		if dto.Status != target {
			t.Errorf("expected status %q, got %q", target, dto.Status)
		}
		if len(dto.History) != i+1 {
			t.Fatalf("expected %d history entries after %q, got %d", i+1, target, len(dto.History))
		}
		last := dto.History[len(dto.History)-1]
		if last.Status != target || last.ReviewerID != adminUserID {
			t.Errorf("unexpected history entry %+v", last)
		}
		if last.ReviewerEmail != "admin@example.com" {
			t.Errorf("expected reviewer email enrichment, got %q", last.ReviewerEmail)
		}
	}
}

func TestIllegalTransitions(t *testing.T) {
	tests := []struct {
		name   string
		from   string
		target string
	}{
		{"skip review stage", models.StatusSubmitted, models.StatusAccepted},
		{"skip to final approval", models.StatusSubmitted, models.StatusApprovedForFinal},
		{"reject before final", models.StatusUnderReview, models.StatusRejected},
		{"move backwards", models.StatusUnderReview, models.StatusSubmitted},
		{"out of terminal accepted", models.StatusAccepted, models.StatusUnderReview},
		{"out of terminal rejected", models.StatusRejected, models.StatusUnderReview},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService()
			seedIdea(repo, "idea-1", ownerID, tt.from, time.Now())

			_, err := svc.Transition(admin, "idea-1", tt.target, nil)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition, got %v", err)
			}

			idea, _ := repo.GetByID("idea-1")
			if idea.Status != tt.from {
				t.Errorf("idea must be unchanged, status moved to %q", idea.Status)
			}
			if len(repo.history["idea-1"]) != 0 {
				t.Errorf("no history entry may be written for a rejected transition")
			}
		})
	}
}

func TestTransitionUnknownStatusIsValidationFailure(t *testing.T) {
	svc, repo := newTestService()
	seedIdea(repo, "idea-1", ownerID, models.StatusSubmitted, time.Now())

	_, err := svc.Transition(admin, "idea-1", "archived", nil)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for unknown status value, got %v", err)
	}
}

func TestTransitionByNonAdminForbidden(t *testing.T) {
	svc, repo := newTestService()
	seedIdea(repo, "idea-1", ownerID, models.StatusSubmitted, time.Now())

	_, err := svc.Transition(owner, "idea-1", models.StatusUnderReview, nil)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestTransitionOnForeignDraftNotFound(t *testing.T) {
	svc, repo := newTestService()
	seedIdea(repo, "draft-1", ownerID, models.StatusDraft, time.Now())

	_, err := svc.Transition(admin, "draft-1", models.StatusUnderReview, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("draft must read as not found to admins, got %v", err)
	}
}

func TestConcurrentTransitionsLinearized(t *testing.T) {
	svc, repo := newTestService()
	seedIdea(repo, "idea-1", ownerID, models.StatusSubmitted, time.Now())

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, actor := range []Identity{admin, otherAdmin} {
		wg.Add(1)
		go func(slot int, actor Identity) {
			defer wg.Done()
			_, err := svc.Transition(actor, "idea-1", models.StatusUnderReview, nil)
			results[slot] = err
		}(i, actor)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrInvalidTransition):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || conflicts != 1 {
		t.Errorf("expected exactly one winner and one conflict, got %d/%d", successes, conflicts)
	}
	if entries := len(repo.history["idea-1"]); entries != 1 {
		t.Errorf("expected a single history entry, got %d", entries)
	}
}

func TestScoreValidation(t *testing.T) {
	svc, repo := newTestService()
	seedIdea(repo, "idea-1", ownerID, models.StatusSubmitted, time.Now())

	_, err := svc.Score(admin, "idea-1", 0, 6, 3)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"impact", "feasibility"} {
		if _, ok := ve.Fields[field]; !ok {
			t.Errorf("expected field error for %q, got %v", field, ve.Fields)
		}
	}
	if _, ok := ve.Fields["innovation"]; ok {
		t.Errorf("innovation was in range and must not be reported")
	}

	if _, err := svc.Score(owner, "idea-1", 3, 3, 3); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for non-admin scoring, got %v", err)
	}
}

func TestTotalScoreRounding(t *testing.T) {
	tests := []struct {
		impact, feasibility, innovation int
		want                            float64
	}{
		{5, 5, 5, 5},
		{4, 4, 4, 4},
		{5, 4, 4, 4.33},
		{5, 5, 4, 4.67},
		{1, 2, 2, 1.67},
	}
	for _, tt := range tests {
		if got := TotalScore(tt.impact, tt.feasibility, tt.innovation); got != tt.want {
			t.Errorf("TotalScore(%d,%d,%d) = %v, want %v", tt.impact, tt.feasibility, tt.innovation, got, tt.want)
		}
	}
}

func TestRescoringOverwrites(t *testing.T) {
	svc, repo := newTestService()
	seedIdea(repo, "idea-1", ownerID, models.StatusSubmitted, time.Now())

	if _, err := svc.Score(admin, "idea-1", 5, 5, 5); err != nil {
		t.Fatalf("first scoring failed: %v", err)
	}
	dto, err := svc.Score(otherAdmin, "idea-1", 2, 2, 3)
	if err != nil {
		t.Fatalf("rescoring failed: %v", err)
	}
	if *dto.TotalScore != 2.33 {
		t.Errorf("expected rescored total 2.33, got %v", *dto.TotalScore)
	}
	if *dto.ScoredByAdminID != secondAdmin {
		t.Errorf("expected last scoring admin to be recorded")
	}

	idea, _ := repo.GetByID("idea-1")
	if *idea.ImpactScore != 2 || *idea.FeasibilityScore != 2 || *idea.InnovationScore != 3 {
		t.Errorf("rescoring must overwrite all three components")
	}
}

func TestRankedOrderScoredBeforeUnscored(t *testing.T) {
	svc, repo := newTestService()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	seedIdea(repo, "idea-a", ownerID, models.StatusSubmitted, base)
	seedIdea(repo, "idea-b", ownerID, models.StatusSubmitted, base.Add(time.Minute))
	seedIdea(repo, "idea-c", ownerID, models.StatusSubmitted, base.Add(2*time.Minute))

	if _, err := svc.Score(admin, "idea-a", 5, 5, 5); err != nil {
		t.Fatalf("scoring A failed: %v", err)
	}
	if _, err := svc.Score(admin, "idea-b", 4, 4, 4); err != nil {
		t.Fatalf("scoring B failed: %v", err)
	}

	ranked, err := svc.ListRanked(otherUser)
	if err != nil {
		t.Fatalf("ListRanked failed: %v", err)
	}
	if len(ranked) != 3 {
		t.Fatalf("expected 3 ideas, got %d", len(ranked))
	}

	if ranked[0].ID != "idea-a" || ranked[0].Rank == nil || *ranked[0].Rank != 1 {
		t.Errorf("expected idea-a at rank 1, got %s rank %v", ranked[0].ID, ranked[0].Rank)
	}
	if ranked[1].ID != "idea-b" || ranked[1].Rank == nil || *ranked[1].Rank != 2 {
		t.Errorf("expected idea-b at rank 2, got %s rank %v", ranked[1].ID, ranked[1].Rank)
	}
	if ranked[2].ID != "idea-c" || ranked[2].Rank != nil {
		t.Errorf("unscored idea-c must come last with no rank, got %s rank %v", ranked[2].ID, ranked[2].Rank)
	}
}

func TestRankedTiesKeepCreationOrder(t *testing.T) {
	svc, repo := newTestService()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	seedIdea(repo, "idea-later", ownerID, models.StatusSubmitted, base.Add(time.Hour))
	seedIdea(repo, "idea-early", ownerID, models.StatusSubmitted, base)

	if _, err := svc.Score(admin, "idea-later", 4, 4, 4); err != nil {
		t.Fatalf("scoring failed: %v", err)
	}
	if _, err := svc.Score(admin, "idea-early", 4, 4, 4); err != nil {
		t.Fatalf("scoring failed: %v", err)
	}

	ranked, err := svc.ListRanked(otherUser)
	if err != nil {
		t.Fatalf("ListRanked failed: %v", err)
	}
	if ranked[0].ID != "idea-early" || ranked[1].ID != "idea-later" {
		t.Errorf("identically scored ideas must keep creation order, got %s then %s", ranked[0].ID, ranked[1].ID)
	}
}

func TestRankedViewExcludesForeignDrafts(t *testing.T) {
	svc, repo := newTestService()
	seedIdea(repo, "draft-1", ownerID, models.StatusDraft, time.Now())
	seedIdea(repo, "idea-1", ownerID, models.StatusSubmitted, time.Now())

	ranked, err := svc.ListRanked(admin)
	if err != nil {
		t.Fatalf("ListRanked failed: %v", err)
	}
	if len(ranked) != 1 || ranked[0].ID != "idea-1" {
		t.Errorf("foreign draft leaked into ranked view: %+v", ranked)
	}
}

func TestDraftOperationsConcealExistence(t *testing.T) {
	svc, repo := newTestService()
	seedIdea(repo, "draft-1", ownerID, models.StatusDraft, time.Now())
	seedIdea(repo, "idea-1", ownerID, models.StatusSubmitted, time.Now())

	// Non-owner editing someone else's draft.
	if _, err := svc.UpdateDraft(otherUser, "draft-1", validInput(), nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign draft edit, got %v", err)
	}
	// Non-owner submitting someone else's draft.
	if _, err := svc.SubmitDraft(otherUser, "draft-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign draft submit, got %v", err)
	}
	// Draft-only operation against a non-draft idea.
	if _, err := svc.UpdateDraft(owner, "idea-1", validInput(), nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for draft edit of submitted idea, got %v", err)
	}
	// Missing id.
	if _, err := svc.SubmitDraft(owner, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing idea, got %v", err)
	}
}

func TestSubmitDraftRecordsNoHistory(t *testing.T) {
	svc, repo := newTestService()
	seedIdea(repo, "draft-1", ownerID, models.StatusDraft, time.Now())

	dto, err := svc.SubmitDraft(owner, "draft-1")
	if err != nil {
		t.Fatalf("SubmitDraft failed: %v", err)
	}
	if dto.Status != models.StatusSubmitted {
		t.Errorf("expected submitted status, got %q", dto.Status)
	}
	if len(repo.history["draft-1"]) != 0 {
		t.Errorf("owner submission must not write an evaluation history entry")
	}
}

func TestAttachmentRoundTripThroughService(t *testing.T) {
	svc, _ := newTestService()

	content := "%PDF-1.4 minimal"
	upload := &AttachmentUpload{
		Filename: "proposal.pdf",
		MimeType: "application/pdf",
		Size:     int64(len(content)),
		Reader:   strings.NewReader(content),
	}
	dto, err := svc.Create(owner, validInput(), upload)
	if err != nil {
		t.Fatalf("Create with attachment failed: %v", err)
	}
	if dto.Attachment == nil || dto.Attachment.Filename != "proposal.pdf" {
		t.Fatalf("expected attachment metadata on response, got %+v", dto.Attachment)
	}

	rc, meta, err := svc.Attachment(admin, dto.ID)
	if err != nil {
		t.Fatalf("Attachment download failed: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("reading attachment failed: %v", err)
	}
	if string(data) != content {
		t.Errorf("attachment bytes corrupted: got %q", string(data))
	}
	if meta.MimeType != "application/pdf" || meta.SizeBytes != int64(len(content)) {
		t.Errorf("unexpected attachment metadata: %+v", meta)
	}
}

func TestAttachmentMissingIsNotFound(t *testing.T) {
	svc, repo := newTestService()
	seedIdea(repo, "idea-1", ownerID, models.StatusSubmitted, time.Now())

	if _, _, err := svc.Attachment(owner, "idea-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for idea without attachment, got %v", err)
	}
	if _, _, err := svc.Attachment(owner, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing idea, got %v", err)
	}
}

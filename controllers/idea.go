package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"idea-portal-api/config"
	"idea-portal-api/services"

	"github.com/gin-gonic/gin"
)

var ideaService *services.IdeaService

// InitIdeaService wires the lifecycle engine to the database and the upload
// directory. Must be called after config.InitDB.
func InitIdeaService() error {
	uploadPath := os.Getenv("UPLOAD_PATH")
	if uploadPath == "" {
		uploadPath = "./uploads"
	}

	store, err := services.NewDiskAttachmentStore(filepath.Join(uploadPath, "ideas"))
	if err != nil {
		return err
	}

	maxBytes := services.DefaultMaxAttachmentBytes
	if raw := os.Getenv("MAX_ATTACHMENT_MB"); raw != "" {
		mb, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || mb <= 0 {
			return fmt.Errorf("invalid MAX_ATTACHMENT_MB value '%s'", raw)
		}
		maxBytes = mb * 1024 * 1024
	}

	ideaService = services.NewIdeaService(
		services.NewIdeaRepository(config.DB),
		services.NewUserLookup(config.DB),
		store,
		maxBytes,
	)
	return nil
}

func currentIdentity(c *gin.Context) services.Identity {
	userID, _ := c.Get("userID")
	role, _ := c.Get("role")
	return services.Identity{
		UserID: userID.(int),
		Role:   role.(string),
	}
}

// respondServiceError maps the engine's failure taxonomy to HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":       "Validation failed",
			"fieldErrors": ve.Fields,
		})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Idea not found"})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "Invalid status transition"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

type ideaRequest struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	Category    string `json:"category" form:"category"`
	Status      string `json:"status" form:"status"`
}

// bindIdeaRequest reads the idea payload from either a JSON body or a
// multipart form carrying an optional single attachment. The returned
// cleanup closes the opened file, if any.
func bindIdeaRequest(c *gin.Context) (ideaRequest, *services.AttachmentUpload, func(), bool) {
	noop := func() {}

	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		var req ideaRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
			return ideaRequest{}, nil, noop, false
		}
		return req, nil, noop, true
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form"})
		return ideaRequest{}, nil, noop, false
	}

	req := ideaRequest{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
		Status:      c.PostForm("status"),
	}

	files := form.File["attachment"]
	if len(files) == 0 {
		return req, nil, noop, true
	}
	if len(files) > 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":       "Validation failed",
			"fieldErrors": gin.H{"attachment": "only one attachment is allowed"},
		})
		return ideaRequest{}, nil, noop, false
	}

	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read attachment"})
		return ideaRequest{}, nil, noop, false
	}

	upload := &services.AttachmentUpload{
		Filename: filepath.Base(fh.Filename),
		MimeType: fh.Header.Get("Content-Type"),
		Size:     fh.Size,
		Reader:   f,
	}
	return req, upload, func() { f.Close() }, true
}

// CreateIdea creates a new idea as draft or submitted
func CreateIdea(c *gin.Context) {
	req, upload, cleanup, ok := bindIdeaRequest(c)
	if !ok {
		return
	}
	defer cleanup()

	idea, err := ideaService.Create(currentIdentity(c), services.IdeaInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Status:      req.Status,
	}, upload)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"idea": idea})
}

// GetIdeas returns all ideas visible to the caller
func GetIdeas(c *gin.Context) {
	ideas, err := ideaService.List(currentIdentity(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ideas": ideas,
		"total": len(ideas),
	})
}

// GetRankedIdeas returns the scored leaderboard
func GetRankedIdeas(c *gin.Context) {
	ideas, err := ideaService.ListRanked(currentIdentity(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ideas": ideas,
		"total": len(ideas),
	})
}

// GetIdea returns a single idea with its evaluation history
func GetIdea(c *gin.Context) {
	idea, err := ideaService.Get(currentIdentity(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"idea": idea})
}

// UpdateDraft replaces a draft's fields and optionally its attachment
func UpdateDraft(c *gin.Context) {
	req, upload, cleanup, ok := bindIdeaRequest(c)
	if !ok {
		return
	}
	defer cleanup()

	idea, err := ideaService.UpdateDraft(currentIdentity(c), c.Param("id"), services.IdeaInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	}, upload)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"idea": idea})
}

// SubmitDraft moves an owned draft into the review pipeline
func SubmitDraft(c *gin.Context) {
	idea, err := ideaService.SubmitDraft(currentIdentity(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"idea": idea})
}

// DownloadAttachment streams an idea's attachment with its original name and type
func DownloadAttachment(c *gin.Context) {
	rc, meta, err := ideaService.Attachment(currentIdentity(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	defer rc.Close()

	extraHeaders := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", meta.Filename),
	}
	c.DataFromReader(http.StatusOK, meta.SizeBytes, meta.MimeType, rc, extraHeaders)
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type updateStatusRequest struct {
	Status  string  `json:"status" binding:"required"`
	Comment *string `json:"comment"`
}

type scoreRequest struct {
	ImpactScore      *int `json:"impact_score"`
	FeasibilityScore *int `json:"feasibility_score"`
	InnovationScore  *int `json:"innovation_score"`
}

// UpdateIdeaStatus advances an idea through the evaluation pipeline.
// Admin only; the route guard enforces the role, the service re-checks it.
func UpdateIdeaStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	idea, err := ideaService.Transition(currentIdentity(c), c.Param("id"), req.Status, req.Comment)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"idea":    idea,
		"message": "Status updated successfully",
	})
}

// ScoreIdea records or replaces the rubric scores on an accepted-track idea
func ScoreIdea(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	// Missing fields become 0 so every out-of-range score is reported together.
	impact, feasibility, innovation := 0, 0, 0
	if req.ImpactScore != nil {
		impact = *req.ImpactScore
	}
	if req.FeasibilityScore != nil {
		feasibility = *req.FeasibilityScore
	}
	if req.InnovationScore != nil {
		innovation = *req.InnovationScore
	}

	idea, err := ideaService.Score(currentIdentity(c), c.Param("id"), impact, feasibility, innovation)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"idea":    idea,
		"message": "Idea scored successfully",
	})
}

package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	gradingsvc "github.com/gradeflow/backend/internal/application/grading"
)

// GradingHandler handles grading run API endpoints
type GradingHandler struct {
	BaseHandler
	grading *gradingsvc.GradingService
}

// NewGradingHandler creates a new GradingHandler
func NewGradingHandler(grading *gradingsvc.GradingService) *GradingHandler {
	return &GradingHandler{grading: grading}
}

// GradeRequest represents a single-document grading request
// @Description Grade one document against a stored rubric
type GradeRequest struct {
	DocID              string `json:"doc_id" binding:"required"`
	RubricFilename     string `json:"rubric_filename" binding:"required"`
	CustomInstructions string `json:"custom_instructions"`
	IsWordDoc          bool   `json:"is_word_doc"`
}

// GradeBatchRequest represents a batch grading request for an assignment
// @Description Grade a batch of an assignment's documents
type GradeBatchRequest struct {
	AssignmentID       uuid.UUID       `json:"assignment_id" binding:"required"`
	DocIDs             []string        `json:"doc_ids" binding:"required,min=1"`
	DocTypes           map[string]bool `json:"doc_types"`
	RubricFilename     string          `json:"rubric_filename"`
	CustomInstructions string          `json:"custom_instructions"`
	UserEmail          string          `json:"user_email"`
	UserName           string          `json:"user_name"`
	UserRole           string          `json:"user_role"`
}

// Grade godoc
// @ID           gradeDocument
// @Summary      Grade a single document
// @Description  Runs AI grading on one document against a stored rubric, without creating a review session
// @Tags         grading
// @Accept       json
// @Produce      json
// @Param        request body GradeRequest true "Grading request"
// @Success      200 {object} APIResponse[grading.DocumentResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /grading/grade [post]
func (h *GradingHandler) Grade(c *gin.Context) {
	var req GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	result, err := h.grading.GradeSingle(c.Request.Context(), gradingsvc.GradeDocumentInput{
		DocID:              req.DocID,
		RubricFilename:     req.RubricFilename,
		CustomInstructions: req.CustomInstructions,
		IsWordDoc:          req.IsWordDoc,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// GradeBatch godoc
// @ID           gradeBatch
// @Summary      Grade a batch of documents
// @Description  Runs AI grading over an assignment's documents and stores the outcome as a session pending review. Per-document failures are recorded in the results rather than aborting the batch.
// @Tags         grading
// @Accept       json
// @Produce      json
// @Param        request body GradeBatchRequest true "Batch grading request"
// @Success      200 {object} APIResponse[grading.GradeBatchResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /grading/grade/batch [post]
func (h *GradingHandler) GradeBatch(c *gin.Context) {
	var req GradeBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	result, err := h.grading.GradeBatch(c.Request.Context(), gradingsvc.GradeBatchInput{
		AssignmentID:       req.AssignmentID,
		DocIDs:             req.DocIDs,
		DocTypes:           req.DocTypes,
		RubricFilename:     req.RubricFilename,
		CustomInstructions: req.CustomInstructions,
		UserEmail:          req.UserEmail,
		UserName:           req.UserName,
		UserRole:           req.UserRole,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

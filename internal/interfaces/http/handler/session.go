package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	gradingsvc "github.com/gradeflow/backend/internal/application/grading"
	reportsvc "github.com/gradeflow/backend/internal/application/report"
	"github.com/gradeflow/backend/internal/domain/grading"
)

// SessionHandler handles grading session review API endpoints
type SessionHandler struct {
	BaseHandler
	sessions *gradingsvc.SessionService
	reports  *reportsvc.ReportService
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(sessions *gradingsvc.SessionService, reports *reportsvc.ReportService) *SessionHandler {
	return &SessionHandler{sessions: sessions, reports: reports}
}

// CreateSessionRequest represents a request to store a grading run for review
// @Description Store grading results as a session pending review
type CreateSessionRequest struct {
	AssignmentID uuid.UUID                `json:"assignment_id" binding:"required"`
	DocIDs       []string                 `json:"doc_ids" binding:"required,min=1"`
	Results      []grading.DocumentResult `json:"results" binding:"required,min=1"`
	UserEmail    string                   `json:"user_email"`
	UserName     string                   `json:"user_name"`
	UserRole     string                   `json:"user_role"`
}

// ReviewSessionRequest represents a whole-session approval or rejection
// @Description Approve or reject a pending session. Approvals may carry reviewer-edited results.
type ReviewSessionRequest struct {
	ReviewNotes string                   `json:"review_notes"`
	Results     []grading.DocumentResult `json:"results"`
	UserEmail   string                   `json:"user_email"`
	UserName    string                   `json:"user_name"`
	UserRole    string                   `json:"user_role"`
}

// DocumentReviewRequest represents a per-document approval or rejection,
// addressed by the document's index within the session
// @Description Review one document of a session
type DocumentReviewRequest struct {
	DocIndex  *int                    `json:"doc_index" binding:"required"`
	Result    *grading.DocumentResult `json:"result"`
	UserEmail string                  `json:"user_email"`
	UserName  string                  `json:"user_name"`
	UserRole  string                  `json:"user_role"`
}

// Get godoc
// @ID           getSession
// @Summary      Get a grading session
// @Description  Returns the full review payload for one grading session, including results and the rubric
// @Tags         sessions
// @Produce      json
// @Param        id path string true "Session ID"
// @Success      200 {object} APIResponse[grading.SessionDetail]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid session ID")
		return
	}

	detail, err := h.sessions.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, detail)
}

// Create godoc
// @ID           createSession
// @Summary      Store a grading run for review
// @Description  Stores externally produced grading results as a session pending review
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        request body CreateSessionRequest true "Session data"
// @Success      201 {object} APIResponse[grading.CreateSessionResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	result, err := h.sessions.Create(c.Request.Context(), gradingsvc.CreateSessionInput{
		AssignmentID: req.AssignmentID,
		DocIDs:       req.DocIDs,
		Results:      req.Results,
		UserEmail:    req.UserEmail,
		UserName:     req.UserName,
		UserRole:     req.UserRole,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, result)
}

// Approve godoc
// @ID           approveSession
// @Summary      Approve a grading session
// @Description  Approves a pending session and writes the feedback into the graded documents. Per-document sync failures are reported in the response without undoing the approval.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID"
// @Param        request body ReviewSessionRequest true "Review data"
// @Success      200 {object} APIResponse[grading.ApproveSessionResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /sessions/{id}/approve [post]
func (h *SessionHandler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid session ID")
		return
	}

	var req ReviewSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	result, err := h.sessions.Approve(c.Request.Context(), gradingsvc.ReviewSessionInput{
		SessionID:   id,
		ReviewNotes: req.ReviewNotes,
		Results:     req.Results,
		UserEmail:   req.UserEmail,
		UserName:    req.UserName,
		UserRole:    req.UserRole,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// Reject godoc
// @ID           rejectSession
// @Summary      Reject a grading session
// @Description  Rejects a pending session, discarding its results and returning its documents to the queue
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID"
// @Param        request body ReviewSessionRequest true "Review data"
// @Success      200 {object} APIResponse[grading.RejectSessionResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /sessions/{id}/reject [post]
func (h *SessionHandler) Reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid session ID")
		return
	}

	var req ReviewSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	result, err := h.sessions.Reject(c.Request.Context(), gradingsvc.ReviewSessionInput{
		SessionID:   id,
		ReviewNotes: req.ReviewNotes,
		UserEmail:   req.UserEmail,
		UserName:    req.UserName,
		UserRole:    req.UserRole,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// ApproveDocument godoc
// @ID           approveSessionDocument
// @Summary      Approve one document of a session
// @Description  Approves a single document's result, syncing its feedback immediately. The session auto-approves once every document is reviewed.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID"
// @Param        request body DocumentReviewRequest true "Document review data"
// @Success      200 {object} APIResponse[grading.DocumentApprovalResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /sessions/{id}/approve-document [post]
func (h *SessionHandler) ApproveDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid session ID")
		return
	}

	var req DocumentReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	result, err := h.sessions.ApproveDocument(c.Request.Context(), gradingsvc.DocumentReviewInput{
		SessionID: id,
		DocIndex:  req.DocIndex,
		Result:    req.Result,
		UserEmail: req.UserEmail,
		UserName:  req.UserName,
		UserRole:  req.UserRole,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// RejectDocument godoc
// @ID           rejectSessionDocument
// @Summary      Reject one document of a session
// @Description  Rejects a single document's result, returning the document to the grading queue
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID"
// @Param        request body DocumentReviewRequest true "Document review data"
// @Success      200 {object} APIResponse[grading.DocumentRejectionResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /sessions/{id}/reject-document [post]
func (h *SessionHandler) RejectDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid session ID")
		return
	}

	var req DocumentReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	result, err := h.sessions.RejectDocument(c.Request.Context(), gradingsvc.DocumentReviewInput{
		SessionID: id,
		DocIndex:  req.DocIndex,
		UserEmail: req.UserEmail,
		UserName:  req.UserName,
		UserRole:  req.UserRole,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// Report godoc
// @ID           getSessionReport
// @Summary      Download a session's PDF report
// @Description  Renders and streams the grading report for an approved session. Pending and rejected sessions have no report.
// @Tags         sessions
// @Produce      application/pdf
// @Param        id path string true "Session ID"
// @Success      200 {string} string "PDF content"
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /sessions/{id}/report [get]
func (h *SessionHandler) Report(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid session ID")
		return
	}

	report, err := h.reports.Generate(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	c.Data(http.StatusOK, report.ContentType, report.PDF)
}

package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	coursesvc "github.com/gradeflow/backend/internal/application/course"
	gradingsvc "github.com/gradeflow/backend/internal/application/grading"
)

// AssignmentHandler handles assignment API endpoints, including the
// document listing, grading history, summary and CSV export views
type AssignmentHandler struct {
	BaseHandler
	assignments *coursesvc.AssignmentService
	documents   *gradingsvc.DocumentSyncService
	summaries   *gradingsvc.SummaryService
	exports     *gradingsvc.ExportService
}

// NewAssignmentHandler creates a new AssignmentHandler
func NewAssignmentHandler(
	assignments *coursesvc.AssignmentService,
	documents *gradingsvc.DocumentSyncService,
	summaries *gradingsvc.SummaryService,
	exports *gradingsvc.ExportService,
) *AssignmentHandler {
	return &AssignmentHandler{
		assignments: assignments,
		documents:   documents,
		summaries:   summaries,
		exports:     exports,
	}
}

// ListBySection godoc
// @ID           listSectionAssignments
// @Summary      List a section's assignments
// @Description  Returns the assignments of one section, newest first
// @Tags         assignments
// @Produce      json
// @Param        id path string true "Section ID"
// @Success      200 {object} APIResponse[[]course.AssignmentListResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /sections/{id}/assignments [get]
func (h *AssignmentHandler) ListBySection(c *gin.Context) {
	sectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid section ID")
		return
	}

	assignments, err := h.assignments.ListBySection(c.Request.Context(), sectionID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, assignments)
}

// Create godoc
// @ID           createAssignment
// @Summary      Create an assignment
// @Description  Creates an assignment in a section, bound to a stored rubric and a Drive folder
// @Tags         assignments
// @Accept       json
// @Produce      json
// @Param        id path string true "Section ID"
// @Param        request body course.CreateAssignmentRequest true "Assignment data"
// @Success      201 {object} APIResponse[course.AssignmentRef]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /sections/{id}/assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	sectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid section ID")
		return
	}

	var req coursesvc.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	ref, err := h.assignments.Create(c.Request.Context(), sectionID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, ref)
}

// Get godoc
// @ID           getAssignment
// @Summary      Get an assignment
// @Description  Returns one assignment by ID
// @Tags         assignments
// @Produce      json
// @Param        id path string true "Assignment ID"
// @Success      200 {object} APIResponse[course.AssignmentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /assignments/{id} [get]
func (h *AssignmentHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid assignment ID")
		return
	}

	assignment, err := h.assignments.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, assignment)
}

// Update godoc
// @ID           updateAssignment
// @Summary      Update an assignment
// @Description  Updates assignment fields; status changes stamp activation and completion times
// @Tags         assignments
// @Accept       json
// @Produce      json
// @Param        id path string true "Assignment ID"
// @Param        request body course.UpdateAssignmentRequest true "Fields to update"
// @Success      200 {object} APIResponse[course.AssignmentRef]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /assignments/{id} [put]
func (h *AssignmentHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid assignment ID")
		return
	}

	var req coursesvc.UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	ref, err := h.assignments.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, ref)
}

// Delete godoc
// @ID           deleteAssignment
// @Summary      Delete an assignment
// @Description  Deletes an assignment together with its grading sessions and document records
// @Tags         assignments
// @Produce      json
// @Param        id path string true "Assignment ID"
// @Success      200 {object} APIResponse[MessageData]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /assignments/{id} [delete]
func (h *AssignmentHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid assignment ID")
		return
	}

	name, err := h.assignments.Delete(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, MessageData{Message: fmt.Sprintf("Assignment %q deleted", name)})
}

// Documents godoc
// @ID           listAssignmentDocuments
// @Summary      List an assignment's documents
// @Description  Returns the assignment's documents, refreshed from its Drive folder when reachable. A failed Drive listing degrades to the stored records.
// @Tags         assignments
// @Produce      json
// @Param        id path string true "Assignment ID"
// @Success      200 {object} APIResponse[grading.DocumentListResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /assignments/{id}/documents [get]
func (h *AssignmentHandler) Documents(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid assignment ID")
		return
	}

	result, err := h.documents.ListForAssignment(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// History godoc
// @ID           getAssignmentHistory
// @Summary      Get an assignment's grading history
// @Description  Returns the assignment's grading sessions, newest first
// @Tags         assignments
// @Produce      json
// @Param        id path string true "Assignment ID"
// @Success      200 {object} APIResponse[[]course.HistoryEntry]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /assignments/{id}/history [get]
func (h *AssignmentHandler) History(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid assignment ID")
		return
	}

	history, err := h.assignments.History(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, history)
}

// Summary godoc
// @ID           getAssignmentSummary
// @Summary      Get an assignment's grading summary
// @Description  Returns grading statistics, grade distribution and an AI performance summary for the assignment
// @Tags         assignments
// @Produce      json
// @Param        id path string true "Assignment ID"
// @Success      200 {object} APIResponse[grading.AssignmentSummary]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /assignments/{id}/summary [get]
func (h *AssignmentHandler) Summary(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid assignment ID")
		return
	}

	summary, err := h.summaries.ForAssignment(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, summary)
}

// Export godoc
// @ID           exportAssignmentResults
// @Summary      Export an assignment's results as CSV
// @Description  Streams the reviewed grading results of the assignment as a CSV attachment
// @Tags         assignments
// @Produce      text/csv
// @Param        id path string true "Assignment ID"
// @Success      200 {string} string "CSV content"
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /assignments/{id}/export [get]
func (h *AssignmentHandler) Export(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid assignment ID")
		return
	}

	export, err := h.exports.ExportCSV(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", export.Content)
}

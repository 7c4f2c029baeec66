package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	coursesvc "github.com/gradeflow/backend/internal/application/course"
)

// SectionHandler handles course section API endpoints
type SectionHandler struct {
	BaseHandler
	sections *coursesvc.SectionService
}

// NewSectionHandler creates a new SectionHandler
func NewSectionHandler(sections *coursesvc.SectionService) *SectionHandler {
	return &SectionHandler{sections: sections}
}

// List godoc
// @ID           listSections
// @Summary      List course sections
// @Description  Returns all sections with their assignment counts
// @Tags         sections
// @Produce      json
// @Success      200 {object} APIResponse[[]course.SectionResponse]
// @Failure      500 {object} ErrorResponse
// @Router       /sections [get]
func (h *SectionHandler) List(c *gin.Context) {
	sections, err := h.sections.List(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, sections)
}

// Get godoc
// @ID           getSection
// @Summary      Get a section
// @Description  Returns one section by ID
// @Tags         sections
// @Produce      json
// @Param        id path string true "Section ID"
// @Success      200 {object} APIResponse[course.SectionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /sections/{id} [get]
func (h *SectionHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid section ID")
		return
	}

	section, err := h.sections.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, section)
}

// Create godoc
// @ID           createSection
// @Summary      Create a section
// @Description  Creates a new course section
// @Tags         sections
// @Accept       json
// @Produce      json
// @Param        request body course.CreateSectionRequest true "Section data"
// @Success      201 {object} APIResponse[course.SectionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /sections [post]
func (h *SectionHandler) Create(c *gin.Context) {
	var req coursesvc.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	section, err := h.sections.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, section)
}

// Delete godoc
// @ID           deleteSection
// @Summary      Delete a section
// @Description  Deletes an empty section. Sections still holding assignments cannot be deleted.
// @Tags         sections
// @Produce      json
// @Param        id path string true "Section ID"
// @Success      200 {object} APIResponse[MessageData]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /sections/{id} [delete]
func (h *SectionHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid section ID")
		return
	}

	if err := h.sections.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, MessageData{Message: "Section deleted"})
}

package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	rubricsvc "github.com/gradeflow/backend/internal/application/rubric"
)

// maxRubricUploadBytes caps rubric upload size independently of the global
// body limit
const maxRubricUploadBytes = 10 << 20

// RubricHandler handles rubric template API endpoints
type RubricHandler struct {
	BaseHandler
	rubrics *rubricsvc.RubricService
}

// NewRubricHandler creates a new RubricHandler
func NewRubricHandler(rubrics *rubricsvc.RubricService) *RubricHandler {
	return &RubricHandler{rubrics: rubrics}
}

// List godoc
// @ID           listRubrics
// @Summary      List stored rubrics
// @Description  Returns every stored rubric template with its criteria count
// @Tags         rubrics
// @Produce      json
// @Success      200 {object} APIResponse[[]rubric.RubricInfo]
// @Failure      500 {object} ErrorResponse
// @Router       /rubrics [get]
func (h *RubricHandler) List(c *gin.Context) {
	rubrics, err := h.rubrics.List(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, rubrics)
}

// Get godoc
// @ID           getRubric
// @Summary      Get a rubric
// @Description  Returns one stored rubric template by filename
// @Tags         rubrics
// @Produce      json
// @Param        filename path string true "Stored rubric filename"
// @Success      200 {object} APIResponse[rubric.Rubric]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /rubrics/{filename} [get]
func (h *RubricHandler) Get(c *gin.Context) {
	rubric, err := h.rubrics.Get(c.Request.Context(), c.Param("filename"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, rubric)
}

// Delete godoc
// @ID           deleteRubric
// @Summary      Delete a rubric
// @Description  Deletes a stored rubric template and its uploaded original
// @Tags         rubrics
// @Produce      json
// @Param        filename path string true "Stored rubric filename"
// @Success      200 {object} APIResponse[MessageData]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /rubrics/{filename} [delete]
func (h *RubricHandler) Delete(c *gin.Context) {
	filename := c.Param("filename")
	if err := h.rubrics.Delete(c.Request.Context(), filename); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, MessageData{Message: fmt.Sprintf("Rubric %s deleted", filename)})
}

// GetOriginal godoc
// @ID           getRubricOriginal
// @Summary      Download a rubric's original upload
// @Description  Streams the originally uploaded file behind a stored rubric template
// @Tags         rubrics
// @Produce      application/octet-stream
// @Param        filename path string true "Stored rubric filename"
// @Success      200 {string} string "Original file content"
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /rubrics/{filename}/original [get]
func (h *RubricHandler) GetOriginal(c *gin.Context) {
	original, err := h.rubrics.GetOriginal(c.Request.Context(), c.Param("filename"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", original.Filename))
	c.Data(http.StatusOK, original.ContentType, original.Content)
}

// Upload godoc
// @ID           uploadRubric
// @Summary      Upload a rubric
// @Description  Uploads a rubric as JSON or a Word document. Word uploads are parsed into the rubric schema by the AI parser before storage.
// @Tags         rubrics
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "Rubric file (.json, .docx or .doc)"
// @Success      201 {object} APIResponse[rubric.UploadRubricResult]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /rubrics/upload [post]
func (h *RubricHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "No file provided")
		return
	}
	if fileHeader.Size > maxRubricUploadBytes {
		h.BadRequest(c, "Rubric file exceeds the 10MB upload limit")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.BadRequest(c, "Could not read the uploaded file")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.BadRequest(c, "Could not read the uploaded file")
		return
	}

	result, err := h.rubrics.Upload(c.Request.Context(), rubricsvc.UploadRubricInput{
		Filename: fileHeader.Filename,
		Content:  content,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, result)
}

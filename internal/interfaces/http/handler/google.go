package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gradeflow/backend/internal/domain/grading"
	"github.com/gradeflow/backend/internal/infrastructure/google"
	"github.com/gradeflow/backend/internal/interfaces/http/dto"
)

// GoogleHandler handles the outbound Google authorization and Drive
// listing API endpoints
type GoogleHandler struct {
	BaseHandler
	oauth     *google.OAuthManager
	workspace grading.DocumentWorkspace
}

// NewGoogleHandler creates a new GoogleHandler
func NewGoogleHandler(oauth *google.OAuthManager, workspace grading.DocumentWorkspace) *GoogleHandler {
	return &GoogleHandler{oauth: oauth, workspace: workspace}
}

// DriveFileResponse represents one gradable file in a Drive folder listing
// @Description Drive file metadata
type DriveFileResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mime_type"`
	FileType     string `json:"file_type"`
	ModifiedTime string `json:"modified_time"`
	URL          string `json:"url"`
	IsWordDoc    bool   `json:"is_word_doc"`
}

// Auth godoc
// @ID           googleAuth
// @Summary      Start Google authorization
// @Description  Redirects to Google's consent screen with a signed state parameter
// @Tags         google
// @Success      302 {string} string "Redirect to Google"
// @Failure      500 {object} ErrorResponse
// @Router       /google/auth [get]
func (h *GoogleHandler) Auth(c *gin.Context) {
	url, err := h.oauth.AuthURL()
	if err != nil {
		h.InternalError(c, "Could not build the Google authorization URL")
		return
	}
	c.Redirect(http.StatusFound, url)
}

// Callback godoc
// @ID           googleAuthCallback
// @Summary      Complete Google authorization
// @Description  Exchanges the authorization code for a token after verifying the signed state. Missing, expired or forged state is rejected.
// @Tags         google
// @Produce      json
// @Param        state query string true "Signed state from the auth redirect"
// @Param        code query string true "Authorization code from Google"
// @Success      200 {object} APIResponse[MessageData]
// @Failure      400 {object} ErrorResponse
// @Router       /google/auth/callback [get]
func (h *GoogleHandler) Callback(c *gin.Context) {
	if errMsg := c.Query("error"); errMsg != "" {
		h.BadRequest(c, "Google authorization was denied: "+errMsg)
		return
	}

	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		h.BadRequest(c, "Missing state or code parameter")
		return
	}

	if err := h.oauth.Exchange(c.Request.Context(), state, code); err != nil {
		switch {
		case errors.Is(err, google.ErrExpiredState):
			h.BadRequest(c, "Authorization state expired, start the flow again")
		case errors.Is(err, google.ErrInvalidState):
			h.BadRequest(c, "Invalid authorization state")
		case errors.Is(err, google.ErrOAuthNotConfigured):
			h.InternalError(c, "Google OAuth client is not configured")
		default:
			h.BadRequest(c, "Authorization code exchange failed")
		}
		return
	}
	h.Success(c, MessageData{Message: "Google authorization complete. You can now access Drive files."})
}

// Status godoc
// @ID           googleAuthStatus
// @Summary      Get Google authorization status
// @Description  Reports whether a usable Google token is stored
// @Tags         google
// @Produce      json
// @Success      200 {object} APIResponse[google.AuthStatus]
// @Router       /google/auth/status [get]
func (h *GoogleHandler) Status(c *gin.Context) {
	h.Success(c, h.oauth.Status())
}

// Files godoc
// @ID           listGoogleFiles
// @Summary      List gradable files in a Drive folder
// @Description  Returns the Google Docs and Word uploads inside a Drive folder, newest first
// @Tags         google
// @Produce      json
// @Param        folder_id query string true "Drive folder ID"
// @Success      200 {object} APIResponse[[]DriveFileResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Router       /google/files [get]
func (h *GoogleHandler) Files(c *gin.Context) {
	folderID := c.Query("folder_id")
	if folderID == "" {
		h.BadRequest(c, "folder_id query parameter is required")
		return
	}

	files, err := h.workspace.ListFolder(c.Request.Context(), folderID)
	if err != nil {
		h.handleWorkspaceError(c, err)
		return
	}

	responses := make([]DriveFileResponse, len(files))
	for i, f := range files {
		responses[i] = DriveFileResponse{
			ID:           f.ID,
			Name:         f.Name,
			MimeType:     f.MimeType,
			FileType:     f.FileType(),
			ModifiedTime: f.ModifiedTime.Format(time.RFC3339),
			URL:          f.URL,
			IsWordDoc:    f.IsWordDoc,
		}
	}
	h.Success(c, responses)
}

// handleWorkspaceError maps workspace sentinel errors onto HTTP responses
func (h *GoogleHandler) handleWorkspaceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, grading.ErrWorkspaceUnauthorized),
		errors.Is(err, grading.ErrWorkspaceNotConfigured):
		h.Unauthorized(c, "Google authorization required. Start it at /api/v1/google/auth.")
	case errors.Is(err, grading.ErrDocumentNotFound):
		h.NotFound(c, "Folder not found or not shared with the authorized account")
	default:
		h.ErrorWithCode(c, dto.ErrCodeExternalService, "Google Drive request failed")
	}
}

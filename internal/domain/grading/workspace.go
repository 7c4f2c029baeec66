package grading

import (
	"context"
	"errors"
	"time"
)

// ---------------------------------------------------------------------------
// Document Workspace Errors
// ---------------------------------------------------------------------------

var (
	// ErrWorkspaceNotConfigured means no Google credential source is set up
	ErrWorkspaceNotConfigured = errors.New("workspace: no credentials configured, set up OAuth, a service account, or an API key")
	// ErrWorkspaceUnauthorized means the stored authorization is missing, expired, or revoked
	ErrWorkspaceUnauthorized = errors.New("workspace: authorization required")
	// ErrWorkspaceRequestFailed wraps transport or API errors from the workspace provider
	ErrWorkspaceRequestFailed = errors.New("workspace: request failed")
	// ErrDocumentNotFound means the document ID does not resolve to a readable file
	ErrDocumentNotFound = errors.New("workspace: document not found")
	// ErrEmptyDocument means extraction produced no usable text
	ErrEmptyDocument = errors.New("workspace: document appears to be empty or could not extract text")
)

// MinimumDocumentTextLength is the shortest extracted text considered gradable.
// Anything shorter is treated as an empty or unreadable document.
const MinimumDocumentTextLength = 10

// ---------------------------------------------------------------------------
// Workspace Types
// ---------------------------------------------------------------------------

// DriveFile is a gradable file discovered in a workspace folder. Word uploads
// are flagged so grading can convert them to a native document first.
type DriveFile struct {
	ID           string
	Name         string
	MimeType     string
	ModifiedTime time.Time
	URL          string
	IsWordDoc    bool
}

// FileType returns the listing label for the file
func (f DriveFile) FileType() string {
	if f.IsWordDoc {
		return "Word Document"
	}
	return "Google Doc"
}

// FeedbackSyncRequest carries one reviewed result to publish into its
// document: the feedback page, the score table, and the anchored comments.
type FeedbackSyncRequest struct {
	// DocID is the writable target, already resolved through TargetDocID
	DocID string
	// Result holds the reviewed feedback and scores
	Result *DocumentResult
	// Rubric supplies criterion order and point caps for the score table
	Rubric RubricOutline
}

// Validate checks the request is complete enough to sync
func (r *FeedbackSyncRequest) Validate() error {
	if r.DocID == "" {
		return ErrDocumentNotFound
	}
	if r.Result == nil {
		return errors.New("workspace: sync request needs a result")
	}
	return nil
}

// FeedbackSyncResult reports what a sync wrote into one document. Skipped
// marks documents whose feedback was already written by an earlier approval.
type FeedbackSyncResult struct {
	DocID            string `json:"doc_id"`
	Success          bool   `json:"success"`
	Skipped          bool   `json:"skipped,omitempty"`
	FeedbackInserted bool   `json:"feedback_inserted"`
	RubricInserted   bool   `json:"rubric_inserted"`
	CommentsInserted int    `json:"comments_inserted"`
	Error            string `json:"error,omitempty"`
}

// ---------------------------------------------------------------------------
// DocumentWorkspace Port Interface
// ---------------------------------------------------------------------------

// DocumentWorkspace is the port to the workspace holding student submissions.
// The production implementation talks to Google Drive and Docs; the interface
// lives here so application services and tests stay provider-agnostic.
type DocumentWorkspace interface {
	// ListFolder returns the gradable documents inside a folder, newest first
	ListFolder(ctx context.Context, folderID string) ([]DriveFile, error)

	// ExtractText pulls the plain text of a document, including table contents
	ExtractText(ctx context.Context, docID string) (string, error)

	// ConvertToGoogleDoc copies a Word upload into a native document and
	// returns the new document ID. Grading and feedback target the copy.
	ConvertToGoogleDoc(ctx context.Context, fileID, name string) (string, error)

	// SyncFeedback writes the reviewed feedback page, rubric score table and
	// anchored comments into the document in that order. Partial failures are
	// reported in the result rather than returned as errors.
	SyncFeedback(ctx context.Context, req *FeedbackSyncRequest) (*FeedbackSyncResult, error)
}

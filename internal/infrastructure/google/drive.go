package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/gradeflow/backend/internal/domain/grading"
)

// MIME types handled by the grading workflow
const (
	mimeGoogleDoc = "application/vnd.google-apps.document"
	mimeWordDocx  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeWordDoc   = "application/msword"
)

// listFields limits list responses to what the listing renders
const listFields = "nextPageToken, files(id, name, modifiedTime, webViewLink, mimeType)"

// folderQuery matches gradable files in one folder: native documents and
// Word uploads, excluding trashed files.
func folderQuery(folderID string) string {
	escaped := strings.ReplaceAll(folderID, `'`, `\'`)
	return fmt.Sprintf("'%s' in parents and (mimeType='%s' or mimeType='%s' or mimeType='%s') and trashed=false",
		escaped, mimeGoogleDoc, mimeWordDocx, mimeWordDoc)
}

// ListFolder returns the gradable documents in a Drive folder, newest first
func (w *Workspace) ListFolder(ctx context.Context, folderID string) ([]grading.DriveFile, error) {
	svc, err := w.services(ctx)
	if err != nil {
		return nil, err
	}

	var files []grading.DriveFile
	err = svc.Drive.Files.List().
		Q(folderQuery(folderID)).
		Fields(listFields).
		OrderBy("modifiedTime desc").
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				files = append(files, toDriveFile(f))
			}
			return nil
		})
	if err != nil {
		return nil, wrapAPIError("listing folder", err)
	}
	return files, nil
}

// toDriveFile maps an API file to the domain representation, synthesizing a
// browser URL when the API omits webViewLink.
func toDriveFile(f *drive.File) grading.DriveFile {
	isWord := f.MimeType == mimeWordDocx || f.MimeType == mimeWordDoc

	url := f.WebViewLink
	if url == "" {
		if isWord {
			url = "https://drive.google.com/file/d/" + f.Id + "/view"
		} else {
			url = "https://docs.google.com/document/d/" + f.Id
		}
	}

	// Drive reports RFC 3339; a parse failure leaves the zero time
	modified, _ := time.Parse(time.RFC3339, f.ModifiedTime)

	return grading.DriveFile{
		ID:           f.Id,
		Name:         f.Name,
		MimeType:     f.MimeType,
		ModifiedTime: modified,
		URL:          url,
		IsWordDoc:    isWord,
	}
}

// ConvertToGoogleDoc copies a Word file as a native document so the Docs API
// can read and annotate it. The copy is placed alongside the original and
// the original is left untouched.
func (w *Workspace) ConvertToGoogleDoc(ctx context.Context, fileID, name string) (string, error) {
	svc, err := w.services(ctx)
	if err != nil {
		return "", err
	}

	created, err := svc.Drive.Files.Copy(fileID, &drive.File{
		Name:     name,
		MimeType: mimeGoogleDoc,
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", wrapAPIError("converting word document", err)
	}
	return created.Id, nil
}

// wrapAPIError maps API failures onto the workspace sentinels so callers can
// distinguish auth problems and missing documents from transient failures.
func wrapAPIError(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s: %v", grading.ErrWorkspaceUnauthorized, op, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", grading.ErrDocumentNotFound, op)
		}
	}
	return fmt.Errorf("%w: %s: %v", grading.ErrWorkspaceRequestFailed, op, err)
}

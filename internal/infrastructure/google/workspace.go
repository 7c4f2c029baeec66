package google

import (
	"context"

	"go.uber.org/zap"

	"github.com/gradeflow/backend/internal/domain/grading"
	"github.com/gradeflow/backend/internal/infrastructure/config"
)

// Workspace implements grading.DocumentWorkspace on the Drive and Docs APIs.
// Clients are rebuilt per call so a token stored by a login after startup is
// picked up without a restart.
type Workspace struct {
	cfg    *config.GoogleConfig
	oauth  *OAuthManager
	logger *zap.Logger
}

var _ grading.DocumentWorkspace = (*Workspace)(nil)

// WorkspaceOption customizes the workspace
type WorkspaceOption func(*Workspace)

// WithWorkspaceLogger sets the logger
func WithWorkspaceLogger(logger *zap.Logger) WorkspaceOption {
	return func(w *Workspace) {
		w.logger = logger
	}
}

// NewWorkspace creates the workspace adapter
func NewWorkspace(cfg *config.GoogleConfig, oauth *OAuthManager, opts ...WorkspaceOption) *Workspace {
	w := &Workspace{
		cfg:    cfg,
		oauth:  oauth,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Workspace) services(ctx context.Context) (*Services, error) {
	return NewServices(ctx, w.cfg, w.oauth, w.logger)
}

// SyncFeedback writes a grading result back to the document: the feedback
// page first, then the score table, then the inline comments. An error means
// the document was left untouched; once the feedback page is in place, later
// failures are recorded on the result instead.
func (w *Workspace) SyncFeedback(ctx context.Context, req *grading.FeedbackSyncRequest) (*grading.FeedbackSyncResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	svc, err := w.services(ctx)
	if err != nil {
		return nil, err
	}

	res := &grading.FeedbackSyncResult{DocID: req.DocID}

	if err := w.insertFeedbackPage(ctx, svc, req.DocID, req.Result); err != nil {
		return nil, err
	}
	res.FeedbackInserted = true

	if err := w.insertScoreTable(ctx, svc, req.DocID, req.Rubric, req.Result); err != nil {
		w.logger.Warn("Score table insert failed",
			zap.String("doc_id", req.DocID),
			zap.Error(err))
		res.Error = err.Error()
	} else {
		res.RubricInserted = true
	}

	inserted, err := w.insertComments(ctx, svc, req.DocID, req.Result.Comments)
	if err != nil {
		w.logger.Warn("Inline comment insert failed",
			zap.String("doc_id", req.DocID),
			zap.Error(err))
		if res.Error == "" {
			res.Error = err.Error()
		}
	}
	res.CommentsInserted = inserted

	res.Success = res.FeedbackInserted
	w.logger.Info("Feedback synced to document",
		zap.String("doc_id", req.DocID),
		zap.Bool("rubric_inserted", res.RubricInserted),
		zap.Int("comments_inserted", res.CommentsInserted))
	return res, nil
}

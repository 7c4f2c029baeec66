// Package google implements the document workspace port on the Drive and
// Docs APIs: OAuth authorization, folder listing, Word conversion, text
// extraction, and the feedback write-back (feedback page, score table, and
// anchored comments).
package google

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/gradeflow/backend/internal/domain/grading"
	"github.com/gradeflow/backend/internal/infrastructure/config"
)

// Scopes requested for the grading workflow. Drive covers listing, copies,
// and comments; Docs covers extraction and content updates.
var Scopes = []string{drive.DriveScope, docs.DocumentsScope}

// Services bundles the authenticated Drive and Docs clients
type Services struct {
	Drive *drive.Service
	Docs  *docs.Service
}

// NewServices builds the API clients, choosing credentials in priority
// order: a stored OAuth token, then a service account file, then an API key.
func NewServices(ctx context.Context, cfg *config.GoogleConfig, oauth *OAuthManager, logger *zap.Logger) (*Services, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts, err := credentialOptions(ctx, cfg, oauth, logger)
	if err != nil {
		return nil, err
	}

	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google: building drive client: %w", err)
	}

	docsSvc, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google: building docs client: %w", err)
	}

	return &Services{Drive: driveSvc, Docs: docsSvc}, nil
}

// credentialOptions resolves the client options for the first usable
// credential. A missing token file is expected before the first login, so it
// falls through; other token errors are logged before falling through too,
// because a service account or API key may still serve read-only listing.
func credentialOptions(ctx context.Context, cfg *config.GoogleConfig, oauth *OAuthManager, logger *zap.Logger) ([]option.ClientOption, error) {
	if oauth != nil {
		ts, err := oauth.TokenSource(ctx)
		if err == nil {
			return []option.ClientOption{option.WithTokenSource(ts)}, nil
		}
		if !errors.Is(err, ErrNoStoredToken) {
			logger.Debug("Stored Google token unusable", zap.Error(err))
		}
	}

	if cfg.CredentialsFile != "" {
		if _, err := os.Stat(cfg.CredentialsFile); err == nil {
			return []option.ClientOption{
				option.WithCredentialsFile(cfg.CredentialsFile),
				option.WithScopes(Scopes...),
			}, nil
		}
	}

	if cfg.APIKey != "" {
		return []option.ClientOption{option.WithAPIKey(cfg.APIKey)}, nil
	}

	return nil, grading.ErrWorkspaceNotConfigured
}

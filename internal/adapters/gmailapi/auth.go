package gmailapi

import (
	"context"

	"github.com/mbrt/gmailctl/cmd/gmailctl/localcred"
	"github.com/mikey/llm-mail-labeler/internal/core"
	"go.uber.org/zap"
	"google.golang.org/api/gmail/v1"
)

// NewService builds an authenticated Gmail service using the local
// credential/token files under cfgDir (credentials.json and the cached
// OAuth token). The token's scopes were fixed when gmailctl created it;
// labeling needs the modify scope. Missing or expired credentials are a
// runtime dependency failure for this mailbox selection, not a
// recoverable error.
func NewService(ctx context.Context, cfgDir string, logger *zap.Logger) (*gmail.Service, error) {
	svc, err := (localcred.Provider{}).Service(ctx, cfgDir)
	if err != nil {
		return nil, &core.MissingDependencyError{Provider: "gmail", Cause: err}
	}
	logger.Debug("Authenticated against Gmail API", zap.String("config_dir", cfgDir))
	return svc, nil
}

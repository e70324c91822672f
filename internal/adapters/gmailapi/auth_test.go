package gmailapi

import (
	"context"
	"errors"
	"testing"

	"github.com/mikey/llm-mail-labeler/internal/core"
	"github.com/nalgeon/be"
	"go.uber.org/zap"
)

func TestNewServiceMissingCredentials(t *testing.T) {
	_, err := NewService(context.Background(), t.TempDir(), zap.NewNop())

	var missing *core.MissingDependencyError
	be.True(t, errors.As(err, &missing))
	be.Equal(t, missing.Provider, "gmail")
}

package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/souling-backend/internal/data/kv"
	"github.com/yungbote/souling-backend/internal/domain"
	"github.com/yungbote/souling-backend/internal/observability"
)

var (
	newID  = uuid.NewString
	nowUTC = func() time.Time { return time.Now().UTC() }
)

// storeError maps store sentinels onto the domain taxonomy. what names the
// missing entity, e.g. "session".
func storeError(op, what string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, kv.ErrNotFound):
		return domain.NewError(domain.CodeNotFound, op, what+" not found", err)
	case errors.Is(err, kv.ErrConflict):
		observability.Current().IncStoreConflict(op)
		return domain.NewError(domain.CodeStoreConflict, op, what+" was modified concurrently, retry", err)
	case domain.CodeOf(err) != "":
		return err
	default:
		return domain.Wrap(domain.CodeInternal, op, err)
	}
}

// generationError keeps the upstream cause as the client-visible message.
func generationError(op string, err error) error {
	msg := err.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "generation timed out: " + msg
	}
	return domain.NewError(domain.CodeGenerationFailed, op, msg, err)
}

package service

import (
	"context"
	"time"

	"github.com/timmy/imgsearch/internal/logger"
)

// Pipeline step names, logged as the step field.
const (
	StepValidateImage      = "validate-image"
	StepGetFeatureVector   = "get-feature-vector"
	StepUploadToStorage    = "upload-to-storage"
	StepGenerateSignedURL  = "generate-signed-url"
	StepUpsertToIndex      = "upsert-to-index"
	StepIndexSearch        = "index-search"
	StepFetchFromIndex     = "fetch-from-index"
	StepGenerateSignedURLs = "generate-signed-urls"
)

// observeStep runs fn as a named pipeline step and logs its duration and
// outcome. The error from fn is returned unchanged.
func observeStep(ctx context.Context, step string, fn func(ctx context.Context) error) error {
	ctx = logger.WithField(ctx, logger.FieldStep, step)
	start := time.Now()

	err := fn(ctx)

	entry := logger.With(logger.Fields{}).WithDuration(time.Since(start))
	if err != nil {
		entry.WithStatus("error").WithField("error", err.Error()).Warn(ctx, "Step %s failed", step)
		return err
	}
	entry.WithStatus("ok").Debug(ctx, "Step %s completed", step)
	return nil
}

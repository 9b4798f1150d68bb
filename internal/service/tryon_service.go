package service

import (
	"context"
	"image"
	"time"

	"go.uber.org/zap"

	"styleGallery/internal/models"
	"styleGallery/internal/tryon"
)

type TryOnService interface {
	TryOn(ctx context.Context, req models.TryOnRequest) (image.Image, error)
}

type tryOnService struct {
	client  tryon.Client
	timeout time.Duration
	log     *zap.Logger
}

func NewTryOnService(client tryon.Client, timeout time.Duration, log *zap.Logger) TryOnService {
	return &tryOnService{
		client:  client,
		timeout: timeout,
		log:     log,
	}
}

// TryOn requires both images and bounds the remote call by the configured
// timeout. Failures are not retried.
func (t *tryOnService) TryOn(ctx context.Context, req models.TryOnRequest) (image.Image, error) {
	if !req.Person.Present() {
		return nil, models.NewValidationError("please upload an image of a person")
	}
	if !req.Garment.Present() {
		return nil, models.NewValidationError("please upload an image of a garment")
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	img, err := t.client.TryOn(ctx, req)
	if err != nil {
		t.log.Error("try-on failed",
			zap.String("description", req.Description),
			zap.Bool("auto_mask", req.AutoMask),
			zap.Bool("auto_crop", req.AutoCrop),
			zap.Error(err))
		return nil, err
	}

	return img, nil
}

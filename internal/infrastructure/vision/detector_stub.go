//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"

	"vision-detect/internal/domain/entity"
)

var errNoGoCV = errors.New("gocv build tag is not enabled")

// GoCVDetector заглушка для сборки без OpenCV.
type GoCVDetector struct{}

// NewGoCVDetector возвращает ошибку, если сборка без тега gocv.
func NewGoCVDetector(modelPath string, workers int) (*GoCVDetector, error) {
	_ = modelPath
	_ = workers
	return nil, errNoGoCV
}

// Detect возвращает ошибку, если сборка без тега gocv.
func (d *GoCVDetector) Detect(ctx context.Context, img *entity.RGB) (*entity.DetectionResult, error) {
	_ = ctx
	_ = img
	return nil, errNoGoCV
}

// Close ничего не делает.
func (d *GoCVDetector) Close() error { return nil }

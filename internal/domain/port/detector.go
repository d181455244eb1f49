package port

import (
	"context"

	"vision-detect/internal/domain/entity"
)

// ObjectDetector интерфейс детектора объектов
type ObjectDetector interface {
	// Detect находит объекты и возвращает результат с уже отрисованными рамками
	Detect(ctx context.Context, img *entity.RGB) (*entity.DetectionResult, error)
}

package app

import (
	"context"
	"errors"

	"vision-detect/internal/domain/entity"
	"vision-detect/internal/domain/port"
)

var errNoDetector = errors.New("detector is not configured")

// DetectionService связывает получение изображения и детектор. Состояния между запросами нет.
type DetectionService struct {
	resolver port.ImageResolver
	detector port.ObjectDetector
}

// NewDetectionService создаёт сервис поверх загруженной модели.
func NewDetectionService(resolver port.ImageResolver, detector port.ObjectDetector) *DetectionService {
	return &DetectionService{
		resolver: resolver,
		detector: detector,
	}
}

// Detect получает изображение и запускает модель.
// Ошибки загрузки возвращаются внутри результата, ошибка модели возвращается как *entity.InferenceError.
func (s *DetectionService) Detect(ctx context.Context, input entity.ImageInput) (*entity.DetectionOutcome, error) {
	if s.detector == nil {
		return nil, &entity.InferenceError{Err: errNoDetector}
	}

	img, err := s.resolver.Resolve(ctx, input)
	if err != nil {
		if isLoadError(err) {
			return entity.Failed(err), nil
		}
		return nil, err
	}

	result, err := s.detector.Detect(ctx, img)
	if err != nil {
		return nil, &entity.InferenceError{Err: err}
	}
	if result == nil || result.Annotated == nil {
		return nil, &entity.InferenceError{Err: errors.New("detector returned no image")}
	}

	return entity.Succeeded(result), nil
}

func isLoadError(err error) bool {
	var fe *entity.FetchError
	var de *entity.DecodeError
	return errors.As(err, &fe) || errors.As(err, &de)
}

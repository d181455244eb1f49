package port

import (
	"context"

	"vision-detect/internal/domain/entity"
)

// ImageResolver приводит входные данные запроса к RGB-изображению
type ImageResolver interface {
	// Resolve возвращает *entity.FetchError или *entity.DecodeError при ошибке загрузки
	Resolve(ctx context.Context, input entity.ImageInput) (*entity.RGB, error)
}

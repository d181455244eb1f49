package loader

import (
	"bytes"
	"context"
	"errors"

	"vision-detect/internal/domain/entity"
	"vision-detect/internal/domain/port"
)

// Resolver приводит вход запроса к RGB. Состояния между вызовами нет.
type Resolver struct {
	fetcher port.ImageFetcher
}

// NewResolver создаёт резолвер поверх загрузчика.
func NewResolver(fetcher port.ImageFetcher) *Resolver {
	return &Resolver{fetcher: fetcher}
}

// Resolve скачивает и декодирует изображение по URL либо конвертирует готовое.
func (r *Resolver) Resolve(ctx context.Context, input entity.ImageInput) (*entity.RGB, error) {
	if err := input.Validate(); err != nil {
		return nil, &entity.DecodeError{Err: err}
	}

	if !input.IsURL() {
		return entity.ToRGB(input.Raw), nil
	}

	data, err := r.fetcher.Fetch(ctx, input.URL)
	if err != nil {
		var fe *entity.FetchError
		if !errors.As(err, &fe) {
			err = &entity.FetchError{URL: input.URL, Err: err}
		}
		return nil, err
	}

	img, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return entity.ToRGB(img), nil
}

var _ port.ImageResolver = (*Resolver)(nil)

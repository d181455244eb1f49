package port

import "context"

// ImageFetcher скачивает байты изображения по ссылке
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

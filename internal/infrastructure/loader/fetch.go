package loader

import (
	"context"

	"github.com/go-resty/resty/v2"

	"vision-detect/internal/domain/entity"
	"vision-detect/internal/domain/port"
)

// HTTPFetcher скачивает изображения одним GET-запросом без повторов и таймаутов.
type HTTPFetcher struct {
	client *resty.Client
}

// NewHTTPFetcher создаёт загрузчик. Если client == nil, используется клиент по умолчанию.
func NewHTTPFetcher(client *resty.Client) *HTTPFetcher {
	if client == nil {
		client = resty.New()
	}
	return &HTTPFetcher{client: client}
}

// Fetch возвращает тело ответа или *entity.FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, &entity.FetchError{URL: url, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &entity.FetchError{URL: url, StatusCode: resp.StatusCode()}
	}
	return resp.Body(), nil
}

var _ port.ImageFetcher = (*HTTPFetcher)(nil)

package entity

import (
	"errors"
	"image"
	"strings"
)

// ImageInput хранит вход запроса: уже декодированное изображение или URL.
// Заполнен ровно один вариант.
type ImageInput struct {
	Raw image.Image
	URL string
}

// RawInput оборачивает изображение, декодированное на стороне UI.
func RawInput(img image.Image) ImageInput {
	return ImageInput{Raw: img}
}

// URLInput оборачивает ссылку на изображение.
func URLInput(url string) ImageInput {
	return ImageInput{URL: strings.TrimSpace(url)}
}

// IsURL сообщает, что вход задан ссылкой.
func (in ImageInput) IsURL() bool {
	return in.Raw == nil && in.URL != ""
}

// Validate проверяет, что заполнен ровно один вариант.
func (in ImageInput) Validate() error {
	switch {
	case in.Raw != nil && in.URL != "":
		return errors.New("both image and url are set")
	case in.Raw == nil && in.URL == "":
		return errors.New("no image provided")
	}
	return nil
}

// String используется в логах.
func (in ImageInput) String() string {
	if in.IsURL() {
		return "url:" + in.URL
	}
	if in.Raw != nil {
		return "raw"
	}
	return "empty"
}

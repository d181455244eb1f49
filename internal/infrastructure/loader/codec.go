package loader

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"vision-detect/internal/domain/entity"
)

// Format задаёт формат выходного изображения.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	WebP Format = "webp"
)

// ParseFormat разбирает имя формата из конфигурации.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "webp":
		return WebP, nil
	}
	return "", fmt.Errorf("unsupported output format: %q", s)
}

// ContentType возвращает MIME-тип формата.
func (f Format) ContentType() string {
	switch f {
	case JPEG:
		return "image/jpeg"
	case WebP:
		return "image/webp"
	}
	return "image/png"
}

// Decode разбирает JPEG, PNG, GIF, BMP, TIFF или WebP.
// Ошибка всегда *entity.DecodeError.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, &entity.DecodeError{Err: err}
	}
	return img, nil
}

// Encode пишет изображение в заданном формате. quality учитывается для JPEG и WebP.
func Encode(w io.Writer, img image.Image, format Format, quality int) error {
	switch format {
	case JPEG:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case WebP:
		return webp.Encode(w, imaging.Clone(img), &webp.Options{Quality: float32(quality)})
	default:
		return imaging.Encode(w, img, imaging.PNG)
	}
}

// EncodeBytes кодирует в память.
func EncodeBytes(img image.Image, format Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, format, quality); err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

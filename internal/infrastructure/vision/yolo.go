package vision

import (
	"fmt"
	"image"
	"math"

	"vision-detect/internal/domain/entity"
)

// Значения по умолчанию, с которыми модель отдаёт результат.
// Это встроенная постобработка модели, а не фильтрация приложения.
const (
	InputSize                 = 640
	DefaultConfidence float32 = 0.25
	DefaultIoU        float32 = 0.7
	MaxDetections             = 300

	// PadValue заполняет поля letterbox, как в ultralytics.
	PadValue = 114
	// classOffset разносит рамки разных классов перед общим NMS.
	classOffset = 7680
)

// YOLOOutput описывает выходной тензор YOLOv8 формы [1, 4+classes, anchors].
type YOLOOutput struct {
	Data    []float32
	Classes int
	Anchors int
}

// Postprocess задаёт параметры разбора выхода модели.
type Postprocess struct {
	Labels     []string
	Confidence float32
	IoU        float32
	MaxDet     int
}

// DefaultPostprocess возвращает параметры по умолчанию для COCO-модели.
func DefaultPostprocess() Postprocess {
	return Postprocess{
		Labels:     COCOLabels,
		Confidence: DefaultConfidence,
		IoU:        DefaultIoU,
		MaxDet:     MaxDetections,
	}
}

// Letterbox описывает вписывание кадра в квадрат сети с сохранением пропорций.
// Width и Height задают размер кадра после масштабирования, Left/Top/Right/Bottom поля.
type Letterbox struct {
	Scale      float64
	Width      int
	Height     int
	Left       int
	Top        int
	Right      int
	Bottom     int
	SourceSize image.Point
}

// NewLetterbox считает масштаб и поля для кадра width x height и входа size x size.
func NewLetterbox(width, height, size int) Letterbox {
	scale := math.Min(float64(size)/float64(width), float64(size)/float64(height))
	w := int(math.Round(float64(width) * scale))
	h := int(math.Round(float64(height) * scale))
	left, top := (size-w)/2, (size-h)/2
	return Letterbox{
		Scale:      scale,
		Width:      w,
		Height:     h,
		Left:       left,
		Top:        top,
		Right:      size - w - left,
		Bottom:     size - h - top,
		SourceSize: image.Pt(width, height),
	}
}

// Unmap переводит рамку из координат сети в пиксели исходного кадра.
func (l Letterbox) Unmap(x0, y0, x1, y1 float64) image.Rectangle {
	return image.Rect(
		int(math.Round((x0-float64(l.Left))/l.Scale)),
		int(math.Round((y0-float64(l.Top))/l.Scale)),
		int(math.Round((x1-float64(l.Left))/l.Scale)),
		int(math.Round((y1-float64(l.Top))/l.Scale)),
	).Intersect(image.Rectangle{Max: l.SourceSize})
}

// Candidates выбирает якоря с уверенностью не ниже порога и переводит их рамки в кадр.
// Пересечения не подавляются, это делает NMS детектора.
func (p Postprocess) Candidates(out YOLOOutput, lb Letterbox) ([]entity.Detection, error) {
	if out.Classes <= 0 || out.Anchors <= 0 {
		return nil, fmt.Errorf("invalid output shape: classes=%d anchors=%d", out.Classes, out.Anchors)
	}
	if want := (4 + out.Classes) * out.Anchors; len(out.Data) < want {
		return nil, fmt.Errorf("output too short: got %d values, want %d", len(out.Data), want)
	}

	n := out.Anchors
	candidates := make([]entity.Detection, 0, 64)

	for i := 0; i < n; i++ {
		bestClass, bestScore := 0, float32(-1)
		for c := 0; c < out.Classes; c++ {
			if s := out.Data[(4+c)*n+i]; s > bestScore {
				bestClass, bestScore = c, s
			}
		}
		if bestScore < p.Confidence {
			continue
		}

		cx, cy := float64(out.Data[i]), float64(out.Data[n+i])
		w, h := float64(out.Data[2*n+i]), float64(out.Data[3*n+i])
		box := lb.Unmap(cx-w/2, cy-h/2, cx+w/2, cy+h/2)
		if box.Empty() {
			continue
		}

		candidates = append(candidates, entity.Detection{
			ClassID:    bestClass,
			Label:      labelFor(p.Labels, bestClass),
			Confidence: bestScore,
			Box:        box,
		})
	}

	return candidates, nil
}

// ClassSeparated сдвигает рамку на classID*classOffset, чтобы NMS без учёта классов
// не подавлял пересечения объектов разных классов.
func ClassSeparated(d entity.Detection) image.Rectangle {
	off := d.ClassID * classOffset
	return d.Box.Add(image.Pt(off, off))
}

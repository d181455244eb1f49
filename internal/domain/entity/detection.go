package entity

import (
	"fmt"
	"image"
)

// Detection описывает один найденный моделью объект.
type Detection struct {
	ClassID    int             // индекс класса модели
	Label      string          // имя класса
	Confidence float32         // уверенность 0..1
	Box        image.Rectangle // рамка в пикселях исходного изображения
}

// Caption возвращает подпись для рамки, например "person 0.87".
func (d Detection) Caption() string {
	return fmt.Sprintf("%s %.2f", d.Label, d.Confidence)
}

// DetectionResult хранит итог работы детектора.
// Приложение использует только отрисованное изображение и число рамок.
type DetectionResult struct {
	Detections []Detection
	Annotated  *RGB
}

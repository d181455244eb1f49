package entity

import (
	"image"
	"image/color"
	"image/draw"
)

// RGB хранит декодированное 3-канальное изображение без альфа-канала.
// Пиксели упакованы построчно по 3 байта (R, G, B), начало координат всегда (0, 0).
type RGB struct {
	Pix    []uint8
	Stride int
	Width  int
	Height int
}

// NewRGB создаёт чёрное изображение заданного размера.
func NewRGB(width, height int) *RGB {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &RGB{
		Pix:    make([]uint8, width*height*3),
		Stride: width * 3,
		Width:  width,
		Height: height,
	}
}

// ToRGB приводит любое изображение к 3 каналам.
// Альфа отбрасывается без смешивания с фоном, оттенки серого раскладываются в R=G=B.
func ToRGB(src image.Image) *RGB {
	if m, ok := src.(*RGB); ok {
		return m.Clone()
	}

	b := src.Bounds()
	dst := NewRGB(b.Dx(), b.Dy())

	nrgba, ok := src.(*image.NRGBA)
	if !ok || nrgba.Rect.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), src, b.Min, draw.Src)
	}

	for y := 0; y < dst.Height; y++ {
		si := y * nrgba.Stride
		di := y * dst.Stride
		for x := 0; x < dst.Width; x++ {
			dst.Pix[di+0] = nrgba.Pix[si+0]
			dst.Pix[di+1] = nrgba.Pix[si+1]
			dst.Pix[di+2] = nrgba.Pix[si+2]
			si += 4
			di += 3
		}
	}
	return dst
}

// ColorModel реализует image.Image.
func (m *RGB) ColorModel() color.Model { return color.RGBAModel }

// Bounds реализует image.Image.
func (m *RGB) Bounds() image.Rectangle { return image.Rect(0, 0, m.Width, m.Height) }

// At реализует image.Image. Все пиксели непрозрачные.
func (m *RGB) At(x, y int) color.Color {
	r, g, b := m.RGBAt(x, y)
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// RGBAt возвращает каналы пикселя, вне границ нули.
func (m *RGB) RGBAt(x, y int) (r, g, b uint8) {
	if !(image.Point{X: x, Y: y}).In(m.Bounds()) {
		return 0, 0, 0
	}
	i := y*m.Stride + x*3
	return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
}

// SetRGB записывает пиксель, координаты вне границ игнорируются.
func (m *RGB) SetRGB(x, y int, r, g, b uint8) {
	if !(image.Point{X: x, Y: y}).In(m.Bounds()) {
		return
	}
	i := y*m.Stride + x*3
	m.Pix[i], m.Pix[i+1], m.Pix[i+2] = r, g, b
}

// Clone возвращает независимую копию.
func (m *RGB) Clone() *RGB {
	pix := make([]uint8, len(m.Pix))
	copy(pix, m.Pix)
	return &RGB{Pix: pix, Stride: m.Stride, Width: m.Width, Height: m.Height}
}

// Equal сравнивает изображения попиксельно.
func (m *RGB) Equal(other *RGB) bool {
	if other == nil || m.Width != other.Width || m.Height != other.Height {
		return false
	}
	for y := 0; y < m.Height; y++ {
		a := m.Pix[y*m.Stride : y*m.Stride+m.Width*3]
		b := other.Pix[y*other.Stride : y*other.Stride+other.Width*3]
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
	}
	return true
}

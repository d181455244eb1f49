package vision

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"vision-detect/internal/domain/entity"
)

// palette повторяет стандартную палитру ultralytics.
var palette = []color.RGBA{
	hex(0x042AFF), hex(0x0BDBEB), hex(0xF3F3F3), hex(0x00DFB7), hex(0x111F68),
	hex(0xFF6FDD), hex(0xFF444F), hex(0xCCED00), hex(0x00F344), hex(0xBD00FF),
	hex(0x00B4FF), hex(0xDD00BA), hex(0x00FFFF), hex(0x26C000), hex(0x01FFB3),
	hex(0x7D24FF), hex(0x7B0068), hex(0xFF1B6C), hex(0xFC6D2F), hex(0xA2FF0B),
}

func hex(v uint32) color.RGBA {
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

// ColorFor возвращает цвет рамки для класса.
func ColorFor(classID int) color.RGBA {
	if classID < 0 {
		classID = -classID
	}
	return palette[classID%len(palette)]
}

// TextColorFor подбирает цвет подписи, читаемый на фоне c.
func TextColorFor(c color.RGBA) color.RGBA {
	luma := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
	if luma > 160 {
		return color.RGBA{A: 0xff}
	}
	return color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
}

// LineWidth возвращает толщину рамки: ~0.3% от среднего размера стороны, не меньше 2.
func LineWidth(width, height int) int {
	lw := int(math.Round(float64(width+height) / 2 * 0.003))
	if lw < 2 {
		return 2
	}
	return lw
}

// Render рисует рамки и подписи на копии src. Исходное изображение не меняется.
func Render(src *entity.RGB, detections []entity.Detection) *entity.RGB {
	canvas := imaging.Clone(src)
	lw := LineWidth(src.Width, src.Height)

	for _, det := range detections {
		box := det.Box.Intersect(canvas.Bounds())
		if box.Empty() {
			continue
		}
		c := ColorFor(det.ClassID)
		strokeRect(canvas, box, c, lw)
		drawLabel(canvas, box, det.Caption(), c)
	}

	return entity.ToRGB(canvas)
}

func strokeRect(dst draw.Image, r image.Rectangle, c color.RGBA, lw int) {
	fill := image.NewUniform(c)
	sides := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+lw),
		image.Rect(r.Min.X, r.Max.Y-lw, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+lw, r.Max.Y),
		image.Rect(r.Max.X-lw, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, s := range sides {
		draw.Draw(dst, s.Intersect(r), fill, image.Point{}, draw.Src)
	}
}

// drawLabel рисует подпись над рамкой, а если места нет, то внутри у верхнего края.
func drawLabel(dst draw.Image, box image.Rectangle, text string, c color.RGBA) {
	face := basicfont.Face7x13
	metrics := face.Metrics()
	textW := font.MeasureString(face, text).Ceil()
	h := metrics.Height.Ceil() + 2

	top := box.Min.Y - h
	if top < 0 {
		top = box.Min.Y
	}
	bg := image.Rect(box.Min.X, top, box.Min.X+textW+4, top+h)
	draw.Draw(dst, bg.Intersect(dst.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)

	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(TextColorFor(c)),
		Face: face,
		Dot:  fixed.P(bg.Min.X+2, top+1+metrics.Ascent.Ceil()),
	}
	d.DrawString(text)
}

//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"vision-detect/internal/domain/entity"
	"vision-detect/internal/domain/port"
)

const (
	fontScale     = 0.5
	textThickness = 1
)

// GoCVDetector запускает YOLOv8 в формате ONNX через модуль dnn OpenCV.
// Сети загружаются один раз при старте и дальше не меняются; gocv.Net
// не потокобезопасна, поэтому каждая сеть в пуле обслуживает один запрос за раз.
type GoCVDetector struct {
	nets      chan gocv.Net
	size      int
	post      Postprocess
	InputSize int
}

// NewGoCVDetector загружает workers копий модели из modelPath.
func NewGoCVDetector(modelPath string, workers int) (*GoCVDetector, error) {
	if workers < 1 {
		workers = 1
	}

	d := &GoCVDetector{
		nets:      make(chan gocv.Net, workers),
		post:      DefaultPostprocess(),
		InputSize: InputSize,
	}

	for i := 0; i < workers; i++ {
		net := gocv.ReadNetFromONNX(modelPath)
		if net.Empty() {
			d.Close()
			return nil, fmt.Errorf("load model %s: empty network", modelPath)
		}
		if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
			net.Close()
			d.Close()
			return nil, fmt.Errorf("set backend: %w", err)
		}
		if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
			net.Close()
			d.Close()
			return nil, fmt.Errorf("set target: %w", err)
		}
		d.nets <- net
		d.size++
	}

	return d, nil
}

// Detect прогоняет изображение через сеть и рисует все найденные рамки.
func (d *GoCVDetector) Detect(ctx context.Context, img *entity.RGB) (*entity.DetectionResult, error) {
	_ = ctx
	mat, err := toMat(img)
	if err != nil {
		return nil, fmt.Errorf("image to mat: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, errors.New("empty image")
	}

	lb := NewLetterbox(img.Width, img.Height, d.InputSize)
	padded := letterbox(mat, lb)
	defer padded.Close()

	blob := gocv.BlobFromImage(padded, 1.0/255.0, image.Pt(d.InputSize, d.InputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	output, err := d.forward(blob)
	if err != nil {
		return nil, err
	}

	candidates, err := d.post.Candidates(output, lb)
	if err != nil {
		return nil, err
	}
	detections := suppress(candidates, d.post)

	annotated, err := plot(mat, detections)
	if err != nil {
		return nil, err
	}

	return &entity.DetectionResult{
		Detections: detections,
		Annotated:  annotated,
	}, nil
}

// toMat копирует пиксели в BGR Mat, как его хранит OpenCV.
func toMat(img *entity.RGB) (gocv.Mat, error) {
	bgr := make([]byte, img.Width*img.Height*3)
	for y := 0; y < img.Height; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+img.Width*3]
		dst := bgr[y*img.Width*3:]
		for i := 0; i < len(src); i += 3 {
			dst[i], dst[i+1], dst[i+2] = src[i+2], src[i+1], src[i]
		}
	}
	return gocv.NewMatFromBytes(img.Height, img.Width, gocv.MatTypeCV8UC3, bgr)
}

// letterbox вписывает кадр в квадрат сети и заполняет поля серым.
func letterbox(src gocv.Mat, lb Letterbox) gocv.Mat {
	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(src, &resized, image.Pt(lb.Width, lb.Height), 0, 0, gocv.InterpolationLinear)

	padded := gocv.NewMat()
	gocv.CopyMakeBorder(resized, &padded, lb.Top, lb.Bottom, lb.Left, lb.Right, gocv.BorderConstant,
		color.RGBA{R: PadValue, G: PadValue, B: PadValue, A: 0})
	return padded
}

// suppress оставляет самые уверенные рамки внутри каждого класса, не больше MaxDet.
func suppress(candidates []entity.Detection, p Postprocess) []entity.Detection {
	if len(candidates) == 0 {
		return nil
	}

	boxes := make([]image.Rectangle, len(candidates))
	scores := make([]float32, len(candidates))
	for i, c := range candidates {
		boxes[i] = ClassSeparated(c)
		scores[i] = c.Confidence
	}

	indices := gocv.NMSBoxes(boxes, scores, p.Confidence, p.IoU)
	if p.MaxDet > 0 && len(indices) > p.MaxDet {
		indices = indices[:p.MaxDet]
	}

	kept := make([]entity.Detection, 0, len(indices))
	for _, i := range indices {
		kept = append(kept, candidates[i])
	}
	return kept
}

// forward берёт свободную сеть из пула и копирует выход, пока Mat жив.
func (d *GoCVDetector) forward(blob gocv.Mat) (YOLOOutput, error) {
	net := <-d.nets
	defer func() { d.nets <- net }()

	net.SetInput(blob, "")
	out := net.Forward("")
	defer out.Close()

	shape := out.Size()
	if len(shape) != 3 || shape[1] <= 4 {
		return YOLOOutput{}, fmt.Errorf("unexpected output shape %v", shape)
	}

	data, err := out.DataPtrFloat32()
	if err != nil {
		return YOLOOutput{}, fmt.Errorf("read output: %w", err)
	}
	values := make([]float32, len(data))
	copy(values, data)

	return YOLOOutput{Data: values, Classes: shape[1] - 4, Anchors: shape[2]}, nil
}

// plot рисует рамки и подписи средствами OpenCV.
func plot(src gocv.Mat, detections []entity.Detection) (*entity.RGB, error) {
	canvas := src.Clone()
	defer canvas.Close()

	lw := LineWidth(src.Cols(), src.Rows())
	for _, det := range detections {
		c := ColorFor(det.ClassID)
		gocv.Rectangle(&canvas, det.Box, c, lw)

		caption := det.Caption()
		size := gocv.GetTextSize(caption, gocv.FontHersheySimplex, fontScale, textThickness)
		top := det.Box.Min.Y - size.Y - 6
		if top < 0 {
			top = det.Box.Min.Y
		}
		bg := image.Rect(det.Box.Min.X, top, det.Box.Min.X+size.X+4, top+size.Y+6)
		gocv.Rectangle(&canvas, bg, c, -1)
		gocv.PutText(&canvas, caption, image.Pt(bg.Min.X+2, bg.Max.Y-3), gocv.FontHersheySimplex, fontScale, TextColorFor(c), textThickness)
	}

	img, err := canvas.ToImage()
	if err != nil {
		return nil, err
	}
	return entity.ToRGB(img), nil
}

// Close освобождает загруженные сети. Вызывается при остановке процесса.
func (d *GoCVDetector) Close() error {
	for ; d.size > 0; d.size-- {
		net := <-d.nets
		net.Close()
	}
	return nil
}

var _ port.ObjectDetector = (*GoCVDetector)(nil)

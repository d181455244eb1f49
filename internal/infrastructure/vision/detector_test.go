//go:build gocv
// +build gocv

package vision

import (
	"context"
	"image"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"vision-detect/internal/domain/entity"
)

func TestGoCVDetector_Detect(t *testing.T) {
	modelPath := os.Getenv("MODEL_PATH")
	if modelPath == "" {
		modelPath = "../../../models/yolov8n.onnx"
	}
	if _, err := os.Stat(modelPath); err != nil {
		t.Skip("model is not available: ", modelPath)
	}

	d, err := NewGoCVDetector(modelPath, 2)
	require.NoError(t, err)
	defer d.Close()

	src := grayRGB(320, 240, 128)
	res, err := d.Detect(context.Background(), src)
	require.NoError(t, err)
	require.Equal(t, src.Bounds(), res.Annotated.Bounds())

	again, err := d.Detect(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, again.Detections, len(res.Detections))
	require.True(t, res.Annotated.Equal(again.Annotated))
}

func TestSuppress(t *testing.T) {
	candidates := []entity.Detection{
		{ClassID: 0, Confidence: 0.8, Box: image.Rect(77, 76, 127, 126)},
		{ClassID: 0, Confidence: 0.9, Box: image.Rect(75, 75, 125, 125)},
		{ClassID: 1, Confidence: 0.7, Box: image.Rect(75, 75, 125, 125)},
		{ClassID: 0, Confidence: 0.5, Box: image.Rect(300, 300, 340, 340)},
	}

	kept := suppress(candidates, DefaultPostprocess())
	require.Len(t, kept, 3)
	require.InDelta(t, 0.9, kept[0].Confidence, 1e-6)
	require.Equal(t, 1, kept[1].ClassID)
	require.Equal(t, image.Rect(300, 300, 340, 340), kept[2].Box)

	p := DefaultPostprocess()
	p.MaxDet = 1
	require.Len(t, suppress(candidates, p), 1)
	require.Empty(t, suppress(nil, p))
}

func TestLetterboxMat(t *testing.T) {
	img := entity.NewRGB(320, 160)
	mat, err := toMat(img)
	require.NoError(t, err)
	defer mat.Close()

	padded := letterbox(mat, NewLetterbox(320, 160, 640))
	defer padded.Close()

	require.Equal(t, 640, padded.Cols())
	require.Equal(t, 640, padded.Rows())
	require.Equal(t, uint8(PadValue), padded.GetVecbAt(0, 0)[0])
	require.Equal(t, uint8(0), padded.GetVecbAt(320, 320)[0])
}

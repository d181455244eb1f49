package app

import (
	"context"
	"errors"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"vision-detect/internal/domain/entity"
	"vision-detect/internal/infrastructure/loader"
	"vision-detect/internal/infrastructure/vision"
)

// fakeDetector находит одну рамку в центре и рисует её обычным рендером.
type fakeDetector struct {
	calls atomic.Int32
	err   error
}

func (f *fakeDetector) Detect(ctx context.Context, img *entity.RGB) (*entity.DetectionResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	w, h := img.Width, img.Height
	dets := []entity.Detection{{
		ClassID:    0,
		Label:      "person",
		Confidence: 0.9,
		Box:        image.Rect(w/4, h/4, w*3/4, h*3/4),
	}}
	return &entity.DetectionResult{Detections: dets, Annotated: vision.Render(img, dets)}, nil
}

func newService(d *fakeDetector) *DetectionService {
	return NewDetectionService(loader.NewResolver(loader.NewHTTPFetcher(nil)), d)
}

func sampleImage() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 4), G: uint8(y * 5), B: 90, A: 255})
		}
	}
	return img
}

func TestDetectionService_RawImage(t *testing.T) {
	det := &fakeDetector{}
	out, err := newService(det).Detect(context.Background(), entity.RawInput(sampleImage()))

	require.NoError(t, err)
	require.True(t, out.OK())
	require.Equal(t, 1, out.Detections)
	require.Equal(t, image.Rect(0, 0, 64, 48), out.Annotated.Bounds())
	require.Empty(t, out.Message())
}

func TestDetectionService_Idempotent(t *testing.T) {
	svc := newService(&fakeDetector{})
	input := entity.RawInput(sampleImage())

	first, err := svc.Detect(context.Background(), input)
	require.NoError(t, err)
	second, err := svc.Detect(context.Background(), input)
	require.NoError(t, err)

	require.True(t, first.Annotated.Equal(second.Annotated))
}

func TestDetectionService_LoadFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/page.html" {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><body>hello</body></html>"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	det := &fakeDetector{}
	svc := newService(det)

	for _, path := range []string{"/missing.png", "/page.html"} {
		out, err := svc.Detect(context.Background(), entity.URLInput(srv.URL+path))
		require.NoError(t, err, path)
		require.False(t, out.OK(), path)
		require.Nil(t, out.Annotated, path)
		require.True(t, strings.HasPrefix(out.Message(), "Error loading image: "), out.Message())
	}
	require.Zero(t, det.calls.Load(), "detector must not run on load failure")
}

func TestDetectionService_InferenceFailure(t *testing.T) {
	det := &fakeDetector{err: errors.New("out of memory")}
	out, err := newService(det).Detect(context.Background(), entity.RawInput(sampleImage()))

	require.Nil(t, out)
	var ie *entity.InferenceError
	require.True(t, errors.As(err, &ie))
	require.Contains(t, err.Error(), "out of memory")
}

func TestDetectionService_NoDetector(t *testing.T) {
	svc := NewDetectionService(loader.NewResolver(loader.NewHTTPFetcher(nil)), nil)
	_, err := svc.Detect(context.Background(), entity.RawInput(sampleImage()))
	require.Error(t, err)
}

func TestDetectionService_EmptyInput(t *testing.T) {
	out, err := newService(&fakeDetector{}).Detect(context.Background(), entity.ImageInput{})
	require.NoError(t, err)
	require.False(t, out.OK())
}

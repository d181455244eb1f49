package vision

import (
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newInferenceServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()

		img, err := png.Decode(file)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}

		b := img.Bounds()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"detections": []map[string]any{
				{"x": 2, "y": 3, "width": 10, "height": 8, "class": "cat", "confidence": 0.91},
				{"x": b.Dx() - 4, "y": 0, "width": 50, "height": 50, "class": "drone", "confidence": 0.4},
			},
		})
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRemoteDetector_Detect(t *testing.T) {
	srv := newInferenceServer(t, http.StatusOK)
	d := NewRemoteDetector(srv.URL+"/predict", nil)
	src := grayRGB(40, 30, 50)

	res, err := d.Detect(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, res.Detections, 2)

	cat := res.Detections[0]
	require.Equal(t, 15, cat.ClassID)
	require.Equal(t, image.Rect(2, 3, 12, 11), cat.Box)

	unknown := res.Detections[1]
	require.Equal(t, -1, unknown.ClassID)
	require.Equal(t, "drone", unknown.Label)
	require.Equal(t, image.Rect(36, 0, 40, 30), unknown.Box)

	require.Equal(t, src.Bounds(), res.Annotated.Bounds())
	require.False(t, res.Annotated.Equal(src))
}

func TestRemoteDetector_Status(t *testing.T) {
	srv := newInferenceServer(t, http.StatusServiceUnavailable)
	d := NewRemoteDetector(srv.URL+"/predict", nil)

	_, err := d.Detect(context.Background(), grayRGB(8, 8, 0))
	require.EqualError(t, err, "inference failed with status: 503")
	require.Error(t, d.CheckHealth(context.Background()))
}

func TestRemoteDetector_CheckHealth(t *testing.T) {
	srv := newInferenceServer(t, http.StatusOK)
	d := NewRemoteDetector(srv.URL+"/predict?v=1", nil)
	require.NoError(t, d.CheckHealth(context.Background()))
}

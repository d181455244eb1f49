package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"net/url"

	"github.com/disintegration/imaging"
	"github.com/go-resty/resty/v2"

	"vision-detect/internal/domain/entity"
	"vision-detect/internal/domain/port"
)

// RemoteDetector отправляет изображение во внешний inference-сервис
// и рисует полученные рамки сам.
type RemoteDetector struct {
	client       *resty.Client
	inferenceURL string
	labels       []string
}

type remoteDetection struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Class      string  `json:"class"`
	ClassID    *int    `json:"class_id,omitempty"`
	Confidence float32 `json:"confidence"`
}

type remoteResponse struct {
	Detections []remoteDetection `json:"detections"`
}

// NewRemoteDetector создаёт адаптер к сервису по адресу inferenceURL.
func NewRemoteDetector(inferenceURL string, client *resty.Client) *RemoteDetector {
	if client == nil {
		client = resty.New()
	}
	return &RemoteDetector{
		client:       client,
		inferenceURL: inferenceURL,
		labels:       COCOLabels,
	}
}

// Detect выполняет inference через внешний сервис.
func (d *RemoteDetector) Detect(ctx context.Context, img *entity.RGB) (*entity.DetectionResult, error) {
	var body bytes.Buffer
	if err := imaging.Encode(&body, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetFileReader("file", "image.png", &body).
		Post(d.inferenceURL)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("inference failed with status: %d", resp.StatusCode())
	}

	var out remoteResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	detections := d.toDetections(out.Detections, img.Bounds())
	return &entity.DetectionResult{
		Detections: detections,
		Annotated:  Render(img, detections),
	}, nil
}

func (d *RemoteDetector) toDetections(raw []remoteDetection, bounds image.Rectangle) []entity.Detection {
	detections := make([]entity.Detection, 0, len(raw))
	for _, r := range raw {
		classID := classIDFor(d.labels, r.Class)
		if r.ClassID != nil {
			classID = *r.ClassID
		}
		label := r.Class
		if label == "" {
			label = labelFor(d.labels, classID)
		}
		detections = append(detections, entity.Detection{
			ClassID:    classID,
			Label:      label,
			Confidence: r.Confidence,
			Box:        image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height).Intersect(bounds),
		})
	}
	return detections
}

// CheckHealth проверяет доступность сервиса по пути /health на том же хосте.
func (d *RemoteDetector) CheckHealth(ctx context.Context) error {
	u, err := url.Parse(d.inferenceURL)
	if err != nil {
		return fmt.Errorf("parse inference url: %w", err)
	}
	u.Path, u.RawQuery = "/health", ""

	resp, err := d.client.R().SetContext(ctx).Get(u.String())
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("ml service unhealthy: %d", resp.StatusCode())
	}
	return nil
}

var _ port.ObjectDetector = (*RemoteDetector)(nil)

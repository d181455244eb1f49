package container

import (
	app "vision-detect/internal/application"
	"vision-detect/internal/domain/port"
	"vision-detect/internal/infrastructure/loader"
)

type Container struct {
	DetectionService *app.DetectionService
}

func New(fetcher port.ImageFetcher, detector port.ObjectDetector) *Container {
	if fetcher == nil {
		fetcher = loader.NewHTTPFetcher(nil)
	}
	detectionService := app.NewDetectionService(loader.NewResolver(fetcher), detector)

	return &Container{
		DetectionService: detectionService,
	}
}

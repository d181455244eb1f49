package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"vision-detect/internal/domain/entity"
	"vision-detect/internal/infrastructure/loader"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Detector описывает сценарий распознавания для веб-интерфейса.
type Detector interface {
	Detect(ctx context.Context, input entity.ImageInput) (*entity.DetectionOutcome, error)
}

// Server отдаёт страницу с двумя вкладками и JSON/бинарный API.
type Server struct {
	detector Detector
	format   loader.Format
	quality  int
}

// NewServer создаёт сервер. Результат кодируется в format с качеством quality.
func NewServer(detector Detector, format loader.Format, quality int) *Server {
	return &Server{
		detector: detector,
		format:   format,
		quality:  quality,
	}
}

// Router собирает gin.Engine со всеми маршрутами.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	router.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))

	router.GET("/", s.index)
	router.POST("/detect/upload", s.detectUpload)
	router.POST("/detect/url", s.detectURL)
	router.POST("/api/v1/detect", s.apiDetect)
	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return router
}

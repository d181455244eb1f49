package web

import (
	"encoding/base64"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"vision-detect/internal/domain/entity"
	"vision-detect/internal/infrastructure/loader"
)

const (
	tabUpload = "upload"
	tabURL    = "url"

	msgInternal = "Couldn't process image - please try again later"
)

// page содержит данные шаблона index.html.
type page struct {
	Tab        string
	URL        string
	Image      template.URL
	Detections int
	Message    string
}

func (s *Server) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", page{Tab: tabUpload})
}

func (s *Server) detectUpload(c *gin.Context) {
	input, failure := uploadInput(c)
	p := page{Tab: tabUpload}
	if failure != nil {
		p.Message = failure.Message()
		c.HTML(http.StatusOK, "index.html", p)
		return
	}
	s.renderPage(c, input, p)
}

func (s *Server) detectURL(c *gin.Context) {
	raw := c.PostForm("url")
	s.renderPage(c, entity.URLInput(raw), page{Tab: tabURL, URL: raw})
}

// renderPage запускает распознавание и показывает результат в той же вкладке.
func (s *Server) renderPage(c *gin.Context, input entity.ImageInput, p page) {
	outcome, ok := s.detect(c, input)
	if !ok {
		p.Message = msgInternal
		c.HTML(http.StatusInternalServerError, "index.html", p)
		return
	}
	if !outcome.OK() {
		p.Message = outcome.Message()
		c.HTML(http.StatusOK, "index.html", p)
		return
	}

	data, err := loader.EncodeBytes(outcome.Annotated, s.format, s.quality)
	if err != nil {
		_ = c.Error(err)
		p.Message = msgInternal
		c.HTML(http.StatusInternalServerError, "index.html", p)
		return
	}

	p.Image = template.URL("data:" + s.format.ContentType() + ";base64," + base64.StdEncoding.EncodeToString(data))
	p.Detections = outcome.Detections
	c.HTML(http.StatusOK, "index.html", p)
}

type detectRequest struct {
	URL string `json:"url" form:"url"`
}

// apiDetect принимает multipart-поле image, поле формы url или JSON {"url": "..."}
// и отвечает размеченным изображением.
func (s *Server) apiDetect(c *gin.Context) {
	var input entity.ImageInput

	if strings.HasPrefix(c.ContentType(), "application/json") {
		var req detectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed request"})
			return
		}
		input = entity.URLInput(req.URL)
	} else if _, err := c.FormFile("image"); err == nil {
		var failure *entity.DetectionOutcome
		if input, failure = uploadInput(c); failure != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": failure.Message()})
			return
		}
	} else {
		input = entity.URLInput(c.PostForm("url"))
	}

	outcome, ok := s.detect(c, input)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
		return
	}
	if !outcome.OK() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": outcome.Message()})
		return
	}

	data, err := loader.EncodeBytes(outcome.Annotated, s.format, s.quality)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
		return
	}

	c.Header("X-Detections", strconv.Itoa(outcome.Detections))
	c.Data(http.StatusOK, s.format.ContentType(), data)
}

// detect вызывает сервис; false означает ошибку модели, уже записанную в c.Errors.
func (s *Server) detect(c *gin.Context, input entity.ImageInput) (*entity.DetectionOutcome, bool) {
	c.Set("input", input.String())

	outcome, err := s.detector.Detect(c.Request.Context(), input)
	if err != nil {
		_ = c.Error(err)
		return nil, false
	}
	if outcome.OK() {
		c.Set("detections", outcome.Detections)
	}
	return outcome, true
}

// uploadInput декодирует загруженный файл. Ошибка возвращается как готовый результат.
func uploadInput(c *gin.Context) (entity.ImageInput, *entity.DetectionOutcome) {
	header, err := c.FormFile("image")
	if err != nil {
		return entity.ImageInput{}, entity.Failed(&entity.DecodeError{Err: err})
	}
	file, err := header.Open()
	if err != nil {
		return entity.ImageInput{}, entity.Failed(&entity.DecodeError{Err: err})
	}
	defer file.Close()

	img, err := loader.Decode(file)
	if err != nil {
		return entity.ImageInput{}, entity.Failed(err)
	}
	return entity.RawInput(img), nil
}

package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"vision-detect/internal/domain/entity"
	"vision-detect/internal/infrastructure/loader"
)

const (
	msgStart = `👋 Привет! Я бот для поиска объектов на фотографиях.

📸 Отправьте мне фото или ссылку на изображение, и я отмечу на нём всё, что узнаю.

📋 Команды:
/help — справка`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте фото или ссылку на картинку (http/https)
2️⃣ Бот прогонит изображение через модель YOLOv8
3️⃣ Вы получите фото с рамками и подписями классов

💡 Модель знает 80 классов COCO: люди, животные, транспорт, мебель и т.д.`

	msgSendPhoto       = "📸 Пожалуйста, отправьте фото или ссылку на изображение."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Обрабатываю изображение..."
	msgProcessingError = "⚠️ Не удалось обработать изображение. Попробуйте позже."
	msgFound           = "Найдено объектов: %d"
)

// Detector описывает сценарий распознавания, который нужен боту.
type Detector interface {
	Detect(ctx context.Context, input entity.ImageInput) (*entity.DetectionOutcome, error)
}

// botAPI содержит методы tgbotapi.BotAPI, которые использует бот.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot представляет Telegram-бота
type Bot struct {
	api      botAPI
	client   *resty.Client
	detector Detector
	quality  int
}

// NewBot создаёт нового бота
func NewBot(token string, detector Detector, quality int) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.WithField("account", api.Self.UserName).Info("[Telegram] Authorized")

	return newBot(api, detector, quality), nil
}

func newBot(api botAPI, detector Detector, quality int) *Bot {
	return &Bot{
		api:      api,
		client:   resty.New(),
		detector: detector,
		quality:  quality,
	}
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(msg)
		return
	}

	// Обработка фото
	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg)
		return
	}

	if link, ok := parseLink(msg.Text); ok {
		b.detect(ctx, msg.Chat.ID, entity.URLInput(link))
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.sendMessage(msg.Chat.ID, msgStart)
	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)
	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}
}

// handlePhoto обрабатывает входящее фото
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	// Получаем файл с максимальным разрешением
	photo := msg.Photo[len(msg.Photo)-1]

	imageData, err := b.downloadFile(ctx, photo.FileID)
	if err != nil {
		log.WithError(err).WithField("file_id", photo.FileID).Error("[Telegram] Error downloading photo")
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}

	img, err := loader.Decode(bytes.NewReader(imageData))
	if err != nil {
		b.sendMessage(msg.Chat.ID, entity.Failed(err).Message())
		return
	}

	b.detect(ctx, msg.Chat.ID, entity.RawInput(img))
}

// downloadFile скачивает файл из Telegram.
// Ссылка на файл содержит токен бота, поэтому в ошибки она не попадает.
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, errors.New("get file link failed")
	}

	resp, err := b.client.R().SetContext(ctx).Get(fileURL)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return nil, fmt.Errorf("download file: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("download file: unexpected status %d", resp.StatusCode())
	}

	return resp.Body(), nil
}

// detect запускает распознавание и отвечает размеченным фото
func (b *Bot) detect(ctx context.Context, chatID int64, input entity.ImageInput) {
	b.sendMessage(chatID, msgProcessing)

	outcome, err := b.detector.Detect(ctx, input)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("[Telegram] Detection failed")
		b.sendMessage(chatID, msgProcessingError)
		return
	}
	if !outcome.OK() {
		b.sendMessage(chatID, outcome.Message())
		return
	}

	data, err := loader.EncodeBytes(outcome.Annotated, loader.JPEG, b.quality)
	if err != nil {
		log.WithError(err).Error("[Telegram] Couldn't encode result")
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	reply := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "detections.jpg", Bytes: data})
	reply.Caption = fmt.Sprintf(msgFound, outcome.Detections)
	if _, err := b.api.Send(reply); err != nil {
		log.WithError(err).Error("[Telegram] Error sending photo")
	}
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).Error("[Telegram] Error sending message")
	}
}

// parseLink принимает только абсолютные http(s) ссылки.
func parseLink(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" || strings.ContainsAny(text, " \n\t") {
		return "", false
	}
	u, err := url.Parse(text)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}
	return text, true
}

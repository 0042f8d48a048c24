package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mdobak/go-xerrors"

	app "wall-inspector/internal/application"
	"wall-inspector/internal/domain/entity"
)

const historyLimit = 5

// Bot представляет Telegram-бота
type Bot struct {
	api         *tgbotapi.BotAPI
	inspections *app.InspectionService
	text        entity.UIText
	downloadAs  string
	maxBytes    int64
	logger      *slog.Logger
}

// NewBot создаёт нового бота
func NewBot(token string, inspections *app.InspectionService, maxBytes int64, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "telegram")
	logger.Info("authorized on account", slog.String("username", api.Self.UserName))

	profile := inspections.Profile()
	return &Bot{
		api:         api,
		inspections: inspections,
		text:        profile.Text,
		downloadAs:  profile.DownloadName,
		maxBytes:    maxBytes,
		logger:      logger,
	}, nil
}

// Run запускает основной цикл обработки сообщений до отмены контекста
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
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	// Обработка фото
	if len(msg.Photo) > 0 {
		photo := msg.Photo[len(msg.Photo)-1]
		b.handleImage(ctx, msg, photo.FileID, "", int64(photo.FileSize))
		return
	}

	// Изображение, отправленное файлом, без сжатия
	if msg.Document != nil {
		b.handleImage(ctx, msg, msg.Document.FileID, msg.Document.FileName, int64(msg.Document.FileSize))
		return
	}

	// Текстовое сообщение (не команда)
	b.sendMessage(msg.Chat.ID, b.text.SendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.sendMessage(msg.Chat.ID, b.text.Start)

	case "help":
		b.sendMessage(msg.Chat.ID, b.text.Help)

	case "check":
		session, err := b.inspections.Status(ctx, sessionID(msg.Chat.ID))
		if err != nil {
			b.logger.ErrorContext(ctx, "failed to load session", slog.Any("error", xerrors.New(err)))
		}
		if session != nil && session.Busy() {
			b.sendMessage(msg.Chat.ID, b.text.Busy)
			return
		}
		b.sendMessage(msg.Chat.ID, b.text.SendPhoto)

	case "cancel":
		if _, err := b.inspections.Cancel(ctx, sessionID(msg.Chat.ID)); err != nil {
			b.logger.ErrorContext(ctx, "failed to reset session", slog.Any("error", xerrors.New(err)))
		}
		b.sendMessage(msg.Chat.ID, b.text.Cancelled)

	case "history":
		records, err := b.inspections.History(ctx, sessionID(msg.Chat.ID), historyLimit)
		if errors.Is(err, app.ErrJournalDisabled) {
			b.sendMessage(msg.Chat.ID, b.text.HistoryOff)
			return
		}
		if err != nil {
			b.logger.ErrorContext(ctx, "failed to load history", slog.Any("error", xerrors.New(err)))
			b.sendMessage(msg.Chat.ID, b.text.HistoryOff)
			return
		}
		b.sendMessage(msg.Chat.ID, FormatHistory(records, b.text))

	default:
		b.sendMessage(msg.Chat.ID, b.text.UnknownCommand)
	}
}

// handleImage скачивает изображение и прогоняет его через конвейер
func (b *Bot) handleImage(ctx context.Context, msg *tgbotapi.Message, fileID, filename string, size int64) {
	chatID := msg.Chat.ID
	if b.maxBytes > 0 && size > b.maxBytes {
		b.sendMessage(chatID, b.text.InvalidImage)
		return
	}

	b.sendMessage(chatID, b.text.Processing)

	imageData, err := b.downloadFile(ctx, fileID)
	if err != nil {
		b.logger.ErrorContext(ctx, "failed to download file", slog.Any("error", xerrors.New(err)))
		b.sendMessage(chatID, b.text.DetectorFailed)
		return
	}

	model, err := b.inspections.Inspect(ctx, sessionID(chatID), app.UploadRequest{Filename: filename, Data: imageData})
	if err != nil {
		b.logger.WarnContext(ctx, "inspection failed",
			slog.Int64("chat_id", chatID),
			slog.Any("error", xerrors.New(err)),
		)
		b.sendMessage(chatID, errorMessage(err, b.text))
		return
	}

	if !model.HasDownload() {
		b.sendMessage(chatID, model.Message)
		return
	}

	b.sendMessage(chatID, FormatFindings(model))
	b.sendHTML(chatID, FormatReport(model, b.text))

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: b.downloadAs, Bytes: model.Annotated})
	photo.Caption = b.text.ResultCaption
	b.send(photo)

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: b.downloadAs, Bytes: model.Annotated})
	doc.Caption = b.text.DownloadButton
	b.send(doc)
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %d", resp.StatusCode)
	}

	reader := io.Reader(resp.Body)
	if b.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, b.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if b.maxBytes > 0 && int64(len(data)) > b.maxBytes {
		return nil, fmt.Errorf("file exceeds %d bytes", b.maxBytes)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendHTML(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	b.send(msg)
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.logger.Error("failed to send message", slog.Any("error", xerrors.New(err)))
	}
}

func sessionID(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

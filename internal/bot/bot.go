package bot

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/akulov/checkup-bot/internal/config"
	"github.com/akulov/checkup-bot/internal/domain"
	"github.com/akulov/checkup-bot/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot adapts Telegram updates to engine events and delivers the engine's
// outbound messages. It also implements service.FileStore by downloading
// validated attachments into the upload directory.
type Bot struct {
	api     *tgbotapi.BotAPI
	service *service.CheckupService
	config  *config.Config
}

// New creates a new Bot instance
func New(token string, svc *service.CheckupService, cfg *config.Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	return &Bot{
		api:     api,
		service: svc,
		config:  cfg,
	}, nil
}

// SetService attaches the engine after construction. The engine needs the
// bot as its FileStore, so the two are wired in this order by main.
func (b *Bot) SetService(svc *service.CheckupService) {
	b.service = svc
}

// Start starts the bot
func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	if b.config.SessionTTL > 0 {
		go b.purgeIdleRoutine()
	}

	for update := range updates {
		if update.Message != nil {
			b.handleMessage(update.Message)
		}
	}

	return nil
}

// purgeIdleRoutine drops sessions idle for longer than the configured TTL
// and tells the affected users their request expired.
func (b *Bot) purgeIdleRoutine() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		for _, userID := range b.service.PurgeIdleSessions(b.config.SessionTTL) {
			b.sendText(userID, "⏳ Сессия истекла, запрос не был отправлен. Нажмите /start чтобы начать заново.")
		}
	}
}

// handleMessage converts one Telegram message into an engine event
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	b.registerUser(message.From)

	ev := service.Event{
		UserID:   message.From.ID,
		Username: message.From.UserName,
		FullName: strings.TrimSpace(message.From.FirstName + " " + message.From.LastName),
	}

	switch {
	case message.IsCommand():
		if message.Command() == "help" {
			b.handleHelp(message)
			return
		}
		ev.Kind = service.EventCommand
		ev.Command = message.Command()
		ev.Text = message.CommandArguments()

	case message.Document != nil:
		doc := message.Document
		name := doc.FileName
		if name == "" {
			name = "doc_" + doc.FileUniqueID
		}
		ev.Kind = service.EventFile
		ev.File = &domain.FileMeta{
			FileID:   doc.FileID,
			Name:     name,
			MimeType: doc.MimeType,
			Size:     int64(doc.FileSize),
		}

	case len(message.Photo) > 0:
		// Telegram sends several sizes of the same photo, keep the largest
		photo := message.Photo[len(message.Photo)-1]
		ev.Kind = service.EventFile
		ev.File = &domain.FileMeta{
			FileID:   photo.FileID,
			Name:     "photo_" + photo.FileUniqueID + ".jpg",
			MimeType: "image/jpeg",
			Size:     int64(photo.FileSize),
		}

	default:
		ev.Kind = service.EventText
		ev.Text = message.Text
	}

	b.deliver(b.service.HandleEvent(context.Background(), ev))
}

// deliver sends the engine's outbound messages through the Telegram API
func (b *Bot) deliver(outs []service.Outbound) {
	for _, out := range outs {
		if out.Text != "" {
			msg := tgbotapi.NewMessage(out.ChatID, out.Text)
			msg.ParseMode = "Markdown"
			if len(out.Options) > 0 {
				msg.ReplyMarkup = replyKeyboard(out.Options)
			} else {
				msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
			}
			if _, err := b.api.Send(msg); err != nil {
				log.Printf("Error sending message to %d: %v", out.ChatID, err)
			}
		}

		for _, path := range out.FilePaths {
			b.sendStoredFile(out.ChatID, path)
		}

		if out.Document != nil {
			doc := tgbotapi.NewDocument(out.ChatID, tgbotapi.FileBytes{
				Name:  out.Document.Name,
				Bytes: out.Document.Data,
			})
			if _, err := b.api.Send(doc); err != nil {
				log.Printf("Error sending document to %d: %v", out.ChatID, err)
			}
		}
	}
}

func replyKeyboard(options []string) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for _, opt := range options {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(opt)))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("Отмена")))
	return tgbotapi.NewReplyKeyboard(rows...)
}

// sendStoredFile forwards a stored upload: PDFs go as documents,
// everything else as photos, matching what the form accepts.
func (b *Bot) sendStoredFile(chatID int64, path string) {
	var c tgbotapi.Chattable
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		c = tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	} else {
		c = tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(path))
	}
	if _, err := b.api.Send(c); err != nil {
		log.Printf("Error sending stored file %s to %d: %v", path, chatID, err)
	}
}

// Save implements service.FileStore: it downloads the attachment payload and
// returns the stored path the submission will reference.
func (b *Bot) Save(userID int64, meta domain.FileMeta) (string, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: meta.FileID})
	if err != nil {
		return "", fmt.Errorf("failed to resolve file %s: %w", meta.FileID, err)
	}

	resp, err := http.Get(file.Link(b.api.Token))
	if err != nil {
		return "", fmt.Errorf("failed to download file %s: %w", meta.FileID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download file %s: status %s", meta.FileID, resp.Status)
	}

	name := fmt.Sprintf("%s_%s", time.Now().UTC().Format("20060102150405"), filepath.Base(meta.Name))
	dest := filepath.Join(b.config.UploadDir, name)

	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("failed to write %s: %w", dest, err)
	}

	return dest, nil
}

// handleHelp shows help information
func (b *Bot) handleHelp(message *tgbotapi.Message) {
	text := `*Бот проверки объектов недвижимости - Помощь*

*Команды:*
/start - Создать новый запрос на проверку объекта
/cancel - Отменить текущий запрос
/report - Отчёт по заявкам за период (только для эксперта)
/help - Показать помощь

*Как это работает:*
1. Нажмите /start
2. Ответьте на вопросы по очереди: адрес, кадастровый номер, тип объекта, площадь, документы
3. Готовый запрос автоматически уйдёт эксперту

Необязательные шаги можно пропустить, написав "нет".`

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ParseMode = "Markdown"

	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending help: %v", err)
	}
}

// registerUser registers or updates a user
func (b *Bot) registerUser(user *tgbotapi.User) {
	username := user.UserName
	if username == "" {
		username = fmt.Sprintf("user%d", user.ID)
	}

	if err := b.service.RegisterUser(user.ID, username, user.FirstName, user.LastName); err != nil {
		log.Printf("Error registering user %d: %v", user.ID, err)
	}
}

// sendText sends a simple text message
func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

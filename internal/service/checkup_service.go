package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/akulov/checkup-bot/internal/domain"
	"github.com/akulov/checkup-bot/internal/session"
	"github.com/akulov/checkup-bot/internal/validate"
)

// CheckupService drives the checkup conversation: it looks up the user's
// session, validates answers, advances the state machine and, on completion,
// persists the submission and emits the reviewer summary.
type CheckupService struct {
	form        []domain.Field
	sessions    *session.Store
	submissions domain.SubmissionRepository
	users       domain.UserRepository
	files       FileStore
	reports     *ReportService
	clock       Clock
	idgen       IDGenerator
	reviewerID  int64
	defaultDays int
}

// NewCheckupService creates a new CheckupService with the provided dependencies
func NewCheckupService(
	form []domain.Field,
	sessions *session.Store,
	submissions domain.SubmissionRepository,
	users domain.UserRepository,
	files FileStore,
	reports *ReportService,
	clock Clock,
	idgen IDGenerator,
	reviewerID int64,
	defaultDays int,
) *CheckupService {
	return &CheckupService{
		form:        form,
		sessions:    sessions,
		submissions: submissions,
		users:       users,
		files:       files,
		reports:     reports,
		clock:       clock,
		idgen:       idgen,
		reviewerID:  reviewerID,
		defaultDays: defaultDays,
	}
}

// RegisterUser registers a new user or updates an existing one
func (s *CheckupService) RegisterUser(id int64, username, firstName, lastName string) error {
	user := &domain.User{
		ID:        id,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
	}
	if err := s.users.Upsert(user); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}

// PurgeIdleSessions drops sessions idle for longer than ttl and returns the
// affected user ids so the transport can notify them.
func (s *CheckupService) PurgeIdleSessions(ttl time.Duration) []int64 {
	return s.sessions.PurgeIdle(ttl, s.clock.Now())
}

// HandleEvent processes one inbound event for a user. All work for the same
// user id runs serialized through the session store, so near-simultaneous
// messages can never advance the same state twice.
func (s *CheckupService) HandleEvent(ctx context.Context, ev Event) []Outbound {
	var out []Outbound
	s.sessions.Do(ev.UserID, func(sess *domain.Session) *domain.Session {
		next, msgs := s.handle(ctx, sess, ev)
		out = msgs
		return next
	})
	return out
}

func (s *CheckupService) handle(ctx context.Context, sess *domain.Session, ev Event) (*domain.Session, []Outbound) {
	var out []Outbound

	// A parked submission write is retried before anything else, so a
	// storage outage never costs the user their answers.
	if sess != nil && sess.PendingSubmission != nil {
		sub := sess.PendingSubmission
		if err := s.submissions.Insert(sub); err != nil {
			log.Printf("Retrying submission %s for user %d: %v", sub.ID, ev.UserID, err)
			return sess, []Outbound{{ChatID: ev.UserID, Text: msgStorageRetry}}
		}
		out = append(out, s.delivered(sub)...)
		sess = nil
	}

	if ev.Kind == EventCommand {
		next, msgs := s.handleCommand(ctx, sess, ev)
		return next, append(out, msgs...)
	}

	// Keyboard shortcuts mirror the slash commands
	if ev.Kind == EventText {
		t := strings.TrimSpace(ev.Text)
		if isStartText(t) {
			next, msgs := s.startSession(ev)
			return next, append(out, msgs...)
		}
		if isCancelText(t) {
			next, msgs := s.cancelSession(ctx, sess, ev.UserID)
			return next, append(out, msgs...)
		}
	}

	if sess == nil {
		// The referenced conversation no longer exists: offer a restart
		// instead of failing (implicit handling of domain.ErrNoSession).
		return nil, append(out, Outbound{ChatID: ev.UserID, Text: msgNoSession})
	}

	field, ok := sess.Current()
	if !ok {
		log.Printf("Session for user %d is in a terminal state, dropping it", ev.UserID)
		return nil, append(out, Outbound{ChatID: ev.UserID, Text: msgNoSession})
	}
	sess.Touch(s.clock.Now())

	next, msgs := s.answer(ctx, sess, field, ev)
	return next, append(out, msgs...)
}

func (s *CheckupService) handleCommand(ctx context.Context, sess *domain.Session, ev Event) (*domain.Session, []Outbound) {
	switch ev.Command {
	case CommandStart:
		return s.startSession(ev)
	case CommandCancel:
		return s.cancelSession(ctx, sess, ev.UserID)
	case CommandReport:
		return sess, s.handleReport(ev)
	default:
		return sess, []Outbound{{ChatID: ev.UserID, Text: "Неизвестная команда. Используйте /help чтобы узнать больше"}}
	}
}

// startSession begins a new conversation, replacing any session in progress.
func (s *CheckupService) startSession(ev Event) (*domain.Session, []Outbound) {
	sess := domain.NewSession(ev.UserID, ev.Username, ev.FullName, s.form, s.clock.Now())
	field, _ := sess.Current()
	return sess, []Outbound{s.prompt(ev.UserID, field)}
}

func (s *CheckupService) cancelSession(ctx context.Context, sess *domain.Session, userID int64) (*domain.Session, []Outbound) {
	if sess == nil {
		return nil, []Outbound{{ChatID: userID, Text: "Нечего отменять. Нажмите /start чтобы создать запрос."}}
	}
	if err := sess.Cancel(ctx); err != nil {
		log.Printf("Error cancelling session for user %d: %v", userID, err)
	}
	return nil, []Outbound{{ChatID: userID, Text: "Операция отменена. Если нужно — начните заново: /start."}}
}

// answer applies one user answer to the current field.
func (s *CheckupService) answer(ctx context.Context, sess *domain.Session, field domain.Field, ev Event) (*domain.Session, []Outbound) {
	trimmed := strings.TrimSpace(ev.Text)

	if ev.File == nil && field.Optional && isSkipText(trimmed) {
		// Optional file fields may only be skipped before the first upload
		if field.Kind != domain.KindFile || len(sess.Files) == 0 {
			return s.advance(ctx, sess, field, domain.Value{Kind: field.Kind})
		}
	}

	if field.Kind == domain.KindFile && ev.File == nil && isDoneText(trimmed) {
		if len(sess.Files) == 0 {
			if field.Optional {
				return s.advance(ctx, sess, field, domain.Value{Kind: domain.KindFile})
			}
			return sess, []Outbound{{ChatID: sess.UserID, Text: "Пришлите хотя бы один файл (PDF/JPG/PNG)."}}
		}
		v := domain.Value{Kind: domain.KindFile, Text: strings.Join(sess.Files, "\n")}
		return s.advance(ctx, sess, field, v)
	}

	val, err := validate.Check(field, validate.Input{Text: ev.Text, File: ev.File})
	if err != nil {
		var verr *validate.Error
		msg := "Не получилось обработать ответ. Попробуйте ещё раз."
		if errors.As(err, &verr) {
			msg = verr.Message
		}
		reprompt := s.prompt(sess.UserID, field)
		reprompt.Text = msg + "\n\n" + reprompt.Text
		return sess, []Outbound{reprompt}
	}

	if field.Kind == domain.KindFile {
		ref, err := s.files.Save(sess.UserID, *ev.File)
		if err != nil {
			log.Printf("Error storing file for user %d: %v", sess.UserID, err)
			return sess, []Outbound{{ChatID: sess.UserID, Text: "Не удалось сохранить файл. Попробуйте ещё раз."}}
		}
		sess.Files = append(sess.Files, ref)
		text := fmt.Sprintf("Файл %s сохранён. Отправьте ещё файлы или \"готово\" если закончили.", filepath.Base(ref))
		return sess, []Outbound{{ChatID: sess.UserID, Text: text, Options: []string{"Готово"}}}
	}

	return s.advance(ctx, sess, field, val)
}

// advance records the validated value, moves the machine forward and either
// prompts for the next field or finalizes the conversation.
func (s *CheckupService) advance(ctx context.Context, sess *domain.Session, field domain.Field, v domain.Value) (*domain.Session, []Outbound) {
	if err := sess.Record(ctx, field, v); err != nil {
		log.Printf("Error advancing session for user %d past %s: %v", sess.UserID, field.ID, err)
		return sess, []Outbound{{ChatID: sess.UserID, Text: "Что-то пошло не так. Попробуйте ещё раз."}}
	}

	if sess.Completed() {
		return s.finalize(sess)
	}

	next, _ := sess.Current()
	return sess, []Outbound{s.prompt(sess.UserID, next)}
}

// finalize builds the submission and writes it through the repository.
// Exactly one submission is written per completed conversation: on write
// failure it is parked on the session and retried by the next event.
func (s *CheckupService) finalize(sess *domain.Session) (*domain.Session, []Outbound) {
	sub := &domain.Submission{
		ID:        s.idgen.New(),
		UserID:    sess.UserID,
		Username:  sess.DisplayName(),
		Answers:   sess.Answers,
		Files:     append([]string(nil), sess.Files...),
		CreatedAt: s.clock.Now(),
	}

	if err := s.submissions.Insert(sub); err != nil {
		log.Printf("Error inserting submission %s for user %d: %v", sub.ID, sub.UserID, err)
		sess.PendingSubmission = sub
		return sess, []Outbound{{ChatID: sess.UserID, Text: msgStorageRetry}}
	}

	return nil, s.delivered(sub)
}

func (s *CheckupService) delivered(sub *domain.Submission) []Outbound {
	return []Outbound{
		{ChatID: sub.UserID, Text: "Спасибо! Ваш запрос отправлен эксперту 🧾"},
		{ChatID: s.reviewerID, Text: s.FormatSubmission(sub), FilePaths: sub.Files},
	}
}

// handleReport runs the /report command. Only the reviewer may request it;
// anyone else is refused before the generator is ever invoked.
func (s *CheckupService) handleReport(ev Event) []Outbound {
	if ev.UserID != s.reviewerID {
		return []Outbound{{ChatID: ev.UserID, Text: "⛔ Эта команда доступна только эксперту."}}
	}

	days := s.defaultDays
	if args := strings.TrimSpace(ev.Text); args != "" {
		n, err := strconv.Atoi(args)
		if err != nil || n <= 0 {
			return []Outbound{{ChatID: ev.UserID, Text: "Использование: /report <кол-во_дней> (например, /report 30)"}}
		}
		days = n
	}

	rep, err := s.reports.Generate(days)
	if err != nil {
		log.Printf("Error generating report for %d days: %v", days, err)
		return []Outbound{{ChatID: ev.UserID, Text: "❌ Не удалось сформировать отчёт. Попробуйте позже."}}
	}

	if rep.Count == 0 {
		return []Outbound{{ChatID: ev.UserID, Text: "За указанный период заявок не найдено."}}
	}

	out := Outbound{ChatID: ev.UserID, Text: s.reports.FormatText(rep)}
	if data, err := s.reports.CSV(rep); err == nil {
		out.Document = &Document{Name: fmt.Sprintf("requests_report_%dd.csv", days), Data: data}
	} else {
		log.Printf("Error rendering report CSV: %v", err)
	}
	return []Outbound{out}
}

// FormatSubmission renders the reviewer summary in the field-definition order.
func (s *CheckupService) FormatSubmission(sub *domain.Submission) string {
	var b strings.Builder
	b.WriteString("📋 *Запрос на проверку объекта недвижимости*\n\n")
	for _, f := range s.form {
		if f.Kind == domain.KindFile {
			continue
		}
		text := sub.Answers[f.ID].String()
		if text == "" {
			text = "-"
		}
		fmt.Fprintf(&b, "%s: %s\n", f.Label, text)
	}
	if len(sub.Files) > 0 {
		b.WriteString("📎 *Приложения:*\n")
		for _, f := range sub.Files {
			fmt.Fprintf(&b, "  • %s\n", filepath.Base(f))
		}
	} else {
		b.WriteString("📎 *Приложения:* -\n")
	}
	fmt.Fprintf(&b, "\n📅 Дата запроса: %s\n", sub.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "🆔 User: %d (@%s)%s\n", sub.UserID, sub.Username, s.profileName(sub.UserID))
	fmt.Fprintf(&b, "🔎 ID заявки: %s", sub.ID)
	return b.String()
}

// profileName looks up the registered profile so the reviewer sees the real
// name next to the username. Returns "" when no profile is stored.
func (s *CheckupService) profileName(userID int64) string {
	user, err := s.users.GetByID(userID)
	if err != nil {
		log.Printf("Error loading profile for user %d: %v", userID, err)
		return ""
	}
	if user == nil {
		return ""
	}
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		return ""
	}
	return ", " + name
}

// prompt builds the question message for a field, with one-tap options
// where the field has a fixed answer set.
func (s *CheckupService) prompt(chatID int64, field domain.Field) Outbound {
	out := Outbound{ChatID: chatID, Text: field.Prompt}
	switch field.Kind {
	case domain.KindEnum:
		out.Options = append(out.Options, field.Enum.Options...)
	case domain.KindFile:
		out.Options = append(out.Options, "Готово")
	}
	if field.Optional {
		out.Options = append(out.Options, "Нет")
	}
	return out
}

const (
	msgStorageRetry = "⚠️ Не удалось сохранить запрос, но данные не потеряны. Отправьте любое сообщение, чтобы повторить попытку."
	msgNoSession    = "У вас нет активного запроса. Нажмите /start чтобы начать."
)

func isStartText(t string) bool {
	return strings.EqualFold(t, "Создать новый запрос")
}

func isCancelText(t string) bool {
	return strings.EqualFold(t, "Отмена")
}

func isSkipText(t string) bool {
	switch strings.ToLower(t) {
	case "нет", "-", "skip", "пропустить":
		return true
	}
	return false
}

func isDoneText(t string) bool {
	switch strings.ToLower(t) {
	case "готово", "done":
		return true
	}
	return false
}

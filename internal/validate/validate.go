// Package validate holds the pure input validation rules for form fields.
// Checks are deterministic and have no side effects.
package validate

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/akulov/checkup-bot/internal/domain"
)

// Reason classifies a validation failure
type Reason string

const (
	EmptyText       Reason = "empty_text"
	InvalidFormat   Reason = "invalid_format"
	OutOfRange      Reason = "out_of_range"
	UnknownOption   Reason = "unknown_option"
	UnsupportedFile Reason = "unsupported_file"
	FileTooLarge    Reason = "file_too_large"
	WrongKind       Reason = "wrong_kind"
)

// Error is a validation failure with a user-facing message.
// The conversation stays on the same field; the user may simply retry.
type Error struct {
	Reason  Reason
	Message string
}

func (e *Error) Error() string { return string(e.Reason) + ": " + e.Message }

func fail(reason Reason, format string, args ...interface{}) error {
	return &Error{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// Input is a raw answer: either text or an attachment, never both.
type Input struct {
	Text string
	File *domain.FileMeta
}

// Check validates raw input against a field definition and returns the
// normalized typed value.
func Check(field domain.Field, in Input) (domain.Value, error) {
	if field.Kind == domain.KindFile {
		if in.File == nil {
			return domain.Value{}, fail(WrongKind, "Для этого шага нужен файл. Пришлите документ или фото.")
		}
		return checkFile(*field.File, *in.File)
	}
	if in.File != nil {
		return domain.Value{}, fail(WrongKind, "Для этого шага нужен текстовый ответ, а не файл.")
	}

	switch field.Kind {
	case domain.KindText:
		return checkText(*field.Text, in.Text)
	case domain.KindNumber:
		return checkNumber(*field.Number, in.Text)
	case domain.KindEnum:
		return checkEnum(*field.Enum, in.Text)
	}
	return domain.Value{}, fail(InvalidFormat, "Неизвестный тип поля.")
}

func checkText(rule domain.TextRule, raw string) (domain.Value, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return domain.Value{}, fail(EmptyText, "Ответ не может быть пустым.")
	}
	if rule.MaxLen > 0 && len([]rune(text)) > rule.MaxLen {
		return domain.Value{}, fail(OutOfRange, "Слишком длинный ответ — не более %d символов.", rule.MaxLen)
	}
	if rule.MinWords > 0 && len(strings.Fields(text)) < rule.MinWords {
		return domain.Value{}, fail(InvalidFormat, "Пожалуйста, укажите подробнее (минимум %d слова).", rule.MinWords)
	}
	if rule.Pattern != nil && !rule.Pattern.MatchString(text) {
		return domain.Value{}, fail(InvalidFormat, "Неправильный формат. Проверьте и введите ещё раз.")
	}
	return domain.Value{Kind: domain.KindText, Text: text}, nil
}

func checkNumber(rule domain.NumberRule, raw string) (domain.Value, error) {
	text := strings.TrimSpace(raw)
	// Accept the comma decimal separator common in user input
	n, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", "."), 64)
	if err != nil {
		return domain.Value{}, fail(InvalidFormat, "Нужно число, например 50 или 42.5.")
	}
	if rule.Integer && math.Trunc(n) != n {
		return domain.Value{}, fail(InvalidFormat, "Нужно целое число.")
	}
	if (rule.Min > 0 && n < rule.Min) || (rule.Max > 0 && n > rule.Max) {
		return domain.Value{}, fail(OutOfRange, "%s", rangeMessage(rule))
	}
	// Text carries the normalized form; a skipped optional field keeps it empty
	return domain.Value{Kind: domain.KindNumber, Text: strconv.FormatFloat(n, 'f', -1, 64), Number: n}, nil
}

// rangeMessage names only the bounds the rule actually configures.
func rangeMessage(rule domain.NumberRule) string {
	min := strconv.FormatFloat(rule.Min, 'f', -1, 64)
	max := strconv.FormatFloat(rule.Max, 'f', -1, 64)
	switch {
	case rule.Min > 0 && rule.Max > 0:
		return fmt.Sprintf("Значение должно быть от %s до %s.", min, max)
	case rule.Min > 0:
		return fmt.Sprintf("Значение должно быть не меньше %s.", min)
	default:
		return fmt.Sprintf("Значение должно быть не больше %s.", max)
	}
}

func checkEnum(rule domain.EnumRule, raw string) (domain.Value, error) {
	text := strings.TrimSpace(raw)
	for _, opt := range rule.Options {
		if strings.EqualFold(opt, text) {
			return domain.Value{Kind: domain.KindEnum, Text: opt}, nil
		}
	}
	return domain.Value{}, fail(UnknownOption, "Выберите один из вариантов: %s.", strings.Join(rule.Options, " / "))
}

func checkFile(rule domain.FileRule, meta domain.FileMeta) (domain.Value, error) {
	if len(rule.MimeTypes) > 0 {
		ok := false
		for _, mt := range rule.MimeTypes {
			if strings.EqualFold(mt, meta.MimeType) {
				ok = true
				break
			}
		}
		if !ok {
			return domain.Value{}, fail(UnsupportedFile, "Неподдерживаемый формат. Допускаются PDF, JPG, PNG.")
		}
	}
	if rule.MaxSize > 0 && meta.Size > rule.MaxSize {
		return domain.Value{}, fail(FileTooLarge, "Файл слишком большой — ограничение %d MB.", rule.MaxSize/(1024*1024))
	}
	return domain.Value{Kind: domain.KindFile, Text: meta.Name}, nil
}

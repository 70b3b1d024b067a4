package domain

import "regexp"

// FieldKind tags the value type a field accepts
type FieldKind string

const (
	KindText   FieldKind = "text"
	KindNumber FieldKind = "number"
	KindEnum   FieldKind = "enum"
	KindFile   FieldKind = "file"
)

// TextRule constrains free-text answers
type TextRule struct {
	MinWords int
	MaxLen   int
	Pattern  *regexp.Regexp
}

// NumberRule constrains numeric answers. Bounds are inclusive; a zero
// bound is treated as unset.
type NumberRule struct {
	Min     float64
	Max     float64
	Integer bool
}

// EnumRule constrains an answer to a fixed set of options.
// Matching is case-insensitive, the stored value keeps the canonical casing.
type EnumRule struct {
	Options []string
}

// FileRule constrains attachments by mime type and size
type FileRule struct {
	MimeTypes []string
	MaxSize   int64
}

// Field describes one question of the form. Exactly one of the rule
// pointers matching Kind is set, the rest stay nil.
type Field struct {
	ID       string
	Label    string
	Prompt   string
	Kind     FieldKind
	Optional bool
	Text     *TextRule
	Number   *NumberRule
	Enum     *EnumRule
	File     *FileRule
}

// Value is a validated answer. Text carries the normalized representation
// for every kind, Number is additionally set for number fields. A skipped
// optional field records the zero Value, so its Text stays empty.
type Value struct {
	Kind   FieldKind
	Text   string
	Number float64
}

func (v Value) String() string { return v.Text }

const (
	FieldAddress      = "address"
	FieldCadastral    = "cadastral"
	FieldPropertyType = "property_type"
	FieldArea         = "area"
	FieldWho          = "who"
	FieldDocs         = "docs"
	FieldComment      = "comment"
)

var cadastralPattern = regexp.MustCompile(`^\d{1,3}:\d{1,3}:\d{1,10}:\d{1,10}$`)

// MaxUploadSize limits a single attachment to 20 MB, same as the upstream CRM accepts
const MaxUploadSize = 20 * 1024 * 1024

// CheckupForm returns the ordered question list for a property checkup request.
// The order defines the conversation flow and is immutable at runtime.
func CheckupForm() []Field {
	return []Field{
		{
			ID:     FieldAddress,
			Label:  "🏠 Адрес",
			Prompt: "Введите адрес объекта (улица, дом, город). Если нет — укажите ориентир или ссылку на карту.",
			Kind:   KindText,
			Text:   &TextRule{MinWords: 2, MaxLen: 500},
		},
		{
			ID:       FieldCadastral,
			Label:    "📇 Кадастровый номер",
			Prompt:   "Укажите кадастровый номер (пример: 77:01:0004010:1234) или напишите \"нет\".",
			Kind:     KindText,
			Optional: true,
			Text:     &TextRule{Pattern: cadastralPattern},
		},
		{
			ID:     FieldPropertyType,
			Label:  "🏢 Тип объекта",
			Prompt: "Выберите тип объекта.",
			Kind:   KindEnum,
			Enum:   &EnumRule{Options: []string{"Квартира", "Дом", "Участок", "Коммерция"}},
		},
		{
			ID:       FieldArea,
			Label:    "📐 Площадь, м²",
			Prompt:   "Укажите площадь объекта в м² или напишите \"нет\".",
			Kind:     KindNumber,
			Optional: true,
			Number:   &NumberRule{Min: 1, Max: 100000},
		},
		{
			ID:     FieldWho,
			Label:  "👤 Тип заявителя",
			Prompt: "Кто отправляет запрос?",
			Kind:   KindEnum,
			Enum:   &EnumRule{Options: []string{"Агент", "Владелец", "Юрист", "Другое"}},
		},
		{
			ID:       FieldDocs,
			Label:    "📎 Приложения",
			Prompt:   "Прикрепите документы (PDF, JPG, PNG). Когда закончите — отправьте \"готово\", либо напишите \"нет\" чтобы пропустить.",
			Kind:     KindFile,
			Optional: true,
			File:     &FileRule{MimeTypes: []string{"application/pdf", "image/jpeg", "image/png"}, MaxSize: MaxUploadSize},
		},
		{
			ID:       FieldComment,
			Label:    "📝 Комментарий",
			Prompt:   "Оставьте комментарий к запросу (или напишите \"нет\").",
			Kind:     KindText,
			Optional: true,
			Text:     &TextRule{MaxLen: 2000},
		},
	}
}

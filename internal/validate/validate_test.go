package validate_test

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/akulov/checkup-bot/internal/domain"
	"github.com/akulov/checkup-bot/internal/validate"
)

func reasonOf(t *testing.T, err error) validate.Reason {
	t.Helper()
	var verr *validate.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *validate.Error, got %v", err)
	}
	if verr.Message == "" {
		t.Fatal("expected a user-facing message")
	}
	return verr.Reason
}

func TestCheckText(t *testing.T) {
	field := domain.Field{
		ID:   "address",
		Kind: domain.KindText,
		Text: &domain.TextRule{MinWords: 2, MaxLen: 10},
	}

	t.Run("accepts and trims valid input", func(t *testing.T) {
		v, err := validate.Check(field, validate.Input{Text: "  Ленина 5  "})
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if v.Text != "Ленина 5" {
			t.Errorf("Text = %q, want %q", v.Text, "Ленина 5")
		}
		if v.Kind != domain.KindText {
			t.Errorf("Kind = %q, want text", v.Kind)
		}
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, err := validate.Check(field, validate.Input{Text: "   "})
		if got := reasonOf(t, err); got != validate.EmptyText {
			t.Errorf("reason = %q, want %q", got, validate.EmptyText)
		}
	})

	t.Run("rejects too few words", func(t *testing.T) {
		_, err := validate.Check(field, validate.Input{Text: "Ленина"})
		if got := reasonOf(t, err); got != validate.InvalidFormat {
			t.Errorf("reason = %q, want %q", got, validate.InvalidFormat)
		}
	})

	t.Run("max length is inclusive", func(t *testing.T) {
		if _, err := validate.Check(field, validate.Input{Text: "абв где ёж"}); err != nil {
			t.Errorf("10 runes should pass, got %v", err)
		}
		_, err := validate.Check(field, validate.Input{Text: "абв где ёжи"})
		if got := reasonOf(t, err); got != validate.OutOfRange {
			t.Errorf("reason = %q, want %q", got, validate.OutOfRange)
		}
	})

	t.Run("pattern mismatch", func(t *testing.T) {
		cadastral := domain.Field{
			ID:   "cadastral",
			Kind: domain.KindText,
			Text: &domain.TextRule{Pattern: regexp.MustCompile(`^\d{1,3}:\d{1,3}:\d{1,10}:\d{1,10}$`)},
		}
		if _, err := validate.Check(cadastral, validate.Input{Text: "77:01:0004010:1234"}); err != nil {
			t.Errorf("valid cadastral rejected: %v", err)
		}
		_, err := validate.Check(cadastral, validate.Input{Text: "not-a-number"})
		if got := reasonOf(t, err); got != validate.InvalidFormat {
			t.Errorf("reason = %q, want %q", got, validate.InvalidFormat)
		}
	})

	t.Run("rejects file where text expected", func(t *testing.T) {
		_, err := validate.Check(field, validate.Input{File: &domain.FileMeta{Name: "a.pdf"}})
		if got := reasonOf(t, err); got != validate.WrongKind {
			t.Errorf("reason = %q, want %q", got, validate.WrongKind)
		}
	})
}

func TestCheckNumber(t *testing.T) {
	field := domain.Field{
		ID:     "area",
		Kind:   domain.KindNumber,
		Number: &domain.NumberRule{Min: 10, Max: 500},
	}

	tests := []struct {
		name   string
		input  string
		want   float64
		reason validate.Reason
	}{
		{name: "plain integer", input: "50", want: 50},
		{name: "decimal", input: "42.5", want: 42.5},
		{name: "comma decimal separator", input: "42,5", want: 42.5},
		{name: "lower bound inclusive", input: "10", want: 10},
		{name: "upper bound inclusive", input: "500", want: 500},
		{name: "below range", input: "9.99", reason: validate.OutOfRange},
		{name: "above range", input: "500.01", reason: validate.OutOfRange},
		{name: "not a number", input: "fifty", reason: validate.InvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := validate.Check(field, validate.Input{Text: tt.input})
			if tt.reason != "" {
				if got := reasonOf(t, err); got != tt.reason {
					t.Errorf("reason = %q, want %q", got, tt.reason)
				}
				return
			}
			if err != nil {
				t.Fatalf("Check(%q) error = %v", tt.input, err)
			}
			if v.Number != tt.want {
				t.Errorf("Number = %v, want %v", v.Number, tt.want)
			}
		})
	}

	t.Run("stores the normalized text", func(t *testing.T) {
		v, err := validate.Check(field, validate.Input{Text: " 42,5 "})
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if v.Text != "42.5" {
			t.Errorf("Text = %q, want normalized %q", v.Text, "42.5")
		}
	})

	t.Run("message names only configured bounds", func(t *testing.T) {
		minOnly := domain.Field{
			ID:     "floor",
			Kind:   domain.KindNumber,
			Number: &domain.NumberRule{Min: 1},
		}
		_, err := validate.Check(minOnly, validate.Input{Text: "0"})
		var verr *validate.Error
		if !errors.As(err, &verr) || verr.Reason != validate.OutOfRange {
			t.Fatalf("expected OutOfRange, got %v", err)
		}
		if strings.Contains(verr.Message, "до 0") {
			t.Errorf("message leaks the unset upper bound: %q", verr.Message)
		}
		if !strings.Contains(verr.Message, "не меньше 1") {
			t.Errorf("message should name the lower bound: %q", verr.Message)
		}
	})

	t.Run("unset bounds accept any value", func(t *testing.T) {
		free := domain.Field{
			ID:     "delta",
			Kind:   domain.KindNumber,
			Number: &domain.NumberRule{},
		}
		v, err := validate.Check(free, validate.Input{Text: "-5"})
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if v.Number != -5 {
			t.Errorf("Number = %v, want -5", v.Number)
		}
	})

	t.Run("integer rule rejects fractions", func(t *testing.T) {
		intField := domain.Field{
			ID:     "rooms",
			Kind:   domain.KindNumber,
			Number: &domain.NumberRule{Min: 1, Max: 20, Integer: true},
		}
		_, err := validate.Check(intField, validate.Input{Text: "2.5"})
		if got := reasonOf(t, err); got != validate.InvalidFormat {
			t.Errorf("reason = %q, want %q", got, validate.InvalidFormat)
		}
	})
}

func TestCheckEnum(t *testing.T) {
	field := domain.Field{
		ID:   "type",
		Kind: domain.KindEnum,
		Enum: &domain.EnumRule{Options: []string{"flat", "house"}},
	}

	t.Run("matches case-insensitively and normalizes", func(t *testing.T) {
		v, err := validate.Check(field, validate.Input{Text: " FLAT "})
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if v.Text != "flat" {
			t.Errorf("Text = %q, want canonical %q", v.Text, "flat")
		}
	})

	t.Run("rejects unknown option", func(t *testing.T) {
		_, err := validate.Check(field, validate.Input{Text: "condo"})
		if got := reasonOf(t, err); got != validate.UnknownOption {
			t.Errorf("reason = %q, want %q", got, validate.UnknownOption)
		}
	})
}

func TestCheckFile(t *testing.T) {
	field := domain.Field{
		ID:   "docs",
		Kind: domain.KindFile,
		File: &domain.FileRule{MimeTypes: []string{"application/pdf", "image/jpeg"}, MaxSize: 1024},
	}

	t.Run("accepts supported attachment", func(t *testing.T) {
		v, err := validate.Check(field, validate.Input{
			File: &domain.FileMeta{Name: "plan.pdf", MimeType: "application/pdf", Size: 1024},
		})
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if v.Kind != domain.KindFile {
			t.Errorf("Kind = %q, want file", v.Kind)
		}
	})

	t.Run("rejects unsupported mime type", func(t *testing.T) {
		_, err := validate.Check(field, validate.Input{
			File: &domain.FileMeta{Name: "v.mp4", MimeType: "video/mp4", Size: 10},
		})
		if got := reasonOf(t, err); got != validate.UnsupportedFile {
			t.Errorf("reason = %q, want %q", got, validate.UnsupportedFile)
		}
	})

	t.Run("rejects oversized file", func(t *testing.T) {
		_, err := validate.Check(field, validate.Input{
			File: &domain.FileMeta{Name: "big.pdf", MimeType: "application/pdf", Size: 1025},
		})
		if got := reasonOf(t, err); got != validate.FileTooLarge {
			t.Errorf("reason = %q, want %q", got, validate.FileTooLarge)
		}
	})

	t.Run("rejects text where file expected", func(t *testing.T) {
		_, err := validate.Check(field, validate.Input{Text: "here you go"})
		if got := reasonOf(t, err); got != validate.WrongKind {
			t.Errorf("reason = %q, want %q", got, validate.WrongKind)
		}
	})
}

func TestCheckIsDeterministic(t *testing.T) {
	field := domain.Field{
		ID:   "type",
		Kind: domain.KindEnum,
		Enum: &domain.EnumRule{Options: []string{"flat", "house"}},
	}
	for i := 0; i < 3; i++ {
		v, err := validate.Check(field, validate.Input{Text: "House"})
		if err != nil || v.Text != "house" {
			t.Fatalf("run %d: got (%v, %v)", i, v, err)
		}
	}
}

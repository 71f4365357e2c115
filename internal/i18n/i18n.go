package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/pavelanni/quizreport/internal/report"
)

var jsonUnmarshal = json.Unmarshal

//go:embed locales/*.json
var localeFS embed.FS

type (
	ctxKey  struct{}
	langKey struct{}
)

var bundle *i18n.Bundle

// ErrUnsupportedLanguage is returned by Init for a language without a catalog.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Init loads the translation bundle with lang as the fallback language.
// lang must have an embedded catalog.
func Init(lang string) error {
	tag, err := language.Parse(lang)
	if err != nil {
		return fmt.Errorf("parse language %q: %w", lang, err)
	}

	b := i18n.NewBundle(tag)
	b.RegisterUnmarshalFunc("json", jsonUnmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return fmt.Errorf("read locales dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return fmt.Errorf("read locale file %s: %w", e.Name(), err)
		}
		if _, err := b.ParseMessageFileBytes(data, e.Name()); err != nil {
			return fmt.Errorf("parse locale file %s: %w", e.Name(), err)
		}
		slog.Debug("loaded locale file", "file", e.Name())
	}

	if !hasCatalog(b, tag) {
		return fmt.Errorf("%w: %q (available: %s)", ErrUnsupportedLanguage, lang, strings.Join(tagNames(b), ", "))
	}
	bundle = b
	return nil
}

// Supported reports whether a catalog exists for lang.
func Supported(lang string) bool {
	tag, err := language.Parse(lang)
	if err != nil || bundle == nil {
		return false
	}
	return hasCatalog(bundle, tag)
}

func hasCatalog(b *i18n.Bundle, tag language.Tag) bool {
	for _, t := range b.LanguageTags() {
		if t == tag {
			return true
		}
	}
	return false
}

func tagNames(b *i18n.Bundle) []string {
	var names []string
	for _, t := range b.LanguageTags() {
		names = append(names, t.String())
	}
	return names
}

// NewLocalizer creates a localizer for the given languages, most preferred first.
func NewLocalizer(langs ...string) *i18n.Localizer {
	return i18n.NewLocalizer(bundle, langs...)
}

// WithLocalizer stores a localizer in the context.
func WithLocalizer(ctx context.Context, loc *i18n.Localizer) context.Context {
	return context.WithValue(ctx, ctxKey{}, loc)
}

// WithLang records the resolved language tag of a request.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey{}, lang)
}

// Lang returns the language recorded by WithLang, or "" if none is.
func Lang(ctx context.Context) string {
	l, _ := ctx.Value(langKey{}).(string)
	return l
}

func localizerFromCtx(ctx context.Context) *i18n.Localizer {
	if loc, ok := ctx.Value(ctxKey{}).(*i18n.Localizer); ok {
		return loc
	}
	// Fallback: the bundle's default language.
	return i18n.NewLocalizer(bundle)
}

// T translates a message by ID.
func T(ctx context.Context, msgID string) string {
	loc := localizerFromCtx(ctx)
	s, err := loc.Localize(&i18n.LocalizeConfig{MessageID: msgID})
	if err != nil {
		slog.Warn("missing translation", "id", msgID, "error", err)
		return msgID
	}
	return s
}

// ReportLabels builds report labels in the context's language.
func ReportLabels(ctx context.Context) report.Labels {
	tr := func(id string) string { return T(ctx, id) }
	return report.Labels{
		Title:       tr("ReportTitle"),
		Student:     tr("ReportStudent"),
		Teacher:     tr("ReportTeacher"),
		Unit:        tr("ReportUnit"),
		Topics:      tr("ReportTopics"),
		CompletedAt: tr("ReportCompletedAt"),

		SummaryHeading: tr("ReportSummaryHeading"),
		Score:          tr("ReportScore"),
		Correct:        tr("ReportCorrect"),
		Duration:       tr("ReportDuration"),
		Hints:          tr("ReportHints"),
		Combo:          tr("ReportCombo"),
		TimeBonus:      tr("ReportTimeBonus"),
		Rating:         tr("ReportRating"),

		IncorrectHeading:  tr("ReportIncorrectHeading"),
		AllCorrectHeading: tr("ReportAllCorrectHeading"),
		Question:          tr("ReportQuestion"),
		StatusCorrect:     tr("ReportStatusCorrect"),
		StatusIncorrect:   tr("ReportStatusIncorrect"),
		UserAnswer:        tr("ReportUserAnswer"),
		CorrectAnswer:     tr("ReportCorrectAnswer"),
		NoAnswer:          tr("ReportNoAnswer"),
		Omitted:           tr("ReportOmitted"),
		NotProvided:       tr("ReportNotProvided"),

		Footer: tr("ReportFooter"),

		PointUnit:  tr("UnitPoint"),
		TimesUnit:  tr("UnitTimes"),
		MinuteUnit: tr("UnitMinute"),
		SecondUnit: tr("UnitSecond"),
	}
}

// Package locale resolves user-facing messages for the request language.
package locale

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed messages/*.json
var messageFS embed.FS

// DefaultLanguage is used when Accept-Language matches nothing supported.
var DefaultLanguage = language.Korean

var supported = []language.Tag{language.Korean, language.English}

type ctxKey struct{}

type Translator struct {
	bundle  *i18n.Bundle
	matcher language.Matcher
}

func NewTranslator() (*Translator, error) {
	bundle := i18n.NewBundle(DefaultLanguage)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
	for _, f := range []string{"messages/active.ko.json", "messages/active.en.json"} {
		if _, err := bundle.LoadMessageFileFS(messageFS, f); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return &Translator{bundle: bundle, matcher: language.NewMatcher(supported)}, nil
}

// Match picks the supported language for an Accept-Language header value.
func (t *Translator) Match(acceptLanguage string) language.Tag {
	tag, _ := language.MatchStrings(t.matcher, acceptLanguage)
	base, _ := tag.Base()
	for _, s := range supported {
		if b, _ := s.Base(); b == base {
			return s
		}
	}
	return DefaultLanguage
}

// Message renders id in lang. Unknown ids render as the id itself.
func (t *Translator) Message(lang language.Tag, id string, data map[string]any) string {
	loc := i18n.NewLocalizer(t.bundle, lang.String(), DefaultLanguage.String())
	msg, err := loc.Localize(&i18n.LocalizeConfig{MessageID: id, TemplateData: data})
	if err != nil {
		return id
	}
	return msg
}

// Middleware stores the negotiated language on the request context.
func (t *Translator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := t.Match(r.Header.Get("Accept-Language"))
		w.Header().Set("Content-Language", lang.String())
		next.ServeHTTP(w, r.WithContext(WithLanguage(r.Context(), lang)))
	})
}

func WithLanguage(ctx context.Context, lang language.Tag) context.Context {
	return context.WithValue(ctx, ctxKey{}, lang)
}

func LanguageFromContext(ctx context.Context) language.Tag {
	if lang, ok := ctx.Value(ctxKey{}).(language.Tag); ok {
		return lang
	}
	return DefaultLanguage
}

// Localize renders id in the language stored on ctx.
func (t *Translator) Localize(ctx context.Context, id string, data map[string]any) string {
	return t.Message(LanguageFromContext(ctx), id, data)
}

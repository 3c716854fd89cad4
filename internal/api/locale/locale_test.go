package locale

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestTranslator_Match(t *testing.T) {
	tr, err := NewTranslator()
	require.NoError(t, err)

	assert.Equal(t, language.Korean, tr.Match(""))
	assert.Equal(t, language.Korean, tr.Match("ko-KR,ko;q=0.9"))
	assert.Equal(t, language.English, tr.Match("en-US,en;q=0.8"))
	assert.Equal(t, language.Korean, tr.Match("fr-FR"))
}

func TestTranslator_Message(t *testing.T) {
	tr, err := NewTranslator()
	require.NoError(t, err)

	assert.Equal(t, "Messages must be at most 2000 characters.",
		tr.Message(language.English, "error_message_too_long", map[string]any{"maxLength": 2000}))
	assert.Contains(t, tr.Message(language.Korean, "error_rate_limit_daily", map[string]any{"limit": 50}), "50회")
	assert.Equal(t, "no_such_message", tr.Message(language.English, "no_such_message", nil))
}

func TestTranslator_Middleware(t *testing.T) {
	tr, err := NewTranslator()
	require.NoError(t, err)

	var got language.Tag
	h := tr.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = LanguageFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, language.English, got)
	assert.Equal(t, "en", rr.Header().Get("Content-Language"))
}

package i18n

import "net/http"

// Middleware injects a localizer and the resolved language into every
// request context. A supported ?lang= query parameter wins over the default
// language.
func Middleware(lang string) func(http.Handler) http.Handler {
	def := NewLocalizer(lang)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loc, resolved := def, lang
			if q := r.URL.Query().Get("lang"); q != "" && Supported(q) {
				loc, resolved = NewLocalizer(q, lang), q
			}
			ctx := WithLang(WithLocalizer(r.Context(), loc), resolved)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Package i18n negotiates the display language and holds the message
// catalog for user-facing strings.
package i18n

import (
	"net/http"
	"strings"

	"github.com/Xuanwo/go-locale"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// LangCookie is the cookie that pins a language choice across requests.
const LangCookie = "lang"

// Supported lists the languages the catalog carries. The first entry is the
// fallback when nothing else matches.
var Supported = []language.Tag{
	language.French,
	language.English,
}

// Localizer resolves language tags and translates catalog keys.
type Localizer struct {
	fallback language.Tag
	matcher  language.Matcher
	catalog  catalog.Catalog
}

// New creates a Localizer. An empty loc detects the process locale and falls
// back to French if detection fails.
func New(loc string) (*Localizer, error) {
	l := &Localizer{
		matcher: language.NewMatcher(Supported),
	}

	cat, err := buildCatalog()
	if err != nil {
		return nil, err
	}
	l.catalog = cat

	tag := language.Make(loc)
	if strings.TrimSpace(loc) == "" {
		tag, err = locale.Detect()
		if err != nil {
			tag = Supported[0]
		}
	}
	l.fallback = l.match(tag)

	return l, nil
}

// Default returns the configured fallback language.
func (l *Localizer) Default() language.Tag {
	return l.fallback
}

// Match maps an arbitrary language string onto a supported tag.
func (l *Localizer) Match(s string) language.Tag {
	tag, err := language.Parse(s)
	if err != nil {
		return l.fallback
	}
	return l.match(tag)
}

// Negotiate picks the language for a request: the lang query parameter, then
// the lang cookie, then Accept-Language, then the default.
func (l *Localizer) Negotiate(r *http.Request) language.Tag {
	if q := r.URL.Query().Get("lang"); q != "" {
		return l.Match(q)
	}
	if c, err := r.Cookie(LangCookie); err == nil && c.Value != "" {
		return l.Match(c.Value)
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		tags, _, err := language.ParseAcceptLanguage(accept)
		if err == nil && len(tags) > 0 {
			_, idx, conf := l.matcher.Match(tags...)
			if conf != language.No {
				return Supported[idx]
			}
		}
	}
	return l.fallback
}

// Printer returns a message printer bound to the catalog.
func (l *Localizer) Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(l.match(tag), message.Catalog(l.catalog))
}

// T translates a catalog key.
func (l *Localizer) T(tag language.Tag, key string) string {
	return l.Printer(tag).Sprintf(key)
}

func (l *Localizer) match(tag language.Tag) language.Tag {
	_, idx, conf := l.matcher.Match(tag)
	if conf == language.No {
		if l.fallback != language.Und {
			return l.fallback
		}
		return Supported[0]
	}
	return Supported[idx]
}

// Base returns the two-letter language of a supported tag ("fr" or "en").
func Base(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

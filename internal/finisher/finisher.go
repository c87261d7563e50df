// Package finisher turns compiled CSS into the document that is uploaded:
// charset directives are stripped, the CSS is minified and a fixed warning
// banner is prepended.
package finisher

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"

	"git.home.luguber.info/inful/csspublisher/internal/stylesheet"
)

const mediaTypeCSS = "text/css"

// The destination rejects stylesheets carrying a charset directive.
var charsetDirective = regexp.MustCompile(`(?i)@charset\s*(?:"[^"]*"|'[^']*')\s*;`)

// Minifier compacts CSS text.
type Minifier interface {
	Minify(css string) (string, error)
}

// TdewolffMinifier is the default Minifier.
type TdewolffMinifier struct {
	m *minify.M
}

// NewTdewolffMinifier returns a minifier configured for CSS only.
func NewTdewolffMinifier() *TdewolffMinifier {
	m := minify.New()
	m.AddFunc(mediaTypeCSS, css.Minify)
	return &TdewolffMinifier{m: m}
}

func (t *TdewolffMinifier) Minify(s string) (string, error) {
	return t.m.String(mediaTypeCSS, s)
}

// PublishableDocument is the final stylesheet text. It never contains a
// charset directive and always starts with the banner.
type PublishableDocument struct {
	banner string
	body   string
}

// Text returns the full document: banner, blank line, minified CSS.
func (d *PublishableDocument) Text() string { return d.banner + "\n" + d.body }

// Banner returns the five banner lines without the trailing blank line.
func (d *PublishableDocument) Banner() string { return d.banner }

// Body returns the minified CSS without the banner.
func (d *PublishableDocument) Body() string { return d.body }

// Finisher applies the strip, minify and banner steps.
type Finisher struct {
	minifier Minifier
	clock    clockwork.Clock
}

// New returns a finisher using the tdewolff minifier and the real clock.
func New() *Finisher {
	return &Finisher{minifier: NewTdewolffMinifier(), clock: clockwork.NewRealClock()}
}

// WithMinifier replaces the minifier.
func (f *Finisher) WithMinifier(m Minifier) *Finisher {
	if m != nil {
		f.minifier = m
	}
	return f
}

// WithClock replaces the clock used for the banner timestamp.
func (f *Finisher) WithClock(c clockwork.Clock) *Finisher {
	if c != nil {
		f.clock = c
	}
	return f
}

// Finish produces the publishable document for destination. The banner is
// added after minification so its comment survives.
func (f *Finisher) Finish(doc *stylesheet.CompiledDocument, destination string) (*PublishableDocument, error) {
	if doc == nil {
		return nil, fmt.Errorf("finish: nil compiled document")
	}
	stripped := StripCharset(doc.CSS)
	minified, err := f.minifier.Minify(stripped)
	if err != nil {
		return nil, fmt.Errorf("minify %s: %w", doc.SourcePath, err)
	}
	// Minifiers may re-emit a charset for non-ASCII input.
	body := StripCharset(minified)
	return &PublishableDocument{
		banner: Banner(destination, f.clock.Now()),
		body:   body,
	}, nil
}

// StripCharset removes every @charset directive from s.
func StripCharset(s string) string {
	return charsetDirective.ReplaceAllString(s, "")
}

// Banner renders the five-line warning comment.
func Banner(destination string, at time.Time) string {
	var b strings.Builder
	b.WriteString("/**\n")
	fmt.Fprintf(&b, "* Stylesheet for r/%s generated at %s.\n", destination, at.UTC().Format(time.RFC1123))
	b.WriteString("* DO NOT MAKE CHANGES TO THIS STYLESHEET; THEY WILL BE OVERRIDDEN.\n")
	b.WriteString("* Make your changes in the repository (ask the mods for access).\n")
	b.WriteString("*/\n")
	return b.String()
}

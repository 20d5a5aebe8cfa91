// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ncruces/go-strftime"

	"github.com/danielhkuo/postboard/models"

	_ "time/tzdata"
)

// Defaults for timestamp display
const (
	DefaultTimeZone   = "Asia/Tokyo"
	DefaultTimeFormat = "%Y年%m月%d日 %H時%M分%S秒"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"lines": splitLines,
	"ago":   humanize.Time,
}

// Renderer renders the post list page.
type Renderer struct {
	tmpl *template.Template
}

func New() (*Renderer, error) {
	tmpl, err := template.New("posts.html").Funcs(funcs).ParseFS(templateFS, "templates/posts.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// RenderPosts writes the list page. Content must be raw text; html/template
// escapes it here.
func (r *Renderer) RenderPosts(w io.Writer, page models.PostsPage) error {
	return r.tmpl.ExecuteTemplate(w, "posts.html", page)
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(s, "\n")
}

// TimeFormatter formats timestamps in a fixed zone with a strftime pattern.
type TimeFormatter struct {
	loc     *time.Location
	pattern string
}

func NewTimeFormatter(zone, pattern string) (*TimeFormatter, error) {
	if zone == "" {
		zone = DefaultTimeZone
	}
	if pattern == "" {
		pattern = DefaultTimeFormat
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", zone, err)
	}
	return &TimeFormatter{loc: loc, pattern: pattern}, nil
}

func (f *TimeFormatter) Format(t time.Time) string {
	return strftime.Format(f.pattern, t.In(f.loc))
}

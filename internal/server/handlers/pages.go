package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/iudanet/logindash/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Flash одноразовое сообщение над содержимым страницы
type Flash struct {
	Category string // success, info, danger
	Message  string
}

// PageData данные для шаблонов страниц
type PageData struct {
	User     *models.User
	Flash    *Flash
	Title    string
	Username string
	Email    string
	Next     string
	History  []*models.LoginHistory
	Remember bool
}

// Pages хранит разобранные шаблоны страниц
type Pages struct {
	templates map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"formatTime": func(t time.Time) string {
		return t.UTC().Format("2006-01-02 15:04:05 UTC")
	},
}

// NewPages разбирает встроенные шаблоны. Каждая страница получает свою копию layout.
func NewPages() (*Pages, error) {
	layout, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	pages := &Pages{templates: make(map[string]*template.Template)}
	for _, name := range []string{"login.html", "register.html", "logout.html", "dashboard.html", "error.html"} {
		tmpl, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone layout: %w", err)
		}
		if _, err := tmpl.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		pages.templates[name] = tmpl
	}

	return pages, nil
}

// Render выполняет шаблон в буфер и только затем пишет статус и тело,
// чтобы ошибка шаблона не оставляла полуотправленный ответ
func (p *Pages) Render(w http.ResponseWriter, status int, name string, data PageData) error {
	tmpl, ok := p.templates[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

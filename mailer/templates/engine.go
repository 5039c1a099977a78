package templates

import (
	"bytes"
	"fmt"
	html "html/template"
	"io"
	"path/filepath"
	text "text/template"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrTemplateNotFound is for when a template is not found. Usually this means
// the deployment is missing the templates directory.
type ErrTemplateNotFound struct {
	name string
}

func (e ErrTemplateNotFound) Error() string {
	return fmt.Sprintf("Template Not Found: %s", e.name)
}

// Executor is something which we can execute like a template
type Executor interface {
	Execute(wr io.Writer, data interface{}) (err error)
}

// Engine loads and executes the email templates. Templates are picked by
// extension: .html for the styled part and .text for the plain part.
type Engine interface {
	Lookup(name string) (Executor, error)
	Bytes(name string, data interface{}) ([]byte, error)
	EmbedHTML(name, wrapper, title string, data interface{}) ([]byte, error)
}

// NewEngine parses every template in dir.
func NewEngine(dir string) (Engine, error) {
	h, err := html.ParseGlob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing html templates")
	}
	t, err := text.ParseGlob(filepath.Join(dir, "*.text"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing text templates")
	}
	return &extensionsTemplateEngine{h, t}, nil
}

// MustNewEngine creates a new Engine, or exits.
func MustNewEngine(dir string) Engine {
	e, err := NewEngine(dir)
	if err != nil {
		log.Fatal(err)
	}
	return e
}

type extensionsTemplateEngine struct {
	htmlTemplates *html.Template
	textTemplates *text.Template
}

// Lookup finds a template by file name.
func (l *extensionsTemplateEngine) Lookup(name string) (Executor, error) {
	switch filepath.Ext(name) {
	case ".html":
		// Lookup returns a typed nil, which would not compare equal to nil
		// once it is an Executor.
		if t := l.htmlTemplates.Lookup(name); t != nil {
			return t, nil
		}
	case ".text":
		if t := l.textTemplates.Lookup(name); t != nil {
			return t, nil
		}
	}
	return nil, ErrTemplateNotFound{name}
}

// Bytes finds and executes the given template by name
func (l *extensionsTemplateEngine) Bytes(name string, data interface{}) ([]byte, error) {
	t, err := l.Lookup(name)
	if err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	if err := t.Execute(buf, data); err != nil {
		return nil, errors.Wrapf(err, "executing %s", name)
	}
	return buf.Bytes(), nil
}

// EmbedHTML renders name inside the wrapper page, so every email shares the
// same header and footer. The wrapper sees the email's own data too, plus
// Content and Title.
func (l *extensionsTemplateEngine) EmbedHTML(name, wrapper, title string, data interface{}) ([]byte, error) {
	content, err := l.Bytes(name, data)
	if err != nil {
		return nil, err
	}
	page := map[string]interface{}{}
	if m, ok := data.(map[string]interface{}); ok {
		for k, v := range m {
			page[k] = v
		}
	}
	page["Content"] = html.HTML(content)
	page["Title"] = title
	return l.Bytes(wrapper, page)
}

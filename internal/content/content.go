// Package content serves the storefront's static information pages.
package content

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrPageNotFound = errors.New("page not found")

//go:embed pages/*.md
var pageFS embed.FS

var frontMatterDelim = []byte("---")

type Page struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Body        string `json:"body"`
}

type Summary struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

type Pages struct {
	bySlug map[string]Page
}

func Default() (*Pages, error) {
	sub, err := fs.Sub(pageFS, "pages")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

// Load parses every markdown file at the root of fsys. The file name
// without extension is the slug.
func Load(fsys fs.FS) (*Pages, error) {
	files, err := fs.Glob(fsys, "*.md")
	if err != nil {
		return nil, err
	}
	p := &Pages{bySlug: make(map[string]Page, len(files))}
	for _, f := range files {
		data, err := fs.ReadFile(fsys, f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		page, err := parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		page.Slug = strings.TrimSuffix(path.Base(f), ".md")
		p.bySlug[page.Slug] = page
	}
	return p, nil
}

func parse(data []byte) (Page, error) {
	var page Page
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	if !bytes.HasPrefix(data, frontMatterDelim) {
		return page, errors.New("missing front matter")
	}
	rest := data[len(frontMatterDelim):]
	end := bytes.Index(rest, append([]byte("\n"), frontMatterDelim...))
	if end < 0 {
		return page, errors.New("unterminated front matter")
	}

	var meta struct {
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
	}
	if err := yaml.Unmarshal(rest[:end], &meta); err != nil {
		return page, err
	}
	if strings.TrimSpace(meta.Title) == "" {
		return page, errors.New("title is required")
	}

	body := rest[end+1+len(frontMatterDelim):]
	page.Title = meta.Title
	page.Description = meta.Description
	page.Body = strings.TrimSpace(string(body)) + "\n"
	return page, nil
}

func (p *Pages) Get(slug string) (Page, error) {
	page, ok := p.bySlug[slug]
	if !ok {
		return Page{}, ErrPageNotFound
	}
	return page, nil
}

// List returns every page sorted by slug.
func (p *Pages) List() []Summary {
	out := make([]Summary, 0, len(p.bySlug))
	for _, page := range p.bySlug {
		out = append(out, Summary{Slug: page.Slug, Title: page.Title})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

package blog

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

var ErrPostNotFound = errors.New("post not found")

// Listing defaults for posts with incomplete front matter.
const (
	DefaultTitle   = "Untitled"
	DefaultDate    = "2024-01-01"
	DefaultExcerpt = "No excerpt available"
	DefaultAuthor  = "Unknown author"

	DateLayout = "2006-01-02"

	ext = ".md"
)

// Meta is what listings, the sitemap and page metadata need.
type Meta struct {
	Slug    string   `json:"slug"`
	Title   string   `json:"title"`
	Date    string   `json:"date"`
	Excerpt string   `json:"excerpt"`
	Author  string   `json:"author"`
	Tags    []string `json:"tags"`
}

// Time parses Date; ok is false for dates not in YYYY-MM-DD form.
func (m Meta) Time() (time.Time, bool) {
	t, err := time.Parse(DateLayout, m.Date)
	return t, err == nil
}

// Post is a rendered post.
type Post struct {
	Meta
	HTML string `json:"html"`
}

type Options struct {
	// Include restricts the store to these slugs. Empty means every *.md file.
	Include   []string
	CacheSize int
}

type cached struct {
	mod  time.Time
	size int64
	post Post
}

// Store reads markdown posts from a directory.
type Store struct {
	fs      afero.Fs
	dir     string
	include map[string]bool
	md      goldmark.Markdown
	cache   *lru.Cache[string, cached]
}

func NewStore(fsys afero.Fs, dir string, opts Options) (*Store, error) {
	size := opts.CacheSize
	if size <= 0 {
		size = 32
	}
	cache, err := lru.New[string, cached](size)
	if err != nil {
		return nil, fmt.Errorf("post cache: %w", err)
	}
	s := &Store{
		fs:    fsys,
		dir:   dir,
		cache: cache,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
	if len(opts.Include) > 0 {
		s.include = make(map[string]bool, len(opts.Include))
		for _, slug := range opts.Include {
			s.include[strings.TrimSuffix(slug, ext)] = true
		}
	}
	return s, nil
}

func (s *Store) allowed(slug string) bool {
	return s.include == nil || s.include[slug]
}

// Slugs returns every published slug in lexical order.
func (s *Store) Slugs() ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, fmt.Errorf("read posts dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		slug := strings.TrimSuffix(e.Name(), ext)
		if validSlug(slug) && s.allowed(slug) {
			out = append(out, slug)
		}
	}
	sort.Strings(out)
	return out, nil
}

// List returns the metadata of every post, newest first. Posts that cannot
// be read are logged and skipped.
func (s *Store) List() ([]Meta, error) {
	slugs, err := s.Slugs()
	if err != nil {
		return nil, err
	}
	out := make([]Meta, 0, len(slugs))
	for _, slug := range slugs {
		m, err := s.meta(slug)
		if err != nil {
			log.Warn().Err(err).Str("slug", slug).Msg("skipping post")
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

// Get renders one post. Unknown, excluded or malformed slugs return
// ErrPostNotFound.
func (s *Store) Get(slug string) (Post, error) {
	if !validSlug(slug) || !s.allowed(slug) {
		return Post{}, fmt.Errorf("%w: %q", ErrPostNotFound, slug)
	}
	name := path.Join(s.dir, slug+ext)
	info, err := s.fs.Stat(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Post{}, fmt.Errorf("%w: %q", ErrPostNotFound, slug)
		}
		return Post{}, fmt.Errorf("stat post: %w", err)
	}
	if c, ok := s.cache.Get(slug); ok && c.mod.Equal(info.ModTime()) && c.size == info.Size() {
		return c.post, nil
	}

	src, err := afero.ReadFile(s.fs, name)
	if err != nil {
		return Post{}, fmt.Errorf("read post %s: %w", slug, err)
	}
	fm, body, err := parseFrontMatter(src)
	if err != nil {
		return Post{}, fmt.Errorf("post %s: %w", slug, err)
	}
	var html bytes.Buffer
	if err := s.md.Convert(bytes.TrimSpace(body), &html); err != nil {
		return Post{}, fmt.Errorf("render post %s: %w", slug, err)
	}
	p := Post{Meta: withDefaults(slug, fm), HTML: html.String()}
	s.cache.Add(slug, cached{mod: info.ModTime(), size: info.Size(), post: p})
	return p, nil
}

func (s *Store) meta(slug string) (Meta, error) {
	src, err := afero.ReadFile(s.fs, path.Join(s.dir, slug+ext))
	if err != nil {
		return Meta{}, err
	}
	fm, _, err := parseFrontMatter(src)
	if err != nil {
		return Meta{}, err
	}
	return withDefaults(slug, fm), nil
}

func withDefaults(slug string, fm frontMatter) Meta {
	m := Meta{
		Slug:    slug,
		Title:   fm.Title,
		Date:    fm.Date,
		Excerpt: fm.Excerpt,
		Author:  fm.Author,
		Tags:    []string(fm.Tags),
	}
	if m.Title == "" {
		m.Title = DefaultTitle
	}
	if m.Date == "" {
		m.Date = DefaultDate
	}
	if m.Excerpt == "" {
		m.Excerpt = DefaultExcerpt
	}
	if m.Author == "" {
		m.Author = DefaultAuthor
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	return m
}

// validSlug rejects anything that could leave the posts directory.
func validSlug(slug string) bool {
	return slug != "" &&
		!strings.HasPrefix(slug, ".") &&
		!strings.ContainsAny(slug, `/\`) &&
		!strings.Contains(slug, "..")
}

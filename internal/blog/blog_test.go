package blog

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rgbBasics = `---
title: "RGB Basics"
date: 2024-03-15
excerpt: How three lights make every color.
author: Color Lab
tags: [rgb, light]
---

# Additive color

Red and **green** make yellow.
`

const whiteBalance = `---
title: White Balance
date: "2024-05-02"
tags: "white, camera"
---
Body.
`

func newFS(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, body := range files {
		require.NoError(t, afero.WriteFile(fs, "posts/"+name, []byte(body), 0644))
	}
	return fs
}

func TestListSortedWithDefaults(t *testing.T) {
	fs := newFS(t, map[string]string{
		"rgb-basics.md":    rgbBasics,
		"white-balance.md": whiteBalance,
		"bare.md":          "no front matter here",
		"notes.txt":        "ignored",
	})
	s, err := NewStore(fs, "posts", Options{})
	require.NoError(t, err)

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Equal(t, "white-balance", list[0].Slug)
	assert.Equal(t, []string{"white", "camera"}, list[0].Tags)
	assert.Equal(t, DefaultAuthor, list[0].Author)
	assert.Equal(t, DefaultExcerpt, list[0].Excerpt)

	assert.Equal(t, "rgb-basics", list[1].Slug)
	assert.Equal(t, "2024-03-15", list[1].Date)
	assert.Equal(t, "Color Lab", list[1].Author)
	assert.Equal(t, []string{"rgb", "light"}, list[1].Tags)

	assert.Equal(t, Meta{
		Slug: "bare", Title: DefaultTitle, Date: DefaultDate,
		Excerpt: DefaultExcerpt, Author: DefaultAuthor, Tags: []string{},
	}, list[2])
}

func TestIncludeFilter(t *testing.T) {
	fs := newFS(t, map[string]string{
		"rgb-basics.md":    rgbBasics,
		"white-balance.md": whiteBalance,
		"draft.md":         "draft",
	})
	s, err := NewStore(fs, "posts", Options{Include: []string{"rgb-basics.md", "white-balance"}})
	require.NoError(t, err)

	slugs, err := s.Slugs()
	require.NoError(t, err)
	assert.Equal(t, []string{"rgb-basics", "white-balance"}, slugs)

	_, err = s.Get("draft")
	assert.True(t, errors.Is(err, ErrPostNotFound))
}

func TestGetRendersMarkdown(t *testing.T) {
	s, err := NewStore(newFS(t, map[string]string{"rgb-basics.md": rgbBasics}), "posts", Options{})
	require.NoError(t, err)

	p, err := s.Get("rgb-basics")
	require.NoError(t, err)
	assert.Equal(t, "RGB Basics", p.Title)
	assert.Contains(t, p.HTML, `<h1 id="additive-color">Additive color</h1>`)
	assert.Contains(t, p.HTML, "<strong>green</strong>")
	assert.NotContains(t, p.HTML, "title:")
}

func TestGetNotFound(t *testing.T) {
	s, err := NewStore(newFS(t, map[string]string{"rgb-basics.md": rgbBasics}), "posts", Options{})
	require.NoError(t, err)

	for _, slug := range []string{"missing", "", "../etc/passwd", `a\b`, ".hidden", "a/b"} {
		_, err := s.Get(slug)
		assert.ErrorIs(t, err, ErrPostNotFound, slug)
	}
}

func TestGetCacheInvalidatesOnChange(t *testing.T) {
	fs := newFS(t, map[string]string{"rgb-basics.md": rgbBasics})
	s, err := NewStore(fs, "posts", Options{CacheSize: 2})
	require.NoError(t, err)

	first, err := s.Get("rgb-basics")
	require.NoError(t, err)
	again, err := s.Get("rgb-basics")
	require.NoError(t, err)
	assert.Equal(t, first, again)

	require.NoError(t, afero.WriteFile(fs, "posts/rgb-basics.md", []byte("---\ntitle: Changed title\n---\nNew body text.\n"), 0644))
	changed, err := s.Get("rgb-basics")
	require.NoError(t, err)
	assert.Equal(t, "Changed title", changed.Title)
	assert.Contains(t, changed.HTML, "New body text.")
}

func TestMalformedFrontMatter(t *testing.T) {
	fs := newFS(t, map[string]string{
		"broken.md":     "---\ntitle: [unclosed\n---\nbody\n",
		"rgb-basics.md": rgbBasics,
	})
	s, err := NewStore(fs, "posts", Options{})
	require.NoError(t, err)

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 1, "broken post is skipped")

	_, err = s.Get("broken")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrPostNotFound))
}

func TestSplitFrontMatter(t *testing.T) {
	meta, body := splitFrontMatter([]byte("---\r\ntitle: x\r\n---\r\nhello\r\n"))
	assert.Equal(t, "title: x\n", string(meta))
	assert.Equal(t, "hello\n", string(body))

	meta, body = splitFrontMatter([]byte("---\ntitle: never closed\n"))
	assert.Nil(t, meta)
	assert.Equal(t, "---\ntitle: never closed\n", string(body))
}

func TestMissingDir(t *testing.T) {
	s, err := NewStore(afero.NewMemMapFs(), "posts", Options{})
	require.NoError(t, err)
	_, err = s.List()
	assert.Error(t, err)
}

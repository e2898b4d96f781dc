package site

import (
	"encoding/xml"
	"io"
	"time"

	"github.com/coreman2200/colorlab/internal/blog"
	"github.com/coreman2200/colorlab/internal/config"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type SitemapURL struct {
	Loc        string  `xml:"loc"`
	LastMod    string  `xml:"lastmod,omitempty"`
	ChangeFreq string  `xml:"changefreq,omitempty"`
	Priority   float64 `xml:"priority"`
}

type URLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	NS      string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

// BuildSitemap lists the home page, the blog index and every post. Posts use
// their own date as last modification.
func BuildSitemap(s config.Site, posts []blog.Meta, now time.Time) URLSet {
	today := now.UTC().Format(blog.DateLayout)
	set := URLSet{
		NS: sitemapNS,
		URLs: []SitemapURL{
			{Loc: absURL(s.URL, "/"), LastMod: today, ChangeFreq: "yearly", Priority: 1},
			{Loc: absURL(s.URL, "/blog"), LastMod: today, ChangeFreq: "weekly", Priority: 0.9},
		},
	}
	for _, p := range posts {
		u := SitemapURL{Loc: absURL(s.URL, "/blog/"+p.Slug), ChangeFreq: "monthly", Priority: 0.8}
		if t, ok := p.Time(); ok {
			u.LastMod = t.Format(blog.DateLayout)
		}
		set.URLs = append(set.URLs, u)
	}
	return set
}

func WriteSitemap(w io.Writer, set URLSet) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

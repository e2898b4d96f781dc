package site

import (
	"encoding/json"
	"html/template"
	"strings"

	"github.com/coreman2200/colorlab/internal/blog"
	"github.com/coreman2200/colorlab/internal/config"
)

// PageMeta is the head metadata of one page.
type PageMeta struct {
	Title       string
	Description string
	Keywords    []string
	Canonical   string
	OGType      string // website | article
	OGImage     string
	Author      string
	Published   string
	Tags        []string
	JSONLD      template.JS
}

func (m PageMeta) KeywordList() string { return strings.Join(m.Keywords, ", ") }

func absURL(base, p string) string {
	if p == "" || strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(p, "/")
}

func jsonLD(v any) template.JS {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return template.JS(b)
}

func homeMeta(s config.Site) PageMeta {
	return PageMeta{
		Title:       s.Name,
		Description: s.Description,
		Keywords:    s.Keywords,
		Canonical:   absURL(s.URL, "/"),
		OGType:      "website",
		OGImage:     absURL(s.URL, s.OGImage),
		Author:      s.Author,
		JSONLD: jsonLD(map[string]any{
			"@context":            "https://schema.org",
			"@type":               "WebApplication",
			"name":                s.Name,
			"description":         s.Description,
			"url":                 s.URL,
			"applicationCategory": "EducationalApplication",
			"operatingSystem":     "Web Browser",
			"offers":              map[string]string{"@type": "Offer", "price": "0", "priceCurrency": "USD"},
			"featureList": []string{
				"Real-time RGB color mixing",
				"Brightness and saturation controls",
				"Hover color readout",
			},
		}),
	}
}

func blogMeta(s config.Site) PageMeta {
	return PageMeta{
		Title:       "Color Theory Blog | " + s.Name,
		Description: "Guides on RGB, additive color and white balance.",
		Keywords:    append([]string{"color theory blog", "RGB tutorials"}, s.Keywords...),
		Canonical:   absURL(s.URL, "/blog"),
		OGType:      "website",
		OGImage:     absURL(s.URL, s.OGImage),
		Author:      s.Author,
	}
}

func postMeta(s config.Site, m blog.Meta) PageMeta {
	url := absURL(s.URL, "/blog/"+m.Slug)
	return PageMeta{
		Title:       m.Title + " | " + s.Name,
		Description: m.Excerpt,
		Keywords:    m.Tags,
		Canonical:   url,
		OGType:      "article",
		OGImage:     absURL(s.URL, s.OGImage),
		Author:      m.Author,
		Published:   m.Date,
		Tags:        m.Tags,
		JSONLD: jsonLD(map[string]any{
			"@context":      "https://schema.org",
			"@type":         "BlogPosting",
			"headline":      m.Title,
			"description":   m.Excerpt,
			"datePublished": m.Date,
			"author":        map[string]string{"@type": "Person", "name": m.Author},
			"keywords":      strings.Join(m.Tags, ", "),
			"url":           url,
		}),
	}
}

func notFoundMeta(s config.Site) PageMeta {
	return PageMeta{
		Title:       "Article Not Found | " + s.Name,
		Description: "The requested article could not be found.",
		OGType:      "website",
	}
}

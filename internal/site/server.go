package site

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/colorlab/internal/blog"
	"github.com/coreman2200/colorlab/internal/colorstate"
	"github.com/coreman2200/colorlab/internal/config"
	"github.com/coreman2200/colorlab/internal/layout"
	"github.com/coreman2200/colorlab/internal/ws"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"home.html", "blog.html", "post.html", "notfound.html"}

// Server is the HTTP surface: pages, sitemap, stateless canvas APIs and, when
// a live State is attached, its sockets.
type Server struct {
	site   config.Site
	bounds layout.Bounds
	posts  *blog.Store
	state  *ws.State
	tmpl   map[string]*template.Template
	now    func() time.Time
}

type pageData struct {
	Meta     PageMeta
	Site     config.Site
	Posts    []blog.Meta
	Post     blog.Post
	Body     template.HTML
	State    ws.StateMessage
	Live     bool
	Channels []colorstate.Channel
}

func funcs(now func() time.Time) template.FuncMap {
	return template.FuncMap{
		"ago": func(m blog.Meta) string {
			t, ok := m.Time()
			if !ok {
				return m.Date
			}
			return humanize.RelTime(t, now(), "ago", "from now")
		},
		"longDate": func(m blog.Meta) string {
			t, ok := m.Time()
			if !ok {
				return m.Date
			}
			return t.Format("January 2, 2006")
		},
		"hex": func(c colorstate.Channel) string { return c.Hex() },
	}
}

// NewServer parses the page templates. state may be nil for a static site.
func NewServer(site config.Site, bounds layout.Bounds, posts *blog.Store, state *ws.State) (*Server, error) {
	if bounds.Min <= 0 {
		bounds = layout.DefaultBounds()
	}
	s := &Server{
		site:   site,
		bounds: bounds,
		posts:  posts,
		state:  state,
		tmpl:   map[string]*template.Template{},
		now:    time.Now,
	}
	for _, p := range pages {
		t, err := template.New(p).Funcs(funcs(func() time.Time { return s.now() })).
			ParseFS(templateFS, "templates/layout.html", "templates/"+p)
		if err != nil {
			return nil, err
		}
		s.tmpl[p] = t
	}
	return s, nil
}

// Router wires every route behind the request logging middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		lvl := zerolog.InfoLevel
		if status >= 500 {
			lvl = zerolog.ErrorLevel
		}
		hlog.FromRequest(r).WithLevel(lvl).
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", d).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleHome)
	r.Get("/blog", s.handleBlog)
	r.Get("/blog/{slug}", s.handlePost)
	r.Get("/sitemap.xml", s.handleSitemap)
	r.Get("/api/canvas.png", s.handleCanvasPNG)
	r.Get("/api/sample", s.handleSample)
	r.Get("/api/posts", s.handlePostsJSON)

	if s.state != nil {
		r.Get("/ws", s.state.HandleFramesWS)
		r.Get("/diag", s.state.HandleDiagWS)
		r.Get("/control", s.state.HandleControlWS)
		r.Get("/health", s.state.HandleHealth)
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, http.StatusNotFound, "notfound.html", pageData{Meta: notFoundMeta(s.site)})
	})
	return r
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	data.Site = s.site
	var buf bytes.Buffer
	if err := s.tmpl[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("page", page).Msg("template")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	data := pageData{Meta: homeMeta(s.site), Channels: colorstate.Channels[:]}
	if s.state != nil {
		data.State, data.Live = s.state.Snapshot(), true
	} else {
		c := colorstate.NewControls(false)
		data.State = ws.StateMessage{Type: "state", Channels: c.Snapshot().Views(), Logical: s.bounds.Max}
	}
	if s.posts != nil {
		if list, err := s.posts.List(); err == nil {
			data.Posts = list
		}
	}
	s.render(w, r, http.StatusOK, "home.html", data)
}

func (s *Server) handleBlog(w http.ResponseWriter, r *http.Request) {
	list, err := s.listPosts()
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("list posts")
		http.Error(w, "posts unavailable", http.StatusInternalServerError)
		return
	}
	s.render(w, r, http.StatusOK, "blog.html", pageData{Meta: blogMeta(s.site), Posts: list})
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if s.posts == nil {
		s.render(w, r, http.StatusNotFound, "notfound.html", pageData{Meta: notFoundMeta(s.site)})
		return
	}
	p, err := s.posts.Get(slug)
	if errors.Is(err, blog.ErrPostNotFound) {
		s.render(w, r, http.StatusNotFound, "notfound.html", pageData{Meta: notFoundMeta(s.site)})
		return
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("slug", slug).Msg("get post")
		http.Error(w, "post unavailable", http.StatusInternalServerError)
		return
	}
	s.render(w, r, http.StatusOK, "post.html", pageData{
		Meta: postMeta(s.site, p.Meta),
		Post: p,
		// rendered from trusted files in the posts directory
		Body: template.HTML(p.HTML),
	})
}

func (s *Server) listPosts() ([]blog.Meta, error) {
	if s.posts == nil {
		return nil, nil
	}
	return s.posts.List()
}

func (s *Server) handlePostsJSON(w http.ResponseWriter, r *http.Request) {
	list, err := s.listPosts()
	if err != nil {
		http.Error(w, "posts unavailable", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []blog.Meta{}
	}
	writeJSON(w, list)
}

// Sitemap builds the sitemap for the current posts.
func (s *Server) Sitemap() (URLSet, error) {
	list, err := s.listPosts()
	if err != nil {
		return URLSet{}, err
	}
	return BuildSitemap(s.site, list, s.now()), nil
}

func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	set, err := s.Sitemap()
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("sitemap")
		http.Error(w, "sitemap unavailable", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := WriteSitemap(&buf, set); err != nil {
		http.Error(w, "sitemap unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

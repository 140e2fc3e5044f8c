package handler

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"soulbalance/internal/logger"
	"soulbalance/internal/service"
)

// SeoHandler serves robots.txt and the sitemap.
type SeoHandler struct {
	posts      *service.PostService
	baseURL    string
	categories []string
	log        logger.Logger
}

// NewSeoHandler creates a SeoHandler. baseURL is the public origin of the site.
func NewSeoHandler(posts *service.PostService, baseURL string, categories []string, log logger.Logger) *SeoHandler {
	return &SeoHandler{
		posts:      posts,
		baseURL:    strings.TrimRight(baseURL, "/"),
		categories: categories,
		log:        log,
	}
}

// robotsDisallow lists the paths crawlers should skip.
var robotsDisallow = []string{"/dashboard", "/blogs/new", "/api/"}

func (h *SeoHandler) robotsHandler(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder
	b.WriteString("User-agent: *\nAllow: /\n")
	for _, p := range robotsDisallow {
		fmt.Fprintf(&b, "Disallow: %s\n", p)
	}
	fmt.Fprintf(&b, "\nSitemap: %s/sitemap.xml\n", h.baseURL)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(b.String()))
}

const sitemapDateFormat = "2006-01-02"

type sitemapURL struct {
	XMLName    xml.Name `xml:"url"`
	Loc        string   `xml:"loc"`
	LastMod    string   `xml:"lastmod,omitempty"`
	ChangeFreq string   `xml:"changefreq,omitempty"`
	Priority   string   `xml:"priority,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// sitemapHandler lists the static pages, every category and every post.
func (h *SeoHandler) sitemapHandler(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListByUser(r.Context(), 0)
	if err != nil {
		h.log.Error(err, "Failed to retrieve posts for sitemap")
		http.Error(w, "Failed to retrieve posts for sitemap", http.StatusInternalServerError)
		return
	}

	set := urlSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	add := func(path, lastMod, freq, priority string) {
		set.URLs = append(set.URLs, sitemapURL{Loc: h.baseURL + path, LastMod: lastMod, ChangeFreq: freq, Priority: priority})
	}

	add("/", "", "daily", "1.0")
	add("/blogs", "", "daily", "0.9")
	add("/categories", "", "weekly", "0.6")
	add("/about", "", "monthly", "0.3")
	add("/contact", "", "monthly", "0.3")
	for _, c := range h.categories {
		add("/category/"+url.PathEscape(c), "", "weekly", "0.6")
	}
	for _, p := range posts {
		add(fmt.Sprintf("/blog/%d", p.ID), p.UpdatedAt.Format(sitemapDateFormat), "", "0.8")
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Write([]byte(xml.Header))
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		h.log.Error(err, "Failed to encode sitemap")
	}
}

package handlers

import (
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"codenook/internal/courses"
	"codenook/internal/utils"

	"github.com/gin-gonic/gin"
)

const feedSize = 20

type SEOHandler struct {
	siteURL string
	posts   PostStore
	catalog *courses.Catalog
}

func NewSEOHandler(siteURL string, posts PostStore, catalog *courses.Catalog) *SEOHandler {
	return &SEOHandler{siteURL: strings.TrimSuffix(siteURL, "/"), posts: posts, catalog: catalog}
}

func (h *SEOHandler) RobotsTxt(c *gin.Context) {
	content := fmt.Sprintf(`User-agent: *
Allow: /

Disallow: /api/
Disallow: /write
Disallow: /login
Disallow: /signup
Disallow: /auth/

Sitemap: %s/sitemap.xml
`, h.siteURL)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, content)
}

// SitemapXML lists the static pages, every published post and every course.
func (h *SEOHandler) SitemapXML(c *gin.Context) {
	posts, err := h.posts.List(c.Request.Context(), 0)
	if err != nil {
		PageError(c, err, "Failed to build sitemap")
		return
	}
	now := time.Now().Format("2006-01-02")

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
`)
	writeURL := func(path, lastmod, changefreq string, priority float64) {
		fmt.Fprintf(&b, `  <url>
    <loc>%s</loc>
    <lastmod>%s</lastmod>
    <changefreq>%s</changefreq>
    <priority>%.1f</priority>
  </url>
`, escapeXML(h.siteURL+path), lastmod, changefreq, priority)
	}

	writeURL("/", now, "daily", 1.0)
	writeURL("/posts", now, "daily", 0.9)
	writeURL("/courses", now, "weekly", 0.8)

	for _, p := range posts {
		priority, changefreq := 0.6, "weekly"
		if time.Since(p.CreatedAt) < 7*24*time.Hour {
			priority, changefreq = 0.8, "daily"
		}
		writeURL("/posts/"+p.ID, p.UpdatedAt.Format("2006-01-02"), changefreq, priority)
	}
	for _, s := range h.catalog.Sections() {
		for _, course := range s.Courses {
			writeURL("/courses/"+course.Slug, now, "monthly", 0.5)
		}
	}
	b.WriteString(`</urlset>`)

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.String(http.StatusOK, b.String())
}

// RSSFeed renders an RSS 2.0 feed of the latest posts.
func (h *SEOHandler) RSSFeed(c *gin.Context) {
	posts, err := h.posts.List(c.Request.Context(), feedSize)
	if err != nil {
		PageError(c, err, "Failed to build feed")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">
  <channel>
    <title>Codenook</title>
    <link>%s</link>
    <description>Articles and courses on programming, databases and the cloud</description>
    <language>en</language>
    <lastBuildDate>%s</lastBuildDate>
    <atom:link href="%s/feed.xml" rel="self" type="application/rss+xml"/>
`, escapeXML(h.siteURL), time.Now().Format(time.RFC1123Z), escapeXML(h.siteURL))

	for _, p := range posts {
		link := h.siteURL + "/posts/" + p.ID
		description := p.Excerpt
		if description == "" {
			description = utils.PlainText(p.Title)
		}
		fmt.Fprintf(&b, `    <item>
      <title>%s</title>
      <link>%s</link>
      <description>%s</description>
      <author>%s</author>
      <pubDate>%s</pubDate>
      <guid isPermaLink="true">%s</guid>
    </item>
`, escapeXML(p.Title), escapeXML(link), escapeXML(description), escapeXML(p.Author.Name),
			p.CreatedAt.Format(time.RFC1123Z), escapeXML(link))
	}
	b.WriteString(`  </channel>
</rss>`)

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	c.String(http.StatusOK, b.String())
}

func escapeXML(s string) string {
	return html.EscapeString(s)
}

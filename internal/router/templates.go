package router

import (
	"fmt"
	"html/template"
	"net/url"
	"path/filepath"
	"time"

	"codenook/internal/utils"

	"github.com/gin-contrib/multitemplate"
)

// FuncMap holds the helpers available to every template.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"dict": func(values ...any) (map[string]any, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"add": func(a, b int) int {
			return a + b
		},
		"timeAgo": func(t time.Time) string {
			return timeAgo(time.Since(t))
		},
		"date": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},
		"markdown": utils.RenderMarkdown,
		"initials": utils.Initials,
		"urlquery": func(s string) string {
			return url.QueryEscape(s)
		},
		"year": func() int {
			return time.Now().Year()
		},
	}
}

func timeAgo(d time.Duration) string {
	plural := func(n int, unit string) string {
		if n == 1 {
			return fmt.Sprintf("1 %s ago", unit)
		}
		return fmt.Sprintf("%d %ss ago", n, unit)
	}

	seconds := int(d.Seconds())
	switch {
	case seconds < 60:
		return "just now"
	case seconds < 3600:
		return plural(seconds/60, "minute")
	case seconds < 86400:
		return plural(seconds/3600, "hour")
	case seconds < 2592000:
		return plural(seconds/86400, "day")
	case seconds < 31536000:
		return plural(seconds/2592000, "month")
	}
	return plural(seconds/31536000, "year")
}

// LoadTemplates pairs every view under views/ with the shared layouts,
// includes and components. A view is registered under its path relative to
// views/, e.g. "post/detail.html".
func LoadTemplates(templatesDir string) (multitemplate.Renderer, error) {
	r := multitemplate.NewRenderer()

	var shared []string
	for _, dir := range []string{"layouts", "includes", "components"} {
		files, err := filepath.Glob(filepath.Join(templatesDir, dir, "*.html"))
		if err != nil {
			return nil, err
		}
		shared = append(shared, files...)
	}

	viewsDir := filepath.Join(templatesDir, "views")
	var views []string
	for _, pattern := range []string{"*.html", "*/*.html"} {
		files, err := filepath.Glob(filepath.Join(viewsDir, pattern))
		if err != nil {
			return nil, err
		}
		views = append(views, files...)
	}
	if len(views) == 0 {
		return nil, fmt.Errorf("no views found in %s", viewsDir)
	}

	funcs := FuncMap()
	for _, view := range views {
		name, err := filepath.Rel(viewsDir, view)
		if err != nil {
			return nil, err
		}
		files := append(append([]string{}, shared...), view)
		r.AddFromFilesFuncs(filepath.ToSlash(name), funcs, files...)
	}
	return r, nil
}

package router

import (
	"fmt"
	"net/http"

	"codenook/internal/config"
	"codenook/internal/courses"
	"codenook/internal/handlers"
	"codenook/internal/middleware"
	"codenook/internal/services"
	"codenook/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const cacheSize = 512

// New assembles the services, handlers and middleware into a gin engine.
func New(cfg config.Config, conn *gorm.DB, uploader services.ImageUploader) (*gin.Engine, error) {
	cache, err := utils.NewCache(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	catalog, err := courses.New(cache)
	if err != nil {
		return nil, err
	}
	renderer, err := LoadTemplates(cfg.TemplatesDir)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	maxUpload := cfg.MaxUploadMB << 20
	users := services.NewUserService(conn, cfg.IsAdminEmail)
	posts := services.NewPostService(conn, uploader, maxUpload)
	comments := services.NewCommentService(conn)
	likes := services.NewLikeService(conn)
	taxonomy := services.NewTaxonomyService(conn)

	postHandler := handlers.NewPostHandler(posts, comments, likes, taxonomy, cache)
	h := Handlers{
		Auth:     handlers.NewAuthHandler(users, services.NewCaptchaService(), handlers.GoogleOAuthConfig(cfg)),
		Home:     handlers.NewHomeHandler(postHandler, catalog),
		Posts:    postHandler,
		Comments: handlers.NewCommentHandler(comments, postHandler.Invalidate),
		Likes:    handlers.NewLikeHandler(likes, postHandler.Invalidate),
		Taxonomy: handlers.NewTaxonomyHandler(taxonomy),
		Upload:   handlers.NewUploadHandler(uploader, maxUpload),
		Courses:  handlers.NewCourseHandler(catalog),
		SEO:      handlers.NewSEOHandler(cfg.SiteURL, posts, catalog),
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	r.MaxMultipartMemory = maxUpload

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 30 * 24 * 3600, HttpOnly: true})
	r.Use(sessions.Sessions("codenook_session", store))

	r.HTMLRender = renderer
	if cfg.StaticDir != "" {
		r.Static("/static", cfg.StaticDir)
	}
	r.Use(middleware.LoadUser(users))

	RegisterRoutes(r, h)
	r.NoRoute(func(c *gin.Context) {
		handlers.RenderError(c, http.StatusNotFound, "Page not found")
	})
	return r, nil
}

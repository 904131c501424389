package router

import (
	"codenook/internal/handlers"
	"codenook/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	Home     *handlers.HomeHandler
	Posts    *handlers.PostHandler
	Comments *handlers.CommentHandler
	Likes    *handlers.LikeHandler
	Taxonomy *handlers.TaxonomyHandler
	Upload   *handlers.UploadHandler
	Courses  *handlers.CourseHandler
	SEO      *handlers.SEOHandler
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	// Public pages
	r.GET("/", h.Home.Index)
	r.GET("/posts", h.Posts.List)
	r.GET("/posts/:id", h.Posts.Detail)
	r.GET("/courses", h.Courses.List)
	r.GET("/courses/:slug", h.Courses.Detail)

	r.GET("/robots.txt", h.SEO.RobotsTxt)
	r.GET("/sitemap.xml", h.SEO.SitemapXML)
	r.GET("/feed.xml", h.SEO.RSSFeed)

	// Accounts
	r.GET("/signup", h.Auth.ShowRegister)
	r.POST("/signup", h.Auth.Register)
	r.GET("/signup/captcha", h.Auth.RefreshCaptcha)
	r.GET("/login", h.Auth.ShowLogin)
	r.POST("/login", h.Auth.Login)
	r.GET("/logout", h.Auth.Logout)
	r.GET("/auth/google", h.Auth.GoogleLogin)
	r.GET("/auth/google/callback", h.Auth.GoogleCallback)

	// Signed-in page actions
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/posts/:id/comments", h.Comments.Submit)
		authorized.POST("/posts/:id/like", h.Likes.Submit)
	}

	admin := r.Group("/")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	{
		admin.GET("/write", h.Posts.ShowWrite)
		admin.POST("/write", h.Posts.Write)
	}

	// JSON API
	api := r.Group("/api")
	{
		api.GET("/posts", h.Posts.APIList)
		api.GET("/posts/:id", h.Posts.APIGet)
		api.GET("/posts/:id/comments", h.Comments.List)
		api.GET("/posts/:id/like-status", h.Likes.Status)
		api.GET("/categories", h.Taxonomy.ListCategories)
		api.GET("/tags", h.Taxonomy.ListTags)

		member := api.Group("")
		member.Use(middleware.APIAuthRequired())
		member.POST("/posts/:id/comments", h.Comments.Create)
		member.POST("/posts/:id/like", h.Likes.Toggle)

		staff := api.Group("")
		staff.Use(middleware.AdminRequired())
		staff.POST("/posts", h.Posts.APICreate)
		staff.POST("/categories", h.Taxonomy.CreateCategory)
		staff.DELETE("/categories", h.Taxonomy.DeleteCategory)
		staff.POST("/tags", h.Taxonomy.CreateTag)
		staff.DELETE("/tags", h.Taxonomy.DeleteTag)
		staff.POST("/upload", h.Upload.Upload)
	}
}

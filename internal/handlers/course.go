package handlers

import (
	"errors"
	"net/http"

	"codenook/internal/courses"

	"github.com/gin-gonic/gin"
)

const homePostCount = 6

type CourseHandler struct {
	catalog *courses.Catalog
}

func NewCourseHandler(catalog *courses.Catalog) *CourseHandler {
	return &CourseHandler{catalog: catalog}
}

func (h *CourseHandler) List(c *gin.Context) {
	Render(c, http.StatusOK, "course/list.html", gin.H{
		"Title":    "Courses",
		"Sections": h.catalog.Sections(),
	})
}

// Detail renders /courses/:slug?lesson=<slug>.
func (h *CourseHandler) Detail(c *gin.Context) {
	page, err := h.catalog.Lesson(c.Param("slug"), c.Query("lesson"))
	if errors.Is(err, courses.ErrNotFound) {
		RenderError(c, http.StatusNotFound, "Course not found")
		return
	}
	if err != nil {
		PageError(c, err, "Failed to load course")
		return
	}

	title := page.Course.Label
	if page.Lesson != nil {
		title = page.Lesson.Title + " | " + page.Course.Label
	}
	Render(c, http.StatusOK, "course/detail.html", gin.H{
		"Title": title,
		"Page":  page,
	})
}

type HomeHandler struct {
	posts   *PostHandler
	catalog *courses.Catalog
}

func NewHomeHandler(posts *PostHandler, catalog *courses.Catalog) *HomeHandler {
	return &HomeHandler{posts: posts, catalog: catalog}
}

// Index renders the landing page with the latest posts and the course catalog.
func (h *HomeHandler) Index(c *gin.Context) {
	posts, err := h.posts.cachedList(c.Request.Context())
	if err != nil {
		PageError(c, err, "Failed to fetch posts")
		return
	}
	if len(posts) > homePostCount {
		posts = posts[:homePostCount]
	}
	Render(c, http.StatusOK, "home.html", gin.H{
		"Posts":    posts,
		"Sections": h.catalog.Sections(),
	})
}

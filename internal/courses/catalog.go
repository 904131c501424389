// Package courses holds the static course catalog and renders its lessons.
package courses

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"time"

	"codenook/internal/utils"
)

//go:embed lessons
var lessonFS embed.FS

const (
	lessonTTL   = time.Hour
	emptyLesson = "_No content found._"
)

var ErrNotFound = errors.New("course not found")

type Lesson struct {
	Title   string
	Slug    string
	Content string
}

type LessonGroup struct {
	Heading string
	Lessons []Lesson
}

type Course struct {
	Label       string
	Description string
	Slug        string
	Groups      []LessonGroup
}

// Active reports whether the course has published lessons.
func (c *Course) Active() bool {
	return len(c.lessons()) > 0
}

func (c *Course) lessons() []Lesson {
	var all []Lesson
	for _, g := range c.Groups {
		all = append(all, g.Lessons...)
	}
	return all
}

type Section struct {
	Title   string
	Courses []*Course
}

// LessonPage is everything the lesson view renders.
type LessonPage struct {
	Course *Course
	Lesson *Lesson
	HTML   template.HTML
	Prev   *Lesson
	Next   *Lesson
}

type Catalog struct {
	sections []Section
	bySlug   map[string]*Course
	cache    *utils.Cache
}

// New builds the catalog and loads lesson bodies from the embedded files.
func New(cache *utils.Cache) (*Catalog, error) {
	sections := defaultSections()
	c := &Catalog{sections: sections, bySlug: map[string]*Course{}, cache: cache}
	for _, s := range sections {
		for _, course := range s.Courses {
			for gi := range course.Groups {
				for li := range course.Groups[gi].Lessons {
					l := &course.Groups[gi].Lessons[li]
					body, err := lessonFS.ReadFile(fmt.Sprintf("lessons/%s/%s.md", course.Slug, l.Slug))
					if err != nil {
						return nil, fmt.Errorf("load lesson %s/%s: %w", course.Slug, l.Slug, err)
					}
					l.Content = string(body)
				}
			}
			c.bySlug[course.Slug] = course
		}
	}
	return c, nil
}

func (c *Catalog) Sections() []Section {
	return c.sections
}

func (c *Catalog) Course(slug string) (*Course, bool) {
	course, ok := c.bySlug[slug]
	return course, ok
}

// Lesson resolves a lesson of a course. An empty lessonSlug selects the first
// lesson; a course without lessons renders a placeholder.
func (c *Catalog) Lesson(courseSlug, lessonSlug string) (*LessonPage, error) {
	course, ok := c.bySlug[courseSlug]
	if !ok {
		return nil, ErrNotFound
	}

	lessons := course.lessons()
	if len(lessons) == 0 {
		return &LessonPage{Course: course, HTML: c.render("empty", emptyLesson)}, nil
	}

	idx := 0
	if lessonSlug != "" {
		idx = -1
		for i, l := range lessons {
			if l.Slug == lessonSlug {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("%w: lesson %s", ErrNotFound, lessonSlug)
		}
	}

	page := &LessonPage{
		Course: course,
		Lesson: &lessons[idx],
		HTML:   c.render(course.Slug+"/"+lessons[idx].Slug, lessons[idx].Content),
	}
	if idx > 0 {
		page.Prev = &lessons[idx-1]
	}
	if idx < len(lessons)-1 {
		page.Next = &lessons[idx+1]
	}
	return page, nil
}

func (c *Catalog) render(key, source string) template.HTML {
	key = "lesson:" + key
	if c.cache != nil {
		if cached, ok := c.cache.Get(key).(template.HTML); ok {
			return cached
		}
	}
	html := utils.RenderMarkdown(source)
	if c.cache != nil {
		c.cache.Set(key, html, lessonTTL)
	}
	return html
}

func defaultSections() []Section {
	return []Section{
		{Title: "Programming", Courses: []*Course{
			{Label: "Python", Description: "Learn Python for automation and backend.", Slug: "python", Groups: pythonLessons()},
			{Label: "Java", Description: "Build robust apps with Java.", Slug: "java"},
			{Label: "C++", Description: "Master C++ for high-performance coding.", Slug: "cpp"},
		}},
		{Title: "Database", Courses: []*Course{
			{Label: "MySQL", Description: "Learn SQL for relational databases.", Slug: "mysql"},
			{Label: "MongoDB", Description: "Work with NoSQL using MongoDB.", Slug: "mongodb"},
		}},
		{Title: "Cloud", Courses: []*Course{
			{Label: "AWS", Description: "Deploy apps on AWS cloud.", Slug: "aws"},
			{Label: "Azure", Description: "Learn cloud services with Azure.", Slug: "azure"},
			{Label: "GCP", Description: "Use GCP for cloud solutions.", Slug: "gcp"},
		}},
		{Title: "Web Development", Courses: []*Course{
			{Label: "HTML", Description: "Structure web pages with HTML.", Slug: "html"},
			{Label: "CSS", Description: "Style websites using CSS.", Slug: "css"},
			{Label: "JavaScript", Description: "Make websites interactive with JS.", Slug: "javascript"},
			{Label: "React", Description: "Build UIs using React.js.", Slug: "react"},
		}},
		{Title: "Data Mastery", Courses: []*Course{
			{Label: "Data Science", Description: "Analyze data and find insights.", Slug: "data-science"},
			{Label: "Data Analytics", Description: "Interpret data for decisions.", Slug: "data-analytics"},
			{Label: "Machine Learning", Description: "Build predictive ML models.", Slug: "machine-learning"},
			{Label: "Data Engineering", Description: "Manage and move big data.", Slug: "data-engineering"},
			{Label: "Deep Learning", Description: "Train neural networks.", Slug: "deep-learning"},
			{Label: "Generative AI", Description: "Create content using AI.", Slug: "generative-ai"},
		}},
	}
}

func pythonLessons() []LessonGroup {
	return []LessonGroup{
		{Heading: "Python Tutorial", Lessons: []Lesson{
			{Title: "Python Home", Slug: "python-home"},
			{Title: "Python Intro", Slug: "python-intro"},
			{Title: "Python Get Started", Slug: "python-get-started"},
			{Title: "Python Syntax", Slug: "python-syntax"},
		}},
		{Heading: "File Handling", Lessons: []Lesson{
			{Title: "Python File Handling", Slug: "python-file-handling"},
			{Title: "Python Read Files", Slug: "python-read-files"},
		}},
		{Heading: "Python Modules", Lessons: []Lesson{
			{Title: "NumPy Tutorial", Slug: "numpy-tutorial"},
			{Title: "Pandas Tutorials", Slug: "pandas-tutorials"},
		}},
	}
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"codenook/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubUsers map[string]*models.User

func (s stubUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func init() {
	gin.SetMode(gin.TestMode)
}

func withUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			c.Set(CheckUserKey, user)
		}
		c.Next()
	}
}

func TestGuards(t *testing.T) {
	admin := &models.User{ID: "a", Role: models.RoleAdmin}
	member := &models.User{ID: "m", Role: models.RoleUser}

	cases := []struct {
		name  string
		guard gin.HandlerFunc
		user  *models.User
		code  int
	}{
		{"page anonymous", AuthRequired(), nil, http.StatusFound},
		{"page member", AuthRequired(), member, http.StatusOK},
		{"api anonymous", APIAuthRequired(), nil, http.StatusUnauthorized},
		{"api member", APIAuthRequired(), member, http.StatusOK},
		{"admin anonymous", AdminRequired(), nil, http.StatusUnauthorized},
		{"admin member", AdminRequired(), member, http.StatusForbidden},
		{"admin admin", AdminRequired(), admin, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", withUser(tc.user), tc.guard, func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
			assert.Equal(t, tc.code, w.Code)
			if tc.code == http.StatusFound {
				assert.Equal(t, "/login", w.Header().Get("Location"))
			}
		})
	}
}

func TestLoadUserFromSession(t *testing.T) {
	users := stubUsers{"u1": {ID: "u1", Name: "Ada"}}
	r := gin.New()
	r.Use(sessions.Sessions("test", cookie.NewStore([]byte("secret"))))
	r.Use(LoadUser(users))
	r.GET("/login-as/:id", func(c *gin.Context) {
		s := sessions.Default(c)
		s.Set(SessionUserKey, c.Param("id"))
		_ = s.Save()
		c.Status(http.StatusOK)
	})
	r.GET("/me", func(c *gin.Context) {
		if u := CurrentUser(c); u != nil {
			c.String(http.StatusOK, u.Name)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	get := func(path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		for _, ck := range cookies {
			req.AddCookie(ck)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, "anonymous", get("/me", nil).Body.String())

	login := get("/login-as/u1", nil)
	assert.Equal(t, "Ada", get("/me", login.Result().Cookies()).Body.String())

	stale := get("/login-as/ghost", nil)
	assert.Equal(t, "anonymous", get("/me", stale.Result().Cookies()).Body.String())
}

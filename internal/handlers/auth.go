package handlers

import (
	"context"
	"errors"
	"net/http"

	"codenook/internal/logger"
	"codenook/internal/middleware"
	"codenook/internal/models"
	"codenook/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const captchaSessionKey = "captcha_answer"

type Accounts interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	SignInWithGoogle(ctx context.Context, p services.GoogleProfile) (*models.User, error)
}

type AuthHandler struct {
	users          Accounts
	captchaService *services.CaptchaService

	googleOauthConfig *oauth2.Config
	userInfoURL       string
}

// NewAuthHandler builds the sign-in handlers. google may be nil, which
// disables Google sign-in.
func NewAuthHandler(users Accounts, captcha *services.CaptchaService, google *oauth2.Config) *AuthHandler {
	return &AuthHandler{
		users:             users,
		captchaService:    captcha,
		googleOauthConfig: google,
		userInfoURL:       googleUserInfoURL,
	}
}

func (h *AuthHandler) googleEnabled() bool {
	return h.googleOauthConfig != nil
}

func (h *AuthHandler) ShowRegister(c *gin.Context) {
	h.renderRegister(c, http.StatusOK, gin.H{})
}

// renderRegister shows the sign-up form with a fresh captcha question.
func (h *AuthHandler) renderRegister(c *gin.Context, code int, data gin.H) {
	question, answer := h.captchaService.Generate()
	session := sessions.Default(c)
	session.Set(captchaSessionKey, answer)
	_ = session.Save()

	data["Title"] = "Sign up"
	data["Captcha"] = question
	data["GoogleEnabled"] = h.googleEnabled()
	Render(c, code, "auth/register.html", data)
}

func (h *AuthHandler) Register(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	session := sessions.Default(c)
	expected, ok := session.Get(captchaSessionKey).(int)
	if !ok || !h.captchaService.Verify(expected, c.PostForm("captcha")) {
		h.renderRegister(c, http.StatusBadRequest, gin.H{"Error": "Incorrect captcha answer", "Email": email})
		return
	}
	session.Delete(captchaSessionKey)

	user, err := h.users.Register(c.Request.Context(), email, password)
	if err != nil {
		code, message := publicMessage(c, err, "Failed to create account")
		h.renderRegister(c, code, gin.H{"Error": message, "Email": email})
		return
	}

	logger.L().Info("user registered", zap.String("user_id", user.ID))
	h.signIn(c, user)
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	Render(c, http.StatusOK, "auth/login.html", gin.H{"Title": "Sign in", "GoogleEnabled": h.googleEnabled()})
}

func (h *AuthHandler) Login(c *gin.Context) {
	email := c.PostForm("email")
	user, err := h.users.Authenticate(c.Request.Context(), email, c.PostForm("password"))
	if err != nil {
		code := http.StatusUnauthorized
		message := services.ErrInvalidCredentials.Error()
		if !errors.Is(err, services.ErrInvalidCredentials) {
			code, message = publicMessage(c, err, "Failed to sign in")
		}
		Render(c, code, "auth/login.html", gin.H{
			"Title":         "Sign in",
			"Error":         message,
			"Email":         email,
			"GoogleEnabled": h.googleEnabled(),
		})
		return
	}
	h.signIn(c, user)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	c.Redirect(http.StatusFound, "/")
}

// RefreshCaptcha returns a new captcha question for the sign-up form.
func (h *AuthHandler) RefreshCaptcha(c *gin.Context) {
	question, answer := h.captchaService.Generate()
	session := sessions.Default(c)
	session.Set(captchaSessionKey, answer)
	_ = session.Save()
	c.JSON(http.StatusOK, gin.H{"captcha": question})
}

func (h *AuthHandler) signIn(c *gin.Context, user *models.User) {
	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		PageError(c, err, "Failed to save session")
		return
	}
	c.Redirect(http.StatusFound, "/")
}

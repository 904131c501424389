package handlers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"codenook/internal/config"
	"codenook/internal/logger"
	"codenook/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	oauthStateKey     = "oauth_state"
)

// GoogleOAuthConfig returns the oauth2 configuration for Google sign-in, or
// nil when no client credentials are configured.
func GoogleOAuthConfig(cfg config.Config) *oauth2.Config {
	if !cfg.Google.Enabled() {
		return nil
	}
	return &oauth2.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.SiteURL + "/auth/google/callback",
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

func generateStateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// GoogleLogin starts the Google OAuth flow.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	if !h.googleEnabled() {
		RenderError(c, http.StatusNotFound, "Google sign-in is not available")
		return
	}
	state, err := generateStateToken()
	if err != nil {
		PageError(c, err, "Failed to start Google sign-in")
		return
	}

	session := sessions.Default(c)
	session.Set(oauthStateKey, state)
	_ = session.Save()

	c.Redirect(http.StatusTemporaryRedirect, h.googleOauthConfig.AuthCodeURL(state))
}

// GoogleCallback completes the Google OAuth flow and signs the user in.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if !h.googleEnabled() {
		RenderError(c, http.StatusNotFound, "Google sign-in is not available")
		return
	}

	session := sessions.Default(c)
	saved, _ := session.Get(oauthStateKey).(string)
	if saved == "" || c.Query("state") != saved {
		h.loginError(c, http.StatusBadRequest, "Invalid OAuth state")
		return
	}
	session.Delete(oauthStateKey)
	_ = session.Save()

	code := c.Query("code")
	if code == "" {
		h.loginError(c, http.StatusBadRequest, "Missing authorization code")
		return
	}

	ctx := c.Request.Context()
	token, err := h.googleOauthConfig.Exchange(ctx, code)
	if err != nil {
		logger.L().Warn("google token exchange failed", zap.Error(err))
		h.loginError(c, http.StatusBadGateway, "Failed to get access token")
		return
	}

	profile, err := h.fetchGoogleProfile(ctx, token)
	if err != nil {
		logger.L().Warn("google userinfo failed", zap.Error(err))
		h.loginError(c, http.StatusBadGateway, "Failed to get user info")
		return
	}

	user, err := h.users.SignInWithGoogle(ctx, *profile)
	if err != nil {
		status, message := publicMessage(c, err, "Failed to sign in with Google")
		h.loginError(c, status, message)
		return
	}
	h.signIn(c, user)
}

func (h *AuthHandler) loginError(c *gin.Context, code int, message string) {
	Render(c, code, "auth/login.html", gin.H{
		"Title":         "Sign in",
		"Error":         message,
		"GoogleEnabled": h.googleEnabled(),
	})
}

func (h *AuthHandler) fetchGoogleProfile(ctx context.Context, token *oauth2.Token) (*services.GoogleProfile, error) {
	client := h.googleOauthConfig.Client(ctx, token)
	resp, err := client.Get(h.userInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var profile services.GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

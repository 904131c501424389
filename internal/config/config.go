package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	GinMode       string
	LogLevel      string
	DatabaseURL   string
	SessionSecret string
	SiteURL       string
	TemplatesDir  string
	StaticDir     string
	MaxUploadMB   int64
	AdminEmails   []string

	Google     GoogleConfig
	Cloudinary CloudinaryConfig
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
}

// Enabled reports whether Google sign-in can be offered.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

type CloudinaryConfig struct {
	BaseURL   string
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

func (c CloudinaryConfig) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// Load reads a .env file when present and then the process environment.
// The returned bool is false when no .env file was found.
func Load() (Config, bool) {
	found := godotenv.Load() == nil

	cfg := Config{
		Port:          env("PORT", "8080"),
		GinMode:       env("GIN_MODE", "release"),
		LogLevel:      env("LOG_LEVEL", "info"),
		DatabaseURL:   env("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=codenook port=5432 sslmode=disable TimeZone=UTC"),
		SessionSecret: env("SESSION_SECRET", "secret_key_change_me"),
		SiteURL:       strings.TrimSuffix(env("SITE_URL", "http://localhost:8080"), "/"),
		TemplatesDir:  env("TEMPLATES_DIR", "./web/templates"),
		StaticDir:     env("STATIC_DIR", "./web/static"),
		MaxUploadMB:   envInt("MAX_UPLOAD_MB", 10),
		AdminEmails:   splitList(os.Getenv("ADMIN_EMAILS")),
		Google: GoogleConfig{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		},
		Cloudinary: CloudinaryConfig{
			BaseURL:   strings.TrimSuffix(env("CLOUDINARY_BASE_URL", "https://api.cloudinary.com"), "/"),
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
			Folder:    env("CLOUDINARY_FOLDER", "codenook/thumbnails"),
		},
	}
	return cfg, found
}

// IsAdminEmail reports whether email is listed in ADMIN_EMAILS.
func (c Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, e := range c.AdminEmails {
		if e == email {
			return true
		}
	}
	return false
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

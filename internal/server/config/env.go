package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// envPrefix namespaces every variable read by parseEnv.
const envPrefix = "CLOUDDRIVE_"

// dotenvFiles are tried in order; variables already present in the process
// environment are never overwritten by them.
var dotenvFiles = []string{".env"}

// parseEnv overlays CLOUDDRIVE_* environment variables onto config, after
// loading any .env file found in the working directory.
// Malformed durations, numbers and booleans panic, like the other layers.
func parseEnv(config *Config) {
	for _, f := range dotenvFiles {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				panic(fmt.Errorf("load %s: %w", f, err))
			}
		}
	}

	envString("HTTP_ADDR", &config.HTTPAddr)
	envString("GRPC_ADDR", &config.GRPCAddr)
	envString("DATABASE_DSN", &config.DatabaseDSN)
	envString("SECRET_KEY", &config.SecretKey)
	envDuration("SESSION_TOKEN_VALIDITY", &config.SessionTokenValidityDuration)
	envDuration("REMEMBER_TOKEN_VALIDITY", &config.RememberTokenValidityDuration)
	envDuration("RESET_TOKEN_VALIDITY", &config.ResetTokenValidityDuration)
	envString("BLOB_BACKEND", &config.BlobBackend)
	envString("UPLOAD_FOLDER", &config.UploadFolder)
	envString("S3_ROOT_USER", &config.S3RootUser)
	envString("S3_ROOT_PASSWORD", &config.S3RootPassword)
	envString("S3_BUCKET", &config.S3Bucket)
	envString("S3_REGION", &config.S3Region)
	envString("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	envString("SMTP_HOST", &config.SMTPHost)
	envInt("SMTP_PORT", &config.SMTPPort)
	envString("SMTP_USER", &config.SMTPUser)
	envString("SMTP_PASSWORD", &config.SMTPPassword)
	envString("MAIL_FROM", &config.MailFrom)
	envString("BASE_URL", &config.BaseURL)
	envString("COOKIE_NAME", &config.CookieName)
	envBool("COOKIE_SECURE", &config.CookieSecure)
	envList("CORS_ORIGINS", &config.CORSOrigins)
	envString("LOG_LEVEL", &config.LogLevel)
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func envString(name string, dst *string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

func envDuration(name string, dst *time.Duration) {
	if v, ok := lookup(name); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(fmt.Errorf("%s%s: %w", envPrefix, name, err))
		}
		*dst = d
	}
}

func envInt(name string, dst *int) {
	if v, ok := lookup(name); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(fmt.Errorf("%s%s: %w", envPrefix, name, err))
		}
		*dst = n
	}
}

func envBool(name string, dst *bool) {
	if v, ok := lookup(name); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(fmt.Errorf("%s%s: %w", envPrefix, name, err))
		}
		*dst = b
	}
}

func envList(name string, dst *[]string) {
	v, ok := lookup(name)
	if !ok {
		return
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if o := strings.TrimRight(strings.TrimSpace(p), "/"); o != "" {
			out = append(out, o)
		}
	}
	*dst = out
}

package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/clouddrive/internal/flagx"
	"github.com/dmitrijs2005/clouddrive/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations accept
// both "15m" strings and integer nanoseconds. Only keys present in the file
// override the current values.
type JsonConfig struct {
	HTTPAddr                      string         `json:"http_addr"`
	GRPCAddr                      string         `json:"grpc_addr"`
	DatabaseDSN                   string         `json:"database_dsn"`
	SecretKey                     string         `json:"secret_key"`
	SessionTokenValidityDuration  timex.Duration `json:"session_token_validity_duration"`
	RememberTokenValidityDuration timex.Duration `json:"remember_token_validity_duration"`
	ResetTokenValidityDuration    timex.Duration `json:"reset_token_validity_duration"`
	BlobBackend                   string         `json:"blob_backend"`
	UploadFolder                  string         `json:"upload_folder"`
	S3RootUser                    string         `json:"s3_root_user"`
	S3RootPassword                string         `json:"s3_root_password"`
	S3Bucket                      string         `json:"s3_bucket"`
	S3Region                      string         `json:"s3_region"`
	S3BaseEndpoint                string         `json:"s3_base_endpoint"`
	SMTPHost                      string         `json:"smtp_host"`
	SMTPPort                      int            `json:"smtp_port"`
	SMTPUser                      string         `json:"smtp_user"`
	SMTPPassword                  string         `json:"smtp_password"`
	MailFrom                      string         `json:"mail_from"`
	BaseURL                       string         `json:"base_url"`
	CookieName                    string         `json:"cookie_name"`
	CookieSecure                  *bool          `json:"cookie_secure"`
	CORSOrigins                   []string       `json:"cors_origins"`
	LogLevel                      string         `json:"log_level"`
}

// parseJson loads the file named by -c/-config (if any) into config.
// It panics if the file cannot be read or contains invalid JSON.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigFile(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.applyTo(config)
}

func (c *JsonConfig) applyTo(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.SessionTokenValidityDuration, c.SessionTokenValidityDuration)
	setDuration(&config.RememberTokenValidityDuration, c.RememberTokenValidityDuration)
	setDuration(&config.ResetTokenValidityDuration, c.ResetTokenValidityDuration)
	setString(&config.BlobBackend, c.BlobBackend)
	setString(&config.UploadFolder, c.UploadFolder)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.SMTPHost, c.SMTPHost)
	if c.SMTPPort != 0 {
		config.SMTPPort = c.SMTPPort
	}
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.MailFrom, c.MailFrom)
	setString(&config.BaseURL, c.BaseURL)
	setString(&config.CookieName, c.CookieName)
	if c.CookieSecure != nil {
		config.CookieSecure = *c.CookieSecure
	}
	if len(c.CORSOrigins) > 0 {
		config.CORSOrigins = c.CORSOrigins
	}
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}

package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/clouddrive/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-h string   gRPC health bind address (empty disables it)
//	-d string   PostgreSQL DSN
//	-s string   token HMAC secret key
//	-t int      session token validity, minutes
//	-r int      password-reset token validity, seconds
//	-b string   blob backend: local or s3
//	-u string   upload folder for the local backend
//	-e string   external base URL used in emails
//	-l string   log level
//
// Only these flags are picked out of args (see flagx.FilterArgs), so other
// components may define their own.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-h", "-d", "-s", "-t", "-r", "-b", "-u", "-e", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run the web server")
	fs.StringVar(&config.GRPCAddr, "h", config.GRPCAddr, "address and port of the gRPC health endpoint")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	sessionValidity := fs.Int("t", int(config.SessionTokenValidityDuration.Minutes()), "session token validity (in minutes)")
	resetValidity := fs.Int("r", int(config.ResetTokenValidityDuration.Seconds()), "password reset token validity (in seconds)")

	fs.StringVar(&config.BlobBackend, "b", config.BlobBackend, "blob backend (local|s3)")
	fs.StringVar(&config.UploadFolder, "u", config.UploadFolder, "upload folder")
	fs.StringVar(&config.BaseURL, "e", config.BaseURL, "external base URL")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionTokenValidityDuration = time.Duration(*sessionValidity) * time.Minute
	config.ResetTokenValidityDuration = time.Duration(*resetValidity) * time.Second
}

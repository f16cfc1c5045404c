// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	resetDB = pflag.Bool("reset-db", false, "Drops and recreates all tables on startup")

	validLogLevels     = []string{"debug", "info", "warn", "error", "fatal"}
	validDatabaseTypes = []string{"sqlite", "postgres"}

	// Verification modes for new accounts. "require_email" gates every
	// registration behind an OTP mail, "auto" marks accounts verified
	// immediately and is only meant for local development.
	validVerificationModes = []string{"require_email", "auto"}
)

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// ResetDB reports whether the --reset-db flag was passed.
func ResetDB() bool {
	return *resetDB
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.domain", "host_domain")
	v.BindEnv("host.ssl_enabled", "host_ssl_enabled")
	v.BindEnv("host.cors_origin", "host_cors_origin")

	v.BindEnv("database.type", "database_type")
	v.BindEnv("database.dsn", "database_dsn")

	v.BindEnv("jwt.secret", "jwt_secret")

	v.BindEnv("auth.verification_mode", "auth_verification_mode")

	v.BindEnv("mail.host", "mail_host")
	v.BindEnv("mail.port", "mail_port")
	v.BindEnv("mail.sender", "mail_sender")
	v.BindEnv("mail.password", "mail_password")

	v.BindEnv("storage.type", "storage_type")
	v.BindEnv("storage.local_path", "storage_local_path")

	v.BindEnv("aws.access_key", "aws_access_key")
	v.BindEnv("aws.secret_access_key", "aws_secret_access_key")
	v.BindEnv("aws.bucket", "aws_bucket")
	v.BindEnv("aws.region", "aws_region")
	v.BindEnv("aws.cloudfront_url", "aws_cloudfront_url")

	v.BindEnv("cloudflare.turnstile.enabled", "cloudflare_turnstile_enabled")
	v.BindEnv("cloudflare.turnstile.secret_token", "cloudflare_turnstile_secret_token")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost")
	v.SetDefault("host.ssl_enabled", false)
	v.SetDefault("host.cors_origin", "http://localhost:3000")

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "database.db")

	v.SetDefault("auth.verification_mode", "require_email")

	v.SetDefault("mail.port", 587)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "./images")

	v.SetDefault("cloudflare.turnstile.enabled", false)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); ok {
			return errors.New("config.toml file is missing")
		}

		return fmt.Errorf("failed to read config file, %w", err)
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if !slices.Contains(validDatabaseTypes, v.GetString("database.type")) {
		return errors.New("invalid database type provided")
	}

	if v.GetString("database.dsn") == "" {
		return errors.New("database.dsn can't be empty")
	}

	if v.GetString("jwt.secret") == "" {
		fmt.Println("WARNING: You haven't set a JWT secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random JWT secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	mode := v.GetString("auth.verification_mode")
	if !slices.Contains(validVerificationModes, mode) {
		return errors.New("invalid verification mode provided")
	}

	if mode == "require_email" {
		if v.GetString("mail.host") == "" {
			return errors.New("mail.host can't be empty when email verification is required")
		}
		if v.GetString("mail.sender") == "" {
			return errors.New("mail.sender can't be empty when email verification is required")
		}
		if v.GetString("mail.password") == "" {
			return errors.New("mail.password can't be empty when email verification is required")
		}
		if v.GetInt("mail.port") <= 0 {
			return errors.New("invalid mail port provided")
		}
	} else {
		fmt.Println("[WARNING]: Email verification is disabled. Every new account will be verified automatically. Do not run a public instance like this")
	}

	switch v.GetString("storage.type") {
	case "s3":
		{
			if v.GetString("aws.access_key") == "" {
				return errors.New("access key can't be empty")
			}
			if v.GetString("aws.secret_access_key") == "" {
				return errors.New("secret access key can't be empty")
			}
			if v.GetString("aws.bucket") == "" {
				return errors.New("bucket can't be empty")
			}
			if v.GetString("aws.region") == "" {
				return errors.New("region can't be empty")
			}
			if v.GetString("aws.cloudfront_url") == "" {
				return errors.New("cloudfront url can't be empty")
			}
		}
	case "local":
		{
			if v.GetString("storage.local_path") == "" {
				return errors.New("local storage path can't be empty")
			}
		}
	default:
		return errors.New("invalid storage type provided")
	}

	if v.GetBool("cloudflare.turnstile.enabled") && v.GetString("cloudflare.turnstile.secret_token") == "" {
		return errors.New("turnstile secret token is missing")
	}

	return nil
}

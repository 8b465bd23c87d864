package config

import (
	"os"
	"time"
)

// parseEnv overlays configuration from environment variables. Deployment
// environments (and the .env file loaded at startup) configure the server
// this way; unset variables leave the current values alone.
//
// Recognized variables:
//
//	ADDRESS                 HTTP bind address
//	BASE_URL                external URL for share links
//	DATABASE_DSN            PostgreSQL DSN
//	SECRET_KEY              JWT HMAC secret
//	ACCESS_TOKEN_VALIDITY   access token lifetime, e.g. "15m"
//	SIGNED_URL_VALIDITY     presigned URL lifetime, e.g. "15m"
//	DEFAULT_PLAN_TIER       plan tier for all owners
//	S3_ROOT_USER, S3_ROOT_PASSWORD
//	S3_BUCKET, S3_PUBLIC_BUCKET, S3_REGION, S3_BASE_ENDPOINT
func parseEnv(config *Config) {
	setString(&config.EndpointAddr, os.Getenv("ADDRESS"))
	setString(&config.BaseURL, os.Getenv("BASE_URL"))
	setString(&config.DatabaseDSN, os.Getenv("DATABASE_DSN"))
	setString(&config.SecretKey, os.Getenv("SECRET_KEY"))
	setEnvDuration(&config.AccessTokenValidityDuration, "ACCESS_TOKEN_VALIDITY")
	setEnvDuration(&config.SignedURLValidityDuration, "SIGNED_URL_VALIDITY")
	setString(&config.DefaultPlanTier, os.Getenv("DEFAULT_PLAN_TIER"))
	setString(&config.S3RootUser, os.Getenv("S3_ROOT_USER"))
	setString(&config.S3RootPassword, os.Getenv("S3_ROOT_PASSWORD"))
	setString(&config.S3Bucket, os.Getenv("S3_BUCKET"))
	setString(&config.S3PublicBucket, os.Getenv("S3_PUBLIC_BUCKET"))
	setString(&config.S3Region, os.Getenv("S3_REGION"))
	setString(&config.S3BaseEndpoint, os.Getenv("S3_BASE_ENDPOINT"))
}

func setEnvDuration(dst *time.Duration, name string) {
	value := os.Getenv(name)
	if value == "" {
		return
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		panic("invalid duration in " + name + ": " + value)
	}
	*dst = parsed
}

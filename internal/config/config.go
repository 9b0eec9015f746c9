package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort    string
	AppEnv     string
	AppName    string
	AppBaseURL string // empty means reset links are built from the request host

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	S3BucketName    string
	S3PublicBaseURL string

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration
	CookieName        string

	SMTPHost     string
	SMTPPort     int
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	SNSRegion      string
	SMSOTPEnabled  bool
	SMSCountryCode string

	PendingStore         string // "memory" | "redis"
	RedisURL             string
	PendingSweepInterval time.Duration

	PostsPageSize  int
	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users string
	Posts string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	region := getEnv("AWS_REGION", "us-east-1")
	bucket := getEnv("S3_BUCKET_NAME", "localtourx-media")
	return &Config{
		AppPort:    getEnv("APP_PORT", "3000"),
		AppEnv:     getEnv("APP_ENV", "development"),
		AppName:    getEnv("APP_NAME", "LocalTourX"),
		AppBaseURL: strings.TrimRight(getEnv("APP_BASE_URL", ""), "/"),

		AWSRegion:      region,
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users: getEnv("DYNAMO_TABLE_USERS", "users"),
			Posts: getEnv("DYNAMO_TABLE_POSTS", "posts"),
		},

		S3BucketName:    bucket,
		S3PublicBaseURL: strings.TrimRight(getEnv("S3_PUBLIC_BASE_URL", "https://"+bucket+".s3."+region+".amazonaws.com"), "/"),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_DAYS", 7)) * 24 * time.Hour,
		CookieName:        getEnv("COOKIE_NAME", "token"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvInt("SMTP_PORT", 1025),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@localtourx.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SNSRegion:      getEnv("SNS_REGION", region),
		SMSOTPEnabled:  getEnvBool("SMS_OTP_ENABLED", false),
		SMSCountryCode: getEnv("SMS_COUNTRY_CODE", "+1"),

		PendingStore:         strings.ToLower(getEnv("PENDING_STORE", "memory")),
		RedisURL:             getEnv("REDIS_URL", "redis://localhost:6379/0"),
		PendingSweepInterval: getEnvDuration("PENDING_SWEEP_INTERVAL", time.Minute),

		PostsPageSize:  getEnvInt("POSTS_PAGE_SIZE", 10),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

// IsProduction reports whether cookies should be marked Secure.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

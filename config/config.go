package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	Port        string
	CORSOrigins []string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTSecret   string
	JWTTTLHours int

	PlatformFeeRate float64

	UploadDir   string // Base directory for uploaded master files
	PreviewDir  string // Subdirectory for derived preview clips: UploadDir/previews
	MaxUploadMB int64
	AllowedExts []string // Accepted upload extensions

	FFmpegPath     string
	FFprobePath    string
	FFmpegTimeout  int // seconds, applied to every external process invocation
	PreviewSeconds int
	PreviewBitrate string // e.g. "128k"

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// StripeAPIKey empty means the deterministic fake gateway is used.
	StripeAPIKey string

	// Optional MinIO mirror for preview clips.
	MinioEnabled   bool
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	LogLevel string
	LogFile  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvFloat gets an environment variable as float64 or returns a default value.
func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	uploadBase := getEnv("UPLOAD_DIR", "uploads")
	ffmpegPath := getEnv("FFMPEG_PATH", "ffmpeg")
	ffprobePath := getEnv("FFPROBE_PATH", "")
	if ffprobePath == "" {
		ffprobePath = strings.Replace(ffmpegPath, "ffmpeg", "ffprobe", 1)
	}

	corsOrigins := strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}

	allowedExts := strings.Split(getEnv("ALLOWED_AUDIO_FORMATS", "mp3,wav,flac,aac"), ",")
	for i := range allowedExts {
		allowedExts[i] = strings.ToLower(strings.TrimSpace(allowedExts[i]))
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		CORSOrigins: corsOrigins,

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // no hardcoded default for credentials
		DBName:     getEnv("DB_NAME", "musga"),

		JWTSecret:   getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTTTLHours: getEnvInt("JWT_TTL_HOURS", 72),

		PlatformFeeRate: getEnvFloat("PLATFORM_FEE_RATE", 0.10),

		UploadDir:   uploadBase,
		PreviewDir:  filepath.Join(uploadBase, "previews"),
		MaxUploadMB: int64(getEnvInt("MAX_UPLOAD_MB", 50)),
		AllowedExts: allowedExts,

		FFmpegPath:     ffmpegPath,
		FFprobePath:    ffprobePath,
		FFmpegTimeout:  getEnvInt("FFMPEG_TIMEOUT_SECONDS", 120),
		PreviewSeconds: getEnvInt("PREVIEW_SECONDS", 30),
		PreviewBitrate: getEnv("PREVIEW_BITRATE", "128k"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		StripeAPIKey: os.Getenv("STRIPE_API_KEY"),

		MinioEnabled:   getEnvBool("MINIO_ENABLED", false),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "musga-previews"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
	}
}

package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPath     string
	JWTSecret  string
	ServerPort string

	LogLevel  string
	LogFormat string
	Timezone  string

	StreakSweepCron          string
	ChallengeRefreshInterval time.Duration

	PostRateLimit     int
	PostRateWindow    time.Duration
	CommentRateLimit  int
	CommentRateWindow time.Duration
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	cfg := &Config{
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "learnpath"),
		DBPath:     getEnv("DB_PATH", "learnpath.db"),
		JWTSecret:  getEnv("JWT_SECRET", "secret"),
		ServerPort: getEnv("SERVER_PORT", "8080"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		Timezone:  getEnv("TIMEZONE", "UTC"),

		StreakSweepCron: getEnv("STREAK_SWEEP_CRON", "5 0 * * *"),
	}

	if cfg.ChallengeRefreshInterval, err = getDuration("CHALLENGE_REFRESH_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.PostRateLimit, err = getInt("RATE_LIMIT_POSTS", 10); err != nil {
		return nil, err
	}
	if cfg.PostRateWindow, err = getDuration("RATE_LIMIT_POSTS_WINDOW", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.CommentRateLimit, err = getInt("RATE_LIMIT_COMMENTS", 30); err != nil {
		return nil, err
	}
	if cfg.CommentRateWindow, err = getDuration("RATE_LIMIT_COMMENTS_WINDOW", 5*time.Minute); err != nil {
		return nil, err
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		return nil, errors.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	return cfg, nil
}

// Location is the zone calendar days (streaks, active days) are counted in.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "load TIMEZONE %q", c.Timezone)
	}
	return loc, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, errors.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, errors.Errorf("%s must be a positive duration, got %q", key, v)
	}
	return d, nil
}

package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Database DatabaseConfig
	Camera   CameraConfig
	Face     FaceConfig
	Capture  CaptureConfig
	Web      WebConfig
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type CameraConfig struct {
	URL string // Snapshot URL of the camera endpoint (e.g., http://localhost:8090/snapshot.jpg)
}

type FaceConfig struct {
	URL string // Face service base URL (defaults to http://localhost:8000)
	Dim int    // Encoding dimensionality (defaults to 128)
}

type CaptureConfig struct {
	FrameDir       string        // Directory for audit frames captured during enrollment
	Angles         int           // Number of enrollment angles (default 3)
	MatchThreshold float64       // Verification distance threshold, inclusive (default 0.5)
	VerifyBudget   time.Duration // Verification time budget (default 8s)
	MatchHold      time.Duration // Pause after a successful match for user feedback (default 1s)
	PollInterval   time.Duration // Foreground result poll interval (default 100ms)
}

type WebConfig struct {
	SessionTTL time.Duration // Web auth token lifetime (default 8h)
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envDuration reads an environment variable and parses it as a duration.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

// envString reads an environment variable with a default.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	return &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Camera: CameraConfig{
			URL: os.Getenv("CAMERA_URL"),
		},
		Face: FaceConfig{
			URL: envString("FACE_SERVICE_URL", "http://localhost:8000"),
			Dim: envInt("FACE_ENCODING_DIM", 128),
		},
		Capture: CaptureConfig{
			FrameDir:       envString("CAPTURE_FRAME_DIR", "student_faces"),
			Angles:         envInt("ENROLL_ANGLES", 3),
			MatchThreshold: envFloat("MATCH_THRESHOLD", 0.5),
			VerifyBudget:   envDuration("VERIFY_BUDGET", 8*time.Second),
			MatchHold:      envDuration("MATCH_HOLD", time.Second),
			PollInterval:   envDuration("RESULT_POLL_INTERVAL", 100*time.Millisecond),
		},
		Web: WebConfig{
			SessionTTL: envDuration("WEB_SESSION_TTL", 8*time.Hour),
		},
	}
}

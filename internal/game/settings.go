package game

import (
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const (
	DEFAULT_GRACE_PERIOD = 7 * 24 * time.Hour
	DEFAULT_MOVE_FEE     = 0
	DEFAULT_AUTHORITY    = "bps:authority"
)

// Settings is process-wide configuration, passed explicitly into every
// operation that needs it. It is never global mutable state.
type Settings struct {
	// GracePeriod is how long a lone reveal waits before the
	// non-revealing player forfeits.
	GracePeriod time.Duration

	// MoveFee is a protocol fee charged per move (create, join),
	// collected outside the pot and excluded from settlement math.
	MoveFee int64

	// Authority is the only account allowed to unwind stale games.
	Authority string
}

// LoadSettings reads settings from the environment with design defaults.
func LoadSettings() Settings {
	return Settings{
		GracePeriod: getEnvAsDuration("BPS_GRACE_PERIOD", DEFAULT_GRACE_PERIOD),
		MoveFee:     getEnvAsInt64("BPS_MOVE_FEE", DEFAULT_MOVE_FEE),
		Authority:   getEnv("BPS_AUTHORITY", DEFAULT_AUTHORITY),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.ParseInt(val, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

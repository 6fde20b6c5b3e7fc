package utils

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/examiner-backend/internal/pkg/logger"
)

func GetEnv(key, defaultVal string, log *logger.Logger) string {
	if log != nil {
		log = log.With("env_var", key)
	}
	val, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(val) == "" {
		if log != nil {
			log.Debug("Environment variable not found, using default", "default", defaultVal)
		}
		return defaultVal
	}
	if log != nil {
		log.Debug("Environment variable found, using environment", "environment", val)
	}
	return strings.TrimSpace(val)
}

func GetEnvAsInt(key string, defaultVal int, log *logger.Logger) int {
	return parseEnv(key, defaultVal, log, strconv.Atoi)
}

func GetEnvAsFloat(key string, defaultVal float64, log *logger.Logger) float64 {
	return parseEnv(key, defaultVal, log, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

func GetEnvAsBool(key string, defaultVal bool, log *logger.Logger) bool {
	return parseEnv(key, defaultVal, log, strconv.ParseBool)
}

// GetEnvAsSeconds reads an integer number of seconds.
func GetEnvAsSeconds(key string, defaultVal time.Duration, log *logger.Logger) time.Duration {
	secs := GetEnvAsFloat(key, defaultVal.Seconds(), log)
	return time.Duration(secs * float64(time.Second))
}

func parseEnv[T any](key string, defaultVal T, log *logger.Logger, parse func(string) (T, error)) T {
	if log != nil {
		log = log.With("env_var", key)
	}
	valStr, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(valStr) == "" {
		if log != nil {
			log.Debug("Environment variable not found, using default", "default", defaultVal)
		}
		return defaultVal
	}
	v, err := parse(strings.TrimSpace(valStr))
	if err != nil {
		if log != nil {
			log.Warn("Environment variable could not be parsed, using default", "providedVal", valStr, "defaultVal", defaultVal, "error", err)
		}
		return defaultVal
	}
	if log != nil {
		log.Debug("Environment variable found, using it", "value", v)
	}
	return v
}

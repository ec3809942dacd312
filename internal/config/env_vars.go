package config

import (
	"os"
	"strconv"
	"time"
)

const (
	appNameVar         = "APP_NAME"
	baseURLVar         = "API_BASE_URL"
	folderEnvVar       = "FOLDER"
	requestTimeoutVar  = "REQUEST_TIMEOUT_SECONDS"
	refreshStrategyVar = "REFRESH_STRATEGY"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Story Field")
}

// GetBaseURL returns the base URL of the Story Field backend
// (e.g., "https://api.storyfield.app"). All API paths are resolved against it.
func (EnvVars) GetBaseURL() string {
	return GetEnv(baseURLVar, "http://localhost:8080")
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

func (EnvVars) GetRequestTimeout() time.Duration {
	seconds, err := strconv.Atoi(GetEnv(requestTimeoutVar, "10"))
	if err != nil || seconds <= 0 {
		seconds = 10
	}
	return time.Duration(seconds) * time.Second
}

// GetRefreshStrategy selects the token refresh contract the backend exposes:
// "bearer" (refresh token in the request body) or "cookie" (HTTP-only cookie
// reissue). The two are mutually exclusive.
func (EnvVars) GetRefreshStrategy() string {
	return GetEnv(refreshStrategyVar, "bearer")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

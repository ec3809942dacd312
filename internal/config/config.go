package config

import "time"

type Config interface {
	EnvConfig
	SpeechConfig
}

type EnvConfig interface {
	GetAppName() string
	GetBaseURL() string
	GetDataFolder() string
	GetRequestTimeout() time.Duration
	GetRefreshStrategy() string
	GetEnv() string
}

type SpeechConfig interface {
	GetSpeechAPIKey() string
	GetSpeechEndpoint() string
	GetSpeechLanguage() string
	GetSpeechSampleRate() int
}

type mainConfig struct {
	EnvVars
	Speech
}

func New() Config {
	return mainConfig{}
}

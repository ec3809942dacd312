package config

import "strconv"

type Speech struct{}

var _ SpeechConfig = Speech{}

func (Speech) GetSpeechAPIKey() string {
	return GetEnv("SPEECH_API_KEY", "")
}

func (Speech) GetSpeechEndpoint() string {
	return GetEnv("SPEECH_ENDPOINT", "https://speech.googleapis.com/v1/speech:recognize")
}

func (Speech) GetSpeechLanguage() string {
	return GetEnv("SPEECH_LANGUAGE", "ko-KR")
}

// GetSpeechSampleRate must match the sample rate the recordings are made
// with, not the rate the caller would prefer.
func (Speech) GetSpeechSampleRate() int {
	rate, err := strconv.Atoi(GetEnv("SPEECH_SAMPLE_RATE", "16000"))
	if err != nil || rate <= 0 {
		rate = 16000
	}
	return rate
}

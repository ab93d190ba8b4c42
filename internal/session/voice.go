package session

import (
	"context"
	"strings"
)

// Speaker is the host's text-to-speech output.
type Speaker interface {
	Speak(text string) error
	Cancel()
	Speaking() bool
}

// Recognizer captures a single utterance. Each call yields exactly one final
// transcript or an error and then stops listening.
type Recognizer interface {
	Recognize(ctx context.Context) (string, error)
}

// Environment describes the host the session runs in.
type Environment struct {
	SpeechRecognition bool
	UserAgent         string
}

// VoiceSupported reports whether voice turns may be attempted. Safari-family
// engines are excluded: their speech recognition is unreliable. A user agent
// counts as Safari when "safari" appears with no "chrome" or "android" before it.
func VoiceSupported(env Environment) bool {
	if !env.SpeechRecognition {
		return false
	}
	return !isSafari(env.UserAgent)
}

func isSafari(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	idx := strings.Index(ua, "safari")
	if idx < 0 {
		return false
	}
	prefix := ua[:idx]
	return !strings.Contains(prefix, "chrome") && !strings.Contains(prefix, "android")
}

package entity

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidImage      = errors.New("invalid image")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrSessionBusy       = errors.New("previous upload is still processing")
	ErrDetectorFailed    = errors.New("detector failed")
	ErrNoArtifact        = errors.New("no annotated image available")
)

// ConfigurationError фатальная ошибка конфигурации, обнаруженная при запуске
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Reason)
}

package models

import (
	"fmt"
	"strings"
)

// Level is the ordered severity of a log entry. Levels compare by their
// ordinal value: Trace < Debug < Information < Warning < Error < Critical.
type Level int32

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInformation
	LevelWarning
	LevelError
	LevelCritical
)

// levelNames maps each level to its canonical name.
var levelNames = map[Level]string{
	LevelTrace:       "Trace",
	LevelDebug:       "Debug",
	LevelInformation: "Information",
	LevelWarning:     "Warning",
	LevelError:       "Error",
	LevelCritical:    "Critical",
}

// levelValues maps lowercased names (including common aliases) to levels.
var levelValues = map[string]Level{
	"trace":       LevelTrace,
	"verbose":     LevelTrace,
	"debug":       LevelDebug,
	"information": LevelInformation,
	"info":        LevelInformation,
	"warning":     LevelWarning,
	"warn":        LevelWarning,
	"error":       LevelError,
	"critical":    LevelCritical,
	"fatal":       LevelCritical,
}

// String returns the canonical level name.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Level(%d)", int32(l))
}

// ParseLevel parses a level name. Matching is case-insensitive and accepts
// common aliases ("info", "warn", "fatal").
func ParseLevel(s string) (Level, error) {
	if l, ok := levelValues[strings.ToLower(strings.TrimSpace(s))]; ok {
		return l, nil
	}
	return LevelTrace, fmt.Errorf("unknown log level %q", s)
}

// MarshalText implements encoding.TextMarshaler so levels serialize by name,
// including as map keys in EntriesByLevel.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

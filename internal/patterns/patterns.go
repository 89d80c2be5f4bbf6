// Package patterns provides the normalization rules used to collapse
// high-cardinality fragments of log messages into fixed placeholders.
package patterns

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Pattern is a single normalization rule as declared in configuration.
type Pattern struct {
	Name        string `yaml:"name"`
	Regex       string `yaml:"regex"`
	Placeholder string `yaml:"placeholder"`
	Description string `yaml:"description"`
}

// File is the on-disk patterns configuration.
type File struct {
	Patterns []Pattern `yaml:"patterns"`
}

// CompiledPattern is a normalization rule with its regex compiled.
// Rules are applied in declaration order.
type CompiledPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Placeholder string
	Description string
}

// Load reads normalization patterns from a YAML file. An invalid regex in
// the file is a configuration error and fails the load.
func Load(filepath string) ([]CompiledPattern, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("reading patterns file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing patterns YAML: %w", err)
	}

	compiled := make([]CompiledPattern, 0, len(file.Patterns))
	for _, p := range file.Patterns {
		regex, err := regexp.Compile(p.Regex)
		if err != nil {
			return nil, fmt.Errorf("compiling pattern %s: %w", p.Name, err)
		}

		compiled = append(compiled, CompiledPattern{
			Name:        p.Name,
			Regex:       regex,
			Placeholder: p.Placeholder,
			Description: p.Description,
		})
	}

	return compiled, nil
}

// DefaultPatterns returns the built-in normalization rules. Order matters:
// more specific shapes (GUIDs, timestamps) run before the generic digit rule
// so a GUID is not shredded into number placeholders.
func DefaultPatterns() []CompiledPattern {
	return []CompiledPattern{
		{
			Name:        "guid",
			Regex:       regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`),
			Placeholder: "<GUID>",
			Description: "GUID/UUID with dashes",
		},
		{
			Name:        "guid_compact",
			Regex:       regexp.MustCompile(`\b[0-9a-fA-F]{32}\b`),
			Placeholder: "<GUID>",
			Description: "GUID/UUID without dashes",
		},
		{
			Name:        "timestamp",
			Regex:       regexp.MustCompile(`\d{4}[-/]\d{2}[-/]\d{2}[T ]\d{2}:\d{2}:\d{2}(?:\.\d+)?Z?`),
			Placeholder: "<TIMESTAMP>",
			Description: "ISO-like timestamps",
		},
		{
			Name:        "email",
			Regex:       regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`),
			Placeholder: "<EMAIL>",
			Description: "Email addresses",
		},
		{
			Name:        "url",
			Regex:       regexp.MustCompile(`https?://[^\s]+`),
			Placeholder: "<URL>",
			Description: "HTTP/HTTPS URLs",
		},
		{
			Name:        "ip",
			Regex:       regexp.MustCompile(`\[::1\]|\b(?:\d{1,3}\.){3}\d{1,3}\b`),
			Placeholder: "<IP>",
			Description: "IPv4 addresses and localhost IPv6",
		},
		{
			Name:        "duration",
			Regex:       regexp.MustCompile(`\b\d+(?:\.\d+)?(?:ns|µs|us|ms|s|m|h)\b`),
			Placeholder: "<DURATION>",
			Description: "Time durations with units",
		},
		{
			Name:        "size",
			Regex:       regexp.MustCompile(`\b\d+(?:\.\d+)?(?:B|KB|MB|GB|TB)\b`),
			Placeholder: "<SIZE>",
			Description: "Byte sizes with units",
		},
		{
			// Runs before the hex rule so pure digit runs normalize to
			// <NUM> instead of being mistaken for hex strings.
			Name:        "number",
			Regex:       regexp.MustCompile(`\b\d+\b`),
			Placeholder: "<NUM>",
			Description: "Any remaining numeric value",
		},
		{
			Name:        "hex",
			Regex:       regexp.MustCompile(`\b[0-9a-f]{8,}\b`),
			Placeholder: "<HEX>",
			Description: "Long hexadecimal strings (hashes, trace ids)",
		},
	}
}

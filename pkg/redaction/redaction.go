// Package redaction masks credentials before they reach the logs.
// Telegram bot tokens travel inside request URLs, so client errors that
// echo the URL would otherwise leak the token.
package redaction

import (
	"regexp"
	"strings"
	"sync"
)

// Config holds redaction configuration.
type Config struct {
	// Enabled controls whether redaction is active.
	Enabled bool `json:"enabled"`

	// RedactBotTokens masks Telegram bot tokens, bare or embedded in API URLs.
	RedactBotTokens bool `json:"redact_bot_tokens"`

	// RedactAPIKeys masks key=value style secrets and bearer tokens.
	RedactAPIKeys bool `json:"redact_api_keys"`

	// CustomPatterns allows additional regex patterns to redact.
	CustomPatterns []string `json:"custom_patterns"`

	// Replacement is the string used to replace sensitive data.
	Replacement string `json:"replacement"`
}

// DefaultConfig returns the default redaction configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		RedactBotTokens: true,
		RedactAPIKeys:   true,
		Replacement:     "[REDACTED]",
	}
}

// Redactor provides sensitive data redaction capabilities.
type Redactor struct {
	config          Config
	compiledCustom  []*regexp.Regexp
	compiledBuiltin map[string]*regexp.Regexp
	mu              sync.RWMutex
}

// NewRedactor creates a new Redactor with the given configuration.
// Custom patterns that fail to compile are skipped.
func NewRedactor(config Config) *Redactor {
	r := &Redactor{
		config:          config,
		compiledBuiltin: make(map[string]*regexp.Regexp),
	}

	r.compileBuiltinPatterns()

	if len(config.CustomPatterns) > 0 {
		r.compiledCustom = make([]*regexp.Regexp, 0, len(config.CustomPatterns))
		for _, pattern := range config.CustomPatterns {
			re, err := regexp.Compile(pattern)
			if err == nil {
				r.compiledCustom = append(r.compiledCustom, re)
			}
		}
	}

	return r
}

func (r *Redactor) compileBuiltinPatterns() {
	// https://api.telegram.org/bot<token>/sendVoice
	r.compiledBuiltin["bot_url"] = regexp.MustCompile(`/bot(\d{5,12}:[A-Za-z0-9_-]{30,})`)
	r.compiledBuiltin["bot_token"] = regexp.MustCompile(`\b\d{5,12}:[A-Za-z0-9_-]{30,}`)

	r.compiledBuiltin["api_key"] = regexp.MustCompile(`(?i)(api[_-]?key|api[_-]?token|apikey|api[_-]?secret)\s*[=:]\s*['"]?([a-zA-Z0-9_:\-]{20,})['"]?`)
	r.compiledBuiltin["bearer_token"] = regexp.MustCompile(`(?i)bearer\s+([a-zA-Z0-9_\-\.]{20,})`)
	r.compiledBuiltin["secret_token"] = regexp.MustCompile(`(?i)(secret[_-]?token|webhook[_-]?secret)\s*[=:]\s*['"]?([a-zA-Z0-9_\-]{8,})['"]?`)
	r.compiledBuiltin["json_secret"] = regexp.MustCompile(`"(?:api_key|api_token|secret|secret_token|token)"\s*:\s*"([^"]+)"`)
}

// Redact applies all configured redaction rules to the input string.
func (r *Redactor) Redact(input string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.config.Enabled {
		return input
	}

	result := input

	if r.config.RedactBotTokens {
		// URL form first so the "/bot" prefix survives.
		result = r.redactPatterns(result, "bot_url", "bot_token")
	}

	if r.config.RedactAPIKeys {
		result = r.redactPatterns(result, "api_key", "bearer_token", "secret_token", "json_secret")
	}

	for _, re := range r.compiledCustom {
		result = re.ReplaceAllString(result, r.config.Replacement)
	}

	return result
}

// redactPatterns replaces the captured groups of each named pattern, or the
// whole match when the pattern has no groups.
func (r *Redactor) redactPatterns(input string, patternNames ...string) string {
	result := input
	for _, name := range patternNames {
		re, ok := r.compiledBuiltin[name]
		if !ok {
			continue
		}
		result = re.ReplaceAllStringFunc(result, func(match string) string {
			submatches := re.FindStringSubmatch(match)
			if len(submatches) <= 1 {
				return r.config.Replacement
			}
			redacted := match
			for i := len(submatches) - 1; i >= 1; i-- {
				if submatches[i] == "" || submatches[i] == r.config.Replacement {
					continue
				}
				// Keep the key name of key=value pairs.
				if i == 1 && len(submatches) > 2 {
					continue
				}
				redacted = strings.Replace(redacted, submatches[i], r.config.Replacement, 1)
			}
			return redacted
		})
	}
	return result
}

// RedactFields redacts sensitive values in a map.
func (r *Redactor) RedactFields(fields map[string]any) map[string]any {
	r.mu.RLock()
	enabled := r.config.Enabled
	replacement := r.config.Replacement
	r.mu.RUnlock()

	if !enabled {
		return fields
	}

	result := make(map[string]any, len(fields))
	for k, v := range fields {
		if isSensitiveKey(strings.ToLower(k)) {
			result[k] = replacement
			continue
		}
		switch val := v.(type) {
		case string:
			result[k] = r.Redact(val)
		case error:
			result[k] = r.Redact(val.Error())
		case map[string]any:
			result[k] = r.RedactFields(val)
		default:
			result[k] = v
		}
	}
	return result
}

func isSensitiveKey(key string) bool {
	sensitiveKeys := []string{
		"token", "secret", "password", "api_key", "apikey", "credential",
	}

	for _, sk := range sensitiveKeys {
		if strings.Contains(key, sk) {
			return true
		}
	}
	return false
}

// SetEnabled enables or disables redaction at runtime.
func (r *Redactor) SetEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config.Enabled = enabled
}

// AddCustomPattern adds a custom redaction pattern at runtime.
func (r *Redactor) AddCustomPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.compiledCustom = append(r.compiledCustom, re)
	return nil
}

var (
	globalMu       sync.RWMutex
	globalRedactor = NewRedactor(DefaultConfig())
)

// Redact applies redaction using the global redactor.
func Redact(input string) string {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalRedactor.Redact(input)
}

// RedactFields redacts fields using the global redactor.
func RedactFields(fields map[string]any) map[string]any {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalRedactor.RedactFields(fields)
}

// SetGlobalConfig sets the configuration for the global redactor.
func SetGlobalConfig(config Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalRedactor = NewRedactor(config)
}

// AddSecret registers a literal secret, such as the configured bot token,
// so it is masked wherever it appears.
func AddSecret(secret string) {
	if strings.TrimSpace(secret) == "" {
		return
	}
	globalMu.RLock()
	defer globalMu.RUnlock()
	_ = globalRedactor.AddCustomPattern(regexp.QuoteMeta(secret))
}

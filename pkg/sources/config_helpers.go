package sources

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	ConfigVINColumnKey  = "vin_column"
	ConfigYearColumnKey = "year_column"
	ConfigSelectorKey   = "selector"
	ConfigYearKey       = "year"
	ConfigVINsKey       = "vins"
	ConfigUserAgentKey  = "user_agent"
	ConfigAcceptKey     = "accept"
)

// ConfigString returns the trimmed string value for key from source.Config or a fallback.
func ConfigString(src Source, key, fallback string) string {
	if src.Config != nil {
		if raw, ok := src.Config[key]; ok {
			if val, ok := raw.(string); ok {
				if trimmed := strings.TrimSpace(val); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return fallback
}

// ConfigInt reads an integer from source.Config. YAML yields int, JSON float64,
// and quoted numbers are accepted too.
func ConfigInt(src Source, key string, fallback int) (int, error) {
	raw, ok := src.Config[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		if strings.TrimSpace(v) == "" {
			return fallback, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("source %q config %s: %w", src.ID, key, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("source %q config %s: unsupported type %T", src.ID, key, raw)
	}
}

// ConfigStrings reads a list of strings from source.Config, skipping blanks.
func ConfigStrings(src Source, key string) ([]string, error) {
	raw, ok := src.Config[key]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("source %q config %s must be a list", src.ID, key)
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("source %q config %s[%d] must be a string", src.ID, key, i)
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// Headers builds request headers for remote sources (skips empty values).
func Headers(src Source) map[string]string {
	headers := make(map[string]string, 2)
	if v := ConfigString(src, ConfigUserAgentKey, ""); v != "" {
		headers["User-Agent"] = v
	}
	if v := ConfigString(src, ConfigAcceptKey, ""); v != "" {
		headers["Accept"] = v
	}
	return headers
}

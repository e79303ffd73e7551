package channels

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cast"

	domainerrors "github.com/altuslabsxyz/alert-dispatch/internal/domain/errors"
)

// Settings is the loosely-typed settings document of one integration.
// Accessors coerce values with cast and report wrong types as
// configuration errors.
type Settings map[string]any

// ParseSettings decodes a JSON settings document.
func ParseSettings(raw []byte) (Settings, error) {
	s := Settings{}
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CategoryConfiguration, "invalid settings document")
	}
	return s, nil
}

// RequiredString returns a non-empty string setting. Missing, empty and
// non-string values fail with errMsg.
func (s Settings) RequiredString(key, errMsg string) (string, error) {
	v, ok := s[key].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", domainerrors.NewConfigurationError(errMsg)
	}
	return v, nil
}

// String returns a string setting or def when it is absent.
func (s Settings) String(key, def string) (string, error) {
	v, ok := s[key]
	if !ok || v == nil {
		return def, nil
	}
	str, err := cast.ToStringE(v)
	if err != nil {
		return "", invalidSetting(key, err)
	}
	if str == "" {
		return def, nil
	}
	return str, nil
}

// Bool returns a boolean setting or def when it is absent.
func (s Settings) Bool(key string, def bool) (bool, error) {
	v, ok := s[key]
	if !ok || v == nil {
		return def, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, invalidSetting(key, err)
	}
	return b, nil
}

// Int returns an integer setting or def when it is absent.
func (s Settings) Int(key string, def int) (int, error) {
	v, ok := s[key]
	if !ok || v == nil {
		return def, nil
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return 0, invalidSetting(key, err)
	}
	return i, nil
}

// StringMap returns a map setting such as extra HTTP headers.
func (s Settings) StringMap(key string) (map[string]string, error) {
	v, ok := s[key]
	if !ok || v == nil {
		return nil, nil
	}
	m, err := cast.ToStringMapStringE(v)
	if err != nil {
		return nil, invalidSetting(key, err)
	}
	return m, nil
}

func invalidSetting(key string, err error) error {
	return domainerrors.Wrap(err, domainerrors.CategoryConfiguration, "invalid value for "+key)
}

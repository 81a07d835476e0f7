package content

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/folio/internal/i18n"
)

// formats are the accepted front-matter blocks: YAML between --- lines and
// TOML between +++ lines.
var formats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "---", yaml.Unmarshal),
	frontmatter.NewFormat("+++", "+++", toml.Unmarshal),
}

// FrontMatter is the decoded key/value block at the top of a content file.
type FrontMatter map[string]interface{}

// ParseFrontMatter splits data into its front-matter block and body. A file
// without a block yields an empty FrontMatter and the whole input as body.
func ParseFrontMatter(data []byte) (FrontMatter, []byte, error) {
	// Decoding into the named type would make yaml.v3 decode nested
	// mappings as FrontMatter too.
	var raw map[string]interface{}
	body, err := frontmatter.Parse(bytes.NewReader(data), &raw, formats...)
	if err != nil {
		return nil, nil, err
	}
	if raw == nil {
		raw = map[string]interface{}{}
	}
	return FrontMatter(raw), body, nil
}

// Has reports whether key is present with a truthy value. Absent keys, nil,
// false, zero numbers and empty strings all count as missing.
func (fm FrontMatter) Has(key string) bool {
	return truthy(fm[key])
}

// Missing returns the keys that Has reports as absent, in the given order.
func (fm FrontMatter) Missing(keys []string) []string {
	var missing []string
	for _, key := range keys {
		if !fm.Has(key) {
			missing = append(missing, key)
		}
	}
	return missing
}

// String returns the scalar value of key as text, or "" when it is absent or
// not a scalar. Dates decoded as time values are written as 2006-01-02 when
// they carry no time of day.
func (fm FrontMatter) String(key string) string {
	return scalarString(fm[key])
}

// StringOr returns String(key), or def when the value is missing.
func (fm FrontMatter) StringOr(key, def string) string {
	if s := fm.String(key); s != "" {
		return s
	}
	return def
}

// Bool returns the truthiness of key. The strings "false", "0" and "no" are
// false.
func (fm FrontMatter) Bool(key string) bool {
	if s, ok := fm[key].(string); ok {
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
		if s == "no" {
			return false
		}
	}
	return truthy(fm[key])
}

// Strings returns the scalar elements of a list value. A non-list value
// yields an empty slice.
func (fm FrontMatter) Strings(key string) []string {
	list, ok := fm[key].([]interface{})
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s := scalarString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Localized reads key as a plain string or a {zh, en} table. A table with a
// zh value becomes bilingual text; otherwise the plain value, the table's en
// value, or placeholder is used, in that order.
func (fm FrontMatter) Localized(key, placeholder string) i18n.LocalizedText {
	if table, ok := asTable(fm[key]); ok {
		zh := scalarString(table["zh"])
		en := scalarString(table["en"])
		if zh == "" && en == "" {
			return i18n.Plain(placeholder)
		}
		return i18n.Bilingual(zh, en)
	}
	if s := fm.String(key); s != "" {
		return i18n.Plain(s)
	}
	return i18n.Plain(placeholder)
}

// asTable returns v as a string-keyed mapping.
func asTable(v interface{}) (map[string]interface{}, bool) {
	switch val := v.(type) {
	case map[string]interface{}:
		return val, true
	case FrontMatter:
		return val, true
	default:
		return nil, false
	}
}

func scalarString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format(time.RFC3339)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(val)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	default:
		return ""
	}
}

func truthy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case int:
		return val != 0
	case int64:
		return val != 0
	case uint64:
		return val != 0
	case float64:
		return val != 0 && !math.IsNaN(val)
	default:
		return true
	}
}

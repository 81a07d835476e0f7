package i18n

import (
	"context"
	"embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/folio/internal/logging"
)

//go:embed catalog/*.yaml
var catalogFS embed.FS

var paramPattern = regexp.MustCompile(`\{(\w+)\}`)

// Catalog is one locale's nested message tree.
type Catalog map[string]interface{}

// ParseCatalog decodes a YAML message tree.
func ParseCatalog(data []byte) (Catalog, error) {
	// A plain map keeps nested nodes as map[string]interface{}; the named
	// type would be propagated to every level.
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if raw == nil {
		raw = map[string]interface{}{}
	}
	return Catalog(raw), nil
}

// Lookup walks a dotted key such as "nav.home". It reports false when a
// segment is missing or the leaf is not a string.
func (c Catalog) Lookup(key string) (string, bool) {
	var node interface{} = map[string]interface{}(c)
	for _, part := range strings.Split(key, ".") {
		var m map[string]interface{}
		switch n := node.(type) {
		case map[string]interface{}:
			m = n
		case Catalog:
			m = n
		default:
			return "", false
		}
		var ok bool
		node, ok = m[part]
		if !ok {
			return "", false
		}
	}
	s, ok := node.(string)
	return s, ok
}

// Messages translates UI message keys for each supported locale.
type Messages struct {
	catalogs map[Locale]Catalog
	logger   logging.Logger
}

// NewMessages loads the embedded zh and en catalogs.
func NewMessages(logger logging.Logger) (*Messages, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	m := &Messages{
		catalogs: make(map[Locale]Catalog, len(Supported)),
		logger:   logger.WithComponent("i18n"),
	}
	for _, l := range Supported {
		data, err := catalogFS.ReadFile("catalog/" + string(l) + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("read %s catalog: %w", l, err)
		}
		c, err := ParseCatalog(data)
		if err != nil {
			return nil, fmt.Errorf("%s catalog: %w", l, err)
		}
		m.catalogs[l] = c
	}
	return m, nil
}

// NewMessagesFromCatalogs builds Messages from caller supplied catalogs.
func NewMessagesFromCatalogs(logger logging.Logger, catalogs map[Locale]Catalog) *Messages {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Messages{catalogs: catalogs, logger: logger.WithComponent("i18n")}
}

// T returns the message for key in locale l with {name} placeholders
// replaced from params. Placeholders without a param are left as written.
// A missing key is logged and returned as-is so the gap stays visible.
func (m *Messages) T(l Locale, key string, params map[string]interface{}) string {
	value, ok := m.catalogs[l].Lookup(key)
	if !ok {
		m.logger.Warn(context.Background(), nil, "missing translation", "key", key, "locale", string(l))
		return key
	}
	if len(params) == 0 {
		return value
	}
	return paramPattern.ReplaceAllStringFunc(value, func(match string) string {
		name := match[1 : len(match)-1]
		if v, ok := params[name]; ok {
			return fmt.Sprint(v)
		}
		return match
	})
}

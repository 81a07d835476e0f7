package i18n

import (
	"encoding/json"
)

// LocalizedText is either a plain string that reads the same in every locale
// or a pair of zh/en values. A structured value always carries zh.
type LocalizedText struct {
	plain      string
	zh         string
	en         string
	structured bool
}

// Plain returns a single-locale text.
func Plain(s string) LocalizedText {
	return LocalizedText{plain: s}
}

// Bilingual returns a structured text. An empty en falls back to zh. When zh
// is empty the value cannot be structured and degrades to Plain(en).
func Bilingual(zh, en string) LocalizedText {
	if zh == "" {
		return Plain(en)
	}
	if en == "" {
		en = zh
	}
	return LocalizedText{zh: zh, en: en, structured: true}
}

// IsStructured reports whether t holds separate zh/en values.
func (t LocalizedText) IsStructured() bool {
	return t.structured
}

// IsZero reports whether t resolves to the empty string in every locale.
func (t LocalizedText) IsZero() bool {
	return !t.structured && t.plain == ""
}

// Resolve returns the text for locale l. Plain text is returned unchanged; a
// structured value falls back to zh when the requested value is empty.
func (t LocalizedText) Resolve(l Locale) string {
	if !t.structured {
		return t.plain
	}
	if l == EN && t.en != "" {
		return t.en
	}
	return t.zh
}

// Text resolves t against the fixed default locale. It is the accessor for
// non-interactive call sites; interactive callers resolve through the
// locale store instead.
func Text(t LocalizedText) string {
	return t.Resolve(Default)
}

// String implements fmt.Stringer using the default locale.
func (t LocalizedText) String() string {
	return Text(t)
}

type bilingualJSON struct {
	ZH string `json:"zh" yaml:"zh"`
	EN string `json:"en" yaml:"en"`
}

// MarshalJSON encodes plain text as a string and structured text as
// {"zh": ..., "en": ...}.
func (t LocalizedText) MarshalJSON() ([]byte, error) {
	if !t.structured {
		return json.Marshal(t.plain)
	}
	return json.Marshal(bilingualJSON{ZH: t.zh, EN: t.en})
}

// UnmarshalJSON accepts either encoding produced by MarshalJSON.
func (t *LocalizedText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Plain(s)
		return nil
	}
	var b bilingualJSON
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	*t = Bilingual(b.ZH, b.EN)
	return nil
}

// MarshalYAML mirrors MarshalJSON for gopkg.in/yaml.v3.
func (t LocalizedText) MarshalYAML() (interface{}, error) {
	if !t.structured {
		return t.plain, nil
	}
	return bilingualJSON{ZH: t.zh, EN: t.en}, nil
}

package content

import (
	"fmt"
	"strings"
	"time"

	"github.com/conneroisu/folio/internal/i18n"
)

// Kind names a content collection.
type Kind string

const (
	KindProjects  Kind = "projects"
	KindLearnings Kind = "learnings"
	KindPodcasts  Kind = "podcasts"
)

// Kinds lists every collection in navigation order.
var Kinds = []Kind{KindProjects, KindLearnings, KindPodcasts}

// ParseKind accepts a kind name, case-insensitively, in singular or plural.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds {
		if name == string(k) || name+"s" == string(k) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown content kind %q (want projects, learnings or podcasts)", s)
}

// Meta is the header shared by every record kind.
type Meta struct {
	ID         string `json:"id"                   yaml:"id"`
	Category   string `json:"category"             yaml:"category"`
	Date       string `json:"date"                 yaml:"date"`
	Featured   bool   `json:"featured"             yaml:"featured"`
	Content    string `json:"content,omitempty"    yaml:"content,omitempty"`
	SourcePath string `json:"-"                    yaml:"-"`
}

// Metadata returns the header. Embedding Meta gives every record kind this
// method, which is what Record requires.
func (m *Meta) Metadata() *Meta {
	return m
}

// Time parses Date. It reports false when Date matches none of the
// accepted layouts.
func (m *Meta) Time() (time.Time, bool) {
	return i18n.ParseDate(m.Date)
}

// Record is implemented by pointers to the record kinds.
type Record interface {
	Metadata() *Meta
}

// Project categories used by the site's filter. Other values are kept as
// written.
var ProjectCategories = []string{"Web App", "Game", "AI/ML", "Automation", "Tool", "Other"}

// Learning categories used by the site's filter.
var LearningCategories = []string{"DevOps", "AI/Agent", "Backend", "Frontend", "Other"}

// Project is a portfolio entry from content/projects.
type Project struct {
	Meta        `yaml:",inline"`
	Title       i18n.LocalizedText `json:"title"               yaml:"title"`
	Description i18n.LocalizedText `json:"description"         yaml:"description"`
	TechStack   []string           `json:"techStack"           yaml:"techStack"`
	CoverImage  string             `json:"coverImage"          yaml:"coverImage"`
	GitHubURL   string             `json:"githubUrl,omitempty" yaml:"githubUrl,omitempty"`
	DemoURL     string             `json:"demoUrl,omitempty"   yaml:"demoUrl,omitempty"`
}

// Learning is a knowledge card from content/learnings.
type Learning struct {
	Meta    `yaml:",inline"`
	Topic   i18n.LocalizedText `json:"topic"          yaml:"topic"`
	Summary i18n.LocalizedText `json:"summary"        yaml:"summary"`
	Icon    string             `json:"icon"           yaml:"icon"`
	Details []string           `json:"details"        yaml:"details"`
	Link    string             `json:"link,omitempty" yaml:"link,omitempty"`
}

// Podcast is an audio episode from content/podcasts.
type Podcast struct {
	Meta        `yaml:",inline"`
	Title       i18n.LocalizedText `json:"title"                yaml:"title"`
	Description i18n.LocalizedText `json:"description"          yaml:"description"`
	Duration    string             `json:"duration"             yaml:"duration"`
	AudioURL    string             `json:"audioUrl"             yaml:"audioUrl"`
	CoverImage  string             `json:"coverImage,omitempty" yaml:"coverImage,omitempty"`
}

// Heading returns the display title of any record kind.
func Heading(r Record) i18n.LocalizedText {
	switch rec := r.(type) {
	case *Project:
		return rec.Title
	case *Learning:
		return rec.Topic
	case *Podcast:
		return rec.Title
	default:
		return i18n.Plain(r.Metadata().ID)
	}
}

// Summary returns the short description of any record kind.
func Summary(r Record) i18n.LocalizedText {
	switch rec := r.(type) {
	case *Project:
		return rec.Description
	case *Learning:
		return rec.Summary
	case *Podcast:
		return rec.Description
	default:
		return i18n.Plain("")
	}
}

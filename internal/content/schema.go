package content

// Schema describes how one record kind is stored and decoded.
type Schema[T Record] struct {
	Kind Kind
	// Extension is matched case-sensitively against file names.
	Extension string
	// IDKey is the front-matter key that overrides the filename identity.
	IDKey string
	// Required keys produce an advisory warning when missing.
	Required []string
	// Build maps decoded front-matter onto a record. meta already carries
	// identity, category, date, featured flag and body.
	Build func(fm FrontMatter, meta Meta) T
}

const (
	placeholderCover = "/images/placeholder-project.svg"
	defaultCategory  = "Other"
	defaultDuration  = "00:00"
)

// ProjectSchema decodes .mdx files under content/projects.
func ProjectSchema() Schema[*Project] {
	return Schema[*Project]{
		Kind:      KindProjects,
		Extension: ".mdx",
		IDKey:     "slug",
		Required:  []string{"title", "date", "category", "description"},
		Build: func(fm FrontMatter, meta Meta) *Project {
			return &Project{
				Meta:        meta,
				Title:       fm.Localized("title", "Untitled Project"),
				Description: fm.Localized("description", ""),
				TechStack:   fm.Strings("techStack"),
				CoverImage:  fm.StringOr("coverImage", placeholderCover),
				GitHubURL:   fm.String("githubUrl"),
				DemoURL:     fm.String("demoUrl"),
			}
		},
	}
}

// LearningSchema decodes .md files under content/learnings.
func LearningSchema() Schema[*Learning] {
	return Schema[*Learning]{
		Kind:      KindLearnings,
		Extension: ".md",
		IDKey:     "id",
		Required:  []string{"topic", "category", "summary", "date"},
		Build: func(fm FrontMatter, meta Meta) *Learning {
			return &Learning{
				Meta:    meta,
				Topic:   fm.Localized("topic", "Untitled Topic"),
				Summary: fm.Localized("summary", ""),
				Icon:    fm.String("icon"),
				Details: fm.Strings("details"),
				Link:    fm.String("link"),
			}
		},
	}
}

// PodcastSchema decodes .md files under content/podcasts.
func PodcastSchema() Schema[*Podcast] {
	return Schema[*Podcast]{
		Kind:      KindPodcasts,
		Extension: ".md",
		IDKey:     "slug",
		Required:  []string{"title", "date", "duration", "audioUrl"},
		Build: func(fm FrontMatter, meta Meta) *Podcast {
			return &Podcast{
				Meta:        meta,
				Title:       fm.Localized("title", "Untitled Podcast"),
				Description: fm.Localized("description", ""),
				Duration:    fm.StringOr("duration", defaultDuration),
				AudioURL:    fm.String("audioUrl"),
				CoverImage:  fm.String("coverImage"),
			}
		},
	}
}

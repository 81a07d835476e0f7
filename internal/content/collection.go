// Package content loads typed records (projects, learnings, podcasts) from
// directories of Markdown files with front-matter and answers read-only
// queries over them.
//
// Every query re-reads the directory; nothing is cached, so edits on disk are
// visible to the next call. Loader problems never fail a query: missing
// directories yield empty results, unreadable or malformed files are logged
// and skipped, and missing required fields are reported as warnings while the
// record is still built with defaults.
package content

import (
	"context"
	goerrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/conneroisu/folio/internal/errors"
	"github.com/conneroisu/folio/internal/logging"
)

// Option configures a Collection.
type Option func(*options)

type options struct {
	logger    logging.Logger
	diags     *errors.Diagnostics
	now       func() time.Time
	extension string
}

// WithLogger sets the logger used for loader warnings and errors.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithDiagnostics records every loader finding in d as well as logging it.
func WithDiagnostics(d *errors.Diagnostics) Option {
	return func(o *options) { o.diags = d }
}

// WithClock overrides the clock used for the default date of undated records.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithExtension overrides the schema's file extension.
func WithExtension(ext string) Option {
	return func(o *options) { o.extension = ext }
}

// Collection is the loader and query surface for one record kind.
type Collection[T Record] struct {
	schema Schema[T]
	dir    string
	ext    string
	logger logging.Logger
	diags  *errors.Diagnostics
	now    func() time.Time
}

// New returns a collection reading schema's records from dir.
func New[T Record](schema Schema[T], dir string, opts ...Option) *Collection[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.Nop()
	}
	ext := schema.Extension
	if o.extension != "" {
		ext = o.extension
	}

	return &Collection[T]{
		schema: schema,
		dir:    dir,
		ext:    ext,
		logger: o.logger.WithComponent("content").With("kind", string(schema.Kind)),
		diags:  o.diags,
		now:    o.now,
	}
}

// Kind returns the record kind served by c.
func (c *Collection[T]) Kind() Kind { return c.schema.Kind }

// Dir returns the directory c reads from.
func (c *Collection[T]) Dir() string { return c.dir }

// Extension returns the file extension c matches.
func (c *Collection[T]) Extension() string { return c.ext }

// List returns every record sorted by date, newest first. Records with
// unparseable dates follow all dated records in directory order. When two
// files resolve to the same id the first in filename order is kept.
func (c *Collection[T]) List(ctx context.Context) []T {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if goerrors.Is(err, fs.ErrNotExist) {
			c.logger.Warn(ctx, nil, "content directory not found", "dir", c.dir)
		} else {
			c.logger.Error(ctx, err, "failed to read content directory", "dir", c.dir)
			c.report(errors.NewIOError(errors.ErrCodeFileNotFound, "cannot read content directory", err).
				WithLocation(c.dir, 0))
		}
		return []T{}
	}

	records := make([]T, 0, len(entries))
	seen := make(map[string]string, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, c.ext) {
			continue
		}
		if ValidateID(strings.TrimSuffix(name, c.ext)) != nil {
			c.logger.Debug(ctx, "skipping file without a usable name", "file", name)
			continue
		}

		record, err := c.parseFile(ctx, name)
		if err != nil {
			continue
		}

		meta := record.Metadata()
		if first, dup := seen[meta.ID]; dup {
			dupErr := errors.DuplicateID(meta.SourcePath, meta.ID, first)
			c.logger.Error(ctx, dupErr, "duplicate record id, keeping the first", "id", meta.ID, "file", name)
			c.report(dupErr)
			continue
		}
		seen[meta.ID] = meta.SourcePath
		records = append(records, record)
	}

	SortByDate(records)
	return records
}

// Get returns the record with the given id. A file named <id><ext> is
// preferred and returned even when its front-matter overrides the id;
// otherwise every record is searched. Unsafe ids are never resolved.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, bool) {
	var zero T

	if err := ValidateID(id); err != nil {
		c.logger.Warn(ctx, err, "rejected record lookup")
		return zero, false
	}

	name := id + c.ext
	if info, err := os.Stat(filepath.Join(c.dir, name)); err == nil && !info.IsDir() {
		record, err := c.parseFile(ctx, name)
		if err != nil {
			return zero, false
		}
		return record, true
	}

	for _, record := range c.List(ctx) {
		if record.Metadata().ID == id {
			return record, true
		}
	}
	return zero, false
}

// Featured returns at most max featured records in list order. A negative
// max means no limit.
func (c *Collection[T]) Featured(ctx context.Context, max int) []T {
	return FilterFeatured(c.List(ctx), max)
}

// ByCategory returns the records whose category equals category exactly.
func (c *Collection[T]) ByCategory(ctx context.Context, category string) []T {
	return FilterCategory(c.List(ctx), category)
}

// Categories returns the distinct categories in ascending order.
func (c *Collection[T]) Categories(ctx context.Context) []string {
	return CategoriesOf(c.List(ctx))
}

// IDs returns record ids in list order.
func (c *Collection[T]) IDs(ctx context.Context) []string {
	return IDsOf(c.List(ctx))
}

// Recent returns the first limit records of List.
func (c *Collection[T]) Recent(ctx context.Context, limit int) []T {
	return Take(c.List(ctx), limit)
}

// Records is List with records widened to the Record interface.
func (c *Collection[T]) Records(ctx context.Context) []Record {
	return widen(c.List(ctx))
}

// Record is Get with the result widened to the Record interface.
func (c *Collection[T]) Record(ctx context.Context, id string) (Record, bool) {
	record, ok := c.Get(ctx, id)
	if !ok {
		return nil, false
	}
	return record, true
}

func (c *Collection[T]) parseFile(ctx context.Context, name string) (T, error) {
	var zero T
	path := filepath.Join(c.dir, name)

	data, err := os.ReadFile(path)
	if err != nil {
		ioErr := errors.NewIOError(errors.ErrCodeFileNotFound, "cannot read record", err).WithLocation(path, 0)
		c.logger.Error(ctx, err, "failed to read record", "file", name)
		c.report(ioErr)
		return zero, ioErr
	}

	fm, body, err := ParseFrontMatter(data)
	if err != nil {
		parseErr := errors.MalformedRecord(path, err)
		c.logger.Error(ctx, err, "failed to parse record", "file", name)
		c.report(parseErr)
		return zero, parseErr
	}

	if missing := fm.Missing(c.schema.Required); len(missing) > 0 {
		c.logger.Warn(ctx, nil, "missing required fields", "file", name, "fields", strings.Join(missing, ", "))
		c.report(errors.MissingFields(path, missing))
	}

	meta := Meta{
		ID:         strings.TrimSuffix(name, c.ext),
		Category:   fm.StringOr("category", defaultCategory),
		Date:       fm.StringOr("date", c.now().Format("2006-01-02")),
		Featured:   fm.Bool("featured"),
		Content:    string(body),
		SourcePath: path,
	}

	if override := fm.String(c.schema.IDKey); override != "" && override != meta.ID {
		if err := ValidateID(override); err != nil {
			c.logger.Warn(ctx, err, "ignoring unsafe id override", "file", name)
			c.report(errors.Wrap(err, errors.ErrorTypeValidation, errors.ErrCodeUnsafeID,
				"ignoring unsafe "+c.schema.IDKey).WithLocation(path, 0))
		} else {
			meta.ID = override
		}
	}

	return c.schema.Build(fm, meta), nil
}

func (c *Collection[T]) report(err error) {
	if c.diags != nil {
		c.diags.Report(string(c.schema.Kind), err)
	}
}

// ValidateID rejects identities that cannot safely name a file inside the
// collection directory: empty ids, "." and "..", ids with path separators or
// NUL, and ids starting with a dot.
func ValidateID(id string) error {
	switch {
	case id == "", strings.HasPrefix(id, "."), strings.ContainsAny(id, "/\\\x00"):
		return errors.UnsafeID(id)
	default:
		return nil
	}
}

// SortByDate orders records newest first. The sort is stable; records whose
// date does not parse keep their relative order after all dated records.
func SortByDate[T Record](records []T) {
	sort.SliceStable(records, func(i, j int) bool {
		ti, okI := records[i].Metadata().Time()
		tj, okJ := records[j].Metadata().Time()
		switch {
		case okI && okJ:
			return ti.After(tj)
		case okI:
			return true
		default:
			return false
		}
	})
}

// FilterFeatured keeps featured records, truncated to max when max >= 0.
func FilterFeatured[T Record](records []T, max int) []T {
	out := make([]T, 0)
	for _, r := range records {
		if max >= 0 && len(out) == max {
			break
		}
		if r.Metadata().Featured {
			out = append(out, r)
		}
	}
	return out
}

// FilterCategory keeps records whose category equals category exactly.
func FilterCategory[T Record](records []T, category string) []T {
	out := make([]T, 0)
	for _, r := range records {
		if r.Metadata().Category == category {
			out = append(out, r)
		}
	}
	return out
}

// CategoriesOf returns the distinct categories of records, sorted.
func CategoriesOf[T Record](records []T) []string {
	set := make(map[string]struct{}, len(records))
	for _, r := range records {
		set[r.Metadata().Category] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for category := range set {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

// IDsOf returns the ids of records in order.
func IDsOf[T Record](records []T) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Metadata().ID
	}
	return out
}

// Take returns the first limit records. A negative limit returns them all.
func Take[T any](records []T, limit int) []T {
	if limit < 0 || limit >= len(records) {
		return records
	}
	return records[:limit]
}

func widen[T Record](records []T) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r
	}
	return out
}

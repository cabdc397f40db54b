package library

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ardnew/mung"
	"github.com/goccy/go-yaml"
	"github.com/klauspost/readahead"

	"github.com/ardnew/tagmount/log"
	"github.com/ardnew/tagmount/pkg"
)

// Loader locates and decodes library files.
type Loader struct {
	dirs   []string
	logger log.Logger
}

// Option configures a [Loader].
type Option = pkg.Option[*Loader]

// WithDirs appends directories to the search path.
func WithDirs(dirs ...string) Option {
	return func(l *Loader) *Loader {
		l.dirs = append(l.dirs, dirs...)

		return l
	}
}

// WithSearchPath appends the directories of a list separated by
// [os.PathListSeparator], with prefix placed first.
func WithSearchPath(list string, prefix ...string) Option {
	return WithDirs(SearchPath(list, prefix...)...)
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(l *Loader) *Loader {
		l.logger = logger

		return l
	}
}

// New returns a [Loader] configured by opts.
func New(opts ...Option) *Loader {
	return pkg.Apply(&Loader{}, opts...)
}

// SearchPath splits a list of directories separated by
// [os.PathListSeparator] and places prefix in front of it.
func SearchPath(list string, prefix ...string) []string {
	sep := string(os.PathListSeparator)

	joined := mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(sep),
		mung.WithPrefixItems(prefix...),
	).String()

	return slices.DeleteFunc(strings.Split(joined, sep), func(s string) bool {
		return strings.TrimSpace(s) == ""
	})
}

// Dirs returns the search path.
func (l *Loader) Dirs() []string { return slices.Clone(l.dirs) }

// Resolve returns the path of the library file name. A name that exists as
// given is used directly. Otherwise each search directory is tried with the
// name as given and with every recognized extension appended.
func (l *Loader) Resolve(name string) (string, error) {
	if isFile(name) {
		return name, nil
	}

	if !filepath.IsAbs(name) {
		for _, dir := range l.dirs {
			for _, cand := range candidates(filepath.Join(dir, name)) {
				if isFile(cand) {
					return cand, nil
				}
			}
		}
	}

	return "", ErrNotFound.With(
		slog.String("name", name),
		slog.Any("dirs", l.dirs),
	)
}

func candidates(base string) []string {
	out := []string{base}

	for _, f := range []Format{FormatYAML, FormatHCL} {
		for _, ext := range Extensions[f] {
			out = append(out, base+ext)
		}
	}

	return out
}

func isFile(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

// Load resolves and decodes the library file name.
func (l *Loader) Load(ctx context.Context, name string) (*Document, error) {
	path, err := l.Resolve(name)
	if err != nil {
		return nil, err
	}

	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, ErrNotFound.Wrap(err).With(slog.String("path", path))
	}
	defer f.Close()

	data, err := readAll(f)
	if err != nil {
		return nil, err
	}

	l.logger.TraceContext(ctx, "library read",
		slog.String("path", path),
		slog.String("format", format.String()),
		slog.Int("bytes", len(data)),
	)

	return Parse(data, format, path)
}

// LoadAll loads every named library, continuing past failures. The
// documents that loaded are returned with the combined error.
func (l *Loader) LoadAll(ctx context.Context, names ...string) ([]*Document, error) {
	var (
		docs []*Document
		errs []error
	)

	for _, name := range names {
		doc, err := l.Load(ctx, name)
		if err != nil {
			errs = append(errs, err)

			continue
		}

		docs = append(docs, doc)
	}

	return docs, pkg.MakeError(errs...).OrNil()
}

// Discover returns the library files found directly in the search
// directories, in search order. Missing directories are skipped.
func (l *Loader) Discover() ([]string, error) {
	var paths []string

	for _, dir := range l.dirs {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}

		if err != nil {
			return paths, err
		}

		for _, e := range entries {
			if e.Type().IsRegular() {
				if _, err := FormatOf(e.Name()); err == nil {
					paths = append(paths, filepath.Join(dir, e.Name()))
				}
			}
		}
	}

	return paths, nil
}

// Read decodes a library document from r.
func Read(r io.Reader, format Format, name string) (*Document, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}

	return Parse(data, format, name)
}

// ReadData decodes the YAML (or JSON) documents of a data stream. Each
// document must be a mapping. An empty stream yields no documents.
func ReadData(r io.Reader) ([]map[string]any, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(strings.NewReader(string(data)))

	var docs []map[string]any

	for {
		var doc map[string]any

		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}

		if err != nil {
			return docs, ErrDecode.Wrap(err).With(slog.Int("document", len(docs)))
		}

		if doc == nil {
			doc = map[string]any{}
		}

		docs = append(docs, doc)
	}
}

func readAll(r io.Reader) ([]byte, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, pkg.ErrReadInput.Wrap(err)
	}

	return data, nil
}

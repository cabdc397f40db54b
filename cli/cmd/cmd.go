package cmd

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/tagmount/dom"
	"github.com/ardnew/tagmount/library"
	"github.com/ardnew/tagmount/log"
	"github.com/ardnew/tagmount/tag"
)

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// stdout returns the writer receiving command output.
func stdout(ctx context.Context) io.Writer {
	if ktx := kongContextFrom(ctx); ktx != nil && ktx.Stdout != nil {
		return ktx.Stdout
	}

	return os.Stdout
}

type librariesKey struct{}

// Libraries selects the tag libraries installed before a command runs.
type Libraries struct {
	Loader *library.Loader
	// Names lists library files or names resolved on the loader search
	// path. When empty, every library found on the search path is used.
	Names []string
}

// WithLibraries returns a new context.Context containing libs.
func WithLibraries(ctx context.Context, libs *Libraries) context.Context {
	return context.WithValue(ctx, librariesKey{}, libs)
}

func librariesFrom(ctx context.Context) *Libraries {
	libs, ok := ctx.Value(librariesKey{}).(*Libraries)
	if !ok || libs == nil {
		return &Libraries{Loader: library.New()}
	}

	return libs
}

// Runtime returns a runtime with every selected library installed.
func (l *Libraries) Runtime(ctx context.Context, opts ...tag.Option) (*tag.Runtime, error) {
	names := l.Names

	if len(names) == 0 {
		found, err := l.Loader.Discover()
		if err != nil {
			return nil, ErrLibrary.Wrap(err)
		}

		names = found
	}

	docs, err := l.Loader.LoadAll(ctx, l.unique(names)...)
	if err != nil {
		return nil, ErrLibrary.Wrap(err)
	}

	if len(docs) == 0 {
		return nil, ErrNoLibrary.With(slog.Any("dirs", l.Loader.Dirs()))
	}

	rt := tag.New(append([]tag.Option{tag.WithLogger(log.Default())}, opts...)...)

	for _, doc := range docs {
		if err := doc.Install(rt); err != nil {
			return nil, ErrLibrary.Wrap(err).With(slog.String("source", doc.Source))
		}
	}

	log.DebugContext(ctx, "tag libraries installed",
		slog.Int("libraries", len(docs)),
		slog.Any("tags", rt.Names()),
	)

	return rt, nil
}

// unique resolves names and drops those naming a file seen before,
// comparing device and inode numbers so that symlinks and relative paths
// are recognized. Names that do not resolve are kept for the loader to
// report.
func (l *Libraries) unique(names []string) []string {
	seen := make(map[fileKey]struct{}, len(names))
	out := make([]string, 0, len(names))

	for _, name := range names {
		path, err := l.Loader.Resolve(name)
		if err != nil {
			out = append(out, name)

			continue
		}

		if key, ok := identify(path); ok {
			if _, dup := seen[key]; dup {
				continue
			}

			seen[key] = struct{}{}
		}

		out = append(out, path)
	}

	return out
}

// fileKey uniquely identifies a file by its device and inode numbers.
type fileKey struct {
	dev uint64
	ino uint64
}

// identify returns the fileKey of the file at path after resolving
// symlinks.
func identify(path string) (fileKey, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fileKey{}, false
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return fileKey{}, false
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return fileKey{}, false
	}

	return makeFileKey(info)
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true //nolint:unconvert
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// readData reads the YAML documents of the data source src. An empty src
// yields a single empty document.
func readData(src string) ([]map[string]any, error) {
	if src == "" {
		return []map[string]any{{}}, nil
	}

	r := io.Reader(os.Stdin)

	if src != stdinSource {
		f, err := os.Open(src)
		if err != nil {
			return nil, ErrReadData.Wrap(err).With(slog.String("source", src))
		}
		defer f.Close()

		r = f
	}

	docs, err := library.ReadData(r)
	if err != nil {
		return nil, ErrReadData.Wrap(err).With(slog.String("source", src))
	}

	if len(docs) == 0 {
		docs = append(docs, map[string]any{})
	}

	return docs, nil
}

// mountNew mounts the component name on a new host element inside a
// fragment. The fragment is returned for rendering.
func mountNew(rt *tag.Runtime, name string, opts map[string]any) (*tag.Tag, *dom.Node, error) {
	frag, err := dom.ParseString("<" + name + "></" + name + ">")
	if err != nil {
		return nil, nil, ErrMount.Wrap(err).With(slog.String("tag", name))
	}

	t, err := rt.Mount(frag.FirstChild, name, opts)
	if err != nil {
		return nil, nil, ErrMount.Wrap(err).With(slog.String("tag", name))
	}

	return t, frag, nil
}

// replaceOpts replaces the options of t with opts and updates it.
func replaceOpts(t *tag.Tag, opts map[string]any) error {
	o := t.Opts()
	clear(o)
	maps.Copy(o, opts)

	return t.Update()
}

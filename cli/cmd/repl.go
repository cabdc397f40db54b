package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/tagmount/cli/cmd/repl"
	"github.com/ardnew/tagmount/dom"
	"github.com/ardnew/tagmount/log"
	"github.com/ardnew/tagmount/pkg"
	"github.com/ardnew/tagmount/tag"
)

// Repl mounts a component and starts an interactive session in its scope.
type Repl struct {
	Tag  string `arg:"" help:"Name of the component to mount"`
	Data string `       help:"YAML data file providing the initial options, or '-' for stdin" short:"d"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	rec := dom.NewRecorder(nil)

	rt, err := librariesFrom(ctx).Runtime(ctx, tag.WithTree(rec))
	if err != nil {
		return err
	}

	docs, err := readData(r.Data)
	if err != nil {
		return err
	}

	t, out, err := mountNew(rt, r.Tag, docs[0])
	if err != nil {
		return err
	}

	cacheDir := pkg.CacheDir()

	if ktx := kongContextFrom(ctx); ktx != nil {
		if dir, ok := ktx.Model.Vars()[CacheIdentifier]; ok && dir != "" {
			cacheDir = dir
		}
	}

	log.DebugContext(ctx, "repl session",
		slog.String("tag", r.Tag),
		slog.String("cache", cacheDir),
	)

	return repl.Run(ctx, repl.NewSession(t, out, rec), cacheDir, log.Default())
}

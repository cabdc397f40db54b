package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ardnew/tagmount/dom"
	"github.com/ardnew/tagmount/log"
	"github.com/ardnew/tagmount/tag"
)

// Render mounts a component and prints the rendered HTML.
type Render struct {
	Tag  string `arg:"" help:"Name of the component to mount"                         optional:""`
	Data string `       help:"YAML data file providing the options, or '-' for stdin"              short:"d"`
	Page string `       help:"HTML page whose registered components are all mounted"               short:"P" type:"existingfile"`
}

// Run executes the render command.
func (r *Render) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	rt, err := librariesFrom(ctx).Runtime(ctx)
	if err != nil {
		return err
	}

	docs, err := readData(r.Data)
	if err != nil {
		return err
	}

	var out *dom.Node

	switch {
	case r.Page != "":
		out, err = mountPage(ctx, rt, r.Page, docs[0])
	case r.Tag != "":
		_, out, err = mountNew(rt, r.Tag, docs[0])
	default:
		err = ErrMount.With(slog.String("reason", "no component or page given"))
	}

	if err != nil {
		return err
	}

	w := stdout(ctx)

	if err := dom.Render(w, out); err != nil {
		return err
	}

	_, err = fmt.Fprintln(w)

	return err
}

// mountPage parses the HTML page at path and mounts every registered
// component found in it.
func mountPage(ctx context.Context, rt *tag.Runtime, path string, opts map[string]any) (*dom.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ErrReadData.Wrap(err).With(slog.String("source", path))
	}
	defer f.Close()

	page, err := dom.Parse(f)
	if err != nil {
		return nil, ErrReadData.Wrap(err).With(slog.String("source", path))
	}

	tags, err := rt.MountAll(page, opts)
	if err != nil {
		return nil, ErrMount.Wrap(err).With(slog.String("page", path))
	}

	log.DebugContext(ctx, "page mounted",
		slog.String("page", path),
		slog.Int("components", len(tags)),
	)

	return page, nil
}

// Apply mounts a component with the first document of a data stream and
// then replaces its options with each following document, printing the
// rendered HTML and the mutations of every step.
type Apply struct {
	Tag   string `arg:"" help:"Name of the component to mount"`
	Data  string `       help:"YAML data file holding one document per step, or '-' for stdin" required:"" short:"d"`
	Quiet bool   `       help:"Print only the final HTML"                                                    short:"q"`
}

// Run executes the apply command.
func (a *Apply) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	rec := dom.NewRecorder(nil)

	rt, err := librariesFrom(ctx).Runtime(ctx, tag.WithTree(rec))
	if err != nil {
		return err
	}

	docs, err := readData(a.Data)
	if err != nil {
		return err
	}

	t, out, err := mountNew(rt, a.Tag, docs[0])
	if err != nil {
		return err
	}

	w := stdout(ctx)

	for i, doc := range docs {
		if i > 0 {
			rec.Reset()

			if err := replaceOpts(t, doc); err != nil {
				return ErrUpdate.Wrap(err).With(
					slog.String("tag", a.Tag),
					slog.Int("step", i),
				)
			}
		}

		stats := rec.Stats()

		log.DebugContext(ctx, "step applied",
			slog.Int("step", i),
			slog.Any("mutations", stats),
		)

		if a.Quiet && i < len(docs)-1 {
			continue
		}

		if !a.Quiet {
			fmt.Fprintf(w, "# step %d: %d insert, %d remove, %d set-attr, %d remove-attr, %d set-text\n",
				i, stats.Insert, stats.Remove, stats.SetAttr, stats.RemoveAttr, stats.SetText)
		}

		if err := dom.Render(w, out); err != nil {
			return err
		}

		fmt.Fprintln(w)
	}

	return nil
}

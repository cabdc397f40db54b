package cmd

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/tagmount/pkg"
)

// Plan prints the compiled plan of a component template: for each
// template node carrying expressions, its pre-order index and the
// descriptors compiled for it.
type Plan struct {
	Tag    string `arg:"" help:"Name of the component"`
	Format string `       help:"Output format"          default:"yaml" enum:"yaml,json" short:"o"`
	Indent int    `       help:"Indent width for output" default:"2"                    short:"i"`
}

// Run executes the plan command.
func (p *Plan) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	rt, err := librariesFrom(ctx).Runtime(ctx)
	if err != nil {
		return err
	}

	plan, err := rt.Plan(p.Tag)
	if err != nil {
		return err
	}

	opts := []yaml.EncodeOption{yaml.Indent(p.Indent)}
	fail := ErrYAMLMarshal

	switch p.Format {
	case "yaml":
		opts = append(opts, yaml.IndentSequence(true))
	case "json":
		opts = append(opts, yaml.JSON())
		fail = ErrJSONMarshal
	default:
		return pkg.ErrInvalidFormat.Wrapf("%q", p.Format)
	}

	data, err := yaml.MarshalWithOptions(plan.Describe(), opts...)
	if err != nil {
		return fail.Wrap(err).With(slog.String("tag", p.Tag))
	}

	if !bytes.HasSuffix(data, []byte{'\n'}) {
		data = append(data, '\n')
	}

	_, err = stdout(ctx).Write(data)

	return err
}

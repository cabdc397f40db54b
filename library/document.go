package library

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/ardnew/tagmount/pkg"
	"github.com/ardnew/tagmount/tag"
)

// Document is a decoded tag library. Documents returned by [Parse] may be
// shared and must not be modified.
type Document struct {
	Source string      `yaml:"-"`
	Mixins []MixinSpec `yaml:"mixins"`
	Tags   []TagSpec   `yaml:"tags"`
}

// TagSpec declares a component implementation.
type TagSpec struct {
	Name   string         `yaml:"name"`
	HTML   string         `yaml:"html"`
	Attrs  []tag.Attr     `yaml:"attrs"`
	Mixins []string       `yaml:"mixins"`
	Data   map[string]any `yaml:"data"`
}

// MixinSpec declares a named mixin of plain values.
type MixinSpec struct {
	Name    string         `yaml:"name"`
	Parents []string       `yaml:"parents"`
	Props   map[string]any `yaml:"props"`
}

// Impl returns the implementation declared by s. Each instance applies the
// named mixins and then receives a copy of the declared data.
func (s TagSpec) Impl() tag.Impl {
	mixins := slices.Clone(s.Mixins)
	data := maps.Clone(s.Data)

	return tag.Impl{
		Name:  s.Name,
		HTML:  s.HTML,
		Attrs: slices.Clone(s.Attrs),
		Fn: func(t *tag.Tag, _ map[string]any) error {
			if err := t.MixinNamed(mixins...); err != nil {
				return err
			}

			for name, v := range data {
				t.Set(name, v)
			}

			return nil
		},
	}
}

// Install registers the mixins and then the tags of d with rt. Parent
// mixins are looked up in d first and then in rt. Every failure is
// reported.
func (d *Document) Install(rt *tag.Runtime) error {
	var errs []error

	declared := make(map[string]*tag.Mixin, len(d.Mixins))
	for _, spec := range d.Mixins {
		declared[spec.Name] = &tag.Mixin{Name: spec.Name, Props: maps.Clone(spec.Props)}
	}

	for _, spec := range d.Mixins {
		m := declared[spec.Name]

		for _, name := range spec.Parents {
			parent, ok := declared[name]
			if !ok {
				parent, ok = rt.Mixin(name)
			}

			if !ok {
				errs = append(errs, tag.ErrUnknownMixin.With(
					slog.String("mixin", name),
					slog.String("child", spec.Name),
					slog.String("source", d.Source),
				))

				continue
			}

			m.Parents = append(m.Parents, parent)
		}

		errs = append(errs, rt.RegisterMixin(m))
	}

	for _, spec := range d.Tags {
		errs = append(errs, rt.Register(spec.Impl()))
	}

	return pkg.MakeError(errs...).OrNil()
}

// Names returns the tag names declared by d.
func (d *Document) Names() []string {
	names := make([]string, len(d.Tags))
	for i, t := range d.Tags {
		names[i] = t.Name
	}

	return names
}

package library

import (
	"bytes"
	"log/slog"
	"maps"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zeebo/xxh3"

	"github.com/ardnew/tagmount/tag"
)

// Predefined errors (sentinel values).
var (
	ErrNotFound = tag.NewError("tag library not found")
	ErrDecode   = tag.NewError("tag library decode failed")
	ErrFormat   = tag.NewError("unknown tag library format")
)

// Format identifies the syntax of a library document.
type Format int

// Library formats.
const (
	FormatYAML Format = iota
	FormatHCL
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatHCL:
		return "hcl"
	}

	return "Format(" + strconv.Itoa(int(f)) + ")"
}

// Extensions lists the file extensions recognized for each format, in
// search order.
var Extensions = map[Format][]string{ //nolint:gochecknoglobals
	FormatYAML: {".yaml", ".yml", ".json"},
	FormatHCL:  {".hcl"},
}

// FormatOf returns the format of a library file by its extension.
func FormatOf(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))

	for _, f := range []Format{FormatYAML, FormatHCL} {
		for _, e := range Extensions[f] {
			if e == ext {
				return f, nil
			}
		}
	}

	return 0, ErrFormat.With(slog.String("path", path))
}

// cache holds decoded documents keyed by format and source hash.
var cache sync.Map //nolint:gochecknoglobals

type cached struct {
	once sync.Once
	doc  *Document
	err  error
}

// ClearCache discards every cached document.
func ClearCache() { cache.Clear() }

// Parse decodes a library document. name labels the document in errors.
func Parse(data []byte, format Format, name string) (*Document, error) {
	key := format.String() + ":" + strconv.FormatUint(xxh3.Hash(data), 36)

	v, _ := cache.LoadOrStore(key, new(cached))
	entry := v.(*cached)

	entry.once.Do(func() {
		entry.doc, entry.err = decode(data, format, name)
	})

	return entry.doc, entry.err
}

func decode(data []byte, format Format, name string) (*Document, error) {
	var (
		doc Document
		err error
	)

	switch format {
	case FormatYAML:
		err = decodeYAML(data, &doc)
	case FormatHCL:
		err = decodeHCL(data, name, &doc)
	default:
		return nil, ErrFormat.With(slog.String("format", format.String()))
	}

	if err != nil {
		return nil, ErrDecode.Wrap(err).With(
			slog.String("source", name),
			slog.String("format", format.String()),
		)
	}

	doc.Source = name

	return &doc, nil
}

func decodeYAML(data []byte, doc *Document) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	return yaml.UnmarshalWithOptions(data, doc, yaml.Strict())
}

type hclDocument struct {
	Mixins []hclMixin `hcl:"mixin,block"`
	Tags   []hclTag   `hcl:"tag,block"`
}

type hclMixin struct {
	Name    string            `hcl:"name,label"`
	Parents []string          `hcl:"parents,optional"`
	Props   map[string]string `hcl:"props,optional"`
}

type hclTag struct {
	Name   string            `hcl:"name,label"`
	HTML   string            `hcl:"html"`
	Attrs  []tag.Attr        `hcl:"attr,block"`
	Mixins []string          `hcl:"mixins,optional"`
	Data   map[string]string `hcl:"data,optional"`
}

func decodeHCL(data []byte, name string, doc *Document) error {
	file, diags := hclparse.NewParser().ParseHCL(data, name)
	if diags.HasErrors() {
		return diags
	}

	var src hclDocument
	if diags := gohcl.DecodeBody(file.Body, nil, &src); diags.HasErrors() {
		return diags
	}

	for _, m := range src.Mixins {
		doc.Mixins = append(doc.Mixins, MixinSpec{
			Name:    m.Name,
			Parents: m.Parents,
			Props:   anyMap(m.Props),
		})
	}

	for _, t := range src.Tags {
		doc.Tags = append(doc.Tags, TagSpec{
			Name:   t.Name,
			HTML:   t.HTML,
			Attrs:  t.Attrs,
			Mixins: t.Mixins,
			Data:   anyMap(t.Data),
		})
	}

	return nil
}

func anyMap(m map[string]string) map[string]any {
	if m == nil {
		return nil
	}

	out := make(map[string]any, len(m))
	for k, v := range maps.All(m) {
		out[k] = v
	}

	return out
}

// Package log provides a structured logger based on [log/slog] with an
// additional trace level.
//
// A [Logger] is created with [Make] and configured with functional options:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("RFC3339Nano"),
//		log.WithCaller(true))
//
// Every level has a context-aware and a context-unaware variant. The
// unaware variants use [DefaultContextProvider].
//
// The zero Logger discards everything, which lets library types carry a
// Logger field that callers never have to set.
//
// With [WithPretty] enabled, text output is colorized with lipgloss and JSON
// output is indented. Colors are omitted when the writer is not a terminal.
//
// The package-level functions ([Info], [Debug], ...) write through a shared
// logger reconfigured by [Config].
package log

// Package cli contains the command line interface for tagmount.
//
// # Usage
//
// Each command mounts components from the tag libraries found on the
// search path:
//
//	tagmount render todo-list -d items.yaml
//	tagmount apply todo-list -d steps.yaml
//	tagmount plan todo-list -o json
//	tagmount repl todo-list
//
// # Tag Libraries
//
// A library is a YAML or HCL file declaring components and mixins. The
// search path is made of the --lib-dir directories, the lib directory under
// the configuration directory, and the list in TAGMOUNT_PATH. Libraries are
// named with --lib, either by path or by base name on the search path; with
// no --lib every library on the search path is installed.
//
// # Configuration
//
// Flag defaults are read from config.yaml (or config.json) in the
// configuration directory. Nested keys are joined with hyphens, so
//
//	log:
//	  level: debug
//
// sets --log-level. The init command writes the current flag values there.
//
// # Logging Options
//
//   - --log-level: Set minimum log level
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o tagmount .
//
// It adds --pprof-mode and --pprof-dir.
package cli

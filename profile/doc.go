// Package profile provides optional runtime profiling for tagmount.
//
// # Overview
//
// This package integrates [github.com/pkg/profile]. Profiling must be
// enabled at build time with the "pprof" build tag:
//
//	go build -tags pprof .
//
// Without the tag, [Modes] is empty and [Profiler.Start] does nothing.
//
// # Modes
//
//   - allocs:    Memory allocation profiling (all allocations)
//   - block:     Block (synchronization) profiling
//   - clock:     Wall-clock profiling
//   - cpu:       CPU profiling
//   - goroutine: Goroutine profiling
//   - heap:      Heap memory profiling (live allocations)
//   - mem:       General memory profiling
//   - mutex:     Mutex contention profiling
//   - thread:    Thread creation profiling
//   - trace:     Execution trace profiling
//
// # Usage
//
//	p := profile.New(profile.WithMode("cpu"), profile.WithPath("/tmp/prof"))
//	defer p.Start().Stop()
//
// The tagmount command exposes the same settings as flags:
//
//	tagmount --pprof-mode=cpu render todo-list --data todos.yaml
//
// The default output directory is the "pprof" directory under the user cache
// directory, e.g. $XDG_CACHE_HOME/tagmount/pprof. Analyze the output with
// go tool pprof:
//
//	go tool pprof -http=: $XDG_CACHE_HOME/tagmount/pprof/cpu.pprof
//
// When built with the pprof tag, this package also imports [net/http/pprof],
// registering its handlers on [net/http.DefaultServeMux].
package profile

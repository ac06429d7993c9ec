// Package natives builds buzz's built-in method tables (§4.7): the
// methods available on String, List, Map, Pattern and Fiber receivers
// that are not user-definable. Tables are materialized lazily, on first
// lookup for a given Kind, since a short-lived script may never touch
// most of them.
package natives

import (
	"sync"

	"buzz/pkg/bzerror"
	"buzz/pkg/fiber"
	"buzz/pkg/gc"
	"buzz/pkg/pattern"
	"buzz/pkg/value"
)

// Table binds built-in method names to their implementation for one
// receiver Kind.
type Table map[string]value.NativeFn

// Registry owns the lazily-built per-Kind tables and the heap/scheduler
// they need to allocate results and mark mutations dirty.
type Registry struct {
	heap  *gc.Heap
	sched *fiber.Scheduler

	once   map[value.Kind]*sync.Once
	tables map[value.Kind]Table
	mu     sync.Mutex
}

// New creates a registry bound to the runtime's heap (for allocating
// native-built results and firing write barriers) and fiber scheduler
// (for resume/cancel/over, which are fiber methods in source
// syntax but scheduler operations underneath).
func New(heap *gc.Heap, sched *fiber.Scheduler) *Registry {
	return &Registry{
		heap:   heap,
		sched:  sched,
		once:   make(map[value.Kind]*sync.Once),
		tables: make(map[value.Kind]Table),
	}
}

// Lookup finds the native method named name for a receiver of the given
// Kind, building that Kind's table on first use.
func (r *Registry) Lookup(kind value.Kind, name string) (value.NativeFn, bool) {
	table := r.tableFor(kind)
	fn, ok := table[name]
	return fn, ok
}

func (r *Registry) tableFor(kind value.Kind) Table {
	r.mu.Lock()
	once, ok := r.once[kind]
	if !ok {
		once = &sync.Once{}
		r.once[kind] = once
	}
	r.mu.Unlock()

	once.Do(func() {
		var t Table
		switch kind {
		case value.KindString:
			t = r.stringTable()
		case value.KindList:
			t = r.listTable()
		case value.KindMap:
			t = r.mapTable()
		case value.KindPattern:
			t = r.patternTable()
		case value.KindFiber:
			t = r.fiberTable()
		default:
			t = Table{}
		}
		r.mu.Lock()
		r.tables[kind] = t
		r.mu.Unlock()
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tables[kind]
}

func arg(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Null
}

func optInt(args []value.Value, i int) *int {
	v := arg(args, i)
	if v.Tag != value.TagInt {
		return nil
	}
	n := int(v.I)
	return &n
}

package natives

import (
	"buzz/pkg/fiber"
	"buzz/pkg/value"
)

// fiberTable exposes §4.3's scheduler operations as the methods source
// code actually calls on a fiber value: `f.resume(...)`, `f.cancel()`,
// `f.over()`. yield is a statement form the compiler lowers straight to
// an opcode (there is no receiver to call it on), so it has no entry
// here.
//
// "resume" here only performs the scheduler's state transition
// (Instanciated/Yielded -> Running) and never executes any bytecode of
// the fiber's body: pkg/natives has no access to a *vm.VM, and actually
// running the fiber requires re-entering vm.VM.run. vm.invoke special-
// cases a Fiber receiver's "resume" call and routes it through
// vm.VM.Resume instead, so this entry is only reached by callers that
// drive the scheduler directly (e.g. pkg/fiber's own tests), never by
// compiled buzz source.
func (r *Registry) fiberTable() Table {
	return Table{
		"resume": func(recv value.Value, args []value.Value) ([]value.Value, error) {
			if err := r.sched.Resume(recv.O, args); err != nil {
				return nil, err
			}
			return nil, nil
		},
		"cancel": func(recv value.Value, args []value.Value) ([]value.Value, error) {
			r.sched.Cancel(recv.O)
			return nil, nil
		},
		"over": func(recv value.Value, args []value.Value) ([]value.Value, error) {
			return []value.Value{value.Bool(fiber.Over(recv.O))}, nil
		},
	}
}

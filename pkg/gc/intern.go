package gc

import "buzz/pkg/value"

// Intern returns the canonical String object for s, allocating one if
// this is the first time s has been seen. This is the only place in the
// runtime allowed to decide that two byte-identical strings share an
// object: the invariant in §3.1 ("String identity implies string
// equality") and the round-trip property in §8.3 both depend on every
// other caller going through here instead of building String objects
// directly.
//
// Interned strings are long-lived (§3.5) so they are linked straight
// into the old generation rather than the young one: they are always
// reachable through the intern table root, so a young collection would
// otherwise spend cycles re-confirming the obvious.
func (h *Heap) Intern(s string) *value.Obj {
	h.mu.Lock()
	defer h.mu.Unlock()
	if o, ok := h.interned[s]; ok {
		return o
	}
	o := value.NewString(s)
	h.linkOld(o)
	h.stats.LiveObjects++
	h.interned[s] = o
	return o
}

// InternedCount reports how many distinct strings are currently interned.
func (h *Heap) InternedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.interned)
}

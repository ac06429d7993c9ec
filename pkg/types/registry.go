package types

import (
	"fmt"
	"sync"
)

// Registry canonicalizes structural TypeDefs (hash-consing: two lookups
// for the same structural shape return the same *TypeDef) and tracks
// Object/Enum definitions and pending Placeholders. Object and Enum
// TypeDefs are nominal and are never collapsed, even when two
// declarations happen to share a name in different scopes.
//
// The Registry is append-only during compilation and read-only
// thereafter (§5): no entry is ever removed. The garbage collector marks
// every structural entry as a root and never drops one.
type Registry struct {
	mu         sync.Mutex
	structural map[string]*TypeDef
	pending    []*TypeDef // unresolved placeholders, for end-of-compile diagnostics
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{structural: make(map[string]*TypeDef)}
}

func (r *Registry) intern(key string, build func() *TypeDef) *TypeDef {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.structural[key]; ok {
		return t
	}
	t := build()
	r.structural[key] = t
	return t
}

func optSuffix(optional bool) string {
	if optional {
		return "?"
	}
	return ""
}

// Bool returns the canonical bool TypeDef.
func (r *Registry) Bool(optional bool) *TypeDef {
	return r.intern("bool"+optSuffix(optional), func() *TypeDef { return &TypeDef{Kind: Bool, Optional: optional} })
}

// Number returns the canonical numeric TypeDef.
func (r *Registry) Number(optional bool) *TypeDef {
	return r.intern("num"+optSuffix(optional), func() *TypeDef { return &TypeDef{Kind: Number, Optional: optional} })
}

// String returns the canonical str TypeDef.
func (r *Registry) String(optional bool) *TypeDef {
	return r.intern("str"+optSuffix(optional), func() *TypeDef { return &TypeDef{Kind: String, Optional: optional} })
}

// PatternType returns the canonical pat TypeDef.
func (r *Registry) PatternType(optional bool) *TypeDef {
	return r.intern("pat"+optSuffix(optional), func() *TypeDef { return &TypeDef{Kind: Pattern, Optional: optional} })
}

// TypeType returns the canonical `type` TypeDef (the type of a type value).
func (r *Registry) TypeType(optional bool) *TypeDef {
	return r.intern("type"+optSuffix(optional), func() *TypeDef { return &TypeDef{Kind: Type, Optional: optional} })
}

// Void returns the canonical void TypeDef. Void is never optional.
func (r *Registry) Void() *TypeDef {
	return r.intern("void", func() *TypeDef { return &TypeDef{Kind: Void} })
}

// UserDataType returns the canonical userdata TypeDef.
func (r *Registry) UserDataType(optional bool) *TypeDef {
	return r.intern("userdata"+optSuffix(optional), func() *TypeDef { return &TypeDef{Kind: UserData, Optional: optional} })
}

// ListOf returns the canonical [item] TypeDef.
func (r *Registry) ListOf(item *TypeDef, optional bool) *TypeDef {
	key := fmt.Sprintf("list<%p>%s", item, optSuffix(optional))
	return r.intern(key, func() *TypeDef { return &TypeDef{Kind: List, ListItem: item, Optional: optional} })
}

// MapOf returns the canonical {key: value} TypeDef.
func (r *Registry) MapOf(key, value *TypeDef, optional bool) *TypeDef {
	k := fmt.Sprintf("map<%p,%p>%s", key, value, optSuffix(optional))
	return r.intern(k, func() *TypeDef {
		return &TypeDef{Kind: Map, MapDef: &MapType{Key: key, Value: value}, Optional: optional}
	})
}

// FiberOf returns the canonical fib<return,yield> TypeDef.
func (r *Registry) FiberOf(ret, yield *TypeDef, optional bool) *TypeDef {
	k := fmt.Sprintf("fiber<%p,%p>%s", ret, yield, optSuffix(optional))
	return r.intern(k, func() *TypeDef {
		return &TypeDef{Kind: Fiber, FiberDef: &FiberType{Return: ret, Yield: yield}, Optional: optional}
	})
}

// FunctionOf returns the canonical function TypeDef for the given
// signature. Parameter names participate in the cache key (so two
// functions differing only in parameter names are distinct registry
// entries) but not in Eql, per the spec's "names ignored" rule.
func (r *Registry) FunctionOf(params []Param, ret, yield *TypeDef, optional bool) *TypeDef {
	k := fmt.Sprintf("fn(%v)->%p/%p%s", paramKey(params), ret, yield, optSuffix(optional))
	return r.intern(k, func() *TypeDef {
		return &TypeDef{
			Kind:        Function,
			FunctionDef: &FunctionType{Params: params, Return: ret, Yield: yield},
			Optional:    optional,
		}
	})
}

func paramKey(params []Param) string {
	s := ""
	for _, p := range params {
		s += fmt.Sprintf("%s:%p,", p.Name, p.Type)
	}
	return s
}

// NewObject allocates a fresh, nominal Object TypeDef. It is never
// collapsed with any other Object TypeDef, including one with the same
// name declared elsewhere.
func (r *Registry) NewObject(name string, super *TypeDef, optional bool) *TypeDef {
	return &TypeDef{
		Kind:      Object,
		Name:      name,
		Optional:  optional,
		ObjectDef: &ObjectType{Name: name, Super: super, Fields: map[string]*TypeDef{}, Methods: map[string]*TypeDef{}},
	}
}

// InstanceOf returns a structural ObjectInstance TypeDef referring to
// the given (nominal) Object definition. Instances of the *same* class
// reference do canonicalize, since the payload is just a pointer.
func (r *Registry) InstanceOf(class *TypeDef, optional bool) *TypeDef {
	k := fmt.Sprintf("instance<%p>%s", class, optSuffix(optional))
	return r.intern(k, func() *TypeDef {
		return &TypeDef{Kind: ObjectInstance, Name: class.Name, ObjectInstanceOf: class, Optional: optional}
	})
}

// NewEnum allocates a fresh, nominal Enum TypeDef.
func (r *Registry) NewEnum(name string, caseType *TypeDef, cases []string, optional bool) *TypeDef {
	return &TypeDef{
		Kind:    Enum,
		Name:    name,
		EnumDef: &EnumType{Name: name, CaseType: caseType, Cases: cases},
	}
}

// EnumInstanceOf returns a structural EnumInstance TypeDef for the given
// enum definition.
func (r *Registry) EnumInstanceOf(enum *TypeDef, optional bool) *TypeDef {
	k := fmt.Sprintf("enum-instance<%p>%s", enum, optSuffix(optional))
	return r.intern(k, func() *TypeDef {
		return &TypeDef{Kind: EnumInstance, Name: enum.Name, EnumInstanceOf: enum, Optional: optional}
	})
}

// NewPlaceholder allocates a fresh Placeholder TypeDef and registers it
// as pending until it is resolved or compilation ends.
func (r *Registry) NewPlaceholder(name *string, where SourceLocation) *TypeDef {
	t := &TypeDef{
		Kind:           Placeholder,
		PlaceholderDef: &PlaceholderDef{Name: name, Where: where},
	}
	if name != nil {
		t.Name = *name
	}
	r.mu.Lock()
	r.pending = append(r.pending, t)
	r.mu.Unlock()
	return t
}

// Link records an edge from a placeholder to a child placeholder created
// by a specific syntactic use. Per §4.4: both ends must be placeholders,
// self-links are a no-op, and the first edge to set a child's parent
// wins — a child already linked to a parent keeps that parent.
func (r *Registry) Link(parent, child *TypeDef, rel Relation) {
	if parent == nil || child == nil || parent == child {
		return
	}
	if parent.Kind != Placeholder || child.Kind != Placeholder {
		return
	}
	if child.PlaceholderDef.Parent != nil {
		return
	}
	child.PlaceholderDef.Parent = parent
	child.PlaceholderDef.ParentRelation = rel
	parent.PlaceholderDef.Children = append(parent.PlaceholderDef.Children, child)
}

// AllStructural returns every canonicalized structural TypeDef, for the
// garbage collector to walk when tracing the registry as a root (§4.2
// root 4: "the TypeRegistry canonical map (structural only)").
func (r *Registry) AllStructural() []*TypeDef {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*TypeDef, 0, len(r.structural))
	for _, t := range r.structural {
		out = append(out, t)
	}
	return out
}

// Pending returns the placeholders that have not yet been resolved. A
// non-empty result at end-of-compilation is a compile error; the
// compiler reports how many remain and the source location of the first.
func (r *Registry) Pending() []*TypeDef {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*TypeDef, 0, len(r.pending))
	for _, t := range r.pending {
		if t.Kind == Placeholder {
			out = append(out, t)
		}
	}
	return out
}

// Resolve substitutes the now-known `resolved` TypeDef into `placeholder`,
// in place, so that every existing pointer to the placeholder observes
// the real type from this call onward. It then walks the placeholder's
// children and re-evaluates each one's relation against the newly
// resolved shape, recursing through any children that were themselves
// placeholders.
func (r *Registry) Resolve(placeholder, resolved *TypeDef) error {
	if placeholder.Kind != Placeholder {
		return fmt.Errorf("types: Resolve called on non-placeholder %s", placeholder)
	}
	children := placeholder.PlaceholderDef.Children
	*placeholder = *resolved
	r.removePending(placeholder)
	for _, child := range children {
		r.resolveChild(placeholder, child)
	}
	return nil
}

func (r *Registry) removePending(t *TypeDef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.pending {
		if p == t {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			return
		}
	}
}

// resolveChild derives the child placeholder's real shape from its
// parent relation now that the parent is resolved, per §4.4.
func (r *Registry) resolveChild(parent, child *TypeDef) {
	if child.Kind != Placeholder {
		return
	}
	rel := child.PlaceholderDef.ParentRelation
	var target *TypeDef
	switch rel {
	case Call:
		if parent.Kind == Function {
			target = parent.FunctionDef.Return
		}
	case Yield:
		if parent.Kind == Function {
			target = parent.FunctionDef.Yield
		} else if parent.Kind == Fiber {
			target = parent.FiberDef.Yield
		}
	case Subscript:
		if parent.Kind == List {
			target = parent.ListItem
		} else if parent.Kind == Map {
			target = parent.MapDef.Value
		}
	case Key:
		if parent.Kind == Map {
			target = parent.MapDef.Key
		}
	case FieldAccess, SuperFieldAccess:
		target = lookupMember(parent, child.PlaceholderDef.Name, rel == SuperFieldAccess)
	case Assignment, Instance:
		target = parent
	case Optional:
		clone := *parent
		clone.Optional = true
		target = &clone
	case Unwrap:
		clone := *parent
		clone.Optional = false
		target = &clone
	}
	if target == nil {
		return
	}
	grandchildren := child.PlaceholderDef.Children
	*child = *target
	r.removePending(child)
	for _, grandchild := range grandchildren {
		r.resolveChild(child, grandchild)
	}
}

func lookupMember(class *TypeDef, name *string, skipOwn bool) *TypeDef {
	if name == nil {
		return nil
	}
	def := class
	if class.Kind == ObjectInstance {
		def = class.ObjectInstanceOf
	}
	if skipOwn && def != nil && def.ObjectDef != nil {
		def = def.ObjectDef.Super
	}
	for def != nil && def.ObjectDef != nil {
		if t, ok := def.ObjectDef.Fields[*name]; ok {
			return t
		}
		if t, ok := def.ObjectDef.Methods[*name]; ok {
			return t
		}
		def = def.ObjectDef.Super
	}
	return nil
}

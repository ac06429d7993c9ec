package value

import (
	"strconv"
	"strings"

	"buzz/pkg/bzerror"
)

// This file implements the container semantics of §4.5. Mutating
// operations (Append, ListRemove, MapSet, MapRemove) only touch
// the Go-level data; firing the GC write barrier on the container is the
// caller's responsibility (pkg/natives does this immediately after
// calling into these helpers, since only it has a *gc.Heap in scope).

// Append adds v to the end of a KindList object and returns the list
// itself, matching `append(v) -> list`.
func Append(list *Obj, v Value) *Obj {
	list.ListItems = append(list.ListItems, v)
	return list
}

// ListLen returns the number of elements in a KindList object.
func ListLen(list *Obj) int { return len(list.ListItems) }

// ListRemove removes and returns the element at index i, or returns
// (Null, false) if i is out of bounds (§4.5: "bounds -> null").
func ListRemove(list *Obj, i int) (Value, bool) {
	if i < 0 || i >= len(list.ListItems) {
		return Null, false
	}
	v := list.ListItems[i]
	list.ListItems = append(list.ListItems[:i], list.ListItems[i+1:]...)
	return v, true
}

// ListSub returns a new slice of list[start:start+length] as a fresh
// KindList sharing the same item type. It errors on an out-of-bound
// start, per the concrete scenario in §8.5. A nil length consumes the
// rest of the list.
func ListSub(list *Obj, start int, length *int) (*Obj, error) {
	n := len(list.ListItems)
	if start < 0 || start > n {
		return nil, bzerror.New(bzerror.OutOfBound, "`start` is out of bound")
	}
	end := n
	if length != nil {
		end = start + *length
		if end > n {
			return nil, bzerror.New(bzerror.OutOfBound, "`len` is out of bound")
		}
	}
	out := NewList(list.ListType)
	out.ListItems = append([]Value(nil), list.ListItems[start:end]...)
	return out, nil
}

// ListIndexOf returns the index of the first element Eql to needle, or
// (-1, false) if no element matches.
func ListIndexOf(list *Obj, needle Value) (int, bool) {
	for i, v := range list.ListItems {
		if Eql(v, needle) {
			return i, true
		}
	}
	return -1, false
}

// ListJoin concatenates the elements of a list, each rendered with
// ToString, separated by sep. Elements need not be strings; no error is
// raised for any element kind.
func ListJoin(list *Obj, sep string) string {
	parts := make([]string, len(list.ListItems))
	for i, v := range list.ListItems {
		parts[i] = ToString(v)
	}
	return strings.Join(parts, sep)
}

// ListNext implements the `next(k?) -> num?` iterator protocol: given
// the previous index (or nil to start), returns the next valid index,
// or (0, false) when iteration is complete.
func ListNext(list *Obj, prev *int) (int, bool) {
	next := 0
	if prev != nil {
		next = *prev + 1
	}
	if next >= len(list.ListItems) {
		return 0, false
	}
	return next, true
}

// MapSize returns the number of entries in a KindMap object.
func MapSize(m *Obj) int { return len(m.MapKeys) }

// MapSet inserts or updates key -> val, preserving insertion order for
// new keys.
func MapSet(m *Obj, key, val Value) {
	if _, exists := m.MapVals[key]; !exists {
		m.MapKeys = append(m.MapKeys, key)
	}
	m.MapVals[key] = val
}

// MapGet looks up key, returning (Null, false) on a miss.
func MapGet(m *Obj, key Value) (Value, bool) {
	v, ok := m.MapVals[key]
	return v, ok
}

// MapRemove deletes key and returns its former value, or (Null, false)
// if it was absent.
func MapRemove(m *Obj, key Value) (Value, bool) {
	v, ok := m.MapVals[key]
	if !ok {
		return Null, false
	}
	delete(m.MapVals, key)
	for i, k := range m.MapKeys {
		if k == key {
			m.MapKeys = append(m.MapKeys[:i], m.MapKeys[i+1:]...)
			break
		}
	}
	return v, true
}

// MapKeysList returns the map's keys in insertion order.
func MapKeysList(m *Obj) []Value { return append([]Value(nil), m.MapKeys...) }

// MapValuesList returns the map's values in key insertion order.
func MapValuesList(m *Obj) []Value {
	out := make([]Value, len(m.MapKeys))
	for i, k := range m.MapKeys {
		out[i] = m.MapVals[k]
	}
	return out
}

// MapRawNext implements `rawNext(prev?) -> K?`: it returns the key that
// follows prev in insertion order (or the first key, if prev is nil),
// which is the order the `foreach` opcode relies on.
func MapRawNext(m *Obj, prev *Value) (Value, bool) {
	if prev == nil {
		if len(m.MapKeys) == 0 {
			return Null, false
		}
		return m.MapKeys[0], true
	}
	for i, k := range m.MapKeys {
		if k == *prev {
			if i+1 < len(m.MapKeys) {
				return m.MapKeys[i+1], true
			}
			return Null, false
		}
	}
	return Null, false
}

// StringSub mirrors ListSub's bounds contract over a byte-indexed
// string slice. buzz strings are immutable and interning is performed
// by the caller (pkg/gc) on the resulting byte sequence.
func StringSub(s string, start int, length *int) (string, error) {
	n := len(s)
	if start < 0 || start > n {
		return "", bzerror.New(bzerror.OutOfBound, "`start` is out of bound")
	}
	end := n
	if length != nil {
		end = start + *length
		if end > n {
			return "", bzerror.New(bzerror.OutOfBound, "`len` is out of bound")
		}
	}
	return s[start:end], nil
}

// StringSplit splits s on sep, following the same out-of-bound rule
// family as List/String sub (an empty separator is simply invalid).
func StringSplit(s, sep string) ([]string, error) {
	if sep == "" {
		return nil, bzerror.New(bzerror.BadNumber, "separator must not be empty")
	}
	return strings.Split(s, sep), nil
}

// ToString renders a Value for display, append, and join purposes. It
// does not allocate new interned String objects; pkg/gc does that when
// a display operation needs to produce a first-class buzz string.
func ToString(v Value) string {
	switch v.Tag {
	case TagNull:
		return "null"
	case TagBool:
		if v.B {
			return "true"
		}
		return "false"
	case TagInt:
		return strconv.FormatInt(v.I, 10)
	case TagFloat:
		return strconv.FormatFloat(v.F, 'g', -1, 64)
	case TagObj:
		return objToString(v.O)
	default:
		return ""
	}
}

// shortID trims a uuid down to its first segment for compact log lines;
// objects constructed before DebugID existed (none, currently) would just
// print an empty suffix.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

func objToString(o *Obj) string {
	switch o.Kind {
	case KindString:
		return o.Str
	case KindPattern:
		return "pat(" + o.PatternSource + ")"
	case KindList:
		parts := make([]string, len(o.ListItems))
		for i, v := range o.ListItems {
			parts[i] = ToString(v)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		parts := make([]string, 0, len(o.MapKeys))
		for _, k := range o.MapKeys {
			parts = append(parts, ToString(k)+": "+ToString(o.MapVals[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindObject:
		return "object " + o.ObjName
	case KindObjectInstance:
		return "instance of " + o.InstClass.ObjName + " #" + shortID(o.DebugID)
	case KindEnum:
		return "enum " + o.EnumName
	case KindEnumInstance:
		return o.EnumRef.EnumName + "." + o.CaseName
	case KindFunction, KindClosure:
		return "<fn>"
	case KindBound:
		return "<bound method>"
	case KindNative:
		return "<native " + o.NativeName + ">"
	case KindFiber:
		return "<fiber " + o.FiberStatus.String() + " #" + shortID(o.DebugID) + ">"
	case KindUserData:
		return "<userdata>"
	case KindType:
		return o.TypeVal.String()
	default:
		return "<obj>"
	}
}

package natives

import (
	"encoding/base64"
	"strings"

	"buzz/pkg/bzerror"
	"buzz/pkg/value"
)

// stringTable builds the built-in methods on a str receiver (§4.7).
// Every result that needs a first-class buzz String goes through
// r.heap.Intern, since interning is the only way a byte-identical
// String object shares identity with the rest of the runtime (§3.1).
func (r *Registry) stringTable() Table {
	return Table{
		"len": func(recv value.Value, args []value.Value) ([]value.Value, error) {
			return []value.Value{value.Int(int64(len(recv.O.Str)))}, nil
		},
		"sub": func(recv value.Value, args []value.Value) ([]value.Value, error) {
			start := 0
			if v := arg(args, 0); v.Tag == value.TagInt {
				start = int(v.I)
			}
			length := optInt(args, 1)
			out, err := value.StringSub(recv.O.Str, start, length)
			if err != nil {
				return nil, err
			}
			return []value.Value{value.FromObj(r.heap.Intern(out))}, nil
		},
		"split": func(recv value.Value, args []value.Value) ([]value.Value, error) {
			sep := ""
			if v := arg(args, 0); v.Tag == value.TagObj && v.O.Kind == value.KindString {
				sep = v.O.Str
			}
			parts, err := value.StringSplit(recv.O.Str, sep)
			if err != nil {
				return nil, err
			}
			list := r.heap.Allocate(value.NewList(nil))
			for _, p := range parts {
				value.Append(list, value.FromObj(r.heap.Intern(p)))
			}
			r.heap.WriteBarrier(list)
			return []value.Value{value.FromObj(list)}, nil
		},
		"trim": func(recv value.Value, args []value.Value) ([]value.Value, error) {
			return []value.Value{value.FromObj(r.heap.Intern(strings.TrimSpace(recv.O.Str)))}, nil
		},
		"upper": func(recv value.Value, args []value.Value) ([]value.Value, error) {
			return []value.Value{value.FromObj(r.heap.Intern(strings.ToUpper(recv.O.Str)))}, nil
		},
		"lower": func(recv value.Value, args []value.Value) ([]value.Value, error) {
			return []value.Value{value.FromObj(r.heap.Intern(strings.ToLower(recv.O.Str)))}, nil
		},
		"indexOf": func(recv value.Value, args []value.Value) ([]value.Value, error) {
			needle := arg(args, 0)
			if needle.Tag != value.TagObj || needle.O.Kind != value.KindString {
				return nil, bzerror.New(bzerror.BadNumber, "indexOf expects a str argument")
			}
			idx := strings.Index(recv.O.Str, needle.O.Str)
			if idx < 0 {
				return []value.Value{value.Null}, nil
			}
			return []value.Value{value.Int(int64(idx))}, nil
		},
		"encodeBase64": func(recv value.Value, args []value.Value) ([]value.Value, error) {
			out := base64.StdEncoding.EncodeToString([]byte(recv.O.Str))
			return []value.Value{value.FromObj(r.heap.Intern(out))}, nil
		},
		"decodeBase64": func(recv value.Value, args []value.Value) ([]value.Value, error) {
			out, err := base64.StdEncoding.DecodeString(recv.O.Str)
			if err != nil {
				return nil, bzerror.New(bzerror.Custom, "decodeBase64: %v", err)
			}
			return []value.Value{value.FromObj(r.heap.Intern(string(out)))}, nil
		},
	}
}

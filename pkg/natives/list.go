package natives

import (
	"buzz/pkg/bzerror"
	"buzz/pkg/value"
)

func (r *Registry) listTable() Table {
	return Table{
		"len": func(recv value.Value, args []value.Value) ([]value.Value, error) {
			return []value.Value{value.Int(int64(value.ListLen(recv.O)))}, nil
		},
		"append": func(recv value.Value, args []value.Value) ([]value.Value, error) {
			v := value.Append(recv.O, arg(args, 0))
			r.heap.WriteBarrier(recv.O)
			return []value.Value{value.FromObj(v)}, nil
		},
		"remove": func(recv value.Value, args []value.Value) ([]value.Value, error) {
			i := 0
			if v := arg(args, 0); v.Tag == value.TagInt {
				i = int(v.I)
			}
			out, ok := value.ListRemove(recv.O, i)
			if ok {
				r.heap.WriteBarrier(recv.O)
			}
			return []value.Value{out}, nil
		},
		"sub": func(recv value.Value, args []value.Value) ([]value.Value, error) {
			start := 0
			if v := arg(args, 0); v.Tag == value.TagInt {
				start = int(v.I)
			}
			length := optInt(args, 1)
			out, err := value.ListSub(recv.O, start, length)
			if err != nil {
				return nil, err
			}
			r.heap.Allocate(out)
			return []value.Value{value.FromObj(out)}, nil
		},
		"indexOf": func(recv value.Value, args []value.Value) ([]value.Value, error) {
			idx, ok := value.ListIndexOf(recv.O, arg(args, 0))
			if !ok {
				return []value.Value{value.Null}, nil
			}
			return []value.Value{value.Int(int64(idx))}, nil
		},
		"join": func(recv value.Value, args []value.Value) ([]value.Value, error) {
			sep := ""
			if v := arg(args, 0); v.Tag == value.TagObj && v.O.Kind == value.KindString {
				sep = v.O.Str
			}
			return []value.Value{value.FromObj(r.heap.Intern(value.ListJoin(recv.O, sep)))}, nil
		},
		"next": func(recv value.Value, args []value.Value) ([]value.Value, error) {
			var prev *int
			if v := arg(args, 0); v.Tag == value.TagInt {
				n := int(v.I)
				prev = &n
			} else if v.Tag != value.TagNull {
				return nil, bzerror.New(bzerror.BadNumber, "next expects a num or null")
			}
			idx, ok := value.ListNext(recv.O, prev)
			if !ok {
				return []value.Value{value.Null}, nil
			}
			return []value.Value{value.Int(int64(idx))}, nil
		},
	}
}

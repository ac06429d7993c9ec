package natives

import "buzz/pkg/value"

func (r *Registry) mapTable() Table {
	return Table{
		"size": func(recv value.Value, args []value.Value) ([]value.Value, error) {
			return []value.Value{value.Int(int64(value.MapSize(recv.O)))}, nil
		},
		"set": func(recv value.Value, args []value.Value) ([]value.Value, error) {
			value.MapSet(recv.O, arg(args, 0), arg(args, 1))
			r.heap.WriteBarrier(recv.O)
			return nil, nil
		},
		"get": func(recv value.Value, args []value.Value) ([]value.Value, error) {
			v, ok := value.MapGet(recv.O, arg(args, 0))
			if !ok {
				return []value.Value{value.Null}, nil
			}
			return []value.Value{v}, nil
		},
		"remove": func(recv value.Value, args []value.Value) ([]value.Value, error) {
			v, ok := value.MapRemove(recv.O, arg(args, 0))
			if ok {
				r.heap.WriteBarrier(recv.O)
			}
			return []value.Value{v}, nil
		},
		"keys": func(recv value.Value, args []value.Value) ([]value.Value, error) {
			list := r.heap.Allocate(value.NewList(recv.O.MapType))
			for _, k := range value.MapKeysList(recv.O) {
				value.Append(list, k)
			}
			r.heap.WriteBarrier(list)
			return []value.Value{value.FromObj(list)}, nil
		},
		"values": func(recv value.Value, args []value.Value) ([]value.Value, error) {
			list := r.heap.Allocate(value.NewList(recv.O.MapType))
			for _, v := range value.MapValuesList(recv.O) {
				value.Append(list, v)
			}
			r.heap.WriteBarrier(list)
			return []value.Value{value.FromObj(list)}, nil
		},
		"rawNext": func(recv value.Value, args []value.Value) ([]value.Value, error) {
			var prev *value.Value
			if v := arg(args, 0); v.Tag != value.TagNull {
				prev = &v
			}
			k, ok := value.MapRawNext(recv.O, prev)
			if !ok {
				return []value.Value{value.Null}, nil
			}
			return []value.Value{k}, nil
		},
	}
}

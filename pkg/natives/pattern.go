package natives

import (
	"buzz/pkg/bzerror"
	"buzz/pkg/pattern"
	"buzz/pkg/value"
)

// compiledOf lazily compiles recv's pattern source the first time it is
// matched against, caching the result on the object itself (Compiled is
// `any` precisely so pkg/value need not import pkg/pattern, §3's import
// layering note).
func compiledOf(recv *value.Obj) (*pattern.Pattern, error) {
	if p, ok := recv.Compiled.(*pattern.Pattern); ok {
		return p, nil
	}
	p, err := pattern.Compile(recv.PatternSource)
	if err != nil {
		return nil, bzerror.New(bzerror.Custom, "invalid pattern: %v", err)
	}
	recv.Compiled = p
	return p, nil
}

func (r *Registry) patternTable() Table {
	return Table{
		"match": func(recv value.Value, args []value.Value) ([]value.Value, error) {
			p, err := compiledOf(recv.O)
			if err != nil {
				return nil, err
			}
			subject := ""
			if v := arg(args, 0); v.Tag == value.TagObj && v.O.Kind == value.KindString {
				subject = v.O.Str
			}
			groups, ok := p.Match(subject)
			if !ok {
				return []value.Value{value.Null}, nil
			}
			list := r.heap.Allocate(value.NewList(nil))
			for _, g := range groups {
				value.Append(list, value.FromObj(r.heap.Intern(g)))
			}
			r.heap.WriteBarrier(list)
			return []value.Value{value.FromObj(list)}, nil
		},
		"matchAll": func(recv value.Value, args []value.Value) ([]value.Value, error) {
			p, err := compiledOf(recv.O)
			if err != nil {
				return nil, err
			}
			subject := ""
			if v := arg(args, 0); v.Tag == value.TagObj && v.O.Kind == value.KindString {
				subject = v.O.Str
			}
			all, ok := p.MatchAll(subject)
			if !ok {
				return []value.Value{value.Null}, nil
			}
			outer := r.heap.Allocate(value.NewList(nil))
			for _, groups := range all {
				inner := r.heap.Allocate(value.NewList(nil))
				for _, g := range groups {
					value.Append(inner, value.FromObj(r.heap.Intern(g)))
				}
				value.Append(outer, value.FromObj(inner))
			}
			r.heap.WriteBarrier(outer)
			return []value.Value{value.FromObj(outer)}, nil
		},
	}
}

package icelock

import "fmt"

// Clone returns a deep, unguarded copy of v. Views and Go-native composites
// become plain literals: records become Fields, sequences []any, maps Pairs
// and sets Members, with element order preserved. Primitives are returned
// unchanged.
//
// The copy shares nothing with v and carries no lock state, so it can be
// mutated freely whatever the state of the view it came from. Passing it to
// Lock guards it again.
func Clone(v any) (any, error) {
	c := cloner{onPath: make(map[identity]struct{})}
	return c.clone(v, Path{})
}

type cloner struct {
	onPath map[identity]struct{}
}

func (c *cloner) clone(v any, path Path) (any, error) {
	if isNull(v) {
		return v, nil
	}
	src, ok := inspect(v)
	if !ok {
		return v, nil
	}
	if src.hasID {
		if _, seen := c.onPath[src.id]; seen {
			return nil, fmt.Errorf("%w: at %s", ErrCyclicInput, path)
		}
		c.onPath[src.id] = struct{}{}
		defer delete(c.onPath, src.id)
	}

	var out any
	var err error
	switch src.kind {
	case KindRecord:
		fields := make(Fields, 0, src.size)
		err = src.each(func(key, value any) error {
			cv, err := c.clone(value, path.child(key))
			if err != nil {
				return err
			}
			fields = append(fields, Field{Key: key.(string), Value: cv})
			return nil
		})
		out = fields

	case KindSequence:
		elems := make([]any, 0, src.size)
		err = src.each(func(key, value any) error {
			cv, err := c.clone(value, path.child(key))
			if err != nil {
				return err
			}
			elems = append(elems, cv)
			return nil
		})
		out = elems

	case KindMap:
		pairs := make(Pairs, 0, src.size)
		err = src.each(func(key, value any) error {
			cv, err := c.clone(value, path.child(key))
			if err != nil {
				return err
			}
			pairs = append(pairs, Pair{Key: key, Value: cv})
			return nil
		})
		out = pairs

	case KindSet:
		members := make(Members, 0, src.size)
		err = src.each(func(key, value any) error {
			cv, err := c.clone(value, path.child(key))
			if err != nil {
				return err
			}
			members = append(members, cv)
			return nil
		})
		out = members
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

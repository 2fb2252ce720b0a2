package icelock

import (
	"fmt"
	"strconv"
	"strings"
)

// Path addresses a value nested inside a view. Each segment is a record key
// (string), a sequence index or set position (int), or a map key.
type Path []any

// child returns p extended by seg without sharing p's backing array.
func (p Path) child(seg any) Path {
	return append(p[:len(p):len(p)], seg)
}

// String renders the path as $.key[1].other; the empty path is "$".
func (p Path) String() string {
	var sb strings.Builder
	sb.WriteByte('$')
	for _, seg := range p {
		switch s := seg.(type) {
		case int:
			fmt.Fprintf(&sb, "[%d]", s)
		case string:
			sb.WriteByte('.')
			sb.WriteString(s)
		default:
			fmt.Fprintf(&sb, "[%v]", s)
		}
	}
	return sb.String()
}

// ParsePath parses a path such as "a.b[2].c". A leading "$" is optional.
// Bracketed segments are indexes when they are integers and keys otherwise.
func ParsePath(s string) (Path, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	var p Path
	for len(s) > 0 {
		switch s[0] {
		case '.':
			s = s[1:]
			end := strings.IndexAny(s, ".[")
			if end < 0 {
				end = len(s)
			}
			if end == 0 {
				return nil, fmt.Errorf("%w: empty key", ErrInvalidPath)
			}
			p = append(p, s[:end])
			s = s[end:]
		case '[':
			end := strings.IndexByte(s, ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: unclosed bracket", ErrInvalidPath)
			}
			seg := s[1:end]
			if n, err := strconv.Atoi(seg); err == nil {
				p = append(p, n)
			} else {
				p = append(p, strings.Trim(seg, `"'`))
			}
			s = s[end+1:]
		default:
			if len(p) > 0 {
				return nil, fmt.Errorf("%w: unexpected %q", ErrInvalidPath, s[0])
			}
			s = "." + s
		}
	}
	return p, nil
}

// Lookup resolves p inside v. Set members are addressed by their position
// in iteration order.
func Lookup(v View, p Path) (any, error) {
	var cur any = v
	for i, seg := range p {
		view, ok := cur.(View)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not a view", ErrPathNotFound, p[:i])
		}
		next, ok := step(view, seg)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, p[:i+1])
		}
		cur = next
	}
	return cur, nil
}

func step(v View, seg any) (any, bool) {
	switch t := v.(type) {
	case *Record:
		key, ok := seg.(string)
		if !ok {
			key = fmt.Sprint(seg)
		}
		return t.Get(key)
	case *Sequence:
		i, ok := seg.(int)
		if !ok {
			return nil, false
		}
		return t.Get(i)
	case *Map:
		if val, ok := t.Get(seg); ok {
			return val, true
		}
		// Paths parsed from text carry ints for numeric segments.
		if i, ok := seg.(int); ok {
			return t.Get(strconv.Itoa(i))
		}
		return nil, false
	case *Set:
		i, ok := seg.(int)
		if !ok {
			return nil, false
		}
		return t.At(i)
	}
	return nil, false
}

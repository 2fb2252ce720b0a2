package icelock

import (
	"fmt"
	"strings"
)

// formatValue renders a value for an error message.
func formatValue(v any) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprint(v)
}

// printer renders views. Views already being printed are shown as "<cycle>",
// which can only happen after a view was stored inside itself while thawed.
type printer struct {
	sb     strings.Builder
	active map[View]bool
}

func (p *printer) value(v any) {
	view, ok := v.(View)
	if !ok {
		p.sb.WriteString(formatValue(v))
		return
	}
	if p.active[view] {
		p.sb.WriteString("<cycle>")
		return
	}
	if p.active == nil {
		p.active = make(map[View]bool)
	}
	p.active[view] = true
	defer delete(p.active, view)

	switch t := view.(type) {
	case *Record:
		p.sb.WriteByte('{')
		for i, k := range t.shadow.keys {
			if i > 0 {
				p.sb.WriteByte(' ')
			}
			p.sb.WriteString(k)
			p.sb.WriteByte(':')
			p.value(t.shadow.vals[i])
		}
		p.sb.WriteByte('}')
	case *Sequence:
		p.sb.WriteByte('[')
		for i, e := range t.shadow {
			if i > 0 {
				p.sb.WriteByte(' ')
			}
			p.value(e)
		}
		p.sb.WriteByte(']')
	case *Map:
		p.sb.WriteString("map[")
		for i, k := range t.shadow.keys {
			if i > 0 {
				p.sb.WriteByte(' ')
			}
			p.value(k)
			p.sb.WriteByte(':')
			p.value(t.shadow.vals[i])
		}
		p.sb.WriteByte(']')
	case *Set:
		p.sb.WriteString("set[")
		for i, k := range t.shadow.keys {
			if i > 0 {
				p.sb.WriteByte(' ')
			}
			p.value(k)
		}
		p.sb.WriteByte(']')
	}
}

func render(v View) string {
	var p printer
	p.value(v)
	return p.sb.String()
}

// String renders the record as {key:value ...}.
func (r *Record) String() string { return render(r) }

// String renders the sequence as [a b ...].
func (s *Sequence) String() string { return render(s) }

// String renders the map as map[key:value ...].
func (m *Map) String() string { return render(m) }

// String renders the set as set[a b ...].
func (s *Set) String() string { return render(s) }

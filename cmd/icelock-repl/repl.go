package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/phroun/icelock"
	"github.com/phroun/icelock/internal/document"
)

// REPL holds the state of the interactive session
type REPL struct {
	handle *icelock.Handle
	opts   icelock.Options
	out    io.Writer
}

// NewREPL creates a session that writes to out and guards documents with opts.
func NewREPL(out io.Writer, opts icelock.Options) *REPL {
	return &REPL{out: out, opts: opts}
}

// Run reads commands until EOF or quit.
func (r *REPL) Run(reader *bufio.Reader) {
	r.println("icelock REPL - guarded document explorer")
	r.println("Type 'help' for available commands, 'quit' to exit")
	r.println()

	for {
		fmt.Fprint(r.out, "icelock> ")
		input, err := reader.ReadString('\n')
		if err != nil && input == "" {
			r.println("\nGoodbye!")
			return
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !r.handleCommand(input) {
			return
		}
	}
}

func (r *REPL) println(a ...any) {
	fmt.Fprintln(r.out, a...)
}

func (r *REPL) printf(format string, a ...any) {
	fmt.Fprintf(r.out, format, a...)
}

func (r *REPL) handleCommand(input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help":
		r.printHelp()

	case "quit", "exit":
		r.println("Goodbye!")
		return false

	case "load":
		r.cmdLoad(args)

	case "new":
		r.cmdNew(strings.TrimSpace(strings.TrimPrefix(input, parts[0])))

	case "status":
		r.cmdStatus()

	case "tree":
		r.cmdTree()

	case "show":
		r.cmdShow(args)

	case "get":
		r.cmdGet(args)

	case "set":
		r.cmdSet(args)

	case "delete":
		r.cmdDelete(args)

	case "push":
		r.cmdPush(args)

	case "pop":
		r.cmdPop(args)

	case "splice":
		r.cmdSplice(args)

	case "add":
		r.cmdAdd(args)

	case "clear":
		r.cmdClear(args)

	case "freeze":
		r.cmdToggle(args, true)

	case "unfreeze", "thaw":
		r.cmdToggle(args, false)

	case "clone":
		r.cmdClone()

	default:
		r.printf("Unknown command: %s. Type 'help' for available commands.\n", cmd)
	}

	return true
}

func (r *REPL) printHelp() {
	help := `
Available Commands:
-------------------

DOCUMENTS:
  load <file>                   Load and guard a YAML document
  new <yaml>                    Guard an inline YAML value, e.g. new {a: [1, 2]}
  clone                         Replace the document with a thawed, unguarded copy
  status                        Show lock state and handle counts
  tree                          Show the handle tree

READS (never blocked):
  show [path]                   Print the value at path as YAML
  get <path>                    Print the value at path

MUTATIONS (blocked while frozen):
  set <path> <yaml>             Set a record key, sequence index or map key
  delete <path>                 Delete a record key, map key or set member
  push <path> <yaml>            Append to a sequence
  pop <path>                    Remove the last element of a sequence
  splice <path> <start> <count> [yaml...]
                                Remove and insert sequence elements
  add <path> <yaml>             Add a member to a set
  clear <path>                  Empty a map or set

LOCKING:
  freeze [path]                 Freeze the document or one subtree
  unfreeze [path]               Thaw the document or one subtree

Paths look like $, name, list[0], lookup.key. Set members are addressed
by position.

OTHER:
  help                          Show this help message
  quit, exit                    Exit the REPL
`
	r.println(help)
}

func (r *REPL) load(path string) error {
	v, err := document.Load(path)
	if err != nil {
		return err
	}
	return r.guard(v)
}

func (r *REPL) guard(v any) error {
	h, err := icelock.LockWithOptions(v, r.opts)
	if err != nil {
		return err
	}
	r.handle = h
	r.printf("Guarded %s with %d handles (%s)\n", h.View().Kind(), h.Census().Nodes, h.State())
	return nil
}

func (r *REPL) cmdLoad(args []string) {
	if len(args) < 1 {
		r.println("Usage: load <file>")
		return
	}
	if err := r.load(args[0]); err != nil {
		r.printf("Load error: %v\n", err)
	}
}

func (r *REPL) cmdNew(text string) {
	if text == "" {
		r.println("Usage: new <yaml>")
		return
	}
	v, err := document.Decode([]byte(text))
	if err != nil {
		r.printf("Parse error: %v\n", err)
		return
	}
	if err := r.guard(v); err != nil {
		r.printf("Guard error: %v\n", err)
	}
}

func (r *REPL) cmdClone() {
	if !r.ensureHandle() {
		return
	}
	plain, err := icelock.Clone(r.handle.View())
	if err != nil {
		r.printf("Clone error: %v\n", err)
		return
	}
	opts := r.opts
	opts.Initial = icelock.Thawed
	opts.InheritState = true
	h, err := icelock.LockWithOptions(plain, opts)
	if err != nil {
		r.printf("Clone error: %v\n", err)
		return
	}
	r.handle = h
	r.println("Now working on a thawed copy")
}

func (r *REPL) cmdStatus() {
	if !r.ensureHandle() {
		return
	}
	c := r.handle.Census()
	r.println("Document Status:")
	r.printf("  Kind:    %s\n", r.handle.View().Kind())
	r.printf("  Length:  %d\n", r.handle.View().Len())
	r.printf("  State:   %s\n", r.handle.State())
	r.printf("  Handles: %d (%d frozen, %d thawed)\n", c.Nodes, c.Frozen, c.Thawed)
}

func (r *REPL) cmdTree() {
	if !r.ensureHandle() {
		return
	}
	r.handle.Walk(func(depth int, h *icelock.Handle) bool {
		r.printf("%s%s len=%d %s\n", strings.Repeat("  ", depth), h.View().Kind(), h.View().Len(), h.State())
		return true
	})
}

func (r *REPL) cmdShow(args []string) {
	if !r.ensureHandle() {
		return
	}
	path := "$"
	if len(args) > 0 {
		path = args[0]
	}
	v, ok := r.resolve(path)
	if !ok {
		return
	}
	out, err := document.Encode(v)
	if err != nil {
		r.printf("Encode error: %v\n", err)
		return
	}
	r.printf("%s", out)
}

func (r *REPL) cmdGet(args []string) {
	if !r.ensureHandle() {
		return
	}
	if len(args) < 1 {
		r.println("Usage: get <path>")
		return
	}
	v, ok := r.resolve(args[0])
	if !ok {
		return
	}
	r.printf("%v\n", v)
}

func (r *REPL) cmdSet(args []string) {
	if !r.ensureHandle() {
		return
	}
	if len(args) < 2 {
		r.println("Usage: set <path> <yaml>")
		return
	}
	parent, last, ok := r.resolveParent(args[0])
	if !ok {
		return
	}
	value, ok := r.parseValue(strings.Join(args[1:], " "))
	if !ok {
		return
	}

	var err error
	switch t := parent.(type) {
	case *icelock.Record:
		err = t.Set(fmt.Sprint(last), value)
	case *icelock.Sequence:
		i, isIndex := last.(int)
		if !isIndex {
			r.printf("Sequence index must be an integer: %v\n", last)
			return
		}
		err = t.Set(i, value)
	case *icelock.Map:
		err = t.Set(last, value)
	default:
		r.printf("Cannot set inside %s\n", describe(parent))
		return
	}
	r.report(err, "Set %v", args[0])
}

func (r *REPL) cmdDelete(args []string) {
	if !r.ensureHandle() {
		return
	}
	if len(args) < 1 {
		r.println("Usage: delete <path>")
		return
	}
	parent, last, ok := r.resolveParent(args[0])
	if !ok {
		return
	}

	var err error
	switch t := parent.(type) {
	case *icelock.Record:
		err = t.Delete(fmt.Sprint(last))
	case *icelock.Map:
		_, err = t.Delete(last)
	case *icelock.Set:
		i, isIndex := last.(int)
		member, found := t.At(i)
		if !isIndex || !found {
			r.printf("No set member at %v\n", last)
			return
		}
		_, err = t.Delete(member)
	default:
		r.printf("Cannot delete inside %s\n", describe(parent))
		return
	}
	r.report(err, "Deleted %v", args[0])
}

func (r *REPL) cmdPush(args []string) {
	if !r.ensureHandle() {
		return
	}
	if len(args) < 2 {
		r.println("Usage: push <path> <yaml>")
		return
	}
	seq, ok := r.sequence(args[0])
	if !ok {
		return
	}
	value, ok := r.parseValue(strings.Join(args[1:], " "))
	if !ok {
		return
	}
	n, err := seq.Push(value)
	r.report(err, "Pushed; length is now %d", n)
}

func (r *REPL) cmdPop(args []string) {
	if !r.ensureHandle() {
		return
	}
	if len(args) < 1 {
		r.println("Usage: pop <path>")
		return
	}
	seq, ok := r.sequence(args[0])
	if !ok {
		return
	}
	v, err := seq.Pop()
	r.report(err, "Popped %v", v)
}

func (r *REPL) cmdSplice(args []string) {
	if !r.ensureHandle() {
		return
	}
	if len(args) < 3 {
		r.println("Usage: splice <path> <start> <count> [yaml...]")
		return
	}
	seq, ok := r.sequence(args[0])
	if !ok {
		return
	}
	start, err := strconv.Atoi(args[1])
	if err != nil {
		r.printf("Invalid start: %v\n", err)
		return
	}
	count, err := strconv.Atoi(args[2])
	if err != nil {
		r.printf("Invalid count: %v\n", err)
		return
	}
	var items []any
	for _, arg := range args[3:] {
		v, ok := r.parseValue(arg)
		if !ok {
			return
		}
		items = append(items, v)
	}
	removed, err := seq.Splice(start, count, items...)
	r.report(err, "Removed %v", removed)
}

func (r *REPL) cmdAdd(args []string) {
	if !r.ensureHandle() {
		return
	}
	if len(args) < 2 {
		r.println("Usage: add <path> <yaml>")
		return
	}
	v, ok := r.resolve(args[0])
	if !ok {
		return
	}
	set, isSet := v.(*icelock.Set)
	if !isSet {
		r.printf("%s is %s, not a set\n", args[0], describe(v))
		return
	}
	value, ok := r.parseValue(strings.Join(args[1:], " "))
	if !ok {
		return
	}
	r.report(set.Add(value), "Added; size is now %d", set.Len())
}

func (r *REPL) cmdClear(args []string) {
	if !r.ensureHandle() {
		return
	}
	if len(args) < 1 {
		r.println("Usage: clear <path>")
		return
	}
	v, ok := r.resolve(args[0])
	if !ok {
		return
	}
	var err error
	switch t := v.(type) {
	case *icelock.Map:
		err = t.Clear()
	case *icelock.Set:
		err = t.Clear()
	default:
		r.printf("Cannot clear %s\n", describe(v))
		return
	}
	r.report(err, "Cleared %s", args[0])
}

func (r *REPL) cmdToggle(args []string, freeze bool) {
	if !r.ensureHandle() {
		return
	}
	target := r.handle
	if len(args) > 0 {
		v, ok := r.resolve(args[0])
		if !ok {
			return
		}
		view, isView := v.(icelock.View)
		if !isView {
			r.printf("%s is %s, which has no lock\n", args[0], describe(v))
			return
		}
		h, found := r.handle.Find(view)
		if !found {
			r.printf("%s is not tracked by this document\n", args[0])
			return
		}
		target = h
	}
	if freeze {
		target.Freeze()
	} else {
		target.Unfreeze()
	}
	r.printf("State: %s (%d handles)\n", target.State(), target.Census().Nodes)
}

func (r *REPL) resolve(path string) (any, bool) {
	p, err := icelock.ParsePath(path)
	if err != nil {
		r.printf("Path error: %v\n", err)
		return nil, false
	}
	v, err := icelock.Lookup(r.handle.View(), p)
	if err != nil {
		r.printf("Path error: %v\n", err)
		return nil, false
	}
	return v, true
}

func (r *REPL) resolveParent(path string) (any, any, bool) {
	p, err := icelock.ParsePath(path)
	if err != nil {
		r.printf("Path error: %v\n", err)
		return nil, nil, false
	}
	if len(p) == 0 {
		r.println("Path must name an element, not the document itself")
		return nil, nil, false
	}
	parent, err := icelock.Lookup(r.handle.View(), p[:len(p)-1])
	if err != nil {
		r.printf("Path error: %v\n", err)
		return nil, nil, false
	}
	return parent, p[len(p)-1], true
}

func (r *REPL) sequence(path string) (*icelock.Sequence, bool) {
	v, ok := r.resolve(path)
	if !ok {
		return nil, false
	}
	seq, isSeq := v.(*icelock.Sequence)
	if !isSeq {
		r.printf("%s is %s, not a sequence\n", path, describe(v))
		return nil, false
	}
	return seq, true
}

func (r *REPL) parseValue(text string) (any, bool) {
	v, err := document.Decode([]byte(text))
	if err != nil {
		r.printf("Parse error: %v\n", err)
		return nil, false
	}
	return v, true
}

// report prints err, or the success message when err is nil.
func (r *REPL) report(err error, format string, a ...any) {
	if err != nil {
		r.printf("Error: %v\n", err)
		return
	}
	r.printf(format+"\n", a...)
}

func (r *REPL) ensureHandle() bool {
	if r.handle == nil {
		r.println("No document is loaded. Use 'load <file>' or 'new <yaml>'.")
		return false
	}
	return true
}

func describe(v any) string {
	if view, ok := v.(icelock.View); ok {
		switch view.Kind() {
		case icelock.KindRecord, icelock.KindSequence:
			return "an " + view.Kind().String()
		}
		return "a " + view.Kind().String()
	}
	return fmt.Sprintf("a %T", v)
}

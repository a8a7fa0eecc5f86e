// script.go
//
// The incremental script driver: one VM whose top-level frame is
// entered once and never left for the life of the session, a
// persistent top-level Scope so later fragments resolve names declared
// by earlier ones, and a pending-fragment queue so a REPL can append
// several lines before executing.
package ember

import (
	"io"
	"strings"
)

// Script owns everything that must survive between REPL turns: the VM
// memory/frame stack, the top-level Scope's slot map, and the
// ModuleResolver used to satisfy `import`.
type Script struct {
	vm       *VM
	eval     *Evaluator
	topScope *Scope
	resolver ModuleResolver
	queue    []string
}

// NewScript starts a session, entering the top-level frame that every
// later fragment evaluates in. out receives @print output.
func NewScript(resolver ModuleResolver, out io.Writer) (*Script, error) {
	vm := NewVM()
	if err := vm.Enter(0); err != nil {
		return nil, err
	}
	return &Script{
		vm:       vm,
		eval:     NewEvaluator(vm, out),
		topScope: NewScope(),
		resolver: resolver,
	}, nil
}

// Append queues a source fragment without executing it yet.
func (s *Script) Append(source string) { s.queue = append(s.queue, source) }

// RegisterIdentifier binds a host-provided IdentifierData at the top
// level before any script source referencing it is executed.
func (s *Script) RegisterIdentifier(id IdentifierData) error {
	slot := s.topScope.Add(id.Name)
	if err := s.vm.Grow(s.topScope.LocalsNeeded()); err != nil {
		return err
	}
	cell, err := s.vm.Local(slot)
	if err != nil {
		return err
	}
	*cell = id.Value
	return nil
}

// Execute drains the fragment queue in order: each fragment is lexed,
// parsed against the persistent top-level Scope, and evaluated in the
// still-open top-level frame. It stops at the first error, discarding
// whatever remains queued, and returns the last fragment's result.
func (s *Script) Execute() (Value, error) {
	var last Value
	for len(s.queue) > 0 {
		src := s.queue[0]
		s.queue = s.queue[1:]

		toks, err := Scan(src)
		if err != nil {
			s.queue = nil
			return Nil, WrapErrorWithSource(err, src)
		}
		block, err := ParseProgram(toks, s.topScope, s.resolver)
		if err != nil {
			s.queue = nil
			return Nil, WrapErrorWithSource(err, src)
		}
		if err := s.vm.Grow(s.topScope.LocalsNeeded()); err != nil {
			s.queue = nil
			return Nil, err
		}
		v, flow, err := s.eval.Eval(block)
		if err != nil {
			s.queue = nil
			return Nil, WrapErrorWithSource(err, src)
		}
		if flow.Kind != FlowNone {
			s.queue = nil
			return Nil, &EvalError{Kind: ErrDanglingControlFlow, Msg: "break/continue/return used at top level"}
		}
		last = v
	}
	return last, nil
}

// Run appends source and immediately executes it — the common case for
// batch-file execution.
func (s *Script) Run(source string) (Value, error) {
	s.Append(source)
	return s.Execute()
}

// Depth exposes the VM's current frame depth (for @stack()-style
// host-side introspection / tests).
func (s *Script) Depth() int { return s.vm.Depth() }

// IsComplete reports whether src is a syntactically complete fragment:
// brackets balanced, no unterminated string/char/comment, and not
// ending on a dangling assignment operator awaiting its right-hand
// side. A REPL uses this to decide whether to keep reading more input
// lines before attempting to parse.
func IsComplete(src string) bool {
	toks, err := Scan(src)
	if err != nil {
		if le, ok := err.(*LexError); ok && strings.Contains(le.Msg, "unclosed") {
			return false
		}
		return true
	}
	depth := 0
	var last Token
	for _, t := range toks {
		if t.Type == TokEOF {
			break
		}
		last = t
		switch t.Lexeme {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		}
	}
	if depth > 0 {
		return false
	}
	// `x =` or `x +=` has no RHS yet; postfix ++/-- are self-contained.
	if last.Type == TokAssignment && last.Lexeme != "++" && last.Lexeme != "--" {
		return false
	}
	return true
}

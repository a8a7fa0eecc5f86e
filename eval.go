// eval.go
//
// The tree-walking AST evaluator: dual lvalue/rvalue evaluation, and
// control-flow unwinding modeled as an explicit Flow result threaded
// through every Eval call rather than panic/recover, which keeps hot
// loops free of throw/catch overhead.
package ember

import (
	"fmt"
	"io"
)

// FlowKind discriminates what, if anything, a statement's evaluation is
// unwinding.
type FlowKind int

const (
	FlowNone FlowKind = iota
	FlowBreak
	FlowContinue
	FlowReturn
)

// Flow threads a break/continue/return signal up through nested Evals.
// A zero Flow (FlowNone) means "ran to completion, no unwind".
type Flow struct {
	Kind  FlowKind
	Value Value
}

var noFlow = Flow{}

// Fn is a callable value: either a script closure (Body/Params/
// LocalsNeeded set, Native nil) or a host-registered native function
// (Native set). Ember has no lexical capture: a closure carries no
// captured environment, only the shared immutable Body AST and its
// frame size.
type Fn struct {
	Name         string
	Params       []string
	Body         Node
	LocalsNeeded int

	// Native, when non-nil, is a host function; Arity is checked
	// against it instead of len(Params) (Params is empty for these).
	Native func(args []Value) (Value, error)
	Arity  int
}

// Evaluator walks one AST against one VM. It is not reentrant across
// goroutines; a VM/Evaluator pair is meant to be owned by exactly one
// caller at a time.
type Evaluator struct {
	vm  *VM
	out io.Writer
}

// NewEvaluator builds an Evaluator over vm, writing @print output to out.
func NewEvaluator(vm *VM, out io.Writer) *Evaluator {
	return &Evaluator{vm: vm, out: out}
}

// identCell returns node's storage cell: Local addressing within the
// current frame for an ordinary identifier, or Global addressing
// against the VM's persistent frame 0 for a named function's
// self-reference (see ast.go's Identifier.Global doc comment).
func (e *Evaluator) identCell(node *Identifier) (*Value, error) {
	if node.Global {
		return e.vm.Global(node.Slot)
	}
	return e.vm.Local(node.Slot)
}

// Eval evaluates n for its value (rvalue mode).
func (e *Evaluator) Eval(n Node) (Value, Flow, error) {
	switch node := n.(type) {
	case *Literal:
		return node.Value, noFlow, nil
	case *Identifier:
		cell, err := e.identCell(node)
		if err != nil {
			return Nil, noFlow, err
		}
		if cell.Tag == TNil {
			return Nil, noFlow, &EvalError{Kind: ErrUndefinedIdentifier, Msg: "undefined identifier: " + node.Name}
		}
		return *cell, noFlow, nil
	case *BinaryOp:
		return e.evalBinary(node)
	case *UnaryPrefix:
		return e.evalUnaryPrefix(node)
	case *Postfix:
		return e.evalPostfix(node)
	case *Assign:
		return e.evalAssign(node)
	case *CompoundAssign:
		return e.evalCompoundAssign(node)
	case *Lambda:
		return FnVal(&Fn{Name: node.Name, Params: node.Params, Body: node.Body, LocalsNeeded: node.LocalsNeeded}), noFlow, nil
	case *Apply:
		return e.evalApply(node)
	case *If:
		return e.evalIf(node)
	case *For:
		return e.evalFor(node)
	case *While:
		return e.evalWhile(node)
	case *Switch:
		return e.evalSwitch(node)
	case *Block:
		return e.evalBlock(node)
	case *Import:
		cell, err := e.vm.Local(node.Slot)
		if err != nil {
			return Nil, noFlow, err
		}
		*cell = node.Module
		return node.Module, noFlow, nil
	case *Return:
		if node.Value == nil {
			return Nil, Flow{Kind: FlowReturn, Value: Nil}, nil
		}
		v, flow, err := e.Eval(node.Value)
		if err != nil || flow.Kind != FlowNone {
			return Nil, flow, err
		}
		return Nil, Flow{Kind: FlowReturn, Value: v}, nil
	case *Break:
		return Nil, Flow{Kind: FlowBreak}, nil
	case *Continue:
		return Nil, Flow{Kind: FlowContinue}, nil
	case *MemberAccess:
		return e.evalMemberAccess(node)
	case *Index:
		return e.evalIndex(node)
	case *NativeCall:
		return e.evalNativeCall(node)
	case *ArrayLit:
		vals, flow, err := e.evalAll(node.Elements)
		if err != nil || flow.Kind != FlowNone {
			return Nil, flow, err
		}
		return ArrayVal(vals), noFlow, nil
	case *TableLit:
		return e.evalTableLit(node)
	case *Const:
		v, flow, err := e.Eval(node.Operand)
		if err != nil || flow.Kind != FlowNone {
			return Nil, flow, err
		}
		return v.AsConst(), noFlow, nil
	}
	return Nil, noFlow, &EvalError{Kind: ErrUnknownOperator, Msg: fmt.Sprintf("unhandled node type %T", n)}
}

// evalLvalue evaluates n as an assignable location, returning a
// pointer to its storage cell. Missing Table keys are auto-vivified
// (Dot/Index insert Nil): reads of an absent key fail, writes create
// it.
func (e *Evaluator) evalLvalue(n Node) (*Value, error) {
	switch node := n.(type) {
	case *Identifier:
		return e.identCell(node)
	case *MemberAccess:
		obj, flow, err := e.Eval(node.Object)
		if err != nil {
			return nil, err
		}
		if flow.Kind != FlowNone {
			return nil, &EvalError{Kind: ErrNotAnLvalue, Msg: "control flow cannot appear in an lvalue position"}
		}
		if obj.Tag != TTable {
			return nil, &EvalError{Kind: ErrNotATable, Msg: "member access target is not a Table"}
		}
		return obj.Table().Dot(node.Name), nil
	case *Index:
		obj, flow, err := e.Eval(node.Object)
		if err != nil {
			return nil, err
		}
		if flow.Kind != FlowNone {
			return nil, &EvalError{Kind: ErrNotAnLvalue, Msg: "control flow cannot appear in an lvalue position"}
		}
		key, flow, err := e.Eval(node.Key)
		if err != nil {
			return nil, err
		}
		if flow.Kind != FlowNone {
			return nil, &EvalError{Kind: ErrNotAnLvalue, Msg: "control flow cannot appear in an lvalue position"}
		}
		switch obj.Tag {
		case TTable:
			return obj.Table().Index(key), nil
		case TArray:
			if key.Tag != TInt {
				return nil, &EvalError{Kind: ErrTypeMismatch, Msg: "array index must be Int"}
			}
			arr := obj.Array()
			idx := key.Int()
			if idx < 0 || idx >= int64(len(arr)) {
				return nil, &EvalError{Kind: ErrIndexOutOfRange, Msg: "array index out of range"}
			}
			return &arr[idx], nil
		}
		return nil, &EvalError{Kind: ErrNotATable, Msg: "index assignment target is not a Table or Array"}
	}
	return nil, &EvalError{Kind: ErrNotAnLvalue, Msg: fmt.Sprintf("%T is not assignable", n)}
}

func (e *Evaluator) evalAll(ns []Node) ([]Value, Flow, error) {
	out := make([]Value, len(ns))
	for i, n := range ns {
		v, flow, err := e.Eval(n)
		if err != nil {
			return nil, noFlow, err
		}
		if flow.Kind != FlowNone {
			return nil, flow, nil
		}
		out[i] = v
	}
	return out, noFlow, nil
}

func (e *Evaluator) evalBinary(node *BinaryOp) (Value, Flow, error) {
	// && and || short-circuit: the right operand is evaluated only when
	// the left one does not already decide the result.
	if node.Op == "&&" || node.Op == "||" {
		left, flow, err := e.Eval(node.Left)
		if err != nil || flow.Kind != FlowNone {
			return Nil, flow, err
		}
		if node.Op == "&&" && !left.Truthy() {
			return BoolVal(false), noFlow, nil
		}
		if node.Op == "||" && left.Truthy() {
			return BoolVal(true), noFlow, nil
		}
		right, flow, err := e.Eval(node.Right)
		if err != nil || flow.Kind != FlowNone {
			return Nil, flow, err
		}
		return BoolVal(right.Truthy()), noFlow, nil
	}

	left, flow, err := e.Eval(node.Left)
	if err != nil || flow.Kind != FlowNone {
		return Nil, flow, err
	}
	right, flow, err := e.Eval(node.Right)
	if err != nil || flow.Kind != FlowNone {
		return Nil, flow, err
	}
	v, err := applyBinary(node.Op, left, right, 0, 0)
	return v, noFlow, err
}

func (e *Evaluator) evalUnaryPrefix(node *UnaryPrefix) (Value, Flow, error) {
	if node.Op == "++" || node.Op == "--" {
		cell, err := e.evalLvalue(node.Operand)
		if err != nil {
			return Nil, noFlow, err
		}
		if cell.IsConst {
			return Nil, noFlow, &EvalError{Kind: ErrAssignToConst, Msg: "cannot increment/decrement a const value"}
		}
		nv, err := incDecDelta(node.Op, *cell, 0, 0)
		if err != nil {
			return Nil, noFlow, err
		}
		*cell = nv
		return nv, noFlow, nil
	}
	v, flow, err := e.Eval(node.Operand)
	if err != nil || flow.Kind != FlowNone {
		return Nil, flow, err
	}
	r, err := applyUnaryPrefix(node.Op, v, 0, 0)
	return r, noFlow, err
}

func (e *Evaluator) evalPostfix(node *Postfix) (Value, Flow, error) {
	cell, err := e.evalLvalue(node.Operand)
	if err != nil {
		return Nil, noFlow, err
	}
	if cell.IsConst {
		return Nil, noFlow, &EvalError{Kind: ErrAssignToConst, Msg: "cannot increment/decrement a const value"}
	}
	old := *cell
	nv, err := incDecDelta(node.Op, old, 0, 0)
	if err != nil {
		return Nil, noFlow, err
	}
	*cell = nv
	return old, noFlow, nil
}

func (e *Evaluator) evalAssign(node *Assign) (Value, Flow, error) {
	rhs, flow, err := e.Eval(node.Rhs)
	if err != nil || flow.Kind != FlowNone {
		return Nil, flow, err
	}
	cell, err := e.evalLvalue(node.Target)
	if err != nil {
		return Nil, noFlow, err
	}
	if cell.IsConst {
		return Nil, noFlow, &EvalError{Kind: ErrAssignToConst, Msg: "cannot assign to a const value"}
	}
	*cell = rhs
	return rhs, noFlow, nil
}

func (e *Evaluator) evalCompoundAssign(node *CompoundAssign) (Value, Flow, error) {
	cell, err := e.evalLvalue(node.Target)
	if err != nil {
		return Nil, noFlow, err
	}
	if cell.IsConst {
		return Nil, noFlow, &EvalError{Kind: ErrAssignToConst, Msg: "cannot assign to a const value"}
	}
	rhs, flow, err := e.Eval(node.Rhs)
	if err != nil || flow.Kind != FlowNone {
		return Nil, flow, err
	}
	result, err := applyBinary(node.Op, *cell, rhs, 0, 0)
	if err != nil {
		return Nil, noFlow, err
	}
	result.IsConst = false
	*cell = result
	return result, noFlow, nil
}

func (e *Evaluator) evalApply(node *Apply) (Value, Flow, error) {
	callee, flow, err := e.Eval(node.Callee)
	if err != nil || flow.Kind != FlowNone {
		return Nil, flow, err
	}
	if callee.Tag != TFn {
		return Nil, noFlow, &EvalError{Kind: ErrNotCallable, Msg: callee.Tag.String() + " is not callable"}
	}
	args, flow, err := e.evalAll(node.Args)
	if err != nil || flow.Kind != FlowNone {
		return Nil, flow, err
	}
	v, err := e.Call(callee.Fn(), args)
	return v, noFlow, err
}

// Call invokes fn with args, entering a fresh VM frame for script
// closures (released by a deferred guard on every exit path) or
// dispatching straight to the native Go func for host functions.
func (e *Evaluator) Call(fn *Fn, args []Value) (Value, error) {
	if fn.Native != nil {
		if fn.Arity >= 0 && len(args) != fn.Arity {
			return Nil, &EvalError{Kind: ErrArity, Msg: fmt.Sprintf("expected %d argument(s), got %d", fn.Arity, len(args))}
		}
		v, err := fn.Native(args)
		if err != nil {
			return Nil, &HostError{Msg: err.Error(), Err: err}
		}
		return v, nil
	}

	if len(args) != len(fn.Params) {
		return Nil, &EvalError{Kind: ErrArity, Msg: fmt.Sprintf("expected %d argument(s), got %d", len(fn.Params), len(args))}
	}
	leave, err := e.vm.guard(fn.LocalsNeeded)
	defer leave()
	if err != nil {
		return Nil, err
	}
	for i, v := range args {
		cell, err := e.vm.Local(i)
		if err != nil {
			return Nil, err
		}
		*cell = v
	}
	v, flow, err := e.Eval(fn.Body)
	if err != nil {
		return Nil, err
	}
	switch flow.Kind {
	case FlowReturn:
		return flow.Value, nil
	case FlowBreak, FlowContinue:
		return Nil, &EvalError{Kind: ErrDanglingControlFlow, Msg: "break/continue used outside a loop"}
	default:
		return v, nil
	}
}

func (e *Evaluator) evalIf(node *If) (Value, Flow, error) {
	for _, br := range node.Branches {
		cond, flow, err := e.Eval(br.Cond)
		if err != nil || flow.Kind != FlowNone {
			return Nil, flow, err
		}
		if cond.Truthy() {
			return e.Eval(br.Then)
		}
	}
	if node.Else != nil {
		return e.Eval(node.Else)
	}
	return Nil, noFlow, nil
}

func (e *Evaluator) evalFor(node *For) (Value, Flow, error) {
	if node.Init != nil {
		_, flow, err := e.Eval(node.Init)
		if err != nil || flow.Kind != FlowNone {
			return Nil, flow, err
		}
	}
	// A break terminates the loop with the last completed body value;
	// a continue skips the rest of the body but still runs the update.
	var last Value
	for {
		if node.Cond != nil {
			cond, flow, err := e.Eval(node.Cond)
			if err != nil || flow.Kind != FlowNone {
				return Nil, flow, err
			}
			if !cond.Truthy() {
				break
			}
		}
		v, flow, err := e.Eval(node.Body)
		if err != nil {
			return Nil, noFlow, err
		}
		if flow.Kind == FlowReturn {
			return Nil, flow, nil
		}
		if flow.Kind == FlowBreak {
			break
		}
		if flow.Kind == FlowNone {
			last = v
		}
		if node.Update != nil {
			_, flow, err := e.Eval(node.Update)
			if err != nil || flow.Kind != FlowNone {
				return Nil, flow, err
			}
		}
	}
	return last, noFlow, nil
}

func (e *Evaluator) evalWhile(node *While) (Value, Flow, error) {
	var last Value
	runBody := func() (bool, Flow, error) {
		v, flow, err := e.Eval(node.Body)
		if err != nil {
			return false, noFlow, err
		}
		if flow.Kind == FlowReturn {
			return false, flow, nil
		}
		if flow.Kind == FlowBreak {
			return false, noFlow, nil
		}
		if flow.Kind == FlowNone {
			last = v
		}
		return true, noFlow, nil
	}
	checkCond := func() (bool, error) {
		cond, flow, err := e.Eval(node.Cond)
		if err != nil {
			return false, err
		}
		if flow.Kind != FlowNone {
			return false, &EvalError{Kind: ErrDanglingControlFlow, Msg: "control flow cannot appear in a loop condition"}
		}
		return cond.Truthy(), nil
	}

	if node.DoFirst {
		for {
			cont, flow, err := runBody()
			if err != nil || flow.Kind == FlowReturn {
				return Nil, flow, err
			}
			if !cont {
				break
			}
			ok, err := checkCond()
			if err != nil {
				return Nil, noFlow, err
			}
			if !ok {
				break
			}
		}
		return last, noFlow, nil
	}

	for {
		ok, err := checkCond()
		if err != nil {
			return Nil, noFlow, err
		}
		if !ok {
			break
		}
		cont, flow, err := runBody()
		if err != nil || flow.Kind == FlowReturn {
			return Nil, flow, err
		}
		if !cont {
			break
		}
	}
	return last, noFlow, nil
}

func (e *Evaluator) evalSwitch(node *Switch) (Value, Flow, error) {
	subject, flow, err := e.Eval(node.Subject)
	if err != nil || flow.Kind != FlowNone {
		return Nil, flow, err
	}
	for _, c := range node.Cases {
		key, flow, err := e.Eval(c.Key)
		if err != nil || flow.Kind != FlowNone {
			return Nil, flow, err
		}
		if equals(subject, key) {
			return e.Eval(c.Body)
		}
	}
	if node.Default != nil {
		return e.Eval(node.Default)
	}
	return Nil, noFlow, nil
}

func (e *Evaluator) evalBlock(node *Block) (Value, Flow, error) {
	var last Value
	for _, stmt := range node.Stmts {
		v, flow, err := e.Eval(stmt)
		if err != nil {
			return Nil, noFlow, err
		}
		if flow.Kind != FlowNone {
			return Nil, flow, nil
		}
		last = v
	}
	return last, noFlow, nil
}

func (e *Evaluator) evalMemberAccess(node *MemberAccess) (Value, Flow, error) {
	obj, flow, err := e.Eval(node.Object)
	if err != nil || flow.Kind != FlowNone {
		return Nil, flow, err
	}
	if obj.Tag != TTable {
		return Nil, noFlow, &EvalError{Kind: ErrNotATable, Msg: "member access target is not a Table"}
	}
	v, ok := obj.Table().DotAt(node.Name)
	if !ok {
		return Nil, noFlow, &EvalError{Kind: ErrKeyMissing, Msg: "no such member: " + node.Name}
	}
	return v, noFlow, nil
}

func (e *Evaluator) evalIndex(node *Index) (Value, Flow, error) {
	obj, flow, err := e.Eval(node.Object)
	if err != nil || flow.Kind != FlowNone {
		return Nil, flow, err
	}
	key, flow, err := e.Eval(node.Key)
	if err != nil || flow.Kind != FlowNone {
		return Nil, flow, err
	}
	switch obj.Tag {
	case TTable:
		v, ok := obj.Table().IndexAt(key)
		if !ok {
			return Nil, noFlow, &EvalError{Kind: ErrKeyMissing, Msg: "key missing: " + StringOf(key)}
		}
		return *v, noFlow, nil
	case TArray:
		if key.Tag != TInt {
			return Nil, noFlow, &EvalError{Kind: ErrTypeMismatch, Msg: "array index must be Int"}
		}
		arr := obj.Array()
		idx := key.Int()
		if idx < 0 || idx >= int64(len(arr)) {
			return Nil, noFlow, &EvalError{Kind: ErrIndexOutOfRange, Msg: "array index out of range"}
		}
		return arr[idx], noFlow, nil
	case TStr:
		if key.Tag != TInt {
			return Nil, noFlow, &EvalError{Kind: ErrTypeMismatch, Msg: "string index must be Int"}
		}
		s := obj.Str()
		idx := key.Int()
		if idx < 0 || idx >= int64(len(s)) {
			return Nil, noFlow, &EvalError{Kind: ErrIndexOutOfRange, Msg: "string index out of range"}
		}
		return CharVal(s[idx]), noFlow, nil
	}
	return Nil, noFlow, &EvalError{Kind: ErrNotATable, Msg: "index target is not a Table, Array, or Str"}
}

// evalNativeCall dispatches `@name(args)`: print, type, and stack are
// the three compile-time-known intrinsics.
func (e *Evaluator) evalNativeCall(node *NativeCall) (Value, Flow, error) {
	args, flow, err := e.evalAll(node.Args)
	if err != nil || flow.Kind != FlowNone {
		return Nil, flow, err
	}
	switch node.Name {
	case "print":
		for i, a := range args {
			if i > 0 {
				fmt.Fprint(e.out, " ")
			}
			fmt.Fprint(e.out, StringOf(a))
		}
		fmt.Fprintln(e.out)
		return Nil, noFlow, nil
	case "type":
		if len(args) != 1 {
			return Nil, noFlow, &EvalError{Kind: ErrArity, Msg: "@type expects exactly one argument"}
		}
		return StrVal(args[0].Tag.String()), noFlow, nil
	case "stack":
		frames := e.vm.Frames()
		for i := len(frames) - 1; i >= 0; i-- {
			fmt.Fprintf(e.out, "#%d base=%d\n", i, frames[i].Base)
		}
		return Nil, noFlow, nil
	}
	return Nil, noFlow, &EvalError{Kind: ErrUnknownIntrinsic, Msg: "unknown intrinsic @" + node.Name}
}

func (e *Evaluator) evalTableLit(node *TableLit) (Value, Flow, error) {
	t := NewTable()
	var bareIdx int64
	for _, entry := range node.Entries {
		switch {
		case entry.Bare != nil:
			v, flow, err := e.Eval(entry.Bare)
			if err != nil || flow.Kind != FlowNone {
				return Nil, flow, err
			}
			t.SetIndex(IntVal(bareIdx), v)
			bareIdx++
		case entry.DotKey != "":
			v, flow, err := e.Eval(entry.DotVal)
			if err != nil || flow.Kind != FlowNone {
				return Nil, flow, err
			}
			t.SetDot(entry.DotKey, v)
		default:
			v, flow, err := e.Eval(entry.IndexVal)
			if err != nil || flow.Kind != FlowNone {
				return Nil, flow, err
			}
			for _, keyNode := range entry.IndexKeys {
				k, flow, err := e.Eval(keyNode)
				if err != nil || flow.Kind != FlowNone {
					return Nil, flow, err
				}
				t.SetIndex(k, v)
			}
		}
	}
	return TableVal(t), noFlow, nil
}

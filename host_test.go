package ember

import (
	"errors"
	"testing"
)

func TestVariableConstantFunctionFactories(t *testing.T) {
	v := Variable("x", IntVal(1))
	if v.Value.IsConst {
		t.Fatal("Variable should not mark its value const")
	}
	c := Constant("y", IntVal(1))
	if !c.Value.IsConst {
		t.Fatal("Constant should mark its value const")
	}
	f := Function("add", func(a, b int64) int64 { return a + b })
	if f.Value.Tag != TFn || !f.Value.IsConst {
		t.Fatal("Function should produce a const Fn value")
	}
}

func TestNamespaceBuildsDotTable(t *testing.T) {
	ns := Namespace("mathish", Constant("pi", RealVal(3.5)), Function("double", func(n int64) int64 { return n * 2 }))
	if ns.Value.Tag != TTable || !ns.Value.IsConst {
		t.Fatal("Namespace should produce a const Table value")
	}
	tbl := ns.Value.Table()
	cell := tbl.Dot("pi")
	if cell.Real() != 3.5 {
		t.Fatalf("ns.pi = %v, want 3.5", *cell)
	}
}

func TestWrapFuncNumericWidening(t *testing.T) {
	fn := WrapFunc("addf", func(a float64, b int32) float64 { return a + float64(b) })
	v, err := fn.Native([]Value{IntVal(2), IntVal(3)})
	if err != nil {
		t.Fatal(err)
	}
	if v.Tag != TReal || v.Real() != 5 {
		t.Fatalf("addf(2,3) = %v, want Real 5", v)
	}
}

func TestWrapFuncCharByteRoundTrip(t *testing.T) {
	fn := WrapFunc("upper", func(c byte) byte {
		if c >= 'a' && c <= 'z' {
			return c - 32
		}
		return c
	})
	v, err := fn.Native([]Value{CharVal('a')})
	if err != nil {
		t.Fatal(err)
	}
	if v.Tag != TInt || v.Int() != int64('A') {
		t.Fatalf("upper('a') = %v, want Int 'A'", v)
	}
}

func TestWrapFuncArraySliceRoundTrip(t *testing.T) {
	fn := WrapFunc("sum", func(xs []int64) int64 {
		var total int64
		for _, x := range xs {
			total += x
		}
		return total
	})
	v, err := fn.Native([]Value{ArrayVal([]Value{IntVal(1), IntVal(2), IntVal(3)})})
	if err != nil {
		t.Fatal(err)
	}
	if v.Int() != 6 {
		t.Fatalf("sum([1,2,3]) = %v, want 6", v)
	}
}

func TestWrapFuncTableToMapRoundTrip(t *testing.T) {
	fn := WrapFunc("keys", func(m map[string]interface{}) int64 {
		return int64(len(m))
	})
	tbl := NewTable()
	tbl.SetDot("a", IntVal(1))
	tbl.SetDot("b", IntVal(2))
	v, err := fn.Native([]Value{TableVal(tbl)})
	if err != nil {
		t.Fatal(err)
	}
	if v.Int() != 2 {
		t.Fatalf("keys(tbl) = %v, want 2", v)
	}
}

func TestWrapFuncReturningErrorFailsWithPrefixedMessage(t *testing.T) {
	fn := WrapFunc("fail", func() (int64, error) {
		return 0, errors.New("nope")
	})
	_, err := fn.Native(nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if err.Error() != "fail: nope" {
		t.Fatalf("got %q", err.Error())
	}
}

func TestWrapFuncArityMismatch(t *testing.T) {
	fn := WrapFunc("add", func(a, b int64) int64 { return a + b })
	if _, err := fn.Native([]Value{IntVal(1)}); err == nil {
		t.Fatal("expected arity error for too few args")
	}
}

func TestWrapFuncVariadic(t *testing.T) {
	fn := WrapFunc("sumv", func(xs ...int64) int64 {
		var total int64
		for _, x := range xs {
			total += x
		}
		return total
	})
	if fn.Arity != -1 {
		t.Fatalf("variadic Fn should have Arity -1, got %d", fn.Arity)
	}
	v, err := fn.Native([]Value{IntVal(1), IntVal(2), IntVal(3), IntVal(4)})
	if err != nil {
		t.Fatal(err)
	}
	if v.Int() != 10 {
		t.Fatalf("sumv(1,2,3,4) = %v, want 10", v)
	}
}

func TestWrapFuncPassThroughValue(t *testing.T) {
	fn := WrapFunc("identity", func(v Value) Value { return v })
	in := StrVal("hello")
	v, err := fn.Native([]Value{in})
	if err != nil {
		t.Fatal(err)
	}
	if v.Str() != "hello" {
		t.Fatalf("identity(hello) = %v", v)
	}
}

func TestHostNamespaceResolve(t *testing.T) {
	h := NewHostNamespace(Namespace("m", Constant("one", IntVal(1))))
	v, ok := h.Resolve("m")
	if !ok || v.Tag != TTable {
		t.Fatal("expected to resolve namespace m")
	}
	if _, ok := h.Resolve("missing"); ok {
		t.Fatal("unregistered namespace should not resolve")
	}
}

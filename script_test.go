package ember

import (
	"bytes"
	"testing"
)

func TestScriptRunReturnsLastStatementValue(t *testing.T) {
	s, err := NewScript(nil, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	v, err := s.Run("1; 2; 3")
	if err != nil {
		t.Fatal(err)
	}
	if v.Int() != 3 {
		t.Fatalf("Run(\"1; 2; 3\") = %v, want 3", v)
	}
}

func TestScriptBindingsPersistAcrossRuns(t *testing.T) {
	s, err := NewScript(nil, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Run("counter = 0"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Run("counter = counter + 1"); err != nil {
		t.Fatal(err)
	}
	v, err := s.Run("counter")
	if err != nil {
		t.Fatal(err)
	}
	if v.Int() != 1 {
		t.Fatalf("counter = %v, want 1", v)
	}
}

func TestScriptAppendQueuesWithoutExecuting(t *testing.T) {
	s, err := NewScript(nil, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	s.Append("x = 1")
	s.Append("x = x + 1")
	v, err := s.Execute()
	if err != nil {
		t.Fatal(err)
	}
	if v.Int() != 2 {
		t.Fatalf("after draining both fragments, x = %v, want 2", v)
	}
}

func TestScriptExecuteStopsAtFirstError(t *testing.T) {
	s, err := NewScript(nil, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	s.Append("x = 1 / 0")
	s.Append("x = 99")
	if _, err := s.Execute(); err == nil {
		t.Fatal("expected division-by-zero error")
	}
	if len(s.queue) != 0 {
		t.Fatal("Execute should discard remaining queued fragments on error")
	}
}

func TestScriptRegisterIdentifierIsVisibleToScript(t *testing.T) {
	s, err := NewScript(nil, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.RegisterIdentifier(Constant("greeting", StrVal("hi"))); err != nil {
		t.Fatal(err)
	}
	v, err := s.Run("greeting")
	if err != nil {
		t.Fatal(err)
	}
	if v.Str() != "hi" {
		t.Fatalf("greeting = %v, want hi", v)
	}
}

func TestScriptTopLevelBreakIsDangling(t *testing.T) {
	s, err := NewScript(nil, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Run("break")
	ee, ok := err.(*EvalError)
	if !ok || ee.Kind != ErrDanglingControlFlow {
		t.Fatalf("got %v, want ErrDanglingControlFlow", err)
	}
}

func TestScriptDepthStaysAtOneAfterTopLevelWork(t *testing.T) {
	s, err := NewScript(nil, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if s.Depth() != 1 {
		t.Fatalf("fresh Script should have frame depth 1, got %d", s.Depth())
	}
	if _, err := s.Run(`function f() { 1 } f()`); err != nil {
		t.Fatal(err)
	}
	if s.Depth() != 1 {
		t.Fatalf("depth after a call should return to 1, got %d", s.Depth())
	}
}

func TestIsCompleteBalancedAndUnbalanced(t *testing.T) {
	cases := []struct {
		src  string
		want bool
	}{
		{"1 + 2", true},
		{"function f() {", false},
		{"if (1) {", false},
		{"if (1) { 1 }", true},
		{`"unterminated`, false},
		{"[1, 2, [3, 4]", false},
		{"[1, 2, [3, 4]]", true},
		{"x =", false},
		{"x +=", false},
		{"x++", true},
	}
	for _, c := range cases {
		if got := IsComplete(c.src); got != c.want {
			t.Errorf("IsComplete(%q) = %v, want %v", c.src, got, c.want)
		}
	}
}

package jack_test

import (
	"testing"

	"jackc.dev/n2t/pkg/jack"
)

func TestClassScope(t *testing.T) {
	check := func(st *jack.ScopeTable, lookup string, expectedVar jack.Variable, expectedOffset uint16, fail bool) {
		offset, variable, err := st.ResolveVariable(lookup)
		if fail {
			if err == nil {
				t.Fatalf("expected lookup of '%s' to fail, got %+v", lookup, variable)
			}
			return
		}
		if err != nil {
			t.Fatalf("expected to find %s, got error: %v", lookup, err)
		}
		if variable != expectedVar {
			t.Errorf("expected to find variable '%s' = %+v, got %+v", lookup, expectedVar, variable)
		}
		if offset != expectedOffset {
			t.Errorf("expected to find offset %d for variable '%s', got '%d'", expectedOffset, lookup, offset)
		}
	}

	t.Run("Basic field and static resolution", func(t *testing.T) {
		st := &jack.ScopeTable{}
		st.PushClassScope("TestClass")

		mustRegister(t, st, jack.Variable{Name: "test_field", VarType: jack.Field, DataType: jack.DataType{Main: jack.Int}})
		mustRegister(t, st, jack.Variable{Name: "test_static", VarType: jack.Static, DataType: jack.DataType{Main: jack.String}})
		mustRegister(t, st, jack.Variable{Name: "test_field_2", VarType: jack.Field, DataType: jack.DataType{Main: jack.Char}})
		mustRegister(t, st, jack.Variable{Name: "test_static_2", VarType: jack.Static, DataType: jack.DataType{Main: jack.Bool}})

		check(st, "test_field", jack.Variable{Name: "test_field", VarType: jack.Field, DataType: jack.DataType{Main: jack.Int}}, 0, false)
		check(st, "test_static", jack.Variable{Name: "test_static", VarType: jack.Static, DataType: jack.DataType{Main: jack.String}}, 0, false)
		check(st, "test_field_2", jack.Variable{Name: "test_field_2", VarType: jack.Field, DataType: jack.DataType{Main: jack.Char}}, 1, false)
		check(st, "test_static_2", jack.Variable{Name: "test_static_2", VarType: jack.Static, DataType: jack.DataType{Main: jack.Bool}}, 1, false)

		check(st, "undeclared", jack.Variable{}, 0, true)
	})

	t.Run("Redefinition within the same scope is refused", func(t *testing.T) {
		st := &jack.ScopeTable{}
		st.PushClassScope("TestClass")

		mustRegister(t, st, jack.Variable{Name: "dup", VarType: jack.Field, DataType: jack.DataType{Main: jack.Int}})
		if _, err := st.RegisterVariable(jack.Variable{Name: "dup", VarType: jack.Field, DataType: jack.DataType{Main: jack.Char}}); err == nil {
			t.Fatalf("expected redefinition of 'dup' to fail")
		}

		// The original definition must survive the rejected redefinition attempt.
		check(st, "dup", jack.Variable{Name: "dup", VarType: jack.Field, DataType: jack.DataType{Main: jack.Int}}, 0, false)
	})

	t.Run("Same name across different kinds does not conflict", func(t *testing.T) {
		st := &jack.ScopeTable{}
		st.PushClassScope("TestClass")

		mustRegister(t, st, jack.Variable{Name: "shared", VarType: jack.Field, DataType: jack.DataType{Main: jack.Int}})
		if _, err := st.RegisterVariable(jack.Variable{Name: "shared", VarType: jack.Static, DataType: jack.DataType{Main: jack.Bool}}); err != nil {
			t.Fatalf("did not expect an error registering 'shared' as a distinct kind: %v", err)
		}
	})

	t.Run("With scope deallocation", func(t *testing.T) {
		st := &jack.ScopeTable{}
		st.PushClassScope("TestClass")

		mustRegister(t, st, jack.Variable{Name: "test_field", VarType: jack.Field, DataType: jack.DataType{Main: jack.Int}})
		mustRegister(t, st, jack.Variable{Name: "test_static", VarType: jack.Static, DataType: jack.DataType{Main: jack.String}})

		check(st, "test_field", jack.Variable{Name: "test_field", VarType: jack.Field, DataType: jack.DataType{Main: jack.Int}}, 0, false)

		st.PopClassScope()

		check(st, "test_field", jack.Variable{}, 0, true)
		check(st, "test_static", jack.Variable{}, 0, true)
	})
}

func TestSubroutineScope(t *testing.T) {
	check := func(st *jack.ScopeTable, lookup string, expectedVar jack.Variable, expectedOffset uint16, fail bool) {
		offset, variable, err := st.ResolveVariable(lookup)
		if fail {
			if err == nil {
				t.Fatalf("expected lookup of '%s' to fail, got %+v", lookup, variable)
			}
			return
		}
		if err != nil {
			t.Fatalf("expected to find %s, got error: %v", lookup, err)
		}
		if variable != expectedVar {
			t.Errorf("expected to find variable '%s' = %+v, got %+v", lookup, expectedVar, variable)
		}
		if offset != expectedOffset {
			t.Errorf("expected to find offset %d for variable '%s', got '%d'", expectedOffset, lookup, offset)
		}
	}

	t.Run("Local and parameter resolution", func(t *testing.T) {
		st := &jack.ScopeTable{}
		st.PushClassScope("TestClass")
		st.PushSubRoutineScope("TestSubroutine")

		mustRegister(t, st, jack.Variable{Name: "test_local", VarType: jack.Local, DataType: jack.DataType{Main: jack.Int}})
		mustRegister(t, st, jack.Variable{Name: "test_parameter", VarType: jack.Parameter, DataType: jack.DataType{Main: jack.String}})
		mustRegister(t, st, jack.Variable{Name: "test_local_2", VarType: jack.Local, DataType: jack.DataType{Main: jack.Char}})

		check(st, "test_local", jack.Variable{Name: "test_local", VarType: jack.Local, DataType: jack.DataType{Main: jack.Int}}, 0, false)
		check(st, "test_parameter", jack.Variable{Name: "test_parameter", VarType: jack.Parameter, DataType: jack.DataType{Main: jack.String}}, 0, false)
		check(st, "test_local_2", jack.Variable{Name: "test_local_2", VarType: jack.Local, DataType: jack.DataType{Main: jack.Char}}, 1, false)

		check(st, "undeclared", jack.Variable{}, 0, true)
	})

	t.Run("Subroutine scope falls back to class scope", func(t *testing.T) {
		st := &jack.ScopeTable{}
		st.PushClassScope("TestClass")
		mustRegister(t, st, jack.Variable{Name: "shared", VarType: jack.Field, DataType: jack.DataType{Main: jack.Int}})

		st.PushSubRoutineScope("TestSubroutine")
		mustRegister(t, st, jack.Variable{Name: "local_only", VarType: jack.Local, DataType: jack.DataType{Main: jack.Bool}})

		check(st, "shared", jack.Variable{Name: "shared", VarType: jack.Field, DataType: jack.DataType{Main: jack.Int}}, 0, false)
		check(st, "local_only", jack.Variable{Name: "local_only", VarType: jack.Local, DataType: jack.DataType{Main: jack.Bool}}, 0, false)

		st.PopSubroutineScope()

		check(st, "local_only", jack.Variable{}, 0, true)
		check(st, "shared", jack.Variable{Name: "shared", VarType: jack.Field, DataType: jack.DataType{Main: jack.Int}}, 0, false)
	})

	t.Run("Same name in subroutine scope shadows class scope without error", func(t *testing.T) {
		st := &jack.ScopeTable{}
		st.PushClassScope("TestClass")
		mustRegister(t, st, jack.Variable{Name: "test1", VarType: jack.Field, DataType: jack.DataType{Main: jack.Int}})

		st.PushSubRoutineScope("TestSubroutine")
		mustRegister(t, st, jack.Variable{Name: "test1", VarType: jack.Local, DataType: jack.DataType{Main: jack.Bool}})

		check(st, "test1", jack.Variable{Name: "test1", VarType: jack.Local, DataType: jack.DataType{Main: jack.Bool}}, 0, false)

		st.PopSubroutineScope()

		check(st, "test1", jack.Variable{Name: "test1", VarType: jack.Field, DataType: jack.DataType{Main: jack.Int}}, 0, false)
	})
}

func TestScopeTracking(t *testing.T) {
	check := func(st *jack.ScopeTable, expected string) {
		if got := st.GetScope(); got != expected {
			t.Errorf("expected scope '%s', got '%s'", expected, got)
		}
	}

	t.Run("Basic scope tracking checks", func(t *testing.T) {
		st := &jack.ScopeTable{}

		check(st, "Global")

		st.PushClassScope("TestClass")
		check(st, "TestClass.Global")

		st.PushSubRoutineScope("TestSubroutine")
		check(st, "TestClass.TestSubroutine")

		st.PopSubroutineScope()
		check(st, "TestClass.Global")

		st.PopClassScope()
		check(st, "Global")
	})
}

func mustRegister(t *testing.T, st *jack.ScopeTable, v jack.Variable) {
	t.Helper()
	if _, err := st.RegisterVariable(v); err != nil {
		t.Fatalf("unexpected error registering '%s': %v", v.Name, err)
	}
}

package tag

import (
	"slices"
	"testing"
)

func TestRegistry_Transitions(t *testing.T) {
	t.Parallel()

	var r Registry[string]

	r.Add("x", "a")
	if r.IsMultiple("x") || r.Count("x") != 1 {
		t.Fatalf("after first add: multiple=%v count=%d", r.IsMultiple("x"), r.Count("x"))
	}

	r.Add("x", "b")
	if !r.IsMultiple("x") {
		t.Fatal("second add did not promote to a list")
	}
	if got := r.List("x"); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("List() = %v", got)
	}

	if !r.Remove("x", "a") {
		t.Fatal("Remove() = false")
	}
	if r.IsMultiple("x") {
		t.Error("one remaining value is still a list")
	}
	if v, ok := r.Get("x"); !ok || v != "b" {
		t.Errorf("Get() = %q, %v", v, ok)
	}

	if r.Remove("x", "missing") {
		t.Error("removed a value that was never added")
	}

	r.Remove("x", "b")
	if _, ok := r.Get("x"); ok || r.Len() != 0 {
		t.Errorf("name not deleted: len=%d", r.Len())
	}
}

func TestRegistry_Map(t *testing.T) {
	t.Parallel()

	r := NewRegistry[int]()
	r.Add("one", 1)
	r.Add("many", 2)
	r.Add("many", 3)

	m := r.Map()
	if m["one"] != 1 {
		t.Errorf("one = %v", m["one"])
	}
	if got, ok := m["many"].([]int); !ok || !slices.Equal(got, []int{2, 3}) {
		t.Errorf("many = %v", m["many"])
	}
	if got := slices.Collect(r.Names()); !slices.Equal(got, []string{"one", "many"}) {
		t.Errorf("Names() = %v", got)
	}
}

package tag

import (
	"slices"
	"testing"
)

func TestObservable(t *testing.T) {
	t.Parallel()

	var (
		o   Observable
		got []string
	)

	rec := func(s string) Handler {
		return func(args ...any) {
			got = append(got, s)
		}
	}

	o.On("a b", rec("on"))
	o.One("a", rec("one"))
	o.On("*", func(args ...any) { got = append(got, "all:"+args[0].(string)) })

	o.Trigger("a")
	o.Trigger("a")
	o.Trigger("b")

	want := []string{"on", "one", "all:a", "on", "all:a", "on", "all:b"}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	got = nil
	o.Off("a")
	o.Trigger("a")
	o.Trigger("b")

	if want := []string{"all:a", "on", "all:b"}; !slices.Equal(got, want) {
		t.Errorf("after Off: got %v, want %v", got, want)
	}

	o.Off("*")
	if o.Listeners("b") != 0 || o.Listeners("*") != 0 {
		t.Error("Off(*) left handlers")
	}
}

func TestObservable_OffFunc(t *testing.T) {
	t.Parallel()

	var (
		o     Observable
		count int
	)

	off := o.On("tick", func(...any) { count++ })
	o.Trigger("tick")
	off()
	o.Trigger("tick")

	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

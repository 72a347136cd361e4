package evtrc_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/evtrc/evtrc"
)

func TestRegistryGet(t *testing.T) {
	t.Parallel()

	r := evtrc.NewRegistry()

	p := r.Get("render")
	if want, have := "render", p.Name(); want != have {
		t.Errorf("Name: want %q, have %q", want, have)
	}
	if want, have := true, p.Enabled(); want != have {
		t.Errorf("Enabled: want %v, have %v", want, have)
	}

	// Same name resolves to the same entry.
	r.SetEnabled("-render")
	p2 := r.Get("render")
	if want, have := false, p2.Enabled(); want != have {
		t.Errorf("Enabled after filter: want %v, have %v", want, have)
	}
}

func TestRegistryFilterGatesCreation(t *testing.T) {
	t.Parallel()

	r := evtrc.NewRegistry()
	r.SetEnabled("-noisy.*")

	if want, have := false, r.Get("noisy.loop").Enabled(); want != have {
		t.Errorf("noisy.loop: want %v, have %v", want, have)
	}
	if want, have := true, r.Get("quiet").Enabled(); want != have {
		t.Errorf("quiet: want %v, have %v", want, have)
	}
}

func TestProxyLiveness(t *testing.T) {
	t.Parallel()

	r := evtrc.NewRegistry()
	p := r.Get("x")
	if want, have := true, p.Enabled(); want != have {
		t.Fatalf("initial: want %v, have %v", want, have)
	}

	r.SetEnabled("-x")
	if want, have := false, p.Enabled(); want != have {
		t.Errorf("after disable: want %v, have %v", want, have)
	}

	r.SetEnabled("+x")
	if want, have := true, p.Enabled(); want != have {
		t.Errorf("after re-enable: want %v, have %v", want, have)
	}
}

func TestSetFilterTouchesOnlyMatches(t *testing.T) {
	t.Parallel()

	r := evtrc.NewRegistry()
	r.Append(evtrc.Category{Name: "manual", Enabled: false})
	r.Get("other")

	r.SetEnabled("unrelated")

	// "manual" did not match the filter, so its state is untouched.
	if want, have := false, r.Get("manual").Enabled(); want != have {
		t.Errorf("manual: want %v, have %v", want, have)
	}
	if want, have := true, r.Get("other").Enabled(); want != have {
		t.Errorf("other: want %v, have %v", want, have)
	}
}

func TestRegistryAppend(t *testing.T) {
	t.Parallel()

	r := evtrc.NewRegistry()
	r.Append(
		evtrc.Category{Name: "a", Enabled: true},
		evtrc.Category{Name: "b", Enabled: false},
		evtrc.Category{Name: "a", Enabled: false}, // duplicate, skipped
	)

	if want, have := []string{"a", "b"}, r.Known(); !cmp.Equal(want, have) {
		t.Errorf("Known: %s", cmp.Diff(want, have))
	}
	if want, have := true, r.Get("a").Enabled(); want != have {
		t.Errorf("a kept its first state: want %v, have %v", want, have)
	}
	if want, have := false, r.Get("b").Enabled(); want != have {
		t.Errorf("b: want %v, have %v", want, have)
	}
}

func TestRegistryExhaustion(t *testing.T) {
	t.Parallel()

	r := evtrc.NewRegistry()
	for i := 0; i < evtrc.MaxCategories; i++ {
		r.Get(fmt.Sprintf("cat-%03d", i))
	}

	p := r.Get("one-too-many")
	if want, have := false, p.Enabled(); want != have {
		t.Errorf("sentinel Enabled: want %v, have %v", want, have)
	}
	if want, have := "tracing categories exhausted.", p.Name(); want != have {
		t.Errorf("sentinel Name: want %q, have %q", want, have)
	}

	// The sentinel is not an entry.
	if want, have := evtrc.MaxCategories, len(r.Known()); want != have {
		t.Errorf("Known count: want %d, have %d", want, have)
	}

	// An existing name still resolves.
	if want, have := "cat-000", r.Get("cat-000").Name(); want != have {
		t.Errorf("existing: want %q, have %q", want, have)
	}
}

func TestRegistryKnownOrder(t *testing.T) {
	t.Parallel()

	r := evtrc.NewRegistry()
	names := []string{"zeta", "alpha", "mid"}
	for _, name := range names {
		r.Get(name)
	}
	if want, have := names, r.Known(); !cmp.Equal(want, have) {
		t.Errorf("insertion order: %s", cmp.Diff(want, have))
	}
}

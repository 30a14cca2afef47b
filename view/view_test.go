package view_test

import (
	"cmp"
	"slices"
	"testing"

	"github.com/lguimbarda/min-view/view"
	"github.com/lguimbarda/min-view/view/core"
	"github.com/lguimbarda/min-view/view/filter"
	"github.com/lguimbarda/min-view/view/order"
)

type item struct {
	Name string
	Rank int
}

func assertItems[T comparable](t *testing.T, v *view.View[T], want []T) {
	t.Helper()
	got := v.Items()
	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestStagesOverSlice(t *testing.T) {
	even := func(n int) bool { return n%2 == 0 }
	tests := []struct {
		name  string
		input []int
		build func(v *view.View[int]) *view.View[int]
		want  []int
	}{
		{
			name:  "no stages is identity",
			input: []int{3, 1, 2},
			build: func(v *view.View[int]) *view.View[int] { return v },
			want:  []int{3, 1, 2},
		},
		{
			name:  "skip 2",
			input: []int{1, 2, 3, 4, 5},
			build: func(v *view.View[int]) *view.View[int] { return v.SkipN(2) },
			want:  []int{3, 4, 5},
		},
		{
			name:  "skip past the end",
			input: []int{1, 2, 3, 4, 5},
			build: func(v *view.View[int]) *view.View[int] { return v.SkipN(10) },
			want:  []int{},
		},
		{
			name:  "take 3",
			input: []int{1, 2, 3, 4, 5},
			build: func(v *view.View[int]) *view.View[int] { return v.TakeN(3) },
			want:  []int{1, 2, 3},
		},
		{
			name:  "take 0",
			input: []int{1, 2, 3, 4, 5},
			build: func(v *view.View[int]) *view.View[int] { return v.TakeN(0) },
			want:  []int{},
		},
		{
			name:  "step 2",
			input: []int{1, 2, 3, 4, 5},
			build: func(v *view.View[int]) *view.View[int] { return v.StepN(2) },
			want:  []int{1, 3, 5},
		},
		{
			name:  "filter sort skip",
			input: []int{3, 1, 2},
			build: func(v *view.View[int]) *view.View[int] {
				return v.Filter(filter.Where(func(int) bool { return true })).Sort(order.Asc[int]()).SkipN(1)
			},
			want: []int{2, 3},
		},
		{
			name:  "filter then take",
			input: []int{1, 2, 3, 4, 5, 6, 7, 8},
			build: func(v *view.View[int]) *view.View[int] { return v.Filter(filter.Where(even)).TakeN(2) },
			want:  []int{2, 4},
		},
		{
			name:  "take then filter",
			input: []int{1, 2, 3, 4, 5, 6, 7, 8},
			build: func(v *view.View[int]) *view.View[int] { return v.TakeN(2).Filter(filter.Where(even)) },
			want:  []int{2},
		},
		{
			name:  "take before sort",
			input: []int{5, 4, 3, 2, 1},
			build: func(v *view.View[int]) *view.View[int] { return v.TakeN(2).Sort(order.Asc[int]()) },
			want:  []int{4, 5},
		},
		{
			name:  "sort before take",
			input: []int{5, 4, 3, 2, 1},
			build: func(v *view.View[int]) *view.View[int] { return v.Sort(order.Asc[int]()).TakeN(2) },
			want:  []int{1, 2},
		},
		{
			name:  "skip take step",
			input: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
			build: func(v *view.View[int]) *view.View[int] { return v.SkipN(1).TakeN(7).StepN(3) },
			want:  []int{1, 4, 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := core.NewCollection(tt.input...)
			v := tt.build(view.Of[int](src))
			if err := v.Err(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertItems(t, v, tt.want)
			if got := src.Items(); !slices.Equal(got, tt.input) {
				t.Errorf("source mutated: %v", got)
			}
		})
	}
}

func TestFilterPattern(t *testing.T) {
	src := core.NewCollection("abc", "xyz")
	assertItems(t, view.Of[string](src).FilterAny("AB"), []string{"abc"})

	src = core.NewCollection("b", "a")
	assertItems(t, view.Of[string](src).FilterAny(""), []string{"b", "a"})
	assertItems(t, view.Of[string](src).FilterAny(nil), []string{"b", "a"})
}

func TestSortByFieldName(t *testing.T) {
	src := core.NewCollection(item{Name: "b"}, item{Name: "a"})
	assertItems(t, view.Of[item](src).SortAny("Name"), []item{{Name: "a"}, {Name: "b"}})

	ties := core.NewCollection(
		item{Name: "x", Rank: 2},
		item{Name: "y", Rank: 1},
		item{Name: "z", Rank: 2},
		item{Name: "w", Rank: 1},
	)
	assertItems(t, view.Of[item](ties).SortAny("Rank"), []item{
		{Name: "y", Rank: 1},
		{Name: "w", Rank: 1},
		{Name: "x", Rank: 2},
		{Name: "z", Rank: 2},
	})
}

func TestSourceMutations(t *testing.T) {
	src := core.NewCollection(5, 1, 9)
	v := view.Of[int](src).
		Filter(filter.Where(func(n int) bool { return n < 10 })).
		Sort(order.Asc[int]())
	assertItems(t, v, []int{1, 5, 9})

	resets := 0
	v.Subscribe(func(c core.Change[int]) error {
		if c.Event == core.Reset {
			resets++
		}
		return nil
	})

	if err := src.Add(42); err != nil {
		t.Fatalf("add failing item: %v", err)
	}
	assertItems(t, v, []int{1, 5, 9})

	if err := src.Add(3); err != nil {
		t.Fatalf("add passing item: %v", err)
	}
	assertItems(t, v, []int{1, 3, 5, 9})

	if err := src.Insert(0, 7); err != nil {
		t.Fatalf("insert: %v", err)
	}
	assertItems(t, v, []int{1, 3, 5, 7, 9})

	if _, err := src.RemoveFunc(func(n int) bool { return n == 5 }); err != nil {
		t.Fatalf("remove: %v", err)
	}
	assertItems(t, v, []int{1, 3, 7, 9})

	if err := src.Reset(2, 0); err != nil {
		t.Fatalf("reset: %v", err)
	}
	assertItems(t, v, []int{0, 2})

	if resets != 5 {
		t.Errorf("expected one recompute per mutation (5), got %d", resets)
	}
}

func TestRemoveLastMatch(t *testing.T) {
	src := core.NewCollection("apple", "berry")
	v := view.Of[string](src).FilterAny("app")
	assertItems(t, v, []string{"apple"})

	if err := src.RemoveAt(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertItems(t, v, []string{})
	if v.Len() != 0 {
		t.Errorf("Len = %d", v.Len())
	}
}

func TestViewWithoutFilterUpdates(t *testing.T) {
	src := core.NewCollection(3, 1)
	v := view.Of[int](src).Sort(order.Asc[int]()).TakeN(2)
	assertItems(t, v, []int{1, 3})

	_ = src.Add(0)
	assertItems(t, v, []int{0, 1})
}

func TestIndependentViews(t *testing.T) {
	src := core.NewCollection(4, 2, 3, 1)
	asc := view.Of[int](src).Sort(order.Asc[int]())
	desc := view.Of[int](src).Sort(order.Desc(order.Asc[int]()))

	assertItems(t, asc, []int{1, 2, 3, 4})
	assertItems(t, desc, []int{4, 3, 2, 1})

	_ = src.Add(5)
	assertItems(t, asc, []int{1, 2, 3, 4, 5})
	assertItems(t, desc, []int{5, 4, 3, 2, 1})
	if got := src.Items(); !slices.Equal(got, []int{4, 2, 3, 1, 5}) {
		t.Errorf("source reordered: %v", got)
	}
}

func TestChainedViews(t *testing.T) {
	src := core.NewCollection(6, 3, 8, 1, 4)
	evens := view.Of[int](src).Filter(filter.Where(func(n int) bool { return n%2 == 0 }))
	top := view.Of[int](evens).Sort(order.Desc(order.Asc[int]())).TakeN(2)

	assertItems(t, top, []int{8, 6})

	_ = src.Add(10)
	assertItems(t, top, []int{10, 8})

	_ = src.Reset(1, 3)
	assertItems(t, top, []int{})
}

func TestLazyMaterialization(t *testing.T) {
	src := core.NewCollection(1, 2, 3)
	v := view.Of[int](src).TakeN(1)
	if v.State() != view.Uninitialized {
		t.Fatalf("state = %s", v.State())
	}

	// Mutations before the first read are not computed eagerly.
	_ = src.Add(4)
	if v.State() != view.Uninitialized {
		t.Fatalf("state after add = %s", v.State())
	}

	assertItems(t, v, []int{1})
	if v.State() != view.Ready {
		t.Fatalf("state after read = %s", v.State())
	}
}

func TestAppendToReadyViewRecomputes(t *testing.T) {
	src := core.NewCollection(1, 2, 3, 4)
	v := view.Of[int](src)
	if err := v.Materialize(); err != nil {
		t.Fatalf("materialize: %v", err)
	}
	assertItems(t, v, []int{1, 2, 3, 4})

	v.SkipN(1)
	assertItems(t, v, []int{2, 3, 4})

	if got := len(v.Stages()); got != 1 {
		t.Errorf("stages = %d", got)
	}
}

func TestStagesKeepCallOrder(t *testing.T) {
	v := view.Of[int](core.NewCollection[int]()).
		FilterAny("x").
		Sort(order.Asc[int]()).
		SkipN(1).
		TakeN(2).
		StepN(3)

	var kinds []view.Kind
	for _, op := range v.Stages() {
		kinds = append(kinds, op.Kind())
	}
	want := []view.Kind{view.KindFilter, view.KindSort, view.KindSkip, view.KindTake, view.KindStep}
	if !slices.Equal(kinds, want) {
		t.Errorf("got %v, want %v", kinds, want)
	}
}

func TestReadAccessors(t *testing.T) {
	src := core.NewCollection("c", "a", "b")
	v := view.Of[string](src, view.WithName("letters")).Sort(order.By(cmp.Compare[string]))

	if s, ok := v.At(0); !ok || s != "a" {
		t.Errorf("At(0) = %q, %v", s, ok)
	}
	if _, ok := v.At(3); ok {
		t.Error("At(3) should be out of range")
	}

	var seen []string
	for i, s := range v.All() {
		if i == 2 {
			break
		}
		seen = append(seen, s)
	}
	if !slices.Equal(seen, []string{"a", "b"}) {
		t.Errorf("All yielded %v", seen)
	}
	if v.Name() != "letters" {
		t.Errorf("Name = %q", v.Name())
	}
	if v.Source() != core.Source[string](src) {
		t.Error("Source mismatch")
	}

	items := v.Items()
	items[0] = "mutated"
	assertItems(t, v, []string{"a", "b", "c"})
}

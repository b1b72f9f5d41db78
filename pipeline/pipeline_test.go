package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestFromSlice_Collect(t *testing.T) {
	p := FromSlice([]int{1, 2, 3})
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1, 2, 3}
	if !intSliceEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFromSlice_Empty(t *testing.T) {
	p := FromSlice([]int{})
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
}

func TestFrom_Iterator(t *testing.T) {
	iter := Slice([]string{"a", "b"})
	p := From[string](iter)
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("got %v, want [a b]", got)
	}
}

func TestMap(t *testing.T) {
	p := FromSlice([]int{1, 2, 3})
	doubled := Map(p, func(_ context.Context, n int) (int, error) {
		return n * 2, nil
	})
	got, err := Collect(context.Background(), doubled)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{2, 4, 6}
	if !intSliceEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestMap_Error(t *testing.T) {
	p := FromSlice([]int{1, 2, 3})
	fail := Map(p, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, errors.New("bad value")
		}
		return n, nil
	})
	got, err := Collect(context.Background(), fail)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("expected [1] before error, got %v", got)
	}
}

func TestMap_TypeConversion(t *testing.T) {
	p := FromSlice([]int{1, 2, 3})
	strs := Map(p, func(_ context.Context, n int) (string, error) {
		return fmt.Sprintf("#%d", n), nil
	})
	got, err := Collect(context.Background(), strs)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"#1", "#2", "#3"}
	if !strSliceEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFlatMap(t *testing.T) {
	p := FromSlice([]int{1, 2, 3})
	expanded := FlatMap(p, func(_ context.Context, n int) (Iterator[int], error) {
		return Slice([]int{n, n * 10}), nil
	})
	got, err := Collect(context.Background(), expanded)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1, 10, 2, 20, 3, 30}
	if !intSliceEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFlatMap_EmptyInner(t *testing.T) {
	p := FromSlice([]int{1, 2, 3})
	expanded := FlatMap(p, func(_ context.Context, n int) (Iterator[int], error) {
		if n == 2 {
			return Empty[int](), nil
		}
		return Slice([]int{n}), nil
	})
	got, err := Collect(context.Background(), expanded)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1, 3}
	if !intSliceEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFilter(t *testing.T) {
	p := FromSlice([]int{1, 2, 3, 4, 5, 6})
	evens := Filter(p, func(n int) bool { return n%2 == 0 })
	got, err := Collect(context.Background(), evens)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{2, 4, 6}
	if !intSliceEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFilter_None(t *testing.T) {
	p := FromSlice([]int{1, 3, 5})
	evens := Filter(p, func(n int) bool { return n%2 == 0 })
	got, err := Collect(context.Background(), evens)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
}

func TestTap(t *testing.T) {
	var tapped []int
	p := FromSlice([]int{1, 2, 3})
	observed := Tap(p, func(_ context.Context, n int) error {
		tapped = append(tapped, n)
		return nil
	})
	got, err := Collect(context.Background(), observed)
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{1, 2, 3}) {
		t.Errorf("values should pass through unchanged, got %v", got)
	}
	if !intSliceEqual(tapped, []int{1, 2, 3}) {
		t.Errorf("tap should see all values, got %v", tapped)
	}
}

func TestTap_Error(t *testing.T) {
	p := FromSlice([]int{1, 2, 3})
	failing := Tap(p, func(_ context.Context, n int) error {
		if n == 2 {
			return errors.New("tap failed")
		}
		return nil
	})
	_, err := Collect(context.Background(), failing)
	if err == nil || !strings.Contains(err.Error(), "tap failed") {
		t.Errorf("expected tap error, got %v", err)
	}
}

func TestDrain_Run(t *testing.T) {
	var collected []int
	p := FromSlice([]int{1, 2, 3})
	r := Drain(p, func(_ context.Context, n int) error {
		collected = append(collected, n)
		return nil
	})
	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(collected, []int{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", collected)
	}
}

func TestForEach(t *testing.T) {
	var sum int
	p := FromSlice([]int{1, 2, 3})
	err := ForEach(context.Background(), p, func(_ context.Context, n int) error {
		sum += n
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if sum != 6 {
		t.Errorf("sum = %d, want 6", sum)
	}
}

func TestIter(t *testing.T) {
	p := FromSlice([]int{1, 2})
	ctx := context.Background()
	iter := p.Iter(ctx)
	defer iter.Close()

	v1, ok, err := iter.Next(ctx)
	if err != nil || !ok || v1 != 1 {
		t.Errorf("first Next: val=%d ok=%v err=%v", v1, ok, err)
	}
	v2, ok, err := iter.Next(ctx)
	if err != nil || !ok || v2 != 2 {
		t.Errorf("second Next: val=%d ok=%v err=%v", v2, ok, err)
	}
	_, ok, err = iter.Next(ctx)
	if err != nil || ok {
		t.Errorf("third Next should be exhausted: ok=%v err=%v", ok, err)
	}
}

func TestContext_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Map(FromSlice([]int{1, 2, 3}), func(_ context.Context, n int) (int, error) { return n, nil })
	got, err := Collect(ctx, p)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no values, got %v", got)
	}
}

func TestChained_Pipeline(t *testing.T) {
	var tapped []int
	p := FromSlice([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	doubled := Map(p, func(_ context.Context, n int) (int, error) { return n * 2, nil })
	evens := Filter(doubled, func(n int) bool { return n%4 == 0 })
	observed := Tap(evens, func(_ context.Context, n int) error {
		tapped = append(tapped, n)
		return nil
	})
	batched := Batch(observed, 2)

	got, err := Collect(context.Background(), batched)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || !intSliceEqual(got[0], []int{4, 8}) || !intSliceEqual(got[2], []int{20}) {
		t.Errorf("unexpected batches %v", got)
	}
	if !intSliceEqual(tapped, []int{4, 8, 12, 16, 20}) {
		t.Errorf("tapped = %v, want [4 8 12 16 20]", tapped)
	}
}

func TestBatch(t *testing.T) {
	tests := []struct {
		name  string
		items []int
		size  int
		want  [][]int
	}{
		{"empty", nil, 3, nil},
		{"exact", []int{1, 2, 3, 4}, 2, [][]int{{1, 2}, {3, 4}}},
		{"remainder", []int{1, 2, 3}, 2, [][]int{{1, 2}, {3}}},
		{"single batch", []int{1, 2}, 10, [][]int{{1, 2}}},
		{"non-positive size", []int{1, 2}, 0, [][]int{{1}, {2}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Collect(context.Background(), Batch(FromSlice(tc.items), tc.size))
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if !intSliceEqual(got[i], tc.want[i]) {
					t.Errorf("batch %d = %v, want %v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestBatch_ErrorAfterPartial(t *testing.T) {
	boom := errors.New("boom")
	src := FlatMap(FromSlice([]int{1, 2}), func(_ context.Context, n int) (Iterator[int], error) {
		if n == 2 {
			return Fail[int](boom), nil
		}
		return Slice([]int{n}), nil
	})
	it := Batch(src, 5).Iter(context.Background())
	defer it.Close()

	batch, ok, err := it.Next(context.Background())
	if err != nil || !ok || !intSliceEqual(batch, []int{1}) {
		t.Fatalf("expected partial batch [1], got %v %v %v", batch, ok, err)
	}
	for i := 2; i <= 3; i++ {
		if _, ok, err := it.Next(context.Background()); ok || !errors.Is(err, boom) {
			t.Errorf("call %d: expected boom, got ok=%v err=%v", i, ok, err)
		}
	}
}

func TestPeekable(t *testing.T) {
	ctx := context.Background()
	p := NewPeekable(Slice([]int{1, 2}))
	defer p.Close()

	for i := 0; i < 2; i++ {
		v, ok, err := p.Peek(ctx)
		if err != nil || !ok || v != 1 {
			t.Fatalf("Peek #%d = %v %v %v", i, v, ok, err)
		}
	}
	if v, _, _ := p.Next(ctx); v != 1 {
		t.Errorf("Next = %d, want 1", v)
	}
	if v, _, _ := p.Next(ctx); v != 2 {
		t.Errorf("Next = %d, want 2", v)
	}
	if _, ok, err := p.Peek(ctx); ok || err != nil {
		t.Errorf("expected exhausted, got ok=%v err=%v", ok, err)
	}
	if _, ok, _ := p.Next(ctx); ok {
		t.Error("expected exhausted")
	}
}

func TestPeekable_KeepsError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	src := &nextCounter{Iterator: Fail[int](boom)}
	p := NewPeekable[int](src)

	if _, _, err := p.Peek(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, ok, err := p.Next(ctx); ok || !errors.Is(err, boom) {
		t.Errorf("expected boom again, got ok=%v err=%v", ok, err)
	}
	if src.calls != 1 {
		t.Errorf("source pulled %d times after failing, want 1", src.calls)
	}
}

func TestFailAndEmpty(t *testing.T) {
	boom := errors.New("missing source")
	if _, err := CollectIter(context.Background(), Fail[int](boom)); !errors.Is(err, boom) {
		t.Errorf("expected error, got %v", err)
	}
	got, err := CollectIter(context.Background(), Empty[int]())
	if err != nil || len(got) != 0 {
		t.Errorf("expected empty, got %v %v", got, err)
	}
}

type closeCounter struct {
	Iterator[int]
	closed int
}

func (c *closeCounter) Close() error {
	c.closed++
	return c.Iterator.Close()
}

func TestClose_PropagatesUpstream(t *testing.T) {
	src := &closeCounter{Iterator: Slice([]int{1, 2, 3})}
	p := Batch(Tap(Filter(Map(From[int](src), func(_ context.Context, n int) (int, error) { return n, nil }),
		func(int) bool { return true }),
		func(context.Context, int) error { return nil }), 1)

	it := p.Iter(context.Background())
	if _, _, err := it.Next(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := it.Close(); err != nil {
		t.Fatal(err)
	}
	if src.closed != 1 {
		t.Errorf("source closed %d times, want 1", src.closed)
	}
}

type nextCounter struct {
	Iterator[int]
	calls int
}

func (c *nextCounter) Next(ctx context.Context) (int, bool, error) {
	c.calls++
	return c.Iterator.Next(ctx)
}

func TestStage_StaysEnded(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	failing := Map(From[int](Fail[int](boom)), func(_ context.Context, n int) (int, error) { return n, nil }).Iter(ctx)
	for i := 0; i < 2; i++ {
		if _, ok, err := failing.Next(ctx); ok || !errors.Is(err, boom) {
			t.Errorf("call %d: expected sticky error, got ok=%v err=%v", i, ok, err)
		}
	}

	src := &nextCounter{Iterator: Slice([]int{1})}
	it := Filter(From[int](src), func(int) bool { return true }).Iter(ctx)
	for i := 0; i < 3; i++ {
		_, _, _ = it.Next(ctx)
	}
	if src.calls != 2 {
		t.Errorf("source pulled %d times, want 2", src.calls)
	}
}

func TestFlatMap_ClosesInner(t *testing.T) {
	var inners []*closeCounter
	p := FlatMap(FromSlice([]int{2, 0, 1}), func(_ context.Context, n int) (Iterator[int], error) {
		if n == 0 {
			return nil, nil
		}
		c := &closeCounter{Iterator: Slice(make([]int, n))}
		inners = append(inners, c)
		return c, nil
	})
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 values, got %v", got)
	}
	for i, c := range inners {
		if c.closed != 1 {
			t.Errorf("inner %d closed %d times, want 1", i, c.closed)
		}
	}
}

// --- helpers ---

func intSliceEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func strSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

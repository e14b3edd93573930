package ga

import "testing"

func TestRNGDeterministic(t *testing.T) {
	a := NewRNG(42)
	b := NewRNG(42)
	for i := 0; i < 100; i++ {
		va, vb := a.Uint64(), b.Uint64()
		if va != vb {
			t.Fatalf("same-seed streams diverged at step %d: %d != %d", i, va, vb)
		}
	}
}

func TestRNGDifferentSeedsDiverge(t *testing.T) {
	a := NewRNG(1)
	b := NewRNG(2)
	same := true
	for i := 0; i < 10; i++ {
		if a.Uint64() != b.Uint64() {
			same = false
			break
		}
	}
	if same {
		t.Fatal("distinct seeds produced identical streams")
	}
}

func TestRNGSplitDeterministic(t *testing.T) {
	root1 := NewRNG(7)
	root2 := NewRNG(7)
	child1 := root1.Split(3)
	child2 := root2.Split(3)
	for i := 0; i < 50; i++ {
		if child1.Uint64() != child2.Uint64() {
			t.Fatalf("split streams for same (seed, index) diverged at step %d", i)
		}
	}
}

func TestRNGSplitIndicesDiverge(t *testing.T) {
	root := NewRNG(7)
	c1 := root.Split(1)
	c2 := root.Split(2)
	same := true
	for i := 0; i < 10; i++ {
		if c1.Uint64() != c2.Uint64() {
			same = false
			break
		}
	}
	if same {
		t.Fatal("distinct split indices produced identical streams")
	}
}

func TestRNGIntnWithinRange(t *testing.T) {
	r := NewRNG(99)
	for i := 0; i < 1000; i++ {
		v := r.Intn(7)
		if v < 0 || v >= 7 {
			t.Fatalf("Intn(7) returned out-of-range value %d", v)
		}
	}
}

func TestRNGIntnPanicsOnNonPositive(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for Intn(0)")
		}
	}()
	NewRNG(1).Intn(0)
}

func TestRNGBoolBounds(t *testing.T) {
	r := NewRNG(5)
	for i := 0; i < 100; i++ {
		if r.Bool(0) {
			t.Fatal("Bool(0) must never return true")
		}
	}
	for i := 0; i < 100; i++ {
		if !r.Bool(1) {
			t.Fatal("Bool(1) must always return true")
		}
	}
}

package id

import "testing"

func TestNextMonotonic(t *testing.T) {
	g := NewGenerator()
	prev := g.Next()
	for i := 0; i < 1000; i++ {
		cur := g.Next()
		if cur.Compare(prev) <= 0 {
			t.Fatalf("id not increasing: %s <= %s", cur, prev)
		}
		prev = cur
	}
}

func TestClockBackwards(t *testing.T) {
	g := NewGenerator()
	saved := NowMs
	defer func() { NowMs = saved }()

	NowMs = func() int64 { return 1000 }
	a := g.Next()
	NowMs = func() int64 { return 900 }
	b := g.Next()
	if b.Compare(a) <= 0 {
		t.Fatalf("expected monotonic id despite clock regression")
	}
}

func TestStringHex(t *testing.T) {
	g := NewGenerator()
	s := g.Next().String()
	if len(s) != 32 {
		t.Fatalf("hex length: %d", len(s))
	}
}

package kmp

import "testing"

func TestSearch(t *testing.T) {
	for _, test := range []struct {
		pattern, space string
		sz, ofs        int
	}{
		{``, ``, 0, 0},
		{``, `a`, 0, 0},
		{`a`, ``, 0, 0},
		{`a`, `a`, 1, 0},
		{`a`, `ax`, 1, 0},
		{`a`, `xa`, 1, 1},
		{`ab`, `a`, 1, 0},
		{`ab`, `xax`, 1, 1},
		{`ab`, `abab`, 2, 0},
		{`ab`, `xabx`, 2, 1},
		{`stop`, `nonstop`, 4, 3},
		{`stop`, `xxst`, 2, 2},
	} {
		sz, ofs := Search([]byte(test.pattern), []byte(test.space))
		t.Logf(`Search(%q, %q) = #%v@%v`, test.pattern, test.space, sz, ofs)
		if sz != test.sz || ofs != test.ofs {
			t.Errorf(`Test failed, expected #%v@%v`, test.sz, test.ofs)
		}
	}
}

func TestOverlap(t *testing.T) {
	for _, test := range []struct {
		left, right string
		n           int
	}{
		{``, ``, 0},
		{``, `abc`, 0},
		{`abc`, ``, 0},
		{`abc`, `bcd`, 2},
		{`abc`, `abc`, 3},
		{`abc`, `def`, 0},
		{`abcd`, `bcd`, 3},
		{`abc`, `abcd`, 3},
		{`bcd`, `abc`, 0},
		{`aaaa`, `aa`, 2},
		{`abab`, `ababx`, 4},
		{`xabab`, `abab`, 4},
		{`aabaab`, `aabx`, 3},
	} {
		n := Overlap([]byte(test.left), []byte(test.right))
		if n != test.n {
			t.Errorf(`Overlap(%q, %q) = %v, expected %v`, test.left, test.right, n, test.n)
		}
	}
}

func TestOverlapFunc(t *testing.T) {
	left, right := []byte(`abababab`), []byte(`ababababx`)
	var seen []int
	n := OverlapFunc(left, right, func(n int) bool {
		seen = append(seen, n)
		return n < 5
	})
	if n != 4 {
		t.Errorf(`expected 4, got %v`, n)
	}
	if len(seen) != 3 || seen[0] != 8 || seen[1] != 6 || seen[2] != 4 {
		t.Errorf(`expected borders 8, 6, 4 to be offered, got %v`, seen)
	}

	n = OverlapFunc(left, right, func(int) bool { return false })
	if n != 0 {
		t.Errorf(`expected 0 when nothing is accepted, got %v`, n)
	}
}

func TestOverlapTokens(t *testing.T) {
	n := Overlap([]int{1, 2, 3, 4}, []int{3, 4, 5})
	if n != 2 {
		t.Errorf(`expected 2, got %v`, n)
	}
}

// TestOverlapBruteForce compares Overlap with a quadratic scan over every pair drawn from a small alphabet.
func TestOverlapBruteForce(t *testing.T) {
	words := []string{``, `a`, `b`, `aa`, `ab`, `ba`, `aab`, `aba`, `abab`, `baab`, `aaba`, `babab`}
	for _, left := range words {
		for _, right := range words {
			want := 0
			for m := len(left); m > 0; m-- {
				if m <= len(right) && left[len(left)-m:] == right[:m] {
					want = m
					break
				}
			}
			if got := Overlap([]byte(left), []byte(right)); got != want {
				t.Errorf(`Overlap(%q, %q) = %v, expected %v`, left, right, got, want)
			}
		}
	}
}

package canon

import "testing"

func TestRegistryBijection(t *testing.T) {
	r := New()
	if r.Len() != 66 {
		t.Fatalf("Len() = %d, want 66", r.Len())
	}

	seen := make(map[int]Code)
	for i, b := range r.Books() {
		if b.Order != i+1 {
			t.Errorf("%s: Order = %d, want %d", b.Code, b.Order, i+1)
		}
		if prev, dup := seen[b.Order]; dup {
			t.Errorf("order %d used by %s and %s", b.Order, prev, b.Code)
		}
		seen[b.Order] = b.Code

		wantTestament := NT
		if b.Order <= 39 {
			wantTestament = OT
		}
		if got := r.Testament(b.Code); got != wantTestament {
			t.Errorf("Testament(%s) = %s, want %s", b.Code, got, wantTestament)
		}
		if got := r.Order(b.Code); got != b.Order {
			t.Errorf("Order(%s) = %d, want %d", b.Code, got, b.Order)
		}
	}
	for order := 1; order <= 66; order++ {
		if _, ok := seen[order]; !ok {
			t.Errorf("order %d has no book", order)
		}
	}
}

func TestTestamentBoundary(t *testing.T) {
	r := New()
	if got := r.Testament("MAL"); got != OT {
		t.Errorf("Testament(MAL) = %s, want OT", got)
	}
	if got := r.Order("MAL"); got != 39 {
		t.Errorf("Order(MAL) = %d, want 39", got)
	}
	if got := r.Testament("MAT"); got != NT {
		t.Errorf("Testament(MAT) = %s, want NT", got)
	}
	if got := r.Order("REV"); got != 66 {
		t.Errorf("Order(REV) = %d, want 66", got)
	}
}

func TestNormalize(t *testing.T) {
	r := New()
	tests := []struct {
		raw    string
		want   Code
		wantOK bool
	}{
		{"GEN", "GEN", true},
		{"gen", "GEN", true},
		{" Gen ", "GEN", true},
		{"Exod", "EXO", true},
		{"1Sam", "1SA", true},
		{"1 Samuel", "1SA", true},
		{"1_samuel", "1SA", true},
		{"Song of Songs", "SNG", true},
		{"Ps", "PSA", true},
		{"Psalm", "PSA", true},
		{"Matt", "MAT", true},
		{"John", "JHN", true},
		{"1John", "1JN", true},
		{"Phlm", "PHM", true},
		{"Jude", "JUD", true},
		{"Judg", "JDG", true},
		{"ZZZ", "", false},
		{"TOB", "", false},
		{"", "", false},
		{"   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := r.Normalize(tt.raw)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Normalize(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNameAndUnknown(t *testing.T) {
	r := New()
	if got := r.Name("SNG"); got != "Song of Solomon" {
		t.Errorf("Name(SNG) = %q", got)
	}
	if got := r.Name("ZZZ"); got != "ZZZ" {
		t.Errorf("Name(ZZZ) = %q, want the code back", got)
	}
	if got := r.Order("ZZZ"); got != 0 {
		t.Errorf("Order(ZZZ) = %d, want 0", got)
	}
	if got := r.Testament("ZZZ"); got != "" {
		t.Errorf("Testament(ZZZ) = %q, want empty", got)
	}
	if _, ok := r.Book("ZZZ"); ok {
		t.Error("Book(ZZZ) reported ok")
	}
}

func TestBooksReturnsCopy(t *testing.T) {
	r := New()
	books := r.Books()
	books[0].Name = "changed"
	if r.Name("GEN") != "Genesis" {
		t.Error("mutating Books() result changed the registry")
	}
}

func TestEveryBookResolvesByAllKeys(t *testing.T) {
	r := New()
	for _, b := range r.Books() {
		for _, raw := range []string{string(b.Code), b.OSIS, b.Name} {
			got, ok := r.Normalize(raw)
			if !ok || got != b.Code {
				t.Errorf("Normalize(%q) = (%q, %v), want %s", raw, got, ok, b.Code)
			}
		}
	}
}

package pagination

import "testing"

func TestNormalizeDefaults(t *testing.T) {
	p := Params{}.Normalize()
	if p.Page != 1 {
		t.Fatalf("expected page 1, got %d", p.Page)
	}
	if p.Size != DefaultSize {
		t.Fatalf("expected size %d, got %d", DefaultSize, p.Size)
	}
}

func TestNormalizeCapsSize(t *testing.T) {
	p := Params{Page: 3, Size: 5000}.Normalize()
	if p.Size != MaxSize {
		t.Fatalf("expected size capped at %d, got %d", MaxSize, p.Size)
	}
	if p.Page != 3 {
		t.Fatalf("expected page preserved, got %d", p.Page)
	}
}

func TestLimitOffset(t *testing.T) {
	p := Params{Page: 3, Size: 25}
	if p.Limit() != 25 {
		t.Fatalf("unexpected limit %d", p.Limit())
	}
	if p.Offset() != 50 {
		t.Fatalf("unexpected offset %d", p.Offset())
	}
}

func TestNegativeValuesNormalize(t *testing.T) {
	p := Params{Page: -4, Size: -1}.Normalize()
	if p.Page != 1 || p.Size != DefaultSize {
		t.Fatalf("unexpected normalized params %+v", p)
	}
}

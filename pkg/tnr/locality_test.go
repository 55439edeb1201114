package tnr

import "testing"

func TestSearchSpaceIntersects(t *testing.T) {
	big := make(SearchSpace, 100)
	for i := range big {
		big[i] = uint32(2 * i)
	}

	tests := []struct {
		name string
		a, b SearchSpace
		want bool
	}{
		{"both empty", nil, nil, false},
		{"one empty", SearchSpace{1, 2}, nil, false},
		{"disjoint", SearchSpace{1, 3, 5}, SearchSpace{2, 4, 6}, false},
		{"shared last", SearchSpace{1, 3, 9}, SearchSpace{2, 9}, true},
		{"identical", SearchSpace{4}, SearchSpace{4}, true},
		{"lopsided hit", SearchSpace{150}, big, true},
		{"lopsided miss", SearchSpace{151}, big, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Intersects(tt.b); got != tt.want {
				t.Errorf("a∩b = %v, want %v", got, tt.want)
			}
			if got := IsLocal(tt.b, tt.a); got != tt.want {
				t.Errorf("IsLocal(b, a) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSearchSpaceContains(t *testing.T) {
	s := SearchSpace{1, 4, 9}
	for u, want := range map[uint32]bool{0: false, 1: true, 4: true, 5: false, 9: true, 10: false} {
		if got := s.Contains(u); got != want {
			t.Errorf("Contains(%d) = %v", u, got)
		}
	}
}

package access

import "testing"

func TestGateAllowed(t *testing.T) {
	tests := []struct {
		name     string
		ids      []int64
		callerID int64
		want     bool
	}{
		{name: "listed caller", ids: []int64{42, 1001}, callerID: 42, want: true},
		{name: "unlisted caller", ids: []int64{42}, callerID: 7, want: false},
		{name: "empty list denies all", ids: nil, callerID: 42, want: false},
		{name: "negative ids are plain keys", ids: []int64{-5}, callerID: -5, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGate(tt.ids)
			if got := g.Allowed(tt.callerID); got != tt.want {
				t.Fatalf("Allowed(%d) = %v, want %v", tt.callerID, got, tt.want)
			}
		})
	}
}

func TestGateDuplicatesCollapse(t *testing.T) {
	g := NewGate([]int64{1, 1, 2})
	if g.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", g.Len())
	}
}

func TestGateDoesNotAliasInput(t *testing.T) {
	ids := []int64{1}
	g := NewGate(ids)
	ids[0] = 2

	if !g.Allowed(1) || g.Allowed(2) {
		t.Fatal("gate changed after caller mutated its slice")
	}
}

func TestNilGate(t *testing.T) {
	var g *Gate
	if g.Allowed(1) {
		t.Fatal("nil gate must deny")
	}
	if g.Len() != 0 {
		t.Fatal("nil gate must be empty")
	}
}

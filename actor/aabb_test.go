package actor

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestAABB_ContainsPoint(t *testing.T) {
	box := AABB{Min: mgl64.Vec2{0, 0}, Max: mgl64.Vec2{10, 10}}

	tests := []struct {
		name  string
		point mgl64.Vec2
		want  bool
	}{
		{"inside", mgl64.Vec2{5, 5}, true},
		{"on edge", mgl64.Vec2{0, 5}, true},
		{"on corner", mgl64.Vec2{10, 10}, true},
		{"outside x", mgl64.Vec2{11, 5}, false},
		{"outside y", mgl64.Vec2{5, -1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := box.ContainsPoint(tt.point); got != tt.want {
				t.Errorf("ContainsPoint(%v) = %v, want %v", tt.point, got, tt.want)
			}
		})
	}
}

func TestAABB_Overlaps(t *testing.T) {
	base := AABB{Min: mgl64.Vec2{0, 0}, Max: mgl64.Vec2{10, 10}}

	tests := []struct {
		name  string
		other AABB
		want  bool
	}{
		{"overlapping", AABB{Min: mgl64.Vec2{5, 5}, Max: mgl64.Vec2{15, 15}}, true},
		{"contained", AABB{Min: mgl64.Vec2{2, 2}, Max: mgl64.Vec2{4, 4}}, true},
		{"touching edge", AABB{Min: mgl64.Vec2{10, 0}, Max: mgl64.Vec2{20, 10}}, true},
		{"disjoint x", AABB{Min: mgl64.Vec2{11, 0}, Max: mgl64.Vec2{20, 10}}, false},
		{"disjoint y", AABB{Min: mgl64.Vec2{0, 11}, Max: mgl64.Vec2{10, 20}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Overlaps(tt.other); got != tt.want {
				t.Errorf("Overlaps(%+v) = %v, want %v", tt.other, got, tt.want)
			}
			// Overlap is symmetric
			if got := tt.other.Overlaps(base); got != tt.want {
				t.Errorf("reverse Overlaps = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAABB_Expanded(t *testing.T) {
	box := AABB{Min: mgl64.Vec2{0, 0}, Max: mgl64.Vec2{2, 2}}
	grown := box.Expanded(1)

	if grown.Min != (mgl64.Vec2{-1, -1}) || grown.Max != (mgl64.Vec2{3, 3}) {
		t.Errorf("Expanded(1) = %+v", grown)
	}
}

func TestAABB_Center(t *testing.T) {
	box := AABB{Min: mgl64.Vec2{0, 0}, Max: mgl64.Vec2{4, 8}}
	if box.Center() != (mgl64.Vec2{2, 4}) {
		t.Errorf("Center() = %v, want (2,4)", box.Center())
	}
}

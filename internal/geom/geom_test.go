package geom

import "testing"

func TestQuadrantAroundCenter(t *testing.T) {
	r := Rect{X: 10, Y: 20, Width: 80, Height: 60, Border: 10}
	// Full size is 100x80, so the center is (60, 60).
	center := Point{X: 60, Y: 60}

	tests := []struct {
		name  string
		nudge Point
		want  Quadrant
	}{
		{"exact center goes top-left", Point{0, 0}, TopLeft},
		{"left and up", Point{-1, -1}, TopLeft},
		{"right only", Point{1, 0}, TopRight},
		{"right and up", Point{1, -1}, TopRight},
		{"down only", Point{0, 1}, BottomLeft},
		{"left and down", Point{-1, 1}, BottomLeft},
		{"right and down", Point{1, 1}, BottomRight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Quadrant(center.Add(tt.nudge))
			if !ok {
				t.Fatalf("Quadrant(%v) reported outside", center.Add(tt.nudge))
			}
			if got != tt.want {
				t.Errorf("Quadrant(%v) = %v, want %v", center.Add(tt.nudge), got, tt.want)
			}
		})
	}
}

func TestQuadrantOutside(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 30, Height: 30}
	for _, p := range []Point{{-1, 0}, {0, -1}, {31, 5}, {5, 31}} {
		if q, ok := r.Quadrant(p); ok {
			t.Errorf("Quadrant(%v) = %v, want outside", p, q)
		}
	}
}

func TestResized(t *testing.T) {
	base := Rect{X: 100, Y: 100, Width: 50, Height: 40, Border: 10}

	tests := []struct {
		name  string
		q     Quadrant
		delta Point
		want  Rect
	}{
		{
			name:  "bottom-right grows",
			q:     BottomRight,
			delta: Point{10, 5},
			want:  Rect{X: 100, Y: 100, Width: 60, Height: 45, Border: 10},
		},
		{
			name:  "top-left shrinks toward bottom-right",
			q:     TopLeft,
			delta: Point{10, 5},
			want:  Rect{X: 110, Y: 105, Width: 40, Height: 35, Border: 10},
		},
		{
			name:  "top-right moves top edge only",
			q:     TopRight,
			delta: Point{10, -5},
			want:  Rect{X: 100, Y: 95, Width: 60, Height: 45, Border: 10},
		},
		{
			name:  "bottom-left moves left edge only",
			q:     BottomLeft,
			delta: Point{-10, 5},
			want:  Rect{X: 90, Y: 100, Width: 60, Height: 45, Border: 10},
		},
		{
			name:  "bottom-right floors at one pixel",
			q:     BottomRight,
			delta: Point{-500, -500},
			want:  Rect{X: 100, Y: 100, Width: 1, Height: 1, Border: 10},
		},
		{
			name:  "top-left floor keeps far corner fixed",
			q:     TopLeft,
			delta: Point{500, 500},
			want:  Rect{X: 149, Y: 139, Width: 1, Height: 1, Border: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := base.Resized(tt.q, tt.delta)
			if got != tt.want {
				t.Errorf("Resized(%v, %v) = %+v, want %+v", tt.q, tt.delta, got, tt.want)
			}
		})
	}
}

func TestResizedNeverBelowOne(t *testing.T) {
	base := Rect{X: 0, Y: 0, Width: 3, Height: 3}
	for _, q := range []Quadrant{TopLeft, TopRight, BottomLeft, BottomRight} {
		for dx := -10; dx <= 10; dx++ {
			for dy := -10; dy <= 10; dy++ {
				got := base.Resized(q, Point{dx, dy})
				if got.Width < 1 || got.Height < 1 {
					t.Fatalf("Resized(%v, (%d,%d)) = %+v, want size >= 1", q, dx, dy, got)
				}
			}
		}
	}
}

func TestMoved(t *testing.T) {
	r := Rect{X: 5, Y: 6, Width: 7, Height: 8, Border: 1}
	got := r.Moved(Point{-5, 4})
	want := Rect{X: 0, Y: 10, Width: 7, Height: 8, Border: 1}
	if got != want {
		t.Errorf("Moved = %+v, want %+v", got, want)
	}
}

package fiber

import (
	"math"
	"testing"
	"time"
)

func TestSameValue(t *testing.T) {
	type point struct{ X, Y int }
	m := map[string]int{}
	s := []int{1, 2, 3}
	p := &point{1, 2}
	f := func() {}
	n := 0
	g := func() { n++ }
	ch := make(chan int)

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"nil", nil, nil, true},
		{"nil and zero", nil, 0, false},
		{"ints", 3, 3, true},
		{"different ints", 3, 4, false},
		{"int and int64", 3, int64(3), false},
		{"strings", "a", "a", true},
		{"bools", true, false, false},
		{"NaN", math.NaN(), math.NaN(), true},
		{"float32 NaN", float32(math.NaN()), float32(math.NaN()), true},
		{"signed zeros", 0.0, math.Copysign(0, -1), false},
		{"equal floats", 1.5, 1.5, true},
		{"structs", point{1, 2}, point{1, 2}, true},
		{"different structs", point{1, 2}, point{2, 1}, false},
		{"same pointer", p, p, true},
		{"equal pointees", p, &point{1, 2}, false},
		{"same map", m, m, true},
		{"distinct maps", map[string]int{}, map[string]int{}, false},
		{"same slice", s, s, true},
		{"resliced", s, s[:2], false},
		{"distinct slices", []int{1}, []int{1}, false},
		{"same func", f, f, true},
		{"distinct closures", f, g, false},
		{"same chan", ch, ch, true},
		{"arrays", [2]int{1, 2}, [2]int{1, 2}, true},
		{"durations", time.Second, time.Second, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameValue(tt.a, tt.b); got != tt.want {
				t.Errorf("SameValue(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestDepsEqual(t *testing.T) {
	tests := []struct {
		name       string
		next, prev Deps
		want       bool
	}{
		{"equal", Deps{1, "a"}, Deps{1, "a"}, true},
		{"changed", Deps{1, "a"}, Deps{2, "a"}, false},
		{"shorter next", Deps{1}, Deps{1, "a"}, true},
		{"longer next", Deps{1, "a", 3}, Deps{1, "a"}, true},
		{"empty", Deps{}, Deps{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := depsEqual(tt.next, tt.prev); got != tt.want {
				t.Errorf("depsEqual(%v, %v) = %v, want %v", tt.next, tt.prev, got, tt.want)
			}
		})
	}

	if skipEffect(nil, Deps{1}) || skipEffect(Deps{1}, nil) {
		t.Error("skipEffect with nil deps = true, want false")
	}
	if !skipEffect(Deps{}, Deps{}) {
		t.Error("skipEffect(empty, empty) = false, want true")
	}
}

package board

import "testing"

func TestFilterConfigIsOk(t *testing.T) {
	cases := []struct {
		name string
		cfg  FilterConfig
		want bool
	}{
		{"valid", FilterConfig{High: 10, Low: 1, SizeMin: 0.5}, true},
		{"zero high", FilterConfig{High: 0, Low: 1, SizeMin: 0.5}, false},
		{"negative low", FilterConfig{High: 10, Low: -1, SizeMin: 0.5}, false},
		{"zero size_min", FilterConfig{High: 10, Low: 1, SizeMin: 0}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.cfg.IsOk(); got != c.want {
				t.Errorf("IsOk() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestIsSelfRequiresOwnPrice(t *testing.T) {
	c := FilterConfig{High: 10, Low: 0, SizeMin: 1}
	l := Level{Price: 5, Size: 2}
	if c.IsSelf(l, nil) {
		t.Fatal("expected no self-exclusion without an own price")
	}
	own := 5.0
	if !c.IsSelf(l, &own) {
		t.Fatal("expected self-exclusion when own price matches")
	}
}

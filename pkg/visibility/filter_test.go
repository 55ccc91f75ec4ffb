package visibility

import (
	"reflect"
	"testing"

	"github.com/vanderheijden86/sensemap/pkg/model"
	"github.com/vanderheijden86/sensemap/pkg/testutil"

	"gonum.org/v1/gonum/spatial/r2"
)

var senses = model.DefaultPalette().Names()

func TestIsVisible(t *testing.T) {
	b := testutil.NewDefault()
	sound := b.Core("sound", r2.Vec{})
	blend := b.Blend(r2.Vec{}, map[string]float64{"sight": 0.4, "sound": 0.6})
	weak := b.Blend(r2.Vec{}, map[string]float64{"sight": 0.3, "touch": 0.7})

	tests := []struct {
		name   string
		point  model.Point
		active []string
		want   bool
	}{
		{"concrete in set", sound, []string{"sound"}, true},
		{"concrete out of set", sound, []string{"sight", "touch"}, false},
		{"mixed with heavy component active", blend, []string{"sight"}, true},
		{"mixed with other component active", blend, []string{"sound"}, true},
		{"mixed with no component active", blend, []string{"touch"}, false},
		{"weight exactly at threshold", weak, []string{"sight"}, false},
		{"empty set", sound, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSet(senses...)
			s.Update(tt.active)
			if got := IsVisible(tt.point, s); got != tt.want {
				t.Errorf("IsVisible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStyle(t *testing.T) {
	p := testutil.NewDefault().Core("sight", r2.Vec{})

	op, events := Style(p, true)
	if op != p.Opacity || !events {
		t.Errorf("visible: got %v/%v", op, events)
	}
	op, events = Style(p, false)
	if op != DimmedOpacity || events {
		t.Errorf("hidden: got %v/%v", op, events)
	}
}

func TestSet_Toggle(t *testing.T) {
	s := NewSet(senses...)
	if got := s.Active(); !reflect.DeepEqual(got, senses) {
		t.Fatalf("all categories should start enabled, got %v", got)
	}

	if s.Toggle("touch") {
		t.Error("toggle should disable an enabled category")
	}
	if s.Has("touch") {
		t.Error("touch should be off")
	}
	if !s.Toggle("touch") {
		t.Error("second toggle should enable")
	}
	if s.Toggle("umami") || s.Known("umami") {
		t.Error("unknown categories are ignored")
	}
}

func TestSet_UpdateKeepsOrder(t *testing.T) {
	s := NewSet(senses...)
	s.Update([]string{"taste", "sight", "umami"})
	want := []string{"sight", "taste"}
	if got := s.Active(); !reflect.DeepEqual(got, want) {
		t.Errorf("Active() = %v, want %v", got, want)
	}

	s.EnableAll()
	if len(s.Active()) != len(senses) {
		t.Error("EnableAll should enable every category")
	}
}

func TestSet_Clone(t *testing.T) {
	s := NewSet(senses...)
	c := s.Clone()
	c.Disable("sight")
	if !s.Has("sight") {
		t.Error("clone must not share state")
	}
	if !reflect.DeepEqual(c.Order(), s.Order()) {
		t.Error("clone should keep the order")
	}
}

func TestNewSet_DropsDuplicates(t *testing.T) {
	s := NewSet("a", "b", "a")
	if got := s.Order(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Order() = %v", got)
	}
}

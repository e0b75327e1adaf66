package perm

import "testing"

func TestMaskComposition(t *testing.T) {
	grant := Read | Modify // 12

	for _, want := range []Mask{Read, Modify, Read | Modify} {
		if !grant.Contains(want) {
			t.Errorf("mask %d should satisfy %d", grant, want)
		}
	}
	for _, want := range []Mask{Create, Delete, Read | Delete} {
		if grant.Contains(want) {
			t.Errorf("mask %d should not satisfy %d", grant, want)
		}
	}
}

func TestMaskBits(t *testing.T) {
	if Read != 8 || Modify != 4 || Create != 2 || Delete != 1 {
		t.Fatalf("mask bits wrong: read=%d modify=%d create=%d delete=%d", Read, Modify, Create, Delete)
	}
	if All != 15 {
		t.Fatalf("All = %d, want 15", All)
	}
}

func TestFromName(t *testing.T) {
	for name, want := range map[string]Mask{
		"read": Read, "READ": Read, " modify ": Modify, "create": Create, "delete": Delete,
	} {
		got, ok := FromName(name)
		if !ok || got != want {
			t.Errorf("FromName(%q) = %d, %v; want %d", name, got, ok, want)
		}
	}
	if _, ok := FromName("write"); ok {
		t.Error("FromName accepted unknown permission name")
	}
}

func TestMaskValid(t *testing.T) {
	if Mask(0).Valid() {
		t.Error("zero mask must be invalid")
	}
	if Mask(16).Valid() {
		t.Error("out-of-field mask must be invalid")
	}
	if !Mask(15).Valid() || !Mask(1).Valid() {
		t.Error("in-range masks must be valid")
	}
}

func TestMaskString(t *testing.T) {
	if got := (Read | Modify).String(); got != "read+modify" {
		t.Fatalf("String() = %q", got)
	}
	if got := Mask(0).String(); got != "none" {
		t.Fatalf("String() = %q", got)
	}
}

package uiid

import "testing"

func TestRegistry_ResolveKnownFamilies(t *testing.T) {
	reg := NewRegistry()

	for _, uiid := range []int{1, 104, 174, 191, 7003, 7014, 7016} {
		a := reg.Resolve(uiid)
		if a == nil {
			t.Fatalf("Resolve(%d) returned nil", uiid)
		}
		if a.UIID() != uiid {
			t.Errorf("Resolve(%d).UIID() = %d", uiid, a.UIID())
		}
	}
}

func TestRegistry_ResolveUnknownFamily(t *testing.T) {
	reg := NewRegistry()

	a := reg.Resolve(9999)
	if a == nil {
		t.Fatal("Resolve(9999) returned nil")
	}
	if a.UIID() != 9999 {
		t.Errorf("UIID() = %d, want 9999", a.UIID())
	}

	// The fallback behaves like a basic relay.
	params, err := a.SwitchParams(true)
	if err != nil {
		t.Fatalf("SwitchParams() error = %v", err)
	}
	if params["switch"] != "on" {
		t.Errorf("SwitchParams() = %v, want flat switch field", params)
	}
}

func TestRegistry_ResolveMemoizes(t *testing.T) {
	reg := NewRegistry()

	first := reg.Resolve(104)
	second := reg.Resolve(104)
	if first != second {
		t.Error("Resolve returned distinct instances for the same family")
	}
}

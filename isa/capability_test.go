package isa

import "testing"

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

func TestNullCapabilityIsUnusable(t *testing.T) {
	c := NullCapability()
	assert(t, !c.Valid, "null capability should be invalid")
	assert(t, !c.Usable(), "null capability should be unusable")
	assert(t, !c.CanRead() && !c.CanWrite() && !c.CanExec() && !c.CanSeal(), "null capability should grant no permissions")
}

func TestUsablePredicate(t *testing.T) {
	cases := []struct {
		name   string
		cap    Capability
		usable bool
	}{
		{"valid unsealed", Capability{Valid: true, Sealed: false}, true},
		{"valid sealed", Capability{Valid: true, Sealed: true}, false},
		{"invalid unsealed", Capability{Valid: false, Sealed: false}, false},
		{"invalid sealed", Capability{Valid: false, Sealed: true}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert(t, tc.cap.Usable() == tc.usable, "Usable() = %v, want %v", tc.cap.Usable(), tc.usable)
		})
	}
}

func TestInBounds(t *testing.T) {
	c := Capability{Length: 16}
	assert(t, c.InBounds(0, 16), "0+16 should fit exactly within length 16")
	assert(t, !c.InBounds(0, 17), "0+17 should not fit within length 16")
	assert(t, !c.InBounds(8, 9), "8+9 should not fit within length 16")
	assert(t, c.InBounds(8, 8), "8+8 should fit exactly within length 16")
}

func TestInBoundsOverflow(t *testing.T) {
	c := Capability{Length: 16}
	huge := ^uint64(0) - 3
	assert(t, !c.InBounds(huge, 10), "off+size overflow must be rejected as out of bounds")
}

func TestAddressWraps(t *testing.T) {
	c := Capability{Base: ^uint64(0), Offset: 2}
	assert(t, c.Address() == 1, "address should wrap: got %d, want 1", c.Address())
}

func TestWithOffsetDoesNotAliasOriginal(t *testing.T) {
	orig := Capability{Base: 0x1000, Length: 16, Offset: 0, Valid: true}
	moved := orig.WithOffset(8)
	assert(t, orig.Offset == 0, "original capability must not be mutated")
	assert(t, moved.Offset == 8, "returned copy should carry the new offset")
}

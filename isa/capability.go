// Package isa implements the capability-checked 16-bit instruction set:
// the capability value, the checked memory primitives built on top of it,
// the trap taxonomy, the instruction format, and the CPU step loop.
package isa

// Perm is a bitfield of the access rights a Capability grants.
type Perm uint8

const (
	// PermRead authorizes load access through the capability.
	PermRead Perm = 0x01
	// PermWrite authorizes store access through the capability.
	PermWrite Perm = 0x02
	// PermExec authorizes instruction fetch through the capability.
	PermExec Perm = 0x04
	// PermSeal marks a capability as carrying the (currently unused)
	// sealing right. No instruction in this ISA seals or unseals a
	// capability; the bit exists for forward compatibility only.
	PermSeal Perm = 0x80
)

// Capability is an immutable descriptor that bounds and permissions a
// window of memory. Capabilities are values: copying one never aliases
// the original, and there is no provenance tag beyond Valid.
type Capability struct {
	Base   uint64
	Length uint64
	Offset uint64
	Perms  Perm
	Valid  bool
	Sealed bool
}

// NullCapability returns the all-zero, invalid capability.
func NullCapability() Capability {
	return Capability{}
}

// CanRead reports whether the capability's permission bits include read.
func (c Capability) CanRead() bool { return c.Perms&PermRead != 0 }

// CanWrite reports whether the capability's permission bits include write.
func (c Capability) CanWrite() bool { return c.Perms&PermWrite != 0 }

// CanExec reports whether the capability's permission bits include exec.
func (c Capability) CanExec() bool { return c.Perms&PermExec != 0 }

// CanSeal reports whether the capability's permission bits include seal.
func (c Capability) CanSeal() bool { return c.Perms&PermSeal != 0 }

// Usable reports whether the capability may be dereferenced at all:
// valid and not sealed.
func (c Capability) Usable() bool { return c.Valid && !c.Sealed }

// Address returns the capability's effective address, base+offset,
// wrapping on overflow.
func (c Capability) Address() uint64 { return c.Base + c.Offset }

// InBounds reports whether an access of size bytes starting at byte
// offset off (relative to Base) fits within [0, Length), detecting the
// off+size overflow case as out of bounds rather than wrapping into
// range.
func (c Capability) InBounds(off, size uint64) bool {
	end := off + size
	if end < off {
		// off+size overflowed a uint64.
		return false
	}
	return end <= c.Length
}

// WithOffset returns a copy of c with Offset replaced by newOffset. The
// caller is responsible for bounds-checking newOffset first (see
// isa/exec.go's cap.offset handler).
func (c Capability) WithOffset(newOffset uint64) Capability {
	c.Offset = newOffset
	return c
}

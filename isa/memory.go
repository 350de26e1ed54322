package isa

import "encoding/binary"

// DefaultMemorySize is the default backing store size, 4 MiB, matching
// spec §3. It equals config.Default().MemorySizeBytes, which is the value
// cmd/emulator actually uses when no -config file overrides it.
const DefaultMemorySize = 4 * 1024 * 1024

// Memory is the flat, capability-checked byte array backing an
// emulator instance. All guest-visible access goes through Load8,
// Load64, Fetch16, or Store64.
type Memory struct {
	bytes []byte
}

// NewMemory allocates a zeroed backing store of the given size.
func NewMemory(size int) *Memory {
	return &Memory{bytes: make([]byte, size)}
}

// Len returns the size of the backing store in bytes.
func (m *Memory) Len() int { return len(m.bytes) }

// checkAccess performs the four checks common to every primitive, in
// the order spec §4.2 requires: usability, permission, bounds,
// host bounds. It returns the computed flat offset into m.bytes, or a
// trap describing why the access is rejected.
func (m *Memory) checkAccess(cap Capability, addr uint64, size uint64, need Perm) (uint64, Trap) {
	if !cap.Usable() {
		return 0, capViolation()
	}
	if cap.Perms&need == 0 {
		return 0, capViolation()
	}
	off := addr - cap.Base
	if !cap.InBounds(off, size) {
		return 0, outOfBounds()
	}
	if addr+size > uint64(len(m.bytes)) || addr+size < addr {
		return 0, outOfBounds()
	}
	return addr, Trap{}
}

// Load8 reads one byte at addr through cap, which must carry PermRead.
func (m *Memory) Load8(addr uint64, cap Capability) (uint8, Trap) {
	flat, trap := m.checkAccess(cap, addr, 1, PermRead)
	if trap.Kind != TrapNone {
		return 0, trap
	}
	return m.bytes[flat], Trap{}
}

// Load64 reads eight little-endian bytes at addr through cap, which
// must carry PermRead.
func (m *Memory) Load64(addr uint64, cap Capability) (uint64, Trap) {
	flat, trap := m.checkAccess(cap, addr, 8, PermRead)
	if trap.Kind != TrapNone {
		return 0, trap
	}
	return binary.LittleEndian.Uint64(m.bytes[flat : flat+8]), Trap{}
}

// Fetch16 reads two little-endian bytes at pc through cap, which must
// carry PermExec. Used only for instruction fetch.
func (m *Memory) Fetch16(pc uint64, cap Capability) (uint16, Trap) {
	flat, trap := m.checkAccess(cap, pc, 2, PermExec)
	if trap.Kind != TrapNone {
		return 0, trap
	}
	return binary.LittleEndian.Uint16(m.bytes[flat : flat+2]), Trap{}
}

// Store64 writes eight little-endian bytes of val at addr through cap,
// which must carry PermWrite.
func (m *Memory) Store64(addr uint64, val uint64, cap Capability) Trap {
	flat, trap := m.checkAccess(cap, addr, 8, PermWrite)
	if trap.Kind != TrapNone {
		return trap
	}
	binary.LittleEndian.PutUint64(m.bytes[flat:flat+8], val)
	return Trap{}
}

// LoadBytesUnchecked returns the length bytes starting at addr as a
// slice of the backing store itself (not a copy), bypassing capability
// checks. Nothing in this repository calls it; the loader writes with
// StoreBytesUnchecked and the print-cstring syscall reads through Load8.
func (m *Memory) LoadBytesUnchecked(addr uint64, length int) []byte {
	return m.bytes[addr : addr+uint64(length)]
}

// StoreBytesUnchecked copies data into the backing store starting at
// addr, bypassing capability checks. Used only by the loader.
func (m *Memory) StoreBytesUnchecked(addr uint64, data []byte) {
	copy(m.bytes[addr:], data)
}

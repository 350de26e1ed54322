package isa

import (
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// HeaderSize is the fixed size, in bytes, of an OSL binary header.
const HeaderSize = 40

// Header is the five-field OSL binary header (§3, §6): entry,
// text_base, text_size, data_base, data_size, all little-endian u64.
type Header struct {
	Entry    uint64
	TextBase uint64
	TextSize uint64
	DataBase uint64
	DataSize uint64
}

// Binary is a fully parsed OSL binary: its header plus the raw text
// and data payload bytes.
type Binary struct {
	Header Header
	Text   []byte
	Data   []byte
}

// EncodeHeader writes h's five fields into a fresh 40-byte buffer.
func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint64(buf[0x00:], h.Entry)
	binary.LittleEndian.PutUint64(buf[0x08:], h.TextBase)
	binary.LittleEndian.PutUint64(buf[0x10:], h.TextSize)
	binary.LittleEndian.PutUint64(buf[0x18:], h.DataBase)
	binary.LittleEndian.PutUint64(buf[0x20:], h.DataSize)
	return buf
}

// DecodeHeader parses the first 40 bytes of buf into a Header. buf
// must be at least HeaderSize bytes long.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("osl binary: header truncated: got %d bytes, want %d", len(buf), HeaderSize)
	}
	return Header{
		Entry:    binary.LittleEndian.Uint64(buf[0x00:]),
		TextBase: binary.LittleEndian.Uint64(buf[0x08:]),
		TextSize: binary.LittleEndian.Uint64(buf[0x10:]),
		DataBase: binary.LittleEndian.Uint64(buf[0x18:]),
		DataSize: binary.LittleEndian.Uint64(buf[0x20:]),
	}, nil
}

// Encode serializes a Binary to its on-disk byte representation:
// header followed by text bytes followed by data bytes.
func Encode(b Binary) []byte {
	out := EncodeHeader(b.Header)
	out = append(out, b.Text...)
	out = append(out, b.Data...)
	return out
}

// Decode parses a full OSL binary image, validating that the file is
// large enough to hold the header plus the sizes it claims.
func Decode(buf []byte) (Binary, error) {
	h, err := DecodeHeader(buf)
	if err != nil {
		return Binary{}, err
	}
	want := HeaderSize + h.TextSize + h.DataSize
	if uint64(len(buf)) < want {
		return Binary{}, fmt.Errorf("osl binary: payload truncated: got %d bytes, want at least %d", len(buf), want)
	}
	text := buf[HeaderSize : HeaderSize+h.TextSize]
	data := buf[HeaderSize+h.TextSize : HeaderSize+h.TextSize+h.DataSize]
	return Binary{Header: h, Text: append([]byte(nil), text...), Data: append([]byte(nil), data...)}, nil
}

// WriteFile serializes b and writes it to path on fs.
func WriteFile(fs afero.Fs, path string, b Binary) error {
	return afero.WriteFile(fs, path, Encode(b), 0o644)
}

// ReadFile reads and decodes an OSL binary from path on fs.
func ReadFile(fs afero.Fs, path string) (Binary, error) {
	buf, err := afero.ReadFile(fs, path)
	if err != nil {
		return Binary{}, fmt.Errorf("osl binary: reading %s: %w", path, err)
	}
	return Decode(buf)
}

// Load validates that bin's sections fit within mem, copies text and
// data into place, sets PC to the entry point, and installs the boot
// program-counter and data capabilities into C[PCCapReg]/C[DataCapReg]
// (§4.6). It is the loader's sole entry point.
func Load(cpu *CPU, bin Binary) error {
	h := bin.Header
	memLen := uint64(cpu.Mem.Len())

	if h.TextBase+h.TextSize < h.TextBase || h.TextBase+h.TextSize > memLen {
		return fmt.Errorf("osl loader: text section [%#x, %#x) exceeds memory size %#x", h.TextBase, h.TextBase+h.TextSize, memLen)
	}
	if h.DataBase+h.DataSize < h.DataBase || h.DataBase+h.DataSize > memLen {
		return fmt.Errorf("osl loader: data section [%#x, %#x) exceeds memory size %#x", h.DataBase, h.DataBase+h.DataSize, memLen)
	}
	if uint64(len(bin.Text)) != h.TextSize || uint64(len(bin.Data)) != h.DataSize {
		return fmt.Errorf("osl loader: section size mismatch with header")
	}

	cpu.Mem.StoreBytesUnchecked(h.TextBase, bin.Text)
	if h.DataSize > 0 {
		cpu.Mem.StoreBytesUnchecked(h.DataBase, bin.Data)
	}

	cpu.PC = h.Entry
	cpu.C[PCCapReg] = Capability{Base: h.TextBase, Length: h.TextSize, Perms: PermExec, Valid: true}
	cpu.C[DataCapReg] = Capability{Base: h.DataBase, Length: h.DataSize, Perms: PermRead | PermWrite, Valid: true}

	logFieldsForLoad(cpu.Log, h)
	return nil
}

func logFieldsForLoad(log logrus.FieldLogger, h Header) {
	log.WithFields(logrus.Fields{
		"entry":     h.Entry,
		"text_base": h.TextBase,
		"text_size": h.TextSize,
		"data_base": h.DataBase,
		"data_size": h.DataSize,
	}).Info("osl binary loaded")
}

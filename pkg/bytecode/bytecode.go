// Package bytecode serializes an already-parsed value.Block tree to and
// from a compact binary form, so a repeatedly-run program can skip
// re-tokenizing and re-parsing its source text on every invocation.
//
// This is a program cache, not an optimizing compiler: the decoded
// Program is the exact same value.Block tree the parser would have
// produced, spans included, and pkg/vm steps through it identically
// either way.
//
// Binary layout:
//
//	[Header]
//	  Magic (4 bytes): "STK1"
//	  Version (4 bytes)
//
//	[Constant pool]
//	  Count (4 bytes)
//	  For each constant: length-prefixed UTF-8 string (Op and Sym text,
//	  deduplicated)
//
//	[Program]
//	  A single recursively-encoded Block (see writeBlock)
package bytecode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/kristofer/stacker/pkg/value"
)

const (
	// MagicNumber is the file signature for precompiled programs: "STK1".
	MagicNumber uint32 = 0x53544b31
	// FormatVersion is the current encoding version.
	FormatVersion uint32 = 1
)

// Element tags, one per value.Kind that can appear in parsed source.
// KindNative never appears here: natives are registered from Go code,
// never written as literal program text.
const (
	tagInt byte = iota
	tagNum
	tagOp
	tagSym
	tagBlock
)

// Program wraps a parsed root block ready for bytecode.Encode or for
// direct use by pkg/vm.
type Program struct {
	Root *value.Block
}

// Compile wraps an already-parsed block as a Program.
func Compile(root *value.Block) *Program {
	return &Program{Root: root}
}

// Encode writes p to w in the binary program format.
func Encode(p *Program, w io.Writer) error {
	if err := writeHeader(w); err != nil {
		return fmt.Errorf("bytecode: write header: %w", err)
	}
	pool := collectConstants(p.Root)
	if err := writePool(w, pool); err != nil {
		return fmt.Errorf("bytecode: write constant pool: %w", err)
	}
	index := make(map[string]uint32, len(pool))
	for i, s := range pool {
		index[s] = uint32(i)
	}
	if err := writeBlock(w, p.Root, index); err != nil {
		return fmt.Errorf("bytecode: write program: %w", err)
	}
	return nil
}

// Decode reads a Program previously written by Encode.
func Decode(r io.Reader) (*Program, error) {
	version, err := readHeader(r)
	if err != nil {
		return nil, fmt.Errorf("bytecode: read header: %w", err)
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("bytecode: unsupported version %d (expected %d)", version, FormatVersion)
	}
	pool, err := readPool(r)
	if err != nil {
		return nil, fmt.Errorf("bytecode: read constant pool: %w", err)
	}
	root, err := readBlock(r, pool)
	if err != nil {
		return nil, fmt.Errorf("bytecode: read program: %w", err)
	}
	return &Program{Root: root}, nil
}

func writeHeader(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, MagicNumber); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, FormatVersion)
}

func readHeader(r io.Reader) (uint32, error) {
	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return 0, err
	}
	if magic != MagicNumber {
		return 0, fmt.Errorf("invalid magic number: 0x%08X (expected 0x%08X)", magic, MagicNumber)
	}
	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return 0, err
	}
	return version, nil
}

// collectConstants walks root collecting every distinct Op/Sym name in
// first-seen order, for a shared constant pool.
func collectConstants(root *value.Block) []string {
	seen := make(map[string]bool)
	var pool []string
	var walk func(b *value.Block)
	walk = func(b *value.Block) {
		for _, sv := range b.Elements {
			switch sv.Value.Kind {
			case value.KindOp, value.KindSym:
				if !seen[sv.Value.Name] {
					seen[sv.Value.Name] = true
					pool = append(pool, sv.Value.Name)
				}
			case value.KindBlock:
				walk(sv.Value.Block)
			}
		}
	}
	walk(root)
	return pool
}

func writePool(w io.Writer, pool []string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(pool))); err != nil {
		return err
	}
	for _, s := range pool {
		if err := writeString(w, s); err != nil {
			return err
		}
	}
	return nil
}

func readPool(r io.Reader) ([]string, error) {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	pool := make([]string, count)
	for i := range pool {
		s, err := readString(r)
		if err != nil {
			return nil, err
		}
		pool[i] = s
	}
	return pool, nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

func readString(r io.Reader) (string, error) {
	var length uint32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return "", err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeBlock(w io.Writer, b *value.Block, index map[string]uint32) error {
	if err := writeSpan(w, b.Span); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(b.Elements))); err != nil {
		return err
	}
	for _, sv := range b.Elements {
		if err := writeElement(w, sv, index); err != nil {
			return err
		}
	}
	return nil
}

func readBlock(r io.Reader, pool []string) (*value.Block, error) {
	span, err := readSpan(r)
	if err != nil {
		return nil, err
	}
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	// An empty block stays a nil slice, as the parser leaves it.
	var elems []value.SpannedValue
	if count > 0 {
		elems = make([]value.SpannedValue, count)
	}
	for i := range elems {
		sv, err := readElement(r, pool)
		if err != nil {
			return nil, err
		}
		elems[i] = sv
	}
	return &value.Block{Span: span, Elements: elems}, nil
}

func writeSpan(w io.Writer, s value.Span) error {
	if err := binary.Write(w, binary.LittleEndian, int32(s.Start)); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, int32(s.End))
}

func readSpan(r io.Reader) (value.Span, error) {
	var start, end int32
	if err := binary.Read(r, binary.LittleEndian, &start); err != nil {
		return value.Span{}, err
	}
	if err := binary.Read(r, binary.LittleEndian, &end); err != nil {
		return value.Span{}, err
	}
	return value.Span{Start: int(start), End: int(end)}, nil
}

func writeElement(w io.Writer, sv value.SpannedValue, index map[string]uint32) error {
	if err := writeSpan(w, sv.Span); err != nil {
		return err
	}
	switch sv.Value.Kind {
	case value.KindInt:
		if err := binary.Write(w, binary.LittleEndian, tagInt); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, sv.Value.Int)
	case value.KindNum:
		if err := binary.Write(w, binary.LittleEndian, tagNum); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, sv.Value.Num)
	case value.KindOp:
		if err := binary.Write(w, binary.LittleEndian, tagOp); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, index[sv.Value.Name])
	case value.KindSym:
		if err := binary.Write(w, binary.LittleEndian, tagSym); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, index[sv.Value.Name])
	case value.KindBlock:
		if err := binary.Write(w, binary.LittleEndian, tagBlock); err != nil {
			return err
		}
		return writeBlock(w, sv.Value.Block, index)
	default:
		return fmt.Errorf("bytecode: cannot encode a %s value as program text", sv.Value.Kind)
	}
}

func readElement(r io.Reader, pool []string) (value.SpannedValue, error) {
	span, err := readSpan(r)
	if err != nil {
		return value.SpannedValue{}, err
	}
	var tag byte
	if err := binary.Read(r, binary.LittleEndian, &tag); err != nil {
		return value.SpannedValue{}, err
	}
	switch tag {
	case tagInt:
		var i int32
		if err := binary.Read(r, binary.LittleEndian, &i); err != nil {
			return value.SpannedValue{}, err
		}
		return value.SpannedValue{Value: value.Int32(i), Span: span}, nil
	case tagNum:
		var f float32
		if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
			return value.SpannedValue{}, err
		}
		return value.SpannedValue{Value: value.Float32(f), Span: span}, nil
	case tagOp:
		idx, err := readPoolIndex(r, pool)
		if err != nil {
			return value.SpannedValue{}, err
		}
		return value.SpannedValue{Value: value.Op(idx), Span: span}, nil
	case tagSym:
		idx, err := readPoolIndex(r, pool)
		if err != nil {
			return value.SpannedValue{}, err
		}
		return value.SpannedValue{Value: value.Sym(idx), Span: span}, nil
	case tagBlock:
		blk, err := readBlock(r, pool)
		if err != nil {
			return value.SpannedValue{}, err
		}
		return value.SpannedValue{Value: value.NewBlock(blk), Span: span}, nil
	default:
		return value.SpannedValue{}, fmt.Errorf("bytecode: unknown element tag 0x%02X", tag)
	}
}

func readPoolIndex(r io.Reader, pool []string) (string, error) {
	var idx uint32
	if err := binary.Read(r, binary.LittleEndian, &idx); err != nil {
		return "", err
	}
	if int(idx) >= len(pool) {
		return "", fmt.Errorf("bytecode: constant pool index %d out of range (%d entries)", idx, len(pool))
	}
	return pool[idx], nil
}

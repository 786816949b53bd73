// Package command defines the log's unit of record: a Set or a Remove,
// and the binary framing used to write and read them from the log file.
package command

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Kind tags which variant a Command holds.
type Kind uint8

const (
	// KindSet marks a record that stores a key/value pair.
	KindSet Kind = 1
	// KindRemove marks a record that deletes a key.
	KindRemove Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindSet:
		return "Set"
	case KindRemove:
		return "Remove"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// headerSize is the fixed-size prefix written before every record:
// one tag byte plus two uint32 length fields.
const headerSize = 1 + 4 + 4

// Command is the unit serialized to the log. A Set carries both Key and
// Value; a Remove carries only Key.
type Command struct {
	Kind  Kind
	Key   []byte
	Value []byte
}

// Set builds a Set command for key/value.
func Set(key, value []byte) Command {
	return Command{Kind: KindSet, Key: key, Value: value}
}

// Remove builds a Remove command for key.
func Remove(key []byte) Command {
	return Command{Kind: KindRemove, Key: key}
}

// Encode serializes c using the fixed framing:
//
//	[0]     tag        (KindSet or KindRemove)
//	[1:5]   key length  uint32 little-endian
//	[5:9]   value length uint32 little-endian (0 for Remove)
//	[9:...] key bytes, then value bytes
//
// The returned length is exactly len(key)+len(value)+headerSize; the
// compactor and the index rely on this being an exact accounting of the
// bytes written, with no padding or delimiter.
func (c Command) Encode() []byte {
	buf := make([]byte, headerSize+len(c.Key)+len(c.Value))
	buf[0] = byte(c.Kind)
	binary.LittleEndian.PutUint32(buf[1:5], uint32(len(c.Key)))
	binary.LittleEndian.PutUint32(buf[5:9], uint32(len(c.Value)))
	copy(buf[headerSize:], c.Key)
	copy(buf[headerSize+len(c.Key):], c.Value)
	return buf
}

// DecodeFrom reads exactly one Command from r, returning the command and
// the total number of bytes consumed (header + key + value). It returns
// io.EOF only when r is exhausted before any byte of a new record is
// read; a header or body that is truncated mid-record is reported as
// io.ErrUnexpectedEOF, per the "fail open" handling of a partially
// written trailing record.
func DecodeFrom(r io.Reader) (Command, int, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return Command{}, 0, fmt.Errorf("command: truncated record header: %w", err)
		}
		return Command{}, 0, err
	}

	kind := Kind(header[0])
	if kind != KindSet && kind != KindRemove {
		return Command{}, 0, fmt.Errorf("command: unknown record tag %d", header[0])
	}
	keyLen := binary.LittleEndian.Uint32(header[1:5])
	valLen := binary.LittleEndian.Uint32(header[5:9])

	body := make([]byte, int(keyLen)+int(valLen))
	if _, err := io.ReadFull(r, body); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Command{}, 0, fmt.Errorf("command: truncated record body: %w", io.ErrUnexpectedEOF)
		}
		return Command{}, 0, err
	}

	cmd := Command{Kind: kind, Key: body[:keyLen:keyLen]}
	if kind == KindSet {
		cmd.Value = body[keyLen:]
	}

	total := headerSize + int(keyLen) + int(valLen)
	return cmd, total, nil
}

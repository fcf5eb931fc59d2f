package live

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/arborui/arbor/pkg/arbor/scene"
)

// Encoder writes protocol primitives to a stream.
type Encoder struct {
	w io.Writer
}

// NewEncoder creates an encoder over w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// WriteByte writes a single byte.
func (e *Encoder) WriteByte(b byte) error {
	_, err := e.w.Write([]byte{b})
	return err
}

// WriteUvarint writes an unsigned varint.
func (e *Encoder) WriteUvarint(v uint64) error {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(buf, v)
	_, err := e.w.Write(buf[:n])
	return err
}

// WriteString writes a length-prefixed string.
func (e *Encoder) WriteString(s string) error {
	if err := e.WriteUvarint(uint64(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(e.w, s)
	return err
}

// Decoder reads protocol primitives from a stream.
type Decoder struct {
	r   io.Reader
	buf []byte
}

// NewDecoder creates a decoder over r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r, buf: make([]byte, 256)}
}

// ReadByte implements io.ByteReader for binary.ReadUvarint.
func (d *Decoder) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(d.r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadUvarint reads an unsigned varint.
func (d *Decoder) ReadUvarint() (uint64, error) {
	return binary.ReadUvarint(d)
}

// ReadString reads a length-prefixed string.
func (d *Decoder) ReadString() (string, error) {
	length, err := d.ReadUvarint()
	if err != nil {
		return "", err
	}
	if length > uint64(cap(d.buf)) {
		d.buf = make([]byte, length)
	}
	b := d.buf[:length]
	if _, err := io.ReadFull(d.r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

// EncodePatches encodes a patch list frame.
func EncodePatches(patches []scene.Patch) ([]byte, error) {
	var buf bytes.Buffer
	e := NewEncoder(&buf)
	e.WriteByte(byte(FramePatches))
	e.WriteUvarint(uint64(len(patches)))
	for _, p := range patches {
		if err := encodePatch(e, p); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func encodePatch(e *Encoder, p scene.Patch) error {
	e.WriteByte(byte(p.Op))
	e.WriteUvarint(uint64(p.NodeID))
	switch p.Op {
	case scene.OpReplaceText:
		return e.WriteString(p.Value)
	case scene.OpSetProp:
		e.WriteString(p.Name)
		return e.WriteString(p.Value)
	case scene.OpRemoveProp:
		return e.WriteString(p.Name)
	case scene.OpRemoveNode:
		return nil
	case scene.OpInsertNode:
		e.WriteUvarint(uint64(p.ParentID))
		e.WriteUvarint(uint64(p.BeforeID))
		return encodeSnapshot(e, p.Node)
	case scene.OpMoveNode:
		e.WriteUvarint(uint64(p.ParentID))
		return e.WriteUvarint(uint64(p.BeforeID))
	default:
		return fmt.Errorf("live: unknown patch op %d", p.Op)
	}
}

func encodeSnapshot(e *Encoder, s *scene.Snapshot) error {
	if s == nil {
		return fmt.Errorf("live: insert patch without a node")
	}
	e.WriteString(s.Type)
	e.WriteString(s.Key)
	e.WriteString(s.Text)
	e.WriteUvarint(uint64(len(s.Attrs)))
	for _, name := range sortedNames(s.Attrs) {
		e.WriteString(name)
		e.WriteString(s.Attrs[name])
	}
	e.WriteUvarint(uint64(len(s.Kids)))
	for i := range s.Kids {
		if err := encodeSnapshot(e, &s.Kids[i]); err != nil {
			return err
		}
	}
	return nil
}

// DecodePatches decodes a patch list frame, including the leading frame
// type byte.
func DecodePatches(data []byte) ([]scene.Patch, error) {
	d := NewDecoder(bytes.NewReader(data))
	ft, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	if FrameType(ft) != FramePatches {
		return nil, fmt.Errorf("live: frame type %#x is not a patches frame", ft)
	}
	count, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	patches := make([]scene.Patch, 0, count)
	for i := uint64(0); i < count; i++ {
		p, err := decodePatch(d)
		if err != nil {
			return nil, fmt.Errorf("live: patch %d: %w", i, err)
		}
		patches = append(patches, p)
	}
	return patches, nil
}

func decodePatch(d *Decoder) (scene.Patch, error) {
	var p scene.Patch
	op, err := d.ReadByte()
	if err != nil {
		return p, err
	}
	p.Op = scene.PatchOp(op)
	id, err := d.ReadUvarint()
	if err != nil {
		return p, err
	}
	p.NodeID = uint32(id)

	switch p.Op {
	case scene.OpReplaceText:
		p.Value, err = d.ReadString()
	case scene.OpSetProp:
		if p.Name, err = d.ReadString(); err == nil {
			p.Value, err = d.ReadString()
		}
	case scene.OpRemoveProp:
		p.Name, err = d.ReadString()
	case scene.OpRemoveNode:
	case scene.OpInsertNode:
		var parent, before uint64
		if parent, err = d.ReadUvarint(); err != nil {
			return p, err
		}
		if before, err = d.ReadUvarint(); err != nil {
			return p, err
		}
		p.ParentID = uint32(parent)
		p.BeforeID = uint32(before)
		p.Node, err = decodeSnapshot(d)
	case scene.OpMoveNode:
		var parent, before uint64
		if parent, err = d.ReadUvarint(); err != nil {
			return p, err
		}
		if before, err = d.ReadUvarint(); err != nil {
			return p, err
		}
		p.ParentID = uint32(parent)
		p.BeforeID = uint32(before)
	default:
		return p, fmt.Errorf("unknown op %d", op)
	}
	return p, err
}

func decodeSnapshot(d *Decoder) (*scene.Snapshot, error) {
	s := &scene.Snapshot{}
	var err error
	if s.Type, err = d.ReadString(); err != nil {
		return nil, err
	}
	if s.Key, err = d.ReadString(); err != nil {
		return nil, err
	}
	if s.Text, err = d.ReadString(); err != nil {
		return nil, err
	}
	attrCount, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if attrCount > 0 {
		s.Attrs = make(map[string]string, attrCount)
		for i := uint64(0); i < attrCount; i++ {
			name, err := d.ReadString()
			if err != nil {
				return nil, err
			}
			value, err := d.ReadString()
			if err != nil {
				return nil, err
			}
			s.Attrs[name] = value
		}
	}
	kidCount, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < kidCount; i++ {
		kid, err := decodeSnapshot(d)
		if err != nil {
			return nil, err
		}
		s.Kids = append(s.Kids, *kid)
	}
	return s, nil
}

// EncodeEvent encodes an event frame.
func EncodeEvent(evt Event) []byte {
	var buf bytes.Buffer
	e := NewEncoder(&buf)
	e.WriteByte(byte(FrameEvent))
	e.WriteString(evt.Name)
	e.WriteUvarint(uint64(evt.NodeID))
	e.WriteUvarint(uint64(len(evt.Data)))
	for _, name := range sortedNames(evt.Data) {
		e.WriteString(name)
		e.WriteString(evt.Data[name])
	}
	return buf.Bytes()
}

// DecodeEvent decodes an event frame, including the frame type byte.
func DecodeEvent(data []byte) (Event, error) {
	var evt Event
	d := NewDecoder(bytes.NewReader(data))
	ft, err := d.ReadByte()
	if err != nil {
		return evt, err
	}
	if FrameType(ft) != FrameEvent {
		return evt, fmt.Errorf("live: frame type %#x is not an event frame", ft)
	}
	if evt.Name, err = d.ReadString(); err != nil {
		return evt, err
	}
	id, err := d.ReadUvarint()
	if err != nil {
		return evt, err
	}
	evt.NodeID = uint32(id)
	count, err := d.ReadUvarint()
	if err != nil {
		return evt, err
	}
	if count > 0 {
		evt.Data = make(map[string]string, count)
		for i := uint64(0); i < count; i++ {
			name, err := d.ReadString()
			if err != nil {
				return evt, err
			}
			value, err := d.ReadString()
			if err != nil {
				return evt, err
			}
			evt.Data[name] = value
		}
	}
	return evt, nil
}

// EncodeControl encodes a control frame.
func EncodeControl(command string) []byte {
	var buf bytes.Buffer
	e := NewEncoder(&buf)
	e.WriteByte(byte(FrameControl))
	e.WriteString(command)
	return buf.Bytes()
}

// DecodeControl decodes a control frame, including the frame type byte.
func DecodeControl(data []byte) (string, error) {
	d := NewDecoder(bytes.NewReader(data))
	ft, err := d.ReadByte()
	if err != nil {
		return "", err
	}
	if FrameType(ft) != FrameControl {
		return "", fmt.Errorf("live: frame type %#x is not a control frame", ft)
	}
	return d.ReadString()
}

func sortedNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package layers

import (
	"fmt"
	"math/bits"
	"net"
)

// Base is the numeric base a field value is displayed in
type Base uint8

const (
	BaseDec Base = iota
	BaseHex
	// BaseEther renders a 6 byte field as a hardware address
	BaseEther
)

// ValueString maps a field code to its label
type ValueString struct {
	Code  uint64
	Label string
}

// EnumTable is an ordered list of codes. The first matching code wins.
type EnumTable []ValueString

// Lookup returns the label of the code or false if the table has no such code
func (t EnumTable) Lookup(code uint64) (string, bool) {
	for _, vs := range t {
		if vs.Code == code {
			return vs.Label, true
		}
	}
	return "", false
}

// Field describes where a value lives in an AVDECC message.
// Offset is counted from the first byte of the AVTP PDU, i.e. the subtype byte.
type Field struct {
	Name   string
	Abbrev string
	Offset int
	Width  int
	// Mask selects a sub field of the Width byte word. Zero means the whole word.
	Mask uint64
	Base Base
	Enum EnumTable
}

// Shift is the position of the lowest set bit of the mask
func (f *Field) Shift() uint {
	if f.Mask == 0 {
		return 0
	}
	return uint(bits.TrailingZeros64(f.Mask))
}

// End returns the offset of the first byte after the field
func (f *Field) End() int {
	return f.Offset + f.Width
}

func (f *Field) String() string {
	return fmt.Sprintf("%s (%s) [%d:%d]", f.Name, f.Abbrev, f.Offset, f.End())
}

// Node is a decoded field. Group fields carry their sub fields in Children.
type Node struct {
	Name   string `json:"name"`
	Abbrev string `json:"abbrev"`
	Offset int    `json:"offset"`
	Width  int    `json:"width"`
	// Raw is the word read at Offset with the field mask applied
	Raw uint64 `json:"raw"`
	// Value is Raw shifted down to the lowest bit of the mask.
	// Enum labels are looked up by Value, not by the masked word,
	// so a status in the top five bits of a byte reads 0..31.
	Value    uint64  `json:"value"`
	Label    string  `json:"label,omitempty"`
	Resolved bool    `json:"resolved"`
	Display  string  `json:"display"`
	Children []*Node `json:"children,omitempty"`

	field *Field
}

// Field returns the catalog entry the node was decoded from
func (n *Node) Field() *Field {
	return n.field
}

// Bool reports whether a flag node is set
func (n *Node) Bool() bool {
	return n.Value != 0
}

// HardwareAddr returns the value of a 6 byte field as a MAC address
func (n *Node) HardwareAddr() net.HardwareAddr {
	mac := make(net.HardwareAddr, 6)
	for i := 0; i < 6; i++ {
		mac[5-i] = byte(n.Value >> (8 * i))
	}
	return mac
}

func (n *Node) add(child *Node) {
	n.Children = append(n.Children, child)
}

// Child finds a direct child by its abbreviation
func (n *Node) Child(abbrev string) *Node {
	for _, c := range n.Children {
		if c.Abbrev == abbrev {
			return c
		}
	}
	return nil
}

func (n *Node) render() {
	var value string
	switch n.field.Base {
	case BaseHex:
		value = fmt.Sprintf("0x%0*x", hexDigits(n.field), n.Value)
	case BaseEther:
		value = n.HardwareAddr().String()
	default:
		value = fmt.Sprintf("%d", n.Value)
	}
	if n.Resolved {
		n.Display = fmt.Sprintf("%s: %s (%d)", n.Name, n.Label, n.Value)
		return
	}
	n.Display = fmt.Sprintf("%s: %s", n.Name, value)
}

func hexDigits(f *Field) int {
	if f.Mask == 0 {
		return f.Width * 2
	}
	return (bits.Len64(f.Mask>>f.Shift()) + 3) / 4
}

// ErrTruncated is returned when a field reaches past the end of the buffer
type ErrTruncated struct {
	Field  string
	Offset int
	Width  int
	Length int
}

func (e ErrTruncated) Error() string {
	return fmt.Sprintf("Truncated buffer: field %s needs bytes [%d:%d] but buffer length is %d",
		e.Field, e.Offset, e.Offset+e.Width, e.Length)
}

// readWord reads width bytes at offset as a big endian unsigned integer
func readWord(data []byte, offset, width int) uint64 {
	var word uint64
	for _, b := range data[offset : offset+width] {
		word = word<<8 | uint64(b)
	}
	return word
}

func checkRange(data []byte, name string, offset, width int) error {
	if offset < 0 || width <= 0 || width > 8 || offset+width > len(data) {
		return ErrTruncated{Field: name, Offset: offset, Width: width, Length: len(data)}
	}
	return nil
}

func newNode(f *Field, word uint64) *Node {
	raw := word
	if f.Mask != 0 {
		raw &= f.Mask
	}
	n := &Node{
		Name:   f.Name,
		Abbrev: f.Abbrev,
		Offset: f.Offset,
		Width:  f.Width,
		Raw:    raw,
		Value:  raw >> f.Shift(),
		field:  f,
	}
	if f.Enum != nil {
		n.Label, n.Resolved = f.Enum.Lookup(n.Value)
	}
	n.render()
	return n
}

// DecodeField decodes a single field of the catalog
func DecodeField(data []byte, f *Field) (*Node, error) {
	if err := checkRange(data, f.Abbrev, f.Offset, f.Width); err != nil {
		return nil, err
	}
	return newNode(f, readWord(data, f.Offset, f.Width)), nil
}

// DecodeGroup reads the width byte word at offset once and extracts every field
// of the group from it. Nodes are returned in the order of fields.
func DecodeGroup(data []byte, offset, width int, fields []*Field) ([]*Node, error) {
	name := fmt.Sprintf("group@%d", offset)
	if len(fields) > 0 {
		name = fields[0].Abbrev
	}
	if err := checkRange(data, name, offset, width); err != nil {
		return nil, err
	}
	word := readWord(data, offset, width)
	nodes := make([]*Node, 0, len(fields))
	for _, f := range fields {
		nodes = append(nodes, newNode(f, word))
	}
	return nodes, nil
}

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
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"jinr.ru/greenlab/go-avdecc/pkg/log"
)

const (
	// SubtypeMask drops the control data (cd) bit of the first AVTP byte
	SubtypeMask = 0x7f
)

const (
	ProtocolColumn = "IEEE1722-1"
	InfoADP        = "AVDECC Discovery Protocol"
	InfoAECP       = "AVDECC Enumeration and Control Protocol"
	InfoACMP       = "AVDECC Connection Management Protocol"
	InfoUnknown    = "1722.1 Unknown"
)

// Subtype is the AVTP subtype with the cd bit masked off
type Subtype uint8

const (
	SubtypeADP  Subtype = 0x7a
	SubtypeAECP Subtype = 0x7b
	SubtypeACMP Subtype = 0x7c
)

// MessageKind is the AVDECC message family selected by the subtype
type MessageKind uint8

const (
	KindUnknown MessageKind = iota
	KindDiscovery
	KindEnumerationControl
	KindConnectionManagement
)

var messageKindNames = map[MessageKind]string{
	KindUnknown:              "Unknown",
	KindDiscovery:            "Discovery",
	KindEnumerationControl:   "EnumerationControl",
	KindConnectionManagement: "ConnectionManagement",
}

func (k MessageKind) String() string {
	return messageKindNames[k]
}

func (k MessageKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *MessageKind) UnmarshalJSON(bytes []byte) error {
	trimmed := strings.Trim(string(bytes), "\"")
	for kind, name := range messageKindNames {
		if name == trimmed {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("Unknown message kind %s", trimmed)
}

// SubtypeInfo describes how messages of a subtype are handled
type SubtypeInfo struct {
	Kind MessageKind
	Info string
	// Decode is nil for subtypes that are recognised but not decoded
	Decode func(d *Decoder, data []byte) (*Tree, error)
}

// SubtypeMetadata is indexed by the masked subtype
var SubtypeMetadata [SubtypeMask + 1]SubtypeInfo

func init() {
	initUnknownSubtypes()
	initActualSubtypes()
}

func initUnknownSubtypes() {
	for i := range SubtypeMetadata {
		SubtypeMetadata[i] = SubtypeInfo{Kind: KindUnknown, Info: InfoUnknown}
	}
}

func initActualSubtypes() {
	SubtypeMetadata[SubtypeADP] = SubtypeInfo{Kind: KindDiscovery, Info: InfoADP, Decode: (*Decoder).DecodeADP}
	SubtypeMetadata[SubtypeAECP] = SubtypeInfo{Kind: KindEnumerationControl, Info: InfoAECP}
	SubtypeMetadata[SubtypeACMP] = SubtypeInfo{Kind: KindConnectionManagement, Info: InfoACMP, Decode: (*Decoder).DecodeACMP}
}

// Kind returns the message family of the subtype
func (s Subtype) Kind() MessageKind {
	return SubtypeMetadata[s&SubtypeMask].Kind
}

// Registered reports whether the subtype is one the dispatcher accepts
func (s Subtype) Registered() bool {
	return s.Kind() != KindUnknown
}

func (s Subtype) String() string {
	return fmt.Sprintf("0x%02x", uint8(s))
}

func (s Subtype) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Subtype) UnmarshalJSON(bytes []byte) error {
	trimmed := strings.Trim(string(bytes), "\"")
	subtype, err := strconv.ParseUint(trimmed, 0, 8)
	if err != nil {
		return err
	}
	*s = Subtype(subtype)
	return nil
}

// Subtypes lists the subtypes this package registers for
func Subtypes() []Subtype {
	return []Subtype{SubtypeADP, SubtypeAECP, SubtypeACMP}
}

// Summary receives the one line description of a message
type Summary interface {
	SetProtocol(protocol string)
	SetInfo(info string)
}

// Columns is the simplest Summary
type Columns struct {
	Protocol string `json:"protocol"`
	Info     string `json:"info"`
}

func (c *Columns) SetProtocol(protocol string) {
	c.Protocol = protocol
}

func (c *Columns) SetInfo(info string) {
	c.Info = info
}

type discardSummary struct{}

func (discardSummary) SetProtocol(string) {}
func (discardSummary) SetInfo(string)     {}

// ErrUnknownSubtype is returned by Dispatch for subtypes that are not registered
type ErrUnknownSubtype struct {
	Subtype Subtype
}

func (e ErrUnknownSubtype) Error() string {
	return fmt.Sprintf("Unknown AVDECC subtype %s", e.Subtype)
}

// Decoder decodes AVDECC messages using a catalog. It keeps no state between calls.
type Decoder struct {
	catalog *Catalog
}

// NewDecoder returns a decoder using catalog or DefaultCatalog if catalog is nil
func NewDecoder(catalog *Catalog) *Decoder {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Decoder{catalog: catalog}
}

// Catalog returns the catalog of the decoder
func (d *Decoder) Catalog() *Catalog {
	return d.catalog
}

// Dispatch selects the decoder by the subtype in byte 0 and runs it over the same buffer.
// Enumeration and control messages yield an empty tree and no error.
func (d *Decoder) Dispatch(data []byte, summary Summary) (*Tree, error) {
	if summary == nil {
		summary = discardSummary{}
	}
	summary.SetProtocol(ProtocolColumn)
	if len(data) < 1 {
		summary.SetInfo(InfoUnknown)
		return newTree(0), ErrTruncated{Field: "ieee1722.subtype", Offset: 0, Width: 1, Length: 0}
	}

	subtype := Subtype(data[0] & SubtypeMask)
	meta := SubtypeMetadata[subtype]
	summary.SetInfo(meta.Info)

	switch meta.Kind {
	case KindDiscovery, KindConnectionManagement:
		return meta.Decode(d, data)
	case KindEnumerationControl:
		return newTree(subtype), nil
	default:
		// the transport only hands over registered subtypes
		log.Warning("Dispatch: unexpected subtype %s", subtype)
		return newTree(subtype), ErrUnknownSubtype{Subtype: subtype}
	}
}

// Dispatch runs the dispatcher of a decoder using DefaultCatalog
func Dispatch(data []byte, summary Summary) (*Tree, error) {
	return NewDecoder(nil).Dispatch(data, summary)
}

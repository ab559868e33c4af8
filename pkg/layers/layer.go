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
	"errors"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"jinr.ru/greenlab/go-avdecc/pkg/log"
)

const (
	// AVDECCLayerNum identifies the layer
	AVDECCLayerNum = 1722
	// EthernetTypeAVTP is the IEEE 1722 ethertype
	EthernetTypeAVTP layers.EthernetType = 0x22f0
	// AECPHeaderLength is the part of an AECP message kept as layer contents, the rest is payload
	AECPHeaderLength = 4
)

var LayerTypeAVDECC = gopacket.RegisterLayerType(AVDECCLayerNum,
	gopacket.LayerTypeMetadata{Name: "AVDECC", Decoder: gopacket.DecodeFunc(decodeAVDECC)})

func init() {
	layers.EthernetTypeMetadata[EthernetTypeAVTP] = layers.EnumMetadata{
		DecodeWith: LayerTypeAVDECC,
		Name:       "AVTP",
		LayerType:  LayerTypeAVDECC,
	}
}

// AVDECC is the gopacket layer of ADP, AECP and ACMP messages
type AVDECC struct {
	layers.BaseLayer
	Columns
	Subtype Subtype
	Tree    *Tree
	// Err is the decode fault of the message, if any. A truncated message still has a Tree.
	Err error

	decoder *Decoder
}

// NewAVDECC returns a layer decoding with decoder, or with the default catalog if decoder is nil
func NewAVDECC(decoder *Decoder) *AVDECC {
	if decoder == nil {
		decoder = NewDecoder(nil)
	}
	return &AVDECC{decoder: decoder}
}

// LayerType returns the type of the AVDECC layer in the layer catalog
func (a *AVDECC) LayerType() gopacket.LayerType {
	return LayerTypeAVDECC
}

// CanDecode is from the DecodingLayer interface
func (a *AVDECC) CanDecode() gopacket.LayerClass {
	return LayerTypeAVDECC
}

// NextLayerType returns Payload for the AECP body and for bytes trailing an ADP or ACMP message
func (a *AVDECC) NextLayerType() gopacket.LayerType {
	if len(a.Payload) > 0 {
		return gopacket.LayerTypePayload
	}
	return gopacket.LayerTypeZero
}

// Truncated reports whether the message was shorter than its field layout
func (a *AVDECC) Truncated() bool {
	var errTruncated ErrTruncated
	return errors.As(a.Err, &errTruncated)
}

// DecodeFromBytes dispatches the AVTP PDU to the ADP or ACMP decoder.
// Only an unknown subtype is returned as an error, truncation is reported
// through df and a.Err.
func (a *AVDECC) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if a.decoder == nil {
		a.decoder = NewDecoder(nil)
	}
	a.Columns = Columns{}
	a.Tree, a.Err = a.decoder.Dispatch(data, &a.Columns)
	a.Subtype = a.Tree.Subtype

	var contentLength int
	switch a.Subtype.Kind() {
	case KindDiscovery:
		contentLength = ADPLength
	case KindConnectionManagement:
		contentLength = ACMPLength
	case KindEnumerationControl:
		contentLength = AECPHeaderLength
	default:
		contentLength = len(data)
	}
	if contentLength > len(data) {
		contentLength = len(data)
	}
	a.BaseLayer = layers.BaseLayer{
		Contents: data[:contentLength],
		Payload:  data[contentLength:],
	}

	if a.Truncated() {
		df.SetTruncated()
		return nil
	}
	return a.Err
}

func decodeAVDECC(data []byte, p gopacket.PacketBuilder) error {
	a := NewAVDECC(nil)
	err := a.DecodeFromBytes(data, p)
	p.AddLayer(a)
	if err != nil {
		log.Debug("AVDECC layer: %s", err)
		return err
	}
	return p.NextDecoder(a.NextLayerType())
}

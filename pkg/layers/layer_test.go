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
	"bytes"
	"os"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jinr.ru/greenlab/go-avdecc/pkg/log"
)

// ethernetFrame builds the frame by hand, SerializeLayers would pad it to 60 bytes
func ethernetFrame(payload []byte) []byte {
	frame := []byte{
		0x91, 0xe0, 0xf0, 0x01, 0x00, 0x00,
		0x00, 0x1b, 0x21, 0x00, 0x00, 0x01,
		0x22, 0xf0,
	}
	return append(frame, payload...)
}

func TestEthernetDecodesAVDECC(t *testing.T) {
	packet := gopacket.NewPacket(ethernetFrame(adpAvailable()), layers.LayerTypeEthernet, gopacket.Default)
	require.Nil(t, packet.ErrorLayer())

	layer := packet.Layer(LayerTypeAVDECC)
	require.NotNil(t, layer)
	avdecc := layer.(*AVDECC)
	assert.Equal(t, SubtypeADP, avdecc.Subtype)
	assert.Equal(t, ProtocolColumn, avdecc.Protocol)
	assert.Equal(t, InfoADP, avdecc.Info)
	assert.NoError(t, avdecc.Err)
	assert.Len(t, avdecc.LayerContents(), ADPLength)
	assert.Equal(t, uint64(0x1122334455667788), avdecc.Tree.Find("ieee17221.entity_guid").Value)
	assert.False(t, packet.Metadata().Truncated)
}

func TestEthernetTruncatedAVDECC(t *testing.T) {
	packet := gopacket.NewPacket(ethernetFrame(acmpConnectRxResponse()[:16]), layers.LayerTypeEthernet, gopacket.Default)

	layer := packet.Layer(LayerTypeAVDECC)
	require.NotNil(t, layer)
	avdecc := layer.(*AVDECC)
	assert.True(t, avdecc.Truncated())
	assert.True(t, packet.Metadata().Truncated)
	assert.NotNil(t, avdecc.Tree.Find("ieee17221.stream_id"))
	assert.Nil(t, avdecc.Tree.Find("ieee17221.controller_guid"))
}

func TestEthernetAECPPayload(t *testing.T) {
	aecp := []byte{0xfb, 0x00, 0x00, 0x08, 0xde, 0xad, 0xbe, 0xef}
	packet := gopacket.NewPacket(ethernetFrame(aecp), layers.LayerTypeEthernet, gopacket.Default)
	require.Nil(t, packet.ErrorLayer())

	avdecc := packet.Layer(LayerTypeAVDECC).(*AVDECC)
	assert.Equal(t, KindEnumerationControl, avdecc.Subtype.Kind())
	require.NotNil(t, packet.ApplicationLayer())
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, packet.ApplicationLayer().Payload())
}

func TestEthernetUnknownSubtype(t *testing.T) {
	var logOut bytes.Buffer
	log.Init(&logOut, "info")
	t.Cleanup(func() { log.Init(os.Stderr, "info") })

	packet := gopacket.NewPacket(ethernetFrame([]byte{0x02, 0x00, 0x00, 0x00}), layers.LayerTypeEthernet, gopacket.Default)
	require.NotNil(t, packet.ErrorLayer())
	assert.Equal(t, ErrUnknownSubtype{Subtype: 0x02}, packet.ErrorLayer().Error())
	assert.Empty(t, logOut.String())
}

func TestDecodingLayerParser(t *testing.T) {
	var eth layers.Ethernet
	avdecc := NewAVDECC(nil)
	parser := gopacket.NewDecodingLayerParser(layers.LayerTypeEthernet, &eth, avdecc)
	decoded := []gopacket.LayerType{}

	err := parser.DecodeLayers(ethernetFrame(acmpConnectRxResponse()), &decoded)
	require.NoError(t, err)
	assert.Equal(t, []gopacket.LayerType{layers.LayerTypeEthernet, LayerTypeAVDECC}, decoded)
	assert.Equal(t, "CONNECT_RX_RESPONSE", avdecc.Tree.Find("ieee17221.acmp.message_type").Label)
	assert.Equal(t, InfoACMP, avdecc.Info)
}

func TestEthernetPaddedADP(t *testing.T) {
	data := append(adpAvailable(), 0x00, 0x00, 0x00, 0x00)
	packet := gopacket.NewPacket(ethernetFrame(data), layers.LayerTypeEthernet, gopacket.Default)
	require.Nil(t, packet.ErrorLayer())

	avdecc := packet.Layer(LayerTypeAVDECC).(*AVDECC)
	assert.NoError(t, avdecc.Err)
	assert.Len(t, avdecc.LayerPayload(), 4)
}

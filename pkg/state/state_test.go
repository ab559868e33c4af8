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

package state

import (
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jinr.ru/greenlab/go-avdecc/pkg/capture"
	"jinr.ru/greenlab/go-avdecc/pkg/layers"
)

func adp(messageType uint64, guid byte) []byte {
	data := make([]byte, layers.ADPLength)
	data[0] = 0xfa
	data[1] = byte(messageType)
	data[2] = 10 << 3
	data[3] = 56
	copy(data[4:12], []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, guid})
	copy(data[12:16], []byte{0x00, 0x1b, 0x92, 0x00})
	data[23] = 0x09
	data[25] = 2
	data[26] = 0x40
	data[27] = 0x01
	return data
}

func record(t *testing.T, data []byte) capture.Record {
	layer := layers.NewAVDECC(nil)
	_ = layer.DecodeFromBytes(data, gopacket.NilDecodeFeedback)
	return capture.Record{
		Index:     1,
		Timestamp: time.Unix(1700000000, 250000000),
		SrcMAC:    net.HardwareAddr{0x00, 0x1b, 0x21, 0x00, 0x00, 0x01},
		Layer:     layer,
	}
}

func open(t *testing.T) *State {
	s, err := Open(filepath.Join(t.TempDir(), "entities.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestObserveAvailable(t *testing.T) {
	s := open(t)
	require.NoError(t, s.Observe(record(t, adp(layers.ADPEntityAvailable, 0x88))))

	e, err := s.Entity("0x1122334455667788")
	require.NoError(t, err)
	assert.Equal(t, "0x001b9200", e.VendorID)
	assert.Equal(t, []string{"AVDECC_IP", "AVDECC_CONTROL"}, e.Capabilities)
	assert.Equal(t, uint64(2), e.TalkerStreamSources)
	assert.Equal(t, []string{"IMPLEMENTED", "AUDIO_SOURCE"}, e.TalkerCapabilities)
	assert.Empty(t, e.ListenerCapabilities)
	assert.Equal(t, uint64(10), e.ValidTime)
	assert.Equal(t, "00:1b:21:00:00:01", e.SourceMAC)
	assert.Equal(t, int64(1700000000250), e.LastSeen)
}

func TestObserveDeparting(t *testing.T) {
	s := open(t)
	require.NoError(t, s.Observe(record(t, adp(layers.ADPEntityAvailable, 0x01))))
	require.NoError(t, s.Observe(record(t, adp(layers.ADPEntityAvailable, 0x02))))
	require.NoError(t, s.Observe(record(t, adp(layers.ADPEntityDeparting, 0x01))))

	entities, err := s.Entities()
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "0x1122334455667702", entities[0].GUID)

	_, err = s.Entity("0x1122334455667701")
	var errNotFound ErrEntityNotFound
	assert.True(t, errors.As(err, &errNotFound))
}

func TestObserveIgnores(t *testing.T) {
	s := open(t)
	require.NoError(t, s.Observe(record(t, adp(layers.ADPEntityDiscover, 0x01))))
	require.NoError(t, s.Observe(record(t, adp(layers.ADPEntityAvailable, 0x01)[:30])))

	acmp := make([]byte, layers.ACMPLength)
	acmp[0] = 0xfc
	require.NoError(t, s.Observe(record(t, acmp)))
	require.NoError(t, s.Observe(capture.Record{}))

	entities, err := s.Entities()
	require.NoError(t, err)
	assert.Empty(t, entities)
}

func TestEntitiesOrdered(t *testing.T) {
	s := open(t)
	for _, guid := range []byte{0x03, 0x01, 0x02} {
		require.NoError(t, s.Observe(record(t, adp(layers.ADPEntityAvailable, guid))))
	}
	entities, err := s.Entities()
	require.NoError(t, err)
	require.Len(t, entities, 3)
	assert.Equal(t, "0x1122334455667701", entities[0].GUID)
	assert.Equal(t, "0x1122334455667703", entities[2].GUID)
}

func TestParseGUID(t *testing.T) {
	for _, s := range []string{"0x1122334455667788", "1122334455667788", "0X1122334455667788"} {
		guid, err := ParseGUID(s)
		require.NoError(t, err, s)
		assert.Equal(t, uint64(0x1122334455667788), guid)
		assert.Equal(t, "0x1122334455667788", GUIDKey(guid))
	}
	_, err := ParseGUID("entity")
	assert.ErrorAs(t, err, &ErrBadGUID{})
}

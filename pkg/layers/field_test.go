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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFieldBigEndian(t *testing.T) {
	f := &Field{Name: "Word", Abbrev: "test.word", Offset: 1, Width: 4, Base: BaseHex}
	n, err := DecodeField([]byte{0xff, 0x01, 0x02, 0x03, 0x04}, f)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x01020304), n.Raw)
	assert.Equal(t, uint64(0x01020304), n.Value)
	assert.Equal(t, "Word: 0x01020304", n.Display)
	assert.Same(t, f, n.Field())
}

func TestDecodeFieldMask(t *testing.T) {
	f := &Field{Name: "Status", Abbrev: "test.status", Offset: 0, Width: 1, Mask: 0xf8}
	n, err := DecodeField([]byte{0xff}, f)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xf8), n.Raw)
	assert.Equal(t, uint64(31), n.Value)
	assert.Equal(t, uint(3), f.Shift())
}

func TestDecodeFieldEnum(t *testing.T) {
	f := &Field{Name: "Type", Abbrev: "test.type", Width: 1, Mask: 0x0f, Enum: ADPMessageTypes}

	n, err := DecodeField([]byte{0xf1}, f)
	require.NoError(t, err)
	assert.True(t, n.Resolved)
	assert.Equal(t, "ENTITY_DEPARTING", n.Label)
	assert.Equal(t, "Type: ENTITY_DEPARTING (1)", n.Display)

	n, err = DecodeField([]byte{0x0a}, f)
	require.NoError(t, err)
	assert.False(t, n.Resolved)
	assert.Empty(t, n.Label)
	assert.Equal(t, "Type: 10", n.Display)
}

func TestDecodeFieldTruncated(t *testing.T) {
	f := &Field{Name: "GUID", Abbrev: "test.guid", Offset: 4, Width: 8}
	n, err := DecodeField(make([]byte, 11), f)
	assert.Nil(t, n)

	var errTruncated ErrTruncated
	require.True(t, errors.As(err, &errTruncated))
	assert.Equal(t, ErrTruncated{Field: "test.guid", Offset: 4, Width: 8, Length: 11}, errTruncated)

	_, err = DecodeField(make([]byte, 12), f)
	assert.NoError(t, err)
}

func TestDecodeFieldEther(t *testing.T) {
	f := &Field{Name: "MAC", Abbrev: "test.mac", Width: 6, Base: BaseEther}
	n, err := DecodeField([]byte{0x91, 0xe0, 0xf0, 0x01, 0x00, 0x00}, f)
	require.NoError(t, err)
	assert.Equal(t, "91:e0:f0:01:00:00", n.HardwareAddr().String())
	assert.Equal(t, "MAC: 91:e0:f0:01:00:00", n.Display)
}

func TestDecodeGroup(t *testing.T) {
	g := group("Caps", "test.caps", 2, 2, 0,
		flagSpec{"LOW", "low", 0x0001},
		flagSpec{"MID", "mid", 0x0100},
		flagSpec{"HIGH", "high", 0x8000},
	)
	data := []byte{0x00, 0x00, 0x80, 0x01}

	nodes, err := DecodeGroup(data, g.Offset, g.Width, g.Flags)
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, "test.caps.low", nodes[0].Abbrev)
	assert.True(t, nodes[0].Bool())
	assert.Equal(t, "LOW: True (1)", nodes[0].Display)
	assert.False(t, nodes[1].Bool())
	assert.Equal(t, "MID: False (0)", nodes[1].Display)
	assert.True(t, nodes[2].Bool())
	assert.Equal(t, uint64(0x8000), nodes[2].Raw)
	assert.Equal(t, uint64(1), nodes[2].Value)
}

func TestDecodeGroupTruncated(t *testing.T) {
	g := group("Caps", "test.caps", 2, 2, 0, flagSpec{"LOW", "low", 0x0001})
	nodes, err := DecodeGroup([]byte{0x00, 0x00, 0x80}, g.Offset, g.Width, g.Flags)
	assert.Nil(t, nodes)
	assert.ErrorAs(t, err, &ErrTruncated{})
}

func TestEnumTableFirstMatchWins(t *testing.T) {
	table := EnumTable{{1, "first"}, {1, "second"}}
	label, ok := table.Lookup(1)
	assert.True(t, ok)
	assert.Equal(t, "first", label)

	_, ok = table.Lookup(2)
	assert.False(t, ok)
}

func TestParseHex(t *testing.T) {
	for _, s := range []string{"fa00 0038", "0xFA000038", "fa:00:00:38", "fa-00-00-38\n"} {
		data, err := ParseHex(s)
		require.NoError(t, err, s)
		assert.Equal(t, []byte{0xfa, 0x00, 0x00, 0x38}, data)
	}
	_, err := ParseHex("fa0")
	assert.Error(t, err)
	_, err = ParseHex("zz")
	assert.Error(t, err)
}

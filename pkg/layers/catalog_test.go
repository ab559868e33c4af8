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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogValidate(t *testing.T) {
	require.NoError(t, NewCatalog().Validate())

	c := NewCatalog()
	c.ACMP.Status = &Field{Name: "Status", Abbrev: "bad.status", Offset: 1, Width: 1, Mask: 0x1f8}
	assert.Error(t, c.Validate())
}

func TestDefaultCatalogIsShared(t *testing.T) {
	assert.Same(t, DefaultCatalog(), DefaultCatalog())
	assert.Same(t, DefaultCatalog(), NewDecoder(nil).Catalog())
}

func TestCatalogTablesEndInsideMessage(t *testing.T) {
	c := DefaultCatalog()
	for _, f := range c.ADPTable() {
		assert.LessOrEqual(t, f.End(), ADPLength, f.String())
	}
	for _, f := range c.ACMPTable() {
		assert.LessOrEqual(t, f.End(), ACMPLength, f.String())
	}
}

func TestCatalogAbbrevsUnique(t *testing.T) {
	c := DefaultCatalog()
	seen := map[string]bool{}
	for _, f := range append(c.ADPTable(), c.ACMPTable()...) {
		assert.False(t, seen[f.Abbrev], "duplicate abbrev %s", f.Abbrev)
		seen[f.Abbrev] = true
	}
}

func TestFlagTables(t *testing.T) {
	c := DefaultCatalog()
	assert.Len(t, c.ADP.EntityCapabilities.Flags, 7)
	assert.Len(t, c.ADP.TalkerCapabilities.Flags, 8)
	assert.Len(t, c.ADP.ListenerCapabilities.Flags, 8)
	assert.Len(t, c.ADP.ControllerCapabilities.Flags, 2)
	assert.Len(t, c.ADP.SampleRates.Flags, 6)
	assert.Len(t, c.ADP.ChannelFormats.Flags, 16)
	assert.Len(t, c.ACMP.Flags.Flags, 4)

	for _, f := range c.ADP.ListenerCapabilities.Flags {
		assert.NotContains(t, f.Abbrev, "source")
	}
}

func TestStatusCodes(t *testing.T) {
	for code := uint64(0); code <= 15; code++ {
		_, ok := ACMPStatusCodes.Lookup(code)
		assert.True(t, ok, "status %d", code)
	}
	for code := uint64(16); code <= 30; code++ {
		_, ok := ACMPStatusCodes.Lookup(code)
		assert.False(t, ok, "status %d", code)
	}
	label, ok := ACMPStatusCodes.Lookup(31)
	assert.True(t, ok)
	assert.Equal(t, "NOT_SUPPORTED", label)
}

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

package command

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jinr.ru/greenlab/go-avdecc/pkg/config"
	"jinr.ru/greenlab/go-avdecc/pkg/srv/api"
	"jinr.ru/greenlab/go-avdecc/pkg/state"
)

func newClient(t *testing.T) (*ApiClient, *state.State) {
	dir := t.TempDir()
	st, err := state.Open(filepath.Join(dir, "entities.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := config.NewConfig(filepath.Join(dir, "config"))
	s, err := api.NewApiServer(context.Background(), cfg, st)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	c := NewApiClient(cfg)
	c.ApiPrefix = ts.URL + api.ApiPrefix
	return c, st
}

func TestListEntities(t *testing.T) {
	c, st := newClient(t)
	entities, err := c.ListEntities()
	require.NoError(t, err)
	assert.Empty(t, entities)

	require.NoError(t, st.PutEntity(&state.Entity{GUID: "0x0000000000000001"}))
	entities, err = c.ListEntities()
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "0x0000000000000001", entities[0].GUID)

	entity, err := c.GetEntity("0x1")
	require.NoError(t, err)
	assert.Equal(t, "0x0000000000000001", entity.GUID)

	_, err = c.GetEntity("0x2")
	assert.ErrorAs(t, err, &ErrStatus{})
}

func TestDecode(t *testing.T) {
	c, _ := newClient(t)
	response, err := c.Decode("fb 00 00 00")
	require.NoError(t, err)
	assert.Equal(t, "AVDECC Enumeration and Control Protocol", response.Info)
	assert.Empty(t, response.Tree.Flatten())

	_, err = c.Decode("xyz")
	assert.ErrorAs(t, err, &ErrStatus{})
}

func TestDefaultPrefix(t *testing.T) {
	c := NewApiClient(config.NewConfig(""))
	assert.Equal(t, "http://127.0.0.1:8722/api", c.ApiPrefix)
}

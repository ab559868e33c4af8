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

package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	cfg := NewConfig(filepath.Join(t.TempDir(), "config"))
	require.NoError(t, cfg.Load())
	assert.Equal(t, DefaultLogLevel, cfg.LogConfig.Level)
	assert.Equal(t, "127.0.0.1:8722", cfg.Endpoint())
	assert.Equal(t, "http://127.0.0.1:8722", cfg.URL())
}

func TestPersistAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigDir, ConfigFile)
	cfg := NewConfig(path)
	cfg.LogConfig.Level = "debug"
	cfg.LogConfig.File = "/var/log/go-avdecc.log"
	cfg.APIConfig.Port = 9000
	cfg.DBPath = "/tmp/entities.db"
	require.NoError(t, cfg.Persist(false))

	loaded := NewConfig(path)
	require.NoError(t, loaded.Load())
	assert.Equal(t, "debug", loaded.LogConfig.Level)
	assert.Equal(t, "/var/log/go-avdecc.log", loaded.LogConfig.File)
	assert.Equal(t, 9000, loaded.APIConfig.Port)
	assert.Equal(t, DefaultAPIAddress, loaded.APIConfig.Address)
	assert.Equal(t, "/tmp/entities.db", loaded.DBPath)
	assert.Equal(t, path, loaded.Path())
}

func TestPersistDoesNotOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFile)
	cfg := NewConfig(path)
	require.NoError(t, cfg.Persist(false))

	err := cfg.Persist(false)
	var errExists ErrConfigFileExists
	require.True(t, errors.As(err, &errExists))
	assert.Equal(t, path, errExists.Path)

	assert.NoError(t, cfg.Persist(true))
}

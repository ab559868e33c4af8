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
	"fmt"
	"net/http"
	"net/url"

	"github.com/imroc/req"

	"jinr.ru/greenlab/go-avdecc/pkg/config"
	"jinr.ru/greenlab/go-avdecc/pkg/srv/api"
	"jinr.ru/greenlab/go-avdecc/pkg/state"
)

// Client is what the CLI needs from a running server
type Client interface {
	ListEntities() ([]*state.Entity, error)
	GetEntity(guid string) (*state.Entity, error)
	Decode(payload string) (*api.DecodeResponse, error)
}

type ApiClient struct {
	*config.Config
	ApiPrefix string
}

var _ Client = &ApiClient{}

func NewApiClient(cfg *config.Config) *ApiClient {
	return &ApiClient{
		Config:    cfg,
		ApiPrefix: cfg.URL() + api.ApiPrefix,
	}
}

type ErrStatus struct {
	Status string
	Body   string
}

func (e ErrStatus) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API request failed: %s", e.Status)
	}
	return fmt.Sprintf("API request failed: %s: %s", e.Status, e.Body)
}

func checkStatus(r *req.Resp) error {
	if r.Response().StatusCode != http.StatusOK {
		return ErrStatus{Status: r.Response().Status, Body: r.String()}
	}
	return nil
}

// ListEntities requests all entities known to the server
func (c *ApiClient) ListEntities() ([]*state.Entity, error) {
	r, err := req.Get(fmt.Sprintf("%s/entities", c.ApiPrefix))
	if err != nil {
		return nil, err
	}
	if err := checkStatus(r); err != nil {
		return nil, err
	}
	var entities []*state.Entity
	if err := r.ToJSON(&entities); err != nil {
		return nil, err
	}
	return entities, nil
}

// GetEntity requests one entity by its GUID
func (c *ApiClient) GetEntity(guid string) (*state.Entity, error) {
	r, err := req.Get(fmt.Sprintf("%s/entities/%s", c.ApiPrefix, url.PathEscape(guid)))
	if err != nil {
		return nil, err
	}
	if err := checkStatus(r); err != nil {
		return nil, err
	}
	entity := &state.Entity{}
	if err := r.ToJSON(entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// Decode asks the server to decode a hex payload
func (c *ApiClient) Decode(payload string) (*api.DecodeResponse, error) {
	r, err := req.Post(fmt.Sprintf("%s/decode", c.ApiPrefix), req.BodyJSON(&api.DecodeRequest{Payload: payload}))
	if err != nil {
		return nil, err
	}
	if err := checkStatus(r); err != nil {
		return nil, err
	}
	response := &api.DecodeResponse{}
	if err := r.ToJSON(response); err != nil {
		return nil, err
	}
	return response, nil
}

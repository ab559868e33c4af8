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

// Package api serves the entity registry and the offline decoder over HTTP
package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-openapi/loads"
	"github.com/go-openapi/runtime/middleware"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"jinr.ru/greenlab/go-avdecc/pkg/config"
	"jinr.ru/greenlab/go-avdecc/pkg/layers"
	"jinr.ru/greenlab/go-avdecc/pkg/log"
	"jinr.ru/greenlab/go-avdecc/pkg/state"
)

const (
	ApiPrefix   = "/api"
	SwaggerPath = "/swagger.json"
	DocsPath    = "docs"

	shutdownTimeout = 5 * time.Second
)

//go:embed swagger.json
var swaggerJSON []byte

type DecodeRequest struct {
	Payload string `json:"payload"`
}

type DecodeResponse struct {
	layers.Columns
	Tree      *layers.Tree `json:"tree"`
	Truncated bool         `json:"truncated"`
	Error     string       `json:"error,omitempty"`
}

type ApiServer struct {
	context.Context
	*config.Config
	*mux.Router
	state   *state.State
	decoder *layers.Decoder
	doc     *loads.Document
}

func NewApiServer(ctx context.Context, cfg *config.Config, st *state.State) (*ApiServer, error) {
	log.Info("Initializing API server with address: %s", cfg.Endpoint())
	doc, err := loads.Analyzed(json.RawMessage(swaggerJSON), "")
	if err != nil {
		return nil, err
	}
	s := &ApiServer{
		Context: ctx,
		Config:  cfg,
		state:   st,
		decoder: layers.NewDecoder(nil),
		doc:     doc,
	}
	s.configureRouter()
	return s, nil
}

// Handler wraps the router with the docs page and request logging
func (s *ApiServer) Handler() http.Handler {
	docs := middleware.Redoc(middleware.RedocOpts{
		Path:    DocsPath,
		SpecURL: SwaggerPath,
		Title:   s.doc.Spec().Info.Title,
	}, s.Router)
	return handlers.LoggingHandler(log.Writer(), docs)
}

// Run serves until the context is done
func (s *ApiServer) Run() error {
	log.Info("Starting API server: address: %s", s.Config.Endpoint())
	httpServer := &http.Server{
		Handler: s.Handler(),
		Addr:    s.Config.Endpoint(),
	}
	go func() {
		<-s.Context.Done()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Error("Error while shutting down API server: %s", err)
		}
	}()
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *ApiServer) configureRouter() {
	s.Router = mux.NewRouter()
	s.Router.HandleFunc(SwaggerPath, s.handleSwagger()).Methods("GET")
	subRouter := s.Router.PathPrefix(ApiPrefix).Subrouter()
	subRouter.HandleFunc("/entities", s.handleEntities()).Methods("GET")
	subRouter.HandleFunc("/entities/{guid}", s.handleEntity()).Methods("GET")
	subRouter.HandleFunc("/decode", s.handleDecode()).Methods("POST")
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Error while encoding response: %s", err)
	}
}

func (s *ApiServer) handleSwagger() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(s.doc.Raw())
	}
}

func (s *ApiServer) handleEntities() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Handling entities request")
		if s.state == nil {
			http.Error(w, "Entity registry is not configured", http.StatusServiceUnavailable)
			return
		}
		entities, err := s.state.Entities()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, entities)
	}
}

func (s *ApiServer) handleEntity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		log.Debug("Handling entity request: %s", vars["guid"])
		if s.state == nil {
			http.Error(w, "Entity registry is not configured", http.StatusServiceUnavailable)
			return
		}
		guid, err := state.ParseGUID(vars["guid"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		entity, err := s.state.Entity(state.GUIDKey(guid))
		var errNotFound state.ErrEntityNotFound
		if errors.As(err, &errNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, entity)
	}
}

func (s *ApiServer) handleDecode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		request := &DecodeRequest{}
		if err := json.NewDecoder(r.Body).Decode(request); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		payload, err := layers.ParseHex(request.Payload)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		response := &DecodeResponse{}
		response.Tree, err = s.decoder.Dispatch(payload, &response.Columns)
		if err != nil {
			var errTruncated layers.ErrTruncated
			response.Truncated = errors.As(err, &errTruncated)
			response.Error = err.Error()
		}
		writeJSON(w, response)
	}
}

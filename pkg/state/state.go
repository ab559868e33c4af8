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
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.etcd.io/bbolt"
	"sigs.k8s.io/yaml"

	"jinr.ru/greenlab/go-avdecc/pkg/capture"
	"jinr.ru/greenlab/go-avdecc/pkg/layers"
	"jinr.ru/greenlab/go-avdecc/pkg/log"
)

const (
	EntitiesBucket = "entities"
)

// Entity is the last ENTITY_AVAILABLE advertisement of an AVDECC entity
type Entity struct {
	GUID                   string   `json:"guid"`
	VendorID               string   `json:"vendorID"`
	ModelID                string   `json:"modelID"`
	Capabilities           []string `json:"capabilities,omitempty"`
	TalkerStreamSources    uint64   `json:"talkerStreamSources"`
	TalkerCapabilities     []string `json:"talkerCapabilities,omitempty"`
	ListenerStreamSinks    uint64   `json:"listenerStreamSinks"`
	ListenerCapabilities   []string `json:"listenerCapabilities,omitempty"`
	ControllerCapabilities []string `json:"controllerCapabilities,omitempty"`
	AvailableIndex         uint64   `json:"availableIndex"`
	GrandmasterID          string   `json:"grandmasterID"`
	AssociationID          string   `json:"associationID"`
	ValidTime              uint64   `json:"validTime"`
	SourceMAC              string   `json:"sourceMAC,omitempty"`
	// LastSeen is the capture time in unix milliseconds
	LastSeen int64 `json:"lastSeen"`
}

type State struct {
	DB *bbolt.DB
}

// Open opens or creates the entity database
func Open(path string) (*State, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(EntitiesBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &State{DB: db}, nil
}

// Close ...
func (s *State) Close() error {
	return s.DB.Close()
}

// GUIDKey formats an entity GUID the way entities are keyed
func GUIDKey(guid uint64) string {
	return fmt.Sprintf("0x%016x", guid)
}

// ParseGUID accepts a GUID with or without the 0x prefix
func ParseGUID(s string) (uint64, error) {
	guid, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 64)
	if err != nil {
		return 0, ErrBadGUID{GUID: s}
	}
	return guid, nil
}

// Observe updates the registry with an ADP record.
// ENTITY_AVAILABLE stores the entity, ENTITY_DEPARTING removes it, anything else is ignored.
func (s *State) Observe(rec capture.Record) error {
	if rec.Layer == nil || rec.Layer.Tree == nil || rec.Layer.Tree.Kind != layers.KindDiscovery {
		return nil
	}
	if rec.Layer.Err != nil {
		log.Warning("Skipping packet %d: %s", rec.Index, rec.Layer.Err)
		return nil
	}
	messageType, ok := layers.ADPMessageType(rec.Layer.Tree)
	if !ok {
		return nil
	}

	entity := NewEntity(rec)
	switch messageType {
	case layers.ADPEntityAvailable:
		return s.PutEntity(entity)
	case layers.ADPEntityDeparting:
		return s.DeleteEntity(entity.GUID)
	default:
		return nil
	}
}

// NewEntity collects the entity description from a decoded ADP message
func NewEntity(rec capture.Record) *Entity {
	adp := &layers.DefaultCatalog().ADP
	tree := rec.Layer.Tree
	value := func(f *layers.Field) uint64 {
		if n := tree.Find(f.Abbrev); n != nil {
			return n.Value
		}
		return 0
	}
	hex := func(f *layers.Field) string {
		return fmt.Sprintf("0x%0*x", f.Width*2, value(f))
	}

	e := &Entity{
		GUID:                   GUIDKey(value(adp.EntityGUID)),
		VendorID:               hex(adp.VendorID),
		ModelID:                hex(adp.ModelID),
		Capabilities:           flags(tree, adp.EntityCapabilities),
		TalkerStreamSources:    value(adp.TalkerStreamSources),
		TalkerCapabilities:     flags(tree, adp.TalkerCapabilities),
		ListenerStreamSinks:    value(adp.ListenerStreamSinks),
		ListenerCapabilities:   flags(tree, adp.ListenerCapabilities),
		ControllerCapabilities: flags(tree, adp.ControllerCapabilities),
		AvailableIndex:         value(adp.AvailableIndex),
		GrandmasterID:          hex(adp.GrandmasterID),
		AssociationID:          hex(adp.AssociationID),
		ValidTime:              value(adp.ValidTime),
		LastSeen:               rec.Timestamp.UnixNano() / 1e6,
	}
	if rec.SrcMAC != nil {
		e.SourceMAC = rec.SrcMAC.String()
	}
	return e
}

func flags(tree *layers.Tree, g layers.Group) []string {
	var set []string
	n := tree.Find(g.Abbrev)
	if n == nil {
		return nil
	}
	for _, flag := range n.Children {
		if flag.Bool() {
			set = append(set, flag.Name)
		}
	}
	return set
}

// PutEntity ...
func (s *State) PutEntity(e *Entity) error {
	log.Debug("Storing entity %s", e.GUID)
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(EntitiesBucket))
		if b == nil {
			return ErrBucketNotFound{Bucket: EntitiesBucket}
		}
		data, err := yaml.Marshal(e)
		if err != nil {
			return err
		}
		return b.Put([]byte(e.GUID), data)
	})
}

// DeleteEntity removes the entity. Removing an unknown entity is not an error.
func (s *State) DeleteEntity(guid string) error {
	log.Debug("Removing entity %s", guid)
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(EntitiesBucket))
		if b == nil {
			return ErrBucketNotFound{Bucket: EntitiesBucket}
		}
		return b.Delete([]byte(guid))
	})
}

// Entity returns the entity with the given GUID key
func (s *State) Entity(guid string) (*Entity, error) {
	e := &Entity{}
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(EntitiesBucket))
		if b == nil {
			return ErrBucketNotFound{Bucket: EntitiesBucket}
		}
		data := b.Get([]byte(guid))
		if data == nil {
			return ErrEntityNotFound{GUID: guid}
		}
		return yaml.Unmarshal(data, e)
	}); err != nil {
		return nil, err
	}
	return e, nil
}

// Entities returns all known entities ordered by GUID
func (s *State) Entities() ([]*Entity, error) {
	entities := []*Entity{}
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(EntitiesBucket))
		if b == nil {
			return ErrBucketNotFound{Bucket: EntitiesBucket}
		}
		return b.ForEach(func(_, data []byte) error {
			e := &Entity{}
			if err := yaml.Unmarshal(data, e); err != nil {
				log.Error("Error while unmarshalling entity %s", err)
				return err
			}
			entities = append(entities, e)
			return nil
		})
	}); err != nil {
		return nil, err
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].GUID < entities[j].GUID })
	return entities, nil
}

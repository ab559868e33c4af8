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
	"jinr.ru/greenlab/go-avdecc/pkg/log"
)

// DecodeADP decodes an AVDECC Discovery Protocol message.
// On a short buffer the fields decoded so far are returned together with ErrTruncated.
func (d *Decoder) DecodeADP(data []byte) (*Tree, error) {
	a := &d.catalog.ADP
	tree := newTree(SubtypeADP)
	root := tree.Root
	b := &builder{data: data}

	b.field(root, a.MessageType)
	b.field(root, a.ValidTime)
	b.field(root, a.ControlDataLength)
	b.field(root, a.EntityGUID)
	b.field(root, a.VendorID)
	b.field(root, a.ModelID)
	b.group(root, a.EntityCapabilities)
	b.field(root, a.TalkerStreamSources)
	b.group(root, a.TalkerCapabilities)
	b.field(root, a.ListenerStreamSinks)
	b.group(root, a.ListenerCapabilities)
	b.group(root, a.ControllerCapabilities)
	b.field(root, a.AvailableIndex)
	b.field(root, a.GrandmasterID)

	audio := b.field(root, a.DefaultAudioFormat)
	b.group(audio, a.SampleRates)
	b.field(audio, a.MaxChannels)
	b.field(audio, a.SAF)
	b.field(audio, a.Float)
	b.group(audio, a.ChannelFormats)

	b.field(root, a.DefaultVideoFormat)
	b.field(root, a.AssociationID)
	b.field(root, a.EntityType)

	if b.err != nil {
		log.Debug("DecodeADP: %s", b.err)
	}
	return tree, b.err
}

// ADPMessageType returns the message type code of a decoded ADP tree
func ADPMessageType(t *Tree) (uint64, bool) {
	if t == nil || t.Kind != KindDiscovery {
		return 0, false
	}
	n := t.Find(DefaultCatalog().ADP.MessageType.Abbrev)
	if n == nil {
		return 0, false
	}
	return n.Value, true
}

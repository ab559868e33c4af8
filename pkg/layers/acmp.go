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

// DecodeACMP decodes an AVDECC Connection Management Protocol message.
// Truncation is handled the same way as in DecodeADP.
func (d *Decoder) DecodeACMP(data []byte) (*Tree, error) {
	a := &d.catalog.ACMP
	tree := newTree(SubtypeACMP)
	root := tree.Root
	b := &builder{data: data}

	b.field(root, a.MessageType)
	b.field(root, a.Status)
	b.field(root, a.ControlDataLength)
	b.field(root, a.StreamID)
	b.field(root, a.ControllerGUID)
	b.field(root, a.TalkerGUID)
	b.field(root, a.ListenerGUID)
	b.field(root, a.TalkerUniqueID)
	b.field(root, a.ListenerUniqueID)
	b.field(root, a.DestMac)
	b.field(root, a.ConnectionCount)
	b.field(root, a.SequenceID)
	b.group(root, a.Flags)
	b.field(root, a.DefaultFormat)

	if b.err != nil {
		log.Debug("DecodeACMP: %s", b.err)
	}
	return tree, b.err
}

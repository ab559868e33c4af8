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
	"fmt"
	"io"
	"strings"

	"sigs.k8s.io/yaml"

	"jinr.ru/greenlab/go-avdecc/pkg/log"
)

const (
	ProtocolName = "IEEE 1722.1 Protocol"
)

// Tree is the result of decoding one AVDECC message
type Tree struct {
	Kind    MessageKind `json:"kind"`
	Subtype Subtype     `json:"subtype"`
	Root    *Node       `json:"root"`
}

func newTree(subtype Subtype) *Tree {
	return &Tree{
		Kind:    subtype.Kind(),
		Subtype: subtype,
		Root:    &Node{Name: ProtocolName, Abbrev: "ieee17221"},
	}
}

// Find searches the whole tree for a node by its abbreviation
func (t *Tree) Find(abbrev string) *Node {
	return find(t.Root, abbrev)
}

func find(n *Node, abbrev string) *Node {
	if n == nil {
		return nil
	}
	if n.Abbrev == abbrev {
		return n
	}
	for _, c := range n.Children {
		if found := find(c, abbrev); found != nil {
			return found
		}
	}
	return nil
}

// Flatten returns all decoded nodes in the order they were decoded, groups before their children
func (t *Tree) Flatten() []*Node {
	var nodes []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		for _, c := range n.Children {
			nodes = append(nodes, c)
			walk(c)
		}
	}
	walk(t.Root)
	return nodes
}

// Format writes the tree as indented text
func (t *Tree) Format(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s\n", t.Root.Name); err != nil {
		return err
	}
	return format(w, t.Root, 1)
}

func format(w io.Writer, n *Node, depth int) error {
	for _, c := range n.Children {
		if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("    ", depth), c.Display); err != nil {
			return err
		}
		if err := format(w, c, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) String() string {
	result, err := yaml.Marshal(t)
	if err != nil {
		log.Error("Error occured while marshaling decoded tree, %s", err)
		return ""
	}
	return fmt.Sprintf("---\n%s", string(result))
}

// builder adds nodes to a tree until the first field that does not fit into the buffer.
// Everything decoded before that field stays in the tree.
type builder struct {
	data []byte
	err  error
}

func (b *builder) field(parent *Node, f *Field) *Node {
	if b.err != nil || parent == nil {
		return nil
	}
	n, err := DecodeField(b.data, f)
	if err != nil {
		b.err = err
		return nil
	}
	parent.add(n)
	return n
}

func (b *builder) group(parent *Node, g Group) *Node {
	n := b.field(parent, g.Field)
	if n == nil {
		return nil
	}
	flags, err := DecodeGroup(b.data, g.Offset, g.Width, g.Flags)
	if err != nil {
		b.err = err
		return n
	}
	for _, flag := range flags {
		n.add(flag)
	}
	return n
}

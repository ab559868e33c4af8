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

package capture

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"net"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	avdecc "jinr.ru/greenlab/go-avdecc/pkg/layers"
	"jinr.ru/greenlab/go-avdecc/pkg/log"
)

const (
	// NgMagic is the block type of the pcapng section header
	NgMagic = 0x0a0d0d0a
)

// Record is an AVDECC message found in a capture
type Record struct {
	// Index is the number of the packet in the capture starting from 1
	Index     int
	Timestamp time.Time
	SrcMAC    net.HardwareAddr
	DstMAC    net.HardwareAddr
	Layer     *avdecc.AVDECC
}

type packetReader interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
}

// Source reads AVDECC records from a pcap or pcapng stream
type Source struct {
	packets *gopacket.PacketSource
	closer  io.Closer
	index   int
	err     error
}

// Open opens a capture file
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	s, err := NewSource(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.closer = f
	return s, nil
}

// NewSource detects the capture format by its magic number
func NewSource(r io.Reader) (*Source, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err != nil {
		return nil, ErrCaptureFormat{Reason: err.Error()}
	}

	var reader packetReader
	if binary.BigEndian.Uint32(magic) == NgMagic {
		reader, err = pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
	} else {
		reader, err = pcapgo.NewReader(br)
	}
	if err != nil {
		return nil, ErrCaptureFormat{Reason: err.Error()}
	}
	log.Debug("Capture link type %s", reader.LinkType())

	return &Source{packets: gopacket.NewPacketSource(reader, reader.LinkType())}, nil
}

// Next returns the next packet that carries an AVDECC message. It returns io.EOF at the end of the capture.
func (s *Source) Next() (Record, error) {
	for {
		packet, err := s.packets.NextPacket()
		if err != nil {
			return Record{}, err
		}
		s.index++
		record, ok := newRecord(s.index, packet)
		if ok {
			return record, nil
		}
	}
}

// Records sends every AVDECC record of the capture to the returned channel.
// The channel is closed at the end of the capture, on a read error or when ctx is done.
// A read error is reported by Err once the channel is closed.
func (s *Source) Records(ctx context.Context) <-chan Record {
	records := make(chan Record)
	go func() {
		defer close(records)
		for {
			record, err := s.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				s.err = ErrCaptureRead{Packet: s.index + 1, Err: err}
				return
			}
			select {
			case records <- record:
			case <-ctx.Done():
				return
			}
		}
	}()
	return records
}

// Err returns the read error that stopped Records, nil at the end of the capture.
// It must be called after the records channel is closed.
func (s *Source) Err() error {
	return s.err
}

// Close closes the capture file if the source was created by Open
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func newRecord(index int, packet gopacket.Packet) (Record, bool) {
	layer, ok := packet.Layer(avdecc.LayerTypeAVDECC).(*avdecc.AVDECC)
	if !ok {
		return Record{}, false
	}
	record := Record{
		Index:     index,
		Timestamp: packet.Metadata().Timestamp,
		Layer:     layer,
	}
	if eth, ok := packet.Layer(layers.LayerTypeEthernet).(*layers.Ethernet); ok {
		record.SrcMAC = eth.SrcMAC
		record.DstMAC = eth.DstMAC
	}
	if layer.Err != nil {
		log.Debug("Packet %d: %s", index, layer.Err)
	}
	return record, true
}

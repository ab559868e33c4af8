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
	"math/bits"
	"sync"
)

const (
	ADPEntityAvailable uint64 = 0x00
	ADPEntityDeparting uint64 = 0x01
	ADPEntityDiscover  uint64 = 0x02
)

const (
	ACMPConnectTxCommand        uint64 = 0
	ACMPConnectTxResponse       uint64 = 1
	ACMPDisconnectTxCommand     uint64 = 2
	ACMPDisconnectTxResponse    uint64 = 3
	ACMPGetTxStateCommand       uint64 = 4
	ACMPGetTxStateResponse      uint64 = 5
	ACMPConnectRxCommand        uint64 = 6
	ACMPConnectRxResponse       uint64 = 7
	ACMPDisconnectRxCommand     uint64 = 8
	ACMPDisconnectRxResponse    uint64 = 9
	ACMPGetRxStateCommand       uint64 = 10
	ACMPGetRxStateResponse      uint64 = 11
	ACMPGetTxConnectionCommand  uint64 = 12
	ACMPGetTxConnectionResponse uint64 = 13
)

const (
	ACMPStatusSuccess                      uint64 = 0
	ACMPStatusListenerUnknownID            uint64 = 1
	ACMPStatusTalkerUnknownID              uint64 = 2
	ACMPStatusTalkerDestMacFail            uint64 = 3
	ACMPStatusTalkerNoStreamIndex          uint64 = 4
	ACMPStatusTalkerNoBandwidth            uint64 = 5
	ACMPStatusTalkerExclusive              uint64 = 6
	ACMPStatusListenerTalkerTimeout        uint64 = 7
	ACMPStatusListenerExclusive            uint64 = 8
	ACMPStatusStateUnavailable             uint64 = 9
	ACMPStatusNotConnected                 uint64 = 10
	ACMPStatusNoSuchConnection             uint64 = 11
	ACMPStatusCouldNotSendMessage          uint64 = 12
	ACMPStatusListenerDefaultFormatInvalid uint64 = 13
	ACMPStatusTalkerDefaultFormatInvalid   uint64 = 14
	ACMPStatusDefaultSetDifferent          uint64 = 15
	ACMPStatusNotSupported                 uint64 = 31
)

const (
	// ADPLength is the length of an ADP message including the AVTP control header
	ADPLength = 68
	// ACMPLength is the length of an ACMP message including the AVTP control header
	ACMPLength = 56
)

var ADPMessageTypes = EnumTable{
	{ADPEntityAvailable, "ENTITY_AVAILABLE"},
	{ADPEntityDeparting, "ENTITY_DEPARTING"},
	{ADPEntityDiscover, "ENTITY_DISCOVER"},
}

var ACMPMessageTypes = EnumTable{
	{ACMPConnectTxCommand, "CONNECT_TX_COMMAND"},
	{ACMPConnectTxResponse, "CONNECT_TX_RESPONSE"},
	{ACMPDisconnectTxCommand, "DISCONNECT_TX_COMMAND"},
	{ACMPDisconnectTxResponse, "DISCONNECT_TX_RESPONSE"},
	{ACMPGetTxStateCommand, "GET_TX_STATE_COMMAND"},
	{ACMPGetTxStateResponse, "GET_TX_STATE_RESPONSE"},
	{ACMPConnectRxCommand, "CONNECT_RX_COMMAND"},
	{ACMPConnectRxResponse, "CONNECT_RX_RESPONSE"},
	{ACMPDisconnectRxCommand, "DISCONNECT_RX_COMMAND"},
	{ACMPDisconnectRxResponse, "DISCONNECT_RX_RESPONSE"},
	{ACMPGetRxStateCommand, "GET_RX_STATE_COMMAND"},
	{ACMPGetRxStateResponse, "GET_RX_STATE_RESPONSE"},
	{ACMPGetTxConnectionCommand, "GET_TX_CONNECTION_COMMAND"},
	{ACMPGetTxConnectionResponse, "GET_TX_CONNECTION_RESPONSE"},
}

// ACMPStatusCodes has no entries for 16..30, those codes are reserved
var ACMPStatusCodes = EnumTable{
	{ACMPStatusSuccess, "SUCCESS"},
	{ACMPStatusListenerUnknownID, "LISTENER_UNKNOWN_ID"},
	{ACMPStatusTalkerUnknownID, "TALKER_UNKNOWN_ID"},
	{ACMPStatusTalkerDestMacFail, "TALKER_DEST_MAC_FAIL"},
	{ACMPStatusTalkerNoStreamIndex, "TALKER_NO_STREAM_INDEX"},
	{ACMPStatusTalkerNoBandwidth, "TALKER_NO_BANDWIDTH"},
	{ACMPStatusTalkerExclusive, "TALKER_EXCLUSIVE"},
	{ACMPStatusListenerTalkerTimeout, "LISTENER_TALKER_TIMEOUT"},
	{ACMPStatusListenerExclusive, "LISTENER_EXCLUSIVE"},
	{ACMPStatusStateUnavailable, "STATE_UNAVAILABLE"},
	{ACMPStatusNotConnected, "NOT_CONNECTED"},
	{ACMPStatusNoSuchConnection, "NO_SUCH_CONNECTION"},
	{ACMPStatusCouldNotSendMessage, "COULD_NOT_SEND_MESSAGE"},
	{ACMPStatusListenerDefaultFormatInvalid, "LISTENER_DEFAULT_FORMAT_INVALID"},
	{ACMPStatusTalkerDefaultFormatInvalid, "TALKER_DEFAULT_FORMAT_INVALID"},
	{ACMPStatusDefaultSetDifferent, "DEFAULT_SET_DIFFERENT"},
	{ACMPStatusNotSupported, "NOT_SUPPORTED"},
}

var BoolLabels = EnumTable{
	{1, "True"},
	{0, "False"},
}

// Group is a word whose bits are rendered as separate sub fields
type Group struct {
	*Field
	Flags []*Field
}

// ADPFields is the ADP part of the catalog in message order
type ADPFields struct {
	MessageType            *Field
	ValidTime              *Field
	ControlDataLength      *Field
	EntityGUID             *Field
	VendorID               *Field
	ModelID                *Field
	EntityCapabilities     Group
	TalkerStreamSources    *Field
	TalkerCapabilities     Group
	ListenerStreamSinks    *Field
	ListenerCapabilities   Group
	ControllerCapabilities Group
	AvailableIndex         *Field
	GrandmasterID          *Field
	DefaultAudioFormat     *Field
	SampleRates            Group
	MaxChannels            *Field
	SAF                    *Field
	Float                  *Field
	ChannelFormats         Group
	DefaultVideoFormat     *Field
	AssociationID          *Field
	EntityType             *Field
}

// ACMPFields is the ACMP part of the catalog in message order
type ACMPFields struct {
	MessageType       *Field
	Status            *Field
	ControlDataLength *Field
	StreamID          *Field
	ControllerGUID    *Field
	TalkerGUID        *Field
	ListenerGUID      *Field
	TalkerUniqueID    *Field
	ListenerUniqueID  *Field
	DestMac           *Field
	ConnectionCount   *Field
	SequenceID        *Field
	Flags             Group
	DefaultFormat     *Field
}

// Catalog holds every field the decoders know about. It is never modified after
// NewCatalog returns, so a single catalog can serve any number of decoders.
type Catalog struct {
	ADP  ADPFields
	ACMP ACMPFields
}

func field(name, abbrev string, offset, width int, mask uint64, base Base, enum EnumTable) *Field {
	return &Field{
		Name:   name,
		Abbrev: abbrev,
		Offset: offset,
		Width:  width,
		Mask:   mask,
		Base:   base,
		Enum:   enum,
	}
}

type flagSpec struct {
	name string
	key  string
	mask uint64
}

func group(name, abbrev string, offset, width int, mask uint64, flags ...flagSpec) Group {
	g := Group{Field: field(name, abbrev, offset, width, mask, BaseHex, nil)}
	for _, fs := range flags {
		g.Flags = append(g.Flags, field(fs.name, abbrev+"."+fs.key, offset, width, fs.mask, BaseDec, BoolLabels))
	}
	return g
}

// NewCatalog builds the ADP and ACMP field catalog
func NewCatalog() *Catalog {
	c := &Catalog{}

	c.ADP = ADPFields{
		MessageType:       field("Message Type", "ieee17221.adp.message_type", 1, 1, 0x0f, BaseDec, ADPMessageTypes),
		ValidTime:         field("Valid Time", "ieee17221.adp.valid_time", 2, 1, 0xf8, BaseDec, nil),
		ControlDataLength: field("Control Data Length", "ieee17221.adp.control_data_length", 2, 2, 0x07ff, BaseDec, nil),
		EntityGUID:        field("Entity GUID", "ieee17221.entity_guid", 4, 8, 0, BaseHex, nil),
		VendorID:          field("Vendor ID", "ieee17221.vendor_id", 12, 4, 0, BaseHex, nil),
		ModelID:           field("Model ID", "ieee17221.model_id", 16, 4, 0, BaseHex, nil),
		EntityCapabilities: group("Entity Capabilities", "ieee17221.entity_capabilities", 20, 4, 0,
			flagSpec{"AVDECC_IP", "avdecc_ip", 0x01},
			flagSpec{"ZERO_CONF", "zero_conf", 0x02},
			flagSpec{"GATEWAY_ENTITY", "gateway_entity", 0x04},
			flagSpec{"AVDECC_CONTROL", "avdecc_control", 0x08},
			flagSpec{"LEGACY_AVC", "legacy_avc", 0x10},
			flagSpec{"ASSOCIATION_ID_SUPPORTED", "association_id_supported", 0x20},
			flagSpec{"ASSOCIATION_ID_VALID", "association_id_valid", 0x40},
		),
		TalkerStreamSources: field("Talker Stream Sources", "ieee17221.talker_stream_sources", 24, 2, 0, BaseDec, nil),
		TalkerCapabilities: group("Talker Capabilities", "ieee17221.talker_capabilities", 26, 2, 0,
			flagSpec{"IMPLEMENTED", "implemented", 0x0001},
			flagSpec{"OTHER_SOURCE", "other_source", 0x0200},
			flagSpec{"CONTROL_SOURCE", "control_source", 0x0400},
			flagSpec{"MEDIA_CLOCK_SOURCE", "media_clock_source", 0x0800},
			flagSpec{"SMPTE_SOURCE", "smpte_source", 0x1000},
			flagSpec{"MIDI_SOURCE", "midi_source", 0x2000},
			flagSpec{"AUDIO_SOURCE", "audio_source", 0x4000},
			flagSpec{"VIDEO_SOURCE", "video_source", 0x8000},
		),
		ListenerStreamSinks: field("Listener Stream Sinks", "ieee17221.listener_stream_sinks", 28, 2, 0, BaseDec, nil),
		ListenerCapabilities: group("Listener Capabilities", "ieee17221.listener_capabilities", 30, 2, 0,
			flagSpec{"IMPLEMENTED", "implemented", 0x0001},
			flagSpec{"OTHER_SINK", "other_sink", 0x0200},
			flagSpec{"CONTROL_SINK", "control_sink", 0x0400},
			flagSpec{"MEDIA_CLOCK_SINK", "media_clock_sink", 0x0800},
			flagSpec{"SMPTE_SINK", "smpte_sink", 0x1000},
			flagSpec{"MIDI_SINK", "midi_sink", 0x2000},
			flagSpec{"AUDIO_SINK", "audio_sink", 0x4000},
			flagSpec{"VIDEO_SINK", "video_sink", 0x8000},
		),
		ControllerCapabilities: group("Controller Capabilities", "ieee17221.controller_capabilities", 32, 4, 0,
			flagSpec{"IMPLEMENTED", "implemented", 0x00000001},
			flagSpec{"LAYER3_PROXY", "layer3_proxy", 0x00000002},
		),
		AvailableIndex:     field("Available Index", "ieee17221.available_index", 36, 4, 0, BaseHex, nil),
		GrandmasterID:      field("AS Grandmaster ID", "ieee17221.as_grandmaster_id", 40, 8, 0, BaseHex, nil),
		DefaultAudioFormat: field("Default Audio Format", "ieee17221.default_audio_format", 48, 4, 0, BaseHex, nil),
		SampleRates: group("Sample Rates", "ieee17221.default_audio_format.sample_rates", 48, 1, 0xfc,
			flagSpec{"44.1kHz", "44k1", 0x01 << 2},
			flagSpec{"48kHz", "48k", 0x02 << 2},
			flagSpec{"88.2kHz", "88k2", 0x04 << 2},
			flagSpec{"96kHz", "96k", 0x08 << 2},
			flagSpec{"176.4kHz", "176k4", 0x10 << 2},
			flagSpec{"192kHz", "192k", 0x20 << 2},
		),
		MaxChannels: field("Max Channels", "ieee17221.default_audio_format.max_channels", 48, 2, 0x03fc, BaseDec, nil),
		SAF:         field("saf", "ieee17221.default_audio_format.saf", 48, 2, 0x0002, BaseDec, BoolLabels),
		Float:       field("float", "ieee17221.default_audio_format.float", 48, 2, 0x0001, BaseDec, BoolLabels),
		ChannelFormats: group("Channel Formats", "ieee17221.default_audio_format.channel_formats", 50, 2, 0,
			flagSpec{"MONO", "mono", 0x0001},
			flagSpec{"2_CH", "2_ch", 0x0002},
			flagSpec{"3_CH", "3_ch", 0x0004},
			flagSpec{"4_CH", "4_ch", 0x0008},
			flagSpec{"5_CH", "5_ch", 0x0010},
			flagSpec{"6_CH", "6_ch", 0x0020},
			flagSpec{"7_CH", "7_ch", 0x0040},
			flagSpec{"8_CH", "8_ch", 0x0080},
			flagSpec{"10_CH", "10_ch", 0x0100},
			flagSpec{"12_CH", "12_ch", 0x0200},
			flagSpec{"14_CH", "14_ch", 0x0400},
			flagSpec{"16_CH", "16_ch", 0x0800},
			flagSpec{"18_CH", "18_ch", 0x1000},
			flagSpec{"20_CH", "20_ch", 0x2000},
			flagSpec{"22_CH", "22_ch", 0x4000},
			flagSpec{"24_CH", "24_ch", 0x8000},
		),
		DefaultVideoFormat: field("Default Video Format", "ieee17221.default_video_format", 52, 4, 0, BaseHex, nil),
		AssociationID:      field("Association ID", "ieee17221.association_id", 56, 8, 0, BaseHex, nil),
		EntityType:         field("Entity Type", "ieee17221.entity_type", 64, 4, 0, BaseHex, nil),
	}

	// message type and status share byte 1
	c.ACMP = ACMPFields{
		MessageType:       field("Message Type", "ieee17221.acmp.message_type", 1, 1, 0x0f, BaseDec, ACMPMessageTypes),
		Status:            field("Status Field", "ieee17221.acmp.status_field", 1, 1, 0xf8, BaseDec, ACMPStatusCodes),
		ControlDataLength: field("Control Data Length", "ieee17221.acmp.control_data_length", 2, 2, 0x07ff, BaseDec, nil),
		StreamID:          field("Stream ID", "ieee17221.stream_id", 4, 8, 0, BaseHex, nil),
		ControllerGUID:    field("Controller GUID", "ieee17221.controller_guid", 12, 8, 0, BaseHex, nil),
		TalkerGUID:        field("Talker GUID", "ieee17221.talker_guid", 20, 8, 0, BaseHex, nil),
		ListenerGUID:      field("Listener GUID", "ieee17221.listener_guid", 28, 8, 0, BaseHex, nil),
		TalkerUniqueID:    field("Talker Unique ID", "ieee17221.talker_unique_id", 36, 2, 0, BaseHex, nil),
		ListenerUniqueID:  field("Listener Unique ID", "ieee17221.listener_unique_id", 38, 2, 0, BaseHex, nil),
		DestMac:           field("Destination MAC address", "ieee17221.dest_mac", 40, 6, 0, BaseEther, nil),
		ConnectionCount:   field("Connection Count", "ieee17221.connection_count", 46, 2, 0, BaseDec, nil),
		SequenceID:        field("Sequence ID", "ieee17221.sequence_id", 48, 2, 0, BaseHex, nil),
		Flags: group("Flags", "ieee17221.flags", 50, 2, 0,
			flagSpec{"CLASS_B", "class_b", 0x0001},
			flagSpec{"FAST_CONNECT", "fast_connect", 0x0002},
			flagSpec{"SAVED_STATE", "saved_state", 0x0004},
			flagSpec{"STREAMING_WAIT", "streaming_wait", 0x0008},
		),
		DefaultFormat: field("Default Format", "ieee17221.default_format", 52, 4, 0, BaseHex, nil),
	}

	return c
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the process wide catalog, building it on first use
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		defaultCatalog = NewCatalog()
	})
	return defaultCatalog
}

func appendGroup(fields []*Field, g Group) []*Field {
	fields = append(fields, g.Field)
	return append(fields, g.Flags...)
}

// ADPTable lists the ADP fields in the order the decoder emits them
func (c *Catalog) ADPTable() []*Field {
	a := &c.ADP
	fields := []*Field{a.MessageType, a.ValidTime, a.ControlDataLength, a.EntityGUID, a.VendorID, a.ModelID}
	fields = appendGroup(fields, a.EntityCapabilities)
	fields = append(fields, a.TalkerStreamSources)
	fields = appendGroup(fields, a.TalkerCapabilities)
	fields = append(fields, a.ListenerStreamSinks)
	fields = appendGroup(fields, a.ListenerCapabilities)
	fields = appendGroup(fields, a.ControllerCapabilities)
	fields = append(fields, a.AvailableIndex, a.GrandmasterID, a.DefaultAudioFormat)
	fields = appendGroup(fields, a.SampleRates)
	fields = append(fields, a.MaxChannels, a.SAF, a.Float)
	fields = appendGroup(fields, a.ChannelFormats)
	return append(fields, a.DefaultVideoFormat, a.AssociationID, a.EntityType)
}

// ACMPTable lists the ACMP fields in the order the decoder emits them
func (c *Catalog) ACMPTable() []*Field {
	a := &c.ACMP
	fields := []*Field{a.MessageType, a.Status, a.ControlDataLength, a.StreamID, a.ControllerGUID,
		a.TalkerGUID, a.ListenerGUID, a.TalkerUniqueID, a.ListenerUniqueID, a.DestMac,
		a.ConnectionCount, a.SequenceID}
	fields = appendGroup(fields, a.Flags)
	return append(fields, a.DefaultFormat)
}

// Validate checks that every mask fits into its field width
func (c *Catalog) Validate() error {
	for _, table := range [][]*Field{c.ADPTable(), c.ACMPTable()} {
		for _, f := range table {
			if f.Width < 1 || f.Width > 8 {
				return fmt.Errorf("field %s: width %d out of range", f.Abbrev, f.Width)
			}
			if f.Mask != 0 && bits.Len64(f.Mask) > f.Width*8 {
				return fmt.Errorf("field %s: mask 0x%x does not fit into %d bytes", f.Abbrev, f.Mask, f.Width)
			}
		}
	}
	return nil
}

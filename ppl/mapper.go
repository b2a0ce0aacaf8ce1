package ppl

import (
	"fmt"
	"net"
	"sort"
	"strconv"
)

// InputConfig is the validated JSON configuration document the orchestrator
// maps into wire messages, shaped after the example in spec.md §8 property
// 1: a device-wide host config plus one entry per network slot.
type InputConfig struct {
	Device   DeviceConfig             `json:"device"`
	Networks map[string]NetworkConfig `json:"networks"`
}

// DeviceConfig is the global host configuration (SetGlobalHostConfig),
// matching createPacketDataSetGlobalHostConfig's deviceConfig fields.
type DeviceConfig struct {
	UseDhcp    bool   `json:"useDhcp"`
	IP         string `json:"ip"`
	Netmask    string `json:"netmask"`
	Gateway    string `json:"gateway"`
	Nameserver string `json:"nameserver"`
	Timeserver string `json:"timeserver"`
}

// NetworkConfig is one slot's configuration, keyed by slot id in
// InputConfig.Networks.
type NetworkConfig struct {
	MACConfiguration    MACConfig     `json:"macConfiguration"`
	HostConfiguration   HostConfig    `json:"stationConfiguration"`
	LLCConfiguration    LLCConfig     `json:"llcConfiguration"`
	SubnetConfiguration []SubnetInput `json:"subnetConfiguration"`
}

// MACOptions is macConfiguration's nested `options` object
// (mac_config.get('options', {}) in createPacketDataMacConfig).
type MACOptions struct {
	AllowRelaying *bool `json:"allowRelaying"`
	AllowLogging  *bool `json:"allowLogging"`
	AllowFreqHop  *bool `json:"allowFreqHop"`
	AllowHandover *bool `json:"allowHandover"`
	AllowBcRep    *bool `json:"allowBcRep"`
}

// MACConfig carries the fields createPacketDataMacConfig fills from
// `macConfiguration`, defaulted per spec.md §4.7. Fields the source never
// reads from JSON (addr_mac_addr_len, the packet/payload rate and
// repetition counters) are not modeled here -- ToDocument fills them with
// packet_data's fixed defaults directly.
type MACConfig struct {
	Latency        *uint8  `json:"latency"`
	TTRT           *uint16 `json:"ttrt"`
	PayloadSize    *uint16 `json:"payloadSize"`
	Reliability    *string `json:"reliability"`
	StationCount   *uint8  `json:"stationCount"`
	Optimization   *string `json:"configOptimization"`
	DataRate       *uint8  `json:"dataRate"`
	NetworkAddress *uint8  `json:"networkAddress"`
	TotalPTT       *uint8      `json:"totalPTT"`
	SecurityMode   *string     `json:"securityMode"`
	Options        *MACOptions `json:"options"`
}

// StationOptions is stationConfiguration's nested `options` object
// (station_config.get('options', {}) in createPacketDataMacConfig).
type StationOptions struct {
	IsExtRelay *bool `json:"isExtRelay"`
	IsStatic   *bool `json:"isStatic"`
	IsAnchor   *bool `json:"isAnchor"`
}

// HostConfig carries the per-slot fields createPacketDataMacConfig and the
// per-slot IP assignment both read from
// `stationConfiguration`.
type HostConfig struct {
	IP         string          `json:"ip"`
	Netmask    string          `json:"netmask"`
	Gateway    string          `json:"gateway"`
	UseDhcp    bool            `json:"useDhcp"`
	MACAddress *string         `json:"macAddress"`
	StationPTT *uint8          `json:"stationPTT"`
	QueueSizes []uint8         `json:"queueSizes"`
	Options    *StationOptions `json:"options"`
}

// LLCConfig is llcConfiguration, supplying SetHostConfig's multicast
// group/port (createPacketDataSetHostConfig's llc_config).
type LLCConfig struct {
	MulticastGroup string  `json:"mcgroup"`
	MulticastPort  *uint16 `json:"mcport"`
}

// SubnetInput is one entry of `subnetConfiguration`.
type SubnetInput struct {
	SubnetAddress uint8   `json:"subnetAddress"`
	Channel       uint8   `json:"channel"`
	TxPower       float32 `json:"txPower"`
}

// ToDocument translates a validated InputConfig into a Document ready for
// Orchestrator.Configure, applying the field defaults documented in
// spec.md §4.7 for any field left unset. docBytes is the raw file content
// used to derive the commit UID.
func ToDocument(cfg InputConfig, docBytes []byte) (Document, error) {
	doc := Document{
		GlobalHostConfig: map[string]any{
			"UseDhcp":    boolToU8(cfg.Device.UseDhcp),
			"IP":         mustIP(cfg.Device.IP),
			"Netmask":    mustIP(cfg.Device.Netmask),
			"Gateway":    mustIP(cfg.Device.Gateway),
			"Nameserver": mustIP(cfg.Device.Nameserver),
			"Timeserver": mustIP(cfg.Device.Timeserver),
		},
		Storage: "PERSIST",
		UID:     FingerprintUID(docBytes),
	}

	slotIDs := make([]int, 0, len(cfg.Networks))
	for k := range cfg.Networks {
		id, err := strconv.Atoi(k)
		if err != nil {
			return Document{}, fmt.Errorf("ppl: network key %q is not a slot id", k)
		}
		slotIDs = append(slotIDs, id)
	}
	sort.Ints(slotIDs)

	for _, id := range slotIDs {
		net := cfg.Networks[strconv.Itoa(id)]
		mac := net.MACConfiguration
		host := net.HostConfiguration

		var stationOpts StationOptions
		if host.Options != nil {
			stationOpts = *host.Options
		}
		var macOpts MACOptions
		if mac.Options != nil {
			macOpts = *mac.Options
		}

		subnets := make([]any, 0, len(net.SubnetConfiguration))
		for _, s := range net.SubnetConfiguration {
			subnets = append(subnets, SubnetEntry{SubnetAddress: s.SubnetAddress, Channel: s.Channel, TxPower: s.TxPower})
		}

		queueSizes := make([]any, 0, len(host.QueueSizes))
		for _, q := range host.QueueSizes {
			queueSizes = append(queueSizes, q)
		}
		if len(queueSizes) == 0 {
			// The source derives this from the highest configured priority
			// filter; Filters is always sent empty here (see DESIGN.md), so
			// the reproduced default is the highestPriority=0 case: two
			// zero-filled slots.
			queueSizes = []any{uint8(0), uint8(0)}
		}

		macAddr := derefMAC(host.MACAddress)

		doc.Slots = append(doc.Slots, SlotConfig{
			SlotID: uint8(id),
			MAC: map[string]any{
				"Latency":           derefU8(mac.Latency, 1),
				"TTRT":              derefU16(mac.TTRT, 0),
				"PayloadSize":       derefU16(mac.PayloadSize, 10),
				"Reliability":       derefStr(mac.Reliability, "NONE"),
				"StationCount":      derefU8(mac.StationCount, 2),
				"Optimization":      derefStr(mac.Optimization, "EXACT_CONFIG"),
				"DataRate":          derefU8(mac.DataRate, 0),
				"AddrNetId":         derefU8(mac.NetworkAddress, 1),
				"AddrMacAddrLen":    uint8(1),
				"AddrMac":           macAddr,
				"ExternalRelay":     boolToU8(derefBool(stationOpts.IsExtRelay, false)),
				"Echoing":           boolToU8(derefBool(macOpts.AllowRelaying, false)),
				"Logging":           boolToU8(derefBool(macOpts.AllowLogging, false)),
				"Hopping":           boolToU8(derefBool(macOpts.AllowFreqHop, false)),
				"CtrlPacketRate":    uint8(0),
				"PayloadPacketRate": uint8(0),
				"CtrlPacketReps":    uint8(0),
				"PayloadPacketReps": uint8(0),
				"StationPTTs":       derefU8(host.StationPTT, 0),
				"TotalPTTs":         derefU8(mac.TotalPTT, 2),
				"IsStatic":          boolToU8(derefBool(stationOpts.IsStatic, true)),
				"IsAnchor":          boolToU8(derefBool(stationOpts.IsAnchor, false)),
				"AllowHandover":     boolToU8(derefBool(macOpts.AllowHandover, false)),
				"AllowBcRep":        boolToU8(derefBool(macOpts.AllowBcRep, false)),
				"Subnets":           subnets,
				"SecurityMode":      derefStr(mac.SecurityMode, "NONE"),
				"QueueSizes":        queueSizes,
			},
			Host: map[string]any{
				"IP":             mustIP(host.IP),
				"Netmask":        mustIP(host.Netmask),
				"Gateway":        mustIP(host.Gateway),
				"UseDhcp":        boolToU8(host.UseDhcp),
				"MulticastGroup": mustIP(derefStr2(net.LLCConfiguration.MulticastGroup, "225.224.223.0")),
				"MulticastPort":  derefU16(net.LLCConfiguration.MulticastPort, 32145),
				"Filters":        []any{},
			},
		})
	}

	return doc, nil
}

func mustIP(s string) net.IP {
	if s == "" {
		s = "0.0.0.0"
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return net.IPv4zero
	}
	return ip.To4()
}

func boolToU8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func derefU8(p *uint8, def uint8) uint8 {
	if p == nil {
		return def
	}
	return *p
}

func derefU16(p *uint16, def uint16) uint16 {
	if p == nil {
		return def
	}
	return *p
}

func derefStr(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}

// derefStr2 is derefStr's non-pointer counterpart, used for fields that
// arrive as a plain (possibly empty) string rather than *string.
func derefStr2(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func derefBool(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// derefMAC resolves the optional station MAC address, defaulting to the
// zero address the way packet_data's `'addr_mac': ''` default does.
func derefMAC(p *string) net.HardwareAddr {
	if p == nil || *p == "" {
		return net.HardwareAddr{0, 0, 0, 0, 0, 0}
	}
	hw, err := net.ParseMAC(*p)
	if err != nil {
		return net.HardwareAddr{0, 0, 0, 0, 0, 0}
	}
	return hw
}

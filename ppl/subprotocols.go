package ppl

import (
	"rbridge/codec"
	"rbridge/wire"
)

// Subprotocol ids, matching spec.md's EXTERNAL INTERFACES table.
const (
	DiscoveryID      uint8 = 1
	PairingID        uint8 = 2
	ConfigurationID  uint8 = 3
	MeasurementID    uint8 = 4
	DeviceControlID  uint8 = 5
	UpdateID         uint8 = 6
)

// genericErrorType is registered as command 1 in every PPL subprotocol
// (spec.md §4.2: "command 1 is reserved for GenericError").
var genericErrorType = wire.NewPacketType("GenericError",
	wire.Field{Name: "ErrorMsg", Codec: codec.SizedString},
)

// F is shorthand for wire.Field, used heavily below to keep the packet
// declarations readable.
func F(name string, c codec.Codec) wire.Field { return wire.Field{Name: name, Codec: c} }

// NewRegistry builds a fresh Registry with all six PPL subprotocols
// registered, matching the table in spec.md §6.
func NewRegistry() *wire.Registry {
	reg := wire.NewRegistry()
	reg.Register(Discovery())
	reg.Register(Pairing())
	reg.Register(Configuration())
	reg.Register(Measurement())
	reg.Register(DeviceControl())
	reg.Register(Update())
	return reg
}

// Discovery returns the DISCOVERY subprotocol (id=1, version=2).
func Discovery() *wire.SubProtocol {
	sp := wire.NewSubProtocol("DISCOVERY", DiscoveryID, 2)
	sp.Add(genericErrorType)
	sp.Add(wire.NewPacketType("GetNodeState"))
	sp.Add(wire.NewPacketType("NodeState",
		F("State", NodeState),
		F("Uptime", codec.U32),
	))
	sp.Add(wire.NewPacketType("GetPyrtmfState"))
	sp.Add(wire.NewPacketType("PyrtmfState",
		F("State", codec.U8),
		F("Version", codec.SizedString),
	))
	return sp
}

// Pairing returns the PAIRING subprotocol (id=2, version=1).
func Pairing() *wire.SubProtocol {
	sp := wire.NewSubProtocol("PAIRING", PairingID, 1)
	sp.Add(genericErrorType)
	sp.Add(wire.NewPacketType("PairNode"))
	sp.Add(wire.NewPacketType("PairSuccess",
		F("NodeId", codec.U32),
	))
	sp.Add(wire.NewPacketType("UnpairNode"))
	return sp
}

// macConfigFields are shared between ValidateMACConfig and SetMACConfig --
// both carry the same per-slot MAC configuration payload. Field order and
// names follow createPacketDataMacConfig's packet_data dict
// (original_source/ppl/ppl/udpServer.py) field-for-field, including the
// fields the source never overrides from JSON (AddrMacAddrLen,
// CtrlPacketRate, PayloadPacketRate, CtrlPacketReps, PayloadPacketReps
// stay at their fixed defaults but are still part of the wire payload).
func macConfigFields() []wire.Field {
	return []wire.Field{
		F("SlotId", codec.U8),
		F("Latency", codec.U8),
		F("TTRT", codec.U16),
		F("PayloadSize", codec.U16),
		F("Reliability", Reliability),
		F("StationCount", codec.U8),
		F("Optimization", Optimization),
		F("DataRate", codec.U8),
		F("AddrNetId", codec.U8),
		F("AddrMacAddrLen", codec.U8),
		F("AddrMac", codec.MAC),
		F("ExternalRelay", codec.U8),
		F("Echoing", codec.U8),
		F("Logging", codec.U8),
		F("Hopping", codec.U8),
		F("CtrlPacketRate", codec.U8),
		F("PayloadPacketRate", codec.U8),
		F("CtrlPacketReps", codec.U8),
		F("PayloadPacketReps", codec.U8),
		F("StationPTTs", codec.U8),
		F("TotalPTTs", codec.U8),
		F("IsStatic", codec.U8),
		F("IsAnchor", codec.U8),
		F("AllowHandover", codec.U8),
		F("AllowBcRep", codec.U8),
		F("Subnets", codec.NewVariableArray(SubnetEntryCodec)),
		F("SecurityMode", SecurityModeEnum),
		F("QueueSizes", codec.NewVariableArray(codec.U8)),
	}
}

// Configuration returns the CONFIGURATION subprotocol (id=3, version=8).
func Configuration() *wire.SubProtocol {
	sp := wire.NewSubProtocol("CONFIGURATION", ConfigurationID, 8)
	sp.Add(genericErrorType)
	sp.Add(wire.NewPacketType("ValidateMACConfig", macConfigFields()...))
	sp.Add(wire.NewPacketType("SetMACConfig", macConfigFields()...))
	sp.Add(wire.NewPacketType("SetHostConfig",
		F("SlotId", codec.U8),
		F("IP", codec.IPv4BE),
		F("Netmask", codec.IPv4BE),
		F("Gateway", codec.IPv4BE),
		F("UseDhcp", codec.U8),
		F("MulticastGroup", codec.IPv4BE),
		F("MulticastPort", codec.U16),
		F("Filters", codec.NewVariableArray(FilterAction)),
	))
	sp.Add(wire.NewPacketType("AddHostRoutes",
		F("SlotId", codec.U8),
		F("Routes", codec.NewVariableArray(codec.IPv4BE)),
	))
	sp.Add(wire.NewPacketType("SetGlobalHostConfig",
		F("UseDhcp", codec.U8),
		F("IP", codec.IPv4BE),
		F("Netmask", codec.IPv4BE),
		F("Gateway", codec.IPv4BE),
		F("Nameserver", codec.IPv4BE),
		F("Timeserver", codec.IPv4BE),
	))
	sp.Add(wire.NewPacketType("ZeusSecurityConfig",
		F("SlotId", codec.U8),
		F("Mode", SecurityModeEnum),
	))
	sp.Add(wire.NewPacketType("StartConfigSetTransaction",
		F("Storage", ConfigStorageMode),
		F("SlotIds", codec.NewVariableArray(codec.U8)),
	))
	sp.Add(wire.NewPacketType("SelectConfigSlot",
		F("SlotId", codec.U8),
	))
	sp.Add(wire.NewPacketType("FinalizeConfigSlot",
		F("SlotId", codec.U8),
	))
	sp.Add(wire.NewPacketType("ApplyConfigSet"))
	sp.Add(wire.NewPacketType("CommitConfigSet",
		F("UID", codec.U64),
	))
	sp.Add(wire.NewPacketType("ReadConfigSetUID"))
	sp.Add(wire.NewPacketType("ConfigSetUID",
		F("UID", codec.U64),
	))
	sp.Add(wire.NewPacketType("ClearConfigSet"))
	return sp
}

// Measurement returns the MEASUREMENT subprotocol (id=4, version=5).
func Measurement() *wire.SubProtocol {
	sp := wire.NewSubProtocol("MEASUREMENT", MeasurementID, 5)
	sp.Add(genericErrorType)
	sp.Add(wire.NewPacketType("MeasurementStart",
		F("Type", MeasType),
		F("PeerIP", codec.IPv4BE),
	))
	sp.Add(wire.NewPacketType("MeasurementStop"))
	sp.Add(wire.NewPacketType("DemoStatus",
		F("Status", codec.U8),
	))
	sp.Add(wire.NewPacketType("MeasValidateConfig",
		F("StationCount", codec.U8),
	))
	sp.Add(wire.NewPacketType("MeasSetConfig",
		F("StationCount", codec.U8),
	))
	sp.Add(wire.NewPacketType("MeasLinkStatus",
		F("StationId", codec.U16),
		F("Rssi", codec.I16),
	))
	sp.Add(wire.NewPacketType("RequestLog"))
	sp.Add(wire.NewPacketType("ProtLogData",
		F("Offset", codec.U32),
		F("Data", codec.NewVariableArray(codec.U8)),
	))
	sp.Add(wire.NewPacketType("ProtLogHeader",
		F("TotalLength", codec.U32),
	))
	return sp
}

// DeviceControl returns the DEVICE_CONTROL subprotocol (id=5, version=4).
func DeviceControl() *wire.SubProtocol {
	sp := wire.NewSubProtocol("DEVICE_CONTROL", DeviceControlID, 4)
	sp.Add(genericErrorType)
	sp.Add(wire.NewPacketType("DeviceNuke",
		F("Action", NukeAction),
	))
	sp.Add(wire.NewPacketType("DeviceDevelopment",
		F("Enable", codec.U8),
	))
	sp.Add(wire.NewPacketType("DeviceDiagnostics",
		F("Record", TLVRecordCodec),
	))
	sp.Add(wire.NewPacketType("DeviceBridgeStart"))
	sp.Add(wire.NewPacketType("DeviceBridgeStop"))
	return sp
}

// Update returns the UPDATE subprotocol (id=6, version=3).
func Update() *wire.SubProtocol {
	sp := wire.NewSubProtocol("UPDATE", UpdateID, 3)
	sp.Add(genericErrorType)
	sp.Add(wire.NewPacketType("UpdateQuery"))
	sp.Add(wire.NewPacketType("UpdateResponse",
		F("Version", codec.SizedString),
		F("Available", codec.U8),
	))
	sp.Add(wire.NewPacketType("UpdateStart"))
	sp.Add(wire.NewPacketType("UpdateDownloadProgress",
		F("Percent", codec.U8),
	))
	sp.Add(wire.NewPacketType("UpdateDownloadFinish"))
	sp.Add(wire.NewPacketType("UpdateSuccess"))
	return sp
}

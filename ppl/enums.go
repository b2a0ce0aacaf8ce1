// Package ppl implements the PPL subprotocol family: pairing, MAC/host
// configuration transactions, measurement, device control, and firmware
// update, plus the multi-step configure transaction orchestrator.
package ppl

import "rbridge/codec"

// Enum codecs, ported from enums.py. Each requires a zero member, enforced
// by codec.NewEnum at declaration time (spec.md Design Note "Enums with
// reserved zero").

var Reliability = codec.NewEnum(codec.U8, []codec.EnumValue{
	{Name: "NONE", Value: 0},
	{Name: "LOW", Value: 1},
	{Name: "MODERATE", Value: 2},
	{Name: "NORMAL", Value: 3},
	{Name: "ADVANCED", Value: 4},
	{Name: "HIGH", Value: 5},
	{Name: "CRITICAL", Value: 6},
	{Name: "EXTREME", Value: 7},
})

var Optimization = codec.NewEnum(codec.U8, []codec.EnumValue{
	{Name: "NUM_STATIONS", Value: 0},
	{Name: "RELIABILITY", Value: 1},
	{Name: "MIN_LATENCY", Value: 2},
	{Name: "EXACT_CONFIG", Value: 3},
	{Name: "PAYLOAD_SIZE", Value: 4},
})

var SecurityModeEnum = codec.NewEnum(codec.U8, []codec.EnumValue{
	{Name: "NONE", Value: 0},
	{Name: "PAYLOAD_ENCRYPTION", Value: 1},
	{Name: "FULL_ENCRYPTION", Value: 2},
})

var ConfigStorageMode = codec.NewEnum(codec.U8, []codec.EnumValue{
	{Name: "PERSIST", Value: 0},
	{Name: "TEMPORARY", Value: 1},
})

var FilterAction = codec.NewEnum(codec.U8, []codec.EnumValue{
	{Name: "DROP", Value: 0},
	{Name: "PRIORITY_1", Value: 1},
	{Name: "PRIORITY_2", Value: 2},
	{Name: "PRIORITY_3", Value: 3},
	{Name: "PRIORITY_4", Value: 4},
	{Name: "PRIORITY_5", Value: 5},
})

var NodeState = codec.NewEnum(codec.U8, []codec.EnumValue{
	{Name: "INVALID", Value: 0},
	{Name: "STARTUP", Value: 1},
	{Name: "IDLE", Value: 2},
	{Name: "PAIRED", Value: 3},
	{Name: "RUNNING", Value: 4},
	{Name: "BRIDGED", Value: 5},
	{Name: "ERROR", Value: 6},
	{Name: "TAINTED", Value: 7},
})

var NukeAction = codec.NewEnum(codec.U8, []codec.EnumValue{
	{Name: "RESTART", Value: 0},
	{Name: "SHUTDOWN", Value: 1},
	{Name: "REBOOT", Value: 2},
})

var MeasType = codec.NewEnum(codec.U8, []codec.EnumValue{
	{Name: "MAC_TO_MAC", Value: 0},
	{Name: "HOST_TO_HOST", Value: 1},
})

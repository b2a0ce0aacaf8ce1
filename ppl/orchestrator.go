package ppl

import (
	"context"
	"fmt"
	"net"

	"rbridge/cache"
	"rbridge/eventlog"
	"rbridge/query"
	"rbridge/wire"
)

// Phase tracks how far a configure transaction has progressed, replacing
// the source orchestrator's `'var' in locals()` checks with an explicit
// state the compensation logic can switch on.
type Phase int

const (
	PhaseNotPaired Phase = iota
	PhasePaired
	PhaseTxStarted
	PhaseGlobalHCApplied
	PhaseSlotsInProgress
	PhaseCommitted
	PhaseUnpaired
)

func (p Phase) String() string {
	switch p {
	case PhaseNotPaired:
		return "NotPaired"
	case PhasePaired:
		return "Paired"
	case PhaseTxStarted:
		return "TxStarted"
	case PhaseGlobalHCApplied:
		return "GlobalHCApplied"
	case PhaseSlotsInProgress:
		return "SlotsInProgress"
	case PhaseCommitted:
		return "Committed"
	case PhaseUnpaired:
		return "Unpaired"
	default:
		return "Unknown"
	}
}

// SlotConfig is one network slot's MAC and host configuration, keyed by
// field name the way createPacketDataMacConfig/createPacketDataSetHostConfig
// produce them (without SlotId, which the orchestrator fills in per step).
type SlotConfig struct {
	SlotID uint8
	MAC    map[string]any
	Host   map[string]any
}

// Document is a validated configuration ready to roll out: the global
// host config fields, the per-slot configs in the order they should be
// written, a storage mode, and the fingerprint committed at the end.
type Document struct {
	GlobalHostConfig map[string]any
	Slots            []SlotConfig
	Storage          string // "PERSIST" or "TEMPORARY"; empty defaults to PERSIST
	UID              uint64
}

// ConfigureOptions mirrors runCmdConfigure's command-line flags.
type ConfigureOptions struct {
	ForceUnpair bool
	SkipTest    bool
	SkipClear   bool
}

// Orchestrator drives the multi-step PPL configure transaction: pair,
// optionally validate and clear, start the transaction, push the global
// and per-slot config, commit, and unpair -- with compensation on failure.
type Orchestrator struct {
	client  *Client
	pairing *wire.SubProtocol
	config  *wire.SubProtocol

	// device and phase are optional: the eventlog publisher is a side
	// channel the control flow never depends on, so both stay usable at
	// their zero value (nil events, empty device/phase label).
	device string
	phase  string
	events *eventlog.Publisher
	cache  *cache.UIDStore
}

// ClientLog returns a copy of the bound client's structured log, the
// result callers print and optionally persist after a run.
func (o *Orchestrator) ClientLog() Log {
	return o.client.Log()
}

// WithEventLog attaches an optional Kafka event mirror and the device
// address rows should be tagged with. Both events and the returned
// Orchestrator remain nil-safe if events is nil.
func (o *Orchestrator) WithEventLog(events *eventlog.Publisher, device string) *Orchestrator {
	o.events = events
	o.device = device
	return o
}

// WithCache attaches an optional idempotency cache. CommitConfigSet
// records its UID here on success, and AlreadyCurrent reads it back to
// let callers short-circuit a redundant test/configure run.
func (o *Orchestrator) WithCache(store *cache.UIDStore) *Orchestrator {
	o.cache = store
	return o
}

// AlreadyCurrent reports whether addr's device already committed doc's
// UID, per the attached cache. A miss, a disconnected/unattached cache,
// or a lookup error are all reported as false -- the caller's job is to
// fall back to running the step over the network.
func (o *Orchestrator) AlreadyCurrent(addr *net.UDPAddr, doc Document) bool {
	if o.cache == nil || addr == nil {
		return false
	}
	uid, ok, err := o.cache.Lookup(context.Background(), addr.IP.String())
	if err != nil || !ok {
		return false
	}
	return uid == doc.UID
}

// NewOrchestrator binds an Orchestrator to client, resolving the PAIRING
// and CONFIGURATION subprotocols from reg so the messages it builds carry
// the exact *wire.PacketType pointers the transport's registry expects.
func NewOrchestrator(client *Client, reg *wire.Registry) (*Orchestrator, error) {
	pairing, ok := reg.Lookup(PairingID)
	if !ok {
		return nil, fmt.Errorf("ppl: registry has no PAIRING subprotocol")
	}
	config, ok := reg.Lookup(ConfigurationID)
	if !ok {
		return nil, fmt.Errorf("ppl: registry has no CONFIGURATION subprotocol")
	}
	return &Orchestrator{client: client, pairing: pairing, config: config}, nil
}

// send builds an empty or field-populated message for packet name in sp,
// sends it, and returns the reply. A nil fields map sends the PacketType's
// defaults (used for zero-field commands like PairNode).
func (o *Orchestrator) send(sp *wire.SubProtocol, name string, fields map[string]any, addr *net.UDPAddr, description string) (uint8, *wire.Message, error) {
	cmd, ok := sp.CommandFor(name)
	if !ok {
		return 0, nil, fmt.Errorf("ppl: %s has no command %q", sp.Name, name)
	}
	pt, _ := sp.PacketFor(cmd)
	if fields == nil {
		fields = map[string]any{}
	}
	m, err := pt.New(fields)
	if err != nil {
		return 0, nil, err
	}
	return o.client.SendCommand(sp, cmd, m, addr, description)
}

// attempt performs one orchestration step, appending exactly one row to
// the client's log: OK on success, ERROR with the failure's message
// otherwise. It returns whether the step succeeded.
func (o *Orchestrator) attempt(sp *wire.SubProtocol, name string, fields map[string]any, addr *net.UDPAddr, description string) bool {
	_, _, err := o.send(sp, name, fields, addr, description)
	if err != nil {
		o.client.logError(fmt.Sprintf("%s: %v", description, err))
		o.publishLast()
		return false
	}
	o.client.logOK()
	o.publishLast()
	return true
}

// tryCompensate performs a best-effort step without touching the log --
// used for the finalize/commit/unpair calls issued after a failure has
// already been recorded, so the log's last row stays the failing one.
func (o *Orchestrator) tryCompensate(sp *wire.SubProtocol, name string, fields map[string]any, addr *net.UDPAddr, description string) {
	_, _, _ = o.send(sp, name, fields, addr, description)
}

// publishLast mirrors the client log's most recent row to the optional
// eventlog publisher, tagged with the device address and current phase.
// A nil o.events makes this a no-op.
func (o *Orchestrator) publishLast() {
	if o.events == nil {
		return
	}
	log := o.client.Log()
	n := len(log.Response)
	if n == 0 {
		return
	}
	_ = o.events.Publish(context.Background(), o.device, o.phase, log.Response[n-1], log.Timestamp[n-1], log.Message[n-1])
}

// Validate pairs, then runs VALIDATE_MAC for every slot, collecting every
// failure before deciding the phase's outcome (spec.md §4.5: "record
// failed slots" is a collect-and-continue pass, unlike SET_MAC_CONFIG's
// abort-immediately mid-transaction rule below).
func (o *Orchestrator) Validate(addr *net.UDPAddr, doc Document, forceUnpair bool) (ok bool, err error) {
	o.phase = "Validate"
	if forceUnpair {
		o.tryCompensate(o.pairing, "UnpairNode", nil, addr, "UnpairNode")
	}
	if !o.attempt(o.pairing, "PairNode", nil, addr, "PairNode") {
		return false, fmt.Errorf("ppl: pairing failed")
	}

	var failures []string
	for _, slot := range doc.Slots {
		fields := cloneFields(slot.MAC)
		fields["SlotId"] = slot.SlotID
		_, _, verr := o.send(o.config, "ValidateMACConfig", fields, addr, fmt.Sprintf("ValidateMACConfig slot %d", slot.SlotID))
		if verr != nil {
			if _, isTimeout := verr.(*query.TimeoutError); isTimeout {
				o.client.logError(fmt.Sprintf("VALIDATE: %v", verr))
				return false, verr
			}
			failures = append(failures, fmt.Sprintf("slot %d: %v", slot.SlotID, verr))
		}
	}

	if len(failures) > 0 {
		msg := failures[0]
		if len(failures) > 1 {
			msg = fmt.Sprintf("%s (and %d more)", msg, len(failures)-1)
		}
		o.client.logError(msg)
		o.tryCompensate(o.pairing, "UnpairNode", nil, addr, "UnpairNode")
		return false, fmt.Errorf("ppl: validate rejected %d slot(s)", len(failures))
	}

	o.client.logOK()
	return true, nil
}

// Clear pairs, clears the device's committed config set, and unpairs,
// matching runCmdClear.
func (o *Orchestrator) Clear(addr *net.UDPAddr, forceUnpair bool) error {
	o.phase = "Clear"
	if forceUnpair {
		o.tryCompensate(o.pairing, "UnpairNode", nil, addr, "UnpairNode")
	}
	if !o.attempt(o.pairing, "PairNode", nil, addr, "PairNode") {
		return fmt.Errorf("ppl: pairing failed")
	}
	o.attempt(o.config, "ClearConfigSet", nil, addr, "ClearConfigSet")
	o.attempt(o.pairing, "UnpairNode", nil, addr, "UnpairNode")
	return nil
}

// Configure runs the full state machine in spec.md §4.5: pair, optionally
// validate and clear, start the transaction, push global and per-slot
// config, commit with doc.UID, and unpair. Any failure is compensated
// according to the phase it occurred in.
func (o *Orchestrator) Configure(addr *net.UDPAddr, doc Document, opts ConfigureOptions) error {
	phase := PhaseNotPaired

	if !opts.SkipTest {
		ok, err := o.Validate(addr, doc, opts.ForceUnpair)
		if !ok {
			return err
		}
		phase = PhasePaired
		o.phase = phase.String()
	} else {
		if opts.ForceUnpair {
			o.tryCompensate(o.pairing, "UnpairNode", nil, addr, "UnpairNode")
		}
		if !o.attempt(o.pairing, "PairNode", nil, addr, "PairNode") {
			return fmt.Errorf("ppl: pairing failed")
		}
		phase = PhasePaired
		o.phase = phase.String()
	}

	storage := doc.Storage
	if storage == "" {
		storage = "PERSIST"
	}

	if !opts.SkipClear {
		if !o.attempt(o.config, "ClearConfigSet", nil, addr, "ClearConfigSet") {
			o.compensate(phase, doc, addr, -1)
			return fmt.Errorf("ppl: clear config set failed")
		}
	}

	slotIDs := make([]any, len(doc.Slots))
	for i, s := range doc.Slots {
		slotIDs[i] = s.SlotID
	}
	if !o.attempt(o.config, "StartConfigSetTransaction", map[string]any{
		"Storage": storage,
		"SlotIds": slotIDs,
	}, addr, "START_TX") {
		o.compensate(phase, doc, addr, -1)
		return fmt.Errorf("ppl: start config set transaction failed")
	}
	phase = PhaseTxStarted
	o.phase = phase.String()

	if !o.attempt(o.config, "SetGlobalHostConfig", cloneFields(doc.GlobalHostConfig), addr, "SET_GLOBAL_HC") {
		o.compensate(phase, doc, addr, -1)
		return fmt.Errorf("ppl: set global host config failed")
	}
	phase = PhaseGlobalHCApplied
	o.phase = phase.String()

	for i, slot := range doc.Slots {
		phase = PhaseSlotsInProgress
		o.phase = fmt.Sprintf("%s(%d)", phase, slot.SlotID)

		if !o.attempt(o.config, "SelectConfigSlot", map[string]any{"SlotId": slot.SlotID},
			addr, fmt.Sprintf("SELECT(%d)", slot.SlotID)) {
			o.compensate(phase, doc, addr, i)
			return fmt.Errorf("ppl: select config slot %d failed", slot.SlotID)
		}

		macFields := cloneFields(slot.MAC)
		macFields["SlotId"] = slot.SlotID
		if !o.attempt(o.config, "SetMACConfig", macFields, addr, "SET_MAC") {
			o.compensate(phase, doc, addr, i)
			return fmt.Errorf("ppl: set mac config slot %d failed", slot.SlotID)
		}

		hostFields := cloneFields(slot.Host)
		hostFields["SlotId"] = slot.SlotID
		if !o.attempt(o.config, "SetHostConfig", hostFields, addr, "SET_HOST") {
			o.compensate(phase, doc, addr, i)
			return fmt.Errorf("ppl: set host config slot %d failed", slot.SlotID)
		}

		if !o.attempt(o.config, "FinalizeConfigSlot", nil, addr, "FINALIZE") {
			o.compensate(phase, doc, addr, i)
			return fmt.Errorf("ppl: finalize config slot %d failed", slot.SlotID)
		}
	}

	o.phase = "Committing"
	if !o.attempt(o.config, "CommitConfigSet", map[string]any{"UID": doc.UID}, addr, "COMMIT") {
		o.tryCompensate(o.pairing, "UnpairNode", nil, addr, "UnpairNode")
		return fmt.Errorf("ppl: commit config set failed")
	}
	phase = PhaseCommitted
	o.phase = phase.String()
	if o.cache != nil && addr != nil {
		_ = o.cache.Record(context.Background(), addr.IP.String(), doc.UID)
	}

	if !o.attempt(o.pairing, "UnpairNode", nil, addr, "UNPAIR") {
		return fmt.Errorf("ppl: unpair failed")
	}
	phase = PhaseUnpaired
	o.phase = phase.String()
	_ = phase
	return nil
}

// compensate runs the best-effort recovery steps appropriate to the phase
// a failure occurred in. The recovery calls are not logged; the one row it
// can add is an ERROR hint recommending a 'clear' run, when a slot after the
// first of a multi-slot document fails. Either way the log's last row is an
// ERROR row (spec.md §8 property 3).
// slotIndex is the index of the in-progress slot, or -1 outside the
// per-slot loop.
func (o *Orchestrator) compensate(phase Phase, doc Document, addr *net.UDPAddr, slotIndex int) {
	switch phase {
	case PhaseNotPaired:
		return
	case PhaseTxStarted, PhaseGlobalHCApplied:
		o.tryCompensate(o.config, "CommitConfigSet", map[string]any{"UID": doc.UID}, addr, "CommitConfigSet")
		o.tryCompensate(o.pairing, "UnpairNode", nil, addr, "UnpairNode")
	case PhaseSlotsInProgress:
		if len(doc.Slots) > 1 && slotIndex > 0 {
			o.client.logError("'clear' run recommended to reset partially-written slots")
		}
		o.tryCompensate(o.config, "FinalizeConfigSlot", nil, addr, "FinalizeConfigSlot")
		o.tryCompensate(o.config, "CommitConfigSet", map[string]any{"UID": doc.UID}, addr, "CommitConfigSet")
		o.tryCompensate(o.pairing, "UnpairNode", nil, addr, "UnpairNode")
	default:
		o.tryCompensate(o.pairing, "UnpairNode", nil, addr, "UnpairNode")
	}
}

func cloneFields(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

package wire

import "fmt"

// Registry binds subprotocol ids to their SubProtocol descriptors for
// framing. The source protocol keeps this as a single process-wide
// __cmd_unpack_map populated by import-time decorators; here it is an
// explicit value so a test, a simulator, and a live client can each hold
// their own registry without sharing global state.
type Registry struct {
	byID map[uint8]*SubProtocol
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[uint8]*SubProtocol)}
}

// Register adds sp to the registry. It panics if a subprotocol with the
// same id is already registered -- a programmer error caught at startup,
// matching the assertion in protocol_class in the source protocol.
func (r *Registry) Register(sp *SubProtocol) {
	if _, exists := r.byID[sp.ID]; exists {
		panic(fmt.Sprintf("wire: subprotocol id %d is already registered", sp.ID))
	}
	r.byID[sp.ID] = sp
}

// Lookup returns the SubProtocol registered under id.
func (r *Registry) Lookup(id uint8) (*SubProtocol, bool) {
	sp, ok := r.byID[id]
	return sp, ok
}

// Versions returns the registered wire version for every subprotocol id,
// used to answer discovery queries about supported protocol versions.
func (r *Registry) Versions() map[uint8]uint16 {
	out := make(map[uint8]uint16, len(r.byID))
	for id, sp := range r.byID {
		out[id] = sp.Version
	}
	return out
}

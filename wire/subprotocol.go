package wire

import "fmt"

// SubProtocol groups a set of PacketTypes under sequential command bytes
// (1, 2, 3, ...), the order they are added in Add -- matching
// create_subprotocol's enumerate(packets, start=1) in the source protocol.
type SubProtocol struct {
	Name    string
	ID      uint8
	Version uint16

	order     []uint8
	commands  map[uint8]*PacketType
	nameToCmd map[string]uint8
}

// NewSubProtocol declares a subprotocol identity: a numeric id (carried in
// the frame header) and a wire version (checked on every deserialize).
func NewSubProtocol(name string, id uint8, version uint16) *SubProtocol {
	return &SubProtocol{
		Name:      name,
		ID:        id,
		Version:   version,
		commands:  make(map[uint8]*PacketType),
		nameToCmd: make(map[string]uint8),
	}
}

// Add registers pt under the next sequential command byte and returns sp,
// so a subprotocol's commands can be declared as a single chained call.
func (sp *SubProtocol) Add(pt *PacketType) *SubProtocol {
	cmd := uint8(len(sp.order) + 1)
	sp.order = append(sp.order, cmd)
	sp.commands[cmd] = pt
	sp.nameToCmd[pt.Name] = cmd
	return sp
}

// CommandFor returns the command byte a packet type name was registered
// under.
func (sp *SubProtocol) CommandFor(name string) (uint8, bool) {
	cmd, ok := sp.nameToCmd[name]
	return cmd, ok
}

// PacketFor returns the PacketType registered under a command byte.
func (sp *SubProtocol) PacketFor(cmd uint8) (*PacketType, bool) {
	pt, ok := sp.commands[cmd]
	return pt, ok
}

// Pack encodes the command byte followed by m's packed body. m.Type must
// be the PacketType registered under cmd.
func (sp *SubProtocol) Pack(cmd uint8, m *Message) ([]byte, error) {
	pt, ok := sp.commands[cmd]
	if !ok {
		return nil, fmt.Errorf("wire: subprotocol %s has no command %d", sp.Name, cmd)
	}
	if m.Type != pt {
		return nil, fmt.Errorf("wire: message type %s does not match command %d (%s) in subprotocol %s",
			m.Type.Name, cmd, pt.Name, sp.Name)
	}
	body, err := pt.Pack(m)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 1+len(body))
	out = append(out, cmd)
	out = append(out, body...)
	return out, nil
}

// Unpack reads the command byte and decodes the remainder as that
// command's PacketType, rejecting any bytes left over, matching
// SubProtocolClass.unpack in the source protocol.
func (sp *SubProtocol) Unpack(data []byte) (uint8, *Message, error) {
	if len(data) < 1 {
		return 0, nil, fmt.Errorf("wire: packet without content cannot be deserialized")
	}
	cmd := data[0]
	pt, ok := sp.commands[cmd]
	if !ok {
		return 0, nil, fmt.Errorf("wire: invalid command %d for subprotocol %s", cmd, sp.Name)
	}
	n, m, err := pt.Unpack(data[1:])
	if err != nil {
		return 0, nil, err
	}
	if n != len(data)-1 {
		return 0, nil, fmt.Errorf("wire: packet has %d superfluous bytes", len(data)-1-n)
	}
	return cmd, m, nil
}

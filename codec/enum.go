package codec

// EnumValue is a named integer member of an enum registered with NewEnum.
type EnumValue struct {
	Name  string
	Value int64
}

// enumCodec restricts an IntCodec to a closed set of named values. A zero
// member is mandatory so Default() is well-defined; registering an enum
// without one is a programmer error caught at registration time, not a
// runtime condition (spec.md §9, Design Note "Enums with reserved zero").
type enumCodec struct {
	inner   IntCodec
	members map[int64]string
	zero    int64
}

// NewEnum builds a Codec backed by inner (conventionally U8) restricted to
// members. It panics if no member has value 0.
func NewEnum(inner IntCodec, members []EnumValue) Codec {
	m := make(map[int64]string, len(members))
	hasZero := false
	for _, mv := range members {
		m[mv.Value] = mv.Name
		if mv.Value == 0 {
			hasZero = true
		}
	}
	if !hasZero {
		panic("codec: enum does not have a zero value member")
	}
	return &enumCodec{inner: inner, members: m, zero: 0}
}

func (c *enumCodec) Default() any { return c.inner.FromInt64(c.zero) }

func (c *enumCodec) Validate(v any) (any, bool) {
	var i int64
	var ok bool
	switch x := v.(type) {
	case string:
		found := false
		for val, name := range c.members {
			if name == x {
				i, found = val, true
				break
			}
		}
		if !found {
			return nil, false
		}
		ok = true
	default:
		i, ok = c.inner.ToInt64(x)
	}
	if !ok {
		return nil, false
	}
	if _, known := c.members[i]; !known {
		return nil, false
	}
	return c.inner.FromInt64(i), true
}

func (c *enumCodec) Pack(v any) ([]byte, error) {
	nv, ok := c.Validate(v)
	if !ok {
		return nil, serializeErrorf("invalid enum value %v", v)
	}
	return c.inner.Pack(nv)
}

func (c *enumCodec) Unpack(data []byte) (int, any, error) {
	n, v, err := c.inner.Unpack(data)
	if err != nil {
		return 0, nil, err
	}
	i, _ := c.inner.ToInt64(v)
	if _, known := c.members[i]; !known {
		return 0, nil, deserializeErrorf("unknown enum value %d", i)
	}
	return n, v, nil
}

// Name returns the member name for a decoded enum value, or "" if unknown.
func (c *enumCodec) Name(v any) string {
	i, ok := c.inner.ToInt64(v)
	if !ok {
		return ""
	}
	return c.members[i]
}

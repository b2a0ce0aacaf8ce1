package codec

// variableArrayCodec prefixes the encoded items with a count, default u16
// big-endian, matching spec.md's VariableArray(inner, lenCodec=u16BE).
type variableArrayCodec struct {
	inner    Codec
	lenCodec IntCodec
}

// NewVariableArray returns a Codec for a count-prefixed array of inner. The
// count is encoded with U16 (big-endian) unless lenCodec overrides it.
func NewVariableArray(inner Codec, lenCodec ...IntCodec) Codec {
	lc := U16
	if len(lenCodec) > 0 {
		lc = lenCodec[0]
	}
	return &variableArrayCodec{inner: inner, lenCodec: lc}
}

func (c *variableArrayCodec) Default() any { return []any{} }

func (c *variableArrayCodec) Validate(v any) (any, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]any, len(items))
	for i, it := range items {
		nv, ok := c.inner.Validate(it)
		if !ok {
			return nil, false
		}
		out[i] = nv
	}
	if _, ok := c.lenCodec.Validate(len(out)); !ok {
		return nil, false
	}
	return out, true
}

func (c *variableArrayCodec) Pack(v any) ([]byte, error) {
	nv, ok := c.Validate(v)
	if !ok {
		return nil, serializeErrorf("invalid value %v for variable array codec", v)
	}
	items := nv.([]any)
	lenBytes, err := c.lenCodec.Pack(len(items))
	if err != nil {
		return nil, err
	}
	out := append([]byte{}, lenBytes...)
	for _, it := range items {
		b, err := c.inner.Pack(it)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

func (c *variableArrayCodec) Unpack(data []byte) (int, any, error) {
	n, countVal, err := c.lenCodec.Unpack(data)
	if err != nil {
		return 0, nil, err
	}
	count, _ := c.lenCodec.ToInt64(countVal)
	total := n
	items := make([]any, 0, count)
	rest := data[n:]
	for i := int64(0); i < count; i++ {
		cl, val, err := c.inner.Unpack(rest)
		if err != nil {
			return 0, nil, err
		}
		items = append(items, val)
		rest = rest[cl:]
		total += cl
	}
	return total, items, nil
}

// fixedArrayCodec encodes exactly N items with no length prefix.
type fixedArrayCodec struct {
	inner Codec
	n     int
}

// NewFixedArray returns a Codec for a fixed-length array of exactly n
// encodings of inner, with no count prefix.
func NewFixedArray(inner Codec, n int) Codec {
	return &fixedArrayCodec{inner: inner, n: n}
}

func (c *fixedArrayCodec) Default() any {
	out := make([]any, c.n)
	for i := range out {
		out[i] = c.inner.Default()
	}
	return out
}

func (c *fixedArrayCodec) Validate(v any) (any, bool) {
	items, ok := v.([]any)
	if !ok || len(items) != c.n {
		return nil, false
	}
	out := make([]any, c.n)
	for i, it := range items {
		nv, ok := c.inner.Validate(it)
		if !ok {
			return nil, false
		}
		out[i] = nv
	}
	return out, true
}

func (c *fixedArrayCodec) Pack(v any) ([]byte, error) {
	nv, ok := c.Validate(v)
	if !ok {
		return nil, serializeErrorf("invalid value %v for fixed array codec of length %d", v, c.n)
	}
	items := nv.([]any)
	var out []byte
	for _, it := range items {
		b, err := c.inner.Pack(it)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

func (c *fixedArrayCodec) Unpack(data []byte) (int, any, error) {
	items := make([]any, 0, c.n)
	total := 0
	rest := data
	for i := 0; i < c.n; i++ {
		cl, val, err := c.inner.Unpack(rest)
		if err != nil {
			return 0, nil, err
		}
		items = append(items, val)
		rest = rest[cl:]
		total += cl
	}
	return total, items, nil
}

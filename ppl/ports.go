package ppl

// DefaultDevicePort is the UDP port pplctl sends commands to, the Go
// stand-in for the source's fixed CLIENTPORT constant (not present in the
// filtered original_source copy this repo was built from; chosen as a
// placeholder distinct from ERCI's well-known 12200 and documented in
// DESIGN.md). Callers needing a different deployment's port override it
// with a flag; there is nothing protocol-specific about the number.
const DefaultDevicePort = 34500

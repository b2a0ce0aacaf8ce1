package ppl

import (
	"crypto/md5"
	"encoding/binary"
)

// FingerprintUID returns the 64-bit UID committed with CommitConfigSet.
// _getConfigUid in the source client parses the full MD5 hex digest as a
// 128-bit integer and masks it to the low 64 bits, which are the digest's
// last 8 bytes read big-endian -- reproduced here without the intermediate
// hex/bignum detour.
func FingerprintUID(docBytes []byte) uint64 {
	sum := md5.Sum(docBytes)
	return binary.BigEndian.Uint64(sum[8:16])
}

package core

import "math/rand/v2"

// NewNonce draws a fresh 32-bit Interest nonce from the global RNG, mirroring
// the original forwarder's onOutgoingInterest use of a global
// uniform_int_distribution<uint32_t>.
func NewNonce() uint32 {
	return rand.Uint32()
}

// MakeTimestamp converts seconds to the int timestamp domain carried by the
// Interest/Data annotation fields.
func MakeTimestamp(seconds int64) int {
	return int(seconds)
}

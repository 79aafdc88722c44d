package wirerpc

import "hash/fnv"

// Hash8 is the deterministic, non-cryptographic 64-bit hash used for both
// method ids and the initial response-id. It must be stable across
// processes and across peers that interoperate, which rules out the
// runtime's seeded string hash; FNV-1a is fixed and unseeded.
func Hash8(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

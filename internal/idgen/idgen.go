// Package idgen generates prefixed random identifiers like "chk_3fa85f64...".
package idgen

import (
	"crypto/rand"
	"encoding/hex"
)

// randomBytes per ID. 12 bytes = 24 hex chars, comfortably
// collision-free at this service's volumes.
const randomBytes = 12

// WithPrefix returns prefix + 24 random hex chars. Prefixes identify the
// record kind at a glance: "chk_" checks, "rep_" reports, "bl_"/"wl_"
// list entries, "id_" identities, "req_" requests.
func WithPrefix(prefix string) string {
	b := make([]byte, randomBytes)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms
		panic("idgen: " + err.Error())
	}
	return prefix + hex.EncodeToString(b)
}

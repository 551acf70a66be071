package permissions

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// Fingerprint digests the catalog and the tier grants of m. Two processes that
// agree on the fingerprint hold identical gating tables.
func (m *Matrix) Fingerprint() string {
	h := sha256.New()

	defs := GetAll()
	ids := make([]Permission, 0, len(defs))
	for id := range defs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		def := defs[id]
		fmt.Fprintf(h, "perm %s %s %v\n", def.ID, def.Module, def.DependsOn)
	}

	for _, tier := range m.order {
		fmt.Fprintf(h, "tier %s %v\n", tier, m.sets[tier].Sorted())
	}

	return hex.EncodeToString(h.Sum(nil))
}

package utils

import (
	"crypto/md5"

	"github.com/gofrs/uuid"
)

// DeriveId returns a deterministic name-based UUID for the ordered seeds, in
// the same way program addresses are derived from seeds. Order matters.
func DeriveId(seeds ...string) uuid.UUID {
	h := md5.New()
	for _, seed := range seeds {
		h.Write([]byte(seed))
		// separator keeps ("ab", "c") and ("a", "bc") apart
		h.Write([]byte{0})
	}
	return uuidFromHash(h.Sum(nil))
}

func uuidFromHash(sum []byte) uuid.UUID {
	sum[6] = (sum[6] & 0x0f) | 0x30
	sum[8] = (sum[8] & 0x3f) | 0x80
	return uuid.FromBytesOrNil(sum)
}

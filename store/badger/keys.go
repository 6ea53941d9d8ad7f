package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/appsage/appsage/core"
)

// Key prefixes for different data types
const (
	insightPrefix            = "insrec"
	insightPositionPrefix    = "inspos"
	insightFingerprintPrefix = "insfpr"
	insightPositionSeq       = "insposseq"
)

// makeInsightKey generates a key for an insight by ID.
func makeInsightKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", insightPrefix, id))
}

// makeInsightPositionKey generates a key for the insertion-order index.
// Format: prefix:position
func makeInsightPositionKey(position int) []byte {
	prefix := insightPositionPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	// BigEndian so lexicographic iteration yields insertion order
	binary.BigEndian.PutUint64(buf[offset:], uint64(position))
	return buf
}

// makeInsightFingerprintKey generates a key for the content-hash index.
// Format: prefix:fingerprint
func makeInsightFingerprintKey(fingerprint core.ID) []byte {
	prefix := insightFingerprintPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(fingerprint))
	return buf
}

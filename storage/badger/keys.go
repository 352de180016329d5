package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/thematic/core"
)

// Key prefixes for different data types
const (
	runRecordPrefix     = "anrun"
	runRecordDatePrefix = "anrund"
)

// makeRunKey generates a key for an analysis run by ID.
func makeRunKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", runRecordPrefix, id))
}

// makeRunDateKey generates a composite key for the date index.
// Format: prefix:timestamp:id
func makeRunDateKey(timestamp time.Time, id core.ID) []byte {
	prefix := runRecordDatePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for timestamp + 8 bytes for ID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// runIDFromDateKey extracts the run ID from a date index key.
func runIDFromDateKey(key []byte) core.ID {
	if len(key) < 8 {
		return 0
	}
	return core.ID(binary.BigEndian.Uint64(key[len(key)-8:]))
}

// Package id issues ULID run identifiers. ULIDs embed their creation time,
// so identifiers sort chronologically, which keeps journal listings and
// SQLite primary keys in run order for free.
package id

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy io.Reader
)

func init() {
	// Monotonic entropy keeps IDs minted within the same millisecond
	// strictly increasing. The PRNG is seeded from crypto/rand once;
	// run IDs need to be unique, not secret.
	var seed int64
	if err := binary.Read(cryptorand.Reader, binary.LittleEndian, &seed); err != nil || seed == 0 {
		seed = time.Now().UnixNano()
	}
	entropy = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New returns a fresh ULID string.
func New() string {
	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), entropy)
	if err != nil {
		// Only possible if entropy fails or time overflows the ULID epoch.
		panic(err)
	}
	return id.String()
}

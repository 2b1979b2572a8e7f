package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu   sync.Mutex
	mono io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New returns a ULID stamped with the current wall clock. Used for run and job ids.
func New() string {
	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), mono)
	if err != nil {
		panic(err)
	}
	return id.String()
}

// Generator hands out ULIDs stamped with caller-supplied times from a seeded
// monotonic source. Two generators with the same seed fed the same times
// return the same ids, so a replay of the same bars names its trades the same way.
// A Generator is not safe for concurrent use.
type Generator struct {
	entropy *ulid.MonotonicEntropy
	last    uint64
}

// NewGenerator returns a Generator seeded with seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0),
	}
}

// At returns the next id for unix time ts (seconds). Times that go backwards
// are clamped to the last one issued so ids stay sortable in issue order.
func (g *Generator) At(ts int64) string {
	ms := uint64(0)
	if ts > 0 {
		ms = uint64(ts) * 1000
	}
	if ms > ulid.MaxTime() {
		ms = ulid.MaxTime()
	}
	if ms < g.last {
		ms = g.last
	}
	g.last = ms

	id, err := ulid.New(ms, g.entropy)
	if err != nil {
		// Monotonic entropy overflowed inside one millisecond; move to the next one.
		g.last++
		id = ulid.MustNew(g.last, g.entropy)
	}
	return id.String()
}

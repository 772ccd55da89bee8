package engine

import (
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// idSeed fixes trade id entropy so replays of one series produce the
// same ids.
const idSeed = 1

// idGenerator issues ULIDs stamped with the trade exit time. Within one
// millisecond ids increase monotonically.
type idGenerator struct {
	entropy *ulid.MonotonicEntropy
}

func newIDGenerator() *idGenerator {
	return &idGenerator{
		entropy: ulid.Monotonic(rand.New(rand.NewSource(idSeed)), 0), //nolint:gosec // ids are not secrets
	}
}

func (g *idGenerator) next(t time.Time) (string, error) {
	ms := uint64(0)
	if t.After(time.Unix(0, 0)) {
		ms = ulid.Timestamp(t)
	}

	id, err := ulid.New(ms, g.entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

package tasks

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// IDGenerator hands out task ids. Seed is called once with the tasks loaded from
// storage; Next is then called under the board lock, so implementations need no
// synchronization of their own. taken reports whether an id is already in use.
type IDGenerator interface {
	Seed(existing []Task)
	Next(taken func(int64) bool) int64
}

// NewIDGenerator returns the generator for a configured strategy name.
func NewIDGenerator(strategy string) (IDGenerator, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", "sequence":
		return &SequenceIDs{}, nil
	case "random":
		return RandomIDs{}, nil
	default:
		return nil, fmt.Errorf("unknown id strategy %q", strategy)
	}
}

// SequenceIDs counts up from the largest id seen. Once the count reaches the
// largest id a JSON number holds exactly, it draws random ids instead.
type SequenceIDs struct {
	last int64
}

func (g *SequenceIDs) Seed(existing []Task) {
	for _, t := range existing {
		if t.ID > g.last {
			g.last = t.ID
		}
	}
}

func (g *SequenceIDs) Next(taken func(int64) bool) int64 {
	for {
		if g.last >= maxSafeID {
			return RandomIDs{}.Next(taken)
		}
		g.last++
		if !taken(g.last) {
			return g.last
		}
	}
}

// RandomIDs draws positive ids from random UUIDs, truncated to 53 bits so they
// survive a round trip through float64 JSON numbers.
type RandomIDs struct{}

const maxSafeID = 1<<53 - 1

func (RandomIDs) Seed([]Task) {}

func (RandomIDs) Next(taken func(int64) bool) int64 {
	for {
		u := uuid.New()
		id := int64(binary.BigEndian.Uint64(u[:8]) & maxSafeID)
		if id != 0 && !taken(id) {
			return id
		}
	}
}

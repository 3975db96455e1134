package schema

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// IDGenerator produces primary key values for new entities. Generate is
// only called with a type Supports accepted, and must return a value
// assignable to a field of that type.
type IDGenerator interface {
	Name() string
	Supports(t DataType) bool
	Generate(t DataType) (any, error)
}

// The built-in generators are in place before any package-level
// MustDefine runs.
var (
	generatorsMu sync.RWMutex
	generators   = map[string]IDGenerator{
		"uuid":      UUIDGenerator{},
		"ulid":      NewULIDGenerator(),
		"snowflake": NewSnowflakeGenerator(1),
	}
)

// RegisterGenerator makes g available to properties under g.Name(),
// replacing any generator of the same name.
func RegisterGenerator(g IDGenerator) {
	generatorsMu.Lock()
	defer generatorsMu.Unlock()
	generators[g.Name()] = g
}

func generatorFor(name string) (IDGenerator, error) {
	generatorsMu.RLock()
	defer generatorsMu.RUnlock()
	g, ok := generators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGenerator, name)
	}
	return g, nil
}

// checkGenerator resolves the generator of p and verifies it can fill p.
func checkGenerator(p *Property) error {
	if p.generator == "" {
		return nil
	}
	g, err := generatorFor(p.generator)
	if err != nil {
		return err
	}
	if !g.Supports(p.typ) {
		return fmt.Errorf("%w: %s cannot fill %s property %s", ErrUnknownGenerator, g.Name(), p.typ, p.name)
	}
	return nil
}

// UUIDGenerator fills uuid properties with random v4 UUIDs, and textual
// ones with their canonical string form.
type UUIDGenerator struct{}

func (UUIDGenerator) Name() string { return "uuid" }

func (UUIDGenerator) Supports(t DataType) bool {
	return t == TypeUUID || t.IsTextual()
}

func (UUIDGenerator) Generate(t DataType) (any, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("generate uuid: %w", err)
	}
	if t.IsTextual() {
		return id.String(), nil
	}
	return id, nil
}

// ULIDGenerator hands out lexically sortable ULIDs. IDs generated within
// the same millisecond still increase monotonically.
type ULIDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (*ULIDGenerator) Name() string { return "ulid" }

// Supports accepts uuid properties too, since a ULID has the same 128 bits.
func (*ULIDGenerator) Supports(t DataType) bool {
	return t == TypeUUID || t.IsTextual()
}

func (g *ULIDGenerator) Generate(t DataType) (any, error) {
	g.mu.Lock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), g.entropy)
	g.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("generate ulid: %w", err)
	}
	if t == TypeUUID {
		return uuid.UUID(id), nil
	}
	return id.String(), nil
}

const (
	snowflakeMachineBits  = 10
	snowflakeSequenceBits = 12
	snowflakeSequenceMask = 1<<snowflakeSequenceBits - 1
)

// snowflakeEpoch is 2023-01-01 00:00:00 UTC in milliseconds.
var snowflakeEpoch = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()

var errClockBackwards = errors.New("clock moved backwards")

// SnowflakeGenerator fills integer keys with time ordered 63 bit ids laid
// out as 41 bits of milliseconds, 10 bits of machine and 12 of sequence.
type SnowflakeGenerator struct {
	mu        sync.Mutex
	machineID int64
	sequence  int64
	last      int64
	now       func() int64
}

func NewSnowflakeGenerator(machineID int64) *SnowflakeGenerator {
	return &SnowflakeGenerator{
		machineID: machineID & (1<<snowflakeMachineBits - 1),
		now:       func() int64 { return time.Now().UnixMilli() },
	}
}

func (*SnowflakeGenerator) Name() string { return "snowflake" }

func (*SnowflakeGenerator) Supports(t DataType) bool { return t == TypeInteger }

func (g *SnowflakeGenerator) Generate(DataType) (any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if now < g.last {
		return nil, fmt.Errorf("generate snowflake: %w", errClockBackwards)
	}
	if now == g.last {
		g.sequence = (g.sequence + 1) & snowflakeSequenceMask
		if g.sequence == 0 {
			// Sequence exhausted for this millisecond.
			for now <= g.last {
				now = g.now()
			}
		}
	} else {
		g.sequence = 0
	}
	g.last = now

	id := (now-snowflakeEpoch)<<(snowflakeMachineBits+snowflakeSequenceBits) |
		g.machineID<<snowflakeSequenceBits |
		g.sequence
	return id, nil
}

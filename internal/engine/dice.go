package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Symbol is one of the marks printed on a die face.
type Symbol int

const (
	Fire Symbol = iota
	Intercept
	Hit
	Triangle
	Key

	SymbolCount = 5
)

var symbolNames = [SymbolCount]string{"fire", "intercept", "hit", "triangle", "key"}

// Symbols lists every symbol in resolution priority order.
var Symbols = [SymbolCount]Symbol{Fire, Intercept, Hit, Triangle, Key}

func (s Symbol) String() string {
	if s < 0 || int(s) >= SymbolCount {
		return fmt.Sprintf("Symbol(%d)", int(s))
	}
	return symbolNames[s]
}

// ParseSymbol maps a lower-case symbol name back to its Symbol.
func ParseSymbol(name string) (Symbol, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range symbolNames {
		if n == name {
			return Symbol(i), nil
		}
	}
	return 0, fmt.Errorf("unknown symbol %q", name)
}

func (s Symbol) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Symbol) UnmarshalText(b []byte) error {
	v, err := ParseSymbol(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Tally counts symbols produced by a roll. It is a plain value and can be
// used as a map key.
type Tally [SymbolCount]int

// Get returns the count for s.
func (t Tally) Get(s Symbol) int { return t[s] }

// With returns a copy of t with s set to n.
func (t Tally) With(s Symbol, n int) Tally {
	t[s] = n
	return t
}

// Add returns the element-wise sum of t and o.
func (t Tally) Add(o Tally) Tally {
	for i := range t {
		t[i] += o[i]
	}
	return t
}

// Total is the number of symbols in the tally.
func (t Tally) Total() int {
	n := 0
	for _, v := range t {
		n += v
	}
	return n
}

// IsZero reports whether no symbol remains.
func (t Tally) IsZero() bool { return t == Tally{} }

// String renders the tally in fixed symbol order, e.g.
// "fire=1 intercept=0 hit=2 triangle=0 key=1".
func (t Tally) String() string {
	var b strings.Builder
	for i, v := range t {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%d", symbolNames[i], v)
	}
	return b.String()
}

func (t Tally) MarshalJSON() ([]byte, error) {
	m := make(map[string]int, SymbolCount)
	for i, v := range t {
		m[symbolNames[i]] = v
	}
	return json.Marshal(m)
}

func (t *Tally) UnmarshalJSON(b []byte) error {
	var m map[string]int
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	var out Tally
	for k, v := range m {
		s, err := ParseSymbol(k)
		if err != nil {
			return err
		}
		out[s] = v
	}
	*t = out
	return nil
}

// DieFace is the multiset of symbols on one face; a blank face is empty.
type DieFace []Symbol

// DieKind is a six-faced die with its own face table.
type DieKind struct {
	Name  string
	Faces [6]DieFace
}

var (
	AssaultDie = DieKind{
		Name: "assault",
		Faces: [6]DieFace{
			{Hit, Hit},
			{Hit, Hit, Fire},
			{Hit, Intercept},
			{Hit, Fire},
			{Hit, Fire},
			{},
		},
	}
	SkirmishDie = DieKind{
		Name: "skirmish",
		Faces: [6]DieFace{
			{Hit},
			{Hit},
			{Hit},
			{},
			{},
			{},
		},
	}
	RaidDie = DieKind{
		Name: "raid",
		Faces: [6]DieFace{
			{Intercept, Key, Key},
			{Fire, Key},
			{Triangle, Key},
			{Triangle, Fire},
			{Triangle, Fire},
			{Intercept},
		},
	}
)

// DieKinds lists the dice in allocation order.
var DieKinds = [3]DieKind{AssaultDie, SkirmishDie, RaidDie}

// Roll throws count dice of the given kind and tallies every symbol shown.
// count must be non-negative; zero yields an empty tally.
func Roll(r *rand.Rand, kind DieKind, count int) Tally {
	var t Tally
	for i := 0; i < count; i++ {
		for _, s := range kind.Faces[r.Intn(len(kind.Faces))] {
			t[s]++
		}
	}
	return t
}

// RollAllocation rolls assault, skirmish and raid dice per a and sums the
// symbols into one tally.
func RollAllocation(r *rand.Rand, a Allocation) Tally {
	t := Roll(r, AssaultDie, a.Assault)
	t = t.Add(Roll(r, SkirmishDie, a.Skirmish))
	return t.Add(Roll(r, RaidDie, a.Raid))
}

// NewRNG returns a generator seeded with seed, or with the clock when seed is 0.
func NewRNG(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

package load

import (
	"math"
	"math/bits"
)

const (
	mtN         = 624
	mtM         = 397
	mtMatrixA   = 0x9908b0df
	mtUpperMask = 0x80000000
	mtLowerMask = 0x7fffffff
)

// Source produces uniformly distributed 32-bit values.
type Source interface {
	Uint32() uint32
}

// MT19937 is the 32-bit Mersenne Twister, seeded the way CPython seeds
// random.Random from an integer.
//
// Create instances with [NewMT19937].
type MT19937 struct {
	state [mtN]uint32
	index int
}

// NewMT19937 creates an [MT19937] seeded with seed. The seed is split into
// little-endian 32-bit words and fed to init_by_array, matching
// random.seed(seed) for non-negative integers.
func NewMT19937(seed uint64) *MT19937 {
	key := []uint32{uint32(seed)}
	if hi := uint32(seed >> 32); hi != 0 {
		key = append(key, hi)
	}

	m := &MT19937{}
	m.seedArray(key)

	return m
}

func (m *MT19937) seedScalar(s uint32) {
	m.state[0] = s
	for i := 1; i < mtN; i++ {
		prev := m.state[i-1]
		m.state[i] = 1812433253*(prev^(prev>>30)) + uint32(i)
	}

	m.index = mtN
}

func (m *MT19937) seedArray(key []uint32) {
	m.seedScalar(19650218)

	i, j := 1, 0

	for k := max(mtN, len(key)); k > 0; k-- {
		prev := m.state[i-1]
		m.state[i] = (m.state[i] ^ ((prev ^ (prev >> 30)) * 1664525)) + key[j] + uint32(j)

		i++
		j++

		if i >= mtN {
			m.state[0] = m.state[mtN-1]
			i = 1
		}

		if j >= len(key) {
			j = 0
		}
	}

	for k := mtN - 1; k > 0; k-- {
		prev := m.state[i-1]
		m.state[i] = (m.state[i] ^ ((prev ^ (prev >> 30)) * 1566083941)) - uint32(i)

		i++

		if i >= mtN {
			m.state[0] = m.state[mtN-1]
			i = 1
		}
	}

	m.state[0] = 0x80000000
}

func (m *MT19937) twist() {
	for k := range mtN {
		y := (m.state[k] & mtUpperMask) | (m.state[(k+1)%mtN] & mtLowerMask)

		next := m.state[(k+mtM)%mtN] ^ (y >> 1)
		if y&1 != 0 {
			next ^= mtMatrixA
		}

		m.state[k] = next
	}

	m.index = 0
}

// Uint32 returns the next tempered 32-bit output.
func (m *MT19937) Uint32() uint32 {
	if m.index >= mtN {
		m.twist()
	}

	y := m.state[m.index]
	m.index++

	y ^= y >> 11
	y ^= (y << 7) & 0x9d2c5680
	y ^= (y << 15) & 0xefc60000
	y ^= y >> 18

	return y
}

// Below returns a value in [0, n) drawn from src by rejection sampling on
// the top bit-length(n) bits of each output, like CPython's randrange(n).
// It panics if n is not in [1, 1<<32).
func Below(src Source, n int) int {
	if n <= 0 || uint64(n) > math.MaxUint32 {
		panic("load: Below argument out of range")
	}

	k := bits.Len64(uint64(n))

	for {
		r := uint64(src.Uint32()) >> (32 - k)
		if r < uint64(n) {
			return int(r)
		}
	}
}

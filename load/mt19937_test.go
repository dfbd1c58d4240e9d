package load_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go.jacobcolvin.com/shoot/load"
)

func TestMT19937_Uint32(t *testing.T) {
	t.Parallel()

	src := load.NewMT19937(123456789)

	got := []uint32{src.Uint32(), src.Uint32(), src.Uint32()}
	assert.Equal(t, []uint32{2754794679, 1899526012, 2328685183}, got)
}

func TestBelow(t *testing.T) {
	t.Parallel()

	// Expected values come from CPython: random.seed(seed) followed by
	// random.randrange(1000) eight times.
	tcs := map[string]struct {
		seed uint64
		want []int
	}{
		"default seed": {
			seed: 123456789,
			want: []int{656, 452, 555, 726, 924, 863, 939, 831},
		},
		"seed one": {
			seed: 1,
			want: []int{137, 582, 867, 821, 782, 64, 261, 120},
		},
		"seed 42": {
			seed: 42,
			want: []int{654, 114, 25, 759, 281, 250, 228, 142},
		},
		"seed wider than 32 bits": {
			seed: 1<<40 + 7,
			want: []int{628, 765, 834, 960, 967, 654, 584, 722},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			src := load.NewMT19937(tc.seed)

			got := make([]int, len(tc.want))
			for i := range got {
				got[i] = load.Below(src, 1000)
			}

			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBelow_Range(t *testing.T) {
	t.Parallel()

	src := load.NewMT19937(7)

	for range 1000 {
		v := load.Below(src, 3)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 3)
	}

	assert.Zero(t, load.Below(src, 1))
}

func TestBelow_Panics(t *testing.T) {
	t.Parallel()

	src := load.NewMT19937(7)

	assert.Panics(t, func() { load.Below(src, 0) })
	assert.Panics(t, func() { load.Below(src, -1) })
}

// sequence returns the first n target indices src yields for two targets.
func sequence(src load.Source, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = load.Below(src, load.DefaultRandomLimit) % 2
	}

	return out
}

func TestSequence(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		want []int
		n    int
	}{
		"four shots": {
			n:    4,
			want: []int{0, 0, 1, 0},
		},
		"twenty shots": {
			n:    20,
			want: []int{0, 0, 1, 0, 0, 1, 1, 1, 0, 0, 1, 1, 1, 1, 0, 1, 1, 0, 1, 1},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := sequence(load.NewMT19937(load.DefaultSeed), tc.n)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSequence_Reproducible(t *testing.T) {
	t.Parallel()

	a := sequence(load.NewMT19937(load.DefaultSeed), load.DefaultShots)
	b := sequence(load.NewMT19937(load.DefaultSeed), load.DefaultShots)

	assert.Equal(t, a, b)
	assert.Len(t, a, load.DefaultShots)
}

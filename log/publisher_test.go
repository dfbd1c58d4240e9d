package log_test

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/shoot/log"
)

// drain closes pub and returns every line sub received.
func drain(t *testing.T, pub *log.Publisher, sub *log.Subscription) []string {
	t.Helper()

	require.NoError(t, pub.Close())

	var got []string
	for line := range sub.C() {
		got = append(got, string(line))
	}

	return got
}

func TestNewPublisher(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		opts    []log.PublisherOption
		wantCap int
	}{
		"default buffer size": {
			wantCap: 64,
		},
		"custom buffer size": {
			opts:    []log.PublisherOption{log.WithBufferSize(128)},
			wantCap: 128,
		},
		"clamp zero to one": {
			opts:    []log.PublisherOption{log.WithBufferSize(0)},
			wantCap: 1,
		},
		"clamp negative to one": {
			opts:    []log.PublisherOption{log.WithBufferSize(-5)},
			wantCap: 1,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			pub := log.NewPublisher(tc.opts...)

			sub := pub.Subscribe()
			defer sub.Close()

			assert.Equal(t, tc.wantCap, cap(sub.C()))
		})
	}
}

func TestPublisherLines(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		writes []string
		want   []string
	}{
		"single line": {
			writes: []string{"server started\n"},
			want:   []string{"server started"},
		},
		"several lines in one write": {
			writes: []string{"a\nb\nc\n"},
			want:   []string{"a", "b", "c"},
		},
		"line split across writes": {
			writes: []string{"listen", "ing on :80", "80\nready\n"},
			want:   []string{"listening on :8080", "ready"},
		},
		"crlf endings": {
			writes: []string{"a\r\nb\r\n"},
			want:   []string{"a", "b"},
		},
		"empty line kept": {
			writes: []string{"a\n\nb\n"},
			want:   []string{"a", "", "b"},
		},
		"partial line flushed on close": {
			writes: []string{"done\nno newline"},
			want:   []string{"done", "no newline"},
		},
		"nothing written": {},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			pub := log.NewPublisher()
			sub := pub.Subscribe()

			for _, w := range tc.writes {
				n, err := pub.Write([]byte(w))
				require.NoError(t, err)
				assert.Equal(t, len(w), n)
			}

			assert.Equal(t, tc.want, drain(t, pub, sub))
		})
	}
}

func TestPublisherFanOut(t *testing.T) {
	t.Parallel()

	pub := log.NewPublisher()
	subs := []*log.Subscription{pub.Subscribe(), pub.Subscribe(), pub.Subscribe()}

	_, err := pub.Write([]byte("shot 1\n"))
	require.NoError(t, err)

	for _, sub := range subs {
		assert.Equal(t, "shot 1", string(<-sub.C()))
	}

	buf := []byte("original\n")
	_, err = pub.Write(buf)
	require.NoError(t, err)

	buf[0] = 'X'

	assert.Equal(t, "original", string(<-subs[0].C()), "subscribers receive a copy")
}

func TestPublisherRingBuffer(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		write   string
		want    []string
		bufSize int
	}{
		"drops oldest on full": {
			bufSize: 2,
			write:   "a\nb\nc\nd\n",
			want:    []string{"c", "d"},
		},
		"preserves newest entries": {
			bufSize: 3,
			write:   "1\n2\n3\n4\n5\n",
			want:    []string{"3", "4", "5"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			pub := log.NewPublisher(log.WithBufferSize(tc.bufSize))
			sub := pub.Subscribe()

			_, err := pub.Write([]byte(tc.write))
			require.NoError(t, err)

			assert.Equal(t, tc.want, drain(t, pub, sub))
		})
	}
}

func TestSubscriptionClose(t *testing.T) {
	t.Parallel()

	pub := log.NewPublisher()
	sub := pub.Subscribe()
	other := pub.Subscribe()

	_, err := pub.Write([]byte("before\n"))
	require.NoError(t, err)

	sub.Close()
	sub.Close()

	_, err = pub.Write([]byte("after\n"))
	require.NoError(t, err)

	assert.Equal(t, "before", string(<-sub.C()))

	_, open := <-sub.C()
	assert.False(t, open, "channel closes on the first publish after Close")

	assert.Equal(t, []string{"before", "after"}, drain(t, pub, other))
}

func TestPublisherClose(t *testing.T) {
	t.Parallel()

	t.Run("write after close is no-op", func(t *testing.T) {
		t.Parallel()

		pub := log.NewPublisher()
		sub := pub.Subscribe()

		require.NoError(t, pub.Close())
		require.NoError(t, pub.Close())

		n, err := pub.Write([]byte("ignored\n"))
		require.NoError(t, err)
		assert.Equal(t, 8, n)

		_, open := <-sub.C()
		assert.False(t, open)
	})

	t.Run("subscribe after close", func(t *testing.T) {
		t.Parallel()

		pub := log.NewPublisher()
		require.NoError(t, pub.Close())

		_, open := <-pub.Subscribe().C()
		assert.False(t, open)
	})
}

func TestPublisherConcurrency(t *testing.T) {
	t.Parallel()

	pub := log.NewPublisher(log.WithBufferSize(8))

	var wg sync.WaitGroup

	for range 5 {
		wg.Go(func() {
			for range 100 {
				//nolint:errcheck // Write always returns nil.
				pub.Write([]byte("data\n"))
			}
		})
	}

	for range 5 {
		wg.Go(func() {
			sub := pub.Subscribe()
			for range 20 {
				select {
				case <-sub.C():
				default:
				}
			}

			sub.Close()
		})
	}

	wg.Wait()
	require.NoError(t, pub.Close())
}

func TestPublisherWithHandler(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		format log.Format
		want   []string
	}{
		"json": {
			format: log.FormatJSON,
			want:   []string{`"msg":"shot fired"`, `"url":"localhost:8080/api/v1/maps"`},
		},
		"logfmt": {
			format: log.FormatLogfmt,
			want:   []string{"msg=\"shot fired\"", "url=localhost:8080/api/v1/maps"},
		},
		"text": {
			format: log.FormatText,
			want:   []string{"shot fired", "localhost:8080/api/v1/maps"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			pub := log.NewPublisher()
			sub := pub.Subscribe()

			logger := slog.New(log.NewHandler(pub, log.LevelInfo, tc.format))
			logger.Info("shot fired", slog.String("url", "localhost:8080/api/v1/maps"))
			logger.Debug("filtered")

			got := drain(t, pub, sub)
			require.Len(t, got, 1)

			for _, want := range tc.want {
				assert.Contains(t, got[0], want)
			}
		})
	}
}

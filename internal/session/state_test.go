package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTarget(t *testing.T) {
	s := New("10.0.110.253", 5555)
	assert.Equal(t, "10.0.110.253:5555", s.Target())
	assert.Equal(t, "10.0.110.253", s.Host())
}

func TestSetHost(t *testing.T) {
	s := New("10.0.110.253", 5555)

	target, err := s.SetHost("192.168.0.5")
	require.NoError(t, err)
	assert.Equal(t, "192.168.0.5:5555", target)
	assert.Equal(t, "192.168.0.5:5555", s.Target())
}

func TestSetHostEmptyKeepsPrevious(t *testing.T) {
	s := New("10.0.110.253", 5555)

	for _, host := range []string{"", "   "} {
		_, err := s.SetHost(host)
		require.ErrorIs(t, err, ErrEmptyHost)
		assert.Equal(t, "10.0.110.253:5555", s.Target())
	}
}

func TestSetHostTrimsWhitespace(t *testing.T) {
	s := New("10.0.110.253", 5555)
	target, err := s.SetHost("  192.168.0.5 ")
	require.NoError(t, err)
	assert.Equal(t, "192.168.0.5:5555", target)
}

func TestConcurrentAccess(t *testing.T) {
	s := New("10.0.110.253", 5555)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = s.SetHost("192.168.0.5")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				got := s.Target()
				// Never a torn value: always one of the two targets.
				if got != "10.0.110.253:5555" && got != "192.168.0.5:5555" {
					t.Errorf("unexpected target %q", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}

package ids

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsSortableAndUnique(t *testing.T) {
	prev := New()
	for i := 0; i < 1000; i++ {
		next := New()
		_, err := ulid.ParseStrict(next)
		require.NoError(t, err)
		assert.Less(t, prev, next)
		prev = next
	}
}

package serialization

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeChecksum(t *testing.T) {
	a := ComputeChecksum([]byte("test data"))
	assert.Equal(t, a, ComputeChecksum([]byte("test data")))
	assert.NotEqual(t, a, ComputeChecksum([]byte("different data")))
	assert.Len(t, FormatChecksum(a), 64)
}

func TestValidateChecksum(t *testing.T) {
	data := []byte("test data")
	stored := FormatChecksum(ComputeChecksum(data))
	require.NoError(t, ValidateChecksum(data, stored))

	err := ValidateChecksum([]byte("test datA"), stored)
	assert.True(t, errors.Is(err, ErrChecksumMismatch))

	for _, bad := range []string{"", "zz", stored[:62]} {
		assert.True(t, errors.Is(ValidateChecksum(data, bad), ErrChecksumMismatch), bad)
	}
}

package serialization

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/cockroachdb/errors"
)

// ComputeChecksum computes the SHA-256 checksum of data.
func ComputeChecksum(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// FormatChecksum returns the hex form stored in the header.
func FormatChecksum(sum [32]byte) string {
	return hex.EncodeToString(sum[:])
}

// ValidateChecksum compares the checksum of data against the hex checksum
// stored in a header. Returns ErrChecksumMismatch if they don't match.
func ValidateChecksum(data []byte, stored string) error {
	want, err := hex.DecodeString(stored)
	if err != nil || len(want) != sha256.Size {
		return errors.Wrapf(ErrChecksumMismatch, "malformed checksum %q", stored)
	}
	got := ComputeChecksum(data)
	if [32]byte(want) != got {
		return errors.Wrapf(ErrChecksumMismatch, "got %s", FormatChecksum(got))
	}
	return nil
}

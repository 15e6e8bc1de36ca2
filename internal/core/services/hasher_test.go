package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint_KnownDigest(t *testing.T) {
	// sha256("abc")
	assert.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		Fingerprint([]byte("abc")))
}

func TestFingerprint_Deterministic(t *testing.T) {
	data := []byte("%PDF-1.7 same bytes")

	assert.Equal(t, Fingerprint(data), Fingerprint(append([]byte(nil), data...)))
}

func TestFingerprint_DiffersOnContent(t *testing.T) {
	assert.NotEqual(t, Fingerprint([]byte("a")), Fingerprint([]byte("b")))
}

func TestFingerprint_EmptyInput(t *testing.T) {
	fp := Fingerprint(nil)

	assert.Len(t, fp, 64)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", fp)
}

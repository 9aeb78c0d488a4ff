package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_StripsBOM(t *testing.T) {
	src := append([]byte{0xEF, 0xBB, 0xBF}, []byte("let x = 5;")...)
	got := Normalize(src)
	assert.Equal(t, "let x = 5;", string(got))
}

func TestNormalize_NFC(t *testing.T) {
	// "é" as NFD (e + combining acute) should normalize to the same
	// bytes as its NFC precomposed form, so identifiers using either
	// encoding tokenize identically.
	nfd := []byte("café") // cafe + combining acute = café (NFD)
	nfc := []byte("café")
	assert.Equal(t, string(Normalize(nfc)), string(Normalize(nfd)))
}

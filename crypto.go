package agentauth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
)

// HmacSHA256Hex computes an HMAC-SHA256 over data keyed by secret, hex-encoded.
func HmacSHA256Hex(secret, data string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// HmacSHA256Bytes computes a raw HMAC-SHA256 digest.
func HmacSHA256Bytes(secret []byte, data []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(data)
	return mac.Sum(nil)
}

// TimingSafeEqual compares two strings in constant time, guarding against
// response-timing side channels on HMAC and answer-hash checks.
func TimingSafeEqual(a, b string) bool {
	if len(a) != len(b) {
		// Still run a constant-time compare on same-length buffers so that a
		// length mismatch doesn't itself leak timing relative to the match path.
		subtle.ConstantTimeCompare([]byte(a), []byte(a))
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// RandomBytes returns n cryptographically random bytes.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// ToHex / FromHex are thin wrappers kept for call-site symmetry with the hex
// package used throughout the drivers.
func ToHex(b []byte) string { return hex.EncodeToString(b) }

func FromHex(s string) ([]byte, error) { return hex.DecodeString(s) }

// SHA256Hex hashes s and hex-encodes the digest.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// SHA256Bytes hashes raw bytes and returns the digest.
func SHA256Bytes(b []byte) []byte {
	sum := sha256.Sum256(b)
	return sum[:]
}

// Base64Encode / Base64Decode use standard (non-URL) base64, matching the
// wire format the crypto-nl driver's base64_encode operation produces.
func Base64Encode(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

func Base64Decode(s string) ([]byte, error) { return base64.StdEncoding.DecodeString(s) }

// GenerateID returns a random challenge identifier.
func GenerateID() (string, error) {
	b, err := RandomBytes(16)
	if err != nil {
		return "", err
	}
	return "ch_" + ToHex(b), nil
}

// GenerateSessionToken returns a random, single-use session binding token.
func GenerateSessionToken() (string, error) {
	b, err := RandomBytes(24)
	if err != nil {
		return "", err
	}
	return "st_" + ToHex(b), nil
}

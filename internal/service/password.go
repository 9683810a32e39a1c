package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// PasswordHasher Argon2id 参数
type PasswordHasher struct {
	Memory  uint32 // KiB
	Time    uint32
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

// DefaultPasswordHasher uses the OWASP recommended Argon2id parameters.
func DefaultPasswordHasher() PasswordHasher {
	return PasswordHasher{
		Memory:  64 * 1024,
		Time:    1,
		Threads: 4,
		KeyLen:  32,
		SaltLen: 16,
	}
}

// Hash encodes as $argon2id$v=19$m=65536,t=1,p=4$salt$hash.
func (h PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, h.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, h.Time, h.Memory, h.Threads, h.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.Memory, h.Time, h.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash)), nil
}

// Upper bounds accepted from a stored hash.
const (
	maxArgon2Memory = 1 << 22 // KiB, 4 GiB
	maxArgon2Time   = 64
	maxArgon2KeyLen = 1024
)

// Verify recomputes the hash with the parameters stored in encoded.
// A malformed or out-of-range encoding is an error, never a panic.
func (h PasswordHasher) Verify(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return false, fmt.Errorf("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return false, fmt.Errorf("not an argon2id hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("failed to parse hash version: %w", err)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, fmt.Errorf("failed to parse hash parameters: %w", err)
	}
	switch {
	case time < 1 || time > maxArgon2Time:
		return false, fmt.Errorf("argon2 time %d out of range", time)
	case threads < 1 || threads > 255:
		return false, fmt.Errorf("argon2 parallelism %d out of range", threads)
	case memory < 8*threads || memory > maxArgon2Memory:
		return false, fmt.Errorf("argon2 memory %d KiB out of range", memory)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("failed to decode salt: %w", err)
	}
	decoded, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("failed to decode hash: %w", err)
	}
	if len(salt) == 0 || len(decoded) == 0 || len(decoded) > maxArgon2KeyLen {
		return false, fmt.Errorf("invalid salt or hash length")
	}

	computed := argon2.IDKey([]byte(password), salt, time, memory, uint8(threads), uint32(len(decoded)))
	return subtle.ConstantTimeCompare(decoded, computed) == 1, nil
}

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"keyauth/config"
	"keyauth/internal/domain/service"
	"keyauth/internal/errors"
)

// Upper bound on the memory cost accepted from a stored digest (4 GiB, in KiB).
const maxArgon2Memory = 4 * 1024 * 1024

var errMalformedDigest = errors.New("malformed argon2id digest")

// argon2Hasher implements PasswordHasher with argon2id and PHC-style encoded digests:
// $argon2id$v=19$m=<KiB>,t=<iterations>,p=<parallelism>$<salt>$<key>
type argon2Hasher struct {
	params config.Argon2Config
}

// NewArgon2Hasher is the constructor for argon2Hasher.
func NewArgon2Hasher(params config.Argon2Config) service.PasswordHasher {
	return &argon2Hasher{params: params}
}

// ValidatePassword accepts any length; argon2 hashes the whole input.
func (h *argon2Hasher) ValidatePassword(string) error {
	return nil
}

func (h *argon2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Wrap(err, "generate argon2 salt")
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		h.params.Iterations,
		h.params.Memory,
		h.params.Parallelism,
		h.params.KeyLength,
	)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Iterations,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the key with the parameters embedded in digest and compares in constant time.
func (h *argon2Hasher) Verify(password, digest string) (bool, error) {
	params, salt, key, err := decodeArgon2Digest(digest)
	if err != nil {
		return false, nil
	}

	candidate := argon2.IDKey(
		[]byte(password),
		salt,
		params.Iterations,
		params.Memory,
		params.Parallelism,
		params.KeyLength,
	)

	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

func decodeArgon2Digest(digest string) (params config.Argon2Config, salt, key []byte, err error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return params, nil, nil, errMalformedDigest
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return params, nil, nil, errMalformedDigest
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return params, nil, nil, errMalformedDigest
	}

	if params.Memory == 0 || params.Memory > maxArgon2Memory || params.Iterations == 0 || params.Parallelism == 0 {
		return params, nil, nil, errMalformedDigest
	}

	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(salt) == 0 {
		return params, nil, nil, errMalformedDigest
	}

	if key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(key) == 0 {
		return params, nil, nil, errMalformedDigest
	}

	params.SaltLength = uint32(len(salt))
	params.KeyLength = uint32(len(key))

	return params, salt, key, nil
}

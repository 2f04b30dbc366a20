package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	algorithmID = "argon2id"

	minMemoryKB uint32 = 8 * 1024
	maxMemoryKB uint32 = 1024 * 1024
	maxTime     uint32 = 16
	minSaltLen  uint32 = 16
	minKeyLen   uint32 = 16

	// MinLength is the shortest password accepted for hashing.
	MinLength = 8
)

var (
	ErrTooShort    = errors.New("password: too short")
	ErrInvalidHash = errors.New("password: invalid hash")
	ErrConfig      = errors.New("password: invalid config")
)

// Params are the Argon2id cost parameters.
type Params struct {
	Memory      uint32 `yaml:"memory"`
	Time        uint32 `yaml:"time"`
	Parallelism uint8  `yaml:"parallelism"`
	SaltLength  uint32 `yaml:"salt_length"`
	KeyLength   uint32 `yaml:"key_length"`
}

// DefaultParams returns interactive-login parameters.
func DefaultParams() Params {
	return Params{Memory: 64 * 1024, Time: 3, Parallelism: 2, SaltLength: 16, KeyLength: 32}
}

func (p Params) validate() error {
	switch {
	case p.Memory < minMemoryKB:
		return fmt.Errorf("%w: memory must be >= %d KB", ErrConfig, minMemoryKB)
	case p.Time < 1:
		return fmt.Errorf("%w: time must be >= 1", ErrConfig)
	case p.Parallelism < 1:
		return fmt.Errorf("%w: parallelism must be >= 1", ErrConfig)
	case p.SaltLength < minSaltLen:
		return fmt.Errorf("%w: salt length must be >= %d", ErrConfig, minSaltLen)
	case p.KeyLength < minKeyLen:
		return fmt.Errorf("%w: key length must be >= %d", ErrConfig, minKeyLen)
	}
	return nil
}

// Hasher produces and checks Argon2id hashes.
type Hasher struct {
	params Params
}

// NewHasher validates p.
func NewHasher(p Params) (*Hasher, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &Hasher{params: p}, nil
}

// Hash returns the PHC encoding of plain under fresh salt.
func (h *Hasher) Hash(plain string) (string, error) {
	if len(plain) < MinLength {
		return "", ErrTooShort
	}

	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("password: read salt: %w", err)
	}
	key := argon2.IDKey([]byte(plain), salt, h.params.Time, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return encode(phc{params: h.params, salt: salt, key: key}), nil
}

// Verify reports whether plain matches encoded. Only malformed hashes error.
func (h *Hasher) Verify(plain, encoded string) (bool, error) {
	p, err := decode(encoded)
	if err != nil {
		return false, err
	}
	key := argon2.IDKey([]byte(plain), p.salt, p.params.Time, p.params.Memory, p.params.Parallelism, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(key, p.key) == 1, nil
}

// NeedsRehash reports whether encoded was produced with weaker parameters
// than h uses.
func (h *Hasher) NeedsRehash(encoded string) (bool, error) {
	p, err := decode(encoded)
	if err != nil {
		return false, err
	}
	return p.params.Memory < h.params.Memory ||
		p.params.Time < h.params.Time ||
		p.params.Parallelism < h.params.Parallelism ||
		uint32(len(p.key)) != h.params.KeyLength, nil
}

type phc struct {
	params Params
	salt   []byte
	key    []byte
}

func encode(p phc) string {
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID, argon2.Version,
		p.params.Memory, p.params.Time, p.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(p.salt),
		base64.RawStdEncoding.EncodeToString(p.key),
	)
}

func decode(encoded string) (phc, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != algorithmID {
		return phc{}, ErrInvalidHash
	}
	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return phc{}, fmt.Errorf("%w: unsupported version %q", ErrInvalidHash, parts[2])
	}

	var out phc
	for _, kv := range strings.Split(parts[3], ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return phc{}, fmt.Errorf("%w: parameter %q", ErrInvalidHash, kv)
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil || n == 0 {
			return phc{}, fmt.Errorf("%w: parameter %q", ErrInvalidHash, kv)
		}
		switch k {
		case "m":
			out.params.Memory = uint32(n)
		case "t":
			out.params.Time = uint32(n)
		case "p":
			if n > 255 {
				return phc{}, fmt.Errorf("%w: parallelism %d", ErrInvalidHash, n)
			}
			out.params.Parallelism = uint8(n)
		default:
			return phc{}, fmt.Errorf("%w: parameter %q", ErrInvalidHash, k)
		}
	}
	if out.params.Memory < minMemoryKB || out.params.Time == 0 || out.params.Parallelism == 0 {
		return phc{}, fmt.Errorf("%w: missing or weak parameters", ErrInvalidHash)
	}
	if out.params.Memory > maxMemoryKB || out.params.Time > maxTime {
		return phc{}, fmt.Errorf("%w: parameters out of range", ErrInvalidHash)
	}

	var err error
	if out.salt, err = decodeB64(parts[4]); err != nil || len(out.salt) < int(minSaltLen) {
		return phc{}, fmt.Errorf("%w: salt", ErrInvalidHash)
	}
	if out.key, err = decodeB64(parts[5]); err != nil || len(out.key) == 0 {
		return phc{}, fmt.Errorf("%w: key", ErrInvalidHash)
	}
	return out, nil
}

// decodeB64 accepts padded and unpadded standard base64.
func decodeB64(s string) ([]byte, error) {
	if strings.HasSuffix(s, "=") {
		return base64.StdEncoding.DecodeString(s)
	}
	return base64.RawStdEncoding.DecodeString(s)
}

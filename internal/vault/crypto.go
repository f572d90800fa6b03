package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/pbkdf2"

	"github.com/crownix/vault/internal/header"
)

const (
	// Crypto constants
	KeySize   = 32 // AES-256 key size
	SaltSize  = 16 // PBKDF2 salt size
	NonceSize = 12 // GCM nonce size
	TagSize   = 16 // GCM tag size

	// DefaultIterations is the PBKDF2-SHA256 work factor for new vaults.
	DefaultIterations = 200_000

	// KDFName is recorded in the header of sealed vaults.
	KDFName = "PBKDF2-SHA256"
)

var (
	ErrDecryptionFailed = errors.New("decryption failed")
	ErrInvalidKeySize   = errors.New("invalid key size")
	ErrInvalidSealInfo  = errors.New("vault header lacks usable seal parameters")
	ErrEmptyPassphrase  = errors.New("passphrase must not be empty")
)

// SealInfo is the key-derivation and cipher state carried in the header.
type SealInfo struct {
	KDF        string
	Iterations int
	Salt       []byte
	Nonce      []byte
	UpdatedAt  time.Time
}

// Sealer encrypts vault payloads and frames them behind a vault header.
// The payload is AES-256-GCM ciphertext with the tag appended, keyed by
// PBKDF2-SHA256 over the passphrase.
type Sealer struct {
	iterations int
	now        func() time.Time
}

// NewSealer creates a sealer deriving keys with the given iteration count.
// Non-positive counts fall back to DefaultIterations.
func NewSealer(iterations int) *Sealer {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &Sealer{iterations: iterations, now: time.Now}
}

// GenerateSalt creates a cryptographically secure random salt
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// GenerateNonce creates a cryptographically secure random nonce
func GenerateNonce() ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return nonce, nil
}

// DeriveKey derives an AES-256 key from passphrase.
func DeriveKey(passphrase string, salt []byte, iterations int) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("invalid salt size: expected %d, got %d", SaltSize, len(salt))
	}
	if iterations <= 0 {
		return nil, fmt.Errorf("invalid iteration count: %d", iterations)
	}
	return pbkdf2.Key([]byte(passphrase), salt, iterations, KeySize, sha256.New), nil
}

// Seal encrypts plaintext under a fresh salt and returns a complete vault
// buffer.
func (s *Sealer) Seal(plaintext []byte, passphrase string) ([]byte, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}
	return s.seal(plaintext, passphrase, salt, s.iterations)
}

// Reseal encrypts plaintext reusing the salt and iteration count of prev,
// the previously opened vault buffer. A fresh nonce is always drawn.
func (s *Sealer) Reseal(prev, plaintext []byte, passphrase string) ([]byte, error) {
	h, err := header.Parse(prev)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVault, err)
	}
	info, err := ReadSealInfo(h)
	if err != nil {
		return nil, err
	}
	return s.seal(plaintext, passphrase, info.Salt, info.Iterations)
}

func (s *Sealer) seal(plaintext []byte, passphrase string, salt []byte, iterations int) ([]byte, error) {
	key, err := DeriveKey(passphrase, salt, iterations)
	if err != nil {
		return nil, err
	}
	defer Zeroize(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce, err := GenerateNonce()
	if err != nil {
		return nil, err
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	h := header.New()
	if err := writeSealInfo(h, SealInfo{
		KDF:        KDFName,
		Iterations: iterations,
		Salt:       salt,
		Nonce:      nonce,
		UpdatedAt:  s.now(),
	}); err != nil {
		return nil, err
	}

	return header.Encode(h, ciphertext)
}

// Open validates buf and decrypts its payload.
func (s *Sealer) Open(buf []byte, passphrase string) ([]byte, *header.Header, error) {
	h, err := header.Parse(buf)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidVault, err)
	}

	info, err := ReadSealInfo(h)
	if err != nil {
		return nil, nil, err
	}

	payload, err := header.Payload(buf)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidVault, err)
	}
	if len(payload) < TagSize {
		return nil, nil, ErrDecryptionFailed
	}

	key, err := DeriveKey(passphrase, info.Salt, info.Iterations)
	if err != nil {
		return nil, nil, err
	}
	defer Zeroize(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	plaintext, err := gcm.Open(nil, info.Nonce, payload, nil)
	if err != nil {
		return nil, nil, ErrDecryptionFailed
	}

	return plaintext, h, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// ReadSealInfo extracts the seal parameters from a parsed header. Vaults
// written before the kdf and iterations fields existed default to
// PBKDF2-SHA256 at DefaultIterations.
func ReadSealInfo(h *header.Header) (SealInfo, error) {
	info := SealInfo{KDF: KDFName, Iterations: DefaultIterations}
	if h == nil {
		return info, ErrInvalidSealInfo
	}

	var saltText, ivText string
	if err := decodeField(h.Extra, "salt", &saltText); err != nil {
		return info, err
	}
	if err := decodeField(h.Extra, "iv", &ivText); err != nil {
		return info, err
	}

	var err error
	if info.Salt, err = base64.StdEncoding.DecodeString(saltText); err != nil || len(info.Salt) != SaltSize {
		return info, fmt.Errorf("%w: salt", ErrInvalidSealInfo)
	}
	if info.Nonce, err = base64.StdEncoding.DecodeString(ivText); err != nil || len(info.Nonce) != NonceSize {
		return info, fmt.Errorf("%w: iv", ErrInvalidSealInfo)
	}

	if _, ok := h.Extra["kdf"]; ok {
		if err := decodeField(h.Extra, "kdf", &info.KDF); err != nil {
			return info, err
		}
		if info.KDF != KDFName {
			return info, fmt.Errorf("%w: unsupported kdf %q", ErrInvalidSealInfo, info.KDF)
		}
	}
	if _, ok := h.Extra["iterations"]; ok {
		if err := decodeField(h.Extra, "iterations", &info.Iterations); err != nil {
			return info, err
		}
		if info.Iterations <= 0 {
			return info, fmt.Errorf("%w: iterations", ErrInvalidSealInfo)
		}
	}
	if _, ok := h.Extra["updatedAt"]; ok {
		var ms int64
		if err := decodeField(h.Extra, "updatedAt", &ms); err != nil {
			return info, err
		}
		info.UpdatedAt = time.UnixMilli(ms)
	}

	return info, nil
}

func writeSealInfo(h *header.Header, info SealInfo) error {
	fields := map[string]any{
		"kdf":        info.KDF,
		"iterations": info.Iterations,
		"salt":       base64.StdEncoding.EncodeToString(info.Salt),
		"iv":         base64.StdEncoding.EncodeToString(info.Nonce),
		"updatedAt":  info.UpdatedAt.UnixMilli(),
	}

	if h.Extra == nil {
		h.Extra = make(map[string]json.RawMessage, len(fields))
	}
	for k, v := range fields {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal header field %s: %w", k, err)
		}
		h.Extra[k] = raw
	}
	return nil
}

func decodeField(extra map[string]json.RawMessage, name string, v any) error {
	raw, ok := extra[name]
	if !ok {
		return fmt.Errorf("%w: missing %s", ErrInvalidSealInfo, name)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSealInfo, name, err)
	}
	return nil
}

// Zeroize overwrites sensitive data with zeros
func Zeroize(data []byte) {
	for i := range data {
		data[i] = 0
	}
}

package storage

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/scrypt"
)

var archiveMagic = []byte("MFZ1")

const (
	saltSize  = 16
	nonceSize = 12
	keySize   = 32
	headerLen = 4 + saltSize + nonceSize
)

// scrypt cost parameters
const (
	scryptN = 32768
	scryptR = 8
	scryptP = 1
)

func deriveKey(password, salt []byte) ([]byte, error) {
	return scrypt.Key(password, salt, scryptN, scryptR, scryptP, keySize)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal compresses and encrypts data with a password.
func Seal(data, password []byte) ([]byte, error) {
	if len(password) == 0 {
		return nil, ErrPasswordRequired
	}
	header := make([]byte, headerLen)
	copy(header, archiveMagic)
	if _, err := rand.Read(header[4:]); err != nil {
		return nil, fmt.Errorf("generating salt and nonce: %w", err)
	}
	salt, nonce := header[4:4+saltSize], header[4+saltSize:]
	key, err := deriveKey(password, salt)
	if err != nil {
		return nil, err
	}
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	compressed := enc.EncodeAll(data, nil)
	enc.Close()
	return aead.Seal(header, nonce, compressed, header), nil
}

// Open decrypts and decompresses an archive.
func Open(archive, password []byte) ([]byte, error) {
	if len(password) == 0 {
		return nil, ErrPasswordRequired
	}
	if len(archive) < headerLen || !bytes.Equal(archive[:4], archiveMagic) {
		return nil, fmt.Errorf("%w: not an archive", ErrBadPassword)
	}
	header := archive[:headerLen]
	salt, nonce := header[4:4+saltSize], header[4+saltSize:]
	key, err := deriveKey(password, salt)
	if err != nil {
		return nil, err
	}
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	compressed, err := aead.Open(nil, nonce, archive[headerLen:], header)
	if err != nil {
		return nil, ErrBadPassword
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	data, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPassword, err)
	}
	return data, nil
}

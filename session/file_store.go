package session

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

// ErrDecrypt is returned when an encrypted session file cannot be opened with
// the configured passphrase.
var ErrDecrypt = errors.New("cannot decrypt session file")

const (
	fileMode = 0o600
	dirMode  = 0o700

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// KeyDerivationFunc stretches the passphrase into the secretbox key. It can be
// overridden in tests.
var KeyDerivationFunc = scrypt.Key

// sealedFile is the on-disk envelope used when a passphrase is configured.
type sealedFile struct {
	Version int    `json:"v"`
	Salt    []byte `json:"salt"`
	Nonce   []byte `json:"nonce"`
	Box     []byte `json:"box"`
}

// FileStore keeps the session in a JSON file. With a passphrase the file is
// sealed with NaCl secretbox under a scrypt derived key; without one the
// tokens are stored in plaintext, readable only by the owning user.
type FileStore struct {
	path       string
	passphrase []byte
	mu         sync.Mutex

	// last derived key and its salt, reused until the salt changes
	salt []byte
	key  *[32]byte
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path, passphrase string) *FileStore {
	store := &FileStore{path: path}
	if passphrase != "" {
		store.passphrase = []byte(passphrase)
	}
	return store
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (s *FileStore) SetMany(_ context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read()
	if err != nil {
		return err
	}
	for k, v := range values {
		current[k] = v
	}
	return s.write(current)
}

func (s *FileStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(current, k)
	}
	if len(current) == 0 {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove session file: %w", err)
		}
		return nil
	}
	return s.write(current)
}

func (s *FileStore) CompareAndSwap(_ context.Context, key, old string, values map[string]string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read()
	if err != nil {
		return false, err
	}
	if current[key] != old {
		return false, nil
	}
	for k, v := range values {
		current[k] = v
	}
	return true, s.write(current)
}

func (s *FileStore) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	if s.passphrase != nil {
		if data, err = s.open(data); err != nil {
			return nil, err
		}
	}

	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	return values, nil
}

func (s *FileStore) write(values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}

	if s.passphrase != nil {
		if data, err = s.seal(data); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), dirMode); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

func (s *FileStore) seal(plain []byte) ([]byte, error) {
	salt := s.salt
	if salt == nil {
		salt = make([]byte, 16)
		if _, err := rand.Read(salt); err != nil {
			return nil, fmt.Errorf("failed to generate salt: %w", err)
		}
	}
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	key, err := s.deriveKey(salt)
	if err != nil {
		return nil, err
	}

	return json.Marshal(sealedFile{
		Version: 1,
		Salt:    salt,
		Nonce:   nonce[:],
		Box:     secretbox.Seal(nil, plain, &nonce, key),
	})
}

func (s *FileStore) open(data []byte) ([]byte, error) {
	var sealed sealedFile
	if err := json.Unmarshal(data, &sealed); err != nil || sealed.Version != 1 || len(sealed.Nonce) != 24 {
		return nil, ErrDecrypt
	}

	key, err := s.deriveKey(sealed.Salt)
	if err != nil {
		return nil, err
	}

	var nonce [24]byte
	copy(nonce[:], sealed.Nonce)
	plain, ok := secretbox.Open(nil, sealed.Box, &nonce, key)
	if !ok {
		return nil, ErrDecrypt
	}
	return plain, nil
}

// deriveKey is called with s.mu held.
func (s *FileStore) deriveKey(salt []byte) (*[32]byte, error) {
	if s.key != nil && bytes.Equal(s.salt, salt) {
		return s.key, nil
	}
	derived, err := KeyDerivationFunc(s.passphrase, salt, scryptN, scryptR, scryptP, 32)
	if err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}
	var key [32]byte
	copy(key[:], derived)
	s.salt = append([]byte(nil), salt...)
	s.key = &key
	return s.key, nil
}

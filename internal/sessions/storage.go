package sessions

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/travelrag/travel-cli/internal/config/environment"
	"gopkg.in/yaml.v3"
)

type StorageMode string

const (
	StorageAuto   StorageMode = "auto"
	StorageFile   StorageMode = "file"
	StorageMemory StorageMode = "memory"
	StorageNone   StorageMode = "none"
)

const storageFileVersion = "1.0"

// Storage is a small key/value medium for client side state. Every method
// is atomic with respect to the others.
type Storage interface {
	Get(key string) (string, bool)
	// Set writes all entries in one step.
	Set(entries map[string]string) error
	Remove(keys ...string) error
	// Take reads and deletes key in one step.
	Take(key string) (string, bool, error)
	Mode() StorageMode
}

type StorageOptions struct {
	Mode StorageMode
	// Path is the directory holding one state file per API host.
	Path string
	// Namespace separates state of different API endpoints, normally the
	// endpoint URL.
	Namespace string
}

// NewStorage selects the storage medium once at startup. The auto mode
// falls back to memory in ephemeral environments or when the state
// directory cannot be created.
func NewStorage(opts StorageOptions) (Storage, error) {
	mode := StorageMode(strings.ToLower(string(opts.Mode)))
	if len(mode) == 0 {
		mode = StorageAuto
	}

	switch mode {
	case StorageNone:
		return NullStorage{}, nil
	case StorageMemory:
		return NewMemoryStorage(), nil
	case StorageFile:
		return NewFileStorage(opts.Path, opts.Namespace)
	case StorageAuto:
		if environment.IsEphemeralEnvironment() {
			logrus.Debugln("Ephemeral environment detected, keeping session state in memory")
			return NewMemoryStorage(), nil
		}
		storage, err := NewFileStorage(opts.Path, opts.Namespace)
		if err != nil {
			logrus.WithError(err).Warnln("Session state directory unavailable, keeping session state in memory")
			return NewMemoryStorage(), nil
		}
		return storage, nil
	default:
		return nil, fmt.Errorf("unknown storage mode: %s", opts.Mode)
	}
}

// stateFile is the on-disk layout of a FileStorage.
type stateFile struct {
	Version   string            `yaml:"version"`
	Timestamp time.Time         `yaml:"timestamp"`
	Values    map[string]string `yaml:"values"`
}

func newStateFile() stateFile {
	return stateFile{
		Version:   storageFileVersion,
		Timestamp: time.Now().UTC(),
		Values:    make(map[string]string),
	}
}

// FileStorage keeps values in a yaml file readable only by the owner. The
// file is re-read on every operation so separate invocations of the CLI
// see each other's writes.
type FileStorage struct {
	lock sync.Mutex
	path string
}

func NewFileStorage(dir, namespace string) (*FileStorage, error) {
	dir, err := expandHome(dir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session state directory: %w", err)
	}

	return &FileStorage{
		path: filepath.Join(dir, fmt.Sprintf("%s.yaml", storageFileName(namespace))),
	}, nil
}

func (s *FileStorage) Mode() StorageMode {
	return StorageFile
}

func (s *FileStorage) Path() string {
	return s.path
}

func (s *FileStorage) Get(key string) (string, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	state, err := s.load()
	if err != nil {
		logrus.WithError(err).Errorln("Failed to read session state")
		return "", false
	}

	value, ok := state.Values[key]
	return value, ok
}

func (s *FileStorage) Set(entries map[string]string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	state, err := s.load()
	if err != nil {
		return err
	}

	for key, value := range entries {
		state.Values[key] = value
	}

	return s.commit(state)
}

func (s *FileStorage) Remove(keys ...string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	state, err := s.load()
	if err != nil {
		return err
	}

	changed := false
	for _, key := range keys {
		if _, ok := state.Values[key]; ok {
			delete(state.Values, key)
			changed = true
		}
	}

	if !changed {
		return nil
	}

	return s.commit(state)
}

func (s *FileStorage) Take(key string) (string, bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	state, err := s.load()
	if err != nil {
		return "", false, err
	}

	value, ok := state.Values[key]
	if !ok {
		return "", false, nil
	}

	delete(state.Values, key)

	if err := s.commit(state); err != nil {
		return "", false, err
	}

	return value, true, nil
}

func (s *FileStorage) open() (*os.File, error) {
	// Only allow read/write access to the owner
	file, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open session state file: %w", err)
	}
	return file, nil
}

func (s *FileStorage) load() (stateFile, error) {
	file, err := s.open()
	if err != nil {
		return stateFile{}, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return stateFile{}, err
	}

	if info.Size() == 0 {
		return newStateFile(), nil
	}

	var state stateFile
	if err := yaml.NewDecoder(file).Decode(&state); err != nil {
		logrus.WithError(err).WithField("path", s.path).
			Errorln("Failed to parse session state, reinitializing")
		return newStateFile(), nil
	}

	if state.Values == nil {
		state.Values = make(map[string]string)
	}

	return state, nil
}

func (s *FileStorage) commit(state stateFile) error {
	file, err := s.open()
	if err != nil {
		return err
	}
	defer file.Close()

	// Truncate the file to ensure clean write
	if err := file.Truncate(0); err != nil {
		return err
	}

	if _, err := file.Seek(0, 0); err != nil {
		return err
	}

	state.Version = storageFileVersion
	state.Timestamp = time.Now().UTC()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(state); err != nil {
		return err
	}

	return encoder.Close()
}

// MemoryStorage lives as long as the process.
type MemoryStorage struct {
	lock   sync.Mutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (s *MemoryStorage) Mode() StorageMode {
	return StorageMemory
}

func (s *MemoryStorage) Get(key string) (string, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	value, ok := s.values[key]
	return value, ok
}

func (s *MemoryStorage) Set(entries map[string]string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	for key, value := range entries {
		s.values[key] = value
	}
	return nil
}

func (s *MemoryStorage) Remove(keys ...string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func (s *MemoryStorage) Take(key string) (string, bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	value, ok := s.values[key]
	if ok {
		delete(s.values, key)
	}
	return value, ok, nil
}

// NullStorage is used when no medium is available at all. Reads are
// always absent and writes are dropped.
type NullStorage struct{}

func (NullStorage) Mode() StorageMode                 { return StorageNone }
func (NullStorage) Get(string) (string, bool)         { return "", false }
func (NullStorage) Set(map[string]string) error       { return nil }
func (NullStorage) Remove(...string) error            { return nil }
func (NullStorage) Take(string) (string, bool, error) { return "", false, nil }

func expandHome(path string) (string, error) {
	if len(path) == 0 {
		return "", errors.New("no session state directory configured")
	}

	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}

	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// storageFileName derives a file name from the API endpoint, one file
// per host.
func storageFileName(namespace string) string {
	host := namespace
	if parsed, err := url.Parse(namespace); err == nil && len(parsed.Host) > 0 {
		host = parsed.Host
	}

	host = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, host)

	if len(host) == 0 {
		return "default"
	}
	return host
}

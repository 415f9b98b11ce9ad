// Package cache stores MetaEditor check results on disk so unchanged sources
// are not recompiled.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when Entry format changes
const schemaVersion uint16 = 1

// Digest is a SHA-256 value.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// KeyOf hashes the parts with length prefixes so ("ab","c") and ("a","bc") differ.
func KeyOf(parts ...[]byte) Digest {
	h := sha256.New()
	var n [8]byte
	for _, p := range parts {
		binary.LittleEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write(p)
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// HashFile returns the SHA-256 of the file contents.
func HashFile(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return Digest{}, err
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d, nil
}

// Dep is a file the cached result depends on besides the source itself.
type Dep struct {
	Path string
	Hash Digest
}

// Entry is one cached compiler run.
type Entry struct {
	Schema  uint16
	RunID   string
	Source  string
	Log     string // decoded compiler log
	Deps    []Dep
	Created time.Time
}

// Fresh reports whether every dependency still hashes to its recorded value.
// A dependency that can no longer be read makes the entry stale.
func (e *Entry) Fresh() bool {
	for _, d := range e.Deps {
		h, err := HashFile(d.Path)
		if err != nil || h != d.Hash {
			return false
		}
	}
	return true
}

// Disk is a msgpack file per key under a cache directory.
// Safe for concurrent use.
type Disk struct {
	mu  sync.RWMutex
	dir string
}

// DefaultDir returns $XDG_CACHE_HOME/<app> or ~/.cache/<app>.
func DefaultDir(app string) (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, app), nil
}

// Open creates dir when missing. An empty dir selects DefaultDir("mqltools").
func Open(dir string) (*Disk, error) {
	if dir == "" {
		d, err := DefaultDir("mqltools")
		if err != nil {
			return nil, fmt.Errorf("resolve cache dir: %w", err)
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Disk{dir: dir}, nil
}

func (c *Disk) Dir() string { return c.dir }

func (c *Disk) pathFor(key Digest) string {
	// подкаталог "checks" упрощает ручную очистку
	return filepath.Join(c.dir, "checks", key.String()+".mp")
}

// Put writes the entry atomically. A nil cache ignores the call.
func (c *Disk) Put(key Digest, e *Entry) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e.Schema = schemaVersion
	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := msgpack.NewEncoder(f).Encode(e); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	// атомарная замена
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Get loads the entry for key. Missing entries and entries written with an
// older schema report false without error.
func (c *Disk) Get(key Digest, out *Entry) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("decode cache entry: %w", err)
	}
	if out.Schema != schemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll removes every cached entry.
func (c *Disk) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "checks"))
}

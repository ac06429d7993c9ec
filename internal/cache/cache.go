// Package cache persists a compiled unit's top-level bytecode keyed by
// source path and content hash (§3.7, §4.9). The CLI's `run` command
// uses it as a compilation fingerprint: a hit proves the current source
// produced a given Chunk before, without re-serializing the full
// closure/constant-pool graph a cache would need to skip recompilation
// outright (see DESIGN.md for why that full form is out of scope here).
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Magic and Version identify the bytecode blob format written at the
// head of every cached record, per §6's "first 4 bytes magic+version"
// contract.
const (
	Magic   uint32 = 0x62757A7A // "buzz"
	Version uint16 = 1
)

// CompiledUnit is one cached compilation result.
type CompiledUnit struct {
	ID         uint   `gorm:"primaryKey"`
	SourcePath string `gorm:"uniqueIndex:idx_path_hash"`
	SourceHash string `gorm:"uniqueIndex:idx_path_hash"`
	Magic      uint32
	Version    uint16
	Bytecode   []byte
	CreatedAt  time.Time
}

// Store wraps a gorm.DB over a sqlite file holding the compiled_units
// table. The VM/CLI treats Bytecode as opaque; only internal/cache and
// the code that (de)serializes a Chunk into it understand its layout.
type Store struct {
	db *gorm.DB
}

// Open creates or migrates the cache database at path.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&CompiledUnit{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// HashSource returns the content-addressed hash used as a cache key.
func HashSource(src string) string {
	sum := sha256.Sum256([]byte(src))
	return hex.EncodeToString(sum[:])
}

// Get looks up a cached unit by source path and hash. A mismatched hash
// (stale source) is treated the same as a miss.
func (s *Store) Get(path, hash string) (*CompiledUnit, bool, error) {
	var unit CompiledUnit
	err := s.db.Where("source_path = ? AND source_hash = ?", path, hash).First(&unit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &unit, true, nil
}

// Put stores or replaces the cached unit for unit.SourcePath, discarding
// any prior entry at that path (a path has at most one live hash).
func (s *Store) Put(unit *CompiledUnit) error {
	if unit.Magic == 0 {
		unit.Magic = Magic
	}
	if unit.Version == 0 {
		unit.Version = Version
	}
	return s.db.Where("source_path = ?", unit.SourcePath).
		Assign(*unit).
		FirstOrCreate(&CompiledUnit{}, "source_path = ?", unit.SourcePath).Error
}

// Close releases the underlying sqlite connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

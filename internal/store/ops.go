package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/oxhq/esengine/internal/compiler"
)

// Get looks up the CodeBlock cached under source's hash, the way a
// host driving esengine.Context.Eval would before falling back to
// internal/compiler.Compile. ok is false on a cache miss; it is never
// true together with a non-nil error.
func (s *Store) Get(source string) (code *compiler.CodeBlock, ok bool, err error) {
	hash := HashSource(source)
	var row cachedCodeBlock
	if err := s.db.First(&row, "hash = ?", hash).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("store: get: %w", err)
	}

	payload := row.Payload
	if row.Encrypted {
		if s.encryptor == nil {
			return nil, false, fmt.Errorf("store: row %s is encrypted but no MasterKey was configured", hash)
		}
		payload, err = s.encryptor.open(payload, []byte(hash))
		if err != nil {
			return nil, false, fmt.Errorf("store: decrypting row %s: %w", hash, err)
		}
	}

	code, err = decode(payload)
	if err != nil {
		return nil, false, err
	}

	var sourceMap map[int]int
	if len(row.SourceMap) > 0 {
		if err := json.Unmarshal(row.SourceMap, &sourceMap); err != nil {
			return nil, false, fmt.Errorf("store: decoding source map for row %s: %w", hash, err)
		}
		code.SourceMap = sourceMap
	}
	return code, true, nil
}

// Put caches code under source's hash, upserting an existing entry
// (recompiling the same source with a newer engine version should
// overwrite a stale cache entry rather than error).
func (s *Store) Put(source string, code *compiler.CodeBlock) error {
	hash := HashSource(source)
	payload, err := encode(code)
	if err != nil {
		return err
	}

	encrypted := s.encryptor != nil
	if encrypted {
		payload, err = s.encryptor.seal(payload, []byte(hash))
		if err != nil {
			return fmt.Errorf("store: encrypting row %s: %w", hash, err)
		}
	}

	sourceMapJSON, err := json.Marshal(code.SourceMap)
	if err != nil {
		return fmt.Errorf("store: encoding source map: %w", err)
	}

	row := cachedCodeBlock{
		Hash:      hash,
		Name:      code.Name,
		Encrypted: encrypted,
		Payload:   payload,
		SourceMap: datatypes.JSON(sourceMapJSON),
	}
	return s.db.Save(&row).Error
}

// Delete evicts the cache entry for source, if any.
func (s *Store) Delete(source string) error {
	return s.db.Delete(&cachedCodeBlock{}, "hash = ?", HashSource(source)).Error
}

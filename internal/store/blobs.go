package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// BlobStore is content-addressed binary storage on the filesystem.
// Screenshot bytes are stored under blobsDir using the SHA-256 hash as the
// filename, with the first two hash characters as a fan-out subdirectory.
type BlobStore struct {
	blobsDir string
}

// NewBlobStore creates a BlobStore rooted at blobsDir.
func NewBlobStore(blobsDir string) (*BlobStore, error) {
	if err := os.MkdirAll(blobsDir, 0755); err != nil {
		return nil, fmt.Errorf("create blobs directory: %w", err)
	}
	return &BlobStore{blobsDir: blobsDir}, nil
}

// Put stores content and returns its content-addressed ID (SHA-256 hex).
// Existing content is not rewritten.
func (bs *BlobStore) Put(data []byte) (string, error) {
	hash := sha256.Sum256(data)
	hashStr := hex.EncodeToString(hash[:])

	blobPath := bs.blobPath(hashStr)
	if _, err := os.Stat(blobPath); err == nil {
		return hashStr, nil
	}

	if err := atomicWriteFile(blobPath, data, 0644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return hashStr, nil
}

// Get retrieves content by ID and verifies its integrity.
func (bs *BlobStore) Get(blobID string) ([]byte, error) {
	data, err := os.ReadFile(bs.blobPath(blobID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob not found: %s", blobID)
		}
		return nil, fmt.Errorf("read blob: %w", err)
	}

	hash := sha256.Sum256(data)
	if hex.EncodeToString(hash[:]) != blobID {
		return nil, fmt.Errorf("blob integrity check failed for %s", blobID)
	}
	return data, nil
}

func (bs *BlobStore) blobPath(blobID string) string {
	return filepath.Join(bs.blobsDir, blobID[:2], blobID)
}

// atomicWriteFile writes data via a temp file + rename so the target is
// either fully written or absent, never corrupt.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			tmpFile.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	tmpFile = nil

	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

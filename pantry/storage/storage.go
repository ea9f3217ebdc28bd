// pantry/storage/storage.go

// Package storage is the object store `termsite deploy` publishes into: a
// local directory, an S3-compatible bucket, or memory for tests.
//
//	store, err := storage.NewS3(ctx, storage.S3Config{Bucket: "www.example.com"})
//	err = store.Put(ctx, "index.html", f, storage.PutOptions{ContentType: "text/html; charset=utf-8"})
package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"mime"
	"path"
	"strings"
)

var (
	ErrNotFound         = errors.New("storage: object not found")
	ErrPermissionDenied = errors.New("storage: permission denied")
	ErrBucketNotFound   = errors.New("storage: bucket not found")
	ErrInvalidKey       = errors.New("storage: invalid key")
	ErrInvalidConfig    = errors.New("storage: invalid configuration")
)

// Store holds objects by slash-separated key.
type Store interface {
	// Put writes the object at key, replacing any existing one.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) error

	// List returns every object whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]Object, error)

	// Delete removes the objects. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Backend names the store in logs, e.g. "s3".
	Backend() string
}

// PutOptions are the HTTP headers stored with an object.
type PutOptions struct {
	ContentType     string
	CacheControl    string
	ContentEncoding string
}

// Object describes a stored object. ETag is the hex MD5 of the content.
type Object struct {
	Key  string
	Size int64
	ETag string
}

// CleanKey normalizes key to a relative slash path and rejects keys that
// would escape the store.
func CleanKey(key string) (string, error) {
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(path.Clean("/"+key), "/")
	if key == "" || strings.ContainsRune(key, 0) {
		return "", ErrInvalidKey
	}
	return key, nil
}

// ContentType guesses the MIME type from the key's extension.
func ContentType(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// ETag returns the hex MD5 of r, the form S3 reports for simple uploads.
func ETag(r io.Reader) (string, int64, error) {
	h := md5.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// publish/publish.go

// Package publish syncs a built site into a storage.Store: new and changed
// files are uploaded, unchanged ones skipped by content hash, and files
// that no longer exist locally are optionally deleted.
package publish

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/dalemusser/termsite/pantry/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Cache-Control values. Pages revalidate on every visit; fingerprinted
// assets never change under the same URL.
const (
	CachePages     = "no-cache"
	CacheAssets    = "public, max-age=3600"
	CacheImmutable = "public, max-age=31536000, immutable"
)

// Options controls a sync.
type Options struct {
	Prefix  string // key prefix inside the store
	Delete  bool   // remove remote objects with no local file
	DryRun  bool   // report what would change without writing
	Workers int    // parallel uploads; <= 0 means 1
}

// Result lists the keys each sync step touched, sorted.
type Result struct {
	Uploaded []string
	Skipped  []string
	Deleted  []string
}

type localFile struct {
	name string // path in fsys
	key  string
	etag string
}

// Sync uploads the files of fsys into store.
func Sync(ctx context.Context, fsys fs.FS, store storage.Store, opts Options, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix := strings.Trim(opts.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}

	local, err := scan(ctx, fsys, prefix)
	if err != nil {
		return nil, err
	}
	remote, err := store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", store.Backend(), err)
	}
	etags := make(map[string]string, len(remote))
	for _, o := range remote {
		etags[o.Key] = o.ETag
	}

	res := &Result{}
	var upload []localFile
	seen := make(map[string]struct{}, len(local))
	for _, f := range local {
		seen[f.key] = struct{}{}
		if etags[f.key] == f.etag {
			res.Skipped = append(res.Skipped, f.key)
			continue
		}
		upload = append(upload, f)
		res.Uploaded = append(res.Uploaded, f.key)
	}
	if opts.Delete {
		for _, o := range remote {
			if _, ok := seen[o.Key]; !ok {
				res.Deleted = append(res.Deleted, o.Key)
			}
		}
	}
	sort.Strings(res.Uploaded)
	sort.Strings(res.Skipped)
	sort.Strings(res.Deleted)

	if opts.DryRun {
		logger.Info("dry run: nothing written",
			zap.Int("upload", len(res.Uploaded)),
			zap.Int("skip", len(res.Skipped)),
			zap.Int("delete", len(res.Deleted)))
		return res, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Workers, 1))
	for _, f := range upload {
		g.Go(func() error {
			return put(gctx, fsys, store, f)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(res.Deleted) > 0 {
		if err := store.Delete(ctx, res.Deleted...); err != nil {
			return nil, fmt.Errorf("delete stale objects: %w", err)
		}
	}

	logger.Info("site published",
		zap.String("backend", store.Backend()),
		zap.Int("uploaded", len(res.Uploaded)),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int("deleted", len(res.Deleted)))
	return res, nil
}

func scan(ctx context.Context, fsys fs.FS, prefix string) ([]localFile, error) {
	var out []localFile
	err := fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		f, err := fsys.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()
		etag, _, err := storage.ETag(f)
		if err != nil {
			return fmt.Errorf("hash %s: %w", name, err)
		}
		out = append(out, localFile{name: name, key: prefix + name, etag: etag})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan site: %w", err)
	}
	return out, nil
}

func put(ctx context.Context, fsys fs.FS, store storage.Store, lf localFile) error {
	f, err := fsys.Open(lf.name)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := store.Put(ctx, lf.key, f, putOptions(lf.name)); err != nil {
		return fmt.Errorf("upload %s: %w", lf.key, err)
	}
	return nil
}

// putOptions picks headers for name. Pre-compressed siblings (x.css.gz)
// keep the type of the file they encode.
func putOptions(name string) storage.PutOptions {
	opts := storage.PutOptions{}
	base := name
	switch path.Ext(name) {
	case ".gz":
		opts.ContentEncoding = "gzip"
		base = strings.TrimSuffix(name, ".gz")
	case ".br":
		opts.ContentEncoding = "br"
		base = strings.TrimSuffix(name, ".br")
	}
	opts.ContentType = storage.ContentType(base)

	switch {
	case strings.HasSuffix(base, ".html"):
		opts.CacheControl = CachePages
	case isFingerprinted(base):
		opts.CacheControl = CacheImmutable
	default:
		opts.CacheControl = CacheAssets
	}
	return opts
}

// isFingerprinted reports names like app-3f2a9c1d.js carrying a hex digest.
func isFingerprinted(name string) bool {
	stem := strings.TrimSuffix(path.Base(name), path.Ext(name))
	i := strings.LastIndexByte(stem, '-')
	if i < 0 {
		return false
	}
	digest := stem[i+1:]
	if len(digest) < 8 {
		return false
	}
	for _, r := range digest {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}

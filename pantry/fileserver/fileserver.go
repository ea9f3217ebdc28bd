// pantry/fileserver/fileserver.go

// Package fileserver serves a built site directory. It prefers
// pre-compressed siblings (.br, then .gz) when the client accepts them and
// maps extensionless paths to .html files, so /about serves about.html.
package fileserver

import (
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"
)

// Options configures the handler.
type Options struct {
	// CacheControl is sent with every file response when set.
	CacheControl string
	// DisablePrecompressed skips the .br/.gz lookup.
	DisablePrecompressed bool
	// NotFound handles paths with no file or directory behind them.
	// Nil uses the standard 404 response.
	NotFound http.Handler
}

var encodings = []struct {
	ext, name string
}{
	{".br", "br"},
	{".gz", "gzip"},
}

// Handler serves files from fsys.
func Handler(fsys fs.FS, opts Options) http.Handler {
	files := http.FileServerFS(fsys)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")

		if opts.CacheControl != "" {
			w.Header().Set("Cache-Control", opts.CacheControl)
		}

		if name != "" && path.Ext(name) == "" && !isDir(fsys, name) && isFile(fsys, name+".html") {
			name += ".html"
			r = withPath(r, "/"+name)
		}

		if opts.NotFound != nil && name != "" && !isFile(fsys, name) && !isDir(fsys, name) {
			opts.NotFound.ServeHTTP(w, r)
			return
		}

		if !opts.DisablePrecompressed && name != "" && isFile(fsys, name) {
			for _, enc := range encodings {
				if !acceptsEncoding(r, enc.name) || !isFile(fsys, name+enc.ext) {
					continue
				}
				w.Header().Set("Content-Encoding", enc.name)
				w.Header().Add("Vary", "Accept-Encoding")
				w.Header().Set("Content-Type", contentType(name))
				r = withPath(r, "/"+name+enc.ext)
				break
			}
		}

		files.ServeHTTP(w, r)
	})
}

func withPath(r *http.Request, p string) *http.Request {
	r2 := r.Clone(r.Context())
	r2.URL.Path = p
	r2.URL.RawPath = ""
	return r2
}

func isFile(fsys fs.FS, name string) bool {
	fi, err := fs.Stat(fsys, name)
	return err == nil && !fi.IsDir()
}

func isDir(fsys fs.FS, name string) bool {
	fi, err := fs.Stat(fsys, name)
	return err == nil && fi.IsDir()
}

func acceptsEncoding(r *http.Request, encoding string) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		enc, params, _ := strings.Cut(part, ";")
		if !strings.EqualFold(strings.TrimSpace(enc), encoding) {
			continue
		}
		return strings.ReplaceAll(strings.TrimSpace(params), " ", "") != "q=0"
	}
	return false
}

// contentType is the type of the uncompressed file.
func contentType(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	switch ext {
	case ".js", ".mjs":
		return "text/javascript; charset=utf-8"
	case ".json":
		return "application/json"
	case ".wasm":
		return "application/wasm"
	}
	return "application/octet-stream"
}

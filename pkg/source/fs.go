package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/matzehuels/modgraph/pkg/cache"
	"github.com/matzehuels/modgraph/pkg/graph"
)

// Module variants assigned by [FS].
const (
	VariantAuto    = "javascript/auto"
	VariantESM     = "javascript/esm"
	VariantDynamic = "javascript/dynamic"
	VariantJSON    = "json"
)

// DefaultExtensions are probed, in order, for requests without an extension.
var DefaultExtensions = []string{".js", ".mjs", ".cjs", ".jsx", ".ts", ".tsx", ".json"}

// DefaultMemoSize bounds the resolve memo of [FS].
const DefaultMemoSize = 4096

// FS resolves and loads modules from an [fs.FS].
//
// Module paths are absolute, slash-separated paths rooted at the file
// system root: the file "src/a.js" in fsys has the module path "/src/a.js".
// Relative requests resolve against the directory of the requesting module,
// entries against the build context. Bare requests ("react", "lodash/fp")
// are looked up in node_modules directories, walking up from the
// requester.
//
// FS is safe for concurrent use.
type FS struct {
	fsys       fs.FS
	context    string
	extensions []string
	memo       *lru.Cache[resolveKey, graph.Identity]
}

type resolveKey struct {
	dir     string
	request string
}

// Option configures an [FS].
type Option func(*FS)

// WithExtensions replaces the probed extension list.
func WithExtensions(exts ...string) Option {
	return func(f *FS) { f.extensions = exts }
}

// NewFS creates an adapter over fsys. context is the absolute module path
// entry requests resolve against, usually "/".
func NewFS(fsys fs.FS, context string, opts ...Option) (*FS, error) {
	return NewFSWithMemo(fsys, context, DefaultMemoSize, opts...)
}

// NewFSWithMemo is like [NewFS] with an explicit resolve memo size.
func NewFSWithMemo(fsys fs.FS, context string, size int, opts ...Option) (*FS, error) {
	if !strings.HasPrefix(context, "/") {
		return nil, fmt.Errorf("context %q must be absolute", context)
	}
	memo, err := lru.New[resolveKey, graph.Identity](size)
	if err != nil {
		return nil, fmt.Errorf("resolve memo: %w", err)
	}
	f := &FS{
		fsys:       fsys,
		context:    path.Clean(context),
		extensions: DefaultExtensions,
		memo:       memo,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Invalidate drops every memoized resolution.
func (f *FS) Invalidate() { f.memo.Purge() }

// Resolve implements [Resolver].
func (f *FS) Resolve(ctx context.Context, request string, origin graph.Identity) (graph.Identity, error) {
	if err := ctx.Err(); err != nil {
		return graph.Identity{}, err
	}
	dir := f.context
	if !origin.IsZero() {
		dir = path.Dir(origin.Path)
	}

	key := resolveKey{dir: dir, request: request}
	if id, ok := f.memo.Get(key); ok {
		return id, nil
	}

	p, ok := f.resolve(dir, request)
	if !ok {
		return graph.Identity{}, fmt.Errorf("%w: %q from %s", ErrModuleNotFound, request, dir)
	}
	id := graph.Identity{Path: p, Variant: variantOf(p)}
	f.memo.Add(key, id)
	return id, nil
}

func (f *FS) resolve(dir, request string) (string, bool) {
	if isRelative(request) {
		return f.resolvePath(path.Join(dir, request))
	}
	if strings.HasPrefix(request, "/") {
		return f.resolvePath(path.Clean(request))
	}
	for d := dir; ; d = path.Dir(d) {
		if path.Base(d) != "node_modules" {
			if p, ok := f.resolvePath(path.Join(d, "node_modules", request)); ok {
				return p, true
			}
		}
		if d == "/" {
			return "", false
		}
	}
}

func isRelative(request string) bool {
	return request == "." || request == ".." ||
		strings.HasPrefix(request, "./") || strings.HasPrefix(request, "../")
}

// resolvePath tries p as a file, then with each extension, then as a
// directory (package.json, then index files).
func (f *FS) resolvePath(p string) (string, bool) {
	if f.isFile(p) {
		return p, true
	}
	for _, ext := range f.extensions {
		if f.isFile(p + ext) {
			return p + ext, true
		}
	}
	if !f.isDir(p) {
		return "", false
	}
	if main, ok := f.packageMain(p); ok {
		target := path.Join(p, main)
		if f.isFile(target) {
			return target, true
		}
		for _, ext := range f.extensions {
			if f.isFile(target + ext) {
				return target + ext, true
			}
		}
		if f.isDir(target) {
			if idx, ok := f.indexFile(target); ok {
				return idx, true
			}
		}
	}
	return f.indexFile(p)
}

func (f *FS) indexFile(dir string) (string, bool) {
	for _, ext := range f.extensions {
		if p := path.Join(dir, "index"+ext); f.isFile(p) {
			return p, true
		}
	}
	return "", false
}

type packageJSON struct {
	Module string `json:"module"`
	Main   string `json:"main"`
}

// packageMain returns the module (preferred) or main field of dir's
// package.json.
func (f *FS) packageMain(dir string) (string, bool) {
	data, err := fs.ReadFile(f.fsys, fsPath(path.Join(dir, "package.json")))
	if err != nil {
		return "", false
	}
	var pkg packageJSON
	if json.Unmarshal(data, &pkg) != nil {
		return "", false
	}
	switch {
	case pkg.Module != "":
		return pkg.Module, true
	case pkg.Main != "":
		return pkg.Main, true
	}
	return "", false
}

func (f *FS) isFile(p string) bool {
	info, err := fs.Stat(f.fsys, fsPath(p))
	return err == nil && info.Mode().IsRegular()
}

func (f *FS) isDir(p string) bool {
	info, err := fs.Stat(f.fsys, fsPath(p))
	return err == nil && info.IsDir()
}

// Load implements [Loader].
func (f *FS) Load(ctx context.Context, id graph.Identity) (*Loaded, error) {
	data, err := f.read(ctx, id)
	if err != nil {
		return nil, err
	}
	loaded := &Loaded{Fingerprint: cache.Hash(data)}
	if id.Variant != VariantJSON {
		loaded.Requests = Scan(data)
	}
	return loaded, nil
}

// Fingerprint implements [Fingerprinter].
func (f *FS) Fingerprint(ctx context.Context, id graph.Identity) (string, error) {
	data, err := f.read(ctx, id)
	if err != nil {
		return "", err
	}
	return cache.Hash(data), nil
}

func (f *FS) read(ctx context.Context, id graph.Identity) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(f.fsys, fsPath(id.Path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", id.Path, err)
	}
	return data, nil
}

// fsPath converts an absolute module path to an fs.FS path.
func fsPath(p string) string {
	p = strings.TrimPrefix(path.Clean(p), "/")
	if p == "" {
		return "."
	}
	return p
}

func variantOf(p string) string {
	switch path.Ext(p) {
	case ".mjs":
		return VariantESM
	case ".cjs":
		return VariantDynamic
	case ".json":
		return VariantJSON
	}
	return VariantAuto
}

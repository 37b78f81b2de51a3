// Package fonts maps (family, bold, italic) requests to concrete font faces.
package fonts

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

// FaceID identifies one physical font face (one font file).
type FaceID string

// Resolver 把字体请求映射到具体字体面，并按需提供字体文件字节。
// Bytes 只会以 Resolve 返回过的 FaceID 调用。
type Resolver interface {
	Resolve(family string, bold, italic bool) (FaceID, bool)
	Bytes(id FaceID) ([]byte, error)
}

// Lister is implemented by resolvers that can enumerate their families.
type Lister interface {
	Families() []string
}

// ResolveError reports a font request that no face satisfies, or a face whose data cannot be read.
type ResolveError struct {
	Family string
	Bold   bool
	Italic bool
	Face   FaceID
	Err    error
}

func (e *ResolveError) Error() string {
	if e.Face != "" {
		return fmt.Sprintf("读取字体 %s 失败: %v", e.Face, e.Err)
	}
	return fmt.Sprintf("font family %q (bold=%t italic=%t) is not available", e.Family, e.Bold, e.Italic)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// Load resolves a request and reads the face in one step.
func Load(r Resolver, family string, bold, italic bool) (FaceID, []byte, error) {
	if r == nil {
		return "", nil, &ResolveError{Family: family, Bold: bold, Italic: italic}
	}
	id, ok := r.Resolve(family, bold, italic)
	if !ok {
		return "", nil, &ResolveError{Family: family, Bold: bold, Italic: italic}
	}
	data, err := r.Bytes(id)
	if err != nil {
		return "", nil, err
	}
	return id, data, nil
}

// fold 做大小写无关的族名比较。cases.Caser 有状态，不能跨 goroutine 共享，因此每次新建。
func fold(family string) string {
	return cases.Fold().String(strings.Join(strings.Fields(family), " "))
}

type faceKey struct {
	family string
	bold   bool
	italic bool
}

// Registry is a static table of faces. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	faces    map[faceKey]FaceID
	names    map[string]string // folded → display name
	loaders  map[FaceID]func() ([]byte, error)
	cache    map[FaceID][]byte
	prefixes map[string]string // folded prefix → folded family
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		faces:    map[faceKey]FaceID{},
		names:    map[string]string{},
		loaders:  map[FaceID]func() ([]byte, error){},
		cache:    map[FaceID][]byte{},
		prefixes: map[string]string{},
	}
}

// Register maps one (family, bold, italic) combination to a face. Several combinations may share a face.
func (r *Registry) Register(family string, bold, italic bool, id FaceID, load func() ([]byte, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	folded := fold(family)
	r.faces[faceKey{folded, bold, italic}] = id
	if _, ok := r.names[folded]; !ok {
		r.names[folded] = strings.Join(strings.Fields(family), " ")
	}
	if load != nil {
		r.loaders[id] = load
	}
}

// RegisterBytes is Register for in-memory font data.
func (r *Registry) RegisterBytes(family string, bold, italic bool, id FaceID, data []byte) {
	r.Register(family, bold, italic, id, func() ([]byte, error) { return data, nil })
}

// registerPrefix 让未知但以 prefix 开头的族名按 family 的规则解析。
func (r *Registry) registerPrefix(prefix, family string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefixes[fold(prefix)] = fold(family)
}

// Resolve implements Resolver.
func (r *Registry) Resolve(family string, bold, italic bool) (FaceID, bool) {
	folded := fold(family)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.faces[faceKey{folded, bold, italic}]; ok {
		return id, true
	}
	for prefix, target := range r.prefixes {
		if strings.HasPrefix(folded, prefix) {
			id, ok := r.faces[faceKey{target, bold, italic}]
			return id, ok
		}
	}
	return "", false
}

// Bytes implements Resolver. Loaded data is cached.
func (r *Registry) Bytes(id FaceID) ([]byte, error) {
	r.mu.RLock()
	data, cached := r.cache[id]
	load, known := r.loaders[id]
	r.mu.RUnlock()
	if cached {
		return data, nil
	}
	if !known {
		return nil, &ResolveError{Face: id, Err: fmt.Errorf("未注册的字体面")}
	}
	data, err := load()
	if err != nil {
		return nil, &ResolveError{Face: id, Err: err}
	}
	r.mu.Lock()
	r.cache[id] = data
	r.mu.Unlock()
	return data, nil
}

// Families lists the registered family names, sorted.
func (r *Registry) Families() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type chain []Resolver

// Chain combines resolvers; the first one that resolves a request wins.
func Chain(resolvers ...Resolver) Resolver {
	out := make(chain, 0, len(resolvers))
	for _, r := range resolvers {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (c chain) Resolve(family string, bold, italic bool) (FaceID, bool) {
	for _, r := range c {
		if id, ok := r.Resolve(family, bold, italic); ok {
			return id, true
		}
	}
	return "", false
}

func (c chain) Bytes(id FaceID) ([]byte, error) {
	var firstErr error
	for _, r := range c {
		data, err := r.Bytes(id)
		if err == nil {
			return data, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		firstErr = &ResolveError{Face: id, Err: fmt.Errorf("未注册的字体面")}
	}
	return nil, firstErr
}

func (c chain) Families() []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range c {
		l, ok := r.(Lister)
		if !ok {
			continue
		}
		for _, f := range l.Families() {
			if !seen[fold(f)] {
				seen[fold(f)] = true
				out = append(out, f)
			}
		}
	}
	sort.Strings(out)
	return out
}

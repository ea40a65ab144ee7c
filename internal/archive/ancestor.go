package archive

import (
	"path/filepath"
	"strings"
)

// CommonAncestor returns the deepest directory that is an ancestor of (or
// equal to) both s and t, strictly below root. If they share nothing below
// root, or either lies outside root, root itself is returned.
func CommonAncestor(root, s, t string) string {
	root = filepath.Clean(root)

	shared := make(map[string]bool)
	for _, p := range chain(root, s) {
		shared[p] = true
	}
	for _, p := range chain(root, t) {
		if shared[p] {
			return p
		}
	}
	return root
}

// chain returns p and each of its ancestors strictly below root, deepest
// first. It is empty when p is root or lies outside it.
func chain(root, p string) []string {
	var out []string
	for p = filepath.Clean(p); p != root; p = filepath.Dir(p) {
		if filepath.Dir(p) == p {
			return nil
		}
		out = append(out, p)
	}
	return out
}

// ancestorFold accumulates the common ancestor of a sequence of directories.
type ancestorFold struct {
	root string
	acc  string
}

func newAncestorFold(root string) ancestorFold {
	return ancestorFold{root: filepath.Clean(root)}
}

// add folds dir into the accumulator and returns the new state.
func (f ancestorFold) add(dir string) ancestorFold {
	if f.acc == "" {
		f.acc = filepath.Clean(dir)
		return f
	}
	f.acc = CommonAncestor(f.root, f.acc, dir)
	return f
}

// top reports the top-level directory the accumulated ancestor sits in, or
// "" if there is none.
func (f ancestorFold) top() string {
	if f.acc == "" {
		return ""
	}
	return topSegment(f.root, f.acc)
}

// topSegment returns the first path component of p relative to root.
func topSegment(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	first, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	return first
}

// Package template provides template discovery and rendering for courier
// actions.
//
// Templates live on an fs.FS and follow a naming convention that encodes
// the content type into the file name:
//
//	<action>.<content-subtype-path>.<ext>
//
// For example "signup.text.html.tmpl" is the text/html template for the
// "signup" action. A file with exactly one segment after the action name
// ("signup.tmpl") is the plain, non-typed variant.
package template

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// Candidate is one discovered content-typed template for an action.
type Candidate struct {
	// ContentType is derived from the file name segments between the
	// action name and the final extension, joined with "/".
	ContentType string

	// Name is the template identifier passed to the renderer (the file
	// name relative to the resolver root).
	Name string
}

// Resolver discovers templates for an action by naming convention.
// It performs only listing; ordering of the discovered parts is imposed
// later by the part assembler.
type Resolver struct {
	fsys fs.FS
	ext  string
}

// NewResolver creates a resolver over fsys. ext is the renderer extension
// of the plain variant (default "tmpl").
func NewResolver(fsys fs.FS, ext string) *Resolver {
	if ext == "" {
		ext = "tmpl"
	}
	return &Resolver{fsys: fsys, ext: strings.TrimPrefix(ext, ".")}
}

// Discover returns the content-typed template candidates for action.
// Candidates whose derived content type is empty are skipped. The result
// is sorted by file name so that discovery is deterministic for a given
// file set.
func (r *Resolver) Discover(action string) ([]Candidate, error) {
	names, err := fs.Glob(r.fsys, action+".*")
	if err != nil {
		return nil, fmt.Errorf("glob templates for %q: %w", action, err)
	}
	sort.Strings(names)

	var candidates []Candidate
	for _, name := range names {
		ct, ok := deriveContentType(action, name)
		if !ok || ct == "" {
			continue
		}
		candidates = append(candidates, Candidate{ContentType: ct, Name: name})
	}
	return candidates, nil
}

// HasPlainVariant reports whether the non-typed template exists for
// action. Only the configured extension counts: the reported name must
// match what PlainName hands to the renderer.
func (r *Resolver) HasPlainVariant(action string) (bool, error) {
	names, err := fs.Glob(r.fsys, action+".*")
	if err != nil {
		return false, fmt.Errorf("glob templates for %q: %w", action, err)
	}
	plain := r.PlainName(action)
	for _, name := range names {
		if name == plain {
			return true, nil
		}
	}
	return false, nil
}

// PlainName returns the renderer identifier of the plain variant for
// action using the configured extension.
func (r *Resolver) PlainName(action string) string {
	return action + "." + r.ext
}

// deriveContentType extracts the content type encoded in a template file
// name. The segments between the action name and the final extension are
// joined with "/"; a name with fewer than two segments after the action
// has no embedded content type.
func deriveContentType(action, name string) (string, bool) {
	rest := strings.TrimPrefix(name, action+".")
	if rest == name {
		return "", false
	}
	segments := strings.Split(rest, ".")
	if len(segments) < 2 {
		// Single segment is the plain variant, not a typed candidate.
		return "", false
	}
	return strings.Join(segments[:len(segments)-1], "/"), true
}

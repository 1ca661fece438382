// Package manifest reads the deliverable manifest (main.json) that declares
// the Fail-to-Pass and Pass-to-Pass test sets.
package manifest

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// Set identifies which declared set a test belongs to.
type Set int

const (
	// F2P tests must fail before the fix and pass after it.
	F2P Set = iota
	// P2P tests must pass both before and after the fix.
	P2P
)

// String returns the short set name used in reports.
func (s Set) String() string {
	if s == P2P {
		return "P2P"
	}
	return "F2P"
}

// MarshalText implements encoding.TextMarshaler.
func (s Set) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ErrUnreadable is set on Manifest.Err when the text is not a JSON object.
var ErrUnreadable = errors.New("manifest is not a JSON object")

// Manifest is the parsed declaration of expected test behavior.
type Manifest struct {
	FailToPass []string // unique, in declaration order
	PassToPass []string // unique, in declaration order, never repeating a FailToPass name

	// Duplicates lists names declared more than once within one set.
	Duplicates map[Set][]string
	// Overlap lists names declared in both sets; they are kept as F2P only.
	Overlap []string

	// SourceDiff is the golden patch when the manifest carries one.
	SourceDiff string

	Err error
}

var (
	f2pKeys = []string{"fail_to_pass", "FAIL_TO_PASS"}
	p2pKeys = []string{"pass_to_pass", "PASS_TO_PASS"}
)

// Parse reads manifest text. It never fails; unreadable text yields an empty
// manifest with Err set.
func Parse(text string) *Manifest {
	m := &Manifest{Duplicates: make(map[Set][]string)}

	if !gjson.Valid(text) {
		m.Err = ErrUnreadable
		return m
	}
	root := gjson.Parse(text)
	if !root.IsObject() {
		m.Err = ErrUnreadable
		return m
	}

	f2p, f2pDups := unique(names(root, f2pKeys))
	p2p, p2pDups := unique(names(root, p2pKeys))

	inF2P := make(map[string]bool, len(f2p))
	for _, n := range f2p {
		inF2P[n] = true
	}
	for _, n := range p2p {
		if inF2P[n] {
			m.Overlap = append(m.Overlap, n)
			continue
		}
		m.PassToPass = append(m.PassToPass, n)
	}
	m.FailToPass = f2p

	if len(f2pDups) > 0 {
		m.Duplicates[F2P] = f2pDups
	}
	if len(p2pDups) > 0 {
		m.Duplicates[P2P] = p2pDups
	}

	if patch := root.Get("patch"); patch.Type == gjson.String {
		m.SourceDiff = patch.String()
	}

	return m
}

// Empty reports whether neither set declares a name.
func (m *Manifest) Empty() bool {
	return m == nil || (len(m.FailToPass) == 0 && len(m.PassToPass) == 0)
}

// Names returns every declared name, F2P first.
func (m *Manifest) Names() []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(m.FailToPass)+len(m.PassToPass))
	out = append(out, m.FailToPass...)
	return append(out, m.PassToPass...)
}

// Duplicated reports whether name was declared more than once within one set.
func (m *Manifest) Duplicated(name string) bool {
	if m == nil {
		return false
	}
	for _, dups := range m.Duplicates {
		for _, d := range dups {
			if d == name {
				return true
			}
		}
	}
	return false
}

// names reads the first present key. The value is either a JSON array or a
// string holding one, the latter being how SWE-bench style exports store it.
func names(root gjson.Result, keys []string) []string {
	for _, key := range keys {
		v := root.Get(key)
		if !v.Exists() {
			continue
		}
		if v.Type == gjson.String {
			inner := strings.TrimSpace(v.String())
			if !gjson.Valid(inner) {
				return nil
			}
			v = gjson.Parse(inner)
		}
		if !v.IsArray() {
			return nil
		}
		var out []string
		for _, item := range v.Array() {
			if item.Type == gjson.String {
				out = append(out, item.String())
			}
		}
		return out
	}
	return nil
}

// unique keeps the first position of each name and reports the repeated ones.
func unique(in []string) (out, dups []string) {
	count := make(map[string]int, len(in))
	for _, n := range in {
		count[n]++
		if count[n] == 1 {
			out = append(out, n)
		} else if count[n] == 2 {
			dups = append(dups, n)
		}
	}
	return out, dups
}

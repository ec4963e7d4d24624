// Package id generates remote object GUIDs for the simulated target.
//
// A GUID has the form "<scope>@<ulid>", e.g. "page@01J9Z3...". The scope is
// derived from the object type so logs stay readable, and the ULID part keeps
// GUIDs unique and k-sortable for the lifetime of a target process.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/oklog/ulid/v2"
)

// GUID identifies one remote object.
type GUID string

// String returns the GUID text
func (g GUID) String() string { return string(g) }

// Scope returns the part before '@', or "" when absent
func (g GUID) Scope() string {
	scope, _, ok := strings.Cut(string(g), "@")
	if !ok {
		return ""
	}
	return scope
}

// Generator generates ULIDs
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator with cryptographically secure entropy
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source
// Useful for testing with deterministic entropy
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GUID creates a GUID scoped to the given object type
func (g *Generator) GUID(objectType string) GUID {
	return GUID(fmt.Sprintf("%s@%s", ScopeOf(objectType), strings.ToLower(g.Generate().String())))
}

// NewGUID creates a GUID with the default generator
func NewGUID(objectType string) GUID {
	return Default().GUID(objectType)
}

// ScopeOf turns a type name into a GUID scope: "ElectronApplication" -> "electron-application"
func ScopeOf(objectType string) string {
	var sb strings.Builder
	prevLower := false
	for _, r := range objectType {
		if unicode.IsUpper(r) {
			if prevLower {
				sb.WriteByte('-')
			}
			r = unicode.ToLower(r)
			prevLower = false
		} else {
			prevLower = true
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// IsValid checks that a GUID has a scope and a valid ULID suffix
func IsValid(guid string) bool {
	_, err := Timestamp(guid)
	return err == nil
}

// Timestamp extracts the creation time from a GUID
func Timestamp(guid string) (time.Time, error) {
	scope, raw, ok := strings.Cut(guid, "@")
	if !ok || scope == "" {
		return time.Time{}, fmt.Errorf("malformed guid %q", guid)
	}
	parsed, err := ulid.ParseStrict(strings.ToUpper(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed guid %q: %w", guid, err)
	}
	return ulid.Time(parsed.Time()), nil
}

// Package fingerprint computes the 64-bit request identity used by the
// registry and the build orchestrator to deduplicate and cache builds.
package fingerprint

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/ChuLiYu/mozc-loader/pkg/types"
)

// Reserved is the fingerprint value meaning "no request". A real request
// fingerprints to a nonzero value with overwhelming probability; this repo
// never special-cases a genuine hash collision with zero.
const Reserved uint64 = 0

// Canonicalize produces the deterministic byte image whose equality defines
// request identity: two requests with the same canonical image carry the
// same fingerprint and are treated as the same request. Extra fields are
// sorted by key so map iteration order never perturbs the image.
func Canonicalize(req types.Request) []byte {
	var b strings.Builder

	b.WriteString("engine_type=")
	b.WriteString(strconv.Itoa(int(req.EngineType)))
	b.WriteByte('\n')

	b.WriteString("file_path=")
	b.WriteString(req.FilePath)
	b.WriteByte('\n')

	b.WriteString("install_location=")
	b.WriteString(req.InstallLocation)
	b.WriteByte('\n')

	b.WriteString("magic_number=")
	b.WriteString(req.MagicNumber)
	b.WriteByte('\n')

	b.WriteString("priority=")
	b.WriteString(strconv.Itoa(int(req.Priority)))
	b.WriteByte('\n')

	keys := make([]string, 0, len(req.Extra))
	for k := range req.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("extra.")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(req.Extra[k])
		b.WriteByte('\n')
	}

	return []byte(b.String())
}

// Fingerprint computes the deterministic, non-cryptographic 64-bit hash of a
// request's canonical byte image. A fingerprint of Reserved (0) is never
// returned for a real request in practice, but callers must not rely on
// that; Reserved is a sentinel meaning "no request", not a guarantee this
// function avoids it.
func Fingerprint(req types.Request) uint64 {
	return xxhash.Sum64(Canonicalize(req))
}

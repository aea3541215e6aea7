// Package loader implements the validation and materialization pipeline for
// a single data package: optional install-copy, mmap, magic-number check,
// and parse into a module bundle.
package loader

import (
	"log/slog"

	"github.com/ChuLiYu/mozc-loader/internal/fileutil"
	"github.com/ChuLiYu/mozc-loader/internal/parser"
	"github.com/ChuLiYu/mozc-loader/pkg/types"
)

var log = slog.Default()

// PackageLoader validates and materializes a single request into a terminal
// Response. It holds no per-request state and is safe for concurrent use by
// multiple build workers.
type PackageLoader struct {
	parser parser.Parser
}

// New returns a PackageLoader that hands validated package bytes to p.
func New(p parser.Parser) *PackageLoader {
	return &PackageLoader{parser: p}
}

// Load runs the five-step validation and materialization pipeline described
// by the package: install (optional) -> mmap -> magic check -> parse ->
// success. Every failure path returns a terminal Response; Load never
// returns a Go error, matching the "errors surface only as Response.Status"
// policy the rest of the core relies on.
//
// The ordering of the mmap and magic-number checks is load-bearing: a
// nonexistent file must report MMAP_FAILURE even though "doesn't exist" and
// "doesn't have the right header" both eventually mean "unusable" to a
// caller -- they are distinguished so operators can tell a missing package
// from a corrupt one.
func (l *PackageLoader) Load(req types.Request) types.Response {
	resp := types.Response{Request: req}

	source := req.FilePath
	if req.InstallLocation != "" {
		if err := fileutil.Copy(req.FilePath, req.InstallLocation); err != nil {
			log.Warn("install copy failed", "src", req.FilePath, "dst", req.InstallLocation, "err", err)
			resp.Status = types.StatusInstallFailure
			return resp
		}
		source = req.InstallLocation
	}

	mapping, err := fileutil.Map(source)
	if err != nil {
		log.Warn("mmap failed", "path", source, "err", err)
		resp.Status = types.StatusMmapFailure
		return resp
	}

	bundle, err := l.parser.Parse(mapping.Bytes(), req.MagicNumber)
	if err != nil {
		log.Warn("package parse failed", "path", source, "err", err)
		_ = mapping.Close()
		resp.Status = types.StatusDataBroken
		return resp
	}

	// The mapping backs the bundle's runtime views for as long as the
	// bundle is reachable (via the response cache or a held future); it is
	// intentionally not closed here. It is released only when the whole
	// process exits or the caller's own lifecycle management decides to
	// drop it, neither of which this package tracks.
	resp.Status = types.StatusReloadReady
	resp.Modules = bundle
	return resp
}

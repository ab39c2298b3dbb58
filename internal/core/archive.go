package core

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/zip"

	util "github.com/slobbe/fruit-jam-store/internal/helpers"
	models "github.com/slobbe/fruit-jam-store/internal/types"
)

// payloadCandidates lists the archive prefixes probed for the entry point,
// highest priority first.
func payloadCandidates(repo, runtimeTag string) []string {
	return []string{
		path.Join(repo, runtimeTag),
		runtimeTag,
		repo,
		"",
	}
}

func openArchive(archivePath string) (*zip.ReadCloser, error) {
	mtype, err := mimetype.DetectFile(archivePath)
	if err != nil {
		return nil, &models.IOError{Op: "read", Path: archivePath, Err: err}
	}
	if !isZip(mtype) {
		return nil, fmt.Errorf("%w: %s is %s, not a zip archive", models.ErrPayloadNotFound, filepath.Base(archivePath), mtype.String())
	}

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrPayloadNotFound, filepath.Base(archivePath), err)
	}
	return reader, nil
}

func isZip(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return true
		}
	}
	return false
}

// resolvePayloadPrefix returns the first candidate holding entryPoint at its
// root. It only reads the archive directory.
func resolvePayloadPrefix(files []*zip.File, candidates []string, entryPoint string) (string, bool) {
	names := make(map[string]struct{}, len(files))
	for _, f := range files {
		names[memberName(f.Name)] = struct{}{}
	}

	for _, prefix := range candidates {
		if _, ok := names[path.Join(prefix, entryPoint)]; ok {
			return prefix, true
		}
	}
	return "", false
}

// extractPrefix writes every file below prefix into dest with the prefix
// stripped. Entries that would land outside dest are rejected.
func extractPrefix(files []*zip.File, prefix, dest string) (int, error) {
	count := 0
	for _, f := range files {
		rel, ok := stripPrefix(f.Name, prefix)
		if !ok {
			continue
		}

		target, err := safeJoin(dest, rel)
		if err != nil {
			return count, err
		}

		if f.FileInfo().IsDir() {
			if err := util.EnsureDirectory(target); err != nil {
				return count, err
			}
			continue
		}

		if err := util.EnsureDirectory(filepath.Dir(target)); err != nil {
			return count, err
		}
		if err := extractFile(f, target); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// memberName normalizes an archive entry name: leading "/" and "./" are
// dropped and the rest is cleaned. ".." elements survive for safeJoin.
func memberName(name string) string {
	name = strings.TrimLeft(name, "/")
	for strings.HasPrefix(name, "./") {
		name = strings.TrimLeft(name[2:], "/")
	}
	if name == "" || name == "." {
		return ""
	}
	return path.Clean(name)
}

func stripPrefix(name, prefix string) (string, bool) {
	name = memberName(name)
	if prefix == "" {
		return name, name != ""
	}
	rest, ok := strings.CutPrefix(name, prefix+"/")
	if !ok || rest == "" {
		return "", false
	}
	return rest, true
}

func safeJoin(dest, rel string) (string, error) {
	cleaned := path.Clean(rel)
	if path.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", &models.IOError{Op: "extract", Path: rel, Err: fmt.Errorf("entry escapes install directory")}
	}
	return filepath.Join(dest, filepath.FromSlash(cleaned)), nil
}

func extractFile(f *zip.File, target string) error {
	src, err := f.Open()
	if err != nil {
		return &models.IOError{Op: "extract", Path: f.Name, Err: err}
	}
	defer src.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return &models.IOError{Op: "create", Path: target, Err: err}
	}

	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return &models.IOError{Op: "write", Path: target, Err: err}
	}
	if err := out.Close(); err != nil {
		return &models.IOError{Op: "write", Path: target, Err: err}
	}
	return nil
}

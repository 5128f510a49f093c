package cache

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.ngs.io/oresund-charts/internal/domain"
)

// ExtractMembers unpacks every archive member whose basename starts with
// stem (e.g. "GSHHS_f_L1.") flat into targetDir and returns the extracted
// paths. Shapefiles travel as sidecar groups (.shp/.shx/.dbf/.prj/.cpg),
// so a prefix match collects the whole group in one pass.
//
// The call is idempotent: when <targetDir>/<stem>shp already exists the
// archive is not reopened and the existing group is returned.
func ExtractMembers(archive []byte, targetDir, stem string) ([]string, error) {
	if existing, ok := existingGroup(targetDir, stem); ok {
		return existing, nil
	}

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrArchive, err)
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return nil, fmt.Errorf("create extract dir: %w", err)
	}

	var extracted []string
	for _, member := range zr.File {
		base := filepath.Base(member.Name)
		if !strings.HasPrefix(base, stem) {
			continue
		}
		target := filepath.Join(targetDir, base)
		// Traversal guard: the joined path must stay inside targetDir.
		if rel, err := filepath.Rel(targetDir, target); err != nil || strings.HasPrefix(rel, "..") {
			return nil, fmt.Errorf("%w: member %q escapes target directory", domain.ErrArchive, member.Name)
		}
		if err := extractFile(member, target); err != nil {
			return nil, err
		}
		extracted = append(extracted, target)
	}
	if len(extracted) == 0 {
		return nil, fmt.Errorf("%w: no member matches %q", domain.ErrArchive, stem)
	}
	return extracted, nil
}

func extractFile(member *zip.File, target string) error {
	src, err := member.Open()
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", domain.ErrArchive, member.Name, err)
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("extract %s: %w", member.Name, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(target)
		return fmt.Errorf("%w: read %s: %v", domain.ErrArchive, member.Name, err)
	}
	return nil
}

// existingGroup reports whether the .shp member of a group is already on
// disk, returning all present sidecars when it is.
func existingGroup(targetDir, stem string) ([]string, bool) {
	if _, err := os.Stat(filepath.Join(targetDir, stem+"shp")); err != nil {
		return nil, false
	}
	matches, err := filepath.Glob(filepath.Join(targetDir, stem+"*"))
	if err != nil || len(matches) == 0 {
		return nil, false
	}
	return matches, true
}

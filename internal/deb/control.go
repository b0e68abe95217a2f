package deb

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/squashmate/squashmate/internal/core"
	"github.com/squashmate/squashmate/internal/syspkg"
	"github.com/ulikunitz/xz"
)

// Debian packages are Unix ar archives holding debian-binary, a
// control tarball and a data tarball. The control tarball carries the
// ./control metadata file. This parser covers the gz and xz control
// compressions found in practice, plus uncompressed, and exists so
// metadata extraction works on hosts without dpkg-deb.

const arMagic = "!<arch>\n"

type arEntry struct {
	name string
	size int64
}

// readARHeader parses one 60-byte ar member header
func readARHeader(r io.Reader) (*arEntry, error) {
	var header [60]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	if string(header[58:60]) != "`\n" {
		return nil, fmt.Errorf("bad ar member terminator")
	}

	name := strings.TrimRight(string(header[0:16]), " ")
	name = strings.TrimSuffix(name, "/") // GNU ar appends /

	size, err := strconv.ParseInt(strings.TrimSpace(string(header[48:58])), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad ar member size: %w", err)
	}
	return &arEntry{name: name, size: size}, nil
}

// InspectFile reads package metadata straight out of a .deb file
func InspectFile(fs afero.Fs, pkgPath string) (*syspkg.PackageInfo, error) {
	f, err := fs.Open(pkgPath)
	if err != nil {
		return nil, &core.MetadataError{Path: pkgPath, Err: err}
	}
	defer f.Close()

	var magic [8]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil || string(magic[:]) != arMagic {
		return nil, &core.FormatError{Path: pkgPath, Reason: "not an ar archive"}
	}

	for {
		entry, err := readARHeader(f)
		if err == io.EOF {
			return nil, &core.MetadataError{Path: pkgPath, Err: fmt.Errorf("no control member found")}
		}
		if err != nil {
			return nil, &core.MetadataError{Path: pkgPath, Err: err}
		}

		if strings.HasPrefix(entry.name, "control.tar") {
			limited := io.LimitReader(f, entry.size)
			control, err := readControlFromTarball(limited, entry.name)
			if err != nil {
				return nil, &core.MetadataError{Path: pkgPath, Err: err}
			}
			info := parseControl(control)
			if info.Name == "" {
				return nil, &core.MetadataError{Path: pkgPath, Err: fmt.Errorf("control file has no Package field")}
			}
			return info, nil
		}

		// ar members are 2-byte aligned
		skip := entry.size
		if skip%2 == 1 {
			skip++
		}
		if _, err := io.CopyN(io.Discard, f, skip); err != nil {
			return nil, &core.MetadataError{Path: pkgPath, Err: err}
		}
	}
}

// readControlFromTarball decompresses the control member and returns
// the ./control file contents
func readControlFromTarball(r io.Reader, memberName string) ([]byte, error) {
	var tarStream io.Reader
	switch {
	case strings.HasSuffix(memberName, ".gz"):
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open gzip control: %w", err)
		}
		defer gzr.Close()
		tarStream = gzr
	case strings.HasSuffix(memberName, ".xz"):
		xzr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open xz control: %w", err)
		}
		tarStream = xzr
	case strings.HasSuffix(memberName, ".tar"):
		tarStream = r
	default:
		return nil, fmt.Errorf("unsupported control compression: %s", memberName)
	}

	tr := tar.NewReader(tarStream)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil, fmt.Errorf("control file not in control tarball")
		}
		if err != nil {
			return nil, fmt.Errorf("read control tarball: %w", err)
		}
		name := strings.TrimPrefix(header.Name, "./")
		if name == "control" {
			var buf bytes.Buffer
			if _, err := io.Copy(&buf, io.LimitReader(tr, 1<<20)); err != nil {
				return nil, fmt.Errorf("read control file: %w", err)
			}
			return buf.Bytes(), nil
		}
	}
}

// parseControl extracts the fields squashmate uses from an RFC822-style
// control file. Continuation lines belong to the previous field and
// only matter for Depends.
func parseControl(control []byte) *syspkg.PackageInfo {
	info := &syspkg.PackageInfo{}
	var lastKey string

	for _, line := range strings.Split(string(control), "\n") {
		if line == "" {
			break // end of first paragraph
		}
		if line[0] == ' ' || line[0] == '\t' {
			if lastKey == "Depends" {
				info.Depends = append(info.Depends, parseDepends(line)...)
			}
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		lastKey = key

		switch key {
		case "Package":
			info.Name = value
		case "Version":
			info.Version = value
		case "Depends":
			info.Depends = parseDepends(value)
		}
	}
	return info
}

func parseDepends(field string) []string {
	var deps []string
	for _, clause := range strings.Split(field, ",") {
		first, _, _ := strings.Cut(clause, "|")
		name, _, _ := strings.Cut(first, "(")
		name = strings.TrimSpace(name)
		if name != "" {
			deps = append(deps, name)
		}
	}
	return deps
}

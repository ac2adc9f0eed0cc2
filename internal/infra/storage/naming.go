package storage

import (
	"fmt"
	"math/rand"
	"path"
	"strings"
	"time"
)

const (
	namePrefix   = "machine-"
	maxExtLength = 16
)

// GenerateName builds machine-<unix-ms>-<9 random digits><ext>.
func GenerateName(now time.Time, ext string) string {
	return fmt.Sprintf("%s%d-%09d%s", namePrefix, now.UnixMilli(), rand.Intn(1_000_000_000), ext)
}

// SafeExt returns the extension of the client supplied filename, or "" when
// it is missing or contains anything but ASCII letters and digits.
func SafeExt(originalName string) string {
	base := path.Base(strings.ReplaceAll(originalName, `\`, "/"))
	ext := path.Ext(base)
	if len(ext) < 2 || len(ext) > maxExtLength || ext == base {
		return ""
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return ""
		}
	}
	return ext
}

// ValidName reports whether name is a plain file name inside the upload dir.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}

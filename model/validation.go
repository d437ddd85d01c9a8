package model

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/cms-dev/cms/v2/errors"
)

// TombstoneDigest marks a file whose content is no longer in the file store.
const TombstoneDigest = "x"

// DigestLength is the length of a hex SHA-1 digest.
const DigestLength = 40

var (
	codenameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	digestRe   = regexp.MustCompile(`^[0-9a-f]{40}$`)
)

// ValidateCodename accepts a non-empty string of ASCII letters, digits,
// dashes and underscores.
func ValidateCodename(s string) error {
	if !codenameRe.MatchString(s) {
		return errors.Newf(errors.ErrConstraintViolation,
			"invalid codename %q: must be non-empty and contain only letters, digits, '-' and '_'", s)
	}
	return nil
}

// ValidateFilename accepts a single path component made of printable
// characters.
func ValidateFilename(s string) error {
	fail := func(why string) error {
		return errors.Newf(errors.ErrConstraintViolation, "invalid filename %q: %s", s, why)
	}
	switch s {
	case "":
		return fail("must be non-empty")
	case ".", "..":
		return fail("must not be a directory reference")
	}
	if strings.ContainsAny(s, `/\`) {
		return fail("must not contain path separators")
	}
	for _, r := range s {
		if r == unicode.ReplacementChar || unicode.IsControl(r) || !unicode.IsPrint(r) {
			return fail("must contain only printable characters")
		}
	}
	return nil
}

// ValidateDigest accepts a lowercase hex SHA-1 digest or TombstoneDigest.
func ValidateDigest(s string) error {
	if s == TombstoneDigest || digestRe.MatchString(s) {
		return nil
	}
	return errors.Newf(errors.ErrConstraintViolation,
		"invalid digest %q: must be %d lowercase hexadecimal characters", s, DigestLength)
}

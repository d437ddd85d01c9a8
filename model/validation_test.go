package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cms-dev/cms/v2/errors"
)

func TestValidateCodename(t *testing.T) {
	for _, ok := range []string{"task01", "my_task-2", "trailing-", "A", "_", "2024"} {
		require.NoError(t, ValidateCodename(ok), ok)
	}
	for _, bad := range []string{"", "Has Space", "tab\there", "dot.name", "slash/name", "ünïcode", "new\nline"} {
		err := ValidateCodename(bad)
		require.Error(t, err, bad)
		require.True(t, errors.Is(err, errors.ErrConstraintViolation), bad)
	}
}

func TestValidateFilename(t *testing.T) {
	for _, ok := range []string{"sol.cpp", "t1.%l", ".hidden", "with space.txt", "ünïcode.py", "..."} {
		require.NoError(t, ValidateFilename(ok), ok)
	}
	for _, bad := range []string{"", ".", "..", "a/b", `a\b`, "nul\x00", "bell\a", "bad\xffutf8"} {
		err := ValidateFilename(bad)
		require.Error(t, err, "%q", bad)
		require.True(t, errors.Is(err, errors.ErrConstraintViolation), "%q", bad)
	}
}

func TestValidateDigest(t *testing.T) {
	for _, ok := range []string{
		"da39a3ee5e6b4b0d3255bfef95601890afd80709",
		TombstoneDigest,
	} {
		require.NoError(t, ValidateDigest(ok), ok)
	}
	for _, bad := range []string{
		"",
		"DA39A3EE5E6B4B0D3255BFEF95601890AFD80709",
		"da39a3ee5e6b4b0d3255bfef95601890afd8070",
		"da39a3ee5e6b4b0d3255bfef95601890afd807090",
		"za39a3ee5e6b4b0d3255bfef95601890afd80709",
		"xx",
	} {
		err := ValidateDigest(bad)
		require.Error(t, err, bad)
		require.True(t, errors.Is(err, errors.ErrConstraintViolation), bad)
	}
}

func TestValidateCodename_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := rapid.StringMatching(`[A-Za-z0-9_-]{1,40}`).Draw(rt, "codename")
		if err := ValidateCodename(s); err != nil {
			rt.Fatalf("rejected %q: %v", s, err)
		}

		// Any other byte inserted anywhere makes it invalid.
		bad := rapid.SampledFrom([]string{" ", ".", "/", "\t", "é", "+"}).Draw(rt, "bad")
		at := rapid.IntRange(0, len(s)).Draw(rt, "at")
		if err := ValidateCodename(s[:at] + bad + s[at:]); err == nil {
			rt.Fatalf("accepted %q", s[:at]+bad+s[at:])
		}
	})
}

func TestValidateFilename_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		base := rapid.StringMatching(`[a-z0-9_]{1,20}(\.[a-z]{1,4})?`).Draw(rt, "filename")
		if err := ValidateFilename(base); err != nil {
			rt.Fatalf("rejected %q: %v", base, err)
		}

		sep := rapid.SampledFrom([]string{"/", `\`}).Draw(rt, "sep")
		joined := base + sep + base
		if err := ValidateFilename(joined); err == nil {
			rt.Fatalf("accepted %q", joined)
		}
	})
}

func TestValidateDigest_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := rapid.StringMatching(`[0-9a-f]{40}`).Draw(rt, "digest")
		if err := ValidateDigest(d); err != nil {
			rt.Fatalf("rejected %q: %v", d, err)
		}
		if strings.ToUpper(d) != d {
			if err := ValidateDigest(strings.ToUpper(d)); err == nil {
				rt.Fatalf("accepted uppercase %q", strings.ToUpper(d))
			}
		}
		cut := rapid.IntRange(0, 39).Draw(rt, "cut")
		if err := ValidateDigest(d[:cut]); err == nil && d[:cut] != TombstoneDigest {
			rt.Fatalf("accepted short digest %q", d[:cut])
		}
	})
}

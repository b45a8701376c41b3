package checksum

import (
	"github.com/arya-analytics/swimcheck/internal/member"
	"github.com/cockroachdb/errors"
	"github.com/dgryski/go-farm"
	"strings"
)

// ErrUndetectable is returned by Detect when no known variant reproduces a
// checksum.
var ErrUndetectable = errors.New("checksum method undetectable")

// Variant is one of the historical ways of hashing the canonical membership
// string.
type Variant uint8

const (
	// VariantLegacy appends a trailing separator to the canonical string before
	// taking its fingerprint. It is what the first cross-platform implementation
	// produced, and what most peers still emit.
	VariantLegacy Variant = iota + 1
	// VariantNative applies the general 32-bit hash, which is not stable across
	// platforms. It is computed as lowered on x86-64 with SSE4.1, where the
	// 32-bit hash truncates the 64-bit one, and is only reproducible for
	// canonical strings shorter than 512 bytes.
	VariantNative
	// VariantCrossPlatform takes the fingerprint of the canonical string as is.
	VariantCrossPlatform
)

// Variants lists every variant in the order Detect tries them.
var Variants = []Variant{VariantLegacy, VariantNative, VariantCrossPlatform}

func (v Variant) String() string {
	switch v {
	case VariantLegacy:
		return "legacy"
	case VariantNative:
		return "native"
	case VariantCrossPlatform:
		return "cross-platform"
	}
	return "unknown"
}

var aliases = map[string]Variant{"a": VariantLegacy, "b": VariantNative, "c": VariantCrossPlatform}

// Parse returns the variant with the given name, or with the given letter in
// detection order.
func Parse(name string) (Variant, error) {
	if v, ok := aliases[strings.ToLower(name)]; ok {
		return v, nil
	}
	for _, v := range Variants {
		if v.String() == name {
			return v, nil
		}
	}
	return 0, errors.Newf("unknown checksum variant %q", name)
}

// Reproducible reports whether Sum yields the checksum a peer using v emits for
// canonical.
func (v Variant) Reproducible(canonical string) bool {
	return v != VariantNative || len(canonical) < nativeLongMin
}

// Sum hashes an already canonicalized membership string. The result is only
// meaningful when v is Reproducible for canonical.
func (v Variant) Sum(canonical string) uint32 {
	switch v {
	case VariantLegacy:
		return fingerprint32(canonical + entrySeparator)
	case VariantNative:
		return hash32(canonical)
	case VariantCrossPlatform:
		return fingerprint32(canonical)
	}
	panic("[checksum] - invalid variant")
}

// Checksum canonicalizes members and hashes the result.
func (v Variant) Checksum(members []member.Member) uint32 {
	return v.Sum(Canonicalize(members))
}

// Detect returns the first variant, in the order of Variants, whose checksum of
// members equals checksum. Variants that are not Reproducible for the members
// are skipped.
func Detect(members []member.Member, checksum uint32) (Variant, error) {
	canonical := Canonicalize(members)
	for _, v := range Variants {
		if v.Reproducible(canonical) && v.Sum(canonical) == checksum {
			return v, nil
		}
	}
	return 0, errors.Mark(
		errors.Newf("checksum %d matches none of %d variants for %d members",
			checksum, len(Variants), len(members)),
		ErrUndetectable,
	)
}

func fingerprint32(s string) uint32 { return farm.Fingerprint32([]byte(s)) }

// hash32 is the general farmhash 32-bit hash as lowered on x86-64 with SSE4.1,
// where it truncates the xo 64-bit hash below 512 bytes.
func hash32(s string) uint32 { return uint32(xoHash64([]byte(s))) }

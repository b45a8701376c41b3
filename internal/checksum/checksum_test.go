package checksum_test

import (
	"github.com/arya-analytics/swimcheck/internal/checksum"
	"github.com/arya-analytics/swimcheck/internal/member"
	"github.com/cockroachdb/errors"
	"github.com/dgryski/go-farm"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"hash/crc32"
	"strconv"
	"strings"
)

// labelUnaware builds the canonical string the way implementations without
// label support do.
func labelUnaware(members []member.Member) string {
	var entries []string
	for _, m := range members {
		if m.Status == member.StatusTombstone {
			continue
		}
		entries = append(entries, m.HostPort()+string(m.Status)+strconv.FormatInt(m.IncarnationNumber, 10))
	}
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j] < entries[j-1]; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
	return strings.Join(entries, ";")
}

const lorem = "Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor incididunt ut " +
	"labore et dolore magna aliqua. Ut enim ad minim veniam, quis nostrud exercitation ullamco laboris nisi ut " +
	"aliquip ex ea commodo consequat. Duis aute irure dolor in reprehenderit in voluptate velit esse cillum dolore " +
	"eu fugiat nulla pariatur. Excepteur sint occaecat cupidatat non proident, sunt in culpa qui officia deserunt " +
	"mollit anim id est laborum."

var _ = Describe("Checksum", func() {
	var (
		twoMembers []member.Member
		cluster    []member.Member
	)
	BeforeEach(func() {
		twoMembers = []member.Member{
			{Address: "10.0.0.1:3000", Status: member.StatusAlive, IncarnationNumber: 1},
			{Address: "10.0.0.2:3000", Status: member.StatusSuspect, IncarnationNumber: 4},
		}
		cluster = []member.Member{
			{Host: "127.0.0.1", Port: 3004, Status: member.StatusFaulty, IncarnationNumber: 1337},
			{Address: "127.0.0.1:3000", Status: member.StatusAlive, IncarnationNumber: 1},
			{Address: "127.0.0.1:3002", Status: member.StatusTombstone, IncarnationNumber: 9},
			{Address: "127.0.0.1:3001", Status: member.StatusSuspect, IncarnationNumber: 2},
			{Address: "127.0.0.1:3003", Status: member.StatusLeave, IncarnationNumber: 7},
		}
	})

	Describe("Canonicalize", func() {
		It("Should produce the canonical string of a simple membership", func() {
			Expect(checksum.Canonicalize(twoMembers)).To(Equal("10.0.0.1:3000alive1;10.0.0.2:3000suspect4"))
		})
		It("Should exclude tombstoned members", func() {
			Expect(checksum.Canonicalize(cluster)).ToNot(ContainSubstring("3002"))
			Expect(checksum.Canonicalize(cluster)).To(Equal(
				"127.0.0.1:3000alive1;127.0.0.1:3001suspect2;127.0.0.1:3003leave7;127.0.0.1:3004faulty1337",
			))
		})
		It("Should be invariant under permutation of the member list", func() {
			expected := checksum.Canonicalize(cluster)
			for i := range cluster {
				rotated := append(append([]member.Member{}, cluster[i:]...), cluster[:i]...)
				Expect(checksum.Canonicalize(rotated)).To(Equal(expected))
			}
		})
		It("Should match a label unaware implementation when no labels are set", func() {
			Expect(checksum.Canonicalize(cluster)).To(Equal(labelUnaware(cluster)))
			for _, v := range checksum.Variants {
				Expect(v.Checksum(cluster)).To(Equal(v.Sum(labelUnaware(cluster))))
			}
		})
		It("Should return an empty string for an empty membership", func() {
			Expect(checksum.Canonicalize(nil)).To(BeEmpty())
		})
	})

	Describe("Labels", func() {
		It("Should not append a tag for empty labels", func() {
			m := []member.Member{{Address: "a:1", Status: member.StatusAlive, Labels: map[string]string{}}}
			Expect(checksum.Canonicalize(m)).To(Equal("a:1alive0"))
			Expect(checksum.LabelChecksum(nil)).To(BeZero())
		})
		It("Should append the label checksum when labels are set", func() {
			labels := map[string]string{"dc": "east", "role": "frontend"}
			m := []member.Member{{Address: "a:1", Status: member.StatusAlive, Labels: labels}}
			lc := checksum.LabelChecksum(labels)
			Expect(lc).ToNot(BeZero())
			Expect(checksum.Canonicalize(m)).To(Equal("a:1alive0#labels" + strconv.FormatInt(int64(lc), 10)))
		})
		It("Should combine label fingerprints independent of order", func() {
			one := checksum.LabelChecksum(map[string]string{"dc": "east"})
			two := checksum.LabelChecksum(map[string]string{"role": "frontend"})
			Expect(checksum.LabelChecksum(map[string]string{"dc": "east", "role": "frontend"})).To(Equal(one ^ two))
			Expect(checksum.LabelChecksum(map[string]string{"role": "frontend", "dc": "east"})).To(Equal(two ^ one))
		})
		It("Should fingerprint the length prefixed label record", func() {
			record := []byte{0, 0, 0, 2, 'd', 'c', 0, 0, 0, 4, 'e', 'a', 's', 't'}
			Expect(checksum.LabelChecksum(map[string]string{"dc": "east"})).To(Equal(int32(farm.Fingerprint32(record))))
		})
	})

	Describe("Variants", func() {
		It("Should hash the canonical string with and without a trailing separator", func() {
			canonical := "10.0.0.1:3000alive1;10.0.0.2:3000suspect4"
			Expect(checksum.VariantLegacy.Checksum(twoMembers)).To(Equal(farm.Fingerprint32([]byte(canonical + ";"))))
			Expect(checksum.VariantCrossPlatform.Checksum(twoMembers)).To(Equal(farm.Fingerprint32([]byte(canonical))))
		})
		It("Should match the reference farmhash outputs", func() {
			// fingerprint32 and the na and uo 64-bit hashes of the farmhash test
			// vectors.
			Expect(checksum.VariantCrossPlatform.Sum("")).To(Equal(uint32(0xdc56d17a)))
			Expect(checksum.VariantCrossPlatform.Sum("abc")).To(Equal(uint32(0x2f635ec7)))
			Expect(checksum.VariantLegacy.Sum("abc")).To(Equal(checksum.VariantCrossPlatform.Sum("abc;")))
			Expect(checksum.VariantNative.Sum("abc")).To(Equal(uint32(0x74e7f369)))
			Expect(checksum.VariantNative.Sum("C is as portable as Stonehedge!!")).To(Equal(uint32(0x6261e414)))
			Expect(checksum.VariantNative.Sum(
				"The fugacity of a constituent in a mixture of gases at a given temperature is proportional to its mole fraction.  Lewis-Randall Rule",
			)).To(Equal(uint32(0x58c5e91a)))
			Expect(checksum.VariantNative.Sum(lorem)).To(Equal(uint32(0x1b15bddd)))
		})
		It("Should use the xo hash between 33 and 96 bytes", func() {
			canonical := checksum.Canonicalize(twoMembers)
			Expect(len(canonical)).To(BeNumerically(">", 32))
			Expect(checksum.VariantNative.Sum(canonical)).ToNot(Equal(uint32(farm.Fingerprint64([]byte(canonical)))))
			Expect(checksum.VariantNative.Sum(canonical)).ToNot(Equal(uint32(farm.Hash64([]byte(canonical)))))
		})
		It("Should not reproduce the native variant from 512 bytes on", func() {
			long := strings.Repeat("a", 512)
			Expect(checksum.VariantNative.Reproducible(long[:511])).To(BeTrue())
			Expect(checksum.VariantNative.Reproducible(long)).To(BeFalse())
			Expect(checksum.VariantLegacy.Reproducible(long)).To(BeTrue())
			Expect(checksum.VariantCrossPlatform.Reproducible(long)).To(BeTrue())
		})
		It("Should be deterministic", func() {
			for _, v := range checksum.Variants {
				Expect(v.Checksum(cluster)).To(Equal(v.Checksum(cluster)))
			}
		})
		It("Should parse variant names", func() {
			for _, v := range checksum.Variants {
				parsed, err := checksum.Parse(v.String())
				Expect(err).ToNot(HaveOccurred())
				Expect(parsed).To(Equal(v))
			}
			for alias, v := range map[string]checksum.Variant{
				"a": checksum.VariantLegacy,
				"B": checksum.VariantNative,
				"c": checksum.VariantCrossPlatform,
			} {
				parsed, err := checksum.Parse(alias)
				Expect(err).ToNot(HaveOccurred())
				Expect(parsed).To(Equal(v))
			}
			_, err := checksum.Parse("md5")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Detect", func() {
		It("Should detect the variant that produced a checksum", func() {
			for _, members := range [][]member.Member{twoMembers, cluster} {
				for _, v := range checksum.Variants {
					detected, err := checksum.Detect(members, v.Checksum(members))
					Expect(err).ToNot(HaveOccurred())
					Expect(detected).To(Equal(v))
				}
			}
		})
		It("Should prefer the earliest variant when variants collide", func() {
			// An empty membership hashes "" for the native and cross platform
			// variants, so only the order decides between them when they agree.
			cross := checksum.VariantCrossPlatform.Checksum(nil)
			detected, err := checksum.Detect(nil, cross)
			Expect(err).ToNot(HaveOccurred())
			if checksum.VariantNative.Checksum(nil) == cross {
				Expect(detected).To(Equal(checksum.VariantNative))
			} else {
				Expect(detected).To(Equal(checksum.VariantCrossPlatform))
			}
		})
		It("Should skip the native variant for large memberships", func() {
			var large []member.Member
			for i := 0; i < 40; i++ {
				large = append(large, member.Member{
					Address:           "10.0.0." + strconv.Itoa(i) + ":3000",
					Status:            member.StatusAlive,
					IncarnationNumber: 1,
				})
			}
			canonical := checksum.Canonicalize(large)
			Expect(len(canonical)).To(BeNumerically(">=", 512))
			_, err := checksum.Detect(large, checksum.VariantNative.Sum(canonical))
			Expect(errors.Is(err, checksum.ErrUndetectable)).To(BeTrue())
			for _, v := range []checksum.Variant{checksum.VariantLegacy, checksum.VariantCrossPlatform} {
				detected, err := checksum.Detect(large, v.Checksum(large))
				Expect(err).ToNot(HaveOccurred())
				Expect(detected).To(Equal(v))
			}
		})
		It("Should fail for a checksum produced by an unknown scheme", func() {
			unknown := crc32.ChecksumIEEE([]byte(checksum.Canonicalize(cluster)))
			_, err := checksum.Detect(cluster, unknown)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, checksum.ErrUndetectable)).To(BeTrue())
		})
	})
})

// Package checksum condenses a membership list into a single 32-bit fingerprint.
// Independent implementations of the protocol have hashed the same canonical
// membership string in slightly different ways over time, so the package exposes
// each of those variants along with Detect, which identifies the variant that
// produced a checksum reported by a peer.
//
// The canonical string is built as follows:
//
//  1. Members in the tombstone state are removed.
//  2. Each member becomes address + status + incarnation number. Members with
//     labels whose combined label checksum is non-zero get "#labels<checksum>"
//     appended.
//  3. The entries are sorted byte-wise and joined with ";".
//
// A zero label checksum is never appended, so members without labels produce
// the same string as an implementation with no label support at all.
package checksum

import (
	"encoding/binary"
	"github.com/arya-analytics/swimcheck/internal/member"
	"github.com/dgryski/go-farm"
	"sort"
	"strconv"
	"strings"
)

const (
	entrySeparator = ";"
	labelsTag      = "#labels"
)

// Canonicalize returns the canonical membership string for members.
func Canonicalize(members []member.Member) string {
	entries := make([]string, 0, len(members))
	for _, m := range members {
		if m.Status == member.StatusTombstone {
			continue
		}
		entries = append(entries, entryString(m))
	}
	sort.Strings(entries)
	return strings.Join(entries, entrySeparator)
}

func entryString(m member.Member) string {
	var b strings.Builder
	b.WriteString(m.HostPort())
	b.WriteString(string(m.Status))
	b.WriteString(strconv.FormatInt(m.IncarnationNumber, 10))
	if lc := LabelChecksum(m.Labels); lc != 0 {
		b.WriteString(labelsTag)
		b.WriteString(strconv.FormatInt(int64(lc), 10))
	}
	return b.String()
}

// LabelChecksum combines the fingerprints of every label with XOR, so the result
// does not depend on iteration order. The value is signed to stay byte-identical
// with implementations that XOR into a signed 32-bit integer.
func LabelChecksum(labels map[string]string) int32 {
	var sum uint32
	for k, v := range labels {
		sum ^= farm.Fingerprint32(labelRecord(k, v))
	}
	return int32(sum)
}

// labelRecord lays a label out as be32(len(k)) k be32(len(v)) v.
func labelRecord(k, v string) []byte {
	buf := make([]byte, 0, 8+len(k)+len(v))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(k)))
	buf = append(buf, k...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(v)))
	return append(buf, v...)
}

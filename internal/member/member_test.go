package member_test

import (
	"encoding/json"
	"github.com/arya-analytics/swimcheck/internal/member"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Member", func() {
	Describe("HostPort", func() {
		It("Should prefer the explicit address", func() {
			m := member.Member{Address: "10.0.0.1:3000", Host: "10.0.0.9", Port: 1}
			Expect(m.HostPort()).To(Equal("10.0.0.1:3000"))
		})
		It("Should fall back to host and port", func() {
			m := member.Member{Host: "10.0.0.2", Port: 3001}
			Expect(m.HostPort()).To(Equal("10.0.0.2:3001"))
		})
	})
	Describe("List", func() {
		var l member.List
		BeforeEach(func() {
			l = member.List{
				{Address: "a:1", Status: member.StatusAlive},
				{Address: "a:2", Status: member.StatusSuspect},
				{Address: "a:3", Status: member.StatusAlive, Labels: map[string]string{"k": "v"}},
				{Address: "a:4", Status: member.StatusTombstone},
			}
		})
		It("Should count members by status", func() {
			Expect(l.Count(member.StatusAlive)).To(Equal(2))
			Expect(l.Count(member.StatusFaulty)).To(Equal(0))
			Expect(l.WhereNot(member.StatusTombstone)).To(HaveLen(3))
		})
		It("Should find a member by address", func() {
			m, ok := l.Find("a:2")
			Expect(ok).To(BeTrue())
			Expect(m.Status).To(Equal(member.StatusSuspect))
			_, ok = l.Find("a:9")
			Expect(ok).To(BeFalse())
		})
		It("Should deep copy labels", func() {
			cp := l.Copy()
			cp[2].Labels["k"] = "changed"
			Expect(l[2].Labels["k"]).To(Equal("v"))
		})
	})
	Describe("Overrides", func() {
		m := member.Member{Address: "a:1", Status: member.StatusSuspect, IncarnationNumber: 3}
		It("Should prefer the higher incarnation number", func() {
			Expect(member.Change{Status: member.StatusAlive, IncarnationNumber: 4}.Overrides(m)).To(BeTrue())
			Expect(member.Change{Status: member.StatusFaulty, IncarnationNumber: 2}.Overrides(m)).To(BeFalse())
		})
		It("Should order statuses on equal incarnation numbers", func() {
			Expect(member.Change{Status: member.StatusAlive, IncarnationNumber: 3}.Overrides(m)).To(BeFalse())
			Expect(member.Change{Status: member.StatusSuspect, IncarnationNumber: 3}.Overrides(m)).To(BeFalse())
			Expect(member.Change{Status: member.StatusFaulty, IncarnationNumber: 3}.Overrides(m)).To(BeTrue())
			Expect(member.Change{Status: member.StatusLeave, IncarnationNumber: 3}.Overrides(m)).To(BeTrue())
		})
		It("Should merge changes into a copy of a list", func() {
			l := member.List{m}
			out := l.Apply(
				member.Change{Address: "a:1", Status: member.StatusAlive, IncarnationNumber: 4},
				member.Change{Address: "b:1", Status: member.StatusAlive, IncarnationNumber: 1},
			)
			Expect(out).To(HaveLen(2))
			Expect(out[0].Status).To(Equal(member.StatusAlive))
			Expect(l[0].Status).To(Equal(member.StatusSuspect))
		})
	})
	Describe("Stats", func() {
		It("Should decode an admin stats payload", func() {
			raw := `{"membership":{"checksum":42,"members":[
				{"address":"10.0.0.1:3000","status":"alive","incarnationNumber":1},
				{"host":"10.0.0.2","port":3000,"status":"suspect","incarnationNumber":4}]}}`
			var s member.Stats
			Expect(json.Unmarshal([]byte(raw), &s)).To(Succeed())
			Expect(s.Membership.Checksum).To(Equal(uint32(42)))
			Expect(s.Membership.Members.Addresses()).To(Equal([]string{"10.0.0.1:3000", "10.0.0.2:3000"}))
		})
	})
})

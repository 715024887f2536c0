package audit_test

import (
	"testing"

	"stagegate/audit"

	. "github.com/onsi/gomega"
)

func TestDiff(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should yield no changes without a predecessor", func(t *testing.T) {
		Expect(audit.Diff(nil, audit.Snapshot{"name": "a"})).To(BeEmpty())
		Expect(audit.Diff(audit.Snapshot{"name": "a"}, nil)).To(BeEmpty())
	})

	t.Run("should report changed properties only, sorted by name", func(t *testing.T) {
		prev := audit.Snapshot{"name": "old name", "no": "1", "remark": "same"}
		cur := audit.Snapshot{"name": "new name", "no": "2", "remark": "same"}

		changes := audit.Diff(prev, cur)
		Expect(len(changes)).To(Equal(2))
		Expect(changes[0].PropertyName).To(Equal("name"))
		Expect(changes[0].OldValue).To(Equal("old name"))
		Expect(changes[0].NewValue).To(Equal("new name"))
		Expect(changes[1].PropertyName).To(Equal("no"))
	})

	t.Run("should cover properties present on only one side", func(t *testing.T) {
		changes := audit.Diff(audit.Snapshot{"dropped": "x"}, audit.Snapshot{"added": "y"})
		Expect(len(changes)).To(Equal(2))
		Expect(changes[0].PropertyName).To(Equal("added"))
		Expect(changes[0].OldValue).To(BeZero())
		Expect(changes[0].NewValue).To(Equal("y"))
		Expect(changes[1].PropertyName).To(Equal("dropped"))
		Expect(changes[1].NewValue).To(BeZero())
	})

	t.Run("should reformat timestamp values for display", func(t *testing.T) {
		changes := audit.Diff(
			audit.Snapshot{"startDate": "2026-02-01"},
			audit.Snapshot{"startDate": "2026-03-15 09:30:00"},
		)
		Expect(len(changes)).To(Equal(1))
		Expect(changes[0].OldValueDesc).To(Equal("01.02.2026 00:00"))
		Expect(changes[0].NewValueDesc).To(Equal("15.03.2026 09:30"))
	})

	t.Run("should keep non-date values verbatim", func(t *testing.T) {
		changes := audit.Diff(audit.Snapshot{"name": "a"}, audit.Snapshot{"name": "b"})
		Expect(changes[0].OldValueDesc).To(Equal("a"))
		Expect(changes[0].NewValueDesc).To(Equal("b"))
	})
}

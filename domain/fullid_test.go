package domain_test

import (
	"testing"

	"stagegate/domain"

	. "github.com/onsi/gomega"
)

func TestFullID(t *testing.T) {
	RegisterTestingT(t)

	t.Run("every level keeps its own segment count", func(t *testing.T) {
		p := domain.Project{ID: 12}
		fp := domain.FinancePart{ID: 34, ProjectID: 12}
		tp := domain.TechnicalPart{ID: 56, ProjectID: 12, FinancePartID: 34}
		wo := domain.WorkOrder{ID: 78, ProjectID: 12, FinancePartID: 34, TechnicalPartID: 56}

		Expect(p.FullID()).To(Equal("12/"))
		Expect(fp.FullID()).To(Equal("12/34/"))
		Expect(tp.FullID()).To(Equal("12/34/56/"))
		Expect(wo.FullID()).To(Equal("12/34/56/78/"))
	})

	t.Run("ids never collide across levels", func(t *testing.T) {
		// numeric ids chosen so that naive concatenation without separators
		// would produce the same string at different levels
		p := domain.Project{ID: 12}
		fp := domain.FinancePart{ID: 2, ProjectID: 1}
		tp := domain.TechnicalPart{ID: 2, ProjectID: 1, FinancePartID: 1}
		wo := domain.WorkOrder{ID: 2, ProjectID: 1, FinancePartID: 1, TechnicalPartID: 1}

		ids := []string{p.FullID(), fp.FullID(), tp.FullID(), wo.FullID()}
		seen := map[string]bool{}
		for _, id := range ids {
			Expect(seen[id]).To(BeFalse(), "duplicate full id %s", id)
			seen[id] = true
		}
		Expect(len(seen)).To(Equal(4))
	})
}

package finance_test

import (
	"testing"

	"stagegate/audit"
	"stagegate/authority"
	"stagegate/bizerror"
	"stagegate/domain"
	"stagegate/domain/actionlog"
	"stagegate/domain/finance"
	"stagegate/domain/phase"
	"stagegate/persistence"
	"stagegate/session"
	"stagegate/testinfra"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	. "github.com/onsi/gomega"
)

func setup(t *testing.T, testDatabase **testinfra.TestDatabase) (*domain.Project, *[]actionlog.ActionLog) {
	db := testinfra.StartMysqlTestDatabase("stagegate")
	*testDatabase = db
	Expect(db.DS.GormDB().AutoMigrate(&domain.Project{}, &domain.FinancePart{},
		&phase.PhaseType{}, &actionlog.ActionLog{}, &actionlog.ObjectLastStatus{}).Error).To(BeNil())

	persistence.ActiveDataSourceManager = db.DS
	Expect(phase.DefaultPhaseTypeConfiguration()).To(BeNil())

	audit.CreateRecordFunc = func(db *gorm.DB, sourceType string, sourceId types.ID, sourceDesc string,
		category audit.Category, snapshot audit.Snapshot, identity *session.Identity) error {
		return nil
	}
	handledRecords := []actionlog.ActionLog{}
	actionlog.InvokeHandlersFunc = func(record *actionlog.ActionLog) []actionlog.HandleResult {
		handledRecords = append(handledRecords, *record)
		return nil
	}
	actionlog.RecordActionFunc = actionlog.RecordAction

	project := domain.Project{ID: 12, Name: "bridge", FinancierID: 20, GipID: 30, CreatorID: 10}
	Expect(db.DS.GormDB().Create(&project).Error).To(BeNil())
	return &project, &handledRecords
}

func teardown(t *testing.T, testDatabase *testinfra.TestDatabase) {
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func TestCreateFinancePart(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("only the assigned financier or an admin may create", func(t *testing.T) {
		defer teardown(t, testDatabase)
		p, _ := setup(t, &testDatabase)

		creation := domain.FinancePartCreating{ProjectID: p.ID, PartNo: "1", Name: "survey", Price: 1000}
		fp, err := finance.CreateFinancePart(&creation, testinfra.BuildSecCtx(99, authority.CapFinancier))
		Expect(fp).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrForbidden))

		fp, err = finance.CreateFinancePart(&creation, testinfra.BuildSecCtx(20, authority.CapFinancier))
		Expect(err).To(BeNil())
		Expect(fp.FullID()).To(Equal("12/" + fp.ID.String() + "/"))
		Expect(fp.PathType()).To(Equal(domain.PathTypeFinPart))
	})

	t.Run("part no and name must be unique within the project", func(t *testing.T) {
		defer teardown(t, testDatabase)
		p, _ := setup(t, &testDatabase)

		sec := testinfra.BuildSecCtx(20, authority.CapFinancier)
		_, err := finance.CreateFinancePart(&domain.FinancePartCreating{
			ProjectID: p.ID, PartNo: "1", Name: "survey", Price: 1000}, sec)
		Expect(err).To(BeNil())

		_, err = finance.CreateFinancePart(&domain.FinancePartCreating{
			ProjectID: p.ID, PartNo: "1", Name: "different", Price: 1000}, sec)
		Expect(err).To(Equal(bizerror.ErrDuplicated))

		_, err = finance.CreateFinancePart(&domain.FinancePartCreating{
			ProjectID: p.ID, PartNo: "2", Name: "survey", Price: 1000}, sec)
		Expect(err).To(Equal(bizerror.ErrDuplicated))
	})

	t.Run("should refuse unknown projects", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		_, err := finance.CreateFinancePart(&domain.FinancePartCreating{
			ProjectID: 404, PartNo: "1", Name: "survey", Price: 1000},
			testinfra.BuildSecCtx(20, authority.CapFinancier))
		Expect(err).To(Equal(bizerror.ErrNotFound))
	})
}

func TestUpdateFinancePart(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("only the assigned financier or an admin may update", func(t *testing.T) {
		defer teardown(t, testDatabase)
		p, _ := setup(t, &testDatabase)

		fp, err := finance.CreateFinancePart(&domain.FinancePartCreating{
			ProjectID: p.ID, PartNo: "1", Name: "survey", Price: 1000},
			testinfra.BuildSecCtx(20, authority.CapFinancier))
		Expect(err).To(BeNil())

		err = finance.UpdateFinancePart(fp.ID, &domain.FinancePartUpdating{Name: "renamed"},
			testinfra.BuildSecCtx(99, authority.CapFinancier))
		Expect(err).To(Equal(bizerror.ErrForbidden))

		err = finance.UpdateFinancePart(404, &domain.FinancePartUpdating{Name: "renamed"},
			testinfra.BuildSecCtx(20, authority.CapFinancier))
		Expect(err).To(Equal(bizerror.ErrNotFound))
	})

	t.Run("should apply only the fields provided", func(t *testing.T) {
		defer teardown(t, testDatabase)
		p, _ := setup(t, &testDatabase)

		sec := testinfra.BuildSecCtx(20, authority.CapFinancier)
		fp, err := finance.CreateFinancePart(&domain.FinancePartCreating{
			ProjectID: p.ID, PartNo: "1", Name: "survey", Price: 1000,
			StartDate: "2026-01-01", FinishDate: "2026-06-30"}, sec)
		Expect(err).To(BeNil())

		Expect(finance.UpdateFinancePart(fp.ID, &domain.FinancePartUpdating{
			Name: "geodesy", Price: 2500}, sec)).To(BeNil())

		updated := domain.FinancePart{}
		Expect(testDatabase.DS.GormDB().Where(&domain.FinancePart{ID: fp.ID}).
			First(&updated).Error).To(BeNil())
		Expect(updated.Name).To(Equal("geodesy"))
		Expect(updated.Price).To(Equal(int64(2500)))
		Expect(updated.PartNo).To(Equal("1"))
		Expect(updated.StartDate).To(Equal("2026-01-01"))

		// empty updating is a no-op
		Expect(finance.UpdateFinancePart(fp.ID, &domain.FinancePartUpdating{}, sec)).To(BeNil())
	})
}

func TestTechDirDecision(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("decision requires a prior hand-over", func(t *testing.T) {
		defer teardown(t, testDatabase)
		p, _ := setup(t, &testDatabase)

		financier := testinfra.BuildSecCtx(20, authority.CapFinancier)
		fp, err := finance.CreateFinancePart(&domain.FinancePartCreating{
			ProjectID: p.ID, PartNo: "1", Name: "survey", Price: 1000}, financier)
		Expect(err).To(BeNil())

		techDir := testinfra.BuildSecCtx(40, authority.CapTechDir)
		Expect(finance.TechDirConfirm(fp.ID, "", techDir)).To(Equal(bizerror.ErrStageNotReady))

		Expect(finance.SendToTechDir(fp.ID, "ready", financier)).To(BeNil())
		Expect(finance.TechDirConfirm(fp.ID, "ok", techDir)).To(BeNil())

		saved := domain.FinancePart{}
		Expect(testDatabase.DS.GormDB().Where("id = ?", fp.ID).First(&saved).Error).To(BeNil())
		Expect(saved.SendToTechDir).To(BeTrue())
		Expect(saved.TechDirConfirm).To(BeTrue())

		status, err := actionlog.StatusOf(fp.FullID())
		Expect(err).To(BeNil())
		Expect(status.LatestAction).To(Equal(phase.KeyTechDirConfirmed))
	})

	t.Run("refusal resets the hand-over and notifies the submitter", func(t *testing.T) {
		defer teardown(t, testDatabase)
		p, handledRecords := setup(t, &testDatabase)

		financier := testinfra.BuildSecCtx(20, authority.CapFinancier)
		fp, err := finance.CreateFinancePart(&domain.FinancePartCreating{
			ProjectID: p.ID, PartNo: "1", Name: "survey", Price: 1000}, financier)
		Expect(err).To(BeNil())
		Expect(finance.SendToTechDir(fp.ID, "", financier)).To(BeNil())

		techDir := testinfra.BuildSecCtx(40, authority.CapTechDir)
		Expect(finance.TechDirRefuse(fp.ID, "no budget line", techDir)).To(BeNil())

		saved := domain.FinancePart{}
		Expect(testDatabase.DS.GormDB().Where("id = ?", fp.ID).First(&saved).Error).To(BeNil())
		Expect(saved.SendToTechDir).To(BeFalse())
		Expect(saved.TechDirConfirm).To(BeFalse())

		refusal := (*handledRecords)[len(*handledRecords)-1]
		Expect(refusal.PhaseKey).To(Equal(phase.KeyTechDirRefused))
		Expect(refusal.IsRefusal).To(BeTrue())
		Expect(refusal.NotifyToID).To(Equal(types.ID(20)))

		// the part can be re-submitted after rework
		Expect(finance.SendToTechDir(fp.ID, "fixed", financier)).To(BeNil())
		Expect(finance.TechDirConfirm(fp.ID, "", techDir)).To(BeNil())
	})

	t.Run("only a technical director may decide", func(t *testing.T) {
		defer teardown(t, testDatabase)
		p, _ := setup(t, &testDatabase)

		financier := testinfra.BuildSecCtx(20, authority.CapFinancier)
		fp, err := finance.CreateFinancePart(&domain.FinancePartCreating{
			ProjectID: p.ID, PartNo: "1", Name: "survey", Price: 1000}, financier)
		Expect(err).To(BeNil())
		Expect(finance.SendToTechDir(fp.ID, "", financier)).To(BeNil())

		Expect(finance.TechDirConfirm(fp.ID, "", financier)).To(Equal(bizerror.ErrForbidden))
	})
}

func TestQueryFinanceParts(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("gip sees confirmed parts only", func(t *testing.T) {
		defer teardown(t, testDatabase)
		p, _ := setup(t, &testDatabase)

		financier := testinfra.BuildSecCtx(20, authority.CapFinancier)
		fp1, err := finance.CreateFinancePart(&domain.FinancePartCreating{
			ProjectID: p.ID, PartNo: "1", Name: "survey", Price: 1000}, financier)
		Expect(err).To(BeNil())
		_, err = finance.CreateFinancePart(&domain.FinancePartCreating{
			ProjectID: p.ID, PartNo: "2", Name: "design", Price: 2000}, financier)
		Expect(err).To(BeNil())

		Expect(finance.SendToTechDir(fp1.ID, "", financier)).To(BeNil())
		Expect(finance.TechDirConfirm(fp1.ID, "", testinfra.BuildSecCtx(40, authority.CapTechDir))).To(BeNil())

		all, err := finance.QueryFinanceParts(p.ID, testinfra.BuildSecCtx(40, authority.CapTechDir))
		Expect(err).To(BeNil())
		Expect(len(all)).To(Equal(2))

		visible, err := finance.QueryFinanceParts(p.ID, testinfra.BuildSecCtx(30, authority.CapGip))
		Expect(err).To(BeNil())
		Expect(len(visible)).To(Equal(1))
		Expect(visible[0].ID).To(Equal(fp1.ID))

		_, err = finance.QueryFinanceParts(p.ID, testinfra.BuildSecCtx(99, authority.CapFinancier))
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})
}

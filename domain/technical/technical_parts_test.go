package technical_test

import (
	"testing"

	"stagegate/account"
	"stagegate/audit"
	"stagegate/authority"
	"stagegate/bizerror"
	"stagegate/domain"
	"stagegate/domain/actionlog"
	"stagegate/domain/phase"
	"stagegate/domain/technical"
	"stagegate/persistence"
	"stagegate/session"
	"stagegate/testinfra"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	. "github.com/onsi/gomega"
)

func setup(t *testing.T, testDatabase **testinfra.TestDatabase) (*domain.FinancePart, *[]actionlog.ActionLog) {
	db := testinfra.StartMysqlTestDatabase("stagegate")
	*testDatabase = db
	Expect(db.DS.GormDB().AutoMigrate(&domain.Project{}, &domain.FinancePart{}, &domain.TechnicalPart{},
		&account.User{}, &phase.PhaseType{}, &actionlog.ActionLog{}, &actionlog.ObjectLastStatus{}).Error).To(BeNil())

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

	Expect(db.DS.GormDB().Create(&domain.Project{ID: 12, Name: "bridge",
		FinancierID: 20, GipID: 30, CreatorID: 10}).Error).To(BeNil())
	fp := domain.FinancePart{ID: 3, ProjectID: 12, PartNo: "1", Name: "survey",
		SendToTechDir: true, TechDirConfirm: true, CreatorID: 20}
	Expect(db.DS.GormDB().Create(&fp).Error).To(BeNil())
	return &fp, &handledRecords
}

func teardown(t *testing.T, testDatabase *testinfra.TestDatabase) {
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func TestCreateTechnicalPart(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("assigned gip creates under a confirmed finance part", func(t *testing.T) {
		defer teardown(t, testDatabase)
		fp, handledRecords := setup(t, &testDatabase)

		gip := testinfra.BuildSecCtx(30, authority.CapGip)
		tp, err := technical.CreateTechnicalPart(&domain.TechnicalPartCreating{
			FinancePartID: fp.ID, PartNo: "1.1", Name: "geodesy", HeadID: 50}, gip)
		Expect(err).To(BeNil())
		Expect(tp.ProjectID).To(Equal(types.ID(12)))
		Expect(tp.FullID()).To(Equal("12/3/" + tp.ID.String() + "/"))

		created := (*handledRecords)[len(*handledRecords)-1]
		Expect(created.PhaseKey).To(Equal(phase.KeyCreated))
		Expect(created.NotifyToID).To(Equal(types.ID(50)))
		Expect(created.PathType).To(Equal(domain.PathTypeTechPart))
	})

	t.Run("should refuse before the technical director confirms", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		pending := domain.FinancePart{ID: 4, ProjectID: 12, PartNo: "2", Name: "design"}
		Expect(testDatabase.DS.GormDB().Create(&pending).Error).To(BeNil())

		_, err := technical.CreateTechnicalPart(&domain.TechnicalPartCreating{
			FinancePartID: pending.ID, PartNo: "2.1", Name: "drafting", HeadID: 50},
			testinfra.BuildSecCtx(30, authority.CapGip))
		Expect(err).To(Equal(bizerror.ErrStageNotReady))
	})

	t.Run("other gips are rejected", func(t *testing.T) {
		defer teardown(t, testDatabase)
		fp, _ := setup(t, &testDatabase)

		_, err := technical.CreateTechnicalPart(&domain.TechnicalPartCreating{
			FinancePartID: fp.ID, PartNo: "1.1", Name: "geodesy", HeadID: 50},
			testinfra.BuildSecCtx(31, authority.CapGip))
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})
}

func TestHeadDecision(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("assigned head confirms, others are rejected", func(t *testing.T) {
		defer teardown(t, testDatabase)
		fp, _ := setup(t, &testDatabase)

		tp, err := technical.CreateTechnicalPart(&domain.TechnicalPartCreating{
			FinancePartID: fp.ID, PartNo: "1.1", Name: "geodesy", HeadID: 50},
			testinfra.BuildSecCtx(30, authority.CapGip))
		Expect(err).To(BeNil())

		Expect(technical.HeadConfirm(tp.ID, "", testinfra.BuildSecCtx(51, authority.CapNachOtdel))).
			To(Equal(bizerror.ErrForbidden))
		Expect(technical.HeadConfirm(tp.ID, "", testinfra.BuildSecCtx(50, authority.CapStaff))).
			To(Equal(bizerror.ErrForbidden))

		Expect(technical.HeadConfirm(tp.ID, "taking it", testinfra.BuildSecCtx(50, authority.CapNachOtdel))).To(BeNil())
		saved := domain.TechnicalPart{}
		Expect(testDatabase.DS.GormDB().Where("id = ?", tp.ID).First(&saved).Error).To(BeNil())
		Expect(saved.HeadConfirm).To(BeTrue())

		status, err := actionlog.StatusOf(tp.FullID())
		Expect(err).To(BeNil())
		Expect(status.LatestAction).To(Equal(phase.KeyHeadConfirmed))
	})

	t.Run("refusal notifies the planning gip and resets the flag", func(t *testing.T) {
		defer teardown(t, testDatabase)
		fp, handledRecords := setup(t, &testDatabase)

		tp, err := technical.CreateTechnicalPart(&domain.TechnicalPartCreating{
			FinancePartID: fp.ID, PartNo: "1.1", Name: "geodesy", HeadID: 50},
			testinfra.BuildSecCtx(30, authority.CapGip))
		Expect(err).To(BeNil())
		head := testinfra.BuildSecCtx(50, authority.CapNachOtdel)
		Expect(technical.HeadConfirm(tp.ID, "", head)).To(BeNil())

		Expect(technical.HeadRefuse(tp.ID, "capacity is gone", head)).To(BeNil())

		saved := domain.TechnicalPart{}
		Expect(testDatabase.DS.GormDB().Where("id = ?", tp.ID).First(&saved).Error).To(BeNil())
		Expect(saved.HeadConfirm).To(BeFalse())

		refusal := (*handledRecords)[len(*handledRecords)-1]
		Expect(refusal.PhaseKey).To(Equal(phase.KeyTechPartRefused))
		Expect(refusal.NotifyToID).To(Equal(types.ID(30)))
	})
}

func TestQueryTechnicalParts(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("department heads see their own parts only", func(t *testing.T) {
		defer teardown(t, testDatabase)
		fp, _ := setup(t, &testDatabase)

		gip := testinfra.BuildSecCtx(30, authority.CapGip)
		tp1, err := technical.CreateTechnicalPart(&domain.TechnicalPartCreating{
			FinancePartID: fp.ID, PartNo: "1.1", Name: "geodesy", HeadID: 50}, gip)
		Expect(err).To(BeNil())
		_, err = technical.CreateTechnicalPart(&domain.TechnicalPartCreating{
			FinancePartID: fp.ID, PartNo: "1.2", Name: "soil", HeadID: 51}, gip)
		Expect(err).To(BeNil())

		all, err := technical.QueryTechnicalParts(fp.ID, gip)
		Expect(err).To(BeNil())
		Expect(len(all)).To(Equal(2))

		own, err := technical.QueryTechnicalParts(fp.ID, testinfra.BuildSecCtx(50, authority.CapNachOtdel))
		Expect(err).To(BeNil())
		Expect(len(own)).To(Equal(1))
		Expect(own[0].ID).To(Equal(tp1.ID))

		_, err = technical.QueryTechnicalParts(fp.ID, testinfra.BuildSecCtx(60, authority.CapStaff))
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})
}

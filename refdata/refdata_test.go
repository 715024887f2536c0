package refdata_test

import (
	"testing"

	"stagegate/authority"
	"stagegate/bizerror"
	"stagegate/domain"
	"stagegate/persistence"
	"stagegate/refdata"
	"stagegate/testinfra"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func setupRefData(t *testing.T, testDatabase **testinfra.TestDatabase) {
	db := testinfra.StartMysqlTestDatabase("stagegate")
	*testDatabase = db
	Expect(db.DS.GormDB().AutoMigrate(&domain.Currency{}, &domain.Partner{},
		&domain.Translation{}, &domain.Project{}).Error).To(BeNil())
	persistence.ActiveDataSourceManager = db.DS
}

func teardownRefData(t *testing.T, testDatabase *testinfra.TestDatabase) {
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func TestDefaultCurrencyConfiguration(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("seeds the default currency once", func(t *testing.T) {
		defer teardownRefData(t, testDatabase)
		setupRefData(t, &testDatabase)

		Expect(refdata.DefaultCurrencyConfiguration()).To(BeNil())
		Expect(refdata.DefaultCurrencyConfiguration()).To(BeNil())

		records, err := refdata.QueryCurrencies(testinfra.BuildSecCtx(10, authority.CapStaff))
		Expect(err).To(BeNil())
		Expect(records).To(HaveLen(1))
		Expect(records[0].Name).To(Equal(domain.DefaultCurrencyName))
	})

	t.Run("currency names are unique", func(t *testing.T) {
		defer teardownRefData(t, testDatabase)
		setupRefData(t, &testDatabase)

		admin := testinfra.BuildSecCtx(1, authority.CapAdmin)
		_, err := refdata.CreateCurrency(&refdata.CurrencyCreating{Name: "USD"}, admin)
		Expect(err).To(BeNil())
		_, err = refdata.CreateCurrency(&refdata.CurrencyCreating{Name: "USD"}, admin)
		Expect(err).To(Equal(bizerror.ErrDuplicated))

		_, err = refdata.CreateCurrency(&refdata.CurrencyCreating{Name: "EUR"},
			testinfra.BuildSecCtx(10, authority.CapFinancier))
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})
}

func TestPartners(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("finance director may manage partners, delete is admin-only", func(t *testing.T) {
		defer teardownRefData(t, testDatabase)
		setupRefData(t, &testDatabase)

		finDir := testinfra.BuildSecCtx(10, authority.CapFinDir)
		partner, err := refdata.CreatePartner(&refdata.PartnerCreating{Name: "stroyinvest",
			Inn: "301234567"}, finDir)
		Expect(err).To(BeNil())

		_, err = refdata.CreatePartner(&refdata.PartnerCreating{Name: "stroyinvest"}, finDir)
		Expect(err).To(Equal(bizerror.ErrDuplicated))

		Expect(refdata.UpdatePartner(partner.ID, &refdata.PartnerUpdating{Inn: "309999999"},
			finDir)).To(BeNil())
		Expect(refdata.DeletePartner(partner.ID, finDir)).To(Equal(bizerror.ErrForbidden))

		admin := testinfra.BuildSecCtx(1, authority.CapAdmin)
		db := testDatabase.DS.GormDB()
		Expect(db.Create(&domain.Project{ID: 12, Name: "bridge", PartnerID: partner.ID}).Error).To(BeNil())
		Expect(refdata.DeletePartner(partner.ID, admin)).To(Equal(bizerror.ErrForbidden))

		Expect(db.Model(&domain.Project{}).Where("id = ?", 12).
			Update("partner_id", 0).Error).To(BeNil())
		Expect(refdata.DeletePartner(partner.ID, admin)).To(BeNil())
	})
}

func TestSaveTranslation(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("upserts by key", func(t *testing.T) {
		defer teardownRefData(t, testDatabase)
		setupRefData(t, &testDatabase)

		admin := testinfra.BuildSecCtx(1, authority.CapAdmin)
		created, err := refdata.SaveTranslation(&refdata.TranslationSaving{Key: "menu.projects",
			En: "Projects", Ru: "Проекты"}, admin)
		Expect(err).To(BeNil())
		Expect(created.ID).ToNot(BeZero())

		another := testinfra.BuildSecCtx(2, authority.CapAdmin)
		updated, err := refdata.SaveTranslation(&refdata.TranslationSaving{Key: "menu.projects",
			En: "Projects", Ru: "Проекты", Uz: "Loyihalar"}, another)
		Expect(err).To(BeNil())
		Expect(updated.ID).To(Equal(created.ID))
		Expect(updated.Uz).To(Equal("Loyihalar"))
		Expect(updated.TranslatedByID).To(Equal(types.ID(2)))

		records, err := refdata.QueryTranslations(testinfra.BuildSecCtx(10, authority.CapStaff))
		Expect(err).To(BeNil())
		Expect(records).To(HaveLen(1))

		Expect(refdata.DeleteTranslation(created.ID, testinfra.BuildSecCtx(10, authority.CapStaff))).
			To(Equal(bizerror.ErrForbidden))
		Expect(refdata.DeleteTranslation(created.ID, admin)).To(BeNil())
	})
}

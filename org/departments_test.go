package org_test

import (
	"testing"

	"stagegate/account"
	"stagegate/authority"
	"stagegate/bizerror"
	"stagegate/common"
	"stagegate/domain"
	"stagegate/org"
	"stagegate/persistence"
	"stagegate/session"
	"stagegate/testinfra"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func setupOrg(t *testing.T, testDatabase **testinfra.TestDatabase) {
	db := testinfra.StartMysqlTestDatabase("stagegate")
	*testDatabase = db
	Expect(db.DS.GormDB().AutoMigrate(&domain.Department{}, &domain.JobPosition{},
		&account.User{}).Error).To(BeNil())

	persistence.ActiveDataSourceManager = db.DS
	org.QueryDepartmentsFunc = org.QueryDepartments
}

func teardownOrg(t *testing.T, testDatabase *testinfra.TestDatabase) {
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func TestCreateDepartment(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("only admins may manage departments", func(t *testing.T) {
		defer teardownOrg(t, testDatabase)
		setupOrg(t, &testDatabase)

		sec := testinfra.BuildSecCtx(10, authority.CapFinDir)
		_, err := org.CreateDepartment(&org.DepartmentCreating{Name: "design"}, sec)
		Expect(err).To(Equal(bizerror.ErrForbidden))
		Expect(org.UpdateDepartment(1, &org.DepartmentUpdating{Name: "x"}, sec)).
			To(Equal(bizerror.ErrForbidden))
		Expect(org.DeleteDepartment(1, sec)).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("name must be unique and parent must exist", func(t *testing.T) {
		defer teardownOrg(t, testDatabase)
		setupOrg(t, &testDatabase)

		admin := testinfra.BuildSecCtx(1, authority.CapAdmin)
		record, err := org.CreateDepartment(&org.DepartmentCreating{Name: "design"}, admin)
		Expect(err).To(BeNil())
		Expect(record.ID).ToNot(BeZero())
		Expect(record.CreatorID).To(Equal(types.ID(1)))

		_, err = org.CreateDepartment(&org.DepartmentCreating{Name: "design"}, admin)
		Expect(err).To(Equal(bizerror.ErrDuplicated))

		_, err = org.CreateDepartment(&org.DepartmentCreating{Name: "orphan", ParentID: 404}, admin)
		Expect(err).To(Equal(bizerror.ErrNotFound))

		child, err := org.CreateDepartment(&org.DepartmentCreating{Name: "graphics",
			ParentID: record.ID}, admin)
		Expect(err).To(BeNil())
		Expect(child.ParentID).To(Equal(record.ID))
	})

	t.Run("department can not become its own parent", func(t *testing.T) {
		defer teardownOrg(t, testDatabase)
		setupOrg(t, &testDatabase)

		admin := testinfra.BuildSecCtx(1, authority.CapAdmin)
		record, err := org.CreateDepartment(&org.DepartmentCreating{Name: "design"}, admin)
		Expect(err).To(BeNil())

		err = org.UpdateDepartment(record.ID, &org.DepartmentUpdating{ParentID: &record.ID}, admin)
		_, ok := err.(*common.ErrBadParam)
		Expect(ok).To(BeTrue())
	})
}

func TestDeleteDepartment(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("refuses while the department is still referenced", func(t *testing.T) {
		defer teardownOrg(t, testDatabase)
		setupOrg(t, &testDatabase)

		admin := testinfra.BuildSecCtx(1, authority.CapAdmin)
		parent, err := org.CreateDepartment(&org.DepartmentCreating{Name: "design"}, admin)
		Expect(err).To(BeNil())
		child, err := org.CreateDepartment(&org.DepartmentCreating{Name: "graphics",
			ParentID: parent.ID}, admin)
		Expect(err).To(BeNil())

		err = org.DeleteDepartment(parent.ID, admin)
		Expect(err).ToNot(BeNil())
		Expect(err.Error()).To(ContainSubstring("child departments"))

		db := testDatabase.DS.GormDB()
		Expect(db.Create(&account.User{ID: 20, Name: "ann", IsActive: true,
			DepartmentID: child.ID}).Error).To(BeNil())
		err = org.DeleteDepartment(child.ID, admin)
		Expect(err).ToNot(BeNil())
		Expect(err.Error()).To(ContainSubstring("staff members"))

		Expect(db.Model(&account.User{}).Where("id = ?", 20).
			Update("department_id", 0).Error).To(BeNil())
		Expect(org.DeleteDepartment(child.ID, admin)).To(BeNil())
		Expect(org.DeleteDepartment(parent.ID, admin)).To(BeNil())
	})
}

func TestDepartmentTree(t *testing.T) {
	RegisterTestingT(t)

	t.Run("assembles rows into a forest", func(t *testing.T) {
		org.QueryDepartmentsFunc = func(sec *session.Session) ([]domain.Department, error) {
			return []domain.Department{
				{ID: 1, Name: "engineering"},
				{ID: 2, Name: "construction", ParentID: 1},
				{ID: 3, Name: "electrical", ParentID: 1},
				{ID: 4, Name: "cabling", ParentID: 3},
				{ID: 5, Name: "finance"},
				{ID: 6, Name: "lost", ParentID: 404},
			}, nil
		}
		defer func() { org.QueryDepartmentsFunc = org.QueryDepartments }()

		roots, err := org.DepartmentTree(testinfra.BuildSecCtx(10, authority.CapStaff))
		Expect(err).To(BeNil())
		Expect(roots).To(HaveLen(3))

		Expect(roots[0].Name).To(Equal("engineering"))
		Expect(roots[0].Children).To(HaveLen(2))
		Expect(roots[0].Children[1].Name).To(Equal("electrical"))
		Expect(roots[0].Children[1].Children).To(HaveLen(1))
		Expect(roots[0].Children[1].Children[0].Name).To(Equal("cabling"))

		Expect(roots[1].Name).To(Equal("finance"))
		Expect(roots[1].Children).To(BeEmpty())

		Expect(roots[2].Name).To(Equal("lost"))
	})
}

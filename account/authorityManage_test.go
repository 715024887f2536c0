package account_test

import (
	"testing"

	"stagegate/account"
	"stagegate/authority"
	"stagegate/bizerror"
	"stagegate/persistence"
	"stagegate/testinfra"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func setupAuthority(t *testing.T, testDatabase **testinfra.TestDatabase) {
	db := testinfra.StartMysqlTestDatabase("stagegate")
	*testDatabase = db
	Expect(db.DS.GormDB().AutoMigrate(&account.User{}, &authority.Role{},
		&authority.RoleCapabilityBinding{}).Error).To(BeNil())

	persistence.ActiveDataSourceManager = db.DS
	Expect(account.DefaultSecurityConfiguration()).To(BeNil())
}

func teardownAuthority(t *testing.T, testDatabase *testinfra.TestDatabase) {
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func TestDefaultSecurityConfiguration(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should seed the builtin admin and be repeatable", func(t *testing.T) {
		defer teardownAuthority(t, testDatabase)
		setupAuthority(t, &testDatabase)
		Expect(account.DefaultSecurityConfiguration()).To(BeNil())

		perms, roleName, err := account.LoadPerms(1)
		Expect(err).To(BeNil())
		Expect(roleName).To(Equal("system-admin"))
		Expect(perms.HasCapability(authority.CapAdmin)).To(BeTrue())

		admin := account.User{}
		Expect(testDatabase.DS.GormDB().Where("id = ?", 1).First(&admin).Error).To(BeNil())
		Expect(admin.IsSuperuser).To(BeTrue())
		Expect(admin.IsActive).To(BeTrue())
	})
}

func TestLoadPerms(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should reflect user state", func(t *testing.T) {
		defer teardownAuthority(t, testDatabase)
		setupAuthority(t, &testDatabase)

		_, _, err := account.LoadPerms(404)
		Expect(err).To(Equal(bizerror.ErrUnauthenticated))

		db := testDatabase.DS.GormDB()
		Expect(db.Create(&account.User{ID: 2, Name: "ann", IsActive: false}).Error).To(BeNil())
		_, _, err = account.LoadPerms(2)
		Expect(err).To(Equal(bizerror.ErrForbidden))

		Expect(db.Create(&account.User{ID: 3, Name: "bob", IsActive: true}).Error).To(BeNil())
		perms, roleName, err := account.LoadPerms(3)
		Expect(err).To(BeNil())
		Expect(roleName).To(BeZero())
		Expect(perms).To(BeEmpty())
	})
}

func TestRoleManagement(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("role CRUD is admin-only", func(t *testing.T) {
		defer teardownAuthority(t, testDatabase)
		setupAuthority(t, &testDatabase)

		staff := testinfra.BuildSecCtx(10, authority.CapStaff)
		_, err := account.CreateRole(&account.RoleCreation{Name: "financiers"}, staff)
		Expect(err).To(Equal(bizerror.ErrForbidden))
		_, err = account.QueryRoles(staff)
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should reject unknown capabilities", func(t *testing.T) {
		defer teardownAuthority(t, testDatabase)
		setupAuthority(t, &testDatabase)

		admin := testinfra.BuildSecCtx(1, authority.CapAdmin)
		_, err := account.CreateRole(&account.RoleCreation{Name: "financiers",
			Capabilities: []string{"IS_WIZARD"}}, admin)
		Expect(err).To(Equal(bizerror.ErrUnknownCapability))
	})

	t.Run("create, update and delete a role", func(t *testing.T) {
		defer teardownAuthority(t, testDatabase)
		setupAuthority(t, &testDatabase)

		admin := testinfra.BuildSecCtx(1, authority.CapAdmin)
		detail, err := account.CreateRole(&account.RoleCreation{Name: "financiers",
			Capabilities: []string{authority.CapFinancier}}, admin)
		Expect(err).To(BeNil())
		Expect(detail.Capabilities).To(Equal([]string{authority.CapFinancier}))

		_, err = account.CreateRole(&account.RoleCreation{Name: "financiers"}, admin)
		Expect(err).To(Equal(bizerror.ErrDuplicated))

		Expect(account.UpdateRole(detail.ID, &account.RoleUpdating{
			Capabilities: []string{authority.CapFinancier, authority.CapStaff}}, admin)).To(BeNil())

		db := testDatabase.DS.GormDB()
		Expect(db.Create(&account.User{ID: 5, Name: "carol", IsActive: true, RoleID: detail.ID}).Error).To(BeNil())
		perms, _, err := account.LoadPerms(5)
		Expect(err).To(BeNil())
		Expect(perms.HasCapability(authority.CapStaff)).To(BeTrue())

		Expect(account.DeleteRole(detail.ID, admin)).To(BeNil())
		holder := account.User{}
		Expect(db.Where("id = ?", 5).First(&holder).Error).To(BeNil())
		Expect(holder.RoleID).To(Equal(types.ID(0)))
	})

	t.Run("builtin admin role can not be deleted", func(t *testing.T) {
		defer teardownAuthority(t, testDatabase)
		setupAuthority(t, &testDatabase)

		admin := testinfra.BuildSecCtx(1, authority.CapAdmin)
		Expect(account.DeleteRole(1, admin)).To(Equal(bizerror.ErrSuperuserProtected))
	})
}

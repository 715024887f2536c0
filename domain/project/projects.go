package project

import (
	"errors"

	"stagegate/audit"
	"stagegate/authority"
	"stagegate/bizerror"
	"stagegate/domain"
	"stagegate/domain/actionlog"
	"stagegate/domain/phase"
	"stagegate/idgen"
	"stagegate/persistence"
	"stagegate/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	projectIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateProjectFunc = CreateProject
	UpdateProjectFunc = UpdateProject
	QueryProjectsFunc = QueryProjects

	FinancierConfirmFunc = FinancierConfirm
	FinancierRefuseFunc  = FinancierRefuse
	GipConfirmFunc       = GipConfirm
)

// CreateProject opens the pipeline: the project is created with a financier
// assigned and immediately handed to them for review.
func CreateProject(c *domain.ProjectCreating, sec *session.Session) (*domain.Project, error) {
	if !sec.Perms.HasAnyCapability(authority.CapFinDir, authority.CapAdmin) {
		return nil, bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	var record *actionlog.ActionLog

	now := types.CurrentTimestamp()
	p := domain.Project{
		ID:             idgen.NextID(projectIdWorker),
		Name:           c.Name,
		ContractNumber: c.ContractNumber,
		TotalPrice:     c.TotalPrice,
		CurrencyID:     c.CurrencyID,
		StartDate:      c.StartDate,
		EndDate:        c.EndDate,
		FinancierID:    c.FinancierID,
		GipID:          c.GipID,
		PartnerID:      c.PartnerID,
		CreatorID:      sec.Identity.ID,
		CreateTime:     now,
		UpdateTime:     now,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		existing := domain.Project{}
		err := tx.Where(&domain.Project{Name: c.Name}).First(&existing).Error
		if err == nil {
			return bizerror.ErrDuplicated
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}

		record, err = actionlog.RecordActionFunc(tx, &actionlog.Recording{
			FullID:   p.FullID(),
			PathType: p.PathType(),
			PhaseKey: phase.KeySentToFinancier,
			NotifyTo: p.FinancierID,
		}, sec)
		if err != nil {
			return err
		}

		return audit.CreateRecordFunc(tx, audit.SourceProject, p.ID, p.Name,
			audit.CategoryCreated, snapshotOfProject(&p, tx), &sec.Identity)
	})
	if err != nil {
		return nil, err
	}

	if actionlog.InvokeHandlersFunc != nil {
		actionlog.InvokeHandlersFunc(record)
	}
	return &p, nil
}

func UpdateProject(id types.ID, u *domain.ProjectUpdating, sec *session.Session) error {
	db := persistence.ActiveDataSourceManager.GormDB()
	return db.Transaction(func(tx *gorm.DB) error {
		p := domain.Project{}
		if err := tx.Where(&domain.Project{ID: id}).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bizerror.ErrNotFound
			}
			return err
		}
		if p.CreatorID != sec.Identity.ID && !sec.Perms.HasCapability(authority.CapAdmin) {
			return bizerror.ErrForbidden
		}

		changes := map[string]interface{}{"update_time": types.CurrentTimestamp()}
		if u.Name != "" {
			changes["name"] = u.Name
		}
		if u.ContractNumber != "" {
			changes["contract_number"] = u.ContractNumber
		}
		if u.TotalPrice != 0 {
			changes["total_price"] = u.TotalPrice
		}
		if u.CurrencyID != 0 {
			changes["currency_id"] = u.CurrencyID
		}
		if u.StartDate != "" {
			changes["start_date"] = u.StartDate
		}
		if u.EndDate != "" {
			changes["end_date"] = u.EndDate
		}
		if u.FinancierID != 0 {
			changes["financier_id"] = u.FinancierID
		}
		if u.GipID != 0 {
			changes["gip_id"] = u.GipID
		}
		if u.PartnerID != 0 {
			changes["partner_id"] = u.PartnerID
		}
		if err := tx.Model(&domain.Project{}).Where("id = ?", id).
			Updates(changes).Error; err != nil {
			return err
		}

		updated := domain.Project{}
		if err := tx.Where(&domain.Project{ID: id}).First(&updated).Error; err != nil {
			return err
		}
		return audit.CreateRecordFunc(tx, audit.SourceProject, updated.ID, updated.Name,
			audit.CategoryPropertyUpdated, snapshotOfProject(&updated, tx), &sec.Identity)
	})
}

// QueryProjects scopes the listing to what the caller's capabilities allow:
// directors and admins see everything, the rest see their own assignments.
func QueryProjects(q *domain.ProjectQuery, sec *session.Session) ([]domain.Project, error) {
	db := persistence.ActiveDataSourceManager.TracedGormDB(sec.Context)

	query := db.Model(&domain.Project{})
	if q.Name != "" {
		query = query.Where("name like ?", "%"+q.Name+"%")
	}

	switch {
	case sec.Perms.HasAnyCapability(authority.CapAdmin, authority.CapFinDir, authority.CapTechDir):
		// full visibility
	case sec.Perms.HasCapability(authority.CapFinancier):
		query = query.Where("financier_id = ?", sec.Identity.ID)
	case sec.Perms.HasCapability(authority.CapGip):
		query = query.Where("gip_id = ?", sec.Identity.ID)
	case sec.Perms.HasCapability(authority.CapNachOtdel):
		query = query.Where("id IN (?)", db.Model(&domain.TechnicalPart{}).
			Select("project_id").Where("head_id = ?", sec.Identity.ID).QueryExpr())
	case sec.Perms.HasCapability(authority.CapStaff):
		query = query.Where("id IN (?)", db.Model(&domain.WorkOrder{}).
			Select("project_id").Where("staff_id = ?", sec.Identity.ID).QueryExpr())
	default:
		return []domain.Project{}, nil
	}

	var projects []domain.Project
	if err := query.Order("create_time DESC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// FinancierConfirm is restricted to the assigned financier.
func FinancierConfirm(id types.ID, comment string, sec *session.Session) error {
	return financierDecision(id, comment, true, sec)
}

// FinancierRefuse writes a refusal phase notifying the project creator and
// drops the project back to pending.
func FinancierRefuse(id types.ID, comment string, sec *session.Session) error {
	return financierDecision(id, comment, false, sec)
}

func financierDecision(id types.ID, comment string, confirm bool, sec *session.Session) error {
	if !sec.Perms.HasCapability(authority.CapFinancier) {
		return bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	var record *actionlog.ActionLog

	err := db.Transaction(func(tx *gorm.DB) error {
		p := domain.Project{}
		if err := tx.Where(&domain.Project{ID: id}).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bizerror.ErrNotFound
			}
			return err
		}
		if p.FinancierID != sec.Identity.ID {
			return bizerror.ErrForbidden
		}

		changes := map[string]interface{}{
			"financier_confirm": confirm,
			"update_time":       types.CurrentTimestamp(),
		}
		phaseKey := phase.KeyFinancierRefused
		recording := actionlog.Recording{
			FullID:   p.FullID(),
			PathType: p.PathType(),
			Comment:  comment,
		}
		if confirm {
			phaseKey = phase.KeyFinancierConfirmed
			changes["financier_confirm_time"] = types.CurrentTimestamp()
		} else {
			recording.NotifyTo = p.CreatorID
		}
		recording.PhaseKey = phaseKey

		if err := tx.Model(&domain.Project{}).Where("id = ?", id).
			Updates(changes).Error; err != nil {
			return err
		}

		var err error
		record, err = actionlog.RecordActionFunc(tx, &recording, sec)
		return err
	})
	if err != nil {
		return err
	}

	if actionlog.InvokeHandlersFunc != nil {
		actionlog.InvokeHandlersFunc(record)
	}
	return nil
}

// GipConfirm is restricted to the assigned GIP and requires the financier
// review to be settled first.
func GipConfirm(id types.ID, comment string, sec *session.Session) error {
	if !sec.Perms.HasCapability(authority.CapGip) {
		return bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	var record *actionlog.ActionLog

	err := db.Transaction(func(tx *gorm.DB) error {
		p := domain.Project{}
		if err := tx.Where(&domain.Project{ID: id}).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bizerror.ErrNotFound
			}
			return err
		}
		if p.GipID != sec.Identity.ID {
			return bizerror.ErrForbidden
		}
		if !p.FinancierConfirm {
			return bizerror.ErrStageNotReady
		}

		if err := tx.Model(&domain.Project{}).Where("id = ?", id).Updates(map[string]interface{}{
			"gip_confirm":      true,
			"gip_confirm_time": types.CurrentTimestamp(),
			"update_time":      types.CurrentTimestamp(),
		}).Error; err != nil {
			return err
		}

		var err error
		record, err = actionlog.RecordActionFunc(tx, &actionlog.Recording{
			FullID:   p.FullID(),
			PathType: p.PathType(),
			PhaseKey: phase.KeyGipConfirmed,
			Comment:  comment,
		}, sec)
		return err
	})
	if err != nil {
		return err
	}

	if actionlog.InvokeHandlersFunc != nil {
		actionlog.InvokeHandlersFunc(record)
	}
	return nil
}

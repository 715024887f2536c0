package technical

import (
	"errors"
	"strconv"

	"stagegate/account"
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
	technicalPartIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateTechnicalPartFunc = CreateTechnicalPart
	UpdateTechnicalPartFunc = UpdateTechnicalPart
	QueryTechnicalPartsFunc = QueryTechnicalParts
	HeadConfirmFunc         = HeadConfirm
	HeadRefuseFunc          = HeadRefuse
)

// CreateTechnicalPart is a GIP operation, allowed only under finance parts the
// technical director has confirmed.
func CreateTechnicalPart(c *domain.TechnicalPartCreating, sec *session.Session) (*domain.TechnicalPart, error) {
	if !sec.Perms.HasAnyCapability(authority.CapGip, authority.CapAdmin) {
		return nil, bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	var record *actionlog.ActionLog
	var tp domain.TechnicalPart

	err := db.Transaction(func(tx *gorm.DB) error {
		fp := domain.FinancePart{}
		if err := tx.Where(&domain.FinancePart{ID: c.FinancePartID}).First(&fp).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bizerror.ErrNotFound
			}
			return err
		}
		if !fp.TechDirConfirm {
			return bizerror.ErrStageNotReady
		}

		p := domain.Project{}
		if err := tx.Where(&domain.Project{ID: fp.ProjectID}).First(&p).Error; err != nil {
			return err
		}
		if p.GipID != sec.Identity.ID && !sec.Perms.HasCapability(authority.CapAdmin) {
			return bizerror.ErrForbidden
		}

		tp = domain.TechnicalPart{
			ID:            idgen.NextID(technicalPartIdWorker),
			FinancePartID: fp.ID,
			ProjectID:     fp.ProjectID,
			PartNo:        c.PartNo,
			Name:          c.Name,
			HeadID:        c.HeadID,
			StartDate:     c.StartDate,
			FinishDate:    c.FinishDate,
			CreatorID:     sec.Identity.ID,
			CreateTime:    types.CurrentTimestamp(),
		}
		if err := tx.Create(&tp).Error; err != nil {
			return err
		}

		var err error
		record, err = actionlog.RecordActionFunc(tx, &actionlog.Recording{
			FullID:   tp.FullID(),
			PathType: tp.PathType(),
			PhaseKey: phase.KeyCreated,
			NotifyTo: tp.HeadID,
		}, sec)
		if err != nil {
			return err
		}

		return audit.CreateRecordFunc(tx, audit.SourceTechnicalPart, tp.ID, tp.Name,
			audit.CategoryCreated, snapshotOfTechnicalPart(&tp, tx), &sec.Identity)
	})
	if err != nil {
		return nil, err
	}

	if actionlog.InvokeHandlersFunc != nil {
		actionlog.InvokeHandlersFunc(record)
	}
	return &tp, nil
}

func UpdateTechnicalPart(id types.ID, u *domain.TechnicalPartUpdating, sec *session.Session) error {
	db := persistence.ActiveDataSourceManager.GormDB()
	return db.Transaction(func(tx *gorm.DB) error {
		tp, err := loadPartForGip(id, tx, sec)
		if err != nil {
			return err
		}

		changes := map[string]interface{}{}
		if u.PartNo != "" {
			changes["part_no"] = u.PartNo
		}
		if u.Name != "" {
			changes["name"] = u.Name
		}
		if u.HeadID != 0 {
			changes["head_id"] = u.HeadID
		}
		if u.StartDate != "" {
			changes["start_date"] = u.StartDate
		}
		if u.FinishDate != "" {
			changes["finish_date"] = u.FinishDate
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Model(&domain.TechnicalPart{}).Where("id = ?", tp.ID).
			Updates(changes).Error; err != nil {
			return err
		}

		updated := domain.TechnicalPart{}
		if err := tx.Where(&domain.TechnicalPart{ID: id}).First(&updated).Error; err != nil {
			return err
		}
		return audit.CreateRecordFunc(tx, audit.SourceTechnicalPart, updated.ID, updated.Name,
			audit.CategoryPropertyUpdated, snapshotOfTechnicalPart(&updated, tx), &sec.Identity)
	})
}

func QueryTechnicalParts(financePartId types.ID, sec *session.Session) ([]domain.TechnicalPart, error) {
	db := persistence.ActiveDataSourceManager.TracedGormDB(sec.Context)

	query := db.Where(&domain.TechnicalPart{FinancePartID: financePartId})
	switch {
	case sec.Perms.HasAnyCapability(authority.CapAdmin, authority.CapFinDir,
		authority.CapTechDir, authority.CapGip):
		// all parts
	case sec.Perms.HasCapability(authority.CapNachOtdel):
		query = query.Where("head_id = ?", sec.Identity.ID)
	default:
		return nil, bizerror.ErrForbidden
	}

	var parts []domain.TechnicalPart
	if err := query.Order("part_no ASC").Find(&parts).Error; err != nil {
		return nil, err
	}
	return parts, nil
}

// HeadConfirm is restricted to the department head the part is assigned to.
func HeadConfirm(id types.ID, comment string, sec *session.Session) error {
	return headDecision(id, comment, true, sec)
}

// HeadRefuse notifies the GIP who planned the part and drops it back to
// pending.
func HeadRefuse(id types.ID, comment string, sec *session.Session) error {
	return headDecision(id, comment, false, sec)
}

func headDecision(id types.ID, comment string, confirm bool, sec *session.Session) error {
	if !sec.Perms.HasCapability(authority.CapNachOtdel) {
		return bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	var record *actionlog.ActionLog

	err := db.Transaction(func(tx *gorm.DB) error {
		tp := domain.TechnicalPart{}
		if err := tx.Where(&domain.TechnicalPart{ID: id}).First(&tp).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bizerror.ErrNotFound
			}
			return err
		}
		if tp.HeadID != sec.Identity.ID {
			return bizerror.ErrForbidden
		}

		changes := map[string]interface{}{"head_confirm": confirm}
		recording := actionlog.Recording{
			FullID:   tp.FullID(),
			PathType: tp.PathType(),
			Comment:  comment,
		}
		if confirm {
			changes["head_confirm_time"] = types.CurrentTimestamp()
			recording.PhaseKey = phase.KeyHeadConfirmed
		} else {
			recording.PhaseKey = phase.KeyTechPartRefused
			recording.NotifyTo = tp.CreatorID
		}

		if err := tx.Model(&domain.TechnicalPart{}).Where("id = ?", id).
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

func loadPartForGip(id types.ID, tx *gorm.DB, sec *session.Session) (*domain.TechnicalPart, error) {
	tp := domain.TechnicalPart{}
	if err := tx.Where(&domain.TechnicalPart{ID: id}).First(&tp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}

	p := domain.Project{}
	if err := tx.Where(&domain.Project{ID: tp.ProjectID}).First(&p).Error; err != nil {
		return nil, err
	}
	if p.GipID != sec.Identity.ID && !sec.Perms.HasCapability(authority.CapAdmin) {
		return nil, bizerror.ErrForbidden
	}
	return &tp, nil
}

func snapshotOfTechnicalPart(tp *domain.TechnicalPart, db *gorm.DB) audit.Snapshot {
	return audit.Snapshot{
		"partNo":      tp.PartNo,
		"name":        tp.Name,
		"head":        headDesc(tp.HeadID, db),
		"startDate":   tp.StartDate,
		"finishDate":  tp.FinishDate,
		"headConfirm": strconv.FormatBool(tp.HeadConfirm),
	}
}

func headDesc(id types.ID, db *gorm.DB) string {
	if id == 0 {
		return ""
	}
	record := account.User{}
	if err := db.Where(&account.User{ID: id}).First(&record).Error; err != nil {
		return id.String()
	}
	return record.DisplayName()
}

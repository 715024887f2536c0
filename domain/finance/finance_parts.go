package finance

import (
	"errors"
	"strconv"

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
	financePartIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateFinancePartFunc = CreateFinancePart
	UpdateFinancePartFunc = UpdateFinancePart
	QueryFinancePartsFunc = QueryFinanceParts
	SendToTechDirFunc     = SendToTechDir
	TechDirConfirmFunc    = TechDirConfirm
	TechDirRefuseFunc     = TechDirRefuse
)

// CreateFinancePart partitions a project financially. Only the assigned
// financier (or an admin) may carve parts out of their project.
func CreateFinancePart(c *domain.FinancePartCreating, sec *session.Session) (*domain.FinancePart, error) {
	db := persistence.ActiveDataSourceManager.GormDB()
	var record *actionlog.ActionLog

	now := types.CurrentTimestamp()
	fp := domain.FinancePart{
		ID:         idgen.NextID(financePartIdWorker),
		ProjectID:  c.ProjectID,
		PartNo:     c.PartNo,
		Name:       c.Name,
		Price:      c.Price,
		StartDate:  c.StartDate,
		FinishDate: c.FinishDate,
		CreatorID:  sec.Identity.ID,
		CreateTime: now,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		p := domain.Project{}
		if err := tx.Where(&domain.Project{ID: c.ProjectID}).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bizerror.ErrNotFound
			}
			return err
		}
		if p.FinancierID != sec.Identity.ID && !sec.Perms.HasCapability(authority.CapAdmin) {
			return bizerror.ErrForbidden
		}

		var count uint64
		if err := tx.Model(&domain.FinancePart{}).
			Where("project_id = ? AND (part_no = ? OR name = ?)", c.ProjectID, c.PartNo, c.Name).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return bizerror.ErrDuplicated
		}
		if err := tx.Create(&fp).Error; err != nil {
			return err
		}

		var err error
		record, err = actionlog.RecordActionFunc(tx, &actionlog.Recording{
			FullID:   fp.FullID(),
			PathType: fp.PathType(),
			PhaseKey: phase.KeyCreated,
		}, sec)
		if err != nil {
			return err
		}

		return audit.CreateRecordFunc(tx, audit.SourceFinancePart, fp.ID, fp.Name,
			audit.CategoryCreated, snapshotOfFinancePart(&fp), &sec.Identity)
	})
	if err != nil {
		return nil, err
	}

	if actionlog.InvokeHandlersFunc != nil {
		actionlog.InvokeHandlersFunc(record)
	}
	return &fp, nil
}

func UpdateFinancePart(id types.ID, u *domain.FinancePartUpdating, sec *session.Session) error {
	db := persistence.ActiveDataSourceManager.GormDB()
	return db.Transaction(func(tx *gorm.DB) error {
		if _, err := loadPartForFinancier(id, tx, sec); err != nil {
			return err
		}

		changes := map[string]interface{}{}
		if u.PartNo != "" {
			changes["part_no"] = u.PartNo
		}
		if u.Name != "" {
			changes["name"] = u.Name
		}
		if u.Price != 0 {
			changes["price"] = u.Price
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
		if err := tx.Model(&domain.FinancePart{}).Where("id = ?", id).
			Updates(changes).Error; err != nil {
			return err
		}

		updated := domain.FinancePart{}
		if err := tx.Where(&domain.FinancePart{ID: id}).First(&updated).Error; err != nil {
			return err
		}
		return audit.CreateRecordFunc(tx, audit.SourceFinancePart, updated.ID, updated.Name,
			audit.CategoryPropertyUpdated, snapshotOfFinancePart(&updated), &sec.Identity)
	})
}

func QueryFinanceParts(projectId types.ID, sec *session.Session) ([]domain.FinancePart, error) {
	db := persistence.ActiveDataSourceManager.TracedGormDB(sec.Context)

	p := domain.Project{}
	if err := db.Where(&domain.Project{ID: projectId}).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}

	query := db.Where(&domain.FinancePart{ProjectID: projectId})
	switch {
	case sec.Perms.HasAnyCapability(authority.CapAdmin, authority.CapFinDir, authority.CapTechDir):
		// all parts
	case sec.Perms.HasCapability(authority.CapFinancier):
		if p.FinancierID != sec.Identity.ID {
			return nil, bizerror.ErrForbidden
		}
	case sec.Perms.HasCapability(authority.CapGip):
		query = query.Where("tech_dir_confirm = ?", true)
	default:
		return nil, bizerror.ErrForbidden
	}

	var parts []domain.FinancePart
	if err := query.Order("part_no ASC").Find(&parts).Error; err != nil {
		return nil, err
	}
	return parts, nil
}

// SendToTechDir hands a finance part over for technical-director review.
func SendToTechDir(id types.ID, comment string, sec *session.Session) error {
	db := persistence.ActiveDataSourceManager.GormDB()
	var record *actionlog.ActionLog

	err := db.Transaction(func(tx *gorm.DB) error {
		fp, err := loadPartForFinancier(id, tx, sec)
		if err != nil {
			return err
		}

		if err := tx.Model(&domain.FinancePart{}).Where("id = ?", id).Updates(map[string]interface{}{
			"send_to_tech_dir":      true,
			"send_to_tech_dir_time": types.CurrentTimestamp(),
		}).Error; err != nil {
			return err
		}

		record, err = actionlog.RecordActionFunc(tx, &actionlog.Recording{
			FullID:   fp.FullID(),
			PathType: fp.PathType(),
			PhaseKey: phase.KeySentToTechDir,
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

func TechDirConfirm(id types.ID, comment string, sec *session.Session) error {
	return techDirDecision(id, comment, true, sec)
}

// TechDirRefuse resets the hand-over flag and notifies the financier who
// submitted the part; the part re-enters the pending state.
func TechDirRefuse(id types.ID, comment string, sec *session.Session) error {
	return techDirDecision(id, comment, false, sec)
}

func techDirDecision(id types.ID, comment string, confirm bool, sec *session.Session) error {
	if !sec.Perms.HasCapability(authority.CapTechDir) {
		return bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	var record *actionlog.ActionLog

	err := db.Transaction(func(tx *gorm.DB) error {
		fp := domain.FinancePart{}
		if err := tx.Where(&domain.FinancePart{ID: id}).First(&fp).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bizerror.ErrNotFound
			}
			return err
		}
		if !fp.SendToTechDir {
			return bizerror.ErrStageNotReady
		}

		changes := map[string]interface{}{}
		recording := actionlog.Recording{
			FullID:   fp.FullID(),
			PathType: fp.PathType(),
			Comment:  comment,
		}
		if confirm {
			changes["tech_dir_confirm"] = true
			changes["tech_dir_confirm_time"] = types.CurrentTimestamp()
			recording.PhaseKey = phase.KeyTechDirConfirmed
		} else {
			changes["send_to_tech_dir"] = false
			changes["tech_dir_confirm"] = false
			recording.PhaseKey = phase.KeyTechDirRefused
			recording.NotifyTo = fp.CreatorID
		}

		if err := tx.Model(&domain.FinancePart{}).Where("id = ?", id).
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

func loadPartForFinancier(id types.ID, tx *gorm.DB, sec *session.Session) (*domain.FinancePart, error) {
	fp := domain.FinancePart{}
	if err := tx.Where(&domain.FinancePart{ID: id}).First(&fp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}

	p := domain.Project{}
	if err := tx.Where(&domain.Project{ID: fp.ProjectID}).First(&p).Error; err != nil {
		return nil, err
	}
	if p.FinancierID != sec.Identity.ID && !sec.Perms.HasCapability(authority.CapAdmin) {
		return nil, bizerror.ErrForbidden
	}
	return &fp, nil
}

func snapshotOfFinancePart(fp *domain.FinancePart) audit.Snapshot {
	return audit.Snapshot{
		"partNo":         fp.PartNo,
		"name":           fp.Name,
		"price":          strconv.FormatInt(fp.Price, 10),
		"startDate":      fp.StartDate,
		"finishDate":     fp.FinishDate,
		"sendToTechDir":  strconv.FormatBool(fp.SendToTechDir),
		"techDirConfirm": strconv.FormatBool(fp.TechDirConfirm),
	}
}

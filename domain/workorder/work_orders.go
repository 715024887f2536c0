package workorder

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
	workOrderIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateWorkOrderFunc = CreateWorkOrder
	UpdateWorkOrderFunc = UpdateWorkOrder
	QueryWorkOrdersFunc = QueryWorkOrders

	StaffConfirmFunc      = StaffConfirm
	StaffRefuseFunc       = StaffRefuse
	CompleteWorkOrderFunc = CompleteWorkOrder

	FinishedConfirmFunc = FinishedConfirm
	FinishedRefuseFunc  = FinishedRefuse
	FinishedUnlockFunc  = FinishedUnlock

	HoldWorkOrderFunc   = HoldWorkOrder
	UnholdWorkOrderFunc = UnholdWorkOrder
)

// CreateWorkOrder is a department-head operation, allowed only under
// technical parts the head has confirmed. The assigned staff member is
// notified through the action log.
func CreateWorkOrder(c *domain.WorkOrderCreating, sec *session.Session) (*domain.WorkOrder, error) {
	if !sec.Perms.HasAnyCapability(authority.CapNachOtdel, authority.CapAdmin) {
		return nil, bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	var record *actionlog.ActionLog
	var wo domain.WorkOrder

	err := db.Transaction(func(tx *gorm.DB) error {
		tp := domain.TechnicalPart{}
		if err := tx.Where(&domain.TechnicalPart{ID: c.TechnicalPartID}).First(&tp).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bizerror.ErrNotFound
			}
			return err
		}
		if !tp.HeadConfirm {
			return bizerror.ErrStageNotReady
		}
		if tp.HeadID != sec.Identity.ID && !sec.Perms.HasCapability(authority.CapAdmin) {
			return bizerror.ErrForbidden
		}

		wo = domain.WorkOrder{
			ID:              idgen.NextID(workOrderIdWorker),
			TechnicalPartID: tp.ID,
			FinancePartID:   tp.FinancePartID,
			ProjectID:       tp.ProjectID,
			No:              c.No,
			Name:            c.Name,
			StartDate:       c.StartDate,
			FinishDate:      c.FinishDate,
			StaffID:         c.StaffID,
			Remark:          c.Remark,
			CreatorID:       sec.Identity.ID,
			CreateTime:      types.CurrentTimestamp(),
		}
		if err := tx.Create(&wo).Error; err != nil {
			return err
		}

		var err error
		record, err = actionlog.RecordActionFunc(tx, &actionlog.Recording{
			FullID:   wo.FullID(),
			PathType: wo.PathType(),
			PhaseKey: phase.KeyWorkOrderCreated,
			NotifyTo: wo.StaffID,
		}, sec)
		if err != nil {
			return err
		}

		return audit.CreateRecordFunc(tx, audit.SourceWorkOrder, wo.ID, wo.Name,
			audit.CategoryCreated, snapshotOfWorkOrder(&wo, tx), &sec.Identity)
	})
	if err != nil {
		return nil, err
	}

	if actionlog.InvokeHandlersFunc != nil {
		actionlog.InvokeHandlersFunc(record)
	}
	return &wo, nil
}

func UpdateWorkOrder(id types.ID, u *domain.WorkOrderUpdating, sec *session.Session) error {
	db := persistence.ActiveDataSourceManager.GormDB()
	return db.Transaction(func(tx *gorm.DB) error {
		wo, err := loadOrder(id, tx)
		if err != nil {
			return err
		}
		if wo.CreatorID != sec.Identity.ID && !sec.Perms.HasCapability(authority.CapAdmin) {
			return bizerror.ErrForbidden
		}
		if wo.Finished {
			return bizerror.ErrStageNotReady
		}

		changes := map[string]interface{}{}
		if u.No != 0 {
			changes["no"] = u.No
		}
		if u.Name != "" {
			changes["name"] = u.Name
		}
		if u.StartDate != "" {
			changes["start_date"] = u.StartDate
		}
		if u.FinishDate != "" {
			changes["finish_date"] = u.FinishDate
		}
		if u.StaffID != 0 {
			changes["staff_id"] = u.StaffID
		}
		if u.Remark != "" {
			changes["remark"] = u.Remark
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Model(&domain.WorkOrder{}).Where("id = ?", id).
			Updates(changes).Error; err != nil {
			return err
		}

		updated, err := loadOrder(id, tx)
		if err != nil {
			return err
		}
		return audit.CreateRecordFunc(tx, audit.SourceWorkOrder, updated.ID, updated.Name,
			audit.CategoryPropertyUpdated, snapshotOfWorkOrder(updated, tx), &sec.Identity)
	})
}

func QueryWorkOrders(technicalPartId types.ID, sec *session.Session) ([]domain.WorkOrder, error) {
	db := persistence.ActiveDataSourceManager.TracedGormDB(sec.Context)

	query := db.Where(&domain.WorkOrder{TechnicalPartID: technicalPartId})
	switch {
	case sec.Perms.HasAnyCapability(authority.CapAdmin, authority.CapFinDir,
		authority.CapTechDir, authority.CapGip, authority.CapNachOtdel):
		// all orders
	case sec.Perms.HasCapability(authority.CapStaff):
		query = query.Where("staff_id = ?", sec.Identity.ID)
	default:
		return nil, bizerror.ErrForbidden
	}

	var orders []domain.WorkOrder
	if err := query.Order("no ASC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// StaffConfirm acknowledges the assignment.
func StaffConfirm(id types.ID, comment string, sec *session.Session) error {
	return staffDecision(id, comment, true, sec)
}

// StaffRefuse notifies the head who issued the order.
func StaffRefuse(id types.ID, comment string, sec *session.Session) error {
	return staffDecision(id, comment, false, sec)
}

func staffDecision(id types.ID, comment string, confirm bool, sec *session.Session) error {
	if !sec.Perms.HasCapability(authority.CapStaff) {
		return bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	var record *actionlog.ActionLog

	err := db.Transaction(func(tx *gorm.DB) error {
		wo, err := loadOrder(id, tx)
		if err != nil {
			return err
		}
		if wo.StaffID != sec.Identity.ID {
			return bizerror.ErrForbidden
		}

		changes := map[string]interface{}{"staff_confirm": confirm}
		recording := actionlog.Recording{
			FullID:   wo.FullID(),
			PathType: wo.PathType(),
			Comment:  comment,
		}
		if confirm {
			changes["staff_confirm_time"] = types.CurrentTimestamp()
			recording.PhaseKey = phase.KeyStaffConfirmed
		} else {
			recording.PhaseKey = phase.KeyWorkOrderRefused
			recording.NotifyTo = wo.CreatorID
		}

		if err := tx.Model(&domain.WorkOrder{}).Where("id = ?", id).
			Updates(changes).Error; err != nil {
			return err
		}

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

// CompleteWorkOrder files the staff answer; the order stays unfinished until
// the head confirms it.
func CompleteWorkOrder(id types.ID, c *domain.WorkOrderCompletion, sec *session.Session) error {
	if !sec.Perms.HasCapability(authority.CapStaff) {
		return bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	var record *actionlog.ActionLog

	err := db.Transaction(func(tx *gorm.DB) error {
		wo, err := loadOrder(id, tx)
		if err != nil {
			return err
		}
		if wo.StaffID != sec.Identity.ID {
			return bizerror.ErrForbidden
		}
		if !wo.StaffConfirm {
			return bizerror.ErrStageNotReady
		}

		if err := tx.Model(&domain.WorkOrder{}).Where("id = ?", id).Updates(map[string]interface{}{
			"answer":      c.Answer,
			"answer_time": types.CurrentTimestamp(),
			"finished":    false,
		}).Error; err != nil {
			return err
		}

		record, err = actionlog.RecordActionFunc(tx, &actionlog.Recording{
			FullID:   wo.FullID(),
			PathType: wo.PathType(),
			PhaseKey: phase.KeyWorkOrderCompleted,
			Comment:  c.Answer,
			NotifyTo: wo.CreatorID,
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

func FinishedConfirm(id types.ID, comment string, sec *session.Session) error {
	return finishedDecision(id, comment, phase.KeyFinishedConfirmed, sec)
}

// FinishedRefuse sends the order back to the staff member for rework.
func FinishedRefuse(id types.ID, comment string, sec *session.Session) error {
	return finishedDecision(id, comment, phase.KeyFinishedRefused, sec)
}

// FinishedUnlock reopens a finished order so the answer can be amended.
func FinishedUnlock(id types.ID, comment string, sec *session.Session) error {
	return finishedDecision(id, comment, phase.KeyFinishedUnlocked, sec)
}

func finishedDecision(id types.ID, comment string, phaseKey string, sec *session.Session) error {
	if !sec.Perms.HasAnyCapability(authority.CapNachOtdel, authority.CapAdmin) {
		return bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	var record *actionlog.ActionLog

	err := db.Transaction(func(tx *gorm.DB) error {
		wo, err := loadOrder(id, tx)
		if err != nil {
			return err
		}
		if wo.CreatorID != sec.Identity.ID && !sec.Perms.HasCapability(authority.CapAdmin) {
			return bizerror.ErrForbidden
		}

		changes := map[string]interface{}{}
		recording := actionlog.Recording{
			FullID:   wo.FullID(),
			PathType: wo.PathType(),
			PhaseKey: phaseKey,
			Comment:  comment,
		}
		switch phaseKey {
		case phase.KeyFinishedConfirmed:
			if wo.Answer == "" {
				return bizerror.ErrStageNotReady
			}
			changes["finished"] = true
			changes["finished_time"] = types.CurrentTimestamp()
		case phase.KeyFinishedRefused:
			changes["finished"] = false
			recording.NotifyTo = wo.StaffID
		case phase.KeyFinishedUnlocked:
			if !wo.Finished {
				return bizerror.ErrStageNotReady
			}
			changes["finished"] = false
			recording.NotifyTo = wo.StaffID
		}

		if err := tx.Model(&domain.WorkOrder{}).Where("id = ?", id).
			Updates(changes).Error; err != nil {
			return err
		}

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

// HoldWorkOrder parks an order waiting on somebody else; no workflow phase is
// involved, only the flags and the audit trail.
func HoldWorkOrder(id types.ID, reason string, holdedFor types.ID, sec *session.Session) error {
	return holdDecision(id, true, reason, holdedFor, sec)
}

func UnholdWorkOrder(id types.ID, sec *session.Session) error {
	return holdDecision(id, false, "", 0, sec)
}

func holdDecision(id types.ID, hold bool, reason string, holdedFor types.ID, sec *session.Session) error {
	db := persistence.ActiveDataSourceManager.GormDB()
	return db.Transaction(func(tx *gorm.DB) error {
		wo, err := loadOrder(id, tx)
		if err != nil {
			return err
		}
		if wo.CreatorID != sec.Identity.ID && wo.StaffID != sec.Identity.ID &&
			!sec.Perms.HasCapability(authority.CapAdmin) {
			return bizerror.ErrForbidden
		}

		if err := tx.Model(&domain.WorkOrder{}).Where("id = ?", id).Updates(map[string]interface{}{
			"holded":        hold,
			"holded_time":   types.CurrentTimestamp(),
			"holded_reason": reason,
			"holded_for_id": holdedFor,
		}).Error; err != nil {
			return err
		}

		updated, err := loadOrder(id, tx)
		if err != nil {
			return err
		}
		return audit.CreateRecordFunc(tx, audit.SourceWorkOrder, updated.ID, updated.Name,
			audit.CategoryPropertyUpdated, snapshotOfWorkOrder(updated, tx), &sec.Identity)
	})
}

func assertOrderAccess(wo *domain.WorkOrder, sec *session.Session) error {
	if sec.Perms.HasAnyCapability(authority.CapAdmin, authority.CapFinDir,
		authority.CapTechDir, authority.CapGip, authority.CapNachOtdel) {
		return nil
	}
	if wo.StaffID == sec.Identity.ID {
		return nil
	}
	return bizerror.ErrForbidden
}

func loadOrder(id types.ID, tx *gorm.DB) (*domain.WorkOrder, error) {
	wo := domain.WorkOrder{}
	if err := tx.Where(&domain.WorkOrder{ID: id}).First(&wo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}
	return &wo, nil
}

func snapshotOfWorkOrder(wo *domain.WorkOrder, db *gorm.DB) audit.Snapshot {
	return audit.Snapshot{
		"no":           strconv.Itoa(wo.No),
		"name":         wo.Name,
		"startDate":    wo.StartDate,
		"finishDate":   wo.FinishDate,
		"staff":        staffDesc(wo.StaffID, db),
		"staffConfirm": strconv.FormatBool(wo.StaffConfirm),
		"answer":       wo.Answer,
		"remark":       wo.Remark,
		"finished":     strconv.FormatBool(wo.Finished),
		"holded":       strconv.FormatBool(wo.Holded),
		"holdedReason": wo.HoldedReason,
	}
}

func staffDesc(id types.ID, db *gorm.DB) string {
	if id == 0 {
		return ""
	}
	record := account.User{}
	if err := db.Where(&account.User{ID: id}).First(&record).Error; err != nil {
		return id.String()
	}
	return record.DisplayName()
}

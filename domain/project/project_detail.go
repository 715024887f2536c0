package project

import (
	"errors"

	"stagegate/authority"
	"stagegate/bizerror"
	"stagegate/domain"
	"stagegate/domain/actionlog"
	"stagegate/message"
	"stagegate/persistence"
	"stagegate/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	DetailProjectFunc = DetailProject
	ProjectPhasesFunc = ProjectPhases
)

type WorkOrderBrief struct {
	domain.WorkOrder

	MessageCount uint64                 `json:"messageCount"`
	Status       *actionlog.StatusBrief `json:"status,omitempty"`
}

type TechnicalPartDetail struct {
	domain.TechnicalPart

	MessageCount uint64                 `json:"messageCount"`
	Status       *actionlog.StatusBrief `json:"status,omitempty"`
	WorkOrders   []WorkOrderBrief       `json:"workOrders"`
}

type FinancePartDetail struct {
	domain.FinancePart

	MessageCount   uint64                 `json:"messageCount"`
	Status         *actionlog.StatusBrief `json:"status,omitempty"`
	TechnicalParts []TechnicalPartDetail  `json:"technicalParts"`
}

type ProjectDetail struct {
	domain.Project

	CurrencyName  string `json:"currencyName"`
	PartnerName   string `json:"partnerName"`
	FinancierName string `json:"financierName"`
	GipName       string `json:"gipName"`

	MessageCount uint64                 `json:"messageCount"`
	Status       *actionlog.StatusBrief `json:"status,omitempty"`
	FinanceParts []FinancePartDetail    `json:"financeParts"`
}

// DetailProject assembles the nested project view. The subtree is filtered by
// what the caller is allowed to see: financiers get the finance level, GIPs
// get confirmed finance parts and their technical parts, department heads get
// their own technical parts, staff get their own work orders.
func DetailProject(id types.ID, sec *session.Session) (*ProjectDetail, error) {
	db := persistence.ActiveDataSourceManager.TracedGormDB(sec.Context)

	p := domain.Project{}
	if err := db.Where(&domain.Project{ID: id}).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}
	if !projectVisible(&p, sec, db) {
		return nil, bizerror.ErrForbidden
	}

	detail := ProjectDetail{
		Project:       p,
		CurrencyName:  currencyDesc(p.CurrencyID, db),
		PartnerName:   partnerDesc(p.PartnerID, db),
		FinancierName: userDesc(p.FinancierID, db),
		GipName:       userDesc(p.GipID, db),
		FinanceParts:  []FinancePartDetail{},
	}
	if err := attachStatus(&detail.MessageCount, &detail.Status, p.FullID(), db); err != nil {
		return nil, err
	}

	financeParts, err := visibleFinanceParts(&p, sec, db)
	if err != nil {
		return nil, err
	}

	for _, fp := range financeParts {
		fpDetail := FinancePartDetail{FinancePart: fp, TechnicalParts: []TechnicalPartDetail{}}
		if err := attachStatus(&fpDetail.MessageCount, &fpDetail.Status, fp.FullID(), db); err != nil {
			return nil, err
		}

		technicalParts, err := visibleTechnicalParts(&fp, sec, db)
		if err != nil {
			return nil, err
		}
		for _, tp := range technicalParts {
			tpDetail := TechnicalPartDetail{TechnicalPart: tp, WorkOrders: []WorkOrderBrief{}}
			if err := attachStatus(&tpDetail.MessageCount, &tpDetail.Status, tp.FullID(), db); err != nil {
				return nil, err
			}

			workOrders, err := visibleWorkOrders(&tp, sec, db)
			if err != nil {
				return nil, err
			}
			for _, wo := range workOrders {
				woBrief := WorkOrderBrief{WorkOrder: wo}
				if err := attachStatus(&woBrief.MessageCount, &woBrief.Status, wo.FullID(), db); err != nil {
					return nil, err
				}
				tpDetail.WorkOrders = append(tpDetail.WorkOrders, woBrief)
			}
			fpDetail.TechnicalParts = append(fpDetail.TechnicalParts, tpDetail)
		}
		detail.FinanceParts = append(detail.FinanceParts, fpDetail)
	}
	return &detail, nil
}

// ProjectPhases is the action timeline of the project itself, newest first.
func ProjectPhases(id types.ID, sec *session.Session) ([]actionlog.ActionLog, error) {
	db := persistence.ActiveDataSourceManager.GormDB()
	p := domain.Project{}
	if err := db.Where(&domain.Project{ID: id}).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}
	if !projectVisible(&p, sec, db) {
		return nil, bizerror.ErrForbidden
	}
	return actionlog.QueryActionsFunc(&actionlog.ActionQuery{FullID: p.FullID()}, sec)
}

func attachStatus(count *uint64, status **actionlog.StatusBrief, fullId string, db *gorm.DB) error {
	c, err := message.MessageCountOfFunc(fullId, db)
	if err != nil {
		return err
	}
	*count = c

	s, err := actionlog.StatusOfFunc(fullId)
	if err != nil {
		return err
	}
	*status = s
	return nil
}

func projectVisible(p *domain.Project, sec *session.Session, db *gorm.DB) bool {
	if sec.Perms.HasAnyCapability(authority.CapAdmin, authority.CapFinDir, authority.CapTechDir) {
		return true
	}
	if sec.Perms.HasCapability(authority.CapFinancier) && p.FinancierID == sec.Identity.ID {
		return true
	}
	if sec.Perms.HasCapability(authority.CapGip) && p.GipID == sec.Identity.ID {
		return true
	}
	if sec.Perms.HasCapability(authority.CapNachOtdel) {
		var count uint64
		db.Model(&domain.TechnicalPart{}).
			Where("project_id = ? AND head_id = ?", p.ID, sec.Identity.ID).Count(&count)
		if count > 0 {
			return true
		}
	}
	if sec.Perms.HasCapability(authority.CapStaff) {
		var count uint64
		db.Model(&domain.WorkOrder{}).
			Where("project_id = ? AND staff_id = ?", p.ID, sec.Identity.ID).Count(&count)
		if count > 0 {
			return true
		}
	}
	return false
}

func visibleFinanceParts(p *domain.Project, sec *session.Session, db *gorm.DB) ([]domain.FinancePart, error) {
	query := db.Where(&domain.FinancePart{ProjectID: p.ID})
	switch {
	case sec.Perms.HasAnyCapability(authority.CapAdmin, authority.CapFinDir, authority.CapTechDir):
		// all parts
	case sec.Perms.HasCapability(authority.CapFinancier):
		// the assigned financier works on all parts of their project
	case sec.Perms.HasCapability(authority.CapGip):
		query = query.Where("tech_dir_confirm = ?", true)
	case sec.Perms.HasCapability(authority.CapNachOtdel):
		query = query.Where("id IN (?)", db.Model(&domain.TechnicalPart{}).
			Select("finance_part_id").Where("head_id = ?", sec.Identity.ID).QueryExpr())
	case sec.Perms.HasCapability(authority.CapStaff):
		query = query.Where("id IN (?)", db.Model(&domain.WorkOrder{}).
			Select("finance_part_id").Where("staff_id = ?", sec.Identity.ID).QueryExpr())
	default:
		return []domain.FinancePart{}, nil
	}

	var parts []domain.FinancePart
	if err := query.Order("part_no ASC").Find(&parts).Error; err != nil {
		return nil, err
	}
	return parts, nil
}

func visibleTechnicalParts(fp *domain.FinancePart, sec *session.Session, db *gorm.DB) ([]domain.TechnicalPart, error) {
	query := db.Where(&domain.TechnicalPart{FinancePartID: fp.ID})
	switch {
	case sec.Perms.HasAnyCapability(authority.CapAdmin, authority.CapFinDir,
		authority.CapTechDir, authority.CapGip):
		// all parts
	case sec.Perms.HasCapability(authority.CapNachOtdel):
		query = query.Where("head_id = ?", sec.Identity.ID)
	case sec.Perms.HasCapability(authority.CapStaff):
		query = query.Where("id IN (?)", db.Model(&domain.WorkOrder{}).
			Select("technical_part_id").Where("staff_id = ?", sec.Identity.ID).QueryExpr())
	default:
		return []domain.TechnicalPart{}, nil
	}

	var parts []domain.TechnicalPart
	if err := query.Order("part_no ASC").Find(&parts).Error; err != nil {
		return nil, err
	}
	return parts, nil
}

func visibleWorkOrders(tp *domain.TechnicalPart, sec *session.Session, db *gorm.DB) ([]domain.WorkOrder, error) {
	query := db.Where(&domain.WorkOrder{TechnicalPartID: tp.ID})
	switch {
	case sec.Perms.HasAnyCapability(authority.CapAdmin, authority.CapFinDir,
		authority.CapTechDir, authority.CapGip, authority.CapNachOtdel):
		// all orders
	case sec.Perms.HasCapability(authority.CapStaff):
		query = query.Where("staff_id = ?", sec.Identity.ID)
	default:
		return []domain.WorkOrder{}, nil
	}

	var orders []domain.WorkOrder
	if err := query.Order("no ASC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

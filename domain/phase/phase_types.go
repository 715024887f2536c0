package phase

import (
	"stagegate/persistence"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

type PhaseType struct {
	ID          types.ID `json:"id" gorm:"primary_key"`
	Key         string   `json:"key" gorm:"unique_index:uni_phase_type_key"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	IsRefusal   bool     `json:"isRefusal"`
	Order       int      `json:"order" gorm:"column:display_order"`
}

func (t *PhaseType) TableName() string {
	return "phase_types"
}

const (
	KeyCreated            = "CREATED"
	KeySentToFinancier    = "SENT_TO_FINANCIER"
	KeyFinancierConfirmed = "FINANCIER_CONFIRMED"
	KeyFinancierRefused   = "FINANCIER_REFUSED"
	KeySentToTechDir      = "SENT_TO_TECH_DIR"
	KeyTechDirConfirmed   = "TECH_DIR_CONFIRMED"
	KeyTechDirRefused     = "TECH_DIR_REFUSED"
	KeyGipConfirmed       = "GIP_CONFIRMED"
	KeyHeadConfirmed      = "NACH_OTDEL_CONFIRMED"
	KeyTechPartRefused    = "TECH_PART_REFUSED"
	KeyWorkOrderCreated   = "WORK_ORDER_CREATED"
	KeyStaffConfirmed     = "STAFF_CONFIRMED"
	KeyWorkOrderRefused   = "WORK_ORDER_REFUSED"
	KeyWorkOrderCompleted = "WORK_ORDER_COMPLETED"
	KeyFinishedConfirmed  = "FINISHED_CONFIRMED"
	KeyFinishedRefused    = "FINISHED_REFUSED"
	KeyFinishedUnlocked   = "FINISHED_UNLOCKED"
)

var defaultPhaseTypes = []PhaseType{
	{ID: 1, Key: KeyCreated, Name: "Created", Order: 10},
	{ID: 2, Key: KeySentToFinancier, Name: "Sent to Financier", Order: 20},
	{ID: 3, Key: KeyFinancierConfirmed, Name: "Confirmed by Financier", Order: 30},
	{ID: 4, Key: KeyFinancierRefused, Name: "Refused by Financier", IsRefusal: true, Order: 40},
	{ID: 5, Key: KeySentToTechDir, Name: "Sent to Technical Director", Order: 50},
	{ID: 6, Key: KeyTechDirConfirmed, Name: "Confirmed by Technical Director", Order: 60},
	{ID: 7, Key: KeyTechDirRefused, Name: "Refused by Technical Director", IsRefusal: true, Order: 70},
	{ID: 8, Key: KeyGipConfirmed, Name: "Confirmed by GIP", Order: 80},
	{ID: 9, Key: KeyHeadConfirmed, Name: "Confirmed by Department Head", Order: 90},
	{ID: 10, Key: KeyTechPartRefused, Name: "Technical Part Refused", IsRefusal: true, Order: 100},
	{ID: 11, Key: KeyWorkOrderCreated, Name: "Work Order Created", Order: 110},
	{ID: 12, Key: KeyStaffConfirmed, Name: "Confirmed by Staff", Order: 120},
	{ID: 13, Key: KeyWorkOrderRefused, Name: "Work Order Refused", IsRefusal: true, Order: 130},
	{ID: 14, Key: KeyWorkOrderCompleted, Name: "Work Order Completed", Order: 140},
	{ID: 15, Key: KeyFinishedConfirmed, Name: "Finished Work Confirmed", Order: 150},
	{ID: 16, Key: KeyFinishedRefused, Name: "Finished Work Refused", IsRefusal: true, Order: 160},
	{ID: 17, Key: KeyFinishedUnlocked, Name: "Finished Work Unlocked", Order: 170},
}

var (
	FindPhaseTypeFunc   = FindPhaseType
	QueryPhaseTypesFunc = QueryPhaseTypes
)

// DefaultPhaseTypeConfiguration seeds the static phase catalogue. Admin
// configuration may extend it later; keys are never changed at runtime.
func DefaultPhaseTypeConfiguration() error {
	db := persistence.ActiveDataSourceManager.GormDB()
	for i := range defaultPhaseTypes {
		if err := db.Save(&defaultPhaseTypes[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// FindPhaseType returns nil without error when the key is not registered; the
// projection degrades to "UNKNOWN" in that case instead of failing the action.
func FindPhaseType(key string, db *gorm.DB) (*PhaseType, error) {
	phaseType := PhaseType{}
	if err := db.Where(&PhaseType{Key: key}).First(&phaseType).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &phaseType, nil
}

func QueryPhaseTypes() ([]PhaseType, error) {
	var phaseTypes []PhaseType
	db := persistence.ActiveDataSourceManager.GormDB()
	if err := db.Order("display_order ASC").Find(&phaseTypes).Error; err != nil {
		return nil, err
	}
	return phaseTypes, nil
}

package actionlog

import (
	"strconv"
	"strings"

	"stagegate/domain"
	"stagegate/persistence"
	"stagegate/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	QueryMyNotificationsFunc = QueryMyNotifications
	UnreadCountFunc          = UnreadCount
)

type NotificationBrief struct {
	ActionLog
	ObjectName string `json:"objectName"`
}

// QueryMyNotifications lists not-yet-acknowledged actions targeting the caller,
// newest first, with the target entity's display name resolved from the full id.
func QueryMyNotifications(sec *session.Session) ([]NotificationBrief, error) {
	db := persistence.ActiveDataSourceManager.GormDB()
	var records []ActionLog
	if err := db.Where("notify_to_id = ? AND identified = ?", sec.Identity.ID, false).
		Order("performed_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}

	briefs := make([]NotificationBrief, 0, len(records))
	for _, record := range records {
		briefs = append(briefs, NotificationBrief{
			ActionLog:  record,
			ObjectName: resolveObjectName(record.FullID, record.PathType, db),
		})
	}
	return briefs, nil
}

func UnreadCount(sec *session.Session) (uint64, error) {
	db := persistence.ActiveDataSourceManager.GormDB()
	var count uint64
	if err := db.Model(&ActionLog{}).
		Where("notify_to_id = ? AND identified = ?", sec.Identity.ID, false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// resolveObjectName degrades to an empty name on any failure; notification
// display never blocks on a stale or malformed full id.
func resolveObjectName(fullID, pathType string, db *gorm.DB) string {
	segments := strings.Split(strings.Trim(fullID, "/"), "/")
	if len(segments) == 0 {
		return ""
	}
	last, err := strconv.ParseUint(segments[len(segments)-1], 10, 64)
	if err != nil {
		return ""
	}
	id := types.ID(last)

	switch pathType {
	case domain.PathTypeProject:
		record := domain.Project{}
		if err := db.Where(&domain.Project{ID: id}).First(&record).Error; err == nil {
			return record.Name
		}
	case domain.PathTypeFinPart:
		record := domain.FinancePart{}
		if err := db.Where(&domain.FinancePart{ID: id}).First(&record).Error; err == nil {
			return record.Name
		}
	case domain.PathTypeTechPart:
		record := domain.TechnicalPart{}
		if err := db.Where(&domain.TechnicalPart{ID: id}).First(&record).Error; err == nil {
			return record.Name
		}
	case domain.PathTypeWorkOrder:
		record := domain.WorkOrder{}
		if err := db.Where(&domain.WorkOrder{ID: id}).First(&record).Error; err == nil {
			return record.Name
		}
	}
	return ""
}

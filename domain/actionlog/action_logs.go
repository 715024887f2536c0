package actionlog

import (
	"errors"

	"stagegate/bizerror"
	"stagegate/common"
	"stagegate/domain/phase"
	"stagegate/idgen"
	"stagegate/persistence"
	"stagegate/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

// projected latest_action when the phase key is not registered
const UnknownAction = "UNKNOWN"

var (
	actionIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	RecordActionFunc   = RecordAction
	StatusOfFunc       = StatusOf
	MarkIdentifiedFunc = MarkIdentified
	QueryActionsFunc   = QueryActions
	LoadActionLogsFunc = LoadActionLogs
)

// RecordAction appends the log row and synchronously upserts the ObjectLastStatus
// projection inside the caller's transaction: a committed action is never visible
// without its projection.
func RecordAction(tx *gorm.DB, r *Recording, sec *session.Session) (*ActionLog, error) {
	if r.FullID == "" || r.PathType == "" {
		return nil, &common.ErrBadParam{Cause: errors.New("full id and path type are required")}
	}

	phaseType, err := phase.FindPhaseTypeFunc(r.PhaseKey, tx)
	if err != nil {
		return nil, err
	}

	record := ActionLog{
		ID:       idgen.NextID(actionIdWorker),
		FullID:   r.FullID,
		PathType: r.PathType,
		PhaseKey: r.PhaseKey,
		Comment:  r.Comment,

		PerformedByID:   sec.Identity.ID,
		PerformedByName: sec.Identity.DisplayName(),
		PerformedAt:     types.CurrentTimestamp(),

		NotifyToID: r.NotifyTo,
	}
	latestAction := UnknownAction
	if phaseType != nil {
		record.PhaseName = phaseType.Name
		record.IsRefusal = phaseType.IsRefusal
		latestAction = phaseType.Key
	}

	if err := tx.Create(&record).Error; err != nil {
		return nil, err
	}
	if err := updateProjection(tx, &record, latestAction); err != nil {
		return nil, err
	}
	return &record, nil
}

// updateProjection upserts the single status row per full_id. Last write wins:
// concurrent recordings for the same full_id race on commit order.
func updateProjection(tx *gorm.DB, record *ActionLog, latestAction string) error {
	existing := ObjectLastStatus{}
	err := tx.Where(&ObjectLastStatus{FullID: record.FullID}).First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		status := ObjectLastStatus{
			ID:       idgen.NextID(actionIdWorker),
			FullID:   record.FullID,
			PathType: record.PathType,

			LatestAction:    latestAction,
			LatestPhaseName: record.PhaseName,
			UpdatedByID:     record.PerformedByID,
			UpdatedByName:   record.PerformedByName,
			Comment:         record.Comment,
			LastUpdated:     types.CurrentTimestamp(),
		}
		return tx.Create(&status).Error
	}

	// full_id identity is recycled if the underlying id sequence is ever reused
	// across entity types; refuse to project across levels instead of silently
	// overwriting.
	if existing.PathType != record.PathType {
		return bizerror.ErrPathTypeMismatch
	}

	return tx.Model(&ObjectLastStatus{}).Where("id = ?", existing.ID).Updates(map[string]interface{}{
		"latest_action":     latestAction,
		"latest_phase_name": record.PhaseName,
		"updated_by_id":     record.PerformedByID,
		"updated_by_name":   record.PerformedByName,
		"comment":           record.Comment,
		"last_updated":      types.CurrentTimestamp(),
	}).Error
}

// StatusOf returns nil when no action has ever been recorded for the full id.
func StatusOf(fullID string) (*StatusBrief, error) {
	db := persistence.ActiveDataSourceManager.GormDB()
	status := ObjectLastStatus{}
	if err := db.Where(&ObjectLastStatus{FullID: fullID}).First(&status).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &StatusBrief{
		LatestAction:    status.LatestAction,
		LatestPhaseName: status.LatestPhaseName,
		LastUpdated:     status.LastUpdated,
		UpdatedBy:       status.UpdatedByName,
		Comment:         status.Comment,
	}, nil
}

// MarkIdentified acknowledges a notification. Only the notified user may
// acknowledge; acknowledging twice is a no-op, not an error.
func MarkIdentified(id types.ID, sec *session.Session) error {
	db := persistence.ActiveDataSourceManager.GormDB()
	return db.Transaction(func(tx *gorm.DB) error {
		record := ActionLog{}
		if err := tx.Where(&ActionLog{ID: id}).First(&record).Error; err != nil {
			return err
		}
		if record.NotifyToID != sec.Identity.ID {
			return bizerror.ErrForbidden
		}
		if record.Identified {
			return nil
		}
		return tx.Model(&ActionLog{}).Where("id = ?", id).Updates(map[string]interface{}{
			"identified":      true,
			"identified_time": types.CurrentTimestamp(),
		}).Error
	})
}

type ActionQuery struct {
	FullID   string `form:"fullId" binding:"required"`
	PathType string `form:"pathType"`
}

// LoadActionLogs pages through the whole log table, oldest row first. Used by
// the index rebuild to re-feed the search index from the database.
func LoadActionLogs(page, pageSize int) ([]ActionLog, error) {
	db := persistence.ActiveDataSourceManager.GormDB()
	var records []ActionLog
	if err := db.Order("id ASC").Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func QueryActions(q *ActionQuery, sec *session.Session) ([]ActionLog, error) {
	db := persistence.ActiveDataSourceManager.GormDB()
	query := db.Where(&ActionLog{FullID: q.FullID})
	if q.PathType != "" {
		query = query.Where(&ActionLog{PathType: q.PathType})
	}
	var records []ActionLog
	if err := query.Order("performed_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

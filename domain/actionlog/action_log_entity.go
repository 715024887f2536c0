package actionlog

import (
	"github.com/fundwit/go-commons/types"
)

// ActionLog rows are append-only: once created the only permitted mutation is
// flipping Identified/IdentifiedTime when the notified user acknowledges.
type ActionLog struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	FullID   string `json:"fullId" gorm:"index:idx_action_logs_full_id"`
	PathType string `json:"pathType"`

	// phase snapshot at write time; the registry row may change later
	PhaseKey  string `json:"phaseKey"`
	PhaseName string `json:"phaseName"`
	IsRefusal bool   `json:"isRefusal"`

	Comment string `json:"comment" sql:"type:TEXT"`

	PerformedByID   types.ID        `json:"performedById"`
	PerformedByName string          `json:"performedByName"`
	PerformedAt     types.Timestamp `json:"performedAt" sql:"type:DATETIME(6)"`

	NotifyToID     types.ID        `json:"notifyToId"`
	Identified     bool            `json:"identified"`
	IdentifiedTime types.Timestamp `json:"identifiedTime" sql:"type:DATETIME(6)"`
}

func (l *ActionLog) TableName() string {
	return "action_logs"
}

// ObjectLastStatus is a materialized projection of the most recent ActionLog row
// per full_id, never a source of truth on its own.
type ObjectLastStatus struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	FullID   string `json:"fullId" gorm:"unique_index:uni_last_status_full_id"`
	PathType string `json:"pathType"`

	LatestAction    string `json:"latestAction"`
	LatestPhaseName string `json:"latestPhaseName"`

	UpdatedByID   types.ID `json:"updatedById"`
	UpdatedByName string   `json:"updatedByName"`
	Comment       string   `json:"comment" sql:"type:TEXT"`

	LastUpdated types.Timestamp `json:"lastUpdated" sql:"type:DATETIME(6)"`
}

func (s *ObjectLastStatus) TableName() string {
	return "object_last_status"
}

type Recording struct {
	FullID   string
	PathType string
	PhaseKey string
	Comment  string
	NotifyTo types.ID
}

type StatusBrief struct {
	LatestAction    string          `json:"latestAction"`
	LatestPhaseName string          `json:"latestPhaseName"`
	LastUpdated     types.Timestamp `json:"lastUpdated"`
	UpdatedBy       string          `json:"updatedBy"`
	Comment         string          `json:"comment"`
}

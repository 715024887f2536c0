package audit

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/fundwit/go-commons/types"
)

const (
	CategoryCreated         = "CREATED"
	CategoryPropertyUpdated = "PROPERTY_UPDATED"
)

const (
	SourceStaffUser     = "STAFF_USER"
	SourceProject       = "PROJECT"
	SourceFinancePart   = "FIN_PART"
	SourceTechnicalPart = "TECH_PART"
	SourceWorkOrder     = "WORK_ORDER"
)

type Category string

// Snapshot is the flattened state of an object at the moment of a change,
// with foreign keys already resolved to display names.
type Snapshot map[string]string

type Record struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	SourceType string   `json:"sourceType" gorm:"unique_index:source_time_unique"`
	SourceId   types.ID `json:"sourceId" gorm:"unique_index:source_time_unique"`
	SourceDesc string   `json:"sourceDesc"`

	Category Category `json:"category"`
	Snapshot Snapshot `json:"snapshot" sql:"type:TEXT"`

	CreatorId   types.ID `json:"creatorId"`
	CreatorName string   `json:"creatorName"`

	Timestamp types.Timestamp `json:"timestamp" sql:"type:DATETIME(6)" gorm:"unique_index:source_time_unique"`
}

func (r *Record) TableName() string {
	return "audit_records"
}

// RecordDetail is a record joined with the property changes computed
// against the previous snapshot of the same source.
type RecordDetail struct {
	Record

	UpdatedProperties []UpdatedProperty `json:"updatedProperties"`
}

type UpdatedProperty struct {
	PropertyName string `json:"propertyName"`

	OldValue     string `json:"oldValue"`
	OldValueDesc string `json:"oldValueDesc"`
	NewValue     string `json:"newValue"`
	NewValueDesc string `json:"newValueDesc"`
}

func (t Snapshot) Value() (driver.Value, error) {
	jsonBytes, err := json.Marshal(&t)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func (c *Snapshot) Scan(v interface{}) error {
	jsonString, ok := v.(string)
	if !ok {
		jsonByte, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("type is neither string nor []byte: %T %v", v, v)
		}
		jsonString = string(jsonByte)
	}
	return json.Unmarshal([]byte(jsonString), c)
}

package audit

import (
	"stagegate/idgen"
	"stagegate/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	recordIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateRecordFunc  = CreateRecord
	persistRecordFunc = persistRecord
)

func CreateRecord(db *gorm.DB, sourceType string, sourceId types.ID, sourceDesc string,
	category Category, snapshot Snapshot, identity *session.Identity) error {

	record := Record{
		ID: idgen.NextID(recordIdWorker),

		SourceType: sourceType,
		SourceId:   sourceId,
		SourceDesc: sourceDesc,

		Category: category,
		Snapshot: snapshot,

		CreatorId:   identity.ID,
		CreatorName: identity.Name,

		Timestamp: types.CurrentTimestamp(),
	}
	if err := persistRecordFunc(&record, db); err != nil {
		return err
	}

	if InvokeHandlersFunc != nil {
		InvokeHandlersFunc(&record)
	}
	return nil
}

func persistRecord(record *Record, db *gorm.DB) error {
	return db.Create(record).Error
}

// LoadRecords returns the audit trail of one object, oldest first, so that
// consecutive snapshots can be diffed.
func LoadRecords(sourceType string, sourceId types.ID, db *gorm.DB) ([]Record, error) {
	var records []Record
	if err := db.Where(&Record{SourceType: sourceType, SourceId: sourceId}).
		Order("timestamp ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

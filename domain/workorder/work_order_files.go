package workorder

import (
	"errors"
	"io"
	"io/ioutil"

	"stagegate/bizerror"
	"stagegate/client/s3"
	"stagegate/domain"
	"stagegate/idgen"
	"stagegate/persistence"
	"stagegate/session"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

// work order attachments are capped at 10 MB
const WorkOrderFileSizeLimit = 10 << 20

var (
	CreateWorkOrderFileFunc = CreateWorkOrderFile
	QueryWorkOrderFilesFunc = QueryWorkOrderFiles
	DetailWorkOrderFileFunc = DetailWorkOrderFile
)

type WorkOrderFileUploading struct {
	OriginalName string
	Size         int64
}

func CreateWorkOrderFile(workOrderId types.ID, u *WorkOrderFileUploading, r io.Reader,
	sec *session.Session) (*domain.WorkOrderFile, error) {
	if u.Size > WorkOrderFileSizeLimit {
		return nil, &bizerror.ErrFileTooLarge{Limit: WorkOrderFileSizeLimit, Size: u.Size}
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	wo, err := loadOrder(workOrderId, db)
	if err != nil {
		return nil, err
	}
	if err := assertOrderAccess(wo, sec); err != nil {
		return nil, err
	}

	record := domain.WorkOrderFile{
		ID:           idgen.NextID(workOrderIdWorker),
		WorkOrderID:  workOrderId,
		OriginalName: u.OriginalName,
		Size:         u.Size,
		UploadTime:   types.CurrentTimestamp(),
	}
	record.StorageKey = "work-order-files/" + workOrderId.String() + "/" + record.ID.String()

	if err := s3.PutObjectFunc(record.StorageKey, r, sec); err != nil {
		return nil, err
	}
	if err := db.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func QueryWorkOrderFiles(workOrderId types.ID, sec *session.Session) ([]domain.WorkOrderFile, error) {
	db := persistence.ActiveDataSourceManager.TracedGormDB(sec.Context)

	wo, err := loadOrder(workOrderId, db)
	if err != nil {
		return nil, err
	}
	if err := assertOrderAccess(wo, sec); err != nil {
		return nil, err
	}

	var records []domain.WorkOrderFile
	if err := db.Where(&domain.WorkOrderFile{WorkOrderID: workOrderId}).
		Order("upload_time ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func DetailWorkOrderFile(id types.ID, sec *session.Session) (*domain.WorkOrderFile, []byte, error) {
	db := persistence.ActiveDataSourceManager.GormDB()
	record := domain.WorkOrderFile{}
	if err := db.Where(&domain.WorkOrderFile{ID: id}).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, bizerror.ErrNotFound
		}
		return nil, nil, err
	}

	wo, err := loadOrder(record.WorkOrderID, db)
	if err != nil {
		return nil, nil, err
	}
	if err := assertOrderAccess(wo, sec); err != nil {
		return nil, nil, err
	}

	r, err := s3.GetObjectFunc(record.StorageKey, sec)
	if err != nil {
		if serErr, ok := err.(oss.ServiceError); ok && serErr.Code == "NoSuchKey" {
			return nil, nil, bizerror.ErrNotFound
		}
		return nil, nil, err
	}
	defer r.Close()
	content, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	return &record, content, nil
}

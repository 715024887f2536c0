package message

import (
	"io"
	"io/ioutil"

	"stagegate/bizerror"
	"stagegate/client/s3"
	"stagegate/idgen"
	"stagegate/persistence"
	"stagegate/session"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

// chat attachments are capped at 300 MB
const ChatFileSizeLimit = 300 << 20

var (
	CreateChatFileFunc = CreateChatFile
	QueryChatFilesFunc = QueryChatFiles
	DetailChatFileFunc = DetailChatFile
)

type ChatFileUploading struct {
	OriginalName string
	Size         int64
}

func CreateChatFile(taskId types.ID, u *ChatFileUploading, r io.Reader, sec *session.Session) (*ChatFile, error) {
	if u.Size > ChatFileSizeLimit {
		return nil, &bizerror.ErrFileTooLarge{Limit: ChatFileSizeLimit, Size: u.Size}
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	task := UserTask{}
	if err := db.Where(&UserTask{ID: taskId}).First(&task).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}
	if sec.Identity.ID != task.CreatorID && sec.Identity.ID != task.ReceiverID {
		return nil, bizerror.ErrForbidden
	}

	record := ChatFile{
		ID:               idgen.NextID(messageIdWorker),
		TaskID:           taskId,
		FileOriginalName: u.OriginalName,
		Size:             u.Size,
		SenderID:         sec.Identity.ID,
		UploadTime:       types.CurrentTimestamp(),
	}
	record.StorageKey = "chat-files/" + taskId.String() + "/" + record.ID.String()

	if err := s3.PutObjectFunc(record.StorageKey, r, sec); err != nil {
		return nil, err
	}
	if err := db.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func QueryChatFiles(taskId types.ID, sec *session.Session) ([]ChatFile, error) {
	db := persistence.ActiveDataSourceManager.TracedGormDB(sec.Context)

	task := UserTask{}
	if err := db.Where(&UserTask{ID: taskId}).First(&task).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}
	if sec.Identity.ID != task.CreatorID && sec.Identity.ID != task.ReceiverID {
		return nil, bizerror.ErrForbidden
	}

	var records []ChatFile
	if err := db.Where(&ChatFile{TaskID: taskId}).Order("upload_time ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func DetailChatFile(id types.ID, sec *session.Session) (*ChatFile, []byte, error) {
	db := persistence.ActiveDataSourceManager.GormDB()
	record := ChatFile{}
	if err := db.Where(&ChatFile{ID: id}).First(&record).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, nil, bizerror.ErrNotFound
		}
		return nil, nil, err
	}

	task := UserTask{}
	if err := db.Where(&UserTask{ID: record.TaskID}).First(&task).Error; err != nil {
		return nil, nil, err
	}
	if sec.Identity.ID != task.CreatorID && sec.Identity.ID != task.ReceiverID {
		return nil, nil, bizerror.ErrForbidden
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

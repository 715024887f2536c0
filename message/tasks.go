package message

import (
	"stagegate/bizerror"
	"stagegate/idgen"
	"stagegate/persistence"
	"stagegate/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	CreateUserTaskFunc    = CreateUserTask
	QueryMyTasksFunc      = QueryMyTasks
	MarkTaskDoneFunc      = MarkTaskDone
	CreateChatMessageFunc = CreateChatMessage
	QueryChatMessagesFunc = QueryChatMessages
)

func CreateUserTask(c *UserTaskCreating, sec *session.Session) (*UserTask, error) {
	db := persistence.ActiveDataSourceManager.GormDB()
	record := UserTask{
		ID:         idgen.NextID(messageIdWorker),
		Title:      c.Title,
		ReceiverID: c.ReceiverID,
		CreatorID:  sec.Identity.ID,
		CreateTime: types.CurrentTimestamp(),
	}
	if err := db.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func QueryMyTasks(sec *session.Session) ([]UserTask, error) {
	db := persistence.ActiveDataSourceManager.TracedGormDB(sec.Context)
	var records []UserTask
	if err := db.Where("receiver_id = ? OR creator_id = ?", sec.Identity.ID, sec.Identity.ID).
		Order("create_time DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// MarkTaskDone is receiver-only and idempotent.
func MarkTaskDone(id types.ID, sec *session.Session) error {
	db := persistence.ActiveDataSourceManager.GormDB()
	return db.Transaction(func(tx *gorm.DB) error {
		task := UserTask{}
		if err := tx.Where(&UserTask{ID: id}).First(&task).Error; err != nil {
			if gorm.IsRecordNotFoundError(err) {
				return bizerror.ErrNotFound
			}
			return err
		}
		if task.ReceiverID != sec.Identity.ID {
			return bizerror.ErrForbidden
		}
		if task.Done {
			return nil
		}
		return tx.Model(&UserTask{}).Where("id = ?", id).Updates(map[string]interface{}{
			"done":      true,
			"done_time": types.CurrentTimestamp(),
		}).Error
	})
}

func CreateChatMessage(taskId types.ID, c *ChatMessageCreating, sec *session.Session) (*ChatMessage, error) {
	db := persistence.ActiveDataSourceManager.GormDB()

	task := UserTask{}
	if err := db.Where(&UserTask{ID: taskId}).First(&task).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}

	// chat is private to the task pair
	var receiver types.ID
	switch sec.Identity.ID {
	case task.CreatorID:
		receiver = task.ReceiverID
	case task.ReceiverID:
		receiver = task.CreatorID
	default:
		return nil, bizerror.ErrForbidden
	}

	record := ChatMessage{
		ID:         idgen.NextID(messageIdWorker),
		TaskID:     taskId,
		SenderID:   sec.Identity.ID,
		ReceiverID: receiver,
		Message:    c.Message,
		CreateTime: types.CurrentTimestamp(),
	}
	if err := db.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// QueryChatMessages lists a task's chat thread and marks the caller's unread
// incoming messages as read in the same transaction.
func QueryChatMessages(taskId types.ID, sec *session.Session) ([]ChatMessage, error) {
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

	var records []ChatMessage
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&ChatMessage{}).
			Where("task_id = ? AND receiver_id = ? AND is_read = ?", taskId, sec.Identity.ID, false).
			Updates(map[string]interface{}{
				"is_read":   true,
				"read_time": types.CurrentTimestamp(),
			}).Error; err != nil {
			return err
		}
		return tx.Where(&ChatMessage{TaskID: taskId}).Order("create_time ASC").Find(&records).Error
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

package message

import (
	"github.com/fundwit/go-commons/types"
)

type EntityMessage struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	FullID   string `json:"fullId" gorm:"index:idx_entity_messages_full_id"`
	PathType string `json:"pathType"`

	Content string `json:"content" sql:"type:TEXT"`

	SenderID       types.ID `json:"senderId"`
	SenderName     string   `json:"senderName"`
	SenderPosition string   `json:"senderPosition"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
}

func (m *EntityMessage) TableName() string {
	return "entity_messages"
}

type UserTask struct {
	ID    types.ID `json:"id" gorm:"primary_key"`
	Title string   `json:"title"`

	ReceiverID types.ID `json:"receiverId"`
	CreatorID  types.ID `json:"creatorId"`

	Done     bool            `json:"done"`
	DoneTime types.Timestamp `json:"doneTime" sql:"type:DATETIME(6)"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
}

func (t *UserTask) TableName() string {
	return "user_tasks"
}

type ChatMessage struct {
	ID     types.ID `json:"id" gorm:"primary_key"`
	TaskID types.ID `json:"taskId" gorm:"index:idx_chat_messages_task"`

	SenderID   types.ID `json:"senderId"`
	ReceiverID types.ID `json:"receiverId"`

	Message string `json:"message" sql:"type:TEXT"`

	IsRead   bool            `json:"isRead"`
	ReadTime types.Timestamp `json:"readTime" sql:"type:DATETIME(6)"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
}

func (m *ChatMessage) TableName() string {
	return "task_chat_messages"
}

type ChatFile struct {
	ID     types.ID `json:"id" gorm:"primary_key"`
	TaskID types.ID `json:"taskId" gorm:"index:idx_chat_files_task"`

	StorageKey       string `json:"storageKey"`
	FileOriginalName string `json:"fileOriginalName"`
	Size             int64  `json:"size"`

	SenderID   types.ID        `json:"senderId"`
	UploadTime types.Timestamp `json:"uploadTime" sql:"type:DATETIME(6)"`
}

func (f *ChatFile) TableName() string {
	return "task_chat_files"
}

type EntityMessageCreating struct {
	FullID   string `json:"fullId" binding:"required"`
	PathType string `json:"pathType" binding:"required"`
	Content  string `json:"content" binding:"required"`
}

type EntityMessageQuery struct {
	FullID   string `form:"fullId" binding:"required"`
	PathType string `form:"pathType" binding:"required"`
}

type UserTaskCreating struct {
	Title      string   `json:"title" binding:"required"`
	ReceiverID types.ID `json:"receiverId" binding:"required"`
}

type ChatMessageCreating struct {
	Message string `json:"message" binding:"required"`
}

package message

import (
	"errors"

	"stagegate/account"
	"stagegate/common"
	"stagegate/domain"
	"stagegate/idgen"
	"stagegate/persistence"
	"stagegate/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	messageIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateEntityMessageFunc = CreateEntityMessage
	QueryEntityMessagesFunc = QueryEntityMessages
	MessageCountOfFunc      = MessageCountOf
)

func CreateEntityMessage(c *EntityMessageCreating, sec *session.Session) (*EntityMessage, error) {
	if c.PathType != domain.PathTypeProject && c.PathType != domain.PathTypeFinPart &&
		c.PathType != domain.PathTypeTechPart && c.PathType != domain.PathTypeWorkOrder {
		return nil, &common.ErrBadParam{Cause: errors.New("unknown path type '" + c.PathType + "'")}
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	record := EntityMessage{
		ID:       idgen.NextID(messageIdWorker),
		FullID:   c.FullID,
		PathType: c.PathType,
		Content:  c.Content,

		SenderID:       sec.Identity.ID,
		SenderName:     sec.Identity.DisplayName(),
		SenderPosition: senderPosition(sec.Identity.ID, db),

		CreateTime: types.CurrentTimestamp(),
	}
	if err := db.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func QueryEntityMessages(q *EntityMessageQuery, sec *session.Session) ([]EntityMessage, error) {
	db := persistence.ActiveDataSourceManager.TracedGormDB(sec.Context)
	var records []EntityMessage
	if err := db.Where(&EntityMessage{FullID: q.FullID, PathType: q.PathType}).
		Order("create_time ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// MessageCountOf backs the message_count field in nested pipeline views.
func MessageCountOf(fullId string, db *gorm.DB) (uint64, error) {
	var count uint64
	if err := db.Model(&EntityMessage{}).Where(&EntityMessage{FullID: fullId}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func senderPosition(uid types.ID, db *gorm.DB) string {
	user := account.User{}
	if err := db.Where(&account.User{ID: uid}).First(&user).Error; err != nil {
		return ""
	}
	if user.PositionID == 0 {
		return ""
	}
	position := domain.JobPosition{}
	if err := db.Where(&domain.JobPosition{ID: user.PositionID}).First(&position).Error; err != nil {
		return ""
	}
	return position.Name
}

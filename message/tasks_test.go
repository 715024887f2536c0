package message_test

import (
	"io"
	"strings"
	"testing"

	"stagegate/bizerror"
	"stagegate/client/s3"
	"stagegate/message"
	"stagegate/persistence"
	"stagegate/session"
	"stagegate/testinfra"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	. "github.com/onsi/gomega"
)

func setup(t *testing.T, testDatabase **testinfra.TestDatabase) {
	db := testinfra.StartMysqlTestDatabase("stagegate")
	*testDatabase = db
	Expect(db.DS.GormDB().AutoMigrate(&message.EntityMessage{}, &message.UserTask{},
		&message.ChatMessage{}, &message.ChatFile{}).Error).To(BeNil())
	persistence.ActiveDataSourceManager = db.DS
}

func teardown(t *testing.T, testDatabase *testinfra.TestDatabase) {
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func TestUserTasks(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("mark-done is receiver-only and idempotent", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		creator := testinfra.BuildSecCtx(10)
		task, err := message.CreateUserTask(&message.UserTaskCreating{Title: "check drawings", ReceiverID: 20}, creator)
		Expect(err).To(BeNil())

		Expect(message.MarkTaskDone(task.ID, creator)).To(Equal(bizerror.ErrForbidden))

		receiver := testinfra.BuildSecCtx(20)
		Expect(message.MarkTaskDone(task.ID, receiver)).To(BeNil())

		saved := message.UserTask{}
		Expect(testDatabase.DS.GormDB().Where("id = ?", task.ID).First(&saved).Error).To(BeNil())
		Expect(saved.Done).To(BeTrue())
		firstTime := saved.DoneTime

		Expect(message.MarkTaskDone(task.ID, receiver)).To(BeNil())
		Expect(testDatabase.DS.GormDB().Where("id = ?", task.ID).First(&saved).Error).To(BeNil())
		Expect(saved.DoneTime).To(Equal(firstTime))

		Expect(message.MarkTaskDone(999, receiver)).To(Equal(bizerror.ErrNotFound))
	})

	t.Run("chat is private to the task pair and fetch marks incoming read", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		creator := testinfra.BuildSecCtx(10)
		receiver := testinfra.BuildSecCtx(20)
		task, err := message.CreateUserTask(&message.UserTaskCreating{Title: "check drawings", ReceiverID: 20}, creator)
		Expect(err).To(BeNil())

		_, err = message.CreateChatMessage(task.ID, &message.ChatMessageCreating{Message: "hello"}, creator)
		Expect(err).To(BeNil())
		_, err = message.CreateChatMessage(task.ID, &message.ChatMessageCreating{Message: "hi"}, receiver)
		Expect(err).To(BeNil())

		_, err = message.CreateChatMessage(task.ID, &message.ChatMessageCreating{Message: "intruding"}, testinfra.BuildSecCtx(30))
		Expect(err).To(Equal(bizerror.ErrForbidden))

		thread, err := message.QueryChatMessages(task.ID, receiver)
		Expect(err).To(BeNil())
		Expect(len(thread)).To(Equal(2))
		Expect(thread[0].Message).To(Equal("hello"))
		Expect(thread[0].IsRead).To(BeTrue())
		Expect(thread[1].IsRead).To(BeFalse())
	})
}

func TestChatFiles(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should reject uploads above the cap before touching storage", func(t *testing.T) {
		stored := false
		s3.PutObjectFunc = func(key string, r io.Reader, sec *session.Session, opts ...oss.Option) error {
			stored = true
			return nil
		}

		uploading := message.ChatFileUploading{OriginalName: "big.bin", Size: message.ChatFileSizeLimit + 1}
		record, err := message.CreateChatFile(1, &uploading, strings.NewReader(""), testinfra.BuildSecCtx(10))
		Expect(record).To(BeNil())
		tooLarge, ok := err.(*bizerror.ErrFileTooLarge)
		Expect(ok).To(BeTrue())
		Expect(tooLarge.Limit).To(Equal(int64(message.ChatFileSizeLimit)))
		Expect(stored).To(BeFalse())
	})

	t.Run("should store the file and keep the original name", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		var storedKey string
		s3.PutObjectFunc = func(key string, r io.Reader, sec *session.Session, opts ...oss.Option) error {
			storedKey = key
			return nil
		}

		creator := testinfra.BuildSecCtx(10)
		task, err := message.CreateUserTask(&message.UserTaskCreating{Title: "check drawings", ReceiverID: 20}, creator)
		Expect(err).To(BeNil())

		uploading := message.ChatFileUploading{OriginalName: "plan.dwg", Size: 1024}
		record, err := message.CreateChatFile(task.ID, &uploading, strings.NewReader("content"), creator)
		Expect(err).To(BeNil())
		Expect(record.FileOriginalName).To(Equal("plan.dwg"))
		Expect(record.Size).To(Equal(int64(1024)))
		Expect(record.StorageKey).To(Equal("chat-files/" + task.ID.String() + "/" + record.ID.String()))
		Expect(storedKey).To(Equal(record.StorageKey))

		files, err := message.QueryChatFiles(task.ID, testinfra.BuildSecCtx(20))
		Expect(err).To(BeNil())
		Expect(len(files)).To(Equal(1))

		_, err = message.QueryChatFiles(task.ID, testinfra.BuildSecCtx(30))
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})
}

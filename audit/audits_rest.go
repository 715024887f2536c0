package audit

import (
	"errors"
	"net/http"

	"stagegate/common"
	"stagegate/misc"
	"stagegate/persistence"
	"stagegate/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var PathAuditRecords = "/v1/audit-records"

var QueryRecordDetailsFunc = QueryRecordDetails

type RecordQuery struct {
	SourceType string   `form:"sourceType" binding:"required"`
	SourceId   types.ID `form:"sourceId" binding:"required"`
}

func RegisterAuditRecordsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathAuditRecords, middleWares...)
	g.GET("", handleQueryRecords)
}

func handleQueryRecords(c *gin.Context) {
	query := RecordQuery{}
	if err := c.MustBindWith(&query, binding.Query); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	details, err := QueryRecordDetailsFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: details, Total: uint64(len(details))})
}

// QueryRecordDetails loads the audit trail of one object and attaches the
// property changes of each record against its predecessor, newest first.
func QueryRecordDetails(query *RecordQuery, sec *session.Session) ([]RecordDetail, error) {
	if sec == nil {
		return nil, errors.New("session is nil")
	}
	db := persistence.ActiveDataSourceManager.GormDB()
	records, err := LoadRecords(query.SourceType, query.SourceId, db)
	if err != nil {
		return nil, err
	}

	details := make([]RecordDetail, 0, len(records))
	for i, record := range records {
		detail := RecordDetail{Record: record, UpdatedProperties: []UpdatedProperty{}}
		if i > 0 {
			detail.UpdatedProperties = Diff(records[i-1].Snapshot, record.Snapshot)
		}
		details = append(details, detail)
	}

	// newest first for display
	for i, j := 0, len(details)-1; i < j; i, j = i+1, j-1 {
		details[i], details[j] = details[j], details[i]
	}
	return details, nil
}

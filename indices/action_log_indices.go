package indices

import (
	"context"
	"fmt"

	"stagegate/authority"
	"stagegate/bizerror"
	"stagegate/client/es"
	"stagegate/domain/actionlog"
	"stagegate/session"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

var (
	ActionLogIndexName = "action-logs"
	RebuildBatchSize   = 500

	IndexActionLogsFunc       = IndexActionLogs
	RebuildActionLogIndexFunc = RebuildActionLogIndex
)

type ActionLogDocument struct {
	actionlog.ActionLog
}

type BatchActionError map[types.ID]error

func (e BatchActionError) Error() string {
	return fmt.Sprintf("%v", map[types.ID]error(e))
}

func IndexActionLogs(records []actionlog.ActionLog, s *session.Session) error {
	docs := make([]ActionLogDocument, 0, len(records))
	for _, record := range records {
		docs = append(docs, ActionLogDocument{ActionLog: record})
	}

	if err := saveActionLogDocuments(docs, s); err != nil {
		return err
	}
	return nil
}

func saveActionLogDocuments(docs []ActionLogDocument, s *session.Session) BatchActionError {
	errs := BatchActionError{}

	for _, doc := range docs {
		if err := es.IndexFunc(ActionLogIndexName, doc.ID, doc, s); err != nil {
			errs[doc.ID] = err
			logrus.Warnf("index action log %d %s %s\n", doc.ID, doc.FullID, err)
		} else {
			logrus.Infof("index action log %d %s successfully\n", doc.ID, doc.FullID)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// RebuildActionLogIndex drops the index and re-feeds it from the database in
// batches. Admin only; meant for recovering from lost or corrupted indices.
func RebuildActionLogIndex(s *session.Session) error {
	if !s.Perms.HasCapability(authority.CapAdmin) {
		return bizerror.ErrForbidden
	}

	if err := es.DropIndexFunc(ActionLogIndexName, s); err != nil {
		return err
	}

	page := 1
	for {
		records, err := actionlog.LoadActionLogsFunc(page, RebuildBatchSize)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		if err := IndexActionLogsFunc(records, s); err != nil {
			return err
		}
		if len(records) < RebuildBatchSize {
			return nil
		}
		page++
	}
}

// IndexerActionLogHandler feeds freshly committed rows into the search index.
// Index failures are reported in the handler result and logged, never raised:
// search lags behind the database at worst.
func IndexerActionLogHandler(record *actionlog.ActionLog) *actionlog.HandleResult {
	result := actionlog.HandleResult{Success: true, HandlerIdentifier: "actionLogIndexer"}
	if err := IndexActionLogsFunc([]actionlog.ActionLog{*record}, &session.Session{Context: context.Background()}); err != nil {
		result.Success = false
		result.Message = err.Error()
	}
	return &result
}

package indices

import (
	"context"

	"stagegate/audit"
	"stagegate/client/es"
	"stagegate/session"

	"github.com/sirupsen/logrus"
)

var (
	AuditRecordIndexName = "audit-records"

	IndexAuditRecordsFunc = IndexAuditRecords
)

type AuditRecordDocument struct {
	audit.Record
}

func IndexAuditRecords(records []audit.Record, s *session.Session) error {
	errs := BatchActionError{}

	for _, record := range records {
		doc := AuditRecordDocument{Record: record}
		if err := es.IndexFunc(AuditRecordIndexName, doc.ID, doc, s); err != nil {
			errs[doc.ID] = err
			logrus.Warnf("index audit record %d %s %s\n", doc.ID, doc.SourceDesc, err)
		} else {
			logrus.Infof("index audit record %d %s successfully\n", doc.ID, doc.SourceDesc)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// IndexerAuditRecordHandler feeds freshly appended audit records into the
// search index. Index failures are reported in the handler result and logged,
// never raised.
func IndexerAuditRecordHandler(record *audit.Record) *audit.HandleResult {
	result := audit.HandleResult{Success: true, HandlerIdentifier: "auditRecordIndexer"}
	if err := IndexAuditRecordsFunc([]audit.Record{*record}, &session.Session{Context: context.Background()}); err != nil {
		result.Success = false
		result.Message = err.Error()
	}
	return &result
}

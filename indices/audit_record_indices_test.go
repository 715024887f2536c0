package indices

import (
	"errors"
	"testing"

	"stagegate/audit"
	"stagegate/client/es"
	"stagegate/session"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func TestIndexerAuditRecordHandler(t *testing.T) {
	RegisterTestingT(t)

	record := audit.Record{ID: 100, SourceType: audit.SourceProject, SourceId: 1234,
		SourceDesc: "bridge", Category: audit.CategoryCreated}

	t.Run("should index the record into the audit index", func(t *testing.T) {
		indexed := map[string]types.ID{}
		es.IndexFunc = func(index string, id types.ID, doc interface{}, s *session.Session) error {
			indexed[index] = id
			return nil
		}
		defer func() { es.IndexFunc = es.Index }()

		result := IndexerAuditRecordHandler(&record)
		Expect(result.Success).To(BeTrue())
		Expect(result.HandlerIdentifier).To(Equal("auditRecordIndexer"))
		Expect(indexed).To(Equal(map[string]types.ID{AuditRecordIndexName: types.ID(100)}))
	})

	t.Run("should report index failures in the result instead of raising", func(t *testing.T) {
		es.IndexFunc = func(index string, id types.ID, doc interface{}, s *session.Session) error {
			return errors.New("es unreachable")
		}
		defer func() { es.IndexFunc = es.Index }()

		result := IndexerAuditRecordHandler(&record)
		Expect(result.Success).To(BeFalse())
		Expect(result.Message).To(ContainSubstring("es unreachable"))
	})
}

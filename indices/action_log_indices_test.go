package indices

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"stagegate/authority"
	"stagegate/bizerror"
	"stagegate/client/es"
	"stagegate/domain/actionlog"
	"stagegate/session"
	"stagegate/testinfra"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
)

func TestRebuildActionLogIndex(t *testing.T) {
	RegisterTestingT(t)

	restore := func() {
		es.DropIndexFunc = es.DropIndex
		actionlog.LoadActionLogsFunc = actionlog.LoadActionLogs
		IndexActionLogsFunc = IndexActionLogs
		RebuildBatchSize = 500
	}

	t.Run("only an admin may rebuild", func(t *testing.T) {
		defer restore()
		dropped := false
		es.DropIndexFunc = func(index string, s *session.Session) error {
			dropped = true
			return nil
		}

		err := RebuildActionLogIndex(testinfra.BuildSecCtx(20, authority.CapTechDir))
		Expect(err).To(Equal(bizerror.ErrForbidden))
		Expect(dropped).To(BeFalse())
	})

	t.Run("should drop the index and re-feed it in batches", func(t *testing.T) {
		defer restore()
		RebuildBatchSize = 2

		dropped := []string{}
		es.DropIndexFunc = func(index string, s *session.Session) error {
			dropped = append(dropped, index)
			return nil
		}

		rows := []actionlog.ActionLog{{ID: 1}, {ID: 2}, {ID: 3}}
		actionlog.LoadActionLogsFunc = func(page, pageSize int) ([]actionlog.ActionLog, error) {
			start := (page - 1) * pageSize
			if start >= len(rows) {
				return nil, nil
			}
			end := start + pageSize
			if end > len(rows) {
				end = len(rows)
			}
			return rows[start:end], nil
		}

		indexed := []actionlog.ActionLog{}
		IndexActionLogsFunc = func(records []actionlog.ActionLog, s *session.Session) error {
			indexed = append(indexed, records...)
			return nil
		}

		Expect(RebuildActionLogIndex(testinfra.BuildSecCtx(1, authority.CapAdmin))).To(BeNil())
		Expect(dropped).To(Equal([]string{ActionLogIndexName}))
		Expect(len(indexed)).To(Equal(3))
		Expect(indexed[2].ID).To(BeEquivalentTo(3))
	})

	t.Run("should stop when the index drop fails", func(t *testing.T) {
		defer restore()
		es.DropIndexFunc = func(index string, s *session.Session) error {
			return errors.New("drop failed")
		}
		loaded := false
		actionlog.LoadActionLogsFunc = func(page, pageSize int) ([]actionlog.ActionLog, error) {
			loaded = true
			return nil, nil
		}

		err := RebuildActionLogIndex(testinfra.BuildSecCtx(1, authority.CapAdmin))
		Expect(err).To(MatchError("drop failed"))
		Expect(loaded).To(BeFalse())
	})
}

func TestHandleIndexRebuild(t *testing.T) {
	RegisterTestingT(t)

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	RegisterIndicesRestAPI(router)

	t.Run("should respond no content on success", func(t *testing.T) {
		RebuildActionLogIndexFunc = func(s *session.Session) error { return nil }
		defer func() { RebuildActionLogIndexFunc = RebuildActionLogIndex }()

		req := httptest.NewRequest(http.MethodPost, PathIndexRebuilds, nil)
		status, body := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusNoContent))
		Expect(body).To(BeEmpty())
	})

	t.Run("should map rebuild failures", func(t *testing.T) {
		RebuildActionLogIndexFunc = func(s *session.Session) error {
			return errors.New("error on index rebuild")
		}
		defer func() { RebuildActionLogIndexFunc = RebuildActionLogIndex }()

		req := httptest.NewRequest(http.MethodPost, PathIndexRebuilds, nil)
		status, body := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusInternalServerError))
		Expect(body).To(MatchJSON(`{"code":"common.internal_server_error", "message":"error on index rebuild", "data":null}`))
	})
}

package workorder

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"stagegate/bizerror"
	"stagegate/common"
	"stagegate/domain"
	"stagegate/session"
	"stagegate/testinfra"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
)

func TestHandleCreateWorkOrder(t *testing.T) {
	RegisterTestingT(t)

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	RegisterWorkOrdersRestAPI(router)

	t.Run("should reject incomplete body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, PathWorkOrders,
			common.StringReader(`{"name": "cable layout"}`))
		status, body := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(ContainSubstring("common.bad_param"))
	})

	t.Run("should reject malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, PathWorkOrders, common.StringReader(`{{{`))
		status, body := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(ContainSubstring("common.bad_param"))
	})

	t.Run("should create work order successfully", func(t *testing.T) {
		var received *domain.WorkOrderCreating
		CreateWorkOrderFunc = func(c *domain.WorkOrderCreating, sec *session.Session) (*domain.WorkOrder, error) {
			received = c
			return &domain.WorkOrder{ID: 100, TechnicalPartID: c.TechnicalPartID, No: c.No,
				Name: c.Name, StartDate: c.StartDate, FinishDate: c.FinishDate, StaffID: c.StaffID}, nil
		}
		defer func() { CreateWorkOrderFunc = CreateWorkOrder }()

		req := httptest.NewRequest(http.MethodPost, PathWorkOrders, common.StringReader(
			`{"technicalPartId": "7", "no": 2, "name": "cable layout",
			  "startDate": "2026-09-01", "finishDate": "2026-09-20", "staffId": "60"}`))
		status, body := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusCreated))
		Expect(received.TechnicalPartID).To(Equal(types.ID(7)))
		Expect(received.StaffID).To(Equal(types.ID(60)))
		Expect(body).To(ContainSubstring(`"id":"100"`))
		Expect(body).To(ContainSubstring(`"name":"cable layout"`))
	})

	t.Run("should map domain errors", func(t *testing.T) {
		CreateWorkOrderFunc = func(c *domain.WorkOrderCreating, sec *session.Session) (*domain.WorkOrder, error) {
			return nil, bizerror.ErrStageNotReady
		}
		defer func() { CreateWorkOrderFunc = CreateWorkOrder }()

		req := httptest.NewRequest(http.MethodPost, PathWorkOrders, common.StringReader(
			`{"technicalPartId": "7", "no": 2, "name": "cable layout",
			  "startDate": "2026-09-01", "finishDate": "2026-09-20", "staffId": "60"}`))
		status, body := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{"code": "pipeline.stage_not_ready",
			"message": "pipeline stage not ready", "data": null}`))
	})
}

func TestHandleQueryWorkOrders(t *testing.T) {
	RegisterTestingT(t)

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	RegisterWorkOrdersRestAPI(router)

	t.Run("should require a valid technicalPartId", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, PathWorkOrders+"?technicalPartId=abc", nil)
		status, body := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(ContainSubstring("common.bad_param"))
	})

	t.Run("should return paged body", func(t *testing.T) {
		QueryWorkOrdersFunc = func(technicalPartId types.ID, sec *session.Session) ([]domain.WorkOrder, error) {
			Expect(technicalPartId).To(Equal(types.ID(7)))
			return []domain.WorkOrder{{ID: 100, No: 1, Name: "cable layout"}}, nil
		}
		defer func() { QueryWorkOrdersFunc = QueryWorkOrders }()

		req := httptest.NewRequest(http.MethodGet, PathWorkOrders+"?technicalPartId=7", nil)
		status, body := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring(`"total":1`))
		Expect(body).To(ContainSubstring(`"name":"cable layout"`))
	})

	t.Run("should map forbidden", func(t *testing.T) {
		QueryWorkOrdersFunc = func(technicalPartId types.ID, sec *session.Session) ([]domain.WorkOrder, error) {
			return nil, bizerror.ErrForbidden
		}
		defer func() { QueryWorkOrdersFunc = QueryWorkOrders }()

		req := httptest.NewRequest(http.MethodGet, PathWorkOrders+"?technicalPartId=7", nil)
		status, body := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusForbidden))
		Expect(body).To(MatchJSON(`{"code": "security.forbidden", "message": "forbidden", "data": null}`))
	})
}

func TestHandleWorkOrderDecisions(t *testing.T) {
	RegisterTestingT(t)

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	RegisterWorkOrdersRestAPI(router)

	t.Run("decision endpoints accept an empty body", func(t *testing.T) {
		var gotId types.ID
		var gotComment string
		StaffConfirmFunc = func(id types.ID, comment string, sec *session.Session) error {
			gotId, gotComment = id, comment
			return nil
		}
		defer func() { StaffConfirmFunc = StaffConfirm }()

		req := httptest.NewRequest(http.MethodPost, PathWorkOrders+"/100/staff-confirm", nil)
		status, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(gotId).To(Equal(types.ID(100)))
		Expect(gotComment).To(BeZero())
	})

	t.Run("decision comment is passed through", func(t *testing.T) {
		var gotComment string
		StaffRefuseFunc = func(id types.ID, comment string, sec *session.Session) error {
			gotComment = comment
			return nil
		}
		defer func() { StaffRefuseFunc = StaffRefuse }()

		req := httptest.NewRequest(http.MethodPost, PathWorkOrders+"/100/staff-refuse",
			common.StringReader(`{"comment": "plan is wrong"}`))
		status, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(gotComment).To(Equal("plan is wrong"))
	})

	t.Run("should reject invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, PathWorkOrders+"/abc/staff-confirm", nil)
		status, body := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(ContainSubstring("invalid id 'abc'"))
	})

	t.Run("should map not found", func(t *testing.T) {
		FinishedConfirmFunc = func(id types.ID, comment string, sec *session.Session) error {
			return bizerror.ErrNotFound
		}
		defer func() { FinishedConfirmFunc = FinishedConfirm }()

		req := httptest.NewRequest(http.MethodPost, PathWorkOrders+"/404/finished-confirm", nil)
		status, body := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusNotFound))
		Expect(body).To(MatchJSON(`{"code": "common.record_not_found", "message": "record not found", "data": null}`))
	})

	t.Run("internal errors fall through to 500", func(t *testing.T) {
		HoldWorkOrderFunc = func(id types.ID, reason string, holdedFor types.ID, sec *session.Session) error {
			return errors.New("error on hold work order")
		}
		defer func() { HoldWorkOrderFunc = HoldWorkOrder }()

		req := httptest.NewRequest(http.MethodPost, PathWorkOrders+"/100/hold",
			common.StringReader(`{"reason": "waiting for materials", "holdedFor": "60"}`))
		status, body := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusInternalServerError))
		Expect(body).To(MatchJSON(`{"code": "common.internal_server_error",
			"message": "error on hold work order", "data": null}`))
	})
}

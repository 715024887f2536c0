package main

import (
	"net/http"

	"stagegate/account"
	"stagegate/audit"
	"stagegate/authority"
	"stagegate/bizerror"
	"stagegate/client/es"
	"stagegate/client/s3"
	"stagegate/common"
	"stagegate/domain"
	"stagegate/domain/actionlog"
	"stagegate/domain/finance"
	"stagegate/domain/phase"
	"stagegate/domain/project"
	"stagegate/domain/technical"
	"stagegate/domain/workorder"
	"stagegate/indices"
	"stagegate/indices/search"
	"stagegate/infra/tracing"
	"stagegate/message"
	"stagegate/org"
	"stagegate/persistence"
	"stagegate/refdata"
	"stagegate/servehttp"
	"stagegate/session"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const serviceName = "stagegate"

func main() {
	common.ConfigureLogging()
	logrus.Infoln("service start")

	dbConfig, err := persistence.ParseDatabaseConfigFromEnv()
	if err != nil {
		logrus.Fatalf("parse database config failed %v\n", err)
	}
	if dbConfig.DriverType == "mysql" {
		if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
			logrus.Fatalf("failed to prepare database %v\n", err)
		}
	}

	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		logrus.Fatalf("database connection failed %v\n", err)
	}
	defer ds.Stop()
	persistence.ActiveDataSourceManager = ds

	err = ds.GormDB().AutoMigrate(
		&domain.Project{}, &domain.FinancePart{}, &domain.TechnicalPart{},
		&domain.WorkOrder{}, &domain.WorkOrderFile{},
		&domain.Currency{}, &domain.Department{}, &domain.JobPosition{},
		&domain.Partner{}, &domain.Translation{},
		&phase.PhaseType{}, &actionlog.ActionLog{}, &actionlog.ObjectLastStatus{},
		&authority.Role{}, &authority.RoleCapabilityBinding{},
		&account.User{}, &audit.Record{},
		&message.EntityMessage{}, &message.UserTask{},
		&message.ChatMessage{}, &message.ChatFile{},
	).Error
	if err != nil {
		logrus.Fatalf("database migration failed %v\n", err)
	}

	if err := account.DefaultSecurityConfiguration(); err != nil {
		logrus.Fatalf("security bootstrap failed %v\n", err)
	}
	if err := phase.DefaultPhaseTypeConfiguration(); err != nil {
		logrus.Fatalf("phase type bootstrap failed %v\n", err)
	}
	if err := refdata.DefaultCurrencyConfiguration(); err != nil {
		logrus.Fatalf("currency bootstrap failed %v\n", err)
	}

	session.LoadPermsFunc = account.LoadPerms

	s3.Bootstrap()
	es.CreateClientFromEnv()
	tracingCloser, err := tracing.Bootstrap(serviceName)
	if err != nil {
		logrus.Fatalf("tracing bootstrap failed %v\n", err)
	}
	defer tracingCloser.Close()

	actionlog.Handlers = append(actionlog.Handlers, indices.IndexerActionLogHandler)
	audit.Handlers = append(audit.Handlers, indices.IndexerAuditRecordHandler)

	engine := gin.Default()
	engine.Use(bizerror.ErrorHandling(), tracing.TracingIngress())
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, serviceName)
	})

	account.RegisterSessionsRestAPI(engine)

	account.RegisterSessionRestAPI(engine, session.AuthFilter())
	account.RegisterUsersRestAPI(engine, session.AuthFilter())
	org.RegisterOrgRestAPI(engine, session.AuthFilter())
	refdata.RegisterRefDataRestAPI(engine, session.AuthFilter())

	project.RegisterProjectsRestAPI(engine, session.AuthFilter())
	finance.RegisterFinancePartsRestAPI(engine, session.AuthFilter())
	technical.RegisterTechnicalPartsRestAPI(engine, session.AuthFilter())
	workorder.RegisterWorkOrdersRestAPI(engine, session.AuthFilter())

	actionlog.RegisterActionLogsRestAPI(engine, session.AuthFilter())
	phase.RegisterPhaseTypesRestAPI(engine, session.AuthFilter())
	audit.RegisterAuditRecordsRestAPI(engine, session.AuthFilter())
	message.RegisterMessagesRestAPI(engine, session.AuthFilter())
	search.RegisterSearchRestAPI(engine, session.AuthFilter())
	indices.RegisterIndicesRestAPI(engine, session.AuthFilter())

	servehttp.StartHTTPServer(engine)
}

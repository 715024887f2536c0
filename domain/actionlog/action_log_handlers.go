package actionlog

import (
	"github.com/sirupsen/logrus"
)

/*
return nil if not support
*/
type Handler func(record *ActionLog) *HandleResult

type HandleResult struct {
	Success           bool
	Message           string
	HandlerIdentifier string
}

var Handlers []Handler

var InvokeHandlersFunc = invokeHandlers

func invokeHandlers(record *ActionLog) []HandleResult {
	results := []HandleResult{}
	for _, handler := range Handlers {
		logrus.Debug("pre handle action log ", record.ID)
		r := handler(record)

		if r == nil {
			continue
		}

		results = append(results, *r)

		if r.Success {
			logrus.Info("post handle action log. ", r)
		} else {
			logrus.Error("post handler error. ", r)
		}
	}
	return results
}

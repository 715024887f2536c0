package search

import (
	"encoding/json"
	"fmt"
	"strings"

	"stagegate/authority"
	"stagegate/bizerror"
	"stagegate/client/es"
	"stagegate/domain/actionlog"
	"stagegate/indices"
	"stagegate/session"
)

var (
	SearchActionLogsFunc = SearchActionLogs
)

type ActionLogSearch struct {
	Query    string `form:"query"`
	PathType string `form:"pathType"`
	FullID   string `form:"fullId"`
}

func SearchActionLogs(q ActionLogSearch, s *session.Session) ([]actionlog.ActionLog, error) {
	if !s.Perms.HasAnyCapability(authority.CapAdmin, authority.CapTechDir, authority.CapFinDir) {
		return nil, bizerror.ErrForbidden
	}

	filters := make([]es.H, 0, 3)
	if q.Query != "" {
		filters = append(filters, es.H{"match": es.H{"comment": es.H{"query": q.Query, "operator": "AND"}}})
	}
	if q.FullID != "" {
		filters = append(filters, es.H{"term": es.H{"fullId": q.FullID}})
	}
	if q.PathType != "" {
		filters = append(filters, es.H{"term": es.H{"pathType": q.PathType}})
	}

	sorts := make([]es.H, 0, 1)
	sorts = append(sorts, es.H{"performedAt": es.H{"order": "desc"}})

	root := es.H{"bool": es.H{"filter": filters}}
	r, err := es.SearchFunc(indices.ActionLogIndexName, es.H{"size": 10000, "query": root, "sort": sorts}, s)
	if err != nil {
		return nil, err
	}

	records := make([]actionlog.ActionLog, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		record := actionlog.ActionLog{}
		if err := json.NewDecoder(strings.NewReader(string(hit.Source))).Decode(&record); err != nil {
			return nil, fmt.Errorf(string(hit.Source))
		}
		records = append(records, record)
	}
	return records, nil
}

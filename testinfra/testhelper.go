package testinfra

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"

	"stagegate/authority"
	"stagegate/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

// BuildSecCtx builds a signed-in session for service-level tests.
func BuildSecCtx(uid types.ID, perms ...string) *session.Session {
	return &session.Session{
		Identity: session.Identity{ID: uid, Name: "user" + uid.String()},
		Perms:    authority.Permissions(perms),
		Context:  context.Background(),
	}
}

// ExecuteRequest runs the request against the engine and returns the status
// and the raw body.
func ExecuteRequest(req *http.Request, engine *gin.Engine) (int, string) {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	body, _ := ioutil.ReadAll(w.Body)
	return w.Code, string(body)
}

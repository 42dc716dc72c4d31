package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"image-labeler/internal/http-server/handler/job"

	"github.com/stretchr/testify/assert"
	"github.com/wb-go/wbf/zlog"
)

func TestHealth(t *testing.T) {
	zlog.Init()
	r := SetupRouter(&Handler{JobHandler: job.NewJobHandler(nil, &zlog.Logger, 1<<20)})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

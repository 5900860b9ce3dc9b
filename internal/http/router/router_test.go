package router_test

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jsdelfino/watsonwork-weather/internal/http/handler"
	"github.com/jsdelfino/watsonwork-weather/internal/http/middleware"
	"github.com/jsdelfino/watsonwork-weather/internal/http/router"
)

var _ = Describe("SetupRoutes", func() {
	var engine *gin.Engine

	BeforeEach(func() {
		engine = gin.New()
		engine.Use(middleware.Recovery(nil), middleware.Logger(nil, router.HealthPath, router.MetricsPath))
		router.SetupRoutes(engine, handler.NewWebhookHandler("secret", nil, "", nil))
	})

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	It("serves health", func() {
		rec := get("/health")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(MatchJSON(`{"status":"ok"}`))
	})

	It("serves prometheus metrics", func() {
		rec := get("/metrics")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("go_goroutines"))
	})

	It("only accepts posts on the webhook", func() {
		Expect(get("/weather").Code).To(Equal(http.StatusNotFound))

		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/weather", strings.NewReader(`{}`)))
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})
})

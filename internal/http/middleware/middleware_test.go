package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jsdelfino/watsonwork-weather/internal/http/middleware"
)

var _ = Describe("middleware", func() {
	var (
		buf    *bytes.Buffer
		log    *slog.Logger
		engine *gin.Engine
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		log = slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
		engine = gin.New()
		engine.Use(middleware.Recovery(log), middleware.Logger(log, "/health"))
		engine.GET("/panic", func(c *gin.Context) { panic("boom") })
		engine.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
		engine.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	})

	serve := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	It("turns panics into 500s", func() {
		rec := serve("/panic")
		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(rec.Body.String()).To(MatchJSON(`{"error":"internal server error"}`))
		Expect(buf.String()).To(ContainSubstring("panic recovered"))
	})

	It("logs requests", func() {
		Expect(serve("/ok").Code).To(Equal(http.StatusOK))
		Expect(buf.String()).To(ContainSubstring("path=/ok"))
		Expect(buf.String()).To(ContainSubstring("status=200"))
	})

	It("keeps quiet paths out of info logs", func() {
		Expect(serve("/health").Code).To(Equal(http.StatusOK))
		Expect(buf.String()).NotTo(ContainSubstring("path=/health"))
	})
})

package api

import (
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/reachiq/csv-sync/internal/api/handler"
	"github.com/reachiq/csv-sync/pkg/router"
)

// RegisterRoutes binds the sync API onto the router.
func RegisterRoutes(r *router.Router, h *handler.Handler) {
	r.GET("/", h.Hello)
	r.POST("/upload_csv", h.UploadCSV)
	r.GET("/consume_csv", h.ConsumeCSV)

	r.GET("/api/v1/batches", h.ListBatches)
	r.GET("/api/v1/batches/*", h.GetBatch)

	r.GET("/swagger/*", router.HandlerFunc(httpSwagger.WrapHandler))
}

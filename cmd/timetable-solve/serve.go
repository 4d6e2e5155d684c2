package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/noah-isme/classtable-engine/internal/handler"
	"github.com/noah-isme/classtable-engine/pkg/logger"
	corsmiddleware "github.com/noah-isme/classtable-engine/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/classtable-engine/pkg/middleware/requestid"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only solve-status HTTP surface",
	Long: `serve exposes health, metrics, and a read-only GET /v1/solves/:id
endpoint for polling a previously persisted solve run. It intentionally
carries no write surface: solves are submitted through "timetable-solve
solve", not over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if current == nil {
			return fmt.Errorf("application not initialized")
		}

		if current.cfg.Env == "production" {
			gin.SetMode(gin.ReleaseMode)
		}

		r := gin.New()
		r.Use(gin.Recovery())
		r.Use(reqidmiddleware.Middleware())
		r.Use(logger.GinMiddleware(current.logger))
		r.Use(corsmiddleware.New(current.cfg.CORS.AllowedOrigins))

		metricsHandler := handler.NewMetricsHandler(current.metrics)
		r.GET("/health", metricsHandler.Health)
		r.GET("/ready", metricsHandler.Health)
		r.GET("/metrics", metricsHandler.Prometheus)

		solveHandler := handler.NewSolveHandler(current.solves)
		exportHandler := handler.NewExportHandler(current.exports)
		api := r.Group(current.cfg.APIPrefix)
		api.GET("/solves/:id", solveHandler.Get)
		api.GET("/exports/:token", exportHandler.Download)

		current.queue.Start(cmd.Context())
		defer current.queue.Stop()

		addr := fmt.Sprintf(":%d", current.cfg.Port)
		current.logger.Sugar().Infow("server starting", "addr", addr, "env", current.cfg.Env)
		return r.Run(addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

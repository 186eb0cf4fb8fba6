package handlers

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestID tags every request with an id, reusing the caller's when present
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()
		if len(c.Errors) > 0 {
			log.Printf("[%s] %s %s: %v", id, c.Request.Method, c.Request.URL.Path, c.Errors)
		}
		log.Printf("[%s] %s %s -> %d (%s)", id, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// NewRouter wires the API routes onto a gin engine
func NewRouter(h *APIHandler, origins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID())
	router.MaxMultipartMemory = 16 << 20

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST"},
		AllowHeaders:  []string{"Origin", "Content-Type", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader, "Content-Disposition"},
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
	}
	router.Use(cors.New(corsCfg))

	api := router.Group("/api")
	{
		// Input routes
		api.POST("/process_excel", h.ProcessExcel)
		api.POST("/submit_subject_details", h.SubmitSubjectDetails)
		api.POST("/submit_question_mapping", h.SubmitQuestionMapping)
		api.POST("/upload_marks/:exam_type", h.UploadMarks)

		// Report routes
		api.GET("/attainment", h.Attainment)
		api.GET("/generate_mapping", h.GenerateMapping)
		api.GET("/report.xlsx", h.ReportWorkbook)

		api.GET("/ping", PingHandler)
	}
	return router
}

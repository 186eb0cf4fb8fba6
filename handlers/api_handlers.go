package handlers

import (
	"bytes"
	"errors"
	"log"
	"net/http"

	"coattainment-server-go/attainment"
	"coattainment-server-go/chart"
	"coattainment-server-go/db"
	"coattainment-server-go/models"
	"coattainment-server-go/sheets"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const missingInputMessage = "Missing one or more required inputs"

// APIHandler holds the dependencies for API handlers
type APIHandler struct {
	Store      db.Store
	Calculator *attainment.Calculator
	validate   *validator.Validate
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(store db.Store, calc *attainment.Calculator) *APIHandler {
	if calc == nil {
		calc = &attainment.Calculator{}
	}
	return &APIHandler{
		Store:      store,
		Calculator: calc,
		validate:   validator.New(),
	}
}

// --- Input Handlers ---

// ProcessExcel handles POST /api/process_excel
func (h *APIHandler) ProcessExcel(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	log.Printf("Received roster upload: %s", header.Filename)

	table, err := sheets.Parse(header.Filename, file)
	if err != nil {
		log.Printf("Error parsing roster %s: %v", header.Filename, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	students, err := sheets.Students(table)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Store.ReplaceStudents(students); err != nil {
		log.Printf("Error in ProcessExcel handler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store students"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"students":       students,
		"total_students": len(students),
	})
}

// SubmitSubjectDetails handles POST /api/submit_subject_details
func (h *APIHandler) SubmitSubjectDetails(c *gin.Context) {
	var subject models.SubjectDetails
	if err := c.ShouldBindJSON(&subject); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subject details: " + err.Error()})
		return
	}

	if err := h.Store.SaveSubject(subject); err != nil {
		log.Printf("Error in SubmitSubjectDetails handler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save subject details"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Subject details saved"})
}

// SubmitQuestionMapping handles POST /api/submit_question_mapping
func (h *APIHandler) SubmitQuestionMapping(c *gin.Context) {
	var mapping []models.QuestionMapping
	if err := c.ShouldBindJSON(&mapping); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid mapping data: " + err.Error()})
		return
	}
	if len(mapping) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No mapping data provided"})
		return
	}
	if err := h.validate.Var(mapping, "dive"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid mapping data: " + err.Error()})
		return
	}

	if err := h.Store.SaveMapping(mapping); err != nil {
		log.Printf("Error in SubmitQuestionMapping handler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save question mapping"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Question mapping saved", "entries": len(mapping)})
}

// UploadMarks handles POST /api/upload_marks/:exam_type
func (h *APIHandler) UploadMarks(c *gin.Context) {
	exam, ok := models.ParseExamType(c.Param("exam_type"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown exam type, expected one of minor1, minor2, assignment, final"})
		return
	}

	file, header, err := c.Request.FormFile("marks_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": `No marks file uploaded with fieldname "marks_file"`})
		return
	}
	defer file.Close()

	table, err := sheets.Parse(header.Filename, file)
	if err != nil {
		log.Printf("Error parsing %s marks file %s: %v", exam, header.Filename, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	records := sheets.MarkRecords(table)

	if err := h.Store.SaveMarks(exam, records); err != nil {
		log.Printf("Error in UploadMarks handler for %s: %v", exam, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save marks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "Marks for " + string(exam) + " saved",
		"num_records": len(records),
	})
}

// --- Report Handlers ---

// compute runs the calculator over the stored snapshot and writes the error
// response itself when it fails
func (h *APIHandler) compute(c *gin.Context) (*models.SubjectDetails, *attainment.Result, bool) {
	snap, err := h.Store.Snapshot()
	if err != nil {
		log.Printf("Error reading stored inputs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read stored inputs"})
		return nil, nil, false
	}
	res, err := h.Calculator.Compute(snap)
	if err != nil {
		if errors.Is(err, attainment.ErrMissingInput) {
			log.Printf("Attainment requested with incomplete inputs: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": missingInputMessage})
			return nil, nil, false
		}
		log.Printf("Error computing attainment: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute attainment"})
		return nil, nil, false
	}
	return snap.Subject, res, true
}

// Attainment handles GET /api/attainment
func (h *APIHandler) Attainment(c *gin.Context) {
	subject, res, ok := h.compute(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"subject":    subject,
		"attainment": res.Scores,
		"breakdown": gin.H{
			"exams":      res.Exams,
			"assignment": res.Assignment,
		},
	})
}

// GenerateMapping handles GET /api/generate_mapping and returns the bar chart page
func (h *APIHandler) GenerateMapping(c *gin.Context) {
	subject, res, ok := h.compute(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := chart.RenderHTML(&buf, chart.Title(subject.SubjectName), res.Categories(), res.Values()); err != nil {
		log.Printf("Error rendering chart: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render chart"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// ReportWorkbook handles GET /api/report.xlsx
func (h *APIHandler) ReportWorkbook(c *gin.Context) {
	subject, res, ok := h.compute(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := chart.WriteWorkbook(&buf, chart.Title(subject.SubjectName), res.Categories(), res.Values()); err != nil {
		log.Printf("Error writing workbook: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build workbook"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Header("Content-Disposition", `attachment; filename="co-attainment.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// --- Ping Handler ---
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Pong!"})
}

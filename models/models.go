package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ExamType is one of the four assessment categories that contribute marks
type ExamType string

const (
	Minor1     ExamType = "minor1"
	Minor2     ExamType = "minor2"
	Assignment ExamType = "assignment"
	Final      ExamType = "final"
)

// ExamTypes lists every exam type in the order reports show them
var ExamTypes = []ExamType{Minor1, Minor2, Assignment, Final}

// ParseExamType normalizes s and reports whether it names a known exam type
func ParseExamType(s string) (ExamType, bool) {
	e := ExamType(strings.ToLower(strings.TrimSpace(s)))
	switch e {
	case Minor1, Minor2, Assignment, Final:
		return e, true
	}
	return "", false
}

// Student represents one row of the uploaded roster
type Student struct {
	Roll string `json:"roll"` // Unique roll number
	Name string `json:"name"` // Student name
}

// SubjectDetails describes the subject the report is generated for
type SubjectDetails struct {
	SubjectName string  `json:"subject_name" binding:"required" validate:"required"`
	CourseID    string  `json:"course_id"`
	TotalCO     FlexInt `json:"total_co" binding:"required,min=1" validate:"required,min=1"`
}

// COCount returns the number of course outcomes, never less than 1
func (s SubjectDetails) COCount() int {
	if s.TotalCO < 1 {
		return 1
	}
	return int(s.TotalCO)
}

// COLabels returns CO1..COn in ascending order
func (s SubjectDetails) COLabels() []string {
	n := s.COCount()
	labels := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		labels = append(labels, COLabel(i))
	}
	return labels
}

// COLabel formats the i-th course outcome identifier
func COLabel(i int) string {
	return "CO" + strconv.Itoa(i)
}

// QuestionMapping ties one question of one exam to a course outcome
type QuestionMapping struct {
	ExamType       string     `json:"exam_type" validate:"required"`
	QuestionNumber FlexString `json:"question_number"`
	CO             string     `json:"co"`
}

// MarkRecord is one spreadsheet row of an exam's mark table, keyed by header
type MarkRecord map[string]string

// AssignmentColumn is the single column assignment tables are read from
const AssignmentColumn = "marks"

// Mark returns the numeric value at key. Missing cells give 0 and ok=true;
// cells that do not parse as finite numbers give 0 and ok=false.
func (r MarkRecord) Mark(key string) (value float64, ok bool) {
	raw, present := r[key]
	raw = strings.TrimSpace(raw)
	if !present || raw == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Snapshot holds the four inputs of an attainment computation
type Snapshot struct {
	Students []Student                 `json:"students"`
	Subject  *SubjectDetails           `json:"subject_details,omitempty"`
	Mapping  []QuestionMapping         `json:"question_mapping"`
	Marks    map[ExamType][]MarkRecord `json:"marks"`
}

// FlexInt accepts either a JSON number or a numeric JSON string
type FlexInt int

func (n *FlexInt) UnmarshalJSON(b []byte) error {
	var num json.Number
	if err := json.Unmarshal(b, &num); err == nil {
		if num == "" {
			*n = 0
			return nil
		}
		i, err := strconv.Atoi(num.String())
		if err != nil {
			f, ferr := num.Float64()
			if ferr != nil {
				return fmt.Errorf("invalid integer %s: %w", num, err)
			}
			i = int(f)
		}
		*n = FlexInt(i)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("expected number or string, got %s", b)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*n = 0
		return nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid integer %q: %w", s, err)
	}
	*n = FlexInt(i)
	return nil
}

// FlexString accepts either a JSON string or a JSON number and keeps its text
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = FlexString(strings.TrimSpace(str))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	f, err := num.Float64()
	if err != nil {
		return fmt.Errorf("invalid number %s: %w", b, err)
	}
	*s = FlexString(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

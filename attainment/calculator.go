package attainment

import (
	"log"
	"strings"

	"coattainment-server-go/models"
)

// MaxMarksPerQuestion is assumed for every mapped question regardless of the
// real paper; targets are half of k*MaxMarksPerQuestion.
const MaxMarksPerQuestion = 10

// Weights of the overall CO score
const (
	WeightMinor      = 0.3
	WeightFinal      = 0.5
	WeightAssignment = 0.2
)

// questionExams are grouped through the question mapping; assignment is not.
var questionExams = []models.ExamType{models.Minor1, models.Minor2, models.Final}

// Entry is the transient (co, target, scores) triple built per exam and CO
type Entry struct {
	CO     string    `json:"co"`
	Target float64   `json:"target"`
	Scores []float64 `json:"scores"`
}

// Outcome is an Entry together with its pass percentage and points
type Outcome struct {
	Entry
	Percentage float64 `json:"percentage"`
	Points     int     `json:"points"`
}

// Score is the weighted overall attainment of one CO
type Score struct {
	CO    string  `json:"co"`
	Score float64 `json:"score"`
}

// Result holds overall scores in CO1..COn order and the per-exam breakdown
type Result struct {
	Scores []Score `json:"attainment"`
	// Exams holds minor1, minor2 and final outcomes in mapping order of first appearance
	Exams map[models.ExamType][]Outcome `json:"exams"`
	// Assignment is nil when no assignment table was supplied
	Assignment *Outcome `json:"assignment,omitempty"`
}

// Map returns the overall scores keyed by CO
func (r *Result) Map() map[string]float64 {
	m := make(map[string]float64, len(r.Scores))
	for _, s := range r.Scores {
		m[s.CO] = s.Score
	}
	return m
}

// Categories returns the CO labels in output order, for chart sinks
func (r *Result) Categories() []string {
	out := make([]string, len(r.Scores))
	for i, s := range r.Scores {
		out[i] = s.CO
	}
	return out
}

// Values returns the overall scores in the same order as Categories
func (r *Result) Values() []float64 {
	out := make([]float64, len(r.Scores))
	for i, s := range r.Scores {
		out[i] = s.Score
	}
	return out
}

// Calculator computes CO attainment from a snapshot of the four inputs.
// The zero value is ready to use.
type Calculator struct {
	// OnMalformed, when set, receives every non-numeric mark cell
	OnMalformed func(MalformedValue)
	// Debug logs malformed cells through the standard logger
	Debug bool
}

// Compute is shorthand for a zero Calculator's Compute
func Compute(s models.Snapshot) (*Result, error) {
	var c Calculator
	return c.Compute(s)
}

// Compute returns the weighted attainment of CO1..COn. It fails with a
// *MissingInputError, and no result, when any input is empty or absent.
func (c *Calculator) Compute(s models.Snapshot) (*Result, error) {
	if err := checkInputs(s); err != nil {
		return nil, err
	}
	totalCO := s.Subject.COCount()

	res := &Result{Exams: make(map[models.ExamType][]Outcome, len(questionExams))}
	points := make(map[models.ExamType]map[string]int, len(questionExams))
	for _, exam := range questionExams {
		entries := c.examEntries(exam, s.Mapping, s.Marks[exam])
		points[exam] = make(map[string]int, len(entries))
		outcomes := make([]Outcome, 0, len(entries))
		for _, e := range entries {
			o := score(e)
			points[exam][e.CO] = o.Points
			outcomes = append(outcomes, o)
		}
		res.Exams[exam] = outcomes
	}

	assignmentPoints := 0
	if records, ok := s.Marks[models.Assignment]; ok {
		o := score(c.assignmentEntry(records, totalCO))
		res.Assignment = &o
		assignmentPoints = o.Points
	}

	res.Scores = make([]Score, 0, totalCO)
	for i := 1; i <= totalCO; i++ {
		co := models.COLabel(i)
		minor := max(points[models.Minor1][co], points[models.Minor2][co])
		final := points[models.Final][co]
		overall := WeightMinor*float64(minor) + WeightFinal*float64(final) + WeightAssignment*float64(assignmentPoints)
		res.Scores = append(res.Scores, Score{CO: co, Score: overall})
	}
	return res, nil
}

func checkInputs(s models.Snapshot) error {
	var missing []string
	if len(s.Students) == 0 {
		missing = append(missing, "students")
	}
	if s.Subject == nil {
		missing = append(missing, "subject details")
	}
	if len(s.Mapping) == 0 {
		missing = append(missing, "question mapping")
	}
	if len(s.Marks) == 0 {
		missing = append(missing, "marks")
	}
	if len(missing) > 0 {
		return &MissingInputError{Inputs: missing}
	}
	return nil
}

// examEntries groups the exam's mapped questions by CO and sums each record's
// marks over them. Duplicate question references are counted each time.
func (c *Calculator) examEntries(exam models.ExamType, mapping []models.QuestionMapping, records []models.MarkRecord) []Entry {
	var order []string
	questions := map[string][]string{}
	for _, m := range mapping {
		if !strings.EqualFold(m.ExamType, string(exam)) || m.CO == "" {
			continue
		}
		if _, seen := questions[m.CO]; !seen {
			order = append(order, m.CO)
		}
		questions[m.CO] = append(questions[m.CO], string(m.QuestionNumber))
	}

	entries := make([]Entry, 0, len(order))
	for _, co := range order {
		qs := questions[co]
		maxMarks := float64(len(qs) * MaxMarksPerQuestion)
		scores := make([]float64, 0, len(records))
		for i, rec := range records {
			total := 0.0
			for _, q := range qs {
				total += c.mark(exam, i, rec, q)
			}
			scores = append(scores, total)
		}
		entries = append(entries, Entry{CO: co, Target: maxMarks / 2, Scores: scores})
	}
	return entries
}

// assignmentEntry spreads each record's assignment marks evenly over the COs.
// The target is half of the best per-CO share.
func (c *Calculator) assignmentEntry(records []models.MarkRecord, totalCO int) Entry {
	scores := make([]float64, 0, len(records))
	best := 0.0
	for i, rec := range records {
		perCO := c.mark(models.Assignment, i, rec, models.AssignmentColumn) / float64(totalCO)
		if i == 0 || perCO > best {
			best = perCO
		}
		scores = append(scores, perCO)
	}
	return Entry{CO: "*", Target: best / 2, Scores: scores}
}

func (c *Calculator) mark(exam models.ExamType, i int, rec models.MarkRecord, column string) float64 {
	v, ok := rec.Mark(column)
	if ok {
		return v
	}
	mv := MalformedValue{Exam: exam, Record: i, Column: column, Raw: rec[column]}
	if c.Debug {
		log.Printf("debug: %s", mv)
	}
	if c.OnMalformed != nil {
		c.OnMalformed(mv)
	}
	return 0
}

func score(e Entry) Outcome {
	pct := Percentage(e.Target, e.Scores)
	return Outcome{Entry: e, Percentage: pct, Points: PointsFromPercentage(pct)}
}

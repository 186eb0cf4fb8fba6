// Command coreport computes CO attainment from files on disk and prints it as
// tables, optionally writing the HTML chart and the Excel report.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"coattainment-server-go/attainment"
	"coattainment-server-go/chart"
	"coattainment-server-go/models"
	"coattainment-server-go/sheets"
	"github.com/fatih/color"
	"github.com/go-playground/validator/v10"
	"github.com/olekukonko/tablewriter"
	"github.com/peterbourgon/ff/v3"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		color.New(color.FgRed).Fprintf(os.Stderr, "coreport: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	students string
	subject  models.SubjectDetails
	mapping  string
	marks    map[models.ExamType]*string
	htmlOut  string
	xlsxOut  string
	debug    bool
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("coreport", flag.ContinueOnError)
	var (
		students = fs.String("students", "", "student roster (.xlsx or .csv)")
		subject  = fs.String("subject", "", "subject name")
		course   = fs.String("course", "", "course id")
		totalCO  = fs.Int("total-co", 0, "number of course outcomes")
		mapping  = fs.String("mapping", "", "question to CO mapping (.json, .csv or .xlsx)")
		htmlOut  = fs.String("html", "", "write the bar chart page to this file")
		xlsxOut  = fs.String("xlsx", "", "write the Excel report to this file")
		debug    = fs.Bool("debug", false, "log non-numeric mark cells")
	)
	opts := &options{marks: map[models.ExamType]*string{}}
	for _, exam := range models.ExamTypes {
		opts.marks[exam] = fs.String(string(exam), "", string(exam)+" marks (.xlsx or .csv)")
	}

	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix("COREPORT")); err != nil {
		return nil, err
	}

	opts.students = *students
	opts.subject = models.SubjectDetails{SubjectName: *subject, CourseID: *course, TotalCO: models.FlexInt(*totalCO)}
	opts.mapping = *mapping
	opts.htmlOut = *htmlOut
	opts.xlsxOut = *xlsxOut
	opts.debug = *debug

	if err := validator.New().Struct(opts.subject); err != nil {
		return nil, fmt.Errorf("-subject and a positive -total-co are required: %w", err)
	}
	return opts, nil
}

func run(args []string, out io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	snap, err := loadSnapshot(opts)
	if err != nil {
		return err
	}

	calc := attainment.Calculator{Debug: opts.debug}
	malformed := 0
	calc.OnMalformed = func(attainment.MalformedValue) { malformed++ }
	res, err := calc.Compute(snap)
	if err != nil {
		if errors.Is(err, attainment.ErrMissingInput) {
			return errors.Join(err, errUsage)
		}
		return err
	}

	printReport(out, snap.Subject, res)
	if malformed > 0 {
		color.New(color.FgYellow).Fprintf(out, "\n%d non-numeric mark cells were counted as 0\n", malformed)
	}

	title := chart.Title(snap.Subject.SubjectName)
	if opts.htmlOut != "" {
		if err := writeFile(opts.htmlOut, func(w io.Writer) error {
			return chart.RenderHTML(w, title, res.Categories(), res.Values())
		}); err != nil {
			return err
		}
	}
	if opts.xlsxOut != "" {
		if err := writeFile(opts.xlsxOut, func(w io.Writer) error {
			return chart.WriteWorkbook(w, title, res.Categories(), res.Values())
		}); err != nil {
			return err
		}
	}
	return nil
}

func loadSnapshot(opts *options) (models.Snapshot, error) {
	snap := models.Snapshot{Subject: &opts.subject, Marks: map[models.ExamType][]models.MarkRecord{}}

	if opts.students != "" {
		t, err := parseFile(opts.students)
		if err != nil {
			return snap, err
		}
		if snap.Students, err = sheets.Students(t); err != nil {
			return snap, fmt.Errorf("%s: %w", opts.students, err)
		}
	}
	if opts.mapping != "" {
		var err error
		if snap.Mapping, err = loadMapping(opts.mapping); err != nil {
			return snap, err
		}
	}
	for _, exam := range models.ExamTypes {
		path := *opts.marks[exam]
		if path == "" {
			continue
		}
		t, err := parseFile(path)
		if err != nil {
			return snap, err
		}
		snap.Marks[exam] = sheets.MarkRecords(t)
	}
	return snap, nil
}

func parseFile(path string) (*sheets.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := sheets.Parse(path, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// loadMapping reads a JSON list, or a sheet with exam_type, question_number and co columns
func loadMapping(path string) ([]models.QuestionMapping, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var mapping []models.QuestionMapping
		if err := json.Unmarshal(raw, &mapping); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return mapping, nil
	}

	t, err := parseFile(path)
	if err != nil {
		return nil, err
	}
	for _, col := range []string{"exam_type", "question_number", "co"} {
		if !contains(t.Headers, col) {
			return nil, fmt.Errorf("%s: missing column %q", path, col)
		}
	}
	mapping := make([]models.QuestionMapping, 0, len(t.Rows))
	for _, row := range t.Rows {
		mapping = append(mapping, models.QuestionMapping{
			ExamType:       row["exam_type"],
			QuestionNumber: models.FlexString(row["question_number"]),
			CO:             row["co"],
		})
	}
	return mapping, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func printReport(out io.Writer, subject *models.SubjectDetails, res *attainment.Result) {
	heading := color.New(color.FgCyan, color.Bold)
	heading.Fprintf(out, "\n=== %s (%s) ===\n", chart.Title(subject.SubjectName), subject.CourseID)

	for _, exam := range []models.ExamType{models.Minor1, models.Minor2, models.Final} {
		outcomes := res.Exams[exam]
		if len(outcomes) == 0 {
			continue
		}
		color.New(color.FgYellow).Fprintf(out, "\n%s\n", strings.ToUpper(string(exam)))
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"CO", "Target", "Students", "Met %", "Points"})
		for _, o := range outcomes {
			table.Append([]string{
				o.CO,
				fmtFloat(o.Target),
				strconv.Itoa(len(o.Scores)),
				fmtFloat(o.Percentage),
				strconv.Itoa(o.Points),
			})
		}
		table.Render()
	}

	if a := res.Assignment; a != nil {
		color.New(color.FgYellow).Fprintf(out, "\nASSIGNMENT (all COs)\n")
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"Target", "Students", "Met %", "Points"})
		table.Append([]string{fmtFloat(a.Target), strconv.Itoa(len(a.Scores)), fmtFloat(a.Percentage), strconv.Itoa(a.Points)})
		table.Render()
	}

	color.New(color.FgGreen).Fprintf(out, "\nOverall attainment\n")
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"CO", "Score"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, s := range res.Scores {
		table.Append([]string{s.CO, fmtFloat(s.Score)})
	}
	table.Render()
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

var errUsage = errors.New("usage: coreport -students FILE -subject NAME -total-co N -mapping FILE [-minor1 FILE] [-minor2 FILE] [-assignment FILE] [-final FILE]")

// Package chart renders CO attainment as a bar chart, either as an HTML page
// or as an Excel workbook with a native column chart.
package chart

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/xuri/excelize/v2"
)

const (
	xAxisName = "Course Outcomes"
	yAxisName = "Overall Points"
	sheetName = "Attainment"
)

// ErrShape is returned when categories and values cannot form a chart
var ErrShape = errors.New("categories and values must be non-empty and of equal length")

// Title returns the chart title for a subject
func Title(subjectName string) string {
	if subjectName == "" {
		subjectName = "Subject"
	}
	return "CO Attainment for " + subjectName
}

func checkShape(categories []string, values []float64) error {
	if len(categories) == 0 || len(categories) != len(values) {
		return fmt.Errorf("%w: %d categories, %d values", ErrShape, len(categories), len(values))
	}
	return nil
}

// RenderHTML writes a standalone HTML page holding one bar per category
func RenderHTML(w io.Writer, title string, categories []string, values []float64) error {
	if err := checkShape(categories, values); err != nil {
		return err
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "CO Attainment"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: xAxisName}),
		charts.WithYAxisOpts(opts.YAxis{Name: yAxisName}),
	)

	items := make([]opts.BarData, 0, len(values))
	for _, v := range values {
		items = append(items, opts.BarData{Value: v})
	}
	bar.SetXAxis(categories).AddSeries("Attainment", items)
	return bar.Render(w)
}

// WriteWorkbook writes an .xlsx file with a CO/Score table and a column chart over it
func WriteWorkbook(w io.Writer, title string, categories []string, values []float64) error {
	if err := checkShape(categories, values); err != nil {
		return err
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &[]interface{}{"CO", "Score"}); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}
	for i, co := range categories {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &[]interface{}{co, values[i]}); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", co, err)
		}
	}

	last := len(categories) + 1
	err := f.AddChart(sheetName, "D2", &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$1", sheetName),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", sheetName, last),
			Values:     fmt.Sprintf("%s!$B$2:$B$%d", sheetName, last),
		}},
		Title:  []excelize.RichTextRun{{Text: title}},
		Legend: excelize.ChartLegend{Position: "none"},
		XAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: xAxisName}}},
		YAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: yAxisName}}},
	})
	if err != nil {
		return fmt.Errorf("failed to add chart: %w", err)
	}
	return f.Write(w)
}

package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Generate encodes the report as csv or pdf.
func Generate(report *Report, format string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return generateCSV(report)
	case FormatPDF:
		return generatePDF(report)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

var csvHeader = []string{
	"date", "logged_water_ml", "water_goal_ml", "logged_calories", "calorie_goal",
	"burned_calories", "net_calories", "activities", "activity_minutes",
}

// generateCSV generates a CSV report, one row per recorded day
func generateCSV(report *Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}

	for _, r := range report.Rows {
		row := []string{
			r.Date,
			strconv.Itoa(r.LoggedWater),
			optInt(r.WaterGoal),
			formatKcal(r.LoggedCalories),
			optFloat(r.CalorieGoal),
			formatKcal(r.BurnedCalories),
			formatKcal(r.NetCalories),
			strconv.Itoa(r.Activities),
			strconv.Itoa(r.ActivityMinutes),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// generatePDF renders with the core Helvetica font, so all text is Latin.
func generatePDF(report *Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "ActiveLife daily report")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, tr(fmt.Sprintf("User: %s", Transliterate(report.UserID))))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Period: %s to %s (%d days)", report.From, report.To, report.Days))
	pdf.Ln(10)

	// Сводка
	t := report.Totals
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	summary := []string{
		fmt.Sprintf("Days recorded: %d", t.DaysRecorded),
		fmt.Sprintf("Water: %d ml total, %s ml per day", t.LoggedWater, perDay(float64(t.LoggedWater), t.DaysRecorded)),
		fmt.Sprintf("Calories consumed: %s kcal total, %s kcal per day", formatKcal(t.LoggedCalories), perDay(t.LoggedCalories, t.DaysRecorded)),
		fmt.Sprintf("Calories burned: %s kcal total", formatKcal(t.BurnedCalories)),
		fmt.Sprintf("Net calories: %s kcal", formatKcal(t.NetCalories)),
		fmt.Sprintf("Activities: %d, %d minutes", t.Activities, t.ActivityMinutes),
	}
	for _, line := range summary {
		pdf.Cell(0, 6, line)
		pdf.Ln(5)
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Days")
	pdf.Ln(8)
	drawDaysTable(pdf, report.Rows)

	if len(report.ByType) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, "Activities by type")
		pdf.Ln(8)
		drawTypesTable(pdf, tr, report.ByType)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func drawDaysTable(pdf *gofpdf.Fpdf, rows []Row) {
	widths := []float64{24, 20, 20, 22, 22, 20, 20, 16, 16}
	header := []string{"Date", "Water", "Goal", "Eaten", "Goal", "Burned", "Net", "Acts", "Min"}

	pdf.SetFont("Helvetica", "B", 8)
	for i, h := range header {
		pdf.CellFormat(widths[i], 6, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	if len(rows) == 0 {
		pdf.CellFormat(sum(widths), 6, "No records in this period", "1", 1, "C", false, 0, "")
		return
	}
	for _, r := range rows {
		cells := []string{
			r.Date,
			strconv.Itoa(r.LoggedWater),
			optInt(r.WaterGoal),
			formatKcal(r.LoggedCalories),
			optFloat(r.CalorieGoal),
			formatKcal(r.BurnedCalories),
			formatKcal(r.NetCalories),
			strconv.Itoa(r.Activities),
			strconv.Itoa(r.ActivityMinutes),
		}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 6, c, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func drawTypesTable(pdf *gofpdf.Fpdf, tr func(string) string, types []TypeTotal) {
	widths := []float64{60, 25, 30, 30}

	pdf.SetFont("Helvetica", "B", 8)
	for i, h := range []string{"Activity", "Count", "Minutes", "Kcal"} {
		pdf.CellFormat(widths[i], 6, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, t := range types {
		pdf.CellFormat(widths[0], 6, tr(Transliterate(t.ActivityType)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, strconv.Itoa(t.Count), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 6, strconv.Itoa(t.TotalMinutes), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[3], 6, strconv.Itoa(t.TotalCalories), "1", 1, "C", false, 0, "")
	}
}

var cyrillicToLatin = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "shch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
}

// Transliterate maps Russian letters to Latin for the core PDF fonts.
func Transliterate(s string) string {
	var b strings.Builder
	for _, r := range s {
		lower := []rune(strings.ToLower(string(r)))[0]
		lat, ok := cyrillicToLatin[lower]
		if !ok {
			b.WriteRune(r)
			continue
		}
		if lower != r && lat != "" {
			lat = strings.ToUpper(lat[:1]) + lat[1:]
		}
		b.WriteString(lat)
	}
	return b.String()
}

func formatKcal(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatKcal(*v)
}

func perDay(total float64, days int) string {
	if days == 0 {
		return "0"
	}
	return formatKcal(total / float64(days))
}

func sum(xs []float64) float64 {
	var total float64
	for _, x := range xs {
		total += x
	}
	return total
}

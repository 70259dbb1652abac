package analyses

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sort"
	"strconv"
	"strings"

	"recruit-assistant/internal/candidates"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var reportTemplate = template.Must(
	template.New("report.html.tmpl").
		Funcs(template.FuncMap{"join": func(s []string) string { return strings.Join(s, ", ") }}).
		ParseFS(templateFS, "templates/report.html.tmpl"),
)

type exportData struct {
	CandidateName   string
	FileName        string
	CreatedAt       string
	MatchScore      string
	ScoreDegrees    string
	ContactInfo     string
	Summary         string
	Strengths       []string
	Weaknesses      []string
	Potential       string
	CandidateSkills []string
	MatchedSkills   []string
	MissingSkills   []string
	Questions       []string
	Report          string
	JobDescription  string
}

// renderExport renders a printable HTML report. All values are escaped by
// html/template.
func renderExport(rec Record, cand *candidates.Candidate) (string, error) {
	fileName := "未知"
	if cand != nil {
		fileName = cand.FileName
	}
	data := exportData{
		CandidateName:   candidateName(rec.Profile),
		FileName:        fileName,
		CreatedAt:       rec.CreatedAt.Format("2006-01-02 15:04:05"),
		MatchScore:      formatScore(rec.MatchScore),
		ScoreDegrees:    formatScore(rec.MatchScore * 3.6),
		ContactInfo:     formatContact(rec.Profile.ContactInfo),
		Summary:         rec.Profile.Summary,
		Strengths:       rec.Profile.Strengths,
		Weaknesses:      rec.Profile.Weaknesses,
		Potential:       rec.Profile.Potential,
		CandidateSkills: rec.Skills.CandidateSkills,
		MatchedSkills:   rec.Skills.MatchedSkills,
		MissingSkills:   rec.Skills.MissingSkills,
		Questions:       rec.Questions,
		Report:          rec.Report,
		JobDescription:  rec.JobDescription,
	}
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatContact renders "key: value" pairs in key order.
func formatContact(info map[string]string) string {
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+info[k])
	}
	return strings.Join(parts, ", ")
}

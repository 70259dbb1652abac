package pipeline

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DefaultPotential fills a missing potential assessment.
const DefaultPotential = "暂无评估"

var canonicalKeys = []string{
	"match_score",
	"skills_analysis",
	"experience_analysis",
	"education_analysis",
	"strengths",
	"weaknesses",
	"potential",
}

var (
	// Durations such as "1-2年" take the first run of digits.
	digitsPattern = regexp.MustCompile(`\d+`)
	// Scores keep a fractional part: "85.5分".
	scorePattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
)

// Normalize coerces any JSON value into a fully populated AnalysisResult.
// It never fails; normalizing its own marshalled output is a no-op.
func Normalize(raw json.RawMessage) AnalysisResult {
	out := EmptyAnalysisResult()
	obj, ok := decodeObject(raw)
	if !ok {
		return out
	}

	if v, ok := obj["match_score"]; ok {
		out.MatchScore = clampScore(coerceNumber(v, scorePattern))
	}
	if v, ok := obj["skills_analysis"]; ok {
		out.SkillsAnalysis = normalizeSkills(v)
	}
	if v, ok := obj["experience_analysis"]; ok {
		out.ExperienceAnalysis = normalizeExperience(v)
	}
	if v, ok := obj["education_analysis"]; ok {
		out.EducationAnalysis = normalizeEducation(v)
	}
	if v, ok := obj["strengths"]; ok {
		out.Strengths = coerceStrings(v)
	}
	if v, ok := obj["weaknesses"]; ok {
		out.Weaknesses = coerceStrings(v)
	}
	if v, ok := obj["potential"]; ok && !isNull(v) {
		out.Potential = coerceString(v)
	}

	for k, v := range obj {
		if isCanonicalKey(k) {
			continue
		}
		if out.Extra == nil {
			out.Extra = make(map[string]json.RawMessage)
		}
		out.Extra[k] = compact(v)
	}
	return out
}

func normalizeSkills(raw json.RawMessage) SkillsAnalysis {
	out := emptySkills()
	obj, ok := decodeObject(raw)
	if !ok {
		return out
	}
	out.RequiredSkills = coerceStrings(obj["required_skills"])
	out.CandidateSkills = coerceStrings(obj["candidate_skills"])
	out.MatchedSkills = coerceStrings(obj["matched_skills"])
	out.MissingSkills = coerceStrings(obj["missing_skills"])
	out.SkillScores = coerceScoreTable(obj["skill_scores"])
	return out
}

func normalizeExperience(raw json.RawMessage) ExperienceAnalysis {
	out := emptyExperience()
	obj, ok := decodeObject(raw)
	if !ok {
		return out
	}
	out.TotalExperience = nonNegative(coerceNumber(obj["total_experience"], digitsPattern))
	out.RelevantExperience = nonNegative(coerceNumber(obj["relevant_experience"], digitsPattern))
	out.CompanyCount = coerceCount(obj["company_count"])
	out.PositionProgression = coerceStrings(obj["position_progression"])
	out.IndustryExperience = coerceStrings(obj["industry_experience"])
	return out
}

func normalizeEducation(raw json.RawMessage) EducationAnalysis {
	out := emptyEducation()
	obj, ok := decodeObject(raw)
	if !ok {
		return out
	}
	out.DegreeLevel = coerceString(obj["degree_level"])
	out.Major = coerceString(obj["major"])
	out.School = coerceString(obj["school"])
	out.GraduationYear = coerceYear(obj["graduation_year"])
	out.EducationScore = clampScore(coerceNumber(obj["education_score"], scorePattern))
	return out
}

func decodeObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func isCanonicalKey(k string) bool {
	for _, c := range canonicalKeys {
		if c == k {
			return true
		}
	}
	return false
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// compact matches the form json.Marshal emits for raw values, so extras are
// byte-stable across round trips.
func compact(raw json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	var escaped bytes.Buffer
	json.HTMLEscape(&escaped, buf.Bytes())
	return escaped.Bytes()
}

// coerceNumber reads a JSON number, or scans a string with pattern.
// Anything else is 0.
func coerceNumber(raw json.RawMessage, pattern *regexp.Regexp) float64 {
	if isNull(raw) {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return firstNumber(s, pattern)
	}
	return 0
}

func firstNumber(s string, pattern *regexp.Regexp) float64 {
	m := pattern.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return n
}

// Graduation years outside this window are treated as unknown.
const (
	minGraduationYear = 1900
	maxGraduationYear = 2100
)

// coerceCount reads a non-negative integer. A list counts its elements.
func coerceCount(raw json.RawMessage) int {
	if isNull(raw) {
		return 0
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		return len(list)
	}
	n := coerceNumber(raw, digitsPattern)
	if math.IsNaN(n) || n <= 0 || n > math.MaxInt32 {
		return 0
	}
	return int(n)
}

func coerceYear(raw json.RawMessage) *int {
	if isNull(raw) {
		return nil
	}
	n := coerceNumber(raw, digitsPattern)
	if math.IsNaN(n) || n < minGraduationYear || n > maxGraduationYear {
		return nil
	}
	year := int(n)
	return &year
}

// coerceString renders scalars as text and joins lists with "、".
func coerceString(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(coerceStrings(raw), "、")
	}
	return ""
}

// coerceStrings accepts a list or a single value. Objects contribute their
// "name" field; empty entries are dropped.
func coerceStrings(raw json.RawMessage) []string {
	out := []string{}
	if isNull(raw) {
		return out
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		if s := scalarOrName(raw); s != "" {
			out = append(out, s)
		}
		return out
	}
	for _, item := range list {
		if s := scalarOrName(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func scalarOrName(raw json.RawMessage) string {
	if obj, ok := decodeObject(raw); ok {
		for _, key := range []string{"name", "title", "skill"} {
			if v, ok := obj[key]; ok {
				return coerceString(v)
			}
		}
		return ""
	}
	var nested []json.RawMessage
	if err := json.Unmarshal(raw, &nested); err == nil {
		return ""
	}
	return coerceString(raw)
}

// coerceScoreTable accepts an object, or a list of {name, score} objects.
func coerceScoreTable(raw json.RawMessage) ScoreTable {
	if isNull(raw) {
		return ScoreTable{}
	}
	if _, ok := decodeObject(raw); ok {
		table, err := decodeScoreTable(raw)
		if err != nil {
			return ScoreTable{}
		}
		return table
	}
	out := ScoreTable{}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return out
	}
	for _, item := range list {
		obj, ok := decodeObject(item)
		if !ok {
			continue
		}
		name := ""
		for _, key := range []string{"name", "skill"} {
			if v, ok := obj[key]; ok {
				name = coerceString(v)
				break
			}
		}
		if name == "" {
			continue
		}
		out = out.set(name, clampScore(coerceNumber(obj["score"], scorePattern)))
	}
	return out
}

func clampScore(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectEmptyAnalysisHasFiveNonEmptySeries(t *testing.T) {
	c := Project(EmptyAnalysisResult())

	assert.Equal(t, genericRadarCategories, c.SkillRadar.Categories)
	assert.Equal(t, genericRadarValues, c.SkillRadar.Values)
	assert.Equal(t, []float64{2.0, 1.6, 0}, c.ExperienceBar.Values)
	assert.Equal(t, []PieSlice{{Name: "教育匹配度", Value: 50}, {Name: "其他因素", Value: 50}}, c.EducationPie)
	assert.Equal(t, []float64{0, 0, 0}, c.SkillComparison.Values)
	assert.Equal(t, []float64{70, 40, 50, 85, 70}, c.ComprehensiveRadar.Values)
	assert.Equal(t, 0.0, c.MatchScore)

	for _, s := range []Series{c.SkillRadar, c.ExperienceBar, c.SkillComparison, c.ComprehensiveRadar} {
		assert.NotEmpty(t, s.Categories)
		assert.Len(t, s.Values, len(s.Categories))
	}
	assert.NotEmpty(t, c.EducationPie)
	assert.Equal(t, c, DefaultChartBundle())
}

func TestProjectSkillRadarSources(t *testing.T) {
	t.Run("scores capped at eight in order", func(t *testing.T) {
		a := EmptyAnalysisResult()
		for i := 0; i < 10; i++ {
			a.SkillsAnalysis.SkillScores = append(a.SkillsAnalysis.SkillScores, ScoreEntry{Name: fmt.Sprintf("s%d", i), Score: float64(90 - i)})
		}
		r := Project(a).SkillRadar
		assert.Equal(t, []string{"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7"}, r.Categories)
		assert.Equal(t, []float64{90, 89, 88, 87, 86, 85, 84, 83}, r.Values)
	})
	t.Run("candidate skills synthesize", func(t *testing.T) {
		a := EmptyAnalysisResult()
		a.SkillsAnalysis.CandidateSkills = []string{"Go", "Java", "数据分析"}
		r := Project(a).SkillRadar
		assert.Equal(t, []string{"Go", "Java", "数据分析"}, r.Categories)
		assert.Equal(t, []float64{76, 82, 82}, r.Values)
	})
	t.Run("required skills synthesize", func(t *testing.T) {
		a := EmptyAnalysisResult()
		a.SkillsAnalysis.RequiredSkills = []string{"Go", "a", "b", "c", "d", "e", "f"}
		r := Project(a).SkillRadar
		assert.Len(t, r.Categories, 6)
		assert.Equal(t, 68.0, r.Values[0])
		assert.Equal(t, 64.0, r.Values[1])
	})
}

func TestProjectExperienceAndEducation(t *testing.T) {
	a := EmptyAnalysisResult()
	a.ExperienceAnalysis.PositionProgression = []string{"初级", "中级", "高级"}
	a.ExperienceAnalysis.CompanyCount = 4
	a.EducationAnalysis.DegreeLevel = "博士研究生"
	a.MatchScore = 77

	c := Project(a)
	assert.Equal(t, []float64{4.5, 3.6, 4}, c.ExperienceBar.Values)
	assert.Equal(t, 95.0, c.EducationPie[0].Value)
	assert.Equal(t, 5.0, c.EducationPie[1].Value)
	assert.Equal(t, []float64{70, 90, 95, 97.5, 100}, c.ComprehensiveRadar.Values)
	assert.Equal(t, 77.0, c.MatchScore)
}

func TestProjectKeepsGivenExperience(t *testing.T) {
	a := EmptyAnalysisResult()
	a.ExperienceAnalysis.TotalExperience = 8
	a.ExperienceAnalysis.RelevantExperience = 5
	a.EducationAnalysis.EducationScore = 80
	a.SkillsAnalysis.SkillScores = ScoreTable{{Name: "Go", Score: 92}}

	c := Project(a)
	assert.Equal(t, []float64{8, 5, 0}, c.ExperienceBar.Values)
	assert.Equal(t, []float64{92, 100, 80, 100, 70}, c.ComprehensiveRadar.Values)
}

func TestProjectIsPure(t *testing.T) {
	a := Normalize([]byte(`{"skills_analysis": {"candidate_skills": ["Go"], "skill_scores": {"Go": 90}}}`))
	before := Project(a)
	after := Project(a)
	assert.Equal(t, before, after)
	assert.Equal(t, ScoreTable{{Name: "Go", Score: 90}}, a.SkillsAnalysis.SkillScores)
}

func TestWeightedScore(t *testing.T) {
	a := EmptyAnalysisResult()
	assert.Equal(t, 0.0, WeightedScore(a))

	a.SkillsAnalysis.SkillScores = ScoreTable{{Name: "Go", Score: 90}, {Name: "SQL", Score: 70}}
	a.ExperienceAnalysis.TotalExperience = 4
	a.ExperienceAnalysis.RelevantExperience = 3
	a.EducationAnalysis.EducationScore = 85
	// 80*0.4 + 75*0.4 + 85*0.2
	assert.Equal(t, 79.0, WeightedScore(a))
}

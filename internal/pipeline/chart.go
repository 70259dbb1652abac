package pipeline

const maxRadarSkills = 8

var (
	genericRadarCategories = []string{"技术能力", "项目经验", "学习能力", "沟通能力", "问题解决"}
	genericRadarValues     = []float64{70, 65, 80, 75, 70}
)

// Project derives the chart series for an analysis. Pure; every series is
// non-empty for any input.
func Project(a AnalysisResult) ChartBundle {
	radar := skillRadar(a.SkillsAnalysis)
	exp := a.ExperienceAnalysis

	total := exp.TotalExperience
	if total == 0 {
		if n := len(exp.PositionProgression); n > 0 {
			total = 1.5 * float64(n)
		} else {
			total = 2.0
		}
	}
	relevant := exp.RelevantExperience
	if relevant == 0 {
		relevant = 0.8 * total
	}

	eduScore := a.EducationAnalysis.EducationScore
	if eduScore == 0 {
		eduScore, _ = degreeScore(a.EducationAnalysis.DegreeLevel)
	}
	eduScore = clampScore(eduScore)

	firstSkill := 70.0
	if len(radar.Values) > 0 {
		firstSkill = radar.Values[0]
	}

	return ChartBundle{
		SkillRadar: radar,
		ExperienceBar: Series{
			Categories: []string{"总经验", "相关经验", "公司数量"},
			Values:     []float64{round1(total), round1(relevant), float64(exp.CompanyCount)},
		},
		EducationPie: []PieSlice{
			{Name: "教育匹配度", Value: round1(eduScore)},
			{Name: "其他因素", Value: round1(100 - eduScore)},
		},
		SkillComparison: Series{
			Categories: []string{"候选技能数", "匹配技能数", "缺失技能数"},
			Values: []float64{
				float64(len(a.SkillsAnalysis.CandidateSkills)),
				float64(len(a.SkillsAnalysis.MatchedSkills)),
				float64(len(a.SkillsAnalysis.MissingSkills)),
			},
		},
		ComprehensiveRadar: Series{
			Categories: []string{"技术能力", "工作经验", "教育背景", "学习能力", "沟通能力"},
			Values: []float64{
				round1(clampScore(firstSkill)),
				round1(clampScore(total / 5 * 100)),
				round1(eduScore),
				round1(clampScore(75 + 5*total)),
				round1(clampScore(70 + 10*float64(exp.CompanyCount))),
			},
		},
		MatchScore: clampScore(a.MatchScore),
	}
}

// DefaultChartBundle is the projection of the empty analysis, used when
// chart derivation itself fails.
func DefaultChartBundle() ChartBundle {
	return Project(EmptyAnalysisResult())
}

func skillRadar(s SkillsAnalysis) Series {
	if len(s.SkillScores) > 0 {
		table := s.SkillScores
		if len(table) > maxRadarSkills {
			table = table[:maxRadarSkills]
		}
		values := table.Scores()
		for i, v := range values {
			values[i] = clampScore(v)
		}
		return Series{Categories: table.Names(), Values: values}
	}
	if len(s.CandidateSkills) > 0 {
		return synthRadar(head(s.CandidateSkills, maxRadarSkills), 70, 3)
	}
	if len(s.RequiredSkills) > 0 {
		return synthRadar(head(s.RequiredSkills, 6), 60, 4)
	}
	return Series{
		Categories: append([]string(nil), genericRadarCategories...),
		Values:     append([]float64(nil), genericRadarValues...),
	}
}

func synthRadar(names []string, base, per float64) Series {
	values := make([]float64, len(names))
	for i, n := range names {
		values[i] = lengthScore(n, base, per)
	}
	return Series{Categories: names, Values: values}
}

// WeightedScore blends skills, experience relevance and education into one
// score: 40% average skill score, 40% relevant/total experience, 20% education.
func WeightedScore(a AnalysisResult) float64 {
	skills := 0.0
	if scores := a.SkillsAnalysis.SkillScores.Scores(); len(scores) > 0 {
		for _, v := range scores {
			skills += v
		}
		skills /= float64(len(scores))
	}
	experience := 0.0
	if t := a.ExperienceAnalysis.TotalExperience; t > 0 {
		experience = a.ExperienceAnalysis.RelevantExperience / t * 100
	}
	total := skills*0.4 + experience*0.4 + a.EducationAnalysis.EducationScore*0.2
	return round1(clampScore(total))
}

package pipeline

import (
	"encoding/json"
	"strings"
)

// NormalizeProfile repairs the parse stage's output into a ResumeProfile.
// It accepts the shapes models commonly produce: "work_experience" for
// "experience", a single education object, project objects and numeric years.
// The second return is false when raw is not an object at all.
func NormalizeProfile(raw json.RawMessage) (ResumeProfile, bool) {
	obj, ok := decodeObject(raw)
	if !ok {
		return EmptyResumeProfile(), false
	}
	p := EmptyResumeProfile()
	p.Name = coerceString(obj["name"])
	if p.Name == "" {
		p.Name = UnknownName
	}
	p.ContactInfo = coerceStringMap(obj["contact_info"])
	p.Summary = coerceString(obj["summary"])
	p.Skills = coerceStrings(obj["skills"])
	p.Projects = coerceStrings(obj["projects"])
	p.Certifications = coerceStrings(obj["certifications"])

	expRaw, ok := obj["experience"]
	if !ok {
		expRaw = obj["work_experience"]
	}
	for _, item := range objectList(expRaw) {
		e := WorkExperience{
			Company:     coerceString(item["company"]),
			Position:    firstString(item, "position", "title"),
			Duration:    firstString(item, "duration", "period"),
			Description: coerceString(item["description"]),
			Industry:    coerceString(item["industry"]),
		}
		if e == (WorkExperience{}) {
			continue
		}
		p.Experience = append(p.Experience, e)
	}

	for _, item := range objectList(obj["education"]) {
		e := EducationEntry{
			Degree: firstString(item, "degree", "degree_level"),
			Major:  coerceString(item["major"]),
			School: coerceString(item["school"]),
			Year:   firstString(item, "year", "graduation_year"),
		}
		if e == (EducationEntry{}) {
			continue
		}
		p.Education = append(p.Education, e)
	}
	return p, true
}

// objectList accepts a list of objects or a single object.
func objectList(raw json.RawMessage) []map[string]json.RawMessage {
	if isNull(raw) {
		return nil
	}
	if obj, ok := decodeObject(raw); ok {
		return []map[string]json.RawMessage{obj}
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	out := make([]map[string]json.RawMessage, 0, len(list))
	for _, item := range list {
		if obj, ok := decodeObject(item); ok {
			out = append(out, obj)
		}
	}
	return out
}

func firstString(obj map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		if s := coerceString(obj[k]); s != "" {
			return s
		}
	}
	return ""
}

func coerceStringMap(raw json.RawMessage) map[string]string {
	out := map[string]string{}
	obj, ok := decodeObject(raw)
	if !ok {
		return out
	}
	for k, v := range obj {
		if s := coerceString(v); s != "" {
			out[strings.TrimSpace(k)] = s
		}
	}
	return out
}

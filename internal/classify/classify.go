// Package classify derives experience-level, employment-type, and domain
// tags from a job title. Both board connectors share this taxonomy, so the
// same title always classifies identically regardless of source.
package classify

import "strings"

// Experience levels in precedence order: the first set with a whole-word
// match in the title wins.
var experienceLevels = []struct {
	level    string
	keywords []string
}{
	{"Intern", []string{"intern", "internship"}},
	{"Founding Team", []string{"founder", "co-founder", "founding"}},
	{"Lead", []string{"lead", "architect"}},
	{"Senior", []string{"senior", "sr."}},
	{"Manager", []string{"manager", "director"}},
	{"Staff", []string{"staff", "principal"}},
	{"Junior", []string{"junior", "jr.", "associate", "assistant"}},
}

var (
	partTimeKeywords = []string{"internship", "intern", "trainee"}
	contractKeywords = []string{"contract", "temporary"}
)

// Domains in precedence order.
var domains = []struct {
	domain   string
	keywords []string
}{
	{"Android", []string{"android"}},
	{"Backend", []string{"backend", "back-end"}},
	{"Frontend", []string{"frontend", "front-end"}},
	{"iOS", []string{"ios"}},
	{"Full-stack", []string{"full stack", "fullstack", "full-stack"}},
	{"DevOps", []string{"devops"}},
	{"Data Science", []string{"data scientist", "data science", "machine learning"}},
}

// matchesWord reports whether any keyword appears as a whole word in the
// title. Both sides are padded with spaces so "intern" matches "Summer
// Intern" but never "Internationalization".
func matchesWord(title string, keywords []string) bool {
	padded := " " + strings.ToLower(title) + " "
	for _, kw := range keywords {
		if strings.Contains(padded, " "+kw+" ") {
			return true
		}
	}
	return false
}

// ExperienceLevel maps a title to an experience tag, defaulting to "Mid-level".
func ExperienceLevel(title string) string {
	for _, e := range experienceLevels {
		if matchesWord(title, e.keywords) {
			return e.level
		}
	}
	return "Mid-level"
}

// EmploymentType maps a title to "Part-Time", "Contract", or "Full-Time".
func EmploymentType(title string) string {
	if matchesWord(title, partTimeKeywords) {
		return "Part-Time"
	}
	if matchesWord(title, contractKeywords) {
		return "Contract"
	}
	return "Full-Time"
}

// Domain maps a title to a technical domain tag, defaulting to "Other".
func Domain(title string) string {
	for _, d := range domains {
		if matchesWord(title, d.keywords) {
			return d.domain
		}
	}
	return "Other"
}

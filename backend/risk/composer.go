package risk

import (
	"fmt"
	"strings"
)

// Messages holds the two audience-specific notifications for one assessment.
type Messages struct {
	StudentTitle    string
	StudentBody     string
	InstructorTitle string
	InstructorBody  string
}

var studentFactorDescriptions = map[Factor]string{
	FactorInactivity: "you haven't visited the course in a while",
	FactorCompletion: "most lessons are still waiting for you",
	FactorDeadlines:  "some deadlines have passed",
	FactorEngagement: "your recent engagement has dropped",
}

var instructorFactorDescriptions = map[Factor]string{
	FactorInactivity: "prolonged inactivity",
	FactorCompletion: "low lesson completion",
	FactorDeadlines:  "missed deadlines",
	FactorEngagement: "low engagement score",
}

// Compose renders the student and instructor messages. Pure string
// construction; factor order comes from the classifier and is preserved.
func Compose(studentName, courseTitle string, a Assessment) Messages {
	var studentReasons, instructorReasons []string
	for _, f := range a.Factors {
		studentReasons = append(studentReasons, studentFactorDescriptions[f])
		instructorReasons = append(instructorReasons, instructorFactorDescriptions[f])
	}

	studentBody := fmt.Sprintf(
		"It looks like \"%s\" could use some attention: %s. "+
			"Even a short session helps keep your momentum going!",
		courseTitle, strings.Join(studentReasons, "; "))

	instructorBody := fmt.Sprintf(
		"%s is at %s risk in \"%s\". Contributing factors: %s. "+
			"Consider reaching out to the student.",
		studentName, strings.ToLower(string(a.Tier)), courseTitle,
		strings.Join(instructorReasons, ", "))

	return Messages{
		StudentTitle:    fmt.Sprintf("Keep going with \"%s\"", courseTitle),
		StudentBody:     studentBody,
		InstructorTitle: fmt.Sprintf("Student at %s risk: %s", strings.ToLower(string(a.Tier)), studentName),
		InstructorBody:  instructorBody,
	}
}

// FactorNames joins factor names for storage in a notification record.
func FactorNames(factors []Factor) string {
	names := make([]string, len(factors))
	for i, f := range factors {
		names[i] = string(f)
	}
	return strings.Join(names, ",")
}

package task

import (
	"fmt"
	"unicode/utf8"

	"github.com/Anveeka07/TaskManager/internal/domain"
)

// Validation messages returned to clients.
const (
	MsgTitleRequired      = "Title is required"
	MsgDescriptionType    = "Description must be a string"
	MsgInvalidStatus      = "Invalid status value"
	MsgInvalidPriority    = "Invalid priority value"
	MsgNoFieldsToUpdate   = "No fields to update"
	msgTitleTooShortFmt   = "Title must be at least %d characters"
	msgTitleTooLongFmt    = "Title must be at most %d characters"
	msgDescriptionLongFmt = "Description must be at most %d characters"
)

// Validate checks a normalized payload and returns every problem in the order
// title, description, status, priority. On update only present keys are checked;
// on create the title is mandatory and a null description means the empty default.
func Validate(p Payload, isUpdate bool) []string {
	var problems []string

	if !isUpdate || p.Title.Set() {
		title, ok := p.Title.StringValue()
		switch n := utf8.RuneCountInString(title); {
		case !ok || n == 0:
			problems = append(problems, MsgTitleRequired)
		case n < domain.TitleMinLength:
			problems = append(problems, fmt.Sprintf(msgTitleTooShortFmt, domain.TitleMinLength))
		case n > domain.TitleMaxLength:
			problems = append(problems, fmt.Sprintf(msgTitleTooLongFmt, domain.TitleMaxLength))
		}
	}

	if p.Description.Set() && (isUpdate || !p.Description.Null()) {
		description, ok := p.Description.StringValue()
		if !ok {
			problems = append(problems, MsgDescriptionType)
		} else if utf8.RuneCountInString(description) > domain.DescriptionMaxLength {
			problems = append(problems, fmt.Sprintf(msgDescriptionLongFmt, domain.DescriptionMaxLength))
		}
	}

	if p.Status.Set() {
		if status, ok := p.Status.StringValue(); !ok || !domain.Status(status).Valid() {
			problems = append(problems, MsgInvalidStatus)
		}
	}

	if p.Priority.Set() {
		if priority, ok := p.Priority.StringValue(); !ok || !domain.Priority(priority).Valid() {
			problems = append(problems, MsgInvalidPriority)
		}
	}

	return problems
}

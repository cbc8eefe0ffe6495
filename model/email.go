package model

import "strings"

const (
	subjectMarker = "SUBJECT:"
	bodyMarker    = "BODY:"
)

// SplitEmail splits a generated email template of the form
// "SUBJECT: ...\n\nBODY:\n..." into its subject and body. A subject is only
// extracted when a BODY: marker follows it; otherwise the whole template is
// treated as the body with an empty subject. Never fails on malformed input.
func SplitEmail(template string) (subject, body string) {
	bodyIdx := strings.Index(template, bodyMarker)
	if bodyIdx < 0 {
		return "", template
	}

	body = strings.TrimSpace(template[bodyIdx+len(bodyMarker):])

	subjIdx := strings.Index(template, subjectMarker)
	if subjIdx >= 0 && subjIdx < bodyIdx {
		subject = strings.TrimSpace(template[subjIdx+len(subjectMarker) : bodyIdx])
	}

	return subject, body
}

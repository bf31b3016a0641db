// Package notify delivers password-recovery PINs to account holders.
package notify

import (
	"strings"
	"text/template"
)

var (
	resetSubject = template.Must(template.New("reset_subject").Parse(
		`Your {{.AppName}} password reset code`))
	resetBody = template.Must(template.New("reset_body").Parse(
		`Hello,

Use the code below to reset the password of your {{.AppName}} account ({{.Email}}):

    {{.Pin}}

If you did not ask for a password reset you can ignore this message.
`))
)

type resetVars struct {
	AppName string
	Email   string
	Pin     string
}

// renderReset produces the subject and body of the reset message.
func renderReset(vars resetVars) (string, string, error) {
	var subject, body strings.Builder
	if err := resetSubject.Execute(&subject, vars); err != nil {
		return "", "", err
	}
	if err := resetBody.Execute(&body, vars); err != nil {
		return "", "", err
	}
	return subject.String(), body.String(), nil
}

package services

import (
	"strings"

	"github.com/navarrastar/application-relay/pkg/models"
)

// Subject is used for every relayed application.
const Subject = "New Application from Your Website"

type bodyLine struct {
	label string
	field string
}

type bodySection struct {
	title string
	lines []bodyLine
}

var bodyLayout = []bodySection{
	{"Personal Information", []bodyLine{
		{"First Name", models.FieldFirstName},
		{"Last Name", models.FieldLastName},
		{"Email", models.FieldEmail},
		{"Phone Number", models.FieldPhone},
		{"Gender", models.FieldGender},
		{"Age", models.FieldAge},
		{"Occupation", models.FieldOccupation},
	}},
	{"Address", []bodyLine{
		{"Address", models.FieldAddress},
		{"City & State", models.FieldCityState},
		{"Zipcode", models.FieldZipcode},
	}},
	{"Banking", []bodyLine{
		{"Bank Name", models.FieldBankName},
		{"Account Number", models.FieldBankNumber},
	}},
}

// ComposeBody renders the fixed plain-text layout of the application mail.
// Fields the applicant left out are written as N/A.
func ComposeBody(sub models.Submission) string {
	var b strings.Builder
	b.WriteString("You have received a new application with the following details:\n")
	for _, section := range bodyLayout {
		b.WriteString("\n--- ")
		b.WriteString(section.title)
		b.WriteString(" ---\n")
		for _, line := range section.lines {
			b.WriteString(line.label)
			b.WriteString(": ")
			b.WriteString(sub.ValueOr(line.field, models.NotAvailable))
			b.WriteString("\n")
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

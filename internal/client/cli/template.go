package cli

import (
	"strings"
	"text/template"
	"time"

	"github.com/iudanet/labdesk/internal/models"
)

var templateFuncs = template.FuncMap{
	"money": formatMoney,
	"dash":  orDash,
}

const whoamiTemplate = `Username:  {{.User.Username}}
Full name: {{.User.FullName}}
Email:     {{.User.Email}}
Role:      {{.User.Role.DisplayName}}
Expires:   {{.Expires}}
`

const projectTemplate = `Status:      {{.Project.Status}}
Manager:     {{dash .Project.ManagerFullName}}
Period:      {{dash .Project.StartDate}} .. {{dash .Project.EndDate}}
Description: {{dash .Project.Description}}
{{- with .Budget}}
Budget:      allocated {{money .AllocatedAmount}}, spent {{money .SpentAmount}}, remaining {{money .Remaining}}
{{- end}}
`

var (
	whoamiTmpl  = template.Must(template.New("whoami").Funcs(templateFuncs).Parse(whoamiTemplate))
	projectTmpl = template.Must(template.New("project").Funcs(templateFuncs).Parse(projectTemplate))
)

type whoamiView struct {
	User    *models.User
	Expires string
}

func renderWhoami(user *models.User, expiresAt int64) (string, error) {
	view := whoamiView{User: user, Expires: "never"}
	if expiresAt > 0 {
		view.Expires = time.Unix(expiresAt, 0).Format(time.RFC3339)
	}

	var sb strings.Builder
	if err := whoamiTmpl.Execute(&sb, view); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func renderProject(overview *models.ProjectOverview) (string, error) {
	var sb strings.Builder
	if err := projectTmpl.Execute(&sb, overview); err != nil {
		return "", err
	}
	return sb.String(), nil
}

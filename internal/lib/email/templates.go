package email

// Template names an HTML file under templates/.
type Template string

const (
	TemplateWelcome Template = "welcome"
)

// subjects maps each template to the subject line it is sent with.
var subjects = map[Template]string{
	TemplateWelcome: "Welcome to HBnB!",
}

// PreviewData holds sample values for rendering each template locally.
var PreviewData = map[Template]map[string]string{
	TemplateWelcome: {
		"UserFirstName": "Betty",
	},
}

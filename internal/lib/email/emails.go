package email

// SendWelcomeEmail greets a newly registered user. Users created without a
// first name are greeted generically.
func (c *Client) SendWelcomeEmail(to, firstName string) error {
	if firstName == "" {
		firstName = "there"
	}
	return c.SendEmail(to, subjects[TemplateWelcome], TemplateWelcome, map[string]string{
		"UserFirstName": firstName,
	})
}

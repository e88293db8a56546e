package email

// Config selects and configures the outbound mail provider. Without a
// Postmark server token messages are written to DevDir instead.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"EMAIL_SENDER" envDefault:"library@jrmsu.edu.ph"`
	SupportEmail         string `env:"EMAIL_SUPPORT" envDefault:"library@jrmsu.edu.ph"`
	DevDir               string `env:"EMAIL_DEV_DIR" envDefault:"tmp/emails"`
}

// NewSender returns the Postmark client when a server token is configured
// and the file-backed DevSender otherwise.
func NewSender(cfg Config) (EmailSender, error) {
	if cfg.PostmarkServerToken == "" {
		return NewDevSender(cfg.DevDir), nil
	}
	return NewPostmarkClient(cfg)
}

package config

type EmailConfig struct {
	Provider   string            `yaml:"provider"` // smtp, mailersend, log
	FromEmail  string            `yaml:"from_email"`
	FromName   string            `yaml:"from_name"`
	SMTP       *SMTPConfig       `yaml:"smtp"`
	MailerSend *MailerSendConfig `yaml:"mailersend"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type MailerSendConfig struct {
	APIKey string `yaml:"api_key"`
}

func loadEmailConfig() *EmailConfig {
	return &EmailConfig{
		Provider:  getEnv("EMAIL_PROVIDER", "log"),
		FromEmail: getEnv("EMAIL_FROM_ADDRESS", "noreply@goclean.app"),
		FromName:  getEnv("EMAIL_FROM_NAME", "GoClean"),
		SMTP: &SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
		},
		MailerSend: &MailerSendConfig{
			APIKey: getEnv("MAILERSEND_API_KEY", ""),
		},
	}
}

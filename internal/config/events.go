package config

type EventsConfig struct {
	Enabled                 bool   `yaml:"enabled"`
	NATSURL                 string `yaml:"nats_url"`
	BookingCompletedSubject string `yaml:"booking_completed_subject"`
	RewardEarnedSubject     string `yaml:"reward_earned_subject"`
	QueueGroup              string `yaml:"queue_group"`
}

func loadEventsConfig() *EventsConfig {
	return &EventsConfig{
		Enabled:                 getEnvAsBool("EVENTS_ENABLED", false),
		NATSURL:                 getEnv("NATS_URL", "nats://localhost:4222"),
		BookingCompletedSubject: getEnv("NATS_BOOKING_COMPLETED_SUBJECT", "bookings.completed"),
		RewardEarnedSubject:     getEnv("NATS_REWARD_EARNED_SUBJECT", "referrals.reward_earned"),
		QueueGroup:              getEnv("NATS_QUEUE_GROUP", "referral-rewards"),
	}
}

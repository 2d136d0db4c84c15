package config

import "time"

const (
	// MinRecoveryTimeout and MaxRecoveryTimeout bound how long initialization may
	// wait on the gateway before forcing the ready state.
	MinRecoveryTimeout = 5 * time.Second
	MaxRecoveryTimeout = 10 * time.Second

	defaultRecoveryTimeout = 8 * time.Second
	defaultNoticeTTL       = 4 * time.Second
)

// SyncConfig controls the session synchronizer.
type SyncConfig struct {
	// RecoveryTimeout is the bounded wait for restoring the previous session.
	RecoveryTimeout time.Duration `env:"RECOVERY_TIMEOUT" envDefault:"8s"`
}

// Sanitize clamps the recovery timeout into [MinRecoveryTimeout, MaxRecoveryTimeout].
func (s *SyncConfig) Sanitize() {
	switch {
	case s.RecoveryTimeout <= 0:
		s.RecoveryTimeout = defaultRecoveryTimeout
	case s.RecoveryTimeout < MinRecoveryTimeout:
		s.RecoveryTimeout = MinRecoveryTimeout
	case s.RecoveryTimeout > MaxRecoveryTimeout:
		s.RecoveryTimeout = MaxRecoveryTimeout
	}
}

// BookingConfig controls booking feedback.
type BookingConfig struct {
	// NoticeTTL is how long an inline booking message stays visible.
	NoticeTTL time.Duration `env:"NOTICE_TTL" envDefault:"4s"`
}

// Sanitize applies guardrails to booking configuration values.
func (b *BookingConfig) Sanitize() {
	if b.NoticeTTL <= 0 {
		b.NoticeTTL = defaultNoticeTTL
	}
}

package config

import "time"

type GatewayConfig interface {
	GetAPIPrefix() string
	GetRequestTimeout() time.Duration
	GetRequestsPerSecond() float64
	GetRequestBurst() int
	GetLoginRoute() string
}

type Gateway struct{}

var _ GatewayConfig = Gateway{}

func (Gateway) GetAPIPrefix() string {
	return "/v1"
}

func (Gateway) GetRequestTimeout() time.Duration {
	return getEnvDuration("CURNCE_REQUEST_TIMEOUT", 30*time.Second)
}

// GetRequestsPerSecond limits outbound calls. Zero disables the limiter.
func (Gateway) GetRequestsPerSecond() float64 {
	return getEnvFloat("CURNCE_RATE_LIMIT", 0)
}

func (Gateway) GetRequestBurst() int {
	return getEnvInt("CURNCE_RATE_BURST", 5)
}

// GetLoginRoute is the entry point the user is sent to when the session is gone.
func (Gateway) GetLoginRoute() string {
	return GetEnv("CURNCE_LOGIN_ROUTE", "/login")
}

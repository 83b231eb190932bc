package http

import (
	"time"

	"github.com/tenantry/tenantry/pkg/ctx"
)

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/9/8 15:38
 * @file: http.go
 * @description: http server config
 */

type Http struct {
	Host                string
	Port                int
	Mode                string
	InternalContextPath string `mapstructure:"internalContextPath"`
	ExternalContextPath string
	Heartbeat           int64
	PProf               bool
	ExposeMetrics       bool
	AccessLog           bool
	BodyLimit           int
	ReadTimeout         int
	WriteTimeout        int
	IdleTimeout         int
	ShutdownTimeout     int
	TLS                 TLS
	Auth                Auth
	Ctx                 ctx.Context
}

type TLS struct {
	CertFile string
	KeyFile  string
}

type Auth struct {
	SecretKey      string
	AccessExpire   time.Duration
	RefreshExpire  time.Duration
	RedisKeyPrefix string
}

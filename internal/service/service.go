package service

import (
	"propcost/internal/metrics"
	"propcost/internal/server"
	"propcost/internal/storage"
)

type Service struct {
	Auth
	Security
}

func NewService(storages *storage.Storage, config server.SecurityConfig, m *metrics.Metrics) *Service {
	return &Service{
		Auth:     NewAuthService(storages.Auth),
		Security: NewSecurityService(storages, config, m),
	}
}

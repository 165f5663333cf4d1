//go:build wireinject
// +build wireinject

package di

import (
	"reserve/config"
	"reserve/infras/jwt"
	"reserve/infras/kafka"
	"reserve/infras/otel"
	"reserve/infras/postgres"
	"reserve/infras/redis"
	"reserve/permissions"
	"reserve/shared/cache"
	"reserve/transport/http"
	"reserve/transport/http/middleware"
	"reserve/transport/http/router"

	"github.com/google/wire"

	"reserve/internal/domains/reservation/admission"
	reservationRepository "reserve/internal/domains/reservation/repository"
	reservationService "reserve/internal/domains/reservation/service"
	spaceRepository "reserve/internal/domains/space/repository"
	reservationHandler "reserve/internal/handlers/reservation"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	kafka.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var spaceDomain = wire.NewSet(
	spaceRepository.New,
)

var reservationDomain = wire.NewSet(
	ProvideClock,
	admission.New,
	reservationRepository.New,
	reservationService.New,
)

var domains = wire.NewSet(
	spaceDomain,
	reservationDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	reservationHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}

//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/lightcast/internal/bootstrap"
	"github.com/yanqian/lightcast/internal/domain/astrocache"
	"github.com/yanqian/lightcast/internal/domain/lightpredict"
	"github.com/yanqian/lightcast/internal/domain/planner"
	"github.com/yanqian/lightcast/internal/infra/config"
	"github.com/yanqian/lightcast/internal/infra/weather/openmeteo"
	httpiface "github.com/yanqian/lightcast/internal/interface/http"
	"github.com/yanqian/lightcast/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideRepositories,
		provideLocationStore,
		provideCalibrationStore,
		provideEquipmentStore,
		provideAstroStore,
		provideAstroCache,
		providePredictor,
		provideSynthesizer,
		provideWeatherClient,
		providePlannerConfig,
		provideScheduler,
		planner.NewService,
		wire.Bind(new(planner.Predictor), new(*lightpredict.Predictor)),
		wire.Bind(new(planner.Ephemeris), new(*astrocache.Cache)),
		wire.Bind(new(planner.WeatherProvider), new(*openmeteo.Client)),
		wire.Bind(new(httpiface.AstroCache), new(*astrocache.Cache)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}

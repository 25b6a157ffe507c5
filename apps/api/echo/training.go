package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/miltrack/miltrack/core/training"
)

type trainingApi struct {
	svc      training.ServiceInterface
	validate *validator.Validate
}

func registerTrainingAPI(g *echo.Group, opts *Options) {
	api := trainingApi{
		svc:      opts.TrainingSvc,
		validate: opts.Validate,
	}

	tg := g.Group("/trainings")
	tg.POST("", api.create)
	tg.GET("", api.query)

	ig := g.Group("/training-instances")
	ig.POST("", api.createInstance)
	ig.GET("/:id", api.retrieveInstance)

	kg := g.Group("/training-tracks")
	kg.PUT("/:id/completion", api.setTrackCompletion)
}

// Handlers

func (api *trainingApi) create(ctx echo.Context) error {
	var data training.NewTraining
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTraining")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	tr, err := api.svc.CreateTraining(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating training")
	}

	return ctx.JSON(http.StatusCreated, tr)
}

func (api *trainingApi) query(ctx echo.Context) error {
	trainings, err := api.svc.QueryTrainings(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying trainings")
	}
	return ctx.JSON(http.StatusOK, trainings)
}

func (api *trainingApi) createInstance(ctx echo.Context) error {
	var data training.NewInstance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInstance")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	inst, trackCount, err := api.svc.CreateInstance(ctx.Request().Context(), data)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, InstanceCreatedResponse{Instance: inst, TrackCount: trackCount})
}

func (api *trainingApi) retrieveInstance(ctx echo.Context) error {
	detail, err := api.svc.InstanceDetail(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *trainingApi) setTrackCompletion(ctx echo.Context) error {
	var data training.TrackCompletion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TrackCompletion")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	track, err := api.svc.SetTrackCompletion(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, track)
}

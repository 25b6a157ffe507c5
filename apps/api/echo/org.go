package echoapi

import (
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/miltrack/miltrack/core"
	"github.com/miltrack/miltrack/core/org"
	"github.com/miltrack/miltrack/core/training"
	exportsvc "github.com/miltrack/miltrack/services/export"
)

type orgApi struct {
	svc         org.ServiceInterface
	trainingSvc training.ServiceInterface
	exportSvc   exportsvc.ServiceInterface
	mailSvc     core.EmailService
	validate    *validator.Validate
	translator  ut.Translator
}

func registerOrgAPI(g *echo.Group, opts *Options) {
	api := orgApi{
		svc:         opts.OrgSvc,
		trainingSvc: opts.TrainingSvc,
		exportSvc:   opts.ExportSvc,
		mailSvc:     opts.MailSvc,
		validate:    opts.Validate,
		translator:  opts.Translator,
	}

	cg := g.Group("/companies")
	cg.POST("", api.createCompany)
	cg.GET("", api.queryCompanies)
	cg.GET("/:id", api.retrieveCompany)
	cg.POST("/:id/platoons", api.createPlatoon)

	pg := g.Group("/platoons")
	pg.GET("/:id", api.retrievePlatoon)
	pg.GET("/:id/export", api.exportPlatoon)
	pg.POST("/:id/report", api.reportPlatoon)
	pg.POST("/:id/persons", api.createPerson)
}

// Handlers

func (api *orgApi) createCompany(ctx echo.Context) error {
	var data org.NewCompany
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCompany")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	company, err := api.svc.CreateCompany(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating company")
	}

	return ctx.JSON(http.StatusCreated, company)
}

func (api *orgApi) queryCompanies(ctx echo.Context) error {
	companies, err := api.svc.QueryCompanies(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying companies")
	}
	return ctx.JSON(http.StatusOK, companies)
}

// retrieveCompany returns the company dashboard aggregate, not just the
// bare company record.
func (api *orgApi) retrieveCompany(ctx echo.Context) error {
	overview, err := api.trainingSvc.CompanyOverview(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, overview)
}

func (api *orgApi) createPlatoon(ctx echo.Context) error {
	var data org.NewPlatoon
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPlatoon")
	}
	data.CompanyID = ctx.Param("id")
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	platoon, err := api.svc.CreatePlatoon(ctx.Request().Context(), data)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, platoon)
}

func (api *orgApi) retrievePlatoon(ctx echo.Context) error {
	detail, err := api.trainingSvc.PlatoonDetail(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *orgApi) exportPlatoon(ctx echo.Context) error {
	detail, err := api.trainingSvc.PlatoonDetail(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	buf, err := api.exportSvc.PlatoonWorkbook(detail)
	if err != nil {
		return errors.Wrap(err, "building platoon workbook")
	}

	filename := exportsvc.PlatoonFilename(detail.Platoon.Name, detail.Platoon.UpdatedAt)
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Blob(http.StatusOK, exportsvc.ContentTypeXLSX, buf.Bytes())
}

// reportPlatoon emails the platoon's progress report, workbook attached.
func (api *orgApi) reportPlatoon(ctx echo.Context) error {
	var data ReportRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReportRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	detail, err := api.trainingSvc.PlatoonDetail(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	buf, err := api.exportSvc.PlatoonWorkbook(detail)
	if err != nil {
		return errors.Wrap(err, "building platoon workbook")
	}

	msg := core.EmailMessage{
		To:      data.Addresses(),
		Subject: fmt.Sprintf("%s progress report", detail.Platoon.Name),
		BodyStr: fmt.Sprintf(
			"%s: %d of %d trainings completed (%d%%) across %d members.",
			detail.Platoon.Name,
			detail.Summary.CompletedCount,
			detail.Summary.TotalCount,
			detail.Summary.CompletionPercent,
			detail.MemberCount,
		),
	}
	msg.Attach(exportsvc.PlatoonFilename(detail.Platoon.Name, detail.Platoon.UpdatedAt), exportsvc.ContentTypeXLSX, buf)
	api.mailSvc.SendMessages(&msg)

	return ctx.JSON(http.StatusAccepted, ReportResponse{Recipients: len(data.Recipients)})
}

func (api *orgApi) createPerson(ctx echo.Context) error {
	var data org.NewPerson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPerson")
	}
	data.PlatoonID = ctx.Param("id")
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	person, err := api.svc.CreatePerson(ctx.Request().Context(), data)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, person)
}

package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/soma/core/attempt"
	"github.com/trezcool/soma/core/exam"
)

var nowFunc = time.Now // mockable

type (
	examAPI struct {
		examSvc    exam.ServiceInterface
		attemptSvc attempt.ServiceInterface
		validate   *validator.Validate
	}

	examResponse struct {
		exam.Exam
		Status exam.Status `json:"status"`
	}

	participantExamResponse struct {
		exam.ParticipantExam
		Status exam.Status `json:"status"`
	}
)

func registerExamAPI(g *echo.Group, examSvc exam.ServiceInterface, attemptSvc attempt.ServiceInterface, validate *validator.Validate) {
	api := examAPI{
		examSvc:    examSvc,
		attemptSvc: attemptSvc,
		validate:   validate,
	}

	exams := g.Group("/exams")
	exams.POST("", api.create)
	exams.GET("", api.overview)
	exams.GET("/:id", api.retrieve)
	exams.PUT("/:id", api.update)
	exams.DELETE("/:id", api.destroy)
	exams.POST("/:id/participant-check", api.checkParticipant)
	exams.POST("/:id/attempts", api.startAttempt)
	exams.GET("/:id/attempts", api.listAttempts)
}

func newExamResponse(e exam.Exam) examResponse {
	return examResponse{Exam: e, Status: e.Status(nowFunc().UTC())}
}

func (api *examAPI) create(ctx echo.Context) error {
	var data exam.NewExam
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.examSvc.Create(ctx.Request().Context(), callerID(ctx), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, newExamResponse(e))
}

// overview lists the caller's exams. ?search=<id> moves that exam to the front.
func (api *examAPI) overview(ctx echo.Context) error {
	var ord Ordering
	ord.Bind(ctx, exam.Orderings...)

	summaries, err := api.examSvc.Overview(ctx.Request().Context(), callerID(ctx), ctx.QueryParam("search"), ord.Orderings)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, summaries)
}

// retrieve returns the full exam to its creator and the participant view to anyone else.
func (api *examAPI) retrieve(ctx echo.Context) error {
	e, err := api.examSvc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if e.CreatorID == callerID(ctx) {
		return ctx.JSON(http.StatusOK, newExamResponse(e))
	}
	return ctx.JSON(http.StatusOK, participantExamResponse{
		ParticipantExam: e.ParticipantView(),
		Status:          e.Status(nowFunc().UTC()),
	})
}

func (api *examAPI) update(ctx echo.Context) error {
	var data exam.UpdateExam
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.examSvc.Update(ctx.Request().Context(), ctx.Param("id"), callerID(ctx), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newExamResponse(e))
}

func (api *examAPI) destroy(ctx echo.Context) error {
	if err := api.examSvc.Delete(ctx.Request().Context(), ctx.Param("id"), callerID(ctx)); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *examAPI) checkParticipant(ctx echo.Context) error {
	var data ParticipantCheckRequest
	if err := ctx.Bind(&data); err != nil {
		return err
	}

	valid, err := api.attemptSvc.CheckParticipant(ctx.Request().Context(), ctx.Param("id"), data.ParticipantID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ParticipantCheckResponse{Valid: valid})
}

func (api *examAPI) startAttempt(ctx echo.Context) error {
	var data attempt.NewAttempt
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.attemptSvc.Start(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, a)
}

// listAttempts is restricted to the exam's creator.
func (api *examAPI) listAttempts(ctx echo.Context) error {
	e, err := api.examSvc.GetOwned(ctx.Request().Context(), ctx.Param("id"), callerID(ctx))
	if err != nil {
		return err
	}

	attempts, err := api.attemptSvc.ListForExam(ctx.Request().Context(), e.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, attempts)
}

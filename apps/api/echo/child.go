package echoapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/bainum/dashboard/core"
	"github.com/bainum/dashboard/core/access"
	"github.com/bainum/dashboard/core/assessment"
	"github.com/bainum/dashboard/core/roster"
	"github.com/bainum/dashboard/core/user"
	backendsvc "github.com/bainum/dashboard/services/backend"
)

type (
	childPageDeps struct {
		roster      *roster.Service
		assessments assessment.Backend
		workflows   *assessment.Registry
		metrics     *metrics
		logger      core.Logger
		validate    *validator.Validate
	}

	childPageApi struct {
		childPageDeps
	}

	// assessmentsView holds everything derived from a child's assessments.
	assessmentsView struct {
		LanguageData *assessment.LanguageData   `json:"languageData"`
		Monthly      [12]assessment.MonthBucket `json:"monthlyKeywordCounts"`
		Totals       assessment.Totals          `json:"totalKeywordCounts"`
		Ceiling      int                        `json:"displayCeiling"`
	}

	childPageView struct {
		Child       roster.Child                 `json:"child"`
		Age         string                       `json:"age"`
		Notes       []roster.Note                `json:"notes"`
		Upload      assessment.Snapshot          `json:"upload"`
		CanInvite   bool                         `json:"canInviteParent"`
		Transcripts []assessment.TranscriptEntry `json:"transcripts,omitempty"` // admins only
		assessmentsView
	}

	uploadRequest struct {
		RecordingDate string `json:"recordingDate" form:"recordingDate"`
	}

	acceptView struct {
		Assessment  *assessment.Assessment `json:"assessment"`
		Upload      assessment.Snapshot    `json:"upload"`
		Warning     string                 `json:"warning,omitempty"`
		Assessments *assessmentsView       `json:"assessments,omitempty"`
	}
)

func registerChildPageAPI(g *echo.Group, gate echo.MiddlewareFunc, deps childPageDeps) {
	api := childPageApi{deps}

	cg := g.Group("/data/child/:childId", gate)
	cg.GET("", api.page)

	cg.GET("/notes", api.notes)
	cg.POST("/notes", api.addNote)
	cg.DELETE("/notes/:noteId", api.deleteNote)

	cg.GET("/upload", api.uploadState)
	cg.PUT("/upload/file", api.selectFile, middleware.BodyLimit(maxUploadBody))
	cg.POST("/upload", api.submit, middleware.BodyLimit(maxUploadBody))
	cg.DELETE("/upload", api.cancel)
	cg.POST("/review/accept", api.accept)
	cg.POST("/review/reject", api.reject)

	cg.GET("/transcripts", api.downloadTranscripts, gateMiddleware(access.Requirement{RequiredRole: user.RoleAdmin}, deps.metrics))
}

func newAssessmentsView(latest *assessment.Assessment, all []assessment.Assessment) assessmentsView {
	totals := assessment.TotalKeywordCounts(all)
	return assessmentsView{
		LanguageData: assessment.LanguageDataOf(latest),
		Monthly:      assessment.MonthlyKeywordCounts(all),
		Totals:       totals,
		Ceiling:      assessment.DisplayCeiling(totals),
	}
}

// childDataError turns a backend refusal on child data into a redirect to the parent's own child page.
// A refusal on that very page is surfaced instead.
func childDataError(ctx echo.Context, usr user.Record, err error) error {
	if backendsvc.IsForbidden(err) && usr.IsParent() {
		if r := access.OnForbidden(&usr); r.To != ctx.Request().URL.Path {
			return respondDecision(ctx, r)
		}
	}
	return err
}

// workflow is the upload-review workflow of this child page for the current session.
// Only selecting a file registers one. Without create, a missing workflow reads as idle.
func (api *childPageApi) workflow(ctx echo.Context, create bool) (*assessment.Workflow, user.Record, error) {
	sess := getContextSession(ctx)
	if sess == nil || sess.User == nil {
		return nil, user.Record{}, errUnauthorized
	}
	if create {
		return api.workflows.Get(sess.ID, ctx.Param("childId")), *sess.User, nil
	}
	return api.workflows.Find(sess.ID, ctx.Param("childId")), *sess.User, nil
}

// Handlers

func (api *childPageApi) page(ctx echo.Context) error {
	wf, usr, err := api.workflow(ctx, false)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	childID := ctx.Param("childId")

	child, err := api.roster.GetChild(reqCtx, childID)
	if err != nil {
		return childDataError(ctx, usr, errors.Wrap(err, "retrieving child"))
	}
	notes, err := api.roster.ChildNotes(reqCtx, childID)
	if err != nil {
		return childDataError(ctx, usr, errors.Wrap(err, "loading notes"))
	}
	latest, err := api.assessments.LatestAssessment(reqCtx, childID)
	if err != nil {
		return childDataError(ctx, usr, errors.Wrap(err, "loading latest assessment"))
	}
	all, err := api.assessments.ChildAssessments(reqCtx, childID)
	if err != nil {
		return childDataError(ctx, usr, errors.Wrap(err, "loading assessments"))
	}

	view := childPageView{
		Child:           child,
		Age:             roster.AgeLabel(child.DateOfBirth, core.NowFunc()),
		Notes:           notes,
		Upload:          wf.Snapshot(),
		CanInvite:       !usr.IsParent(),
		assessmentsView: newAssessmentsView(latest, all),
	}
	if usr.IsAdmin() {
		view.Transcripts = assessment.Transcripts(all)
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *childPageApi) notes(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	notes, err := api.roster.ChildNotes(ctx.Request().Context(), ctx.Param("childId"))
	if err != nil {
		return childDataError(ctx, usr, errors.Wrap(err, "loading notes"))
	}
	return ctx.JSON(http.StatusOK, echo.Map{"notes": notes})
}

func (api *childPageApi) addNote(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data roster.NoteForm
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NoteForm")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	note, err := api.roster.AddNote(ctx.Request().Context(), usr, ctx.Param("childId"), data)
	if err != nil {
		return childDataError(ctx, usr, errors.Wrap(err, "adding note"))
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"note": note})
}

func (api *childPageApi) deleteNote(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.roster.DeleteNote(ctx.Request().Context(), ctx.Param("noteId")); err != nil {
		return childDataError(ctx, usr, errors.Wrap(err, "deleting note"))
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *childPageApi) uploadState(ctx echo.Context) error {
	wf, _, err := api.workflow(ctx, false)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, wf.Snapshot())
}

func (api *childPageApi) selectFile(ctx echo.Context) error {
	wf, _, err := api.workflow(ctx, true)
	if err != nil {
		return err
	}
	file, err := bindAudioFile(ctx)
	if err != nil {
		return err
	}

	err = wf.SelectFile(file)
	api.metrics.observeWorkflow("select", err)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, wf.Snapshot())
}

// submit uploads the selected recording. A multipart request may carry the file itself,
// in which case it is selected first.
func (api *childPageApi) submit(ctx echo.Context) error {
	withFile := false
	if strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		_, fErr := ctx.FormFile(audioField)
		withFile = fErr == nil
	}
	wf, usr, err := api.workflow(ctx, withFile)
	if err != nil {
		return err
	}

	if withFile {
		file, err := bindAudioFile(ctx)
		if err != nil {
			return err
		}
		err = wf.SelectFile(file)
		api.metrics.observeWorkflow("select", err)
		if err != nil {
			return err
		}
	}

	var data uploadRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to uploadRequest")
	}

	err = wf.Submit(ctx.Request().Context(), usr.Name, data.RecordingDate)
	api.metrics.observeWorkflow("submit", err)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, wf.Snapshot())
}

func (api *childPageApi) cancel(ctx echo.Context) error {
	wf, _, err := api.workflow(ctx, false)
	if err != nil {
		return err
	}
	err = wf.Cancel()
	api.metrics.observeWorkflow("cancel", err)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, wf.Snapshot())
}

func (api *childPageApi) accept(ctx echo.Context) error {
	wf, usr, err := api.workflow(ctx, false)
	if err != nil {
		return err
	}

	res, err := wf.Accept(ctx.Request().Context())
	if err != nil && !assessment.IsRefreshError(err) {
		api.metrics.observeWorkflow("accept", err)
		return err
	}
	api.metrics.observeWorkflow("accept", nil)

	view := acceptView{Assessment: res.Saved, Upload: wf.Snapshot()}
	if err != nil {
		api.logger.Warn("reloading assessments after accept", err, usr)
		view.Warning = err.Error()
	} else {
		av := newAssessmentsView(res.Latest, res.All)
		view.Assessments = &av
	}
	return ctx.JSON(http.StatusCreated, view)
}

func (api *childPageApi) reject(ctx echo.Context) error {
	wf, _, err := api.workflow(ctx, false)
	if err != nil {
		return err
	}
	err = wf.Reject()
	api.metrics.observeWorkflow("reject", err)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, wf.Snapshot())
}

// downloadTranscripts serves every transcript of the child as a single text attachment.
func (api *childPageApi) downloadTranscripts(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	childID := ctx.Param("childId")

	child, err := api.roster.GetChild(reqCtx, childID)
	if err != nil {
		return childDataError(ctx, usr, errors.Wrap(err, "retrieving child"))
	}
	all, err := api.assessments.ChildAssessments(reqCtx, childID)
	if err != nil {
		return childDataError(ctx, usr, errors.Wrap(err, "loading assessments"))
	}

	entries := assessment.Transcripts(all)
	if len(entries) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "No transcripts available")
	}
	name := assessment.TranscriptsFileName(child.Name, core.NowFunc())
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
	return ctx.Blob(http.StatusOK, "text/plain; charset=utf-8", []byte(assessment.TranscriptsText(entries)))
}

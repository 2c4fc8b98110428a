package interfaces

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"jobboard/domain"
	"jobboard/service"
)

// HTTPHandler serves the JSON API under /api.
type HTTPHandler struct {
	Jobs         *service.JobService
	Applications *service.ApplicationService
	Categories   *service.CategoryService
	Log          *zap.SugaredLogger
}

func NewHTTPHandler(api *gin.RouterGroup, svc Services, limiter *ActorLimiter, log *zap.SugaredLogger) {
	h := &HTTPHandler{
		Jobs:         svc.Jobs,
		Applications: svc.Applications,
		Categories:   svc.Categories,
		Log:          log,
	}
	auth := RequireAuth(log)
	throttle := limiter.Middleware()

	api.GET("/jobs/", h.ListJobs)
	api.POST("/jobs/", auth, h.CreateJob)
	api.GET("/jobs/:id/", h.GetJob)
	api.PUT("/jobs/:id/", auth, h.UpdateJob)
	api.PATCH("/jobs/:id/", auth, h.PatchJob)
	api.DELETE("/jobs/:id/", auth, h.DeleteJob)
	api.POST("/jobs/:id/apply/", auth, throttle, h.Apply)
	api.POST("/jobs/:id/publish/", auth, h.PublishJob)
	api.POST("/jobs/:id/close/", auth, h.CloseJob)
	api.GET("/jobs/:id/statistics/", auth, h.JobStatistics)

	api.GET("/categories/", h.ListCategories)
	api.GET("/categories/:id/", h.GetCategory)

	apps := api.Group("/applications", auth)
	apps.GET("/", h.ListApplications)
	apps.POST("/", throttle, h.CreateApplication)
	apps.GET("/:id/", h.GetApplication)
	apps.DELETE("/:id/", h.DeleteApplication)
	apps.POST("/:id/review/", h.ReviewApplication)
}

// ListJobs lists published jobs, or another status the caller may see.
func (h *HTTPHandler) ListJobs(c *gin.Context) {
	q, err := jobQueryFrom(c, domain.StatusFilter)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	list, err := h.Jobs.List(c.Request.Context(), actorOf(c), q)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, newJobPage(list))
}

func (h *HTTPHandler) CreateJob(c *gin.Context) {
	var f domain.JobFields
	if err := bindJSON(c, &f); err != nil {
		respondError(c, h.Log, err)
		return
	}
	job, err := h.Jobs.Create(c.Request.Context(), actorOf(c), f)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusCreated, newJobResponse(job))
}

func (h *HTTPHandler) GetJob(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	job, err := h.Jobs.Get(c.Request.Context(), actorOf(c), id)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, newJobResponse(job))
}

// UpdateJob replaces every editable field.
func (h *HTTPHandler) UpdateJob(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	var f domain.JobFields
	if err := bindJSON(c, &f); err != nil {
		respondError(c, h.Log, err)
		return
	}
	job, err := h.Jobs.Update(c.Request.Context(), actorOf(c), id, f)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, newJobResponse(job))
}

// PatchJob changes only the fields present in the body.
func (h *HTTPHandler) PatchJob(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	ctx := c.Request.Context()
	actor := actorOf(c)

	current, err := h.Jobs.GetForEdit(ctx, actor, id)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	f := current.Fields()
	if err := bindJSON(c, &f); err != nil {
		respondError(c, h.Log, err)
		return
	}
	job, err := h.Jobs.Update(ctx, actor, id, f)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, newJobResponse(job))
}

func (h *HTTPHandler) DeleteJob(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	if err := h.Jobs.Delete(c.Request.Context(), actorOf(c), id); err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Apply submits the caller's application to a published job.
func (h *HTTPHandler) Apply(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	var f domain.ApplicationFields
	if err := bindJSON(c, &f); err != nil {
		respondError(c, h.Log, err)
		return
	}
	h.submit(c, id, f)
}

func (h *HTTPHandler) submit(c *gin.Context, jobID uint, f domain.ApplicationFields) {
	app, err := h.Applications.Apply(c.Request.Context(), actorOf(c), jobID, f)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusCreated, newApplicationResponse(app))
}

func (h *HTTPHandler) PublishJob(c *gin.Context) {
	h.transition(c, h.Jobs.PublishAs)
}

func (h *HTTPHandler) CloseJob(c *gin.Context) {
	h.transition(c, h.Jobs.CloseAs)
}

func (h *HTTPHandler) transition(c *gin.Context, apply func(ctx context.Context, actor domain.Actor, id uint) (bool, error)) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	ctx := c.Request.Context()
	actor := actorOf(c)

	changed, err := apply(ctx, actor, id)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	job, err := h.Jobs.Get(ctx, actor, id)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed, "job": newJobResponse(job)})
}

func (h *HTTPHandler) JobStatistics(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	stats, err := h.Jobs.StatisticsAs(c.Request.Context(), actorOf(c), id)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *HTTPHandler) ListCategories(c *gin.Context) {
	categories, err := h.Categories.List(c.Request.Context())
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *HTTPHandler) GetCategory(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	category, err := h.Categories.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// ListApplications lists the caller's applications, or all of them for
// staff.
func (h *HTTPHandler) ListApplications(c *gin.Context) {
	list, err := h.Applications.List(c.Request.Context(), actorOf(c), pageFrom(c))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, newApplicationPage(list))
}

func (h *HTTPHandler) CreateApplication(c *gin.Context) {
	var req struct {
		Job uint `json:"job"`
		domain.ApplicationFields
	}
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.Log, err)
		return
	}
	if req.Job == 0 {
		respondError(c, h.Log, domain.FieldError("job", "This field is required."))
		return
	}
	h.submit(c, req.Job, req.ApplicationFields)
}

func (h *HTTPHandler) GetApplication(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	app, err := h.Applications.Get(c.Request.Context(), actorOf(c), id)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, newApplicationResponse(app))
}

func (h *HTTPHandler) DeleteApplication(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	if err := h.Applications.Withdraw(c.Request.Context(), actorOf(c), id); err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ReviewApplication sets a staff decision on an application.
func (h *HTTPHandler) ReviewApplication(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.Log, err)
		return
	}
	app, err := h.Applications.Review(c.Request.Context(), actorOf(c), id, req.Status)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, newApplicationResponse(app))
}

// bindJSON decodes the request body into v. An empty body leaves v as is.
func bindJSON(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return domain.NewValidationError("JSON parse error - " + err.Error())
	}
	return nil
}

// pathID parses the :id parameter. Anything that is not a positive integer
// cannot name a record.
func pathID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		return 0, domain.NotFound("record", 0)
	}
	return uint(id), nil
}

func pageFrom(c *gin.Context) domain.Page {
	number, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("page_size"))
	return domain.Page{Number: number, Size: size}
}

// jobQueryFrom reads listing parameters shared by the API and the pages.
func jobQueryFrom(c *gin.Context, visibility domain.Visibility) (domain.JobQuery, error) {
	q := domain.JobQuery{
		Status:     strings.TrimSpace(c.Query("status")),
		Search:     c.Query("search"),
		Visibility: visibility,
		Page:       pageFrom(c),
	}
	verr := &domain.ValidationError{}

	if raw := strings.TrimSpace(c.Query("category")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 0)
		if err != nil {
			verr.Add("category", "A valid integer is required.")
		} else {
			cid := uint(id)
			q.CategoryID = &cid
		}
	}
	for param, dst := range map[string]*decimal.NullDecimal{
		"min_salary": &q.MinSalary,
		"max_salary": &q.MaxSalary,
	} {
		raw := strings.TrimSpace(c.Query(param))
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			verr.Add(param, "A valid number is required.")
			continue
		}
		*dst = decimal.NewNullDecimal(d)
	}

	if !verr.Empty() {
		return q, verr
	}
	return q, nil
}

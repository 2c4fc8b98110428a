package interfaces

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"jobboard/config"
	"jobboard/domain"
	"jobboard/service"
)

const (
	flashCookie    = "jobboard_flash"
	tokenCookieAge = 14 * 24 * 60 * 60
)

// WebHandler serves the server-rendered pages.
type WebHandler struct {
	Jobs         *service.JobService
	Applications *service.ApplicationService
	Categories   *service.CategoryService
	Users        Authenticator
	LoginURL     string
	PageSize     int
	Log          *zap.SugaredLogger
}

func NewWebHandler(router *gin.RouterGroup, svc Services, cfg config.WebConfig, log *zap.SugaredLogger) {
	h := &WebHandler{
		Jobs:         svc.Jobs,
		Applications: svc.Applications,
		Categories:   svc.Categories,
		Users:        svc.Users,
		LoginURL:     cfg.LoginURL,
		PageSize:     cfg.PageSize,
		Log:          log,
	}
	login := h.requireLogin
	router.Use(CSRF(h.renderError))

	router.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/jobs/") })

	jobs := router.Group("/jobs")
	jobs.GET("/", h.JobList)
	jobs.GET("/create/", login, h.JobCreateForm)
	jobs.POST("/create/", login, h.JobCreate)
	jobs.GET("/my-applications/", login, h.MyApplications)
	jobs.GET("/:id/", h.JobDetail)
	jobs.GET("/:id/edit/", login, h.JobEditForm)
	jobs.POST("/:id/edit/", login, h.JobEdit)
	jobs.GET("/:id/apply/", login, h.ApplyForm)
	jobs.POST("/:id/apply/", login, h.Apply)

	if strings.HasPrefix(h.LoginURL, "/") {
		router.GET(h.LoginURL, h.LoginForm)
		router.POST(h.LoginURL, h.Login)
	}
	router.POST("/accounts/logout/", h.Logout)
}

// requireLogin sends anonymous visitors to the login page.
func (h *WebHandler) requireLogin(c *gin.Context) {
	if actorOf(c).IsAuthenticated {
		c.Next()
		return
	}
	c.Redirect(http.StatusFound, h.LoginURL+"?next="+url.QueryEscape(c.Request.URL.RequestURI()))
	c.Abort()
}

// JobList shows published jobs only, whatever status is requested.
func (h *WebHandler) JobList(c *gin.Context) {
	ctx := c.Request.Context()
	q, err := jobQueryFrom(c, domain.PublishedOnly)
	if err != nil {
		h.renderError(c, err)
		return
	}
	q.Page.Size = h.PageSize

	list, err := h.Jobs.List(ctx, actorOf(c), q)
	if err != nil {
		h.renderError(c, err)
		return
	}
	categories, err := h.Categories.List(ctx)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, "job_list.html", gin.H{
		"Jobs":       list.Jobs,
		"Categories": categories,
		"Search":     q.Search,
		"Category":   c.Query("category"),
		"Pager":      newPager(c, list.Count, list.Page),
	})
}

// JobDetail shows a published job; anything else is a 404.
func (h *WebHandler) JobDetail(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.renderError(c, err)
		return
	}
	job, err := h.Jobs.GetPublished(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, "job_detail.html", gin.H{"Job": job})
}

func (h *WebHandler) JobCreateForm(c *gin.Context) {
	h.renderJobForm(c, nil, jobForm{Status: string(domain.JobDraft)}, nil)
}

func (h *WebHandler) JobCreate(c *gin.Context) {
	f, verr := jobFieldsFromForm(c)
	if verr != nil {
		h.renderJobForm(c, nil, postedJobForm(c), verr)
		return
	}
	if _, err := h.Jobs.Create(c.Request.Context(), actorOf(c), f); err != nil {
		if h.formError(c, err) {
			h.renderJobForm(c, nil, postedJobForm(c), asValidation(err))
		}
		return
	}
	h.redirectWithFlash(c, "/jobs/", "Job created successfully!")
}

func (h *WebHandler) JobEditForm(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.renderError(c, err)
		return
	}
	job, err := h.Jobs.GetForEdit(c.Request.Context(), actorOf(c), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.renderJobForm(c, job, formFromJob(job), nil)
}

func (h *WebHandler) JobEdit(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.renderError(c, err)
		return
	}
	ctx := c.Request.Context()
	actor := actorOf(c)

	job, err := h.Jobs.GetForEdit(ctx, actor, id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	f, verr := jobFieldsFromForm(c)
	if verr != nil {
		h.renderJobForm(c, job, postedJobForm(c), verr)
		return
	}
	if _, err := h.Jobs.Update(ctx, actor, id, f); err != nil {
		if h.formError(c, err) {
			h.renderJobForm(c, job, postedJobForm(c), asValidation(err))
		}
		return
	}
	h.redirectWithFlash(c, "/jobs/", "Job updated successfully!")
}

func (h *WebHandler) ApplyForm(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.renderError(c, err)
		return
	}
	job, err := h.Jobs.GetPublished(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, "application_form.html", gin.H{
		"Job":  job,
		"Form": domain.ApplicationFields{},
	})
}

func (h *WebHandler) Apply(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.renderError(c, err)
		return
	}
	ctx := c.Request.Context()

	var f domain.ApplicationFields
	if err := c.ShouldBindWith(&f, binding.Form); err != nil {
		h.renderError(c, domain.NewValidationError("Malformed form submission."))
		return
	}
	if _, err := h.Applications.Apply(ctx, actorOf(c), id, f); err != nil {
		if !h.formError(c, err) {
			return
		}
		job, jerr := h.Jobs.GetPublished(ctx, id)
		if jerr != nil {
			h.renderError(c, jerr)
			return
		}
		h.render(c, http.StatusOK, "application_form.html", gin.H{
			"Job":    job,
			"Form":   f,
			"Errors": asValidation(err),
		})
		return
	}
	h.redirectWithFlash(c, "/jobs/", "Application submitted successfully!")
}

// MyApplications lists the visitor's own applications, staff included.
func (h *WebHandler) MyApplications(c *gin.Context) {
	page := pageFrom(c)
	page.Size = h.PageSize
	list, err := h.Applications.Mine(c.Request.Context(), actorOf(c), page)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, "my_applications.html", gin.H{
		"Applications": list.Applications,
		"Pager":        newPager(c, list.Count, list.Page),
	})
}

func (h *WebHandler) LoginForm(c *gin.Context) {
	h.render(c, http.StatusOK, "login.html", gin.H{"Next": safeNext(c.Query("next"))})
}

// Login exchanges an API token for a session cookie.
func (h *WebHandler) Login(c *gin.Context) {
	token := strings.TrimSpace(c.PostForm("token"))
	next := safeNext(c.PostForm("next"))

	actor, err := h.Users.Authenticate(c.Request.Context(), token)
	if err != nil || !actor.IsAuthenticated {
		h.render(c, http.StatusOK, "login.html", gin.H{"Next": next, "Error": "Invalid token."})
		return
	}
	setCookie(c, TokenCookie, token, tokenCookieAge)
	c.Redirect(http.StatusFound, next)
}

func (h *WebHandler) Logout(c *gin.Context) {
	setCookie(c, TokenCookie, "", -1)
	c.Redirect(http.StatusFound, "/jobs/")
}

// render adds the visitor and any pending flash message to data.
func (h *WebHandler) render(c *gin.Context, status int, name string, data gin.H) {
	data["Actor"] = actorOf(c)
	data["LoginURL"] = h.LoginURL
	data["CSRFToken"] = c.GetString(csrfKey)
	if msg, err := c.Cookie(flashCookie); err == nil && msg != "" {
		data["Flash"] = msg
		setCookie(c, flashCookie, "", -1)
	}
	c.HTML(status, name, data)
}

func (h *WebHandler) renderError(c *gin.Context, err error) {
	status := errorStatus(err)
	message := err.Error()
	switch status {
	case http.StatusUnauthorized:
		c.Redirect(http.StatusFound, h.LoginURL+"?next="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
		return
	case http.StatusNotFound:
		message = "The page you requested does not exist."
	case http.StatusInternalServerError:
		h.Log.Errorw("Page failed",
			"request_id", c.GetString(requestIDKey),
			"path", c.Request.URL.Path,
			"error", err)
		message = "Something went wrong. Please try again later."
	}
	h.render(c, status, "error.html", gin.H{"Status": status, "Message": message})
	c.Abort()
}

// formError reports whether err should be shown on the form. Other errors
// are rendered as an error page.
func (h *WebHandler) formError(c *gin.Context, err error) bool {
	if errors.Is(err, domain.ErrInvalid) || errors.Is(err, domain.ErrConflict) {
		return true
	}
	h.renderError(c, err)
	return false
}

func (h *WebHandler) renderJobForm(c *gin.Context, job *domain.Job, form jobForm, verr *domain.ValidationError) {
	categories, err := h.Categories.List(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, "job_form.html", gin.H{
		"Job":        job,
		"Form":       form,
		"Errors":     verr,
		"Categories": categories,
		"Statuses":   domain.JobStatuses,
	})
}

func (h *WebHandler) redirectWithFlash(c *gin.Context, location, message string) {
	setCookie(c, flashCookie, message, 60)
	c.Redirect(http.StatusFound, location)
}

// asValidation presents any error as a form-wide message unless it
// already carries field errors.
func asValidation(err error) *domain.ValidationError {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr
	}
	return domain.NewValidationError(err.Error())
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/jobs/"
	}
	return next
}

// jobForm holds the raw values shown in the job form.
type jobForm struct {
	Title       string
	Description string
	CompanyName string
	Location    string
	SalaryMin   string
	SalaryMax   string
	Status      string
	Category    string
}

func formFromJob(j *domain.Job) jobForm {
	f := jobForm{
		Title:       j.Title,
		Description: j.Description,
		CompanyName: j.CompanyName,
		Location:    j.Location,
		Status:      string(j.Status),
	}
	if j.SalaryMin.Valid {
		f.SalaryMin = j.SalaryMin.Decimal.StringFixed(2)
	}
	if j.SalaryMax.Valid {
		f.SalaryMax = j.SalaryMax.Decimal.StringFixed(2)
	}
	if j.CategoryID != nil {
		f.Category = strconv.FormatUint(uint64(*j.CategoryID), 10)
	}
	return f
}

func postedJobForm(c *gin.Context) jobForm {
	return jobForm{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		CompanyName: c.PostForm("company_name"),
		Location:    c.PostForm("location"),
		SalaryMin:   c.PostForm("salary_min"),
		SalaryMax:   c.PostForm("salary_max"),
		Status:      c.PostForm("status"),
		Category:    c.PostForm("category"),
	}
}

// jobFieldsFromForm decodes the job form. Salary and category are optional
// and parsed by hand so blank inputs mean "none".
func jobFieldsFromForm(c *gin.Context) (domain.JobFields, *domain.ValidationError) {
	var f domain.JobFields
	verr := &domain.ValidationError{}
	if err := c.ShouldBindWith(&f, binding.Form); err != nil {
		verr.Message = "Malformed form submission."
		return f, verr
	}

	salary := func(field string) decimal.NullDecimal {
		raw := strings.TrimSpace(c.PostForm(field))
		if raw == "" {
			return decimal.NullDecimal{}
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			verr.Add(field, "Enter a number.")
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(d)
	}
	f.SalaryMin = salary("salary_min")
	f.SalaryMax = salary("salary_max")

	if raw := strings.TrimSpace(c.PostForm("category")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 0)
		if err != nil {
			verr.Add("category_id", "Select a valid choice.")
		} else {
			cid := uint(id)
			f.CategoryID = &cid
		}
	}

	if !verr.Empty() {
		return f, verr
	}
	return f, nil
}

// pager describes the page links under a listing.
type pager struct {
	Number  int
	Pages   int
	Count   int64
	PrevURL string
	NextURL string
}

func newPager(c *gin.Context, count int64, page domain.Page) pager {
	p := pager{Number: page.Number, Count: count, Pages: 1}
	if page.Size > 0 && count > 0 {
		p.Pages = int((count + int64(page.Size) - 1) / int64(page.Size))
	}
	link := func(n int) string {
		q := c.Request.URL.Query()
		q.Set("page", strconv.Itoa(n))
		return c.Request.URL.Path + "?" + q.Encode()
	}
	if page.Number > 1 {
		p.PrevURL = link(page.Number - 1)
	}
	if page.Number < p.Pages {
		p.NextURL = link(page.Number + 1)
	}
	return p
}

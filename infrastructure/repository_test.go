package infrastructure_test

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard/domain"
	"jobboard/infrastructure"
	"jobboard/infrastructure/testdb"
)

func TestJobRepositoryPublish(t *testing.T) {
	db := testdb.New(t)
	repo := infrastructure.NewJobRepository(db)
	ctx := context.Background()
	owner := testdb.User(t, db, "owner@example.com", false)

	t.Run("draft becomes published", func(t *testing.T) {
		job := testdb.Job(t, db, owner, domain.JobDraft)
		at := time.Now().UTC().Truncate(time.Second)

		ok, err := repo.Publish(ctx, job.ID, at)
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := repo.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobPublished, got.Status)
		require.NotNil(t, got.PublishedAt)
		assert.True(t, got.PublishedAt.Equal(at))

		ok, err = repo.Publish(ctx, job.ID, at.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, ok)

		again, err := repo.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.True(t, again.PublishedAt.Equal(at), "published_at must not move")
	})

	t.Run("closed job is not republished", func(t *testing.T) {
		job := testdb.Job(t, db, owner, domain.JobClosed)
		ok, err := repo.Publish(ctx, job.ID, time.Now())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("missing job", func(t *testing.T) {
		ok, err := repo.Publish(ctx, 9999, time.Now())
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestJobRepositoryClose(t *testing.T) {
	db := testdb.New(t)
	repo := infrastructure.NewJobRepository(db)
	ctx := context.Background()
	owner := testdb.User(t, db, "owner@example.com", false)

	for _, status := range domain.JobStatuses {
		job := testdb.Job(t, db, owner, status)
		for i := 0; i < 2; i++ {
			ok, err := repo.Close(ctx, job.ID)
			require.NoError(t, err)
			assert.True(t, ok)

			got, err := repo.Get(ctx, job.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.JobClosed, got.Status)
		}
	}

	ok, err := repo.Close(ctx, 9999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestJobRepositoryStatistics(t *testing.T) {
	db := testdb.New(t)
	repo := infrastructure.NewJobRepository(db)
	ctx := context.Background()
	owner := testdb.User(t, db, "owner@example.com", false)
	job := testdb.Job(t, db, owner, domain.JobPublished)

	statuses := []domain.ApplicationStatus{
		domain.ApplicationPending, domain.ApplicationPending,
		domain.ApplicationAccepted, domain.ApplicationRejected,
	}
	for i, st := range statuses {
		applicant := testdb.User(t, db, string(rune('a'+i))+"@example.com", false)
		testdb.Application(t, db, job, applicant, st)
	}

	stats, err := repo.Statistics(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatistics{Total: 4, Pending: 2, Accepted: 1, Rejected: 1}, stats)

	_, err = repo.Statistics(ctx, 9999)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestJobRepositoryList(t *testing.T) {
	db := testdb.New(t)
	repo := infrastructure.NewJobRepository(db)
	ctx := context.Background()
	owner := testdb.User(t, db, "owner@example.com", false)
	other := testdb.User(t, db, "other@example.com", false)
	eng := testdb.Category(t, db, "Engineering")

	python := testdb.Job(t, db, owner, domain.JobPublished, testdb.WithTitle("Python Developer"), testdb.WithCategory(eng), testdb.WithSalary(50000, 80000))
	java := testdb.Job(t, db, owner, domain.JobPublished, testdb.WithTitle("Java Developer"), testdb.WithSalary(90000, 120000))
	testdb.Job(t, db, owner, domain.JobPublished, testdb.WithTitle("Designer"), testdb.WithCompany("PythonSoft"))
	testdb.Job(t, db, owner, domain.JobPublished, testdb.WithTitle("Writer"), testdb.WithDescription("docs for the PYTHON sdk"))
	draft := testdb.Job(t, db, other, domain.JobDraft, testdb.WithTitle("Python Intern"))

	page := domain.Page{Number: 1, Size: 20}
	published := domain.JobFilter{Status: domain.JobPublished}

	t.Run("status", func(t *testing.T) {
		jobs, count, err := repo.List(ctx, published, page)
		require.NoError(t, err)
		assert.EqualValues(t, 4, count)
		for _, j := range jobs {
			assert.Equal(t, domain.JobPublished, j.Status)
		}
	})

	t.Run("newest first", func(t *testing.T) {
		jobs, _, err := repo.List(ctx, domain.JobFilter{}, page)
		require.NoError(t, err)
		require.Len(t, jobs, 5)
		assert.Equal(t, draft.ID, jobs[0].ID)
		assert.Equal(t, python.ID, jobs[4].ID)
	})

	t.Run("search matches title description or company case-insensitively", func(t *testing.T) {
		f := published
		f.Search = "python"
		jobs, count, err := repo.List(ctx, f, page)
		require.NoError(t, err)
		assert.EqualValues(t, 3, count)
		titles := make([]string, 0, len(jobs))
		for _, j := range jobs {
			titles = append(titles, j.Title)
		}
		assert.ElementsMatch(t, []string{"Python Developer", "Designer", "Writer"}, titles)
	})

	t.Run("search treats wildcards literally", func(t *testing.T) {
		f := published
		f.Search = "%"
		_, count, err := repo.List(ctx, f, page)
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)
	})

	t.Run("category", func(t *testing.T) {
		f := published
		f.CategoryID = &eng.ID
		jobs, _, err := repo.List(ctx, f, page)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, python.ID, jobs[0].ID)
		require.NotNil(t, jobs[0].Category)
		assert.Equal(t, "Engineering", jobs[0].Category.Name)
	})

	t.Run("salary range", func(t *testing.T) {
		f := published
		f.MinSalary = decimal.NewNullDecimal(decimal.NewFromInt(60000))
		jobs, _, err := repo.List(ctx, f, page)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, java.ID, jobs[0].ID)

		f = published
		f.MaxSalary = decimal.NewNullDecimal(decimal.NewFromInt(100000))
		jobs, _, err = repo.List(ctx, f, page)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, python.ID, jobs[0].ID)
	})

	t.Run("owner", func(t *testing.T) {
		jobs, _, err := repo.List(ctx, domain.JobFilter{Status: domain.JobDraft, OwnerID: &other.ID}, page)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, draft.ID, jobs[0].ID)
		assert.Equal(t, "other@example.com", jobs[0].CreatedBy.Email)
	})

	t.Run("pagination", func(t *testing.T) {
		jobs, count, err := repo.List(ctx, published, domain.Page{Number: 2, Size: 3})
		require.NoError(t, err)
		assert.EqualValues(t, 4, count)
		assert.Len(t, jobs, 1)
	})

	t.Run("none", func(t *testing.T) {
		jobs, count, err := repo.List(ctx, domain.JobFilter{None: true}, page)
		require.NoError(t, err)
		assert.Zero(t, count)
		assert.Empty(t, jobs)
	})
}

func TestJobRepositoryUpdateAndDelete(t *testing.T) {
	db := testdb.New(t)
	jobs := infrastructure.NewJobRepository(db)
	apps := infrastructure.NewApplicationRepository(db)
	ctx := context.Background()
	owner := testdb.User(t, db, "owner@example.com", false)
	applicant := testdb.User(t, db, "applicant@example.com", false)

	job := testdb.Job(t, db, owner, domain.JobPublished)
	app := testdb.Application(t, db, job, applicant, domain.ApplicationPending)

	loaded, err := jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	loaded.Title = "Staff Engineer"
	loaded.SalaryMax = decimal.NewNullDecimal(decimal.RequireFromString("150000.50"))
	require.NoError(t, jobs.Update(ctx, loaded))

	got, err := jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "Staff Engineer", got.Title)
	assert.True(t, got.SalaryMax.Decimal.Equal(decimal.RequireFromString("150000.50")))

	require.NoError(t, jobs.Delete(ctx, job.ID))
	_, err = jobs.Get(ctx, job.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = apps.Get(ctx, app.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "applications go with their job")

	err = jobs.Delete(ctx, job.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestApplicationRepositoryCreateForOpenJob(t *testing.T) {
	db := testdb.New(t)
	repo := infrastructure.NewApplicationRepository(db)
	ctx := context.Background()
	owner := testdb.User(t, db, "owner@example.com", false)
	applicant := testdb.User(t, db, "applicant@example.com", false)

	newApp := func(jobID uint) *domain.JobApplication {
		return &domain.JobApplication{
			JobID:       jobID,
			ApplicantID: applicant.ID,
			Status:      domain.ApplicationPending,
			AppliedAt:   time.Now().UTC(),
		}
	}

	t.Run("published job", func(t *testing.T) {
		job := testdb.Job(t, db, owner, domain.JobPublished)
		app := newApp(job.ID)
		require.NoError(t, repo.CreateForOpenJob(ctx, app))
		assert.NotZero(t, app.ID)

		err := repo.CreateForOpenJob(ctx, newApp(job.ID))
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrConflict))
		assert.Equal(t, "You have already applied for this job", err.Error())
	})

	for _, status := range []domain.JobStatus{domain.JobDraft, domain.JobClosed} {
		t.Run(string(status)+" job", func(t *testing.T) {
			job := testdb.Job(t, db, owner, status)
			err := repo.CreateForOpenJob(ctx, newApp(job.ID))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalid))
		})
	}

	t.Run("missing job", func(t *testing.T) {
		err := repo.CreateForOpenJob(ctx, newApp(9999))
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}

func TestApplicationRepositoryListAndReview(t *testing.T) {
	db := testdb.New(t)
	repo := infrastructure.NewApplicationRepository(db)
	ctx := context.Background()
	owner := testdb.User(t, db, "owner@example.com", false)
	alice := testdb.User(t, db, "alice@example.com", false)
	bob := testdb.User(t, db, "bob@example.com", false)
	job := testdb.Job(t, db, owner, domain.JobPublished)
	other := testdb.Job(t, db, owner, domain.JobPublished)

	a1 := testdb.Application(t, db, job, alice, domain.ApplicationPending)
	testdb.Application(t, db, other, alice, domain.ApplicationPending)
	testdb.Application(t, db, job, bob, domain.ApplicationPending)

	page := domain.Page{Number: 1, Size: 20}
	mine, count, err := repo.List(ctx, domain.ApplicationFilter{ApplicantID: &alice.ID}, page)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	for _, a := range mine {
		assert.Equal(t, alice.ID, a.ApplicantID)
		assert.Equal(t, "alice@example.com", a.Applicant.Email)
	}

	_, count, err = repo.List(ctx, domain.ApplicationFilter{JobID: &job.ID}, page)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.SetStatus(ctx, a1.ID, domain.ApplicationAccepted, at))
	got, err := repo.Get(ctx, a1.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationAccepted, got.Status)
	require.NotNil(t, got.ReviewedAt)
	assert.True(t, got.ReviewedAt.Equal(at))
	assert.Equal(t, "owner@example.com", got.Job.CreatedBy.Email)

	require.NoError(t, repo.Delete(ctx, a1.ID))
	assert.True(t, errors.Is(repo.Delete(ctx, a1.ID), domain.ErrNotFound))
}

func TestCategoryRepository(t *testing.T) {
	db := testdb.New(t)
	repo := infrastructure.NewCategoryRepository(db)
	jobs := infrastructure.NewJobRepository(db)
	ctx := context.Background()
	owner := testdb.User(t, db, "owner@example.com", false)

	zeta := testdb.Category(t, db, "Zeta")
	testdb.Category(t, db, "Alpha")

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alpha", list[0].Name)

	job := testdb.Job(t, db, owner, domain.JobPublished, testdb.WithCategory(zeta))
	require.NoError(t, repo.Delete(ctx, zeta.ID))

	got, err := jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID, "deleting a category keeps its jobs")
	assert.Nil(t, got.Category)

	assert.True(t, errors.Is(repo.Delete(ctx, zeta.ID), domain.ErrNotFound))
	_, err = repo.Get(ctx, zeta.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUserRepository(t *testing.T) {
	db := testdb.New(t)
	repo := infrastructure.NewUserRepository(db)
	ctx := context.Background()

	u := &domain.User{Email: "a@example.com", TokenHash: "h1"}
	require.NoError(t, repo.Create(ctx, u))

	got, err := repo.GetByTokenHash(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = repo.GetByTokenHash(ctx, "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	err = repo.Create(ctx, &domain.User{Email: "a@example.com", TokenHash: "h2"})
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestSeedCategories(t *testing.T) {
	db := testdb.New(t)
	log := zaptestLogger(t)

	require.NoError(t, infrastructure.SeedCategories(db, log))
	require.NoError(t, infrastructure.SeedCategories(db, log))

	var count int64
	require.NoError(t, db.Model(&domain.JobCategory{}).Count(&count).Error)
	assert.EqualValues(t, 4, count)
}

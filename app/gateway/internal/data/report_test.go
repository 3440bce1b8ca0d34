package data

import (
	"context"
	"errors"
	"testing"
	"time"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/visit_report/app/visit_report/pkg/engine"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/intake"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/storage"
)

type fakeArchive struct {
	reports []storage.Report
}

func (f *fakeArchive) ListReports(ctx context.Context, limit, offset int) ([]storage.Report, error) {
	return f.reports, nil
}

func (f *fakeArchive) GetReport(ctx context.Context, id string) (*storage.Report, error) {
	for i := range f.reports {
		if f.reports[i].ID == id {
			return &f.reports[i], nil
		}
	}
	return nil, storage.ErrNotFound
}

func TestReportRepo(t *testing.T) {
	visit := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	repo := &reportRepo{
		archive: &fakeArchive{reports: []storage.Report{{
			ID:                   "r-1",
			Company:              "Obras Sur",
			VisitDate:            &visit,
			GroupRecipients:      2,
			IndividualRecipients: 1,
			Status:               storage.StatusPartial,
			CreatedAt:            time.Date(2025, 3, 3, 13, 4, 5, 0, time.UTC),
			Recipients: []storage.Recipient{
				{Address: "a@ugt.org", Kind: storage.KindGroup, Delivered: true},
				{Address: "jefe@obra.es", Kind: storage.KindIndividual},
			},
		}}},
		log: log.NewHelper(log.DefaultLogger),
	}

	list, err := repo.ListReports(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2025-03-03", list[0].VisitDate)
	assert.Equal(t, "2025-03-03 13:04:05", list[0].CreatedAt)
	assert.Equal(t, 3, list[0].RecipientCount)

	detail, err := repo.GetReport(context.Background(), "r-1")
	require.NoError(t, err)
	assert.Equal(t, storage.StatusPartial, detail.Status)
	require.Len(t, detail.Recipients, 2)
	assert.False(t, detail.Recipients[1].Delivered)

	_, err = repo.GetReport(context.Background(), "nope")
	assert.True(t, kerrors.IsNotFound(err))
}

type fakeRunner struct {
	err error
}

func (f *fakeRunner) Run(ctx context.Context, sub *intake.Submission, opts engine.RunOptions) (*engine.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	opts.ProgressCallback("completed", 100)
	return &engine.Result{ReportID: "r-9", FilePath: "output/x.html", Status: storage.StatusGenerated, Leftovers: []string{"{{x}}"}}, nil
}

func TestReportGenerator(t *testing.T) {
	gen := &reportGenerator{engine: &fakeRunner{}, log: log.NewHelper(log.DefaultLogger)}
	res, err := gen.Generate(context.Background(), &intake.Submission{ResponseID: "resp"}, false)
	require.NoError(t, err)
	assert.Equal(t, "r-9", res.ReportID)
	assert.Equal(t, []string{"{{x}}"}, res.Leftovers)

	gen.engine = &fakeRunner{err: errors.New("write report: disk full")}
	_, err = gen.Generate(context.Background(), &intake.Submission{}, false)
	assert.Equal(t, 500, kerrors.Code(err))
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iWorld-y/visit_report/app/visit_report/pkg/catalog"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/config"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/digest"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/document"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/images"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/images/factory"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/intake"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/logger"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/mailer"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/metrics"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/model"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/storage"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/transform"
)

// maxNameAttempts numbered variants tried before giving up on a report name
const maxNameAttempts = 1000

// Archive keeps a record of every run
type Archive interface {
	SaveReport(ctx context.Context, rep *storage.Report) error
}

// Engine turns one submission into a filled, mailed and archived report
type Engine struct {
	cfg         *config.Config
	transformer *transform.Transformer
	renderer    *document.Renderer
	template    []byte
	dispatcher  *mailer.Dispatcher
	summarizer  *digest.Summarizer
	archive     Archive
	metrics     *metrics.Metrics
	log         logrus.FieldLogger
	now         func() time.Time
}

type options struct {
	images    images.Source
	sender    mailer.Sender
	generator digest.Generator
	catalog   *catalog.Catalog
	metrics   *metrics.Metrics
	log       logrus.FieldLogger
	now       func() time.Time
}

// Option overrides a collaborator built from the config
type Option func(*options)

// WithImageSource replaces the configured image source
func WithImageSource(src images.Source) Option { return func(o *options) { o.images = src } }

// WithSender replaces the SMTP sender
func WithSender(s mailer.Sender) Option { return func(o *options) { o.sender = s } }

// WithGenerator replaces the digest chat model
func WithGenerator(g digest.Generator) Option { return func(o *options) { o.generator = g } }

// WithCatalog replaces the catalog loaded from the config
func WithCatalog(c *catalog.Catalog) Option { return func(o *options) { o.catalog = c } }

// WithMetrics records run statistics
func WithMetrics(m *metrics.Metrics) Option { return func(o *options) { o.metrics = m } }

// WithLogger replaces the global logger
func WithLogger(l logrus.FieldLogger) Option { return func(o *options) { o.log = l } }

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// NewEngine creates an engine instance. archive may be nil.
func NewEngine(ctx context.Context, cfg *config.Config, archive Archive, opts ...Option) (*Engine, error) {
	o := &options{log: logger.Log, now: time.Now}
	for _, opt := range opts {
		opt(o)
	}

	tmpl, err := os.ReadFile(cfg.Template)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}

	cat := o.catalog
	if cat == nil {
		if cfg.CatalogDir == "" && cfg.CompanySlots == catalog.DefaultSlots {
			cat = catalog.Default()
		} else if cat, err = catalog.Load(cfg.CatalogDir, cfg.CompanySlots); err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
	}

	src := o.images
	if src == nil {
		if src, err = factory.NewSource(cfg.Images); err != nil {
			return nil, fmt.Errorf("image source init failed: %w", err)
		}
	}

	e := &Engine{
		cfg: cfg,
		transformer: transform.New(cat,
			transform.WithLogger(o.log),
			transform.WithLocation(cfg.Location()),
			transform.WithLocale(cfg.Locale),
		),
		renderer: document.NewRenderer(src, o.log),
		template: tmpl,
		archive:  archive,
		metrics:  o.metrics,
		log:      o.log,
		now:      o.now,
	}

	if cfg.Mail.Enabled || o.sender != nil {
		sender := o.sender
		if sender == nil {
			if sender, err = mailer.NewSMTPSender(cfg.Mail); err != nil {
				return nil, err
			}
		}
		e.dispatcher = mailer.NewDispatcher(sender, cfg.Mail, cfg.Location(), o.log)
	}

	gen := o.generator
	if gen == nil && cfg.LLM.Model != "" {
		cm, err := digest.NewChatModel(ctx, cfg.LLM)
		if err != nil {
			return nil, err
		}
		gen = cm
	}
	if gen != nil {
		e.summarizer = digest.NewSummarizer(gen, digest.NewLimiter(cfg.Concurrency), o.log)
	}
	return e, nil
}

// RunOptions per run settings
type RunOptions struct {
	// SkipMail generates and archives without sending
	SkipMail         bool
	ProgressCallback func(status string, progress int)
}

// Result outcome of one run
type Result struct {
	ReportID  string
	FilePath  string
	Status    string
	Bundle    *model.ReportBundle
	Mail      *mailer.Outcome
	Leftovers []string
}

// RunFile decodes the submission file at path and runs it
func (e *Engine) RunFile(ctx context.Context, path string, opts RunOptions) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sub, err := intake.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return e.Run(ctx, sub, opts)
}

// Run executes one report generation. Only a document that cannot be
// rendered or written fails the run, later stages log and continue.
func (e *Engine) Run(ctx context.Context, sub *intake.Submission, opts RunOptions) (*Result, error) {
	start := e.now()
	progress := func(status string, p int) {
		if opts.ProgressCallback != nil {
			opts.ProgressCallback(status, p)
		}
	}
	log := e.log.WithField("response_id", sub.ResponseID)
	log.Infof("generating report from %d answers", len(sub.Answers))
	progress("starting", 0)

	bundle := e.transformer.Transform(sub.Answers)
	progress("transformed", 20)

	rec := &storage.Report{
		ResponseID:    sub.ResponseID,
		Company:       bundle.PrimaryCompany,
		VisitDate:     bundle.VisitDate,
		Substitutions: len(bundle.Substitutions),
		Images:        bundle.ImageCount(),
		Status:        storage.StatusGenerated,
	}
	res := &Result{Bundle: bundle}

	doc, err := e.renderer.Render(ctx, e.template, bundle)
	if err == nil {
		res.Leftovers = doc.Leftovers
		e.metrics.ObserveDocument(len(bundle.Substitutions), len(doc.Leftovers), doc.ImageErrors)
		res.FilePath, err = e.write(bundle, doc.HTML)
	}
	if err != nil {
		rec.Status = storage.StatusFailed
		rec.Error = err.Error()
		e.save(ctx, rec, res)
		e.metrics.ObserveRun(rec.Status, e.now().Sub(start))
		return res, fmt.Errorf("render report: %w", err)
	}
	rec.FilePath = res.FilePath
	log.Infof("report written to %s", res.FilePath)
	progress("document written", 50)

	if e.dispatcher != nil && !opts.SkipMail {
		rec.Digest = e.digest(ctx, bundle)
		progress("digest ready", 60)

		plan := mailer.BuildPlan(bundle.VisitorRecipients, bundle.IndividualRecipients, e.cfg.Mail.AlwaysToList())
		rec.GroupRecipients = len(plan.Group)
		rec.IndividualRecipients = len(plan.Individuals)

		out, err := e.dispatcher.Dispatch(ctx, plan, mailer.Report{
			Company:  bundle.PrimaryCompany,
			FileName: filepath.Base(res.FilePath),
			Document: doc.HTML,
			Digest:   rec.Digest,
		})
		res.Mail = out
		rec.Status, rec.Recipients = e.mailStatus(plan, out, err)
		if err != nil {
			rec.Error = err.Error()
			log.WithError(err).Error("report mail failed")
		}
		progress("mail sent", 85)
	}

	e.save(ctx, rec, res)
	res.Status = rec.Status
	e.metrics.ObserveRun(rec.Status, e.now().Sub(start))
	progress("completed", 100)
	return res, nil
}

func (e *Engine) write(b *model.ReportBundle, html []byte) (string, error) {
	if err := os.MkdirAll(e.cfg.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	base := document.FileName(b, e.cfg.Location(), e.now())
	for i := 1; i <= maxNameAttempts; i++ {
		name := base + ".html"
		if i > 1 {
			name = fmt.Sprintf("%s (%d).html", base, i)
		}
		path := filepath.Join(e.cfg.OutputDir, name)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("write report: %w", err)
		}
		_, err = f.Write(html)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
			return "", fmt.Errorf("write report: %w", err)
		}
		return path, nil
	}
	return "", fmt.Errorf("write report: no free name for %q in %s", base, e.cfg.OutputDir)
}

func (e *Engine) digest(ctx context.Context, b *model.ReportBundle) string {
	if e.summarizer == nil {
		return ""
	}
	text, err := e.summarizer.Summarize(ctx, b.PrimaryCompany, digest.Findings(b))
	if err != nil {
		e.log.WithError(err).Warn("digest skipped")
		return ""
	}
	return text
}

func (e *Engine) mailStatus(plan mailer.Plan, out *mailer.Outcome, err error) (string, []storage.Recipient) {
	delivered := make(map[string]bool)
	if out != nil {
		for _, addr := range out.Sent {
			delivered[addr] = true
		}
	}

	var recipients []storage.Recipient
	for _, addr := range plan.Group {
		recipients = append(recipients, storage.Recipient{Address: addr, Kind: storage.KindGroup, Delivered: delivered[addr]})
		e.metrics.ObserveMail(storage.KindGroup, delivered[addr])
	}
	for _, addr := range plan.Individuals {
		recipients = append(recipients, storage.Recipient{Address: addr, Kind: storage.KindIndividual, Delivered: delivered[addr]})
		e.metrics.ObserveMail(storage.KindIndividual, delivered[addr])
	}

	switch {
	case len(recipients) == 0:
		return storage.StatusGenerated, nil
	case err != nil && len(delivered) == 0:
		return storage.StatusFailed, recipients
	case err != nil || (out != nil && len(out.Failed) > 0):
		return storage.StatusPartial, recipients
	default:
		return storage.StatusSent, recipients
	}
}

func (e *Engine) save(ctx context.Context, rec *storage.Report, res *Result) {
	if e.archive == nil {
		return
	}
	if err := e.archive.SaveReport(ctx, rec); err != nil {
		e.log.WithError(err).Error("could not archive report")
		return
	}
	res.ReportID = rec.ID
}

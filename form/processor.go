package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/regbot/config"
	"github.com/use-agent/regbot/models"
)

// Stage-specific failure messages.
const (
	MsgNavigationFailed = "Navigation failed"
	MsgFillFailed       = "Form filling failed"
	MsgSubmitFailed     = "Form submission failed"
	MsgSubmitNotFound   = "Submit button not found"
	MsgCheckFailed      = "Error checking result"
)

// formMarker is the element whose presence means the form page has loaded.
const formMarker = "form"

// Stage is a step of the per-record state machine. A record moves forward
// one stage at a time and jumps straight to StageDone on the first failure.
type Stage int

const (
	StageStart Stage = iota
	StageNavigated
	StageFilled
	StageSubmitted
	StageClassified
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StageNavigated:
		return "navigated"
	case StageFilled:
		return "filled"
	case StageSubmitted:
		return "submitted"
	case StageClassified:
		return "classified"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// EvidenceStore persists the visual snapshot of a processed record.
type EvidenceStore interface {
	// Save writes png (and, if the store keeps transcripts, html) for the
	// record at index. It returns the paths written.
	Save(index int, png []byte, html string, at time.Time) (shot, transcript string, err error)
}

// Processor runs navigate → fill → submit → classify → capture for one
// record at a time against a single page.
type Processor struct {
	page       Page
	cfg        config.FormConfig
	resolver   *Resolver
	classifier Classifier
	fields     []FieldSpec
	submit     FieldSpec
	evidence   EvidenceStore
	logger     *slog.Logger
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option customises a Processor.
type Option func(*Processor)

// WithFields replaces the default field specs.
func WithFields(fields []FieldSpec) Option { return func(p *Processor) { p.fields = fields } }

// WithSubmit replaces the default SubmitSpec.
func WithSubmit(spec FieldSpec) Option { return func(p *Processor) { p.submit = spec } }

// WithEvidence sets where screenshots are saved. Without it none are taken.
func WithEvidence(store EvidenceStore) Option { return func(p *Processor) { p.evidence = store } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(p *Processor) { p.logger = l } }

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option { return func(p *Processor) { p.now = now } }

// WithSleep overrides the settle-delay sleep, for tests.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(p *Processor) { p.sleep = sleep }
}

// NewProcessor creates a Processor driving page.
func NewProcessor(page Page, cfg config.FormConfig, opts ...Option) *Processor {
	p := &Processor{
		page:       page,
		cfg:        cfg,
		classifier: Classifier{Source: cfg.ClassifySource},
		fields:     DefaultFields(),
		submit:     SubmitSpec(),
		logger:     slog.Default(),
		now:        time.Now,
		sleep:      sleepCtx,
	}
	for _, o := range opts {
		o(p)
	}
	p.resolver = NewResolver(p.logger)
	return p
}

// Process handles one record and always returns its result; nothing that
// goes wrong inside the record escapes as an error or panic.
func (p *Processor) Process(ctx context.Context, index int, rec models.Record) models.RecordResult {
	log := p.logger.With("record", index)
	log.Info("processing record", "url", rec.Value(models.KeyURL))

	out, reached := p.run(ctx, log, rec)

	res := models.NewRecordResult(index, rec, out, p.now())
	res.EvidencePath, res.TranscriptPath = p.capture(ctx, log, index)
	stage := StageDone

	log.Info("record finished",
		"status", res.Status.String(),
		"message", res.Message,
		"stage", stage.String(),
		"last_stage", reached.String(),
	)
	return res
}

// run walks the stages up to StageClassified and returns the outcome plus
// the last stage completed. Process moves the record to StageDone.
func (p *Processor) run(ctx context.Context, log *slog.Logger, rec models.Record) (out models.Outcome, stage Stage) {
	stage = StageStart
	defer func() {
		if r := recover(); r != nil {
			log.Error("record processing panicked", "stage", stage.String(), "panic", r)
			out = models.FailedWith(models.ErrCodeUnexpected, fmt.Sprintf("Exception: %v", r))
		}
	}()

	if missing := rec.Missing(models.RequiredKeys...); len(missing) > 0 {
		log.Error("record is missing required fields", "missing", missing)
		return models.FailedWith(models.ErrCodeInvalidInput, fmt.Sprintf("Exception: missing field %q", missing[0])), stage
	}
	url, _ := rec.Get(models.KeyURL)

	// ── Navigate ────────────────────────────────────────────────────
	if err := p.navigate(ctx, url); err != nil {
		log.Error("navigation failed", "url", url, "error", err)
		return models.FailedWith(codeOf(err), MsgNavigationFailed), stage
	}
	stage = StageNavigated

	// ── Fill ────────────────────────────────────────────────────────
	for _, spec := range p.fields {
		value, _ := rec.Get(spec.Name)
		if err := p.fillField(ctx, log, spec, value); err != nil {
			log.Error("form filling failed", "field", spec.Name, "error", err)
			return models.FailedWith(codeOf(err), MsgFillFailed), stage
		}
	}
	if err := p.sleep(ctx, p.cfg.FillSettle); err != nil {
		return interrupted(), stage
	}
	stage = StageFilled

	// ── Submit ──────────────────────────────────────────────────────
	if out, ok := p.submitForm(ctx, log); !ok {
		return out, stage
	}
	if err := p.sleep(ctx, p.cfg.SubmitSettle); err != nil {
		return interrupted(), stage
	}
	stage = StageSubmitted

	// ── Classify ────────────────────────────────────────────────────
	out, err := p.classify(ctx)
	if err != nil {
		log.Error("checking result failed", "error", err)
		return models.FailedWith(codeOf(err), MsgCheckFailed), stage
	}
	stage = StageClassified
	switch out.Status {
	case models.StatusSuccess:
		log.Info("form submission appears successful", "message", out.Message)
	case models.StatusFailure:
		log.Warn("form submission appears to have errors")
	default:
		log.Info("form submission result unclear")
	}
	return out, stage
}

// navigate loads url and waits, bounded by NavigationTimeout, for a form.
func (p *Processor) navigate(ctx context.Context, url string) error {
	navCtx, cancel := withTimeout(ctx, p.cfg.NavigationTimeout)
	defer cancel()

	if err := p.page.Navigate(navCtx, url); err != nil {
		return categorizeError(err, models.ErrCodeNavigation, "navigation to form URL failed")
	}
	if err := p.page.WaitFor(navCtx, formMarker); err != nil {
		return categorizeError(err, models.ErrCodeNavigation, "timeout waiting for form to load")
	}
	return nil
}

// fillField resolves spec and applies its action. Absent optional fields are
// logged and skipped. When a dropdown exists but cannot select the value,
// the remaining strategies are tried.
func (p *Processor) fillField(ctx context.Context, log *slog.Logger, spec FieldSpec, value string) error {
	start := 0
	for {
		lk, err := p.resolver.ResolveFrom(ctx, p.page, spec, value, start)
		if err != nil {
			return categorizeError(err, models.ErrCodeFill, "field lookup failed")
		}
		if !lk.Found() {
			if spec.Required {
				return models.NewRunError(models.ErrCodeFieldNotFound,
					fmt.Sprintf("required field %q not found", spec.Name), nil)
			}
			log.Warn("field not found", "field", spec.Name, "tried", spec.Names())
			return nil
		}

		err = p.apply(ctx, lk, value)
		if err == nil {
			log.Info("field filled", "field", spec.Name, "strategy", lk.Strategy.Name)
			return nil
		}
		if lk.Strategy.Action == ActionSelect && ctx.Err() == nil {
			log.Warn("dropdown has no matching option, trying next strategy",
				"field", spec.Name, "error", err)
			start = lk.Next()
			continue
		}
		return categorizeError(err, models.ErrCodeFill,
			fmt.Sprintf("%s %s via %s", lk.Strategy.Action, spec.Name, lk.Strategy.Name))
	}
}

// submitForm clicks the first submit control found. ok is false when the
// record failed; out then carries the failure.
func (p *Processor) submitForm(ctx context.Context, log *slog.Logger) (out models.Outcome, ok bool) {
	lk, err := p.resolver.Resolve(ctx, p.page, p.submit, "")
	if err != nil {
		log.Error("submit control lookup failed", "error", err)
		return models.FailedWith(codeOf(categorizeError(err, models.ErrCodeSubmit, "")), MsgSubmitFailed), false
	}
	if !lk.Found() {
		log.Error("submit button not found", "tried", p.submit.Names())
		return models.FailedWith(models.ErrCodeSubmitNotFound, MsgSubmitNotFound), false
	}
	if err := p.apply(ctx, lk, ""); err != nil {
		log.Error("clicking submit failed", "strategy", lk.Strategy.Name, "error", err)
		return models.FailedWith(codeOf(categorizeError(err, models.ErrCodeSubmit, "")), MsgSubmitFailed), false
	}
	log.Info("form submitted", "strategy", lk.Strategy.Name)
	return models.Outcome{}, true
}

func (p *Processor) classify(ctx context.Context) (models.Outcome, error) {
	cctx, cancel := withTimeout(ctx, p.cfg.ActionTimeout)
	defer cancel()

	html, err := p.page.HTML(cctx)
	if err != nil {
		return models.Outcome{}, categorizeError(err, models.ErrCodeClassify, "reading page source")
	}
	url, err := p.page.URL(cctx)
	if err != nil {
		return models.Outcome{}, categorizeError(err, models.ErrCodeClassify, "reading current URL")
	}
	return p.classifier.Classify(html, url), nil
}

// apply performs the strategy's action on the element, bounded by ActionTimeout.
func (p *Processor) apply(ctx context.Context, lk Lookup, value string) error {
	actx, cancel := withTimeout(ctx, p.cfg.ActionTimeout)
	defer cancel()

	switch lk.Strategy.Action {
	case ActionFill:
		return lk.Element.Fill(actx, value)
	case ActionSelect:
		return lk.Element.SelectText(actx, value)
	case ActionClick:
		return lk.Element.Click(actx)
	default:
		return fmt.Errorf("unsupported action %s", lk.Strategy.Action)
	}
}

// capture saves a screenshot of whatever the page shows now. It is best
// effort: failures are logged and leave the paths empty.
//
// The capture runs even when ctx was cancelled, so an interrupted record still
// leaves evidence behind; it gets its own ActionTimeout budget.
func (p *Processor) capture(ctx context.Context, log *slog.Logger, index int) (shot, transcript string) {
	if p.evidence == nil {
		return "", ""
	}
	cctx, cancel := withTimeout(context.WithoutCancel(ctx), p.cfg.ActionTimeout)
	defer cancel()

	png, err := p.page.Screenshot(cctx)
	if err != nil {
		log.Warn("taking screenshot failed", "error", err)
		return "", ""
	}
	html, err := p.page.HTML(cctx)
	if err != nil {
		log.Debug("page source unavailable for transcript", "error", err)
	}

	shot, transcript, err = p.evidence.Save(index, png, html, p.now())
	if err != nil {
		log.Warn("saving evidence failed", "error", err)
	}
	if shot != "" {
		log.Info("screenshot saved", "path", shot)
	}
	return shot, transcript
}

// categorizeError wraps raw errors into typed RunErrors. Deadlines map to a
// timeout code during navigation, cancellation to INTERRUPTED.
func categorizeError(err error, code, msg string) *models.RunError {
	var re *models.RunError
	if errors.As(err, &re) {
		return re
	}
	switch {
	case errors.Is(err, context.Canceled):
		return models.NewRunError(models.ErrCodeInterrupted, "run interrupted", err)
	case errors.Is(err, context.DeadlineExceeded) && code == models.ErrCodeNavigation:
		return models.NewRunError(models.ErrCodeNavigationTimeout, msg, err)
	default:
		return models.NewRunError(code, msg, err)
	}
}

// codeOf extracts the RunError code, defaulting to UNEXPECTED_FAILURE.
func codeOf(err error) string {
	var re *models.RunError
	if errors.As(err, &re) {
		return re.Code
	}
	return models.ErrCodeUnexpected
}

func interrupted() models.Outcome {
	return models.FailedWith(models.ErrCodeInterrupted, models.MsgInterrupted)
}

// withTimeout is context.WithTimeout that treats d <= 0 as "no extra deadline".
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// sleepCtx pauses for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package series

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/rickgao/symboldb-tools/internal/inherit"
	"github.com/rickgao/symboldb-tools/internal/maturity"
	"github.com/rickgao/symboldb-tools/internal/model"
	"github.com/rickgao/symboldb-tools/internal/schema"
)

// Result describes what an Add call did. A zero Result means nothing changed.
type Result struct {
	Created          string              `json:"created,omitempty"`
	Updated          string              `json:"updated,omitempty"`
	Diff             model.Diff          `json:"diff,omitempty"`
	ValidationErrors []schema.FieldError `json:"validationErrors,omitempty"`
}

// Empty reports whether nothing was created or updated.
func (r Result) Empty() bool {
	return r.Created == "" && r.Updated == ""
}

type addConfig struct {
	id         string
	skip       bool
	overwrite  bool
	fields     map[string]any
	strikes    *Strikes
	spreadType string
}

// AddOption configures Add, AddSpread and AddPayload.
type AddOption func(*addConfig)

// WithID looks the existing contract up by id.
func WithID(id string) AddOption {
	return func(c *addConfig) { c.id = id }
}

// SkipIfExists leaves existing contracts untouched. It is on by default.
func SkipIfExists(skip bool) AddOption {
	return func(c *addConfig) { c.skip = skip }
}

// OverwriteOld rebuilds an existing contract from scratch, keeping only its
// identity fields. It implies SkipIfExists(false).
func OverwriteOld() AddOption {
	return func(c *addConfig) {
		c.overwrite = true
		c.skip = false
	}
}

// WithFields sets custom fields; "a/b" keys address nested values.
func WithFields(fields map[string]any) AddOption {
	return func(c *addConfig) {
		if c.fields == nil {
			c.fields = map[string]any{}
		}
		for k, v := range fields {
			c.fields[k] = v
		}
	}
}

// WithStrikes sets the strikes of an option contract.
func WithStrikes(strikes Strikes) AddOption {
	return func(c *addConfig) { c.strikes = &strikes }
}

// WithSpreadType overrides the series orientation for one calendar spread.
func WithSpreadType(spreadType string) AddOption {
	return func(c *addConfig) { c.spreadType = spreadType }
}

func newAddConfig(opts []AddOption) addConfig {
	cfg := addConfig{skip: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// candidate is the normalized key of an expiration being added.
type candidate struct {
	date     time.Time
	maturity string
	near     string
	far      string
}

// Add adds the expiration exp with maturity mat, or updates the matching
// existing contract. See SkipIfExists and OverwriteOld.
func (s *Series) Add(ctx context.Context, exp any, mat string, opts ...AddOption) (Result, error) {
	if s.Kind == KindCalendarSpread {
		return Result{}, fmt.Errorf("%s: calendar spreads take near and far maturities: %w", s.SeriesName(), ErrExpiration)
	}
	cfg := newAddConfig(opts)

	date, ok := maturity.NormalizeDate(exp)
	if !ok {
		return Result{}, fmt.Errorf("%s: bad expiration date %v: %w", s.SeriesName(), exp, ErrExpiration)
	}
	numeric, ok := maturity.Format(mat)
	if !ok {
		return Result{}, fmt.Errorf("%s: bad maturity %q: %w", s.SeriesName(), mat, ErrExpiration)
	}

	existing, err := s.Find(date, numeric, cfg.id)
	if err != nil {
		return Result{}, err
	}
	return s.apply(ctx, existing, candidate{date: date, maturity: numeric}, cfg)
}

// AddSpread adds a calendar spread expiration between the near and far
// maturities, or updates the matching existing contract.
func (s *Series) AddSpread(ctx context.Context, exp any, near, far string, opts ...AddOption) (Result, error) {
	if s.Kind != KindCalendarSpread {
		return Result{}, fmt.Errorf("%s: not a calendar spread series: %w", s.SeriesName(), ErrExpiration)
	}
	cfg := newAddConfig(opts)

	date, ok := maturity.NormalizeDate(exp)
	if !ok {
		return Result{}, fmt.Errorf("%s: bad expiration date %v: %w", s.SeriesName(), exp, ErrExpiration)
	}
	nearNumeric, okNear := maturity.Format(near)
	farNumeric, okFar := maturity.Format(far)
	if !okNear || !okFar {
		return Result{}, fmt.Errorf("%s: both near and far maturities are required: %w", s.SeriesName(), ErrExpiration)
	}
	nearNumeric, farNumeric = monthOf(nearNumeric), monthOf(farNumeric)

	existing, err := s.FindSpread(date, nearNumeric, farNumeric, cfg.id)
	if err != nil {
		return Result{}, err
	}
	return s.apply(ctx, existing, candidate{date: date, near: nearNumeric, far: farNumeric}, cfg)
}

// apply creates, replaces or updates depending on what Find returned.
func (s *Series) apply(ctx context.Context, existing *Expiration, c candidate, cfg addConfig) (Result, error) {
	if existing != nil && cfg.skip {
		s.Skipped[existing.ContractName()] = true
		s.logger.Info("expiration exists, skipping", "contract", existing.ContractName())
		return Result{}, nil
	}
	if existing != nil && !existing.IsNew() {
		if existing.Doc.ID() == "" {
			return Result{}, fmt.Errorf("%s was created without a known id, reload the series to change it: %w", existing.ContractName(), ErrExpiration)
		}
		return s.update(ctx, existing, c, cfg)
	}

	if existing == nil && !s.allowed(c) {
		s.logger.Info("expiration is not in the allowed list",
			"expiration", dateString(c.date),
			"symbolic", s.candidateSymbolic(c),
		)
		return Result{}, nil
	}

	doc, suffix, err := s.expirationDocument(c, cfg)
	if err != nil {
		return Result{}, err
	}
	e := &Expiration{
		Doc:       doc,
		Reference: model.Document{},
		Date:      c.date,
		Maturity:  c.maturity,
		Near:      c.near,
		Far:       c.far,
		series:    s,
		suffix:    suffix,
	}
	return s.queue(ctx, e, existing), nil
}

// queue appends a new contract, replacing the pending one it was matched to
// and any other with the same key.
func (s *Series) queue(ctx context.Context, e, replaced *Expiration) Result {
	s.NewExpirations = slices.DeleteFunc(s.NewExpirations, func(p *Expiration) bool {
		if p == replaced || p.sameKey(e) {
			s.logger.Warn("replacing pending expiration", "contract", p.ContractName())
			return true
		}
		return false
	})
	s.NewExpirations = append(s.NewExpirations, e)
	sortExpirations(s.NewExpirations)

	res := Result{Created: e.ContractName()}
	res.ValidationErrors = s.validate(ctx, e)
	if len(res.ValidationErrors) > 0 {
		s.logger.Warn("expiration has validation errors",
			"contract", res.Created,
			"errors", len(res.ValidationErrors),
		)
	}
	return res
}

// update changes an existing contract in place. The contract is written on
// Commit when its diff is not empty.
func (s *Series) update(ctx context.Context, e *Expiration, c candidate, cfg addConfig) (Result, error) {
	if cfg.overwrite {
		if c.maturity == "" && c.near == "" {
			c.maturity = e.Maturity
		}
		if s.Kind == KindOption && cfg.strikes == nil {
			strikes := strikesOf(e.Doc)
			cfg.strikes = &strikes
		}
		doc, _, err := s.expirationDocument(c, cfg)
		if err != nil {
			return Result{}, err
		}
		doc.Merge(e.Doc.Underscored())
		doc[model.KeyPath] = model.CloneValue(e.Doc[model.KeyPath])
		e.Doc = doc
		e.Date, e.Maturity, e.Near, e.Far = c.date, c.maturity, c.near, c.far
	} else {
		if s.Kind == KindOption && cfg.strikes != nil {
			if added := addStrikes(e.Doc, *cfg.strikes); len(added) > 0 {
				s.logger.Info("strikes added", "contract", e.ContractName(), "strikes", strings.Join(added, ", "))
			}
		}
		setFields(e.Doc, cfg.fields)
	}
	return s.finishUpdate(ctx, e)
}

// finishUpdate settles a changed contract and validates it like a new one.
func (s *Series) finishUpdate(ctx context.Context, e *Expiration) (Result, error) {
	if trading, ok := e.Doc.IsTrading(); ok && trading {
		delete(e.Doc, model.KeyIsTrading)
	}
	s.applyLastDates(e.Doc)

	diff := e.Diff()
	if diff.Empty() {
		s.logger.Info("no new data for existing expiration", "contract", e.ContractName())
		return Result{}, nil
	}
	s.logger.Info("expiration changed", "contract", e.ContractName(), "diff", diff.String())
	res := Result{Updated: e.ContractName(), Diff: diff}
	res.ValidationErrors = s.validate(ctx, e)
	if len(res.ValidationErrors) > 0 {
		s.logger.Warn("expiration has validation errors",
			"contract", res.Updated,
			"errors", len(res.ValidationErrors),
		)
	}
	return res, nil
}

// AddPayload adds or updates a contract from a complete document. The
// document must carry expiry and maturityDate (near and far maturity dates
// for calendar spreads). On overwrite the stored identity fields, path and
// strikes are kept.
func (s *Series) AddPayload(ctx context.Context, payload model.Document, opts ...AddOption) (Result, error) {
	cfg := newAddConfig(opts)
	doc := payload.Clone()

	date, ok := maturity.NormalizeDate(doc["expiry"])
	if !ok {
		return Result{}, fmt.Errorf("%s: %w", s.SeriesName(), ErrBadPayload)
	}
	var c candidate
	c.date = date
	if s.Kind == KindCalendarSpread {
		near, okNear := maturity.Format(doc["nearMaturityDate"])
		far, okFar := maturity.Format(doc["farMaturityDate"])
		if !okNear || !okFar {
			return Result{}, fmt.Errorf("%s: %w", s.SeriesName(), ErrBadPayload)
		}
		c.near, c.far = monthOf(near), monthOf(far)
	} else {
		m, ok := maturity.Format(doc["maturityDate"])
		if !ok {
			return Result{}, fmt.Errorf("%s: %w", s.SeriesName(), ErrBadPayload)
		}
		c.maturity = m
	}

	var (
		existing *Expiration
		err      error
	)
	if s.Kind == KindCalendarSpread {
		existing, err = s.FindSpread(date, c.near, c.far, cfg.id)
	} else {
		existing, err = s.Find(date, c.maturity, cfg.id)
	}
	if err != nil {
		return Result{}, err
	}

	if existing != nil && cfg.skip {
		s.Skipped[existing.ContractName()] = true
		s.logger.Info("expiration exists, skipping", "contract", existing.ContractName())
		return Result{}, nil
	}

	if existing != nil && !existing.IsNew() {
		if cfg.overwrite {
			doc.Merge(existing.Doc.Underscored())
			doc[model.KeyPath] = model.CloneValue(existing.Doc[model.KeyPath])
			if sp, ok := existing.Doc["strikePrices"]; ok {
				doc["strikePrices"] = model.CloneValue(sp)
			}
			existing.Doc = doc
		} else {
			existing.Doc.Merge(doc)
		}
		existing.Date, existing.Maturity, existing.Near, existing.Far = c.date, c.maturity, c.near, c.far
		if existing.Maturity == "" {
			existing.Maturity, _ = maturity.Format(existing.Doc["maturityDate"])
		}
		res, err := s.finishUpdate(ctx, existing)
		if err != nil || res.Updated != "" {
			return res, err
		}
		return Result{Updated: existing.ContractName()}, nil
	}

	if existing == nil && !s.allowed(c) {
		s.logger.Info("expiration is not in the allowed list",
			"expiration", dateString(c.date),
			"symbolic", s.candidateSymbolic(c),
		)
		return Result{}, nil
	}

	var suffix []string
	if path := doc.Path(); len(path) == 0 {
		suffix = s.gapSuffix(c)
		doc.SetPath(append(s.contractPath(), suffix...))
	} else {
		base := s.contractPath()
		if len(path) < len(base) || !slices.Equal(path[:len(base)], base) {
			return Result{}, fmt.Errorf("%s: path %v is outside the series: %w", s.SeriesName(), path, ErrBadPayload)
		}
		suffix = slices.Clone(path[len(base):])
	}
	if trading, ok := doc.IsTrading(); ok && trading {
		delete(doc, model.KeyIsTrading)
	}
	delete(doc, model.KeyID)
	s.applyLastDates(doc)

	e := &Expiration{
		Doc:       doc,
		Reference: model.Document{},
		Date:      c.date,
		Maturity:  c.maturity,
		Near:      c.near,
		Far:       c.far,
		series:    s,
		suffix:    suffix,
	}
	return s.queue(ctx, e, existing), nil
}

// allowed checks the allow list against the ISO expiry date and the
// symbolic maturity.
func (s *Series) allowed(c candidate) bool {
	if len(s.AllowedExpirations) == 0 {
		return true
	}
	return slices.Contains(s.AllowedExpirations, dateString(c.date)) ||
		containsFold(s.AllowedExpirations, s.candidateSymbolic(c)) ||
		containsFold(s.AllowedExpirations, symbolic(monthOf(c.maturity)))
}

func (s *Series) candidateSymbolic(c candidate) string {
	if s.Kind == KindCalendarSpread {
		return symbolic(c.near) + "-" + symbolic(c.far)
	}
	return symbolic(c.maturity)
}

// expirationDocument builds a fresh contract document and the folders
// between the series and the contract.
func (s *Series) expirationDocument(c candidate, cfg addConfig) (model.Document, []string, error) {
	doc := model.Document{
		model.KeyIsAbstract: false,
		"expiry":            maturity.PartsFromDate(c.date),
	}

	var suffix []string
	switch s.Kind {
	case KindCalendarSpread:
		spreadType := cfg.spreadType
		if spreadType == "" {
			spreadType = s.spreadType
		}
		legs, err := s.calendarLegs(c.near, c.far, spreadType)
		if err != nil {
			return nil, nil, err
		}
		doc[model.KeyName] = c.near + " " + c.far
		doc["nearMaturityDate"] = monthParts(c.near)
		doc["farMaturityDate"] = monthParts(c.far)
		if spreadType != s.spreadType {
			doc["spreadType"] = spreadType
		}
		doc["legs"] = legs
		suffix = s.gapSuffix(c)
	case KindProductSpread:
		legs, err := s.productLegs(c.maturity)
		if err != nil {
			return nil, nil, err
		}
		doc[model.KeyName] = c.maturity
		doc["maturityDate"] = monthParts(c.maturity)
		doc["legs"] = legs
	case KindOption:
		if cfg.strikes == nil {
			return nil, nil, fmt.Errorf("%s: strikes are required: %w", s.SeriesName(), ErrExpiration)
		}
		strikes, err := cfg.strikes.value()
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", s.SeriesName(), err)
		}
		parts, _ := maturity.Parts(c.maturity)
		doc[model.KeyName] = c.maturity
		doc["maturityDate"] = parts
		doc["strikePrices"] = strikes
	default:
		parts, _ := maturity.Parts(c.maturity)
		doc[model.KeyName] = c.maturity
		doc["maturityDate"] = parts
	}

	doc.SetPath(append(s.contractPath(), suffix...))
	setFields(doc, cfg.fields)
	s.applyLastDates(doc)
	return doc, suffix, nil
}

// validate compiles a candidate or a changed contract over its ancestors and
// checks it.
func (s *Series) validate(ctx context.Context, e *Expiration) []schema.FieldError {
	if s.deps.Validator == nil {
		return nil
	}
	chain := []model.Document{s.compiledParent, s.Instrument}
	gf := s.gapFolder(e.suffix)
	if gf == nil && !e.IsNew() {
		if path := e.Doc.Path(); len(path) >= 2 {
			gf = s.gapFolder(path[len(path)-2 : len(path)-1])
		}
	}
	if gf != nil {
		chain = append(chain, gf)
	}
	chain = append(chain, e.Doc)

	compiled, err := s.deps.Compiler.Build(ctx, inherit.ByChain(chain...), true, nil)
	if err != nil {
		s.logger.Warn("cannot compile expiration", "contract", e.ContractName(), "error", err)
		return nil
	}
	return s.deps.Validator.Validate(compiled)
}

func setFields(doc model.Document, fields map[string]any) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		doc.Set(fields[k], k)
	}
}

// monthParts encodes YYYY-MM[-DD] as {month, year}.
func monthParts(numeric string) map[string]any {
	parts, ok := maturity.Parts(numeric)
	if !ok {
		return nil
	}
	delete(parts, "day")
	return parts
}

// monthOf truncates YYYY-MM-DD to YYYY-MM.
func monthOf(numeric string) string {
	if len(numeric) > 7 {
		return numeric[:7]
	}
	return numeric
}

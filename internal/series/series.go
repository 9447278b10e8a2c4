package series

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/rickgao/symboldb-tools/internal/inherit"
	"github.com/rickgao/symboldb-tools/internal/model"
	"github.com/rickgao/symboldb-tools/internal/schema"
	"github.com/rickgao/symboldb-tools/internal/sdb"
	"github.com/rickgao/symboldb-tools/internal/tree"
)

// seriesPlaceholder stands in for the id of a series folder that is not
// created yet.
const seriesPlaceholder = "<<series_folder_id>>"

var gapFolderName = regexp.MustCompile(`^(\d{1,2}) month`)

// now is replaced in tests.
var now = time.Now

// Store is the SymbolDB surface a Series reads and writes through;
// *sdb.Client satisfies it.
type Store interface {
	Get(ctx context.Context, id string, fields ...string) (model.Document, error)
	Heirs(ctx context.Context, id string, opts sdb.HeirsOptions) ([]model.Document, error)
	Create(ctx context.Context, doc model.Document) (sdb.Revision, error)
	Update(ctx context.Context, doc model.Document) (sdb.Revision, error)
	BatchCreate(ctx context.Context, docs []model.Document) error
	BatchUpdate(ctx context.Context, docs []model.Document) error
}

// Compiler builds compiled documents; *inherit.Resolver satisfies it.
type Compiler interface {
	Build(ctx context.Context, p inherit.Payload, includeSelf bool, cache *inherit.Cache) (model.Document, error)
}

// Deps are the collaborators shared by every series of a run.
type Deps struct {
	Store     Store
	Tree      *tree.Tree
	Compiler  Compiler
	Validator *schema.Validator // nil disables candidate validation
	Logger    *slog.Logger
}

// Options select and shape a series.
type Options struct {
	Kind       Kind
	ParentID   string         // folder holding the series; found via the tree when empty
	ShortName  string         // New: used for the description
	Recreate   bool           // New: replace an existing series folder
	SpreadType string         // calendar spreads: FORWARD (default) or REVERSE
	Fields     map[string]any // New: extra series fields, "a/b" keys address nested values
}

// Alignment tells whether lastAvailable or lastTrading is written on every
// contract, and the clock to write with it if any.
type Alignment struct {
	Enabled bool
	Time    string
}

// Series is one derivative series folder with its expirations.
type Series struct {
	Ticker     string
	Exchange   string
	Kind       Kind
	Instrument model.Document
	Reference  model.Document

	Skipped            map[string]bool
	AllowedExpirations []string
	NewExpirations     []*Expiration
	Contracts          []*Expiration

	SetLastAvailable Alignment
	SetLastTrading   Alignment

	deps           Deps
	logger         *slog.Logger
	cache          *inherit.Cache
	parentID       string
	compiledParent model.Document
	spreadType     string
	gapFolders     []model.Document
	legs           []*Series
}

// Load reads an existing series from SymbolDB. It fails with ErrNoExchange
// when no exchange folder exists and with ErrNoInstrument when the series
// folder is not found below it.
func Load(ctx context.Context, deps Deps, ticker, exchange string, opts Options) (*Series, error) {
	s := newSeries(deps, ticker, exchange, opts)

	node, err := s.locate()
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, fmt.Errorf("%s: %w", s.SeriesName(), ErrNoInstrument)
	}

	doc, err := deps.Store.Get(ctx, node.ID())
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.SeriesName(), err)
	}
	if doc.ID() == "" {
		return nil, fmt.Errorf("%s: %w", s.SeriesName(), ErrNoInstrument)
	}
	s.Instrument = doc
	s.Reference = doc.Clone()

	if err := s.init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// New starts a series from scratch below Root/<KIND>/<EXCHANGE> or
// opts.ParentID. An existing series fails with ErrSeriesExists unless
// opts.Recreate is set, in which case its identity and path are carried over
// and its contracts are loaded.
func New(ctx context.Context, deps Deps, ticker, exchange string, opts Options) (*Series, error) {
	s := newSeries(deps, ticker, exchange, opts)

	node, err := s.locate()
	if err != nil {
		return nil, err
	}
	if s.parentID == "" {
		return nil, fmt.Errorf("%s: %w", exchange, ErrNoExchange)
	}
	if opts.ShortName == "" {
		return nil, fmt.Errorf("%s: short name is required: %w", s.SeriesName(), ErrNoInstrument)
	}

	var existing model.Document
	if node != nil {
		if !opts.Recreate {
			return nil, fmt.Errorf("%s: %w", s.SeriesName(), ErrSeriesExists)
		}
		if existing, err = deps.Store.Get(ctx, node.ID()); err != nil {
			return nil, fmt.Errorf("load %s: %w", s.SeriesName(), err)
		}
	}

	if err := s.compileParent(ctx); err != nil {
		return nil, err
	}

	doc := s.seriesDocument(opts)
	s.Reference = model.Document{}
	if existing.ID() != "" {
		doc.Merge(existing.Underscored())
		doc[model.KeyPath] = model.CloneValue(existing[model.KeyPath])
		s.Reference = existing
	}
	s.Instrument = doc

	if err := s.init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func newSeries(deps Deps, ticker, exchange string, opts Options) *Series {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	kind := opts.Kind
	if kind == 0 {
		kind = KindFuture
	}
	return &Series{
		Ticker:   ticker,
		Exchange: exchange,
		Kind:     kind,
		Skipped:  map[string]bool{},
		deps:     deps,
		logger: logger.With(
			"component", "series",
			"series", ticker+"."+exchange,
		),
		cache:      inherit.NewCache(),
		parentID:   opts.ParentID,
		spreadType: opts.SpreadType,
	}
}

// SeriesName returns TICKER.EXCHANGE.
func (s *Series) SeriesName() string {
	return s.Ticker + "." + s.Exchange
}

// ParentID returns the id of the folder holding the series.
func (s *Series) ParentID() string { return s.parentID }

// GapFolders returns the month gap folders of a calendar spread series.
func (s *Series) GapFolders() []model.Document { return s.gapFolders }

// locate resolves the parent folder and returns the tree node of the series,
// or nil when it does not exist yet.
func (s *Series) locate() (model.Document, error) {
	if s.deps.Tree == nil {
		return nil, fmt.Errorf("%s: tree is not loaded", s.SeriesName())
	}
	if s.parentID != "" {
		node, err := s.deps.Tree.FindSeries(s.Ticker, s.parentID)
		if err != nil {
			return nil, fmt.Errorf("find series: %w", err)
		}
		s.adoptParent(node)
		return node, nil
	}

	var first string
	for _, folder := range s.Kind.folders() {
		id, err := s.deps.Tree.UUIDByPath([]string{"Root", folder, s.Exchange})
		if err != nil {
			return nil, fmt.Errorf("resolve exchange folder: %w", err)
		}
		if id == "" {
			continue
		}
		if first == "" {
			first = id
		}
		node, err := s.deps.Tree.FindSeries(s.Ticker, id)
		if err != nil {
			return nil, fmt.Errorf("find series: %w", err)
		}
		if node != nil {
			s.parentID = id
			s.adoptParent(node)
			return node, nil
		}
	}
	if first == "" {
		return nil, fmt.Errorf("%s: %w", s.Exchange, ErrNoExchange)
	}
	s.parentID = first
	return nil, nil
}

// adoptParent makes the direct parent of a found series its parent folder,
// which differs from the searched folder for nested series.
func (s *Series) adoptParent(node model.Document) {
	if path := node.Path(); len(path) >= 2 {
		s.parentID = path[len(path)-2]
	}
}

func (s *Series) compileParent(ctx context.Context) error {
	if s.compiledParent != nil {
		return nil
	}
	compiled, err := s.deps.Compiler.Build(ctx, inherit.ByID(s.parentID), true, s.cache)
	if err != nil {
		return fmt.Errorf("compile parent folder %s: %w", s.parentID, err)
	}
	if compiled.ID() == "" {
		return fmt.Errorf("parent folder %s: %w", s.parentID, ErrNoInstrument)
	}
	s.compiledParent = compiled
	return nil
}

// seriesDocument builds a fresh series folder document.
func (s *Series) seriesDocument(opts Options) model.Document {
	description := opts.ShortName + " Futures"
	switch s.Kind {
	case KindOption:
		description = "Options on " + opts.ShortName
	case KindCalendarSpread, KindProductSpread:
		description = opts.ShortName + " Spreads"
	}

	doc := model.Document{
		model.KeyIsAbstract: true,
		model.KeyName:       s.Ticker,
		"ticker":            s.Ticker,
		"shortName":         opts.ShortName,
		"description":       description,
	}
	doc.SetPath(s.compiledParent.Path())

	switch {
	case s.Kind == KindCalendarSpread && s.spreadType == model.SpreadReverse:
		doc["spreadType"] = model.SpreadReverse
	case s.Kind == KindProductSpread:
		doc["type"] = model.TypeFuture
	}

	keys := make([]string, 0, len(opts.Fields))
	for k := range opts.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		doc.Set(opts.Fields[k], k)
	}
	return doc
}

// init loads everything below a series document that is already set.
func (s *Series) init(ctx context.Context) error {
	if err := s.compileParent(ctx); err != nil {
		return err
	}
	switch {
	case s.Instrument.String("spreadType") != "":
		s.spreadType = s.Instrument.String("spreadType")
	case s.spreadType == "" && s.compiledParent.String("spreadType") != "":
		s.spreadType = s.compiledParent.String("spreadType")
	case s.spreadType == "":
		s.spreadType = model.SpreadForward
	}

	var heirs []model.Document
	if id := s.Instrument.ID(); id != "" {
		var err error
		heirs, err = s.deps.Store.Heirs(ctx, id, sdb.HeirsOptions{Full: true, Recursive: true})
		if err != nil {
			return fmt.Errorf("load contracts of %s: %w", s.SeriesName(), err)
		}
	}
	s.setContracts(heirs)

	if s.Kind.spread() {
		if err := s.loadLegs(ctx); err != nil {
			return err
		}
	}
	return s.alignLastDates(ctx)
}

// setContracts picks the contracts out of the series heirs. Spreads also
// collect the month gap folders and the contracts inside them.
func (s *Series) setContracts(heirs []model.Document) {
	seriesPath := s.Instrument.Path()
	s.Contracts = nil
	s.gapFolders = nil

	var containers [][]string
	containers = append(containers, seriesPath)
	if s.Kind.spread() {
		for _, doc := range heirs {
			if doc.IsAbstract() && isChild(doc, seriesPath) && gapFolderName.MatchString(doc.Name()) {
				s.gapFolders = append(s.gapFolders, doc)
				containers = append(containers, doc.Path())
			}
		}
		sort.Slice(s.gapFolders, func(i, j int) bool { return s.gapFolders[i].Name() < s.gapFolders[j].Name() })
	}

	for _, doc := range heirs {
		if doc.IsAbstract() {
			continue
		}
		inside := false
		for _, c := range containers {
			if isChild(doc, c) {
				inside = true
				break
			}
		}
		if !inside {
			continue
		}
		e, err := s.expirationFromDocument(doc)
		if err != nil {
			s.logger.Warn("skipping contract", "id", doc.ID(), "name", doc.Name(), "error", err)
			continue
		}
		e.Reference = doc.Clone()
		e.stored = true
		s.Contracts = append(s.Contracts, e)
	}
	sortExpirations(s.Contracts)
}

// isChild reports whether doc sits directly inside the folder with the given path.
func isChild(doc model.Document, folder []string) bool {
	path := doc.Path()
	return len(folder) > 0 && len(path) == len(folder)+1 && slices.Equal(path[:len(folder)], folder)
}

// contractPath is where new contracts are placed: the series path, plus a
// placeholder while the series folder is not created.
func (s *Series) contractPath() []string {
	path := s.Instrument.Path()
	if s.Instrument.ID() == "" {
		path = append(path, seriesPlaceholder)
	}
	return path
}

// compiledSeries returns the series folder compiled over its parent.
func (s *Series) compiledSeries(ctx context.Context) (model.Document, error) {
	return s.deps.Compiler.Build(ctx, inherit.ByChain(s.compiledParent, s.Instrument), true, nil)
}

func sortExpirations(list []*Expiration) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.Before(list[j].Date)
		}
		return list[i].Far < list[j].Far
	})
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

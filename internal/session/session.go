package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/slobbe/fruit-jam-store/internal/core"
	models "github.com/slobbe/fruit-jam-store/internal/types"
)

const DefaultPageSize = 6

var (
	ErrBusy              = errors.New("an install or remove is already in progress")
	ErrNoCatalog         = errors.New("catalog not loaded")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrNoSuchSlot        = errors.New("no application in that slot")
	ErrNotInCatalog      = errors.New("application is not in the catalog")
)

type State int

const (
	Browsing State = iota
	Staged
	Installing
	Removing
)

func (s State) String() string {
	switch s {
	case Browsing:
		return "browsing"
	case Staged:
		return "staged"
	case Installing:
		return "installing"
	case Removing:
		return "removing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type CatalogLoader interface {
	Load(ctx context.Context) (*models.Catalog, error)
}

type Resolver interface {
	Resolve(ctx context.Context, id models.Identifier, report core.StatusFunc) models.DisplayRecord
}

type Installer interface {
	Install(ctx context.Context, id models.Identifier) (core.Outcome, error)
	Remove(id models.Identifier) (core.Outcome, error)
	IsInstalled(id models.Identifier) bool
}

// Slot is one position on the current page.
type Slot struct {
	Hidden    bool
	Record    models.DisplayRecord
	Installed bool
}

// View is a snapshot of the session for rendering. It shares nothing with
// the controller.
type View struct {
	State      State
	Categories []string
	Category   string
	Page       int
	PageCount  int
	Slots      []Slot
	Staged     *models.Identifier
	Status     string
}

type Option func(*Controller)

func WithPageSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithStatusListener receives every status line as it is produced. It is
// called with the controller locked and must not call back into it.
func WithStatusListener(fn func(status string)) Option {
	return func(c *Controller) { c.listener = fn }
}

// Controller owns all session state. Page loads run under the lock; an
// install or remove runs without it, and every call made meanwhile fails
// with ErrBusy.
type Controller struct {
	store     CatalogLoader
	resolver  Resolver
	installer Installer
	pageSize  int
	logger    *zap.Logger
	listener  func(string)

	mu       sync.Mutex
	catalog  *models.Catalog
	state    State
	category string
	page     int
	slots    []Slot
	staged   *models.Identifier
	status   string
	// rendered is set once the current page has been resolved.
	rendered bool
}

func New(store CatalogLoader, resolver Resolver, installer Installer, opts ...Option) *Controller {
	c := &Controller{
		store:     store,
		resolver:  resolver,
		installer: installer,
		pageSize:  DefaultPageSize,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.slots = hiddenSlots(c.pageSize)
	return c
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// LoadCatalog fetches the catalog and shows the first page of the default
// category. It also serves as a reset: any staged application is dropped.
// A failure is fatal for the session.
func (c *Controller) LoadCatalog(ctx context.Context) (View, error) {
	return c.loadCatalog(ctx, true)
}

// OpenCatalog is LoadCatalog without resolving a page: the default category
// is selected but every slot stays hidden. It suits callers that stage by
// identifier.
func (c *Controller) OpenCatalog(ctx context.Context) (View, error) {
	return c.loadCatalog(ctx, false)
}

func (c *Controller) loadCatalog(ctx context.Context, render bool) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy() {
		return c.viewLocked(), ErrBusy
	}

	catalog, err := c.store.Load(ctx)
	if err != nil {
		c.report(fmt.Sprintf("Unable to fetch applications database! %v", err))
		return c.viewLocked(), err
	}

	c.catalog = catalog
	c.state = Browsing
	c.staged = nil
	c.category = ""
	if render {
		c.selectCategory(ctx, catalog.Default())
	} else {
		c.category = catalog.Default()
		c.page = 0
		c.slots = hiddenSlots(c.pageSize)
		c.rendered = false
	}
	return c.viewLocked(), nil
}

// SelectCategory switches to name and shows its first page. Unknown names
// and the current category are ignored.
func (c *Controller) SelectCategory(ctx context.Context, name string) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.require(Browsing); err != nil {
		return c.viewLocked(), err
	}
	c.selectCategory(ctx, name)
	return c.viewLocked(), nil
}

// ShowPage shows page n of the current category. Pages outside
// [0, PageCount) leave the session unchanged.
func (c *Controller) ShowPage(ctx context.Context, n int) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.require(Browsing); err != nil {
		return c.viewLocked(), err
	}
	c.showPage(ctx, n)
	return c.viewLocked(), nil
}

func (c *Controller) NextPage(ctx context.Context) (View, error) {
	return c.ShowPage(ctx, c.currentPage()+1)
}

func (c *Controller) PreviousPage(ctx context.Context) (View, error) {
	return c.ShowPage(ctx, c.currentPage()-1)
}

func (c *Controller) currentPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// StageSlot stages the application shown in slot n of the current page.
func (c *Controller) StageSlot(n int) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.require(Browsing); err != nil {
		return c.viewLocked(), err
	}
	if n < 0 || n >= len(c.slots) || c.slots[n].Hidden {
		return c.viewLocked(), fmt.Errorf("%w: %d", ErrNoSuchSlot, n+1)
	}
	c.stage(c.slots[n].Record.Identifier, c.slots[n].Record.Title)
	return c.viewLocked(), nil
}

// Stage stages any application listed in the catalog.
func (c *Controller) Stage(id models.Identifier) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.require(Browsing); err != nil {
		return c.viewLocked(), err
	}
	if !c.catalog.Contains(id) {
		return c.viewLocked(), fmt.Errorf("%w: %s", ErrNotInCatalog, id)
	}
	c.stage(id, id.String())
	return c.viewLocked(), nil
}

func (c *Controller) stage(id models.Identifier, title string) {
	staged := id
	c.staged = &staged
	c.state = Staged
	if c.installer.IsInstalled(id) {
		c.report(fmt.Sprintf("%s is installed. Remove it?", title))
	} else {
		c.report(fmt.Sprintf("Install %s?", title))
	}
}

// Cancel drops the staged application without touching the installation.
func (c *Controller) Cancel() (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.require(Staged); err != nil {
		return c.viewLocked(), err
	}
	c.staged = nil
	c.state = Browsing
	c.report("Cancelled")
	return c.viewLocked(), nil
}

// ConfirmInstall installs the staged application, then returns to Browsing
// with the current page refreshed. The install error, if any, is returned
// alongside the view.
func (c *Controller) ConfirmInstall(ctx context.Context) (View, error) {
	id, err := c.begin(Installing)
	if err != nil {
		return c.View(), err
	}

	c.logger.Info("installing", zap.String("app", id.String()))
	outcome, opErr := c.installer.Install(ctx, id)

	var status string
	switch {
	case opErr != nil:
		status = fmt.Sprintf("Unable to install %s! %v", id, opErr)
	case outcome == core.OutcomeAlreadyInstalled:
		status = fmt.Sprintf("%s is already installed", id)
	default:
		status = fmt.Sprintf("Installed %s!", id)
	}
	return c.finish(ctx, status), opErr
}

// ConfirmRemove removes the staged application, then returns to Browsing
// with the current page refreshed.
func (c *Controller) ConfirmRemove(ctx context.Context) (View, error) {
	id, err := c.begin(Removing)
	if err != nil {
		return c.View(), err
	}

	c.logger.Info("removing", zap.String("app", id.String()))
	outcome, opErr := c.installer.Remove(id)

	var status string
	switch {
	case opErr != nil:
		status = fmt.Sprintf("Unable to remove %s! %v", id, opErr)
	case outcome == core.OutcomeNotInstalled:
		status = fmt.Sprintf("%s is not installed", id)
	default:
		status = fmt.Sprintf("Removed %s!", id)
	}
	return c.finish(ctx, status), opErr
}

func (c *Controller) begin(next State) (models.Identifier, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.require(Staged); err != nil {
		return models.Identifier{}, err
	}
	id := *c.staged
	c.state = next
	if next == Installing {
		c.report(fmt.Sprintf("Installing %s...", id))
	} else {
		c.report(fmt.Sprintf("Removing %s...", id))
	}
	return id, nil
}

func (c *Controller) finish(ctx context.Context, status string) View {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = Browsing
	c.staged = nil
	if c.rendered {
		c.loadPage(ctx, c.page)
	}
	c.report(status)
	return c.viewLocked()
}

func (c *Controller) busy() bool {
	return c.state == Installing || c.state == Removing
}

func (c *Controller) require(want State) error {
	if c.busy() {
		return ErrBusy
	}
	if c.catalog == nil {
		return ErrNoCatalog
	}
	if c.state != want {
		return fmt.Errorf("%w: session is %s, not %s", ErrInvalidTransition, c.state, want)
	}
	return nil
}

func (c *Controller) selectCategory(ctx context.Context, name string) {
	if !c.catalog.HasCategory(name) || name == c.category {
		return
	}
	c.category = name
	c.page = 0
	c.slots = hiddenSlots(c.pageSize)
	c.rendered = false
	if c.pageCount() == 0 {
		c.report(fmt.Sprintf("No applications in %s", name))
		return
	}
	c.showPage(ctx, 0)
}

func (c *Controller) pageCount() int {
	if c.catalog == nil {
		return 0
	}
	n := c.catalog.Len(c.category)
	return (n + c.pageSize - 1) / c.pageSize
}

func (c *Controller) showPage(ctx context.Context, page int) {
	if page < 0 || page >= c.pageCount() {
		return
	}
	c.loadPage(ctx, page)
}

func (c *Controller) loadPage(ctx context.Context, page int) {
	apps := c.catalog.Applications(c.category)
	start := page * c.pageSize
	if start < 0 || start >= len(apps) {
		return
	}
	end := min(start+c.pageSize, len(apps))

	c.page = page
	slots := hiddenSlots(c.pageSize)
	for i, id := range apps[start:end] {
		record := c.resolver.Resolve(ctx, id, c.report)
		slots[i] = Slot{
			Record:    record,
			Installed: c.installer.IsInstalled(id),
		}
	}
	c.slots = slots
	c.rendered = true
	c.report("Page loaded!")
}

func (c *Controller) report(status string) {
	c.status = status
	c.logger.Debug("status", zap.String("status", status))
	if c.listener != nil {
		c.listener(status)
	}
}

func (c *Controller) viewLocked() View {
	v := View{
		State:     c.state,
		Category:  c.category,
		Page:      c.page,
		PageCount: c.pageCount(),
		Slots:     append([]Slot(nil), c.slots...),
		Status:    c.status,
	}
	if c.catalog != nil {
		v.Categories = c.catalog.Categories()
	}
	if c.staged != nil {
		staged := *c.staged
		v.Staged = &staged
	}
	return v
}

func hiddenSlots(n int) []Slot {
	slots := make([]Slot, n)
	for i := range slots {
		slots[i].Hidden = true
	}
	return slots
}

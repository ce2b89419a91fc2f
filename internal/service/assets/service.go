package assets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/assettracker/internal/domain/models"
	"github.com/mamadbah2/assettracker/internal/tagseq"
)

// ErrInvalidInput indicates a request the service refuses before touching storage.
var ErrInvalidInput = errors.New("invalid asset input")

const (
	// maxAllocationAttempts bounds retries when storage reports a tag collision.
	maxAllocationAttempts = 3
	// defaultLabelBatch is printed when no tags are selected.
	defaultLabelBatch = 24
)

// Store is the storage collaborator every backend implements.
type Store interface {
	ListAssets(ctx context.Context) ([]models.Asset, error)
	GetAsset(ctx context.Context, tag string) (models.Asset, error)
	InsertAsset(ctx context.Context, asset models.Asset) error
	UpdateAsset(ctx context.Context, asset models.Asset) error
	DeleteAsset(ctx context.Context, tag string) error
	TagsWithPrefix(ctx context.Context, prefix string) ([]string, error)
	AppendHistory(ctx context.Context, entry models.HistoryEntry) error
	ListHistory(ctx context.Context) ([]models.HistoryEntry, error)
}

// Reserver is implemented by stores that can atomically hand out the next
// sequence for a prefix.
type Reserver interface {
	ReserveSequence(ctx context.Context, prefix string) (int, error)
}

// TagOptions overrides the configured tag shape for one request.
type TagOptions struct {
	YearMode       *string `json:"year_mode,omitempty"`
	SequenceDigits int     `json:"sequence_digits,omitempty"`
}

// Fields are the user-editable asset attributes.
type Fields struct {
	Name           string `json:"name"`
	Category       string `json:"category"`
	SerialNo       string `json:"serial_no"`
	Vendor         string `json:"vendor"`
	PurchaseDate   string `json:"purchase_date"`
	WarrantyExpiry string `json:"warranty_expiry"`
	Status         string `json:"status"`
	Branch         string `json:"branch"`
	Location       string `json:"location"`
	AssignedTo     string `json:"assigned_to"`
	InstalledDate  string `json:"installed_date"`
	Notes          string `json:"notes"`
}

// CreateInput describes a new asset. An empty AssetTag requests allocation.
type CreateInput struct {
	Fields
	AssetTag string     `json:"asset_tag"`
	Tag      TagOptions `json:"tag"`
}

// Service implements asset CRUD, search and tag allocation.
type Service struct {
	store  Store
	tags   tagseq.Config
	locks  *prefixLocks
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewService wires an asset service over store.
func NewService(store Store, tags tagseq.Config, logger *zap.Logger) (*Service, error) {
	if err := tags.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		tags:   tags,
		locks:  newPrefixLocks(),
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}, nil
}

// Create stores a new asset, allocating its tag unless one is supplied.
func (s *Service) Create(ctx context.Context, session models.Session, in CreateInput) (models.Asset, error) {
	now := s.now()
	asset := models.Asset{ID: s.newID()}
	applyFields(&asset, in.Fields)
	asset.Touch(now)

	manual := strings.TrimSpace(in.AssetTag)
	if manual != "" {
		asset.AssetTag = manual
		if err := s.store.InsertAsset(ctx, asset); err != nil {
			return models.Asset{}, err
		}
	} else {
		cfg, err := s.tagConfig(in.Tag)
		if err != nil {
			return models.Asset{}, err
		}
		if asset, err = s.insertAllocated(ctx, asset, cfg, now); err != nil {
			return models.Asset{}, err
		}
	}

	s.record(ctx, session, models.ActionAdd, asset, asset.Name)
	s.logger.Info("asset created", zap.String("asset_tag", asset.AssetTag), zap.String("branch", asset.Branch), zap.String("user", session.User))
	return asset, nil
}

// Preview computes the tag Create would most likely allocate, without reserving it.
func (s *Service) Preview(ctx context.Context, branch string, opts TagOptions) (tagseq.Allocation, error) {
	cfg, err := s.tagConfig(opts)
	if err != nil {
		return tagseq.Allocation{}, err
	}
	now := s.now()
	existing, err := s.store.TagsWithPrefix(ctx, tagseq.Prefix(branch, cfg.YearMode, now))
	if err != nil {
		return tagseq.Allocation{}, err
	}
	return tagseq.Next(branch, existing, cfg, now)
}

func (s *Service) insertAllocated(ctx context.Context, asset models.Asset, cfg tagseq.Config, now time.Time) (models.Asset, error) {
	prefix := tagseq.Prefix(asset.Branch, cfg.YearMode, now)
	reserver, reserves := s.store.(Reserver)

	for attempt := 1; attempt <= maxAllocationAttempts; attempt++ {
		var (
			alloc tagseq.Allocation
			err   error
		)
		if reserves {
			alloc, err = s.reserve(ctx, reserver, prefix, cfg)
			if err == nil {
				asset.AssetTag = alloc.Tag
				err = s.store.InsertAsset(ctx, asset)
			}
		} else {
			alloc, err = s.scanAndInsert(ctx, &asset, prefix, cfg, now)
		}

		switch {
		case err == nil:
			if alloc.Overflow {
				s.logger.Warn("tag sequence wider than configured digits",
					zap.String("asset_tag", alloc.Tag), zap.Int("digits", cfg.SequenceDigits))
			}
			return asset, nil
		case errors.Is(err, models.ErrDuplicateTag):
			s.logger.Warn("allocated tag collided, retrying", zap.String("asset_tag", alloc.Tag), zap.Int("attempt", attempt))
		default:
			return models.Asset{}, err
		}
	}
	return models.Asset{}, fmt.Errorf("allocate tag for prefix %s after %d attempts: %w", prefix, maxAllocationAttempts, models.ErrDuplicateTag)
}

func (s *Service) reserve(ctx context.Context, r Reserver, prefix string, cfg tagseq.Config) (tagseq.Allocation, error) {
	seq, err := r.ReserveSequence(ctx, prefix)
	if err != nil {
		return tagseq.Allocation{}, fmt.Errorf("reserve sequence for %s: %w", prefix, err)
	}
	return tagseq.Format(prefix, seq, cfg)
}

// scanAndInsert holds the prefix lock across read, allocate and insert.
func (s *Service) scanAndInsert(ctx context.Context, asset *models.Asset, prefix string, cfg tagseq.Config, now time.Time) (tagseq.Allocation, error) {
	unlock := s.locks.Lock(prefix)
	defer unlock()

	existing, err := s.store.TagsWithPrefix(ctx, prefix)
	if err != nil {
		return tagseq.Allocation{}, err
	}
	alloc, err := tagseq.Next(asset.Branch, existing, cfg, now)
	if err != nil {
		return tagseq.Allocation{}, err
	}
	asset.AssetTag = alloc.Tag
	return alloc, s.store.InsertAsset(ctx, *asset)
}

// Get returns one asset.
func (s *Service) Get(ctx context.Context, tag string) (models.Asset, error) {
	return s.store.GetAsset(ctx, tag)
}

// Update replaces the editable fields of an asset.
func (s *Service) Update(ctx context.Context, session models.Session, tag string, fields Fields) (models.Asset, error) {
	asset, err := s.store.GetAsset(ctx, tag)
	if err != nil {
		return models.Asset{}, err
	}
	applyFields(&asset, fields)
	asset.Touch(s.now())
	if err := s.store.UpdateAsset(ctx, asset); err != nil {
		return models.Asset{}, err
	}
	s.record(ctx, session, models.ActionUpdate, asset, "edit")
	return asset, nil
}

// Touch bumps last_update without changing anything else.
func (s *Service) Touch(ctx context.Context, session models.Session, tag string) (models.Asset, error) {
	asset, err := s.store.GetAsset(ctx, tag)
	if err != nil {
		return models.Asset{}, err
	}
	asset.Touch(s.now())
	if err := s.store.UpdateAsset(ctx, asset); err != nil {
		return models.Asset{}, err
	}
	s.record(ctx, session, models.ActionUpdate, asset, "touch")
	return asset, nil
}

// Delete removes an asset; its history stays.
func (s *Service) Delete(ctx context.Context, session models.Session, tag string) error {
	asset, err := s.store.GetAsset(ctx, tag)
	if err != nil {
		return err
	}
	if err := s.store.DeleteAsset(ctx, tag); err != nil {
		return err
	}
	s.record(ctx, session, models.ActionDelete, asset, asset.Name)
	return nil
}

// List returns every asset.
func (s *Service) List(ctx context.Context) ([]models.Asset, error) {
	return s.store.ListAssets(ctx)
}

// Search matches query case-insensitively against tag, name and branch.
// An empty query returns everything.
func (s *Service) Search(ctx context.Context, query string) ([]models.Asset, error) {
	assets, err := s.store.ListAssets(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return assets, nil
	}
	matches := make([]models.Asset, 0)
	for _, a := range assets {
		if strings.Contains(strings.ToLower(a.AssetTag), q) ||
			strings.Contains(strings.ToLower(a.Name), q) ||
			strings.Contains(strings.ToLower(a.Branch), q) {
			matches = append(matches, a)
		}
	}
	return matches, nil
}

// Scan resolves a code read by a keyboard-wedge barcode/QR scanner.
func (s *Service) Scan(ctx context.Context, code string) (models.Asset, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return models.Asset{}, fmt.Errorf("%w: empty scan", ErrInvalidInput)
	}
	return s.store.GetAsset(ctx, code)
}

// History returns the change log.
func (s *Service) History(ctx context.Context) ([]models.HistoryEntry, error) {
	return s.store.ListHistory(ctx)
}

// LabelRecords projects the selected assets, in selection order, onto label
// records. Unknown tags are skipped. With no selection the first assets are used.
func (s *Service) LabelRecords(ctx context.Context, tags []string) ([]models.LabelRecord, error) {
	assets, err := s.store.ListAssets(ctx)
	if err != nil {
		return nil, err
	}

	if len(tags) == 0 {
		n := min(len(assets), defaultLabelBatch)
		records := make([]models.LabelRecord, n)
		for i := range records {
			records[i] = assets[i].Label()
		}
		return records, nil
	}

	byTag := make(map[string]models.Asset, len(assets))
	for _, a := range assets {
		byTag[a.AssetTag] = a
	}
	records := make([]models.LabelRecord, 0, len(tags))
	for _, tag := range tags {
		a, ok := byTag[tag]
		if !ok {
			s.logger.Debug("label requested for unknown tag", zap.String("asset_tag", tag))
			continue
		}
		records = append(records, a.Label())
	}
	return records, nil
}

func (s *Service) tagConfig(opts TagOptions) (tagseq.Config, error) {
	cfg := s.tags
	if opts.YearMode != nil {
		mode, err := tagseq.ParseYearMode(*opts.YearMode)
		if err != nil {
			return cfg, err
		}
		cfg.YearMode = mode
	}
	if opts.SequenceDigits != 0 {
		cfg.SequenceDigits = opts.SequenceDigits
	}
	return cfg, cfg.Validate()
}

// record appends a history entry. The asset change already happened, so a
// failed append is logged rather than returned.
func (s *Service) record(ctx context.Context, session models.Session, action models.HistoryAction, asset models.Asset, note string) {
	entry := models.HistoryEntry{
		TS:       s.now().Format(models.TimestampLayout),
		User:     session.User,
		Action:   action,
		AssetTag: asset.AssetTag,
		Branch:   asset.Branch,
		Note:     note,
	}
	if err := s.store.AppendHistory(ctx, entry); err != nil {
		s.logger.Error("failed to append history", zap.String("action", string(action)), zap.String("asset_tag", asset.AssetTag), zap.Error(err))
	}
}

func applyFields(a *models.Asset, f Fields) {
	a.Name = strings.TrimSpace(f.Name)
	a.Category = f.Category
	a.SerialNo = f.SerialNo
	a.Vendor = f.Vendor
	a.PurchaseDate = f.PurchaseDate
	a.WarrantyExpiry = f.WarrantyExpiry
	a.Status = models.ParseStatus(f.Status)
	a.Branch = strings.TrimSpace(f.Branch)
	a.Location = f.Location
	a.AssignedTo = f.AssignedTo
	a.InstalledDate = f.InstalledDate
	a.Notes = f.Notes
}

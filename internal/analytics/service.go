// Package analytics builds the dashboards and reports shown to admins and
// SuperAdmins.
package analytics

import (
	"context"
	"errors"

	"github.com/techdict/backend/internal/models"
	"github.com/techdict/backend/internal/serr"
	"github.com/techdict/backend/internal/store"
)

const (
	recentRequests = 5
	topTerms       = 10
)

// Store is the relational side of the reports.
type Store interface {
	CountAccounts(ctx context.Context, role models.Role) (int64, error)
	FindAccountByID(ctx context.Context, role models.Role, id string) (models.Account, error)
	CountWords(ctx context.Context, status *models.WordStatus) (int64, error)
	CountRequests(ctx context.Context, status *models.RequestStatus) (int64, error)
	ListRequests(ctx context.Context, r store.ListRequestsRequest) ([]models.Request, error)
	WordsByClass(ctx context.Context) ([]models.Count, error)
	RequestsByStatus(ctx context.Context) ([]models.Count, error)
	RequestsByType(ctx context.Context) ([]models.Count, error)
	NewWordsPerDay(ctx context.Context) ([]models.DailyCount, error)
	WordUpdatesPerDay(ctx context.Context) ([]models.DailyCount, error)
	NewRequestsPerDay(ctx context.Context) ([]models.DailyCount, error)
	MostLookedUp(ctx context.Context, limit int) ([]models.TermLookups, error)
	AvgResolveSeconds(ctx context.Context) (*float64, error)
}

// ActivityLog aggregates the search log.
type ActivityLog interface {
	Activity(ctx context.Context, topTerms int) (models.Activity, error)
}

type Service struct {
	store    Store
	activity ActivityLog
}

func NewService(s Store, activity ActivityLog) *Service {
	return &Service{store: s, activity: activity}
}

func (s *Service) SuperAdminDashboard(ctx context.Context) (models.SuperAdminDashboard, error) {
	var (
		d   models.SuperAdminDashboard
		err error
	)
	if d.AdminCount, err = s.store.CountAccounts(ctx, models.RoleAdmin); err != nil {
		return d, serr.Internal(err, "count admins")
	}
	if d.WordCount, err = s.store.CountWords(ctx, nil); err != nil {
		return d, serr.Internal(err, "count words")
	}
	if d.RequestCount, err = s.store.CountRequests(ctx, nil); err != nil {
		return d, serr.Internal(err, "count requests")
	}
	return d, nil
}

func (s *Service) AdminDashboard(ctx context.Context, p models.Principal) (models.AdminDashboard, error) {
	var d models.AdminDashboard

	acc, err := s.store.FindAccountByID(ctx, models.RoleAdmin, p.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return d, serr.NotFound(err, "admin not found").With("admin_id", p.ID)
		}
		return d, serr.Internal(err, "find admin")
	}
	d.AdminEmail = acc.Email

	if d.WordCount, err = s.store.CountWords(ctx, nil); err != nil {
		return d, serr.Internal(err, "count words")
	}
	if d.RequestCount, err = s.store.CountRequests(ctx, nil); err != nil {
		return d, serr.Internal(err, "count requests")
	}

	recent, err := s.store.ListRequests(ctx, store.ListRequestsRequest{Limit: recentRequests})
	if err != nil {
		return d, serr.Internal(err, "recent requests")
	}
	d.RecentRequests = orEmpty(recent)
	return d, nil
}

func (s *Service) Overview(ctx context.Context) (models.Overview, error) {
	var (
		o   models.Overview
		err error
	)
	if o.WordsByClass, err = s.store.WordsByClass(ctx); err != nil {
		return o, serr.Internal(err, "words by class")
	}
	if o.RequestsByStatus, err = s.store.RequestsByStatus(ctx); err != nil {
		return o, serr.Internal(err, "requests by status")
	}
	o.WordsByClass = orEmpty(o.WordsByClass)
	o.RequestsByStatus = orEmpty(o.RequestsByStatus)
	return o, nil
}

func (s *Service) Words(ctx context.Context) (models.WordAnalytics, error) {
	var (
		a       models.WordAnalytics
		err     error
		active  = models.WordActive
		pending = models.WordPending
	)
	if a.TotalWords, err = s.store.CountWords(ctx, nil); err != nil {
		return a, serr.Internal(err, "count words")
	}
	if a.ActiveWords, err = s.store.CountWords(ctx, &active); err != nil {
		return a, serr.Internal(err, "count active words")
	}
	if a.PendingWords, err = s.store.CountWords(ctx, &pending); err != nil {
		return a, serr.Internal(err, "count pending words")
	}
	if a.NewWordsPerDay, err = s.store.NewWordsPerDay(ctx); err != nil {
		return a, serr.Internal(err, "new words per day")
	}
	if a.UpdatesPerDay, err = s.store.WordUpdatesPerDay(ctx); err != nil {
		return a, serr.Internal(err, "word updates per day")
	}
	if a.MostLookedUpWords, err = s.store.MostLookedUp(ctx, topTerms); err != nil {
		return a, serr.Internal(err, "most looked up")
	}

	a.NewWordsPerDay = orEmpty(a.NewWordsPerDay)
	a.UpdatesPerDay = orEmpty(a.UpdatesPerDay)
	a.MostLookedUpWords = orEmpty(a.MostLookedUpWords)
	return a, nil
}

func (s *Service) Requests(ctx context.Context) (models.RequestAnalytics, error) {
	var (
		a        models.RequestAnalytics
		err      error
		open     = models.RequestOpen
		resolved = models.RequestResolved
	)
	if a.TotalRequests, err = s.store.CountRequests(ctx, nil); err != nil {
		return a, serr.Internal(err, "count requests")
	}
	if a.OpenRequests, err = s.store.CountRequests(ctx, &open); err != nil {
		return a, serr.Internal(err, "count open requests")
	}
	if a.ResolvedRequests, err = s.store.CountRequests(ctx, &resolved); err != nil {
		return a, serr.Internal(err, "count resolved requests")
	}
	if a.NewPerDay, err = s.store.NewRequestsPerDay(ctx); err != nil {
		return a, serr.Internal(err, "new requests per day")
	}
	if a.AvgResolveSeconds, err = s.store.AvgResolveSeconds(ctx); err != nil {
		return a, serr.Internal(err, "average resolve time")
	}
	if a.ByType, err = s.store.RequestsByType(ctx); err != nil {
		return a, serr.Internal(err, "requests by type")
	}

	a.NewPerDay = orEmpty(a.NewPerDay)
	a.ByType = orEmpty(a.ByType)
	return a, nil
}

// Activity summarizes search traffic from the lookup log.
func (s *Service) Activity(ctx context.Context) (models.Activity, error) {
	a, err := s.activity.Activity(ctx, topTerms)
	if err != nil {
		return models.Activity{}, serr.Internal(err, "search activity")
	}
	a.SearchesPerDay = orEmpty(a.SearchesPerDay)
	a.PopularTerms = orEmpty(a.PopularTerms)
	return a, nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// internal/store/memory.go
package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"curation-service/internal/domain"

	"github.com/lib/pq"
)

// Memory - хранилище в памяти процесса для разработки и тестов.
// Реализует AccountStore, WatchlistStore и ReviewStore с теми же
// гарантиями уникальности, что и базы данных.
type Memory struct {
	mu sync.RWMutex

	accounts        map[string]*domain.Account
	accountsByEmail map[string]string // email (lower) -> id
	accountsByName  map[string]string // username -> id

	watchlists     map[string]*domain.Watchlist
	watchlistOrder []string

	reviews     map[string]*domain.Review
	reviewOrder []string
	reviewKeys  map[reviewKey]string // аналог уникального индекса (owner, movieId)

	now func() time.Time
}

type reviewKey struct {
	owner   string
	movieID int64
}

// NewMemory создает пустое хранилище в памяти.
func NewMemory() *Memory {
	return &Memory{
		accounts:        make(map[string]*domain.Account),
		accountsByEmail: make(map[string]string),
		accountsByName:  make(map[string]string),
		watchlists:      make(map[string]*domain.Watchlist),
		reviews:         make(map[string]*domain.Review),
		reviewKeys:      make(map[reviewKey]string),
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Accounts возвращает хранилище аккаунтов.
func (m *Memory) Accounts() AccountStore { return (*memoryAccounts)(m) }

// Watchlists возвращает хранилище списков просмотра.
func (m *Memory) Watchlists() WatchlistStore { return (*memoryWatchlists)(m) }

// Reviews возвращает хранилище отзывов.
func (m *Memory) Reviews() ReviewStore { return (*memoryReviews)(m) }

func emailKey(email string) string { return strings.ToLower(email) }

func copyAccount(a *domain.Account) *domain.Account {
	cp := *a
	cp.FavoriteMovies = append(pq.Int64Array{}, a.FavoriteMovies...)
	return &cp
}

func copyWatchlist(w *domain.Watchlist) *domain.Watchlist {
	cp := *w
	cp.Movies = append(pq.Int64Array{}, w.Movies...)
	return &cp
}

func copyReview(r *domain.Review) *domain.Review {
	cp := *r
	return &cp
}

// --- Аккаунты ---

type memoryAccounts Memory

func (s *memoryAccounts) Create(ctx context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accountsByEmail[emailKey(account.Email)]; ok {
		return ErrAccountAlreadyExists
	}
	if _, ok := s.accountsByName[account.Username]; ok {
		return ErrAccountAlreadyExists
	}
	if _, ok := s.accounts[account.ID]; ok {
		return ErrAccountAlreadyExists
	}

	account.CreatedAt = s.now()
	account.UpdatedAt = account.CreatedAt
	if account.FavoriteMovies == nil {
		account.FavoriteMovies = pq.Int64Array{}
	}
	s.accounts[account.ID] = copyAccount(account)
	s.accountsByEmail[emailKey(account.Email)] = account.ID
	s.accountsByName[account.Username] = account.ID
	return nil
}

func (s *memoryAccounts) GetByID(ctx context.Context, accountID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.accounts[accountID]; ok {
		return copyAccount(a), nil
	}
	return nil, ErrAccountNotFound
}

func (s *memoryAccounts) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.accountsByEmail[emailKey(email)]; ok {
		return copyAccount(s.accounts[id]), nil
	}
	return nil, ErrAccountNotFound
}

func (s *memoryAccounts) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.accountsByName[username]; ok {
		return copyAccount(s.accounts[id]), nil
	}
	return nil, ErrAccountNotFound
}

func (s *memoryAccounts) Update(ctx context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.accounts[account.ID]
	if !ok {
		return ErrAccountNotFound
	}
	if account.Username != "" && account.Username != existing.Username {
		if _, taken := s.accountsByName[account.Username]; taken {
			return ErrAccountAlreadyExists
		}
	}
	if account.Email != "" && emailKey(account.Email) != emailKey(existing.Email) {
		if _, taken := s.accountsByEmail[emailKey(account.Email)]; taken {
			return ErrAccountAlreadyExists
		}
	}

	if account.Username != "" && account.Username != existing.Username {
		delete(s.accountsByName, existing.Username)
		existing.Username = account.Username
		s.accountsByName[existing.Username] = existing.ID
	}
	if account.Email != "" && account.Email != existing.Email {
		delete(s.accountsByEmail, emailKey(existing.Email))
		existing.Email = account.Email
		s.accountsByEmail[emailKey(existing.Email)] = existing.ID
	}
	if account.PasswordHash != "" {
		existing.PasswordHash = account.PasswordHash
	}
	existing.UpdatedAt = s.now()
	account.UpdatedAt = existing.UpdatedAt
	return nil
}

func (s *memoryAccounts) AddFavorite(ctx context.Context, accountID string, movieID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[accountID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	if a.HasFavorite(movieID) {
		return nil, ErrFavoriteAlreadyExists
	}
	a.FavoriteMovies = append(a.FavoriteMovies, movieID)
	a.UpdatedAt = s.now()
	return append([]int64{}, a.FavoriteMovies...), nil
}

func (s *memoryAccounts) RemoveFavorite(ctx context.Context, accountID string, movieID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[accountID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	if !a.HasFavorite(movieID) {
		return nil, ErrFavoriteNotFound
	}
	a.FavoriteMovies = removeID(a.FavoriteMovies, movieID)
	a.UpdatedAt = s.now()
	return append([]int64{}, a.FavoriteMovies...), nil
}

func removeID(ids pq.Int64Array, id int64) pq.Int64Array {
	out := make(pq.Int64Array, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// --- Списки просмотра ---

type memoryWatchlists Memory

func (s *memoryWatchlists) Create(ctx context.Context, watchlist *domain.Watchlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	watchlist.CreatedAt = s.now()
	watchlist.UpdatedAt = watchlist.CreatedAt
	if watchlist.Movies == nil {
		watchlist.Movies = pq.Int64Array{}
	}
	s.watchlists[watchlist.ID] = copyWatchlist(watchlist)
	s.watchlistOrder = append(s.watchlistOrder, watchlist.ID)
	return nil
}

func (s *memoryWatchlists) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Watchlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*domain.Watchlist{}
	for i := len(s.watchlistOrder) - 1; i >= 0; i-- {
		w, ok := s.watchlists[s.watchlistOrder[i]]
		if ok && w.Owner == ownerID {
			out = append(out, copyWatchlist(w))
		}
	}
	return out, nil
}

// owned возвращает список только при совпадении id и владельца.
// Вызывается под блокировкой.
func (s *memoryWatchlists) owned(ownerID, watchlistID string) (*domain.Watchlist, error) {
	w, ok := s.watchlists[watchlistID]
	if !ok || w.Owner != ownerID {
		return nil, ErrWatchlistNotFound
	}
	return w, nil
}

func (s *memoryWatchlists) GetByID(ctx context.Context, ownerID, watchlistID string) (*domain.Watchlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, err := s.owned(ownerID, watchlistID)
	if err != nil {
		return nil, err
	}
	return copyWatchlist(w), nil
}

func (s *memoryWatchlists) AddMovie(ctx context.Context, ownerID, watchlistID string, movieID int64) (*domain.Watchlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, err := s.owned(ownerID, watchlistID)
	if err != nil {
		return nil, err
	}
	if w.Contains(movieID) {
		return nil, ErrMovieAlreadyInWatchlist
	}
	w.Movies = append(w.Movies, movieID)
	w.UpdatedAt = s.now()
	return copyWatchlist(w), nil
}

func (s *memoryWatchlists) RemoveMovie(ctx context.Context, ownerID, watchlistID string, movieID int64) (*domain.Watchlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, err := s.owned(ownerID, watchlistID)
	if err != nil {
		return nil, err
	}
	if !w.Contains(movieID) {
		return nil, ErrMovieNotInWatchlist
	}
	w.Movies = removeID(w.Movies, movieID)
	w.UpdatedAt = s.now()
	return copyWatchlist(w), nil
}

func (s *memoryWatchlists) Update(ctx context.Context, ownerID, watchlistID string, upd WatchlistUpdate) (*domain.Watchlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, err := s.owned(ownerID, watchlistID)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		w.Name = *upd.Name
	}
	if upd.Description != nil {
		w.Description = *upd.Description
	}
	if upd.IsPublic != nil {
		w.IsPublic = *upd.IsPublic
	}
	w.UpdatedAt = s.now()
	return copyWatchlist(w), nil
}

func (s *memoryWatchlists) Delete(ctx context.Context, ownerID, watchlistID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.owned(ownerID, watchlistID); err != nil {
		return err
	}
	delete(s.watchlists, watchlistID)
	for i, id := range s.watchlistOrder {
		if id == watchlistID {
			s.watchlistOrder = append(s.watchlistOrder[:i], s.watchlistOrder[i+1:]...)
			break
		}
	}
	return nil
}

// --- Отзывы ---

type memoryReviews Memory

func (s *memoryReviews) Create(ctx context.Context, review *domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := reviewKey{owner: review.Owner, movieID: review.MovieID}
	if _, exists := s.reviewKeys[key]; exists {
		return ErrDuplicateReview
	}
	review.CreatedAt = s.now()
	review.UpdatedAt = review.CreatedAt
	s.reviews[review.ID] = copyReview(review)
	s.reviewKeys[key] = review.ID
	s.reviewOrder = append(s.reviewOrder, review.ID)
	return nil
}

func (s *memoryReviews) GetByID(ctx context.Context, reviewID string) (*domain.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.reviews[reviewID]; ok {
		return copyReview(r), nil
	}
	return nil, ErrReviewNotFound
}

func (s *memoryReviews) GetByOwnerAndMovie(ctx context.Context, ownerID string, movieID int64) (*domain.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.reviewKeys[reviewKey{owner: ownerID, movieID: movieID}]; ok {
		return copyReview(s.reviews[id]), nil
	}
	return nil, ErrReviewNotFound
}

func (s *memoryReviews) list(match func(*domain.Review) bool) []*domain.Review {
	out := []*domain.Review{}
	for i := len(s.reviewOrder) - 1; i >= 0; i-- {
		r, ok := s.reviews[s.reviewOrder[i]]
		if ok && match(r) {
			out = append(out, copyReview(r))
		}
	}
	return out
}

func (s *memoryReviews) ListByMovie(ctx context.Context, movieID int64) ([]*domain.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list(func(r *domain.Review) bool { return r.MovieID == movieID }), nil
}

func (s *memoryReviews) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list(func(r *domain.Review) bool { return r.Owner == ownerID }), nil
}

func (s *memoryReviews) Update(ctx context.Context, review *domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.reviews[review.ID]
	if !ok || existing.Owner != review.Owner {
		return ErrReviewNotFound
	}
	existing.Rating = review.Rating
	existing.Comment = review.Comment
	existing.UpdatedAt = s.now()
	review.UpdatedAt = existing.UpdatedAt
	return nil
}

func (s *memoryReviews) Delete(ctx context.Context, ownerID, reviewID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.reviews[reviewID]
	if !ok || existing.Owner != ownerID {
		return ErrReviewNotFound
	}
	delete(s.reviews, reviewID)
	delete(s.reviewKeys, reviewKey{owner: existing.Owner, movieID: existing.MovieID})
	for i, id := range s.reviewOrder {
		if id == reviewID {
			s.reviewOrder = append(s.reviewOrder[:i], s.reviewOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (s *memoryReviews) RatingSummary(ctx context.Context, movieID int64) (*domain.RatingSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary := &domain.RatingSummary{MovieID: movieID}
	total := 0
	for _, r := range s.reviews {
		if r.MovieID == movieID {
			total += r.Rating
			summary.RatingCount++
		}
	}
	if summary.RatingCount > 0 {
		summary.AverageRating = float64(total) / float64(summary.RatingCount)
	}
	return summary, nil
}

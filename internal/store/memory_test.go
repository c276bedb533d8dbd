package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"curation-service/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, NewMemoryStores())
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	w := &domain.Watchlist{ID: uuid.NewString(), Owner: "owner", Name: "List"}
	require.NoError(t, m.Watchlists().Create(ctx, w))

	got, err := m.Watchlists().GetByID(ctx, "owner", w.ID)
	require.NoError(t, err)
	got.Movies = append(got.Movies, 1)
	got.Name = "mutated"

	again, err := m.Watchlists().GetByID(ctx, "owner", w.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Movies)
	assert.Equal(t, "List", again.Name)
}

func TestMemoryConcurrentAddMovieKeepsUniqueness(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	w := &domain.Watchlist{ID: uuid.NewString(), Owner: "owner", Name: "Race"}
	require.NoError(t, m.Watchlists().Create(ctx, w))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Watchlists().AddMovie(ctx, "owner", w.ID, 550)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrMovieAlreadyInWatchlist):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 19, conflicts)
	got, err := m.Watchlists().GetByID(ctx, "owner", w.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{550}, []int64(got.Movies))
}

func TestMemoryEmailLookupIgnoresCase(t *testing.T) {
	ctx := context.Background()
	accounts := NewMemory().Accounts()
	require.NoError(t, accounts.Create(ctx, &domain.Account{ID: "a1", Username: "ann", Email: "ann@x.com"}))

	got, err := accounts.GetByEmail(ctx, "ANN@x.com")
	require.NoError(t, err)
	assert.Equal(t, "a1", got.ID)

	err = accounts.Create(ctx, &domain.Account{ID: "a2", Username: "ann2", Email: "Ann@X.com"})
	assert.ErrorIs(t, err, ErrAccountAlreadyExists)
}

func TestOpenMemoryAndUnknownDriver(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	stores, err := Open(ctx, Options{Driver: DriverMemory}, logger)
	require.NoError(t, err)
	assert.NotNil(t, stores.Accounts)
	assert.NoError(t, stores.Close(ctx))

	_, err = Open(ctx, Options{Driver: "sqlite"}, logger)
	assert.Error(t, err)
}

func TestSentinelsWrapDomainKinds(t *testing.T) {
	assert.ErrorIs(t, ErrAccountNotFound, domain.ErrNotFound)
	assert.ErrorIs(t, ErrWatchlistNotFound, domain.ErrNotFound)
	assert.ErrorIs(t, ErrMovieNotInWatchlist, domain.ErrNotFound)
	assert.ErrorIs(t, ErrReviewNotFound, domain.ErrNotFound)
	assert.ErrorIs(t, ErrFavoriteNotFound, domain.ErrNotFound)
	assert.ErrorIs(t, ErrAccountAlreadyExists, domain.ErrConflict)
	assert.ErrorIs(t, ErrMovieAlreadyInWatchlist, domain.ErrConflict)
	assert.ErrorIs(t, ErrDuplicateReview, domain.ErrConflict)
	assert.ErrorIs(t, ErrFavoriteAlreadyExists, domain.ErrConflict)
}

package store

import (
	"context"
	"testing"
	"time"

	"curation-service/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract проверяет общие для всех драйверов гарантии.
func runStoreContract(t *testing.T, stores *Stores) {
	t.Helper()

	newAccount := func(t *testing.T, name string) *domain.Account {
		t.Helper()
		a := &domain.Account{
			ID:           uuid.NewString(),
			Username:     name + "-" + uuid.NewString()[:8],
			Email:        name + "-" + uuid.NewString()[:8] + "@example.com",
			PasswordHash: "hash",
		}
		require.NoError(t, stores.Accounts.Create(context.Background(), a))
		return a
	}

	t.Run("accounts are unique by username and email", func(t *testing.T) {
		ctx := context.Background()
		a := newAccount(t, "ann")

		dupEmail := &domain.Account{ID: uuid.NewString(), Username: "other-" + uuid.NewString()[:8], Email: a.Email, PasswordHash: "h"}
		assert.ErrorIs(t, stores.Accounts.Create(ctx, dupEmail), ErrAccountAlreadyExists)

		dupName := &domain.Account{ID: uuid.NewString(), Username: a.Username, Email: uuid.NewString()[:8] + "@example.com", PasswordHash: "h"}
		err := stores.Accounts.Create(ctx, dupName)
		assert.ErrorIs(t, err, ErrAccountAlreadyExists)
		assert.ErrorIs(t, err, domain.ErrConflict)

		got, err := stores.Accounts.GetByEmail(ctx, a.Email)
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)
		assert.Equal(t, "hash", got.PasswordHash)

		got, err = stores.Accounts.GetByUsername(ctx, a.Username)
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)

		_, err = stores.Accounts.GetByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("account update keeps uniqueness", func(t *testing.T) {
		ctx := context.Background()
		a := newAccount(t, "upd")
		b := newAccount(t, "taken")

		err := stores.Accounts.Update(ctx, &domain.Account{ID: a.ID, Username: b.Username})
		assert.ErrorIs(t, err, ErrAccountAlreadyExists)

		newName := "renamed-" + uuid.NewString()[:8]
		require.NoError(t, stores.Accounts.Update(ctx, &domain.Account{ID: a.ID, Username: newName}))
		got, err := stores.Accounts.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, newName, got.Username)
		assert.Equal(t, a.Email, got.Email)
		assert.Equal(t, "hash", got.PasswordHash)

		require.NoError(t, stores.Accounts.Update(ctx, &domain.Account{ID: a.ID, PasswordHash: "new-hash"}))
		got, err = stores.Accounts.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "new-hash", got.PasswordHash)

		err = stores.Accounts.Update(ctx, &domain.Account{ID: uuid.NewString(), Username: "ghost-" + uuid.NewString()[:8]})
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("favorites", func(t *testing.T) {
		ctx := context.Background()
		a := newAccount(t, "fav")

		favs, err := stores.Accounts.AddFavorite(ctx, a.ID, 550)
		require.NoError(t, err)
		assert.Equal(t, []int64{550}, favs)

		_, err = stores.Accounts.AddFavorite(ctx, a.ID, 550)
		assert.ErrorIs(t, err, ErrFavoriteAlreadyExists)

		favs, err = stores.Accounts.AddFavorite(ctx, a.ID, 13)
		require.NoError(t, err)
		assert.Equal(t, []int64{550, 13}, favs)

		favs, err = stores.Accounts.RemoveFavorite(ctx, a.ID, 550)
		require.NoError(t, err)
		assert.Equal(t, []int64{13}, favs)

		_, err = stores.Accounts.RemoveFavorite(ctx, a.ID, 550)
		assert.ErrorIs(t, err, ErrFavoriteNotFound)

		_, err = stores.Accounts.AddFavorite(ctx, uuid.NewString(), 1)
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("watchlists are scoped to their owner", func(t *testing.T) {
		ctx := context.Background()
		owner := newAccount(t, "owner")
		other := newAccount(t, "other")

		first := &domain.Watchlist{ID: uuid.NewString(), Owner: owner.ID, Name: "First"}
		require.NoError(t, stores.Watchlists.Create(ctx, first))
		time.Sleep(5 * time.Millisecond)
		second := &domain.Watchlist{ID: uuid.NewString(), Owner: owner.ID, Name: "Second", IsPublic: true}
		require.NoError(t, stores.Watchlists.Create(ctx, second))

		list, err := stores.Watchlists.ListByOwner(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].ID)
		assert.Equal(t, first.ID, list[1].ID)

		list, err = stores.Watchlists.ListByOwner(ctx, other.ID)
		require.NoError(t, err)
		assert.Empty(t, list)

		got, err := stores.Watchlists.GetByID(ctx, owner.ID, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "First", got.Name)
		assert.Empty(t, got.Movies)

		_, err = stores.Watchlists.GetByID(ctx, other.ID, first.ID)
		assert.ErrorIs(t, err, ErrWatchlistNotFound)

		_, err = stores.Watchlists.AddMovie(ctx, other.ID, first.ID, 550)
		assert.ErrorIs(t, err, ErrWatchlistNotFound)

		err = stores.Watchlists.Delete(ctx, other.ID, first.ID)
		assert.ErrorIs(t, err, ErrWatchlistNotFound)

		name := "Hijacked"
		_, err = stores.Watchlists.Update(ctx, other.ID, first.ID, WatchlistUpdate{Name: &name})
		assert.ErrorIs(t, err, ErrWatchlistNotFound)
	})

	t.Run("watchlist movies are unique and ordered", func(t *testing.T) {
		ctx := context.Background()
		owner := newAccount(t, "movies")
		w := &domain.Watchlist{ID: uuid.NewString(), Owner: owner.ID, Name: "Faves"}
		require.NoError(t, stores.Watchlists.Create(ctx, w))

		got, err := stores.Watchlists.AddMovie(ctx, owner.ID, w.ID, 550)
		require.NoError(t, err)
		assert.Equal(t, []int64{550}, []int64(got.Movies))

		_, err = stores.Watchlists.AddMovie(ctx, owner.ID, w.ID, 550)
		assert.ErrorIs(t, err, ErrMovieAlreadyInWatchlist)

		got, err = stores.Watchlists.GetByID(ctx, owner.ID, w.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{550}, []int64(got.Movies))

		got, err = stores.Watchlists.AddMovie(ctx, owner.ID, w.ID, 680)
		require.NoError(t, err)
		assert.Equal(t, []int64{550, 680}, []int64(got.Movies))

		_, err = stores.Watchlists.RemoveMovie(ctx, owner.ID, w.ID, 999)
		assert.ErrorIs(t, err, ErrMovieNotInWatchlist)

		got, err = stores.Watchlists.RemoveMovie(ctx, owner.ID, w.ID, 550)
		require.NoError(t, err)
		assert.Equal(t, []int64{680}, []int64(got.Movies))
	})

	t.Run("watchlist partial update and delete", func(t *testing.T) {
		ctx := context.Background()
		owner := newAccount(t, "partial")
		w := &domain.Watchlist{ID: uuid.NewString(), Owner: owner.ID, Name: "Before", Description: "desc"}
		require.NoError(t, stores.Watchlists.Create(ctx, w))

		public := true
		got, err := stores.Watchlists.Update(ctx, owner.ID, w.ID, WatchlistUpdate{IsPublic: &public})
		require.NoError(t, err)
		assert.Equal(t, "Before", got.Name)
		assert.Equal(t, "desc", got.Description)
		assert.True(t, got.IsPublic)

		name, empty := "After", ""
		got, err = stores.Watchlists.Update(ctx, owner.ID, w.ID, WatchlistUpdate{Name: &name, Description: &empty})
		require.NoError(t, err)
		assert.Equal(t, "After", got.Name)
		assert.Equal(t, "", got.Description)
		assert.True(t, got.IsPublic)

		require.NoError(t, stores.Watchlists.Delete(ctx, owner.ID, w.ID))
		_, err = stores.Watchlists.GetByID(ctx, owner.ID, w.ID)
		assert.ErrorIs(t, err, ErrWatchlistNotFound)
		assert.ErrorIs(t, stores.Watchlists.Delete(ctx, owner.ID, w.ID), ErrWatchlistNotFound)
	})

	t.Run("reviews are unique per owner and movie", func(t *testing.T) {
		ctx := context.Background()
		ann := newAccount(t, "ann")
		bob := newAccount(t, "bob")
		movieID := time.Now().UnixNano()%1_000_000 + 1

		first := &domain.Review{ID: uuid.NewString(), Owner: ann.ID, MovieID: movieID, Rating: 9, Comment: "great"}
		require.NoError(t, stores.Reviews.Create(ctx, first))

		dup := &domain.Review{ID: uuid.NewString(), Owner: ann.ID, MovieID: movieID, Rating: 3, Comment: "again"}
		err := stores.Reviews.Create(ctx, dup)
		assert.ErrorIs(t, err, ErrDuplicateReview)
		assert.ErrorIs(t, err, domain.ErrConflict)

		time.Sleep(5 * time.Millisecond)
		second := &domain.Review{ID: uuid.NewString(), Owner: bob.ID, MovieID: movieID, Rating: 6, Comment: "fine"}
		require.NoError(t, stores.Reviews.Create(ctx, second))

		list, err := stores.Reviews.ListByMovie(ctx, movieID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].ID)
		assert.Equal(t, first.ID, list[1].ID)

		own, err := stores.Reviews.ListByOwner(ctx, ann.ID)
		require.NoError(t, err)
		require.Len(t, own, 1)
		assert.Equal(t, first.ID, own[0].ID)

		got, err := stores.Reviews.GetByOwnerAndMovie(ctx, bob.ID, movieID)
		require.NoError(t, err)
		assert.Equal(t, second.ID, got.ID)

		_, err = stores.Reviews.GetByOwnerAndMovie(ctx, bob.ID, movieID+1)
		assert.ErrorIs(t, err, ErrReviewNotFound)

		summary, err := stores.Reviews.RatingSummary(ctx, movieID)
		require.NoError(t, err)
		assert.Equal(t, movieID, summary.MovieID)
		assert.Equal(t, 2, summary.RatingCount)
		assert.InDelta(t, 7.5, summary.AverageRating, 0.001)

		empty, err := stores.Reviews.RatingSummary(ctx, movieID+1)
		require.NoError(t, err)
		assert.Equal(t, 0, empty.RatingCount)
		assert.Zero(t, empty.AverageRating)
	})

	t.Run("review mutations require the owner", func(t *testing.T) {
		ctx := context.Background()
		ann := newAccount(t, "ann")
		bob := newAccount(t, "bob")

		r := &domain.Review{ID: uuid.NewString(), Owner: ann.ID, MovieID: 42, Rating: 5, Comment: "ok"}
		require.NoError(t, stores.Reviews.Create(ctx, r))

		err := stores.Reviews.Update(ctx, &domain.Review{ID: r.ID, Owner: bob.ID, Rating: 1, Comment: "bad"})
		assert.ErrorIs(t, err, ErrReviewNotFound)
		assert.ErrorIs(t, stores.Reviews.Delete(ctx, bob.ID, r.ID), ErrReviewNotFound)

		got, err := stores.Reviews.GetByID(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, got.Rating)
		assert.Equal(t, "ok", got.Comment)

		require.NoError(t, stores.Reviews.Update(ctx, &domain.Review{ID: r.ID, Owner: ann.ID, Rating: 8, Comment: "better"}))
		got, err = stores.Reviews.GetByID(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, 8, got.Rating)
		assert.Equal(t, "better", got.Comment)

		require.NoError(t, stores.Reviews.Delete(ctx, ann.ID, r.ID))
		_, err = stores.Reviews.GetByID(ctx, r.ID)
		assert.ErrorIs(t, err, ErrReviewNotFound)

		again := &domain.Review{ID: uuid.NewString(), Owner: ann.ID, MovieID: 42, Rating: 7, Comment: "rewatched"}
		assert.NoError(t, stores.Reviews.Create(ctx, again))
	})
}

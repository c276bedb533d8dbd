package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"curation-service/internal/domain"
	"curation-service/internal/store"
	"curation-service/pkg/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMovies struct {
	mock.Mock
}

func (m *mockMovies) DetailsFor(ctx context.Context, ids []int64) []*domain.MovieDetail {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*domain.MovieDetail)
}

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) GetAccount(ctx context.Context, accountID string) (*domain.PublicProfile, error) {
	args := m.Called(ctx, accountID)
	if p, ok := args.Get(0).(*domain.PublicProfile); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

type fixture struct {
	stores     *store.Stores
	tokens     auth.TokenManager
	auth       *AuthService
	accounts   *AccountService
	watchlists *WatchlistService
	reviews    *ReviewService
	movies     *mockMovies
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	v := NewValidator()
	stores := store.NewMemoryStores()
	tokens, err := auth.NewTokenManager("service-test-secret-with-enough-length", time.Hour)
	require.NoError(t, err)
	hasher := auth.NewPasswordHasher(4)
	movies := &mockMovies{}

	return &fixture{
		stores:     stores,
		tokens:     tokens,
		auth:       NewAuthService(stores.Accounts, tokens, hasher, v, logger),
		accounts:   NewAccountService(stores.Accounts, hasher, movies, v, logger),
		watchlists: NewWatchlistService(stores.Watchlists, movies, v, logger),
		reviews:    NewReviewService(stores.Reviews, NewStoreDirectory(stores.Accounts), v, logger),
		movies:     movies,
	}
}

func (f *fixture) register(t *testing.T, username string) *domain.AuthResponse {
	t.Helper()
	resp, err := f.auth.Register(context.Background(), domain.RegisterRequest{
		Username: username,
		Email:    username + "@x.com",
		Password: "pw123456",
	})
	require.NoError(t, err)
	return resp
}

// --- Auth ---

func TestRegisterRejectsDuplicateUsernameOrEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "ann")

	_, err := f.auth.Register(ctx, domain.RegisterRequest{Username: "ann", Email: "other@x.com", Password: "pw123456"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.auth.Register(ctx, domain.RegisterRequest{Username: "other", Email: "ANN@x.com", Password: "pw123456"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRegisterValidatesInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		req   domain.RegisterRequest
		field string
	}{
		{"short username", domain.RegisterRequest{Username: "an", Email: "a@x.com", Password: "pw123456"}, "username"},
		{"bad email", domain.RegisterRequest{Username: "ann", Email: "not-an-email", Password: "pw123456"}, "email"},
		{"short password", domain.RegisterRequest{Username: "ann", Email: "a@x.com", Password: "pw"}, "password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.auth.Register(ctx, tc.req)
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.field, verr.Field)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestLoginRoundTripsAccountID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.register(t, "ann")

	login, err := f.auth.Login(ctx, domain.LoginRequest{Email: "ann@x.com", Password: "pw123456"})
	require.NoError(t, err)
	assert.Equal(t, reg.ID, login.ID)
	assert.Equal(t, "ann", login.Username)

	claims, err := f.tokens.Validate(login.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, claims.AccountID)

	account, err := f.auth.Authenticate(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, account.ID)
	assert.Empty(t, account.PasswordHash)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "ann")

	_, wrongPassword := f.auth.Login(ctx, domain.LoginRequest{Email: "ann@x.com", Password: "nope"})
	_, unknownEmail := f.auth.Login(ctx, domain.LoginRequest{Email: "nobody@x.com", Password: "pw123456"})

	assert.ErrorIs(t, wrongPassword, domain.ErrUnauthenticated)
	assert.ErrorIs(t, unknownEmail, domain.ErrUnauthenticated)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestAuthenticateRejectsTokenOfMissingAccount(t *testing.T) {
	f := newFixture(t)
	token, err := f.tokens.Generate("ghost")
	require.NoError(t, err)

	_, err = f.auth.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = f.auth.Authenticate(context.Background(), "garbage")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

// --- Account ---

func TestMeAndProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.register(t, "ann")

	me, err := f.accounts.Me(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", me.Email)
	assert.False(t, me.MemberSince.IsZero())

	newName := "annie"
	profile, err := f.accounts.UpdateProfile(ctx, reg.ID, domain.UpdateProfileRequest{Username: &newName})
	require.NoError(t, err)
	assert.Equal(t, "annie", profile.Username)
	assert.Equal(t, "ann@x.com", profile.Email)

	bob := f.register(t, "bob")
	taken := "annie"
	_, err = f.accounts.UpdateProfile(ctx, bob.ID, domain.UpdateProfileRequest{Username: &taken})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.register(t, "ann")

	err := f.accounts.ChangePassword(ctx, reg.ID, domain.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newpass1"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, f.accounts.ChangePassword(ctx, reg.ID, domain.ChangePasswordRequest{OldPassword: "pw123456", NewPassword: "newpass1"}))

	_, err = f.auth.Login(ctx, domain.LoginRequest{Email: "ann@x.com", Password: "pw123456"})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	_, err = f.auth.Login(ctx, domain.LoginRequest{Email: "ann@x.com", Password: "newpass1"})
	assert.NoError(t, err)
}

func TestFavorites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.register(t, "ann")

	favs, err := f.accounts.AddFavorite(ctx, reg.ID, domain.FavoriteRequest{MovieID: 550})
	require.NoError(t, err)
	assert.Equal(t, []int64{550}, favs)

	_, err = f.accounts.AddFavorite(ctx, reg.ID, domain.FavoriteRequest{MovieID: 550})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.accounts.AddFavorite(ctx, reg.ID, domain.FavoriteRequest{MovieID: 0})
	assert.ErrorIs(t, err, domain.ErrValidation)

	f.movies.On("DetailsFor", mock.Anything, []int64{550}).
		Return([]*domain.MovieDetail{{ID: 550, Title: "Fight Club"}}).Once()
	details, err := f.accounts.Favorites(ctx, reg.ID)
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "Fight Club", details[0].Title)
	f.movies.AssertExpectations(t)

	_, err = f.accounts.RemoveFavorite(ctx, reg.ID, 13)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	favs, err = f.accounts.RemoveFavorite(ctx, reg.ID, 550)
	require.NoError(t, err)
	assert.Empty(t, favs)

	details, err = f.accounts.Favorites(ctx, reg.ID)
	require.NoError(t, err)
	assert.Empty(t, details)
}

// --- Watchlists ---

func TestWatchlistVisibleOnlyToOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.register(t, "ann")
	bob := f.register(t, "bob")

	w, err := f.watchlists.Create(ctx, ann.ID, domain.CreateWatchlistRequest{Name: "  Faves  "})
	require.NoError(t, err)
	assert.Equal(t, "Faves", w.Name)
	assert.Equal(t, "", w.Description)
	assert.False(t, w.IsPublic)
	assert.Equal(t, ann.ID, w.Owner)

	got, err := f.watchlists.Get(ctx, ann.ID, w.ID)
	require.NoError(t, err)
	assert.Equal(t, w.ID, got.ID)

	leaked, err := f.watchlists.Get(ctx, bob.ID, w.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, leaked)

	_, err = f.watchlists.AddMovie(ctx, bob.ID, w.ID, domain.WatchlistMovieRequest{MovieID: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.watchlists.Delete(ctx, bob.ID, w.ID), domain.ErrNotFound)

	list, err := f.watchlists.List(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestWatchlistValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.register(t, "ann")

	for _, name := range []string{"", "   ", "ab", strings.Repeat("x", 101)} {
		_, err := f.watchlists.Create(ctx, ann.ID, domain.CreateWatchlistRequest{Name: name})
		assert.ErrorIs(t, err, domain.ErrValidation, "name %q", name)
	}
	_, err := f.watchlists.Create(ctx, ann.ID, domain.CreateWatchlistRequest{Name: "Okay", Description: strings.Repeat("d", 501)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	w, err := f.watchlists.Create(ctx, ann.ID, domain.CreateWatchlistRequest{Name: strings.Repeat("x", 100), Description: strings.Repeat("d", 500)})
	require.NoError(t, err)

	short := "no"
	_, err = f.watchlists.Update(ctx, ann.ID, w.ID, domain.UpdateWatchlistRequest{Name: &short})
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err := f.watchlists.Get(ctx, ann.ID, w.ID)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("x", 100), got.Name)
}

func TestWatchlistAddMovieTwiceConflictsAndKeepsList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.register(t, "ann")
	w, err := f.watchlists.Create(ctx, ann.ID, domain.CreateWatchlistRequest{Name: "Faves"})
	require.NoError(t, err)

	got, err := f.watchlists.AddMovie(ctx, ann.ID, w.ID, domain.WatchlistMovieRequest{MovieID: 550})
	require.NoError(t, err)
	assert.Equal(t, []int64{550}, []int64(got.Movies))

	_, err = f.watchlists.AddMovie(ctx, ann.ID, w.ID, domain.WatchlistMovieRequest{MovieID: 550})
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err = f.watchlists.Get(ctx, ann.ID, w.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{550}, []int64(got.Movies))

	_, err = f.watchlists.AddMovie(ctx, ann.ID, w.ID, domain.WatchlistMovieRequest{MovieID: -1})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestWatchlistRemoveMovieShrinksByOneOrFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.register(t, "ann")
	w, err := f.watchlists.Create(ctx, ann.ID, domain.CreateWatchlistRequest{Name: "Faves"})
	require.NoError(t, err)
	for _, id := range []int64{1, 2, 3} {
		_, err := f.watchlists.AddMovie(ctx, ann.ID, w.ID, domain.WatchlistMovieRequest{MovieID: id})
		require.NoError(t, err)
	}

	got, err := f.watchlists.RemoveMovie(ctx, ann.ID, w.ID, domain.WatchlistMovieRequest{MovieID: 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, []int64(got.Movies))

	_, err = f.watchlists.RemoveMovie(ctx, ann.ID, w.ID, domain.WatchlistMovieRequest{MovieID: 2})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err = f.watchlists.Get(ctx, ann.ID, w.ID)
	require.NoError(t, err)
	assert.Len(t, got.Movies, 2)
}

func TestWatchlistPartialUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.register(t, "ann")
	w, err := f.watchlists.Create(ctx, ann.ID, domain.CreateWatchlistRequest{Name: "Faves", Description: "old"})
	require.NoError(t, err)

	public := true
	got, err := f.watchlists.Update(ctx, ann.ID, w.ID, domain.UpdateWatchlistRequest{IsPublic: &public})
	require.NoError(t, err)
	assert.Equal(t, "Faves", got.Name)
	assert.Equal(t, "old", got.Description)
	assert.True(t, got.IsPublic)

	cleared := ""
	got, err = f.watchlists.Update(ctx, ann.ID, w.ID, domain.UpdateWatchlistRequest{Description: &cleared})
	require.NoError(t, err)
	assert.Equal(t, "", got.Description)
}

func TestWatchlistDetailsUseCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.register(t, "ann")
	w, err := f.watchlists.Create(ctx, ann.ID, domain.CreateWatchlistRequest{Name: "Faves"})
	require.NoError(t, err)

	details, err := f.watchlists.GetWithDetails(ctx, ann.ID, w.ID)
	require.NoError(t, err)
	assert.Empty(t, details.MovieDetails)
	f.movies.AssertNotCalled(t, "DetailsFor", mock.Anything, mock.Anything)

	_, err = f.watchlists.AddMovie(ctx, ann.ID, w.ID, domain.WatchlistMovieRequest{MovieID: 550})
	require.NoError(t, err)
	f.movies.On("DetailsFor", mock.Anything, []int64{550}).
		Return([]*domain.MovieDetail{{ID: 550, Title: "Fight Club"}}).Once()

	details, err = f.watchlists.GetWithDetails(ctx, ann.ID, w.ID)
	require.NoError(t, err)
	require.Len(t, details.MovieDetails, 1)
	assert.Equal(t, int64(550), details.MovieDetails[0].ID)
}

// --- Reviews ---

func TestReviewUniquePerOwnerAndMovie(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.register(t, "ann")

	r, err := f.reviews.Create(ctx, ann.ID, domain.CreateReviewRequest{MovieID: 550, Rating: 9, Comment: " great "})
	require.NoError(t, err)
	assert.Equal(t, "great", r.Comment)

	_, err = f.reviews.Create(ctx, ann.ID, domain.CreateReviewRequest{MovieID: 550, Rating: 2, Comment: "changed my mind"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	own, err := f.reviews.GetOwn(ctx, ann.ID, 550)
	require.NoError(t, err)
	assert.Equal(t, 9, own.Rating)

	_, err = f.reviews.GetOwn(ctx, ann.ID, 551)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReviewValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.register(t, "ann")

	bad := []domain.CreateReviewRequest{
		{MovieID: 550, Rating: 0, Comment: "x"},
		{MovieID: 550, Rating: 11, Comment: "x"},
		{MovieID: 550, Rating: 5, Comment: "   "},
		{MovieID: 550, Rating: 5, Comment: strings.Repeat("c", 501)},
		{MovieID: 0, Rating: 5, Comment: "x"},
	}
	for _, req := range bad {
		_, err := f.reviews.Create(ctx, ann.ID, req)
		assert.ErrorIs(t, err, domain.ErrValidation, "%+v", req)
	}
}

func TestReviewMutationByNonOwnerIsUnauthorized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.register(t, "ann")
	bob := f.register(t, "bob")

	r, err := f.reviews.Create(ctx, ann.ID, domain.CreateReviewRequest{MovieID: 550, Rating: 9, Comment: "great"})
	require.NoError(t, err)

	rating := 1
	_, err = f.reviews.Update(ctx, bob.ID, r.ID, domain.UpdateReviewRequest{Rating: &rating})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.ErrorIs(t, f.reviews.Delete(ctx, bob.ID, r.ID), domain.ErrUnauthorized)

	own, err := f.reviews.GetOwn(ctx, ann.ID, 550)
	require.NoError(t, err)
	assert.Equal(t, 9, own.Rating)
	assert.Equal(t, "great", own.Comment)

	_, err = f.reviews.Update(ctx, ann.ID, "missing", domain.UpdateReviewRequest{Rating: &rating})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReviewUpdateValidatesResultAndLeavesRecordOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.register(t, "ann")
	r, err := f.reviews.Create(ctx, ann.ID, domain.CreateReviewRequest{MovieID: 550, Rating: 9, Comment: "great"})
	require.NoError(t, err)

	tooHigh := 11
	_, err = f.reviews.Update(ctx, ann.ID, r.ID, domain.UpdateReviewRequest{Rating: &tooHigh})
	assert.ErrorIs(t, err, domain.ErrValidation)

	empty := "  "
	_, err = f.reviews.Update(ctx, ann.ID, r.ID, domain.UpdateReviewRequest{Comment: &empty})
	assert.ErrorIs(t, err, domain.ErrValidation)

	own, err := f.reviews.GetOwn(ctx, ann.ID, 550)
	require.NoError(t, err)
	assert.Equal(t, 9, own.Rating)

	comment := "even better"
	updated, err := f.reviews.Update(ctx, ann.ID, r.ID, domain.UpdateReviewRequest{Comment: &comment})
	require.NoError(t, err)
	assert.Equal(t, 9, updated.Rating)
	assert.Equal(t, "even better", updated.Comment)

	require.NoError(t, f.reviews.Delete(ctx, ann.ID, r.ID))
	_, err = f.reviews.GetOwn(ctx, ann.ID, 550)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReviewListAnnotatesUsernamesNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.register(t, "ann")
	bob := f.register(t, "bob")

	first, err := f.reviews.Create(ctx, ann.ID, domain.CreateReviewRequest{MovieID: 550, Rating: 9, Comment: "great"})
	require.NoError(t, err)
	second, err := f.reviews.Create(ctx, bob.ID, domain.CreateReviewRequest{MovieID: 550, Rating: 6, Comment: "fine"})
	require.NoError(t, err)

	list, err := f.reviews.ListForMovie(ctx, 550)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, "bob", list[0].Username)
	assert.Equal(t, first.ID, list[1].ID)
	assert.Equal(t, "ann", list[1].Username)

	summary, err := f.reviews.Summary(ctx, 550)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.RatingCount)
	assert.InDelta(t, 7.5, summary.AverageRating, 0.001)

	mine, err := f.reviews.ListMine(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, second.ID, mine[0].ID)
}

func TestReviewListResolvesEachOwnerOnce(t *testing.T) {
	stores := store.NewMemoryStores()
	dir := &mockDirectory{}
	svc := NewReviewService(stores.Reviews, dir, NewValidator(), slog.New(slog.DiscardHandler))
	ctx := context.Background()

	for i, owner := range []string{"a", "b"} {
		_, err := svc.Create(ctx, owner, domain.CreateReviewRequest{MovieID: 7, Rating: 5 + i, Comment: "ok"})
		require.NoError(t, err)
	}
	dir.On("GetAccount", mock.Anything, "a").Return(&domain.PublicProfile{ID: "a", Username: "alpha"}, nil).Once()
	dir.On("GetAccount", mock.Anything, "b").Return(nil, store.ErrAccountNotFound).Once()

	list, err := svc.ListForMovie(ctx, 7)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "", list[0].Username)
	assert.Equal(t, "alpha", list[1].Username)
	dir.AssertExpectations(t)
}

package users_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wallet/internal/app/ledger"
	"wallet/internal/app/users"
	"wallet/internal/auth"
	"wallet/internal/domain"
)

type fakeUserStore struct {
	mu      sync.Mutex
	byID    map[string]*domain.User
	updates int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: make(map[string]*domain.User)}
}

func (f *fakeUserStore) WithinTx(ctx context.Context, fn func(querier domain.Querier) error) error {
	return fn(nil)
}

func (f *fakeUserStore) CreateTx(ctx context.Context, querier domain.Querier, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Username == user.Username {
			return domain.ErrUserAlreadyExists
		}
	}
	copied := *user
	f.byID[user.ID] = &copied
	return nil
}

func (f *fakeUserStore) GetByUsernameTx(ctx context.Context, querier domain.Querier, username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.byID {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserStore) GetByIDTx(ctx context.Context, querier domain.Querier, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserStore) UpdateProfileTx(ctx context.Context, querier domain.Querier, id string, update domain.ProfileUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	if update.FirstName != nil {
		user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		user.LastName = *update.LastName
	}
	if update.PasswordHash != nil {
		user.PasswordHash = *update.PasswordHash
	}
	f.updates++
	return nil
}

func (f *fakeUserStore) SearchByNameTx(ctx context.Context, querier domain.Querier, filter string) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []domain.User
	for _, user := range f.byID {
		if strings.Contains(user.FirstName, filter) || strings.Contains(user.LastName, filter) {
			matched = append(matched, *user)
		}
	}
	return matched, nil
}

// fakeLedger records account provisioning calls.
type fakeLedger struct {
	mu       sync.Mutex
	accounts map[string]int64
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{accounts: make(map[string]int64)}
}

func (f *fakeLedger) CreateAccount(ctx context.Context, userID string, initialBalanceCents int64) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if balance, ok := f.accounts[userID]; ok {
		return &domain.Account{ID: "acc-" + userID, UserID: userID, BalanceCents: balance}, domain.ErrAccountAlreadyExists
	}
	f.accounts[userID] = initialBalanceCents
	return &domain.Account{ID: "acc-" + userID, UserID: userID, BalanceCents: initialBalanceCents}, nil
}

func (f *fakeLedger) GetAccountForUser(ctx context.Context, userID string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	balance, ok := f.accounts[userID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &domain.Account{ID: "acc-" + userID, UserID: userID, BalanceCents: balance}, nil
}

func (f *fakeLedger) Transfer(ctx context.Context, in ledger.TransferInput) (*ledger.TransferResult, error) {
	return nil, fmt.Errorf("not used in these tests")
}

type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func (fakeHasher) Verify(hash, plain string) bool { return hash == "hashed:"+plain }

func newTestService(store *fakeUserStore, bank *fakeLedger) (users.Service, *auth.TokenManager) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	svc := users.NewService(nil, store, store, bank, fakeHasher{}, tokens, 100000, zap.NewNop())
	return svc, tokens
}

func TestSignup(t *testing.T) {
	store := newFakeUserStore()
	svc, tokens := newTestService(store, newFakeLedger())

	user, token, err := svc.Signup(context.Background(), users.SignupInput{
		Username:  "  Alice@Example.com ",
		Password:  "secret1",
		FirstName: "Alice",
		LastName:  "Smith",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Username)
	assert.Equal(t, "hashed:secret1", user.PasswordHash)

	subject, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, subject)
}

func TestSignup_Validation(t *testing.T) {
	svc, _ := newTestService(newFakeUserStore(), newFakeLedger())

	cases := []users.SignupInput{
		{Username: "ab", Password: "secret1", FirstName: "A", LastName: "B"},
		{Username: "alice@example.com", Password: "short", FirstName: "A", LastName: "B"},
		{Username: "alice@example.com", Password: "secret1", FirstName: "", LastName: "B"},
		{Username: "alice@example.com", Password: "secret1", FirstName: "A", LastName: strings.Repeat("x", 51)},
	}
	for _, in := range cases {
		_, _, err := svc.Signup(context.Background(), in)
		assert.ErrorIs(t, err, users.ErrInvalidInput)
	}
}

func TestSignup_DuplicateUsername(t *testing.T) {
	svc, _ := newTestService(newFakeUserStore(), newFakeLedger())

	in := users.SignupInput{Username: "alice@example.com", Password: "secret1", FirstName: "A", LastName: "B"}
	_, _, err := svc.Signup(context.Background(), in)
	require.NoError(t, err)

	_, _, err = svc.Signup(context.Background(), in)
	require.ErrorIs(t, err, domain.ErrUserAlreadyExists)
}

func TestSignin_CreatesAccountOnce(t *testing.T) {
	store := newFakeUserStore()
	bank := newFakeLedger()
	svc, tokens := newTestService(store, bank)

	user, _, err := svc.Signup(context.Background(), users.SignupInput{
		Username: "alice@example.com", Password: "secret1", FirstName: "A", LastName: "B",
	})
	require.NoError(t, err)

	// Signup alone does not provision an account.
	assert.Empty(t, bank.accounts)

	token, err := svc.Signin(context.Background(), "alice@example.com", "secret1")
	require.NoError(t, err)
	subject, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, subject)
	assert.Equal(t, int64(100000), bank.accounts[user.ID])

	// A later sign-in keeps the existing account untouched.
	bank.accounts[user.ID] = 42
	_, err = svc.Signin(context.Background(), "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), bank.accounts[user.ID])
}

func TestSignin_InvalidCredentials(t *testing.T) {
	svc, _ := newTestService(newFakeUserStore(), newFakeLedger())

	_, _, err := svc.Signup(context.Background(), users.SignupInput{
		Username: "alice@example.com", Password: "secret1", FirstName: "A", LastName: "B",
	})
	require.NoError(t, err)

	_, err = svc.Signin(context.Background(), "alice@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Signin(context.Background(), "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestUpdateProfile(t *testing.T) {
	store := newFakeUserStore()
	svc, _ := newTestService(store, newFakeLedger())

	user, _, err := svc.Signup(context.Background(), users.SignupInput{
		Username: "alice@example.com", Password: "secret1", FirstName: "A", LastName: "B",
	})
	require.NoError(t, err)

	newName := "Alicia"
	newPassword := "newsecret"
	require.NoError(t, svc.UpdateProfile(context.Background(), user.ID, users.ProfileInput{
		FirstName: &newName,
		Password:  &newPassword,
	}))

	stored, err := store.GetByIDTx(context.Background(), nil, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alicia", stored.FirstName)
	assert.Equal(t, "B", stored.LastName)
	assert.Equal(t, "hashed:newsecret", stored.PasswordHash)
}

func TestUpdateProfile_Invalid(t *testing.T) {
	svc, _ := newTestService(newFakeUserStore(), newFakeLedger())

	err := svc.UpdateProfile(context.Background(), "user-1", users.ProfileInput{})
	assert.ErrorIs(t, err, users.ErrInvalidInput)

	empty := "   "
	err = svc.UpdateProfile(context.Background(), "user-1", users.ProfileInput{FirstName: &empty})
	assert.ErrorIs(t, err, users.ErrInvalidInput)
}

func TestUpdateProfile_UserNotFound(t *testing.T) {
	svc, _ := newTestService(newFakeUserStore(), newFakeLedger())

	name := "Alicia"
	err := svc.UpdateProfile(context.Background(), "ghost", users.ProfileInput{FirstName: &name})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestSearchUsers(t *testing.T) {
	store := newFakeUserStore()
	svc, _ := newTestService(store, newFakeLedger())

	for i, name := range []string{"Alice", "Albert", "Bob"} {
		_, _, err := svc.Signup(context.Background(), users.SignupInput{
			Username:  fmt.Sprintf("user%d@example.com", i),
			Password:  "secret1",
			FirstName: name,
			LastName:  "Smith",
		})
		require.NoError(t, err)
	}

	found, err := svc.SearchUsers(context.Background(), "Al")
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

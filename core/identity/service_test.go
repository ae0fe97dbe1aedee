package identity

import (
	"testing"
	"time"

	"Musga/core/auth"
	"Musga/errs"
	"Musga/model"
	"Musga/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUserRepo is an in-memory UserRepository with the duplicate semantics of
// the real store.
type fakeUserRepo struct {
	nextID int64
	users  map[int64]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*model.User)}
}

func (r *fakeUserRepo) CreateUser(u *model.User) (int64, error) {
	for _, existing := range r.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return 0, repository.ErrDuplicateUser
		}
	}
	r.nextID++
	cp := *u
	cp.ID = r.nextID
	r.users[cp.ID] = &cp
	return cp.ID, nil
}

func (r *fakeUserRepo) GetUserByID(id int64) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetUserByEmail(email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetUserByUsername(username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func newTestService() (*Service, *fakeUserRepo) {
	repo := newFakeUserRepo()
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	return NewService(repo, tokens), repo
}

func validRegistration() RegisterInput {
	return RegisterInput{
		Email:     "singer@example.com",
		Username:  "nightowl",
		Password:  "a-long-password",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Role:      model.RoleSinger,
		Bio:       "Vocalist",
	}
}

func TestRegisterIssuesToken(t *testing.T) {
	svc, _ := newTestService()

	result, err := svc.Register(validRegistration())
	require.NoError(t, err)

	assert.NotZero(t, result.User.ID)
	assert.NotEmpty(t, result.Token)
	// The credential hash never leaves the service.
	assert.Empty(t, result.User.PasswordHash)

	verified, err := svc.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, verified.ID)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService()

	cases := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"missing email", func(in *RegisterInput) { in.Email = "" }},
		{"missing username", func(in *RegisterInput) { in.Username = "" }},
		{"missing first name", func(in *RegisterInput) { in.FirstName = "" }},
		{"unknown role", func(in *RegisterInput) { in.Role = "promoter" }},
		{"short password", func(in *RegisterInput) { in.Password = "short" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validRegistration()
			tc.mutate(&in)
			_, err := svc.Register(in)
			assert.True(t, errs.Is(err, errs.InvalidArgument), "expected invalid argument, got %v", err)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Register(validRegistration())
	require.NoError(t, err)

	dup := validRegistration()
	dup.Username = "different"
	_, err = svc.Register(dup)
	assert.True(t, errs.Is(err, errs.Conflict))
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Register(validRegistration())
	require.NoError(t, err)

	result, err := svc.Login("singer@example.com", "a-long-password")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)

	// Wrong password and unknown account produce the same error.
	_, badPass := svc.Login("singer@example.com", "wrong")
	_, noUser := svc.Login("nobody@example.com", "a-long-password")
	assert.True(t, errs.Is(badPass, errs.Unauthorized))
	assert.True(t, errs.Is(noUser, errs.Unauthorized))
	assert.Equal(t, errs.MessageOf(badPass), errs.MessageOf(noUser))
}

func TestVerifyRejectsDeactivatedAccount(t *testing.T) {
	svc, repo := newTestService()

	result, err := svc.Register(validRegistration())
	require.NoError(t, err)

	repo.users[result.User.ID].IsActive = false

	_, err = svc.Verify(result.Token)
	assert.True(t, errs.Is(err, errs.Unauthorized))
}

func TestVerifyRejectsGarbageToken(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Verify("not-a-token")
	assert.True(t, errs.Is(err, errs.Unauthorized))
}

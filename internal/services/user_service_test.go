package services

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Userride/gmail-var-backend/internal/models"
	"github.com/Userride/gmail-var-backend/internal/repositories"
)

const testServiceURL = "http://api.local"

// ---- fakes ----

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]*models.User)}
}

func (r *fakeUserRepo) Create(u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.users {
		if e.Email == u.Email {
			return repositories.ErrDuplicateEmail
		}
	}
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.users {
		if e.Email == email {
			cp := *e
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserRepo) GetByVerifyToken(token string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.users {
		if e.VerifyToken != nil && *e.VerifyToken == token {
			cp := *e
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserRepo) MarkVerified(userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	u.IsVerified = true
	u.VerifyToken = nil
	return nil
}

func (r *fakeUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

type sentMail struct {
	to, name, link string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendVerificationEmail(email, name, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: email, name: name, link: link})
	return nil
}

func (m *fakeMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func newTestUserService(repo *fakeUserRepo, mailer *fakeMailer) UserService {
	return NewUserService(repo, mailer, NewAuthService(), testServiceURL)
}

// ---- tests ----

func TestRegister_CreatesUnverifiedUserAndSendsEmail(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	svc := newTestUserService(repo, mailer)

	user, err := svc.Register("Ann", "ann@x.com", "pw123456")
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.Equal(t, 1, repo.count())
	assert.False(t, user.IsVerified)
	require.NotNil(t, user.VerifyToken)
	assert.Len(t, *user.VerifyToken, 64) // 32 random bytes, hex

	require.Equal(t, 1, mailer.sentCount())
	mail := mailer.sent[0]
	assert.Equal(t, "ann@x.com", mail.to)
	assert.Equal(t, "Ann", mail.name)
	assert.Equal(t, testServiceURL+"/verify/"+*user.VerifyToken, mail.link)

	// the emailed link verifies exactly this user
	token := strings.TrimPrefix(mail.link, testServiceURL+"/verify/")
	verified, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, verified.ID)
	assert.True(t, verified.IsVerified)
}

func TestRegister_WhitespaceOnlyFields(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	svc := newTestUserService(repo, mailer)

	for _, tc := range []struct {
		name, email, password string
	}{
		{"   ", "ann@x.com", "pw123456"},
		{"Ann", "  ", "pw123456"},
		{"Ann", "ann@x.com", "   "},
	} {
		_, err := svc.Register(tc.name, tc.email, tc.password)
		require.ErrorIs(t, err, ErrMissingFields, "name=%q email=%q", tc.name, tc.email)
	}

	assert.Equal(t, 0, repo.count())
	assert.Equal(t, 0, mailer.sentCount())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	svc := newTestUserService(repo, mailer)

	_, err := svc.Register("Ann", "ann@x.com", "pw123456")
	require.NoError(t, err)

	_, err = svc.Register("Another Ann", "ann@x.com", "different-pw")
	require.ErrorIs(t, err, ErrEmailTaken)

	assert.Equal(t, 1, repo.count())
	assert.Equal(t, 1, mailer.sentCount())
}

func TestRegister_DuplicateEmailRace(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	svc := newTestUserService(repo, mailer)

	// both callers may pass the existence check; the store constraint decides
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Register("Ann", "ann@x.com", "pw123456")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var successes, duplicates int
	for err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrEmailTaken):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, duplicates)
	assert.Equal(t, 1, repo.count())
}

func TestRegister_MailFailureLeavesUserPersisted(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo()
	mailer := &fakeMailer{err: errors.New("smtp down")}
	svc := newTestUserService(repo, mailer)

	_, err := svc.Register("Ann", "ann@x.com", "pw123456")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmailTaken)

	// known gap: the row stays even though the caller saw a failure
	assert.Equal(t, 1, repo.count())
	u, err := repo.GetByEmail("ann@x.com")
	require.NoError(t, err)
	assert.False(t, u.IsVerified)
}

func TestVerify_UnknownToken(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	svc := newTestUserService(repo, mailer)

	_, err := svc.Register("Ann", "ann@x.com", "pw123456")
	require.NoError(t, err)

	_, err = svc.Verify("deadbeef")
	require.ErrorIs(t, err, ErrInvalidToken)

	u, err := repo.GetByEmail("ann@x.com")
	require.NoError(t, err)
	assert.False(t, u.IsVerified)
	assert.NotNil(t, u.VerifyToken)
}

func TestVerify_ClearsTokenAndRejectsReplay(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	svc := newTestUserService(repo, mailer)

	user, err := svc.Register("Ann", "ann@x.com", "pw123456")
	require.NoError(t, err)
	token := *user.VerifyToken

	verified, err := svc.Verify(token)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)
	assert.Nil(t, verified.VerifyToken)

	stored, err := repo.GetByEmail("ann@x.com")
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)
	assert.Nil(t, stored.VerifyToken)

	_, err = svc.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	svc := newTestUserService(repo, mailer)

	user, err := svc.Register("Ann", "ann@x.com", "pw123456")
	require.NoError(t, err)
	_, err = svc.Verify(*user.VerifyToken)
	require.NoError(t, err)

	got, err := svc.Login("ann@x.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "Ann", got.Name)
}

func TestLogin_UnverifiedUser(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	svc := newTestUserService(repo, mailer)

	_, err := svc.Register("Ann", "ann@x.com", "pw123456")
	require.NoError(t, err)

	_, err = svc.Login("ann@x.com", "pw123456")
	require.ErrorIs(t, err, ErrNotVerified)
}

func TestLogin_WrongPasswordAndUnknownEmailIndistinguishable(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	svc := newTestUserService(repo, mailer)

	user, err := svc.Register("Ann", "ann@x.com", "pw123456")
	require.NoError(t, err)
	_, err = svc.Verify(*user.VerifyToken)
	require.NoError(t, err)

	_, errWrongPw := svc.Login("ann@x.com", "not-the-password")
	_, errUnknown := svc.Login("nobody@x.com", "pw123456")

	require.ErrorIs(t, errWrongPw, ErrInvalidCredentials)
	require.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.Equal(t, errWrongPw.Error(), errUnknown.Error())
}

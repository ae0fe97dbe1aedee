package ledger

import (
	"context"
	"sync"
	"testing"

	"Musga/core/payment"
	"Musga/errs"
	"Musga/model"
	"Musga/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVocalRepo is an in-memory VocalRepository. MarkSoldExclusive keeps the
// compare-and-swap semantics of the real store.
type fakeVocalRepo struct {
	mu     sync.Mutex
	vocals map[int64]*model.Vocal
}

func newFakeVocalRepo(vocals ...*model.Vocal) *fakeVocalRepo {
	r := &fakeVocalRepo{vocals: make(map[int64]*model.Vocal)}
	for _, v := range vocals {
		r.vocals[v.ID] = v
	}
	return r
}

func (r *fakeVocalRepo) CreateVocal(v *model.Vocal) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := int64(len(r.vocals) + 1)
	cp := *v
	cp.ID = id
	r.vocals[id] = &cp
	return id, nil
}

func (r *fakeVocalRepo) GetVocalByID(id int64) (*model.Vocal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vocals[id]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (r *fakeVocalRepo) Search(model.SearchFilters, model.Page) ([]*model.Vocal, int64, error) {
	return nil, 0, nil
}

func (r *fakeVocalRepo) ListBySinger(int64, model.Page) ([]*model.Vocal, int64, error) {
	return nil, 0, nil
}

func (r *fakeVocalRepo) UpdateVocal(int64, model.VocalPatch) error { return nil }

func (r *fakeVocalRepo) SoftDelete(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.vocals[id]; ok {
		v.IsActive = false
	}
	return nil
}

func (r *fakeVocalRepo) IncrementViewCount(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.vocals[id]; ok {
		v.ViewCount++
	}
	return nil
}

func (r *fakeVocalRepo) IncrementDownloadCount(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.vocals[id]; ok {
		v.DownloadCount++
	}
	return nil
}

func (r *fakeVocalRepo) MarkSoldExclusive(id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vocals[id]
	if !ok || v.IsSold {
		return false, nil
	}
	v.IsSold = true
	v.IsActive = false
	return true, nil
}

func (r *fakeVocalRepo) SetProcessingResult(id int64, duration int, previewPath string, status model.VocalStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.vocals[id]; ok {
		v.Duration = duration
		v.PreviewPath = previewPath
		v.Status = status
	}
	return nil
}

type fakeUserRepo struct {
	users map[int64]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[int64]*model.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) CreateUser(u *model.User) (int64, error) {
	id := int64(len(r.users) + 1)
	u.ID = id
	r.users[id] = u
	return id, nil
}

func (r *fakeUserRepo) GetUserByID(id int64) (*model.User, error) { return r.users[id], nil }

func (r *fakeUserRepo) GetUserByEmail(email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetUserByUsername(username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

type fakeTxRepo struct {
	mu  sync.Mutex
	txs map[string]*model.Transaction
}

func newFakeTxRepo() *fakeTxRepo {
	return &fakeTxRepo{txs: make(map[string]*model.Transaction)}
}

func (r *fakeTxRepo) Create(tx *model.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx.ID = int64(len(r.txs) + 1)
	cp := *tx
	r.txs[tx.GatewayRef] = &cp
	return nil
}

func (r *fakeTxRepo) GetByGatewayRef(ref string) (*model.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[ref]
	if !ok {
		return nil, nil
	}
	cp := *tx
	return &cp, nil
}

func (r *fakeTxRepo) Save(tx *model.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *tx
	r.txs[tx.GatewayRef] = &cp
	return nil
}

func (r *fakeTxRepo) ListPurchases(buyerID int64, page model.Page) ([]*model.Transaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Transaction
	for _, tx := range r.txs {
		if tx.BuyerID == buyerID && tx.Status == model.TransactionCompleted {
			cp := *tx
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeTxRepo) ListSales(sellerID, vocalID int64, page model.Page) ([]*model.Transaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Transaction
	for _, tx := range r.txs {
		if tx.SellerID != sellerID || tx.Status != model.TransactionCompleted {
			continue
		}
		if vocalID > 0 && tx.VocalID != vocalID {
			continue
		}
		cp := *tx
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (r *fakeTxRepo) Earnings(sellerID int64) (*repository.EarningsSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	summary := &repository.EarningsSummary{}
	for _, tx := range r.txs {
		if tx.SellerID == sellerID && tx.Status == model.TransactionCompleted {
			summary.TotalEarnings += tx.SellerAmount
			summary.TotalSales++
		}
	}
	return summary, nil
}

func (r *fakeTxRepo) CompletedFor(vocalID, buyerID int64) (*model.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.txs {
		if tx.VocalID == vocalID && tx.BuyerID == buyerID && tx.Status == model.TransactionCompleted {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, nil
}

// noopLocker grants every acquisition immediately.
type noopLocker struct{}

func (noopLocker) Acquire(context.Context, int64) (func(), error) { return func() {}, nil }

func testVocal(id int64, licensing model.LicensingType, price float64) *model.Vocal {
	return &model.Vocal{
		ID:            id,
		SingerID:      1,
		Title:         "Vocal",
		Genre:         model.GenreHouse,
		Bpm:           120,
		Key:           "A",
		Tone:          "minor",
		Price:         price,
		LicensingType: licensing,
		Status:        model.VocalCompleted,
		IsExclusive:   licensing == model.LicensingExclusive,
		IsActive:      true,
	}
}

func testUsers() *fakeUserRepo {
	return newFakeUserRepo(
		&model.User{ID: 1, Email: "singer@example.com", Role: model.RoleSinger, IsActive: true},
		&model.User{ID: 2, Email: "dj@example.com", Role: model.RoleDj, IsActive: true},
		&model.User{ID: 3, Email: "dj2@example.com", Role: model.RoleDj, IsActive: true},
	)
}

func newTestService(vocals *fakeVocalRepo) (*Service, *fakeTxRepo, *payment.FakeGateway) {
	txs := newFakeTxRepo()
	gateway := payment.NewFakeGateway()
	svc := NewService(txs, vocals, testUsers(), gateway, noopLocker{}, 0.10)
	return svc, txs, gateway
}

func TestInitiatePurchaseFeeSplit(t *testing.T) {
	vocals := newFakeVocalRepo(testVocal(1, model.LicensingNonExclusive, 49.99))
	svc, txs, gateway := newTestService(vocals)

	intent, err := svc.InitiatePurchase(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 49.99, intent.Amount)
	assert.Contains(t, intent.ClientSecret, "_secret_mock")

	tx, err := txs.GetByGatewayRef(gateway.LastRef())
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, model.TransactionPending, tx.Status)
	assert.Equal(t, 5.00, tx.PlatformFee)
	assert.Equal(t, 44.99, tx.SellerAmount)
	assert.InDelta(t, tx.Amount, tx.PlatformFee+tx.SellerAmount, 1e-9)
	assert.Equal(t, model.LicensingNonExclusive, tx.LicensingType)
}

func TestInitiatePurchaseRejectsSelfPurchase(t *testing.T) {
	vocals := newFakeVocalRepo(testVocal(1, model.LicensingNonExclusive, 20))
	svc, _, _ := newTestService(vocals)

	_, err := svc.InitiatePurchase(context.Background(), 1, 1)
	assert.True(t, errs.Is(err, errs.InvalidArgument))
}

func TestInitiatePurchaseRejectsSoldExclusive(t *testing.T) {
	vocal := testVocal(1, model.LicensingExclusive, 20)
	vocal.IsSold = true
	svc, _, _ := newTestService(newFakeVocalRepo(vocal))

	_, err := svc.InitiatePurchase(context.Background(), 1, 2)
	assert.True(t, errs.Is(err, errs.Conflict))
}

func TestInitiatePurchaseRequiresProcessedVocal(t *testing.T) {
	for _, status := range []model.VocalStatus{model.VocalProcessing, model.VocalFailed} {
		vocal := testVocal(1, model.LicensingNonExclusive, 20)
		vocal.Status = status
		svc, _, _ := newTestService(newFakeVocalRepo(vocal))

		_, err := svc.InitiatePurchase(context.Background(), 1, 2)
		assert.True(t, errs.Is(err, errs.InvalidState), "status %s: got %v", status, err)
	}
}

func TestInitiatePurchaseUnknownVocal(t *testing.T) {
	svc, _, _ := newTestService(newFakeVocalRepo())

	_, err := svc.InitiatePurchase(context.Background(), 99, 2)
	assert.True(t, errs.Is(err, errs.NotFound))
}

func TestConfirmPurchaseCompletes(t *testing.T) {
	vocals := newFakeVocalRepo(testVocal(1, model.LicensingNonExclusive, 20))
	svc, _, gateway := newTestService(vocals)

	_, err := svc.InitiatePurchase(context.Background(), 1, 2)
	require.NoError(t, err)

	tx, err := svc.ConfirmPurchase(context.Background(), gateway.LastRef())
	require.NoError(t, err)
	assert.Equal(t, model.TransactionCompleted, tx.Status)

	// Non-exclusive sales never retire the vocal.
	v, _ := vocals.GetVocalByID(1)
	assert.False(t, v.IsSold)
	assert.True(t, v.IsActive)
	assert.Equal(t, int64(1), v.DownloadCount)
}

func TestConfirmPurchaseUnknownRef(t *testing.T) {
	svc, _, _ := newTestService(newFakeVocalRepo())

	_, err := svc.ConfirmPurchase(context.Background(), "pi_mock_missing")
	assert.True(t, errs.Is(err, errs.NotFound))
}

func TestConfirmPurchaseTwiceIsRejected(t *testing.T) {
	vocals := newFakeVocalRepo(testVocal(1, model.LicensingNonExclusive, 20))
	svc, _, gateway := newTestService(vocals)

	_, err := svc.InitiatePurchase(context.Background(), 1, 2)
	require.NoError(t, err)

	_, err = svc.ConfirmPurchase(context.Background(), gateway.LastRef())
	require.NoError(t, err)

	_, err = svc.ConfirmPurchase(context.Background(), gateway.LastRef())
	assert.True(t, errs.Is(err, errs.InvalidState))
}

func TestConfirmPurchaseDeclined(t *testing.T) {
	vocals := newFakeVocalRepo(testVocal(1, model.LicensingExclusive, 20))
	svc, _, gateway := newTestService(vocals)

	_, err := svc.InitiatePurchase(context.Background(), 1, 2)
	require.NoError(t, err)

	ref := gateway.LastRef()
	gateway.SetOutcome(ref, payment.OutcomeFailed)

	tx, err := svc.ConfirmPurchase(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionFailed, tx.Status)
	assert.NotEmpty(t, tx.FailureReason)

	// A declined payment never retires the vocal.
	v, _ := vocals.GetVocalByID(1)
	assert.False(t, v.IsSold)
	assert.True(t, v.IsActive)
}

func TestConfirmPurchaseStillPending(t *testing.T) {
	vocals := newFakeVocalRepo(testVocal(1, model.LicensingNonExclusive, 20))
	svc, txs, gateway := newTestService(vocals)

	_, err := svc.InitiatePurchase(context.Background(), 1, 2)
	require.NoError(t, err)

	ref := gateway.LastRef()
	gateway.SetOutcome(ref, payment.OutcomePending)

	_, err = svc.ConfirmPurchase(context.Background(), ref)
	assert.True(t, errs.Is(err, errs.InvalidState))

	// Transaction stays pending; a later confirm can still settle it.
	tx, _ := txs.GetByGatewayRef(ref)
	assert.Equal(t, model.TransactionPending, tx.Status)
}

func TestExclusiveSaleRetiresVocal(t *testing.T) {
	vocals := newFakeVocalRepo(testVocal(1, model.LicensingExclusive, 20))
	svc, _, gateway := newTestService(vocals)

	_, err := svc.InitiatePurchase(context.Background(), 1, 2)
	require.NoError(t, err)

	tx, err := svc.ConfirmPurchase(context.Background(), gateway.LastRef())
	require.NoError(t, err)
	assert.Equal(t, model.TransactionCompleted, tx.Status)

	v, _ := vocals.GetVocalByID(1)
	assert.True(t, v.IsSold)
	assert.False(t, v.IsActive)
}

func TestExclusiveRaceProducesOneCompletion(t *testing.T) {
	vocals := newFakeVocalRepo(testVocal(1, model.LicensingExclusive, 20))
	txs := newFakeTxRepo()
	gateway := payment.NewFakeGateway()
	svc := NewService(txs, vocals, testUsers(), gateway, noopLocker{}, 0.10)

	// Both buyers hold a pending transaction before either confirms. The
	// conditional update on the vocal row must let exactly one through.
	refs := make([]string, 2)
	for i, buyerID := range []int64{2, 3} {
		_, err := svc.InitiatePurchase(context.Background(), 1, buyerID)
		require.NoError(t, err)
		refs[i] = gateway.LastRef()
	}

	results := make([]*model.Transaction, 2)
	var wg sync.WaitGroup
	for i := range refs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tx, err := svc.ConfirmPurchase(context.Background(), refs[i])
			assert.NoError(t, err)
			results[i] = tx
		}(i)
	}
	wg.Wait()

	completed := 0
	for _, tx := range results {
		require.NotNil(t, tx)
		switch tx.Status {
		case model.TransactionCompleted:
			completed++
		case model.TransactionFailed:
			assert.Equal(t, "exclusive license no longer available", tx.FailureReason)
		default:
			t.Fatalf("unexpected status %s", tx.Status)
		}
	}
	assert.Equal(t, 1, completed)
}

func TestResolveDownloadPath(t *testing.T) {
	vocal := testVocal(1, model.LicensingNonExclusive, 20)
	vocal.FilePath = "/uploads/master.wav"
	vocals := newFakeVocalRepo(vocal)
	svc, _, gateway := newTestService(vocals)

	_, err := svc.InitiatePurchase(context.Background(), 1, 2)
	require.NoError(t, err)
	_, err = svc.ConfirmPurchase(context.Background(), gateway.LastRef())
	require.NoError(t, err)

	path, err := svc.ResolveDownloadPath(1, 2)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/master.wav", path)

	// A buyer without a completed purchase gets nothing.
	_, err = svc.ResolveDownloadPath(1, 3)
	assert.True(t, errs.Is(err, errs.NotFound))
}

func TestEarningsSumsSellerAmounts(t *testing.T) {
	vocals := newFakeVocalRepo(
		testVocal(1, model.LicensingNonExclusive, 20),
		testVocal(2, model.LicensingNonExclusive, 30),
	)
	svc, _, gateway := newTestService(vocals)

	for _, vocalID := range []int64{1, 2} {
		_, err := svc.InitiatePurchase(context.Background(), vocalID, 2)
		require.NoError(t, err)
		_, err = svc.ConfirmPurchase(context.Background(), gateway.LastRef())
		require.NoError(t, err)
	}

	summary, err := svc.Earnings(1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.TotalSales)
	assert.Equal(t, 18.0+27.0, summary.TotalEarnings)
}

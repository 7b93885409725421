package service

import (
	"campus_share_backend/internal/model"
	"campus_share_backend/internal/util"
	"errors"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

var defaultRules = Rules{UploadBonus: 20, LoginBonus: 10}

func TestRequestDownload_InsufficientBalance(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, defaultRules)

	uploader := createUser(t, db, "uploader", 0)
	user := createUser(t, db, "alice", 15)
	resource := createResource(t, db, uploader.ID, 20)

	_, err := ledger.RequestDownload(bg, user.ID, resource.ID)
	if !errors.Is(err, util.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	if got := reloadUser(t, db, user.ID).Points; got != 15 {
		t.Errorf("points changed: got %d, want 15", got)
	}
	if got := reloadResource(t, db, resource.ID).Downloads; got != 0 {
		t.Errorf("downloads changed: got %d, want 0", got)
	}
	if n := countRows(t, db, &model.DownloadRecord{}, "user_id = ?", user.ID); n != 0 {
		t.Errorf("expected no download record, got %d", n)
	}
	if n := countRows(t, db, &model.PointLog{}, "user_id = ?", user.ID); n != 0 {
		t.Errorf("expected no point log, got %d", n)
	}
}

func TestRequestDownload_ChargesOnce(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, defaultRules)

	uploader := createUser(t, db, "uploader", 0)
	user := createUser(t, db, "alice", 50)
	resource := createResource(t, db, uploader.ID, 20)

	first, err := ledger.RequestDownload(bg, user.ID, resource.ID)
	if err != nil {
		t.Fatalf("first download: %v", err)
	}
	if first.AlreadyOwned || first.Charged != 20 || first.Balance != 30 {
		t.Errorf("unexpected first result: %+v", first)
	}
	if first.Resource.FilePath != resource.FilePath {
		t.Errorf("locator = %q, want %q", first.Resource.FilePath, resource.FilePath)
	}

	if got := reloadUser(t, db, user.ID).Points; got != 30 {
		t.Fatalf("points after first download: got %d, want 30", got)
	}
	if got := reloadResource(t, db, resource.ID).Downloads; got != 1 {
		t.Fatalf("downloads after first download: got %d, want 1", got)
	}

	second, err := ledger.RequestDownload(bg, user.ID, resource.ID)
	if err != nil {
		t.Fatalf("second download: %v", err)
	}
	if !second.AlreadyOwned || second.Charged != 0 || second.Balance != 30 {
		t.Errorf("unexpected second result: %+v", second)
	}

	if got := reloadUser(t, db, user.ID).Points; got != 30 {
		t.Errorf("points after second download: got %d, want 30", got)
	}
	if got := reloadResource(t, db, resource.ID).Downloads; got != 1 {
		t.Errorf("downloads after second download: got %d, want 1", got)
	}
	if n := countRows(t, db, &model.DownloadRecord{}, "user_id = ? AND resource_id = ?", user.ID, resource.ID); n != 1 {
		t.Errorf("download records: got %d, want 1", n)
	}

	var log model.PointLog
	if err := db.Where("user_id = ?", user.ID).First(&log).Error; err != nil {
		t.Fatalf("point log: %v", err)
	}
	if log.Amount != -20 || log.Balance != 30 || log.Reason != model.PointReasonDownload {
		t.Errorf("unexpected point log: %+v", log)
	}
}

func TestRequestDownload_ResourceNotFound(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, defaultRules)
	user := createUser(t, db, "alice", 50)

	_, err := ledger.RequestDownload(bg, user.ID, 999)
	if !errors.Is(err, util.ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
	if got := reloadUser(t, db, user.ID).Points; got != 50 {
		t.Errorf("points changed: got %d", got)
	}
}

func TestRequestDownload_UserNotFound(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, defaultRules)
	uploader := createUser(t, db, "uploader", 0)
	resource := createResource(t, db, uploader.ID, 5)

	_, err := ledger.RequestDownload(bg, 999, resource.ID)
	if !errors.Is(err, util.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRequestDownload_ZeroPrice(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, defaultRules)

	uploader := createUser(t, db, "uploader", 0)
	user := createUser(t, db, "alice", 0)
	resource := createResource(t, db, uploader.ID, 0)

	result, err := ledger.RequestDownload(bg, user.ID, resource.ID)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if result.Charged != 0 || result.Balance != 0 || result.AlreadyOwned {
		t.Errorf("unexpected result: %+v", result)
	}
	if got := reloadResource(t, db, resource.ID).Downloads; got != 1 {
		t.Errorf("downloads: got %d, want 1", got)
	}
	if n := countRows(t, db, &model.DownloadRecord{}, "user_id = ?", user.ID); n != 1 {
		t.Errorf("download records: got %d, want 1", n)
	}
	if n := countRows(t, db, &model.PointLog{}, "user_id = ?", user.ID); n != 0 {
		t.Errorf("zero-price download should not write a point log, got %d", n)
	}
}

// 余额只够部分资料时，按任意顺序请求都不会出现负数
func TestRequestDownload_BalanceNeverNegative(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, defaultRules)

	uploader := createUser(t, db, "uploader", 0)
	user := createUser(t, db, "alice", 25)

	prices := []int{10, 20, 5, 15, 1}
	var spent int
	for _, price := range prices {
		resource := createResource(t, db, uploader.ID, price)
		for i := 0; i < 2; i++ {
			before := reloadUser(t, db, user.ID).Points
			result, err := ledger.RequestDownload(bg, user.ID, resource.ID)
			switch {
			case err == nil:
				spent += result.Charged
			case errors.Is(err, util.ErrInsufficientBalance):
				if before >= price {
					t.Fatalf("rejected with balance %d for price %d", before, price)
				}
			default:
				t.Fatalf("download: %v", err)
			}

			after := reloadUser(t, db, user.ID).Points
			if after < 0 {
				t.Fatalf("balance went negative: %d", after)
			}
		}
	}

	if got := reloadUser(t, db, user.ID).Points; got != 25-spent {
		t.Errorf("balance = %d, want %d", got, 25-spent)
	}
	sum, err := ledger.PointLogRepo.SumByUser(bg, user.ID)
	if err != nil {
		t.Fatalf("sum logs: %v", err)
	}
	if sum != -spent {
		t.Errorf("point log sum = %d, want %d", sum, -spent)
	}
}

func TestRequestDownload_ConcurrentFirstDownloads(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, defaultRules)

	uploader := createUser(t, db, "uploader", 0)
	user := createUser(t, db, "alice", 100)
	resource := createResource(t, db, uploader.ID, 20)

	const workers = 8
	results := make([]*DownloadResult, workers)
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		i := i
		g.Go(func() error {
			r, err := ledger.RequestDownload(bg, user.ID, resource.ID)
			results[i] = r
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent download: %v", err)
	}

	charged := 0
	for _, r := range results {
		if !r.AlreadyOwned {
			charged++
		}
	}
	if charged != 1 {
		t.Errorf("charged %d times, want 1", charged)
	}
	if got := reloadUser(t, db, user.ID).Points; got != 80 {
		t.Errorf("points: got %d, want 80", got)
	}
	if got := reloadResource(t, db, resource.ID).Downloads; got != 1 {
		t.Errorf("downloads: got %d, want 1", got)
	}
	if n := countRows(t, db, &model.DownloadRecord{}, "user_id = ? AND resource_id = ?", user.ID, resource.ID); n != 1 {
		t.Errorf("download records: got %d, want 1", n)
	}
}

func TestRequestDownload_CounterMatchesRecords(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, defaultRules)

	uploader := createUser(t, db, "uploader", 0)
	resource := createResource(t, db, uploader.ID, 30)

	// 四人余额足够，两人不足；每人请求两次
	balances := []int{30, 50, 100, 45, 10, 29}
	var g errgroup.Group
	for i, points := range balances {
		userID := createUser(t, db, "user"+string(rune('a'+i)), points).ID
		for attempt := 0; attempt < 2; attempt++ {
			g.Go(func() error {
				_, err := ledger.RequestDownload(bg, userID, resource.ID)
				if errors.Is(err, util.ErrInsufficientBalance) {
					return nil
				}
				return err
			})
		}
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("download: %v", err)
	}

	records, err := ledger.DownloadRepo.CountByResource(bg, resource.ID)
	if err != nil {
		t.Fatalf("count records: %v", err)
	}
	if records != 4 {
		t.Errorf("download records: got %d, want 4", records)
	}
	if got := reloadResource(t, db, resource.ID).Downloads; int64(got) != records {
		t.Errorf("downloads counter %d diverged from %d records", got, records)
	}
}

func TestCreditOnLogin_OncePerDay(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, defaultRules)
	user := createUser(t, db, "alice", 0)

	loc := time.FixedZone("CST", 8*3600)
	ledger.now = fixedClock(time.Date(2024, 3, 1, 8, 0, 0, 0, loc))

	credited, err := ledger.CreditOnLogin(bg, user.ID)
	if err != nil || !credited {
		t.Fatalf("first login: credited=%v err=%v", credited, err)
	}

	ledger.now = fixedClock(time.Date(2024, 3, 1, 23, 59, 0, 0, loc))
	credited, err = ledger.CreditOnLogin(bg, user.ID)
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if credited {
		t.Error("second login on the same day should not be credited")
	}
	if got := reloadUser(t, db, user.ID).Points; got != 10 {
		t.Fatalf("points after same-day logins: got %d, want 10", got)
	}

	ledger.now = fixedClock(time.Date(2024, 3, 2, 0, 1, 0, 0, loc))
	credited, err = ledger.CreditOnLogin(bg, user.ID)
	if err != nil || !credited {
		t.Fatalf("next-day login: credited=%v err=%v", credited, err)
	}
	if got := reloadUser(t, db, user.ID).Points; got != 20 {
		t.Errorf("points after next-day login: got %d, want 20", got)
	}
	if n := countRows(t, db, &model.PointLog{}, "user_id = ? AND reason = ?", user.ID, model.PointReasonLogin); n != 2 {
		t.Errorf("login point logs: got %d, want 2", n)
	}
}

func TestCreditOnLogin_UsesCurrentRules(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, defaultRules)
	user := createUser(t, db, "alice", 0)

	ledger.SetRules(Rules{UploadBonus: 20, LoginBonus: 3})
	if _, err := ledger.CreditOnLogin(bg, user.ID); err != nil {
		t.Fatalf("login: %v", err)
	}
	if got := reloadUser(t, db, user.ID).Points; got != 3 {
		t.Errorf("points: got %d, want 3", got)
	}
}

func TestCreditOnUpload(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, defaultRules)
	user := createUser(t, db, "alice", 5)

	resource := &model.Resource{
		Title:      "线性代数笔记",
		FilePath:   "resources/la.pdf",
		FileName:   "la.pdf",
		UploaderID: user.ID,
	}
	bonus, balance, err := ledger.CreditOnUpload(bg, resource)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if resource.ID == 0 {
		t.Fatal("resource was not created")
	}
	if bonus != 20 {
		t.Errorf("bonus: got %d, want 20", bonus)
	}
	if balance != 25 {
		t.Errorf("balance: got %d, want 25", balance)
	}
	if got := reloadUser(t, db, user.ID).Points; got != 25 {
		t.Errorf("points: got %d, want 25", got)
	}

	var log model.PointLog
	if err := db.Where("user_id = ? AND reason = ?", user.ID, model.PointReasonUpload).First(&log).Error; err != nil {
		t.Fatalf("point log: %v", err)
	}
	if log.Amount != 20 || log.ResourceID == nil || *log.ResourceID != resource.ID {
		t.Errorf("unexpected point log: %+v", log)
	}
}

func TestCreditOnUpload_RollsBackWithoutUploader(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, defaultRules)

	resource := &model.Resource{
		Title:      "孤儿资料",
		FilePath:   "resources/orphan.pdf",
		UploaderID: 999,
	}
	_, _, err := ledger.CreditOnUpload(bg, resource)
	if !errors.Is(err, util.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if n := countRows(t, db, &model.Resource{}, "title = ?", "孤儿资料"); n != 0 {
		t.Errorf("resource insert was not rolled back: %d rows", n)
	}
}

func TestToggleLike(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, defaultRules)

	uploader := createUser(t, db, "uploader", 0)
	user := createUser(t, db, "alice", 0)
	resource := createResource(t, db, uploader.ID, 0)

	liked, likes, err := ledger.ToggleLike(bg, user.ID, resource.ID)
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if !liked || likes != 1 {
		t.Errorf("after like: liked=%v likes=%d", liked, likes)
	}
	if got := reloadResource(t, db, resource.ID).Likes; got != 1 {
		t.Errorf("stored likes: got %d, want 1", got)
	}

	liked, likes, err = ledger.ToggleLike(bg, user.ID, resource.ID)
	if err != nil {
		t.Fatalf("unlike: %v", err)
	}
	if liked || likes != 0 {
		t.Errorf("after unlike: liked=%v likes=%d", liked, likes)
	}
	if got := reloadResource(t, db, resource.ID).Likes; got != 0 {
		t.Errorf("stored likes: got %d, want 0", got)
	}
	if n := countRows(t, db, &model.Like{}, "user_id = ? AND resource_id = ?", user.ID, resource.ID); n != 0 {
		t.Errorf("residual like rows: %d", n)
	}
}

func TestToggleLike_CounterMatchesRows(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, defaultRules)

	uploader := createUser(t, db, "uploader", 0)
	resource := createResource(t, db, uploader.ID, 0)

	users := make([]*model.User, 4)
	for i := range users {
		users[i] = createUser(t, db, "user"+string(rune('a'+i)), 0)
	}

	var g errgroup.Group
	for round := 0; round < 3; round++ {
		for _, u := range users {
			userID := u.ID
			g.Go(func() error {
				_, _, err := ledger.ToggleLike(bg, userID, resource.ID)
				return err
			})
		}
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	rows, err := ledger.Interactions.CountLikes(bg, resource.ID)
	if err != nil {
		t.Fatalf("count likes: %v", err)
	}
	if got := reloadResource(t, db, resource.ID).Likes; int64(got) != rows {
		t.Errorf("likes counter %d diverged from %d rows", got, rows)
	}
	if rows != int64(len(users)) {
		t.Errorf("after an odd number of toggles each user should like once, got %d", rows)
	}
}

func TestToggleLike_ResourceNotFound(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, defaultRules)
	user := createUser(t, db, "alice", 0)

	if _, _, err := ledger.ToggleLike(bg, user.ID, 42); !errors.Is(err, util.ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
	if _, err := ledger.ToggleFavorite(bg, user.ID, 42); !errors.Is(err, util.ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
}

func TestToggleFavorite(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, defaultRules)

	uploader := createUser(t, db, "uploader", 0)
	user := createUser(t, db, "alice", 0)
	resource := createResource(t, db, uploader.ID, 0)

	favorited, err := ledger.ToggleFavorite(bg, user.ID, resource.ID)
	if err != nil || !favorited {
		t.Fatalf("favorite: favorited=%v err=%v", favorited, err)
	}
	if n := countRows(t, db, &model.Favorite{}, "user_id = ?", user.ID); n != 1 {
		t.Errorf("favorite rows: got %d, want 1", n)
	}

	favorited, err = ledger.ToggleFavorite(bg, user.ID, resource.ID)
	if err != nil || favorited {
		t.Fatalf("unfavorite: favorited=%v err=%v", favorited, err)
	}
	if n := countRows(t, db, &model.Favorite{}, "user_id = ?", user.ID); n != 0 {
		t.Errorf("favorite rows: got %d, want 0", n)
	}
	// 收藏不影响点赞计数
	if got := reloadResource(t, db, resource.ID).Likes; got != 0 {
		t.Errorf("likes changed by favorite: %d", got)
	}
}

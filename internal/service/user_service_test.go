package service

import (
	"campus_share_backend/internal/model"
	"testing"
)

func TestUserService_HistorySkipsDeletedResources(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, defaultRules)
	users := NewUserService(db)

	uploader := createUser(t, db, "uploader", 0)
	user := createUser(t, db, "alice", 100)
	kept := createResource(t, db, uploader.ID, 10)
	removed := createResource(t, db, uploader.ID, 10)

	for _, id := range []uint{kept.ID, removed.ID} {
		if _, err := ledger.RequestDownload(bg, user.ID, id); err != nil {
			t.Fatalf("download %d: %v", id, err)
		}
		if _, err := ledger.ToggleFavorite(bg, user.ID, id); err != nil {
			t.Fatalf("favorite %d: %v", id, err)
		}
	}
	if err := db.Delete(&model.Resource{}, removed.ID).Error; err != nil {
		t.Fatalf("delete resource: %v", err)
	}

	page, err := users.DownloadHistory(bg, user.ID, 1, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	items := page.List.([]DownloadHistoryItem)
	if len(items) != 1 || items[0].Resource.ID != kept.ID {
		t.Fatalf("history items = %+v, want only resource %d", items, kept.ID)
	}
	if !items[0].Resource.Downloaded || items[0].Charged != 10 {
		t.Errorf("unexpected history item: %+v", items[0])
	}

	favorites, err := users.Favorites(bg, user.ID)
	if err != nil {
		t.Fatalf("favorites: %v", err)
	}
	if len(favorites) != 1 || favorites[0].Resource.ID != kept.ID {
		t.Errorf("favorites = %+v, want only resource %d", favorites, kept.ID)
	}
}

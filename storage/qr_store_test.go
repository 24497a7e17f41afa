package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/minhson226/qrcode-builder-v2/model"
)

func setupTestStore(t *testing.T) (*QRStore, *miniredis.Miniredis, func()) {
	t.Helper()

	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	cleanup := func() {
		client.Close()
		s.Close()
	}

	return NewQRStore(client), s, cleanup
}

func testQR(code string, qrType model.QRType) model.QRCode {
	return model.QRCode{
		ID:        "id-" + code,
		Code:      code,
		Type:      qrType,
		Target:    "https://example.com",
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
}

func TestQRStore_SaveAndGet(t *testing.T) {
	store, _, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	qr := testQR("abc12345", model.QRTypeDynamic)

	if err := store.Save(ctx, qr); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	t.Run("ByCode", func(t *testing.T) {
		got, err := store.GetByCode(ctx, "abc12345")
		if err != nil {
			t.Fatalf("GetByCode() error = %v", err)
		}
		if got.ID != qr.ID || got.Target != qr.Target {
			t.Errorf("GetByCode() = %+v, want %+v", got, qr)
		}
	})

	t.Run("ByID", func(t *testing.T) {
		got, err := store.GetByID(ctx, qr.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.Code != qr.Code {
			t.Errorf("GetByID().Code = %q, want %q", got.Code, qr.Code)
		}
	})

	t.Run("UnknownCode", func(t *testing.T) {
		if _, err := store.GetByCode(ctx, "missing"); err != ErrNotFound {
			t.Errorf("GetByCode(missing) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("UnknownID", func(t *testing.T) {
		if _, err := store.GetByID(ctx, "missing"); err != ErrNotFound {
			t.Errorf("GetByID(missing) error = %v, want ErrNotFound", err)
		}
	})
}

func TestQRStore_UpdateTarget(t *testing.T) {
	store, _, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	dynamic := testQR("dyn12345", model.QRTypeDynamic)
	static := testQR("sta12345", model.QRTypeStatic)
	static.Content = "https://example.com"
	static.Target = ""

	store.Save(ctx, dynamic)
	store.Save(ctx, static)

	t.Run("DynamicTargetIsMutable", func(t *testing.T) {
		updated, err := store.UpdateTarget(ctx, dynamic.ID, "https://new.com")
		if err != nil {
			t.Fatalf("UpdateTarget() error = %v", err)
		}
		if updated.Target != "https://new.com" {
			t.Errorf("Target = %q, want https://new.com", updated.Target)
		}
		// The code itself is unchanged
		if updated.Code != dynamic.Code {
			t.Errorf("Code changed to %q", updated.Code)
		}
	})

	t.Run("StaticRejectsTargetUpdate", func(t *testing.T) {
		if _, err := store.UpdateTarget(ctx, static.ID, "https://new.com"); err != ErrNotDynamic {
			t.Errorf("UpdateTarget() error = %v, want ErrNotDynamic", err)
		}
	})
}

func TestQRStore_PasswordLifecycle(t *testing.T) {
	store, _, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	qr := testQR("pwd12345", model.QRTypeDynamic)
	store.Save(ctx, qr)

	updated, err := store.SetPassword(ctx, qr.ID, "$2a$10$fakehash")
	if err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}
	if !updated.Protected() {
		t.Error("Record should be protected after SetPassword")
	}

	updated, err = store.RemovePassword(ctx, qr.ID)
	if err != nil {
		t.Fatalf("RemovePassword() error = %v", err)
	}
	if updated.Protected() {
		t.Error("Record should be unprotected after RemovePassword")
	}
}

func TestQRStore_Deactivate(t *testing.T) {
	store, _, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	qr := testQR("del12345", model.QRTypeDynamic)
	store.Save(ctx, qr)

	updated, err := store.Deactivate(ctx, qr.ID)
	if err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}
	if updated.Active {
		t.Error("Record should be inactive after Deactivate")
	}

	// Soft delete: the record is still stored
	got, err := store.GetByCode(ctx, qr.Code)
	if err != nil {
		t.Fatalf("GetByCode() after deactivate error = %v", err)
	}
	if got.Active {
		t.Error("Stored record should be inactive")
	}

	// And gone from listings
	list, err := store.List(ctx, "", "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("List() returned %d records, want 0", len(list))
	}
}

func TestQRStore_ListFilters(t *testing.T) {
	store, _, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	a := testQR("aaa11111", model.QRTypeDynamic)
	a.Folder = "campaigns"
	b := testQR("bbb22222", model.QRTypeStatic)
	b.Content = "https://example.com"
	b.Folder = "menus"

	store.Save(ctx, a)
	store.Save(ctx, b)

	t.Run("All", func(t *testing.T) {
		list, _ := store.List(ctx, "", "")
		if len(list) != 2 {
			t.Errorf("List() returned %d records, want 2", len(list))
		}
	})

	t.Run("ByFolder", func(t *testing.T) {
		list, _ := store.List(ctx, "campaigns", "")
		if len(list) != 1 || list[0].Code != a.Code {
			t.Errorf("List(folder=campaigns) = %+v, want only %s", list, a.Code)
		}
	})

	t.Run("ByType", func(t *testing.T) {
		list, _ := store.List(ctx, "", model.QRTypeStatic)
		if len(list) != 1 || list[0].Code != b.Code {
			t.Errorf("List(type=static) = %+v, want only %s", list, b.Code)
		}
	})
}

func TestQRStore_CodeExists(t *testing.T) {
	store, _, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	store.Save(ctx, testQR("exists12", model.QRTypeDynamic))

	if exists, _ := store.CodeExists(ctx, "exists12"); !exists {
		t.Error("CodeExists() = false for stored code")
	}
	if exists, _ := store.CodeExists(ctx, "missing1"); exists {
		t.Error("CodeExists() = true for unknown code")
	}
}

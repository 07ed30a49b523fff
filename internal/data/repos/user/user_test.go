package user

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/interview-coach/internal/data/repos/testutil"
	types "github.com/yungbote/interview-coach/internal/domain"
	"github.com/yungbote/interview-coach/internal/pkg/dbctx"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	created, err := repo.Create(dbc, &types.User{Name: "Ada", Email: "  Ada@Example.COM ", Password: "hash"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("expected generated id")
	}
	if created.Email != "ada@example.com" {
		t.Fatalf("email not normalized: %q", created.Email)
	}

	got, err := repo.GetByID(dbc, created.ID)
	if err != nil || got == nil || got.Email != "ada@example.com" {
		t.Fatalf("GetByID: got=%+v err=%v", got, err)
	}

	byEmail, err := repo.GetByEmail(dbc, "ADA@example.com")
	if err != nil || byEmail == nil || byEmail.ID != created.ID {
		t.Fatalf("GetByEmail: got=%+v err=%v", byEmail, err)
	}

	exists, err := repo.EmailExists(dbc, "ada@example.com")
	if err != nil || !exists {
		t.Fatalf("EmailExists: exists=%v err=%v", exists, err)
	}

	missing, err := repo.GetByEmail(dbc, "nobody@example.com")
	if err != nil || missing != nil {
		t.Fatalf("GetByEmail(missing): got=%+v err=%v", missing, err)
	}
	missingID, err := repo.GetByID(dbc, uuid.New())
	if err != nil || missingID != nil {
		t.Fatalf("GetByID(missing): got=%+v err=%v", missingID, err)
	}
}

func TestUserRepoDuplicateEmail(t *testing.T) {
	db := testutil.DB(t)
	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	if _, err := repo.Create(dbc, &types.User{Name: "A", Email: "dup@example.com", Password: "x"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := repo.Create(dbc, &types.User{Name: "B", Email: "DUP@example.com", Password: "y"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bxcodec/faker/v4"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/zond/anatomy/body"
	"github.com/zond/anatomy/condition"
	"github.com/zond/anatomy/species"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "anatomy.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func injuredHuman(t *testing.T) *body.Body {
	t.Helper()
	b, err := species.Human().NewBody(body.WithInjuryRule(condition.DefaultRule))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Damage(body.DamageInfo{Amount: 12, TargetPart: "LeftLeg", Accuracy: 1, Sharp: true}); err != nil {
		t.Fatal(err)
	}
	b.Part("Liver").AddCondition(condition.NewInjury(condition.Infection, 0.2))
	b.Update(3*time.Hour, body.Environment{Temperature: 50, ActivityLevel: 1})
	return b
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), " "); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestSaveLoad(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()
	want := Record{
		ID:        faker.UUIDHyphenated(),
		Species:   "human",
		Snapshot:  injuredHuman(t).Snapshot(),
		UpdatedAt: time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := s.Save(ctx, want); err != nil {
		t.Fatal(err)
	}
	got, err := s.Load(ctx, want.ID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(*got, want); diff != "" {
		t.Errorf("loaded record differs: %v", diff)
	}

	restored, err := species.Human().NewBody()
	if err != nil {
		t.Fatal(err)
	}
	if err := restored.Restore(got.Snapshot); err != nil {
		t.Fatal(err)
	}
	if got := restored.Part("LeftLeg").Health(); got != 18 {
		t.Errorf("LeftLeg health = %v, want 18", got)
	}
	if len(restored.Part("LeftLeg").Conditions()) != 1 {
		t.Errorf("LeftLeg lost its cut")
	}
}

func TestSaveReplaces(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()
	id := faker.UUIDHyphenated()
	b, err := species.Wolf().NewBody()
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, Record{ID: id, Species: "wolf", Snapshot: b.Snapshot()}); err != nil {
		t.Fatal(err)
	}
	b.SetBodyFat(1)
	b.Part("Tail").Damage(body.NewDamage(4, body.Physical))
	if err := s.Save(ctx, Record{ID: id, Species: "wolf", Snapshot: b.Snapshot()}); err != nil {
		t.Fatal(err)
	}
	got, err := s.Load(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Snapshot.BodyFat != 1 {
		t.Errorf("body fat = %v, want 1", got.Snapshot.BodyFat)
	}
	if diff := cmp.Diff(got.Snapshot.Parts, b.Snapshot().Parts); diff != "" {
		t.Errorf("parts differ: %v", diff)
	}
	if err := s.Create(ctx, Record{ID: id, Species: "wolf", Snapshot: b.Snapshot()}); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("got %v, want ErrAlreadyExists", err)
	}
}

func TestListDelete(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()
	b, err := species.Deer().NewBody()
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"b", "a", "c"} {
		if err := s.Create(ctx, Record{ID: id, Species: "deer", Snapshot: b.Snapshot()}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Delete(ctx, "b"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
	if _, err := s.Load(ctx, "b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
	entries, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	ids := []string{}
	for _, e := range entries {
		ids = append(ids, e.ID)
		if e.Species != "deer" || e.UpdatedAt.IsZero() {
			t.Errorf("bad entry %+v", e)
		}
	}
	if diff := cmp.Diff(ids, []string{"a", "c"}); diff != "" {
		t.Errorf("ids: %v", diff)
	}
}

func TestCanceledContext(t *testing.T) {
	s := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Save(ctx, Record{ID: "x"}); err == nil {
		t.Errorf("save with canceled context succeeded")
	}
}

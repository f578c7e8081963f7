package repokit

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"crimecast/internal/platform/store"
	kit "crimecast/internal/platform/testkit"
)

type fakeQ struct {
	sqls []string
}

func (f *fakeQ) Exec(_ context.Context, sql string, _ ...any) (store.CommandTag, error) {
	f.sqls = append(f.sqls, sql)
	return nil, nil
}

func (f *fakeQ) Query(_ context.Context, sql string, _ ...any) (store.Rows, error) {
	f.sqls = append(f.sqls, sql)
	return nil, nil
}

func (f *fakeQ) QueryRow(_ context.Context, sql string, _ ...any) store.Row {
	f.sqls = append(f.sqls, sql)
	return nil
}

type copyQ struct{ fakeQ }

func (c *copyQ) CopyFrom(context.Context, string, []string, [][]any) (int64, error) { return 0, nil }

type fakeTx struct {
	fakeQ
	q     Queryer
	calls int
	err   error
}

func (f *fakeTx) Tx(_ context.Context, fn func(Queryer) error) error {
	f.calls++
	if err := fn(f.q); err != nil {
		return err
	}
	return f.err
}

func TestBindFuncAndMustBind(t *testing.T) {
	b := BindFunc[string](func(Queryer) string { return "ok" })
	if got := MustBind[string](b, &fakeQ{}); got != "ok" {
		t.Fatalf("got %q", got)
	}
	kit.MustPanic(t, func() { _ = MustBind[string](b, nil) })
}

func TestWithTxPropagates(t *testing.T) {
	inner := &fakeQ{}
	tx := &fakeTx{q: inner}
	want := errors.New("boom")
	if err := WithTx(context.Background(), tx, func(Queryer) error { return want }); !errors.Is(err, want) {
		t.Fatalf("got %v", err)
	}
	tx.err = errors.New("commit")
	if err := WithTx(context.Background(), tx, func(Queryer) error { return nil }); err == nil {
		t.Fatal("expected commit error")
	}
	if tx.calls != 2 {
		t.Fatalf("calls = %d", tx.calls)
	}
}

func TestBeginHooksRunInOrder(t *testing.T) {
	inner := &fakeQ{}
	tx := &fakeTx{q: inner}
	var seq []string
	h := func(name string) BeginHook {
		return func(_ context.Context, q Queryer) error {
			if q != inner {
				t.Fatal("hook saw a different queryer")
			}
			seq = append(seq, name)
			return nil
		}
	}
	r := WithBeginHooks(tx, h("a"), h("b"))
	err := r.Tx(context.Background(), func(Queryer) error { seq = append(seq, "fn"); return nil })
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(seq, []string{"a", "b", "fn"}) {
		t.Fatalf("seq = %v", seq)
	}
}

func TestBeginHookErrorSkipsFn(t *testing.T) {
	tx := &fakeTx{q: &fakeQ{}}
	boom := errors.New("boom")
	r := WithBeginHooks(tx, func(context.Context, Queryer) error { return boom })
	ran := false
	if err := r.Tx(context.Background(), func(Queryer) error { ran = true; return nil }); !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
	if ran {
		t.Fatal("fn ran after failing hook")
	}
}

func TestHookedDelegates(t *testing.T) {
	tx := &fakeTx{q: &fakeQ{}}
	r := WithBeginHooks(tx)
	_, _ = r.Exec(context.Background(), "A")
	_, _ = r.Query(context.Background(), "B")
	_ = r.QueryRow(context.Background(), "C")
	if !reflect.DeepEqual(tx.sqls, []string{"A", "B", "C"}) {
		t.Fatalf("sqls = %v", tx.sqls)
	}
}

func TestStatementTimeout(t *testing.T) {
	q := &fakeQ{}
	if err := StatementTimeout(1500*time.Millisecond)(context.Background(), q); err != nil {
		t.Fatal(err)
	}
	if len(q.sqls) != 1 || q.sqls[0] != "SET LOCAL statement_timeout = 1500" {
		t.Fatalf("sqls = %v", q.sqls)
	}
}

func TestCopierOf(t *testing.T) {
	if _, ok := CopierOf(&fakeQ{}); ok {
		t.Fatal("plain queryer should not copy")
	}
	if _, ok := CopierOf(&copyQ{}); !ok {
		t.Fatal("copy queryer should copy")
	}
}

type fakeGuard struct{ err error }

func (f fakeGuard) Guard(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("no deadline")
	}
	return f.err
}

func TestMustGuard(t *testing.T) {
	kit.MustNotPanic(t, func() { MustGuard(context.Background(), fakeGuard{}) })
	kit.MustPanic(t, func() { MustGuard(context.Background(), fakeGuard{err: errors.New("pg down")}) })
}

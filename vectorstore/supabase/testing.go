// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.



package supabase

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Call is a statement received by a FakeQuerier.
type Call struct {
	SQL  string
	Args []any
}

// FakeQuerier is an in-memory Querier that records statements.
//
// Unless QueryFunc is set, INSERT statements return one generated id per
// inserted row (three bound arguments each) and other queries return no rows.
// Unless ExecFunc is set, Exec reports zero affected rows.
type FakeQuerier struct {
	QueryFunc func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	ExecFunc  func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	mu     sync.Mutex
	calls  []Call
	nextID int
}

var _ Querier = (*FakeQuerier)(nil)

// NewFakeQuerier creates a FakeQuerier with default behavior.
func NewFakeQuerier() *FakeQuerier {
	return &FakeQuerier{}
}

// NewFakeClient returns a client backed by a new FakeQuerier.
func NewFakeClient() (*Client, *FakeQuerier) {
	q := NewFakeQuerier()
	return NewClient(q), q
}

func (f *FakeQuerier) record(sql string, args []any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{SQL: sql, Args: append([]any(nil), args...)})
}

// Exec records the statement.
func (f *FakeQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.record(sql, args)
	if f.ExecFunc != nil {
		return f.ExecFunc(ctx, sql, args...)
	}
	return pgconn.NewCommandTag("DELETE 0"), nil
}

// Query records the statement and returns rows.
func (f *FakeQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.record(sql, args)
	if f.QueryFunc != nil {
		return f.QueryFunc(ctx, sql, args...)
	}
	if !strings.HasPrefix(sql, "INSERT") {
		return NewFakeRows(), nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	rows := make([][]any, len(args)/3)
	for i := range rows {
		f.nextID++
		rows[i] = []any{strconv.Itoa(f.nextID)}
	}
	return NewFakeRows(rows...), nil
}

// Calls returns the recorded statements in order.
func (f *FakeQuerier) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// FakeRows is a pgx.Rows over fixed values.
type FakeRows struct {
	rows   [][]any
	pos    int
	err    error
	closed bool
}

var _ pgx.Rows = (*FakeRows)(nil)

// NewFakeRows returns rows yielding each values slice in turn.
func NewFakeRows(rows ...[]any) *FakeRows {
	return &FakeRows{rows: rows, pos: -1}
}

// WithErr makes Err report err once iteration ends.
func (r *FakeRows) WithErr(err error) *FakeRows {
	r.err = err
	return r
}

func (r *FakeRows) Close() {
	r.closed = true
}

func (r *FakeRows) Err() error {
	if r.pos >= len(r.rows) {
		return r.err
	}
	return nil
}

func (r *FakeRows) CommandTag() pgconn.CommandTag {
	return pgconn.NewCommandTag(fmt.Sprintf("SELECT %d", len(r.rows)))
}

func (r *FakeRows) FieldDescriptions() []pgconn.FieldDescription {
	return nil
}

func (r *FakeRows) Next() bool {
	if r.closed {
		return false
	}
	r.pos++
	return r.pos < len(r.rows)
}

// Scan assigns the current row's values to dest by reflection.
func (r *FakeRows) Scan(dest ...any) error {
	if r.pos < 0 || r.pos >= len(r.rows) {
		return fmt.Errorf("scan called without a current row")
	}
	row := r.rows[r.pos]
	if len(dest) != len(row) {
		return fmt.Errorf("scan expected %d destinations, got %d", len(row), len(dest))
	}
	for i, d := range dest {
		target := reflect.ValueOf(d)
		if target.Kind() != reflect.Pointer || target.IsNil() {
			return fmt.Errorf("destination %d is not a non-nil pointer", i)
		}
		elem := target.Elem()
		if row[i] == nil {
			elem.Set(reflect.Zero(elem.Type()))
			continue
		}
		value := reflect.ValueOf(row[i])
		if !value.Type().AssignableTo(elem.Type()) {
			return fmt.Errorf("cannot scan %T into %T", row[i], d)
		}
		elem.Set(value)
	}
	return nil
}

func (r *FakeRows) Values() ([]any, error) {
	if r.pos < 0 || r.pos >= len(r.rows) {
		return nil, fmt.Errorf("no current row")
	}
	return r.rows[r.pos], nil
}

func (r *FakeRows) RawValues() [][]byte {
	return nil
}

func (r *FakeRows) Conn() *pgx.Conn {
	return nil
}

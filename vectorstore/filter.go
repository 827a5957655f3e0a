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



package vectorstore

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/poiesic/vecdocs/core"
)

const (
	// TableName is the table documents are written to.
	TableName = "documents"
	// QueryName is the SQL function used for similarity search.
	QueryName = "match_documents"
	// MetadataColumn is the jsonb column holding document metadata.
	MetadataColumn = "metadata"
)

// Operator is a filter comparison, named the way PostgREST names them.
type Operator string

const (
	OpEq  Operator = "eq"
	OpNeq Operator = "neq"
)

var operatorSQL = map[Operator]string{
	OpEq:  "=",
	OpNeq: "<>",
}

// Filter is a single predicate on a text field of a result row.
// Field is either a column name or a JSON text path of the form column->>key.
type Filter struct {
	Field    string
	Operator Operator
	Value    string
}

// FileNameFilter matches rows whose metadata file_name equals fileName.
// No validation is done on fileName; an unknown name simply matches nothing.
func FileNameFilter(fileName string) Filter {
	return Filter{
		Field:    MetadataColumn + "->>" + core.FileNameKey,
		Operator: OpEq,
		Value:    fileName,
	}
}

func (f Filter) String() string {
	return fmt.Sprintf("%s %s %s", f.Field, f.Operator, f.Value)
}

// Validate checks that the filter can be rendered as SQL.
func (f Filter) Validate() error {
	if _, ok := operatorSQL[f.Operator]; !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedOperator, f.Operator)
	}
	column, key, isPath := strings.Cut(f.Field, "->>")
	if column == "" || (isPath && key == "") {
		return fmt.Errorf("%w: field %q", ErrInvalidFilter, f.Field)
	}
	return nil
}

// SQL renders the filter as a predicate whose value is bound to placeholder $param.
// Identifiers are quoted and the JSON key is emitted as an escaped literal;
// the value itself never appears in the returned text.
func (f Filter) SQL(param int) (string, error) {
	if err := f.Validate(); err != nil {
		return "", err
	}
	column, key, isPath := strings.Cut(f.Field, "->>")
	lhs := pgx.Identifier{column}.Sanitize()
	if isPath {
		lhs = fmt.Sprintf("%s->>'%s'", lhs, strings.ReplaceAll(key, "'", "''"))
	}
	return fmt.Sprintf("%s %s $%d", lhs, operatorSQL[f.Operator], param), nil
}

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



// Package vecdocs stores document chunks as embeddings in a Supabase-style
// Postgres vector table and retrieves them per source file.
//
// An Index owns the database connection and the embeddings providers built
// from each KeyConfiguration it is handed. Content is sanitized to printable
// ASCII before it is embedded. Azure OpenAI configurations write one document
// per store call; every other provider writes a batch in a single call.
package vecdocs

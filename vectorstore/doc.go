// Package vectorstore holds the names and filters shared by vector store
// backends that keep documents in a Supabase-style Postgres table.
//
// Documents live in the "documents" table and are searched through the
// "match_documents" SQL function, which takes a query embedding and a match
// count and returns (id, content, metadata, similarity) rows. Filters narrow
// those rows by a metadata field, e.g. restricting results to a single file:
//
//	f := vectorstore.FileNameFilter("report.pdf")
//	f.String() // metadata->>file_name eq report.pdf
package vectorstore

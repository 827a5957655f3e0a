// Package supabase implements a langchaingo vector store over the Postgres
// database behind a Supabase project.
//
// The database is expected to carry the standard Supabase vector schema: a
// documents table with content text, metadata jsonb and embedding vector
// columns, and a match_documents(query_embedding, match_count) function that
// returns rows ordered by similarity. The connection is explicit: Connect opens
// a pgx pool with the pgvector codecs registered, and Close releases it.
//
//	client, err := supabase.Connect(ctx, supabase.Connection{URL: url, Key: key})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	store, err := supabase.FromExistingIndex(client, embedder,
//		supabase.WithFilter(vectorstore.FileNameFilter("report.pdf")))
//	docs, err := store.SimilaritySearch(ctx, "quarterly revenue", 4)
package supabase

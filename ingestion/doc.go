// Package ingestion loads source files, splits them into chunks and saves the
// chunks to the vector index.
//
// LoadFile picks a document loader by file extension and tags every chunk
// with the file's base name under the file_name metadata key, which is what
// file-scoped retrieval filters on. The Pipeline runs one task per file on a
// bounded worker pool; the save strategy itself (one batch, or one document
// per call for Azure OpenAI) belongs to the provider behind the Saver.
package ingestion

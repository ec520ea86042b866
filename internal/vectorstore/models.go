package vectorstore

// MetadataFilename is the metadata key carrying a document's source file.
// Every ingested chunk sets it; retrieval reads it for citation.
const MetadataFilename = "filename"

// Document represents a document to be stored in the vector store.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Content is the text content of the document.
	Content string

	// Metadata contains additional key-value pairs.
	// Common fields: filename, chunk_index.
	Metadata map[string]interface{}
}

// SearchResult represents a search result from the vector store.
type SearchResult struct {
	// ID is the document identifier.
	ID string

	// Content is the document text content.
	Content string

	// Score is the similarity score (higher = more similar).
	Score float32

	// Metadata contains the document metadata.
	Metadata map[string]interface{}
}

// Filename returns the source filename from metadata, or "" if absent.
func (r SearchResult) Filename() string {
	if v, ok := r.Metadata[MetadataFilename].(string); ok {
		return v
	}
	return ""
}

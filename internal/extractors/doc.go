// Package extractors turns uploaded files into plain text documents.
//
// Each extractor handles a set of MIME types and file extensions. The
// Registry picks the highest-priority extractor for an upload, matching the
// declared MIME type first and the filename extension second.
package extractors

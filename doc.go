// Package multistream locates documents inside multi-member compressed dumps
// such as the Wikipedia "pages-articles-multistream" archives.
//
// A multistream dump is a concatenation of independently decodable
// compressed members, each holding a run of document elements with no
// enclosing root. A companion index maps every document to the byte offset
// of the member that holds it:
//
//	<block_offset>:<document_id>:<title>
//
// Lookups are two independent stages:
//   - A [Scanner] reads the index once, front to back, and returns the
//     [Record] values matching a [Query].
//   - An [Extractor] groups records by block offset, decompresses each
//     distinct block exactly once and returns the requested documents.
//
// # Quick Start
//
//	idx, err := multistream.OpenIndex("enwiki-multistream-index.txt.bz2")
//	if err != nil {
//	    return err
//	}
//	defer idx.Close()
//
//	records, err := idx.SearchByTitles(ctx, "Go (programming language)")
//	if err != nil {
//	    return err
//	}
//
//	archive, err := multistream.OpenArchive("enwiki-multistream.xml.bz2")
//	if err != nil {
//	    return err
//	}
//	defer archive.Close()
//
//	docs, err := archive.Extract(ctx, records)
//
// Archives may be bzip2 streams, gzip members or zstd frames; the format is
// detected per block unless fixed with [WithCompression]. Remote archives can
// be read through the http subpackage, which issues one range request per
// block.
package multistream

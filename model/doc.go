// Package model provides the normalized representation shared by every part
// of the reader core.
//
// Format adapters produce a [ParsedBook]; the substitution engine turns a
// [Chapter] into a [ProcessedChapter]; the scheduler and the due query operate
// on [VocabularyItem] values owned by the storage layer.
//
// # Books
//
// A [ParsedBook] carries [Metadata], ordered [Chapter] values, a [TOCItem]
// tree and an optional [Cover]. It is regenerated from the source file on
// every import and is never persisted as such; the storage row is [Book].
//
//	book, err := xenolexia.ParseBook(ctx, "novel.epub")
//	for _, ch := range book.Chapters {
//		fmt.Println(ch.Index, ch.Title, ch.WordCount)
//	}
//
// # Processed chapters
//
// [ProcessedChapter] extends [Chapter] with the rewritten content and the
// [ForeignWordData] list. Offsets are byte offsets into ProcessedContent,
// entries are sorted by StartIndex and never overlap.
//
// # Vocabulary
//
// [VocabularyItem] is the unit of spaced repetition. Its [Status] moves
// through new, learning, review and learned. Only the scheduler changes the
// scheduling fields.
package model

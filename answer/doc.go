// Package answer assembles the question answering flow.
//
// A question is embedded once, checked against the role-scoped answer
// cache, and on a miss retrieved against the documents visible to the
// asking role. The generator answers strictly from the retrieved chunks
// and signals insufficient evidence with a sentinel phrase, which callers
// can turn into a captured customer query for human follow-up.
package answer

// Package cache provides a role-scoped answer cache keyed by question
// similarity.
//
// Lookups compare the incoming question's embedding against stored
// question embeddings of the same role and reuse the best answer at or
// above the similarity threshold, bumping its hit count. Saves are keyed
// by the exact question text and role, so repeated saves of the same
// question update one entry instead of accumulating duplicates.
//
// Prune removes entries that are both stale (no hit within the prune age)
// and unpopular (hit count below the protected minimum).
package cache
